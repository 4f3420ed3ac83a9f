package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"comma inc with period", "OpenAI, Inc.", "openai"},
		{"bare inc", "OpenAI Inc", "openai"},
		{"already normal", "openai", "openai"},
		{"llc", "Stripe, LLC", "stripe"},
		{"dotted llc", "Foo L.L.C.", "foo"},
		{"suffixes stripped in order", "Acme Holdings Inc", "acme"},
		{"capital", "Sequoia Capital", "sequoia"},
		{"single pass per suffix", "Andreessen Horowitz Fund LP", "andreessen horowitz fund"},
		{"punctuation and whitespace", "  Hello   World!  ", "hello world"},
		{"suffix is not word bounded", "Disco", "dis"},
		{"unicode letters kept", "Café Ünïcode Labs", "café ünïcode labs"},
		{"underscore kept", "Acme_Bio", "acme_bio"},
		{"ampersand dropped", "Smith & Sons", "smith sons"},
		{"empty", "", ""},
		{"only suffix", "Inc.", ""},
		{"whitespace only", "   ", ""},
		{"no-break space kept as separator", "Open\u00a0AI", "open ai"},
		{"vertical tab kept as separator", "Open\vAI", "open ai"},
		{"ideographic space", "Open\u3000AI", "open ai"},
		{"no-break space before suffix", "Acme Robotics,\u00a0Inc.", "acme robotics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_EquivalentSpellings(t *testing.T) {
	t.Parallel()

	want := Normalize("openai")
	assert.Equal(t, want, Normalize("OpenAI, Inc."))
	assert.Equal(t, want, Normalize("OpenAI Inc"))
}
