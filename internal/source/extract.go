package source

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// listKeys are the object keys an answer may wrap its record list in.
var listKeys = []string{"companies", "results", "data", "funding_rounds"}

// ExtractJSON finds the JSON payload in an LLM answer. It strips a markdown
// fence, then tries the whole text, the outermost [...] span and the
// outermost {...} span, in that order.
func ExtractJSON(text string) (string, bool) {
	text = stripFence(strings.TrimSpace(text))

	if json.Valid([]byte(text)) {
		return text, true
	}
	for _, delims := range [][2]string{{"[", "]"}, {"{", "}"}} {
		start := strings.Index(text, delims[0])
		end := strings.LastIndex(text, delims[1])
		if start < 0 || end <= start {
			continue
		}
		if span := text[start : end+1]; json.Valid([]byte(span)) {
			return span, true
		}
	}
	return "", false
}

func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	lines = lines[1:]
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "```" {
		lines = lines[:n-1]
	}
	return strings.Join(lines, "\n")
}

// decodeItems decodes a JSON payload into record objects. An object is
// unwrapped through listKeys, or else treated as a single record. Non-object
// list elements are skipped.
func decodeItems(payload string) ([]map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return nil, eris.Wrap(err, "source: decode json")
	}

	if obj, ok := v.(map[string]any); ok {
		v = []any{obj}
		for _, k := range listKeys {
			if list, ok := obj[k].([]any); ok {
				v = list
				break
			}
		}
	}

	list, ok := v.([]any)
	if !ok {
		return nil, eris.Errorf("source: answer is %T, not a list", v)
	}

	items := make([]map[string]any, 0, len(list))
	for _, e := range list {
		if m, ok := e.(map[string]any); ok {
			items = append(items, m)
		}
	}
	return items, nil
}

var (
	amountRe    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(thousand|million|billion|mm|bn|k|m|b)?\b`)
	multipliers = map[string]float64{
		"k": 1e3, "thousand": 1e3,
		"m": 1e6, "mm": 1e6, "million": 1e6,
		"b": 1e9, "bn": 1e9, "billion": 1e9,
	}
)

// ParseAmount parses money strings such as "$10M", "1.5 billion" or
// "2,500,000" into whole dollars. "Undisclosed" and "unknown" yield nil. The
// unit must directly follow the number.
func ParseAmount(s string) *int64 {
	s = strings.ToLower(s)
	s = strings.NewReplacer(",", "", "$", "").Replace(s)
	s = strings.TrimSpace(s)
	if s == "" || strings.Contains(s, "undisclosed") || strings.Contains(s, "unknown") {
		return nil
	}

	m := amountRe.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	if mul, ok := multipliers[m[2]]; ok {
		n *= mul
	}
	n = math.Round(n)
	if n >= math.MaxInt64 || math.IsNaN(n) {
		return nil
	}
	v := int64(n)
	return &v
}
