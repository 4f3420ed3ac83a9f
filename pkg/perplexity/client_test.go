package perplexity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/funding-cli/internal/resilience"
)

func TestChatCompletion(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantErr       string
		wantTransient bool
		wantContent   string
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body: `{
				"id": "cmpl-123",
				"model": "sonar",
				"choices": [{"index": 0, "message": {"role": "assistant", "content": "  https://acme.com \n"}}],
				"citations": ["https://techcrunch.com/acme"],
				"usage": {"prompt_tokens": 10, "completion_tokens": 5}
			}`,
			wantContent: "https://acme.com",
		},
		{
			name:          "rate_limit",
			status:        http.StatusTooManyRequests,
			body:          `{"error": "rate limit exceeded"}`,
			wantErr:       "unexpected status 429",
			wantTransient: true,
		},
		{
			name:          "server_error",
			status:        http.StatusBadGateway,
			body:          `bad gateway`,
			wantErr:       "unexpected status 502",
			wantTransient: true,
		},
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"error": "invalid api key"}`,
			wantErr: "unexpected status 401",
		},
		{
			name:    "malformed_response",
			status:  http.StatusOK,
			body:    `{invalid json`,
			wantErr: "unmarshal response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/chat/completions", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL+"/"))
			resp, err := client.ChatCompletion(context.Background(), Prompt("system", "Hi", 0.1, 100))

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, tt.wantTransient, resilience.IsTransient(err))
				assert.Nil(t, resp)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "cmpl-123", resp.ID)
			assert.Equal(t, tt.wantContent, resp.Content())
			assert.Equal(t, []string{"https://techcrunch.com/acme"}, resp.Citations)
			assert.Equal(t, 5, resp.Usage.CompletionTokens)
		})
	}
}

func TestChatCompletion_Model(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		req  ChatCompletionRequest
		want string
	}{
		{name: "default", want: "sonar"},
		{name: "option", opts: []Option{WithModel("sonar-pro")}, want: "sonar-pro"},
		{name: "empty option keeps default", opts: []Option{WithModel("")}, want: "sonar"},
		{name: "request wins", opts: []Option{WithModel("sonar-pro")}, req: ChatCompletionRequest{Model: "sonar-reasoning"}, want: "sonar-reasoning"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req ChatCompletionRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, tt.want, req.Model)
				_, _ = w.Write([]byte(`{"id":"1","choices":[],"usage":{}}`))
			}))
			defer srv.Close()

			opts := append([]Option{WithBaseURL(srv.URL)}, tt.opts...)
			_, err := NewClient("k", opts...).ChatCompletion(context.Background(), tt.req)
			require.NoError(t, err)
		})
	}
}

func TestPrompt(t *testing.T) {
	req := Prompt("be terse", "find acme", 0.1, 4000)

	require.Len(t, req.Messages, 2)
	assert.Equal(t, Message{Role: "system", Content: "be terse"}, req.Messages[0])
	assert.Equal(t, Message{Role: "user", Content: "find acme"}, req.Messages[1])
	require.NotNil(t, req.Temperature)
	assert.InDelta(t, 0.1, *req.Temperature, 1e-9)
	require.NotNil(t, req.MaxTokens)
	assert.Equal(t, 4000, *req.MaxTokens)

	assert.Nil(t, Prompt("s", "u", 0, 0).MaxTokens)
}

func TestContent_Empty(t *testing.T) {
	var nilResp *ChatCompletionResponse
	assert.Equal(t, "", nilResp.Content())
	assert.Equal(t, "", (&ChatCompletionResponse{}).Content())
}

func TestChatCompletion_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient("k", WithBaseURL(srv.URL)).ChatCompletion(ctx, ChatCompletionRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "perplexity: send request")
}
