package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redirectTransport sends every request to the test server.
type redirectTransport struct {
	target *url.URL
}

func (rt redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	inner := notionapi.NewClient("secret", notionapi.WithHTTPClient(&http.Client{
		Transport: redirectTransport{target: target},
	}))
	return NewClient("secret", WithAPIClient(inner), WithRateLimit(0))
}

func TestCreatePage(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/pages", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"page","id":"page-1"}`))
	})

	props := Properties{}.Title("Name", "Acme").URL("Website", "https://acme.com")
	page, err := c.CreatePage(context.Background(), DatabasePage("db-123", props))
	require.NoError(t, err)
	assert.Equal(t, notionapi.ObjectID("page-1"), page.ID)

	parent, ok := got["parent"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "db-123", parent["database_id"])
	properties, ok := got["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, properties, "Name")
	assert.Contains(t, properties, "Website")
}

func TestCreatePage_Error(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"object":"error","status":400,"code":"validation_error","message":"bad property"}`))
	})

	_, err := c.CreatePage(context.Background(), DatabasePage("db-123", Properties{}.Title("Name", "x")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion: create page")
}

func TestCreatePage_RateLimitCancelled(t *testing.T) {
	c := NewClient("secret", WithRateLimit(0.001))
	nc := c.(*notionClient)
	// Drain the single burst token.
	require.True(t, nc.limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.CreatePage(ctx, DatabasePage("db", Properties{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notion: rate limit")
}
