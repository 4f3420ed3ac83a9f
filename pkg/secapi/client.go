// Package secapi is a client for the sec-api.io Form D search endpoint.
package secapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/funding-cli/internal/resilience"
)

const defaultBaseURL = "https://api.sec-api.io"

// Client searches Form D filings.
type Client interface {
	SearchFormD(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Form D search client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FiledSince builds the request for one page of filings filed on or after
// since, newest first.
func FiledSince(since time.Time, from, size int) SearchRequest {
	return SearchRequest{
		Query: "filedAt:[" + since.Format(time.DateOnly) + " TO *]",
		From:  strconv.Itoa(from),
		Size:  strconv.Itoa(size),
		Sort:  []SortField{{"filedAt": {Order: "desc"}}},
	}
}

func (c *httpClient) SearchFormD(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "secapi: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/form-d", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "secapi: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "secapi: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError("secapi", resp)
	}

	var result SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, eris.Wrap(err, "secapi: unmarshal response")
	}
	return &result, nil
}
