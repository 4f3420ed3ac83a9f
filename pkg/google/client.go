// Package google wraps the Google Places Text Search API, used to look up
// a company's listed website.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/funding-cli/internal/resilience"
)

const (
	defaultBaseURL  = "https://places.googleapis.com/v1"
	defaultPageSize = 5
	fieldMask       = "places.displayName,places.websiteUri,places.formattedAddress"
)

// Client searches Google Places.
type Client interface {
	TextSearch(ctx context.Context, req TextSearchRequest) (*TextSearchResponse, error)
}

// TextSearchRequest is the body of POST /places:searchText. PageSize
// defaults to 5.
type TextSearchRequest struct {
	TextQuery  string `json:"textQuery"`
	PageSize   int    `json:"pageSize,omitempty"`
	RegionCode string `json:"regionCode,omitempty"`
}

// TextSearchResponse lists the matched places, best match first.
type TextSearchResponse struct {
	Places []Place `json:"places"`
}

// Place carries the fields selected by the request field mask.
type Place struct {
	DisplayName      DisplayName `json:"displayName"`
	WebsiteURI       string      `json:"websiteUri,omitempty"`
	FormattedAddress string      `json:"formattedAddress,omitempty"`
}

// Name returns the place's display text.
func (p Place) Name() string { return p.DisplayName.Text }

// DisplayName is a localized place name.
type DisplayName struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode,omitempty"`
}

// Option configures the client.
type Option func(*placesClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *placesClient) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *placesClient) { c.http = hc }
}

type placesClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Places client authenticated with an API key.
func NewClient(apiKey string, opts ...Option) Client {
	c := &placesClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// TextSearch runs a free-text place search. 408, 429 and 5xx responses are
// returned as *resilience.TransientError.
func (c *placesClient) TextSearch(ctx context.Context, req TextSearchRequest) (*TextSearchResponse, error) {
	if strings.TrimSpace(req.TextQuery) == "" {
		return nil, eris.New("google: empty text query")
	}
	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}

	var out TextSearchResponse
	if err := c.post(ctx, "/places:searchText", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *placesClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return eris.Wrap(err, "google: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "google: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "google: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return resilience.StatusError("google", resp)
	}
	return eris.Wrap(json.NewDecoder(resp.Body).Decode(out), "google: decode response")
}
