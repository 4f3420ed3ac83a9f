// Package clay posts records to a Clay table webhook.
package clay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/funding-cli/internal/resilience"
)

// Record is one row as Clay expects it. Optional fields are omitted when
// unknown; list fields are pre-joined with ", ".
type Record struct {
	CompanyName      string `json:"company_name"`
	CompanyWebsite   string `json:"company_website,omitempty"`
	FundingAmount    *int64 `json:"funding_amount,omitempty"`
	FundingRound     string `json:"funding_round"`
	Investors        string `json:"investors"`
	Industry         string `json:"industry"`
	Location         string `json:"location"`
	FoundingYear     *int   `json:"founding_year,omitempty"`
	Source           string `json:"source"`
	AnnouncementDate string `json:"announcement_date"`
	Description      string `json:"description"`
	CEOName          string `json:"ceo_name,omitempty"`
	Executives       string `json:"executives"`
	Phone            string `json:"phone"`
	LinkedInURL      string `json:"linkedin_url,omitempty"`
	SECFilingURL     string `json:"sec_filing_url,omitempty"`
}

// Client sends payloads to a webhook.
type Client interface {
	// Send posts body as JSON. Any status other than 200, 201 or 202 is an
	// error; 408, 429 and 5xx are transient.
	Send(ctx context.Context, body any) error
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

type httpClient struct {
	url  string
	http *http.Client
}

// NewClient creates a webhook client for url.
func NewClient(url string, opts ...Option) Client {
	c := &httpClient{
		url:  strings.TrimSpace(url),
		http: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Send(ctx context.Context, body any) error {
	if c.url == "" {
		return eris.New("clay: webhook url not configured")
	}

	data, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "clay: marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return eris.Wrap(err, "clay: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "clay: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	default:
		return resilience.StatusError("clay", resp)
	}
}

// TestRecord is the payload used to check a webhook is accepting data.
func TestRecord() map[string]any {
	return map[string]any{
		"company_name":    "Test Company",
		"company_website": "https://test.com",
		"funding_amount":  1000000,
		"funding_round":   "Test",
		"source":          "Test",
		"description":     "This is a test record from the SEC scraper.",
	}
}
