// Package client provides the base HTTP client for the Treasure Data REST
// APIs. Service-specific clients (Hive jobs, workflow, CDP) are built on top
// of it; they share API-key auth, site endpoint resolution, and credential
// masking.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "td-mcp-server"

	// maxErrorBodyBytes caps how much of an error response body is carried
	// into the returned error.
	maxErrorBodyBytes = 2048
)

// Site identifies a Treasure Data region.
type Site string

// Supported Treasure Data sites.
const (
	SiteUS01 Site = "us01"
	SiteEU01 Site = "eu01"
	SiteAP02 Site = "ap02"
	SiteAP03 Site = "ap03"
)

// Valid reports whether s names a supported site.
func (s Site) Valid() bool {
	switch s {
	case SiteUS01, SiteEU01, SiteAP02, SiteAP03:
		return true
	}
	return false
}

// APIHost returns the REST API host for the site.
func (s Site) APIHost() string {
	if s == SiteUS01 {
		return "api.treasuredata.com"
	}
	return fmt.Sprintf("api.%s.treasuredata.com", s)
}

// WorkflowHost returns the workflow API host for the site.
func (s Site) WorkflowHost() string {
	if s == SiteUS01 {
		return "api-workflow.treasuredata.com"
	}
	return fmt.Sprintf("api-workflow.%s.treasuredata.com", s)
}

// PrestoHost returns the Trino query endpoint host for the site.
func (s Site) PrestoHost() string {
	if s == SiteUS01 {
		return "api-presto.treasuredata.com"
	}
	return fmt.Sprintf("api-presto.%s.treasuredata.com", s)
}

// CDPHost returns the CDP API host for the site.
func (s Site) CDPHost() string {
	if s == SiteUS01 {
		return "api-cdp.treasuredata.com"
	}
	return fmt.Sprintf("api-cdp.%s.treasuredata.com", s)
}

// Config holds client configuration.
type Config struct {
	APIKey    string
	Site      Site
	Timeout   time.Duration
	UserAgent string

	// BaseURL overrides the site-derived endpoint. Tests use this to point
	// the client at a local server.
	BaseURL string
}

// Client issues authenticated requests against one Treasure Data endpoint.
// It is safe for concurrent use.
type Client struct {
	apiKey    string
	baseURL   string
	userAgent string
	http      *http.Client
}

// New creates a client for the site's REST API endpoint.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("td api key is required")
	}
	if cfg.Site == "" {
		cfg.Site = SiteUS01
	}
	if !cfg.Site.Valid() {
		return nil, fmt.Errorf("unknown td site: %s", cfg.Site)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://" + cfg.Site.APIHost()
	}

	return &Client{
		apiKey:    cfg.APIKey,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// ForHost returns a client sharing auth and transport settings but targeting
// a different host. Workflow and CDP clients are derived this way.
func (c *Client) ForHost(host string) *Client {
	derived := *c
	if strings.Contains(host, "://") {
		derived.baseURL = strings.TrimSuffix(host, "/")
	} else {
		derived.baseURL = "https://" + host
	}
	return &derived
}

// BaseURL returns the endpoint the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

// GetRaw issues a GET request and returns the raw response body. Job results
// arrive as newline-delimited JSON rows, which the caller decodes itself.
func (c *Client) GetRaw(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", c.maskError(err))
	}
	req.Header.Set("Authorization", "TD1 "+c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", c.maskError(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, fmt.Errorf("td api GET %s: status %d: %s",
			path, resp.StatusCode, c.Mask(string(snippet)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return data, nil
}

// Post issues a POST request with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT request with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", c.maskError(err))
	}
	req.Header.Set("Authorization", "TD1 "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", c.maskError(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return fmt.Errorf("td api %s %s: status %d: %s",
			method, path, resp.StatusCode, c.Mask(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Mask replaces any occurrence of the API key in s with "***". Every error
// string leaving the client passes through this so credentials never reach
// the caller.
func (c *Client) Mask(s string) string {
	if c.apiKey == "" {
		return s
	}
	return strings.ReplaceAll(s, c.apiKey, "***")
}

// maskError wraps err with its message masked. The original error chain is
// dropped deliberately: unwrapping could expose the unmasked message.
func (c *Client) maskError(err error) error {
	return fmt.Errorf("%s", c.Mask(err.Error()))
}
