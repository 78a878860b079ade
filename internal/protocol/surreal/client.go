// Package surreal implements protocol.Client over the SurrealDB HTTP /sql
// endpoint.
package surreal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/surmigrate/surmigrate/internal/protocol"
)

// Config holds the connection context for one target database.
type Config struct {
	URL       string
	User      string
	Password  string
	Namespace string
	Database  string
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Client sends statement batches to SurrealDB.
type Client struct {
	sqlURL    *url.URL
	healthURL *url.URL
	cfg       Config
	http      *http.Client
}

// New validates cfg and creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("surrealdb url is required")
	}
	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid surrealdb url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("surrealdb url must use http or https, got %q", base.Scheme)
	}

	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		sqlURL:    base.ResolveReference(&url.URL{Path: "sql"}),
		healthURL: base.ResolveReference(&url.URL{Path: "health"}),
		cfg:       cfg,
		http:      httpClient,
	}, nil
}

// Execute posts the batch text to /sql. Bound parameters travel as URL query
// variables and are referenced as $name in statements.
func (c *Client) Execute(ctx context.Context, batch protocol.Batch) ([]protocol.StatementResult, error) {
	target := *c.sqlURL
	if params := batch.Params(); len(params) > 0 {
		q := target.Query()
		for _, p := range params {
			q.Set(p.Name, p.Value)
		}
		target.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), strings.NewReader(batch.Text()))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", c.sqlURL.Redacted(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("complete response was not received: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("did not receive 2XX status, it was %d: %s: %s",
			resp.StatusCode, http.StatusText(resp.StatusCode), bytes.TrimSpace(body))
	}

	if err := validateResponse(body); err != nil {
		return nil, err
	}
	return protocol.DecodeResults(body)
}

// Ping checks the server health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach %s: %w", c.healthURL.Redacted(), err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "text/plain")
	if c.cfg.User != "" || c.cfg.Password != "" {
		req.SetBasicAuth(c.cfg.User, c.cfg.Password)
	}
	if c.cfg.Namespace != "" {
		req.Header.Set("NS", c.cfg.Namespace)
		req.Header.Set("Surreal-NS", c.cfg.Namespace)
	}
	if c.cfg.Database != "" {
		req.Header.Set("DB", c.cfg.Database)
		req.Header.Set("Surreal-DB", c.cfg.Database)
	}
}
