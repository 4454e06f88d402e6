package store

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

	"golang.org/x/time/rate"

	"github.com/hesi-tools/memberdir/internal/shared"
)

// Client talks to the hosted content store over its HTTP query and
// mutation endpoints. Construct once per process; the connection is
// stateless HTTP so there is no teardown.
type Client struct {
	projectID  string
	dataset    string
	apiVersion string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter

	baseOverride string
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL points the client at an explicit host instead of the
// project-derived one. Used by tests against httptest servers.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseOverride = base }
}

// WithRateLimit replaces the default request limiter.
func WithRateLimit(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// NewClient builds a store client from configuration. The token may be
// empty for public-dataset reads.
func NewClient(cfg shared.StoreConfig, token string, opts ...Option) (*Client, error) {
	if cfg.ProjectID == "" || cfg.Dataset == "" {
		return nil, fmt.Errorf("%w: store project and dataset are required", shared.ErrMissingConfig)
	}
	c := &Client{
		projectID:  cfg.ProjectID,
		dataset:    cfg.Dataset,
		apiVersion: cfg.APIVersion,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(10), 5),
	}
	if c.apiVersion == "" {
		c.apiVersion = "2024-10-01"
	}
	// Accept "v2024-10-01" and "2024-10-01" alike; endpoint() adds the v.
	c.apiVersion = strings.TrimPrefix(c.apiVersion, "v")
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) endpoint(kind string) string {
	base := c.baseOverride
	if base == "" {
		base = fmt.Sprintf("https://%s.api.sanity.io", c.projectID)
	}
	return fmt.Sprintf("%s/v%s/data/%s/%s", base, c.apiVersion, kind, c.dataset)
}

type queryResponse struct {
	Result json.RawMessage `json:"result"`
}

type errorResponse struct {
	Error struct {
		Description string `json:"description"`
	} `json:"error"`
	Message string `json:"message"`
}

// Query runs a GROQ query with named parameters and decodes the result
// into result, which must be a pointer. A nil result discards the body.
func (c *Client) Query(ctx context.Context, groq string, params map[string]any, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	values := url.Values{}
	values.Set("query", groq)
	for name, v := range params {
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode query param %s: %w", name, err)
		}
		values.Set("$"+name, string(encoded))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("query")+"?"+values.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build query request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read query response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: query returned %d: %s", shared.ErrStoreRequest, resp.StatusCode, errorDetail(body))
	}

	if result == nil {
		return nil
	}
	var qr queryResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return fmt.Errorf("decode query response: %w", err)
	}
	if len(qr.Result) == 0 || bytes.Equal(qr.Result, []byte("null")) {
		return shared.ErrNotFound
	}
	if err := json.Unmarshal(qr.Result, result); err != nil {
		return fmt.Errorf("decode query result: %w", err)
	}
	return nil
}

// CommitResult reports what a committed transaction touched.
type CommitResult struct {
	TransactionID string `json:"transactionId"`
	Results       []struct {
		ID        string `json:"id"`
		Operation string `json:"operation"`
	} `json:"results"`
}

// Commit posts the transaction's mutations as one atomic commit. An empty
// transaction is a no-op. Commit failures are terminal for the caller's
// run; the client never retries.
func (c *Client) Commit(ctx context.Context, tx *Transaction) (*CommitResult, error) {
	if tx.Empty() {
		return &CommitResult{}, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]any{"mutations": tx.mutations})
	if err != nil {
		return nil, fmt.Errorf("encode mutations: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("mutate")+"?returnIds=true", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build mutate request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreCommit, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read mutate response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: commit returned %d: %s", shared.ErrStoreCommit, resp.StatusCode, errorDetail(body))
	}

	var cr CommitResult
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("decode mutate response: %w", err)
	}
	return &cr, nil
}

// Ping runs the cheapest possible query to confirm the store is reachable
// with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	var n int
	return c.Query(ctx, "count(*[_id == 'nonexistent'])", nil, &n)
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
}

func errorDetail(body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil {
		if er.Error.Description != "" {
			return er.Error.Description
		}
		if er.Message != "" {
			return er.Message
		}
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}

// PickToken probes the configured tokens and returns the first one the
// store accepts, preferring the write token. Both failing is fatal for
// commands that must write.
func PickToken(ctx context.Context, cfg shared.StoreConfig, opts ...Option) (string, error) {
	for _, token := range []string{cfg.WriteToken, cfg.ReadToken} {
		if token == "" {
			continue
		}
		probe, err := NewClient(cfg, token, opts...)
		if err != nil {
			return "", err
		}
		if err := probe.Ping(ctx); err == nil {
			return token, nil
		}
	}
	return "", fmt.Errorf("%w: no working store token", shared.ErrMissingCredentials)
}
