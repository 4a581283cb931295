package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"anon-bbs/internal/config"
	"anon-bbs/internal/repository"
)

// Result is the raw outcome of a store call.
type Result struct {
	Status int
	Body   []byte
}

// OK reports a 2xx status.
func (r Result) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Decode unmarshals the body into v. Non-2xx results are reported as *StatusError.
func (r Result) Decode(v any) error {
	if !r.OK() {
		return &StatusError{Status: r.Status, Body: string(r.Body)}
	}
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode store response: %w", err)
	}
	return nil
}

// StatusError is a non-success answer from the store.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("store responded with status %d: %s", e.Status, e.Body)
}

// Client talks to a PostgREST-style endpoint at <url>/rest/v1/<collection>.
type Client struct {
	baseURL    string
	key        string
	configured bool
	http       *http.Client
}

func NewClient(cfg config.Store) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
		key:        strings.TrimSpace(cfg.Key),
		configured: cfg.Configured(),
		http:       &http.Client{Timeout: timeout},
	}
}

// Ready fails when the endpoint or key is missing.
func (c *Client) Ready() error {
	if !c.configured {
		return repository.ErrNotConfigured
	}
	return nil
}

// Query fetches rows of collection matching filter (a raw query string such as "id=eq.1").
func (c *Client) Query(ctx context.Context, collection, filter string) (Result, error) {
	return c.do(ctx, http.MethodGet, collection, filter, nil)
}

// Insert adds record to collection and returns the stored representation.
func (c *Client) Insert(ctx context.Context, collection string, record any) (Result, error) {
	return c.do(ctx, http.MethodPost, collection, "", record)
}

// UpdateWhere applies patch to every row of collection matching filter.
func (c *Client) UpdateWhere(ctx context.Context, collection string, patch any, filter string) (Result, error) {
	return c.do(ctx, http.MethodPatch, collection, filter, patch)
}

// DeleteWhere removes every row of collection matching filter.
func (c *Client) DeleteWhere(ctx context.Context, collection, filter string) (Result, error) {
	return c.do(ctx, http.MethodDelete, collection, filter, nil)
}

func (c *Client) do(ctx context.Context, method, collection, filter string, payload any) (Result, error) {
	if err := c.Ready(); err != nil {
		return Result{}, err
	}

	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", c.baseURL, collection, filter)

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Result{}, fmt.Errorf("encode %s payload: %w", collection, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return Result{}, fmt.Errorf("build %s %s request: %w", method, collection, err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%s %s: %w", method, collection, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Status: resp.StatusCode}, fmt.Errorf("read %s response: %w", collection, err)
	}
	return Result{Status: resp.StatusCode, Body: raw}, nil
}
