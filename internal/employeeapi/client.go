package employeeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ignite/internal/employee"
	"ignite/internal/metrics"
)

const maxErrorBody = 64 << 10

// Client calls the external employee service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.HTTP = h }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client. Requests use the transport defaults; no retries and
// no client-side timeout are applied, callers bound requests with ctx.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches every employee.
func (c *Client) List(ctx context.Context) ([]employee.Record, error) {
	var out []employee.Record
	if err := c.do(ctx, OpList, http.MethodGet, "/users", nil, "", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []employee.Record{}
	}
	return out, nil
}

// Get fetches one employee by id.
func (c *Client) Get(ctx context.Context, id string) (employee.Record, error) {
	var out employee.Record
	if err := c.do(ctx, OpGet, http.MethodGet, "/user/"+url.PathEscape(id), nil, "", &out); err != nil {
		return employee.Record{}, err
	}
	return out, nil
}

type envelope struct {
	Data employee.Record `json:"data"`
}

// Create submits a draft as multipart form data and returns the stored record.
func (c *Client) Create(ctx context.Context, d employee.Draft) (employee.Record, error) {
	body, contentType, err := encodeDraft(d)
	if err != nil {
		return employee.Record{}, c.fail(OpCreate, 0, nil, err)
	}
	var out envelope
	if err := c.do(ctx, OpCreate, http.MethodPost, "/user", body, contentType, &out); err != nil {
		return employee.Record{}, err
	}
	return out.Data, nil
}

// Update replaces the editable fields of an employee.
func (c *Client) Update(ctx context.Context, id string, d employee.Draft) (employee.Record, error) {
	body, contentType, err := encodeDraft(d)
	if err != nil {
		return employee.Record{}, c.fail(OpUpdate, 0, nil, err)
	}
	var out envelope
	if err := c.do(ctx, OpUpdate, http.MethodPut, "/update/user/"+url.PathEscape(id), body, contentType, &out); err != nil {
		return employee.Record{}, err
	}
	return out.Data, nil
}

// Delete removes an employee.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, OpDelete, http.MethodDelete, "/delete/user/"+url.PathEscape(id), nil, "", nil)
}

// Ping checks that the service answers the list endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, OpPing, http.MethodGet, "/users", nil, "", nil)
}

func (c *Client) do(ctx context.Context, op Op, method, path string, body io.Reader, contentType string, out any) error {
	start := time.Now()
	outcome := "ok"
	defer func() {
		metrics.ObserveAPI(string(op), outcome, time.Since(start))
	}()

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		outcome = "request_error"
		return c.fail(op, 0, nil, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.log.Debug().Str("op", string(op)).Str("method", method).Str("path", path).Msg("employee api request")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		outcome = "transport_error"
		return c.fail(op, 0, nil, fmt.Errorf("employee service request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		outcome = fmt.Sprintf("http_%dxx", resp.StatusCode/100)
		return c.fail(op, resp.StatusCode, payload, fmt.Errorf("employee service error %s", resp.Status))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		outcome = "decode_error"
		return c.fail(op, resp.StatusCode, nil, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func (c *Client) fail(op Op, status int, payload []byte, cause error) error {
	f := newRequestFailure(op, status, payload, cause)
	c.log.Warn().Err(cause).Str("op", string(op)).Int("status", status).Str("message", f.Message).Msg("employee api request failed")
	return f
}
