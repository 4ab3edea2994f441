// Package rest is the request plumbing shared by the backend and GitHub
// clients: JSON in, JSON out, token authentication, and the mapping of
// failures onto the apperror taxonomy.
//
//   - the request never got a response      → apperror.ErrConnection
//   - the server answered with a non-2xx    → apperror.ErrAPI (status, {message}, body text)
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

	"golang.org/x/oauth2"

	"github.com/sakif/commit-dashboard/internal/apperror"
)

// maxErrorBody caps how much of a failed response is kept for the error.
const maxErrorBody = 64 << 10

// Client talks JSON to one base URL.
type Client struct {
	baseURL string
	base    http.RoundTripper
	timeout time.Duration
	header  http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces http.DefaultTransport, e.g. with an httptest
// server's transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.base = rt }
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Set(key, value) }
}

// New returns a Client for baseURL. A zero timeout means no client-side
// timeout; the caller's context still applies.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		base:    http.DefaultTransport,
		timeout: timeout,
		header:  http.Header{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the URL requests are resolved against.
func (c *Client) BaseURL() string { return c.baseURL }

// Bearer is the token form the backend expects.
func Bearer(token string) *oauth2.Token {
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
}

// PAT is the token form GitHub expects for a personal access token:
// "Authorization: token <PAT>".
func PAT(token string) *oauth2.Token {
	return &oauth2.Token{AccessToken: token, TokenType: "token"}
}

// Request describes one call.
type Request struct {
	Method string
	Path   string
	Token  *oauth2.Token // nil sends no Authorization header
	Body   any           // JSON-encoded when non-nil
}

// Do sends req and decodes a 2xx JSON response into out (which may be nil).
// op names the operation for error messages, e.g. "list commits".
func (c *Client) Do(ctx context.Context, op string, req Request, out any) error {
	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("rest: encoding %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return fmt.Errorf("rest: building %s request: %w", op, err)
	}
	for k, vs := range c.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	resp, err := c.httpClient(req.Token).Do(httpReq)
	if err != nil {
		return apperror.Connection(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return apperror.API(op, resp.StatusCode, messageOf(raw), string(raw))
	}

	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperror.Connection(op, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("rest: decoding %s response: %w", op, err)
	}
	return nil
}

// Get is Do with GET and no body.
func (c *Client) Get(ctx context.Context, op, path string, token *oauth2.Token, out any) error {
	return c.Do(ctx, op, Request{Method: http.MethodGet, Path: path, Token: token}, out)
}

func (c *Client) httpClient(token *oauth2.Token) *http.Client {
	rt := c.base
	if token != nil {
		rt = &oauth2.Transport{Source: oauth2.StaticTokenSource(token), Base: c.base}
	}
	return &http.Client{Transport: rt, Timeout: c.timeout}
}

// messageOf extracts {"message": "..."} from an error body, or "".
func messageOf(raw []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
