package bankapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 30 * time.Second

// Interceptor wraps the transport of every request the client sends.
type Interceptor interface {
	Intercept(next http.RoundTripper) http.RoundTripper
}

// InterceptorFunc adapts a function to Interceptor.
type InterceptorFunc func(next http.RoundTripper) http.RoundTripper

func (f InterceptorFunc) Intercept(next http.RoundTripper) http.RoundTripper {
	return f(next)
}

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Client talks JSON to the Banking API. Every call goes through the
// interceptor chain installed with Use.
type Client struct {
	baseURL string
	base    http.RoundTripper
	http    *http.Client
	log     zerolog.Logger
}

type ClientOption func(*Client)

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithTransport replaces the innermost transport (http.DefaultTransport).
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.base = rt
	}
}

func WithClientLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a client for the API rooted at baseURL, for example
// http://localhost:8081/api.
func NewClient(baseURL string, options ...ClientOption) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("[NewClient] base URL is required")
	}

	c := &Client{
		baseURL: baseURL,
		base:    http.DefaultTransport,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	c.http.Transport = RequestID().Intercept(c.base)
	return c, nil
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Use installs the interceptors. The first one sees the request first and
// the response last. A request ID is always stamped before them.
func (c *Client) Use(interceptors ...Interceptor) {
	rt := c.base
	for i := len(interceptors) - 1; i >= 0; i-- {
		rt = interceptors[i].Intercept(rt)
	}
	c.http.Transport = RequestID().Intercept(rt)
}

// RequestOption adjusts a single outgoing request.
type RequestOption func(*http.Request)

// WithHeader sets a header on the request.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// WithBearer attaches a credential explicitly. The Authorizer leaves
// requests that already carry one alone.
func WithBearer(token string) RequestOption {
	return func(r *http.Request) {
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

func (c *Client) Get(ctx context.Context, path string, out any, options ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, options...)
}

func (c *Client) Post(ctx context.Context, path string, in, out any, options ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, in, out, options...)
}

// Do sends in as JSON and decodes the response into out. out may be nil,
// *string for text bodies, *json.RawMessage, or any JSON target. Non-2xx
// answers are returned as *APIError; transport errors are returned as the
// http.Client reported them.
func (c *Client) Do(ctx context.Context, method, path string, in, out any, options ...RequestOption) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("[Client Do] encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("[Client Do] %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range options {
		opt(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(method, path, resp)
	}

	return decodeBody(resp.Body, out)
}

func decodeBody(r io.Reader, out any) error {
	switch target := out.(type) {
	case nil:
		_, _ = io.Copy(io.Discard, r)
		return nil
	case *string:
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("[Client Do] read response: %w", err)
		}
		*target = string(data)
		return nil
	case *json.RawMessage:
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("[Client Do] read response: %w", err)
		}
		*target = json.RawMessage(data)
		return nil
	default:
		if err := json.NewDecoder(r).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("[Client Do] decode response: %w", err)
		}
		return nil
	}
}
