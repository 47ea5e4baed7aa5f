// Package transport owns the HTTP exchange itself: it resolves paths
// against the API base URL, performs the call without following redirects,
// and wraps every network failure in a uniform RequestError so the layers
// above can classify outcomes without knowing net/http error shapes.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gaborage/go-apiclient/trace"
)

const (
	// DefaultTimeout bounds a single attempt end to end.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies the client when none is configured.
	DefaultUserAgent = "go-apiclient"
)

// Response is a fully drained HTTP response. The body is read eagerly so
// an attempt either yields a complete response or a transport failure,
// never a half-consumed stream.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// ContentLength returns the declared Content-Length header value, or ""
// when the server did not declare one.
func (r *Response) ContentLength() string {
	return r.Headers.Get("Content-Length")
}

// Requestor performs HTTP exchanges against a base URL.
type Requestor struct {
	httpClient *http.Client
	baseURL    *url.URL
	userAgent  string
}

// Option configures a Requestor.
type Option func(*Requestor)

// WithHTTPClient replaces the underlying HTTP client. The redirect policy
// is still overridden so redirects always surface as responses.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Requestor) {
		r.httpClient = c
	}
}

// WithUserAgent sets the User-Agent header for all requests.
func WithUserAgent(ua string) Option {
	return func(r *Requestor) {
		r.userAgent = ua
	}
}

// WithTimeout sets the per-attempt timeout on the underlying client.
func WithTimeout(d time.Duration) Option {
	return func(r *Requestor) {
		r.httpClient.Timeout = d
	}
}

// New creates a Requestor for the given base URL.
func New(baseURL string, opts ...Option) (*Requestor, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("transport: invalid base URL %q: %w", baseURL, err)
	}
	r := &Requestor{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    parsed,
		userAgent:  DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(r)
	}
	// Redirects are classified upstream, not followed.
	r.httpClient.CheckRedirect = func(_ *http.Request, _ []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return r, nil
}

// Resolve joins path against the base URL. Absolute URLs pass through.
func (r *Requestor) Resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return path
	}
	return r.baseURL.ResolveReference(ref).String()
}

// Request performs a single HTTP exchange and drains the response body.
// Any network or read failure is returned as a *RequestError wrapping the
// original cause.
func (r *Requestor) Request(ctx context.Context, method, rawURL string, headers map[string]string, params url.Values, contentType string, body []byte) (*Response, error) {
	target := rawURL
	if len(params) > 0 {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, NewRequestError(method, rawURL, err)
		}
		q := u.Query()
		for key, values := range params {
			for _, v := range values {
				q.Set(key, v)
			}
		}
		u.RawQuery = q.Encode()
		target = u.String()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, NewRequestError(method, target, err)
	}

	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set(trace.HeaderRequestID, trace.EnsureRequestID(ctx))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, NewRequestError(method, target, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewRequestError(method, target, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}, nil
}

// Close releases idle connections held by the underlying client.
func (r *Requestor) Close() {
	r.httpClient.CloseIdleConnections()
}
