package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-apiclient/trace"
)

func TestResolve(t *testing.T) {
	r, err := New("https://oauth.example.com/")
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "relative path", path: "api/v1/me", want: "https://oauth.example.com/api/v1/me"},
		{name: "absolute path", path: "/api/v1/me", want: "https://oauth.example.com/api/v1/me"},
		{name: "absolute url passes through", path: "https://other.example.com/x", want: "https://other.example.com/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.path))
		})
	}
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := New("://nope")
	require.Error(t, err)
}

func TestRequestSendsHeadersAndParams(t *testing.T) {
	var got *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(r.Context())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	r, err := New(server.URL, WithUserAgent("test-agent/1.0"))
	require.NoError(t, err)
	defer r.Close()

	params := url.Values{}
	params.Set("b", "2")
	params.Set("a", "1")
	resp, err := r.Request(context.Background(), http.MethodGet, server.URL+"/things",
		map[string]string{"Authorization": "bearer tok"}, params, "", nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []byte(`{"ok":true}`), resp.Body)
	assert.Equal(t, "test-agent/1.0", got.Header.Get("User-Agent"))
	assert.Equal(t, "bearer tok", got.Header.Get("Authorization"))
	assert.NotEmpty(t, got.Header.Get(trace.HeaderRequestID))
	assert.Equal(t, "1", got.URL.Query().Get("a"))
	assert.Equal(t, "2", got.URL.Query().Get("b"))
}

func TestRequestPropagatesContextRequestID(t *testing.T) {
	var gotID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(trace.HeaderRequestID)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	r, err := New(server.URL)
	require.NoError(t, err)
	defer r.Close()

	ctx := trace.WithRequestID(context.Background(), "fixed-id")
	_, err = r.Request(ctx, http.MethodGet, server.URL, nil, nil, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", gotID)
}

func TestRequestDoesNotFollowRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer server.Close()

	r, err := New(server.URL)
	require.NoError(t, err)
	defer r.Close()

	resp, err := r.Request(context.Background(), http.MethodGet, server.URL, nil, nil, "", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/elsewhere", resp.Headers.Get("Location"))
}

func TestRequestSendsBody(t *testing.T) {
	var gotBody []byte
	var gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	r, err := New(server.URL)
	require.NoError(t, err)
	defer r.Close()

	resp, err := r.Request(context.Background(), http.MethodPost, server.URL,
		nil, nil, "application/x-www-form-urlencoded", []byte("a=1&b=2"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "a=1&b=2", string(gotBody))
	assert.Equal(t, "application/x-www-form-urlencoded", gotType)
}

func TestRequestWrapsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	server.Close() // connection refused from here on

	r, err := New(server.URL, WithTimeout(time.Second))
	require.NoError(t, err)

	_, err = r.Request(context.Background(), http.MethodGet, server.URL, nil, nil, "", nil)
	require.Error(t, err)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.MethodGet, reqErr.Method)
	assert.True(t, reqErr.Retryable())
}

func TestRequestErrorRetryable(t *testing.T) {
	tests := []struct {
		name      string
		cause     error
		retryable bool
	}{
		{name: "connection reset", cause: syscall.ECONNRESET, retryable: true},
		{name: "connection refused", cause: syscall.ECONNREFUSED, retryable: true},
		{name: "broken pipe", cause: syscall.EPIPE, retryable: true},
		{name: "truncated body", cause: io.ErrUnexpectedEOF, retryable: true},
		{name: "deadline exceeded", cause: context.DeadlineExceeded, retryable: true},
		{name: "caller cancellation", cause: context.Canceled, retryable: false},
		{name: "unknown failure", cause: errors.New("tls handshake rejected"), retryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRequestError(http.MethodGet, "https://api.example.com", tt.cause)
			assert.Equal(t, tt.retryable, err.Retryable())
			assert.ErrorIs(t, err, tt.cause)
		})
	}
}

func TestResponseContentLength(t *testing.T) {
	resp := &Response{Headers: http.Header{"Content-Length": []string{"0"}}}
	assert.Equal(t, "0", resp.ContentLength())

	resp = &Response{Headers: http.Header{}}
	assert.Empty(t, resp.ContentLength())
}
