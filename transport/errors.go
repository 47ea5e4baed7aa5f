package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// RequestError is the uniform envelope for transport-level failures. It
// always wraps the original cause so callers can inspect it with
// errors.Is/As.
type RequestError struct {
	Method string
	URL    string
	cause  error
}

// NewRequestError wraps cause in a RequestError for the given exchange.
func NewRequestError(method, url string, cause error) *RequestError {
	return &RequestError{Method: method, URL: url, cause: cause}
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("transport: %s %s: %v", e.Method, e.URL, e.cause)
}

func (e *RequestError) Unwrap() error {
	return e.cause
}

// Retryable reports whether the failure is in the transient set worth
// retrying: timeouts, connection resets/refusals, and truncated bodies.
// Caller-initiated cancellation is never retryable.
func (e *RequestError) Retryable() bool {
	if errors.Is(e.cause, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(e.cause, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(e.cause, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(e.cause, syscall.ECONNRESET) ||
		errors.Is(e.cause, syscall.ECONNREFUSED) ||
		errors.Is(e.cause, syscall.EPIPE) {
		return true
	}
	// A body cut short mid-chunk surfaces as an unexpected EOF.
	return errors.Is(e.cause, io.ErrUnexpectedEOF) || errors.Is(e.cause, io.EOF)
}
