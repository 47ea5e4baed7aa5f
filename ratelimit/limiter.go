// Package ratelimit throttles outgoing API calls. A Limiter sits between
// the session and the transport: it may delay the call, and it always
// obtains headers through a callback immediately before transmission so
// the request carries the freshest credential even after a long wait.
package ratelimit

import (
	"context"

	"github.com/gaborage/go-apiclient/transport"
)

// HeaderFunc produces the headers for one transmission. It is invoked
// right before the transport call, never earlier.
type HeaderFunc func(ctx context.Context) (map[string]string, error)

// TransportFunc performs one HTTP exchange with the given headers.
type TransportFunc func(ctx context.Context, headers map[string]string) (*transport.Response, error)

// Limiter delays and executes rate-limited exchanges.
type Limiter interface {
	Call(ctx context.Context, headerFn HeaderFunc, transportFn TransportFunc) (*transport.Response, error)
}

// NoopLimiter applies no throttling.
type NoopLimiter struct{}

// Call obtains headers and performs the exchange immediately.
func (NoopLimiter) Call(ctx context.Context, headerFn HeaderFunc, transportFn TransportFunc) (*transport.Response, error) {
	headers, err := headerFn(ctx)
	if err != nil {
		return nil, err
	}
	return transportFn(ctx, headers)
}
