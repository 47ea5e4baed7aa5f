package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/gaborage/go-apiclient/transport"
)

// TokenBucket paces calls with a client-side token bucket. It is useful
// when the caller knows the API's sustained rate up front rather than
// learning it from response headers.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket creates a limiter allowing rps requests per second with
// the given burst size.
func NewTokenBucket(rps float64, burst int) *TokenBucket {
	return &TokenBucket{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

var _ Limiter = (*TokenBucket)(nil)

// Call blocks until the bucket permits the exchange, then obtains headers
// and transmits.
func (b *TokenBucket) Call(ctx context.Context, headerFn HeaderFunc, transportFn TransportFunc) (*transport.Response, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	headers, err := headerFn(ctx)
	if err != nil {
		return nil, err
	}
	return transportFn(ctx, headers)
}
