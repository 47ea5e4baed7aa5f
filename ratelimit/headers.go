package ratelimit

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gaborage/go-apiclient/transport"
)

// Header names servers use to report usage-based rate limit state.
const (
	HeaderRemaining = "X-Ratelimit-Remaining"
	HeaderUsed      = "X-Ratelimit-Used"
	HeaderReset     = "X-Ratelimit-Reset"
)

// HeaderLimiter learns the server's rate limit window from response
// headers. When the window is exhausted it sleeps until the reported
// reset before the next transmission. Responses without rate limit
// headers leave the state untouched.
type HeaderLimiter struct {
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu        sync.Mutex
	remaining float64
	used      int
	resetAt   time.Time
	seen      bool
}

var _ Limiter = (*HeaderLimiter)(nil)

// NewHeaderLimiter creates a limiter with no recorded window state.
func NewHeaderLimiter() *HeaderLimiter {
	return &HeaderLimiter{
		now:   time.Now,
		sleep: sleepContext,
	}
}

// Call delays until the current window permits a transmission, obtains
// headers, performs the exchange, and records the new window state from
// the response.
func (l *HeaderLimiter) Call(ctx context.Context, headerFn HeaderFunc, transportFn TransportFunc) (*transport.Response, error) {
	if err := l.delay(ctx); err != nil {
		return nil, err
	}
	headers, err := headerFn(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := transportFn(ctx, headers)
	if err != nil {
		return nil, err
	}
	l.update(resp.Headers.Get(HeaderRemaining), resp.Headers.Get(HeaderUsed), resp.Headers.Get(HeaderReset))
	return resp, nil
}

func (l *HeaderLimiter) delay(ctx context.Context) error {
	l.mu.Lock()
	wait := time.Duration(0)
	if l.seen && l.remaining <= 0 {
		if until := l.resetAt.Sub(l.now()); until > 0 {
			wait = until
		}
	}
	l.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	return l.sleep(ctx, wait)
}

func (l *HeaderLimiter) update(remaining, used, reset string) {
	rem, err := strconv.ParseFloat(remaining, 64)
	if err != nil {
		return
	}
	resetSecs, err := strconv.Atoi(reset)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.remaining = rem
	if u, err := strconv.Atoi(used); err == nil {
		l.used = u
	}
	l.resetAt = l.now().Add(time.Duration(resetSecs) * time.Second)
	l.seen = true
}

// Remaining returns the last reported number of requests left in the
// window, and whether any window state has been observed yet.
func (l *HeaderLimiter) Remaining() (float64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining, l.seen
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
