package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrNoToken is returned by TokenCredential.Refresh when the refresh
// function produced an empty token.
var ErrNoToken = errors.New("auth: refresh returned an empty token")

// StaticCredential is a fixed token with no refresh path. It is valid for
// as long as the token string is non-empty.
type StaticCredential struct {
	token string
}

// NewStaticCredential creates a credential around a fixed token.
func NewStaticCredential(token string) *StaticCredential {
	return &StaticCredential{token: token}
}

// IsValid reports whether a token is present.
func (c *StaticCredential) IsValid() bool {
	return c.token != ""
}

// AccessToken returns the fixed token.
func (c *StaticCredential) AccessToken() string {
	return c.token
}

// RefreshFunc obtains a new token and its lifetime from the authentication
// backend. It is the seam to the token-acquisition flows, which live
// outside this module.
type RefreshFunc func(ctx context.Context) (token string, expiresIn time.Duration, err error)

// TokenCredential is a refreshable, invalidatable credential. Concurrent
// Refresh calls are collapsed into a single call to the refresh function
// so a shared credential never stampedes the token endpoint.
type TokenCredential struct {
	refresh RefreshFunc
	now     func() time.Time

	mu      sync.RWMutex
	token   string
	expires time.Time

	sfg singleflight.Group
}

var (
	_ Credential  = (*TokenCredential)(nil)
	_ Refresher   = (*TokenCredential)(nil)
	_ Invalidator = (*TokenCredential)(nil)
)

// NewTokenCredential creates a credential that starts without a token; the
// first use triggers a refresh.
func NewTokenCredential(refresh RefreshFunc) *TokenCredential {
	return &TokenCredential{refresh: refresh, now: time.Now}
}

// IsValid reports whether a non-expired token is held.
func (c *TokenCredential) IsValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" {
		return false
	}
	return c.expires.IsZero() || c.now().Before(c.expires)
}

// AccessToken returns the current token, possibly empty or expired.
func (c *TokenCredential) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Refresh obtains a new token via the refresh function. Concurrent callers
// share a single in-flight refresh.
func (c *TokenCredential) Refresh(ctx context.Context) error {
	_, err, _ := c.sfg.Do("refresh", func() (any, error) {
		token, expiresIn, err := c.refresh(ctx)
		if err != nil {
			return nil, err
		}
		if token == "" {
			return nil, ErrNoToken
		}
		c.mu.Lock()
		c.token = token
		if expiresIn > 0 {
			c.expires = c.now().Add(expiresIn)
		} else {
			c.expires = time.Time{}
		}
		c.mu.Unlock()
		return nil, nil
	})
	return err
}

// Invalidate discards the current token.
func (c *TokenCredential) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.expires = time.Time{}
	c.mu.Unlock()
}
