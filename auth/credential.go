// Package auth defines the credential contracts the session consumes and
// provides token-backed implementations. The session only ever reads the
// access token at header-build time; whether a credential can be refreshed
// or invalidated is expressed through capability interfaces resolved once
// at session construction.
package auth

import "context"

// Credential holds a bearer token used to authorize outgoing requests.
type Credential interface {
	// IsValid reports whether the current access token is usable.
	IsValid() bool
	// AccessToken returns the current access token. Callers must not cache
	// the returned value beyond building a single request.
	AccessToken() string
}

// Refresher is the capability of obtaining a fresh access token. Refresh
// may perform network I/O and blocks until a new token is available or an
// error occurs.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Invalidator is the capability of discarding the current access token,
// forcing a refresh before the next use.
type Invalidator interface {
	Invalidate()
}
