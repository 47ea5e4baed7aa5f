// Package session implements the request execution core of the API client:
// a bounded retry state machine, a closed error taxonomy, and the pipeline
// that turns a logical request into an authenticated, rate-limited
// exchange returning decoded JSON or a classified error.
//
// Retries
//   - The budget is consumed on every attempt, including the first.
//   - Transient transport failures and upstream 5xx/CDN statuses are
//     retried while budget remains, then surfaced.
//   - A 401 invalidates the credential and, when the credential can
//     refresh, forces a retry with a fresh token.
//   - All other classified statuses surface immediately.
//
// A single Session is not safe for concurrent use; callers wanting
// parallelism must serialize access or share only the credential and
// limiter, which are safe.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/gaborage/go-apiclient/auth"
	"github.com/gaborage/go-apiclient/logger"
	"github.com/gaborage/go-apiclient/ratelimit"
	"github.com/gaborage/go-apiclient/transport"
)

// AuthRetryPolicy decides what happens when a 401 arrives after the retry
// budget is already exhausted but the credential could still refresh.
type AuthRetryPolicy int

const (
	// AuthRetryRespectBudget never exceeds the configured budget; an
	// exhausted 401 surfaces as an auth failure.
	AuthRetryRespectBudget AuthRetryPolicy = iota
	// AuthRetryExtraAttempt grants one attempt beyond the budget, once per
	// request, when a refresh-capable credential was just invalidated.
	AuthRetryExtraAttempt
)

// Session executes logical requests against the API.
type Session struct {
	credential  auth.Credential
	refresher   auth.Refresher
	invalidator auth.Invalidator
	requestor   *transport.Requestor
	limiter     ratelimit.Limiter
	log         logger.Logger
	retries     int
	authPolicy  AuthRetryPolicy
	rng         *rand.Rand
	sleep       func(time.Duration)
}

// Option configures a Session.
type Option func(*Session)

// WithLimiter replaces the default header-tracking rate limiter.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(s *Session) {
		s.limiter = l
	}
}

// WithLogger replaces the default logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// WithRetries sets the retry budget for each request.
func WithRetries(retries int) Option {
	return func(s *Session) {
		s.retries = retries
	}
}

// WithAuthRetryPolicy sets the exhausted-budget 401 policy.
func WithAuthRetryPolicy(p AuthRetryPolicy) Option {
	return func(s *Session) {
		s.authPolicy = p
	}
}

// WithRandSource seeds the jitter source. Tests use this to make sleep
// durations reproducible.
func WithRandSource(src rand.Source) Option {
	return func(s *Session) {
		s.rng = rand.New(src)
	}
}

// New creates a Session around a credential and a requestor. The
// credential must either be currently valid or support refresh; anything
// else is a misuse of the API and fails before any network call.
func New(credential auth.Credential, requestor *transport.Requestor, opts ...Option) (*Session, error) {
	if credential == nil {
		return nil, NewInvocationError("credential must not be nil")
	}
	if requestor == nil {
		return nil, NewInvocationError("requestor must not be nil")
	}

	s := &Session{
		credential: credential,
		requestor:  requestor,
		limiter:    ratelimit.NewHeaderLimiter(),
		log:        logger.New("info", false),
		retries:    DefaultRetries,
		authPolicy: AuthRetryRespectBudget,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:      time.Sleep,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Capabilities are resolved once here, not probed per attempt.
	s.refresher, _ = credential.(auth.Refresher)
	s.invalidator, _ = credential.(auth.Invalidator)

	if !credential.IsValid() && s.refresher == nil {
		return nil, NewInvocationError("credential is invalid and has no refresh capability")
	}
	return s, nil
}

// With runs fn against the session and closes it when fn returns,
// regardless of outcome.
func With(s *Session, fn func(*Session) error) error {
	defer s.Close()
	return fn(s)
}

// Close shuts the underlying transport down.
func (s *Session) Close() {
	s.requestor.Close()
}

// Request executes one logical request and returns the raw decoded JSON
// payload. A 204, or a success with a declared empty body, returns an
// empty result. Failures surface as classified errors; transient ones are
// retried within the budget first.
func (s *Session) Request(ctx context.Context, method, path string, opts ...RequestOption) (json.RawMessage, error) {
	spec := newRequestSpec(opts...)
	if err := spec.validate(); err != nil {
		return nil, err
	}
	contentType, body, err := spec.encodeBody()
	if err != nil {
		return nil, err
	}
	ex := &exchange{
		method:      method,
		url:         s.requestor.Resolve(path),
		params:      spec.params,
		contentType: contentType,
		body:        body,
	}
	return s.requestWithRetries(ctx, ex, NewFiniteRetry(s.retries), false)
}

// RequestInto executes a request and unmarshals the payload into v. Empty
// results leave v untouched.
func (s *Session) RequestInto(ctx context.Context, method, path string, v any, opts ...RequestOption) error {
	raw, err := s.Request(ctx, method, path, opts...)
	if err != nil {
		return err
	}
	if len(raw) == 0 || v == nil {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// exchange is one fully normalized wire request, reused across attempts.
type exchange struct {
	method      string
	url         string
	params      url.Values
	contentType string
	body        []byte
}

func (s *Session) requestWithRetries(ctx context.Context, ex *exchange, state FiniteRetry, extraAuthAttemptUsed bool) (json.RawMessage, error) {
	next, shouldRetry := state.Sleep(s.rng, s.sleep)
	s.logRequest(ex)

	resp, saved, err := s.makeRequest(ctx, ex, shouldRetry)
	if err != nil {
		return nil, err
	}

	forceAuthRetry := false
	if resp != nil && resp.StatusCode == http.StatusUnauthorized {
		if s.invalidator != nil {
			s.invalidator.Invalidate()
		}
		if s.refresher != nil {
			forceAuthRetry = true
		}
	}

	canRetry := shouldRetry
	if forceAuthRetry && !canRetry && !extraAuthAttemptUsed && s.authPolicy == AuthRetryExtraAttempt {
		canRetry = true
		extraAuthAttemptUsed = true
		next = NewFiniteRetry(1)
	}

	if canRetry && (forceAuthRetry || resp == nil || retryStatuses[resp.StatusCode]) {
		s.logRetry(ex, resp, saved)
		return s.requestWithRetries(ctx, ex, next, extraAuthAttemptUsed)
	}

	if resp == nil {
		// Retryable transport failure with the budget exhausted: the
		// original error propagates unchanged.
		return nil, saved
	}
	if kind, ok := statusKinds[resp.StatusCode]; ok {
		return nil, NewResponseError(kind, resp)
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if !successStatuses[resp.StatusCode] {
		// The API returned something outside its contract.
		return nil, NewResponseError(KindProtocolViolation, resp)
	}
	if resp.ContentLength() == "0" {
		return json.RawMessage(`""`), nil
	}
	if !json.Valid(resp.Body) {
		e := NewResponseError(KindMalformedResponseBody, resp)
		e.cause = errors.New("response body is not valid JSON")
		return nil, e
	}
	return json.RawMessage(resp.Body), nil
}

// makeRequest performs one rate-limited attempt. It returns the response,
// or a saved retryable transport failure, or a terminal error that must
// propagate immediately.
func (s *Session) makeRequest(ctx context.Context, ex *exchange, shouldRetry bool) (resp *transport.Response, saved, terminal error) {
	resp, err := s.limiter.Call(ctx, s.buildHeaders, func(ctx context.Context, headers map[string]string) (*transport.Response, error) {
		return s.requestor.Request(ctx, ex.method, ex.url, headers, ex.params, ex.contentType, ex.body)
	})
	if err != nil {
		var reqErr *transport.RequestError
		if errors.As(err, &reqErr) && shouldRetry && reqErr.Retryable() {
			return nil, err, nil
		}
		return nil, nil, err
	}
	s.log.Debug().
		Int("status", resp.StatusCode).
		Str("content_length", resp.ContentLength()).
		Msg("response received")
	return resp, nil, nil
}

// buildHeaders produces the authorization header for one transmission. It
// runs immediately before the transport call, behind any rate limiter
// delay, so the token is the freshest available. An invalid credential is
// refreshed here; lacking that capability it is a caller error.
func (s *Session) buildHeaders(ctx context.Context) (map[string]string, error) {
	if !s.credential.IsValid() {
		if s.refresher == nil {
			return nil, NewInvocationError("credential is invalid and has no refresh capability")
		}
		if err := s.refresher.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	return map[string]string{"Authorization": "bearer " + s.credential.AccessToken()}, nil
}

func (s *Session) logRequest(ex *exchange) {
	event := s.log.Debug().
		Str("method", ex.method).
		Str("url", ex.url).
		Str("params", ex.params.Encode())
	if len(ex.body) > 0 {
		event = event.Int("body_bytes", len(ex.body))
	}
	event.Msg("fetching")
}

func (s *Session) logRetry(ex *exchange, resp *transport.Response, saved error) {
	event := s.log.Warn().
		Str("method", ex.method).
		Str("url", ex.url)
	if resp != nil {
		event = event.Int("status", resp.StatusCode)
	}
	if saved != nil {
		event = event.Err(saved)
	}
	event.Msg("retrying request")
}
