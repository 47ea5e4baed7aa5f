package session

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gaborage/go-apiclient/transport"
)

// ErrorKind is the closed taxonomy of failures a request can surface.
type ErrorKind string

const (
	KindInvalidInvocation     ErrorKind = "invalid_invocation"
	KindTransportFailure      ErrorKind = "transport_failure"
	KindServerError           ErrorKind = "server_error"
	KindBadRequest            ErrorKind = "bad_request"
	KindConflict              ErrorKind = "conflict"
	KindUnexpectedRedirect    ErrorKind = "unexpected_redirect"
	KindAuthFailure           ErrorKind = "auth_failure"
	KindForbidden             ErrorKind = "forbidden"
	KindNotFound              ErrorKind = "not_found"
	KindPayloadTooLarge       ErrorKind = "payload_too_large"
	KindUnsupportedMediaType  ErrorKind = "unsupported_media_type"
	KindLegallyUnavailable    ErrorKind = "legally_unavailable"
	KindMalformedResponseBody ErrorKind = "malformed_response_body"
	KindProtocolViolation     ErrorKind = "protocol_violation"
)

// ClassifiedError is an error tagged with one taxonomy kind.
type ClassifiedError interface {
	error
	Kind() ErrorKind
}

// statusKinds maps every status code the API is known to produce, other
// than success and no-content, to its error kind.
var statusKinds = map[int]ErrorKind{
	http.StatusFound:                      KindUnexpectedRedirect,
	http.StatusBadRequest:                 KindBadRequest,
	http.StatusUnauthorized:               KindAuthFailure,
	http.StatusForbidden:                  KindForbidden,
	http.StatusNotFound:                   KindNotFound,
	http.StatusConflict:                   KindConflict,
	http.StatusRequestEntityTooLarge:      KindPayloadTooLarge,
	http.StatusUnsupportedMediaType:       KindUnsupportedMediaType,
	http.StatusUnavailableForLegalReasons: KindLegallyUnavailable,
	http.StatusInternalServerError:        KindServerError,
	http.StatusBadGateway:                 KindServerError,
	http.StatusServiceUnavailable:         KindServerError,
	http.StatusGatewayTimeout:             KindServerError,
	statusCloudflareUnknown:               KindServerError,
	statusCloudflareTimeout:               KindServerError,
}

// Cloudflare edge statuses, not named in net/http.
const (
	statusCloudflareUnknown = 520
	statusCloudflareTimeout = 522
)

// retryStatuses are the upstream/CDN failures worth another attempt.
var retryStatuses = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
	statusCloudflareUnknown:        true,
	statusCloudflareTimeout:        true,
}

// successStatuses are the statuses carrying a decodable payload.
var successStatuses = map[int]bool{
	http.StatusOK:      true,
	http.StatusCreated: true,
}

// ResponseError is a classified failure carrying the raw response that
// triggered it, so callers can diagnose without re-issuing the request.
type ResponseError struct {
	kind       ErrorKind
	StatusCode int
	Headers    http.Header
	Body       []byte
	cause      error
}

// NewResponseError creates a classified error from a response.
func NewResponseError(kind ErrorKind, resp *transport.Response) *ResponseError {
	e := &ResponseError{kind: kind}
	if resp != nil {
		e.StatusCode = resp.StatusCode
		e.Headers = resp.Headers
		e.Body = resp.Body
	}
	return e
}

func (e *ResponseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("session: %s (status %d): %v", e.kind, e.StatusCode, e.cause)
	}
	return fmt.Sprintf("session: %s (status %d)", e.kind, e.StatusCode)
}

// Kind returns the taxonomy kind.
func (e *ResponseError) Kind() ErrorKind {
	return e.kind
}

func (e *ResponseError) Unwrap() error {
	return e.cause
}

// InvocationError reports misuse of the session: bad constructor
// arguments, or an invalid credential with no refresh path.
type InvocationError struct {
	message string
}

// NewInvocationError creates an InvocationError.
func NewInvocationError(message string) *InvocationError {
	return &InvocationError{message: message}
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("session: invalid invocation: %s", e.message)
}

// Kind returns KindInvalidInvocation.
func (e *InvocationError) Kind() ErrorKind {
	return KindInvalidInvocation
}

// IsKind reports whether err carries the given taxonomy kind. Transport
// failures propagate unwrapped as *transport.RequestError and match
// KindTransportFailure.
func IsKind(err error, kind ErrorKind) bool {
	if err == nil {
		return false
	}
	var classified ClassifiedError
	if errors.As(err, &classified) {
		return classified.Kind() == kind
	}
	var reqErr *transport.RequestError
	if errors.As(err, &reqErr) {
		return kind == KindTransportFailure
	}
	return false
}
