package session

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-apiclient/transport"
)

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		kind   ErrorKind
	}{
		{302, KindUnexpectedRedirect},
		{400, KindBadRequest},
		{401, KindAuthFailure},
		{403, KindForbidden},
		{404, KindNotFound},
		{409, KindConflict},
		{413, KindPayloadTooLarge},
		{415, KindUnsupportedMediaType},
		{451, KindLegallyUnavailable},
		{500, KindServerError},
		{502, KindServerError},
		{503, KindServerError},
		{504, KindServerError},
		{520, KindServerError},
		{522, KindServerError},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			kind, ok := statusKinds[tt.status]
			require.True(t, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestRetryStatusesAreServerErrors(t *testing.T) {
	for status := range retryStatuses {
		assert.Equal(t, KindServerError, statusKinds[status], "status %d", status)
	}
	assert.False(t, retryStatuses[400])
	assert.False(t, retryStatuses[401])
	assert.False(t, retryStatuses[404])
}

func TestSuccessAndNoContentAreNotClassified(t *testing.T) {
	for _, status := range []int{200, 201, 204} {
		_, ok := statusKinds[status]
		assert.False(t, ok, "status %d must not map to an error kind", status)
	}
	assert.True(t, successStatuses[200])
	assert.True(t, successStatuses[201])
	assert.False(t, successStatuses[204])
}

func TestResponseErrorCarriesResponse(t *testing.T) {
	resp := &transport.Response{
		StatusCode: 404,
		Headers:    http.Header{"X-Reason": []string{"gone"}},
		Body:       []byte(`{"error":"missing"}`),
	}

	err := NewResponseError(KindNotFound, resp)
	assert.Equal(t, KindNotFound, err.Kind())
	assert.Equal(t, 404, err.StatusCode)
	assert.Equal(t, "gone", err.Headers.Get("X-Reason"))
	assert.Equal(t, resp.Body, err.Body)
	assert.Contains(t, err.Error(), "not_found")
}

func TestIsKind(t *testing.T) {
	notFound := NewResponseError(KindNotFound, &transport.Response{StatusCode: 404})
	assert.True(t, IsKind(notFound, KindNotFound))
	assert.False(t, IsKind(notFound, KindServerError))

	invocation := NewInvocationError("nil credential")
	assert.True(t, IsKind(invocation, KindInvalidInvocation))

	reqErr := transport.NewRequestError("GET", "https://api.example.com/a", errors.New("reset"))
	assert.True(t, IsKind(reqErr, KindTransportFailure))
	assert.False(t, IsKind(reqErr, KindServerError))

	wrapped := fmt.Errorf("outer: %w", notFound)
	assert.True(t, IsKind(wrapped, KindNotFound))

	assert.False(t, IsKind(nil, KindNotFound))
	assert.False(t, IsKind(errors.New("plain"), KindNotFound))
}
