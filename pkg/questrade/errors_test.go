package questrade

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	crdb "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestError_MatchesKind(t *testing.T) {
	err := errorf(ErrAuthentication, "refresh token", "refresh token rejected")

	assert.True(t, errors.Is(err, ErrAuthentication))
	assert.False(t, errors.Is(err, ErrUpstream))
	assert.True(t, crdb.Is(err, ErrAuthentication))
	assert.Equal(t, "authentication error: refresh token: refresh token rejected", err.Error())
}

func TestError_WrappedStillMatches(t *testing.T) {
	cause := &APIError{StatusCode: http.StatusTooManyRequests, Code: 1006, Message: "Too many requests"}
	err := crdb.Wrap(newError(ErrUpstream, "request", cause), "failed to fetch quotes")

	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, ErrUpstream, KindOf(err))

	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsRateLimited())
}

func TestKindOf_Untagged(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "with code",
			err:  &APIError{StatusCode: 401, Code: 1017, Message: "Access token is invalid"},
			want: "API error (401, code 1017): Access token is invalid",
		},
		{
			name: "without code",
			err:  &APIError{StatusCode: 500, Message: "boom"},
			want: "API error (500): boom",
		},
		{
			name: "falls back to status text",
			err:  &APIError{StatusCode: 404},
			want: "API error (404): Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAPIError_Predicates(t *testing.T) {
	assert.True(t, (&APIError{StatusCode: 404}).IsNotFound())
	assert.True(t, (&APIError{StatusCode: 401}).IsUnauthorized())
	assert.True(t, (&APIError{StatusCode: 429}).IsRateLimited())
	assert.False(t, (&APIError{StatusCode: 403}).IsUnauthorized())
}

func TestReadAPIError(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantCode    int
		wantMessage string
	}{
		{name: "questrade body", body: `{"code": 1017, "message": "Access token is invalid"}`, wantCode: 1017, wantMessage: "Access token is invalid"},
		{name: "oauth body", body: `{"error": "invalid_grant"}`, wantMessage: "invalid_grant"},
		{name: "plain text", body: "Bad Request"},
		{name: "empty", body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{StatusCode: http.StatusBadRequest, Body: io.NopCloser(strings.NewReader(tt.body))}

			apiErr := readAPIError(resp)

			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Equal(t, tt.body, apiErr.Body)
		})
	}
}

func TestIsRejection(t *testing.T) {
	for _, status := range []int{400, 401, 403} {
		assert.True(t, isRejection(status), status)
	}
	for _, status := range []int{404, 429, 500, 503} {
		assert.False(t, isRejection(status), status)
	}
}
