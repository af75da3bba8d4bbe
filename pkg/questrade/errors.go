package questrade

import (
	"fmt"
	"io"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Kind classifies every failure the client surfaces. A Kind is itself an
// error, so callers match with errors.Is(err, questrade.ErrAuthentication).
type Kind string

func (k Kind) Error() string { return string(k) }

const (
	// ErrConfiguration reports invalid or inconsistent construction arguments.
	ErrConfiguration Kind = "configuration error"

	// ErrValidation reports a malformed token record.
	ErrValidation Kind = "validation error"

	// ErrAuthentication reports an access code, refresh token or access
	// token rejected by the upstream.
	ErrAuthentication Kind = "authentication error"

	// ErrState reports an operation attempted in the wrong token state.
	ErrState Kind = "state error"

	// ErrUpstream reports any other upstream failure: non-auth HTTP
	// errors, rate limiting, transport errors and malformed responses.
	ErrUpstream Kind = "upstream error"
)

// Error tags a cause with its Kind and the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the error's Kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func newError(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func errorf(kind Kind, op, format string, args ...any) error {
	return newError(kind, op, errors.Newf(format, args...))
}

// KindOf returns the Kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// APIError represents an error response from the Questrade API.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != 0 {
		return fmt.Sprintf("API error (%d, code %d): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, msg)
}

// IsNotFound returns true if the error is a 404 Not Found.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized returns true if the error is a 401 Unauthorized.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsRateLimited returns true if the error is a 429 Too Many Requests.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// errorResponse is the JSON body Questrade returns alongside error statuses.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// readAPIError builds an APIError from a non-2xx response, consuming the body.
func readAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		return apiErr
	}
	apiErr.Body = string(body)

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		// Body is not JSON, keep it raw
		return apiErr
	}

	apiErr.Code = errResp.Code
	if errResp.Message != "" {
		apiErr.Message = errResp.Message
	} else if errResp.Error != "" {
		apiErr.Message = errResp.Error
	}

	return apiErr
}

// isRejection reports whether the login endpoint refused the presented
// code or refresh token, as opposed to failing for another reason.
func isRejection(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return false
}
