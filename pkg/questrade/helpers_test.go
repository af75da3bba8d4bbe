package questrade

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// roundTripFunc lets a test answer requests without a listening server.
type roundTripFunc func(r *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func tokenBody(access, refresh, apiServer string) map[string]any {
	return map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"api_server":    apiServer,
		"expires_in":    1800,
		"token_type":    "Bearer",
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	assert.NoError(t, json.NewEncoder(w).Encode(v))
}

func testToken(apiServer string) *TokenSet {
	return &TokenSet{
		AccessToken:  "AT1",
		RefreshToken: "RT1",
		APIServer:    apiServer,
		ExpiresIn:    1800,
		TokenType:    "Bearer",
		IssuedAt:     time.Now().Truncate(time.Second),
	}
}

// memStore implements TokenStore in memory.
type memStore struct {
	token   *TokenSet
	saves   int
	saveErr error
}

func (m *memStore) Load() (*TokenSet, error) {
	if m.token == nil {
		return nil, ErrState
	}
	cp := *m.token
	return &cp, nil
}

func (m *memStore) Save(token *TokenSet) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *token
	m.token = &cp
	return nil
}

func (m *memStore) Clear() error {
	m.token = nil
	return nil
}
