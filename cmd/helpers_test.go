package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonandersen/qt/internal/config"
	"github.com/jonandersen/qt/pkg/questrade"
)

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	assert.NoError(t, json.NewEncoder(w).Encode(v))
}

func testTokenSet(apiServer string) *questrade.TokenSet {
	return &questrade.TokenSet{
		AccessToken:  "ACCESS1",
		RefreshToken: "REFRESH1",
		APIServer:    apiServer,
		ExpiresIn:    1800,
		TokenType:    "Bearer",
		IssuedAt:     time.Now().Truncate(time.Second),
	}
}

// newTestAPI starts a server for handler and returns command options
// holding a client already authenticated against it.
func newTestAPI(t *testing.T, handler http.HandlerFunc) *apiOptions {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := questrade.NewClient(
		questrade.WithTokenSet(testTokenSet(server.URL)),
		questrade.WithLoginURL(server.URL),
	)
	require.NoError(t, err)

	return &apiOptions{client: client, cfg: config.DefaultConfig()}
}
