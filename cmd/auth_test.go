package cmd

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonandersen/qt/internal/config"
	"github.com/jonandersen/qt/pkg/questrade"
)

// mockPasswordReader is a test double for passwordReader.
type mockPasswordReader struct {
	password   string
	err        error
	isTerminal bool
}

func (m *mockPasswordReader) ReadPassword() (string, error) {
	return m.password, m.err
}

func (m *mockPasswordReader) IsTerminal() bool {
	return m.isTerminal
}

// failingStore rejects every save.
type failingStore struct{}

func (failingStore) Load() (*questrade.TokenSet, error) { return nil, os.ErrNotExist }
func (failingStore) Save(*questrade.TokenSet) error    { return errors.New("disk full") }
func (failingStore) Clear() error                      { return nil }

// loginServer accepts code as an access code or refresh token and issues
// a token set whose api_server is the server itself.
func loginServer(t *testing.T, code, access, refresh string) *httptest.Server {
	t.Helper()

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth2/token", r.URL.Path)
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))

		if r.URL.Query().Get("refresh_token") != code {
			writeJSON(t, w, http.StatusBadRequest, map[string]any{"code": 1017, "message": "Bad Request"})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"access_token":  access,
			"refresh_token": refresh,
			"api_server":    server.URL + "/",
			"expires_in":    1800,
			"token_type":    "Bearer",
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestAuthOptions(t *testing.T, loginURL string) *authOptions {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.LoginURL = loginURL
	cfg.TokenFile = filepath.Join(t.TempDir(), "access_token.yml")

	return &authOptions{
		cfg:            cfg,
		store:          questrade.NewFileStore(cfg.TokenFile),
		logger:         slog.New(slog.DiscardHandler),
		passwordReader: &mockPasswordReader{},
	}
}

func TestAuthLogin_CodeFlag(t *testing.T) {
	server := loginServer(t, "CODE1", "ACCESS1", "REFRESH1")
	opts := newTestAuthOptions(t, server.URL)

	cmd := newAuthCmd(opts)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"login", "--code", "CODE1"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Logged in. API server: "+server.URL)

	saved, err := opts.store.Load()
	require.NoError(t, err)
	assert.Equal(t, "ACCESS1", saved.AccessToken)
	assert.Equal(t, "REFRESH1", saved.RefreshToken)
	assert.Equal(t, server.URL, saved.APIServer)
	assert.False(t, saved.IssuedAt.IsZero())
}

func TestAuthLogin_EnvCode(t *testing.T) {
	server := loginServer(t, "ENVCODE", "ACCESS1", "REFRESH1")
	opts := newTestAuthOptions(t, server.URL)
	t.Setenv(envAccessCode, "ENVCODE")

	cmd := newAuthCmd(opts)
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"login"})

	require.NoError(t, cmd.Execute())

	saved, err := opts.store.Load()
	require.NoError(t, err)
	assert.Equal(t, "ACCESS1", saved.AccessToken)
}

func TestAuthLogin_Prompt(t *testing.T) {
	server := loginServer(t, "PROMPTED", "ACCESS1", "REFRESH1")
	opts := newTestAuthOptions(t, server.URL)
	opts.passwordReader = &mockPasswordReader{password: "  PROMPTED\n", isTerminal: true}
	t.Setenv(envAccessCode, "")

	cmd := newAuthCmd(opts)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"login"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Enter access code:")
}

func TestAuthLogin_NoCodeNotTerminal(t *testing.T) {
	opts := newTestAuthOptions(t, "https://login.example.com")
	t.Setenv(envAccessCode, "")

	cmd := newAuthCmd(opts)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"login"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access code is required")
}

func TestAuthLogin_EmptyPrompt(t *testing.T) {
	opts := newTestAuthOptions(t, "https://login.example.com")
	opts.passwordReader = &mockPasswordReader{password: "   ", isTerminal: true}
	t.Setenv(envAccessCode, "")

	cmd := newAuthCmd(opts)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"login"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")
}

func TestAuthLogin_Rejected(t *testing.T) {
	server := loginServer(t, "CODE1", "ACCESS1", "REFRESH1")
	opts := newTestAuthOptions(t, server.URL)

	cmd := newAuthCmd(opts)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"login", "--code", "USED"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access code rejected")
	assert.ErrorIs(t, err, questrade.ErrAuthentication)

	_, err = opts.store.Load()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAuthLogin_SaveFails(t *testing.T) {
	server := loginServer(t, "CODE1", "ACCESS1", "REFRESH1")
	opts := newTestAuthOptions(t, server.URL)
	opts.store = failingStore{}

	cmd := newAuthCmd(opts)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"login", "--code", "CODE1"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save token")
}

func TestAuthRefresh_Success(t *testing.T) {
	server := loginServer(t, "REFRESH1", "ACCESS2", "REFRESH2")
	opts := newTestAuthOptions(t, server.URL)
	require.NoError(t, opts.store.Save(testTokenSet(server.URL)))

	cmd := newAuthCmd(opts)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"refresh"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), questrade.RedactToken("ACCESS2"))
	assert.NotContains(t, out.String(), "ACCESS2")

	saved, err := opts.store.Load()
	require.NoError(t, err)
	assert.Equal(t, "ACCESS2", saved.AccessToken)
	assert.Equal(t, "REFRESH2", saved.RefreshToken)
}

func TestAuthRefresh_Rejected(t *testing.T) {
	server := loginServer(t, "OTHER", "ACCESS2", "REFRESH2")
	opts := newTestAuthOptions(t, server.URL)
	require.NoError(t, opts.store.Save(testTokenSet(server.URL)))

	cmd := newAuthCmd(opts)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"refresh"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "qt auth login")

	saved, err := opts.store.Load()
	require.NoError(t, err)
	assert.Equal(t, "REFRESH1", saved.RefreshToken)
}

func TestAuthRefresh_NotLoggedIn(t *testing.T) {
	opts := newTestAuthOptions(t, "https://login.example.com")

	cmd := newAuthCmd(opts)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"refresh"})

	assert.ErrorIs(t, cmd.Execute(), errNotLoggedIn)
}

func TestAuthStatus(t *testing.T) {
	opts := newTestAuthOptions(t, "https://login.example.com")
	token := testTokenSet("https://api01.iq.questrade.com")
	token.IssuedAt = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, opts.store.Save(token))
	opts.now = func() time.Time { return token.IssuedAt.Add(5 * time.Minute) }

	cmd := newAuthCmd(opts)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"status"})

	require.NoError(t, cmd.Execute())

	output := out.String()
	assert.Contains(t, output, "https://api01.iq.questrade.com")
	assert.Contains(t, output, "valid for 25m0s")
	assert.Contains(t, output, questrade.RedactToken("ACCESS1"))
	assert.NotContains(t, output, "ACCESS1")
	assert.NotContains(t, output, "REFRESH1")
}

func TestAuthStatus_NotLoggedIn(t *testing.T) {
	opts := newTestAuthOptions(t, "https://login.example.com")

	cmd := newAuthCmd(opts)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"status"})

	assert.ErrorIs(t, cmd.Execute(), errNotLoggedIn)
}

func TestAuthLogout(t *testing.T) {
	opts := newTestAuthOptions(t, "https://login.example.com")
	require.NoError(t, opts.store.Save(testTokenSet("https://api01.iq.questrade.com")))

	cmd := newAuthCmd(opts)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"logout"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Logged out.")

	_, err := os.Stat(opts.cfg.TokenFile)
	assert.True(t, os.IsNotExist(err))
}

func TestTokenStatus(t *testing.T) {
	issued := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	token := testTokenSet("https://api01.iq.questrade.com")
	token.IssuedAt = issued

	t.Run("expired", func(t *testing.T) {
		pairs := tokenStatus(token, issued.Add(time.Hour))
		assert.Equal(t, [2]string{"status", "access token expired (will refresh on next request)"}, pairs[len(pairs)-1])
	})

	t.Run("unknown issue time", func(t *testing.T) {
		cp := *token
		cp.IssuedAt = time.Time{}
		pairs := tokenStatus(&cp, issued)
		assert.Equal(t, [2]string{"status", "unknown issue time"}, pairs[len(pairs)-1])
	})
}
