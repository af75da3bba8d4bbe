package cmd

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/jonandersen/qt/internal/config"
	"github.com/jonandersen/qt/internal/keyring"
	"github.com/jonandersen/qt/pkg/questrade"
)

// errNotLoggedIn is returned when no token set has been saved yet.
var errNotLoggedIn = errors.New("not logged in. Run: qt auth login")

// session bundles what an authenticated command needs.
type session struct {
	cfg    *config.Config
	store  questrade.TokenStore
	logger *slog.Logger
	client *questrade.Client
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.ConfigPath()
}

// newLogger logs warnings to w, or everything down to debug when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// tokenStoreFor returns the token store selected by cfg.
func tokenStoreFor(cfg *config.Config, secrets keyring.Store) questrade.TokenStore {
	if cfg.TokenStore == config.TokenStoreKeyring {
		return keyring.NewTokenStore(secrets)
	}
	return questrade.NewFileStore(cfg.TokenFilePath())
}

// clientOptions returns the options shared by every client the CLI builds.
func clientOptions(cfg *config.Config, logger *slog.Logger) []questrade.Option {
	opts := []questrade.Option{
		questrade.WithLoginURL(cfg.LoginURLOrDefault()),
		questrade.WithTimeout(cfg.Timeout()),
		questrade.WithLogger(logger),
		questrade.WithMetrics(clientMetrics),
	}
	if cfg.ProactiveRefresh {
		opts = append(opts, questrade.WithProactiveRefresh(questrade.DefaultExpirySkew))
	}
	return opts
}

// isNoToken reports whether err means nothing has been saved yet.
func isNoToken(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, keyring.ErrNotFound)
}

// restoreClient builds a client from the saved token set. Refreshed sets
// are written back to store.
func restoreClient(cfg *config.Config, store questrade.TokenStore, logger *slog.Logger) (*questrade.Client, error) {
	token, err := store.Load()
	if err != nil {
		if isNoToken(err) {
			return nil, errNotLoggedIn
		}
		return nil, errors.Wrap(err, "failed to load saved token")
	}

	opts := append(clientOptions(cfg, logger),
		questrade.WithTokenSet(token),
		questrade.WithTokenStore(store),
	)
	client, err := questrade.NewClient(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create client")
	}
	return client, nil
}

// loadConfig loads the config and builds the logger and token store.
func loadConfig() (*session, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	logger := newLogger(os.Stderr, verbose)
	return &session{
		cfg:    cfg,
		store:  tokenStoreFor(cfg, keyring.NewSystemStore()),
		logger: logger,
	}, nil
}

// loadSession is loadConfig plus a client restored from the saved token.
func loadSession() (*session, error) {
	s, err := loadConfig()
	if err != nil {
		return nil, err
	}
	s.client, err = restoreClient(s.cfg, s.store, s.logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// resolveAccount picks the --account flag, else the configured default.
func resolveAccount(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	if cfg != nil {
		return cfg.AccountNumber
	}
	return ""
}

// errNoAccount is returned by account-scoped commands without an account.
var errNoAccount = errors.New("account number is required (use --account flag or set account_number in config)")

// apiOptions holds dependencies for commands that call the API.
type apiOptions struct {
	client   *questrade.Client
	cfg      *config.Config
	jsonMode bool
}

// bindSession returns a PreRunE that restores the saved session into opts.
func bindSession(opts *apiOptions) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := loadSession()
		if err != nil {
			return err
		}
		opts.client = s.client
		opts.cfg = s.cfg
		opts.jsonMode = GetJSONMode()
		return nil
	}
}

// apiContext bounds a command's API calls by the configured timeout.
// Each call gets its own HTTP timeout; this caps the whole command.
func apiContext(cfg *config.Config) (context.Context, context.CancelFunc) {
	timeout := time.Duration(config.DefaultTimeoutSeconds) * time.Second
	if cfg != nil {
		timeout = cfg.Timeout()
	}
	// a rejected token costs a refresh plus a retry
	return context.WithTimeout(context.Background(), 3*timeout)
}
