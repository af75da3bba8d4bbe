// Package config loads the qt CLI configuration from a YAML file with
// QT_* environment variables layered on top.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/jonandersen/qt/pkg/questrade"
)

const (
	// DefaultTimeoutSeconds bounds each API call.
	DefaultTimeoutSeconds = 30

	// DefaultRefreshIntervalSeconds is the watchlist refresh period.
	DefaultRefreshIntervalSeconds = 5

	// TokenStoreFile keeps the token set in a YAML file.
	TokenStoreFile = "file"

	// TokenStoreKeyring keeps the token set in the system keyring.
	TokenStoreKeyring = "keyring"

	appName = "qt"
)

// DefaultWatchlist is shown by `qt ui` when no symbols are configured.
var DefaultWatchlist = []string{"AAPL", "MSFT", "SPY"}

// Config holds the CLI configuration.
type Config struct {
	AccountNumber          string   `yaml:"account_number" env:"QT_ACCOUNT_NUMBER"`
	Practice               bool     `yaml:"practice" env:"QT_PRACTICE"`
	LoginURL               string   `yaml:"login_url,omitempty" env:"QT_LOGIN_URL"`
	TokenFile              string   `yaml:"token_file,omitempty" env:"QT_TOKEN_FILE"`
	TokenStore             string   `yaml:"token_store" env:"QT_TOKEN_STORE"`
	TimeoutSeconds         int      `yaml:"timeout_seconds" env:"QT_TIMEOUT_SECONDS"`
	ProactiveRefresh       bool     `yaml:"proactive_refresh" env:"QT_PROACTIVE_REFRESH"`
	Watchlist              []string `yaml:"watchlist" env:"QT_WATCHLIST" env-separator:","`
	RefreshIntervalSeconds int      `yaml:"refresh_interval_seconds" env:"QT_REFRESH_INTERVAL_SECONDS"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		TokenStore:             TokenStoreFile,
		TimeoutSeconds:         DefaultTimeoutSeconds,
		ProactiveRefresh:       true,
		Watchlist:              append([]string(nil), DefaultWatchlist...),
		RefreshIntervalSeconds: DefaultRefreshIntervalSeconds,
	}
}

// Load reads the config file at path over the defaults, then applies QT_*
// environment variables. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse config %s", path)
		}
	case !os.IsNotExist(err):
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to read environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.TokenStore {
	case TokenStoreFile, TokenStoreKeyring:
	default:
		return errors.Newf("token_store must be %q or %q, got %q", TokenStoreFile, TokenStoreKeyring, c.TokenStore)
	}
	if c.TimeoutSeconds <= 0 {
		return errors.Newf("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	}
	if c.RefreshIntervalSeconds <= 0 {
		return errors.Newf("refresh_interval_seconds must be positive, got %d", c.RefreshIntervalSeconds)
	}
	return nil
}

// Save writes the configuration to path.
// Creates parent directories if needed with 0700 permissions.
// The file is written with 0600 permissions.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to encode config")
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.Wrap(err, "failed to write config")
	}
	return nil
}

// LoginURLOrDefault returns the authorization host: an explicit login_url,
// else the practice or live host.
func (c *Config) LoginURLOrDefault() string {
	if c.LoginURL != "" {
		return c.LoginURL
	}
	if c.Practice {
		return questrade.PracticeLoginURL
	}
	return questrade.DefaultLoginURL
}

// TokenFilePath returns the token file location, defaulting to
// access_token.yml in the config directory.
func (c *Config) TokenFilePath() string {
	if c.TokenFile != "" {
		return c.TokenFile
	}
	return filepath.Join(ConfigDir(), "access_token.yml")
}

// Timeout returns the per-call HTTP timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RefreshInterval returns the watchlist refresh period.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

// ConfigDir returns the configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/qt.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

// ConfigPath returns the default config file path.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
