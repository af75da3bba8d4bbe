package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/jonandersen/qt/internal/config"
	"github.com/jonandersen/qt/internal/output"
)

// prompter abstracts interactive menu selection for testing.
type prompter interface {
	SelectOption(options []string) (int, error)
}

// terminalPrompter implements prompter using stdin.
type terminalPrompter struct {
	reader io.Reader
	writer io.Writer
}

func newTerminalPrompter(r io.Reader, w io.Writer) *terminalPrompter {
	return &terminalPrompter{reader: r, writer: w}
}

func (p *terminalPrompter) SelectOption(options []string) (int, error) {
	scanner := bufio.NewScanner(p.reader)
	for {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return 0, err
			}
			return 0, errors.New("no input")
		}
		idx, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil || idx < 1 || idx > len(options) {
			_, _ = fmt.Fprintf(p.writer, "Please enter a number between 1 and %d: ", len(options))
			continue
		}
		return idx - 1, nil
	}
}

// configureOptions holds dependencies for the configure commands.
type configureOptions struct {
	configPath   string
	prompt       prompter
	jsonMode     bool
	listAccounts func(ctx context.Context) ([]string, error)
}

func newConfigureCmd(opts *configureOptions) *cobra.Command {
	var (
		accountNumber string
		practice      bool
		tokenStore    string
		watchlist     []string
		interval      int
		timeout       int
	)

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Change CLI settings",
		Long: `Update settings in the config file. Only the flags given are changed.

Examples:
  qt configure --account 26598145
  qt configure --practice --token-store keyring
  qt configure --watchlist AAPL,SHOP.TO,SPY
  qt configure account      # pick the default account from a list
  qt configure show`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return errors.Wrap(err, "failed to load config")
			}

			flags := cmd.Flags()
			if !flags.Changed("account") && !flags.Changed("practice") && !flags.Changed("token-store") &&
				!flags.Changed("watchlist") && !flags.Changed("refresh-interval") && !flags.Changed("timeout") {
				return cmd.Help()
			}

			if flags.Changed("account") {
				cfg.AccountNumber = strings.TrimSpace(accountNumber)
			}
			if flags.Changed("practice") {
				cfg.Practice = practice
			}
			if flags.Changed("token-store") {
				cfg.TokenStore = tokenStore
			}
			if flags.Changed("watchlist") {
				cfg.Watchlist = normalizeSymbols(watchlist)
			}
			if flags.Changed("refresh-interval") {
				cfg.RefreshIntervalSeconds = interval
			}
			if flags.Changed("timeout") {
				cfg.TimeoutSeconds = timeout
			}

			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.Save(opts.configPath, cfg); err != nil {
				return errors.Wrap(err, "failed to save config")
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to %s\n", opts.configPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&accountNumber, "account", "", "Default account number")
	cmd.Flags().BoolVar(&practice, "practice", false, "Use the practice login server")
	cmd.Flags().StringVar(&tokenStore, "token-store", config.TokenStoreFile, "Where to keep the token: file or keyring")
	cmd.Flags().StringSliceVar(&watchlist, "watchlist", nil, "Comma-separated watchlist symbols")
	cmd.Flags().IntVar(&interval, "refresh-interval", config.DefaultRefreshIntervalSeconds, "UI refresh interval in seconds")
	cmd.Flags().IntVar(&timeout, "timeout", config.DefaultTimeoutSeconds, "API timeout in seconds")
	cmd.SilenceUsage = true

	cmd.AddCommand(newConfigureAccountCmd(opts))
	cmd.AddCommand(newConfigureShowCmd(opts))

	return cmd
}

func newConfigureAccountCmd(opts *configureOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Choose the default account from your linked accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelectAccount(cmd, opts)
		},
	}
	cmd.SilenceUsage = true
	return cmd
}

func runSelectAccount(cmd *cobra.Command, opts *configureOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	ctx, cancel := apiContext(cfg)
	defer cancel()

	numbers, err := opts.listAccounts(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to fetch accounts")
	}
	if len(numbers) == 0 {
		return errors.New("no accounts linked to this token")
	}

	selected := numbers[0]
	if len(numbers) > 1 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Select a default account:")
		for i, n := range numbers {
			marker := ""
			if n == cfg.AccountNumber {
				marker = " (current)"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s%s\n", i+1, n, marker)
		}
		_, _ = fmt.Fprint(cmd.OutOrStdout(), "Select account: ")

		idx, err := opts.prompt.SelectOption(numbers)
		if err != nil {
			return errors.Wrap(err, "failed to read selection")
		}
		selected = numbers[idx]
	}

	cfg.AccountNumber = selected
	if err := config.Save(opts.configPath, cfg); err != nil {
		return errors.Wrap(err, "failed to save config")
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Default account set to: %s\n", selected)
	return nil
}

func newConfigureShowCmd(opts *configureOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return errors.Wrap(err, "failed to load config")
			}
			return output.New(cmd.OutOrStdout(), opts.jsonMode).KeyValues(configPairs(cfg, opts.configPath))
		},
	}
	cmd.SilenceUsage = true
	return cmd
}

func configPairs(cfg *config.Config, path string) [][2]string {
	account := cfg.AccountNumber
	if account == "" {
		account = "not set"
	}
	tokenLocation := cfg.TokenFilePath()
	if cfg.TokenStore == config.TokenStoreKeyring {
		tokenLocation = "system keyring"
	}
	return [][2]string{
		{"config_file", path},
		{"account_number", account},
		{"login_url", cfg.LoginURLOrDefault()},
		{"token_store", cfg.TokenStore},
		{"token_location", tokenLocation},
		{"timeout", cfg.Timeout().String()},
		{"proactive_refresh", strconv.FormatBool(cfg.ProactiveRefresh)},
		{"watchlist", strings.Join(cfg.Watchlist, ",")},
		{"refresh_interval", cfg.RefreshInterval().String()},
	}
}

// normalizeSymbols upper-cases and de-duplicates symbols, keeping order.
func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func init() {
	opts := &configureOptions{
		prompt: newTerminalPrompter(os.Stdin, os.Stdout),
	}

	configureCmd := newConfigureCmd(opts)
	configureCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		opts.configPath = configPath()
		opts.jsonMode = GetJSONMode()
		opts.listAccounts = func(ctx context.Context) ([]string, error) {
			s, err := loadSession()
			if err != nil {
				return nil, err
			}
			return s.client.AccountNumbers(ctx)
		}
		return nil
	}

	rootCmd.AddCommand(configureCmd)
}
