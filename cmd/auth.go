package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jonandersen/qt/internal/config"
	"github.com/jonandersen/qt/internal/output"
	"github.com/jonandersen/qt/pkg/questrade"
)

// envAccessCode lets scripts pass the access code without a flag.
const envAccessCode = "QT_ACCESS_CODE"

// passwordReader abstracts terminal password input for testing.
type passwordReader interface {
	ReadPassword() (string, error)
	IsTerminal() bool
}

// terminalReader reads hidden input from the terminal using golang.org/x/term.
type terminalReader struct {
	fd int
}

func newTerminalReader(fd int) *terminalReader {
	return &terminalReader{fd: fd}
}

func (r *terminalReader) ReadPassword() (string, error) {
	b, err := term.ReadPassword(r.fd)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *terminalReader) IsTerminal() bool {
	return term.IsTerminal(r.fd)
}

// authOptions holds dependencies for the auth commands.
type authOptions struct {
	cfg            *config.Config
	store          questrade.TokenStore
	logger         *slog.Logger
	passwordReader passwordReader
	jsonMode       bool
	now            func() time.Time
}

func newAuthCmd(opts *authOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Questrade token",
		Long: `Log in with a one-time access code and manage the saved token.

Access codes are generated in the Questrade API centre under
"Generate new device". Each code can be used only once.`,
	}

	cmd.AddCommand(newAuthLoginCmd(opts))
	cmd.AddCommand(newAuthRefreshCmd(opts))
	cmd.AddCommand(newAuthStatusCmd(opts))
	cmd.AddCommand(newAuthLogoutCmd(opts))

	return cmd
}

func newAuthLoginCmd(opts *authOptions) *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange an access code for a token",
		Long: `Exchange a one-time access code for a token set and save it.

The code is read from --code, then $QT_ACCESS_CODE, then prompted for.

Examples:
  qt auth login
  qt auth login --code 3ZZ0...
  QT_ACCESS_CODE=3ZZ0... qt auth login`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthLogin(cmd, opts, code)
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "One-time access code")
	cmd.SilenceUsage = true

	return cmd
}

func readAccessCode(cmd *cobra.Command, opts *authOptions, flag string) (string, error) {
	if code := strings.TrimSpace(flag); code != "" {
		return code, nil
	}
	if code := strings.TrimSpace(os.Getenv(envAccessCode)); code != "" {
		return code, nil
	}

	if opts.passwordReader == nil || !opts.passwordReader.IsTerminal() {
		return "", errors.Newf("access code is required (use --code or $%s)", envAccessCode)
	}

	_, _ = fmt.Fprint(cmd.OutOrStdout(), "Enter access code: ")
	code, err := opts.passwordReader.ReadPassword()
	_, _ = fmt.Fprintln(cmd.OutOrStdout()) // newline after hidden input
	if err != nil {
		return "", errors.Wrap(err, "failed to read access code")
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return "", errors.New("access code cannot be empty")
	}
	return code, nil
}

func runAuthLogin(cmd *cobra.Command, opts *authOptions, flag string) error {
	code, err := readAccessCode(cmd, opts, flag)
	if err != nil {
		return err
	}

	clientOpts := append(clientOptions(opts.cfg, opts.logger), questrade.WithAccessCode(code))
	client, err := questrade.NewClient(clientOpts...)
	if err != nil {
		return errors.Wrap(err, "failed to create client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.cfg.Timeout())
	defer cancel()

	token, err := client.GetAccessToken(ctx)
	if err != nil {
		if errors.Is(err, questrade.ErrAuthentication) {
			return errors.Wrap(err, "access code rejected (codes are single-use; generate a new one)")
		}
		return errors.Wrap(err, "failed to log in")
	}

	// Saved here rather than through the client so a failure is reported
	if err := opts.store.Save(token); err != nil {
		return errors.Wrap(err, "logged in but failed to save token")
	}

	if opts.jsonMode {
		return output.New(cmd.OutOrStdout(), true).KeyValues(tokenStatus(token, opts.clock()))
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in. API server: %s\n", token.APIServer)
	return nil
}

func newAuthRefreshCmd(opts *authOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the saved token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthRefresh(cmd, opts)
		},
	}
	cmd.SilenceUsage = true
	return cmd
}

func runAuthRefresh(cmd *cobra.Command, opts *authOptions) error {
	client, err := restoreClient(opts.cfg, opts.store, opts.logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.cfg.Timeout())
	defer cancel()

	token, err := client.RefreshToken(ctx)
	if err != nil {
		if errors.Is(err, questrade.ErrAuthentication) {
			return errors.Wrap(err, "refresh token rejected. Run: qt auth login")
		}
		return errors.Wrap(err, "failed to refresh token")
	}

	return output.New(cmd.OutOrStdout(), opts.jsonMode).KeyValues(tokenStatus(token, opts.clock()))
}

func newAuthStatusCmd(opts *authOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the saved token without contacting Questrade",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthStatus(cmd, opts)
		},
	}
	cmd.SilenceUsage = true
	return cmd
}

func runAuthStatus(cmd *cobra.Command, opts *authOptions) error {
	token, err := opts.store.Load()
	if err != nil {
		if isNoToken(err) {
			return errNotLoggedIn
		}
		return errors.Wrap(err, "failed to load saved token")
	}

	return output.New(cmd.OutOrStdout(), opts.jsonMode).KeyValues(tokenStatus(token, opts.clock()))
}

func newAuthLogoutCmd(opts *authOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Delete the saved token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.store.Clear(); err != nil {
				return errors.Wrap(err, "failed to delete token")
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
	cmd.SilenceUsage = true
	return cmd
}

func (o *authOptions) clock() time.Time {
	if o.now != nil {
		return o.now()
	}
	return time.Now()
}

// tokenStatus describes a token set without revealing its secrets.
func tokenStatus(token *questrade.TokenSet, now time.Time) [][2]string {
	pairs := [][2]string{
		{"api_server", token.APIServer},
		{"token_type", token.TokenType},
		{"access_token", questrade.RedactToken(token.AccessToken)},
		{"expires_in", fmt.Sprintf("%ds", token.ExpiresIn)},
	}

	if token.IssuedAt.IsZero() {
		return append(pairs, [2]string{"status", "unknown issue time"})
	}

	expiresAt := token.ExpiresAt()
	status := "valid for " + expiresAt.Sub(now).Round(time.Second).String()
	if !now.Before(expiresAt) {
		status = "access token expired (will refresh on next request)"
	}
	return append(pairs,
		[2]string{"issued_at", token.IssuedAt.Format(time.RFC3339)},
		[2]string{"expires_at", expiresAt.Format(time.RFC3339)},
		[2]string{"status", status},
	)
}

func init() {
	opts := &authOptions{
		passwordReader: newTerminalReader(int(os.Stdin.Fd())),
	}

	authCmd := newAuthCmd(opts)
	authCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		s, err := loadConfig()
		if err != nil {
			return err
		}
		opts.cfg = s.cfg
		opts.store = s.store
		opts.logger = s.logger
		opts.jsonMode = GetJSONMode()
		return nil
	}

	rootCmd.AddCommand(authCmd)
}
