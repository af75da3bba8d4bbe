package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/jonandersen/qt/internal/config"
	"github.com/jonandersen/qt/internal/tui"
)

// saveWatchlistTo returns a callback that writes the watchlist into the
// config file at path, leaving the other settings as they are on disk.
func saveWatchlistTo(path string) tui.SaveWatchlistFunc {
	return func(symbols []string) error {
		cfg, err := config.Load(path)
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}
		cfg.Watchlist = append([]string(nil), symbols...)
		return config.Save(path, cfg)
	}
}

// uiOptions builds the TUI options from a restored session.
func uiOptions(opts *apiOptions, accountID, path string) tui.Options {
	return tui.Options{
		Client:          opts.client,
		AccountID:       resolveAccount(accountID, opts.cfg),
		Symbols:         opts.cfg.Watchlist,
		RefreshInterval: opts.cfg.RefreshInterval(),
		SaveWatchlist:   saveWatchlistTo(path),
	}
}

func init() {
	opts := &apiOptions{}
	var accountID string

	uiCmd := &cobra.Command{
		Use:     "ui",
		Aliases: []string{"watch"},
		Short:   "Interactive terminal UI",
		Long: `Launch an interactive terminal UI.

The UI refreshes on a timer and has two views:
  1  Watchlist   live quotes; a adds and d removes a symbol
  2  Positions   holdings in the selected account

Press r to refresh now and q to quit.`,
		Args:    cobra.NoArgs,
		PreRunE: bindSession(opts),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := tea.NewProgram(tui.New(uiOptions(opts, accountID, configPath())), tea.WithAltScreen())
			_, err := p.Run()
			return err
		},
	}

	uiCmd.Flags().StringVarP(&accountID, "account", "a", "", "Account number (uses default if not specified)")
	uiCmd.SilenceUsage = true
	rootCmd.AddCommand(uiCmd)
}
