package cmd

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/jonandersen/qt/internal/output"
	"github.com/jonandersen/qt/pkg/questrade"
)

// maxActivityRange is the widest window the activities endpoint accepts.
const maxActivityRange = 31 * 24 * time.Hour

func newAccountCmd(opts *apiOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "View account information",
		Long: `View your Questrade accounts, positions and activities.

Examples:
  qt account                          # List all accounts
  qt account positions                # Positions in the default account
  qt account activities --from 2024-03-01 --to 2024-03-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountList(cmd, opts)
		},
	}

	cmd.SilenceUsage = true

	cmd.AddCommand(newPositionsCmd(opts))
	cmd.AddCommand(newActivitiesCmd(opts))

	return cmd
}

func runAccountList(cmd *cobra.Command, opts *apiOptions) error {
	ctx, cancel := apiContext(opts.cfg)
	defer cancel()

	accounts, err := opts.client.Accounts(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to fetch accounts")
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if len(accounts) == 0 && !opts.jsonMode {
		return formatter.Print("No accounts found")
	}

	headers := []string{"Number", "Type", "Status", "Client Type", "Primary"}
	rows := make([][]string, 0, len(accounts))
	for _, acc := range accounts {
		primary := ""
		if acc.IsPrimary {
			primary = "yes"
		}
		rows = append(rows, []string{acc.Number, acc.Type, acc.Status, acc.ClientAccountType, primary})
	}

	return formatter.Records(accounts, headers, rows)
}

func newPositionsCmd(opts *apiOptions) *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "positions",
		Short: "List positions in an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPositions(cmd, opts, resolveAccount(accountID, opts.cfg))
		},
	}

	cmd.Flags().StringVarP(&accountID, "account", "a", "", "Account number (uses default if not specified)")
	cmd.SilenceUsage = true

	return cmd
}

func runPositions(cmd *cobra.Command, opts *apiOptions, accountID string) error {
	if accountID == "" {
		return errNoAccount
	}

	ctx, cancel := apiContext(opts.cfg)
	defer cancel()

	positions, err := opts.client.Positions(ctx, accountID)
	if err != nil {
		return errors.Wrap(err, "failed to fetch positions")
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if len(positions) == 0 && !opts.jsonMode {
		return formatter.Print("No positions")
	}

	headers := []string{"Symbol", "Qty", "Avg Cost", "Price", "Value", "Open P&L", "Closed P&L"}
	rows := make([][]string, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, []string{
			p.Symbol,
			questrade.FormatQuantity(p.OpenQuantity),
			questrade.FormatMoney(p.AverageEntryPrice),
			questrade.FormatMoney(p.CurrentPrice),
			questrade.FormatMoney(p.CurrentMarketValue),
			questrade.FormatGainLoss(p.OpenPnl),
			questrade.FormatGainLoss(p.ClosedPnl),
		})
	}

	return formatter.Records(positions, headers, rows)
}

func newActivitiesCmd(opts *apiOptions) *cobra.Command {
	var accountID, from, to string

	cmd := &cobra.Command{
		Use:   "activities",
		Short: "List account activities in a date range",
		Long: `List trades, dividends, deposits and other activities.

Dates are YYYY-MM-DD. The range defaults to the last 30 days and may not
exceed 31 days.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := parseRange(from, to, 30*24*time.Hour, time.Now())
			if err != nil {
				return err
			}
			return runActivities(cmd, opts, resolveAccount(accountID, opts.cfg), start, end)
		},
	}

	cmd.Flags().StringVarP(&accountID, "account", "a", "", "Account number (uses default if not specified)")
	cmd.Flags().StringVar(&from, "from", "", "Start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "End date, YYYY-MM-DD (default today)")
	cmd.SilenceUsage = true

	return cmd
}

func runActivities(cmd *cobra.Command, opts *apiOptions, accountID string, start, end time.Time) error {
	if accountID == "" {
		return errNoAccount
	}
	if endOfDay(end).Sub(start) > maxActivityRange {
		return errors.New("date range may not exceed 31 days")
	}

	ctx, cancel := apiContext(opts.cfg)
	defer cancel()

	activities, err := opts.client.Activities(ctx, accountID, start, endOfDay(end))
	if err != nil {
		return errors.Wrap(err, "failed to fetch activities")
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if len(activities) == 0 && !opts.jsonMode {
		return formatter.Print("No activities in range")
	}

	headers := []string{"Date", "Type", "Action", "Symbol", "Qty", "Price", "Net Amount", "Currency"}
	rows := make([][]string, 0, len(activities))
	for _, a := range activities {
		rows = append(rows, []string{
			shortDate(a.TradeDate),
			a.Type,
			a.Action,
			a.Symbol,
			questrade.FormatQuantity(a.Quantity),
			questrade.FormatMoney(a.Price),
			questrade.FormatMoney(a.NetAmount),
			a.Currency,
		})
	}

	return formatter.Records(activities, headers, rows)
}

// parseRange parses --from/--to dates. An empty to means today and an
// empty from means def before to.
func parseRange(from, to string, def time.Duration, now time.Time) (time.Time, time.Time, error) {
	var end time.Time
	if to == "" {
		end, _ = questrade.ParseDate(now.Format(questrade.DateLayout))
	} else {
		var err error
		if end, err = questrade.ParseDate(to); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	var start time.Time
	if from == "" {
		start = end.Add(-def)
	} else {
		var err error
		if start, err = questrade.ParseDate(from); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.Newf("--to %s is before --from %s",
			end.Format(questrade.DateLayout), start.Format(questrade.DateLayout))
	}
	return start, end, nil
}

// endOfDay makes a --to date inclusive.
func endOfDay(date time.Time) time.Time {
	return date.Add(24*time.Hour - time.Second)
}

// shortDate trims an API timestamp to its date.
func shortDate(ts string) string {
	if len(ts) >= len(questrade.DateLayout) {
		return ts[:len(questrade.DateLayout)]
	}
	return ts
}

func init() {
	opts := &apiOptions{}
	accountCmd := newAccountCmd(opts)
	accountCmd.PersistentPreRunE = bindSession(opts)
	rootCmd.AddCommand(accountCmd)
}
