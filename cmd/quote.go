package cmd

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/jonandersen/qt/internal/output"
	"github.com/jonandersen/qt/pkg/questrade"
)

// newQuoteCmd creates the quote command with the given options.
func newQuoteCmd(opts *apiOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote SYMBOL [SYMBOL...]",
		Short: "Get stock quotes",
		Long: `Get Level 1 quotes for one or more symbols.

Examples:
  qt quote AAPL              # Get quote for Apple
  qt quote AAPL MSFT SPY     # Get quotes for multiple symbols
  qt quote AAPL --json       # Output in JSON format`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuote(cmd, opts, args)
		},
	}

	cmd.SilenceUsage = true

	return cmd
}

func runQuote(cmd *cobra.Command, opts *apiOptions, symbols []string) error {
	ctx, cancel := apiContext(opts.cfg)
	defer cancel()

	quotes, err := opts.client.Quotes(ctx, symbols...)
	if err != nil {
		return errors.Wrap(err, "failed to fetch quotes")
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if len(quotes) == 0 && !opts.jsonMode {
		return formatter.Print("No quotes returned")
	}

	headers := []string{"Symbol", "Last", "Bid", "Ask", "High", "Low", "Volume", "Delay"}
	rows := make([][]string, 0, len(quotes))
	for _, q := range quotes {
		last := questrade.FormatMoney(q.LastTradePrice)
		if q.IsHalted {
			last += " (halted)"
		}
		rows = append(rows, []string{
			q.Symbol,
			last,
			questrade.FormatMoney(q.BidPrice),
			questrade.FormatMoney(q.AskPrice),
			questrade.FormatMoney(q.HighPrice),
			questrade.FormatMoney(q.LowPrice),
			questrade.FormatVolume(q.Volume),
			formatDelay(q.Delay),
		})
	}

	return formatter.Records(quotes, headers, rows)
}

func formatDelay(delay int) string {
	if delay == 0 {
		return "real-time"
	}
	return strconv.Itoa(delay) + "m"
}

func init() {
	opts := &apiOptions{}
	quoteCmd := newQuoteCmd(opts)
	quoteCmd.PreRunE = bindSession(opts)
	rootCmd.AddCommand(quoteCmd)
}
