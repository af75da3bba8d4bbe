package cmd

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/jonandersen/qt/internal/output"
	"github.com/jonandersen/qt/pkg/questrade"
)

// candleOptions extends apiOptions with the candle query flags.
type candleOptions struct {
	*apiOptions
	from     string
	to       string
	interval string
	now      func() time.Time
}

func newCandlesCmd(opts *candleOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "candles SYMBOL",
		Short: "Show historical price bars",
		Long: `Show OHLC bars for a symbol between two dates.

Dates are YYYY-MM-DD. The range defaults to the last 30 days.

Intervals: ` + strings.Join(questrade.Intervals, ", ") + `

Examples:
  qt candles AAPL
  qt candles AAPL --from 2024-01-01 --to 2024-01-31 --interval OneHour`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !questrade.ValidInterval(opts.interval) {
				return errors.Newf("invalid interval %q (valid: %s)", opts.interval, strings.Join(questrade.Intervals, ", "))
			}
			start, end, err := parseRange(opts.from, opts.to, 30*24*time.Hour, opts.now())
			if err != nil {
				return err
			}
			return runCandles(cmd, opts, args[0], start, end)
		},
	}

	cmd.Flags().StringVar(&opts.from, "from", "", "Start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.to, "to", "", "End date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&opts.interval, "interval", "OneDay", "Bar interval")
	cmd.SilenceUsage = true

	return cmd
}

func runCandles(cmd *cobra.Command, opts *candleOptions, ticker string, start, end time.Time) error {
	ctx, cancel := apiContext(opts.cfg)
	defer cancel()

	candles, err := opts.client.Candles(ctx, ticker, start, endOfDay(end), opts.interval)
	if err != nil {
		return errors.Wrap(err, "failed to fetch candles")
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if len(candles) == 0 && !opts.jsonMode {
		return formatter.Print("No candles in range")
	}

	headers := []string{"Start", "Open", "High", "Low", "Close", "Volume"}
	rows := make([][]string, 0, len(candles))
	for _, c := range candles {
		start := c.Start
		if opts.interval == "OneDay" || opts.interval == "OneWeek" || opts.interval == "OneMonth" || opts.interval == "OneYear" {
			start = shortDate(start)
		}
		rows = append(rows, []string{
			start,
			questrade.FormatMoney(c.Open),
			questrade.FormatMoney(c.High),
			questrade.FormatMoney(c.Low),
			questrade.FormatMoney(c.Close),
			questrade.FormatVolume(c.Volume),
		})
	}

	return formatter.Records(candles, headers, rows)
}

func init() {
	opts := &candleOptions{apiOptions: &apiOptions{}, now: time.Now}
	candlesCmd := newCandlesCmd(opts)
	candlesCmd.PreRunE = bindSession(opts.apiOptions)
	rootCmd.AddCommand(candlesCmd)
}
