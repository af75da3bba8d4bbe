package cmd

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/jonandersen/qt/internal/output"
	"github.com/jonandersen/qt/pkg/questrade"
)

func newSymbolCmd(opts *apiOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "symbol SYMBOL [SYMBOL...]",
		Short: "Look up symbol details",
		Long: `Look up instrument details, including the symbol ID other endpoints use.

Examples:
  qt symbol AAPL
  qt symbol AAPL SHOP.TO --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSymbol(cmd, opts, args)
		},
	}

	cmd.SilenceUsage = true

	return cmd
}

func runSymbol(cmd *cobra.Command, opts *apiOptions, tickers []string) error {
	ctx, cancel := apiContext(opts.cfg)
	defer cancel()

	symbols, err := opts.client.Symbols(ctx, tickers...)
	if err != nil {
		return errors.Wrap(err, "failed to look up symbols")
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if len(symbols) == 0 && !opts.jsonMode {
		return formatter.Print("No symbols found")
	}

	headers := []string{"Symbol", "ID", "Description", "Exchange", "Currency", "Type", "Prev Close"}
	rows := make([][]string, 0, len(symbols))
	for _, s := range symbols {
		rows = append(rows, []string{
			s.Symbol,
			strconv.FormatInt(s.SymbolID, 10),
			s.Description,
			s.ListingExchange,
			s.Currency,
			s.SecurityType,
			questrade.FormatMoney(s.PrevDayClosePrice),
		})
	}

	return formatter.Records(symbols, headers, rows)
}

func init() {
	opts := &apiOptions{}
	symbolCmd := newSymbolCmd(opts)
	symbolCmd.PreRunE = bindSession(opts)
	rootCmd.AddCommand(symbolCmd)
}
