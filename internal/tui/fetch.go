package tui

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"

	"github.com/jonandersen/qt/pkg/questrade"
)

const fetchTimeout = 30 * time.Second

// Client is the subset of *questrade.Client the TUI reads from.
type Client interface {
	Quotes(ctx context.Context, tickers ...string) ([]questrade.Quote, error)
	Positions(ctx context.Context, accountID string) ([]questrade.Position, error)
}

// SaveWatchlistFunc persists the watchlist after the user edits it.
type SaveWatchlistFunc func(symbols []string) error

// serialClient runs one call at a time. Commands execute on their own
// goroutines and a questrade.Client must not refresh concurrently.
type serialClient struct {
	mu     sync.Mutex
	client Client
}

func (c *serialClient) Quotes(ctx context.Context, tickers ...string) ([]questrade.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client.Quotes(ctx, tickers...)
}

func (c *serialClient) Positions(ctx context.Context, accountID string) ([]questrade.Position, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client.Positions(ctx, accountID)
}

// FetchWatchlistQuotes returns a command that fetches quotes for symbols.
func FetchWatchlistQuotes(client Client, symbols []string) tea.Cmd {
	symbols = append([]string(nil), symbols...)
	return func() tea.Msg {
		if len(symbols) == 0 {
			return WatchlistQuotesMsg{Quotes: map[string]questrade.Quote{}}
		}

		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		quotes, err := client.Quotes(ctx, symbols...)
		if err != nil {
			return WatchlistErrorMsg{Err: errors.Wrap(err, "failed to fetch quotes")}
		}

		bySymbol := make(map[string]questrade.Quote, len(quotes))
		for _, q := range quotes {
			bySymbol[q.Symbol] = q
		}
		return WatchlistQuotesMsg{Quotes: bySymbol}
	}
}

// FetchPositions returns a command that loads the positions of accountID.
func FetchPositions(client Client, accountID string) tea.Cmd {
	return func() tea.Msg {
		if accountID == "" {
			return PositionsErrorMsg{Err: errors.New("no account configured (set account_number or use --account)")}
		}

		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		positions, err := client.Positions(ctx, accountID)
		if err != nil {
			return PositionsErrorMsg{Err: errors.Wrap(err, "failed to fetch positions")}
		}
		return PositionsLoadedMsg{Positions: positions}
	}
}
