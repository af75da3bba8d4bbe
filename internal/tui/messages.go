package tui

import (
	"time"

	"github.com/jonandersen/qt/pkg/questrade"
)

// WatchlistQuotesMsg carries freshly fetched quotes keyed by symbol.
type WatchlistQuotesMsg struct {
	Quotes map[string]questrade.Quote
}

// WatchlistErrorMsg is sent when fetching or saving the watchlist fails.
type WatchlistErrorMsg struct {
	Err error
}

// WatchlistSavedMsg is sent when the watchlist has been persisted.
type WatchlistSavedMsg struct{}

// PositionsLoadedMsg carries the positions of the configured account.
type PositionsLoadedMsg struct {
	Positions []questrade.Position
}

// PositionsErrorMsg is sent when loading positions fails.
type PositionsErrorMsg struct {
	Err error
}

// TickMsg is sent periodically for auto-refresh.
type TickMsg time.Time
