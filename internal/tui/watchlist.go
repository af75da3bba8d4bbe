package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"

	"github.com/jonandersen/qt/pkg/questrade"
)

// WatchlistState represents the loading state of watchlist data.
type WatchlistState int

const (
	WatchlistStateLoading WatchlistState = iota
	WatchlistStateLoaded
	WatchlistStateError
)

// WatchlistMode represents the input mode of the watchlist view.
type WatchlistMode int

const (
	WatchlistModeNormal WatchlistMode = iota
	WatchlistModeAdding
	WatchlistModeDeleting
)

// WatchlistModel holds the state for the watchlist view.
type WatchlistModel struct {
	State        WatchlistState
	Symbols      []string
	Quotes       map[string]questrade.Quote
	Err          error
	LastUpdated  time.Time
	Table        table.Model
	Mode         WatchlistMode
	AddInput     textinput.Model
	DeleteSymbol string

	save SaveWatchlistFunc
}

// NewWatchlistModel creates a watchlist over symbols. save may be nil, in
// which case edits only last for the session.
func NewWatchlistModel(symbols []string, save SaveWatchlistFunc) *WatchlistModel {
	cols := []table.Column{
		{Title: "Symbol", Width: 10},
		{Title: "Last", Width: 12},
		{Title: "Bid", Width: 10},
		{Title: "Ask", Width: 10},
		{Title: "High", Width: 10},
		{Title: "Low", Width: 10},
		{Title: "Volume", Width: 14},
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(TableStyles())

	ti := textinput.New()
	ti.Placeholder = "Enter symbol (e.g., XIU.TO)"
	ti.CharLimit = 12
	ti.Width = 20

	normalized := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" && !slices.Contains(normalized, s) {
			normalized = append(normalized, s)
		}
	}

	// An empty watchlist has nothing to load
	initialState := WatchlistStateLoading
	if len(normalized) == 0 {
		initialState = WatchlistStateLoaded
	}

	m := &WatchlistModel{
		State:    initialState,
		Symbols:  normalized,
		Quotes:   make(map[string]questrade.Quote),
		Table:    t,
		Mode:     WatchlistModeNormal,
		AddInput: ti,
		save:     save,
	}
	m.updateTable()
	return m
}

// SetHeight sets the table height.
func (m *WatchlistModel) SetHeight(height int) {
	m.Table.SetHeight(height)
}

// Update handles messages for the watchlist view. The bool reports whether
// the symbol list changed and quotes should be refetched.
func (m *WatchlistModel) Update(msg tea.Msg) (*WatchlistModel, tea.Cmd, bool) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case WatchlistQuotesMsg:
		m.State = WatchlistStateLoaded
		m.Quotes = msg.Quotes
		m.LastUpdated = time.Now()
		m.Err = nil
		m.updateTable()
		return m, nil, false

	case WatchlistErrorMsg:
		m.State = WatchlistStateError
		m.Err = msg.Err
		return m, nil, false

	case WatchlistSavedMsg:
		return m, nil, false

	case tea.KeyMsg:
		switch m.Mode {
		case WatchlistModeAdding:
			switch msg.String() {
			case "enter":
				symbol := strings.ToUpper(strings.TrimSpace(m.AddInput.Value()))
				m.Mode = WatchlistModeNormal
				m.AddInput.Reset()
				if symbol == "" || slices.Contains(m.Symbols, symbol) {
					return m, nil, false
				}
				m.Symbols = append(m.Symbols, symbol)
				m.updateTable()
				return m, m.saveWatchlist(), true
			case "esc":
				m.Mode = WatchlistModeNormal
				m.AddInput.Reset()
				return m, nil, false
			default:
				m.AddInput, cmd = m.AddInput.Update(msg)
				return m, cmd, false
			}

		case WatchlistModeDeleting:
			switch msg.String() {
			case "y", "Y":
				m.Symbols = slices.DeleteFunc(m.Symbols, func(s string) bool { return s == m.DeleteSymbol })
				delete(m.Quotes, m.DeleteSymbol)
				m.updateTable()
				m.Mode = WatchlistModeNormal
				m.DeleteSymbol = ""
				return m, m.saveWatchlist(), false
			case "n", "N", "esc":
				m.Mode = WatchlistModeNormal
				m.DeleteSymbol = ""
			}
			return m, nil, false

		case WatchlistModeNormal:
			switch msg.String() {
			case "a":
				m.Mode = WatchlistModeAdding
				m.AddInput.Focus()
				return m, textinput.Blink, false
			case "d", "x":
				if symbol := m.SelectedSymbol(); symbol != "" {
					m.DeleteSymbol = symbol
					m.Mode = WatchlistModeDeleting
				}
				return m, nil, false
			}
		}
	}

	if m.Mode == WatchlistModeNormal {
		m.Table, cmd = m.Table.Update(msg)
		return m, cmd, false
	}
	return m, nil, false
}

func (m *WatchlistModel) updateTable() {
	rows := make([]table.Row, 0, len(m.Symbols))
	for _, sym := range m.Symbols {
		q, ok := m.Quotes[sym]
		if !ok {
			rows = append(rows, table.Row{sym, "-", "-", "-", "-", "-", "-"})
			continue
		}
		last := questrade.FormatMoney(q.LastTradePrice)
		if q.IsHalted {
			last += " H"
		}
		rows = append(rows, table.Row{
			sym,
			last,
			questrade.FormatMoney(q.BidPrice),
			questrade.FormatMoney(q.AskPrice),
			questrade.FormatMoney(q.HighPrice),
			questrade.FormatMoney(q.LowPrice),
			questrade.FormatVolume(q.Volume),
		})
	}
	m.Table.SetRows(rows)
}

// View renders the watchlist view.
func (m *WatchlistModel) View() string {
	var b strings.Builder

	switch m.Mode {
	case WatchlistModeAdding:
		b.WriteString(SummaryStyle.Render("Add Symbol"))
		b.WriteString("\n\n")
		b.WriteString(InputStyle.Render(m.AddInput.View()))
		b.WriteString("\n\n")
		b.WriteString(LabelStyle.Render("Press Enter to add, Esc to cancel"))
		return b.String()

	case WatchlistModeDeleting:
		b.WriteString(WarningStyle.Render(fmt.Sprintf("Remove %s from watchlist?", m.DeleteSymbol)))
		b.WriteString("\n\n")
		b.WriteString(LabelStyle.Render("Press Y to confirm, N to cancel"))
		return b.String()
	}

	switch m.State {
	case WatchlistStateLoading:
		b.WriteString("Loading quotes...")

	case WatchlistStateError:
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.Err)))
		b.WriteString("\n\nPress 'r' to retry")

	case WatchlistStateLoaded:
		b.WriteString(SummaryStyle.Render("Watchlist"))
		b.WriteString(LabelStyle.Render(fmt.Sprintf(" (%d symbols)", len(m.Symbols))))
		b.WriteString("\n\n")

		if len(m.Symbols) == 0 {
			b.WriteString(LabelStyle.Render("No symbols in watchlist"))
			b.WriteString("\n\n")
			b.WriteString(LabelStyle.Render("Press 'a' to add a symbol"))
			break
		}
		b.WriteString(m.Table.View())
		b.WriteString("\n")
		b.WriteString(LabelStyle.Render(fmt.Sprintf("Updated: %s", m.LastUpdated.Format("3:04:05 PM"))))
	}

	return b.String()
}

// SelectedSymbol returns the highlighted symbol in normal mode.
func (m *WatchlistModel) SelectedSymbol() string {
	if m.Mode != WatchlistModeNormal {
		return ""
	}
	if row := m.Table.SelectedRow(); len(row) > 0 {
		return row[0]
	}
	return ""
}

func (m *WatchlistModel) saveWatchlist() tea.Cmd {
	if m.save == nil {
		return nil
	}
	symbols := append([]string(nil), m.Symbols...)
	save := m.save
	return func() tea.Msg {
		if err := save(symbols); err != nil {
			return WatchlistErrorMsg{Err: errors.Wrap(err, "failed to save watchlist")}
		}
		return WatchlistSavedMsg{}
	}
}
