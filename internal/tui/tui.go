// Package tui implements the interactive quote watchlist behind `qt watch`.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DefaultRefreshInterval is used when Options.RefreshInterval is zero.
const DefaultRefreshInterval = 5 * time.Second

// View represents the current active view in the TUI.
type View int

const (
	ViewWatchlist View = iota
	ViewPositions
)

// Options configures a Model.
type Options struct {
	Client          Client
	AccountID       string
	Symbols         []string
	RefreshInterval time.Duration
	SaveWatchlist   SaveWatchlistFunc
}

// Model is the main bubbletea model for the TUI.
type Model struct {
	currentView View
	width       int
	height      int
	ready       bool

	client    Client
	watchlist *WatchlistModel
	positions *PositionsModel

	refreshInterval time.Duration
}

// New creates a TUI model. Calls to opts.Client are serialized.
func New(opts Options) Model {
	interval := opts.RefreshInterval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return Model{
		currentView:     ViewWatchlist,
		client:          &serialClient{client: opts.Client},
		watchlist:       NewWatchlistModel(opts.Symbols, opts.SaveWatchlist),
		positions:       NewPositionsModel(opts.AccountID),
		refreshInterval: interval,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchQuotes(),
		FetchPositions(m.client, m.positions.AccountID),
		m.tickCmd(),
	)
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) fetchQuotes() tea.Cmd {
	return FetchWatchlistQuotes(m.client, m.watchlist.Symbols)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Input modes consume every key
		if m.currentView == ViewWatchlist && m.watchlist.Mode != WatchlistModeNormal {
			var changed bool
			m.watchlist, cmd, changed = m.watchlist.Update(msg)
			cmds = append(cmds, cmd)
			if changed {
				cmds = append(cmds, m.fetchQuotes())
			}
			return m, tea.Batch(cmds...)
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			return m, nil
		case "1":
			m.currentView = ViewWatchlist
		case "2":
			m.currentView = ViewPositions
		case "r":
			switch m.currentView {
			case ViewWatchlist:
				m.watchlist.State = WatchlistStateLoading
				cmds = append(cmds, m.fetchQuotes())
			case ViewPositions:
				m.positions.State = PositionsStateLoading
				cmds = append(cmds, FetchPositions(m.client, m.positions.AccountID))
			}
		default:
			switch m.currentView {
			case ViewWatchlist:
				m.watchlist, cmd, _ = m.watchlist.Update(msg)
			case ViewPositions:
				m.positions, cmd = m.positions.Update(msg)
			}
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		// header, footer, summary lines and padding
		tableHeight := m.height - 1 - 1 - 4 - 4
		if tableHeight < 3 {
			tableHeight = 3
		}
		m.watchlist.SetHeight(tableHeight)
		m.positions.SetHeight(tableHeight)

	case WatchlistQuotesMsg, WatchlistErrorMsg, WatchlistSavedMsg:
		m.watchlist, cmd, _ = m.watchlist.Update(msg)
		cmds = append(cmds, cmd)

	case PositionsLoadedMsg, PositionsErrorMsg:
		m.positions, cmd = m.positions.Update(msg)
		cmds = append(cmds, cmd)

	case TickMsg:
		switch {
		case m.currentView == ViewWatchlist && m.watchlist.State != WatchlistStateLoading && m.watchlist.Mode == WatchlistModeNormal:
			cmds = append(cmds, m.fetchQuotes())
		case m.currentView == ViewPositions && m.positions.State != PositionsStateLoading:
			cmds = append(cmds, FetchPositions(m.client, m.positions.AccountID))
		}
		cmds = append(cmds, m.tickCmd())
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	content := m.renderContent()

	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)

	lines := strings.Split(content, "\n")
	for len(lines) < contentHeight {
		lines = append(lines, "")
	}
	if contentHeight >= 0 && len(lines) > contentHeight {
		lines = lines[:contentHeight]
	}

	return header + "\n" + strings.Join(lines, "\n") + "\n" + footer
}

func (m Model) renderHeader() string {
	title := HeaderStyle.Render("qt")

	tabs := []struct {
		name   string
		key    string
		active bool
	}{
		{"Watchlist", "1", m.currentView == ViewWatchlist},
		{"Positions", "2", m.currentView == ViewPositions},
	}

	tabStrs := make([]string, 0, len(tabs))
	for _, tab := range tabs {
		style := lipgloss.NewStyle().Padding(0, 1)
		if tab.active {
			style = style.Bold(true).Foreground(ColorPrimary)
		} else {
			style = style.Foreground(ColorMuted)
		}
		tabStrs = append(tabStrs, style.Render(fmt.Sprintf("[%s] %s", tab.key, tab.name)))
	}

	return fullWidthBar(title+"  "+strings.Join(tabStrs, " "), m.width)
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewPositions:
		return ContentStyle.Render(m.positions.View())
	default:
		return ContentStyle.Render(m.watchlist.View())
	}
}

type keyHint struct{ key, desc string }

func (m Model) renderFooter() string {
	keys := []keyHint{{"1-2", "switch view"}}

	switch m.currentView {
	case ViewPositions:
		keys = append(keys, keyHint{"↑/↓", "navigate"}, keyHint{"r", "refresh"})
	case ViewWatchlist:
		switch m.watchlist.Mode {
		case WatchlistModeNormal:
			keys = append(keys,
				keyHint{"↑/↓", "navigate"},
				keyHint{"a", "add"},
				keyHint{"d", "remove"},
				keyHint{"r", "refresh"},
			)
		case WatchlistModeAdding:
			keys = []keyHint{{"enter", "add"}, {"esc", "cancel"}}
		case WatchlistModeDeleting:
			keys = []keyHint{{"y", "confirm"}, {"n", "cancel"}}
		}
	}
	keys = append(keys, keyHint{"q", "quit"})

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, KeyStyle.Render(k.key)+" "+DescStyle.Render(k.desc))
	}

	return fullWidthBar(strings.Join(parts, "  •  "), m.width)
}

func fullWidthBar(content string, width int) string {
	if padding := width - lipgloss.Width(content); padding > 0 {
		content += strings.Repeat(" ", padding)
	}
	return lipgloss.NewStyle().
		Background(ColorBackground).
		Width(width).
		Render(content)
}
