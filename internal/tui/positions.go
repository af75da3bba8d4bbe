package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jonandersen/qt/pkg/questrade"
)

// PositionsState represents the loading state of position data.
type PositionsState int

const (
	PositionsStateLoading PositionsState = iota
	PositionsStateLoaded
	PositionsStateError
)

// PositionsModel holds the state for the positions view.
type PositionsModel struct {
	AccountID   string
	State       PositionsState
	Positions   []questrade.Position
	Err         error
	LastUpdated time.Time
	Table       table.Model
}

// NewPositionsModel creates a positions view for accountID.
func NewPositionsModel(accountID string) *PositionsModel {
	cols := []table.Column{
		{Title: "Symbol", Width: 10},
		{Title: "Qty", Width: 8},
		{Title: "Avg Cost", Width: 10},
		{Title: "Price", Width: 10},
		{Title: "Value", Width: 12},
		{Title: "Open P&L", Width: 12},
		{Title: "Closed P&L", Width: 12},
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(TableStyles())

	return &PositionsModel{
		AccountID: accountID,
		State:     PositionsStateLoading,
		Table:     t,
	}
}

// SetHeight sets the table height.
func (m *PositionsModel) SetHeight(height int) {
	m.Table.SetHeight(height)
}

// Update handles messages for the positions view.
func (m *PositionsModel) Update(msg tea.Msg) (*PositionsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case PositionsLoadedMsg:
		m.State = PositionsStateLoaded
		m.Positions = msg.Positions
		m.LastUpdated = time.Now()
		m.Err = nil
		m.updateTable()
		return m, nil

	case PositionsErrorMsg:
		m.State = PositionsStateError
		m.Err = msg.Err
		return m, nil
	}

	var cmd tea.Cmd
	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

func (m *PositionsModel) updateTable() {
	rows := make([]table.Row, 0, len(m.Positions))
	for _, p := range m.Positions {
		rows = append(rows, table.Row{
			p.Symbol,
			questrade.FormatQuantity(p.OpenQuantity),
			questrade.FormatMoney(p.AverageEntryPrice),
			questrade.FormatMoney(p.CurrentPrice),
			questrade.FormatMoney(p.CurrentMarketValue),
			questrade.FormatGainLoss(p.OpenPnl),
			questrade.FormatGainLoss(p.ClosedPnl),
		})
	}
	m.Table.SetRows(rows)
}

// View renders the positions view.
func (m *PositionsModel) View() string {
	var b strings.Builder

	switch m.State {
	case PositionsStateLoading:
		b.WriteString("Loading positions...")

	case PositionsStateError:
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.Err)))
		b.WriteString("\n\nPress 'r' to retry")

	case PositionsStateLoaded:
		var value, cost, openPnl float64
		for _, p := range m.Positions {
			value += p.CurrentMarketValue
			cost += p.TotalCost
			openPnl += p.OpenPnl
		}

		b.WriteString(SummaryStyle.Render("Account " + m.AccountID))
		b.WriteString("\n")
		b.WriteString(LabelStyle.Render("Market Value: "))
		b.WriteString(ValueStyle.Render(questrade.FormatMoney(value)))
		b.WriteString("  ")
		b.WriteString(LabelStyle.Render("Cost: "))
		b.WriteString(ValueStyle.Render(questrade.FormatMoney(cost)))
		b.WriteString("  ")
		b.WriteString(LabelStyle.Render("Open P&L: "))
		b.WriteString(PnLStyle(openPnl).Render(questrade.FormatGainLoss(openPnl)))
		b.WriteString("\n\n")

		if len(m.Positions) == 0 {
			b.WriteString(LabelStyle.Render("No positions"))
		} else {
			b.WriteString(SummaryStyle.Render("Positions"))
			b.WriteString(LabelStyle.Render(fmt.Sprintf(" (%d)", len(m.Positions))))
			b.WriteString("\n")
			b.WriteString(m.Table.View())
		}

		b.WriteString("\n")
		b.WriteString(LabelStyle.Render(fmt.Sprintf("Updated: %s", m.LastUpdated.Format("3:04:05 PM"))))
	}

	return b.String()
}
