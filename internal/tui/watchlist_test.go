package tui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchlist_AddSymbol(t *testing.T) {
	var saved []string
	m := NewWatchlistModel([]string{"AAPL"}, func(symbols []string) error {
		saved = symbols
		return nil
	})

	m, _, _ = m.Update(key("a"))
	assert.Equal(t, WatchlistModeAdding, m.Mode)
	assert.Contains(t, m.View(), "Add Symbol")

	for _, r := range "ry.to" {
		m, _, _ = m.Update(key(string(r)))
	}
	m, cmd, changed := m.Update(key("enter"))

	assert.True(t, changed)
	assert.Equal(t, WatchlistModeNormal, m.Mode)
	assert.Equal(t, []string{"AAPL", "RY.TO"}, m.Symbols)
	require.NotNil(t, cmd)
	assert.Equal(t, WatchlistSavedMsg{}, cmd())
	assert.Equal(t, []string{"AAPL", "RY.TO"}, saved)
}

func TestWatchlist_AddDuplicateIgnored(t *testing.T) {
	m := NewWatchlistModel([]string{"AAPL"}, nil)

	m, _, _ = m.Update(key("a"))
	for _, r := range "aapl" {
		m, _, _ = m.Update(key(string(r)))
	}
	m, cmd, changed := m.Update(key("enter"))

	assert.False(t, changed)
	assert.Nil(t, cmd)
	assert.Equal(t, []string{"AAPL"}, m.Symbols)
}

func TestWatchlist_AddCancelled(t *testing.T) {
	m := NewWatchlistModel(nil, nil)

	m, _, _ = m.Update(key("a"))
	m, _, _ = m.Update(key("x"))
	m, _, changed := m.Update(key("esc"))

	assert.False(t, changed)
	assert.Equal(t, WatchlistModeNormal, m.Mode)
	assert.Empty(t, m.Symbols)
	assert.Empty(t, m.AddInput.Value())
}

func TestWatchlist_RemoveSymbol(t *testing.T) {
	var saved []string
	m := NewWatchlistModel([]string{"AAPL", "MSFT"}, func(symbols []string) error {
		saved = symbols
		return nil
	})

	m, _, _ = m.Update(key("d"))
	require.Equal(t, WatchlistModeDeleting, m.Mode)
	assert.Equal(t, "AAPL", m.DeleteSymbol)
	assert.Contains(t, m.View(), "Remove AAPL")

	m, cmd, _ := m.Update(key("y"))

	assert.Equal(t, WatchlistModeNormal, m.Mode)
	assert.Equal(t, []string{"MSFT"}, m.Symbols)
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, []string{"MSFT"}, saved)
}

func TestWatchlist_RemoveCancelled(t *testing.T) {
	m := NewWatchlistModel([]string{"AAPL"}, nil)

	m, _, _ = m.Update(key("d"))
	m, _, _ = m.Update(key("n"))

	assert.Equal(t, WatchlistModeNormal, m.Mode)
	assert.Equal(t, []string{"AAPL"}, m.Symbols)
}

func TestWatchlist_SaveError(t *testing.T) {
	m := NewWatchlistModel(nil, func([]string) error { return errors.New("read-only filesystem") })

	m, _, _ = m.Update(key("a"))
	m, _, _ = m.Update(key("T"))
	_, cmd, _ := m.Update(key("enter"))

	require.NotNil(t, cmd)
	msg, ok := cmd().(WatchlistErrorMsg)
	require.True(t, ok)
	assert.Contains(t, msg.Err.Error(), "failed to save watchlist")
}

func TestWatchlist_EmptyView(t *testing.T) {
	m := NewWatchlistModel(nil, nil)

	view := m.View()

	assert.Contains(t, view, "No symbols in watchlist")
	assert.Contains(t, view, "Press 'a'")
}

func TestWatchlist_RowsWithoutQuotes(t *testing.T) {
	m := NewWatchlistModel([]string{"AAPL"}, nil)

	rows := m.Table.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "AAPL", rows[0][0])
	assert.Equal(t, "-", rows[0][1])
}
