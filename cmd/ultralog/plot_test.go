package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultralog/ultralog/internal/config"
	"github.com/ultralog/ultralog/pkg/core"
)

func newTestPlotModel(t *testing.T) *plotModel {
	t.Helper()
	path := writeFixtureLog(t)

	cfg := &config.Config{DownsampleBudget: 2000}
	c := core.New(core.Options{MaxWorkers: 2})
	cc := &CommandContext{Cfg: cfg, Core: c}

	handle, err := c.Open(t.Context(), path)
	require.NoError(t, err)
	_, err = c.Log(t.Context(), handle)
	require.NoError(t, err)

	return newPlotModel(cc, handle, "RPM", "")
}

func TestPlotModel_RefreshPopulatesPoints(t *testing.T) {
	m := newTestPlotModel(t)
	msg := m.refresh()

	refreshed, ok := msg.(plotRefreshedMsg)
	require.True(t, ok)
	require.NoError(t, refreshed.err)
	assert.Len(t, refreshed.points, 3)
}

func TestPlotModel_BudgetKeysAdjustBudget(t *testing.T) {
	m := newTestPlotModel(t)
	initial := m.budget

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("+")})
	assert.Equal(t, initial+100, m.budget)
	assert.NotNil(t, cmd)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("-")})
	assert.Equal(t, initial, m.budget)
	assert.NotNil(t, cmd)
}

func TestPlotModel_ViewRendersWithoutCanvas(t *testing.T) {
	m := newTestPlotModel(t)
	view := m.View()
	assert.Contains(t, view, "RPM")
}

func TestPlotModel_WindowSizeFillsCanvas(t *testing.T) {
	m := newTestPlotModel(t)
	msg := m.refresh().(plotRefreshedMsg)
	m.points = msg.points

	_, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.NotNil(t, m.canvas)
}
