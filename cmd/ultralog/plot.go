package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	plot "github.com/chriskim06/drawille-go"
	"github.com/spf13/cobra"

	"github.com/ultralog/ultralog/pkg/downsample"
	"github.com/ultralog/ultralog/pkg/ingestion"
)

// NewPlotCommand opens a log, downsamples one channel to the terminal's
// width, and renders it as a braille line chart. +/- adjust the point
// budget and re-downsample live; q quits.
func NewPlotCommand() *cobra.Command {
	var unit string
	cmd := &cobra.Command{
		Use:   "plot <path> <channel>",
		Short: "Plot a channel in the terminal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			handle, _, err := openAndAwait(cmd.Context(), cc, args[0])
			if err != nil {
				return err
			}
			defer cc.Core.Close(handle)

			m := newPlotModel(cc, handle, args[1], unit)
			_, err = tea.NewProgram(m).Run()
			return err
		},
	}
	cmd.Flags().StringVar(&unit, "unit", "", "convert displayed values to this unit")
	return cmd
}

type plotModel struct {
	cc      *CommandContext
	handle  ingestion.Handle
	channel string
	unit    string

	budget int
	width  int
	height int

	canvas *plot.Canvas
	help   help.Model
	points []downsample.Point
	err    error
}

func newPlotModel(cc *CommandContext, handle ingestion.Handle, channel, unit string) *plotModel {
	return &plotModel{
		cc:      cc,
		handle:  handle,
		channel: channel,
		unit:    unit,
		budget:  cc.Cfg.DownsampleBudget,
		width:   80,
		height:  20,
		help:    help.New(),
	}
}

type plotKeyMap struct {
	More key.Binding
	Less key.Binding
	Quit key.Binding
}

func (k plotKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.More, k.Less, k.Quit}
}

func (k plotKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var plotKeys = plotKeyMap{
	More: key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "more points")),
	Less: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "fewer points")),
	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (m *plotModel) Init() tea.Cmd {
	return m.refresh
}

func (m *plotModel) refresh() tea.Msg {
	points, err := m.cc.Core.Downsample(context.Background(), m.handle, m.channel, m.unit, m.budget)
	return plotRefreshedMsg{points: points, err: err}
}

type plotRefreshedMsg struct {
	points []downsample.Point
	err    error
}

func (m *plotModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.fillCanvas()
		return m, nil
	case plotRefreshedMsg:
		m.points = msg.points
		m.err = msg.err
		m.fillCanvas()
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, plotKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, plotKeys.More):
			m.budget += 100
			return m, m.refresh
		case key.Matches(msg, plotKeys.Less):
			if m.budget > 100 {
				m.budget -= 100
			}
			return m, m.refresh
		}
	}
	return m, nil
}

func (m *plotModel) fillCanvas() {
	h := m.height - 3
	if h < 1 {
		h = 1
	}
	w := m.width - 2
	if w < 1 {
		w = 1
	}
	c := plot.NewCanvas(w, h)
	c.ShowAxis = true

	series := make([]float64, len(m.points))
	for i, p := range m.points {
		if p.Absent {
			series[i] = 0
			continue
		}
		series[i] = p.V
	}
	c.Fill([][]float64{series})
	m.canvas = &c
}

func (m *plotModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("error plotting %s: %v\n", m.channel, m.err)
	}
	title := lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%s (%d points, budget %d)", m.channel, len(m.points), m.budget))

	body := ""
	if m.canvas != nil {
		body = m.canvas.String()
	}

	return title + "\n" + body + "\n" + m.help.View(plotKeys)
}
