// Copyright (c) 2025 Neomantra Corp

package tui

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Positions page: every currently open position.
type PositionsPageModel struct {
	config    Config
	lastError error

	table  table.Model
	width  int
	height int
}

func NewPositionsPage(config Config) PositionsPageModel {
	t := table.New(table.WithColumns([]table.Column{
		{Title: "Position", Width: 10},
		{Title: "Symbol", Width: 10},
		{Title: "Side", Width: 6},
		{Title: "Net Qty", Width: 10},
		{Title: "Avg Px Open", Width: 12},
		{Title: "Avg Px Close", Width: 12},
		{Title: "Realized PnL", Width: 14},
	}), table.WithStyles(nimbleTableStyles),
		table.WithFocused(true))

	return PositionsPageModel{
		config: config,
		table:  t,
		width:  20,
		height: 10,
	}
}

//////////////////////////////////////////////////////////////////////////////
// BubbleTea interface

func (m PositionsPageModel) Init() tea.Cmd {
	return refreshPositions(m.config)
}

func (m PositionsPageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width - 2)
		m.table.SetHeight(msg.Height - 4)

	case positionsRefreshMsg:
		m.lastError = msg.Error
		sort.Slice(msg.Rows, func(i, j int) bool {
			return msg.Rows[i][0] < msg.Rows[j][0]
		})
		var rows []table.Row
		for _, r := range msg.Rows {
			rows = append(rows, table.Row(r))
		}
		m.table.SetRows(rows)
		return m, tea.Tick(m.config.refreshInterval(), func(time.Time) tea.Msg {
			return refreshTickMsg{}
		})

	case refreshTickMsg:
		return m, refreshPositions(m.config)

	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m PositionsPageModel) View() string {
	var pane string
	if m.lastError != nil {
		pane = lipgloss.NewStyle().Width(m.table.Width()).Render(
			fmt.Sprintf("Error: %s", m.lastError.Error()))
	} else {
		pane = m.table.View()
	}
	return nimbleBorderStyle.Render(pane)
}

//////////////////////////////////////////////////////////////////////////////

type positionsRefreshMsg struct {
	Rows  [][]string
	Error error
}

func refreshPositions(config Config) tea.Cmd {
	return func() tea.Msg {
		if config.Engine == nil {
			return positionsRefreshMsg{Error: fmt.Errorf("positions page: no engine configured")}
		}
		var rows [][]string
		for _, p := range config.Engine.Positions() {
			avgOpen, avgClose := "-", "-"
			if p.AvgPxOpen != nil {
				avgOpen = p.AvgPxOpen.String()
			}
			if p.AvgPxClose != nil {
				avgClose = p.AvgPxClose.String()
			}
			pnl := "-"
			if p.RealizedPnl != nil {
				pnl = p.RealizedPnl.String()
			}
			rows = append(rows, []string{
				string(p.PositionId),
				p.InstrumentId.Symbol,
				p.Side.String(),
				fmt.Sprintf("%d", p.NetQty),
				avgOpen,
				avgClose,
				pnl,
			})
		}
		return positionsRefreshMsg{Rows: rows}
	}
}
