// Copyright (c) 2025 Neomantra Corp

package tui

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	tradecore "github.com/nimble-quant/trading-core"
)

const barsHistoryLimit = 20

// Bars page: a master list of registered bar series on the left, the
// selected series' recent bars (oldest first) on the right.
type BarsPageModel struct {
	config Config

	barTypes        []tradecore.BarType
	selectedBarType int
	lastError       error

	width       int
	height      int
	seriesTable table.Model
	recentTable table.Model
}

func NewBarsPage(config Config) BarsPageModel {
	seriesTable := table.New(table.WithColumns([]table.Column{
		{Title: "Bar Type", Width: 30},
	}), table.WithStyles(nimbleTableStyles),
		table.WithFocused(true))

	recentStyle := nimbleTableStyles
	recentStyle.Selected = lipgloss.NewStyle()
	recentTable := table.New(table.WithColumns([]table.Column{
		{Title: "Age", Width: 20},
		{Title: "Open", Width: 10},
		{Title: "High", Width: 10},
		{Title: "Low", Width: 10},
		{Title: "Close", Width: 10},
		{Title: "Volume", Width: 10},
	}), table.WithStyles(recentStyle),
		table.WithFocused(false))

	return BarsPageModel{
		config:          config,
		selectedBarType: -1,
		seriesTable:     seriesTable,
		recentTable:     recentTable,
		width:           20,
		height:          10,
	}
}

//////////////////////////////////////////////////////////////////////////////
// BubbleTea interface

func (m BarsPageModel) Init() tea.Cmd {
	return refreshBarTypes(m.config)
}

func (m BarsPageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateSizes()

	case barTypesRefreshMsg:
		m.lastError = msg.Error
		m.barTypes = msg.BarTypes
		sort.Slice(m.barTypes, func(i, j int) bool {
			return m.barTypes[i].String() < m.barTypes[j].String()
		})

		var rows []table.Row
		for _, bt := range m.barTypes {
			rows = append(rows, table.Row{bt.String()})
		}
		m.seriesTable.SetRows(rows)
		cmd := m.onSeriesSelection()
		return m, tea.Batch(cmd, tea.Tick(m.config.refreshInterval(), func(time.Time) tea.Msg {
			return refreshTickMsg{}
		}))

	case recentBarsMsg:
		m.lastError = msg.Error
		var rows []table.Row
		for _, bar := range msg.Bars {
			rows = append(rows, table.Row{
				niceAge(tradecore.TimestampToTime(uint64(bar.TsEvent))),
				bar.Open.String(),
				bar.High.String(),
				bar.Low.String(),
				bar.Close.String(),
				niceVolume(bar.Volume.AsFloat64()),
			})
		}
		m.recentTable.SetRows(rows)

	case refreshTickMsg:
		return m, refreshBarTypes(m.config)

	default:
		var cmd1, cmd2 tea.Cmd
		m.seriesTable, cmd1 = m.seriesTable.Update(msg)
		m.recentTable, cmd2 = m.recentTable.Update(msg)
		cmd3 := m.onSeriesSelection()
		return m, tea.Batch(cmd1, cmd2, cmd3)
	}
	return m, nil
}

func (m *BarsPageModel) onSeriesSelection() tea.Cmd {
	cursor := m.seriesTable.Cursor()
	if cursor < 0 || cursor >= len(m.barTypes) || cursor == m.selectedBarType {
		return nil
	}
	m.selectedBarType = cursor
	return refreshRecentBars(m.config, m.barTypes[m.selectedBarType])
}

func (m BarsPageModel) View() string {
	if m.lastError != nil {
		return fmt.Sprintf("Error: %s", m.lastError.Error())
	}
	seriesPane := nimbleBorderStyle.Render(m.seriesTable.View())
	recentPane := nimbleBorderStyle.Render(m.recentTable.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, seriesPane, recentPane)
}

//////////////////////////////////////////////////////////////////////////////

func (m *BarsPageModel) updateSizes() {
	availHeight := m.height - 2 - 2 // app header+footer, pane border
	m.seriesTable.SetHeight(availHeight)
	m.recentTable.SetHeight(availHeight)

	availWidth := m.width - 2
	seriesWidth := minInt(availWidth, 34)
	m.seriesTable.SetWidth(seriesWidth)
	m.recentTable.SetWidth(maxInt(0, availWidth-seriesWidth-3))
}

//////////////////////////////////////////////////////////////////////////////

type barTypesRefreshMsg struct {
	BarTypes []tradecore.BarType
	Error    error
}

type recentBarsMsg struct {
	Bars  []tradecore.Bar
	Error error
}

func refreshBarTypes(config Config) tea.Cmd {
	return func() tea.Msg {
		if config.Engine == nil {
			return barTypesRefreshMsg{Error: fmt.Errorf("bars page: no engine configured")}
		}
		return barTypesRefreshMsg{BarTypes: config.Engine.BarTypes()}
	}
}

func refreshRecentBars(config Config, barType tradecore.BarType) tea.Cmd {
	return func() tea.Msg {
		if config.Sink == nil {
			return recentBarsMsg{Error: fmt.Errorf("bars page: no sink configured, bar history unavailable")}
		}
		bars, err := config.Sink.RecentBars(barType, barsHistoryLimit)
		return recentBarsMsg{Bars: bars, Error: err}
	}
}
