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

// Book page: top-of-book across every instrument with a registered book.
type BookPageModel struct {
	config Config

	rows      []bookRow
	lastError error

	table  table.Model
	width  int
	height int
}

type bookRow struct {
	InstrumentId tradecore.InstrumentId
	Level        tradecore.BookLevel
	Bid          string
	Ask          string
	Spread       string
}

func NewBookPage(config Config) BookPageModel {
	t := table.New(table.WithColumns([]table.Column{
		{Title: "Symbol", Width: 10},
		{Title: "Venue", Width: 8},
		{Title: "Level", Width: 10},
		{Title: "Bid", Width: 14},
		{Title: "Ask", Width: 14},
		{Title: "Spread", Width: 14},
	}), table.WithStyles(nimbleTableStyles),
		table.WithFocused(true))

	return BookPageModel{
		config: config,
		table:  t,
		width:  20,
		height: 10,
	}
}

//////////////////////////////////////////////////////////////////////////////
// BubbleTea interface

func (m BookPageModel) Init() tea.Cmd {
	return refreshBook(m.config)
}

func (m BookPageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width - 2)
		m.table.SetHeight(msg.Height - 4)

	case bookRefreshMsg:
		m.lastError = msg.Error
		m.rows = msg.Rows
		sort.Slice(m.rows, func(i, j int) bool {
			return m.rows[i].InstrumentId.String() < m.rows[j].InstrumentId.String()
		})

		var rows []table.Row
		for _, r := range m.rows {
			rows = append(rows, table.Row{
				r.InstrumentId.Symbol,
				r.InstrumentId.Venue,
				r.Level.String(),
				r.Bid,
				r.Ask,
				r.Spread,
			})
		}
		m.table.SetRows(rows)
		return m, tea.Tick(m.config.refreshInterval(), func(time.Time) tea.Msg {
			return refreshTickMsg{}
		})

	case refreshTickMsg:
		return m, refreshBook(m.config)

	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m BookPageModel) View() string {
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

// refreshTickMsg fires every Config.RefreshInterval to re-poll the engine.
// Each page schedules its own tick, so the three pages refresh independently.
type refreshTickMsg struct{}

type bookRefreshMsg struct {
	Rows  []bookRow
	Error error
}

func refreshBook(config Config) tea.Cmd {
	return func() tea.Msg {
		if config.Engine == nil {
			return bookRefreshMsg{Error: fmt.Errorf("book page: no engine configured")}
		}
		var rows []bookRow
		for _, b := range config.Engine.Books() {
			row := bookRow{InstrumentId: b.InstrumentId(), Level: b.Level()}
			if bid, ok := b.BestBid(); ok {
				row.Bid = bid.String()
			} else {
				row.Bid = "-"
			}
			if ask, ok := b.BestAsk(); ok {
				row.Ask = ask.String()
			} else {
				row.Ask = "-"
			}
			if spread, ok := b.Spread(); ok {
				row.Spread = spread.String()
			} else {
				row.Spread = "-"
			}
			rows = append(rows, row)
		}
		return bookRefreshMsg{Rows: rows}
	}
}
