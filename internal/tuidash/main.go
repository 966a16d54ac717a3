// Copyright (c) 2025 Neomantra Corp

package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nimble-quant/trading-core/internal/engine"
	"github.com/nimble-quant/trading-core/internal/sink"
)

// Config wires the dashboard to a live session. Engine is read-only from
// the dashboard's perspective: a replay or MCP tool writes into it from
// another goroutine, and Engine's own RWMutex covers that.
type Config struct {
	Engine          *engine.Engine
	Sink            *sink.Sink // optional; nil disables the bars page's history
	RefreshInterval time.Duration
}

func (c Config) refreshInterval() time.Duration {
	if c.RefreshInterval <= 0 {
		return time.Second
	}
	return c.RefreshInterval
}

func Run(config Config) error {
	model := NewAppModel(config)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

//////////////////////////////////////////////////////////////////////////////

type AppModel struct {
	config Config

	pages       []tea.Model
	pageNames   []string
	currentPage int

	width            int
	height           int
	help             help.Model
	keyMap           AppKeyMap
	headerStyle      lipgloss.Style
	footerStyle      lipgloss.Style
	inactiveTabStyle lipgloss.Style
	activeTabStyle   lipgloss.Style
}

func NewAppModel(config Config) AppModel {
	m := AppModel{
		config:      config,
		currentPage: 0,
		pageNames:   []string{"1-Book", "2-Positions", "3-Bars"},
		pages: []tea.Model{
			NewBookPage(config),
			NewPositionsPage(config),
			NewBarsPage(config),
		},
		width:  20,
		height: 10,
		help:   help.New(),
		keyMap: DefaultAppKeyMap(),
		headerStyle: lipgloss.NewStyle().
			Foreground(colorYellow).
			Background(colorDarkPurple),
		footerStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorYellow)).
			Background(lipgloss.Color(colorDarkPurple)),
		inactiveTabStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorYellow)).
			Background(lipgloss.Color(colorDarkPurple)),
		activeTabStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorYellow)).
			Background(lipgloss.Color(colorGrue)),
	}
	return m
}

///////////////////////////////////////////////////////////////////////////////
// AppKeyMap

// AppKeyMap is the all the [key.Binding] for the AppModel
type AppKeyMap struct {
	Quit           key.Binding
	FocusBook      key.Binding
	FocusPositions key.Binding
	FocusBars      key.Binding
}

// DefaultAppKeyMap returns a default set of key bindings for AppModel
func DefaultAppKeyMap() AppKeyMap {
	return AppKeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
		FocusBook: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "book"),
		),
		FocusPositions: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "positions"),
		),
		FocusBars: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "bars"),
		),
	}
}

// FullHelp returns bindings to show the full help view.
// Implements bubble's [help.KeyMap] interface.
func (m *AppKeyMap) FullHelp() [][]key.Binding {
	kb := [][]key.Binding{{
		m.Quit,
		m.FocusBook,
		m.FocusPositions,
		m.FocusBars,
	}}
	return kb
}

// ShortHelp returns bindings to show in the abbreviated help view. It's part
// of the help.KeyMap interface.
func (m AppKeyMap) ShortHelp() []key.Binding {
	kb := []key.Binding{
		m.Quit,
		m.FocusBook,
		m.FocusPositions,
		m.FocusBars,
	}
	return kb
}

//////////////////////////////////////////////////////////////////////////////
// BubbleTea interface

// Init handles the initialization of an Session
func (m AppModel) Init() tea.Cmd {
	var cmds []tea.Cmd
	for _, page := range m.pages {
		cmds = append(cmds, page.Init())
	}
	return tea.Batch(cmds...)
}

// Update handles BubbleTea messages for the Session
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keyMap.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keyMap.FocusBook):
			m.currentPage = 0
		case key.Matches(msg, m.keyMap.FocusPositions):
			m.currentPage = 1
		case key.Matches(msg, m.keyMap.FocusBars):
			m.currentPage = 2
		}

		// only active page gets key events
		pageModel, cmd := m.pages[m.currentPage].Update(msg)
		m.pages[m.currentPage] = pageModel
		return m, cmd
	}

	// propagate message to all pages, since refresh ticks target whichever
	// page scheduled them
	var cmds []tea.Cmd
	for i := 0; i < len(m.pages); i++ {
		pageModel, cmd := m.pages[i].Update(msg)
		m.pages[i] = pageModel
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View renders the ModelChooser's view.
func (m AppModel) View() string {
	viewStr := m.headerView() + "\n"
	if m.currentPage < 0 || m.currentPage >= len(m.pages) {
		viewStr += "Error: bad page\n"
	} else {
		viewStr += m.pages[m.currentPage].View() + "\n"
	}
	viewStr += m.footerView()
	return viewStr
}

///////////////////////////////////////////////////////////////////////////////

func (m *AppModel) headerView() string {
	header := m.headerStyle.Render(" tradecore-tui   ")
	for i, name := range m.pageNames {
		if i == m.currentPage {
			name = "[ " + name + " ]"
			header += m.activeTabStyle.Render(name)
		} else {
			name = "| " + name + " |"
			header += m.inactiveTabStyle.Render(name)
		}
		header += m.headerStyle.Render(" ")
	}

	const bigHeart = "❤"
	headerSuffix := m.headerStyle.Render(bigHeart + "nm ")
	restOfLine := maxInt(0, m.width-lipgloss.Width(header)-lipgloss.Width(headerSuffix))
	header += m.headerStyle.Render(strings.Repeat(" ", restOfLine))
	header += headerSuffix
	return header
}

func (m *AppModel) footerView() string {
	return m.help.View(&m.keyMap)
}
