package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/datasource"
)

// Application states.
const (
	StateLoading = iota
	StateTickerSelect
	StateBars
	StateQueryInput
	StateQueryResult
)

// Model is the Bubble Tea model of the price data browser.
type Model struct {
	state      int
	ds         datasource.DataSource
	tickerList list.Model
	barsTable  table.Model
	queryInput textinput.Model
	queryTable table.Model
	symbol     string
	query      string
	err        error
	width      int
	height     int
}

// NewModel creates a browser over ds, which must be initialized.
func NewModel(ds datasource.DataSource) Model {
	return Model{
		state:      StateLoading,
		ds:         ds,
		tickerList: NewTickerList(nil),
		barsTable:  NewBarsTable(),
		queryInput: NewQueryInput(),
		queryTable: QueryTable(nil),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return loadTickers(m.ds)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			// q is text in the query input and in the list filter
			if m.state != StateQueryInput && !m.filtering() {
				return m, tea.Quit
			}
		case "esc":
			if !m.filtering() {
				return m.handleEsc()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.tickerList.SetSize(msg.Width, msg.Height-4)
		m.barsTable.SetWidth(msg.Width)
		m.barsTable.SetHeight(msg.Height - 6)
		m.queryTable.SetWidth(msg.Width)
		m.queryTable.SetHeight(msg.Height - 6)

		return m, nil

	case TickersLoadedMsg:
		m.tickerList = NewTickerList(msg.Tickers)
		if m.width > 0 {
			m.tickerList.SetSize(m.width, m.height-4)
		}

		m.state = StateTickerSelect

		return m, nil

	case BarsLoadedMsg:
		m.symbol = msg.Symbol
		m.barsTable.SetRows(BarRows(msg.Bars))
		m.barsTable.GotoTop()
		m.state = StateBars

		return m, nil

	case QueryResultMsg:
		m.query = msg.Query
		m.queryTable = QueryTable(msg.Rows)
		if m.width > 0 {
			m.queryTable.SetWidth(m.width)
			m.queryTable.SetHeight(m.height - 6)
		}

		m.state = StateQueryResult

		return m, nil

	case ErrorMsg:
		m.err = msg.Err

		return m, nil
	}

	switch m.state {
	case StateTickerSelect:
		return m.updateTickerSelect(msg)
	case StateBars:
		var cmd tea.Cmd
		m.barsTable, cmd = m.barsTable.Update(msg)

		return m, cmd
	case StateQueryInput:
		return m.updateQueryInput(msg)
	case StateQueryResult:
		var cmd tea.Cmd
		m.queryTable, cmd = m.queryTable.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m Model) filtering() bool {
	return m.state == StateTickerSelect && m.tickerList.FilterState() == list.Filtering
}

func (m Model) handleEsc() (tea.Model, tea.Cmd) {
	m.err = nil

	switch m.state {
	case StateBars, StateQueryInput:
		m.queryInput.Blur()
		m.state = StateTickerSelect
	case StateQueryResult:
		m.state = StateQueryInput
		m.queryInput.Focus()

		return m, textinput.Blink
	}

	return m, nil
}

func (m Model) updateTickerSelect(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && !m.filtering() {
		switch key.String() {
		case "enter":
			if item, ok := m.tickerList.SelectedItem().(listItem); ok {
				m.err = nil

				return m, loadBars(m.ds, item.name)
			}
		case "s":
			m.err = nil
			m.state = StateQueryInput
			m.queryInput.Focus()

			return m, textinput.Blink
		}
	}

	var cmd tea.Cmd
	m.tickerList, cmd = m.tickerList.Update(msg)

	return m, cmd
}

func (m Model) updateQueryInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		query := strings.TrimSpace(m.queryInput.Value())
		if query != "" {
			m.err = nil

			return m, runQuery(m.ds, query)
		}
	}

	var cmd tea.Cmd
	m.queryInput, cmd = m.queryInput.Update(msg)

	return m, cmd
}

func loadTickers(ds datasource.DataSource) tea.Cmd {
	return func() tea.Msg {
		symbols, err := ds.Tickers()
		if err != nil {
			return ErrorMsg{Err: err}
		}

		tickers := make([]TickerSummary, 0, len(symbols))

		for _, symbol := range symbols {
			first, last, err := ds.DateRange(optional.Some(symbol))
			if err != nil {
				return ErrorMsg{Err: err}
			}

			rows, err := ds.Count(symbol, optional.None[time.Time](), optional.None[time.Time]())
			if err != nil {
				return ErrorMsg{Err: err}
			}

			tickers = append(tickers, TickerSummary{Symbol: symbol, First: first, Last: last, Rows: rows})
		}

		return TickersLoadedMsg{Tickers: tickers}
	}
}

func loadBars(ds datasource.DataSource, symbol string) tea.Cmd {
	return func() tea.Msg {
		bars, err := ds.ReadTicker(symbol, optional.None[time.Time](), optional.None[time.Time]())
		if err != nil {
			return ErrorMsg{Err: err}
		}

		return BarsLoadedMsg{Symbol: symbol, Bars: bars}
	}
}

func runQuery(ds datasource.DataSource, query string) tea.Cmd {
	return func() tea.Msg {
		rows, err := ds.ExecuteSQL(query)
		if err != nil {
			return ErrorMsg{Err: err}
		}

		return QueryResultMsg{Query: query, Rows: rows}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	switch m.state {
	case StateLoading:
		s.WriteString(TitleStyle.Render("Argo Equities - Price Data"))
		s.WriteString("\n\nLoading tickers...\n")

	case StateTickerSelect:
		s.WriteString(m.tickerList.View())
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("Enter: show bars | /: filter | s: SQL query | q: quit"))

	case StateBars:
		s.WriteString(TitleStyle.Render(fmt.Sprintf("Daily Bars - %s", m.symbol)))
		s.WriteString("\n\n")
		s.WriteString(m.barsTable.View())
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render(fmt.Sprintf("%d bars | Esc: back | q: quit", len(m.barsTable.Rows()))))

	case StateQueryInput:
		s.WriteString(TitleStyle.Render("SQL Query"))
		s.WriteString("\n\n")
		s.WriteString("Query the market_data table (date, ticker, open, high, low, close, adjusted_close, volume):\n\n")
		s.WriteString(m.queryInput.View())
		s.WriteString("\n\n")
		s.WriteString(HelpStyle.Render("Enter: run | Esc: back"))

	case StateQueryResult:
		s.WriteString(TitleStyle.Render("Query Result"))
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render(m.query))
		s.WriteString("\n\n")
		s.WriteString(m.queryTable.View())
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render(fmt.Sprintf("%d rows | Esc: edit query | q: quit", len(m.queryTable.Rows()))))
	}

	if m.err != nil {
		s.WriteString("\n\n")
		s.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	return s.String()
}
