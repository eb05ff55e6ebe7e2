package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-equities/internal/types"
)

// TickerSummary is one entry of the ticker list.
type TickerSummary struct {
	Symbol string
	First  time.Time
	Last   time.Time
	Rows   int
}

// listItem implements list.Item for the ticker list.
type listItem struct {
	name        string
	description string
}

func (i listItem) Title() string       { return i.name }
func (i listItem) Description() string { return i.description }
func (i listItem) FilterValue() string { return i.name }

// NewTickerList creates the list of tickers. Typing / filters it.
func NewTickerList(tickers []TickerSummary) list.Model {
	items := make([]list.Item, len(tickers))
	for i, ticker := range tickers {
		items[i] = listItem{
			name: ticker.Symbol,
			description: fmt.Sprintf("%s to %s, %d bars",
				ticker.First.Format(time.DateOnly), ticker.Last.Format(time.DateOnly), ticker.Rows),
		}
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true

	l := list.New(items, delegate, 0, 0)
	l.Title = "Select Ticker"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)

	return l
}

// NewQueryInput creates the text input for SQL queries.
func NewQueryInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "SELECT ticker, COUNT(*) AS rows FROM market_data GROUP BY ticker"
	ti.CharLimit = 500
	ti.Width = 70
	ti.Prompt = "> "

	return ti
}

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return t
}

// NewBarsTable creates the table of daily bars.
func NewBarsTable() table.Model {
	return newTable([]table.Column{
		{Title: "Date", Width: 12},
		{Title: "Close", Width: 16},
		{Title: "Open", Width: 12},
		{Title: "High", Width: 12},
		{Title: "Low", Width: 12},
		{Title: "Adj Close", Width: 12},
		{Title: "Volume", Width: 14},
	})
}

// BarRows builds the table rows for bars, newest first.
func BarRows(bars []types.MarketData) []table.Row {
	rows := make([]table.Row, 0, len(bars))

	for i := len(bars) - 1; i >= 0; i-- {
		bar := bars[i]

		previous := 0.0
		if i > 0 {
			previous = bars[i-1].Close
		}

		adjusted := "-"
		if bar.AdjustedClose.IsSome() {
			adjusted = fmt.Sprintf("%.4f", bar.AdjustedClose.Unwrap())
		}

		rows = append(rows, table.Row{
			bar.Time.Format(time.DateOnly),
			FormatCloseWithChange(bar.Close, previous),
			fmt.Sprintf("%.4f", bar.Open),
			fmt.Sprintf("%.4f", bar.High),
			fmt.Sprintf("%.4f", bar.Low),
			adjusted,
			fmt.Sprintf("%.0f", bar.Volume),
		})
	}

	return rows
}

// QueryTable builds a table whose columns are the sorted keys of the result rows.
func QueryTable(results []datasource.SQLResult) table.Model {
	keys := map[string]struct{}{}
	for _, result := range results {
		for key := range result.Values {
			keys[key] = struct{}{}
		}
	}

	names := make([]string, 0, len(keys))
	for key := range keys {
		names = append(names, key)
	}

	sort.Strings(names)

	columns := make([]table.Column, len(names))
	for i, name := range names {
		columns[i] = table.Column{Title: name, Width: max(len(name), 12)}
	}

	rows := make([]table.Row, len(results))
	for i, result := range results {
		row := make(table.Row, len(names))
		for j, name := range names {
			row[j] = formatValue(result.Values[name])
		}

		rows[i] = row
	}

	t := newTable(columns)
	t.SetRows(rows)

	return t
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		return v.Format(time.DateOnly)
	case float64:
		return fmt.Sprintf("%.4f", v)
	default:
		return fmt.Sprint(v)
	}
}
