package main

import (
	"bytes"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/mocks"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func testBars() []types.MarketData {
	return []types.MarketData{
		{Symbol: "BHP", Time: day(2), Open: 40, High: 41, Low: 39, Close: 40.5, Volume: 1000, AdjustedClose: optional.None[float64]()},
		{Symbol: "BHP", Time: day(3), Open: 40.5, High: 42, Low: 40, Close: 41.5, Volume: 1200, AdjustedClose: optional.Some(41.0)},
		{Symbol: "BHP", Time: day(4), Open: 41.5, High: 42, Low: 40, Close: 40.25, Volume: 900, AdjustedClose: optional.None[float64]()},
	}
}

func expectTickers(ds *mocks.MockDataSource) {
	ds.EXPECT().Tickers().Return([]string{"BHP", "CBA"}, nil)
	ds.EXPECT().DateRange(optional.Some("BHP")).Return(day(2), day(4), nil)
	ds.EXPECT().DateRange(optional.Some("CBA")).Return(day(1), day(5), nil)
	ds.EXPECT().Count(gomock.Any(), gomock.Any(), gomock.Any()).Return(3, nil).Times(2)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()

	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)

	return model, cmd
}

func TestNewModel(t *testing.T) {
	m := NewModel(nil)

	assert.Equal(t, StateLoading, m.state)
	assert.Empty(t, m.symbol)
	assert.Contains(t, m.View(), "Loading tickers...")
}

func TestLoadTickers(t *testing.T) {
	ctrl := gomock.NewController(t)
	ds := mocks.NewMockDataSource(ctrl)
	expectTickers(ds)

	msg := NewModel(ds).Init()()

	loaded, ok := msg.(TickersLoadedMsg)
	require.True(t, ok)
	assert.Equal(t, []TickerSummary{
		{Symbol: "BHP", First: day(2), Last: day(4), Rows: 3},
		{Symbol: "CBA", First: day(1), Last: day(5), Rows: 3},
	}, loaded.Tickers)
}

func TestLoadTickersError(t *testing.T) {
	ctrl := gomock.NewController(t)
	ds := mocks.NewMockDataSource(ctrl)
	ds.EXPECT().Tickers().Return(nil, errors.New(errors.ErrCodeQueryFailed, "boom"))

	m := NewModel(ds)
	m, _ = update(t, m, m.Init()())

	assert.Equal(t, StateLoading, m.state)
	assert.Contains(t, m.View(), "Error: [202] boom")
}

func TestSelectTickerShowsBars(t *testing.T) {
	ctrl := gomock.NewController(t)
	ds := mocks.NewMockDataSource(ctrl)
	ds.EXPECT().ReadTicker("BHP", optional.None[time.Time](), optional.None[time.Time]()).Return(testBars(), nil)

	m := NewModel(ds)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	m, _ = update(t, m, TickersLoadedMsg{Tickers: []TickerSummary{{Symbol: "BHP", First: day(2), Last: day(4), Rows: 3}}})
	require.Equal(t, StateTickerSelect, m.state)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	m, _ = update(t, m, cmd())
	assert.Equal(t, StateBars, m.state)
	assert.Equal(t, "BHP", m.symbol)

	rows := m.barsTable.Rows()
	require.Len(t, rows, 3)
	// newest first
	assert.Equal(t, "2024-01-04", rows[0][0])
	assert.Equal(t, "40.2500 ▼", rows[0][1])
	assert.Equal(t, "41.0000", rows[1][5])
	assert.Equal(t, "40.5000", rows[2][1])
	assert.Equal(t, "-", rows[2][5])

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, StateTickerSelect, m.state)
}

func TestQueryFlow(t *testing.T) {
	ctrl := gomock.NewController(t)
	ds := mocks.NewMockDataSource(ctrl)
	ds.EXPECT().ExecuteSQL("SELECT 1 AS one").Return([]datasource.SQLResult{{Values: map[string]any{"one": int32(1)}}}, nil)

	m := NewModel(ds)
	m, _ = update(t, m, TickersLoadedMsg{})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	require.Equal(t, StateQueryInput, m.state)

	m.queryInput.SetValue("SELECT 1 AS one")

	// q is text while typing a query
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.Equal(t, StateQueryInput, m.state)
	assert.Equal(t, "SELECT 1 AS oneq", m.queryInput.Value())

	m.queryInput.SetValue("SELECT 1 AS one")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	m, _ = update(t, m, cmd())
	assert.Equal(t, StateQueryResult, m.state)
	require.Len(t, m.queryTable.Rows(), 1)
	assert.Equal(t, "1", m.queryTable.Rows()[0][0])
	assert.Contains(t, m.View(), "SELECT 1 AS one")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, StateQueryInput, m.state)
}

func TestQueryTableColumns(t *testing.T) {
	table := QueryTable([]datasource.SQLResult{
		{Values: map[string]any{"ticker": "BHP", "close": 40.5, "date": day(2)}},
		{Values: map[string]any{"ticker": "CBA", "close": nil}},
	})

	columns := table.Columns()
	require.Len(t, columns, 3)
	assert.Equal(t, "close", columns[0].Title)
	assert.Equal(t, "date", columns[1].Title)
	assert.Equal(t, "ticker", columns[2].Title)

	rows := table.Rows()
	assert.Equal(t, []string{"40.5000", "2024-01-02", "BHP"}, []string(rows[0]))
	assert.Equal(t, []string{"", "", "CBA"}, []string(rows[1]))
}

func TestFormatCloseWithChange(t *testing.T) {
	assert.Equal(t, "10.0000", FormatCloseWithChange(10, 0))
	assert.Equal(t, "10.0000 ▲", FormatCloseWithChange(10, 9))
	assert.Equal(t, "10.0000 ▼", FormatCloseWithChange(10, 11))
	assert.Equal(t, "10.0000", FormatCloseWithChange(10, 10))
}

func TestBrowseTickers(t *testing.T) {
	ctrl := gomock.NewController(t)
	ds := mocks.NewMockDataSource(ctrl)
	expectTickers(ds)
	ds.EXPECT().ReadTicker("BHP", gomock.Any(), gomock.Any()).Return(testBars(), nil)

	tm := teatest.NewTestModel(t, NewModel(ds), teatest.WithInitialTermSize(120, 30))

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("CBA"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Daily Bars - BHP"))
	}, teatest.WithDuration(2*time.Second))

	assert.NoError(t, tm.Quit())
}
