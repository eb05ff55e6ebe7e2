package main

import (
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-equities/internal/types"
)

// TickersLoadedMsg carries every ticker in the data with its date span.
type TickersLoadedMsg struct {
	Tickers []TickerSummary
}

// BarsLoadedMsg carries the daily bars of one ticker.
type BarsLoadedMsg struct {
	Symbol string
	Bars   []types.MarketData
}

// QueryResultMsg carries the rows of a SQL query.
type QueryResultMsg struct {
	Query string
	Rows  []datasource.SQLResult
}

// ErrorMsg reports a failed load or query.
type ErrorMsg struct {
	Err error
}
