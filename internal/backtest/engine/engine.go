package engine

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-equities/internal/logger"
	"github.com/rxtech-lab/argo-equities/internal/marker"
	"github.com/rxtech-lab/argo-equities/internal/types"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnRunStartCallback is called before the first bar.
// runID is a unique identifier for this run, generated before processing starts.
type OnRunStartCallback func(runID string, strategyName string, totalFeeds int, totalBars int) error

// OnRunEndCallback is called when a run ends (always called via defer).
// resultFolderPath is empty when no results were written.
type OnRunEndCallback func(runID string, strategyName string, resultFolderPath string, err error)

// OnProcessDataCallback is called after each calendar date is processed.
type OnProcessDataCallback func(current int, total int) error

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart    *OnRunStartCallback
	OnRunEnd      *OnRunEndCallback
	OnProcessData *OnProcessDataCallback
}

// Config configures one engine run.
type Config struct {
	InitialCapital     float64
	Broker             commission_fee.Broker
	CommissionPerShare float64
	// PositionSize is the percent of starting cash staked by orders without an explicit size.
	PositionSize float64
	// CheatOnClose fills market orders at the close of the bar they were created on.
	CheatOnClose bool
	// StartTime and EndTime bound the bars loaded through AddTicker, exclusively.
	StartTime optional.Option[time.Time]
	EndTime   optional.Option[time.Time]
	// ShowProgress draws a progress bar on stderr while the run walks its calendar.
	ShowProgress bool
}

// Broker is the simulated account a strategy trades through.
//
//nolint:interfacebloat // the broker mirrors the account operations a strategy needs
type Broker interface {
	// Cash is the uninvested cash.
	Cash() float64
	// Value is cash plus the market value of every position at the latest close.
	Value() float64
	// StartingCash is the cash the run started with.
	StartingCash() float64
	// Position returns the position in symbol, which is flat when none is held.
	Position(symbol string) types.Position
	// Positions returns every non-flat position.
	Positions() []types.Position
	// Buy submits a buy order. A None size is decided by the sizer.
	Buy(symbol string, size optional.Option[float64], execution types.ExecutionType, reason types.Reason) (types.Order, error)
	// Sell submits a sell order. A None size is decided by the sizer.
	Sell(symbol string, size optional.Option[float64], execution types.ExecutionType, reason types.Reason) (types.Order, error)
	// Close submits the order that flattens symbol. None is returned when the position is already flat.
	Close(symbol string, execution types.ExecutionType, reason types.Reason) (optional.Option[types.Order], error)
	// OpenOrders returns the orders that have not been filled, rejected or cancelled.
	OpenOrders() []types.Order
	// Commission returns the commission scheme of the account.
	Commission() commission_fee.CommissionFee
}

// RuntimeContext is what a strategy is handed before the run starts.
type RuntimeContext struct {
	Broker Broker
	Feeds  []*Feed
	Marker marker.Marker
	Logger *logger.Logger
}

// Strategy is driven by the engine once per calendar date.
//
// Before every feed holds MinPeriod bars PreNext is called, then NextStart once,
// then Next for the remaining dates. Order and trade notifications raised since the
// previous date are delivered before the bar callback.
type Strategy interface {
	Name() string
	// Initialize computes indicators over the feeds in ctx.
	Initialize(ctx RuntimeContext) error
	// MinPeriod is the number of bars every feed needs before Next is called.
	MinPeriod() int
	PreNext(date time.Time) error
	NextStart(date time.Time) error
	Next(date time.Time) error
	NotifyOrder(order types.Order) error
	NotifyTrade(trade types.Trade) error
	// Stop is called after the last date.
	Stop() error
}

// EquityPoint is the account state after a calendar date.
type EquityPoint struct {
	Date      time.Time
	Cash      float64
	Value     float64
	Positions int
}

// RunResult is the outcome of Engine.Run.
type RunResult struct {
	RunID        string
	StrategyName string
	Stats        types.BacktestStats
	Orders       []types.Order
	Trades       []types.Trade
	Equity       []EquityPoint
	// ResultFolder is empty when no results folder was set.
	ResultFolder string
}

//nolint:interfacebloat // Engine is a core interface that naturally requires multiple methods
type Engine interface {
	// Initialize the engine with the given configuration.
	Initialize(config Config) error
	// SetDataSource sets the data source AddTicker reads from.
	SetDataSource(dataSource datasource.DataSource) error
	// SetResultsFolder sets the output directory for saving backtest results. An empty folder disables writing.
	SetResultsFolder(folder string) error
	// AddFeed adds a feed over bars, which must be sorted by date.
	AddFeed(symbol string, bars []types.MarketData) error
	// AddTicker reads the bars of symbol inside the configured time range from the data source and adds them as a feed.
	AddTicker(symbol string) error
	// LoadStrategy sets the strategy to run.
	LoadStrategy(strategy Strategy) error
	// Run walks the calendar of all feeds and executes the strategy.
	// The context can be used to cancel the backtest operation.
	Run(ctx context.Context, callbacks LifecycleCallbacks) (RunResult, error)
	// Close releases the run journal.
	Close() error
}
