package strategy

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-equities/internal/backtest/engine"
	v1 "github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-equities/internal/config"
	"github.com/rxtech-lab/argo-equities/internal/indicator"
	eventlog "github.com/rxtech-lab/argo-equities/internal/log"
	"github.com/rxtech-lab/argo-equities/internal/logger"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

func day(n int) time.Time {
	return time.Date(2024, time.January, n, 0, 0, 0, 0, time.UTC)
}

type ohlcv struct {
	open, high, low, close, volume float64
}

// series builds one daily bar per row starting on the first of January 2024.
func series(symbol string, rows ...ohlcv) []types.MarketData {
	bars := make([]types.MarketData, len(rows))
	for i, row := range rows {
		bars[i] = types.MarketData{
			Symbol: symbol,
			Time:   day(i + 1),
			Open:   row.open,
			High:   row.high,
			Low:    row.low,
			Close:  row.close,
			Volume: row.volume,
		}
	}

	return bars
}

// flat builds bars that open at the close with a one point range.
func flat(symbol string, closes ...float64) []types.MarketData {
	rows := make([]ohlcv, len(closes))
	for i, c := range closes {
		rows[i] = ohlcv{open: c, high: c + 1, low: c - 1, close: c, volume: 1000}
	}

	return series(symbol, rows...)
}

// stubIndicator returns a fixed line chosen by its first integer parameter.
type stubIndicator struct {
	name  types.IndicatorType
	lines map[int]indicator.Line
	key   int
}

func (s *stubIndicator) Name() types.IndicatorType {
	return s.name
}

func (s *stubIndicator) Config(params ...any) error {
	if len(params) > 0 {
		if key, ok := params[0].(int); ok {
			s.key = key
		}
	}

	return nil
}

func (s *stubIndicator) Compute(_ []types.MarketData) (indicator.Line, error) {
	line, ok := s.lines[s.key]
	if !ok {
		return nil, fmt.Errorf("no line for %s(%d)", s.name, s.key)
	}

	return line, nil
}

func (s *stubIndicator) MinPeriod() int {
	return 1
}

func stubRegistry(t *testing.T, lines map[types.IndicatorType]map[int]indicator.Line) indicator.IndicatorRegistry {
	t.Helper()

	registry := indicator.NewIndicatorRegistry()
	for name, byKey := range lines {
		err := registry.RegisterIndicator(name, func() indicator.Indicator {
			return &stubIndicator{name: name, lines: byKey}
		})
		require.NoError(t, err)
	}

	return registry
}

// recordingLog keeps the strategy decisions and order statuses it is given.
type recordingLog struct {
	days       []time.Time
	orders     []types.OrderStatus
	// openOrders is the open order count written with each order row.
	openOrders []int
	trades     []types.Trade
	notes      []string
}

func (r *recordingLog) Daily(date time.Time, _ float64, _ float64, _ eventlog.Counts) error {
	r.days = append(r.days, date)

	return nil
}

func (r *recordingLog) Order(_ time.Time, order types.Order, _ float64, _ float64, counts eventlog.Counts) error {
	r.orders = append(r.orders, order.Status)
	r.openOrders = append(r.openOrders, counts.OpenOrders)

	return nil
}

func (r *recordingLog) Trade(_ time.Time, trade types.Trade, _ eventlog.Counts) error {
	r.trades = append(r.trades, trade)

	return nil
}

func (r *recordingLog) Strategy(_ time.Time, _ string, details string, _ eventlog.Counts) error {
	r.notes = append(r.notes, details)

	return nil
}

func (r *recordingLog) Close() error {
	return nil
}

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.GlobalOptions.PositionLimit = 5

	return cfg
}

// runStrategy backtests s over feeds with 10000 of cash, zero commission and 10% positions.
func runStrategy(t *testing.T, s Strategy, cheatOnClose bool, feeds ...[]types.MarketData) engine.RunResult {
	t.Helper()

	result, err := run(t, s, cheatOnClose, feeds...)
	require.NoError(t, err)

	return result
}

func runStrategyErr(t *testing.T, s Strategy, feeds ...[]types.MarketData) (engine.RunResult, error) {
	t.Helper()

	return run(t, s, false, feeds...)
}

func run(t *testing.T, s Strategy, cheatOnClose bool, feeds ...[]types.MarketData) (engine.RunResult, error) {
	t.Helper()

	return runWith(t, s, engine.Config{
		InitialCapital: 10000,
		Broker:         commission_fee.BrokerZero,
		PositionSize:   10,
		CheatOnClose:   cheatOnClose,
	}, feeds...)
}

// runWith runs s on an engine set up with cfg.
func runWith(t *testing.T, s Strategy, cfg engine.Config, feeds ...[]types.MarketData) (engine.RunResult, error) {
	t.Helper()

	eng := v1.NewBacktestEngineV1(logger.NewNopLogger())
	defer eng.Close()

	require.NoError(t, eng.Initialize(cfg))

	for _, bars := range feeds {
		require.NoError(t, eng.AddFeed(bars[0].Symbol, bars))
	}

	require.NoError(t, eng.LoadStrategy(s))

	return eng.Run(context.Background(), engine.LifecycleCallbacks{})
}

func completed(orders []types.Order) []types.Order {
	var out []types.Order

	for _, order := range orders {
		if order.Status == types.OrderStatusCompleted {
			out = append(out, order)
		}
	}

	return out
}
