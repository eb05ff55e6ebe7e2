package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine"
	"github.com/rxtech-lab/argo-equities/internal/logger"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/stretchr/testify/suite"
)

type BacktestStateTestSuite struct {
	suite.Suite
	state *BacktestState
}

func TestBacktestStateSuite(t *testing.T) {
	suite.Run(t, new(BacktestStateTestSuite))
}

func (suite *BacktestStateTestSuite) SetupSuite() {
	var err error

	suite.state, err = NewBacktestState(logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.Require().NoError(suite.state.Initialize())
}

func (suite *BacktestStateTestSuite) TearDownSuite() {
	suite.NoError(suite.state.Close())
}

func (suite *BacktestStateTestSuite) SetupTest() {
	suite.Require().NoError(suite.state.Cleanup())
}

func newOrder(symbol string, side types.PurchaseType, day int) types.Order {
	return types.Order{
		OrderID:       uuid.New().String(),
		Symbol:        symbol,
		Side:          side,
		ExecutionType: types.ExecutionTypeMarket,
		Quantity:      10,
		Status:        types.OrderStatusAccepted,
		CreatedAt:     d(day),
		CreatedPrice:  20,
		Reason:        types.Reason{Reason: types.OrderReasonStrategy, Message: "cross"},
		StrategyName:  "Crossover",
	}
}

func (suite *BacktestStateTestSuite) TestRecordOrderUpserts() {
	first := newOrder("BHP", types.PurchaseTypeBuy, 1)
	second := newOrder("CBA", types.PurchaseTypeSell, 1)

	suite.Require().NoError(suite.state.RecordOrder(first))
	suite.Require().NoError(suite.state.RecordOrder(second))

	first.Status = types.OrderStatusCompleted
	first.ExecutedAt = d(2)
	first.ExecutedPrice = 21
	first.ExecutedValue = 210
	first.Commission = 9.95
	suite.Require().NoError(suite.state.RecordOrder(first))

	orders, err := suite.state.GetOrders()
	suite.Require().NoError(err)
	suite.Require().Len(orders, 2)
	suite.Equal(first.OrderID, orders[0].OrderID, "submission order survives upserts")
	suite.Equal(types.OrderStatusCompleted, orders[0].Status)
	suite.Equal(d(2), orders[0].ExecutedAt)
	suite.Equal(21.0, orders[0].ExecutedPrice)
	suite.Equal(types.PurchaseTypeBuy, orders[0].Side)
	suite.Equal("cross", orders[0].Reason.Message)
	suite.True(orders[1].ExecutedAt.IsZero())

	found, err := suite.state.GetOrderById(second.OrderID)
	suite.Require().NoError(err)
	suite.True(found.IsSome())
	suite.Equal("CBA", found.Unwrap().Symbol)

	missing, err := suite.state.GetOrderById(uuid.New().String())
	suite.Require().NoError(err)
	suite.True(missing.IsNone())
}

func (suite *BacktestStateTestSuite) TestRecordTradeUpserts() {
	trade := types.Trade{
		ID:           uuid.New().String(),
		Symbol:       "BHP",
		Size:         10,
		Price:        20,
		OpenedAt:     d(2),
		ClosedAt:     optional.None[time.Time](),
		Commission:   9.95,
		StrategyName: "Crossover",
	}
	suite.Require().NoError(suite.state.RecordTrade(trade))

	trades, err := suite.state.GetTrades()
	suite.Require().NoError(err)
	suite.Require().Len(trades, 1)
	suite.True(trades[0].IsOpen())

	trade.ClosedAt = optional.Some(d(5))
	trade.ClosePrice = 25
	trade.PnL = 50
	trade.Commission = 19.9
	trade.PnLComm = 30.1
	suite.Require().NoError(suite.state.RecordTrade(trade))

	trades, err = suite.state.GetTrades()
	suite.Require().NoError(err)
	suite.Require().Len(trades, 1)
	suite.True(trades[0].IsClosed())
	suite.Equal(d(5), trades[0].ClosedAt.Unwrap())
	suite.InDelta(30.1, trades[0].PnLComm, 1e-9)
}

func (suite *BacktestStateTestSuite) TestGetStats() {
	values := []float64{10000, 11000, 9900, 12100}
	for i, value := range values {
		suite.Require().NoError(suite.state.RecordEquity(engine.EquityPoint{Date: d(i + 1), Cash: value, Value: value}))
	}

	completed := newOrder("BHP", types.PurchaseTypeBuy, 1)
	completed.Status = types.OrderStatusCompleted
	completed.Commission = 9.95
	suite.Require().NoError(suite.state.RecordOrder(completed))

	margin := newOrder("CBA", types.PurchaseTypeBuy, 1)
	margin.Status = types.OrderStatusMargin
	margin.Commission = 100
	suite.Require().NoError(suite.state.RecordOrder(margin))

	for _, pnl := range []float64{50, -20, 10} {
		suite.Require().NoError(suite.state.RecordTrade(types.Trade{
			ID: uuid.New().String(), Symbol: "BHP", OpenedAt: d(1), ClosedAt: optional.Some(d(3)), PnLComm: pnl,
		}))
	}
	suite.Require().NoError(suite.state.RecordTrade(types.Trade{
		ID: uuid.New().String(), Symbol: "CBA", OpenedAt: d(3), ClosedAt: optional.None[time.Time](), PnLComm: 99,
	}))

	stats, err := suite.state.GetStats(StatsInput{
		RunID:         "run",
		StrategyName:  "Crossover",
		Tickers:       []string{"BHP", "CBA"},
		StartingValue: 10000,
		FinalCash:     12100,
		Exposure:      types.Exposure{LongDays: 3},
	})
	suite.Require().NoError(err)

	suite.Equal("run", stats.ID)
	suite.Equal(d(1), stats.StartDate)
	suite.Equal(d(4), stats.EndDate)
	suite.Equal(12100.0, stats.FinalValue)
	suite.InDelta(21.0, stats.TotalReturn, 1e-9)
	suite.InDelta(10.0, stats.MaxDrawdown, 1e-9)
	suite.InDelta(3/365.25, stats.ElapsedYears, 1e-12)
	suite.Greater(stats.CAGR, 0.0)
	suite.Equal(9.95, stats.TotalFees)
	suite.Equal(3, stats.TradeResult.NumberOfTrades)
	suite.Equal(2, stats.TradeResult.NumberOfWinningTrades)
	suite.Equal(1, stats.TradeResult.NumberOfLosingTrades)
	suite.Equal(2, stats.TradeResult.NumberOfOrders)
	suite.InDelta(2.0/3.0, stats.TradeResult.WinRate, 1e-12)
	suite.Equal(3, stats.Exposure.LongDays)
}

func (suite *BacktestStateTestSuite) TestGetStatsWithoutEquity() {
	stats, err := suite.state.GetStats(StatsInput{StrategyName: "Benchmark", StartingValue: 5000, FinalCash: 5000})
	suite.Require().NoError(err)
	suite.Equal(5000.0, stats.FinalValue)
	suite.Equal(0.0, stats.CAGR)
	suite.Equal(0, stats.TradeResult.NumberOfTrades)
}

func (suite *BacktestStateTestSuite) TestWriteAndCleanup() {
	suite.Require().NoError(suite.state.RecordOrder(newOrder("BHP", types.PurchaseTypeBuy, 1)))
	suite.Require().NoError(suite.state.RecordEquity(engine.EquityPoint{Date: d(1), Cash: 1, Value: 1}))

	dir := filepath.Join(suite.T().TempDir(), "it's here")
	suite.Require().NoError(suite.state.Write(dir))

	for _, file := range []string{OrdersFileName, TradesFileName, EquityFileName} {
		_, err := os.Stat(filepath.Join(dir, file))
		suite.NoError(err, file)
	}

	suite.Require().NoError(suite.state.Cleanup())

	orders, err := suite.state.GetOrders()
	suite.Require().NoError(err)
	suite.Empty(orders)

	equity, err := suite.state.GetEquity()
	suite.Require().NoError(err)
	suite.Empty(equity)
}
