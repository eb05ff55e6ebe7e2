package engine

import (
	"testing"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/sizer"
	"github.com/rxtech-lab/argo-equities/internal/logger"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// BacktestTradingTestSuite is a test suite for BacktestTrading
type BacktestTradingTestSuite struct {
	suite.Suite
	logger *logger.Logger
	state  *BacktestState
	marker *BacktestMarker
	feed   *engine.Feed
}

func TestBacktestTradingSuite(t *testing.T) {
	suite.Run(t, new(BacktestTradingTestSuite))
}

func (suite *BacktestTradingTestSuite) SetupSuite() {
	suite.logger = logger.NewNopLogger()

	var err error

	suite.state, err = NewBacktestState(suite.logger)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.state.Initialize())

	suite.marker, err = NewBacktestMarker(suite.logger)
	suite.Require().NoError(err)
}

func (suite *BacktestTradingTestSuite) TearDownSuite() {
	suite.NoError(suite.state.Close())
	suite.NoError(suite.marker.Close())
}

func (suite *BacktestTradingTestSuite) SetupTest() {
	suite.Require().NoError(suite.state.Cleanup())
	suite.Require().NoError(suite.marker.Cleanup())

	suite.feed = engine.NewFeed("BHP", []types.MarketData{
		bar("BHP", 1, 10, 11),
		bar("BHP", 2, 12, 13),
		bar("BHP", 3, 15, 16),
		bar("BHP", 4, 14, 14),
	})
}

func (suite *BacktestTradingTestSuite) newBroker(cash float64, commission commission_fee.CommissionFee, cheatOnClose bool) *BacktestTrading {
	broker := NewBacktestTrading(suite.state, suite.marker, commission, sizer.NewFixedSizer(10), cash, cheatOnClose, suite.logger)
	broker.SetFeeds([]*engine.Feed{suite.feed})
	broker.SetStrategyName("Test")

	return broker
}

// advance moves the feed to day and fills pending orders the way the engine does.
func (suite *BacktestTradingTestSuite) advance(broker *BacktestTrading, day int) []Notification {
	suite.feed.Advance(d(day))
	suite.Require().NoError(broker.ProcessPendingOrders(d(day)))

	return broker.PopNotifications()
}

func reason() types.Reason {
	return types.Reason{Reason: types.OrderReasonStrategy, Message: "test"}
}

func (suite *BacktestTradingTestSuite) TestMarketOrderFillsAtNextOpen() {
	broker := suite.newBroker(10000, commission_fee.NewZeroCommissionFee(), false)
	suite.advance(broker, 1)

	order, err := broker.Buy("BHP", optional.Some(10.0), types.ExecutionTypeMarket, reason())
	suite.Require().NoError(err)
	suite.Equal(types.OrderStatusAccepted, order.Status)
	suite.Equal(11.0, order.CreatedPrice)
	suite.Equal(d(1), order.CreatedAt)
	suite.Len(broker.OpenOrders(), 1)
	suite.Equal([]types.OrderStatus{types.OrderStatusSubmitted, types.OrderStatusAccepted}, orderStatuses(broker.PopNotifications()))

	notifications := suite.advance(broker, 2)
	suite.Equal([]types.OrderStatus{types.OrderStatusCompleted}, orderStatuses(notifications))
	suite.True(notifications[0].Order.IsSome(), "order notifications come before trade notifications")

	completed := notifications[0].Order.Unwrap()
	suite.Equal(12.0, completed.ExecutedPrice)
	suite.Equal(120.0, completed.ExecutedValue)
	suite.Equal(d(2), completed.ExecutedAt)

	opened := trades(notifications)
	suite.Require().Len(opened, 1)
	suite.True(opened[0].IsOpen())
	suite.Equal(10.0, opened[0].Size)

	suite.Empty(broker.OpenOrders())
	suite.InDelta(9880.0, broker.Cash(), 1e-9)
	suite.InDelta(9880.0+10*13, broker.Value(), 1e-9)

	position := broker.Position("BHP")
	suite.Equal(10.0, position.Size)
	suite.Equal(12.0, position.Price)
	suite.Equal(d(2), position.OpenTimestamp)

	marks, err := suite.marker.GetMarks()
	suite.Require().NoError(err)
	suite.Require().Len(marks, 1)
	suite.Equal(types.MarkColorGreen, marks[0].Color)
	suite.Equal(12.0, marks[0].Price)
}

func (suite *BacktestTradingTestSuite) TestCheatOnCloseFillsAtCreationClose() {
	broker := suite.newBroker(10000, commission_fee.NewZeroCommissionFee(), true)
	suite.advance(broker, 1)

	_, err := broker.Buy("BHP", optional.Some(10.0), types.ExecutionTypeMarket, reason())
	suite.Require().NoError(err)

	notifications := suite.advance(broker, 2)
	suite.Equal(11.0, notifications[len(notifications)-2].Order.Unwrap().ExecutedPrice)
	suite.InDelta(9890.0, broker.Cash(), 1e-9)
}

func (suite *BacktestTradingTestSuite) TestCloseExecutionFillsAtCreationClose() {
	broker := suite.newBroker(10000, commission_fee.NewZeroCommissionFee(), false)
	suite.advance(broker, 1)

	_, err := broker.Buy("BHP", optional.Some(10.0), types.ExecutionTypeClose, reason())
	suite.Require().NoError(err)
	suite.advance(broker, 2)

	suite.Equal(11.0, broker.Position("BHP").Price)
}

func (suite *BacktestTradingTestSuite) TestZeroSizeIsRejected() {
	broker := suite.newBroker(10000, commission_fee.NewZeroCommissionFee(), false)
	suite.advance(broker, 1)

	order, err := broker.Buy("BHP", optional.Some(0.0), types.ExecutionTypeMarket, reason())
	suite.Require().NoError(err)
	suite.Equal(types.OrderStatusRejected, order.Status)
	suite.Equal(types.OrderReasonInvalidQuantity, order.Reason.Reason)
	suite.Empty(broker.OpenOrders())
	suite.Equal([]types.OrderStatus{types.OrderStatusSubmitted, types.OrderStatusRejected}, orderStatuses(broker.PopNotifications()))

	orders, err := suite.state.GetOrders()
	suite.Require().NoError(err)
	suite.Require().Len(orders, 1)
	suite.Equal(types.OrderStatusRejected, orders[0].Status)
}

func (suite *BacktestTradingTestSuite) TestNegativeSizeIsAnError() {
	broker := suite.newBroker(10000, commission_fee.NewZeroCommissionFee(), false)
	suite.advance(broker, 1)

	_, err := broker.Sell("BHP", optional.Some(-5.0), types.ExecutionTypeMarket, reason())
	suite.Error(err)
	suite.Equal(errors.ErrCodeInvalidOrder, errors.GetCode(err))
}

func (suite *BacktestTradingTestSuite) TestOrderErrors() {
	broker := suite.newBroker(10000, commission_fee.NewZeroCommissionFee(), false)

	_, err := broker.Buy("BHP", optional.None[float64](), types.ExecutionTypeMarket, reason())
	suite.Equal(errors.ErrCodeMarketDataMissing, errors.GetCode(err))

	suite.advance(broker, 1)

	_, err = broker.Buy("CBA", optional.None[float64](), types.ExecutionTypeMarket, reason())
	suite.Equal(errors.ErrCodeFeedNotFound, errors.GetCode(err))
}

func (suite *BacktestTradingTestSuite) TestSizerDecidesMissingSize() {
	broker := suite.newBroker(10000, commission_fee.NewZeroCommissionFee(), false)
	suite.advance(broker, 1)

	order, err := broker.Buy("BHP", optional.None[float64](), types.ExecutionTypeMarket, reason())
	suite.Require().NoError(err)
	suite.Equal(10.0, order.Quantity)
}

func (suite *BacktestTradingTestSuite) TestBuyBeyondCashIsMargin() {
	broker := suite.newBroker(1000, commission_fee.NewZeroCommissionFee(), false)
	suite.advance(broker, 1)

	_, err := broker.Buy("BHP", optional.Some(100.0), types.ExecutionTypeMarket, reason())
	suite.Require().NoError(err)
	broker.PopNotifications()

	notifications := suite.advance(broker, 2)
	suite.Equal([]types.OrderStatus{types.OrderStatusMargin}, orderStatuses(notifications))
	suite.Empty(trades(notifications))
	suite.Empty(broker.OpenOrders())
	suite.Equal(1000.0, broker.Cash())
	suite.True(broker.Position("BHP").IsFlat())
}

func (suite *BacktestTradingTestSuite) TestShortBeyondCollateralIsMargin() {
	broker := suite.newBroker(1000, commission_fee.NewZeroCommissionFee(), false)
	suite.advance(broker, 1)

	_, err := broker.Sell("BHP", optional.Some(100.0), types.ExecutionTypeMarket, reason())
	suite.Require().NoError(err)

	notifications := suite.advance(broker, 2)
	suite.Contains(orderStatuses(notifications), types.OrderStatusMargin)
}

func (suite *BacktestTradingTestSuite) TestShortCreditsCash() {
	broker := suite.newBroker(1000, commission_fee.NewZeroCommissionFee(), false)
	suite.advance(broker, 1)

	_, err := broker.Sell("BHP", optional.Some(50.0), types.ExecutionTypeMarket, reason())
	suite.Require().NoError(err)
	suite.advance(broker, 2)

	suite.Equal(-50.0, broker.Position("BHP").Size)
	suite.InDelta(1600.0, broker.Cash(), 1e-9)
	suite.InDelta(1600.0-50*13, broker.Value(), 1e-9)
}

func (suite *BacktestTradingTestSuite) TestRoundTripWithCommission() {
	broker := suite.newBroker(10000, commission_fee.NewFixedPerShareCommissionFee(1), false)
	suite.advance(broker, 1)

	_, err := broker.Buy("BHP", optional.Some(10.0), types.ExecutionTypeMarket, reason())
	suite.Require().NoError(err)
	suite.advance(broker, 2)

	closeOrder, err := broker.Close("BHP", types.ExecutionTypeMarket, types.Reason{Reason: types.OrderReasonClose})
	suite.Require().NoError(err)
	suite.True(closeOrder.IsSome())
	suite.Equal(types.PurchaseTypeSell, closeOrder.Unwrap().Side)

	notifications := suite.advance(broker, 3)
	closed := trades(notifications)
	suite.Require().Len(closed, 1)
	suite.True(closed[0].IsClosed())
	suite.Equal(d(3), closed[0].ClosedAt.Unwrap())
	suite.Equal(15.0, closed[0].ClosePrice)
	suite.InDelta(30.0, closed[0].PnL, 1e-9)
	suite.InDelta(20.0, closed[0].Commission, 1e-9)
	suite.InDelta(10.0, closed[0].PnLComm, 1e-9)
	suite.Equal(10.0, closed[0].Size)

	suite.InDelta(10010.0, broker.Cash(), 1e-9)
	suite.True(broker.Position("BHP").IsFlat())
	suite.Equal(0.0, broker.Position("BHP").Price)
	suite.Empty(broker.Positions())

	journal, err := suite.state.GetTrades()
	suite.Require().NoError(err)
	suite.Require().Len(journal, 1)
	suite.InDelta(10.0, journal[0].PnLComm, 1e-9)

	flat, err := broker.Close("BHP", types.ExecutionTypeMarket, reason())
	suite.Require().NoError(err)
	suite.True(flat.IsNone())
}

func (suite *BacktestTradingTestSuite) TestAveragingIntoPosition() {
	broker := suite.newBroker(10000, commission_fee.NewZeroCommissionFee(), false)
	suite.advance(broker, 1)

	_, err := broker.Buy("BHP", optional.Some(10.0), types.ExecutionTypeMarket, reason())
	suite.Require().NoError(err)
	suite.advance(broker, 2)

	_, err = broker.Buy("BHP", optional.Some(10.0), types.ExecutionTypeMarket, reason())
	suite.Require().NoError(err)
	suite.advance(broker, 3)

	position := broker.Position("BHP")
	suite.Equal(20.0, position.Size)
	suite.InDelta(13.5, position.Price, 1e-9)
	suite.Equal(d(2), position.OpenTimestamp)

	journal, err := suite.state.GetTrades()
	suite.Require().NoError(err)
	suite.Require().Len(journal, 1)
	suite.Equal(20.0, journal[0].Size)
}

func (suite *BacktestTradingTestSuite) TestReversalSplitsTrade() {
	broker := suite.newBroker(10000, commission_fee.NewFixedPerShareCommissionFee(1), false)
	suite.advance(broker, 1)

	_, err := broker.Buy("BHP", optional.Some(10.0), types.ExecutionTypeMarket, reason())
	suite.Require().NoError(err)
	suite.advance(broker, 2)

	_, err = broker.Sell("BHP", optional.Some(20.0), types.ExecutionTypeMarket, reason())
	suite.Require().NoError(err)

	notifications := suite.advance(broker, 3)
	updates := trades(notifications)
	suite.Require().Len(updates, 2)

	closed, opened := updates[0], updates[1]
	suite.True(closed.IsClosed())
	suite.InDelta(30.0, closed.PnL, 1e-9)
	suite.InDelta(20.0, closed.Commission, 1e-9)
	suite.InDelta(10.0, closed.PnLComm, 1e-9)

	suite.True(opened.IsOpen())
	suite.Equal(-10.0, opened.Size)
	suite.Equal(15.0, opened.Price)
	suite.InDelta(10.0, opened.Commission, 1e-9)

	position := broker.Position("BHP")
	suite.Equal(-10.0, position.Size)
	suite.Equal(15.0, position.Price)
	suite.Equal(d(3), position.OpenTimestamp)
	suite.InDelta(10150.0, broker.Cash(), 1e-9)
	suite.InDelta(10150.0-10*16, broker.Value(), 1e-9)
}

func (suite *BacktestTradingTestSuite) TestPendingOrderWaitsForFreshBar() {
	other := engine.NewFeed("CBA", []types.MarketData{bar("CBA", 1, 50, 50), bar("CBA", 3, 52, 53)})
	broker := suite.newBroker(10000, commission_fee.NewZeroCommissionFee(), false)
	broker.SetFeeds([]*engine.Feed{suite.feed, other})

	suite.feed.Advance(d(1))
	other.Advance(d(1))

	_, err := broker.Buy("CBA", optional.Some(1.0), types.ExecutionTypeMarket, reason())
	suite.Require().NoError(err)
	broker.PopNotifications()

	suite.feed.Advance(d(2))
	other.Advance(d(2))
	suite.Require().NoError(broker.ProcessPendingOrders(d(2)))
	suite.Empty(broker.PopNotifications())
	suite.Len(broker.OpenOrders(), 1)

	suite.feed.Advance(d(3))
	other.Advance(d(3))
	suite.Require().NoError(broker.ProcessPendingOrders(d(3)))
	suite.Equal(52.0, broker.Position("CBA").Price)
}

func (suite *BacktestTradingTestSuite) TestReset() {
	broker := suite.newBroker(10000, commission_fee.NewZeroCommissionFee(), false)
	suite.advance(broker, 1)

	_, err := broker.Buy("BHP", optional.Some(10.0), types.ExecutionTypeMarket, reason())
	suite.Require().NoError(err)
	suite.advance(broker, 2)

	broker.Reset(5000)
	suite.Equal(5000.0, broker.Cash())
	suite.Equal(5000.0, broker.StartingCash())
	suite.Empty(broker.Positions())
	suite.Empty(broker.OpenOrders())
	suite.Empty(broker.PopNotifications())
}
