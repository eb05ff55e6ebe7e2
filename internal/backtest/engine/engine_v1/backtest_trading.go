package engine

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/sizer"
	"github.com/rxtech-lab/argo-equities/internal/logger"
	"github.com/rxtech-lab/argo-equities/internal/marker"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Notification is an order or trade update waiting to be delivered to the strategy.
type Notification struct {
	Order optional.Option[types.Order]
	Trade optional.Option[types.Trade]
}

// BacktestTrading is the simulated broker of a backtest. Orders are accepted when
// submitted and filled on the next bar of their ticker.
type BacktestTrading struct {
	state         *BacktestState
	marker        marker.Marker
	commission    commission_fee.CommissionFee
	sizer         sizer.Sizer
	logger        *logger.Logger
	cheatOnClose  bool
	strategyName  string
	startingCash  decimal.Decimal
	cash          decimal.Decimal
	feeds         map[string]*engine.Feed
	positions     map[string]*types.Position
	openTrades    map[string]*types.Trade
	pendingOrders []*types.Order
	notifications []Notification
}

func NewBacktestTrading(
	state *BacktestState,
	marker marker.Marker,
	commission commission_fee.CommissionFee,
	sizer sizer.Sizer,
	initialCash float64,
	cheatOnClose bool,
	logger *logger.Logger,
) *BacktestTrading {
	b := &BacktestTrading{
		state:        state,
		marker:       marker,
		commission:   commission,
		sizer:        sizer,
		logger:       logger,
		cheatOnClose: cheatOnClose,
	}
	b.Reset(initialCash)

	return b
}

// Reset forgets every order and position and restores the cash.
func (b *BacktestTrading) Reset(cash float64) {
	b.startingCash = decimal.NewFromFloat(cash)
	b.cash = b.startingCash
	b.positions = make(map[string]*types.Position)
	b.openTrades = make(map[string]*types.Trade)
	b.pendingOrders = nil
	b.notifications = nil
}

// SetFeeds sets the feeds orders are priced and filled against.
func (b *BacktestTrading) SetFeeds(feeds []*engine.Feed) {
	b.feeds = make(map[string]*engine.Feed, len(feeds))
	for _, feed := range feeds {
		b.feeds[feed.Symbol()] = feed
	}
}

// SetStrategyName sets the name stamped on every order and trade.
func (b *BacktestTrading) SetStrategyName(name string) {
	b.strategyName = name
}

// Cash implements engine.Broker.
func (b *BacktestTrading) Cash() float64 {
	return b.cash.InexactFloat64()
}

// StartingCash implements engine.Broker.
func (b *BacktestTrading) StartingCash() float64 {
	return b.startingCash.InexactFloat64()
}

// Value implements engine.Broker. Positions are marked at the latest close of their feed.
func (b *BacktestTrading) Value() float64 {
	value := b.cash

	for symbol, position := range b.positions {
		if position.IsFlat() {
			continue
		}

		price := position.Price
		if feed, ok := b.feeds[symbol]; ok && feed.Current().IsSome() {
			price = feed.Current().Unwrap().Close
		}

		value = value.Add(decimal.NewFromFloat(position.Size).Mul(decimal.NewFromFloat(price)))
	}

	return value.InexactFloat64()
}

// Position implements engine.Broker.
func (b *BacktestTrading) Position(symbol string) types.Position {
	if position, ok := b.positions[symbol]; ok {
		return *position
	}

	return types.Position{Symbol: symbol}
}

// Positions implements engine.Broker. Positions are sorted by symbol.
func (b *BacktestTrading) Positions() []types.Position {
	positions := make([]types.Position, 0, len(b.positions))

	for _, position := range b.positions {
		if !position.IsFlat() {
			positions = append(positions, *position)
		}
	}

	sort.Slice(positions, func(i, j int) bool { return positions[i].Symbol < positions[j].Symbol })

	return positions
}

// OpenOrders implements engine.Broker.
func (b *BacktestTrading) OpenOrders() []types.Order {
	orders := make([]types.Order, 0, len(b.pendingOrders))
	for _, order := range b.pendingOrders {
		orders = append(orders, *order)
	}

	return orders
}

// Commission implements engine.Broker.
func (b *BacktestTrading) Commission() commission_fee.CommissionFee {
	return b.commission
}

// Buy implements engine.Broker.
func (b *BacktestTrading) Buy(symbol string, size optional.Option[float64], execution types.ExecutionType, reason types.Reason) (types.Order, error) {
	return b.submit(symbol, types.PurchaseTypeBuy, size, execution, reason)
}

// Sell implements engine.Broker.
func (b *BacktestTrading) Sell(symbol string, size optional.Option[float64], execution types.ExecutionType, reason types.Reason) (types.Order, error) {
	return b.submit(symbol, types.PurchaseTypeSell, size, execution, reason)
}

// Close implements engine.Broker.
func (b *BacktestTrading) Close(symbol string, execution types.ExecutionType, reason types.Reason) (optional.Option[types.Order], error) {
	position := b.Position(symbol)
	if position.IsFlat() {
		return optional.None[types.Order](), nil
	}

	var (
		order types.Order
		err   error
	)

	if position.IsLong() {
		order, err = b.Sell(symbol, optional.Some(position.Size), execution, reason)
	} else {
		order, err = b.Buy(symbol, optional.Some(-position.Size), execution, reason)
	}

	if err != nil {
		return optional.None[types.Order](), err
	}

	return optional.Some(order), nil
}

// PopNotifications returns the queued notifications in the order they were raised and empties the queue.
func (b *BacktestTrading) PopNotifications() []Notification {
	notifications := b.notifications
	b.notifications = nil

	return notifications
}

func (b *BacktestTrading) submit(
	symbol string,
	side types.PurchaseType,
	size optional.Option[float64],
	execution types.ExecutionType,
	reason types.Reason,
) (types.Order, error) {
	feed, ok := b.feeds[symbol]
	if !ok {
		return types.Order{}, errors.Newf(errors.ErrCodeFeedNotFound, "no feed for %s", symbol)
	}

	bar, err := feed.Current().Take()
	if err != nil {
		return types.Order{}, errors.Newf(errors.ErrCodeMarketDataMissing, "%s has no bar yet", symbol)
	}

	if execution == "" {
		execution = types.ExecutionTypeMarket
	}

	quantity := size.TakeOr(0)
	if size.IsNone() {
		quantity = b.sizer.Size(b.Cash(), bar.Close, side == types.PurchaseTypeBuy)
	}

	if quantity < 0 {
		return types.Order{}, errors.Newf(errors.ErrCodeInvalidOrder, "order size must not be negative, got %f", quantity)
	}

	order := types.Order{
		OrderID:       uuid.New().String(),
		Symbol:        symbol,
		Side:          side,
		ExecutionType: execution,
		Quantity:      quantity,
		Status:        types.OrderStatusSubmitted,
		CreatedAt:     bar.Date(),
		CreatedPrice:  bar.Close,
		Reason:        reason,
		StrategyName:  b.strategyName,
	}

	if quantity == 0 || math.IsNaN(quantity) {
		order.Quantity = 0
		b.notifyOrder(order)

		order.Status = types.OrderStatusRejected
		order.Reason = types.Reason{Reason: types.OrderReasonInvalidQuantity, Message: reason.Message}

		return order, b.recordAndNotify(order)
	}

	if err := order.Validate(); err != nil {
		return types.Order{}, err
	}

	b.notifyOrder(order)

	order.Status = types.OrderStatusAccepted
	if err := b.recordAndNotify(order); err != nil {
		return types.Order{}, err
	}

	pending := order
	b.pendingOrders = append(b.pendingOrders, &pending)

	b.logger.Debug("Order accepted",
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.Float64("quantity", quantity),
		zap.String("reason", reason.Reason),
	)

	return order, nil
}

// ProcessPendingOrders fills the accepted orders whose feed has a new bar on date.
// Orders are processed in submission order.
func (b *BacktestTrading) ProcessPendingOrders(date time.Time) error {
	remaining := b.pendingOrders[:0]

	for _, order := range b.pendingOrders {
		feed, ok := b.feeds[order.Symbol]
		if !ok || !feed.Fresh() || !order.Status.IsAlive() {
			remaining = append(remaining, order)

			continue
		}

		bar := feed.Current().Unwrap()

		if err := b.execute(order, bar, date); err != nil {
			return err
		}
	}

	b.pendingOrders = remaining

	return nil
}

func (b *BacktestTrading) fillPrice(order *types.Order, bar types.MarketData) float64 {
	if b.cheatOnClose || order.ExecutionType == types.ExecutionTypeClose {
		return order.CreatedPrice
	}

	return bar.Open
}

func (b *BacktestTrading) execute(order *types.Order, bar types.MarketData, date time.Time) error {
	price := b.fillPrice(order, bar)
	commission := b.commission.Calculate(order.Quantity, price)

	if !b.canAfford(order, price, commission) {
		order.Status = types.OrderStatusMargin

		b.logger.Debug("Order margin",
			zap.String("symbol", order.Symbol),
			zap.Float64("quantity", order.Quantity),
			zap.Float64("price", price),
			zap.Float64("cash", b.Cash()),
		)

		return b.recordAndNotify(*order)
	}

	qty := decimal.NewFromFloat(order.Quantity)
	value := qty.Mul(decimal.NewFromFloat(price))
	comm := decimal.NewFromFloat(commission)

	if order.IsBuy() {
		b.cash = b.cash.Sub(value).Sub(comm)
	} else {
		b.cash = b.cash.Add(value).Sub(comm)
	}

	order.Status = types.OrderStatusCompleted
	order.ExecutedAt = date
	order.ExecutedPrice = price
	order.ExecutedValue = value.InexactFloat64()
	order.Commission = commission

	if err := b.recordAndNotify(*order); err != nil {
		return err
	}

	if b.marker != nil {
		if err := b.marker.Mark(types.MarkForOrder(*order)); err != nil {
			return err
		}
	}

	return b.updatePosition(*order)
}

// canAfford applies the margin rules. A buy needs its cost in cash. The short part of
// a sell needs its value plus commission in cash plus the proceeds of the long part.
func (b *BacktestTrading) canAfford(order *types.Order, price float64, commission float64) bool {
	qty := decimal.NewFromFloat(order.Quantity)
	px := decimal.NewFromFloat(price)
	comm := decimal.NewFromFloat(commission)

	if order.IsBuy() {
		return qty.Mul(px).Add(comm).LessThanOrEqual(b.cash)
	}

	held := decimal.NewFromFloat(math.Max(b.Position(order.Symbol).Size, 0))
	longPart := decimal.Min(qty, held)
	shortPart := qty.Sub(longPart)

	if !shortPart.IsPositive() {
		return true
	}

	needed := shortPart.Mul(px).Add(comm)
	available := b.cash.Add(longPart.Mul(px))

	return needed.LessThanOrEqual(available)
}

func (b *BacktestTrading) updatePosition(order types.Order) error {
	position, ok := b.positions[order.Symbol]
	if !ok {
		position = &types.Position{Symbol: order.Symbol}
		b.positions[order.Symbol] = position
	}

	oldSize := decimal.NewFromFloat(position.Size)
	delta := decimal.NewFromFloat(order.SignedQuantity())
	newSize := oldSize.Add(delta)
	price := decimal.NewFromFloat(order.ExecutedPrice)
	commission := decimal.NewFromFloat(order.Commission)

	switch {
	case oldSize.IsZero():
		position.Size = newSize.InexactFloat64()
		position.Price = order.ExecutedPrice
		position.OpenTimestamp = order.ExecutedAt

		return b.openTrade(order, newSize, commission)

	case oldSize.Sign() == delta.Sign():
		avg := oldSize.Mul(decimal.NewFromFloat(position.Price)).Add(delta.Mul(price)).Div(newSize)
		position.Size = newSize.InexactFloat64()
		position.Price = avg.InexactFloat64()

		trade := b.openTrades[order.Symbol]
		trade.Size = position.Size
		trade.Price = position.Price
		trade.Commission = decimal.NewFromFloat(trade.Commission).Add(commission).InexactFloat64()

		return b.recordTrade(*trade)

	case newSize.IsZero() || newSize.Sign() == oldSize.Sign():
		pnl := oldSize.Sub(newSize).Mul(price.Sub(decimal.NewFromFloat(position.Price)))
		position.Size = newSize.InexactFloat64()

		if newSize.IsZero() {
			position.Price = 0
		}

		return b.reduceTrade(order, pnl, commission, newSize.IsZero())

	default:
		// reversal through zero: close the open trade and open the remainder the other way
		closing := oldSize.Abs()
		share := commission.Mul(closing).Div(delta.Abs())
		pnl := oldSize.Mul(price.Sub(decimal.NewFromFloat(position.Price)))

		if err := b.reduceTrade(order, pnl, share, true); err != nil {
			return err
		}

		position.Size = newSize.InexactFloat64()
		position.Price = order.ExecutedPrice
		position.OpenTimestamp = order.ExecutedAt

		return b.openTrade(order, newSize, commission.Sub(share))
	}
}

func (b *BacktestTrading) openTrade(order types.Order, size decimal.Decimal, commission decimal.Decimal) error {
	trade := &types.Trade{
		ID:           uuid.New().String(),
		Symbol:       order.Symbol,
		Size:         size.InexactFloat64(),
		Price:        order.ExecutedPrice,
		OpenedAt:     order.ExecutedAt,
		ClosedAt:     optional.None[time.Time](),
		Commission:   commission.InexactFloat64(),
		StrategyName: order.StrategyName,
	}
	b.openTrades[order.Symbol] = trade

	return b.recordTrade(*trade)
}

func (b *BacktestTrading) reduceTrade(order types.Order, pnl decimal.Decimal, commission decimal.Decimal, closed bool) error {
	trade, ok := b.openTrades[order.Symbol]
	if !ok {
		return errors.Newf(errors.ErrCodePositionNotFound, "no open trade for %s", order.Symbol)
	}

	totalPnL := decimal.NewFromFloat(trade.PnL).Add(pnl)
	totalCommission := decimal.NewFromFloat(trade.Commission).Add(commission)

	trade.PnL = totalPnL.InexactFloat64()
	trade.Commission = totalCommission.InexactFloat64()
	trade.PnLComm = totalPnL.Sub(totalCommission).InexactFloat64()

	if closed {
		trade.ClosedAt = optional.Some(order.ExecutedAt)
		trade.ClosePrice = order.ExecutedPrice

		delete(b.openTrades, order.Symbol)
	}

	return b.recordTrade(*trade)
}

func (b *BacktestTrading) recordTrade(trade types.Trade) error {
	if trade.IsOpen() {
		trade.PnLComm = decimal.NewFromFloat(trade.PnL).Sub(decimal.NewFromFloat(trade.Commission)).InexactFloat64()
	}

	if b.state != nil {
		if err := b.state.RecordTrade(trade); err != nil {
			return err
		}
	}

	b.notifications = append(b.notifications, Notification{
		Order: optional.None[types.Order](),
		Trade: optional.Some(trade),
	})

	return nil
}

func (b *BacktestTrading) recordAndNotify(order types.Order) error {
	if b.state != nil {
		if err := b.state.RecordOrder(order); err != nil {
			return err
		}
	}

	b.notifyOrder(order)

	return nil
}

func (b *BacktestTrading) notifyOrder(order types.Order) {
	b.notifications = append(b.notifications, Notification{
		Order: optional.Some(order),
		Trade: optional.None[types.Trade](),
	})
}
