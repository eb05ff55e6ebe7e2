package strategy

import (
	"fmt"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine"
	"github.com/rxtech-lab/argo-equities/internal/indicator"
	eventlog "github.com/rxtech-lab/argo-equities/internal/log"
	"github.com/rxtech-lab/argo-equities/internal/logger"
	"github.com/rxtech-lab/argo-equities/internal/marker"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/internal/utils"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
	"go.uber.org/zap"
)

type barFunc func(date time.Time, feeds []*engine.Feed) error

// Base holds the bookkeeping every strategy shares: the live order of each ticker,
// the order and position counters, and the event log rows.
type Base struct {
	name       types.StrategyName
	opts       Options
	logger     *logger.Logger
	eventLog   eventlog.EventLog
	indicators indicator.IndicatorRegistry

	broker engine.Broker
	feeds  []*engine.Feed
	marker marker.Marker

	// orders holds the id of the live order of each ticker.
	orders         map[string]string
	openOrderCount int
	positionCount  int
	tradeCount     int

	firstDate time.Time
	lastDate  time.Time
	summary   Summary

	// onBar is run by PreNext, NextStart and Next after the daily row is written.
	onBar barFunc
}

func newBase(name types.StrategyName, opts Options) Base {
	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	events := opts.EventLog
	if events == nil {
		events = eventlog.NopEventLog{}
	}

	registry := opts.Indicators
	if registry == nil {
		registry = indicator.NewDefaultIndicatorRegistry()
	}

	return Base{
		name:       name,
		opts:       opts,
		logger:     log.Named(string(name)),
		eventLog:   events,
		indicators: registry,
		orders:     make(map[string]string),
	}
}

func (b *Base) Name() string {
	return string(b.name)
}

// Initialize resets the bookkeeping and keeps the broker and feeds of the run.
func (b *Base) Initialize(ctx engine.RuntimeContext) error {
	if ctx.Broker == nil {
		return errors.New(errors.ErrCodeStrategyConfigError, "strategy needs a broker")
	}

	if len(ctx.Feeds) == 0 {
		return errors.Newf(errors.ErrCodeStrategyConfigError, "strategy %s needs at least one feed", b.name)
	}

	b.broker = ctx.Broker
	b.feeds = ctx.Feeds
	b.marker = ctx.Marker
	b.orders = make(map[string]string)
	b.openOrderCount = 0
	b.positionCount = 0
	b.tradeCount = 0
	b.firstDate = time.Time{}
	b.lastDate = time.Time{}
	b.summary = Summary{}

	return nil
}

// PreNext runs the strategy over the feeds that already have bars.
func (b *Base) PreNext(date time.Time) error {
	feeds := make([]*engine.Feed, 0, len(b.feeds))

	for _, feed := range b.feeds {
		if feed.Len() > 0 {
			feeds = append(feeds, feed)
		}
	}

	return b.bar(date, feeds)
}

func (b *Base) NextStart(date time.Time) error {
	return b.bar(date, b.feeds)
}

func (b *Base) Next(date time.Time) error {
	return b.bar(date, b.feeds)
}

func (b *Base) bar(date time.Time, feeds []*engine.Feed) error {
	if b.firstDate.IsZero() {
		b.firstDate = date
	}

	b.lastDate = date
	b.positionCount = len(b.broker.Positions())

	if err := b.eventLog.Daily(date, b.broker.Cash(), b.broker.Value(), b.counts()); err != nil {
		return err
	}

	if b.onBar == nil {
		return nil
	}

	return b.onBar(date, feeds)
}

// NotifyOrder updates the open order count and frees the ticker once the order is done.
// An order counts as open from its Submitted notification, so the Submitted row of the
// event log already includes it. Accepted leaves the count alone.
func (b *Base) NotifyOrder(order types.Order) error {
	switch order.Status {
	case types.OrderStatusSubmitted:
		b.openOrderCount++
	case types.OrderStatusAccepted:
	case types.OrderStatusRejected,
		types.OrderStatusCompleted,
		types.OrderStatusPartial,
		types.OrderStatusExpired,
		types.OrderStatusCanceled,
		types.OrderStatusMargin:
		b.openOrderCount--
		delete(b.orders, order.Symbol)
	default:
		return errors.Newf(errors.ErrCodeUnexpectedOrderStatus, "for %s, unexpected order status of %s", order.Symbol, order.Status)
	}

	b.logger.Debug("Order notification",
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.String("status", string(order.Status)),
		zap.Int("open_orders", b.openOrderCount),
	)

	return b.eventLog.Order(orderDate(order), order, b.broker.Cash(), b.broker.Value(), b.counts())
}

// NotifyTrade logs closed trades.
func (b *Base) NotifyTrade(trade types.Trade) error {
	if !trade.IsClosed() {
		return nil
	}

	b.logger.Debug("Trade closed",
		zap.String("symbol", trade.Symbol),
		zap.Float64("pnl", trade.PnL),
		zap.Float64("pnl_comm", trade.PnLComm),
	)

	return b.eventLog.Trade(trade.ClosedAt.Unwrap(), trade, b.counts())
}

// Stop computes the CAGR over the comparison range, or over the dates of the run
// when no range was given.
func (b *Base) Stop() error {
	start, end := b.firstDate, b.lastDate
	if b.opts.Range.IsSome() {
		r := b.opts.Range.Unwrap()
		start, end = r.Start, r.End
	}

	days := daysBetween(start, end)
	startValue := b.broker.StartingCash()
	finalValue := b.broker.Value()

	b.summary = Summary{
		Name:       string(b.name),
		StartDate:  start,
		EndDate:    end,
		Years:      float64(days) / utils.DaysPerYear,
		StartValue: startValue,
		FinalValue: finalValue,
		CAGR:       utils.CAGR(startValue, finalValue, days),
		Trades:     b.tradeCount,
	}

	b.logger.Info("Strategy finished",
		zap.String("start", start.Format(time.DateOnly)),
		zap.String("end", end.Format(time.DateOnly)),
		zap.Float64("years", utils.Round(b.summary.Years, 2)),
		zap.Float64("final_value", utils.Round(finalValue, 2)),
		zap.Float64("cagr", utils.Round(b.summary.CAGR, 4)),
		zap.Int("trades", b.tradeCount),
	)

	return nil
}

func (b *Base) Summary() Summary {
	return b.summary
}

func (b *Base) counts() eventlog.Counts {
	return eventlog.Counts{Positions: b.positionCount, OpenOrders: b.openOrderCount}
}

// hasOrder reports whether symbol has a live order. Such a ticker gets no new signals.
func (b *Base) hasOrder(symbol string) bool {
	_, exists := b.orders[symbol]

	return exists
}

func (b *Base) position(symbol string) types.Position {
	return b.broker.Position(symbol)
}

func (b *Base) buy(date time.Time, feed *engine.Feed, size optional.Option[float64], message string) error {
	order, err := b.broker.Buy(feed.Symbol(), size, types.ExecutionTypeMarket, strategyReason(message))
	if err != nil {
		return err
	}

	b.track(order)

	return b.mark(date, feed, types.SignalTypeBuyLong, message)
}

func (b *Base) sell(date time.Time, feed *engine.Feed, size optional.Option[float64], message string) error {
	order, err := b.broker.Sell(feed.Symbol(), size, types.ExecutionTypeMarket, strategyReason(message))
	if err != nil {
		return err
	}

	b.track(order)

	return b.mark(date, feed, types.SignalTypeSellShort, message)
}

// closePosition flattens the position in feed. Nothing is sent when it is already flat.
func (b *Base) closePosition(date time.Time, feed *engine.Feed, message string) error {
	order, err := b.broker.Close(feed.Symbol(), types.ExecutionTypeMarket, strategyReason(message))
	if err != nil {
		return err
	}

	if order.IsNone() {
		return nil
	}

	b.track(order.Unwrap())

	return b.mark(date, feed, types.SignalTypeClosePosition, message)
}

func (b *Base) track(order types.Order) {
	b.orders[order.Symbol] = order.OrderID
	b.tradeCount++
}

// note writes a strategy decision to the event log.
func (b *Base) note(date time.Time, symbol string, format string, args ...any) error {
	details := fmt.Sprintf(format, args...)

	b.logger.Debug("Strategy decision",
		zap.String("date", date.Format(time.DateOnly)),
		zap.String("symbol", symbol),
		zap.String("details", details),
	)

	return b.eventLog.Strategy(date, symbol, details, b.counts())
}

// mark annotates the current bar of feed with a signal.
func (b *Base) mark(date time.Time, feed *engine.Feed, signalType types.SignalType, reason string) error {
	if b.marker == nil {
		return nil
	}

	bar, ok := currentBar(feed)
	if !ok {
		return nil
	}

	err := b.marker.Mark(types.Mark{
		Symbol:   feed.Symbol(),
		Time:     date,
		Price:    bar.Close,
		Color:    types.MarkColorBlue,
		Shape:    types.MarkShapeCircle,
		Title:    string(signalType),
		Message:  reason,
		Category: string(b.name),
		Signal: optional.Some(types.Signal{
			Time:   date,
			Type:   signalType,
			Name:   string(b.name),
			Reason: reason,
			Symbol: feed.Symbol(),
		}),
	})
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err, "failed to mark %s signal for %s", signalType, feed.Symbol())
	}

	return nil
}

// compute builds the named indicator and computes it over every bar of feed.
func (b *Base) compute(feed *engine.Feed, name types.IndicatorType, params ...any) (indicator.Line, error) {
	ind, err := b.indicators.CreateIndicator(name, params...)
	if err != nil {
		return nil, err
	}

	line, err := ind.Compute(feed.Bars())
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeIndicatorCalculation, err, "failed to compute %s for %s", name, feed.Symbol())
	}

	return line, nil
}

// smaCross computes the crossover of SMA(fast) over SMA(slow) on the closes of feed.
func (b *Base) smaCross(feed *engine.Feed, fast int, slow int) (indicator.Line, error) {
	fastLine, err := b.compute(feed, types.IndicatorTypeSMA, fast)
	if err != nil {
		return nil, err
	}

	slowLine, err := b.compute(feed, types.IndicatorTypeSMA, slow)
	if err != nil {
		return nil, err
	}

	return indicator.Cross(fastLine, slowLine), nil
}

func strategyReason(message string) types.Reason {
	return types.Reason{Reason: types.OrderReasonStrategy, Message: message}
}

func currentBar(feed *engine.Feed) (types.MarketData, bool) {
	bar := feed.Current()
	if bar.IsNone() {
		return types.MarketData{}, false
	}

	return bar.Unwrap(), true
}

// orderDate is the fill date of a filled order and the creation date otherwise.
func orderDate(order types.Order) time.Time {
	if !order.ExecutedAt.IsZero() {
		return order.ExecutedAt
	}

	return order.CreatedAt
}

func daysBetween(start time.Time, end time.Time) int {
	return int(types.DateOf(end).Sub(types.DateOf(start)).Hours() / 24)
}
