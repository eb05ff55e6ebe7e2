package engine

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/sizer"
	"github.com/rxtech-lab/argo-equities/internal/logger"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

type BacktestEngineV1 struct {
	config        engine.Config
	strategy      engine.Strategy
	feeds         []*engine.Feed
	resultsFolder string
	log           *logger.Logger
	marker        *BacktestMarker
	broker        *BacktestTrading
	state         *BacktestState
	datasource    datasource.DataSource
}

func NewBacktestEngineV1(log *logger.Logger) engine.Engine {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &BacktestEngineV1{
		log: log.Named("engine"),
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config engine.Config) error {
	if config.InitialCapital <= 0 {
		return errors.Newf(errors.ErrCodeBacktestConfigError, "initial capital must be positive, got %f", config.InitialCapital)
	}

	commissionFee, err := commission_fee.GetCommissionFeeHandler(config.Broker, config.CommissionPerShare)
	if err != nil {
		return err
	}

	if b.state == nil {
		b.state, err = NewBacktestState(b.log)
		if err != nil {
			return err
		}
	}

	if err := b.state.Initialize(); err != nil {
		return err
	}

	if b.marker == nil {
		b.marker, err = NewBacktestMarker(b.log)
		if err != nil {
			return err
		}
	}

	b.config = config
	b.broker = NewBacktestTrading(
		b.state,
		b.marker,
		commissionFee,
		sizer.NewPercentSizer(config.PositionSize, config.InitialCapital, false),
		config.InitialCapital,
		config.CheatOnClose,
		b.log,
	)

	b.log.Debug("Backtest engine initialized",
		zap.Float64("cash", config.InitialCapital),
		zap.String("broker", string(config.Broker)),
		zap.Bool("cheat_on_close", config.CheatOnClose),
	)

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(datasource datasource.DataSource) error {
	b.datasource = datasource

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder
	b.log.Debug("Results folder set",
		zap.String("folder", folder),
	)

	return nil
}

// AddFeed implements engine.Engine.
func (b *BacktestEngineV1) AddFeed(symbol string, bars []types.MarketData) error {
	if len(bars) == 0 {
		return errors.Newf(errors.ErrCodeDataNotFound, "no bars for %s", symbol)
	}

	for _, feed := range b.feeds {
		if feed.Symbol() == symbol {
			return errors.Newf(errors.ErrCodeInvalidParameter, "feed %s already added", symbol)
		}
	}

	for i := 1; i < len(bars); i++ {
		if !bars[i].Date().After(bars[i-1].Date()) {
			return errors.Newf(errors.ErrCodeInvalidParameter, "bars of %s are not in ascending date order at %s", symbol, bars[i].Date().Format(time.DateOnly))
		}
	}

	b.feeds = append(b.feeds, engine.NewFeed(symbol, bars))

	return nil
}

// AddTicker implements engine.Engine.
func (b *BacktestEngineV1) AddTicker(symbol string) error {
	if b.datasource == nil {
		return errors.New(errors.ErrCodeBacktestNoDatasource, "no datasource set")
	}

	bars, err := b.datasource.ReadTicker(symbol, b.config.StartTime, b.config.EndTime)
	if err != nil {
		return err
	}

	return b.AddFeed(symbol, bars)
}

// LoadStrategy implements engine.Engine.
func (b *BacktestEngineV1) LoadStrategy(strategy engine.Strategy) error {
	b.strategy = strategy
	b.log.Debug("Strategy loaded",
		zap.String("strategy", strategy.Name()),
	)

	return nil
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (result engine.RunResult, err error) {
	if err := b.preRunCheck(); err != nil {
		return engine.RunResult{}, err
	}

	runID := uuid.New().String()
	strategyName := b.strategy.Name()
	result = engine.RunResult{RunID: runID, StrategyName: strategyName}

	if callbacks.OnRunEnd != nil {
		defer func() {
			(*callbacks.OnRunEnd)(runID, strategyName, result.ResultFolder, err)
		}()
	}

	if err := b.resetRun(); err != nil {
		return result, err
	}

	if err := b.strategy.Initialize(engine.RuntimeContext{
		Broker: b.broker,
		Feeds:  b.feeds,
		Marker: b.marker,
		Logger: b.log,
	}); err != nil {
		return result, errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "failed to initialize strategy %s", strategyName)
	}

	feedDates := make([][]time.Time, len(b.feeds))
	totalBars := 0

	for i, feed := range b.feeds {
		feedDates[i] = feed.Dates()
		totalBars += len(feed.Bars())
	}

	calendar := masterCalendar(feedDates...)

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(runID, strategyName, len(b.feeds), totalBars); err != nil {
			return result, errors.Wrap(errors.ErrCodeCallbackFailed, "run start callback failed", err)
		}
	}

	b.log.Info("Running strategy",
		zap.String("strategy", strategyName),
		zap.String("run_id", runID),
		zap.Int("feeds", len(b.feeds)),
		zap.Int("dates", len(calendar)),
	)

	var bar *progressbar.ProgressBar
	if b.config.ShowProgress {
		bar = progressbar.NewOptions(len(calendar),
			progressbar.OptionSetDescription(strategyName),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)
	}

	minPeriod := max(b.strategy.MinPeriod(), 1)
	started := false

	var exposure types.Exposure

	for i, date := range calendar {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		for _, feed := range b.feeds {
			feed.Advance(date)
		}

		if err := b.broker.ProcessPendingOrders(date); err != nil {
			return result, err
		}

		if err := b.deliverNotifications(); err != nil {
			return result, err
		}

		if err := b.step(date, minPeriod, &started); err != nil {
			return result, errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err, "strategy %s failed on %s", strategyName, date.Format(time.DateOnly))
		}

		for _, position := range b.broker.Positions() {
			if position.IsLong() {
				exposure.LongDays++
			} else if position.IsShort() {
				exposure.ShortDays++
			}
		}

		point := engine.EquityPoint{
			Date:      date,
			Cash:      b.broker.Cash(),
			Value:     b.broker.Value(),
			Positions: len(b.broker.Positions()),
		}
		if err := b.state.RecordEquity(point); err != nil {
			return result, err
		}

		if bar != nil {
			_ = bar.Add(1)
		}

		if callbacks.OnProcessData != nil {
			if err := (*callbacks.OnProcessData)(i+1, len(calendar)); err != nil {
				return result, errors.Wrap(errors.ErrCodeCallbackFailed, "process data callback failed", err)
			}
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}

	if err := b.deliverNotifications(); err != nil {
		return result, err
	}

	if err := b.strategy.Stop(); err != nil {
		return result, errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err, "strategy %s failed to stop", strategyName)
	}

	if slots := len(calendar) * len(b.feeds); slots > 0 {
		exposure.LongPercent = 100 * float64(exposure.LongDays) / float64(slots)
		exposure.ShortPercent = 100 * float64(exposure.ShortDays) / float64(slots)
	}

	return b.collectResults(result, exposure)
}

// Close implements engine.Engine.
func (b *BacktestEngineV1) Close() error {
	var firstErr error

	if err := b.state.Close(); err != nil {
		firstErr = err
	}

	if err := b.marker.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}

// Broker returns the simulated account of the engine.
func (b *BacktestEngineV1) Broker() *BacktestTrading {
	return b.broker
}

// step calls the phase callback for date. Stale feeds keep their last bar.
func (b *BacktestEngineV1) step(date time.Time, minPeriod int, started *bool) error {
	if *started {
		return b.strategy.Next(date)
	}

	for _, feed := range b.feeds {
		if feed.Len() < minPeriod {
			return b.strategy.PreNext(date)
		}
	}

	*started = true

	return b.strategy.NextStart(date)
}

func (b *BacktestEngineV1) deliverNotifications() error {
	for _, notification := range b.broker.PopNotifications() {
		if notification.Order.IsSome() {
			if err := b.strategy.NotifyOrder(notification.Order.Unwrap()); err != nil {
				return errors.Wrap(errors.ErrCodeStrategyRuntimeError, "order notification failed", err)
			}
		}

		if notification.Trade.IsSome() {
			if err := b.strategy.NotifyTrade(notification.Trade.Unwrap()); err != nil {
				return errors.Wrap(errors.ErrCodeStrategyRuntimeError, "trade notification failed", err)
			}
		}
	}

	return nil
}

func (b *BacktestEngineV1) collectResults(result engine.RunResult, exposure types.Exposure) (engine.RunResult, error) {
	tickers := make([]string, len(b.feeds))
	for i, feed := range b.feeds {
		tickers[i] = feed.Symbol()
	}

	stats, err := b.state.GetStats(StatsInput{
		RunID:         result.RunID,
		StrategyName:  result.StrategyName,
		Tickers:       tickers,
		StartingValue: b.broker.StartingCash(),
		FinalCash:     b.broker.Cash(),
		Exposure:      exposure,
	})
	if err != nil {
		return result, err
	}

	if result.Orders, err = b.state.GetOrders(); err != nil {
		return result, err
	}

	if result.Trades, err = b.state.GetTrades(); err != nil {
		return result, err
	}

	if result.Equity, err = b.state.GetEquity(); err != nil {
		return result, err
	}

	if b.resultsFolder != "" {
		folder := getResultFolder(b.resultsFolder, b.config.StartTime, b.config.EndTime)
		if err := b.writeResults(folder, &stats); err != nil {
			return result, err
		}

		result.ResultFolder = folder
	}

	result.Stats = stats

	return result, nil
}

func (b *BacktestEngineV1) writeResults(folder string, stats *types.BacktestStats) error {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestNoResultsDir, "failed to create results folder", err)
	}

	if err := b.state.Write(folder); err != nil {
		return err
	}

	if err := b.marker.Write(folder); err != nil {
		return err
	}

	stats.OrdersFilePath = filepath.Join(folder, OrdersFileName)
	stats.TradesFilePath = filepath.Join(folder, TradesFileName)
	stats.EquityFilePath = filepath.Join(folder, EquityFileName)
	stats.MarksFilePath = filepath.Join(folder, MarksFileName)

	if err := types.WriteStats(filepath.Join(folder, StatsFileName), []types.BacktestStats{*stats}); err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to write stats", err)
	}

	b.log.Debug("Results written",
		zap.String("folder", folder),
	)

	return nil
}

// resetRun rewinds the feeds and empties the journal so Run can be called again.
func (b *BacktestEngineV1) resetRun() error {
	for _, feed := range b.feeds {
		feed.Reset()
	}

	if err := b.state.Cleanup(); err != nil {
		return err
	}

	if err := b.marker.Cleanup(); err != nil {
		return err
	}

	b.broker.Reset(b.config.InitialCapital)
	b.broker.SetFeeds(b.feeds)
	b.broker.SetStrategyName(b.strategy.Name())

	return nil
}

func (b *BacktestEngineV1) preRunCheck() error {
	if b.state == nil || b.broker == nil {
		b.log.Error("Engine not initialized")

		return errors.New(errors.ErrCodeBacktestStateNil, "backtest state is nil, call Initialize first")
	}

	if b.strategy == nil {
		b.log.Error("No strategy loaded")

		return errors.New(errors.ErrCodeBacktestNoStrategies, "no strategy loaded")
	}

	if len(b.feeds) == 0 {
		b.log.Error("No feeds added")

		return errors.New(errors.ErrCodeBacktestNoFeeds, "no feeds added")
	}

	return nil
}
