package strategy

import (
	"math"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine"
	"github.com/rxtech-lab/argo-equities/internal/config"
	"github.com/rxtech-lab/argo-equities/internal/indicator"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/internal/utils"
	"go.uber.org/zap"
)

// holyGrailTicker is the indicator lines and the armed entries of one ticker.
type holyGrailTicker struct {
	adx           indicator.Line
	emaLong       indicator.Line
	emaLongSlope  indicator.Line
	emaShortSlope indicator.Line
	localMax      indicator.Line
	localMin      indicator.Line

	entryLong     optional.Option[float64]
	stopLossLong  optional.Option[float64]
	entryShort    optional.Option[float64]
	stopLossShort optional.Option[float64]
	trailingStop  optional.Option[float64]
	// recordedMax and recordedMin are the local extremes at entry, used to start the trailing stop.
	recordedMax optional.Option[float64]
	recordedMin optional.Option[float64]

	waitingLong  int
	waitingShort int
	longDays     int
	shortDays    int
}

// HolyGrail trades pullbacks to the long EMA in a strong trend. An entry is armed when the
// price bounces off the EMA while ADX is above the threshold, and triggered when the close
// breaks the armed level within lag_days.
type HolyGrail struct {
	Base
	cfg     config.HolyGrailOptions
	tickers map[string]*holyGrailTicker
}

func NewHolyGrail(opts Options) (Strategy, error) {
	s := &HolyGrail{
		Base: newBase(types.StrategyHolyGrail, opts),
		cfg:  opts.Config.HolyGrail,
	}
	s.onBar = s.next

	return s, nil
}

func (s *HolyGrail) MinPeriod() int {
	return 2 * s.cfg.ADXPeriod
}

func (s *HolyGrail) Initialize(ctx engine.RuntimeContext) error {
	if err := s.Base.Initialize(ctx); err != nil {
		return err
	}

	s.tickers = make(map[string]*holyGrailTicker, len(s.feeds))

	for _, feed := range s.feeds {
		ticker := &holyGrailTicker{}

		var err error

		if ticker.adx, err = s.compute(feed, types.IndicatorTypeADX, s.cfg.ADXPeriod); err != nil {
			return err
		}

		if ticker.emaLong, err = s.compute(feed, types.IndicatorTypeEMA, s.cfg.EMALongPeriod); err != nil {
			return err
		}

		emaShort, err := s.compute(feed, types.IndicatorTypeEMA, s.cfg.EMAShortPeriod)
		if err != nil {
			return err
		}

		if ticker.localMax, err = s.compute(feed, types.IndicatorTypeHighest, s.cfg.ADXPeriod, types.PriceSourceHigh); err != nil {
			return err
		}

		if ticker.localMin, err = s.compute(feed, types.IndicatorTypeLowest, s.cfg.ADXPeriod, types.PriceSourceLow); err != nil {
			return err
		}

		ticker.emaLongSlope = indicator.Slope(ticker.emaLong)
		ticker.emaShortSlope = indicator.Slope(emaShort)
		s.tickers[feed.Symbol()] = ticker
	}

	return nil
}

func (s *HolyGrail) next(date time.Time, feeds []*engine.Feed) error {
	for _, feed := range feeds {
		symbol := feed.Symbol()
		ticker := s.tickers[symbol]
		size := s.position(symbol).Size

		if size > 0 {
			ticker.longDays++
		} else if size < 0 {
			ticker.shortDays++
		}

		if !feed.Fresh() || s.hasOrder(symbol) {
			continue
		}

		bar, ok := currentBar(feed)
		if !ok {
			continue
		}

		if err := s.updateTrailingStop(date, symbol, ticker, size, bar.Close); err != nil {
			return err
		}

		var err error

		switch {
		case size < 0:
			err = s.manageShort(date, feed, ticker, bar)
		case size > 0:
			err = s.manageLong(date, feed, ticker, bar)
		default:
			err = s.seekEntry(date, feed, ticker, bar)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// updateTrailingStop starts the trailing stop once the close moves beyond the extreme recorded at entry.
func (s *HolyGrail) updateTrailingStop(date time.Time, symbol string, ticker *holyGrailTicker, size float64, closePrice float64) error {
	if ticker.trailingStop.IsSome() {
		return nil
	}

	switch {
	case size > 0 && ticker.recordedMax.IsSome() && closePrice > ticker.recordedMax.Unwrap():
		ticker.trailingStop = optional.Some(closePrice)

		return s.note(date, symbol, "Long in %s and setting a trailing stop of %.2f", symbol, closePrice)
	case size < 0 && ticker.recordedMin.IsSome() && closePrice < ticker.recordedMin.Unwrap():
		ticker.trailingStop = optional.Some(closePrice)

		return s.note(date, symbol, "Short in %s and setting a trailing stop of %.2f", symbol, closePrice)
	}

	return nil
}

func (s *HolyGrail) manageShort(date time.Time, feed *engine.Feed, ticker *holyGrailTicker, bar types.MarketData) error {
	symbol := feed.Symbol()
	ema := ticker.emaLong.At(feed.Index())

	switch {
	case ticker.stopLossShort.IsSome() && bar.Close > ticker.stopLossShort.Unwrap():
		if err := s.note(date, symbol, "Closing short position as price %.2f is above our stop loss of %.2f",
			bar.Close, ticker.stopLossShort.Unwrap()); err != nil {
			return err
		}
	case ticker.trailingStop.IsSome() && ema.IsSome() &&
		ticker.trailingStop.Unwrap() > bar.Close && bar.Close > ema.Unwrap():
		if err := s.note(date, symbol, "Closing short position as price %.2f is below our trailing stop of %.2f and went above the EMA of %.2f",
			bar.Close, ticker.trailingStop.Unwrap(), ema.Unwrap()); err != nil {
			return err
		}
	default:
		return nil
	}

	ticker.recordedMin = optional.None[float64]()
	ticker.stopLossShort = optional.None[float64]()
	ticker.trailingStop = optional.None[float64]()

	return s.closePosition(date, feed, "exit short")
}

func (s *HolyGrail) manageLong(date time.Time, feed *engine.Feed, ticker *holyGrailTicker, bar types.MarketData) error {
	symbol := feed.Symbol()
	ema := ticker.emaLong.At(feed.Index())

	switch {
	case ticker.stopLossLong.IsSome() && bar.Close < ticker.stopLossLong.Unwrap():
		if err := s.note(date, symbol, "Closing long position as price %.2f is below our stop loss of %.2f",
			bar.Close, ticker.stopLossLong.Unwrap()); err != nil {
			return err
		}
	case ticker.trailingStop.IsSome() && ema.IsSome() &&
		ticker.trailingStop.Unwrap() < bar.Close && bar.Close < ema.Unwrap():
		if err := s.note(date, symbol, "Closing long position as price %.2f exceeds our trailing stop of %.2f and dropped below the EMA of %.2f",
			bar.Close, ticker.trailingStop.Unwrap(), ema.Unwrap()); err != nil {
			return err
		}
	default:
		return nil
	}

	ticker.recordedMax = optional.None[float64]()
	ticker.stopLossLong = optional.None[float64]()
	ticker.trailingStop = optional.None[float64]()

	return s.closePosition(date, feed, "exit long")
}

// seekEntry ages, disarms, arms and triggers the entries of a flat ticker.
func (s *HolyGrail) seekEntry(date time.Time, feed *engine.Feed, ticker *holyGrailTicker, bar types.MarketData) error {
	symbol := feed.Symbol()
	i := feed.Index()

	if ticker.entryLong.IsSome() {
		ticker.waitingLong++
	}

	if ticker.entryShort.IsSome() {
		ticker.waitingShort++
	}

	adx := ticker.adx.At(i)
	if adx.IsNone() {
		return nil
	}

	if adx.Unwrap() <= s.cfg.ADXThreshold {
		return s.disarmOnWeakTrend(date, feed, ticker, adx.Unwrap())
	}

	if ticker.waitingShort > s.cfg.LagDays {
		if err := s.disarm(date, feed, ticker, types.PurchaseTypeSell,
			"For %s killing short condition as it has been %d days with no sell trigger reached", symbol, ticker.waitingShort); err != nil {
			return err
		}
	}

	if ticker.waitingLong > s.cfg.LagDays {
		return s.disarm(date, feed, ticker, types.PurchaseTypeBuy,
			"For %s killing long condition as it has been %d days with no buy trigger reached", symbol, ticker.waitingLong)
	}

	ema, longSlope, shortSlope := ticker.emaLong.At(i), ticker.emaLongSlope.At(i), ticker.emaShortSlope.At(i)
	localMin, localMax := ticker.localMin.At(i), ticker.localMax.At(i)

	if ema.IsNone() || longSlope.IsNone() || shortSlope.IsNone() || localMin.IsNone() || localMax.IsNone() {
		return nil
	}

	if err := s.arm(date, feed, ticker, bar, ema.Unwrap(), longSlope.Unwrap(), shortSlope.Unwrap(), localMin.Unwrap(), localMax.Unwrap()); err != nil {
		return err
	}

	if ticker.entryShort.IsSome() && bar.Close < ema.Unwrap() && bar.Close < ticker.entryShort.Unwrap() {
		entry := ticker.entryShort.Unwrap()
		ticker.recordedMin = localMin
		ticker.entryShort = optional.None[float64]()
		ticker.waitingShort = 0

		if err := s.note(date, symbol, "For %s selling as close %.2f has dropped below the entry point of %.2f, setting local min of %.2f",
			symbol, bar.Close, entry, localMin.Unwrap()); err != nil {
			return err
		}

		return s.sell(date, feed, optional.None[float64](), "short entry triggered")
	}

	if ticker.entryLong.IsSome() && bar.Close > ema.Unwrap() && bar.Close > ticker.entryLong.Unwrap() {
		entry := ticker.entryLong.Unwrap()
		ticker.recordedMax = localMax
		ticker.entryLong = optional.None[float64]()
		ticker.waitingLong = 0

		if err := s.note(date, symbol, "For %s buying as close %.2f has exceeded the entry point of %.2f, setting local max of %.2f",
			symbol, bar.Close, entry, localMax.Unwrap()); err != nil {
			return err
		}

		return s.buy(date, feed, optional.None[float64](), "long entry triggered")
	}

	return nil
}

// arm records a short entry when the price touches the EMA from below after bouncing off the
// local minimum, and a long entry for the mirror case.
func (s *HolyGrail) arm(date time.Time, feed *engine.Feed, ticker *holyGrailTicker, bar types.MarketData,
	ema, longSlope, shortSlope, localMin, localMax float64,
) error {
	symbol := feed.Symbol()

	if localMin != 0 && math.Abs(bar.Close/localMin) > s.cfg.BounceOffMin &&
		bar.Close < ema && ema < bar.High && shortSlope > 0 && shortSlope > longSlope {
		ticker.stopLossShort = optional.Some(bar.High)
		ticker.entryShort = optional.Some(bar.Low)

		message := "short entry armed"
		if err := s.note(date, symbol, "Considering going short for %s as the EMA has been touched from below, and the close %.3f is %.1f%% of the local min (%.2f). Setting stop loss at %.2f (high) and an entry point of %.2f (low)",
			symbol, bar.Close, 100*utils.Round(bar.Close/localMin, 3), localMin, bar.High, bar.Low); err != nil {
			return err
		}

		if err := s.mark(date, feed, types.SignalTypeWait, message); err != nil {
			return err
		}
	}

	if localMax != 0 && math.Abs(bar.Close/localMax) < s.cfg.BounceOffMax &&
		bar.Low < ema && ema < bar.Close && shortSlope < 0 && shortSlope < longSlope {
		ticker.stopLossLong = optional.Some(bar.Low)
		ticker.entryLong = optional.Some(bar.High)

		message := "long entry armed"
		if err := s.note(date, symbol, "Considering going long for %s as the EMA has been touched from above, and the close %.3f is %.1f%% of the local max (%.2f). Setting stop loss at %.2f (low) and an entry point of %.2f (high)",
			symbol, bar.Close, 100*utils.Round(bar.Close/localMax, 3), localMax, bar.Low, bar.High); err != nil {
			return err
		}

		if err := s.mark(date, feed, types.SignalTypeWait, message); err != nil {
			return err
		}
	}

	return nil
}

func (s *HolyGrail) disarmOnWeakTrend(date time.Time, feed *engine.Feed, ticker *holyGrailTicker, adx float64) error {
	symbol := feed.Symbol()

	if ticker.entryLong.IsSome() {
		if err := s.disarm(date, feed, ticker, types.PurchaseTypeBuy,
			"For %s killing long condition as the adx %.3f has dropped below %.0f", symbol, adx, s.cfg.ADXThreshold); err != nil {
			return err
		}
	}

	if ticker.entryShort.IsSome() {
		return s.disarm(date, feed, ticker, types.PurchaseTypeSell,
			"For %s killing short condition as the adx %.3f has dropped below %.0f", symbol, adx, s.cfg.ADXThreshold)
	}

	return nil
}

func (s *HolyGrail) disarm(date time.Time, feed *engine.Feed, ticker *holyGrailTicker, side types.PurchaseType, format string, args ...any) error {
	if side == types.PurchaseTypeBuy {
		ticker.entryLong = optional.None[float64]()
		ticker.waitingLong = 0
	} else {
		ticker.entryShort = optional.None[float64]()
		ticker.waitingShort = 0
	}

	if err := s.note(date, feed.Symbol(), format, args...); err != nil {
		return err
	}

	return s.mark(date, feed, types.SignalTypeAbort, "entry disarmed")
}

// Stop adds the long and short exposure over all ticker-days to the summary.
func (s *HolyGrail) Stop() error {
	if err := s.Base.Stop(); err != nil {
		return err
	}

	for _, ticker := range s.tickers {
		s.summary.LongDays += ticker.longDays
		s.summary.ShortDays += ticker.shortDays
	}

	tickerDays := float64(daysBetween(s.summary.StartDate, s.summary.EndDate) * len(s.feeds))
	if tickerDays <= 0 {
		return nil
	}

	longPercent := 100 * float64(s.summary.LongDays) / tickerDays
	shortPercent := 100 * float64(s.summary.ShortDays) / tickerDays

	s.logger.Info("HolyGrail exposure",
		zap.Float64("long_percent", utils.Round(longPercent, 2)),
		zap.Float64("short_percent", utils.Round(shortPercent, 2)),
		zap.Float64("total_percent", utils.Round(longPercent+shortPercent, 2)),
	)

	return nil
}
