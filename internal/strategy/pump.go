package strategy

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine"
	"github.com/rxtech-lab/argo-equities/internal/config"
	"github.com/rxtech-lab/argo-equities/internal/indicator"
	"github.com/rxtech-lab/argo-equities/internal/types"
)

type pumpTicker struct {
	volumeAverage indicator.Line
	priceMax      indicator.Line
	// positionStart and positionEnd are the dates the last position was opened and closed.
	positionStart optional.Option[time.Time]
	positionEnd   optional.Option[time.Time]
}

// Pump buys breakouts on unusual volume and sells at a profit target or after a timeout.
type Pump struct {
	Base
	cfg     config.PumpOptions
	limit   int
	tickers map[string]*pumpTicker
}

func NewPump(opts Options) (Strategy, error) {
	s := &Pump{
		Base:  newBase(types.StrategyPump, opts),
		cfg:   opts.Config.Pump,
		limit: opts.Config.GlobalOptions.PositionLimit,
	}
	s.onBar = s.next

	return s, nil
}

func (s *Pump) MinPeriod() int {
	return max(s.cfg.VolumeAveragePeriod, s.cfg.PriceAveragePeriod)
}

func (s *Pump) Initialize(ctx engine.RuntimeContext) error {
	if err := s.Base.Initialize(ctx); err != nil {
		return err
	}

	s.tickers = make(map[string]*pumpTicker, len(s.feeds))

	for _, feed := range s.feeds {
		ticker := &pumpTicker{}

		var err error

		if ticker.volumeAverage, err = s.compute(feed, types.IndicatorTypeSMA, s.cfg.VolumeAveragePeriod, types.PriceSourceVolume); err != nil {
			return err
		}

		if ticker.priceMax, err = s.compute(feed, types.IndicatorTypeHighest, s.cfg.PriceAveragePeriod, types.PriceSourceClose); err != nil {
			return err
		}

		s.tickers[feed.Symbol()] = ticker
	}

	return nil
}

func (s *Pump) next(date time.Time, feeds []*engine.Feed) error {
	for _, feed := range feeds {
		symbol := feed.Symbol()
		if !feed.Fresh() || s.hasOrder(symbol) {
			continue
		}

		bar, ok := currentBar(feed)
		if !ok {
			continue
		}

		ticker := s.tickers[symbol]
		position := s.position(symbol)

		if s.isPump(feed, ticker, bar) {
			if err := s.enter(date, feed, ticker, position); err != nil {
				return err
			}
		}

		if !position.IsFlat() {
			if err := s.exit(date, feed, ticker, position, bar); err != nil {
				return err
			}
		}
	}

	return nil
}

// isPump checks for volume well above its average, a high within the configured ratio of
// yesterday's close and a close at the rolling maximum.
func (s *Pump) isPump(feed *engine.Feed, ticker *pumpTicker, bar types.MarketData) bool {
	previous := feed.Ago(1)
	if previous.IsNone() || previous.Unwrap().Close == 0 {
		return false
	}

	i := feed.Index()
	volumeAverage, priceMax := ticker.volumeAverage.At(i), ticker.priceMax.At(i)

	if volumeAverage.IsNone() || priceMax.IsNone() {
		return false
	}

	ratio := bar.High / previous.Unwrap().Close

	volumeSpike := bar.Volume > s.cfg.VolumeFactor*volumeAverage.Unwrap()
	priceJump := s.cfg.PriceComparisonLowerBound < ratio && ratio < s.cfg.PriceComparisonUpperBound
	newHigh := bar.Close >= priceMax.Unwrap()

	return volumeSpike && priceJump && newHigh
}

func (s *Pump) enter(date time.Time, feed *engine.Feed, ticker *pumpTicker, position types.Position) error {
	symbol := feed.Symbol()

	switch {
	case !position.IsFlat():
		return s.note(date, symbol, "Cannot buy %s as I am already long", symbol)
	case s.positionCount >= s.limit:
		return s.note(date, symbol, "Cannot buy %s as I have %d positions already", symbol, s.positionCount)
	case ticker.positionEnd.IsNone():
		if err := s.note(date, symbol, "Buy %s for the first time", symbol); err != nil {
			return err
		}
	default:
		elapsed := daysBetween(ticker.positionEnd.Unwrap(), date)
		if elapsed <= s.cfg.BuyTimeout {
			return s.note(date, symbol, "Did not buy %s after only %d days since last hold", symbol, elapsed)
		}

		if err := s.note(date, symbol, "Buy %s after %d days since close of last position", symbol, elapsed); err != nil {
			return err
		}
	}

	ticker.positionStart = optional.Some(date)

	return s.buy(date, feed, optional.None[float64](), "volume pump")
}

func (s *Pump) exit(date time.Time, feed *engine.Feed, ticker *pumpTicker, position types.Position, bar types.MarketData) error {
	symbol := feed.Symbol()

	if bar.Close >= s.cfg.ProfitFactor*position.Price {
		ticker.positionEnd = optional.Some(date)

		if err := s.note(date, symbol, "Close %s position as %.2f profit reached", symbol, s.cfg.ProfitFactor); err != nil {
			return err
		}

		return s.closePosition(date, feed, "profit target")
	}

	start := ticker.positionStart.TakeOr(position.OpenTimestamp)

	if elapsed := daysBetween(start, date); elapsed > s.cfg.SellTimeout {
		ticker.positionEnd = optional.Some(date)

		if err := s.note(date, symbol, "Abandon %s position after %d days since start of position", symbol, elapsed); err != nil {
			return err
		}

		return s.closePosition(date, feed, "sell timeout")
	}

	return nil
}
