package strategy

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine"
	"github.com/rxtech-lab/argo-equities/internal/indicator"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
)

// Crossover goes long when SMA1 crosses above SMA2 and short when it crosses below,
// reversing an opposite position on the way. The position limit only applies to the
// reversal, flat tickers always take the signal.
type Crossover struct {
	Base
	sma1  int
	sma2  int
	limit int
	cross map[string]indicator.Line
}

func NewCrossover(opts Options) (Strategy, error) {
	cfg := opts.Config.Crossover
	if cfg.SMA1 >= cfg.SMA2 {
		return nil, errors.Newf(errors.ErrCodeStrategyConfigError, "sma1 (%d) must be below sma2 (%d)", cfg.SMA1, cfg.SMA2)
	}

	s := &Crossover{
		Base:  newBase(types.StrategyCrossover, opts),
		sma1:  cfg.SMA1,
		sma2:  cfg.SMA2,
		limit: opts.Config.GlobalOptions.PositionLimit,
	}
	s.onBar = s.next

	return s, nil
}

func (s *Crossover) MinPeriod() int {
	return s.sma2
}

func (s *Crossover) Initialize(ctx engine.RuntimeContext) error {
	if err := s.Base.Initialize(ctx); err != nil {
		return err
	}

	s.cross = make(map[string]indicator.Line, len(s.feeds))

	for _, feed := range s.feeds {
		cross, err := s.smaCross(feed, s.sma1, s.sma2)
		if err != nil {
			return err
		}

		s.cross[feed.Symbol()] = cross
	}

	return nil
}

func (s *Crossover) next(date time.Time, feeds []*engine.Feed) error {
	for _, feed := range feeds {
		symbol := feed.Symbol()
		if !feed.Fresh() || s.hasOrder(symbol) {
			continue
		}

		cross := s.cross[symbol].At(feed.Index())
		if cross.IsNone() {
			continue
		}

		var err error

		switch cross.Unwrap() {
		case 1:
			err = s.onBuySignal(date, feed)
		case -1:
			err = s.onSellSignal(date, feed)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func (s *Crossover) onBuySignal(date time.Time, feed *engine.Feed) error {
	symbol := feed.Symbol()
	size := s.position(symbol).Size

	switch {
	case size < 0:
		if err := s.closePosition(date, feed, "close short on buy signal"); err != nil {
			return err
		}

		if s.positionCount <= s.limit {
			return s.buy(date, feed, optional.None[float64](), "buy signal")
		}

		return s.note(date, symbol, "Cannot action buy signal for %s as I have %d positions already", symbol, s.positionCount)
	case size > 0:
		return s.note(date, symbol, "Cannot action buy signal for %s as I am long already", symbol)
	default:
		return s.buy(date, feed, optional.None[float64](), "buy signal")
	}
}

func (s *Crossover) onSellSignal(date time.Time, feed *engine.Feed) error {
	symbol := feed.Symbol()
	size := s.position(symbol).Size

	switch {
	case size > 0:
		if err := s.closePosition(date, feed, "close long on sell signal"); err != nil {
			return err
		}

		if s.positionCount <= s.limit {
			return s.sell(date, feed, optional.None[float64](), "sell signal")
		}

		return s.note(date, symbol, "Cannot action sell signal for %s as I have %d positions already", symbol, s.positionCount)
	case size < 0:
		return s.note(date, symbol, "Cannot action sell signal for %s as I am short already", symbol)
	default:
		return s.sell(date, feed, optional.None[float64](), "sell signal")
	}
}
