package strategy

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine"
	"github.com/rxtech-lab/argo-equities/internal/indicator"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
)

// MLStrategy is the long-only SMA cross used to label training data: buy on a golden
// cross when flat and close on a death cross when long.
type MLStrategy struct {
	Base
	fast  int
	slow  int
	cross map[string]indicator.Line
}

func NewMLStrategy(opts Options) (Strategy, error) {
	cfg := opts.Config.ML
	if cfg.SMA1 >= cfg.SMA2 {
		return nil, errors.Newf(errors.ErrCodeStrategyConfigError, "sma1 (%d) must be below sma2 (%d)", cfg.SMA1, cfg.SMA2)
	}

	s := &MLStrategy{
		Base: newBase(types.StrategyML, opts),
		fast: cfg.SMA1,
		slow: cfg.SMA2,
	}
	s.onBar = s.next

	return s, nil
}

func (s *MLStrategy) MinPeriod() int {
	return s.slow
}

func (s *MLStrategy) Initialize(ctx engine.RuntimeContext) error {
	if err := s.Base.Initialize(ctx); err != nil {
		return err
	}

	s.cross = make(map[string]indicator.Line, len(s.feeds))

	for _, feed := range s.feeds {
		cross, err := s.smaCross(feed, s.fast, s.slow)
		if err != nil {
			return err
		}

		s.cross[feed.Symbol()] = cross
	}

	return nil
}

// PreNext only records the daily row. The strategy trades once every feed is warm.
func (s *MLStrategy) PreNext(date time.Time) error {
	return s.bar(date, nil)
}

func (s *MLStrategy) next(date time.Time, feeds []*engine.Feed) error {
	for _, feed := range feeds {
		symbol := feed.Symbol()
		if !feed.Fresh() || s.hasOrder(symbol) {
			continue
		}

		cross := s.cross[symbol].At(feed.Index())
		if cross.IsNone() {
			continue
		}

		size := s.position(symbol).Size

		var err error

		switch {
		case size == 0 && cross.Unwrap() == 1:
			err = s.buy(date, feed, optional.None[float64](), "golden cross")
		case size > 0 && cross.Unwrap() == -1:
			err = s.closePosition(date, feed, "death cross")
		}

		if err != nil {
			return err
		}
	}

	return nil
}
