package strategy

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/internal/utils"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
)

// Benchmark buys the index with all its cash on the first bar and holds it.
// It is meant to run with cheat-on-close so the buy fills at that bar's close. The size
// leaves room for the commission of the configured broker.
type Benchmark struct {
	Base
}

func NewBenchmark(opts Options) (Strategy, error) {
	return &Benchmark{Base: newBase(types.StrategyBenchmark, opts)}, nil
}

func (s *Benchmark) MinPeriod() int {
	return 1
}

func (s *Benchmark) Initialize(ctx engine.RuntimeContext) error {
	if err := s.Base.Initialize(ctx); err != nil {
		return err
	}

	if len(s.feeds) != 1 {
		return errors.Newf(errors.ErrCodeStrategyConfigError, "benchmark needs exactly one ticker, got %d", len(s.feeds))
	}

	return nil
}

func (s *Benchmark) NextStart(date time.Time) error {
	if err := s.bar(date, s.feeds); err != nil {
		return err
	}

	feed := s.feeds[0]

	bar, ok := currentBar(feed)
	if !ok {
		return nil
	}

	cash := s.broker.Cash()

	size := utils.AllInQuantity(cash, bar.Close, s.broker.Commission().Calculate)
	if size <= 0 {
		return s.note(date, feed.Symbol(), "Cannot buy %s as cash %.2f does not cover one share at %.2f", feed.Symbol(), cash, bar.Close)
	}

	return s.buy(date, feed, optional.Some(size), "buy and hold")
}
