package strategy

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine"
	"github.com/rxtech-lab/argo-equities/internal/indicator"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
)

// CrossoverLongOnly never shorts. It holds the long proxy (the first ticker) while SMA1 is
// above SMA2 on it and the short proxy (the second ticker) while SMA1 is below.
type CrossoverLongOnly struct {
	Base
	sma1 int
	sma2 int

	long  *engine.Feed
	short *engine.Feed
	cross indicator.Line
	// trading is limited to the dates both tickers cover
	start time.Time
	end   time.Time

	readyToBuyLong  bool
	readyToBuyShort bool
}

func NewCrossoverLongOnly(opts Options) (Strategy, error) {
	cfg := opts.Config.CrossoverLongOnly
	if cfg.SMA1 >= cfg.SMA2 {
		return nil, errors.Newf(errors.ErrCodeStrategyConfigError, "sma1 (%d) must be below sma2 (%d)", cfg.SMA1, cfg.SMA2)
	}

	s := &CrossoverLongOnly{
		Base: newBase(types.StrategyCrossoverLongOnly, opts),
		sma1: cfg.SMA1,
		sma2: cfg.SMA2,
	}
	s.onBar = s.next

	return s, nil
}

func (s *CrossoverLongOnly) MinPeriod() int {
	return s.sma2
}

func (s *CrossoverLongOnly) Initialize(ctx engine.RuntimeContext) error {
	if err := s.Base.Initialize(ctx); err != nil {
		return err
	}

	if len(s.feeds) != 2 {
		return errors.Newf(errors.ErrCodeStrategyConfigError,
			"%s needs exactly two tickers (long proxy and short proxy), got %d", s.name, len(s.feeds))
	}

	s.long, s.short = s.feeds[0], s.feeds[1]
	s.readyToBuyLong, s.readyToBuyShort = false, false

	longDates, shortDates := s.long.Dates(), s.short.Dates()
	if len(longDates) == 0 || len(shortDates) == 0 {
		return errors.New(errors.ErrCodeStrategyConfigError, "both tickers need bars")
	}

	s.start = laterOf(longDates[0], shortDates[0])
	s.end = earlierOf(longDates[len(longDates)-1], shortDates[len(shortDates)-1])

	cross, err := s.smaCross(s.long, s.sma1, s.sma2)
	if err != nil {
		return err
	}

	s.cross = cross

	return nil
}

func (s *CrossoverLongOnly) next(date time.Time, _ []*engine.Feed) error {
	if date.Before(s.start) || date.After(s.end) {
		return nil
	}

	if s.hasOrder(s.long.Symbol()) || s.hasOrder(s.short.Symbol()) {
		return nil
	}

	// switch legs once the previous leg has been sold. A cross on the switching bar is
	// dropped, otherwise both legs could be bought on the same bar.
	if s.readyToBuyLong {
		s.readyToBuyLong = false

		if err := s.note(date, s.long.Symbol(), "Buying %s after closing short position", s.long.Symbol()); err != nil {
			return err
		}

		return s.buy(date, s.long, optional.None[float64](), "switch to long proxy")
	}

	if s.readyToBuyShort {
		s.readyToBuyShort = false

		if err := s.note(date, s.short.Symbol(), "Buying %s after closing long position", s.short.Symbol()); err != nil {
			return err
		}

		return s.buy(date, s.short, optional.None[float64](), "switch to short proxy")
	}

	if !s.long.Fresh() {
		return nil
	}

	cross := s.cross.At(s.long.Index())
	if cross.IsNone() {
		return nil
	}

	switch cross.Unwrap() {
	case 1:
		return s.onBuySignal(date)
	case -1:
		return s.onSellSignal(date)
	}

	return nil
}

func (s *CrossoverLongOnly) onBuySignal(date time.Time) error {
	longSymbol, shortSymbol := s.long.Symbol(), s.short.Symbol()

	switch {
	case s.position(shortSymbol).Size > 0:
		if err := s.note(date, shortSymbol, "Selling %s", shortSymbol); err != nil {
			return err
		}

		s.readyToBuyLong = true

		return s.closePosition(date, s.short, "buy signal on long proxy")
	case s.position(longSymbol).Size > 0:
		return s.note(date, longSymbol, "Cannot action buy signal for %s as I am long already", longSymbol)
	default:
		if err := s.note(date, longSymbol, "Buying %s with no previous position", longSymbol); err != nil {
			return err
		}

		return s.buy(date, s.long, optional.None[float64](), "buy signal")
	}
}

func (s *CrossoverLongOnly) onSellSignal(date time.Time) error {
	longSymbol, shortSymbol := s.long.Symbol(), s.short.Symbol()

	switch {
	case s.position(shortSymbol).Size > 0:
		return s.note(date, shortSymbol, "Cannot action sell signal for %s as I am short already", longSymbol)
	case s.position(longSymbol).Size > 0:
		if err := s.note(date, longSymbol, "Selling %s", longSymbol); err != nil {
			return err
		}

		s.readyToBuyShort = true

		return s.closePosition(date, s.long, "sell signal on long proxy")
	default:
		if err := s.note(date, shortSymbol, "Buying %s with no previous position", shortSymbol); err != nil {
			return err
		}

		return s.buy(date, s.short, optional.None[float64](), "sell signal")
	}
}

func laterOf(a time.Time, b time.Time) time.Time {
	if a.After(b) {
		return a
	}

	return b
}

func earlierOf(a time.Time, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}

	return b
}
