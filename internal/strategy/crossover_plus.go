package strategy

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine"
	"github.com/rxtech-lab/argo-equities/internal/indicator"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
)

type crossoverPlusLines struct {
	sma1 indicator.Line
	sma2 indicator.Line
	rsi  indicator.Line
	ppo  indicator.Line
}

// CrossoverPlus buys when the fast SMA is above the slow SMA, RSI is oversold and PPO
// is positive, and closes on the mirror of all three.
type CrossoverPlus struct {
	Base
	sma1      int
	sma2      int
	rsiPeriod int
	rsiLow    float64
	rsiHigh   float64
	ppoFast   int
	ppoSlow   int
	limit     int
	lines     map[string]crossoverPlusLines
}

func NewCrossoverPlus(opts Options) (Strategy, error) {
	cfg := opts.Config.CrossoverPlus
	if cfg.SMA1 >= cfg.SMA2 {
		return nil, errors.Newf(errors.ErrCodeStrategyConfigError, "sma1 (%d) must be below sma2 (%d)", cfg.SMA1, cfg.SMA2)
	}

	if cfg.RSICrossoverLow >= cfg.RSICrossoverHigh {
		return nil, errors.Newf(errors.ErrCodeStrategyConfigError,
			"rsi_crossover_low (%d) must be below rsi_crossover_high (%d)", cfg.RSICrossoverLow, cfg.RSICrossoverHigh)
	}

	s := &CrossoverPlus{
		Base:      newBase(types.StrategyCrossoverPlus, opts),
		sma1:      cfg.SMA1,
		sma2:      cfg.SMA2,
		rsiPeriod: cfg.RSIPeriod,
		rsiLow:    float64(cfg.RSICrossoverLow),
		rsiHigh:   float64(cfg.RSICrossoverHigh),
		ppoFast:   cfg.PPOFast,
		ppoSlow:   cfg.PPOSlow,
		limit:     opts.Config.GlobalOptions.PositionLimit,
	}
	s.onBar = s.next

	return s, nil
}

func (s *CrossoverPlus) MinPeriod() int {
	return max(s.sma2, s.ppoSlow, s.rsiPeriod+1)
}

func (s *CrossoverPlus) Initialize(ctx engine.RuntimeContext) error {
	if err := s.Base.Initialize(ctx); err != nil {
		return err
	}

	s.lines = make(map[string]crossoverPlusLines, len(s.feeds))

	for _, feed := range s.feeds {
		var (
			lines crossoverPlusLines
			err   error
		)

		if lines.sma1, err = s.compute(feed, types.IndicatorTypeSMA, s.sma1); err != nil {
			return err
		}

		if lines.sma2, err = s.compute(feed, types.IndicatorTypeSMA, s.sma2); err != nil {
			return err
		}

		if lines.rsi, err = s.compute(feed, types.IndicatorTypeRSI, s.rsiPeriod); err != nil {
			return err
		}

		if lines.ppo, err = s.compute(feed, types.IndicatorTypePPO, s.ppoFast, s.ppoSlow); err != nil {
			return err
		}

		s.lines[feed.Symbol()] = lines
	}

	return nil
}

func (s *CrossoverPlus) next(date time.Time, feeds []*engine.Feed) error {
	for _, feed := range feeds {
		symbol := feed.Symbol()
		if !feed.Fresh() || s.hasOrder(symbol) {
			continue
		}

		i := feed.Index()
		lines := s.lines[symbol]

		if !lines.sma1.Valid(i) || !lines.sma2.Valid(i) || !lines.rsi.Valid(i) || !lines.ppo.Valid(i) {
			continue
		}

		sma1, sma2, rsi, ppo := lines.sma1[i], lines.sma2[i], lines.rsi[i], lines.ppo[i]
		size := s.position(symbol).Size

		var err error

		switch {
		case sma1 >= sma2 && rsi <= s.rsiLow && ppo > 0:
			switch {
			case size != 0:
				err = s.note(date, symbol, "Cannot buy %s as I already long", symbol)
			case s.positionCount < s.limit:
				err = s.buy(date, feed, optional.None[float64](), "trend up and oversold")
			default:
				err = s.note(date, symbol, "Cannot buy %s as I have %d positions already", symbol, s.positionCount)
			}
		case sma1 < sma2 && rsi >= s.rsiHigh && ppo < 0:
			if size != 0 {
				err = s.closePosition(date, feed, "trend down and overbought")
			} else {
				err = s.note(date, symbol, "Cannot sell %s as I am not long", symbol)
			}
		}

		if err != nil {
			return err
		}
	}

	return nil
}
