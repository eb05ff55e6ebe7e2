package indicator

import (
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
)

// PPO is the Percentage Price Oscillator: the gap between a fast and a slow EMA of
// the close, as a percentage of the slow EMA.
type PPO struct {
	fast int
	slow int
}

func NewPPO() Indicator {
	return &PPO{
		fast: 12,
		slow: 26,
	}
}

func (p *PPO) Name() types.IndicatorType {
	return types.IndicatorTypePPO
}

// Expected parameters: fast period (int), slow period (int). No parameters keeps 12/26.
func (p *PPO) Config(params ...any) error {
	if len(params) == 0 {
		return nil
	}

	fast, err := intParam(params, 0, "fast period")
	if err != nil {
		return err
	}

	slow, err := intParam(params, 1, "slow period")
	if err != nil {
		return err
	}

	if fast >= slow {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "fast period %d must be below slow period %d", fast, slow)
	}

	p.fast = fast
	p.slow = slow

	return nil
}

func (p *PPO) MinPeriod() int {
	return p.slow
}

func (p *PPO) Compute(bars []types.MarketData) (Line, error) {
	closes := sourceValues(bars, types.PriceSourceClose)
	fast := emaLine(closes, p.fast)
	slow := emaLine(closes, p.slow)

	out := NewLine(len(bars))
	for i := range out {
		if fast.Valid(i) && slow.Valid(i) {
			out[i] = 100 * safeDiv(fast[i]-slow[i], slow[i])
		}
	}

	return out, nil
}
