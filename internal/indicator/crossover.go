package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
)

// CrossOver emits +1 on the bar where the fast line crosses above the slow line,
// -1 where it crosses below and 0 otherwise.
type CrossOver struct {
	fast Indicator
	slow Indicator
}

func NewCrossOver() Indicator {
	return &CrossOver{}
}

func (c *CrossOver) Name() types.IndicatorType {
	return types.IndicatorTypeCrossOver
}

// Expected parameters: fast (Indicator), slow (Indicator).
func (c *CrossOver) Config(params ...any) error {
	if len(params) != 2 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 2 parameters: fast and slow indicators")
	}

	fast, ok := params[0].(Indicator)
	if !ok {
		return errors.New(errors.ErrCodeInvalidParameter, "invalid type for fast parameter, expected Indicator")
	}

	slow, ok := params[1].(Indicator)
	if !ok {
		return errors.New(errors.ErrCodeInvalidParameter, "invalid type for slow parameter, expected Indicator")
	}

	c.fast, c.slow = fast, slow

	return nil
}

func (c *CrossOver) MinPeriod() int {
	if c.fast == nil || c.slow == nil {
		return 0
	}

	return max(c.fast.MinPeriod(), c.slow.MinPeriod()) + 1
}

func (c *CrossOver) Compute(bars []types.MarketData) (Line, error) {
	if c.fast == nil || c.slow == nil {
		return nil, errors.New(errors.ErrCodeIndicatorCalculation, "crossover is not configured")
	}

	fast, err := c.fast.Compute(bars)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndicatorCalculation, "failed to compute fast line", err)
	}

	slow, err := c.slow.Compute(bars)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndicatorCalculation, "failed to compute slow line", err)
	}

	return Cross(fast, slow), nil
}

// Cross compares two aligned lines. Bars where the lines are equal do not reset the
// side, so touching and separating again on the same side is not a cross.
func Cross(fast, slow Line) Line {
	out := NewLine(len(fast))
	lastDiff := math.NaN()

	for i := range fast {
		if !fast.Valid(i) || !slow.Valid(i) {
			continue
		}

		diff := fast[i] - slow[i]

		if math.IsNaN(lastDiff) {
			out[i] = math.NaN()
		} else {
			switch {
			case lastDiff < 0 && diff > 0:
				out[i] = 1
			case lastDiff > 0 && diff < 0:
				out[i] = -1
			default:
				out[i] = 0
			}
		}

		if diff != 0 {
			lastDiff = diff
		}
	}

	return out
}
