package indicator

import (
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/thrasher-corp/gct-ta/indicators"
)

// RSI indicator implements the Relative Strength Index with Wilder smoothing.
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator with default configuration.
func NewRSI() Indicator {
	return &RSI{
		period: 14,
	}
}

func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Expected parameters: period (int).
func (r *RSI) Config(params ...any) error {
	period, err := intParam(params, 0, "period")
	if err != nil {
		return err
	}

	r.period = period

	return nil
}

func (r *RSI) MinPeriod() int {
	return r.period + 1
}

func (r *RSI) Compute(bars []types.MarketData) (Line, error) {
	if len(bars) <= r.period {
		return NewLine(len(bars)), nil
	}

	out := indicators.RSI(sourceValues(bars, types.PriceSourceClose), r.period)

	return alignTail(out, len(bars), r.period), nil
}
