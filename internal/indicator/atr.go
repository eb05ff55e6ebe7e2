package indicator

import (
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/thrasher-corp/gct-ta/indicators"
)

// ATR indicator implements the Average True Range.
type ATR struct {
	period int
}

func NewATR() Indicator {
	return &ATR{
		period: 14,
	}
}

func (a *ATR) Name() types.IndicatorType {
	return types.IndicatorTypeATR
}

// Expected parameters: period (int).
func (a *ATR) Config(params ...any) error {
	period, err := intParam(params, 0, "period")
	if err != nil {
		return err
	}

	a.period = period

	return nil
}

func (a *ATR) MinPeriod() int {
	return a.period + 1
}

func (a *ATR) Compute(bars []types.MarketData) (Line, error) {
	if len(bars) <= a.period {
		return NewLine(len(bars)), nil
	}

	out := indicators.ATR(
		sourceValues(bars, types.PriceSourceHigh),
		sourceValues(bars, types.PriceSourceLow),
		sourceValues(bars, types.PriceSourceClose),
		a.period,
	)

	return alignTail(out, len(bars), a.period), nil
}
