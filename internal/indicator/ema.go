package indicator

import (
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/thrasher-corp/gct-ta/indicators"
)

// EMA indicator implements Exponential Moving Average calculation, seeded with the
// simple average of the first period values.
type EMA struct {
	period int
	source types.PriceSource
}

// NewEMA creates a new EMA indicator with default configuration.
func NewEMA() Indicator {
	return &EMA{
		period: 20,
		source: types.PriceSourceClose,
	}
}

func (e *EMA) Name() types.IndicatorType {
	return types.IndicatorTypeEMA
}

// Expected parameters: period (int), optional source (types.PriceSource, default close).
func (e *EMA) Config(params ...any) error {
	period, err := intParam(params, 0, "period")
	if err != nil {
		return err
	}

	source, err := sourceParam(params, 1, types.PriceSourceClose)
	if err != nil {
		return err
	}

	e.period = period
	e.source = source

	return nil
}

func (e *EMA) MinPeriod() int {
	return e.period
}

func (e *EMA) Compute(bars []types.MarketData) (Line, error) {
	return emaLine(sourceValues(bars, e.source), e.period), nil
}

func emaLine(values []float64, period int) Line {
	if len(values) < period {
		return NewLine(len(values))
	}

	return alignTail(indicators.EMA(values, period), len(values), period-1)
}
