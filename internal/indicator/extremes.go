package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-equities/internal/types"
)

// Highest is the rolling maximum of a price source over period bars.
type Highest struct {
	period int
	source types.PriceSource
}

func NewHighest() Indicator {
	return &Highest{period: 20, source: types.PriceSourceHigh}
}

func (h *Highest) Name() types.IndicatorType {
	return types.IndicatorTypeHighest
}

// Expected parameters: period (int), optional source (types.PriceSource, default high).
func (h *Highest) Config(params ...any) error {
	period, source, err := windowParams(params, types.PriceSourceHigh)
	if err != nil {
		return err
	}

	h.period, h.source = period, source

	return nil
}

func (h *Highest) MinPeriod() int {
	return h.period
}

func (h *Highest) Compute(bars []types.MarketData) (Line, error) {
	return rollingWindow(sourceValues(bars, h.source), h.period, math.Max), nil
}

// Lowest is the rolling minimum of a price source over period bars.
type Lowest struct {
	period int
	source types.PriceSource
}

func NewLowest() Indicator {
	return &Lowest{period: 20, source: types.PriceSourceLow}
}

func (l *Lowest) Name() types.IndicatorType {
	return types.IndicatorTypeLowest
}

// Expected parameters: period (int), optional source (types.PriceSource, default low).
func (l *Lowest) Config(params ...any) error {
	period, source, err := windowParams(params, types.PriceSourceLow)
	if err != nil {
		return err
	}

	l.period, l.source = period, source

	return nil
}

func (l *Lowest) MinPeriod() int {
	return l.period
}

func (l *Lowest) Compute(bars []types.MarketData) (Line, error) {
	return rollingWindow(sourceValues(bars, l.source), l.period, math.Min), nil
}

func windowParams(params []any, fallback types.PriceSource) (int, types.PriceSource, error) {
	period, err := intParam(params, 0, "period")
	if err != nil {
		return 0, "", err
	}

	source, err := sourceParam(params, 1, fallback)
	if err != nil {
		return 0, "", err
	}

	return period, source, nil
}

func rollingWindow(values []float64, period int, pick func(a, b float64) float64) Line {
	out := NewLine(len(values))
	for i := period - 1; i < len(values); i++ {
		acc := values[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			acc = pick(acc, values[j])
		}

		out[i] = acc
	}

	return out
}
