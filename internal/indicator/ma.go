package indicator

import (
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/thrasher-corp/gct-ta/indicators"
)

// SMA indicator implements Simple Moving Average calculation.
type SMA struct {
	period int
	source types.PriceSource
}

// NewSMA creates a new SMA indicator with default configuration.
func NewSMA() Indicator {
	return &SMA{
		period: 20,
		source: types.PriceSourceClose,
	}
}

// Name returns the name of the indicator.
func (m *SMA) Name() types.IndicatorType {
	return types.IndicatorTypeSMA
}

// Expected parameters: period (int), optional source (types.PriceSource, default close).
func (m *SMA) Config(params ...any) error {
	period, err := intParam(params, 0, "period")
	if err != nil {
		return err
	}

	source, err := sourceParam(params, 1, types.PriceSourceClose)
	if err != nil {
		return err
	}

	m.period = period
	m.source = source

	return nil
}

func (m *SMA) MinPeriod() int {
	return m.period
}

func (m *SMA) Compute(bars []types.MarketData) (Line, error) {
	if len(bars) < m.period {
		return NewLine(len(bars)), nil
	}

	out := indicators.SMA(sourceValues(bars, m.source), m.period)

	return alignTail(out, len(bars), m.period-1), nil
}
