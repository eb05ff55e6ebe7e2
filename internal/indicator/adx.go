package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-equities/internal/types"
)

// ADX implements the Average Directional Movement Index. Directional movement and
// true range are smoothed with Wilder's moving average, and the resulting DX is
// smoothed again over the same period.
type ADX struct {
	period int
}

func NewADX() Indicator {
	return &ADX{
		period: 14,
	}
}

func (a *ADX) Name() types.IndicatorType {
	return types.IndicatorTypeADX
}

// Expected parameters: period (int).
func (a *ADX) Config(params ...any) error {
	period, err := intParam(params, 0, "period")
	if err != nil {
		return err
	}

	a.period = period

	return nil
}

func (a *ADX) MinPeriod() int {
	return 2 * a.period
}

func (a *ADX) Compute(bars []types.MarketData) (Line, error) {
	n := len(bars)
	plusDM := NewLine(n)
	minusDM := NewLine(n)
	trueRange := NewLine(n)

	for i := 1; i < n; i++ {
		upMove := bars[i].High - bars[i-1].High
		downMove := bars[i-1].Low - bars[i].Low

		plusDM[i] = 0
		minusDM[i] = 0

		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}

		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}

		prevClose := bars[i-1].Close
		trueRange[i] = math.Max(bars[i].High, prevClose) - math.Min(bars[i].Low, prevClose)
	}

	smoothedPlus := wilderSmooth(plusDM, a.period)
	smoothedMinus := wilderSmooth(minusDM, a.period)
	smoothedTR := wilderSmooth(trueRange, a.period)

	dx := NewLine(n)
	for i := range dx {
		if !smoothedTR.Valid(i) {
			continue
		}

		plusDI := 100 * safeDiv(smoothedPlus[i], smoothedTR[i])
		minusDI := 100 * safeDiv(smoothedMinus[i], smoothedTR[i])
		dx[i] = 100 * safeDiv(math.Abs(plusDI-minusDI), plusDI+minusDI)
	}

	return wilderSmooth(dx, a.period), nil
}

// wilderSmooth is Wilder's moving average seeded with the simple average of the first
// period valid values. It restarts after a NaN.
func wilderSmooth(values Line, period int) Line {
	out := NewLine(len(values))
	alpha := 1.0 / float64(period)
	sum := 0.0
	count := 0
	prev := math.NaN()

	for i, v := range values {
		if math.IsNaN(v) {
			sum, count, prev = 0, 0, math.NaN()

			continue
		}

		if math.IsNaN(prev) {
			sum += v
			count++

			if count == period {
				prev = sum / float64(period)
				out[i] = prev
			}

			continue
		}

		prev = prev + alpha*(v-prev)
		out[i] = prev
	}

	return out
}
