package indicator

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/types"
)

// Indicator interface defines methods that any technical indicator must implement.
// Indicators compute their whole line over a feed in one pass.
type Indicator interface {
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// Config sets the indicator parameters. The expected parameters depend on the indicator.
	Config(params ...any) error
	// Compute returns one value per bar, NaN while the indicator is warming up
	Compute(bars []types.MarketData) (Line, error)
	// MinPeriod is the number of bars needed before the first valid value
	MinPeriod() int
}

// Line is an indicator output aligned with the bars it was computed from.
type Line []float64

// NewLine returns a line of n NaN values.
func NewLine(n int) Line {
	line := make(Line, n)
	for i := range line {
		line[i] = math.NaN()
	}

	return line
}

// Value returns the value at i, NaN when i is out of range.
func (l Line) Value(i int) float64 {
	if i < 0 || i >= len(l) {
		return math.NaN()
	}

	return l[i]
}

// Valid reports whether the line holds a number at i.
func (l Line) Valid(i int) bool {
	v := l.Value(i)

	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// At returns the value at i, or None during warm-up.
func (l Line) At(i int) optional.Option[float64] {
	if !l.Valid(i) {
		return optional.None[float64]()
	}

	return optional.Some(l[i])
}

// Slope returns line[i] - line[i-1] for every i.
func Slope(line Line) Line {
	out := NewLine(len(line))
	for i := 1; i < len(line); i++ {
		if line.Valid(i) && line.Valid(i-1) {
			out[i] = line[i] - line[i-1]
		}
	}

	return out
}

// safeDiv returns NaN instead of Inf when dividing by zero.
func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return math.NaN()
	}

	return numerator / denominator
}

func sourceValues(bars []types.MarketData, source types.PriceSource) []float64 {
	values := make([]float64, len(bars))
	for i, bar := range bars {
		values[i] = bar.Value(source)
	}

	return values
}

// alignTail copies out into a line of n values aligned on the last bar, blanking
// everything before warmup. It accepts both full-length and trimmed outputs.
func alignTail(out []float64, n int, warmup int) Line {
	line := NewLine(n)
	offset := n - len(out)

	for j, v := range out {
		i := offset + j
		if i < 0 || i < warmup {
			continue
		}

		if math.IsInf(v, 0) {
			continue
		}

		line[i] = v
	}

	return line
}
