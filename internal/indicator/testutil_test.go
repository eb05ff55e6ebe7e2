package indicator

import (
	"time"

	"github.com/rxtech-lab/argo-equities/internal/types"
)

// barsFromCloses builds daily bars with a one point range around each close.
func barsFromCloses(closes ...float64) []types.MarketData {
	bars := make([]types.MarketData, len(closes))
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, c := range closes {
		bars[i] = types.MarketData{
			Symbol: "TEST",
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: 1000 + float64(i),
		}
	}

	return bars
}

func constant(value float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}

	return out
}

func ramp(from float64, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + step*float64(i)
	}

	return out
}
