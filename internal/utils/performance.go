package utils

import (
	"fmt"
	"math"
	"time"
)

// DaysPerYear converts elapsed calendar days into years.
const DaysPerYear = 365.25

// TradingDaysPerYear annualises daily Sharpe ratios.
const TradingDaysPerYear = 252

// CAGR is the compound annual growth rate in percent of growing startValue into
// finalValue over days calendar days. It is zero when days or startValue is not positive.
func CAGR(startValue float64, finalValue float64, days int) float64 {
	if days <= 0 || startValue <= 0 {
		return 0
	}

	ratio := finalValue / startValue
	if ratio <= 0 {
		return -100
	}

	return 100 * (math.Pow(ratio, 1/(float64(days)/DaysPerYear)) - 1)
}

// TotalReturn is the return in percent of finalValue over startValue.
func TotalReturn(startValue float64, finalValue float64) float64 {
	if startValue == 0 {
		return 0
	}

	return 100 * (finalValue/startValue - 1)
}

// MaxDrawdown is the largest fall from a running peak in percent of that peak.
func MaxDrawdown(values []float64) float64 {
	peak := math.Inf(-1)
	maxDrawdown := 0.0

	for _, value := range values {
		if value > peak {
			peak = value
		}

		if peak > 0 {
			drawdown := 100 * (peak - value) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}

// DailyReturns is the fractional change between consecutive values.
func DailyReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(values)-1)

	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			returns = append(returns, 0)

			continue
		}

		returns = append(returns, values[i]/values[i-1]-1)
	}

	return returns
}

// Sharpe is the annualised Sharpe ratio of daily returns with a zero risk-free rate.
// It is zero when there are fewer than two returns or they do not vary.
func Sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}

	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}

	std := math.Sqrt(variance / float64(len(returns)-1))
	if std == 0 || math.IsNaN(std) {
		return 0
	}

	return mean / std * math.Sqrt(TradingDaysPerYear)
}

// FormatDuration formats d as hh:mm:ss.
func FormatDuration(d time.Duration) string {
	seconds := int(d.Round(time.Second).Seconds())
	if seconds < 0 {
		seconds = 0
	}

	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}
