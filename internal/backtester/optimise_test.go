package backtester

import (
	"testing"

	"github.com/rxtech-lab/argo-equities/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrid(t *testing.T) {
	opts := config.CrossoverPlusOptions{
		SMA1Range:      config.OptimiseRange{Low: 10, High: 30, Step: 10},
		SMA2Range:      config.OptimiseRange{Low: 20, High: 40, Step: 10},
		RSILowRange:    config.OptimiseRange{Low: 30, High: 80, Step: 40},
		RSIHighRange:   config.OptimiseRange{Low: 70, High: 71, Step: 1},
		RSIPeriodRange: config.OptimiseRange{Low: 7, High: 15, Step: 7},
	}

	grid := Grid(opts)

	// (10,20) (10,30) (20,30), rsi low 30 only, two periods
	require.Len(t, grid, 6)
	assert.Equal(t, Combination{SMA1: 10, SMA2: 20, RSICrossoverLow: 30, RSICrossoverHigh: 70, RSIPeriod: 7}, grid[0])
	assert.Equal(t, Combination{SMA1: 20, SMA2: 30, RSICrossoverLow: 30, RSICrossoverHigh: 70, RSIPeriod: 14}, grid[5])

	for _, c := range grid {
		assert.Less(t, c.SMA1, c.SMA2)
		assert.Less(t, c.RSICrossoverLow, c.RSICrossoverHigh)
	}
}

func TestGridEmptyRange(t *testing.T) {
	assert.Empty(t, Grid(config.CrossoverPlusOptions{}))
}

func TestCombinationApply(t *testing.T) {
	c := Combination{SMA1: 5, SMA2: 15, RSICrossoverLow: 25, RSICrossoverHigh: 75, RSIPeriod: 9}

	cfg := c.apply(config.DefaultConfig())
	assert.Equal(t, 5, cfg.CrossoverPlus.SMA1)
	assert.Equal(t, 15, cfg.CrossoverPlus.SMA2)
	assert.Equal(t, 25, cfg.CrossoverPlus.RSICrossoverLow)
	assert.Equal(t, 75, cfg.CrossoverPlus.RSICrossoverHigh)
	assert.Equal(t, 9, cfg.CrossoverPlus.RSIPeriod)

	assert.Equal(t, map[string]float64{
		"sma1":               5,
		"sma2":               15,
		"rsi_crossover_low":  25,
		"rsi_crossover_high": 75,
		"rsi_period":         9,
	}, c.Parameters())
}
