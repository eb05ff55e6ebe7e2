package backtester

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-equities/internal/config"
	eventlog "github.com/rxtech-lab/argo-equities/internal/log"
	"github.com/rxtech-lab/argo-equities/internal/strategy"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/internal/universe"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// OptimisationFile is written to the result folder with every combination tried.
const OptimisationFile = "optimisation.yaml"

// Combination is one point of the CrossoverPlus parameter grid.
type Combination struct {
	SMA1             int
	SMA2             int
	RSICrossoverLow  int
	RSICrossoverHigh int
	RSIPeriod        int
}

// Parameters returns the combination keyed by config names.
func (c Combination) Parameters() map[string]float64 {
	return map[string]float64{
		"sma1":               float64(c.SMA1),
		"sma2":               float64(c.SMA2),
		"rsi_crossover_low":  float64(c.RSICrossoverLow),
		"rsi_crossover_high": float64(c.RSICrossoverHigh),
		"rsi_period":         float64(c.RSIPeriod),
	}
}

// apply returns cfg with the combination set on the CrossoverPlus options.
func (c Combination) apply(cfg config.Config) config.Config {
	cfg.CrossoverPlus.SMA1 = c.SMA1
	cfg.CrossoverPlus.SMA2 = c.SMA2
	cfg.CrossoverPlus.RSICrossoverLow = c.RSICrossoverLow
	cfg.CrossoverPlus.RSICrossoverHigh = c.RSICrossoverHigh
	cfg.CrossoverPlus.RSIPeriod = c.RSIPeriod

	return cfg
}

// Grid lists every combination of the optimise ranges. Combinations whose fast average
// is not faster than the slow one, or whose RSI band is inverted, are skipped.
func Grid(opts config.CrossoverPlusOptions) []Combination {
	var grid []Combination

	for _, sma1 := range opts.SMA1Range.Values() {
		for _, sma2 := range opts.SMA2Range.Values() {
			if sma1 >= sma2 {
				continue
			}

			for _, low := range opts.RSILowRange.Values() {
				for _, high := range opts.RSIHighRange.Values() {
					if low >= high {
						continue
					}

					for _, period := range opts.RSIPeriodRange.Values() {
						grid = append(grid, Combination{
							SMA1:             sma1,
							SMA2:             sma2,
							RSICrossoverLow:  low,
							RSICrossoverHigh: high,
							RSIPeriod:        period,
						})
					}
				}
			}
		}
	}

	return grid
}

// optimise backtests CrossoverPlus over the grid, then reruns the best combination with
// the strategy log and the result folder. Results are ordered by CAGR, best first.
func (b *Backtester) optimise(ctx context.Context, feeds []feedData, r universe.Range, outputDir string, folder string) ([]types.OptimisationResult, strategy.Summary, error) {
	grid := Grid(b.cfg.CrossoverPlus)
	if len(grid) == 0 {
		return nil, strategy.Summary{}, errors.New(errors.ErrCodeOptimisationUnsupported, "optimise ranges produce no valid combination")
	}

	parallel := b.cfg.CrossoverPlus.OptimiseParallel
	if parallel <= 0 {
		parallel = runtime.GOMAXPROCS(0)
	}

	b.logger.Info("Optimising CrossoverPlus",
		zap.Int("combinations", len(grid)),
		zap.Int("parallel", parallel),
	)

	var bar *progressbar.ProgressBar
	if b.showProgress {
		bar = progressbar.NewOptions(len(grid),
			progressbar.OptionSetDescription("optimise"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
		)
	}

	results := make([]types.OptimisationResult, len(grid))

	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i, combination := range grid {
		g.Go(func() error {
			summary, err := b.runStrategy(gctx, runSpec{
				name:         types.StrategyCrossoverPlus,
				cfg:          combination.apply(b.cfg),
				feeds:        feeds,
				r:            r,
				eventLog:     eventlog.NopEventLog{},
				cheatOnClose: b.cfg.GlobalOptions.CheatOnClose,
			})
			if err != nil {
				return errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err,
					"optimisation run sma1=%d sma2=%d rsi_low=%d rsi_high=%d rsi_period=%d failed",
					combination.SMA1, combination.SMA2, combination.RSICrossoverLow, combination.RSICrossoverHigh, combination.RSIPeriod)
			}

			mu.Lock()
			defer mu.Unlock()

			results[i] = types.OptimisationResult{
				Parameters: combination.Parameters(),
				CAGR:       summary.CAGR,
				FinalValue: summary.FinalValue,
				Trades:     summary.Trades,
			}

			if bar != nil {
				_ = bar.Add(1)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, strategy.Summary{}, err
	}

	if bar != nil {
		_ = bar.Finish()
	}

	// grid order breaks ties
	order := make([]int, len(grid))
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(i, j int) bool {
		return results[order[i]].CAGR > results[order[j]].CAGR
	})

	sorted := make([]types.OptimisationResult, len(order))
	for i, idx := range order {
		sorted[i] = results[idx]
	}

	best := grid[order[0]]

	b.logger.Info("Best CrossoverPlus combination",
		zap.Int("sma1", best.SMA1),
		zap.Int("sma2", best.SMA2),
		zap.Int("rsi_crossover_low", best.RSICrossoverLow),
		zap.Int("rsi_crossover_high", best.RSICrossoverHigh),
		zap.Int("rsi_period", best.RSIPeriod),
		zap.Float64("cagr", sorted[0].CAGR),
	)

	strategyLog := eventlog.NewEventLog(filepath.Join(outputDir, eventlog.StrategyLogFile), true)
	summary, err := b.runStrategy(ctx, runSpec{
		name:         types.StrategyCrossoverPlus,
		cfg:          best.apply(b.cfg),
		feeds:        feeds,
		r:            r,
		eventLog:     strategyLog,
		cheatOnClose: b.cfg.GlobalOptions.CheatOnClose,
		folder:       folder,
	})
	if err = closeLog(strategyLog, err); err != nil {
		return sorted, strategy.Summary{}, err
	}

	if folder != "" {
		if err := os.MkdirAll(folder, 0755); err != nil {
			return sorted, summary, errors.Wrapf(errors.ErrCodeDataWriteFailed, err, "failed to create %s", folder)
		}

		if err := types.WriteOptimisationResults(filepath.Join(folder, OptimisationFile), sorted); err != nil {
			return sorted, summary, errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to write optimisation results", err)
		}
	}

	return sorted, summary, nil
}
