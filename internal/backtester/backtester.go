package backtester

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine"
	v1 "github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-equities/internal/config"
	eventlog "github.com/rxtech-lab/argo-equities/internal/log"
	"github.com/rxtech-lab/argo-equities/internal/logger"
	"github.com/rxtech-lab/argo-equities/internal/strategy"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/internal/universe"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BenchmarkFolder is the sub folder of a run folder holding the benchmark results.
const BenchmarkFolder = "benchmark"

// Result is the outcome of a strategy run and of the benchmark over the same range.
type Result struct {
	Strategy  strategy.Summary
	Benchmark strategy.Summary
	Range     universe.Range
	Selection universe.Selection
	// Optimisation holds every combination tried, best CAGR first. It is empty unless the
	// CrossoverPlus grid was run, in which case Strategy is the best combination.
	Optimisation []types.OptimisationResult
	// ResultFolder is empty when reports are disabled.
	ResultFolder string
}

// Backtester loads the data, picks the tickers and runs a strategy next to the benchmark.
type Backtester struct {
	cfg          config.Config
	logger       *logger.Logger
	strategies   strategy.Registry
	dataSource   datasource.DataSource
	showProgress bool
	now          func() time.Time
}

type Option func(*Backtester)

// WithRegistry replaces the built-in strategies.
func WithRegistry(registry strategy.Registry) Option {
	return func(b *Backtester) {
		b.strategies = registry
	}
}

// WithDataSource uses an initialized data source instead of loading data.path.
// The caller keeps ownership and closes it.
func WithDataSource(ds datasource.DataSource) Option {
	return func(b *Backtester) {
		b.dataSource = ds
	}
}

// WithProgress shows a progress bar on stderr while the engines run.
func WithProgress(show bool) Option {
	return func(b *Backtester) {
		b.showProgress = show
	}
}

// WithClock sets the clock used to name the result folder.
func WithClock(now func() time.Time) Option {
	return func(b *Backtester) {
		b.now = now
	}
}

func NewBacktester(cfg config.Config, log *logger.Logger, opts ...Option) *Backtester {
	if log == nil {
		log = logger.NewNopLogger()
	}

	b := &Backtester{
		cfg:        cfg,
		logger:     log.Named("backtester"),
		strategies: strategy.NewDefaultRegistry(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// feedData is the bars of one ticker inside the comparison range.
type feedData struct {
	symbol string
	bars   []types.MarketData
}

// Run backtests name and the benchmark over the comparison range of the data.
func (b *Backtester) Run(ctx context.Context, name types.StrategyName) (Result, error) {
	if !slices.Contains(types.RunnableStrategies, name) || !b.strategies.Has(name) {
		return Result{}, errors.Newf(errors.ErrCodeUnsupportedStrategy, "strategy %s must be one of %s", name, runnableNames())
	}

	outputDir := b.cfg.GlobalOptions.OutputDir
	if err := eventlog.Clean(outputDir); err != nil {
		return Result{}, err
	}

	ds, closeDataSource, err := b.openDataSource()
	if err != nil {
		return Result{}, err
	}
	defer closeDataSource()

	r, err := b.comparisonRange(ds)
	if err != nil {
		return Result{}, err
	}

	b.logger.Info("Comparison range",
		zap.String("start", r.Start.Format(time.DateOnly)),
		zap.String("end", r.End.Format(time.DateOnly)),
		zap.Float64("years", r.Years()),
	)

	selection, err := b.selectTickers(ds, name, r)
	if err != nil {
		return Result{}, err
	}

	if err := logDiscarded(filepath.Join(outputDir, eventlog.StrategyLogFile), r, selection); err != nil {
		return Result{}, err
	}

	if len(selection.Added) == 0 {
		return Result{}, errors.Newf(errors.ErrCodeBacktestNoFeeds, "no ticker has enough data for %s", name)
	}

	feeds, err := readFeeds(ds, selection.Added, r)
	if err != nil {
		return Result{}, err
	}

	benchmarkFeeds, err := readFeeds(ds, []string{b.cfg.Data.Benchmark}, r)
	if err != nil {
		return Result{}, err
	}

	result := Result{Range: r, Selection: selection}

	if b.cfg.GlobalOptions.Reports {
		result.ResultFolder = filepath.Join(outputDir, fmt.Sprintf("%s-%s", name, b.now().Format("20060102-150405")))
	}

	if name == types.StrategyCrossoverPlus && b.cfg.CrossoverPlus.Optimise {
		result.Optimisation, result.Strategy, err = b.optimise(ctx, feeds, r, outputDir, result.ResultFolder)
	} else {
		strategyLog := eventlog.NewEventLog(filepath.Join(outputDir, eventlog.StrategyLogFile), true)
		result.Strategy, err = b.runStrategy(ctx, runSpec{
			name:         name,
			cfg:          b.cfg,
			feeds:        feeds,
			r:            r,
			eventLog:     strategyLog,
			cheatOnClose: b.cfg.GlobalOptions.CheatOnClose,
			folder:       result.ResultFolder,
			showProgress: b.showProgress,
		})
		err = closeLog(strategyLog, err)
	}

	if err != nil {
		return result, err
	}

	benchmarkFolder := ""
	if result.ResultFolder != "" {
		benchmarkFolder = filepath.Join(result.ResultFolder, BenchmarkFolder)
	}

	benchmarkLog := eventlog.NewEventLog(filepath.Join(outputDir, eventlog.BenchmarkLogFile), true)
	result.Benchmark, err = b.runStrategy(ctx, runSpec{
		name:         types.StrategyBenchmark,
		cfg:          b.cfg,
		feeds:        benchmarkFeeds,
		r:            r,
		eventLog:     benchmarkLog,
		cheatOnClose: true,
		folder:       benchmarkFolder,
		showProgress: b.showProgress,
	})
	if err = closeLog(benchmarkLog, err); err != nil {
		return result, err
	}

	b.logger.Info("Backtest finished",
		zap.String("strategy", string(name)),
		zap.Float64("strategy_value", result.Strategy.FinalValue),
		zap.Float64("strategy_cagr", result.Strategy.CAGR),
		zap.Float64("benchmark_value", result.Benchmark.FinalValue),
		zap.Float64("benchmark_cagr", result.Benchmark.CAGR),
	)

	return result, nil
}

func (b *Backtester) openDataSource() (datasource.DataSource, func(), error) {
	if b.dataSource != nil {
		return b.dataSource, func() {}, nil
	}

	ds, err := datasource.NewDataSource("", b.cfg.LoadOptions(), b.logger)
	if err != nil {
		return nil, nil, err
	}

	if err := ds.Initialize(b.cfg.Data.Path); err != nil {
		_ = ds.Close()

		return nil, nil, err
	}

	return ds, func() { _ = ds.Close() }, nil
}

func (b *Backtester) comparisonRange(ds datasource.DataSource) (universe.Range, error) {
	first, last, err := ds.DateRange(optional.None[string]())
	if err != nil {
		return universe.Range{}, err
	}

	benchmarkFirst, benchmarkLast, err := ds.DateRange(optional.Some(b.cfg.Data.Benchmark))
	if err != nil {
		return universe.Range{}, errors.Wrapf(errors.ErrCodeDataNotFound, err, "benchmark %s has no data", b.cfg.Data.Benchmark)
	}

	startOverride, err := b.cfg.Data.StartOverride()
	if err != nil {
		return universe.Range{}, err
	}

	endOverride, err := b.cfg.Data.EndOverride()
	if err != nil {
		return universe.Range{}, err
	}

	return universe.ComparisonRange(
		universe.DateSpan{First: first, Last: last},
		universe.DateSpan{First: benchmarkFirst, Last: benchmarkLast},
		startOverride,
		endOverride,
	)
}

// selectTickers picks the candidates and drops the excluded tickers, the benchmark and
// the tickers without enough rows for the strategy.
func (b *Backtester) selectTickers(ds datasource.DataSource, name types.StrategyName, r universe.Range) (universe.Selection, error) {
	all, err := ds.Tickers()
	if err != nil {
		return universe.Selection{}, err
	}

	var constituents []string

	if b.cfg.Data.Bulk && b.cfg.GlobalOptions.SmallCapOnly && b.cfg.Data.Constituents != "" {
		constituents, err = universe.LoadConstituents(filepath.Join(b.cfg.Data.Path, b.cfg.Data.Constituents+".csv"))
		if err != nil {
			return universe.Selection{}, err
		}
	}

	candidates := universe.SelectTickers(universe.SelectionOptions{
		Bulk:         b.cfg.Data.Bulk,
		SmallCapOnly: b.cfg.GlobalOptions.SmallCapOnly,
		Tickers:      b.cfg.Data.Tickers,
	}, all, constituents)

	excluded := append([]string{}, b.cfg.Data.TickersForExclusion...)
	if b.cfg.Data.Bulk {
		excluded = append(excluded, b.cfg.Data.Benchmark)
	}

	return universe.FilterTickers(ds, candidates, excluded, universe.MinimumRows(name, b.cfg), r, b.logger)
}

// logDiscarded writes why each discarded ticker was refused to the strategy log, dated at
// the start of the range. The strategy run appends to the same file afterwards.
func logDiscarded(path string, r universe.Range, selection universe.Selection) error {
	if len(selection.Discarded) == 0 {
		return nil
	}

	log := eventlog.NewEventLog(path, true)

	var err error

	for _, ticker := range selection.Discarded {
		reason, ok := selection.Reasons[ticker]
		if !ok {
			continue
		}

		if err = log.Strategy(r.Start, ticker, reason.Error(), eventlog.Counts{}); err != nil {
			break
		}
	}

	return closeLog(log, err)
}

// readFeeds reads the bars of every ticker strictly inside r, keeping the order of tickers.
func readFeeds(ds datasource.DataSource, tickers []string, r universe.Range) ([]feedData, error) {
	feeds := make([]feedData, len(tickers))

	var mu sync.Mutex

	g := new(errgroup.Group)

	for i, ticker := range tickers {
		g.Go(func() error {
			bars, err := ds.ReadTicker(ticker, optional.Some(r.Start), optional.Some(r.End))
			if err != nil {
				return err
			}

			if len(bars) == 0 {
				return errors.Newf(errors.ErrCodeDataNotFound, "no bars for %s between %s and %s",
					ticker, r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly))
			}

			mu.Lock()
			feeds[i] = feedData{symbol: ticker, bars: bars}
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return feeds, nil
}

type runSpec struct {
	name         types.StrategyName
	cfg          config.Config
	feeds        []feedData
	r            universe.Range
	eventLog     eventlog.EventLog
	cheatOnClose bool
	folder       string
	showProgress bool
}

// runStrategy runs one strategy on its own engine.
func (b *Backtester) runStrategy(ctx context.Context, run runSpec) (strategy.Summary, error) {
	s, err := b.strategies.Create(run.name, strategy.Options{
		Config:   run.cfg,
		EventLog: run.eventLog,
		Logger:   b.logger,
		Range:    optional.Some(run.r),
	})
	if err != nil {
		return strategy.Summary{}, err
	}

	eng := v1.NewBacktestEngineV1(b.logger)
	defer eng.Close()

	err = eng.Initialize(engine.Config{
		InitialCapital:     run.cfg.Broker.Cash,
		Broker:             run.cfg.Broker.Commission,
		CommissionPerShare: run.cfg.Broker.CommissionPerShare,
		PositionSize:       run.cfg.GlobalOptions.PositionSize,
		CheatOnClose:       run.cheatOnClose,
		StartTime:          optional.Some(run.r.Start),
		EndTime:            optional.Some(run.r.End),
		ShowProgress:       run.showProgress,
	})
	if err != nil {
		return strategy.Summary{}, err
	}

	if run.folder != "" {
		if err := eng.SetResultsFolder(run.folder); err != nil {
			return strategy.Summary{}, err
		}
	}

	for _, feed := range run.feeds {
		if err := eng.AddFeed(feed.symbol, feed.bars); err != nil {
			return strategy.Summary{}, err
		}
	}

	if err := eng.LoadStrategy(s); err != nil {
		return strategy.Summary{}, err
	}

	if _, err := eng.Run(ctx, engine.LifecycleCallbacks{}); err != nil {
		return strategy.Summary{}, err
	}

	return s.Summary(), nil
}

// closeLog closes the event log and returns the first of runErr and the close error.
func closeLog(log eventlog.EventLog, runErr error) error {
	if err := log.Close(); err != nil && runErr == nil {
		return err
	}

	return runErr
}

func runnableNames() string {
	names := make([]string, len(types.RunnableStrategies))
	for i, name := range types.RunnableStrategies {
		names[i] = fmt.Sprintf("%q", name)
	}

	return strings.Join(names, ", ")
}
