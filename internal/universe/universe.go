package universe

import (
	"os"
	"slices"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-equities/internal/config"
	"github.com/rxtech-lab/argo-equities/internal/logger"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
	"go.uber.org/zap"
)

// DateSpan is the first and last date of some data.
type DateSpan struct {
	First time.Time
	Last  time.Time
}

// Range is the comparison window shared by the strategy and the benchmark.
// Bars are used only when they fall strictly between Start and End.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies strictly inside the range.
func (r Range) Contains(t time.Time) bool {
	return t.After(r.Start) && t.Before(r.End)
}

// Days is the number of calendar days from Start to End.
func (r Range) Days() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}

// Years is Days expressed in years of 365.25 days.
func (r Range) Years() float64 {
	return float64(r.Days()) / 365.25
}

// ComparisonRange narrows the data span to the dates the benchmark also covers.
// The start override is used when it falls before the computed end and the end
// override when it falls after the computed start.
func ComparisonRange(all DateSpan, benchmark DateSpan, startOverride optional.Option[time.Time], endOverride optional.Option[time.Time]) (Range, error) {
	start := all.First
	if benchmark.First.After(start) {
		start = benchmark.First
	}

	end := all.Last
	if benchmark.Last.Before(end) {
		end = benchmark.Last
	}

	computedStart, computedEnd := start, end

	if startOverride.IsSome() && startOverride.Unwrap().Before(computedEnd) {
		start = startOverride.Unwrap()
	}

	if endOverride.IsSome() && endOverride.Unwrap().After(computedStart) {
		end = endOverride.Unwrap()
	}

	if !start.Before(end) {
		return Range{}, errors.Newf(errors.ErrCodeBacktestEmptyRange,
			"comparison range is empty: start %s is not before end %s", start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	return Range{Start: types.DateOf(start), End: types.DateOf(end)}, nil
}

// SelectionOptions are the data options that pick the candidate tickers.
type SelectionOptions struct {
	Bulk         bool
	SmallCapOnly bool
	Tickers      []string
}

// SelectTickers returns the candidate tickers. In bulk mode every ticker in the data
// is a candidate, minus the constituents when only small caps are wanted.
func SelectTickers(opts SelectionOptions, all []string, constituents []string) []string {
	if !opts.Bulk {
		return append([]string{}, opts.Tickers...)
	}

	if !opts.SmallCapOnly {
		return append([]string{}, all...)
	}

	selected := make([]string, 0, len(all))

	for _, ticker := range all {
		if !slices.Contains(constituents, ticker) {
			selected = append(selected, ticker)
		}
	}

	sort.Strings(selected)

	return selected
}

// MinimumRows is the row count a ticker must exceed to be traded by strategy.
func MinimumRows(strategy types.StrategyName, cfg config.Config) int {
	if !cfg.GlobalOptions.Vectorised {
		return 1
	}

	switch strategy {
	case types.StrategyCrossover:
		return cfg.Crossover.SMA2
	case types.StrategyCrossoverPlus:
		return cfg.CrossoverPlus.SMA2
	case types.StrategyHolyGrail:
		return 2 * cfg.HolyGrail.ADXPeriod
	case types.StrategyPump:
		return max(cfg.Pump.PriceAveragePeriod, cfg.Pump.VolumeAveragePeriod)
	default:
		return 0
	}
}

// Selection is the outcome of FilterTickers.
type Selection struct {
	Added     []string
	Discarded []string
	Excluded  []string
	Rows      map[string]int
	// Reasons holds why each discarded ticker was refused.
	Reasons map[string]*errors.InsufficientDataError
}

// FilterTickers keeps the candidates that are not excluded and have more than limit rows inside r.
func FilterTickers(ds datasource.DataSource, candidates []string, excluded []string, limit int, r Range, log *logger.Logger) (Selection, error) {
	selection := Selection{
		Rows:    make(map[string]int, len(candidates)),
		Reasons: make(map[string]*errors.InsufficientDataError),
	}

	for _, ticker := range candidates {
		if slices.Contains(excluded, ticker) {
			log.Info("Did not add ticker as it is intentionally excluded", zap.String("ticker", ticker))
			selection.Excluded = append(selection.Excluded, ticker)

			continue
		}

		rows, err := ds.Count(ticker, optional.Some(r.Start), optional.Some(r.End))
		if err != nil {
			return Selection{}, err
		}

		selection.Rows[ticker] = rows

		if rows > limit {
			log.Info("Adding ticker to strategy", zap.String("ticker", ticker), zap.Int("rows", rows))
			selection.Added = append(selection.Added, ticker)
		} else {
			reason := errors.NewInsufficientDataError(ticker, rows, limit+1)
			log.Info("Did not add ticker due to insufficient data", zap.String("ticker", ticker), zap.Error(reason))
			selection.Discarded = append(selection.Discarded, ticker)
			selection.Reasons[ticker] = reason
		}
	}

	log.Info("Ticker selection complete",
		zap.Int("added", len(selection.Added)),
		zap.Int("discarded", len(selection.Discarded)),
		zap.Int("excluded", len(selection.Excluded)))

	return selection, nil
}

type constituentRow struct {
	Ticker string `csv:"Ticker"`
}

// LoadConstituents reads the Ticker column of a constituents csv. A missing file yields no constituents.
func LoadConstituents(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to open %s", path)
	}
	defer file.Close()

	var rows []constituentRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataParseFailed, err, "failed to parse %s", path)
	}

	tickers := make([]string, 0, len(rows))

	for _, row := range rows {
		if row.Ticker != "" {
			tickers = append(tickers, row.Ticker)
		}
	}

	return tickers, nil
}
