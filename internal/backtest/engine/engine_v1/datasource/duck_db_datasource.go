package datasource

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/logger"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// CombinedParquetFile is written next to the raw csv files after the first load.
	CombinedParquetFile = "data.parquet"
	// CombinedCSVFile holds every ticker in a single csv with a Ticker column.
	CombinedCSVFile = "data.csv"

	insertBatchSize = 500
)

type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
	opts   LoadOptions
}

// NewDataSource creates a new DuckDB data source backed by the database at path.
// An empty path keeps the database in memory.
// Price files are loaded separately by Initialize.
func NewDataSource(path string, opts LoadOptions, logger *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	_, err = db.Exec(fmt.Sprintf(`
		SET memory_limit='4GB';
		SET threads=%d;
	`, runtime.NumCPU()))
	if err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to set DuckDB options", err)
	}

	if opts.DateFormat == "" {
		opts.DateFormat = DateFormatCompact
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		opts:   opts,
	}, nil
}

// Initialize implements DataSource.
// The combined parquet file is preferred, then the combined csv, then one csv per ticker.
// Whatever is loaded from csv is written back out as data.parquet so later runs skip the parsing.
func (d *DuckDBDataSource) Initialize(dir string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("dir", dir))

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return errors.Newf(errors.ErrCodeBacktestDataPathError, "data path %s is not a directory", dir)
	}

	if err := d.createTable(); err != nil {
		return err
	}

	parquetPath := filepath.Join(dir, CombinedParquetFile)
	csvPath := filepath.Join(dir, CombinedCSVFile)

	switch {
	case fileExists(parquetPath):
		d.logger.Info("Loading combined parquet file", zap.String("path", parquetPath))

		return d.loadParquet(parquetPath)
	case fileExists(csvPath):
		d.logger.Info("Loading combined csv file", zap.String("path", csvPath))

		if err := d.loadCombinedCSV(csvPath); err != nil {
			return err
		}

		return d.exportParquet(parquetPath)
	default:
		if err := d.loadTickerFiles(dir); err != nil {
			return err
		}

		if err := d.exportCSV(csvPath); err != nil {
			return err
		}

		return d.exportParquet(parquetPath)
	}
}

func (d *DuckDBDataSource) createTable() error {
	_, err := d.db.Exec(`
		DROP TABLE IF EXISTS market_data;
		CREATE TABLE market_data (
			date DATE NOT NULL,
			ticker VARCHAR NOT NULL,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			adjusted_close DOUBLE,
			volume DOUBLE
		);
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to create market_data table", err)
	}

	return nil
}

func (d *DuckDBDataSource) loadParquet(path string) error {
	query := fmt.Sprintf(`
		INSERT INTO market_data
		SELECT date, ticker, open, high, low, close, adjusted_close, volume
		FROM read_parquet('%s');
	`, escapePath(path))

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataParseFailed, err, "failed to read %s", path)
	}

	return nil
}

// loadCombinedCSV reads a csv with the header Date,Ticker,Open,High,Low,Close,Adjusted Close,Volume and ISO dates.
func (d *DuckDBDataSource) loadCombinedCSV(path string) error {
	query := fmt.Sprintf(`
		INSERT INTO market_data
		SELECT "Date", "Ticker", "Open", "High", "Low", "Close", "Adjusted Close", "Volume"
		FROM read_csv('%s', header = true, columns = {
			'Date': 'DATE',
			'Ticker': 'VARCHAR',
			'Open': 'DOUBLE',
			'High': 'DOUBLE',
			'Low': 'DOUBLE',
			'Close': 'DOUBLE',
			'Adjusted Close': 'DOUBLE',
			'Volume': 'DOUBLE'
		});
	`, escapePath(path))

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataParseFailed, err, "failed to read %s", path)
	}

	return nil
}

// loadTickerFiles parses every per-ticker csv in dir in parallel and inserts the rows.
func (d *DuckDBDataSource) loadTickerFiles(dir string) error {
	files, err := d.tickerFiles(dir)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return errors.Newf(errors.ErrCodeDataNotFound, "no csv files found in %s", dir)
	}

	d.logger.Info("Parsing ticker csv files", zap.String("dir", dir), zap.Int("files", len(files)))

	var (
		mu   sync.Mutex
		bars []types.MarketData
	)

	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())

	for _, file := range files {
		g.Go(func() error {
			fileBars, err := readTickerFile(file, d.opts)
			if err != nil {
				return err
			}

			mu.Lock()
			bars = append(bars, fileBars...)
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	return d.insertBars(bars)
}

func (d *DuckDBDataSource) tickerFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to list csv files", err)
	}

	files := make([]string, 0, len(matches))

	for _, match := range matches {
		name := strings.TrimSuffix(filepath.Base(match), filepath.Ext(match))
		if name == strings.TrimSuffix(CombinedCSVFile, ".csv") || slices.Contains(d.opts.SkipFiles, name) {
			continue
		}

		files = append(files, match)
	}

	sort.Strings(files)

	return files, nil
}

func (d *DuckDBDataSource) insertBars(bars []types.MarketData) error {
	tx, err := d.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to begin transaction", err)
	}

	for start := 0; start < len(bars); start += insertBatchSize {
		end := min(start+insertBatchSize, len(bars))

		insert := d.sq.Insert("market_data").
			Columns("date", "ticker", "open", "high", "low", "close", "adjusted_close", "volume")

		for _, bar := range bars[start:end] {
			var adjusted interface{}
			if bar.AdjustedClose.IsSome() {
				adjusted = bar.AdjustedClose.Unwrap()
			}

			insert = insert.Values(bar.Date(), bar.Symbol, bar.Open, bar.High, bar.Low, bar.Close, adjusted, bar.Volume)
		}

		if _, err := insert.RunWith(tx).Exec(); err != nil {
			_ = tx.Rollback()

			return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to insert market data", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to commit market data", err)
	}

	return nil
}

func (d *DuckDBDataSource) exportCSV(path string) error {
	query := fmt.Sprintf(`
		COPY (
			SELECT date AS "Date", ticker AS "Ticker", open AS "Open", high AS "High", low AS "Low",
				close AS "Close", adjusted_close AS "Adjusted Close", volume AS "Volume"
			FROM market_data
			ORDER BY ticker, date
		) TO '%s' (HEADER, DELIMITER ',');
	`, escapePath(path))

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataWriteFailed, err, "failed to write %s", path)
	}

	return nil
}

func (d *DuckDBDataSource) exportParquet(path string) error {
	query := fmt.Sprintf(`
		COPY (SELECT * FROM market_data ORDER BY ticker, date) TO '%s' (FORMAT PARQUET);
	`, escapePath(path))

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataWriteFailed, err, "failed to write %s", path)
	}

	return nil
}

// Tickers implements DataSource.
func (d *DuckDBDataSource) Tickers() ([]string, error) {
	query, args, err := d.sq.Select("DISTINCT ticker").From("market_data").OrderBy("ticker").ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to list tickers", err)
	}
	defer rows.Close()

	var tickers []string

	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan ticker", err)
		}

		tickers = append(tickers, ticker)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating tickers", err)
	}

	return tickers, nil
}

// ReadTicker implements DataSource.
func (d *DuckDBDataSource) ReadTicker(symbol string, after optional.Option[time.Time], before optional.Option[time.Time]) ([]types.MarketData, error) {
	builder := d.sq.Select("date", "ticker", "open", "high", "low", d.closeColumn(), "adjusted_close", "volume").
		From("market_data").
		Where(squirrel.Eq{"ticker": symbol}).
		OrderBy("date")
	builder = withDateBounds(builder, after, before)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read %s", symbol)
	}
	defer rows.Close()

	var bars []types.MarketData

	for rows.Next() {
		var (
			bar      types.MarketData
			adjusted sql.NullFloat64
			open     sql.NullFloat64
			high     sql.NullFloat64
			low      sql.NullFloat64
			closeP   sql.NullFloat64
			volume   sql.NullFloat64
		)

		if err := rows.Scan(&bar.Time, &bar.Symbol, &open, &high, &low, &closeP, &adjusted, &volume); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to scan %s", symbol)
		}

		bar.Time = types.DateOf(bar.Time)
		bar.Open = open.Float64
		bar.High = high.Float64
		bar.Low = low.Float64
		bar.Close = closeP.Float64
		bar.Volume = volume.Float64

		if adjusted.Valid {
			bar.AdjustedClose = optional.Some(adjusted.Float64)
		} else {
			bar.AdjustedClose = optional.None[float64]()
		}

		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "error iterating %s", symbol)
	}

	return bars, nil
}

// DateRange implements DataSource.
func (d *DuckDBDataSource) DateRange(symbol optional.Option[string]) (time.Time, time.Time, error) {
	builder := d.sq.Select("MIN(date)", "MAX(date)").From("market_data")
	if symbol.IsSome() {
		builder = builder.Where(squirrel.Eq{"ticker": symbol.Unwrap()})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return time.Time{}, time.Time{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var first, last sql.NullTime
	if err := d.db.QueryRow(query, args...).Scan(&first, &last); err != nil {
		return time.Time{}, time.Time{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read date range", err)
	}

	if !first.Valid || !last.Valid {
		return time.Time{}, time.Time{}, errors.Newf(errors.ErrCodeDataNotFound, "no data for %s", symbol.TakeOr("any ticker"))
	}

	return types.DateOf(first.Time), types.DateOf(last.Time), nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(symbol string, after optional.Option[time.Time], before optional.Option[time.Time]) (int, error) {
	builder := d.sq.Select("COUNT(*)").From("market_data").Where(squirrel.Eq{"ticker": symbol})
	builder = withDateBounds(builder, after, before)

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to count %s", symbol)
	}

	return count, nil
}

// ExecuteSQL implements DataSource.
func (d *DuckDBDataSource) ExecuteSQL(query string, params ...interface{}) ([]SQLResult, error) {
	d.logger.Debug("Executing SQL query", zap.String("query", query))

	stmt, err := d.db.Prepare(query)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to prepare query", err)
	}
	defer stmt.Close()

	rows, err := stmt.Query(params...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to execute query", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to get columns", err)
	}

	result := make([]SQLResult, 0, 64)

	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))

		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan row", err)
		}

		rowMap := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			rowMap[col] = values[i]
		}

		result = append(result, SQLResult{Values: rowMap})
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	return result, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}

func (d *DuckDBDataSource) closeColumn() string {
	if d.opts.UseAdjustedClose {
		return "CASE WHEN adjusted_close IS NOT NULL AND adjusted_close != 0 THEN adjusted_close ELSE close END AS close"
	}

	return "close"
}

func withDateBounds(builder squirrel.SelectBuilder, after optional.Option[time.Time], before optional.Option[time.Time]) squirrel.SelectBuilder {
	if after.IsSome() {
		builder = builder.Where(squirrel.Gt{"date": types.DateOf(after.Unwrap())})
	}

	if before.IsSome() {
		builder = builder.Where(squirrel.Lt{"date": types.DateOf(before.Unwrap())})
	}

	return builder
}

func fileExists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}

func escapePath(path string) string {
	return strings.ReplaceAll(path, "'", "''")
}
