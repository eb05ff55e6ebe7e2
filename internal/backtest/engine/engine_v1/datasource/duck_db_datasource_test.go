package datasource

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/logger"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type DuckDBDataSourceTestSuite struct {
	suite.Suite
	dir    string
	logger *logger.Logger
}

func TestDuckDBDataSourceSuite(t *testing.T) {
	suite.Run(t, new(DuckDBDataSourceTestSuite))
}

func (suite *DuckDBDataSourceTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
	suite.logger = logger.NewNopLogger()

	suite.write("BHP.csv", "Date,Open,High,Low,Close,Adjusted Close,Volume\n"+
		"20200102,10,11,9,10,20,1000\n"+
		"20200103,10,11,9,11,0,1000\n"+
		"20200106,11,12,10,12,,1000\n"+
		"20200107,12,13,11,13,26,1000\n")
	suite.write("CBA.csv", "Date,Open,High,Low,Close,Adjusted Close,Volume\n"+
		"20200103,80,81,79,80,80,500\n"+
		"20200106,80,82,79,81,81,500\n")
	suite.write("constituents.csv", "Ticker,Name\nBHP,BHP Group\n")
}

func (suite *DuckDBDataSourceTestSuite) write(name, content string) {
	suite.Require().NoError(os.WriteFile(filepath.Join(suite.dir, name), []byte(content), 0o644))
}

func (suite *DuckDBDataSourceTestSuite) open(opts LoadOptions) DataSource {
	if opts.SkipFiles == nil {
		opts.SkipFiles = []string{"constituents"}
	}

	ds, err := NewDataSource("", opts, suite.logger)
	suite.Require().NoError(err)
	suite.T().Cleanup(func() { _ = ds.Close() })

	suite.Require().NoError(ds.Initialize(suite.dir))

	return ds
}

func day(d int) time.Time {
	return time.Date(2020, 1, d, 0, 0, 0, 0, time.UTC)
}

func (suite *DuckDBDataSourceTestSuite) TestLoadTickerFiles() {
	ds := suite.open(LoadOptions{DateFormat: DateFormatCompact})

	tickers, err := ds.Tickers()
	suite.Require().NoError(err)
	suite.Equal([]string{"BHP", "CBA"}, tickers)

	bars, err := ds.ReadTicker("BHP", optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Len(bars, 4)
	suite.Equal(day(2), bars[0].Time)
	suite.Equal(10.0, bars[0].Close)
	suite.Equal(20.0, bars[0].AdjustedClose.Unwrap())
	suite.True(bars[2].AdjustedClose.IsNone())
	suite.Equal(day(7), bars[3].Time)

	suite.FileExists(filepath.Join(suite.dir, CombinedCSVFile))
	suite.FileExists(filepath.Join(suite.dir, CombinedParquetFile))
}

func (suite *DuckDBDataSourceTestSuite) TestBoundsAreExclusive() {
	ds := suite.open(LoadOptions{DateFormat: DateFormatCompact})

	bars, err := ds.ReadTicker("BHP", optional.Some(day(2)), optional.Some(day(7)))
	suite.Require().NoError(err)
	suite.Require().Len(bars, 2)
	suite.Equal(day(3), bars[0].Time)
	suite.Equal(day(6), bars[1].Time)

	count, err := ds.Count("BHP", optional.Some(day(2)), optional.Some(day(7)))
	suite.Require().NoError(err)
	suite.Equal(2, count)

	count, err = ds.Count("BHP", optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(4, count)
}

func (suite *DuckDBDataSourceTestSuite) TestUseAdjustedClose() {
	ds := suite.open(LoadOptions{DateFormat: DateFormatCompact, UseAdjustedClose: true})

	bars, err := ds.ReadTicker("BHP", optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Len(bars, 4)
	suite.Equal(20.0, bars[0].Close)
	// zero and missing adjusted closes keep the raw close
	suite.Equal(11.0, bars[1].Close)
	suite.Equal(12.0, bars[2].Close)
	suite.Equal(26.0, bars[3].Close)
}

func (suite *DuckDBDataSourceTestSuite) TestDateRange() {
	ds := suite.open(LoadOptions{DateFormat: DateFormatCompact})

	first, last, err := ds.DateRange(optional.None[string]())
	suite.Require().NoError(err)
	suite.Equal(day(2), first)
	suite.Equal(day(7), last)

	first, last, err = ds.DateRange(optional.Some("CBA"))
	suite.Require().NoError(err)
	suite.Equal(day(3), first)
	suite.Equal(day(6), last)

	_, _, err = ds.DateRange(optional.Some("NAB"))
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeDataNotFound, errors.GetCode(err))
}

func (suite *DuckDBDataSourceTestSuite) TestReloadFromParquet() {
	_ = suite.open(LoadOptions{DateFormat: DateFormatCompact})

	// raw files are no longer needed once the parquet file exists
	suite.Require().NoError(os.Remove(filepath.Join(suite.dir, "BHP.csv")))
	suite.Require().NoError(os.Remove(filepath.Join(suite.dir, "CBA.csv")))

	ds := suite.open(LoadOptions{DateFormat: DateFormatCompact})

	count, err := ds.Count("BHP", optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(4, count)
}

func (suite *DuckDBDataSourceTestSuite) TestReloadFromCombinedCSV() {
	_ = suite.open(LoadOptions{DateFormat: DateFormatCompact})

	suite.Require().NoError(os.Remove(filepath.Join(suite.dir, CombinedParquetFile)))
	suite.Require().NoError(os.Remove(filepath.Join(suite.dir, "BHP.csv")))

	ds := suite.open(LoadOptions{DateFormat: DateFormatCompact})

	bars, err := ds.ReadTicker("BHP", optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Len(bars, 4)
	suite.True(bars[2].AdjustedClose.IsNone())
	suite.FileExists(filepath.Join(suite.dir, CombinedParquetFile))
}

func (suite *DuckDBDataSourceTestSuite) TestExecuteSQL() {
	ds := suite.open(LoadOptions{DateFormat: DateFormatCompact})

	results, err := ds.ExecuteSQL("SELECT ticker, COUNT(*) AS n FROM market_data WHERE ticker = $1 GROUP BY ticker", "CBA")
	suite.Require().NoError(err)
	suite.Require().Len(results, 1)
	suite.Equal("CBA", results[0].Values["ticker"])
	suite.EqualValues(2, results[0].Values["n"])
}

func (suite *DuckDBDataSourceTestSuite) TestInvalidDateFormat() {
	ds, err := NewDataSource("", LoadOptions{DateFormat: "mm/dd/yyyy", SkipFiles: []string{"constituents"}}, suite.logger)
	suite.Require().NoError(err)
	defer ds.Close()

	err = ds.Initialize(suite.dir)
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeInvalidDateFormat, errors.GetCode(err))
}

func (suite *DuckDBDataSourceTestSuite) TestEmptyDirectory() {
	ds, err := NewDataSource("", LoadOptions{}, suite.logger)
	suite.Require().NoError(err)
	defer ds.Close()

	err = ds.Initialize(suite.T().TempDir())
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeDataNotFound, errors.GetCode(err))
}

func (suite *DuckDBDataSourceTestSuite) TestMissingDirectory() {
	ds, err := NewDataSource("", LoadOptions{}, suite.logger)
	suite.Require().NoError(err)
	defer ds.Close()

	err = ds.Initialize(filepath.Join(suite.dir, "missing"))
	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeBacktestDataPathError, errors.GetCode(err))
}
