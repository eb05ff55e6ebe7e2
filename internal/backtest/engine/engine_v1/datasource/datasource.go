package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
)

// DateFormat names the date layout of per-ticker csv files.
type DateFormat string

const (
	DateFormatCompact DateFormat = "yyyymmdd"
	DateFormatDayLead DateFormat = "dd-mm-yyyy"
	DateFormatISO     DateFormat = "yyyy-mm-dd"
)

var AllDateFormats = []any{
	DateFormatCompact,
	DateFormatDayLead,
	DateFormatISO,
}

// Layout returns the Go time layout for the format.
func (f DateFormat) Layout() (string, error) {
	switch f {
	case DateFormatCompact:
		return "20060102", nil
	case DateFormatDayLead:
		return "02-01-2006", nil
	case DateFormatISO:
		return "2006-01-02", nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidDateFormat,
			"unexpected date format %q, date format must be yyyymmdd, dd-mm-yyyy or yyyy-mm-dd", f)
	}
}

// Parse parses value with the format's layout in UTC.
func (f DateFormat) Parse(value string) (time.Time, error) {
	layout, err := f.Layout()
	if err != nil {
		return time.Time{}, err
	}

	parsed, err := time.ParseInLocation(layout, value, time.UTC)
	if err != nil {
		return time.Time{}, errors.Wrapf(errors.ErrCodeDataParseFailed, err, "failed to parse date %q as %s", value, f)
	}

	return parsed, nil
}

// LoadOptions controls how raw csv files are read.
type LoadOptions struct {
	// Columns is the column order of per-ticker csv files. The header row of each file is ignored.
	Columns []string
	// DateFormat is the date layout of per-ticker csv files.
	DateFormat DateFormat
	// UseAdjustedClose replaces Close with Adjusted Close when it is present and non-zero.
	UseAdjustedClose bool
	// SkipFiles lists csv base names (without extension) that do not hold prices.
	SkipFiles []string
}

// DefaultColumns is the column order used when none is configured.
var DefaultColumns = []string{"Date", "Open", "High", "Low", "Close", "Adjusted Close", "Volume"}

// SQLResult represents a row of data from a SQL query
type SQLResult struct {
	Values map[string]interface{}
}

type DataSource interface {
	// Initialize loads the price data found in dir
	Initialize(dir string) error
	// Tickers returns every ticker in the data, sorted
	Tickers() ([]string, error)
	// ReadTicker returns the bars of symbol in date order, strictly after and strictly before the given bounds
	ReadTicker(symbol string, after optional.Option[time.Time], before optional.Option[time.Time]) ([]types.MarketData, error)
	// DateRange returns the first and last dates of symbol, or of all data when symbol is None
	DateRange(symbol optional.Option[string]) (time.Time, time.Time, error)
	// Count returns the number of bars of symbol strictly inside the bounds
	Count(symbol string, after optional.Option[time.Time], before optional.Option[time.Time]) (int, error)
	// ExecuteSQL executes a raw SQL query and returns the results as SQLResult
	ExecuteSQL(query string, params ...interface{}) ([]SQLResult, error)
	// Close closes the data source and releases any resources
	Close() error
}
