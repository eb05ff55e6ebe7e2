package datasource

import (
	"encoding/csv"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
)

// rawPriceRow is one line of a per-ticker csv. Numeric fields are strings so blank
// cells can be told apart from zero.
type rawPriceRow struct {
	Date          string `csv:"Date"`
	Ticker        string `csv:"Ticker"`
	Open          string `csv:"Open"`
	High          string `csv:"High"`
	Low           string `csv:"Low"`
	Close         string `csv:"Close"`
	AdjustedClose string `csv:"Adjusted Close"`
	Volume        string `csv:"Volume"`
}

// headerOverrideReader replaces the first record of a csv with a configured header.
type headerOverrideReader struct {
	reader  *csv.Reader
	header  []string
	started bool
}

func (r *headerOverrideReader) Read() ([]string, error) {
	record, err := r.reader.Read()
	if err != nil {
		return nil, err
	}

	if !r.started {
		r.started = true

		return r.header, nil
	}

	return record, nil
}

func (r *headerOverrideReader) ReadAll() ([][]string, error) {
	var records [][]string

	for {
		record, err := r.Read()
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				return records, nil
			}

			return nil, err
		}

		records = append(records, record)
	}
}

// readTickerFile parses one per-ticker csv. The ticker comes from the Ticker column
// when the configured columns include one, otherwise from the file name.
func readTickerFile(path string, opts LoadOptions) ([]types.MarketData, error) {
	if _, err := opts.DateFormat.Layout(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to open %s", path)
	}
	defer file.Close()

	columns := opts.Columns
	if len(columns) == 0 {
		columns = DefaultColumns
	}

	csvReader := csv.NewReader(file)
	csvReader.FieldsPerRecord = -1

	var rows []rawPriceRow
	if err := gocsv.UnmarshalCSV(&headerOverrideReader{reader: csvReader, header: columns}, &rows); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataParseFailed, err, "failed to parse %s", path)
	}

	fileTicker := strings.SplitN(filepath.Base(path), ".", 2)[0]
	bars := make([]types.MarketData, 0, len(rows))

	for i, row := range rows {
		bar, err := row.toMarketData(opts.DateFormat, fileTicker)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeDataParseFailed, err, "%s line %d", path, i+2)
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

func (r rawPriceRow) toMarketData(format DateFormat, fileTicker string) (types.MarketData, error) {
	date, err := format.Parse(strings.TrimSpace(r.Date))
	if err != nil {
		return types.MarketData{}, err
	}

	ticker := strings.TrimSpace(r.Ticker)
	if ticker == "" {
		ticker = fileTicker
	}

	bar := types.MarketData{
		Symbol:        ticker,
		Time:          date,
		AdjustedClose: optional.None[float64](),
	}

	fields := []struct {
		raw    string
		target *float64
	}{
		{r.Open, &bar.Open},
		{r.High, &bar.High},
		{r.Low, &bar.Low},
		{r.Close, &bar.Close},
		{r.Volume, &bar.Volume},
	}

	for _, field := range fields {
		value, err := parseNumber(field.raw)
		if err != nil {
			return types.MarketData{}, err
		}

		*field.target = value
	}

	if strings.TrimSpace(r.AdjustedClose) != "" {
		adjusted, err := parseNumber(r.AdjustedClose)
		if err != nil {
			return types.MarketData{}, err
		}

		bar.AdjustedClose = optional.Some(adjusted)
	}

	return bar, nil
}

func parseNumber(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeDataParseFailed, err, "invalid number %q", raw)
	}

	return value, nil
}
