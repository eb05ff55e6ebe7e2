package mocks

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-equities/internal/logger"
)

func TestDataGenerator_Generate(t *testing.T) {
	gen := NewDataGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Count = 100

	data := gen.Generate(config)

	if len(data) != 100 {
		t.Errorf("expected 100 data points, got %d", len(data))
	}

	for i := 1; i < len(data); i++ {
		if !data[i].Time.After(data[i-1].Time) {
			t.Errorf("data not in chronological order at index %d", i)
		}
	}

	for i, d := range data {
		if d.Symbol != config.Symbol {
			t.Errorf("expected symbol %s at index %d, got %s", config.Symbol, i, d.Symbol)
		}

		if d.Open <= 0 || d.High <= 0 || d.Low <= 0 || d.Close <= 0 {
			t.Errorf("invalid OHLC values at index %d: O=%f H=%f L=%f C=%f",
				i, d.Open, d.High, d.Low, d.Close)
		}

		if d.High < d.Low {
			t.Errorf("High < Low at index %d: H=%f L=%f", i, d.High, d.Low)
		}

		if d.Time.Weekday() == time.Saturday || d.Time.Weekday() == time.Sunday {
			t.Errorf("weekend bar at index %d: %s", i, d.Time.Format(time.DateOnly))
		}

		if d.Time.Hour() != 0 || d.Time.Location() != time.UTC {
			t.Errorf("bar at index %d is not a UTC date: %s", i, d.Time)
		}

		if d.AdjustedClose.IsSome() {
			t.Errorf("unexpected adjusted close at index %d", i)
		}
	}

	// 2020-01-01 is a Wednesday and the following Saturday is skipped
	if !data[3].Time.Equal(time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected the fourth bar on 2020-01-06, got %s", data[3].Time.Format(time.DateOnly))
	}
}

func TestDataGenerator_Reproducibility(t *testing.T) {
	gen1 := NewDataGenerator(42)
	gen2 := NewDataGenerator(42)

	config := DefaultConfig()
	config.Count = 10

	data1 := gen1.Generate(config)
	data2 := gen2.Generate(config)

	for i := range data1 {
		if data1[i].Close != data2[i].Close {
			t.Errorf("data not reproducible at index %d: got %f and %f",
				i, data1[i].Close, data2[i].Close)
		}
	}
}

func TestDataGenerator_Different_Seeds(t *testing.T) {
	gen1 := NewDataGenerator(42)
	gen2 := NewDataGenerator(123)

	config := DefaultConfig()
	config.Count = 10

	data1 := gen1.Generate(config)
	data2 := gen2.Generate(config)

	different := false

	for i := range data1 {
		if data1[i].Close != data2[i].Close {
			different = true

			break
		}
	}

	if !different {
		t.Error("different seeds should produce different data")
	}
}

func TestDataGenerator_DividendFactor(t *testing.T) {
	config := DefaultConfig()
	config.Count = 5
	config.DividendFactor = 0.9

	for i, d := range NewDataGenerator(7).Generate(config) {
		if d.AdjustedClose.IsNone() {
			t.Fatalf("missing adjusted close at index %d", i)
		}

		if diff := d.AdjustedClose.Unwrap() - d.Close*0.9; diff > 1e-4 || diff < -1e-4 {
			t.Errorf("adjusted close at index %d: got %f want %f", i, d.AdjustedClose.Unwrap(), d.Close*0.9)
		}
	}
}

func TestDataGenerator_MultiSymbol(t *testing.T) {
	config := DefaultConfig()
	config.Count = 20

	all := NewDataGenerator(42).GenerateMultiSymbol([]string{"BHP", "CBA"}, config)

	if len(all) != 2 {
		t.Fatalf("expected 2 symbols, got %d", len(all))
	}

	for symbol, bars := range all {
		if len(bars) != 20 {
			t.Errorf("expected 20 bars for %s, got %d", symbol, len(bars))
		}

		if bars[0].Symbol != symbol {
			t.Errorf("expected symbol %s, got %s", symbol, bars[0].Symbol)
		}
	}

	if all["BHP"][0].Open == all["CBA"][0].Open {
		t.Error("symbols should start at different prices")
	}
}

func TestWriteTickerCSV(t *testing.T) {
	dir := t.TempDir()

	config := DefaultConfig()
	config.Symbol = "BHP"
	config.Count = 30
	config.DividendFactor = 0.95
	bars := NewDataGenerator(42).Generate(config)

	path, err := WriteTickerCSV(dir, bars)
	if err != nil {
		t.Fatalf("WriteTickerCSV failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if lines[0] != "Date,Open,High,Low,Close,Adjusted Close,Volume" {
		t.Errorf("unexpected header %q", lines[0])
	}

	if len(lines) != 31 {
		t.Errorf("expected 31 lines, got %d", len(lines))
	}

	ds, err := datasource.NewDataSource("", datasource.LoadOptions{DateFormat: datasource.DateFormatCompact}, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("failed to create data source: %v", err)
	}
	defer ds.Close()

	if err := ds.Initialize(dir); err != nil {
		t.Fatalf("failed to load %s: %v", dir, err)
	}

	loaded, err := ds.ReadTicker("BHP", optional.None[time.Time](), optional.None[time.Time]())
	if err != nil {
		t.Fatalf("ReadTicker failed: %v", err)
	}

	if len(loaded) != len(bars) {
		t.Fatalf("expected %d bars, got %d", len(bars), len(loaded))
	}

	for i := range bars {
		if !loaded[i].Time.Equal(bars[i].Time) || loaded[i].Close != bars[i].Close {
			t.Errorf("bar %d differs: got %s %f want %s %f", i,
				loaded[i].Time.Format(time.DateOnly), loaded[i].Close, bars[i].Time.Format(time.DateOnly), bars[i].Close)
		}
	}
}

func TestWriteTickerCSVEmpty(t *testing.T) {
	if _, err := WriteTickerCSV(t.TempDir(), nil); err == nil {
		t.Error("expected an error for no bars")
	}
}

func BenchmarkGenerate10Y(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Generate10Y("BHP")
	}
}
