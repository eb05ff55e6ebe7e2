package mocks

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/types"
)

// DataGenerator generates daily equity bars for tests and benchmarks.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how market data is generated.
type GeneratorConfig struct {
	// Symbol is the ticker (e.g., "BHP", "XJO")
	Symbol string
	// StartDate is the first trading day. Weekends are skipped.
	StartDate time.Time
	// Count is the number of trading days to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% typical daily move)
	Volatility float64
	// Trend is the total drift over the series (-0.5 to 0.5 for bearish to bullish)
	Trend float64
	// VolumeBase is the average volume per day
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
	// DividendFactor scales Close into Adjusted Close. Zero leaves Adjusted Close empty.
	DividendFactor float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:         "TEST",
		StartDate:      time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Count:          500,
		InitialPrice:   20.0,
		Volatility:     0.015,
		Trend:          0.0,
		VolumeBase:     100000,
		VolumeVariance: 0.3,
	}
}

// Generate creates daily bars following a geometric Brownian motion.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.MarketData {
	data := make([]types.MarketData, config.Count)
	currentPrice := config.InitialPrice
	currentDate := nextTradingDay(types.DateOf(config.StartDate))

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller transform for a normal draw
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		priceChange := config.Volatility * z
		drift := config.Trend / float64(config.Count)

		close := open * (1 + priceChange + drift)
		if close <= 0 {
			close = open * 0.99
		}

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, close) + highExtension
		low := math.Min(open, close) - lowExtension
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		volumeVariation := 1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance
		volume := config.VolumeBase * volumeVariation
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		adjusted := optional.None[float64]()
		if config.DividendFactor > 0 {
			adjusted = optional.Some(roundToDecimals(close*config.DividendFactor, 4))
		}

		data[i] = types.MarketData{
			Symbol:        config.Symbol,
			Time:          currentDate,
			Open:          roundToDecimals(open, 4),
			High:          roundToDecimals(high, 4),
			Low:           roundToDecimals(low, 4),
			Close:         roundToDecimals(close, 4),
			AdjustedClose: adjusted,
			Volume:        math.Round(volume),
		}

		currentPrice = close
		currentDate = nextTradingDay(currentDate.AddDate(0, 0, 1))
	}

	return data
}

// GenerateMultiSymbol generates a series per symbol, keyed by symbol.
func (g *DataGenerator) GenerateMultiSymbol(symbols []string, baseConfig GeneratorConfig) map[string][]types.MarketData {
	all := make(map[string][]types.MarketData, len(symbols))

	for _, symbol := range symbols {
		config := baseConfig
		config.Symbol = symbol
		// vary initial price and volatility per symbol
		config.InitialPrice = baseConfig.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		all[symbol] = g.Generate(config)
	}

	return all
}

// Generate10Y generates ten years of trading days for symbol with default settings.
func Generate10Y(symbol string) []types.MarketData {
	gen := NewDataGenerator(42)
	config := DefaultConfig()
	config.Symbol = symbol
	config.Count = 2610

	return gen.Generate(config)
}

// tickerRow is one line of a per-ticker csv in the default column order.
type tickerRow struct {
	Date          string `csv:"Date"`
	Open          string `csv:"Open"`
	High          string `csv:"High"`
	Low           string `csv:"Low"`
	Close         string `csv:"Close"`
	AdjustedClose string `csv:"Adjusted Close"`
	Volume        string `csv:"Volume"`
}

// WriteTickerCSV writes bars to dir/<symbol>.csv with yyyymmdd dates, the layout the
// data loader reads by default.
func WriteTickerCSV(dir string, bars []types.MarketData) (string, error) {
	if len(bars) == 0 {
		return "", fmt.Errorf("no bars to write")
	}

	rows := make([]tickerRow, len(bars))
	for i, bar := range bars {
		adjusted := ""
		if bar.AdjustedClose.IsSome() {
			adjusted = formatPrice(bar.AdjustedClose.Unwrap())
		}

		rows[i] = tickerRow{
			Date:          bar.Time.Format("20060102"),
			Open:          formatPrice(bar.Open),
			High:          formatPrice(bar.High),
			Low:           formatPrice(bar.Low),
			Close:         formatPrice(bar.Close),
			AdjustedClose: adjusted,
			Volume:        fmt.Sprintf("%.0f", bar.Volume),
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	path := filepath.Join(dir, bars[0].Symbol+".csv")

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}

func nextTradingDay(date time.Time) time.Time {
	for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		date = date.AddDate(0, 0, 1)
	}

	return date
}

func formatPrice(price float64) string {
	return fmt.Sprintf("%.4f", price)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
