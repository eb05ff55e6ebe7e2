package testhelper

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/gocarina/gocsv"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/backtester"
	"github.com/rxtech-lab/argo-equities/internal/config"
	"github.com/rxtech-lab/argo-equities/internal/logger"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/mocks"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"

	_ "github.com/marcboeker/go-duckdb"
)

// E2ETestSuite is a base test suite for end to end backtests over generated data.
type E2ETestSuite struct {
	suite.Suite
	DataDir   string
	OutputDir string
	Config    config.Config
}

// SetupData writes count generated trading days for every symbol and the benchmark
// into a fresh data directory and points the config at it.
func (s *E2ETestSuite) SetupData(benchmark string, symbols []string, count int, seed int64) {
	root := s.T().TempDir()
	s.DataDir = filepath.Join(root, "data")
	s.OutputDir = filepath.Join(root, "out")

	gen := mocks.NewDataGenerator(seed)

	base := mocks.DefaultConfig()
	base.Count = count

	for _, bars := range gen.GenerateMultiSymbol(symbols, base) {
		_, err := mocks.WriteTickerCSV(s.DataDir, bars)
		s.Require().NoError(err)
	}

	benchmarkConfig := base
	benchmarkConfig.Symbol = benchmark
	benchmarkConfig.InitialPrice = 6000
	benchmarkConfig.Volatility = 0.008
	benchmarkConfig.Trend = 0.1

	_, err := mocks.WriteTickerCSV(s.DataDir, gen.Generate(benchmarkConfig))
	s.Require().NoError(err)

	s.Config = config.DefaultConfig()
	s.Config.Data.Path = s.DataDir
	s.Config.Data.Benchmark = benchmark
	s.Config.GlobalOptions.OutputDir = s.OutputDir
	s.Config.GlobalOptions.LogLevel = "error"
}

// WriteConstituents writes the constituents csv listing tickers.
func (s *E2ETestSuite) WriteConstituents(tickers ...string) {
	type row struct {
		Ticker string `csv:"Ticker"`
		Name   string `csv:"Name"`
	}

	rows := make([]row, len(tickers))
	for i, ticker := range tickers {
		rows[i] = row{Ticker: ticker, Name: ticker + " Ltd"}
	}

	content, err := gocsv.MarshalBytes(&rows)
	s.Require().NoError(err)
	s.Require().NoError(os.WriteFile(filepath.Join(s.DataDir, s.Config.Data.Constituents+".csv"), content, 0644))
}

// WriteConfig writes s.Config as YAML and returns its path.
func (s *E2ETestSuite) WriteConfig() string {
	content, err := yaml.Marshal(s.Config)
	s.Require().NoError(err)

	path := filepath.Join(filepath.Dir(s.DataDir), "config.yaml")
	s.Require().NoError(os.WriteFile(path, content, 0644))

	return path
}

// RunBacktest loads the written config the way the command line does and runs name.
func RunBacktest(s *E2ETestSuite, name types.StrategyName) backtester.Result {
	cfg, err := config.Load(s.WriteConfig())
	s.Require().NoError(err)

	clock := func() time.Time { return time.Date(2025, time.June, 30, 18, 0, 0, 0, time.UTC) }

	result, err := backtester.NewBacktester(cfg, logger.NewNopLogger(), backtester.WithClock(clock)).
		Run(context.Background(), name)
	s.Require().NoError(err)

	return result
}

// findFile returns the first file called name under root, skipping the benchmark folder
// unless root is the benchmark folder itself.
func findFile(s *E2ETestSuite, root string, name string) string {
	var found string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() && path != root && d.Name() == backtester.BenchmarkFolder {
			return filepath.SkipDir
		}

		if !d.IsDir() && d.Name() == name && found == "" {
			found = path
		}

		return nil
	})
	s.Require().NoError(err)
	s.Require().NotEmpty(found, "no %s under %s", name, root)

	return found
}

// ReadStats reads the stats.yaml written under folder.
func ReadStats(s *E2ETestSuite, folder string) types.BacktestStats {
	content, err := os.ReadFile(findFile(s, folder, "stats.yaml"))
	require.NoError(s.T(), err)

	// stats are written as a list
	var stats []types.BacktestStats
	require.NoError(s.T(), yaml.Unmarshal(content, &stats))
	require.NotEmpty(s.T(), stats, "No stats found in the file")

	return stats[0]
}

func openParquet(s *E2ETestSuite, path string, view string) *sql.DB {
	db, err := sql.Open("duckdb", ":memory:")
	require.NoError(s.T(), err)

	// squirrel has no CREATE VIEW builder
	_, err = db.Exec(fmt.Sprintf(`CREATE VIEW %s AS SELECT * FROM read_parquet('%s');`, view, path))
	require.NoError(s.T(), err)

	return db
}

// ReadOrders reads the orders.parquet written under folder in creation order.
func ReadOrders(s *E2ETestSuite, folder string) []types.Order {
	db := openParquet(s, findFile(s, folder, "orders.parquet"), "orders_view")
	defer db.Close()

	query, args, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(
			"order_id", "symbol", "side", "execution_type", "quantity", "status", "created_at", "created_price",
			"executed_at", "executed_price", "commission", "reason", "message", "strategy_name",
		).
		From("orders_view").
		OrderBy("seq").
		ToSql()
	require.NoError(s.T(), err)

	rows, err := db.Query(query, args...)
	require.NoError(s.T(), err)
	defer rows.Close()

	orders := []types.Order{}

	for rows.Next() {
		var (
			order      types.Order
			executedAt sql.NullTime
		)

		err := rows.Scan(
			&order.OrderID, &order.Symbol, &order.Side, &order.ExecutionType, &order.Quantity, &order.Status,
			&order.CreatedAt, &order.CreatedPrice, &executedAt, &order.ExecutedPrice, &order.Commission,
			&order.Reason.Reason, &order.Reason.Message, &order.StrategyName,
		)
		require.NoError(s.T(), err)

		if executedAt.Valid {
			order.ExecutedAt = executedAt.Time
		}

		orders = append(orders, order)
	}

	require.NoError(s.T(), rows.Err())

	return orders
}

// ReadTrades reads the trades.parquet written under folder.
func ReadTrades(s *E2ETestSuite, folder string) []types.Trade {
	db := openParquet(s, findFile(s, folder, "trades.parquet"), "trades_view")
	defer db.Close()

	query, args, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("id", "symbol", "size", "price", "opened_at", "closed_at", "close_price", "pnl", "pnl_comm", "commission", "strategy_name").
		From("trades_view").
		OrderBy("opened_at", "symbol").
		ToSql()
	require.NoError(s.T(), err)

	rows, err := db.Query(query, args...)
	require.NoError(s.T(), err)
	defer rows.Close()

	trades := []types.Trade{}

	for rows.Next() {
		var (
			trade    types.Trade
			closedAt sql.NullTime
		)

		err := rows.Scan(
			&trade.ID, &trade.Symbol, &trade.Size, &trade.Price, &trade.OpenedAt, &closedAt,
			&trade.ClosePrice, &trade.PnL, &trade.PnLComm, &trade.Commission, &trade.StrategyName,
		)
		require.NoError(s.T(), err)

		trade.ClosedAt = optional.None[time.Time]()
		if closedAt.Valid {
			trade.ClosedAt = optional.Some(closedAt.Time)
		}

		trades = append(trades, trade)
	}

	require.NoError(s.T(), rows.Err())

	return trades
}

// ReadEventLog reads an event log csv.
func ReadEventLog(s *E2ETestSuite, path string) []*types.EventRecord {
	file, err := os.Open(path)
	require.NoError(s.T(), err)
	defer file.Close()

	var records []*types.EventRecord
	require.NoError(s.T(), gocsv.UnmarshalFile(file, &records))

	return records
}
