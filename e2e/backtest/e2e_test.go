package backtest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rxtech-lab/argo-equities/e2e/backtest/testhelper"
	"github.com/rxtech-lab/argo-equities/internal/backtester"
	"github.com/rxtech-lab/argo-equities/internal/config"
	eventlog "github.com/rxtech-lab/argo-equities/internal/log"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type BacktestE2ETestSuite struct {
	testhelper.E2ETestSuite
}

func TestBacktestE2ESuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping end to end backtests in short mode")
	}

	suite.Run(t, new(BacktestE2ETestSuite))
}

func (s *BacktestE2ETestSuite) SetupTest() {
	s.SetupData("XJO", []string{"BHP", "CBA", "CSL", "WES"}, 300, 42)

	s.Config.Crossover = config.CrossoverOptions{SMA1: 10, SMA2: 30}
	s.Config.CrossoverLongOnly = config.CrossoverOptions{SMA1: 10, SMA2: 30}
	s.Config.ML = config.CrossoverOptions{SMA1: 10, SMA2: 30}
	s.Config.CrossoverPlus.SMA1 = 10
	s.Config.CrossoverPlus.SMA2 = 30
}

// useProxies trades BHP as the long proxy and CBA as the short proxy.
func (s *BacktestE2ETestSuite) useProxies() {
	s.Config.Data.Bulk = false
	s.Config.Data.Tickers = []string{"BHP", "CBA"}
}

// checkJournal verifies the files written for one run against each other.
func (s *BacktestE2ETestSuite) checkJournal(folder string, name types.StrategyName) ([]types.Order, []types.Trade) {
	stats := testhelper.ReadStats(&s.E2ETestSuite, folder)
	s.Equal(string(name), stats.StrategyName)
	s.Equal(s.Config.Broker.Cash, stats.StartingValue)
	s.Positive(stats.FinalValue)
	s.True(stats.EndDate.After(stats.StartDate))

	orders := testhelper.ReadOrders(&s.E2ETestSuite, folder)
	for _, order := range orders {
		s.Equal(string(name), order.StrategyName)
		s.Positive(order.Quantity)

		if order.Status == types.OrderStatusCompleted {
			s.Positive(order.ExecutedPrice, "order %s has no fill price", order.OrderID)
			s.False(order.ExecutedAt.Before(order.CreatedAt), "order %s filled before it was created", order.OrderID)
		}
	}

	trades := testhelper.ReadTrades(&s.E2ETestSuite, folder)
	closed := 0

	for _, trade := range trades {
		s.Equal(string(name), trade.StrategyName)
		s.NotZero(trade.Size)

		if trade.IsClosed() {
			closed++

			s.False(trade.ClosedAt.Unwrap().Before(trade.OpenedAt))
			s.LessOrEqual(trade.PnLComm, trade.PnL)
		}
	}

	s.Equal(closed, stats.TradeResult.NumberOfTrades)

	return orders, trades
}

func (s *BacktestE2ETestSuite) TestCrossover() {
	result := testhelper.RunBacktest(&s.E2ETestSuite, types.StrategyCrossover)

	s.Equal([]string{"BHP", "CBA", "CSL", "WES"}, result.Selection.Added)
	s.Equal(filepath.Join(s.OutputDir, "Crossover-20250630-180000"), result.ResultFolder)

	orders, trades := s.checkJournal(result.ResultFolder, types.StrategyCrossover)
	s.NotEmpty(orders)
	s.NotEmpty(trades)

	records := testhelper.ReadEventLog(&s.E2ETestSuite, filepath.Join(s.OutputDir, eventlog.StrategyLogFile))
	s.Require().NotEmpty(records)

	kinds := map[string]int{}
	for _, record := range records {
		kinds[record.EventType]++
	}

	s.Positive(kinds[string(types.EventTypeDaily)])
	s.Positive(kinds[string(types.EventTypeOrder)])
}

func (s *BacktestE2ETestSuite) TestBenchmarkHoldsIndex() {
	result := testhelper.RunBacktest(&s.E2ETestSuite, types.StrategyCrossover)

	folder := filepath.Join(result.ResultFolder, backtester.BenchmarkFolder)
	_, trades := s.checkJournal(folder, types.StrategyBenchmark)

	s.Require().Len(trades, 1)
	s.Equal("XJO", trades[0].Symbol)
	s.Positive(trades[0].Size)
	s.Equal(1, result.Benchmark.Trades)

	records := testhelper.ReadEventLog(&s.E2ETestSuite, filepath.Join(s.OutputDir, eventlog.BenchmarkLogFile))
	s.NotEmpty(records)

	for _, record := range records {
		if record.Ticker != "" {
			s.Equal("XJO", record.Ticker)
		}
	}
}

func (s *BacktestE2ETestSuite) TestLongOnlyNeverShorts() {
	s.useProxies()

	result := testhelper.RunBacktest(&s.E2ETestSuite, types.StrategyCrossoverLongOnly)

	s.Equal([]string{"BHP", "CBA"}, result.Selection.Added)

	_, trades := s.checkJournal(result.ResultFolder, types.StrategyCrossoverLongOnly)
	for _, trade := range trades {
		s.True(trade.IsLong(), "trade %s on %s is short", trade.ID, trade.Symbol)
	}

	s.Zero(result.Strategy.ShortDays)
}

func (s *BacktestE2ETestSuite) TestEveryRunnableStrategy() {
	for _, name := range types.RunnableStrategies {
		s.Run(string(name), func() {
			bulk, tickers := s.Config.Data.Bulk, s.Config.Data.Tickers
			defer func() { s.Config.Data.Bulk, s.Config.Data.Tickers = bulk, tickers }()

			if name == types.StrategyCrossoverLongOnly {
				s.useProxies()
			}

			result := testhelper.RunBacktest(&s.E2ETestSuite, name)

			s.Equal(string(name), result.Strategy.Name)
			s.checkJournal(result.ResultFolder, name)
			s.FileExists(filepath.Join(s.OutputDir, eventlog.StrategyLogFile))
		})
	}
}

func (s *BacktestE2ETestSuite) TestSmallCapOnly() {
	s.WriteConstituents("BHP", "CBA")
	s.Config.GlobalOptions.SmallCapOnly = true

	result := testhelper.RunBacktest(&s.E2ETestSuite, types.StrategyCrossover)

	s.Equal([]string{"CSL", "WES"}, result.Selection.Added)

	_, trades := s.checkJournal(result.ResultFolder, types.StrategyCrossover)
	for _, trade := range trades {
		s.Contains([]string{"CSL", "WES"}, trade.Symbol)
	}
}

func (s *BacktestE2ETestSuite) TestOptimiseCrossoverPlus() {
	s.Config.CrossoverPlus.Optimise = true
	s.Config.CrossoverPlus.OptimiseParallel = 2
	s.Config.CrossoverPlus.SMA1Range = config.OptimiseRange{Low: 5, High: 15, Step: 5}
	s.Config.CrossoverPlus.SMA2Range = config.OptimiseRange{Low: 20, High: 40, Step: 10}
	s.Config.CrossoverPlus.RSILowRange = config.OptimiseRange{Low: 30, High: 31, Step: 1}
	s.Config.CrossoverPlus.RSIHighRange = config.OptimiseRange{Low: 70, High: 71, Step: 1}
	s.Config.CrossoverPlus.RSIPeriodRange = config.OptimiseRange{Low: 14, High: 15, Step: 1}

	result := testhelper.RunBacktest(&s.E2ETestSuite, types.StrategyCrossoverPlus)

	s.Require().Len(result.Optimisation, 4)
	for i := 1; i < len(result.Optimisation); i++ {
		s.GreaterOrEqual(result.Optimisation[i-1].CAGR, result.Optimisation[i].CAGR)
	}

	s.InDelta(result.Optimisation[0].CAGR, result.Strategy.CAGR, 1e-9)

	content, err := os.ReadFile(filepath.Join(result.ResultFolder, backtester.OptimisationFile))
	s.Require().NoError(err)

	var written []types.OptimisationResult
	s.Require().NoError(yaml.Unmarshal(content, &written))
	s.Equal(result.Optimisation, written)

	s.checkJournal(result.ResultFolder, types.StrategyCrossoverPlus)
}
