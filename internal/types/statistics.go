package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type TradeResult struct {
	// Count of all closed trades.
	NumberOfTrades int `yaml:"number_of_trades"`
	// Count of winning trades that has positive net pnl.
	NumberOfWinningTrades int `yaml:"number_of_winning_trades"`
	// Count of losing trades that has negative net pnl.
	NumberOfLosingTrades int `yaml:"number_of_losing_trades"`
	// Win rate.
	WinRate float64 `yaml:"win_rate"`
	// Number of orders sent to the broker.
	NumberOfOrders int `yaml:"number_of_orders"`
}

type Exposure struct {
	// Ticker-days spent long.
	LongDays int `yaml:"long_days"`
	// Ticker-days spent short.
	ShortDays int `yaml:"short_days"`
	// LongPercent is long days over elapsed days times tickers.
	LongPercent float64 `yaml:"long_percent"`
	// ShortPercent is short days over elapsed days times tickers.
	ShortPercent float64 `yaml:"short_percent"`
}

// BacktestStats summarises one strategy run.
type BacktestStats struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp    time.Time `yaml:"timestamp" json:"timestamp"`
	StrategyName string    `yaml:"strategy_name" json:"strategy_name"`
	Tickers      []string  `yaml:"tickers" json:"tickers"`
	StartDate    time.Time `yaml:"start_date" json:"start_date"`
	EndDate      time.Time `yaml:"end_date" json:"end_date"`
	// ElapsedYears is elapsed calendar days over 365.25.
	ElapsedYears  float64 `yaml:"elapsed_years" json:"elapsed_years"`
	StartingValue float64 `yaml:"starting_value" json:"starting_value"`
	FinalValue    float64 `yaml:"final_value" json:"final_value"`
	FinalCash     float64 `yaml:"final_cash" json:"final_cash"`
	// CAGR in percent.
	CAGR float64 `yaml:"cagr" json:"cagr"`
	// TotalReturn in percent.
	TotalReturn float64 `yaml:"total_return" json:"total_return"`
	// MaxDrawdown in percent of the running peak value.
	MaxDrawdown float64     `yaml:"max_drawdown" json:"max_drawdown"`
	Sharpe      float64     `yaml:"sharpe" json:"sharpe"`
	TotalFees   float64     `yaml:"total_fees" json:"total_fees"`
	TradeResult TradeResult `yaml:"trade_result" json:"trade_result"`
	Exposure    Exposure    `yaml:"exposure" json:"exposure"`
	// Paths of the exported journal files, empty when reports are disabled.
	TradesFilePath string `yaml:"trades_file_path,omitempty" json:"trades_file_path,omitempty"`
	OrdersFilePath string `yaml:"orders_file_path,omitempty" json:"orders_file_path,omitempty"`
	EquityFilePath string `yaml:"equity_file_path,omitempty" json:"equity_file_path,omitempty"`
	MarksFilePath  string `yaml:"marks_file_path,omitempty" json:"marks_file_path,omitempty"`
}

// OptimisationResult is the outcome of one parameter combination.
type OptimisationResult struct {
	Parameters map[string]float64 `yaml:"parameters" json:"parameters"`
	CAGR       float64            `yaml:"cagr" json:"cagr"`
	FinalValue float64            `yaml:"final_value" json:"final_value"`
	Trades     int                `yaml:"trades" json:"trades"`
}

func WriteStats(path string, stats []BacktestStats) error {
	return writeYAML(path, stats)
}

func WriteOptimisationResults(path string, results []OptimisationResult) error {
	return writeYAML(path, results)
}

func writeYAML(path string, value any) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write stats to file: %w", err)
	}

	return nil
}
