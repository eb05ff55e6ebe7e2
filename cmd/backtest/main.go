package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-equities/internal/backtester"
	"github.com/rxtech-lab/argo-equities/internal/config"
	"github.com/rxtech-lab/argo-equities/internal/logger"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/internal/utils"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// runBacktest loads the config, runs the strategy and the benchmark and prints the outcome to out.
func runBacktest(ctx context.Context, out io.Writer, configPath string, strategyName string, verbose bool) error {
	started := time.Now()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level := cfg.GlobalOptions.LogLevel
	if verbose {
		level = "debug"
	}

	appLogger, err := logger.NewLoggerWithOptions(level, cfg.GlobalOptions.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync() //nolint:errcheck // stderr sync fails on some terminals

	appLogger.Info("Starting backtest",
		zap.String("strategy", strategyName),
		zap.String("config", configPath),
		zap.String("data", cfg.Data.Path),
	)

	result, err := backtester.NewBacktester(cfg, appLogger, backtester.WithProgress(verbose)).
		Run(ctx, types.StrategyName(strategyName))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s final portfolio value: %.2f\n", result.Strategy.Name, result.Strategy.FinalValue)
	fmt.Fprintf(out, "%s CAGR: %.2f%%\n", result.Strategy.Name, result.Strategy.CAGR)
	fmt.Fprintf(out, "Benchmark final portfolio value: %.2f\n", result.Benchmark.FinalValue)
	fmt.Fprintf(out, "Benchmark CAGR: %.2f%%\n", result.Benchmark.CAGR)

	if len(result.Optimisation) > 0 {
		best := result.Optimisation[0]
		fmt.Fprintf(out, "Best of %d combinations: sma1=%.0f sma2=%.0f rsi_low=%.0f rsi_high=%.0f rsi_period=%.0f\n",
			len(result.Optimisation),
			best.Parameters["sma1"], best.Parameters["sma2"],
			best.Parameters["rsi_crossover_low"], best.Parameters["rsi_crossover_high"],
			best.Parameters["rsi_period"])
	}

	if result.ResultFolder != "" {
		fmt.Fprintf(out, "Results written to %s\n", result.ResultFolder)
	}

	fmt.Fprintf(out, "Runtime: %s\n", utils.FormatDuration(time.Since(started)))

	return nil
}

func strategyUsage() string {
	names := make([]string, len(types.RunnableStrategies))
	for i, name := range types.RunnableStrategies {
		names[i] = string(name)
	}

	return "Strategy to backtest (" + strings.Join(names, ", ") + ")"
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Backtest a strategy against the benchmark",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "strategy",
				Aliases:  []string{"s"},
				Usage:    strategyUsage(),
				Required: true,
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log at debug level and show progress bars",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the config file",
				Value:   "config.yaml",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runBacktest(ctx, os.Stdout, cmd.String("config"), cmd.String("strategy"), cmd.Bool("verbose"))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
