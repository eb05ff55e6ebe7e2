package main

import (
	"context"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-equities/internal/config"
	"github.com/rxtech-lab/argo-equities/internal/logger"
	"github.com/urfave/cli/v3"
)

func browseAction(_ context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	dataPath := cfg.Data.Path
	if cmd.IsSet("data") {
		dataPath = cmd.String("data")
	}

	// the terminal belongs to the UI, so only errors are logged
	appLogger, err := logger.NewLoggerWithOptions("error", cfg.GlobalOptions.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	ds, err := datasource.NewDataSource("", cfg.LoadOptions(), appLogger)
	if err != nil {
		return err
	}
	defer ds.Close()

	if err := ds.Initialize(dataPath); err != nil {
		return err
	}

	if _, err := tea.NewProgram(NewModel(ds), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("data browser failed: %w", err)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "data",
		Usage: "Browse the daily price data the backtester loads",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the config file",
				Value:   "config.yaml",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Data directory, overriding data.path of the config",
			},
		},
		Action: browseAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
