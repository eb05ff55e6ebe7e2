package strategy

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine"
	"github.com/rxtech-lab/argo-equities/internal/config"
	"github.com/rxtech-lab/argo-equities/internal/indicator"
	eventlog "github.com/rxtech-lab/argo-equities/internal/log"
	"github.com/rxtech-lab/argo-equities/internal/logger"
	"github.com/rxtech-lab/argo-equities/internal/universe"
)

// Strategy is an engine strategy that reports how it did once stopped.
type Strategy interface {
	engine.Strategy
	// Summary is valid after Stop.
	Summary() Summary
}

// Options carries what every strategy is built with.
type Options struct {
	Config config.Config
	// EventLog receives the daily, order, trade and strategy rows. Nil discards them.
	EventLog eventlog.EventLog
	Logger   *logger.Logger
	// Indicators builds the indicator lines. Nil uses the default registry.
	Indicators indicator.IndicatorRegistry
	// Range is the window the CAGR is computed over. None uses the dates of the run.
	Range optional.Option[universe.Range]
}

// Summary is the outcome of a strategy run.
type Summary struct {
	Name       string
	StartDate  time.Time
	EndDate    time.Time
	Years      float64
	StartValue float64
	FinalValue float64
	// CAGR is in percent.
	CAGR float64
	// Trades counts the orders the strategy placed.
	Trades    int
	LongDays  int
	ShortDays int
}
