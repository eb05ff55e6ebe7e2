package log

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/internal/utils"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
)

const (
	StrategyLogFile  = "strategy_log.csv"
	BenchmarkLogFile = "benchmark_log.csv"
	// DateLayout is dd/mm/yyyy.
	DateLayout = "02/01/2006"
)

// Counts are the portfolio counters written on every row.
type Counts struct {
	Positions  int
	OpenOrders int
}

// EventLog records the daily account state and the order, trade and strategy events of a run.
type EventLog interface {
	// Daily writes the account state after a bar.
	Daily(date time.Time, cash float64, value float64, counts Counts) error
	// Order writes an order notification.
	Order(date time.Time, order types.Order, cash float64, value float64, counts Counts) error
	// Trade writes a closed trade. Open trades are ignored.
	Trade(date time.Time, trade types.Trade, counts Counts) error
	// Strategy writes a free text decision of the strategy.
	Strategy(date time.Time, ticker string, details string, counts Counts) error
	Close() error
}

// CSVEventLog appends events to a csv file. The header is written when the file is created.
type CSVEventLog struct {
	path   string
	mu     sync.Mutex
	file   *os.File
	writer *gocsv.SafeCSVWriter
}

// NewEventLog returns a csv event log at path when enabled, and a no-op log otherwise.
func NewEventLog(path string, enabled bool) EventLog {
	if !enabled {
		return NopEventLog{}
	}

	return &CSVEventLog{path: path}
}

// Clean removes the event logs of a previous run from dir and makes sure dir exists.
func Clean(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeEventLogFailed, err, "failed to create log directory %s", dir)
	}

	for _, name := range []string{StrategyLogFile, BenchmarkLogFile} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(errors.ErrCodeEventLogFailed, err, "failed to remove %s", name)
		}
	}

	return nil
}

func (l *CSVEventLog) Daily(date time.Time, cash float64, value float64, counts Counts) error {
	equity := value - cash

	cashPercent := 100.0
	if equity != 0 {
		cashPercent = percentOf(cash, value)
	}

	return l.write(types.EventRecord{
		Date:            date.Format(DateLayout),
		EventType:       string(types.EventTypeDaily),
		PortfolioCash:   formatFloat(utils.Round(cash, 2)),
		CashPct:         formatFloat(cashPercent),
		PortfolioEquity: formatFloat(utils.Round(equity, 2)),
		EquityPct:       formatFloat(percentOf(equity, value)),
	}, counts)
}

func (l *CSVEventLog) Order(date time.Time, order types.Order, cash float64, value float64, counts Counts) error {
	record := types.EventRecord{
		Date:        date.Format(DateLayout),
		Ticker:      order.Symbol,
		EventType:   string(types.EventTypeOrder),
		OrderType:   orderTypeName(order.Side),
		OrderStatus: string(order.Status),
	}

	switch order.Status {
	case types.OrderStatusCompleted, types.OrderStatusPartial:
		equity := value - cash

		cashPercent := 0.0
		if equity != 0 {
			cashPercent = percentOf(cash, value)
		}

		orderEquityPercent := 100.0
		if equity != 0 {
			orderEquityPercent = utils.Round(100*order.ExecutedValue/equity, 2)
		}

		record.Details = fmt.Sprintf("Slippage (executed_price/created_price): %.2f%%", order.Slippage())
		record.OrderEquityPct = formatFloat(orderEquityPercent)
		record.OrderCashPct = formatFloat(ratioPercent(order.ExecutedValue, cash))
		record.OrderTotalPct = formatFloat(ratioPercent(order.ExecutedValue, value))
		record.OrderSize = formatFloat(utils.Round(order.ExecutedValue, 2))
		record.PortfolioCash = formatFloat(utils.Round(cash, 2))
		record.PortfolioEquity = formatFloat(utils.Round(equity, 2))
		record.CashPct = formatFloat(cashPercent)
		record.EquityPct = formatFloat(percentOf(equity, value))
	case types.OrderStatusExpired, types.OrderStatusCanceled, types.OrderStatusMargin:
		record.Details = "Unexpected order status"
	}

	return l.write(record, counts)
}

func (l *CSVEventLog) Trade(date time.Time, trade types.Trade, counts Counts) error {
	if !trade.IsClosed() {
		return nil
	}

	closedOn := trade.ClosedAt.Unwrap().Format(time.DateOnly)

	return l.write(types.EventRecord{
		Date:      date.Format(DateLayout),
		Ticker:    trade.Symbol,
		EventType: string(types.EventTypeTrade),
		Details: fmt.Sprintf("Position opened on %s and closed on %s at price %.2f on %s",
			trade.OpenedAt.Format(time.DateOnly), closedOn, trade.Price, closedOn),
		TradePnL: formatFloat(utils.Round(trade.PnLComm, 2)),
	}, counts)
}

func (l *CSVEventLog) Strategy(date time.Time, ticker string, details string, counts Counts) error {
	return l.write(types.EventRecord{
		Date:      date.Format(DateLayout),
		Ticker:    ticker,
		EventType: string(types.EventTypeStrategy),
		Details:   details,
	}, counts)
}

// Close flushes and closes the file.
func (l *CSVEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	l.writer.Flush()
	err := l.writer.Error()

	if closeErr := l.file.Close(); err == nil {
		err = closeErr
	}

	l.file, l.writer = nil, nil

	if err != nil {
		return errors.Wrap(errors.ErrCodeEventLogFailed, "failed to close event log", err)
	}

	return nil
}

func (l *CSVEventLog) write(record types.EventRecord, counts Counts) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.open(); err != nil {
		return err
	}

	record.TotalPositions = strconv.Itoa(counts.Positions)
	record.TotalOrders = strconv.Itoa(counts.OpenOrders)

	if err := gocsv.MarshalCSVWithoutHeaders([]*types.EventRecord{&record}, l.writer); err != nil {
		return errors.Wrap(errors.ErrCodeEventLogFailed, "failed to append event", err)
	}

	return nil
}

func (l *CSVEventLog) open() error {
	if l.file != nil {
		return nil
	}

	_, statErr := os.Stat(l.path)
	isNew := os.IsNotExist(statErr)

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeEventLogFailed, err, "failed to open event log %s", l.path)
	}

	writer := gocsv.NewSafeCSVWriter(csv.NewWriter(file))

	if isNew {
		if err := writer.Write(types.EventLogHeader); err != nil {
			file.Close()

			return errors.Wrap(errors.ErrCodeEventLogFailed, "failed to write event log header", err)
		}
	}

	l.file, l.writer = file, writer

	return nil
}

// NopEventLog discards every event.
type NopEventLog struct{}

func (NopEventLog) Daily(time.Time, float64, float64, Counts) error { return nil }

func (NopEventLog) Order(time.Time, types.Order, float64, float64, Counts) error { return nil }

func (NopEventLog) Trade(time.Time, types.Trade, Counts) error { return nil }

func (NopEventLog) Strategy(time.Time, string, string, Counts) error { return nil }

func (NopEventLog) Close() error { return nil }

// percentOf is round(part/whole, 2)*100, zero when whole is zero.
func percentOf(part float64, whole float64) float64 {
	if whole == 0 {
		return 0
	}

	return utils.Round(utils.Round(part/whole, 2)*100, 2)
}

// ratioPercent is round(100*part/whole, 2), zero when whole is zero.
func ratioPercent(part float64, whole float64) float64 {
	if whole == 0 {
		return 0
	}

	return utils.Round(100*part/whole, 2)
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func orderTypeName(side types.PurchaseType) string {
	if side == types.PurchaseTypeBuy {
		return "Buy"
	}

	return "Sell"
}
