package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/backtest/engine"
	"github.com/rxtech-lab/argo-equities/internal/logger"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/internal/utils"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
	"go.uber.org/zap"
)

const (
	OrdersFileName = "orders.parquet"
	TradesFileName = "trades.parquet"
	EquityFileName = "equity.parquet"
	StatsFileName  = "stats.yaml"
)

var orderColumns = []string{
	"order_id", "symbol", "side", "execution_type", "quantity", "status", "created_at", "created_price",
	"executed_at", "executed_price", "executed_value", "commission", "reason", "message", "strategy_name",
}

var tradeColumns = []string{
	"id", "symbol", "size", "price", "opened_at", "closed_at", "close_price",
	"pnl", "pnl_comm", "commission", "strategy_name",
}

// BacktestState journals the orders, trades and equity curve of one run in an
// in-memory DuckDB database.
type BacktestState struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
	// orderSeq keeps the submission order of order ids across upserts.
	orderSeq map[string]int
}

// StatsInput carries the run facts the journal does not hold.
type StatsInput struct {
	RunID         string
	StrategyName  string
	Tickers       []string
	StartingValue float64
	FinalCash     float64
	Exposure      types.Exposure
}

func NewBacktestState(logger *logger.Logger) (*BacktestState, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))

		return nil, errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to open state database", err)
	}

	return &BacktestState{
		logger:   logger,
		db:       db,
		sq:       squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		orderSeq: make(map[string]int),
	}, nil
}

// Initialize creates the journal tables.
func (b *BacktestState) Initialize() error {
	if b == nil || b.db == nil {
		return errors.New(errors.ErrCodeBacktestStateNil, "backtest state is nil")
	}

	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT PRIMARY KEY,
			seq INTEGER,
			symbol TEXT,
			side TEXT,
			execution_type TEXT,
			quantity DOUBLE,
			status TEXT,
			created_at TIMESTAMP,
			created_price DOUBLE,
			executed_at TIMESTAMP,
			executed_price DOUBLE,
			executed_value DOUBLE,
			commission DOUBLE,
			reason TEXT,
			message TEXT,
			strategy_name TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create orders table", err)
	}

	_, err = b.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			symbol TEXT,
			size DOUBLE,
			price DOUBLE,
			opened_at TIMESTAMP,
			closed_at TIMESTAMP,
			close_price DOUBLE,
			pnl DOUBLE,
			pnl_comm DOUBLE,
			commission DOUBLE,
			strategy_name TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create trades table", err)
	}

	_, err = b.db.Exec(`
		CREATE TABLE IF NOT EXISTS equity (
			date TIMESTAMP PRIMARY KEY,
			cash DOUBLE,
			value DOUBLE,
			positions INTEGER
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create equity table", err)
	}

	return nil
}

// RecordOrder inserts the order or replaces the row with the same id.
func (b *BacktestState) RecordOrder(order types.Order) error {
	seq, ok := b.orderSeq[order.OrderID]
	if !ok {
		seq = len(b.orderSeq)
		b.orderSeq[order.OrderID] = seq
	}

	_, err := b.sq.
		Insert("orders").
		Options("OR REPLACE").
		Columns(append([]string{"seq"}, orderColumns...)...).
		Values(
			seq, order.OrderID, order.Symbol, string(order.Side), string(order.ExecutionType), order.Quantity,
			string(order.Status), order.CreatedAt, order.CreatedPrice, nullTime(order.ExecutedAt),
			order.ExecutedPrice, order.ExecutedValue, order.Commission, order.Reason.Reason,
			order.Reason.Message, order.StrategyName,
		).
		RunWith(b.db).
		Exec()
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataWriteFailed, err, "failed to record order %s", order.OrderID)
	}

	return nil
}

// RecordTrade inserts the trade or replaces the row with the same id.
func (b *BacktestState) RecordTrade(trade types.Trade) error {
	closedAt := any(nil)
	if trade.ClosedAt.IsSome() {
		closedAt = trade.ClosedAt.Unwrap()
	}

	_, err := b.sq.
		Insert("trades").
		Options("OR REPLACE").
		Columns(tradeColumns...).
		Values(
			trade.ID, trade.Symbol, trade.Size, trade.Price, trade.OpenedAt, closedAt, trade.ClosePrice,
			trade.PnL, trade.PnLComm, trade.Commission, trade.StrategyName,
		).
		RunWith(b.db).
		Exec()
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataWriteFailed, err, "failed to record trade %s", trade.ID)
	}

	return nil
}

// RecordEquity stores the account state after a calendar date.
func (b *BacktestState) RecordEquity(point engine.EquityPoint) error {
	_, err := b.sq.
		Insert("equity").
		Options("OR REPLACE").
		Columns("date", "cash", "value", "positions").
		Values(point.Date, point.Cash, point.Value, point.Positions).
		RunWith(b.db).
		Exec()
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataWriteFailed, err, "failed to record equity on %s", point.Date.Format(time.DateOnly))
	}

	return nil
}

// GetOrders returns every order in submission order.
func (b *BacktestState) GetOrders() ([]types.Order, error) {
	return b.queryOrders(nil)
}

// GetOrderById returns the order with the given id, or None.
func (b *BacktestState) GetOrderById(orderID string) (optional.Option[types.Order], error) {
	orders, err := b.queryOrders(squirrel.Eq{"order_id": orderID})
	if err != nil {
		return optional.None[types.Order](), err
	}

	if len(orders) == 0 {
		return optional.None[types.Order](), nil
	}

	return optional.Some(orders[0]), nil
}

func (b *BacktestState) queryOrders(where squirrel.Sqlizer) ([]types.Order, error) {
	query := b.sq.
		Select(orderColumns...).
		From("orders").
		OrderBy("seq ASC")

	if where != nil {
		query = query.Where(where)
	}

	rows, err := query.RunWith(b.db).Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query orders", err)
	}
	defer rows.Close()

	var orders []types.Order

	for rows.Next() {
		var order types.Order

		var side, execution, status string

		var executedAt sql.NullTime

		err := rows.Scan(
			&order.OrderID, &order.Symbol, &side, &execution, &order.Quantity, &status, &order.CreatedAt,
			&order.CreatedPrice, &executedAt, &order.ExecutedPrice, &order.ExecutedValue, &order.Commission,
			&order.Reason.Reason, &order.Reason.Message, &order.StrategyName,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan order", err)
		}

		order.Side = types.PurchaseType(side)
		order.ExecutionType = types.ExecutionType(execution)
		order.Status = types.OrderStatus(status)
		order.CreatedAt = order.CreatedAt.UTC()

		if executedAt.Valid {
			order.ExecutedAt = executedAt.Time.UTC()
		}

		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating orders", err)
	}

	return orders, nil
}

// GetTrades returns every trade in opening order, open trades included.
func (b *BacktestState) GetTrades() ([]types.Trade, error) {
	rows, err := b.sq.
		Select(tradeColumns...).
		From("trades").
		OrderBy("opened_at ASC", "symbol ASC").
		RunWith(b.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.Trade

	for rows.Next() {
		var trade types.Trade

		var closedAt sql.NullTime

		err := rows.Scan(
			&trade.ID, &trade.Symbol, &trade.Size, &trade.Price, &trade.OpenedAt, &closedAt, &trade.ClosePrice,
			&trade.PnL, &trade.PnLComm, &trade.Commission, &trade.StrategyName,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade", err)
		}

		trade.OpenedAt = trade.OpenedAt.UTC()
		trade.ClosedAt = optional.None[time.Time]()

		if closedAt.Valid {
			trade.ClosedAt = optional.Some(closedAt.Time.UTC())
		}

		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating trades", err)
	}

	return trades, nil
}

// GetEquity returns the equity curve in date order.
func (b *BacktestState) GetEquity() ([]engine.EquityPoint, error) {
	rows, err := b.sq.
		Select("date", "cash", "value", "positions").
		From("equity").
		OrderBy("date ASC").
		RunWith(b.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query equity", err)
	}
	defer rows.Close()

	var points []engine.EquityPoint

	for rows.Next() {
		var point engine.EquityPoint
		if err := rows.Scan(&point.Date, &point.Cash, &point.Value, &point.Positions); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan equity", err)
		}

		point.Date = point.Date.UTC()
		points = append(points, point)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating equity", err)
	}

	return points, nil
}

func (b *BacktestState) calculateTradeResult() (types.TradeResult, error) {
	var result types.TradeResult

	err := b.sq.
		Select(
			"COUNT(*)",
			"COUNT(CASE WHEN pnl_comm > 0 THEN 1 END)",
			"COUNT(CASE WHEN pnl_comm < 0 THEN 1 END)",
		).
		From("trades").
		Where(squirrel.NotEq{"closed_at": nil}).
		RunWith(b.db).
		QueryRow().
		Scan(&result.NumberOfTrades, &result.NumberOfWinningTrades, &result.NumberOfLosingTrades)
	if err != nil {
		return types.TradeResult{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count trades", err)
	}

	err = b.sq.
		Select("COUNT(*)").
		From("orders").
		RunWith(b.db).
		QueryRow().
		Scan(&result.NumberOfOrders)
	if err != nil {
		return types.TradeResult{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count orders", err)
	}

	if result.NumberOfTrades > 0 {
		result.WinRate = float64(result.NumberOfWinningTrades) / float64(result.NumberOfTrades)
	}

	return result, nil
}

func (b *BacktestState) calculateTotalFees() (float64, error) {
	var fees float64

	err := b.sq.
		Select("COALESCE(SUM(commission), 0)").
		From("orders").
		Where(squirrel.Eq{"status": string(types.OrderStatusCompleted)}).
		RunWith(b.db).
		QueryRow().
		Scan(&fees)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to sum commissions", err)
	}

	return fees, nil
}

// GetStats summarises the journal.
func (b *BacktestState) GetStats(input StatsInput) (types.BacktestStats, error) {
	tradeResult, err := b.calculateTradeResult()
	if err != nil {
		return types.BacktestStats{}, err
	}

	fees, err := b.calculateTotalFees()
	if err != nil {
		return types.BacktestStats{}, err
	}

	equity, err := b.GetEquity()
	if err != nil {
		return types.BacktestStats{}, err
	}

	stats := types.BacktestStats{
		ID:            input.RunID,
		Timestamp:     time.Now(),
		StrategyName:  input.StrategyName,
		Tickers:       input.Tickers,
		StartingValue: input.StartingValue,
		FinalValue:    input.StartingValue,
		FinalCash:     input.FinalCash,
		TotalFees:     utils.Round(fees, 2),
		TradeResult:   tradeResult,
		Exposure:      input.Exposure,
	}

	if len(equity) == 0 {
		return stats, nil
	}

	values := make([]float64, len(equity))
	for i, point := range equity {
		values[i] = point.Value
	}

	stats.StartDate = equity[0].Date
	stats.EndDate = equity[len(equity)-1].Date
	stats.FinalValue = values[len(values)-1]

	days := int(stats.EndDate.Sub(stats.StartDate).Hours() / 24)
	stats.ElapsedYears = float64(days) / utils.DaysPerYear
	stats.CAGR = utils.CAGR(stats.StartingValue, stats.FinalValue, days)
	stats.TotalReturn = utils.TotalReturn(stats.StartingValue, stats.FinalValue)
	stats.MaxDrawdown = utils.MaxDrawdown(append([]float64{stats.StartingValue}, values...))
	stats.Sharpe = utils.Sharpe(utils.DailyReturns(values))

	return stats, nil
}

// Write exports the journal tables to parquet files in dir.
func (b *BacktestState) Write(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestNoResultsDir, "failed to create results directory", err)
	}

	exports := map[string]string{
		"orders": OrdersFileName,
		"trades": TradesFileName,
		"equity": EquityFileName,
	}

	for table, file := range exports {
		path := filepath.Join(dir, file)

		// COPY has no squirrel builder
		_, err := b.db.Exec(fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, table, escapeSQLString(path)))
		if err != nil {
			return errors.Wrapf(errors.ErrCodeDataWriteFailed, err, "failed to export %s", table)
		}
	}

	b.logger.Debug("Exported run journal",
		zap.String("dir", dir),
	)

	return nil
}

// Cleanup empties every table.
func (b *BacktestState) Cleanup() error {
	if b == nil || b.db == nil {
		return errors.New(errors.ErrCodeBacktestStateNil, "backtest state is nil")
	}

	for _, table := range []string{"orders", "trades", "equity"} {
		if _, err := b.sq.Delete(table).RunWith(b.db).Exec(); err != nil {
			return errors.Wrapf(errors.ErrCodeDataWriteFailed, err, "failed to clean %s", table)
		}
	}

	b.orderSeq = make(map[string]int)

	return nil
}

// Close closes the database connection.
func (b *BacktestState) Close() error {
	if b == nil || b.db == nil {
		return nil
	}

	return b.db.Close()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}

	return t
}

func escapeSQLString(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}
