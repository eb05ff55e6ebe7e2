package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-equities/internal/logger"
	"github.com/rxtech-lab/argo-equities/internal/types"
	"github.com/rxtech-lab/argo-equities/pkg/errors"
	"go.uber.org/zap"
)

const MarksFileName = "marks.parquet"

var markColumns = []string{
	"id", "symbol", "time", "price", "color", "shape", "title", "message", "category",
	"signal_type", "signal_name", "signal_reason",
}

// BacktestMarker implements the Marker interface for backtesting purposes.
// It records fills and strategy signals in a DuckDB database.
type BacktestMarker struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewBacktestMarker creates a new instance of BacktestMarker.
func NewBacktestMarker(logger *logger.Logger) (*BacktestMarker, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))

		return nil, errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to open marker database", err)
	}

	if err := db.Ping(); err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to connect to marker database", err)
	}

	marker := &BacktestMarker{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := marker.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return marker, nil
}

// Mark implements the Marker interface.
func (m *BacktestMarker) Mark(mark types.Mark) error {
	if m == nil || m.db == nil {
		return errors.New(errors.ErrCodeMarkerNotAvailable, "backtest marker or database is nil")
	}

	var nextID int

	err := m.db.QueryRow("SELECT nextval('mark_id_seq')").Scan(&nextID)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to get next mark id", err)
	}

	var signalType, signalName, signalReason string

	if mark.Signal.IsSome() {
		signal := mark.Signal.Unwrap()
		signalType, signalName, signalReason = string(signal.Type), signal.Name, signal.Reason
	}

	_, err = m.sq.
		Insert("marks").
		Columns(markColumns...).
		Values(
			nextID, mark.Symbol, mark.Time, mark.Price, string(mark.Color), string(mark.Shape), mark.Title,
			mark.Message, mark.Category, signalType, signalName, signalReason,
		).
		RunWith(m.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to insert mark", err)
	}

	return nil
}

// GetMarks implements the Marker interface. Marks are returned in time order.
func (m *BacktestMarker) GetMarks() ([]types.Mark, error) {
	if m == nil || m.db == nil {
		return nil, errors.New(errors.ErrCodeMarkerNotAvailable, "backtest marker or database is nil")
	}

	rows, err := m.sq.
		Select(markColumns...).
		From("marks").
		OrderBy("time ASC", "id ASC").
		RunWith(m.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query marks", err)
	}
	defer rows.Close()

	var marks []types.Mark

	for rows.Next() {
		var id int

		var mark types.Mark

		var markTime time.Time

		var color, shape, signalType, signalName, signalReason string

		err := rows.Scan(
			&id, &mark.Symbol, &markTime, &mark.Price, &color, &shape, &mark.Title, &mark.Message,
			&mark.Category, &signalType, &signalName, &signalReason,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan mark", err)
		}

		mark.Time = markTime.UTC()
		mark.Color = types.MarkColor(color)
		mark.Shape = types.MarkShape(shape)
		mark.Signal = optional.None[types.Signal]()

		if signalType != "" {
			mark.Signal = optional.Some(types.Signal{
				Time:   mark.Time,
				Type:   types.SignalType(signalType),
				Name:   signalName,
				Reason: signalReason,
				Symbol: mark.Symbol,
			})
		}

		marks = append(marks, mark)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating marks", err)
	}

	return marks, nil
}

// Write saves the marks to a Parquet file in the specified directory.
func (m *BacktestMarker) Write(path string) error {
	if m == nil || m.db == nil || m.logger == nil {
		return errors.New(errors.ErrCodeMarkerNotAvailable, "backtest marker, database, or logger is nil")
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestNoResultsDir, "failed to create directory", err)
	}

	marksPath := filepath.Join(path, MarksFileName)

	_, err := m.db.Exec(fmt.Sprintf(`COPY marks TO '%s' (FORMAT PARQUET)`, escapeSQLString(marksPath)))
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to export marks to parquet", err)
	}

	m.logger.Debug("Exported marks",
		zap.String("marks", marksPath),
	)

	return nil
}

// Cleanup resets the database state.
func (m *BacktestMarker) Cleanup() error {
	if m == nil || m.db == nil {
		return errors.New(errors.ErrCodeMarkerNotAvailable, "backtest marker or database is nil")
	}

	_, err := m.db.Exec(`
		DROP TABLE IF EXISTS marks;
		DROP SEQUENCE IF EXISTS mark_id_seq;
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataWriteFailed, "failed to cleanup marks table", err)
	}

	return m.initialize()
}

// Close closes the database connection.
func (m *BacktestMarker) Close() error {
	if m == nil || m.db == nil {
		return nil
	}

	return m.db.Close()
}

func (m *BacktestMarker) initialize() error {
	_, err := m.db.Exec(`CREATE SEQUENCE IF NOT EXISTS mark_id_seq`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create mark sequence", err)
	}

	_, err = m.db.Exec(`
		CREATE TABLE IF NOT EXISTS marks (
			id INTEGER PRIMARY KEY,
			symbol TEXT,
			time TIMESTAMP,
			price DOUBLE,
			color TEXT,
			shape TEXT,
			title TEXT,
			message TEXT,
			category TEXT,
			signal_type TEXT,
			signal_name TEXT,
			signal_reason TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create marks table", err)
	}

	return nil
}
