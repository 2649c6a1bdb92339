package results

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-strategy-lab/internal/backtest/engine"
	"github.com/rxtech-lab/argo-strategy-lab/internal/logger"
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
	"go.uber.org/zap"
)

// File names inside a result folder.
const (
	StatsFile    = "stats.yaml"
	ScoresFile   = "scores.yaml"
	DatabaseFile = "results.db"
	TradesFile   = "trades.parquet"
	EquityFile   = "equity.parquet"
)

// Writer persists backtest results into one folder: a DuckDB database with
// runs, trades and equity tables, parquet exports of those tables and YAML
// summaries.
type Writer struct {
	folder    string
	db        *sql.DB
	logger    *logger.Logger
	sq        squirrel.StatementBuilderType
	mu        sync.Mutex
	summaries []types.RunSummary
}

// NewWriter creates folder and opens its results database.
func NewWriter(folder string, log *logger.Logger) (*Writer, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeWriteFailed, "failed to create result folder", err)
	}

	db, err := sql.Open("duckdb", filepath.Join(folder, DatabaseFile))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open results database", err)
	}

	w := &Writer{
		folder:    folder,
		db:        db,
		logger:    log,
		sq:        squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		summaries: []types.RunSummary{},
	}

	if err := w.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return w, nil
}

// Folder returns the result folder.
func (w *Writer) Folder() string {
	return w.folder
}

func (w *Writer) initialize() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			name TEXT,
			symbol TEXT,
			strategies TEXT,
			timestamp TIMESTAMP,
			processed_bars BIGINT,
			final_capital DOUBLE,
			roi DOUBLE,
			closed_trades BIGINT,
			error TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			run_id TEXT,
			seq BIGINT,
			time TIMESTAMP,
			symbol TEXT,
			type TEXT,
			price DOUBLE,
			quantity DOUBLE,
			triggering_strategies TEXT,
			capital_before DOUBLE,
			fee DOUBLE,
			pnl DOUBLE
		)`,
		`CREATE TABLE IF NOT EXISTS equity (
			run_id TEXT,
			seq BIGINT,
			time TIMESTAMP,
			capital DOUBLE,
			position_value DOUBLE,
			unrealized_pnl DOUBLE
		)`,
	}

	for _, statement := range statements {
		if _, err := w.db.Exec(statement); err != nil {
			return errors.Wrap(errors.ErrCodeWriteFailed, "failed to create results table", err)
		}
	}

	return nil
}

// Record stores one run under name. A failed run only gets a runs row.
func (w *Writer) Record(name string, result types.BacktestResult, runErr error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	summary := result.Summary()
	if summary.RunID == "" {
		summary.RunID = "failed-" + name
	}

	if len(summary.Strategies) == 0 {
		summary.Strategies = []string{name}
	}

	if summary.Warnings == nil {
		summary.Warnings = []string{}
	}

	errText := ""
	if runErr != nil {
		errText = runErr.Error()
		summary.Error = errText
	}

	tx, err := w.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to begin transaction", err)
	}

	_, err = w.sq.
		Insert("runs").
		Columns("run_id", "name", "symbol", "strategies", "timestamp", "processed_bars",
			"final_capital", "roi", "closed_trades", "error").
		Values(summary.RunID, name, result.Symbol, strings.Join(summary.Strategies, ","), result.Timestamp,
			result.ProcessedBars, result.Metrics.FinalCapital, result.Metrics.ROI, result.Metrics.ClosedTrades, errText).
		RunWith(tx).
		Exec()
	if err != nil {
		tx.Rollback()

		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to insert run %s", name)
	}

	if len(result.Trades) > 0 {
		insert := w.sq.Insert("trades").Columns("run_id", "seq", "time", "symbol", "type", "price", "quantity",
			"triggering_strategies", "capital_before", "fee", "pnl")
		for i, trade := range result.Trades {
			insert = insert.Values(summary.RunID, i, trade.Time, trade.Symbol, string(trade.Type), trade.Price,
				trade.Quantity, strings.Join(trade.TriggeringStrategies, ","), trade.CapitalBefore, trade.Fee, trade.PnL)
		}

		if _, err := insert.RunWith(tx).Exec(); err != nil {
			tx.Rollback()

			return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to insert trades of %s", name)
		}
	}

	if len(result.EquityCurve) > 0 {
		insert := w.sq.Insert("equity").Columns("run_id", "seq", "time", "capital", "position_value", "unrealized_pnl")
		for i, point := range result.EquityCurve {
			insert = insert.Values(summary.RunID, i, point.Time, point.Capital, point.PositionValue, point.UnrealizedPnL)
		}

		if _, err := insert.RunWith(tx).Exec(); err != nil {
			tx.Rollback()

			return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to insert equity curve of %s", name)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to commit results", err)
	}

	w.summaries = append(w.summaries, summary)

	return nil
}

// RecordRuns stores every run of a batch in order.
func (w *Writer) RecordRuns(runs []engine.StrategyRun) error {
	for _, run := range runs {
		if err := w.Record(run.Name, run.Result, run.Err); err != nil {
			return err
		}
	}

	return nil
}

// WriteScores writes a ranking to scores.yaml.
func (w *Writer) WriteScores(scores []types.StrategyScore) error {
	path := filepath.Join(w.folder, ScoresFile)
	if err := types.WriteStrategyScores(path, scores); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to write scores", err)
	}

	return nil
}

// Flush writes stats.yaml and exports trades and equity to parquet.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	statsPath := filepath.Join(w.folder, StatsFile)
	if err := types.WriteRunSummaries(statsPath, w.summaries); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to write stats", err)
	}

	// Using raw SQL as Squirrel doesn't support COPY
	tradesPath := filepath.Join(w.folder, TradesFile)
	if _, err := w.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM trades ORDER BY run_id, seq) TO '%s' (FORMAT PARQUET)`, tradesPath)); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to export trades to Parquet", err)
	}

	equityPath := filepath.Join(w.folder, EquityFile)
	if _, err := w.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM equity ORDER BY run_id, seq) TO '%s' (FORMAT PARQUET)`, equityPath)); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to export equity to Parquet", err)
	}

	w.logger.Info("Successfully exported backtest results",
		zap.String("folder", w.folder),
		zap.Int("runs", len(w.summaries)),
	)

	return nil
}

// Trades reads back the trades of runID in fill order.
func (w *Writer) Trades(runID string) ([]types.Trade, error) {
	rows, err := w.sq.
		Select("time", "symbol", "type", "price", "quantity", "triggering_strategies", "capital_before", "fee", "pnl").
		From("trades").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("seq").
		RunWith(w.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	trades := []types.Trade{}

	for rows.Next() {
		var (
			trade      types.Trade
			side       string
			triggering string
			timestamp  time.Time
		)

		if err := rows.Scan(&timestamp, &trade.Symbol, &side, &trade.Price, &trade.Quantity, &triggering,
			&trade.CapitalBefore, &trade.Fee, &trade.PnL); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade", err)
		}

		trade.Time = timestamp
		trade.Type = types.TradeType(side)
		trade.TriggeringStrategies = []string{}

		if triggering != "" {
			trade.TriggeringStrategies = strings.Split(triggering, ",")
		}

		trades = append(trades, trade)
	}

	return trades, rows.Err()
}

// EquityCount returns the number of equity points stored for runID.
func (w *Writer) EquityCount(runID string) (int, error) {
	var count int

	err := w.sq.Select("COUNT(*)").From("equity").Where(squirrel.Eq{"run_id": runID}).RunWith(w.db).QueryRow().Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count equity points", err)
	}

	return count, nil
}

// Close closes the results database.
func (w *Writer) Close() error {
	return w.db.Close()
}
