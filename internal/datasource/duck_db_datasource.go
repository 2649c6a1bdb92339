package datasource

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-strategy-lab/internal/logger"
	"github.com/rxtech-lab/argo-strategy-lab/internal/types"
	"github.com/rxtech-lab/argo-strategy-lab/pkg/errors"
	"go.uber.org/zap"
)

// insertBatchSize bounds the rows of a single INSERT statement in Write.
const insertBatchSize = 500

type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

var _ DataSource = (*DuckDBDataSource)(nil)

// NewDataSource opens a DuckDB database at path. Use ":memory:" for a transient one.
func NewDataSource(path string, logger *logger.Logger) (*DuckDBDataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements DataSource. The reader is picked from the file extension.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	reader, err := readerFor(path)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`DROP VIEW IF EXISTS market_data;`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// Using raw SQL as Squirrel doesn't support CREATE VIEW
	query := fmt.Sprintf(`
		CREATE VIEW market_data AS
		SELECT
			CAST(time AS TIMESTAMP) AS time,
			CAST(symbol AS VARCHAR) AS symbol,
			CAST(open AS DOUBLE) AS open,
			CAST(high AS DOUBLE) AS high,
			CAST(low AS DOUBLE) AS low,
			CAST(close AS DOUBLE) AS close,
			CAST(volume AS DOUBLE) AS volume
		FROM %s;
	`, reader)

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to read %s", path)
	}

	return nil
}

func readerFor(path string) (string, error) {
	quoted := strings.ReplaceAll(path, "'", "''")

	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return fmt.Sprintf("read_parquet('%s')", quoted), nil
	case ".csv":
		return fmt.Sprintf("read_csv_auto('%s', header = true)", quoted), nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported data file %s, expected .parquet or .csv", path)
	}
}

// where applies the symbol and time filters of query.
func where(builder squirrel.SelectBuilder, query Query) squirrel.SelectBuilder {
	if query.Symbol != "" {
		builder = builder.Where(squirrel.Eq{"symbol": query.Symbol})
	}

	if query.Start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"time": query.Start.Unwrap()})
	}

	if query.End.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"time": query.End.Unwrap()})
	}

	return builder
}

// selectBars builds the bar query, bucketed by time_bucket when an interval is set.
func (d *DuckDBDataSource) selectBars(query Query) (string, []interface{}, error) {
	if query.Interval.IsNone() {
		return where(d.sq.
			Select("time", "symbol", "open", "high", "low", "close", "volume").
			From("market_data"), query).
			OrderBy("time ASC", "symbol ASC").
			ToSql()
	}

	minutes, err := query.Interval.Unwrap().Minutes()
	if err != nil {
		return "", nil, err
	}

	return where(d.sq.
		Select(
			fmt.Sprintf("time_bucket(INTERVAL '%d minutes', time) AS bucket", minutes),
			"symbol",
			"arg_min(open, time) AS open",
			"MAX(high) AS high",
			"MIN(low) AS low",
			"arg_max(close, time) AS close",
			"SUM(volume) AS volume",
		).
		From("market_data"), query).
		GroupBy("bucket", "symbol").
		OrderBy("bucket ASC", "symbol ASC").
		ToSql()
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(query Query) (int, error) {
	sqlQuery, args, err := where(d.sq.Select("COUNT(*)").From("market_data"), query).ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := d.db.QueryRow(sqlQuery, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// ReadAll implements DataSource.
func (d *DuckDBDataSource) ReadAll(query Query) func(yield func(types.Bar, error) bool) {
	return func(yield func(types.Bar, error) bool) {
		d.logger.Debug("Reading bars from DuckDB",
			zap.String("symbol", query.Symbol),
			zap.Bool("resampled", query.Interval.IsSome()),
		)

		sqlQuery, args, err := d.selectBars(query)
		if err != nil {
			yield(types.Bar{}, err)

			return
		}

		rows, err := d.db.Query(sqlQuery, args...)
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query bars", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			var bar types.Bar

			err := rows.Scan(&bar.Time, &bar.Symbol, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume)
			if err != nil {
				yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err))

				return
			}

			if !yield(bar, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating bars", err))
		}
	}
}

// Bars implements DataSource.
func (d *DuckDBDataSource) Bars(query Query) ([]types.Bar, error) {
	return collect(d.ReadAll(query))
}

// Symbols implements DataSource.
func (d *DuckDBDataSource) Symbols() ([]string, error) {
	sqlQuery, args, err := d.sq.Select("DISTINCT symbol").From("market_data").OrderBy("symbol").ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build symbol query", err)
	}

	rows, err := d.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to get symbols", err)
	}
	defer rows.Close()

	var symbols []string

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan symbol", err)
		}

		symbols = append(symbols, symbol)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating symbols", err)
	}

	return symbols, nil
}

// Write exports bars to a parquet or CSV file, picked from the extension of path.
func (d *DuckDBDataSource) Write(path string, bars []types.Bar) error {
	format, err := copyFormat(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to create directory", err)
	}

	if _, err := d.db.Exec(`
		CREATE OR REPLACE TABLE export_bars (
			time TIMESTAMP,
			symbol TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE
		)
	`); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to create export table", err)
	}

	for start := 0; start < len(bars); start += insertBatchSize {
		end := min(start+insertBatchSize, len(bars))

		insert := d.sq.Insert("export_bars").Columns("time", "symbol", "open", "high", "low", "close", "volume")
		for _, bar := range bars[start:end] {
			insert = insert.Values(bar.Time.UTC(), bar.Symbol, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
		}

		sqlQuery, args, err := insert.ToSql()
		if err != nil {
			return errors.Wrap(errors.ErrCodeWriteFailed, "failed to build insert", err)
		}

		if _, err := d.db.Exec(sqlQuery, args...); err != nil {
			return errors.Wrap(errors.ErrCodeWriteFailed, "failed to insert bars", err)
		}
	}

	// Using raw SQL as Squirrel doesn't support COPY
	_, err = d.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM export_bars ORDER BY time) TO '%s' (%s)`,
		strings.ReplaceAll(path, "'", "''"), format))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to export bars to %s", path)
	}

	if _, err := d.db.Exec(`DROP TABLE IF EXISTS export_bars`); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to drop export table", err)
	}

	d.logger.Info("Exported bars",
		zap.String("path", path),
		zap.Int("bars", len(bars)),
		zap.Duration("span", span(bars)),
	)

	return nil
}

func copyFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return "FORMAT PARQUET", nil
	case ".csv":
		return "FORMAT CSV, HEADER", nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported output file %s, expected .parquet or .csv", path)
	}
}

func span(bars []types.Bar) time.Duration {
	if len(bars) < 2 {
		return 0
	}

	return bars[len(bars)-1].Time.Sub(bars[0].Time)
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	if d.db != nil {
		return d.db.Close()
	}

	return nil
}
