package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/askdb/askdb/internal/dataset"
	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/schema"
)

type Engine struct {
	db *sql.DB
}

// Open opens the database file at dsn, creating it when missing.
func Open(ctx context.Context, dsn string) (*Engine, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite dsn is required")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// :memory: databases exist per connection.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return New(db), nil
}

func New(db *sql.DB) *Engine {
	return &Engine{db: db}
}

func (e *Engine) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

func (e *Engine) HealthCheck(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

func (e *Engine) ListTables(ctx context.Context) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT name
		FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	return query.ScanStrings(rows)
}

func (e *Engine) ListColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	columns, err := query.ScanStrings(rows)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", schema.ErrTableNotFound, table)
	}
	return columns, nil
}

func (e *Engine) Execute(ctx context.Context, request query.Request) (query.Result, error) {
	result, err := query.Run(ctx, e.db, request)
	if err != nil {
		return query.Result{}, &query.ExecutionError{SQL: request.SQL, Err: err}
	}
	return result, nil
}

// Load replaces table with the rows of the file at path inside a single
// transaction.
func (e *Engine) Load(ctx context.Context, table, path string, format dataset.Format) error {
	data, err := dataset.Read(path, format)
	if err != nil {
		return err
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+query.QuoteIdent(table)); err != nil {
		return fmt.Errorf("drop table %q: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(table, data)); err != nil {
		return fmt.Errorf("create table %q: %w", table, err)
	}

	if len(data.Rows) > 0 {
		stmt, err := tx.PrepareContext(ctx, insertSQL(table, data.Columns))
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, row := range data.Rows {
			if len(row) != len(data.Columns) {
				return fmt.Errorf("row %d has %d values, want %d", i+1, len(row), len(data.Columns))
			}
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return fmt.Errorf("insert row %d: %w", i+1, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit load tx: %w", err)
	}
	return nil
}

func createTableSQL(table string, data dataset.Table) string {
	defs := make([]string, len(data.Columns))
	for i, column := range data.Columns {
		defs[i] = query.QuoteIdent(column) + " " + sqlType(data.Types[i])
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", query.QuoteIdent(table), strings.Join(defs, ", "))
}

func insertSQL(table string, columns []string) string {
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = query.QuoteIdent(column)
		placeholders[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		query.QuoteIdent(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
}

func sqlType(columnType dataset.ColumnType) string {
	switch columnType {
	case dataset.TypeInteger:
		return "INTEGER"
	case dataset.TypeReal:
		return "REAL"
	default:
		return "TEXT"
	}
}
