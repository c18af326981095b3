package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/askdb/askdb/internal/dataset"
	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/schema"
)

// Engine is a persistent DuckDB database. An empty path opens an in-memory
// database.
type Engine struct {
	db *sql.DB
}

func Open(ctx context.Context, path string) (*Engine, error) {
	db, err := sql.Open("duckdb", strings.TrimSpace(path))
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
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
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'main'
		ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	return query.ScanStrings(rows)
}

func (e *Engine) ListColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = 'main' AND table_name = ?
		ORDER BY ordinal_position`, table)
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

// Load replaces table with the contents of the file at path.
func (e *Engine) Load(ctx context.Context, table, path string, format dataset.Format) error {
	var reader string
	switch format {
	case dataset.FormatCSV:
		reader = "read_csv_auto"
	case dataset.FormatParquet:
		reader = "read_parquet"
	default:
		return fmt.Errorf("unsupported format %q", format)
	}

	statement := fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS SELECT * FROM %s(%s)`,
		query.QuoteIdent(table), reader, query.QuoteString(path))
	if _, err := e.db.ExecContext(ctx, statement); err != nil {
		return fmt.Errorf("load table %q: %w", table, err)
	}
	return nil
}
