package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/askdb/askdb/internal/dataset"
	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/schema"
)

const DefaultSchema = "public"

// Engine exposes the tables of one postgres schema.
type Engine struct {
	db     *sql.DB
	schema string
}

func Open(ctx context.Context, cfg DBConfig, schemaName string) (*Engine, error) {
	schemaName = strings.TrimSpace(schemaName)
	if schemaName == "" {
		schemaName = DefaultSchema
	}
	if cfg.SearchPath == "" {
		cfg.SearchPath = schemaName
	}
	db, err := OpenDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(db, schemaName), nil
}

func New(db *sql.DB, schemaName string) *Engine {
	schemaName = strings.TrimSpace(schemaName)
	if schemaName == "" {
		schemaName = DefaultSchema
	}
	return &Engine{db: db, schema: schemaName}
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
WHERE table_schema = $1
ORDER BY table_name`, e.schema)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	return query.ScanStrings(rows)
}

func (e *Engine) ListColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, `
SELECT column_name
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`, e.schema, table)
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

// Load replaces table with the rows of the file at path using COPY inside a
// single transaction. Table and column names are folded to lower case so the
// unquoted identifiers in compiled intents resolve the way postgres folds them.
func (e *Engine) Load(ctx context.Context, table, path string, format dataset.Format) error {
	data, err := dataset.Read(path, format)
	if err != nil {
		return err
	}
	table, data, err = foldIdentifiers(table, data)
	if err != nil {
		return err
	}

	conn, err := e.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire postgres conn: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return conn.Raw(func(driverConn any) error {
		stdConn, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("unexpected postgres driver connection %T", driverConn)
		}
		return e.copyTable(ctx, stdConn.Conn(), table, data)
	})
}

func (e *Engine) copyTable(ctx context.Context, conn *pgx.Conn, table string, data dataset.Table) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin load tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	identifier := pgx.Identifier{e.schema, table}
	if _, err := tx.Exec(ctx, `DROP TABLE IF EXISTS `+identifier.Sanitize()); err != nil {
		return fmt.Errorf("drop table %q: %w", table, err)
	}
	if _, err := tx.Exec(ctx, createTableSQL(identifier, data)); err != nil {
		return fmt.Errorf("create table %q: %w", table, err)
	}
	if _, err := tx.CopyFrom(ctx, identifier, data.Columns, pgx.CopyFromRows(data.Rows)); err != nil {
		return fmt.Errorf("copy rows into %q: %w", table, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit load tx: %w", err)
	}
	return nil
}

func foldIdentifiers(table string, data dataset.Table) (string, dataset.Table, error) {
	columns := make([]string, len(data.Columns))
	seen := make(map[string]string, len(data.Columns))
	for i, column := range data.Columns {
		folded := strings.ToLower(column)
		if original, dup := seen[folded]; dup {
			return "", dataset.Table{}, fmt.Errorf("columns %q and %q collide after case folding", original, column)
		}
		seen[folded] = column
		columns[i] = folded
	}
	data.Columns = columns
	return strings.ToLower(table), data, nil
}

func createTableSQL(identifier pgx.Identifier, data dataset.Table) string {
	defs := make([]string, len(data.Columns))
	for i, column := range data.Columns {
		defs[i] = pgx.Identifier{column}.Sanitize() + " " + sqlType(data.Types[i])
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", identifier.Sanitize(), strings.Join(defs, ", "))
}

func sqlType(columnType dataset.ColumnType) string {
	switch columnType {
	case dataset.TypeInteger:
		return "BIGINT"
	case dataset.TypeReal:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}
