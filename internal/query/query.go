package query

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"strings"
	"time"
)

type Request struct {
	SQL      string
	RowLimit int
}

type Result struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

type Executor interface {
	Execute(ctx context.Context, request Request) (Result, error)
}

// ExecutionError carries the statement that failed next to the engine error.
type ExecutionError struct {
	SQL string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execute %q: %v", e.SQL, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// PrepareSQL trims trailing semicolons and wraps the statement in an outer
// LIMIT when rowLimit is positive.
func PrepareSQL(sqlText string, rowLimit int) (string, error) {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	if trimmed == "" {
		return "", fmt.Errorf("sql is required")
	}
	if rowLimit > 0 {
		trimmed = fmt.Sprintf("SELECT * FROM (%s) AS q LIMIT %d", trimmed, rowLimit)
	}
	return trimmed, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Run executes sqlText on db and collects every row.
func Run(ctx context.Context, db queryer, request Request) (Result, error) {
	start := time.Now()
	sqlText, err := PrepareSQL(request.SQL, request.RowLimit)
	if err != nil {
		return Result{}, err
	}

	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return Result{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, fmt.Errorf("query columns: %w", err)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return Result{}, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, NormalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("iterate rows: %w", err)
	}

	return Result{
		Columns:  columns,
		Rows:     resultRows,
		Duration: time.Since(start),
	}, nil
}

// ScanStrings drains a single string column and closes rows.
func ScanStrings(rows *sql.Rows) ([]string, error) {
	defer func() { _ = rows.Close() }()
	values := make([]string, 0)
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate values: %w", err)
	}
	return values, nil
}

// NormalizeValues maps driver values onto the scalar kinds the result shaper
// understands: text, integers, floats, bools and nil. Dates and timestamps
// become strings, decimals become floats.
func NormalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		normalized[i] = normalizeValue(value)
	}
	return normalized
}

type floatValuer interface {
	Float64() float64
}

func normalizeValue(value any) any {
	switch typed := value.(type) {
	case []byte:
		return string(typed)
	case time.Time:
		return FormatTime(typed)
	case *big.Int:
		if typed == nil {
			return nil
		}
		if typed.IsInt64() {
			return typed.Int64()
		}
		f, _ := new(big.Float).SetInt(typed).Float64()
		return f
	case floatValuer:
		return typed.Float64()
	default:
		return typed
	}
}

// FormatTime renders midnight UTC values as plain dates, which is how DATE
// columns arrive from every driver.
func FormatTime(t time.Time) string {
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339Nano)
}

// QuoteIdent always quotes; it is used for DDL built by the stores, not for
// compiled intents.
func QuoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func QuoteString(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}
