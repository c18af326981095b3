// Package dataset reads tabular files and loads them into a data store.
package dataset

import (
	"fmt"
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// DetectFormat picks a format from the file extension of name.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(name))) {
	case ".csv":
		return FormatCSV, nil
	case ".parquet", ".pq":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unsupported dataset extension: %q", name)
	}
}

func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatParquet:
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unsupported dataset format: %q", raw)
	}
}

type ColumnType string

const (
	TypeInteger ColumnType = "integer"
	TypeReal    ColumnType = "real"
	TypeText    ColumnType = "text"
)

// Table is a fully materialized dataset. Rows hold int64, float64, string or
// nil values matching Types.
type Table struct {
	Columns []string
	Types   []ColumnType
	Rows    [][]any
}

// inferTypes narrows each column to the tightest type every non-null value
// fits. A column with only nulls is text.
func inferTypes(columns int, rows [][]any) []ColumnType {
	types := make([]ColumnType, columns)
	for col := range types {
		sawValue := false
		allInt := true
		allNumber := true
		for _, row := range rows {
			switch row[col].(type) {
			case nil:
				continue
			case int64:
			case float64:
				allInt = false
			default:
				allInt = false
				allNumber = false
			}
			sawValue = true
		}
		switch {
		case !sawValue:
			types[col] = TypeText
		case allInt:
			types[col] = TypeInteger
		case allNumber:
			types[col] = TypeReal
		default:
			types[col] = TypeText
		}
	}
	return types
}

// coerce rewrites row values so each column holds only its inferred type.
func coerce(types []ColumnType, rows [][]any) {
	for _, row := range rows {
		for col, value := range row {
			if value == nil {
				continue
			}
			switch types[col] {
			case TypeReal:
				if typed, ok := value.(int64); ok {
					row[col] = float64(typed)
				}
			case TypeText:
				switch typed := value.(type) {
				case int64, float64:
					row[col] = fmt.Sprint(typed)
				}
			}
		}
	}
}

func newTable(columns []string, rows [][]any) Table {
	types := inferTypes(len(columns), rows)
	coerce(types, rows)
	return Table{Columns: columns, Types: types, Rows: rows}
}

func validateColumns(columns []string) error {
	if len(columns) == 0 {
		return fmt.Errorf("dataset has no columns")
	}
	seen := make(map[string]struct{}, len(columns))
	for i, name := range columns {
		if name == "" {
			return fmt.Errorf("column %d has an empty name", i)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("duplicate column name %q", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
