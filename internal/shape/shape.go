// Package shape classifies raw query rows into the canonical forms a plotting
// step consumes.
package shape

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/askdb/askdb/internal/query"
)

type Kind string

const (
	KindEmpty       Kind = "empty"
	KindCategorical Kind = "categorical"
	KindNumeric     Kind = "numeric"
	KindTable       Kind = "table"
)

type Result interface {
	Kind() Kind
}

// Empty signals a query that returned no rows. It is not an error.
type Empty struct{}

func (Empty) Kind() Kind { return KindEmpty }

func (Empty) MarshalJSON() ([]byte, error) { return []byte("[]"), nil }

type Categorical struct {
	Categories []string `json:"categories"`
	Counts     []int    `json:"counts"`
	Total      int      `json:"total"`
}

func (Categorical) Kind() Kind { return KindCategorical }

// Numeric holds a single numeric column. Integers above 2^53 in magnitude lose
// precision in the conversion to float64.
type Numeric struct {
	Values []float64 `json:"values"`
	Total  int       `json:"total"`
}

func (Numeric) Kind() Kind { return KindNumeric }

type Table struct {
	Rows      []map[string]any `json:"rows"`
	Columns   []string         `json:"columns"`
	TotalRows int              `json:"total_rows"`
}

func (Table) Kind() Kind { return KindTable }

type MixedTypesError struct {
	Row  int
	Want string
	Got  string
}

func (e *MixedTypesError) Error() string {
	return fmt.Sprintf("row %d: expected %s value, got %s", e.Row, e.Want, e.Got)
}

type RaggedRowError struct {
	Row  int
	Want int
	Got  int
}

func (e *RaggedRowError) Error() string {
	return fmt.Sprintf("row %d: expected %d values, got %d", e.Row, e.Want, e.Got)
}

// Shape classifies rows by the arity of the first row and, for single
// columns, by the class of the first value. Every later value must share that
// class; mixed columns are rejected rather than coerced.
func Shape(rows [][]any) (Result, error) {
	if len(rows) == 0 {
		return Empty{}, nil
	}
	arity := len(rows[0])
	for i, row := range rows {
		if len(row) != arity {
			return nil, &RaggedRowError{Row: i, Want: arity, Got: len(row)}
		}
	}
	if arity == 0 {
		return nil, &RaggedRowError{Row: 0, Want: 1, Got: 0}
	}
	if arity > 1 {
		return toTable(rows, arity), nil
	}

	if _, ok := asString(rows[0][0]); ok {
		categorical, err := toCategorical(rows)
		if err != nil {
			return nil, err
		}
		return categorical, nil
	}
	numeric, err := toNumeric(rows)
	if err != nil {
		return nil, err
	}
	return numeric, nil
}

func toCategorical(rows [][]any) (Categorical, error) {
	out := Categorical{Total: len(rows)}
	index := make(map[string]int)
	for i, row := range rows {
		value, ok := asString(row[0])
		if !ok {
			return Categorical{}, &MixedTypesError{Row: i, Want: "string", Got: typeName(row[0])}
		}
		if pos, seen := index[value]; seen {
			out.Counts[pos]++
			continue
		}
		index[value] = len(out.Categories)
		out.Categories = append(out.Categories, value)
		out.Counts = append(out.Counts, 1)
	}
	return out, nil
}

func toNumeric(rows [][]any) (Numeric, error) {
	out := Numeric{Values: make([]float64, 0, len(rows)), Total: len(rows)}
	for i, row := range rows {
		value, ok := asNumber(row[0])
		if !ok {
			return Numeric{}, &MixedTypesError{Row: i, Want: "numeric", Got: typeName(row[0])}
		}
		out.Values = append(out.Values, value)
	}
	return out, nil
}

func toTable(rows [][]any, arity int) Table {
	columns := make([]string, arity)
	for i := range columns {
		columns[i] = fmt.Sprintf("col_%d", i)
	}
	out := Table{
		Rows:      make([]map[string]any, 0, len(rows)),
		Columns:   columns,
		TotalRows: len(rows),
	}
	for _, row := range rows {
		record := make(map[string]any, arity)
		for i, value := range row {
			switch v := value.(type) {
			case []byte:
				value = string(v)
			case time.Time:
				value = query.FormatTime(v)
			}
			record[columns[i]] = value
		}
		out.Rows = append(out.Rows, record)
	}
	return out
}

func asString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case time.Time:
		return query.FormatTime(v), true
	default:
		return "", false
	}
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case interface{ Float64() float64 }:
		return v.Float64(), true
	default:
		return 0, false
	}
}

func typeName(value any) string {
	if value == nil {
		return "null"
	}
	return fmt.Sprintf("%T", value)
}
