// Package intent validates proposed query intents against a live schema and
// compiles validated intents into single-table SQL.
package intent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Operation string

const (
	OperationSelect Operation = "SELECT"
	OperationCount  Operation = "COUNT"
)

type Operator string

const (
	OperatorEq    Operator = "="
	OperatorGt    Operator = ">"
	OperatorLt    Operator = "<"
	OperatorGte   Operator = ">="
	OperatorLte   Operator = "<="
	OperatorLike  Operator = "LIKE"
	OperatorNotEq Operator = "!="
)

type Direction string

const (
	DirectionAsc  Direction = "ASC"
	DirectionDesc Direction = "DESC"
)

type Predicate struct {
	Column   string   `json:"column"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
}

// RawIntent is an unvalidated proposal. Absent and null fields mean "use the
// default"; nothing in it is trusted, including Table.
type RawIntent struct {
	Operation      *string        `json:"operation,omitempty"`
	Table          *string        `json:"table,omitempty"`
	Columns        []string       `json:"columns,omitempty"`
	Where          []RawPredicate `json:"where,omitempty"`
	OrderBy        *string        `json:"order_by,omitempty"`
	OrderDirection *string        `json:"order_direction,omitempty"`
	Limit          *int           `json:"limit,omitempty"`
}

type RawPredicate struct {
	Column   string  `json:"column"`
	Operator string  `json:"operator"`
	Value    Literal `json:"value"`
}

// Literal accepts JSON strings, numbers and booleans and keeps their text.
type Literal string

func (l *Literal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Literal(s)
		return nil
	case '{', '[':
		return fmt.Errorf("predicate value must be a scalar, got %s", string(data))
	}
	if bytes.Equal(data, []byte("true")) || bytes.Equal(data, []byte("false")) {
		*l = Literal(data)
		return nil
	}
	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return fmt.Errorf("invalid predicate value %s", string(data))
	}
	*l = Literal(data)
	return nil
}

// Structure is a validated intent. It can only be produced by Validate and is
// never modified afterwards.
type Structure struct {
	operation Operation
	table     string
	columns   []string
	where     []Predicate
	orderBy   string
	direction Direction
	limit     int
}

func (s Structure) Operation() Operation { return s.operation }
func (s Structure) Table() string        { return s.table }
func (s Structure) OrderBy() string      { return s.orderBy }

// Direction is empty when the intent did not name one.
func (s Structure) Direction() Direction { return s.direction }

// Limit is zero when no limit was requested.
func (s Structure) Limit() int { return s.limit }

func (s Structure) Columns() []string {
	return append([]string(nil), s.columns...)
}

func (s Structure) Where() []Predicate {
	return append([]Predicate(nil), s.where...)
}

// ReferencedColumns lists every column name the structure mentions, in
// select, where, order_by order.
func (s Structure) ReferencedColumns() []string {
	out := make([]string, 0, len(s.columns)+len(s.where)+1)
	out = append(out, s.columns...)
	for _, p := range s.where {
		out = append(out, p.Column)
	}
	if s.orderBy != "" {
		out = append(out, s.orderBy)
	}
	return out
}

type structureJSON struct {
	Operation      Operation   `json:"operation"`
	Table          string      `json:"table"`
	Columns        []string    `json:"columns"`
	Where          []Predicate `json:"where"`
	OrderBy        *string     `json:"order_by"`
	OrderDirection *Direction  `json:"order_direction"`
	Limit          *int        `json:"limit"`
}

func (s Structure) MarshalJSON() ([]byte, error) {
	out := structureJSON{
		Operation: s.operation,
		Table:     s.table,
		Columns:   s.Columns(),
		Where:     s.Where(),
	}
	if out.Columns == nil {
		out.Columns = []string{}
	}
	if s.orderBy != "" {
		orderBy := s.orderBy
		out.OrderBy = &orderBy
	}
	if s.direction != "" {
		direction := s.direction
		out.OrderDirection = &direction
	}
	if s.limit > 0 {
		limit := s.limit
		out.Limit = &limit
	}
	return json.Marshal(out)
}

func parseOperation(raw *string) (Operation, bool) {
	if raw == nil {
		return OperationSelect, true
	}
	switch Operation(strings.ToUpper(strings.TrimSpace(*raw))) {
	case "", OperationSelect:
		return OperationSelect, true
	case OperationCount:
		return OperationCount, true
	default:
		return "", false
	}
}

func parseOperator(raw string) (Operator, bool) {
	op := Operator(strings.ToUpper(strings.TrimSpace(raw)))
	switch op {
	case OperatorEq, OperatorGt, OperatorLt, OperatorGte, OperatorLte, OperatorLike, OperatorNotEq:
		return op, true
	case "<>":
		return OperatorNotEq, true
	default:
		return "", false
	}
}

func parseDirection(raw *string) (Direction, bool) {
	if raw == nil {
		return "", true
	}
	switch Direction(strings.ToUpper(strings.TrimSpace(*raw))) {
	case "":
		return "", true
	case DirectionAsc:
		return DirectionAsc, true
	case DirectionDesc:
		return DirectionDesc, true
	default:
		return "", false
	}
}

func optional(raw *string) string {
	if raw == nil {
		return ""
	}
	return strings.TrimSpace(*raw)
}
