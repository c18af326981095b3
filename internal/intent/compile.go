package intent

import (
	"strconv"
	"strings"
	"unicode"
)

// Compile renders a validated structure as SQL. Clauses are emitted in a
// fixed order and COUNT queries never carry a LIMIT.
func Compile(s Structure) string {
	var b strings.Builder

	switch {
	case s.operation == OperationCount:
		b.WriteString("SELECT COUNT(*)")
	case len(s.columns) == 0:
		b.WriteString("SELECT *")
	default:
		b.WriteString("SELECT ")
		for i, column := range s.columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(quoteIdent(column))
		}
	}

	b.WriteString(" FROM ")
	b.WriteString(s.table)

	if len(s.where) > 0 {
		b.WriteString(" WHERE ")
		for i, p := range s.where {
			if i > 0 {
				b.WriteString(" AND ")
			}
			b.WriteString(quoteIdent(p.Column))
			b.WriteByte(' ')
			b.WriteString(string(p.Operator))
			b.WriteByte(' ')
			b.WriteString(quoteLiteral(p.Value))
		}
	}

	if s.orderBy != "" {
		direction := s.direction
		if direction == "" {
			direction = DirectionAsc
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(quoteIdent(s.orderBy))
		b.WriteByte(' ')
		b.WriteString(string(direction))
	}

	if s.operation == OperationSelect && s.limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(s.limit))
	}

	return b.String()
}

// quoteIdent wraps names containing whitespace in double quotes.
func quoteIdent(name string) string {
	if strings.IndexFunc(name, unicode.IsSpace) < 0 {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}
