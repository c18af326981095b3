package intent

import "strings"

// Validate checks raw against the columns of resolvedTable and returns the
// normalized structure. The table always comes from resolvedTable; whatever
// raw proposes is discarded. The first violation is returned.
func Validate(raw RawIntent, resolvedTable string, availableColumns []string) (Structure, error) {
	table := strings.TrimSpace(resolvedTable)

	known := make(map[string]struct{}, len(availableColumns))
	for _, column := range availableColumns {
		known[column] = struct{}{}
	}
	unknown := func(context, name string) error {
		return &UnknownColumnError{
			Context:   context,
			Name:      name,
			Available: append([]string(nil), availableColumns...),
		}
	}

	for _, column := range raw.Columns {
		if _, ok := known[column]; !ok {
			return Structure{}, unknown(ContextSelect, column)
		}
	}
	for _, predicate := range raw.Where {
		if _, ok := known[predicate.Column]; !ok {
			return Structure{}, unknown(ContextWhere, predicate.Column)
		}
	}
	orderBy := optional(raw.OrderBy)
	if orderBy != "" {
		if _, ok := known[*raw.OrderBy]; !ok {
			return Structure{}, unknown(ContextOrderBy, *raw.OrderBy)
		}
		orderBy = *raw.OrderBy
	}

	if table == "" {
		return Structure{}, malformed("table", "resolved table is empty")
	}
	operation, ok := parseOperation(raw.Operation)
	if !ok {
		return Structure{}, malformed("operation", "unsupported operation %q", *raw.Operation)
	}
	direction, ok := parseDirection(raw.OrderDirection)
	if !ok {
		return Structure{}, malformed("order_direction", "unsupported direction %q", *raw.OrderDirection)
	}
	limit := 0
	if raw.Limit != nil {
		if *raw.Limit <= 0 {
			return Structure{}, malformed("limit", "must be a positive integer, got %d", *raw.Limit)
		}
		limit = *raw.Limit
	}

	where := make([]Predicate, 0, len(raw.Where))
	for i, predicate := range raw.Where {
		op, ok := parseOperator(predicate.Operator)
		if !ok {
			return Structure{}, malformed("where", "predicate %d has unsupported operator %q", i, predicate.Operator)
		}
		where = append(where, Predicate{
			Column:   predicate.Column,
			Operator: op,
			Value:    string(predicate.Value),
		})
	}
	if len(where) == 0 {
		where = nil
	}

	return Structure{
		operation: operation,
		table:     table,
		columns:   append([]string(nil), raw.Columns...),
		where:     where,
		orderBy:   orderBy,
		direction: direction,
		limit:     limit,
	}, nil
}
