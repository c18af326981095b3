package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

var ErrTableNotFound = errors.New("table not found")

// Provider introspects the live data store. Results must not be cached by
// callers; the schema may change between requests.
type Provider interface {
	ListTables(ctx context.Context) ([]string, error)
	ListColumns(ctx context.Context, table string) ([]string, error)
}

type Table struct {
	Name    string   `json:"table_name"`
	Columns []string `json:"columns"`
}

type Snapshot struct {
	Tables []Table `json:"tables"`
}

func (s Snapshot) Columns(table string) ([]string, bool) {
	for _, t := range s.Tables {
		if t.Name == table {
			return append([]string(nil), t.Columns...), true
		}
	}
	return nil, false
}

const fetchConcurrency = 4

// Fetch reads every table and its columns from p. Tables keep the order the
// provider returned them in.
func Fetch(ctx context.Context, p Provider) (Snapshot, error) {
	tables, err := p.ListTables(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list tables: %w", err)
	}

	out := make([]Table, len(tables))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(fetchConcurrency)
	for i, name := range tables {
		group.Go(func() error {
			columns, err := p.ListColumns(groupCtx, name)
			if err != nil {
				return fmt.Errorf("list columns for %q: %w", name, err)
			}
			out[i] = Table{Name: name, Columns: columns}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Tables: out}, nil
}

// ResolveTable maps a proposed table name onto a known one. An exact match
// wins over a case-insensitive one.
func ResolveTable(tables []string, proposed string) (string, bool) {
	proposed = strings.Trim(strings.TrimSpace(proposed), "`\"'")
	for _, table := range tables {
		if table == proposed {
			return table, true
		}
	}
	for _, table := range tables {
		if strings.EqualFold(table, proposed) {
			return table, true
		}
	}
	return "", false
}
