//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/askdb/askdb/internal/dataset"
	"github.com/askdb/askdb/internal/intent"
	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/schema"
)

func TestLoadAndQueryAgainstPostgres(t *testing.T) {
	adminDSN := strings.TrimSpace(os.Getenv("ASKDB_TEST_PG_DSN"))
	if adminDSN == "" {
		t.Skip("ASKDB_TEST_PG_DSN is not set")
	}

	testDSN, cleanup := createTemporaryDatabase(t, adminDSN)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	engine, err := Open(ctx, DBConfig{DSN: testDSN}, "")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = engine.Close() }()

	path := filepath.Join(t.TempDir(), "people.csv")
	body := "Index,First Name,Last Name,Sex\n1,Shelby,Terrell,Male\n2,Phillip,O'Neil,Female\n3,Kristine,O'Neil,Male\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := engine.Load(ctx, "People", path, dataset.FormatCSV); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tables, err := engine.ListTables(ctx)
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	table, ok := schema.ResolveTable(tables, "People")
	if !ok {
		t.Fatalf("tables = %#v", tables)
	}
	columns, err := engine.ListColumns(ctx, table)
	if err != nil {
		t.Fatalf("ListColumns() error = %v", err)
	}
	if len(columns) != 4 || columns[1] != "first name" || columns[3] != "sex" {
		t.Fatalf("columns = %#v", columns)
	}

	tests := []struct {
		name string
		raw  intent.RawIntent
		want int64
	}{
		{
			name: "count males",
			raw:  intent.RawIntent{Operation: strPtr("COUNT"), Where: []intent.RawPredicate{{Column: "sex", Operator: "=", Value: "Male"}}},
			want: 2,
		},
		{
			name: "quoted column and literal",
			raw:  intent.RawIntent{Operation: strPtr("COUNT"), Where: []intent.RawPredicate{{Column: "last name", Operator: "=", Value: "O'Neil"}}},
			want: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			structure, err := intent.Validate(tt.raw, table, columns)
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			sqlText := intent.Compile(structure)
			result, err := engine.Execute(ctx, query.Request{SQL: sqlText})
			if err != nil {
				t.Fatalf("Execute(%q) error = %v", sqlText, err)
			}
			if len(result.Rows) != 1 || result.Rows[0][0] != tt.want {
				t.Fatalf("rows = %#v", result.Rows)
			}
		})
	}
}

func strPtr(value string) *string { return &value }

func createTemporaryDatabase(t *testing.T, adminDSN string) (string, func()) {
	t.Helper()

	parsed, err := url.Parse(adminDSN)
	if err != nil {
		t.Fatalf("url.Parse(adminDSN) error = %v", err)
	}
	if strings.TrimPrefix(parsed.Path, "/") == "" {
		t.Fatal("admin DSN must include a database name")
	}

	adminDB, err := sql.Open("pgx", adminDSN)
	if err != nil {
		t.Fatalf("sql.Open(adminDSN) error = %v", err)
	}

	name := fmt.Sprintf("askdb_it_%d", time.Now().UnixNano())
	if _, err := adminDB.Exec(`CREATE DATABASE ` + name); err != nil {
		t.Fatalf("CREATE DATABASE failed: %v", err)
	}

	testURL := *parsed
	testURL.Path = "/" + name

	cleanup := func() {
		defer func() { _ = adminDB.Close() }()
		if _, err := adminDB.Exec(`SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1`, name); err != nil {
			t.Fatalf("terminate test db sessions: %v", err)
		}
		if _, err := adminDB.Exec(`DROP DATABASE ` + name); err != nil {
			t.Fatalf("DROP DATABASE failed: %v", err)
		}
	}
	return testURL.String(), cleanup
}
