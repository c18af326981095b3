package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/askdb/askdb/internal/dataset"
	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/schema"
)

const peopleCSV = `Index,First Name,Last Name,Sex,Date of birth
1,Shelby,Terrell,Male,1945-10-26
2,Phillip,Summers,Female,1910-03-24
3,Kristine,Travis,Male,1992-07-02
`

func TestLoadCSVAndIntrospect(t *testing.T) {
	engine := openEngine(t)
	loadPeople(t, engine)

	tables, err := engine.ListTables(context.Background())
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	if len(tables) != 1 || tables[0] != "people" {
		t.Fatalf("tables = %#v", tables)
	}

	columns, err := engine.ListColumns(context.Background(), "people")
	if err != nil {
		t.Fatalf("ListColumns() error = %v", err)
	}
	want := []string{"Index", "First Name", "Last Name", "Sex", "Date of birth"}
	if len(columns) != len(want) {
		t.Fatalf("columns = %#v", columns)
	}
	for i := range want {
		if columns[i] != want[i] {
			t.Fatalf("columns = %#v, want %#v", columns, want)
		}
	}
}

func TestExecuteCompiledStatements(t *testing.T) {
	engine := openEngine(t)
	loadPeople(t, engine)

	result, err := engine.Execute(context.Background(), query.Request{
		SQL: "SELECT COUNT(*) FROM people WHERE Sex = 'Male'",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Rows) != 1 || result.Rows[0][0] != int64(2) {
		t.Fatalf("rows = %#v", result.Rows)
	}

	result, err = engine.Execute(context.Background(), query.Request{
		SQL: `SELECT "First Name", "Date of birth" FROM people ORDER BY "Date of birth" ASC LIMIT 1`,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Rows) != 1 || result.Rows[0][0] != "Phillip" {
		t.Fatalf("rows = %#v", result.Rows)
	}
	if result.Columns[1] != "Date of birth" {
		t.Fatalf("columns = %#v", result.Columns)
	}
}

func TestLoadReplacesExistingTable(t *testing.T) {
	engine := openEngine(t)
	loadPeople(t, engine)

	path := filepath.Join(t.TempDir(), "people.csv")
	if err := os.WriteFile(path, []byte("Sex\nFemale\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := engine.Load(context.Background(), "people", path, dataset.FormatCSV); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	columns, err := engine.ListColumns(context.Background(), "people")
	if err != nil {
		t.Fatalf("ListColumns() error = %v", err)
	}
	if len(columns) != 1 || columns[0] != "Sex" {
		t.Fatalf("columns = %#v", columns)
	}
}

func TestListColumnsUnknownTable(t *testing.T) {
	engine := openEngine(t)
	_, err := engine.ListColumns(context.Background(), "missing")
	if !errors.Is(err, schema.ErrTableNotFound) {
		t.Fatalf("ListColumns() error = %v, want ErrTableNotFound", err)
	}
}

func TestExecuteReportsUnknownColumn(t *testing.T) {
	engine := openEngine(t)
	loadPeople(t, engine)

	_, err := engine.Execute(context.Background(), query.Request{SQL: "SELECT Gender FROM people"})
	var execErr *query.ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("Execute() error = %v, want ExecutionError", err)
	}
}

func openEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := Open(context.Background(), filepath.Join(t.TempDir(), "people.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

func loadPeople(t *testing.T, engine *Engine) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "people-100.csv")
	if err := os.WriteFile(path, []byte(peopleCSV), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := engine.Load(context.Background(), "people", path, dataset.FormatCSV); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}
