package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/askdb/askdb/internal/dataset"
	"github.com/askdb/askdb/internal/intent"
	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/shape"
)

const peopleFixture = `Id,First Name,Last Name,Sex,Date of birth,Active
1,Shelby,Terrell,Male,1990-01-02,true
2,Alexis,O'Neil,Female,1985-07-30,false
3,Kent,O'Neil,Male,1990-01-02,true
4,Nina,Day,Female,1979-11-11,true
`

func TestCompiledIntentsRunAgainstDuckDB(t *testing.T) {
	engine := openEngine(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "people.csv")
	if err := os.WriteFile(path, []byte(peopleFixture), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := engine.Load(ctx, "people", path, dataset.FormatCSV); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	columns, err := engine.ListColumns(ctx, "people")
	if err != nil {
		t.Fatalf("ListColumns() error = %v", err)
	}

	tests := []struct {
		name string
		raw  intent.RawIntent
		want shape.Result
	}{
		{
			name: "count males",
			raw:  intent.RawIntent{Operation: strPtr("COUNT"), Where: []intent.RawPredicate{{Column: "Sex", Operator: "=", Value: "Male"}}},
			want: shape.Numeric{Values: []float64{2}, Total: 1},
		},
		{
			name: "quoted literal",
			raw:  intent.RawIntent{Operation: strPtr("COUNT"), Where: []intent.RawPredicate{{Column: "Last Name", Operator: "=", Value: "O'Neil"}}},
			want: shape.Numeric{Values: []float64{2}, Total: 1},
		},
		{
			name: "date column",
			raw:  intent.RawIntent{Columns: []string{"Date of birth"}, OrderBy: strPtr("Id")},
			want: shape.Categorical{Categories: []string{"1990-01-02", "1985-07-30", "1979-11-11"}, Counts: []int{2, 1, 1}, Total: 4},
		},
		{
			name: "bool column",
			raw:  intent.RawIntent{Columns: []string{"Active"}, OrderBy: strPtr("Id")},
			want: shape.Numeric{Values: []float64{1, 0, 1, 1}, Total: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			structure, err := intent.Validate(tt.raw, "people", columns)
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			result, err := engine.Execute(ctx, query.Request{SQL: intent.Compile(structure)})
			if err != nil {
				t.Fatalf("Execute(%q) error = %v", intent.Compile(structure), err)
			}
			shaped, err := shape.Shape(result.Rows)
			if err != nil {
				t.Fatalf("Shape(%#v) error = %v", result.Rows, err)
			}
			if !reflect.DeepEqual(shaped, tt.want) {
				t.Fatalf("Shape() = %#v, want %#v", shaped, tt.want)
			}
		})
	}
}

func TestDecimalColumnShapesAsNumeric(t *testing.T) {
	engine := openEngine(t)
	ctx := context.Background()
	if _, err := engine.db.ExecContext(ctx, `CREATE TABLE prices AS
SELECT * FROM (VALUES (1, CAST(12.50 AS DECIMAL(10, 2))), (2, CAST(3.25 AS DECIMAL(10, 2)))) AS t(Id, Amount)`); err != nil {
		t.Fatalf("create prices: %v", err)
	}

	structure, err := intent.Validate(intent.RawIntent{Columns: []string{"Amount"}, OrderBy: strPtr("Id")}, "prices", []string{"Id", "Amount"})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	result, err := engine.Execute(ctx, query.Request{SQL: intent.Compile(structure)})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	shaped, err := shape.Shape(result.Rows)
	if err != nil {
		t.Fatalf("Shape(%#v) error = %v", result.Rows, err)
	}
	want := shape.Numeric{Values: []float64{12.5, 3.25}, Total: 2}
	if !reflect.DeepEqual(shaped, want) {
		t.Fatalf("Shape() = %#v, want %#v", shaped, want)
	}
}

func strPtr(value string) *string { return &value }
