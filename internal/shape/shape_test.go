package shape

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeEmpty(t *testing.T) {
	for _, rows := range [][][]any{nil, {}} {
		result, err := Shape(rows)
		require.NoError(t, err)
		assert.Equal(t, KindEmpty, result.Kind())

		body, err := json.Marshal(result)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(body))
	}
}

func TestShapeCategoricalKeepsFirstSeenOrder(t *testing.T) {
	result, err := Shape([][]any{{"Male"}, {"Female"}, {"Male"}})
	require.NoError(t, err)

	assert.Equal(t, Categorical{
		Categories: []string{"Male", "Female"},
		Counts:     []int{2, 1},
		Total:      3,
	}, result)
}

func TestShapeCategoricalInvariants(t *testing.T) {
	rows := [][]any{{"c"}, {"a"}, {"b"}, {"a"}, {"c"}, {"c"}, {[]byte("b")}, {"z"}}
	result, err := Shape(rows)
	require.NoError(t, err)

	categorical, ok := result.(Categorical)
	require.True(t, ok)
	assert.Equal(t, []string{"c", "a", "b", "z"}, categorical.Categories)
	assert.Equal(t, []int{3, 2, 2, 1}, categorical.Counts)
	assert.Len(t, categorical.Counts, len(categorical.Categories))

	sum := 0
	for _, count := range categorical.Counts {
		sum += count
	}
	assert.Equal(t, len(rows), sum)
	assert.Equal(t, categorical.Total, sum)
}

func TestShapeNumericKeepsRowOrder(t *testing.T) {
	result, err := Shape([][]any{{int64(25)}, {int64(30)}, {int64(22)}})
	require.NoError(t, err)

	assert.Equal(t, Numeric{Values: []float64{25, 30, 22}, Total: 3}, result)

	body, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"values":[25,30,22],"total":3}`, string(body))
}

func TestShapeNumericAcceptsMixedNumericWidths(t *testing.T) {
	result, err := Shape([][]any{{1}, {int32(2)}, {2.5}, {uint8(4)}})
	require.NoError(t, err)

	numeric := result.(Numeric)
	assert.Equal(t, []float64{1, 2, 2.5, 4}, numeric.Values)
	assert.Equal(t, len(numeric.Values), numeric.Total)
}

func TestShapeTableSynthesizesColumns(t *testing.T) {
	result, err := Shape([][]any{
		{"Ann", int64(31), []byte("F")},
		{"Bob", nil, []byte("M")},
	})
	require.NoError(t, err)

	table, ok := result.(Table)
	require.True(t, ok)
	assert.Equal(t, []string{"col_0", "col_1", "col_2"}, table.Columns)
	assert.Equal(t, 2, table.TotalRows)
	assert.Equal(t, map[string]any{"col_0": "Ann", "col_1": int64(31), "col_2": "F"}, table.Rows[0])
	assert.Equal(t, map[string]any{"col_0": "Bob", "col_1": nil, "col_2": "M"}, table.Rows[1])
}

func TestShapeRejectsMixedColumns(t *testing.T) {
	tests := []struct {
		name string
		rows [][]any
		row  int
		want string
	}{
		{name: "string then number", rows: [][]any{{"Male"}, {int64(3)}}, row: 1, want: "string"},
		{name: "number then string", rows: [][]any{{int64(3)}, {"Male"}}, row: 1, want: "numeric"},
		{name: "null in categories", rows: [][]any{{"a"}, {nil}}, row: 1, want: "string"},
		{name: "unsupported first value", rows: [][]any{{struct{}{}}}, row: 0, want: "numeric"},
		{name: "null first value", rows: [][]any{{nil}, {int64(1)}}, row: 0, want: "numeric"},
		{name: "date then string", rows: [][]any{{time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)}, {int64(4)}}, row: 1, want: "string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Shape(tt.rows)
			var mixed *MixedTypesError
			require.True(t, errors.As(err, &mixed), "error = %v", err)
			assert.Equal(t, tt.row, mixed.Row)
			assert.Equal(t, tt.want, mixed.Want)
		})
	}
}

func TestShapeDateColumnIsCategorical(t *testing.T) {
	born := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
	result, err := Shape([][]any{
		{born},
		{time.Date(1985, 7, 30, 0, 0, 0, 0, time.UTC)},
		{born},
	})
	require.NoError(t, err)

	assert.Equal(t, Categorical{
		Categories: []string{"1990-01-02", "1985-07-30"},
		Counts:     []int{2, 1},
		Total:      3,
	}, result)
}

func TestShapeTimestampColumnKeepsTimeOfDay(t *testing.T) {
	result, err := Shape([][]any{{time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)}})
	require.NoError(t, err)
	assert.Equal(t, Categorical{Categories: []string{"2024-03-01T12:30:00Z"}, Counts: []int{1}, Total: 1}, result)
}

func TestShapeBoolColumnIsNumeric(t *testing.T) {
	result, err := Shape([][]any{{true}, {false}, {true}})
	require.NoError(t, err)
	assert.Equal(t, Numeric{Values: []float64{1, 0, 1}, Total: 3}, result)
}

type decimalValue struct{ f float64 }

func (d decimalValue) Float64() float64 { return d.f }

func TestShapeDecimalColumnIsNumeric(t *testing.T) {
	result, err := Shape([][]any{{decimalValue{f: 12.5}}, {decimalValue{f: 3.25}}})
	require.NoError(t, err)
	assert.Equal(t, Numeric{Values: []float64{12.5, 3.25}, Total: 2}, result)
}

func TestShapeNumericIsExactUpTo2Pow53(t *testing.T) {
	const exact = int64(1) << 53
	result, err := Shape([][]any{{exact}, {-exact}})
	require.NoError(t, err)

	numeric := result.(Numeric)
	assert.Equal(t, exact, int64(numeric.Values[0]))
	assert.Equal(t, -exact, int64(numeric.Values[1]))

	rounded, err := Shape([][]any{{exact + 1}})
	require.NoError(t, err)
	assert.Equal(t, exact, int64(rounded.(Numeric).Values[0]))
}

func TestShapeTableFormatsDates(t *testing.T) {
	result, err := Shape([][]any{{"Ann", time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)}})
	require.NoError(t, err)
	assert.Equal(t, "1990-01-02", result.(Table).Rows[0]["col_1"])
}

func TestShapeRejectsRaggedRows(t *testing.T) {
	_, err := Shape([][]any{{"a", 1}, {"b"}})
	var ragged *RaggedRowError
	require.True(t, errors.As(err, &ragged), "error = %v", err)
	assert.Equal(t, 1, ragged.Row)
	assert.Equal(t, 2, ragged.Want)
	assert.Equal(t, 1, ragged.Got)
}

func TestDescribe(t *testing.T) {
	categorical, err := Shape([][]any{{"Male"}, {"Female"}, {"Male"}})
	require.NoError(t, err)
	text := Describe(categorical)
	assert.Contains(t, text, "categorical counts")
	assert.Contains(t, text, `("Male", 2)`)
	assert.Contains(t, text, "Total items: 3")

	numeric, err := Shape([][]any{{1}, {2}, {3}, {4}, {5}, {6}, {7}, {8}, {9}, {10}, {11}, {12}})
	require.NoError(t, err)
	text = Describe(numeric)
	assert.Contains(t, text, "Sample: [1 2 3 4 5 6 7 8 9 10]")
	assert.Contains(t, text, "Total items: 12")

	assert.Contains(t, Describe(Empty{}), "no rows")
}
