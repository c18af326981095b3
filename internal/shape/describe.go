package shape

import (
	"fmt"
	"strings"
)

const (
	categorySamples = 5
	valueSamples    = 10
	rowSamples      = 5
)

// Describe summarises a shaped result for a code-generating model: the data
// kind, a small sample and how to access the fields.
func Describe(result Result) string {
	var b strings.Builder
	switch r := result.(type) {
	case Categorical:
		n := min(categorySamples, len(r.Categories))
		pairs := make([]string, 0, n)
		for i := 0; i < n; i++ {
			pairs = append(pairs, fmt.Sprintf("(%q, %d)", r.Categories[i], r.Counts[i]))
		}
		fmt.Fprintf(&b, "Data type: categorical counts\n")
		fmt.Fprintf(&b, "Structure: object with 'categories' and 'counts' keys\n")
		fmt.Fprintf(&b, "Sample: [%s]\n", strings.Join(pairs, ", "))
		fmt.Fprintf(&b, "Total items: %d\n\n", r.Total)
		b.WriteString("Access pattern:\n")
		b.WriteString("- categories = data['categories']  # category names\n")
		b.WriteString("- counts = data['counts']  # count per category\n")
	case Numeric:
		n := min(valueSamples, len(r.Values))
		fmt.Fprintf(&b, "Data type: numeric values\n")
		fmt.Fprintf(&b, "Structure: object with 'values' key\n")
		fmt.Fprintf(&b, "Sample: %v\n", r.Values[:n])
		fmt.Fprintf(&b, "Total items: %d\n\n", r.Total)
		b.WriteString("Access pattern:\n")
		b.WriteString("- values = data['values']  # numeric values\n")
	case Table:
		n := min(rowSamples, len(r.Rows))
		fmt.Fprintf(&b, "Data type: rows\n")
		fmt.Fprintf(&b, "Structure: object with 'rows', 'columns' and 'total_rows' keys\n")
		fmt.Fprintf(&b, "Columns: %s\n", strings.Join(r.Columns, ", "))
		fmt.Fprintf(&b, "Sample: %v\n", r.Rows[:n])
		fmt.Fprintf(&b, "Total rows: %d\n\n", r.TotalRows)
		b.WriteString("Access pattern:\n")
		b.WriteString("- rows = data['rows']  # list of dicts keyed by column name\n")
	default:
		b.WriteString("Data type: empty\n")
		b.WriteString("The query returned no rows.\n")
	}
	return b.String()
}
