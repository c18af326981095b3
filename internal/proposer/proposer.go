// Package proposer asks a language model for the pieces of a query the
// deterministic pipeline cannot derive itself: the table a question is about,
// a raw intent over that table, and optional plot code.
package proposer

import (
	"context"
	"errors"
	"strings"

	"github.com/askdb/askdb/internal/intent"
	"github.com/askdb/askdb/internal/shape"
)

// ErrUnknownTable is returned when the proposed table name matches none of the
// listed tables.
var ErrUnknownTable = errors.New("proposed table is not in the table list")

type Proposer interface {
	SelectTable(ctx context.Context, question string, tables []string) (string, error)
	ProposeIntent(ctx context.Context, question, table string, columns []string) (intent.RawIntent, error)
}

type PlotGenerator interface {
	GeneratePlot(ctx context.Context, question string, shaped shape.Result) (string, error)
}

// SanitizePlotCode drops import lines; the plotting runtime injects its own.
func SanitizePlotCode(code string) string {
	lines := strings.Split(intent.StripCodeFences(code), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "from ") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
