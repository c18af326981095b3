// Package pipeline wires table selection, intent validation, compilation,
// execution and result shaping into one request flow.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/askdb/askdb/internal/intent"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/proposer"
	"github.com/askdb/askdb/internal/query"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/shape"
)

var (
	ErrUnsupportedQuestion   = errors.New("question is neither a data query nor a visualization request")
	ErrProposerNotConfigured = errors.New("intent proposer is not configured")
	ErrNoTables              = errors.New("data store has no tables")
)

// ProposerError marks a failure of the language model step. Malformed
// proposals stay reachable through errors.As.
type ProposerError struct {
	Stage string
	Err   error
}

func (e *ProposerError) Error() string {
	return fmt.Sprintf("proposer %s: %v", e.Stage, e.Err)
}

func (e *ProposerError) Unwrap() error {
	return e.Err
}

type ExecutionFailure struct {
	SQL     string `json:"sql"`
	Message string `json:"message"`
}

type Outcome struct {
	Question       string            `json:"question,omitempty"`
	Route          Route             `json:"route"`
	Table          string            `json:"table"`
	Structure      *intent.Structure `json:"structure"`
	SQL            string            `json:"sql"`
	Columns        []string          `json:"columns"`
	Rows           [][]any           `json:"rows"`
	ShapedKind     shape.Kind        `json:"shaped_kind,omitempty"`
	Shaped         shape.Result      `json:"shaped,omitempty"`
	ShapeError     string            `json:"shape_error,omitempty"`
	ExecutionError *ExecutionFailure `json:"execution_error,omitempty"`
	PlotCode       string            `json:"plot_code,omitempty"`
	PlotError      string            `json:"plot_error,omitempty"`
	DurationMs     int64             `json:"duration_ms"`
}

type Compiled struct {
	Table     string           `json:"table"`
	Structure intent.Structure `json:"structure"`
	SQL       string           `json:"sql"`
}

type Service struct {
	Schema   schema.Provider
	Executor query.Executor
	Proposer proposer.Proposer
	Plotter  proposer.PlotGenerator
	Logger   *slog.Logger

	RowLimit     int
	QueryTimeout time.Duration
}

// Ask answers a natural-language question end to end. Execution failures are
// reported on the outcome; every earlier failure is returned as an error.
func (s *Service) Ask(ctx context.Context, question string) (Outcome, error) {
	start := time.Now()
	route := Classify(question)
	if route == RouteUnsupported {
		return Outcome{}, ErrUnsupportedQuestion
	}
	if s.Proposer == nil {
		return Outcome{}, ErrProposerNotConfigured
	}

	tables, err := s.Schema.ListTables(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("list tables: %w", err)
	}
	if len(tables) == 0 {
		return Outcome{}, ErrNoTables
	}

	proposed, err := s.Proposer.SelectTable(ctx, question, tables)
	if err != nil {
		return Outcome{}, &ProposerError{Stage: "select_table", Err: err}
	}
	table, ok := schema.ResolveTable(tables, proposed)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", schema.ErrTableNotFound, proposed)
	}
	columns, err := s.Schema.ListColumns(ctx, table)
	if err != nil {
		return Outcome{}, fmt.Errorf("list columns for %q: %w", table, err)
	}

	raw, err := s.Proposer.ProposeIntent(ctx, question, table, columns)
	if err != nil {
		return Outcome{}, &ProposerError{Stage: "propose_intent", Err: err}
	}

	outcome := Outcome{Question: question, Route: route, Table: table}
	if err := s.execute(ctx, &outcome, raw, columns); err != nil {
		return Outcome{}, err
	}
	if route == RouteVisualize {
		s.plot(ctx, &outcome, question)
	}
	outcome.DurationMs = time.Since(start).Milliseconds()
	return outcome, nil
}

// Run executes a caller-supplied raw intent against table.
func (s *Service) Run(ctx context.Context, table string, raw intent.RawIntent) (Outcome, error) {
	start := time.Now()
	resolved, columns, err := s.resolve(ctx, table)
	if err != nil {
		return Outcome{}, err
	}
	outcome := Outcome{Route: RouteQuery, Table: resolved}
	if err := s.execute(ctx, &outcome, raw, columns); err != nil {
		return Outcome{}, err
	}
	outcome.DurationMs = time.Since(start).Milliseconds()
	return outcome, nil
}

// Compile validates raw against the live schema of table and returns the
// statement without executing it.
func (s *Service) Compile(ctx context.Context, table string, raw intent.RawIntent) (Compiled, error) {
	resolved, columns, err := s.resolve(ctx, table)
	if err != nil {
		return Compiled{}, err
	}
	structure, err := s.validate(ctx, raw, resolved, columns)
	if err != nil {
		return Compiled{}, err
	}
	return Compiled{Table: resolved, Structure: structure, SQL: intent.Compile(structure)}, nil
}

func (s *Service) Snapshot(ctx context.Context) (schema.Snapshot, error) {
	return schema.Fetch(ctx, s.Schema)
}

func (s *Service) resolve(ctx context.Context, table string) (string, []string, error) {
	tables, err := s.Schema.ListTables(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("list tables: %w", err)
	}
	resolved, ok := schema.ResolveTable(tables, table)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", schema.ErrTableNotFound, table)
	}
	columns, err := s.Schema.ListColumns(ctx, resolved)
	if err != nil {
		return "", nil, fmt.Errorf("list columns for %q: %w", resolved, err)
	}
	return resolved, columns, nil
}

func (s *Service) validate(ctx context.Context, raw intent.RawIntent, table string, columns []string) (intent.Structure, error) {
	structure, err := intent.Validate(raw, table, columns)
	if err != nil {
		outcome := rejectionLabel(err)
		observability.ObserveIntent(outcome)
		s.logger().WarnContext(ctx, "intent_rejected",
			observability.TraceAttr(ctx),
			slog.String("table", table),
			slog.String("outcome", outcome),
			slog.String("error", err.Error()),
		)
		return intent.Structure{}, err
	}
	observability.ObserveIntent("validated")
	s.logger().InfoContext(ctx, "intent_validated",
		observability.TraceAttr(ctx),
		slog.String("table", table),
		slog.String("operation", string(structure.Operation())),
		slog.Int("columns", len(structure.ReferencedColumns())),
	)
	return structure, nil
}

func (s *Service) execute(ctx context.Context, outcome *Outcome, raw intent.RawIntent, columns []string) error {
	structure, err := s.validate(ctx, raw, outcome.Table, columns)
	if err != nil {
		return err
	}
	sqlText := intent.Compile(structure)
	outcome.Structure = &structure
	outcome.SQL = sqlText

	execCtx := ctx
	if s.QueryTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, s.QueryTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.Executor.Execute(execCtx, query.Request{SQL: sqlText, RowLimit: s.RowLimit})
	elapsed := time.Since(start)
	if err != nil {
		observability.ObserveExecution("failed", elapsed)
		outcome.ExecutionError = &ExecutionFailure{SQL: sqlText, Message: executionMessage(err)}
		s.logger().WarnContext(ctx, "query_failed",
			observability.TraceAttr(ctx),
			slog.String("sql", sqlText),
			slog.String("error", err.Error()),
		)
		return nil
	}
	observability.ObserveExecution("succeeded", elapsed)
	s.logger().InfoContext(ctx, "query_executed",
		observability.TraceAttr(ctx),
		slog.String("sql", sqlText),
		slog.Int("rows", len(result.Rows)),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
	)

	outcome.Columns = result.Columns
	outcome.Rows = result.Rows
	shaped, err := shape.Shape(result.Rows)
	if err != nil {
		outcome.ShapeError = err.Error()
		return nil
	}
	outcome.Shaped = shaped
	outcome.ShapedKind = shaped.Kind()
	observability.ObserveShaped(string(shaped.Kind()))
	return nil
}

func (s *Service) plot(ctx context.Context, outcome *Outcome, question string) {
	switch {
	case outcome.ExecutionError != nil:
		return
	case s.Plotter == nil:
		outcome.PlotError = "plot generator is not configured"
		return
	case outcome.Shaped == nil:
		outcome.PlotError = "result could not be shaped for plotting: " + outcome.ShapeError
		return
	case outcome.ShapedKind == shape.KindEmpty:
		outcome.PlotError = "query returned no rows to plot"
		return
	}
	code, err := s.Plotter.GeneratePlot(ctx, question, outcome.Shaped)
	if err != nil {
		outcome.PlotError = err.Error()
		s.logger().WarnContext(ctx, "plot_failed",
			observability.TraceAttr(ctx),
			slog.String("error", err.Error()),
		)
		return
	}
	outcome.PlotCode = code
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func rejectionLabel(err error) string {
	var unknown *intent.UnknownColumnError
	if errors.As(err, &unknown) {
		return "rejected_" + unknown.Context
	}
	return "malformed"
}

func executionMessage(err error) string {
	var execErr *query.ExecutionError
	if errors.As(err, &execErr) && execErr.Err != nil {
		return execErr.Err.Error()
	}
	return err.Error()
}
