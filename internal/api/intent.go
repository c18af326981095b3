package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/askdb/askdb/internal/intent"
	"github.com/askdb/askdb/internal/pipeline"
	"github.com/askdb/askdb/internal/schema"
)

type askRequest struct {
	Question string `json:"question"`
}

type intentRequest struct {
	Table  string          `json:"table"`
	Intent json.RawMessage `json:"intent"`
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Service == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "STORE_NOT_CONFIGURED", "data store is not configured", false, nil)
		return
	}
	snapshot, err := deps.Service.Snapshot(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_FETCH_FAILED", "failed to load schema", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Service == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "STORE_NOT_CONFIGURED", "data store is not configured", false, nil)
		return
	}

	var request askRequest
	if !decodeBody(w, r, &request) {
		return
	}
	question := strings.TrimSpace(request.Question)
	if question == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	outcome, err := deps.Service.Ask(r.Context(), question)
	if err != nil {
		writePipelineError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func handleCompileIntent(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	table, raw, ok := decodeIntentRequest(deps, w, r)
	if !ok {
		return
	}
	compiled, err := deps.Service.Compile(r.Context(), table, raw)
	if err != nil {
		writePipelineError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, compiled)
}

func handleRunIntent(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	table, raw, ok := decodeIntentRequest(deps, w, r)
	if !ok {
		return
	}
	outcome, err := deps.Service.Run(r.Context(), table, raw)
	if err != nil {
		writePipelineError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func decodeIntentRequest(deps Dependencies, w http.ResponseWriter, r *http.Request) (string, intent.RawIntent, bool) {
	if deps.Service == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "STORE_NOT_CONFIGURED", "data store is not configured", false, nil)
		return "", intent.RawIntent{}, false
	}

	var request intentRequest
	if !decodeBody(w, r, &request) {
		return "", intent.RawIntent{}, false
	}
	table := strings.TrimSpace(request.Table)
	if table == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "TABLE_REQUIRED", "table is required", false, nil)
		return "", intent.RawIntent{}, false
	}

	raw, err := parseIntent(request.Intent)
	if err != nil {
		writePipelineError(r.Context(), w, err)
		return "", intent.RawIntent{}, false
	}
	return table, raw, true
}

// parseIntent accepts the intent either as a JSON object or as a string
// holding one, fenced or not.
func parseIntent(body json.RawMessage) (intent.RawIntent, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return intent.RawIntent{}, &intent.MalformedIntentError{Field: "intent", Reason: "invalid JSON string", Err: err}
		}
		return intent.ParseRaw(text)
	}
	return intent.ParseRaw(string(trimmed))
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid request body", false, map[string]any{"details": err.Error()})
		return false
	}
	return true
}

func writePipelineError(ctx context.Context, w http.ResponseWriter, err error) {
	var unknown *intent.UnknownColumnError
	var malformed *intent.MalformedIntentError
	var proposerErr *pipeline.ProposerError

	switch {
	case errors.As(err, &unknown):
		writeError(ctx, w, http.StatusUnprocessableEntity, "UNKNOWN_COLUMN", err.Error(), false, map[string]any{
			"context":   unknown.Context,
			"name":      unknown.Name,
			"available": unknown.Available,
		})
	case errors.As(err, &malformed):
		writeError(ctx, w, http.StatusUnprocessableEntity, "MALFORMED_INTENT", err.Error(), false, map[string]any{
			"field":  malformed.Field,
			"reason": malformed.Reason,
		})
	case errors.Is(err, pipeline.ErrUnsupportedQuestion):
		writeError(ctx, w, http.StatusBadRequest, "UNSUPPORTED_QUESTION", err.Error(), false, nil)
	case errors.Is(err, pipeline.ErrProposerNotConfigured):
		writeError(ctx, w, http.StatusNotImplemented, "ASK_NOT_CONFIGURED", err.Error(), false, nil)
	case errors.Is(err, schema.ErrTableNotFound):
		writeError(ctx, w, http.StatusNotFound, "TABLE_NOT_FOUND", err.Error(), false, nil)
	case errors.Is(err, pipeline.ErrNoTables):
		writeError(ctx, w, http.StatusConflict, "NO_TABLES", err.Error(), false, nil)
	case errors.As(err, &proposerErr):
		writeError(ctx, w, http.StatusBadGateway, "PROPOSER_FAILED", err.Error(), true, map[string]any{"stage": proposerErr.Stage})
	default:
		writeError(ctx, w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error(), true, nil)
	}
}
