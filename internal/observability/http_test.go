package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/askdb/askdb/internal/config"
)

func TestTraceMiddlewarePreservesIncomingTraceID(t *testing.T) {
	h := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := TraceIDFromContext(r.Context()); got != "trace-1" {
			t.Fatalf("TraceIDFromContext() = %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	req.Header.Set(traceHeader, "trace-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get(traceHeader); got != "trace-1" {
		t.Fatalf("trace header = %q", got)
	}
}

func TestTraceMiddlewareGeneratesTraceID(t *testing.T) {
	h := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if TraceIDFromContext(r.Context()) == "" {
			t.Fatal("expected generated trace id")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	if rr.Header().Get(traceHeader) == "" {
		t.Fatal("expected X-Trace-ID header")
	}
}

func TestTraceIDContextHelpers(t *testing.T) {
	ctx := ContextWithTraceID(context.Background(), "abc123")
	if got := TraceIDFromContext(ctx); got != "abc123" {
		t.Fatalf("TraceIDFromContext() = %q", got)
	}
}

func TestLoggingMiddlewareDoesNotPanic(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	h := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
}

func TestDomainMetricsAreCounted(t *testing.T) {
	before := testutil.ToFloat64(intentsTotal.WithLabelValues("rejected_where"))
	ObserveIntent("rejected_where")
	if got := testutil.ToFloat64(intentsTotal.WithLabelValues("rejected_where")); got != before+1 {
		t.Fatalf("askdb_intents_total = %v, want %v", got, before+1)
	}

	before = testutil.ToFloat64(queryExecutionsTotal.WithLabelValues("failed"))
	ObserveExecution("failed", 12*time.Millisecond)
	if got := testutil.ToFloat64(queryExecutionsTotal.WithLabelValues("failed")); got != before+1 {
		t.Fatalf("askdb_query_executions_total = %v, want %v", got, before+1)
	}

	before = testutil.ToFloat64(shapedResultsTotal.WithLabelValues("categorical"))
	ObserveShaped("categorical")
	if got := testutil.ToFloat64(shapedResultsTotal.WithLabelValues("categorical")); got != before+1 {
		t.Fatalf("askdb_shaped_results_total = %v, want %v", got, before+1)
	}
}

func TestMetricsMiddlewareLabelsByRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/tables/{table}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := TraceMiddleware(MetricsMiddleware(mux))

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/v1/tables/{table}", "418")
	before := testutil.ToFloat64(counter)
	for _, path := range []string{"/v1/tables/people", "/v1/tables/orders"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	if got := testutil.ToFloat64(counter); got != before+2 {
		t.Fatalf("askdb_http_requests_total = %v, want %v", got, before+2)
	}
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/v1/tables/people", "418")); got != 0 {
		t.Fatalf("raw path label = %v, want 0", got)
	}
}

func TestMetricsMiddlewareBucketsUnmatchedPaths(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, r *http.Request) {})
	h := MetricsMiddleware(mux)

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "404")
	before := testutil.ToFloat64(counter)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-admin/a1b2c3", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/d4e5f6", nil))
	if got := testutil.ToFloat64(counter); got != before+2 {
		t.Fatalf("askdb_http_requests_total = %v, want %v", got, before+2)
	}
	if got := testutil.ToFloat64(httpRequestsInFlight); got != 0 {
		t.Fatalf("askdb_http_requests_in_flight = %v", got)
	}
}

func TestLoggingMiddlewareLogsRoute(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/intent/run", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	h := TraceMiddleware(LoggingMiddleware(logger)(mux))

	req := httptest.NewRequest(http.MethodPost, "/v1/intent/run", nil)
	req.Header.Set(traceHeader, "trace-9")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("json.Unmarshal(%q) error = %v", buf.String(), err)
	}
	if record["route"] != "/v1/intent/run" || record["trace_id"] != "trace-9" || record["level"] != "WARN" {
		t.Fatalf("record = %#v", record)
	}
}

func TestTraceMiddlewareReadsTraceparent(t *testing.T) {
	var got string
	h := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = TraceIDFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	req.Header.Set(traceparentHeader, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("trace id = %q", got)
	}
}

func TestTraceIDFromTraceparentRejectsMalformed(t *testing.T) {
	for _, value := range []string{"", "garbage", "00-xyz-00f067aa0ba902b7-01", "00-00000000000000000000000000000000-00f067aa0ba902b7-01"} {
		if got := traceIDFromTraceparent(value); got != "" {
			t.Fatalf("traceIDFromTraceparent(%q) = %q", value, got)
		}
	}
}

func TestNewLoggerAddsServiceAttributes(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{Profile: config.ProfileTest}
	cfg.Service.Name = "askdb-api"
	cfg.Store.Driver = config.DriverPostgres
	cfg.Observability.LogJSON = true

	NewLogger(cfg, &buf).InfoContext(context.Background(), "ready", TraceAttr(ContextWithTraceID(context.Background(), "t-1")))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("json.Unmarshal(%q) error = %v", buf.String(), err)
	}
	if record["service"] != "askdb-api" || record["store"] != "postgres" || record["trace_id"] != "t-1" {
		t.Fatalf("record = %#v", record)
	}
}
