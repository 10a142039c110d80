package observe

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMiddleware_RecordsDuration(t *testing.T) {
	m, reader := newTestMetrics(t)

	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/v1/actions", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want 418 passed through", rec.Code)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(t.Context(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, metricEntry := range sm.Metrics {
			if metricEntry.Name == "simwatch.http.request.duration" {
				found = true
			}
		}
	}
	if !found {
		t.Error("http request duration metric was not recorded")
	}
}

func TestMiddleware_SetsCorrelationID(t *testing.T) {
	m, _ := newTestMetrics(t)

	// A recording tracer provider so spans carry real trace IDs.
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })
	prev := swapTracerProvider(tp)
	t.Cleanup(func() { swapTracerProvider(prev) })

	var inner trace.SpanContext
	handler := Middleware(m)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		inner = trace.SpanContextFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/v1/query", nil))

	cid := rec.Header().Get("X-Correlation-ID")
	if cid == "" {
		t.Fatal("X-Correlation-ID header not set")
	}
	if !inner.HasTraceID() || inner.TraceID().String() != cid {
		t.Errorf("handler trace ID %q does not match header %q", inner.TraceID(), cid)
	}
}

func TestMiddleware_ContinuesIncomingTrace(t *testing.T) {
	m, _ := newTestMetrics(t)

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })
	prev := swapTracerProvider(tp)
	t.Cleanup(func() { swapTracerProvider(prev) })

	const upstream = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/v1/actions", nil)
	req.Header.Set("traceparent", upstream)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Correlation-ID"); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("correlation ID = %q, want the upstream trace ID", got)
	}
}
