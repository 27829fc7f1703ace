package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"agronexus/internal/infrastructure"
)

func newTestOTel(t *testing.T) (*OTelMiddleware, *sdkmetric.ManualReader, *tracetest.SpanRecorder) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	meterProvider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { meterProvider.Shutdown(context.Background()) })

	recorder := tracetest.NewSpanRecorder()
	tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { tracerProvider.Shutdown(context.Background()) })

	metrics, err := infrastructure.CreateBusinessMetrics(meterProvider.Meter(infrastructure.MeterName))
	require.NoError(t, err)

	providers := &infrastructure.OTelProviders{
		Tracer: tracerProvider.Tracer(infrastructure.MeterName),
	}
	return NewOTelMiddleware(providers, metrics), reader, recorder
}

func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func TestOTelMiddlewareRecordsRequestMetrics(t *testing.T) {
	otelMW, reader, _ := newTestOTel(t)

	r := chi.NewRouter()
	r.Use(otelMW.Handler)
	r.Get("/api/dashboard", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	total, ok := findMetric(rm, "http_requests_total")
	require.True(t, ok, "request counter must be exported")
	sum, ok := total.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)

	route, ok := sum.DataPoints[0].Attributes.Value("route")
	require.True(t, ok)
	assert.Equal(t, "/api/dashboard", route.AsString())

	duration, ok := findMetric(rm, "http_request_duration_seconds")
	require.True(t, ok, "duration histogram must be exported")
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)

	// in-flight gauge must be back to zero after the request
	active, ok := findMetric(rm, "http_active_requests")
	require.True(t, ok)
	activeSum, ok := active.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, activeSum.DataPoints, 1)
	assert.Equal(t, int64(0), activeSum.DataPoints[0].Value)
}

func TestOTelMiddlewareStartsServerSpan(t *testing.T) {
	otelMW, _, recorder := newTestOTel(t)

	r := chi.NewRouter()
	r.Use(otelMW.Handler)
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/health", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}

func TestOTelMiddlewareMarksErrorSpans(t *testing.T) {
	otelMW, reader, recorder := newTestOTel(t)

	r := chi.NewRouter()
	r.Use(otelMW.Handler)
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "broken", http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	total, ok := findMetric(rm, "http_requests_total")
	require.True(t, ok)
	sum := total.Data.(metricdata.Sum[int64])
	status, ok := sum.DataPoints[0].Attributes.Value("status_code")
	require.True(t, ok)
	assert.Equal(t, int64(http.StatusInternalServerError), status.AsInt64())
}

func TestOTelMiddlewareWithoutMetrics(t *testing.T) {
	// nil metrics means trace-only; the request must still succeed
	recorder := tracetest.NewSpanRecorder()
	tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { tracerProvider.Shutdown(context.Background()) })

	otelMW := NewOTelMiddleware(&infrastructure.OTelProviders{
		Tracer: tracerProvider.Tracer(infrastructure.MeterName),
	}, nil)

	handler := otelMW.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, recorder.Ended(), 1)
}
