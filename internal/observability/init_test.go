package observability_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/fileurl/internal/observability"
)

// Init installs global OTel providers, so these tests do not run in parallel.

func TestInit_NoopByDefault(t *testing.T) {
	providers, err := observability.Init(observability.DefaultConfig())
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Logger)
	assert.Nil(t, providers.MetricsHandler)

	_, span := providers.Tracer.Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
}

func TestInit_PrometheusServesRecordedMetrics(t *testing.T) {
	cfg := observability.DefaultConfig()
	cfg.Mode = observability.ModeMCP
	cfg.Prometheus = true

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })
	require.NotNil(t, providers.MetricsHandler)

	red, err := observability.NewREDMetrics(providers.Meter)
	require.NoError(t, err)

	red.RecordRequest(context.Background(), "fileurl_resolve", observability.StatusOK, "", time.Millisecond)

	rec := httptest.NewRecorder()
	providers.MetricsHandler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "fileurl_requests")
	assert.Contains(t, rec.Body.String(), "target_info")
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(observability.EnvOTLPEndpoint, "collector:4317")
	t.Setenv(observability.EnvOTLPHeaders, "x-api-key=secret, tenant = a")
	t.Setenv(observability.EnvOTLPInsecure, "TRUE")

	cfg := observability.ConfigFromEnv(observability.DefaultConfig())

	assert.Equal(t, "collector:4317", cfg.OTLPEndpoint)
	assert.Equal(t, map[string]string{"x-api-key": "secret", "tenant": "a"}, cfg.OTLPHeaders)
	assert.True(t, cfg.OTLPInsecure)
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	assert.Nil(t, observability.ParseOTLPHeaders(""))
	assert.Nil(t, observability.ParseOTLPHeaders("garbage"))
	assert.Equal(t, map[string]string{"a": "1"}, observability.ParseOTLPHeaders("a=1,broken"))
}

func TestHTTPMiddleware_RecordsRequests(t *testing.T) {
	t.Parallel()

	red, reader := setupTestMeter(t)

	next := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusInternalServerError)
	})

	handler := observability.HTTPMiddleware(nooptrace.NewTracerProvider().Tracer("test"), red, next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rm := collectMetrics(t, reader)

	reqTotal := findMetric(rm, "fileurl.requests.total")
	require.NotNil(t, reqTotal)
	assert.Equal(t, int64(1), sumValue(t, reqTotal))
	require.NotNil(t, findMetric(rm, "fileurl.errors.total"))
}

func TestHTTPMiddleware_WithoutMetrics(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		_, _ = rw.Write([]byte("ok"))
	})

	handler := observability.HTTPMiddleware(nooptrace.NewTracerProvider().Tracer("test"), nil, next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
