package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitializeOTel_MetricsDisabled(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:   "test",
		TraceExporter: "none",
	}, discardLogger())
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.PrometheusHTTP)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)

	metrics, err := NewPipelineMetrics(providers.Meter)
	require.NoError(t, err)
	RecordStage(context.Background(), metrics, "scale", time.Millisecond, nil, "")

	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	_, err := InitializeOTel(&OTelConfig{ServiceName: "test", TraceExporter: "zipkin"}, discardLogger())
	assert.Error(t, err)
}

func TestPipelineMetrics_PrometheusExport(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:   "test",
		TraceExporter: "none",
		EnableMetrics: true,
		SampleRatio:   1,
	}, discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.PrometheusHTTP)

	metrics, err := NewPipelineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	RecordStage(ctx, metrics, "assign", 5*time.Millisecond, nil, "")
	RecordStage(ctx, metrics, "load", time.Millisecond, errors.New("missing"), "DATA_SOURCE")
	metrics.KMeansIterations.Record(ctx, 4)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "pipeline_stage_executions")
	assert.Contains(t, body, "pipeline_stage_errors")
	assert.Contains(t, body, "kmeans_iterations")
	assert.Contains(t, body, `stage="assign"`)
}

func TestRecordStage_NilMetrics(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordStage(context.Background(), nil, "scale", time.Second, nil, "")
	})
}

func TestTraceIDFromContext_NoSpan(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
	assert.NotPanics(t, func() { RecordError(context.Background(), errors.New("x")) })
}
