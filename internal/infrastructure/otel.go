package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"dropoutlens/internal/config"
	"dropoutlens/pkg/contracts"
)

// InstrumentationName identifies tracers and meters created by this module
const InstrumentationName = "dropoutlens"

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	EnableMetrics  bool
	SampleRatio    float64
}

// OTelProviders holds the OpenTelemetry providers. Tracer and Meter are
// always usable; they fall back to no-op implementations when the
// corresponding signal is disabled.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// OTelConfigFromTelemetry maps the telemetry config section
func OTelConfigFromTelemetry(cfg config.TelemetryConfig) *OTelConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &OTelConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: contracts.Version,
		Environment:    env,
		TraceExporter:  cfg.TraceExporter,
		EnableMetrics:  cfg.MetricsEnabled,
		SampleRatio:    1.0,
	}
}

// InitializeOTel initializes tracing and metrics
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = OTelConfigFromTelemetry(config.Default().Telemetry)
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	)

	providers := &OTelProviders{
		Tracer: tracenoop.NewTracerProvider().Tracer(InstrumentationName),
		Meter:  metricnoop.NewMeterProvider().Meter(InstrumentationName),
		Logger: logger,
	}

	if err := initializeTracing(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return providers, nil
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "none", "":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(InstrumentationName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return nil
}

// initializeMetrics wires a Prometheus exporter on a dedicated registry
func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	registry := promclient.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers.MeterProvider = mp
	providers.Meter = mp.Meter(InstrumentationName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
	providers.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	otel.SetMeterProvider(mp)

	providers.Logger.InfoContext(ctx, "Metrics initialized", slog.String("exporter", "prometheus"))

	return nil
}

// PipelineMetrics holds the instruments recorded by the clustering pipeline
type PipelineMetrics struct {
	StageExecutions  metric.Int64Counter
	StageDuration    metric.Float64Histogram
	StageErrors      metric.Int64Counter
	KMeansIterations metric.Int64Histogram
	DatasetRows      metric.Int64Gauge
	Silhouette       metric.Float64Gauge
}

// NewPipelineMetrics creates the pipeline instruments on meter
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	stageExecutions, err := meter.Int64Counter(
		"pipeline_stage_executions_total",
		metric.WithDescription("Total number of pipeline stage executions"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"pipeline_stage_duration_seconds",
		metric.WithDescription("Pipeline stage duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stageErrors, err := meter.Int64Counter(
		"pipeline_stage_errors_total",
		metric.WithDescription("Total number of failed pipeline stages"),
	)
	if err != nil {
		return nil, err
	}

	iterations, err := meter.Int64Histogram(
		"kmeans_iterations",
		metric.WithDescription("Lloyd iterations of the winning k-means run"),
		metric.WithExplicitBucketBoundaries(1, 2, 5, 10, 20, 50, 100, 300),
	)
	if err != nil {
		return nil, err
	}

	rows, err := meter.Int64Gauge(
		"dataset_rows",
		metric.WithDescription("Region records in the prepared dataset"),
	)
	if err != nil {
		return nil, err
	}

	silhouette, err := meter.Float64Gauge(
		"clustering_silhouette_score",
		metric.WithDescription("Silhouette score of the last evaluated clustering"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		StageExecutions:  stageExecutions,
		StageDuration:    stageDuration,
		StageErrors:      stageErrors,
		KMeansIterations: iterations,
		DatasetRows:      rows,
		Silhouette:       silhouette,
	}, nil
}

// RecordStage records one execution of a pipeline stage. errType is the
// error classification and is ignored when err is nil.
func RecordStage(ctx context.Context, m *PipelineMetrics, stage string, duration time.Duration, err error, errType string) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
	}

	attrs := metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	)
	m.StageExecutions.Add(ctx, 1, attrs)
	m.StageDuration.Record(ctx, duration.Seconds(), attrs)

	if err != nil {
		m.StageErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("error.type", errType),
		))
	}
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext extracts the OpenTelemetry trace ID from context
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span and marks it failed
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
