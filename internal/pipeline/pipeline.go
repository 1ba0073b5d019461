package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"gonum.org/v1/gonum/mat"

	"dropoutlens/internal/clustering"
	"dropoutlens/internal/config"
	"dropoutlens/internal/dataset"
	apierrors "dropoutlens/internal/errors"
	"dropoutlens/internal/infrastructure"
	"dropoutlens/internal/report"
	"dropoutlens/pkg/contracts/domain"
)

// Stage names used in spans, logs and metrics
const (
	StageLoad       = "load"
	StagePreprocess = "preprocess"
	StageScale      = "scale"
	StageElbow      = "elbow"
	StageAssign     = "assign"
	StageAggregate  = "aggregate"
	StageSilhouette = "silhouette"
	StageDescribe   = "describe"
)

// Config holds everything the pipeline needs besides the user's k
type Config struct {
	Source    string
	Sheet     string
	Schema    dataset.Schema
	Options   clustering.Options
	ElbowMaxK int
}

// ConfigFrom maps the application config onto a pipeline Config
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Source: cfg.Dataset.Path,
		Sheet:  cfg.Dataset.Sheet,
		Schema: dataset.SchemaFromConfig(cfg.Dataset),
		Options: clustering.Options{
			Seed:    cfg.Clustering.Seed,
			NInit:   cfg.Clustering.NInit,
			MaxIter: cfg.Clustering.MaxIter,
		},
		ElbowMaxK: cfg.Clustering.ElbowMaxK,
	}
}

// PreviewRows is the default number of records shown in the dataset tab
const PreviewRows = 5

// Prepared is a loaded, filtered and standardized dataset. It is never
// modified after Prepare returns.
type Prepared struct {
	Version  string
	Source   string
	Records  []domain.RegionRecord
	Raw      *mat.Dense
	Scaled   *mat.Dense
	Scaler   *clustering.StandardScaler
	LoadedAt time.Time
}

// View returns the dataset tab payload, limited to the first limit
// records when limit > 0
func (p *Prepared) View(limit int) domain.DatasetView {
	records := p.Records
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return domain.DatasetView{
		Version: p.Version,
		Source:  p.Source,
		Total:   len(p.Records),
		Records: records,
		Scaler:  p.Scaler.Stats(),
	}
}

// Pipeline runs the clustering stages with tracing, metrics and logs
type Pipeline struct {
	cfg     Config
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
}

// New creates a pipeline. A nil tracer or metrics disables that signal.
func New(cfg Config, tracer trace.Tracer, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *Pipeline {
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer(infrastructure.InstrumentationName)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:     cfg,
		tracer:  tracer,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "pipeline")),
	}
}

// Config returns the pipeline configuration
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Prepare loads the configured workbook and prepares it for clustering
func (p *Pipeline) Prepare(ctx context.Context) (*Prepared, error) {
	var table *dataset.Table
	err := p.run(ctx, StageLoad, func(ctx context.Context) error {
		var err error
		table, err = dataset.Load(p.cfg.Source, p.cfg.Sheet)
		if err == nil {
			trace.SpanFromContext(ctx).SetAttributes(attribute.Int("dataset.raw_rows", len(table.Rows)))
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return p.PrepareTable(ctx, table)
}

// PrepareTable filters, validates and standardizes an already loaded table
func (p *Pipeline) PrepareTable(ctx context.Context, table *dataset.Table) (*Prepared, error) {
	var records []domain.RegionRecord
	err := p.run(ctx, StagePreprocess, func(ctx context.Context) error {
		var err error
		records, err = dataset.Preprocess(table, p.cfg.Schema)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		err := apierrors.NewEmptyDatasetError(
			fmt.Sprintf("no rows with %s = %q in %s", p.cfg.Schema.GranularityColumn, p.cfg.Schema.TargetGranularity, table.Source))
		p.logger.WarnContext(ctx, "preprocessing produced no records",
			slog.String("source", table.Source),
			slog.Int("raw_rows", len(table.Rows)))
		return nil, err
	}

	prepared := &Prepared{
		Version:  uuid.NewString(),
		Source:   table.Source,
		Records:  records,
		LoadedAt: time.Now().UTC(),
	}

	err = p.run(ctx, StageScale, func(ctx context.Context) error {
		raw, err := dataset.FeatureMatrix(records)
		if err != nil {
			return err
		}
		scaled, scaler, err := clustering.Standardize(raw)
		if err != nil {
			return err
		}
		prepared.Raw, prepared.Scaled, prepared.Scaler = raw, scaled, scaler
		return nil
	})
	if err != nil {
		return nil, err
	}

	if p.metrics != nil {
		p.metrics.DatasetRows.Record(ctx, int64(len(records)))
	}

	p.logger.InfoContext(ctx, "dataset prepared",
		slog.String("version", prepared.Version),
		slog.String("source", prepared.Source),
		slog.Int("records", len(records)))

	return prepared, nil
}

// Elbow computes the WCSS curve of the prepared dataset
func (p *Pipeline) Elbow(ctx context.Context, prep *Prepared) ([]domain.WCSSPoint, error) {
	var curve []domain.WCSSPoint
	err := p.run(ctx, StageElbow, func(ctx context.Context) error {
		var err error
		curve, err = clustering.Elbow(prep.Scaled, p.cfg.ElbowMaxK, p.cfg.Options)
		return err
	})
	return curve, err
}

// Assign clusters the prepared dataset into k groups
func (p *Pipeline) Assign(ctx context.Context, prep *Prepared, k int) (*clustering.Result, error) {
	var res *clustering.Result
	err := p.run(ctx, StageAssign, func(ctx context.Context) error {
		var err error
		res, err = clustering.Assign(prep.Scaled, k, p.cfg.Options)
		if err != nil {
			return err
		}
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.Int("kmeans.k", k),
			attribute.Int("kmeans.iterations", res.Iterations),
			attribute.Float64("kmeans.wcss", res.WCSS),
		)
		if p.metrics != nil {
			p.metrics.KMeansIterations.Record(ctx, int64(res.Iterations),
				metric.WithAttributes(attribute.Int("k", k)))
		}
		return nil
	})
	return res, err
}

// Cluster assigns k clusters and joins them with region names and totals
func (p *Pipeline) Cluster(ctx context.Context, prep *Prepared, k int) (*domain.ClusterView, error) {
	res, err := p.Assign(ctx, prep, k)
	if err != nil {
		return nil, err
	}

	view := &domain.ClusterView{K: k, WCSS: res.WCSS, Iterations: res.Iterations}
	err = p.run(ctx, StageAggregate, func(ctx context.Context) error {
		var err error
		if view.Assignments, err = report.Assignments(prep.Records, res.Labels); err != nil {
			return err
		}
		view.Totals, err = report.Aggregate(prep.Records, res.Labels, k)
		return err
	})
	if err != nil {
		return nil, err
	}

	return view, nil
}

// Evaluate builds the evaluation tab for k clusters
func (p *Pipeline) Evaluate(ctx context.Context, prep *Prepared, k int) (*domain.EvaluationView, error) {
	res, err := p.Assign(ctx, prep, k)
	if err != nil {
		return nil, err
	}

	view := &domain.EvaluationView{K: k}

	err = p.run(ctx, StageDescribe, func(ctx context.Context) error {
		var err error
		view.Describe, err = report.Describe(prep.Records)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = p.run(ctx, StageAggregate, func(ctx context.Context) error {
		var err error
		view.Clusters, err = report.Aggregate(prep.Records, res.Labels, k)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = p.run(ctx, StageSilhouette, func(ctx context.Context) error {
		score, err := report.Silhouette(prep.Scaled, res.Labels, k)
		if err != nil {
			return err
		}
		view.Silhouette = score
		view.SilhouetteDisplay = report.FormatScore(score)
		if p.metrics != nil {
			p.metrics.Silhouette.Record(ctx, score, metric.WithAttributes(attribute.Int("k", k)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return view, nil
}

// run executes one stage inside a span and records its outcome
func (p *Pipeline) run(ctx context.Context, stage string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, span := p.tracer.Start(ctx, "pipeline."+stage,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("pipeline.stage", stage)),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	errType := ""
	if err != nil {
		if t, ok := apierrors.TypeOf(err); ok {
			errType = string(t)
		} else {
			errType = "INTERNAL"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.ErrorContext(ctx, "stage failed",
			slog.String("stage", stage),
			slog.String("error_type", errType),
			slog.String("error", err.Error()),
			slog.Duration("duration", duration))
	} else {
		p.logger.DebugContext(ctx, "stage completed",
			slog.String("stage", stage),
			slog.Duration("duration", duration))
	}

	infrastructure.RecordStage(ctx, p.metrics, stage, duration, err, errType)
	return err
}
