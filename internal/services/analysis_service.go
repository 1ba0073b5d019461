package services

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"dropoutlens/internal/pipeline"
	"dropoutlens/pkg/contracts/domain"
)

const loadKey = "dataset"

// AnalysisService owns the prepared dataset of a dashboard session and
// answers the four dashboard views from it. Clustering results are not
// cached: every call recomputes from the prepared dataset.
type AnalysisService struct {
	pipeline *pipeline.Pipeline
	defaultK int
	logger   *slog.Logger

	group   singleflight.Group
	current atomic.Pointer[pipeline.Prepared]
}

// NewAnalysisService creates an analysis service. The dataset is loaded
// lazily on first use.
func NewAnalysisService(p *pipeline.Pipeline, defaultK int, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		pipeline: p,
		defaultK: defaultK,
		logger:   logger.With(slog.String("service", "analysis")),
	}
}

// DefaultK returns the cluster count used when a request names none
func (s *AnalysisService) DefaultK() int {
	return s.defaultK
}

// Loaded reports whether a prepared dataset is held
func (s *AnalysisService) Loaded() bool {
	return s.current.Load() != nil
}

// Dataset returns the prepared dataset, loading it on first use.
// Concurrent first callers share one load.
func (s *AnalysisService) Dataset(ctx context.Context) (*pipeline.Prepared, error) {
	if prep := s.current.Load(); prep != nil {
		return prep, nil
	}
	return s.load(ctx, false)
}

// Reload re-reads the workbook and replaces the prepared dataset. On
// failure the previous dataset is kept.
func (s *AnalysisService) Reload(ctx context.Context) (*pipeline.Prepared, error) {
	return s.load(ctx, true)
}

func (s *AnalysisService) load(ctx context.Context, force bool) (*pipeline.Prepared, error) {
	v, err, shared := s.group.Do(loadKey, func() (interface{}, error) {
		if !force {
			if prep := s.current.Load(); prep != nil {
				return prep, nil
			}
		}

		prep, err := s.pipeline.Prepare(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		previous := s.current.Swap(prep)
		attrs := []any{
			slog.String("version", prep.Version),
			slog.Int("records", len(prep.Records)),
		}
		if previous != nil {
			attrs = append(attrs, slog.String("replaced_version", previous.Version))
		}
		s.logger.InfoContext(ctx, "dataset ready", attrs...)

		return prep, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		s.logger.DebugContext(ctx, "dataset load shared with concurrent caller")
	}
	return v.(*pipeline.Prepared), nil
}

// DatasetView returns the dataset tab, limited to limit records when > 0
func (s *AnalysisService) DatasetView(ctx context.Context, limit int) (*domain.DatasetView, error) {
	prep, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	view := prep.View(limit)
	return &view, nil
}

// Elbow returns the WCSS curve
func (s *AnalysisService) Elbow(ctx context.Context) ([]domain.WCSSPoint, error) {
	prep, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return s.pipeline.Elbow(ctx, prep)
}

// Clusters returns the assignment and per-cluster totals for k
func (s *AnalysisService) Clusters(ctx context.Context, k int) (*domain.ClusterView, error) {
	prep, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return s.pipeline.Cluster(ctx, prep, k)
}

// Evaluation returns descriptive statistics, cluster aggregates and the
// silhouette score for k
func (s *AnalysisService) Evaluation(ctx context.Context, k int) (*domain.EvaluationView, error) {
	prep, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return s.pipeline.Evaluate(ctx, prep, k)
}
