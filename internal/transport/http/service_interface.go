package http

import (
	"context"

	"dropoutlens/internal/pipeline"
	"dropoutlens/pkg/contracts/domain"
)

// AnalysisServiceInterface defines the analysis operations used by the handlers
type AnalysisServiceInterface interface {
	DefaultK() int
	DatasetView(ctx context.Context, limit int) (*domain.DatasetView, error)
	Reload(ctx context.Context) (*pipeline.Prepared, error)
	Elbow(ctx context.Context) ([]domain.WCSSPoint, error)
	Clusters(ctx context.Context, k int) (*domain.ClusterView, error)
	Evaluation(ctx context.Context, k int) (*domain.EvaluationView, error)
}

// ReloadNotifier is told about every successful dataset reload
type ReloadNotifier interface {
	Refresh(version string)
}
