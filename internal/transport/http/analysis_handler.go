package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "dropoutlens/internal/errors"
	"dropoutlens/internal/middleware"
	"dropoutlens/internal/pipeline"
)

// MaxDatasetLimit caps the limit query parameter of the dataset tab
const MaxDatasetLimit = 100000

// ReloadResponse describes the dataset that replaced the previous one
type ReloadResponse struct {
	Version  string    `json:"version"`
	Source   string    `json:"source"`
	Records  int       `json:"records"`
	LoadedAt time.Time `json:"loaded_at"`
}

// AnalysisHandler serves the four dashboard tabs
type AnalysisHandler struct {
	service      AnalysisServiceInterface
	notifier     ReloadNotifier
	query        *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalysisHandler creates a new analysis handler. notifier may be nil.
func NewAnalysisHandler(service AnalysisServiceInterface, notifier ReloadNotifier, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalysisHandler {
	return &AnalysisHandler{
		service:      service,
		notifier:     notifier,
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "analysis_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the analysis routes on a new router
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers the analysis routes on an existing router
func (h *AnalysisHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dataset", h.GetDataset)
	r.Post("/dataset/reload", h.ReloadDataset)
	r.Get("/elbow", h.GetElbow)
	r.Get("/clusters", h.GetClusters)
	r.Get("/evaluation", h.GetEvaluation)
}

// GetDataset handles GET /api/dataset
func (h *AnalysisHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.query.ValidateInt(w, r, "limit", 0, MaxDatasetLimit, pipeline.PreviewRows)
	if !ok {
		return
	}

	view, err := h.service.DatasetView(r.Context(), limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// ReloadDataset handles POST /api/dataset/reload
func (h *AnalysisHandler) ReloadDataset(w http.ResponseWriter, r *http.Request) {
	prep, err := h.service.Reload(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "dataset reloaded",
		slog.String("version", prep.Version),
		slog.Int("records", len(prep.Records)))

	if h.notifier != nil {
		h.notifier.Refresh(prep.Version)
	}

	render.JSON(w, r, ReloadResponse{
		Version:  prep.Version,
		Source:   prep.Source,
		Records:  len(prep.Records),
		LoadedAt: prep.LoadedAt,
	})
}

// GetElbow handles GET /api/elbow
func (h *AnalysisHandler) GetElbow(w http.ResponseWriter, r *http.Request) {
	curve, err := h.service.Elbow(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, curve)
}

// GetClusters handles GET /api/clusters?k=n
func (h *AnalysisHandler) GetClusters(w http.ResponseWriter, r *http.Request) {
	k, ok := h.query.Int(w, r, "k", h.service.DefaultK())
	if !ok {
		return
	}

	view, err := h.service.Clusters(r.Context(), k)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// GetEvaluation handles GET /api/evaluation?k=n
func (h *AnalysisHandler) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	k, ok := h.query.Int(w, r, "k", h.service.DefaultK())
	if !ok {
		return
	}

	view, err := h.service.Evaluation(r.Context(), k)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}
