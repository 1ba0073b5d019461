package http

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dropoutlens/internal/charts"
	apierrors "dropoutlens/internal/errors"
	"dropoutlens/internal/middleware"
)

// ChartHandler serves ECharts pages for the elbow and totals views
type ChartHandler struct {
	service      AnalysisServiceInterface
	query        *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewChartHandler creates a new chart handler
func NewChartHandler(service AnalysisServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ChartHandler {
	return &ChartHandler{
		service:      service,
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "chart_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the chart routes
func (h *ChartHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/elbow", h.Elbow)
	r.Get("/totals", h.Totals)
	return r
}

// Elbow handles GET /charts/elbow
func (h *ChartHandler) Elbow(w http.ResponseWriter, r *http.Request) {
	curve, err := h.service.Elbow(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := charts.RenderElbow(&buf, curve); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.writeHTML(w, r, buf.Bytes())
}

// Totals handles GET /charts/totals?k=n
func (h *ChartHandler) Totals(w http.ResponseWriter, r *http.Request) {
	k, ok := h.query.Int(w, r, "k", h.service.DefaultK())
	if !ok {
		return
	}

	view, err := h.service.Clusters(r.Context(), k)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := charts.RenderTotals(&buf, view.K, view.Totals); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.writeHTML(w, r, buf.Bytes())
}

func (h *ChartHandler) writeHTML(w http.ResponseWriter, r *http.Request, page []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(page); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write chart page",
			slog.String("error", err.Error()))
	}
}
