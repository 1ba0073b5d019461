package errors

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/render"

	"dropoutlens/internal/infrastructure"
)

// Problem types following RFC 7807
const (
	TypeValidation           = "/errors/validation"
	TypeNotFound             = "/errors/not-found"
	TypeMethodNotAllowed     = "/errors/method-not-allowed"
	TypeInternal             = "/errors/internal"
	TypeTimeout              = "/errors/timeout"
	TypeDataSource           = "/errors/data/source-unavailable"
	TypeSchema               = "/errors/data/schema"
	TypeEmptyDataset         = "/errors/data/empty"
	TypeInvalidClusterCount  = "/errors/clustering/invalid-k"
	TypeDegenerateClustering = "/errors/clustering/degenerate"
)

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	traceID := infrastructure.GetTraceID(r.Context())
	problem := h.ErrorToProblem(err, r.URL.Path)
	problem.WithExtension("trace_id", traceID)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.LogAttrs(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	if h.includeStack && problem.Status >= http.StatusInternalServerError {
		problem.WithExtension("stack", string(debug.Stack()))
	}

	render.Render(w, r, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, instance string) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			instance,
		)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErrorToProblem(apiErr, instance)
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErrorToProblem(appErr, err, instance)
	}

	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred while processing your request",
		instance,
	)
}

// StatusFor returns the HTTP status an error maps to
func StatusFor(errType ErrorType) int {
	switch errType {
	case ErrTypeDataSource:
		return http.StatusServiceUnavailable
	case ErrTypeSchema, ErrTypeEmptyDataset, ErrTypeDegenerateClustering:
		return http.StatusUnprocessableEntity
	case ErrTypeInvalidClusterCount, ErrTypeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func appErrorToProblem(appErr *AppError, err error, instance string) *ProblemDetails {
	problemType := TypeInternal
	title := "Internal Server Error"
	switch appErr.Type {
	case ErrTypeDataSource:
		problemType, title = TypeDataSource, "Data Source Unavailable"
	case ErrTypeSchema:
		problemType, title = TypeSchema, "Dataset Schema Error"
	case ErrTypeEmptyDataset:
		problemType, title = TypeEmptyDataset, "Empty Dataset"
	case ErrTypeInvalidClusterCount:
		problemType, title = TypeInvalidClusterCount, "Invalid Cluster Count"
	case ErrTypeDegenerateClustering:
		problemType, title = TypeDegenerateClustering, "Degenerate Clustering"
	case ErrTypeValidation:
		problemType, title = TypeValidation, "Validation Failed"
	}

	problem := NewProblemDetails(StatusFor(appErr.Type), problemType, title, err.Error(), instance).
		WithExtension("error_code", string(appErr.Type))
	if len(appErr.Context) > 0 {
		problem.WithExtension("context", appErr.Context)
	}
	return problem
}

func apiErrorToProblem(apiErr *APIError, instance string) *ProblemDetails {
	problemType := TypeInternal
	switch apiErr.ErrorCode {
	case CodeValidationFailed:
		problemType = TypeValidation
	case CodeNotFound:
		problemType = TypeNotFound
	case CodeMethodNotAllowed:
		problemType = TypeMethodNotAllowed
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		instance,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}

	return problem
}
