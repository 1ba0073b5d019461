package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() *ErrorHandler {
	return NewErrorHandler(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})), false)
}

func TestErrorHandler_ErrorToProblem(t *testing.T) {
	h := newTestHandler()

	tests := []struct {
		name         string
		err          error
		expectStatus int
		expectType   string
	}{
		{"data source", NewDataSourceError("open", nil), http.StatusServiceUnavailable, TypeDataSource},
		{"schema", fmt.Errorf("load: %w", NewSchemaError("missing", nil)), http.StatusUnprocessableEntity, TypeSchema},
		{"empty", NewEmptyDatasetError("none"), http.StatusUnprocessableEntity, TypeEmptyDataset},
		{"invalid k", NewInvalidClusterCountError(1, 2, 10), http.StatusBadRequest, TypeInvalidClusterCount},
		{"degenerate", NewDegenerateClusteringError("one cluster"), http.StatusUnprocessableEntity, TypeDegenerateClustering},
		{"api error", ErrValidation("k", "must be an integer"), http.StatusBadRequest, TypeValidation},
		{"not found", NotFoundError("/api/nope"), http.StatusNotFound, TypeNotFound},
		{"method not allowed", MethodNotAllowedError(http.MethodDelete, "/api/elbow"), http.StatusMethodNotAllowed, TypeMethodNotAllowed},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := h.ErrorToProblem(tt.err, "/api/clusters")
			assert.Equal(t, tt.expectStatus, p.Status)
			assert.Equal(t, tt.expectType, p.Type)
			assert.Equal(t, "/api/clusters", p.Instance)
		})
	}
}

func TestErrorHandler_HandleError(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/clusters?k=1", nil)
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, NewInvalidClusterCountError(1, 2, 10))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, TypeInvalidClusterCount, body["type"])
	assert.Equal(t, "INVALID_CLUSTER_COUNT", body["error_code"])
	assert.Contains(t, body, "trace_id")
}

func TestErrorHandler_NilError(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler().HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, 0, rec.Body.Len())
}
