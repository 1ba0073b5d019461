package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "single field",
			err:        ErrValidation("k", "k must be a valid integer"),
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeValidationFailed,
			wantMsg:    "k: k must be a valid integer",
		},
		{
			name:       "several fields",
			err:        NewValidationErrors([]ValidationError{{Field: "k"}, {Field: "limit"}}),
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeValidationFailed,
			wantMsg:    "request validation failed",
		},
		{
			name:       "not found",
			err:        NotFoundError("/api/nope"),
			wantStatus: http.StatusNotFound,
			wantCode:   CodeNotFound,
			wantMsg:    "/api/nope not found",
		},
		{
			name:       "method not allowed",
			err:        MethodNotAllowedError(http.MethodDelete, "/api/elbow"),
			wantStatus: http.StatusMethodNotAllowed,
			wantCode:   CodeMethodNotAllowed,
			wantMsg:    "method DELETE not allowed on /api/elbow",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestValidationErrorDetails(t *testing.T) {
	err := ErrValidation("k", "k is required")

	details, ok := err.Details.([]ValidationError)
	assert.True(t, ok)
	assert.Equal(t, []ValidationError{{Field: "k", Message: "k is required"}}, details)
}
