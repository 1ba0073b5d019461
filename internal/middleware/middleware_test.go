package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dropoutlens/internal/config"
	apierrors "dropoutlens/internal/errors"
	"dropoutlens/internal/infrastructure"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "generated", incoming: ""},
		{name: "propagated", incoming: "req-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen, traceID string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetReqID(r.Context())
				traceID = infrastructure.GetTraceID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			if tt.incoming != "" {
				req.Header.Set("X-Request-ID", tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
			assert.Equal(t, seen, traceID)
			if tt.incoming != "" {
				assert.Equal(t, tt.incoming, seen)
			}
		})
	}
}

func TestStructuredLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := infrastructure.NewLogger(buf, "info")

	h := RequestID(StructuredLogger(logger)(http.HandlerFunc(okHandler)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/clusters?k=3", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	out := buf.String()
	assert.Contains(t, out, `"msg":"request completed"`)
	assert.Contains(t, out, `"path":"/api/clusters"`)
	assert.Contains(t, out, `"query":"k=3"`)
	assert.Contains(t, out, `"trace_id"`)
}

func TestRecoverer(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := infrastructure.NewLogger(buf, "info")

	h := RequestID(Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/elbow", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apierrors.TypeInternal, body["type"])
	assert.NotEmpty(t, body["trace_id"])
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, infrastructure.NewLogger(io.Discard, "error"))
	h := rl.Handler(http.HandlerFunc(okHandler))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/elbow", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/elbow", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "rate-limit-exceeded")
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(okHandler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/charts/elbow", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "https://go-echarts.github.io")
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestCORS(t *testing.T) {
	h := CORS(config.SecurityConfig{AllowedOrigins: []string{"http://localhost:3000"}})(http.HandlerFunc(okHandler))

	tests := []struct {
		name   string
		origin string
		want   string
	}{
		{name: "allowed origin", origin: "http://localhost:3000", want: "http://localhost:3000"},
		{name: "foreign origin", origin: "http://evil.example", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/elbow", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestQueryParamValidator(t *testing.T) {
	logger := infrastructure.NewLogger(io.Discard, "error")
	v := NewQueryParamValidator(logger, apierrors.NewErrorHandler(logger, false))

	tests := []struct {
		name     string
		query    string
		wantOK   bool
		wantVal  int
		wantCode int
	}{
		{name: "default when absent", query: "", wantOK: true, wantVal: 50},
		{name: "in range", query: "?limit=10", wantOK: true, wantVal: 10},
		{name: "not an integer", query: "?limit=ten", wantCode: http.StatusBadRequest},
		{name: "out of range", query: "?limit=0", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/dataset"+tt.query, nil)

			got, ok := v.ValidateInt(rec, req, "limit", 1, 1000, 50)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantVal, got)
				return
			}
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.True(t, strings.Contains(rec.Body.String(), apierrors.TypeValidation))
		})
	}
}

func TestQueryParamValidatorIntSkipsRange(t *testing.T) {
	logger := infrastructure.NewLogger(io.Discard, "error")
	v := NewQueryParamValidator(logger, apierrors.NewErrorHandler(logger, false))

	rec := httptest.NewRecorder()
	got, ok := v.Int(rec, httptest.NewRequest(http.MethodGet, "/api/clusters?k=42", nil), "k", 3)
	assert.True(t, ok)
	assert.Equal(t, 42, got)
}

func TestStructValidator(t *testing.T) {
	type request struct {
		K int `json:"k" validate:"required,min=1"`
	}
	sv := NewStructValidator()

	assert.NoError(t, sv.ValidateStruct(request{K: 3}))

	err := sv.ValidateStruct(request{})
	require.Error(t, err)
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	details, ok := apiErr.Details.([]apierrors.ValidationError)
	require.True(t, ok)
	require.Len(t, details, 1)
	assert.Equal(t, "k", details[0].Field)
	assert.Equal(t, "k is required", details[0].Message)
}

func TestOTelMiddleware(t *testing.T) {
	logger := infrastructure.NewLogger(io.Discard, "error")
	providers, err := infrastructure.InitializeOTel(&infrastructure.OTelConfig{
		ServiceName:   "dropoutlens-test",
		TraceExporter: "none",
	}, logger)
	require.NoError(t, err)

	m, err := NewOTelMiddleware(providers)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
