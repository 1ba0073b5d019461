package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dropoutlens/internal/config"
)

func TestInitializeLogger_File(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "logs", "test.log")
	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Same(t, logger, GetLogger())

	logger.Info("dataset loaded", "rows", 38)
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(content), &entry))
	assert.Equal(t, "dataset loaded", entry["msg"])
	assert.Equal(t, float64(38), entry["rows"])
}

func TestNewLogger_InjectsTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "debug")

	ctx := WithTraceID(context.Background(), "trace-123")
	logger.InfoContext(ctx, "clustering complete")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "trace-123", entry["trace_id"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")

	logger.Info("ignored")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debug", "DEBUG"},
		{"INFO", "INFO"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"verbose", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input).String())
		})
	}
}

func TestEnsureTraceID(t *testing.T) {
	ctx, id := EnsureTraceID(context.Background())
	assert.NotEmpty(t, id)
	assert.Equal(t, id, GetTraceID(ctx))

	again, sameID := EnsureTraceID(ctx)
	assert.Equal(t, id, sameID)
	assert.Equal(t, id, GetTraceID(again))

	_, provided := EnsureTraceID(WithTraceID(context.Background(), "req-42"))
	assert.Equal(t, "req-42", provided)
}
