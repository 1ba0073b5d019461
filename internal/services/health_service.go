package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"dropoutlens/pkg/contracts"
)

// DatasetStatus reports whether a prepared dataset is available
type DatasetStatus interface {
	Loaded() bool
}

// HealthService provides health check functionality
type HealthService struct {
	dataset   DatasetStatus
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(dataset DatasetStatus, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		dataset:   dataset,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime: map[string]interface{}{
			"uptime_seconds": time.Since(hs.startTime).Seconds(),
			"goroutines":     runtime.NumGoroutine(),
		},
		Services: map[string]interface{}{
			"dataset": hs.checkDatasetHealth(),
		},
	}

	hs.logger.DebugContext(ctx, "health check completed", slog.String("status", status.Status))
	return status
}

// Version returns version information
func (hs *HealthService) Version() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}

func (hs *HealthService) checkDatasetHealth() ServiceHealth {
	if hs.dataset == nil || !hs.dataset.Loaded() {
		return ServiceHealth{Status: "pending", Message: "dataset loads on first request"}
	}
	return ServiceHealth{Status: "ready"}
}
