package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	ws "agronexus/internal/websocket"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	dashboard *DashboardService
	hub       *ws.Hub
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

// NewHealthService creates a new health service with injected dependencies
func NewHealthService(version string, dashboard *DashboardService, hub *ws.Hub, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		dashboard: dashboard,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// LivenessCheck returns liveness status with runtime stats
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// ReadinessCheck probes data sources and the websocket hub
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	if hs.hub != nil {
		status.Services["websocket"] = ServiceHealth{Status: "ready"}
	}

	if hs.dashboard != nil {
		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		for name, err := range hs.dashboard.CheckSources(probeCtx) {
			sh := ServiceHealth{Status: "ready"}
			if err != nil {
				// sources are degradable, readiness stays green with a note
				sh = ServiceHealth{Status: "degraded", Message: err.Error()}
				hs.logger.Warn("source probe failed",
					slog.String("source", name),
					slog.String("error", err.Error()))
			}
			status.Services[name] = sh
		}
	}

	return status
}

// Version returns version information for the /api/version endpoint
func (hs *HealthService) Version() map[string]interface{} {
	return map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

// Stats returns hub counters for the health payload
func (hs *HealthService) Stats() map[string]int64 {
	if hs.hub == nil {
		return nil
	}
	return hs.hub.Stats()
}
