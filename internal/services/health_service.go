package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"runtime"
	"time"

	"finhealth/internal/locale"
	"finhealth/internal/operations"
	"finhealth/internal/scoring"
	ws "finhealth/internal/websocket"
	"finhealth/pkg/contracts"
)

// Health status values
const (
	StatusOK       = "ok"
	StatusAlive    = "alive"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
)

// HealthService provides health check functionality
type HealthService struct {
	locale    *locale.Store
	resolver  *scoring.Resolver
	store     *operations.Store
	hub       *ws.Hub
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// VersionResponse is the /api/version body
type VersionResponse struct {
	contracts.VersionInfo
	Uptime    float64 `json:"uptime_seconds"`
	StartTime string  `json:"start_time"`
}

// NewHealthService creates a health service over the console components.
// Any nil component is reported as not ready.
func NewHealthService(store *locale.Store, resolver *scoring.Resolver, state *operations.Store, hub *ws.Hub, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", contracts.Version),
		slog.String("build_time", contracts.BuildTime),
		slog.String("git_commit", contracts.GitCommit))

	return &HealthService{
		locale:    store,
		resolver:  resolver,
		store:     state,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now(),
		Version:   contracts.Version,
	}

	hs.logger.DebugContext(ctx, "HealthCheck: completed",
		slog.String("status", status.Status),
		slog.Duration("uptime", time.Since(hs.startTime)))

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusAlive,
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// ReadinessCheck reports whether every console component is usable. The scoring
// service itself is not called: a slow backend must not fail the probe.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services: map[string]ServiceHealth{
			"locale":    hs.checkLocaleHealth(),
			"scoring":   hs.checkScoringHealth(),
			"state":     hs.checkStateHealth(),
			"websocket": hs.checkWebSocketHealth(),
		},
	}

	for name, service := range status.Services {
		if service.Status != StatusReady {
			status.Status = StatusNotReady
			hs.logger.WarnContext(ctx, "ReadinessCheck: component not ready",
				slog.String("service", name),
				slog.String("message", service.Message))
		}
	}

	return status
}

// Version returns version information
func (hs *HealthService) Version() VersionResponse {
	return VersionResponse{
		VersionInfo: contracts.GetVersionInfo(),
		Uptime:      time.Since(hs.startTime).Seconds(),
		StartTime:   hs.startTime.Format(time.RFC3339),
	}
}

func (hs *HealthService) checkLocaleHealth() ServiceHealth {
	if hs.locale == nil {
		return ServiceHealth{Status: StatusNotReady, Message: "locale store not initialized"}
	}
	return ServiceHealth{
		Status:  StatusReady,
		Message: fmt.Sprintf("active language %s of %v", hs.locale.Language(), hs.locale.Languages()),
	}
}

func (hs *HealthService) checkScoringHealth() ServiceHealth {
	if hs.resolver == nil {
		return ServiceHealth{Status: StatusNotReady, Message: "scoring endpoint resolver not initialized"}
	}
	base := hs.resolver.Default()
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ServiceHealth{Status: StatusNotReady, Message: fmt.Sprintf("invalid scoring endpoint %q", base)}
	}
	return ServiceHealth{Status: StatusReady, Message: "scoring endpoint " + base}
}

func (hs *HealthService) checkStateHealth() ServiceHealth {
	if hs.store == nil {
		return ServiceHealth{Status: StatusNotReady, Message: "state store not initialized"}
	}
	s := hs.store.Snapshot()
	return ServiceHealth{
		Status:  StatusReady,
		Message: fmt.Sprintf("version %d, loading %t", s.Version, s.Loading),
	}
}

func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: StatusNotReady, Message: "websocket hub not initialized"}
	}
	return ServiceHealth{
		Status:  StatusReady,
		Message: fmt.Sprintf("%d clients connected", hs.hub.ClientCount()),
	}
}
