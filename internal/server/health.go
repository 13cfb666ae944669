package server

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// DatabaseService is the health service name reporting storage reachability.
const DatabaseService = "tabletop.Database"

// HealthReporter mirrors a dependency probe into a gRPC health server. The
// overall ("") status and DatabaseService follow the probe result.
type HealthReporter struct {
	srv    *health.Server
	probe  func(ctx context.Context) error
	logger *zap.Logger

	mu   sync.Mutex
	last healthpb.HealthCheckResponse_ServingStatus
}

// NewHealthReporter creates a reporter and marks everything SERVING.
//
// Precondition: srv, probe and logger must be non-nil.
func NewHealthReporter(srv *health.Server, probe func(ctx context.Context) error, logger *zap.Logger) *HealthReporter {
	h := &HealthReporter{srv: srv, probe: probe, logger: logger}
	h.set(healthpb.HealthCheckResponse_SERVING)
	return h
}

// Check runs the probe once and publishes the result. Transitions are logged.
func (h *HealthReporter) Check(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	err := h.probe(ctx)
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	h.mu.Lock()
	changed := status != h.last
	h.mu.Unlock()
	if !changed {
		return
	}
	if err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
	} else {
		h.logger.Info("database healthy again")
	}
	h.set(status)
}

func (h *HealthReporter) set(status healthpb.HealthCheckResponse_ServingStatus) {
	h.mu.Lock()
	h.last = status
	h.mu.Unlock()
	h.srv.SetServingStatus("", status)
	h.srv.SetServingStatus(DatabaseService, status)
}
