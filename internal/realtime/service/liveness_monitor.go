package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/allisson/marketplace/internal/metrics"
	"github.com/allisson/marketplace/internal/realtime/registry"
)

// LivenessMonitor probes every registered connection on a fixed tick and
// evicts handles that have shown no inbound liveness for two consecutive
// probe intervals. This bounds registry staleness to at most two ticks and
// keeps abandoned transports from accumulating.
type LivenessMonitor struct {
	registry *registry.Registry
	interval time.Duration
	logger   *slog.Logger
	metrics  metrics.BusinessMetrics
}

// NewLivenessMonitor creates a monitor for the given registry.
func NewLivenessMonitor(
	reg *registry.Registry,
	interval time.Duration,
	logger *slog.Logger,
	businessMetrics metrics.BusinessMetrics,
) *LivenessMonitor {
	return &LivenessMonitor{
		registry: reg,
		interval: interval,
		logger:   logger,
		metrics:  businessMetrics,
	}
}

// Start runs the probe loop until the context is cancelled.
func (m *LivenessMonitor) Start(ctx context.Context) error {
	m.logger.Info("starting liveness monitor", slog.Duration("interval", m.interval))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("stopping liveness monitor")
			return ctx.Err()
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}

// Probe runs one probe pass over a snapshot of the registry. A handle whose
// last inbound liveness is older than two intervals missed both previous
// probes and is evicted; everyone else gets a ping with one interval to
// answer. Eviction goes through Unregister before Close, so a concurrent
// broadcast can no longer observe the evicted handle.
func (m *LivenessMonitor) Probe(ctx context.Context) {
	now := time.Now()
	deadline := now.Add(m.interval)

	for _, conn := range m.registry.Snapshot() {
		if now.Sub(conn.LastSeenAt()) >= 2*m.interval {
			m.registry.Unregister(conn.ID)
			_ = conn.Close()

			m.logger.Info("evicted stale connection",
				slog.String("connection_id", conn.ID.String()),
				slog.String("actor_id", conn.ActorID.String()),
				slog.String("role", string(conn.Role)),
			)
			m.metrics.RecordOperation(ctx, "realtime", "evict", "success")
			continue
		}

		if err := conn.Ping(deadline); err != nil {
			// A failed write counts as a missed probe; the handle is
			// evicted by the staleness check once both probes are missed.
			m.logger.Warn("liveness probe failed",
				slog.String("connection_id", conn.ID.String()),
				slog.Any("error", err),
			)
		}
	}
}
