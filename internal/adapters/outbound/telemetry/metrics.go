// Package telemetry implements the MetricsRecorder port using OpenTelemetry.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/avzcrypto/pharos-stats/internal/ports/outbound"
)

// Compile-time check that Metrics implements outbound.MetricsRecorder.
var _ outbound.MetricsRecorder = (*Metrics)(nil)

// Metrics implements the MetricsRecorder interface using OpenTelemetry.
type Metrics struct {
	cacheLookups     metric.Int64Counter
	upstreamAttempts metric.Int64Counter
	snapshotDuration metric.Float64Histogram
	snapshotUsers    metric.Int64Gauge
}

// NewMetrics creates a new OpenTelemetry metrics recorder.
// meterName should typically be the service name.
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	lookups, err := meter.Int64Counter(
		"cache_lookups_total",
		metric.WithDescription("Per-wallet cache lookups by outcome (hit, miss, corrupt)"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache_lookups_total counter: %w", err)
	}

	attempts, err := meter.Int64Counter(
		"upstream_attempts_total",
		metric.WithDescription("Upstream fetch attempts by transport and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream_attempts_total counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"snapshot_rebuild_duration_seconds",
		metric.WithDescription("Time taken to recompute the full leaderboard snapshot"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot_rebuild_duration_seconds histogram: %w", err)
	}

	users, err := meter.Int64Gauge(
		"leaderboard_total_users",
		metric.WithDescription("Population size as of the last snapshot rebuild"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create leaderboard_total_users gauge: %w", err)
	}

	return &Metrics{
		cacheLookups:     lookups,
		upstreamAttempts: attempts,
		snapshotDuration: duration,
		snapshotUsers:    users,
	}, nil
}

// RecordCacheLookup records the outcome of a per-wallet cache read.
func (m *Metrics) RecordCacheLookup(ctx context.Context, outcome string) {
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordUpstreamAttempt records one attempt of the fetch state machine.
func (m *Metrics) RecordUpstreamAttempt(ctx context.Context, transport, status string) {
	m.upstreamAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("transport", transport),
		attribute.String("status", status),
	))
}

// RecordSnapshotRebuild records a full leaderboard recomputation.
func (m *Metrics) RecordSnapshotRebuild(ctx context.Context, duration time.Duration, totalUsers int64) {
	m.snapshotDuration.Record(ctx, duration.Seconds())
	m.snapshotUsers.Record(ctx, totalUsers)
}
