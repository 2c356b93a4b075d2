package outbound

import (
	"context"
	"time"
)

// MetricsRecorder provides an interface for recording application metrics.
// This allows the application layer to record metrics without depending on
// specific telemetry implementations.
type MetricsRecorder interface {
	// RecordCacheLookup records the outcome of a per-wallet cache read.
	// outcome is "hit", "miss" or "corrupt".
	RecordCacheLookup(ctx context.Context, outcome string)

	// RecordUpstreamAttempt records one attempt of the fetch state machine.
	// transport is "proxy" or "direct"; status is "ok", "connection" or "error".
	RecordUpstreamAttempt(ctx context.Context, transport, status string)

	// RecordSnapshotRebuild records a full leaderboard recomputation.
	RecordSnapshotRebuild(ctx context.Context, duration time.Duration, totalUsers int64)
}

// NoopMetrics is a MetricsRecorder that discards everything. Used in tests
// and when telemetry is disabled.
type NoopMetrics struct{}

var _ MetricsRecorder = NoopMetrics{}

func (NoopMetrics) RecordCacheLookup(context.Context, string)                   {}
func (NoopMetrics) RecordUpstreamAttempt(context.Context, string, string)       {}
func (NoopMetrics) RecordSnapshotRebuild(context.Context, time.Duration, int64) {}
