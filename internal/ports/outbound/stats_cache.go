package outbound

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avzcrypto/pharos-stats/internal/domain/entity"
)

// CacheStats describes the state of the stats cache for introspection.
type CacheStats struct {
	Enabled          bool          `json:"cache_enabled"`
	TTL              time.Duration `json:"-"`
	CachedUsers      int64         `json:"cached_users"`
	SnapshotCached   bool          `json:"leaderboard_cached"`
	EstimatedHitRate string        `json:"estimated_hit_rate"`

	// KeyspaceHits and KeyspaceMisses come from the store's own counters;
	// HitRate is derived from them and empty until either counter moves.
	KeyspaceHits   int64  `json:"keyspace_hits"`
	KeyspaceMisses int64  `json:"keyspace_misses"`
	HitRate        string `json:"hit_rate,omitempty"`
}

// EstimateHitRate formats the population-based hit rate heuristic, capped
// at 95 percent.
func EstimateHitRate(cachedUsers int64) string {
	return fmt.Sprintf("%.1f%%", min(95.0, float64(cachedUsers)*0.1))
}

// MeasuredHitRate formats the real hit rate from the store's keyspace
// counters, or returns empty when neither counter has moved.
func MeasuredHitRate(hits, misses int64) string {
	total := hits + misses
	if total == 0 {
		return ""
	}
	return fmt.Sprintf("%.2f%%", float64(hits)/float64(total)*100)
}

// MarshalJSON reports the TTL in seconds rather than Duration nanoseconds.
func (s CacheStats) MarshalJSON() ([]byte, error) {
	type alias CacheStats
	return json.Marshal(struct {
		alias
		TTLSeconds float64 `json:"cache_ttl_seconds"`
	}{alias(s), s.TTL.Seconds()})
}

// StatsCache is the per-wallet TTL cache plus the leaderboard snapshot cache.
//
// Implementations must self-heal corrupted entries: an entry that fails
// integrity validation is deleted and reported as a miss, never returned.
// Writes to the same wallet are serialized through a short-lived exclusive
// lock; a writer that loses the lock race skips its write entirely.
type StatsCache interface {
	// GetUserStats returns the cached record for the address, or nil, nil on
	// a miss. The address is normalized to lowercase before lookup.
	GetUserStats(ctx context.Context, address string) (*entity.UserStats, error)

	// SetUserStats stores the record under the cache TTL after acquiring the
	// per-address write lock. Losing the lock race is not an error.
	SetUserStats(ctx context.Context, address string, stats *entity.UserStats) error

	// GetSnapshot returns the cached leaderboard snapshot, or nil, nil when
	// none is cached.
	GetSnapshot(ctx context.Context) (*entity.LeaderboardSnapshot, error)

	// SetSnapshot caches a freshly computed snapshot under the snapshot TTL.
	SetSnapshot(ctx context.Context, snapshot *entity.LeaderboardSnapshot) error

	// DeleteSnapshot invalidates the cached snapshot so the next read
	// recomputes it.
	DeleteSnapshot(ctx context.Context) error

	// ClearExpired re-validates every per-wallet entry via a bounded cursor
	// scan and deletes invalid ones. Best-effort: a failure mid-scan returns
	// the partial count without error.
	ClearExpired(ctx context.Context) (purged int64, err error)

	// Stats reports cache introspection data using the same bounded scan.
	Stats(ctx context.Context) (CacheStats, error)

	// Ping checks store connectivity.
	Ping(ctx context.Context) error

	// Close releases the store connection.
	Close() error
}
