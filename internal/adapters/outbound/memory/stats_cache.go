// Package memory provides in-memory implementations of the outbound ports
// for testing and development. All adapters are thread-safe; data is lost on
// process restart.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/avzcrypto/pharos-stats/internal/domain/entity"
	"github.com/avzcrypto/pharos-stats/internal/ports/outbound"
)

// Compile-time check that StatsCache implements outbound.StatsCache.
var _ outbound.StatsCache = (*StatsCache)(nil)

type cachedStats struct {
	stats     entity.UserStats
	expiresAt time.Time
}

// StatsCache is an in-memory implementation of the StatsCache port.
type StatsCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	users    map[string]cachedStats
	locks    map[string]time.Time
	snapshot *entity.LeaderboardSnapshot
	hits     int64
	misses   int64

	// SetCalls counts how many SetUserStats calls actually wrote, which lets
	// tests observe lock-race losers skipping their write.
	SetCalls int
}

// NewStatsCache creates a new in-memory stats cache with the given TTL.
func NewStatsCache(ttl time.Duration) *StatsCache {
	if ttl == 0 {
		ttl = time.Hour
	}
	return &StatsCache{
		ttl:   ttl,
		users: make(map[string]cachedStats),
		locks: make(map[string]time.Time),
	}
}

// GetUserStats returns the cached record, or nil, nil when absent or expired.
func (c *StatsCache) GetUserStats(ctx context.Context, address string) (*entity.UserStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	addr := strings.ToLower(address)
	entry, ok := c.users[addr]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(c.users, addr)
		c.misses++
		return nil, nil
	}
	c.hits++
	stats := entry.stats
	return &stats, nil
}

// SetUserStats stores the record, skipping the write if another writer holds
// the address lock.
func (c *StatsCache) SetUserStats(ctx context.Context, address string, stats *entity.UserStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	addr := strings.ToLower(address)
	if until, held := c.locks[addr]; held && time.Now().Before(until) {
		return nil
	}
	c.locks[addr] = time.Now().Add(30 * time.Second)
	defer delete(c.locks, addr)

	stamped := *stats
	stamped.CachedAt = time.Now().UTC()
	stamped.CacheVersion = entity.CacheVersion
	c.users[addr] = cachedStats{stats: stamped, expiresAt: time.Now().Add(c.ttl)}
	c.SetCalls++
	return nil
}

// GetSnapshot returns the cached snapshot, or nil, nil when none is cached.
func (c *StatsCache) GetSnapshot(ctx context.Context) (*entity.LeaderboardSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot == nil {
		return nil, nil
	}
	snapshot := *c.snapshot
	return &snapshot, nil
}

// SetSnapshot caches a snapshot.
func (c *StatsCache) SetSnapshot(ctx context.Context, snapshot *entity.LeaderboardSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *snapshot
	c.snapshot = &copied
	return nil
}

// DeleteSnapshot invalidates the cached snapshot.
func (c *StatsCache) DeleteSnapshot(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
	return nil
}

// ClearExpired drops expired entries and entries with an invalid shape.
func (c *StatsCache) ClearExpired(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var purged int64
	now := time.Now()
	for addr, entry := range c.users {
		invalid := len(entry.stats.Address) != entity.AddressLength || entry.stats.TotalPoints < 0
		if now.After(entry.expiresAt) || invalid {
			delete(c.users, addr)
			purged++
		}
	}
	return purged, nil
}

// Stats reports cache introspection data.
func (c *StatsCache) Stats(ctx context.Context) (outbound.CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return outbound.CacheStats{
		Enabled:          true,
		TTL:              c.ttl,
		CachedUsers:      int64(len(c.users)),
		SnapshotCached:   c.snapshot != nil,
		EstimatedHitRate: outbound.EstimateHitRate(int64(len(c.users))),
		KeyspaceHits:     c.hits,
		KeyspaceMisses:   c.misses,
		HitRate:          outbound.MeasuredHitRate(c.hits, c.misses),
	}, nil
}

// Ping always succeeds.
func (c *StatsCache) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (c *StatsCache) Close() error { return nil }
