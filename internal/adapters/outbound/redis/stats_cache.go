package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avzcrypto/pharos-stats/internal/domain/entity"
	"github.com/avzcrypto/pharos-stats/internal/ports/outbound"
)

// Compile-time check that StatsCache implements outbound.StatsCache.
var _ outbound.StatsCache = (*StatsCache)(nil)

// StatsCache is a Redis implementation of the outbound.StatsCache port.
type StatsCache struct {
	client    *redis.Client
	ttl       time.Duration
	lockTTL   time.Duration
	keyPrefix string
	scanCount int64
	logger    *slog.Logger
	metrics   outbound.MetricsRecorder
}

// NewStatsCache creates a new Redis stats cache on top of an open client.
func NewStatsCache(client *redis.Client, cfg Config, logger *slog.Logger, metrics outbound.MetricsRecorder) (*StatsCache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	applyDefaults(&cfg)

	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = outbound.NoopMetrics{}
	}

	return &StatsCache{
		client:    client,
		ttl:       cfg.TTL,
		lockTTL:   cfg.LockTTL,
		keyPrefix: cfg.KeyPrefix,
		scanCount: cfg.ScanCount,
		logger:    logger.With("component", "redis-stats-cache"),
		metrics:   metrics,
	}, nil
}

// Ping checks the Redis connection.
func (c *StatsCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *StatsCache) Close() error {
	return c.client.Close()
}

func (c *StatsCache) userKey(addr string) string {
	return fmt.Sprintf("%s:user:%s", c.keyPrefix, addr)
}

func (c *StatsCache) lockKey(addr string) string {
	return fmt.Sprintf("%s:lock:%s", c.keyPrefix, addr)
}

func (c *StatsCache) snapshotKey() string {
	return fmt.Sprintf("%s:leaderboard:hourly", c.keyPrefix)
}

// cacheProbe checks structural integrity of a cached record before the full
// decode. Pointer fields distinguish absent from zero-valued.
type cacheProbe struct {
	Success     *bool   `json:"success"`
	Address     *string `json:"address"`
	TotalPoints *int64  `json:"total_points"`
}

func (p *cacheProbe) valid() bool {
	return p.Success != nil &&
		p.Address != nil && len(*p.Address) == entity.AddressLength &&
		p.TotalPoints != nil && *p.TotalPoints >= 0
}

// GetUserStats returns the cached record for the address, or nil, nil on a
// miss. Undecodable entries are purged synchronously; entries failing
// integrity validation are purged asynchronously so the caller never waits
// on cleanup. Either way the caller sees a plain miss.
func (c *StatsCache) GetUserStats(ctx context.Context, address string) (*entity.UserStats, error) {
	addr := strings.ToLower(strings.TrimSpace(address))
	key := c.userKey(addr)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.metrics.RecordCacheLookup(ctx, "miss")
		return nil, nil
	}
	if err != nil {
		c.logger.Error("redis read failed", "address", addr, "error", err)
		return nil, fmt.Errorf("%w: reading user cache: %v", outbound.ErrStoreUnavailable, err)
	}

	var probe cacheProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		c.metrics.RecordCacheLookup(ctx, "corrupt")
		c.deleteKey(ctx, key)
		return nil, nil
	}
	if !probe.valid() {
		c.metrics.RecordCacheLookup(ctx, "corrupt")
		go c.deleteKey(context.WithoutCancel(ctx), key)
		return nil, nil
	}

	var stats entity.UserStats
	if err := json.Unmarshal(data, &stats); err != nil {
		c.metrics.RecordCacheLookup(ctx, "corrupt")
		c.deleteKey(ctx, key)
		return nil, nil
	}

	c.metrics.RecordCacheLookup(ctx, "hit")
	return &stats, nil
}

// SetUserStats stores the record under the cache TTL. The per-address write
// lock serializes concurrent writers of the same wallet: at most one write
// is in flight per address, and a writer that loses the race skips its write
// rather than overwrite. The lock is released on every exit path.
func (c *StatsCache) SetUserStats(ctx context.Context, address string, stats *entity.UserStats) error {
	addr := strings.ToLower(strings.TrimSpace(address))
	lock := c.lockKey(addr)

	acquired, err := c.client.SetNX(ctx, lock, "locked", c.lockTTL).Result()
	if err != nil {
		return fmt.Errorf("%w: acquiring write lock: %v", outbound.ErrStoreUnavailable, err)
	}
	if !acquired {
		c.logger.Debug("concurrent writer holds lock, skipping cache write", "address", addr)
		return nil
	}
	defer func() {
		// Release must survive caller cancellation.
		relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if delErr := c.client.Del(relCtx, lock).Err(); delErr != nil {
			c.logger.Warn("failed to release write lock", "address", addr, "error", delErr)
		}
	}()

	stamped := *stats
	stamped.CachedAt = time.Now().UTC()
	stamped.CacheVersion = entity.CacheVersion

	data, err := json.Marshal(&stamped)
	if err != nil {
		return fmt.Errorf("serializing user stats: %w", err)
	}
	if err := c.client.Set(ctx, c.userKey(addr), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: writing user cache: %v", outbound.ErrStoreUnavailable, err)
	}
	return nil
}

// GetSnapshot returns the cached leaderboard snapshot, or nil, nil when none
// is cached. A corrupted snapshot is purged and treated as a miss.
func (c *StatsCache) GetSnapshot(ctx context.Context) (*entity.LeaderboardSnapshot, error) {
	data, err := c.client.Get(ctx, c.snapshotKey()).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading snapshot cache: %v", outbound.ErrStoreUnavailable, err)
	}

	var snapshot entity.LeaderboardSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil || !snapshot.Success {
		c.deleteKey(ctx, c.snapshotKey())
		return nil, nil
	}
	return &snapshot, nil
}

// SetSnapshot caches a freshly computed snapshot under the snapshot TTL.
func (c *StatsCache) SetSnapshot(ctx context.Context, snapshot *entity.LeaderboardSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("serializing snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.snapshotKey(), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: writing snapshot cache: %v", outbound.ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteSnapshot invalidates the cached snapshot.
func (c *StatsCache) DeleteSnapshot(ctx context.Context) error {
	if err := c.client.Del(ctx, c.snapshotKey()).Err(); err != nil {
		return fmt.Errorf("%w: deleting snapshot cache: %v", outbound.ErrStoreUnavailable, err)
	}
	return nil
}

// ClearExpired walks every per-wallet key with a bounded cursor scan and
// deletes entries that fail integrity validation. Best-effort: a failure
// mid-scan aborts silently with the partial count.
func (c *StatsCache) ClearExpired(ctx context.Context) (int64, error) {
	var purged int64
	var cursor uint64
	match := fmt.Sprintf("%s:user:*", c.keyPrefix)

	for {
		keys, next, err := c.client.Scan(ctx, cursor, match, c.scanCount).Result()
		if err != nil {
			c.logger.Warn("cache scan aborted", "purged", purged, "error", err)
			return purged, nil
		}

		for _, key := range keys {
			data, err := c.client.Get(ctx, key).Bytes()
			if err == redis.Nil {
				continue
			}
			if err != nil {
				c.logger.Warn("cache scan aborted", "purged", purged, "error", err)
				return purged, nil
			}

			var probe cacheProbe
			if err := json.Unmarshal(data, &probe); err != nil || !probe.valid() {
				c.deleteKey(ctx, key)
				purged++
			}
		}

		cursor = next
		if cursor == 0 {
			return purged, nil
		}
	}
}

// Stats reports cache introspection data using the same bounded scan.
func (c *StatsCache) Stats(ctx context.Context) (outbound.CacheStats, error) {
	stats := outbound.CacheStats{
		Enabled: true,
		TTL:     c.ttl,
	}

	var cursor uint64
	match := fmt.Sprintf("%s:user:*", c.keyPrefix)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, match, c.scanCount).Result()
		if err != nil {
			return stats, fmt.Errorf("%w: scanning cache keys: %v", outbound.ErrStoreUnavailable, err)
		}
		stats.CachedUsers += int64(len(keys))
		cursor = next
		if cursor == 0 {
			break
		}
	}

	exists, err := c.client.Exists(ctx, c.snapshotKey()).Result()
	if err == nil {
		stats.SnapshotCached = exists > 0
	}

	stats.EstimatedHitRate = outbound.EstimateHitRate(stats.CachedUsers)

	// Keyspace counters are best-effort; a store without INFO support
	// just reports zeros.
	if info, err := c.client.Info(ctx, "stats").Result(); err == nil {
		stats.KeyspaceHits = parseInfoCounter(info, "keyspace_hits")
		stats.KeyspaceMisses = parseInfoCounter(info, "keyspace_misses")
		stats.HitRate = outbound.MeasuredHitRate(stats.KeyspaceHits, stats.KeyspaceMisses)
	} else {
		c.logger.Warn("failed to read server stats", "error", err)
	}

	return stats, nil
}

// parseInfoCounter pulls one integer field out of an INFO section body.
func parseInfoCounter(info, field string) int64 {
	for _, line := range strings.Split(info, "\n") {
		value, ok := strings.CutPrefix(strings.TrimSpace(line), field+":")
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

func (c *StatsCache) deleteKey(ctx context.Context, key string) {
	delCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.client.Del(delCtx, key).Err(); err != nil {
		c.logger.Warn("failed to delete corrupted cache entry", "key", key, "error", err)
	}
}
