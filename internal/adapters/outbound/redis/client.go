// Package redis provides Redis implementations of the StatsCache and
// PopulationStore ports.
//
// A single shared client backs both adapters. Key layout under the
// configurable prefix (default "pharos"):
//
//	<prefix>:user:<addr>        per-wallet cached stats, TTL-bound
//	<prefix>:lock:<addr>        ephemeral per-wallet write lock
//	<prefix>:leaderboard        sorted set of (address, points)
//	<prefix>:leaderboard:hourly cached leaderboard snapshot, TTL-bound
//	<prefix>:users              hash of merged per-wallet detail records
//	<prefix>:total_checks       global check counter
package redis

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis configuration shared by both adapters.
type Config struct {
	// URL is a redis:// connection URL. Takes precedence over Addr.
	URL string
	// Addr is the Redis server address (e.g., "localhost:6379").
	Addr string
	// Password for Redis authentication (empty for no auth).
	Password string
	// DB is the Redis database number (0-15).
	DB int
	// TTL is how long cached wallet records and snapshots live.
	TTL time.Duration
	// LockTTL bounds the per-wallet write lock so a crashed writer cannot
	// leave a wallet locked forever.
	LockTTL time.Duration
	// KeyPrefix is prepended to all keys.
	KeyPrefix string
	// ScanCount is the batch size for cursor-based key scans. The keyspace
	// can be large, so unbounded listings are never issued.
	ScanCount int64
}

// ConfigDefaults returns sensible defaults for Redis configuration.
func ConfigDefaults() Config {
	return Config{
		Addr:      "localhost:6379",
		TTL:       1 * time.Hour,
		LockTTL:   30 * time.Second,
		KeyPrefix: "pharos",
		ScanCount: 100,
	}
}

func applyDefaults(cfg *Config) {
	defaults := ConfigDefaults()
	if cfg.Addr == "" {
		cfg.Addr = defaults.Addr
	}
	if cfg.TTL == 0 {
		cfg.TTL = defaults.TTL
	}
	if cfg.LockTTL == 0 {
		cfg.LockTTL = defaults.LockTTL
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaults.KeyPrefix
	}
	if cfg.ScanCount == 0 {
		cfg.ScanCount = defaults.ScanCount
	}
}

// Open creates a Redis client from the config. The caller owns the client
// and passes it to NewStatsCache and NewPopulationStore.
func Open(cfg Config) (*redis.Client, error) {
	if cfg.URL != "" {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), nil
}
