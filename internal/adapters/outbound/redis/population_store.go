package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/avzcrypto/pharos-stats/internal/domain/entity"
	"github.com/avzcrypto/pharos-stats/internal/ports/outbound"
)

// Compile-time check that PopulationStore implements outbound.PopulationStore.
var _ outbound.PopulationStore = (*PopulationStore)(nil)

// PopulationStore is a Redis implementation of the outbound.PopulationStore
// port. The population lives in a sorted set keyed by address with the point
// total as score; merged detail records live in a hash keyed by address.
type PopulationStore struct {
	client    *redis.Client
	keyPrefix string
	logger    *slog.Logger
}

// NewPopulationStore creates a new Redis population store on top of an open
// client.
func NewPopulationStore(client *redis.Client, cfg Config, logger *slog.Logger) (*PopulationStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	applyDefaults(&cfg)

	if logger == nil {
		logger = slog.Default()
	}

	return &PopulationStore{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		logger:    logger.With("component", "redis-population-store"),
	}, nil
}

func (s *PopulationStore) leaderboardKey() string {
	return fmt.Sprintf("%s:leaderboard", s.keyPrefix)
}

func (s *PopulationStore) usersKey() string {
	return fmt.Sprintf("%s:users", s.keyPrefix)
}

func (s *PopulationStore) totalChecksKey() string {
	return fmt.Sprintf("%s:total_checks", s.keyPrefix)
}

// SaveUserStats merges fresh into the wallet's existing detail record and
// persists the merged record, the population score and the global check
// counter in one pipeline. An upsert into the sorted set replaces the score,
// never duplicates the member, so the at-most-one-entry-per-address
// invariant holds without client-side coordination.
func (s *PopulationStore) SaveUserStats(ctx context.Context, fresh *entity.UserStats) (*entity.UserStats, error) {
	addr := strings.ToLower(fresh.Address)

	existing, err := s.Detail(ctx, addr)
	if err != nil {
		return nil, err
	}
	merged := entity.MergeForRefetch(existing, fresh)
	merged.Address = addr

	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("serializing user stats: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.usersKey(), addr, data)
	pipe.ZAdd(ctx, s.leaderboardKey(), redis.Z{Score: float64(merged.TotalPoints), Member: addr})
	pipe.Incr(ctx, s.totalChecksKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: persisting user stats: %v", outbound.ErrStoreUnavailable, err)
	}

	return merged, nil
}

// ExactRank returns 1 + the number of wallets with strictly more points.
func (s *PopulationStore) ExactRank(ctx context.Context, points int64) (int64, error) {
	higher, err := s.client.ZCount(ctx, s.leaderboardKey(), fmt.Sprintf("%d", points+1), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("%w: counting higher scores: %v", outbound.ErrStoreUnavailable, err)
	}
	return higher + 1, nil
}

// All returns the entire population ordered by descending score.
func (s *PopulationStore) All(ctx context.Context) ([]entity.PopulationEntry, error) {
	members, err := s.client.ZRevRangeWithScores(ctx, s.leaderboardKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: reading population: %v", outbound.ErrStoreUnavailable, err)
	}

	entries := make([]entity.PopulationEntry, 0, len(members))
	for _, member := range members {
		addr, ok := member.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, entity.PopulationEntry{
			Address:     addr,
			TotalPoints: int64(member.Score),
		})
	}
	return entries, nil
}

// Detail returns the wallet's merged detail record, or nil, nil when the
// record is absent or undecodable. An undecodable record is not an error:
// the next save simply rebuilds it from scratch.
func (s *PopulationStore) Detail(ctx context.Context, address string) (*entity.UserStats, error) {
	addr := strings.ToLower(address)
	data, err := s.client.HGet(ctx, s.usersKey(), addr).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading user detail: %v", outbound.ErrStoreUnavailable, err)
	}

	var stats entity.UserStats
	if err := json.Unmarshal(data, &stats); err != nil {
		s.logger.Warn("dropping undecodable detail record", "address", addr, "error", err)
		return nil, nil
	}
	return &stats, nil
}

// TotalUsers returns the population size.
func (s *PopulationStore) TotalUsers(ctx context.Context) (int64, error) {
	count, err := s.client.ZCard(ctx, s.leaderboardKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: counting population: %v", outbound.ErrStoreUnavailable, err)
	}
	return count, nil
}

// TotalChecks returns the global check counter.
func (s *PopulationStore) TotalChecks(ctx context.Context) (int64, error) {
	count, err := s.client.Get(ctx, s.totalChecksKey()).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: reading check counter: %v", outbound.ErrStoreUnavailable, err)
	}
	return count, nil
}
