// Package application wires the outbound ports into the inbound use cases.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avzcrypto/pharos-stats/internal/domain/entity"
	"github.com/avzcrypto/pharos-stats/internal/ports/inbound"
	"github.com/avzcrypto/pharos-stats/internal/ports/outbound"
	"github.com/avzcrypto/pharos-stats/internal/services/leaderboard"
)

// Compile-time check that StatsService implements inbound.StatsService.
var _ inbound.StatsService = (*StatsService)(nil)

// DefaultTotalUsersFallback is reported as the population size when the
// shared store cannot answer.
const DefaultTotalUsersFallback = 270000

// ServiceConfig holds configuration for the stats service.
type ServiceConfig struct {
	// TotalUsersFallback is used when the population store is empty or
	// unreachable. Defaults to DefaultTotalUsersFallback.
	TotalUsersFallback int64

	// Logger is the structured logger for the service.
	Logger *slog.Logger
}

// StatsService orchestrates the check-wallet flow: cache lookup, upstream
// fetch, normalization, persistence and rank annotation. It stays correct
// (if slower and unranked) with no shared store at all: store failures
// degrade to cache misses and absent ranks, never to request failures.
type StatsService struct {
	cache      outbound.StatsCache
	population outbound.PopulationStore
	points     outbound.PointsClient
	ranks      *leaderboard.Service
	fallback   int64
	logger     *slog.Logger
}

// NewStatsService creates the stats orchestrator.
func NewStatsService(
	config ServiceConfig,
	cache outbound.StatsCache,
	population outbound.PopulationStore,
	points outbound.PointsClient,
	ranks *leaderboard.Service,
) (*StatsService, error) {
	if cache == nil {
		return nil, fmt.Errorf("cache cannot be nil")
	}
	if population == nil {
		return nil, fmt.Errorf("population store cannot be nil")
	}
	if points == nil {
		return nil, fmt.Errorf("points client cannot be nil")
	}
	if ranks == nil {
		return nil, fmt.Errorf("leaderboard service cannot be nil")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fallback := config.TotalUsersFallback
	if fallback <= 0 {
		fallback = DefaultTotalUsersFallback
	}

	return &StatsService{
		cache:      cache,
		population: population,
		points:     points,
		ranks:      ranks,
		fallback:   fallback,
		logger:     logger.With("component", "stats-service"),
	}, nil
}

// CheckWallet returns the wallet's stats record. The address is validated
// before any upstream or cache work; a cache hit short-circuits the fetch.
func (s *StatsService) CheckWallet(ctx context.Context, address string) (*entity.UserStats, error) {
	addr, err := entity.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	cached, err := s.cache.GetUserStats(ctx, addr)
	if err != nil {
		// Store trouble is a miss, not a failure; the fetch path below
		// still serves the request.
		s.logger.Warn("cache unavailable, fetching upstream", "address", addr, "error", err)
	}
	if cached != nil {
		return cached, nil
	}

	profile, tasks, err := s.points.FetchWallet(ctx, addr)
	if err != nil {
		return nil, err
	}

	stats, err := entity.Normalize(profile, tasks, addr, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	merged, err := s.population.SaveUserStats(ctx, stats)
	if err != nil {
		s.logger.Warn("population upsert failed, serving unranked", "address", addr, "error", err)
		merged = stats
	}

	merged.ExactRank = s.ranks.ExactRank(ctx, merged.TotalPoints)
	merged.TotalUsersCount = s.totalUsers(ctx)

	if err := s.cache.SetUserStats(ctx, addr, merged); err != nil {
		s.logger.Warn("cache write failed", "address", addr, "error", err)
	}
	return merged, nil
}

// totalUsers reads the population size, falling back to the configured
// constant when the store is empty or unreachable.
func (s *StatsService) totalUsers(ctx context.Context) int64 {
	count, err := s.population.TotalUsers(ctx)
	if err != nil || count == 0 {
		return s.fallback
	}
	return count
}

// Leaderboard returns the full leaderboard snapshot.
func (s *StatsService) Leaderboard(ctx context.Context) (*entity.LeaderboardSnapshot, error) {
	return s.ranks.Snapshot(ctx)
}

// RefreshLeaderboard invalidates the snapshot cache and recomputes.
func (s *StatsService) RefreshLeaderboard(ctx context.Context) (*entity.LeaderboardSnapshot, error) {
	return s.ranks.Refresh(ctx)
}

// CacheStats reports cache introspection data.
func (s *StatsService) CacheStats(ctx context.Context) (outbound.CacheStats, error) {
	return s.cache.Stats(ctx)
}

// ClearCache purges invalid cached wallet entries.
func (s *StatsService) ClearCache(ctx context.Context) (int64, error) {
	return s.cache.ClearExpired(ctx)
}

// Ping checks connectivity to the shared store.
func (s *StatsService) Ping(ctx context.Context) error {
	if err := s.cache.Ping(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", outbound.ErrStoreUnavailable, err)
	}
	return nil
}
