// Package leaderboard computes wallet ranks and the full leaderboard
// snapshot from the ordered population store.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avzcrypto/pharos-stats/internal/domain/entity"
	"github.com/avzcrypto/pharos-stats/internal/ports/outbound"
)

// ServiceConfig holds configuration for the leaderboard service.
type ServiceConfig struct {
	// TopN is how many entries the snapshot listing includes.
	// Defaults to entity.LeaderboardSize.
	TopN int

	// Logger is the structured logger for the service.
	Logger *slog.Logger

	// Metrics records snapshot rebuild timings.
	Metrics outbound.MetricsRecorder
}

// Service is the ranking engine. Snapshot computation has no mutual
// exclusion: concurrent recomputation is tolerated because it is idempotent
// and cheap relative to its TTL window, a deliberately looser guarantee than
// the per-wallet cache write lock.
type Service struct {
	population outbound.PopulationStore
	cache      outbound.StatsCache
	topN       int
	logger     *slog.Logger
	metrics    outbound.MetricsRecorder
}

// NewService creates a new leaderboard service.
func NewService(config ServiceConfig, population outbound.PopulationStore, cache outbound.StatsCache) (*Service, error) {
	if population == nil {
		return nil, fmt.Errorf("population store cannot be nil")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache cannot be nil")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = outbound.NoopMetrics{}
	}
	topN := config.TopN
	if topN <= 0 {
		topN = entity.LeaderboardSize
	}

	return &Service{
		population: population,
		cache:      cache,
		topN:       topN,
		logger:     logger.With("component", "leaderboard"),
		metrics:    metrics,
	}, nil
}

// ExactRank returns the exact rank for a point total: 1 + the number of
// wallets with strictly more points. Returns nil when the backing store is
// unavailable; a rank is never fabricated.
func (s *Service) ExactRank(ctx context.Context, points int64) *int64 {
	rank, err := s.population.ExactRank(ctx, points)
	if err != nil {
		s.logger.Warn("rank unavailable", "error", err)
		return nil
	}
	return &rank
}

// Snapshot returns the leaderboard snapshot. A cached snapshot is returned
// verbatim with the cached marker set; on a miss the snapshot is freshly
// computed and written back.
func (s *Service) Snapshot(ctx context.Context) (*entity.LeaderboardSnapshot, error) {
	cached, err := s.cache.GetSnapshot(ctx)
	if err != nil && !errors.Is(err, outbound.ErrStoreUnavailable) {
		return nil, err
	}
	if cached != nil {
		cached.Cached = true
		return cached, nil
	}
	return s.rebuild(ctx)
}

// Refresh deletes the cached snapshot and recomputes. Concurrent refreshes
// are not mutually exclusive.
func (s *Service) Refresh(ctx context.Context) (*entity.LeaderboardSnapshot, error) {
	if err := s.cache.DeleteSnapshot(ctx); err != nil {
		return nil, fmt.Errorf("invalidating snapshot: %w", err)
	}
	return s.rebuild(ctx)
}

// rebuild reads the entire population and materializes a fresh snapshot:
// the top-N listing enriched with per-wallet detail, and the level histogram
// over all entries regardless of the listing truncation.
func (s *Service) rebuild(ctx context.Context) (*entity.LeaderboardSnapshot, error) {
	start := time.Now()

	entries, err := s.population.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading population: %w", err)
	}

	snapshot := &entity.LeaderboardSnapshot{
		Success:     true,
		TotalUsers:  int64(len(entries)),
		Leaderboard: make([]entity.LeaderboardEntry, 0, min(s.topN, len(entries))),
		LastUpdated: time.Now().UTC(),
	}

	for i, entry := range entries {
		snapshot.LevelDistribution.Add(entry.TotalPoints)
		if i >= s.topN {
			continue
		}
		snapshot.Leaderboard = append(snapshot.Leaderboard, s.enrich(ctx, int64(i+1), entry))
	}

	if checks, err := s.population.TotalChecks(ctx); err == nil {
		snapshot.TotalChecks = checks
	}

	if err := s.cache.SetSnapshot(ctx, snapshot); err != nil {
		// The snapshot is still valid; the next read just recomputes.
		s.logger.Warn("failed to cache snapshot", "error", err)
	}

	s.metrics.RecordSnapshotRebuild(ctx, time.Since(start), snapshot.TotalUsers)
	s.logger.Info("leaderboard rebuilt",
		"totalUsers", snapshot.TotalUsers,
		"duration", time.Since(start),
	)
	return snapshot, nil
}

// enrich builds one listing row, falling back to defaults (level 1, zero
// checks) when the wallet's detail record is missing or unreadable. A
// per-entry failure never aborts the whole computation.
func (s *Service) enrich(ctx context.Context, rank int64, entry entity.PopulationEntry) entity.LeaderboardEntry {
	row := entity.LeaderboardEntry{
		Rank:         rank,
		Address:      entry.Address,
		TotalPoints:  entry.TotalPoints,
		CurrentLevel: 1,
	}

	detail, err := s.population.Detail(ctx, entry.Address)
	if err != nil || detail == nil {
		return row
	}

	row.CurrentLevel = detail.CurrentLevel
	row.MemberSince = detail.MemberSince
	row.FirstCheck = detail.FirstCheck
	row.LastCheck = detail.LastCheck
	row.TotalChecks = detail.TotalChecks
	return row
}
