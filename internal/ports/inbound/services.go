// Package inbound contains the primary/inbound ports.
// These interfaces define the use cases that the application exposes.
package inbound

import (
	"context"

	"github.com/avzcrypto/pharos-stats/internal/domain/entity"
	"github.com/avzcrypto/pharos-stats/internal/ports/outbound"
)

// StatsService defines the primary use cases for the wallet stats domain.
// Inbound adapters (HTTP handlers, CLI) call these methods.
type StatsService interface {
	// CheckWallet returns the canonical stats record for a wallet, serving
	// from cache when possible and fetching, normalizing and persisting on a
	// miss. The address is validated before any upstream or cache work.
	CheckWallet(ctx context.Context, address string) (*entity.UserStats, error)

	// Leaderboard returns the full leaderboard snapshot, cached for the
	// snapshot TTL window.
	Leaderboard(ctx context.Context) (*entity.LeaderboardSnapshot, error)

	// RefreshLeaderboard invalidates the snapshot cache and recomputes.
	RefreshLeaderboard(ctx context.Context) (*entity.LeaderboardSnapshot, error)

	// CacheStats reports cache introspection data.
	CacheStats(ctx context.Context) (outbound.CacheStats, error)

	// ClearCache re-validates cached wallet entries and purges invalid ones,
	// returning how many were removed.
	ClearCache(ctx context.Context) (int64, error)

	// Ping checks connectivity to the shared store.
	Ping(ctx context.Context) error
}
