package outbound

import (
	"context"

	"github.com/avzcrypto/pharos-stats/internal/domain/entity"
)

// PopulationStore is the ordered-by-score population of all known wallets
// plus the per-wallet detail records. It is the source of truth for ranking.
//
// All mutation goes through SaveUserStats, which merges rather than
// read-modify-writes on the caller side, so a partial write cannot leave the
// population inconsistent with itself.
type PopulationStore interface {
	// SaveUserStats merges fresh into the wallet's existing detail record
	// (sticky first_check / member_since, incremented total_checks), then
	// persists the merged record, the population score, and the global check
	// counter atomically. Returns the merged record.
	SaveUserStats(ctx context.Context, fresh *entity.UserStats) (*entity.UserStats, error)

	// ExactRank returns 1 + the number of wallets with strictly more points.
	// Ties share no special handling.
	ExactRank(ctx context.Context, points int64) (int64, error)

	// All returns the entire population ordered by descending score.
	All(ctx context.Context) ([]entity.PopulationEntry, error)

	// Detail returns the wallet's merged detail record, or nil, nil when no
	// record (or only an undecodable one) exists.
	Detail(ctx context.Context, address string) (*entity.UserStats, error)

	// TotalUsers returns the population size.
	TotalUsers(ctx context.Context) (int64, error)

	// TotalChecks returns the global check counter.
	TotalChecks(ctx context.Context) (int64, error)
}
