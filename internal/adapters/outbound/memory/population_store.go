package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/avzcrypto/pharos-stats/internal/domain/entity"
	"github.com/avzcrypto/pharos-stats/internal/ports/outbound"
)

// Compile-time check that PopulationStore implements outbound.PopulationStore.
var _ outbound.PopulationStore = (*PopulationStore)(nil)

// PopulationStore is an in-memory implementation of the PopulationStore port.
type PopulationStore struct {
	mu          sync.Mutex
	scores      map[string]int64
	details     map[string]entity.UserStats
	totalChecks int64
}

// NewPopulationStore creates an empty in-memory population store.
func NewPopulationStore() *PopulationStore {
	return &PopulationStore{
		scores:  make(map[string]int64),
		details: make(map[string]entity.UserStats),
	}
}

// Seed inserts a bare (address, points) entry without a detail record.
func (s *PopulationStore) Seed(address string, points int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[strings.ToLower(address)] = points
}

// SaveUserStats merges fresh into the existing detail record and upserts the
// population score.
func (s *PopulationStore) SaveUserStats(ctx context.Context, fresh *entity.UserStats) (*entity.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr := strings.ToLower(fresh.Address)
	var existing *entity.UserStats
	if prev, ok := s.details[addr]; ok {
		existing = &prev
	}

	merged := entity.MergeForRefetch(existing, fresh)
	merged.Address = addr
	s.details[addr] = *merged
	s.scores[addr] = merged.TotalPoints
	s.totalChecks++

	result := *merged
	return &result, nil
}

// ExactRank returns 1 + the number of wallets with strictly more points.
func (s *PopulationStore) ExactRank(ctx context.Context, points int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var higher int64
	for _, score := range s.scores {
		if score > points {
			higher++
		}
	}
	return higher + 1, nil
}

// All returns the population ordered by descending score.
func (s *PopulationStore) All(ctx context.Context) ([]entity.PopulationEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]entity.PopulationEntry, 0, len(s.scores))
	for addr, score := range s.scores {
		entries = append(entries, entity.PopulationEntry{Address: addr, TotalPoints: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		return entries[i].Address < entries[j].Address
	})
	return entries, nil
}

// Detail returns the wallet's detail record, or nil, nil when absent.
func (s *PopulationStore) Detail(ctx context.Context, address string) (*entity.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, ok := s.details[strings.ToLower(address)]
	if !ok {
		return nil, nil
	}
	result := stats
	return &result, nil
}

// TotalUsers returns the population size.
func (s *PopulationStore) TotalUsers(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.scores)), nil
}

// TotalChecks returns the global check counter.
func (s *PopulationStore) TotalChecks(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalChecks, nil
}
