package entity

import "time"

// CacheVersion stamps serialized UserStats records so incompatible cache
// formats can be detected and purged.
const CacheVersion = "4.0"

// UserStats is the canonical per-wallet stats record. It is created on the
// first successful fetch for a wallet and merged on every re-fetch; the JSON
// layout doubles as both the cache format and the API response body.
type UserStats struct {
	Success      bool   `json:"success"`
	Address      string `json:"address"`
	TotalPoints  int64  `json:"total_points"`
	ExactRank    *int64 `json:"exact_rank,omitempty"`
	CurrentLevel int    `json:"current_level"`
	NextLevel    int    `json:"next_level"`
	PointsNeeded int64  `json:"points_needed"`

	TaskCounters

	// MemberSince comes from the upstream profile and is sticky: once set it
	// is never overwritten, even if a later fetch returns it empty.
	MemberSince string `json:"member_since,omitempty"`

	TotalUsersCount int64 `json:"total_users_count,omitempty"`

	// Audit trail. TotalChecks is monotonically non-decreasing across merges.
	FirstCheck  time.Time `json:"first_check,omitzero"`
	LastCheck   time.Time `json:"last_check,omitzero"`
	TotalChecks int64     `json:"total_checks"`

	// Cache metadata, stamped on write by the cache adapter.
	CachedAt     time.Time `json:"cached_at,omitzero"`
	CacheVersion string    `json:"cache_version,omitempty"`
}

// MergeForRefetch combines an existing record with a freshly fetched one.
// Field rules are explicit rather than generic shallow-merge semantics:
//   - everything derived from the fresh upstream response overwrites
//   - FirstCheck is sticky (kept from existing once set)
//   - MemberSince is sticky (kept from existing once set)
//   - TotalChecks increments by one per successful re-fetch
//
// A nil existing record means this is the wallet's first fetch and fresh is
// returned with TotalChecks forced to 1.
func MergeForRefetch(existing, fresh *UserStats) *UserStats {
	merged := *fresh
	merged.TotalChecks = 1
	if existing == nil {
		return &merged
	}
	merged.TotalChecks = existing.TotalChecks + 1
	if !existing.FirstCheck.IsZero() {
		merged.FirstCheck = existing.FirstCheck
	}
	if existing.MemberSince != "" {
		merged.MemberSince = existing.MemberSince
	}
	return &merged
}

// PopulationEntry is an (address, points) pair from the ordered population
// store. At most one entry exists per address.
type PopulationEntry struct {
	Address     string
	TotalPoints int64
}
