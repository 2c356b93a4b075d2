package entity

import "time"

// LeaderboardSize is how many top entries a snapshot lists. The level
// histogram is computed over the whole population regardless of this cap.
const LeaderboardSize = 100

// LeaderboardEntry is one row of the top-N listing, enriched with fields
// from the wallet's detail record when it exists.
type LeaderboardEntry struct {
	Rank         int64     `json:"rank"`
	Address      string    `json:"address"`
	TotalPoints  int64     `json:"total_points"`
	CurrentLevel int       `json:"current_level"`
	MemberSince  string    `json:"member_since,omitempty"`
	FirstCheck   time.Time `json:"first_check,omitzero"`
	LastCheck    time.Time `json:"last_check,omitzero"`
	TotalChecks  int64     `json:"total_checks"`
}

// LevelDistribution is a histogram of the whole population over the six
// level buckets.
type LevelDistribution struct {
	Level1 int64 `json:"level-1"`
	Level2 int64 `json:"level-2"`
	Level3 int64 `json:"level-3"`
	Level4 int64 `json:"level-4"`
	Level5 int64 `json:"level-5"`
	Level6 int64 `json:"level-6"`
}

// Add counts one wallet with the given point total into its bucket.
func (d *LevelDistribution) Add(points int64) {
	switch LevelForPoints(points) {
	case 1:
		d.Level1++
	case 2:
		d.Level2++
	case 3:
		d.Level3++
	case 4:
		d.Level4++
	case 5:
		d.Level5++
	case 6:
		d.Level6++
	}
}

// LeaderboardSnapshot is a point-in-time materialization of the full
// leaderboard. It is fully reconstructible from the population store and the
// per-wallet detail records; an empty population yields a well-formed
// zero-valued snapshot.
type LeaderboardSnapshot struct {
	Success           bool               `json:"success"`
	TotalUsers        int64              `json:"total_users"`
	TotalChecks       int64              `json:"total_checks"`
	Leaderboard       []LeaderboardEntry `json:"leaderboard"`
	LevelDistribution LevelDistribution  `json:"level_distribution"`
	LastUpdated       time.Time          `json:"last_updated"`

	// Cached marks snapshots served verbatim from the snapshot cache.
	Cached bool `json:"cached"`
}
