package entity

import (
	"fmt"
	"strings"
	"time"
)

// ErrBadPayload is returned when an upstream response is structurally
// invalid and no stats record can be derived from it. Individually malformed
// fields never trigger it; they default to safe zero values instead.
var ErrBadPayload = fmt.Errorf("malformed upstream payload")

// UserProfile is the profile half of an upstream fetch, stripped of
// wire-format noise by the fetching adapter.
type UserProfile struct {
	TotalPoints float64
	MemberSince string
}

// Normalize maps a raw profile and task list to a canonical UserStats record.
// It is pure and deterministic for a fixed now: identical inputs yield
// identical outputs except for the timestamp fields derived from now.
//
// A nil profile is the one structurally-invalid input that fails fast;
// every other defect (negative points, unknown task IDs, negative counts)
// degrades to a safe zero rather than an error.
func Normalize(profile *UserProfile, tasks []TaskCompletion, address string, now time.Time) (*UserStats, error) {
	if profile == nil {
		return nil, fmt.Errorf("%w: missing profile data", ErrBadPayload)
	}

	points := int64(profile.TotalPoints)
	if points < 0 {
		points = 0
	}

	level := LevelForPoints(points)
	next := NextLevelFor(level)

	stats := &UserStats{
		Success:      true,
		Address:      strings.ToLower(strings.TrimSpace(address)),
		TotalPoints:  points,
		CurrentLevel: level,
		NextLevel:    next,
		PointsNeeded: PointsNeededFor(points, next),
		MemberSince:  profile.MemberSince,
		FirstCheck:   now,
		LastCheck:    now,
		TotalChecks:  1,
	}

	for _, task := range tasks {
		stats.TaskCounters.apply(task.TaskID, task.Count)
	}

	return stats, nil
}
