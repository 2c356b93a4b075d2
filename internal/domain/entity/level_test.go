package entity

import "testing"

func TestLevelForPoints_Boundaries(t *testing.T) {
	tests := []struct {
		points int64
		want   int
	}{
		{0, 1},
		{1000, 1},
		{1001, 2},
		{3500, 2},
		{3501, 3},
		{6000, 3},
		{6001, 4},
		{10000, 4},
		{10001, 5},
		{20000, 5},
		{20001, 6},
		{1000000, 6},
	}

	for _, tt := range tests {
		if got := LevelForPoints(tt.points); got != tt.want {
			t.Errorf("LevelForPoints(%d) = %d, want %d", tt.points, got, tt.want)
		}
	}
}

func TestNextLevelFor_CapsAtMax(t *testing.T) {
	if got := NextLevelFor(1); got != 2 {
		t.Errorf("NextLevelFor(1) = %d, want 2", got)
	}
	if got := NextLevelFor(6); got != 6 {
		t.Errorf("NextLevelFor(6) = %d, want 6", got)
	}
}

func TestPointsNeededFor(t *testing.T) {
	tests := []struct {
		points    int64
		nextLevel int
		want      int64
	}{
		{0, 2, 1001},
		{1500, 3, 2001},
		{3500, 3, 1},
		{25000, 6, 0},
		{20001, 6, 0},
	}

	for _, tt := range tests {
		if got := PointsNeededFor(tt.points, tt.nextLevel); got != tt.want {
			t.Errorf("PointsNeededFor(%d, %d) = %d, want %d", tt.points, tt.nextLevel, got, tt.want)
		}
	}
}
