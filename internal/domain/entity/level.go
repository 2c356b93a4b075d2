package entity

// MaxLevel is the highest level a wallet can reach.
const MaxLevel = 6

// levelCeilings holds the inclusive upper point bound for levels 1..5.
// Anything above the last ceiling is level 6.
var levelCeilings = [...]int64{1000, 3500, 6000, 10000, 20000}

// nextLevelFloors maps a level to the minimum points needed to enter it.
var nextLevelFloors = map[int]int64{
	2: 1001,
	3: 3501,
	4: 6001,
	5: 10001,
	6: 20001,
}

// LevelForPoints maps a point total to a level in 1..6.
// Boundary values are inclusive on the lower tier (1000 points is level 1).
func LevelForPoints(points int64) int {
	for i, ceiling := range levelCeilings {
		if points <= ceiling {
			return i + 1
		}
	}
	return MaxLevel
}

// NextLevelFor returns the level after current, capped at MaxLevel.
func NextLevelFor(current int) int {
	if current >= MaxLevel {
		return MaxLevel
	}
	return current + 1
}

// PointsNeededFor returns how many points a wallet with the given total still
// needs to enter nextLevel. Zero when the threshold is already met or nextLevel
// has no floor (level 1).
func PointsNeededFor(points int64, nextLevel int) int64 {
	floor, ok := nextLevelFloors[nextLevel]
	if !ok {
		floor = nextLevelFloors[MaxLevel]
	}
	needed := floor - points
	if needed < 0 {
		return 0
	}
	return needed
}
