package ledger

import "math"

const (
	// XPLevelCoef scales the level curve: xpForLevel(L) = (L-1)^2 * XPLevelCoef.
	XPLevelCoef = 100
)

// XPForLevel returns the total XP threshold required to be at the given level.
// Level 1 (and anything below) requires 0 XP.
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	n := level - 1
	return n * n * XPLevelCoef
}

// LevelForXP returns the largest level L such that xp >= XPForLevel(L),
// i.e. floor(sqrt(xp/100)) + 1.
func LevelForXP(xp int) int {
	if xp <= 0 {
		return 1
	}
	l := int(math.Sqrt(float64(xp)/XPLevelCoef)) + 1
	// Guard against floating point drift at exact squares.
	for XPForLevel(l) > xp {
		l--
	}
	for XPForLevel(l+1) <= xp {
		l++
	}
	return l
}

// LevelProgress returns how far xp is into its current level and the width of
// that level band.
func LevelProgress(xp int) (into int, span int) {
	lvl := LevelForXP(xp)
	cur := XPForLevel(lvl)
	next := XPForLevel(lvl + 1)
	return xp - cur, next - cur
}
