package match

// Match format constants (indoor rally-point scoring).
const (
	CourtPositions         = 6
	SetsToWin              = 3
	MaxSets                = 5
	TieBreakSet            = 5
	PointsPerSet           = 25
	PointsTieBreak         = 15
	WinningMargin          = 2
	MaxSubstitutionsPerSet = 6
	MaxPairUses            = 2
)

// PointsToWin returns the minimum winning score for a set.
func PointsToWin(set int) int {
	if set == TieBreakSet {
		return PointsTieBreak
	}
	return PointsPerSet
}

// SetWinner reports which side, if any, has won a set at the given score.
// A set is won at PointsToWin with a margin of at least WinningMargin.
func SetWinner(set, home, away int) (TeamSide, bool) {
	target := PointsToWin(set)
	switch {
	case home >= target && home-away >= WinningMargin:
		return Home, true
	case away >= target && away-home >= WinningMargin:
		return Away, true
	}
	return "", false
}

// MatchWinner reports which side, if any, has won the match.
func MatchWinner(setsWonHome, setsWonAway int) (TeamSide, bool) {
	switch {
	case setsWonHome >= SetsToWin:
		return Home, true
	case setsWonAway >= SetsToWin:
		return Away, true
	}
	return "", false
}
