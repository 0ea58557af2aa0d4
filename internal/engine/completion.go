package engine

import (
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
)

// pendingEvent is an event the completion evaluator wants appended.
type pendingEvent struct {
	Type    match.Type
	Payload match.Payload
}

// evaluateCompletion inspects a freshly folded state. If the set in play has
// been won it returns SET_END and, unless the match is decided or the last
// set was played, SET_START for the next set.
func evaluateCompletion(s match.State) []pendingEvent {
	if !s.InPlay() {
		return nil
	}
	winner, ok := match.SetWinner(s.CurrentSet, s.HomeScore, s.AwayScore)
	if !ok {
		return nil
	}

	out := []pendingEvent{{
		Type: match.TypeSetEnd,
		Payload: match.SetEnd{
			SetNumber: s.CurrentSet,
			Winner:    winner,
			HomeScore: s.HomeScore,
			AwayScore: s.AwayScore,
		},
	}}

	home, away := s.SetsWonHome, s.SetsWonAway
	if winner == match.Home {
		home++
	} else {
		away++
	}
	if _, done := match.MatchWinner(home, away); done || s.CurrentSet >= match.MaxSets {
		return out
	}
	return append(out, pendingEvent{
		Type:    match.TypeSetStart,
		Payload: match.SetStart{SetNumber: s.CurrentSet + 1},
	})
}
