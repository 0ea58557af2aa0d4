package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
)

func inPlay(set, home, away, setsHome, setsAway int) match.State {
	s := match.NewState("m", match.Home)
	s.CurrentSet = set
	s.SetStarted = true
	s.HomeScore = home
	s.AwayScore = away
	s.SetsWonHome = setsHome
	s.SetsWonAway = setsAway
	return s
}

func TestEvaluateCompletion_NoWinner(t *testing.T) {
	tests := []struct {
		name       string
		set        int
		home, away int
	}{
		{"below target", 1, 24, 20},
		{"deuce", 1, 25, 24},
		{"long deuce", 2, 30, 29},
		{"tie-break below target", 5, 14, 10},
		{"tie-break margin one", 5, 15, 14},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, evaluateCompletion(inPlay(tt.set, tt.home, tt.away, 0, 0)))
		})
	}
}

func TestEvaluateCompletion_SetWonStartsNextSet(t *testing.T) {
	got := evaluateCompletion(inPlay(1, 25, 23, 0, 0))

	require.Len(t, got, 2)
	assert.Equal(t, match.TypeSetEnd, got[0].Type)
	assert.Equal(t, match.SetEnd{SetNumber: 1, Winner: match.Home, HomeScore: 25, AwayScore: 23}, got[0].Payload)
	assert.Equal(t, match.TypeSetStart, got[1].Type)
	assert.Equal(t, match.SetStart{SetNumber: 2}, got[1].Payload)
}

func TestEvaluateCompletion_ExtendedSet(t *testing.T) {
	got := evaluateCompletion(inPlay(3, 26, 28, 1, 1))

	require.Len(t, got, 2)
	assert.Equal(t, match.SetEnd{SetNumber: 3, Winner: match.Away, HomeScore: 26, AwayScore: 28}, got[0].Payload)
}

func TestEvaluateCompletion_MatchWonNoNextSet(t *testing.T) {
	got := evaluateCompletion(inPlay(4, 25, 15, 2, 1))

	require.Len(t, got, 1)
	assert.Equal(t, match.TypeSetEnd, got[0].Type)
}

func TestEvaluateCompletion_TieBreak(t *testing.T) {
	got := evaluateCompletion(inPlay(5, 13, 15, 2, 2))

	require.Len(t, got, 1)
	assert.Equal(t, match.SetEnd{SetNumber: 5, Winner: match.Away, HomeScore: 13, AwayScore: 15}, got[0].Payload)
}

func TestEvaluateCompletion_NotInPlay(t *testing.T) {
	s := inPlay(1, 25, 10, 0, 0)
	s.IsSetFinished = true
	assert.Empty(t, evaluateCompletion(s))
}
