package substitution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/testutil"
)

// inPlay returns set 1 in progress with the starters on court and l1 as
// the active libero.
func inPlay() match.State {
	s := match.NewState(testutil.MatchID, match.Home)
	s.SetStarted = true
	s.Rotation = testutil.Starters()
	s.LiberoID = "l1"
	s.LineupDeclared = true
	return s
}

func applied(s match.State, swaps ...[2]string) match.State {
	for _, sw := range swaps {
		s.ApplySubstitution(sw[0], sw[1])
	}
	return s
}

func TestValidate_Refusals(t *testing.T) {
	roster := testutil.Roster()

	notStarted := match.NewState(testutil.MatchID, match.Home)
	finished := inPlay()
	finished.IsSetFinished = true
	full := inPlay()
	full.Substitutions.Count = match.MaxSubstitutionsPerSet

	tests := []struct {
		name    string
		state   match.State
		out, in string
		code    Code
	}{
		{"set not started", notStarted, "p2", "b1", CodeNoSetInProgress},
		{"set finished", finished, "p2", "b1", CodeNoSetInProgress},
		{"same player", inPlay(), "p2", "p2", CodeSamePlayer},
		{"unknown out", inPlay(), "zz", "b1", CodeUnknownPlayer},
		{"unknown in", inPlay(), "p2", "zz", CodeUnknownPlayer},
		{"libero for field player", inPlay(), "p2", "l2", CodeRoleMismatch},
		{"field player for libero", inPlay(), "l1", "b1", CodeRoleMismatch},
		{"out on bench", inPlay(), "b1", "b2", CodeNotOnCourt},
		{"inactive libero out", inPlay(), "l2", "l1", CodeNotOnCourt},
		{"in already on court", inPlay(), "p2", "p3", CodeAlreadyOnCourt},
		{"set limit", full, "p2", "b1", CodeSetLimitReached},
		{"substitute swapped for a third player", applied(inPlay(), [2]string{"p2", "b1"}), "b1", "b2", CodeMustReturnPartner},
		{"starter brought back for someone else", applied(inPlay(), [2]string{"p2", "b1"}), "p3", "p2", CodeMustReturnPartner},
		{"pair used twice", applied(inPlay(), [2]string{"p2", "b1"}, [2]string{"b1", "p2"}), "p2", "b1", CodePairExhausted},
		{"exhausted starter to new sub", applied(inPlay(), [2]string{"p2", "b1"}, [2]string{"b1", "p2"}), "p2", "b3", CodePairExhausted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.state, roster, tt.out, tt.in)
			require.Error(t, err)
			assert.True(t, IsValidationError(err, tt.code), "got %v, want %s", err, tt.code)
		})
	}
}

func TestValidate_Allowed(t *testing.T) {
	roster := testutil.Roster()

	tests := []struct {
		name    string
		state   match.State
		out, in string
	}{
		{"bench for starter", inPlay(), "p2", "b1"},
		{"libero swap", inPlay(), "l1", "l2"},
		{"return of the pair", applied(inPlay(), [2]string{"p2", "b1"}), "b1", "p2"},
		{"other starter with remaining quota", applied(inPlay(), [2]string{"p2", "b1"}), "p3", "b2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, Validate(tt.state, roster, tt.out, tt.in))
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := Validate(inPlay(), testutil.Roster(), "p2", "p3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALREADY_ON_COURT")
	assert.Contains(t, err.Error(), "player=p3")

	assert.True(t, IsValidationError(err, ""))
	assert.False(t, IsValidationError(err, CodeSamePlayer))
	assert.False(t, IsValidationError(assert.AnError, ""))
}

func TestReturnable(t *testing.T) {
	s := applied(inPlay(), [2]string{"p2", "b1"})

	out, in, err := Returnable(s, "p2")
	require.NoError(t, err)
	assert.Equal(t, "b1", out)
	assert.Equal(t, "p2", in)

	out, in, err = Returnable(s, "b1")
	require.NoError(t, err)
	assert.Equal(t, "b1", out)
	assert.Equal(t, "p2", in)

	_, _, err = Returnable(s, "p3")
	assert.True(t, IsValidationError(err, CodeNotReturnable))

	closed := applied(s, [2]string{"b1", "p2"})
	_, _, err = Returnable(closed, "p2")
	assert.True(t, IsValidationError(err, CodeNotReturnable))
}
