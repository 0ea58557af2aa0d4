package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return scenario
}

func TestRun_Scenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "scenario should pass: errors=%v", result.Errors)
			assert.NotEmpty(t, result.Trace)
			assert.NotEmpty(t, result.StateHash)
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	scenario := loadTestScenario(t, "substitutions")

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.StateHash, second.StateHash)
	assert.Equal(t, first.Events(), second.Events())
}

func TestRun_StraightSetsState(t *testing.T) {
	result, err := Run(loadTestScenario(t, "straight_sets"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors=%v", result.Errors)

	final := result.FinalState()
	assert.True(t, final.IsMatchFinished)
	assert.Equal(t, 3, final.SetsWonHome)
	require.Len(t, final.SetScores, 3)

	last := result.Steps[len(result.Steps)-1]
	assert.Equal(t, "rejected", last.Status)
	assert.Equal(t, "match_finished", last.Reason)

	// ids come from the sequential generator
	events := result.Events()
	assert.Equal(t, "ev-0001", events[0].ID)
	assert.Equal(t, "scenario", events[0].MatchID)
}

func TestRun_StepExpectationMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "point before the set starts",
		Steps: []Step{
			{Add: string(match.TypePointUs)},
		},
		Assertions: []Assertion{{Type: AssertPersisted}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected applied, got rejected no_set_in_progress")
}

func TestRun_ErrorCodes(t *testing.T) {
	scenario := &Scenario{
		Name:           "codes",
		Description:    "refused substitution and bad payload",
		InitialOnCourt: []string{"p1", "p2", "p3", "p4", "p5", "p6"},
		Steps: []Step{
			{Add: string(match.TypeSetStart), Payload: map[string]any{"set_number": 1}},
			{
				Substitute: []SubStep{{Out: "p2", In: "p3"}},
				Expect:     &StepExpect{Status: StatusError, Code: "ALREADY_ON_COURT"},
			},
			{
				Add:     string(match.TypeReceptionEval),
				Payload: map[string]any{"value": 9},
				Expect:  &StepExpect{Status: StatusError, Code: "INVALID_PAYLOAD"},
			},
			{
				QuickReturn: "p2",
				Expect:      &StepExpect{Status: StatusError, Code: "NOT_RETURNABLE"},
			},
		},
		Assertions: []Assertion{
			{Type: AssertFinalState, Expect: map[string]any{"rotation": []any{"p1", "p2", "p3", "p4", "p5", "p6"}}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors=%v", result.Errors)
	assert.Equal(t, "ALREADY_ON_COURT", result.Steps[1].Code)
	assert.NotEmpty(t, result.Steps[1].Error)
}

func TestRun_FailingAssertion(t *testing.T) {
	scenario := &Scenario{
		Name:        "failing",
		Description: "wrong expected score",
		Steps: []Step{
			{Add: string(match.TypeSetStart)},
			{Add: string(match.TypePointUs), Repeat: 2},
		},
		Assertions: []Assertion{
			{Type: AssertFinalState, Expect: map[string]any{"home_score": 3}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "home_score = 3")
	assert.Contains(t, result.Errors[0], "home_score = 2")
}

func TestRun_RosterFile(t *testing.T) {
	dir := t.TempDir()
	rosterPath := filepath.Join(dir, "team.yaml")
	require.NoError(t, os.WriteFile(rosterPath, []byte(`
team: Small
players:
  - {id: a1, number: 1, name: Ana, role: S}
  - {id: a2, number: 2, name: Bea, role: OH}
  - {id: a3, number: 3, name: Cris, role: MB}
  - {id: a4, number: 4, name: Dora, role: OPP}
  - {id: a5, number: 5, name: Elsa, role: OH}
  - {id: a6, number: 6, name: Fina, role: MB}
  - {id: a7, number: 7, name: Gina, role: OH}
`), 0644))

	scenario := &Scenario{
		Name:           "roster_file",
		Description:    "substitution validated against a custom roster",
		Roster:         rosterPath,
		InitialOnCourt: []string{"a1", "a2", "a3", "a4", "a5", "a6"},
		Steps: []Step{
			{Add: string(match.TypeSetStart)},
			{Substitute: []SubStep{{Out: "a2", In: "a7"}}},
			{
				Substitute: []SubStep{{Out: "a3", In: "b1"}},
				Expect:     &StepExpect{Status: StatusError, Code: "UNKNOWN_PLAYER"},
			},
		},
		Assertions: []Assertion{
			{Type: AssertFinalState, Expect: map[string]any{"rotation": []any{"a1", "a7", "a3", "a4", "a5", "a6"}}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors=%v", result.Errors)
}

func TestCheckStep(t *testing.T) {
	tests := []struct {
		name    string
		step    Step
		result  StepResult
		wantErr string
	}{
		{
			name:   "applied by default",
			step:   Step{Undo: true},
			result: StepResult{Action: "undo", Status: "applied"},
		},
		{
			name:    "wrong status",
			step:    Step{Undo: true},
			result:  StepResult{Action: "undo", Status: "rejected", Reason: "nothing_to_undo"},
			wantErr: "expected applied, got rejected nothing_to_undo",
		},
		{
			name:    "wrong reason",
			step:    Step{Undo: true, Expect: &StepExpect{Status: "rejected", Reason: "nothing_to_redo"}},
			result:  StepResult{Action: "undo", Status: "rejected", Reason: "nothing_to_undo"},
			wantErr: "expected reason nothing_to_redo",
		},
		{
			name:   "invalid substitution alias",
			step:   Step{QuickReturn: "p2", Expect: &StepExpect{Status: StatusError, Code: "INVALID_SUBSTITUTION"}},
			result: StepResult{Action: "quick_return", Status: StatusError, Code: "NOT_RETURNABLE"},
		},
		{
			name:    "alias only for substitutions",
			step:    Step{Add: "POINT_US", Expect: &StepExpect{Status: StatusError, Code: "INVALID_SUBSTITUTION"}},
			result:  StepResult{Action: "POINT_US", Status: StatusError, Code: "INVALID_PAYLOAD"},
			wantErr: "expected code INVALID_SUBSTITUTION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := checkStep(tt.step, tt.result)
			if tt.wantErr == "" {
				assert.Empty(t, msg)
				return
			}
			assert.Contains(t, msg, tt.wantErr)
		})
	}
}
