package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, t.TempDir(), `
name: test_scenario
description: "Test scenario for validation"
our_side: away
steps:
  - add: SET_START
    payload:
      set_number: 1
  - add: POINT_US
    repeat: 3
  - undo: true
assertions:
  - type: event_count
    event_type: POINT_US
    count: 2
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "away", scenario.OurSide)
	require.Len(t, scenario.Steps, 3)
	assert.Equal(t, "SET_START", scenario.Steps[0].Action())
	assert.Equal(t, 1, scenario.Steps[0].Payload["set_number"])
	assert.Equal(t, 3, scenario.Steps[1].Repeat)
	assert.Equal(t, "undo", scenario.Steps[2].Action())
	require.Len(t, scenario.Assertions, 1)
	assert.Equal(t, 2, scenario.Assertions[0].Count)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_RosterRelativeToFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "team.yaml"), []byte("players: []\n"), 0644))
	path := writeScenario(t, dir, `
name: with_roster
description: d
roster: team.yaml
steps:
  - undo: true
    expect: {status: rejected}
assertions:
  - type: persisted
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "team.yaml"), scenario.Roster)
}

func TestLoadScenario_MissingRoster(t *testing.T) {
	path := writeScenario(t, t.TempDir(), `
name: with_roster
description: d
roster: nowhere.yaml
steps:
  - undo: true
assertions:
  - type: persisted
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "roster file not found")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: d
steps:
  - undo: true
assertion:
  - type: persisted
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
description: d
steps: [{undo: true}]
assertions: [{type: persisted}]
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			content: `
name: n
steps: [{undo: true}]
assertions: [{type: persisted}]
`,
			wantErr: "description is required",
		},
		{
			name: "bad side",
			content: `
name: n
description: d
our_side: left
steps: [{undo: true}]
assertions: [{type: persisted}]
`,
			wantErr: "our_side",
		},
		{
			name: "no steps",
			content: `
name: n
description: d
assertions: [{type: persisted}]
`,
			wantErr: "steps list is required",
		},
		{
			name: "no assertions",
			content: `
name: n
description: d
steps: [{undo: true}]
`,
			wantErr: "assertions list is required",
		},
		{
			name: "two actions",
			content: `
name: n
description: d
steps: [{undo: true, redo: true}]
assertions: [{type: persisted}]
`,
			wantErr: "exactly one action is required, found 2",
		},
		{
			name: "no action",
			content: `
name: n
description: d
steps: [{expect: {status: applied}}]
assertions: [{type: persisted}]
`,
			wantErr: "exactly one action is required, found 0",
		},
		{
			name: "unknown event type",
			content: `
name: n
description: d
steps: [{add: POINT_THEM}]
assertions: [{type: persisted}]
`,
			wantErr: "steps[0]",
		},
		{
			name: "payload without add",
			content: `
name: n
description: d
steps: [{undo: true, payload: {set_number: 1}}]
assertions: [{type: persisted}]
`,
			wantErr: "payload and repeat only apply to add",
		},
		{
			name: "negative repeat",
			content: `
name: n
description: d
steps: [{add: POINT_US, repeat: -1}]
assertions: [{type: persisted}]
`,
			wantErr: "repeat must be non-negative",
		},
		{
			name: "incomplete substitution",
			content: `
name: n
description: d
steps: [{substitute: [{out: p2}]}]
assertions: [{type: persisted}]
`,
			wantErr: "steps[0].substitute[0]: out and in are required",
		},
		{
			name: "bad expected status",
			content: `
name: n
description: d
steps: [{undo: true, expect: {status: ok}}]
assertions: [{type: persisted}]
`,
			wantErr: "status must be applied, rejected or error",
		},
		{
			name: "unknown assertion",
			content: `
name: n
description: d
steps: [{undo: true}]
assertions: [{type: trace_contains}]
`,
			wantErr: "unknown assertion type",
		},
		{
			name: "event_count without event type",
			content: `
name: n
description: d
steps: [{undo: true}]
assertions: [{type: event_count, count: 1}]
`,
			wantErr: "event_type is required for event_count",
		},
		{
			name: "event_order without types",
			content: `
name: n
description: d
steps: [{undo: true}]
assertions: [{type: event_order}]
`,
			wantErr: "types list is required",
		},
		{
			name: "final_state without expect",
			content: `
name: n
description: d
steps: [{undo: true}]
assertions: [{type: final_state}]
`,
			wantErr: "expect is required for final_state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStep_Action(t *testing.T) {
	assert.Equal(t, "POINT_US", Step{Add: "POINT_US"}.Action())
	assert.Equal(t, "redo", Step{Redo: true}.Action())
	assert.Equal(t, "close_summary", Step{CloseSummary: true}.Action())
	assert.Equal(t, "substitute", Step{Substitute: []SubStep{{Out: "p2", In: "b1"}}}.Action())
	assert.Equal(t, "quick_return", Step{QuickReturn: "p2"}.Action())
	assert.Equal(t, "", Step{}.Action())
}
