package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Regenerate with:
//
//	go test ./internal/harness -run TestRunWithGolden -update
func TestRunWithGolden_FirstRally(t *testing.T) {
	scenario := loadTestScenario(t, "first_rally")

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors=%v", result.Errors)
}

func TestSnapshot_Score(t *testing.T) {
	result, err := Run(loadTestScenario(t, "straight_sets"))
	require.NoError(t, err)

	snap := Snapshot("straight_sets", result)
	assert.Equal(t, "straight_sets", snap.ScenarioName)
	assert.Equal(t, Score{Set: 3, Home: 25, Away: 0, SetsHome: 3, SetsAway: 0, IsMatchFinished: true}, snap.Score)
	assert.Len(t, snap.Trace, len(result.Trace))
}
