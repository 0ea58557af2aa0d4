package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/canonical"
)

// TraceSnapshot captures what a scenario did, in canonical JSON, for golden
// comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Steps        []StepResult `json:"steps"`
	Trace        []TraceEvent `json:"trace"`
	Score        Score        `json:"score"`
}

// Score is the headline of the final state.
type Score struct {
	Set             int  `json:"set"`
	Home            int  `json:"home"`
	Away            int  `json:"away"`
	SetsHome        int  `json:"sets_home"`
	SetsAway        int  `json:"sets_away"`
	IsMatchFinished bool `json:"is_match_finished"`
}

// Snapshot builds the golden snapshot of a result.
func Snapshot(name string, result *Result) TraceSnapshot {
	s := result.final
	return TraceSnapshot{
		ScenarioName: name,
		Steps:        result.Steps,
		Trace:        result.Trace,
		Score: Score{
			Set:             s.CurrentSet,
			Home:            s.HomeScore,
			Away:            s.AwayScore,
			SetsHome:        s.SetsWonHome,
			SetsAway:        s.SetsWonAway,
			IsMatchFinished: s.IsMatchFinished,
		},
	}
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := canonical.MarshalValue(Snapshot(scenarioName, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
