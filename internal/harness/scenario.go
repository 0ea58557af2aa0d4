package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
)

// Scenario is a scripted match: the operator actions to perform and what
// must hold afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// MatchID defaults to "scenario".
	MatchID string `yaml:"match_id,omitempty"`

	// OurSide is "home" (default) or "away".
	OurSide string `yaml:"our_side,omitempty"`

	// Roster is a roster file path, relative to the scenario file. When
	// empty the built-in twelve-player test roster is used.
	Roster string `yaml:"roster,omitempty"`

	// InitialOnCourt seeds the rotation used until a lineup is declared.
	InitialOnCourt []string `yaml:"initial_on_court,omitempty"`

	// Steps are executed in order against one session.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final log and state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one operator action. Exactly one action field must be set.
type Step struct {
	// Add appends an event of this type with Payload.
	Add     string         `yaml:"add,omitempty"`
	Payload map[string]any `yaml:"payload,omitempty"`
	// Repeat performs the add this many times (default 1).
	Repeat int `yaml:"repeat,omitempty"`

	Undo         bool `yaml:"undo,omitempty"`
	Redo         bool `yaml:"redo,omitempty"`
	CloseSummary bool `yaml:"close_summary,omitempty"`

	// Substitute commits a batch through the substitution planner.
	Substitute []SubStep `yaml:"substitute,omitempty"`

	// QuickReturn commits the return of this player's open pair.
	QuickReturn string `yaml:"quick_return,omitempty"`

	// Expect checks the outcome. Without it the step must be applied.
	Expect *StepExpect `yaml:"expect,omitempty"`
}

// SubStep is one planned substitution.
type SubStep struct {
	Out string `yaml:"out"`
	In  string `yaml:"in"`
}

// StepExpect is the expected outcome of a step.
type StepExpect struct {
	// Status is "applied", "rejected" or "error".
	Status string `yaml:"status"`
	// Reason is the rejection reason, checked if set.
	Reason string `yaml:"reason,omitempty"`
	// Code is the error code, checked if set. For substitution refusals the
	// validator code (e.g. PAIR_EXHAUSTED) also matches.
	Code string `yaml:"code,omitempty"`
}

// Action names the step's action for traces and messages.
func (s Step) Action() string {
	switch {
	case s.Add != "":
		return s.Add
	case s.Undo:
		return "undo"
	case s.Redo:
		return "redo"
	case s.CloseSummary:
		return "close_summary"
	case len(s.Substitute) > 0:
		return "substitute"
	case s.QuickReturn != "":
		return "quick_return"
	}
	return ""
}

func (s Step) actionCount() int {
	n := 0
	for _, set := range []bool{s.Add != "", s.Undo, s.Redo, s.CloseSummary, len(s.Substitute) > 0, s.QuickReturn != ""} {
		if set {
			n++
		}
	}
	return n
}

// Assertion validates the final log or state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// EventType is the event type (event_contains, event_count).
	EventType string `yaml:"event_type,omitempty"`

	// Payload is a subset of the expected payload (event_contains).
	Payload map[string]any `yaml:"payload,omitempty"`

	// Auto restricts matching to synthesized (true) or user (false) events.
	Auto *bool `yaml:"auto,omitempty"`

	// Count is the expected number of occurrences (event_count).
	Count int `yaml:"count,omitempty"`

	// Types is the expected order of first occurrences (event_order).
	Types []string `yaml:"types,omitempty"`

	// Expect maps state paths to values (final_state). Paths are JSON field
	// names joined by dots, e.g. "substitutions.count".
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertEventContains = "event_contains"
	AssertEventOrder    = "event_order"
	AssertEventCount    = "event_count"
	AssertFinalState    = "final_state"
	// AssertReplay checks that replaying the final log is deterministic and
	// incrementally consistent.
	AssertReplay = "replay"
	// AssertPersisted checks the stored log equals the session's log.
	AssertPersisted = "persisted"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative roster path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if scenario.Roster != "" && !filepath.IsAbs(scenario.Roster) {
		scenario.Roster = filepath.Join(filepath.Dir(path), scenario.Roster)
	}
	if scenario.Roster != "" {
		if _, err := os.Stat(scenario.Roster); err != nil {
			return nil, fmt.Errorf("invalid scenario: roster file not found: %s", scenario.Roster)
		}
	}
	return scenario, nil
}

// ParseScenario parses a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict fields catch typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.OurSide != "" {
		if _, err := match.ParseTeamSide(s.OurSide); err != nil {
			return fmt.Errorf("our_side: %w", err)
		}
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s Step) error {
	if n := s.actionCount(); n != 1 {
		return fmt.Errorf("steps[%d]: exactly one action is required, found %d", index, n)
	}
	if s.Add != "" {
		if _, err := match.ParseType(s.Add); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	} else if s.Payload != nil || s.Repeat != 0 {
		return fmt.Errorf("steps[%d]: payload and repeat only apply to add", index)
	}
	if s.Repeat < 0 {
		return fmt.Errorf("steps[%d]: repeat must be non-negative", index)
	}
	for j, sub := range s.Substitute {
		if sub.Out == "" || sub.In == "" {
			return fmt.Errorf("steps[%d].substitute[%d]: out and in are required", index, j)
		}
	}
	if s.Expect != nil {
		switch s.Expect.Status {
		case "applied", "rejected", StatusError:
		default:
			return fmt.Errorf("steps[%d].expect: status must be applied, rejected or error, got %q", index, s.Expect.Status)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertEventContains:
		if a.EventType == "" {
			return fmt.Errorf("assertions[%d]: event_type is required for event_contains", index)
		}
	case AssertEventOrder:
		if len(a.Types) == 0 {
			return fmt.Errorf("assertions[%d]: types list is required for event_order", index)
		}
	case AssertEventCount:
		if a.EventType == "" {
			return fmt.Errorf("assertions[%d]: event_type is required for event_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for event_count", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertReplay, AssertPersisted:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
