package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/canonical"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/engine"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			auto := ""
			if event.Auto {
				auto = " (auto)"
			}
			fmt.Fprintf(&buf, "  [%d] %s%s %s\n", event.Seq, event.Type, auto, payloadString(event.Payload))
		}
	}
	return buf.String()
}

func payloadString(p match.Payload) string {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Sprintf("%v", p)
	}
	return string(data)
}

// autoMatches reports whether e passes the assertion's auto filter.
func autoMatches(e TraceEvent, auto *bool) bool {
	return auto == nil || e.Auto == *auto
}

// assertEventContains checks that the log contains an event of the given
// type whose payload contains the expected fields (subset match).
func assertEventContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Type != assertion.EventType || !autoMatches(event, assertion.Auto) {
			continue
		}
		if matchPayload(event.Payload, assertion.Payload) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertEventContains,
		Expected: fmt.Sprintf("event %s with payload %v", assertion.EventType, assertion.Payload),
		Actual:   "not found in log",
		Trace:    trace,
	}
}

// assertEventOrder checks that the first occurrences of the given types
// appear in order. Intervening events are allowed.
func assertEventOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		for _, want := range assertion.Types {
			if event.Type == want && positions[want] == 0 {
				positions[want] = i + 1 // 1-indexed for readability
			}
		}
	}

	for _, t := range assertion.Types {
		if positions[t] == 0 {
			return &AssertionError{
				Type:     AssertEventOrder,
				Expected: fmt.Sprintf("all types present: %v", assertion.Types),
				Actual:   fmt.Sprintf("missing type: %s", t),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Types); i++ {
		prev := assertion.Types[i-1]
		curr := assertion.Types[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertEventOrder,
				Expected: fmt.Sprintf("types in order: %v", assertion.Types),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertEventCount checks that the type appears exactly Count times.
func assertEventCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Type == assertion.EventType && autoMatches(event, assertion.Auto) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.EventType),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState checks the final state against expected values. Keys
// are dotted paths into the state's JSON form; values are compared by their
// canonical JSON encoding so YAML ints match JSON numbers.
func assertFinalState(state map[string]any, assertion Assertion) error {
	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, path := range keys {
		expected := assertion.Expect[path]
		actual, ok := lookupPath(state, path)
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", path),
				Actual:   "field not present in state",
			}
		}
		if !valuesEqual(actual, expected) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s = %v", path, expected),
				Actual:   fmt.Sprintf("%s = %v", path, actual),
			}
		}
	}
	return nil
}

// assertReplay replays the final log and checks it is deterministic,
// incrementally consistent and agrees with the session on the score.
func assertReplay(result *Result) error {
	replayed, err := engine.Replay(result.events, result.ourSide, result.initial)
	if err != nil {
		return &AssertionError{
			Type:     AssertReplay,
			Expected: "deterministic replay",
			Actual:   err.Error(),
			Trace:    result.Trace,
		}
	}

	got, want := replayed.State, result.final
	if got.CurrentSet != want.CurrentSet || got.HomeScore != want.HomeScore || got.AwayScore != want.AwayScore ||
		got.SetsWonHome != want.SetsWonHome || got.SetsWonAway != want.SetsWonAway {
		return &AssertionError{
			Type: AssertReplay,
			Expected: fmt.Sprintf("set %d %d-%d (sets %d-%d)",
				want.CurrentSet, want.HomeScore, want.AwayScore, want.SetsWonHome, want.SetsWonAway),
			Actual: fmt.Sprintf("set %d %d-%d (sets %d-%d)",
				got.CurrentSet, got.HomeScore, got.AwayScore, got.SetsWonHome, got.SetsWonAway),
			Trace: result.Trace,
		}
	}
	return nil
}

// assertPersisted checks the store holds exactly the session's log.
func assertPersisted(result *Result) error {
	if !reflect.DeepEqual(traceOf(result.stored), traceOf(result.events)) || len(result.stored) != len(result.events) {
		return &AssertionError{
			Type:     AssertPersisted,
			Expected: fmt.Sprintf("%d stored events equal to the session log", len(result.events)),
			Actual:   fmt.Sprintf("%d stored events", len(result.stored)),
			Trace:    result.Trace,
		}
	}
	return nil
}

// lookupPath walks a dotted path through nested JSON objects.
func lookupPath(m map[string]any, path string) (any, bool) {
	var cur any = m
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// matchPayload checks if the payload contains all expected fields (subset
// match). Extra fields in the payload are ignored.
func matchPayload(p match.Payload, expected map[string]any) bool {
	if len(expected) == 0 {
		return true
	}

	data, err := json.Marshal(p)
	if err != nil {
		return false
	}
	var actual map[string]any
	if err := json.Unmarshal(data, &actual); err != nil {
		return false
	}

	for key, expectedVal := range expected {
		actualVal, exists := actual[key]
		if !exists {
			return false
		}
		if !valuesEqual(actualVal, expectedVal) {
			return false
		}
	}
	return true
}

// valuesEqual compares two decoded values by canonical JSON encoding, which
// treats 3, int64(3) and float64(3) alike and ignores map ordering.
func valuesEqual(actual, expected any) bool {
	a, errA := canonical.MarshalValue(actual)
	b, errB := canonical.MarshalValue(expected)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(actual, expected)
	}
	return bytes.Equal(a, b)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertEventContains:
			err = assertEventContains(result.Trace, assertion)
		case AssertEventOrder:
			err = assertEventOrder(result.Trace, assertion)
		case AssertEventCount:
			err = assertEventCount(result.Trace, assertion)
		case AssertFinalState:
			err = assertFinalState(result.State, assertion)
		case AssertReplay:
			err = assertReplay(result)
		case AssertPersisted:
			err = assertPersisted(result)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
