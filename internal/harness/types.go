package harness

import (
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
)

// TraceEvent is one event of the final log as it appears in traces and
// golden files. Ids and timestamps are left out so traces only change when
// behavior does.
type TraceEvent struct {
	Seq     int64         `json:"seq"`
	Type    string        `json:"type"`
	Auto    bool          `json:"auto,omitempty"`
	Payload match.Payload `json:"payload"`
}

// StepResult records what one scenario step did.
type StepResult struct {
	Index  int    `json:"index"`
	Action string `json:"action"`
	// Status is "applied", "rejected" or "error".
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Step status values beyond the session's applied/rejected.
const StatusError = "error"

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every step met its expectation and every assertion held.
	Pass bool `json:"pass"`

	// Trace is the final event log in order.
	Trace []TraceEvent `json:"trace"`

	Steps []StepResult `json:"steps"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the final derived state decoded from its JSON form, used for
	// subset assertions.
	State map[string]any `json:"state,omitempty"`

	// StateHash is the canonical hash of the final state.
	StateHash string `json:"state_hash"`

	events  []match.Event
	final   match.State
	stored  []match.Event
	ourSide match.TeamSide
	initial []string
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Steps:  []StepResult{},
		Errors: []string{},
		State:  make(map[string]any),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Events returns the final event log.
func (r *Result) Events() []match.Event {
	return append([]match.Event(nil), r.events...)
}

// FinalState returns the final derived state.
func (r *Result) FinalState() match.State {
	return r.final.Clone()
}

func traceOf(events []match.Event) []TraceEvent {
	trace := make([]TraceEvent, len(events))
	for i, e := range events {
		trace[i] = TraceEvent{Seq: e.Seq, Type: string(e.Type), Auto: e.Auto, Payload: e.Payload}
	}
	return trace
}
