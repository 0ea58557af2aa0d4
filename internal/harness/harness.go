package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/canonical"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/engine"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/outbox"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/roster"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/store"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/substitution"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/testutil"
)

// DefaultMatchID is the match id used when a scenario does not set one.
const DefaultMatchID = "scenario"

// Harness is the test execution engine.
// It runs scenarios with a deterministic clock and sequential event ids, so
// the same scenario always produces the same log.
type Harness struct {
	session *engine.Session
	queue   *outbox.Queue
	worker  *outbox.Worker
	store   *store.Store
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against a fresh session persisting through the outbox
// into an in-memory database, so the stored log can be checked too.
//
// Execution flow:
// 1. Create fresh in-memory database and session
// 2. Execute steps, checking each against its expect clause
// 3. Drain the outbox and read the stored log back
// 4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()
	st.SetNow(testutil.NewDeterministicClock().Now)

	players := testutil.Roster()
	if scenario.Roster != "" {
		f, err := roster.LoadFile(scenario.Roster)
		if err != nil {
			return nil, err
		}
		players = f.Roster()
	}

	ourSide := match.Home
	if scenario.OurSide != "" {
		if ourSide, err = match.ParseTeamSide(scenario.OurSide); err != nil {
			return nil, err
		}
	}
	matchID := scenario.MatchID
	if matchID == "" {
		matchID = DefaultMatchID
	}

	q := outbox.NewQueue()
	h := &Harness{
		queue:  q,
		worker: outbox.NewWorker(q, st, outbox.Options{MaxTries: 1}),
		store:  st,
		session: engine.NewSession(
			engine.WithIDGenerator(testutil.NewSequentialIDs("ev")),
			engine.WithNow(testutil.NewDeterministicClock().Now),
			engine.WithPersister(q),
			engine.WithRoster(players),
		),
	}
	h.session.LoadMatch(matchID, nil, ourSide, engine.TeamNames{Home: "Home", Away: "Away"})
	if len(scenario.InitialOnCourt) > 0 {
		h.session.SetInitialOnCourtPlayers(scenario.InitialOnCourt)
	}

	result := NewResult()
	result.ourSide = ourSide
	result.initial = scenario.InitialOnCourt

	for i, step := range scenario.Steps {
		sr, err := h.executeStep(i, step)
		if err != nil {
			return nil, fmt.Errorf("failed to execute step %d: %w", i, err)
		}
		result.Steps = append(result.Steps, sr)
		if msg := checkStep(step, sr); msg != "" {
			result.AddError(msg)
		}
	}

	ctx := context.Background()
	if err := h.worker.Drain(ctx); err != nil {
		return nil, fmt.Errorf("failed to drain outbox: %w", err)
	}
	if err := h.collect(ctx, result); err != nil {
		return nil, err
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

// executeStep performs one step. Session errors become an error status;
// the returned error is reserved for malformed steps.
func (h *Harness) executeStep(index int, step Step) (StepResult, error) {
	sr := StepResult{Index: index, Action: step.Action()}

	var (
		out engine.Outcome
		err error
	)
	switch {
	case step.Add != "":
		t := match.Type(step.Add)
		raw, mErr := json.Marshal(step.Payload)
		if mErr != nil {
			return sr, fmt.Errorf("encode payload: %w", mErr)
		}
		p, dErr := match.DecodePayload(t, raw)
		if dErr != nil {
			return sr, dErr
		}
		for n := max(step.Repeat, 1); n > 0; n-- {
			out, err = h.session.AddEvent(t, p)
			if err != nil || !out.Applied() {
				break
			}
		}
	case step.Undo:
		out = h.session.UndoEvent()
	case step.Redo:
		out = h.session.RedoEvent()
	case step.CloseSummary:
		h.session.CloseSetSummaryModal()
		out = engine.Outcome{Status: engine.StatusApplied, State: h.session.State()}
	case len(step.Substitute) > 0:
		out, err = h.substitute(step.Substitute)
	case step.QuickReturn != "":
		out, err = h.session.QuickReturn(step.QuickReturn)
	}

	if err != nil {
		sr.Status = StatusError
		sr.Error = err.Error()
		sr.Code = errorCode(err)
		slog.Debug("scenario step failed", "step", index, "action", sr.Action, "error", err)
		return sr, nil
	}
	sr.Status = string(out.Status)
	sr.Reason = string(out.Reason)
	slog.Debug("scenario step", "step", index, "action", sr.Action, "status", sr.Status, "reason", sr.Reason)
	return sr, nil
}

// substitute stages subs in a planner the way an operator would and
// commits the batch. Planner refusals are returned as errors.
func (h *Harness) substitute(subs []SubStep) (engine.Outcome, error) {
	p := h.session.NewPlanner()
	for _, sub := range subs {
		if err := p.SelectOut(sub.Out); err != nil {
			return engine.Outcome{}, err
		}
		if err := p.SelectIn(sub.In); err != nil {
			return engine.Outcome{}, err
		}
		if _, err := p.AddToBatch(); err != nil {
			return engine.Outcome{}, err
		}
	}
	return h.session.CommitSubstitutions(p)
}

// collect fills the result from the session and the store.
func (h *Harness) collect(ctx context.Context, result *Result) error {
	result.events = h.session.Events()
	result.final = h.session.State()
	result.Trace = traceOf(result.events)

	hash, err := canonical.StateHash(result.final)
	if err != nil {
		return fmt.Errorf("hash final state: %w", err)
	}
	result.StateHash = hash

	data, err := json.Marshal(result.final)
	if err != nil {
		return fmt.Errorf("encode final state: %w", err)
	}
	if err := json.Unmarshal(data, &result.State); err != nil {
		return fmt.Errorf("decode final state: %w", err)
	}

	rec, err := h.store.LoadMatch(ctx, h.session.MatchID())
	if err != nil {
		// Nothing was persisted if no step mutated the log.
		result.stored = []match.Event{}
		return nil
	}
	result.stored, err = rec.Events()
	if err != nil {
		return fmt.Errorf("read stored log: %w", err)
	}
	return nil
}

// checkStep compares a step result to its expectation and returns a
// failure message, or "".
func checkStep(step Step, sr StepResult) string {
	want := StepExpect{Status: string(engine.StatusApplied)}
	if step.Expect != nil {
		want = *step.Expect
	}

	if sr.Status != want.Status {
		detail := sr.Reason
		if sr.Status == StatusError {
			detail = sr.Error
		}
		return fmt.Sprintf("step %d (%s): expected %s, got %s %s", sr.Index, sr.Action, want.Status, sr.Status, detail)
	}
	if want.Reason != "" && sr.Reason != want.Reason {
		return fmt.Sprintf("step %d (%s): expected reason %s, got %s", sr.Index, sr.Action, want.Reason, sr.Reason)
	}
	if want.Code != "" && sr.Code != want.Code && !substitutionCodeIs(sr, want.Code) {
		return fmt.Sprintf("step %d (%s): expected code %s, got %s (%s)", sr.Index, sr.Action, want.Code, sr.Code, sr.Error)
	}
	return ""
}

// errorCode returns the most specific code carried by err: the validator
// code of a refused substitution, else the runtime error code.
func errorCode(err error) string {
	var ve *substitution.ValidationError
	if errors.As(err, &ve) {
		return string(ve.Code)
	}
	var re *engine.RuntimeError
	if errors.As(err, &re) {
		return string(re.Code)
	}
	return ""
}

// substitutionCodeIs lets a scenario expect INVALID_SUBSTITUTION for any
// refused substitution.
func substitutionCodeIs(sr StepResult, code string) bool {
	return code == string(engine.ErrCodeInvalidSubstitution) && sr.Status == StatusError &&
		(sr.Action == "substitute" || sr.Action == "quick_return" || sr.Action == string(match.TypeSubstitution))
}
