// Replay and determinism
//
// The derived state is never stored. It is rebuilt by folding the event log
// from empty on every mutation, on load, and by `vstats replay`. Three
// properties make that safe:
//
//  1. Fold is pure. It reads nothing but its arguments: no wall clock, no
//     map iteration in output order, no randomness.
//  2. Events are immutable and positionally ordered. Seq and Timestamp are
//     never consulted for ordering.
//  3. Synthetic SET_END/SET_START events are written to the log, not
//     recomputed on load, so a log replays identically even if the
//     completion rules change later.
//
// Replay checks both: it folds the log twice and compares canonical state
// hashes, and it walks the log with a Folder comparing every prefix against
// a full Fold.

package engine

import (
	"fmt"
	"reflect"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/canonical"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
)

// ReplayResult is the outcome of replaying a log.
type ReplayResult struct {
	State match.State
	// Hash is the canonical hash of State.
	Hash string
	// Events is the number of events replayed.
	Events int
	// Ignored lists the ids of events the fold skipped.
	Ignored []string
}

// Replay folds events twice and verifies the results are identical, then
// verifies the incremental Folder agrees with a full Fold at every prefix.
func Replay(events []match.Event, ourSide match.TeamSide, initialOnCourt []string) (ReplayResult, error) {
	first := Fold(events, ourSide, initialOnCourt, nil)
	second := Fold(events, ourSide, initialOnCourt, nil)

	h1, err := canonical.StateHash(first)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: hash state: %w", err)
	}
	h2, err := canonical.StateHash(second)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: hash state: %w", err)
	}
	if h1 != h2 {
		return ReplayResult{}, fmt.Errorf("replay: fold is not deterministic: %s != %s", h1, h2)
	}

	ignored, err := VerifyIncremental(events, ourSide, initialOnCourt)
	if err != nil {
		return ReplayResult{}, err
	}

	return ReplayResult{
		State:   first,
		Hash:    h1,
		Events:  len(events),
		Ignored: ignored,
	}, nil
}

// VerifyIncremental applies events one by one and checks that after each
// one the Folder state equals a full Fold of the same prefix. It returns the
// ids of events the fold ignored.
func VerifyIncremental(events []match.Event, ourSide match.TeamSide, initialOnCourt []string) ([]string, error) {
	matchID := ""
	if len(events) > 0 {
		matchID = events[0].MatchID
	}
	f := NewFolder(matchID, ourSide, initialOnCourt, nil)

	var ignored []string
	for i, e := range events {
		if !f.Apply(e) {
			ignored = append(ignored, e.ID)
		}
		incremental := f.State()
		full := Fold(events[:i+1], ourSide, initialOnCourt, nil)
		if !reflect.DeepEqual(incremental, full) {
			return ignored, fmt.Errorf("replay: incremental state diverges from full fold at event %d (%s %s)", i, e.ID, e.Type)
		}
	}
	return ignored, nil
}
