package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/eventlog"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/substitution"
)

// Status is the result of a session operation.
type Status string

const (
	StatusApplied  Status = "applied"
	StatusRejected Status = "rejected"
)

// Reason explains a rejected operation.
type Reason string

const (
	ReasonMatchFinished   Reason = "match_finished"
	ReasonSetFinished     Reason = "set_finished"
	ReasonNoSetInProgress Reason = "no_set_in_progress"
	ReasonSetInProgress   Reason = "set_in_progress"
	ReasonNothingToUndo   Reason = "nothing_to_undo"
	ReasonNothingToRedo   Reason = "nothing_to_redo"
	ReasonEmptyBatch      Reason = "empty_batch"
)

// Outcome reports what an operation did. A rejected operation leaves the
// session unchanged.
type Outcome struct {
	Status Status
	Reason Reason
	// Events are the events appended, undone or redone.
	Events []match.Event
	// State is the derived state after the operation.
	State match.State
}

// Applied reports whether the operation changed the session.
func (o Outcome) Applied() bool {
	return o.Status == StatusApplied
}

// TeamNames are display names for the two sides.
type TeamNames struct {
	Home string `json:"home"`
	Away string `json:"away"`
}

// Snapshot is the persisted form of a match after a mutation.
type Snapshot struct {
	MatchID  string
	Revision int64
	OurSide  match.TeamSide
	Names    TeamNames
	Events   []match.Event
}

// Persister receives a snapshot after every mutation of the event log.
// Persist must not block; implementations hand the snapshot to a worker.
type Persister interface {
	Persist(Snapshot)
}

// Session owns one match: its event log, its derived state and the set
// summaries dismissed in this session.
//
// Every mutation replays the whole log. The state is committed in memory
// first and then handed to the Persister; a persistence failure never rolls
// the session back.
//
// Not safe for concurrent use. Callers serialize access.
type Session struct {
	matchID   string
	ourSide   match.TeamSide
	names     TeamNames
	roster    match.Roster
	initial   []string
	dismissed map[int]bool

	log   *eventlog.Log
	state match.State

	clock     *Clock
	ids       IDGenerator
	now       func() time.Time
	persister Persister

	subs   []subscriber
	nextID int
}

type subscriber struct {
	id int
	fn func(match.State)
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithIDGenerator sets the event id generator. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) SessionOption {
	return func(s *Session) {
		s.ids = g
	}
}

// WithNow sets the wall clock used for event timestamps.
func WithNow(now func() time.Time) SessionOption {
	return func(s *Session) {
		s.now = now
	}
}

// WithPersister sets where snapshots go after each mutation.
func WithPersister(p Persister) SessionOption {
	return func(s *Session) {
		s.persister = p
	}
}

// WithRoster sets the roster used to validate substitutions.
func WithRoster(r match.Roster) SessionOption {
	return func(s *Session) {
		s.roster = append(match.Roster(nil), r...)
	}
}

// NewSession creates an empty session. LoadMatch must be called before
// events can be added.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		ourSide:   match.Home,
		dismissed: map[int]bool{},
		log:       eventlog.New(),
		clock:     NewClock(),
		ids:       UUIDv7Generator{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = match.NewState("", s.ourSide)
	return s
}

// LoadMatch replaces the session with a stored match and folds its events.
// Dismissed summaries are forgotten, so an unseen set summary can reopen.
func (s *Session) LoadMatch(matchID string, events []match.Event, ourSide match.TeamSide, names TeamNames) {
	s.matchID = matchID
	s.ourSide = ourSide
	s.names = names
	s.dismissed = map[int]bool{}
	s.log = eventlog.New(events...)
	for _, e := range events {
		s.clock.Advance(e.Seq)
	}
	s.refold()

	slog.Info("match loaded",
		"match_id", matchID,
		"events", len(events),
		"set", s.state.CurrentSet,
		"home", s.state.HomeScore,
		"away", s.state.AwayScore,
	)
	s.notify()
}

// SetInitialOnCourtPlayers seeds the fallback rotation used until a
// SET_LINEUP is declared.
func (s *Session) SetInitialOnCourtPlayers(ids []string) {
	s.initial = append([]string(nil), ids...)
	s.refold()
	s.notify()
}

// SetRoster replaces the roster used to validate substitutions.
func (s *Session) SetRoster(r match.Roster) {
	s.roster = append(match.Roster(nil), r...)
}

// AddEvent appends a user event. If it decides a set, SET_END and the next
// SET_START are appended with it as one action.
//
// Events the rules do not allow in the current state (a point after the
// match ended) are rejected without changing anything. Malformed payloads
// are returned as *RuntimeError.
func (s *Session) AddEvent(t match.Type, p match.Payload) (Outcome, error) {
	if s.matchID == "" {
		return Outcome{}, newNoMatchError()
	}
	if err := match.CheckPayload(t, p); err != nil {
		return Outcome{}, newInvalidPayloadError(s.matchID, string(t), err)
	}
	if err := s.checkTarget(t, p); err != nil {
		return Outcome{}, err
	}
	if reason := s.admit(t); reason != "" {
		return s.reject(t, reason), nil
	}
	return s.commit([]pendingEvent{{Type: t, Payload: p}}), nil
}

// checkTarget rejects payloads aimed at the wrong set, player or score.
func (s *Session) checkTarget(t match.Type, p match.Payload) error {
	switch p := p.(type) {
	case match.SetLineup:
		if p.SetNumber < s.state.CurrentSet {
			return newInvalidPayloadError(s.matchID, string(t),
				fmt.Errorf("lineup for set %d but set %d is current", p.SetNumber, s.state.CurrentSet))
		}
	case match.Substitution:
		if !s.state.InPlay() {
			return nil
		}
		if p.SetNumber != s.state.CurrentSet {
			return newInvalidPayloadError(s.matchID, string(t),
				fmt.Errorf("substitution for set %d but set %d is in play", p.SetNumber, s.state.CurrentSet))
		}
		if err := substitution.Validate(s.state, s.roster, p.PlayerOut, p.PlayerIn); err != nil {
			return newInvalidSubstitutionError(s.matchID, err)
		}
	case match.SetEnd:
		if !s.state.InPlay() {
			return nil
		}
		if err := s.checkSetEnd(p); err != nil {
			return newInvalidPayloadError(s.matchID, string(t), err)
		}
	}
	return nil
}

// checkSetEnd requires a SET_END to close the set in play at its folded
// score, naming the side that score makes the winner.
func (s *Session) checkSetEnd(p match.SetEnd) error {
	st := s.state
	if p.SetNumber != st.CurrentSet {
		return fmt.Errorf("set end for set %d but set %d is in play", p.SetNumber, st.CurrentSet)
	}
	if p.HomeScore != st.HomeScore || p.AwayScore != st.AwayScore {
		return fmt.Errorf("set end at %d-%d but the score is %d-%d",
			p.HomeScore, p.AwayScore, st.HomeScore, st.AwayScore)
	}
	winner, done := match.SetWinner(p.SetNumber, p.HomeScore, p.AwayScore)
	if !done {
		return fmt.Errorf("set %d is not decided at %d-%d", p.SetNumber, p.HomeScore, p.AwayScore)
	}
	if winner != p.Winner {
		return fmt.Errorf("set %d at %d-%d is won by %s, not %s", p.SetNumber, p.HomeScore, p.AwayScore, winner, p.Winner)
	}
	return nil
}

// admit returns why the rules reject t now, or "" if it may be appended.
func (s *Session) admit(t match.Type) Reason {
	st := s.state
	switch t {
	case match.TypePointUs, match.TypePointOpponent, match.TypeReceptionEval,
		match.TypeSetEnd, match.TypeSubstitution:
		switch {
		case st.IsMatchFinished:
			return ReasonMatchFinished
		case st.IsSetFinished:
			return ReasonSetFinished
		case !st.SetStarted:
			return ReasonNoSetInProgress
		}
	case match.TypeSetStart:
		switch {
		case st.IsMatchFinished:
			return ReasonMatchFinished
		case st.InPlay():
			return ReasonSetInProgress
		}
	case match.TypeSetLineup, match.TypeSetServiceChoice:
		if st.IsMatchFinished {
			return ReasonMatchFinished
		}
	}
	return ""
}

func (s *Session) reject(t match.Type, reason Reason) Outcome {
	slog.Warn("event rejected",
		"match_id", s.matchID,
		"type", t,
		"reason", reason,
		"set", s.state.CurrentSet,
	)
	return Outcome{Status: StatusRejected, Reason: reason, State: s.State()}
}

// commit stamps pending events, runs completion after scoring events and
// appends everything as one action.
func (s *Session) commit(pending []pendingEvent) Outcome {
	events := make([]match.Event, 0, len(pending)+2)
	for i, pe := range pending {
		e := s.newEvent(pe.Type, pe.Payload, false)
		e.Batched = i > 0
		events = append(events, e)
	}

	folder := s.newFolder()
	for _, e := range s.log.Events() {
		folder.Apply(e)
	}
	scored := false
	for _, e := range events {
		folder.Apply(e)
		scored = scored || e.IsScoring()
	}
	if scored {
		for _, pe := range evaluateCompletion(folder.State()) {
			events = append(events, s.newEvent(pe.Type, pe.Payload, true))
		}
	}

	s.log.Append(events...)
	s.refold()

	for _, e := range events {
		slog.Debug("event appended",
			"match_id", s.matchID,
			"event_id", e.ID,
			"seq", e.Seq,
			"type", e.Type,
			"auto", e.Auto,
		)
	}
	if s.state.IsMatchFinished && scored {
		slog.Info("match finished",
			"match_id", s.matchID,
			"sets_home", s.state.SetsWonHome,
			"sets_away", s.state.SetsWonAway,
		)
	}

	s.persist()
	s.notify()
	return Outcome{Status: StatusApplied, Events: events, State: s.State()}
}

// UndoEvent moves the last action back to the redo buffer.
func (s *Session) UndoEvent() Outcome {
	events, ok := s.log.Undo()
	if !ok {
		return Outcome{Status: StatusRejected, Reason: ReasonNothingToUndo, State: s.State()}
	}
	s.refold()
	slog.Debug("undo", "match_id", s.matchID, "events", len(events))
	s.persist()
	s.notify()
	return Outcome{Status: StatusApplied, Events: events, State: s.State()}
}

// RedoEvent restores the most recently undone action.
func (s *Session) RedoEvent() Outcome {
	events, ok := s.log.Redo()
	if !ok {
		return Outcome{Status: StatusRejected, Reason: ReasonNothingToRedo, State: s.State()}
	}
	s.refold()
	slog.Debug("redo", "match_id", s.matchID, "events", len(events))
	s.persist()
	s.notify()
	return Outcome{Status: StatusApplied, Events: events, State: s.State()}
}

// CloseSetSummaryModal dismisses the open set summary. It will not reopen
// for that set during this session, even after undo and redo.
func (s *Session) CloseSetSummaryModal() {
	if s.state.LastFinishedSetSummary == nil {
		return
	}
	s.dismissed[s.state.LastFinishedSetSummary.SetNumber] = true
	s.refold()
	s.notify()
}

// Reset clears the session to empty.
func (s *Session) Reset() {
	s.matchID = ""
	s.ourSide = match.Home
	s.names = TeamNames{}
	s.initial = nil
	s.dismissed = map[int]bool{}
	s.log.Reset()
	s.state = match.NewState("", s.ourSide)
	s.notify()
}

// NewPlanner opens a substitution planner over the current state.
func (s *Session) NewPlanner() *substitution.Planner {
	return substitution.NewPlanner(s.state, s.roster)
}

// CommitSubstitutions appends everything the planner has pending. The batch
// is checked as a whole against the real state first; if any substitution
// fails nothing is appended. On success the planner is reset.
func (s *Session) CommitSubstitutions(p *substitution.Planner) (Outcome, error) {
	if s.matchID == "" {
		return Outcome{}, newNoMatchError()
	}
	if reason := s.admit(match.TypeSubstitution); reason != "" {
		return s.reject(match.TypeSubstitution, reason), nil
	}
	subs := p.Pending()
	if len(subs) == 0 {
		return Outcome{Status: StatusRejected, Reason: ReasonEmptyBatch, State: s.State()}, nil
	}
	if _, err := substitution.Check(s.state, s.roster, subs); err != nil {
		return Outcome{}, newInvalidSubstitutionError(s.matchID, err)
	}

	pending := make([]pendingEvent, 0, len(subs))
	for _, sub := range subs {
		pending = append(pending, pendingEvent{Type: match.TypeSubstitution, Payload: sub.Payload()})
	}
	out := s.commit(pending)
	p.Reset()
	return out, nil
}

// QuickReturn commits the return of the open pair involving playerID.
func (s *Session) QuickReturn(playerID string) (Outcome, error) {
	p := s.NewPlanner()
	if _, err := p.QuickReturn(playerID); err != nil {
		return Outcome{}, newInvalidSubstitutionError(s.matchID, err)
	}
	return s.CommitSubstitutions(p)
}

// Subscribe registers fn to receive the state after every change. The
// returned function cancels the subscription.
func (s *Session) Subscribe(fn func(match.State)) (cancel func()) {
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// State returns a copy of the derived state.
func (s *Session) State() match.State {
	return s.state.Clone()
}

// Events returns a copy of the event log.
func (s *Session) Events() []match.Event {
	return s.log.Events()
}

// MatchID returns the loaded match id, or "".
func (s *Session) MatchID() string {
	return s.matchID
}

// Names returns the team names of the loaded match.
func (s *Session) Names() TeamNames {
	return s.names
}

// Roster returns the roster used for substitutions.
func (s *Session) Roster() match.Roster {
	return append(match.Roster(nil), s.roster...)
}

// CanUndo reports whether UndoEvent would change anything.
func (s *Session) CanUndo() bool {
	return s.log.CanUndo()
}

// CanRedo reports whether RedoEvent would change anything.
func (s *Session) CanRedo() bool {
	return s.log.CanRedo()
}

// Clock returns the session's logical clock.
func (s *Session) Clock() *Clock {
	return s.clock
}

func (s *Session) newFolder() *Folder {
	return NewFolder(s.matchID, s.ourSide, s.initial, s.dismissed)
}

func (s *Session) refold() {
	f := s.newFolder()
	for _, e := range s.log.Events() {
		f.Apply(e)
	}
	s.state = f.State()
}

func (s *Session) newEvent(t match.Type, p match.Payload, auto bool) match.Event {
	return match.Event{
		ID:        s.ids.Generate(),
		MatchID:   s.matchID,
		Seq:       s.clock.Next(),
		Timestamp: s.now().UTC(),
		Type:      t,
		Payload:   p,
		Auto:      auto,
	}
}

func (s *Session) persist() {
	if s.persister == nil {
		return
	}
	s.persister.Persist(Snapshot{
		MatchID:  s.matchID,
		Revision: s.clock.Next(),
		OurSide:  s.ourSide,
		Names:    s.names,
		Events:   s.log.Events(),
	})
}

func (s *Session) notify() {
	if len(s.subs) == 0 {
		return
	}
	state := s.State()
	for _, sub := range append([]subscriber(nil), s.subs...) {
		sub.fn(state.Clone())
	}
}
