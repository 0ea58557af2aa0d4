package engine

import (
	"log/slog"
	"maps"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/rotation"
)

// Fold derives the match state from an ordered event log.
//
// initialOnCourt is the fallback rotation used until the log contains a
// SET_LINEUP. dismissed holds set numbers whose summary was already closed;
// their SET_END never reopens the summary.
//
// Fold is pure: the same arguments always produce a value-equal State.
func Fold(events []match.Event, ourSide match.TeamSide, initialOnCourt []string, dismissed map[int]bool) match.State {
	matchID := ""
	if len(events) > 0 {
		matchID = events[0].MatchID
	}
	f := NewFolder(matchID, ourSide, initialOnCourt, dismissed)
	for _, e := range events {
		f.Apply(e)
	}
	return f.State()
}

// Folder applies events one at a time. Applying a log event by event and
// calling State gives the same result as Fold over the whole log.
type Folder struct {
	state     match.State
	initial   []string
	dismissed map[int]bool

	// lineups holds declared lineups by set number so a lineup entered
	// before its SET_START is installed when the set opens.
	lineups    map[int]match.SetLineup
	lineupSeen bool
	anyStarted bool
}

// NewFolder returns a Folder positioned before the first event.
func NewFolder(matchID string, ourSide match.TeamSide, initialOnCourt []string, dismissed map[int]bool) *Folder {
	f := &Folder{
		state:     match.NewState(matchID, ourSide),
		initial:   append([]string(nil), initialOnCourt...),
		dismissed: maps.Clone(dismissed),
		lineups:   map[int]match.SetLineup{},
	}
	if f.dismissed == nil {
		f.dismissed = map[int]bool{}
	}
	f.state.Rotation = f.fallbackRotation()
	return f
}

// State returns the derived state after the events applied so far.
// While the current set has no points the serving side is re-derived from
// the recorded service choices.
func (f *Folder) State() match.State {
	s := f.state.Clone()
	if s.HomeScore == 0 && s.AwayScore == 0 && !s.IsSetFinished && !s.IsMatchFinished {
		s.ServingSide = f.servingFor(s.CurrentSet)
	}
	return s
}

// Apply folds one event into the state. It returns false if the event was
// ignored because it does not apply in the current state.
func (f *Folder) Apply(e match.Event) bool {
	if e.Payload == nil || !match.Matches(e.Type, e.Payload) {
		slog.Warn("fold: event ignored, payload does not match type",
			"event_id", e.ID,
			"type", e.Type,
			"payload", e.Payload,
		)
		return false
	}

	switch p := e.Payload.(type) {
	case match.ServiceChoice:
		return f.applyServiceChoice(p)
	case match.SetStart:
		return f.applySetStart(e, p)
	case match.Point:
		scorer := match.Our
		if e.Type == match.TypePointOpponent {
			scorer = match.Opponent
		}
		return f.applyPoint(e, scorer, p.Reason)
	case match.ReceptionEval:
		if !p.Failed() {
			return true
		}
		// A failed reception is an ace for the opponent.
		return f.applyPoint(e, match.Opponent, match.ReasonAce)
	case match.SetEnd:
		return f.applySetEnd(e, p)
	case match.SetLineup:
		return f.applyLineup(p)
	case match.Substitution:
		return f.applySubstitution(e, p)
	}

	slog.Warn("fold: unhandled payload", "event_id", e.ID, "type", e.Type)
	return false
}

func (f *Folder) applyServiceChoice(p match.ServiceChoice) bool {
	f.state.ServiceChoices[p.SetNumber] = p.ServingSide
	if p.SetNumber == f.state.CurrentSet {
		f.state.ServingSide = p.ServingSide
	}
	return true
}

func (f *Folder) applySetStart(e match.Event, p match.SetStart) bool {
	s := &f.state
	if s.IsMatchFinished {
		slog.Warn("fold: SET_START ignored, match finished", "event_id", e.ID)
		return false
	}

	n := p.SetNumber
	if n == 0 {
		n = s.CurrentSet
		if f.anyStarted {
			n++
		}
	}
	f.anyStarted = true

	s.CurrentSet = n
	s.SetStarted = true
	s.IsSetFinished = false
	s.HomeScore = 0
	s.AwayScore = 0
	s.Stats = match.SetStats{}
	s.Substitutions = match.SubstitutionHistory{Pairs: []match.SubstitutionPair{}}
	s.ServingSide = f.servingFor(n)

	s.LiberoID = ""
	s.LineupDeclared = false
	switch lineup, ok := f.lineups[n]; {
	case ok:
		f.installLineup(lineup)
	case !f.lineupSeen:
		s.Rotation = f.fallbackRotation()
	default:
		s.Rotation = nil
	}

	f.setScore(n)
	return true
}

func (f *Folder) applyPoint(e match.Event, scorer match.ServingSide, reason match.PointReason) bool {
	s := &f.state
	if !s.InPlay() {
		slog.Warn("fold: scoring event ignored, no set in play",
			"event_id", e.ID,
			"type", e.Type,
			"set", s.CurrentSet,
			"set_finished", s.IsSetFinished,
			"match_finished", s.IsMatchFinished,
		)
		return false
	}

	side := match.TeamSideOf(s.OurSide, scorer)
	if side == match.Home {
		s.HomeScore++
	} else {
		s.AwayScore++
	}
	s.Stats.RecordPoint(side, reason.Bucket())

	if s.ServingSide != scorer {
		s.ServingSide = scorer
		// We only track our rotation, so only a side-out to us rotates.
		if scorer == match.Our && len(s.Rotation) > 0 {
			s.Rotation = rotation.Rotate(s.Rotation)
		}
	}

	score := f.setScore(s.CurrentSet)
	score.Home = s.HomeScore
	score.Away = s.AwayScore
	return true
}

func (f *Folder) applySetEnd(e match.Event, p match.SetEnd) bool {
	s := &f.state
	if s.IsMatchFinished {
		slog.Warn("fold: SET_END ignored, match finished", "event_id", e.ID, "set", p.SetNumber)
		return false
	}
	if !s.SetStarted || p.SetNumber != s.CurrentSet {
		slog.Warn("fold: SET_END ignored, not the set in play",
			"event_id", e.ID, "set", p.SetNumber, "current_set", s.CurrentSet)
		return false
	}
	score := f.setScore(p.SetNumber)
	if score.Finished {
		slog.Warn("fold: SET_END ignored, set already finished", "event_id", e.ID, "set", p.SetNumber)
		return false
	}

	if p.Winner == match.Home {
		s.SetsWonHome++
	} else {
		s.SetsWonAway++
	}
	score.Home = p.HomeScore
	score.Away = p.AwayScore
	score.Finished = true
	score.Winner = p.Winner

	s.IsSetFinished = true
	if _, done := match.MatchWinner(s.SetsWonHome, s.SetsWonAway); done {
		s.IsMatchFinished = true
	}

	summary := match.SetSummary{
		SetNumber:      p.SetNumber,
		Winner:         p.Winner,
		HomeScore:      p.HomeScore,
		AwayScore:      p.AwayScore,
		SetsWonHome:    s.SetsWonHome,
		SetsWonAway:    s.SetsWonAway,
		Home:           s.Stats.Home,
		Away:           s.Stats.Away,
		LongestRunHome: s.Stats.LongestRunHome,
		LongestRunAway: s.Stats.LongestRunAway,
	}
	s.SetSummaries = append(s.SetSummaries, summary)

	if !f.dismissed[p.SetNumber] {
		last := summary
		s.LastFinishedSetSummary = &last
		s.SummaryOpen = true
	}
	return true
}

func (f *Folder) applyLineup(p match.SetLineup) bool {
	f.lineupSeen = true
	f.lineups[p.SetNumber] = p
	if p.SetNumber == f.state.CurrentSet {
		f.installLineup(p)
	}
	return true
}

func (f *Folder) installLineup(p match.SetLineup) {
	f.state.Rotation = p.Rotation()
	f.state.LiberoID = p.LiberoID
	f.state.LineupDeclared = true
}

func (f *Folder) applySubstitution(e match.Event, p match.Substitution) bool {
	s := &f.state
	if !s.InPlay() || p.SetNumber != s.CurrentSet {
		slog.Warn("fold: substitution ignored, set not in play",
			"event_id", e.ID,
			"set", p.SetNumber,
			"current_set", s.CurrentSet,
		)
		return false
	}
	if !s.IsOnCourt(p.PlayerOut) {
		slog.Warn("fold: substitution ignored, player not on court",
			"event_id", e.ID,
			"player_out", p.PlayerOut,
		)
		return false
	}
	s.ApplySubstitution(p.PlayerOut, p.PlayerIn)
	return true
}

// servingFor returns who serves first in set n. An explicit choice for the
// set wins; otherwise set 3 repeats set 1, sets 2 and 4 invert it and set 5
// falls back to set 1. With no choice recorded we serve.
func (f *Folder) servingFor(n int) match.ServingSide {
	if side, ok := f.state.ServiceChoices[n]; ok {
		return side
	}
	first, ok := f.state.ServiceChoices[1]
	if !ok {
		return match.Our
	}
	switch n {
	case 2, 4:
		return first.Opposite()
	default:
		return first
	}
}

func (f *Folder) fallbackRotation() []string {
	if len(f.initial) == 0 {
		return nil
	}
	return append([]string(nil), f.initial...)
}

// setScore returns the history entry for set n, creating it if needed.
// Entries stay ordered by set number.
func (f *Folder) setScore(n int) *match.SetScore {
	scores := f.state.SetScores
	for i := range scores {
		if scores[i].SetNumber == n {
			return &scores[i]
		}
	}
	i := len(scores)
	for i > 0 && scores[i-1].SetNumber > n {
		i--
	}
	scores = append(scores, match.SetScore{})
	copy(scores[i+1:], scores[i:])
	scores[i] = match.SetScore{SetNumber: n}
	f.state.SetScores = scores
	return &f.state.SetScores[i]
}
