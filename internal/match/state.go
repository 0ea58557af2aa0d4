package match

import "maps"

// PointBreakdown counts points by bucket for one side.
type PointBreakdown struct {
	Serve         int `json:"serve"`
	Attack        int `json:"attack"`
	Block         int `json:"block"`
	OpponentError int `json:"opponent_error"`
}

// Add counts one point in bucket b. BucketNone is ignored.
func (p *PointBreakdown) Add(b Bucket) {
	switch b {
	case BucketServe:
		p.Serve++
	case BucketAttack:
		p.Attack++
	case BucketBlock:
		p.Block++
	case BucketOpponentError:
		p.OpponentError++
	case BucketNone:
	}
}

// SetStats holds running statistics for the set in progress.
type SetStats struct {
	Home           PointBreakdown `json:"home"`
	Away           PointBreakdown `json:"away"`
	LongestRunHome int            `json:"longest_run_home"`
	LongestRunAway int            `json:"longest_run_away"`
	RunSide        TeamSide       `json:"run_side,omitempty"`
	RunLength      int            `json:"run_length"`
}

// RecordPoint updates the buckets and the scoring runs for a point won by side.
func (s *SetStats) RecordPoint(side TeamSide, b Bucket) {
	if side == Home {
		s.Home.Add(b)
	} else {
		s.Away.Add(b)
	}

	if s.RunSide == side {
		s.RunLength++
	} else {
		s.RunSide = side
		s.RunLength = 1
	}
	if side == Home && s.RunLength > s.LongestRunHome {
		s.LongestRunHome = s.RunLength
	}
	if side == Away && s.RunLength > s.LongestRunAway {
		s.LongestRunAway = s.RunLength
	}
}

// SetScore is one entry of the per-set score history.
type SetScore struct {
	SetNumber int      `json:"set_number"`
	Home      int      `json:"home"`
	Away      int      `json:"away"`
	Finished  bool     `json:"finished"`
	Winner    TeamSide `json:"winner,omitempty"`
}

// SetSummary is the finalized record of a finished set.
type SetSummary struct {
	SetNumber      int            `json:"set_number"`
	Winner         TeamSide       `json:"winner"`
	HomeScore      int            `json:"home_score"`
	AwayScore      int            `json:"away_score"`
	SetsWonHome    int            `json:"sets_won_home"`
	SetsWonAway    int            `json:"sets_won_away"`
	Home           PointBreakdown `json:"home"`
	Away           PointBreakdown `json:"away"`
	LongestRunHome int            `json:"longest_run_home"`
	LongestRunAway int            `json:"longest_run_away"`
}

// SubstitutionPair tracks how often a starter/substitute pairing was used in
// the current set. The starter is the player who left the court first.
type SubstitutionPair struct {
	StarterID    string `json:"starter_id"`
	SubstituteID string `json:"substitute_id"`
	UsesCount    int    `json:"uses_count"`
}

// Involves reports whether id is either player of the pair.
func (p SubstitutionPair) Involves(id string) bool {
	return p.StarterID == id || p.SubstituteID == id
}

// Partner returns the other player of the pair.
func (p SubstitutionPair) Partner(id string) string {
	if p.StarterID == id {
		return p.SubstituteID
	}
	return p.StarterID
}

// Exhausted reports whether the pair has used both of its moves.
func (p SubstitutionPair) Exhausted() bool {
	return p.UsesCount >= MaxPairUses
}

// SubstitutionHistory is the substitution record for the current set.
type SubstitutionHistory struct {
	Pairs []SubstitutionPair `json:"pairs"`
	Count int                `json:"count"`
}

// PairOf returns the pair involving id, if any. A player belongs to at most
// one pair per set.
func (h SubstitutionHistory) PairOf(id string) (SubstitutionPair, bool) {
	for _, p := range h.Pairs {
		if p.Involves(id) {
			return p, true
		}
	}
	return SubstitutionPair{}, false
}

// Remaining returns how many substitutions are left in the set.
func (h SubstitutionHistory) Remaining() int {
	return max(0, MaxSubstitutionsPerSet-h.Count)
}

func (h *SubstitutionHistory) record(out, in string) {
	h.Count++
	for i := range h.Pairs {
		p := &h.Pairs[i]
		if p.Involves(out) && p.Involves(in) {
			p.UsesCount++
			return
		}
	}
	h.Pairs = append(h.Pairs, SubstitutionPair{StarterID: out, SubstituteID: in, UsesCount: 1})
}

// State is the derived match state (DerivedMatchState). It is produced by
// folding the event log and is never persisted or patched directly.
type State struct {
	MatchID string   `json:"match_id"`
	OurSide TeamSide `json:"our_side"`

	// CurrentSet is the set being played or, between SET_END and the next
	// SET_START, the set that just finished.
	CurrentSet int  `json:"current_set"`
	SetStarted bool `json:"set_started"`

	HomeScore   int `json:"home_score"`
	AwayScore   int `json:"away_score"`
	SetsWonHome int `json:"sets_won_home"`
	SetsWonAway int `json:"sets_won_away"`

	ServingSide    ServingSide         `json:"serving_side"`
	ServiceChoices map[int]ServingSide `json:"service_choices"`

	// Rotation holds our player ids ordered by position 1..6; position 1 is
	// the server. Empty until a lineup is declared or seeded.
	Rotation       []string `json:"rotation"`
	LiberoID       string   `json:"libero_id,omitempty"`
	LineupDeclared bool     `json:"lineup_declared"`

	SetScores    []SetScore   `json:"set_scores"`
	SetSummaries []SetSummary `json:"set_summaries"`

	IsSetFinished          bool        `json:"is_set_finished"`
	IsMatchFinished        bool        `json:"is_match_finished"`
	LastFinishedSetSummary *SetSummary `json:"last_finished_set_summary,omitempty"`
	SummaryOpen            bool        `json:"summary_open"`

	Stats         SetStats            `json:"stats"`
	Substitutions SubstitutionHistory `json:"substitutions"`
}

// NewState returns the empty state folding starts from.
func NewState(matchID string, ourSide TeamSide) State {
	return State{
		MatchID:        matchID,
		OurSide:        ourSide,
		CurrentSet:     1,
		ServingSide:    Our,
		ServiceChoices: map[int]ServingSide{},
		SetScores:      []SetScore{},
		SetSummaries:   []SetSummary{},
		Substitutions:  SubstitutionHistory{Pairs: []SubstitutionPair{}},
	}
}

// Clone returns a deep copy that shares no memory with s.
func (s State) Clone() State {
	c := s
	c.ServiceChoices = maps.Clone(s.ServiceChoices)
	c.Rotation = cloneSlice(s.Rotation)
	c.SetScores = cloneSlice(s.SetScores)
	c.SetSummaries = cloneSlice(s.SetSummaries)
	c.Substitutions.Pairs = cloneSlice(s.Substitutions.Pairs)
	if s.LastFinishedSetSummary != nil {
		summary := *s.LastFinishedSetSummary
		c.LastFinishedSetSummary = &summary
	}
	return c
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// OurScore returns our points in the current set.
func (s State) OurScore() int {
	if s.OurSide == Home {
		return s.HomeScore
	}
	return s.AwayScore
}

// OpponentScore returns the opponent's points in the current set.
func (s State) OpponentScore() int {
	if s.OurSide == Home {
		return s.AwayScore
	}
	return s.HomeScore
}

// Serving reports whether our team holds serve.
func (s State) Serving() bool {
	return s.ServingSide == Our
}

// OnCourt returns the rotation as position/player slots.
func (s State) OnCourt() []RotationSlot {
	slots := make([]RotationSlot, 0, len(s.Rotation))
	for i, id := range s.Rotation {
		slots = append(slots, RotationSlot{Position: i + 1, PlayerID: id})
	}
	return slots
}

// IsOnCourt reports whether id is in the rotation or is the active libero.
func (s State) IsOnCourt(id string) bool {
	if id == "" {
		return false
	}
	if s.LiberoID == id {
		return true
	}
	return s.PositionOf(id) > 0
}

// PositionOf returns the 1-based court position of id, or 0.
func (s State) PositionOf(id string) int {
	for i, p := range s.Rotation {
		if p == id {
			return i + 1
		}
	}
	return 0
}

// InPlay reports whether a set has started and is not yet finished.
func (s State) InPlay() bool {
	return s.SetStarted && !s.IsSetFinished && !s.IsMatchFinished
}

// ApplySubstitution replaces out with in and records the use of their pair.
// If out is the active libero the libero id is swapped; otherwise out's
// rotation slot is handed to in. Callers validate first; this only mutates.
func (s *State) ApplySubstitution(out, in string) {
	if s.LiberoID != "" && s.LiberoID == out {
		s.LiberoID = in
	} else if pos := s.PositionOf(out); pos > 0 {
		s.Rotation = cloneSlice(s.Rotation)
		s.Rotation[pos-1] = in
	}
	s.Substitutions.Pairs = cloneSlice(s.Substitutions.Pairs)
	s.Substitutions.record(out, in)
}
