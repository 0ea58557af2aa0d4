package substitution

import (
	"fmt"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
)

// Phase is the planner's selection state.
type Phase int

const (
	// PhaseIdle has no selection.
	PhaseIdle Phase = iota
	// PhaseOutSelected has a player leaving the court selected.
	PhaseOutSelected
	// PhaseReady has both players selected and validated.
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseOutSelected:
		return "out_selected"
	case PhaseReady:
		return "ready"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// PlannedSub is a staged substitution. Player data is snapshotted when the
// substitution is staged so the preview does not change under the user.
type PlannedSub struct {
	SetNumber int          `json:"set_number"`
	Out       match.Player `json:"out"`
	In        match.Player `json:"in"`
	// Position is the court position being exchanged, 0 for the libero.
	Position int `json:"position"`
}

// Payload returns the event payload committing this substitution.
func (p PlannedSub) Payload() match.Substitution {
	return match.Substitution{SetNumber: p.SetNumber, PlayerOut: p.Out.ID, PlayerIn: p.In.ID}
}

// Planner stages substitutions before they are committed.
//
// Every selection is validated against the projected state: the base state
// with all staged substitutions already applied. Two staged substitutions
// therefore can never claim the same court slot.
//
// A Planner works on a copy of the state it was created from; it never
// changes the session. Not safe for concurrent use.
type Planner struct {
	base   match.State
	roster match.Roster
	batch  []PlannedSub

	out *match.Player
	in  *match.Player
}

// NewPlanner creates a planner over a snapshot of s.
func NewPlanner(s match.State, roster match.Roster) *Planner {
	return &Planner{
		base:   s.Clone(),
		roster: append(match.Roster(nil), roster...),
	}
}

// Phase returns the selection state.
func (p *Planner) Phase() Phase {
	switch {
	case p.out != nil && p.in != nil:
		return PhaseReady
	case p.out != nil:
		return PhaseOutSelected
	}
	return PhaseIdle
}

// Selection returns the selected players. Missing selections are zero.
func (p *Planner) Selection() (out, in match.Player) {
	if p.out != nil {
		out = *p.out
	}
	if p.in != nil {
		in = *p.in
	}
	return out, in
}

// Batch returns the staged substitutions in order.
func (p *Planner) Batch() []PlannedSub {
	return append([]PlannedSub(nil), p.batch...)
}

// Projected returns the base state with every staged substitution applied.
func (p *Planner) Projected() match.State {
	s := p.base.Clone()
	for _, sub := range p.batch {
		s.ApplySubstitution(sub.Out.ID, sub.In.ID)
	}
	return s
}

// SelectOut selects the player leaving the court and clears any player-in
// selection.
func (p *Planner) SelectOut(id string) error {
	s := p.Projected()
	if !s.InPlay() {
		return refuse(CodeNoSetInProgress, "", "no set in progress")
	}
	player, ok := p.roster.ByID(id)
	if !ok {
		return refuse(CodeUnknownPlayer, id, "player is not on the roster")
	}
	if !onCourtAs(s, player) {
		return refuse(CodeNotOnCourt, id, "%s is not on court", player)
	}
	if pair, ok := s.Substitutions.PairOf(id); ok && pair.Exhausted() {
		return refuse(CodePairExhausted, id, "player already used both substitutions with %s this set", pair.Partner(id))
	}
	p.out = &player
	p.in = nil
	return nil
}

// SelectIn selects the player entering the court. A player leaving must
// already be selected.
func (p *Planner) SelectIn(id string) error {
	if p.out == nil {
		return refuse(CodeNoSelection, id, "select the player leaving the court first")
	}
	if err := Validate(p.Projected(), p.roster, p.out.ID, id); err != nil {
		return err
	}
	player, _ := p.roster.ByID(id)
	p.in = &player
	return nil
}

// Candidates lists roster players that could enter for the selected player
// leaving the court, in roster order.
func (p *Planner) Candidates() []match.Player {
	if p.out == nil {
		return nil
	}
	s := p.Projected()
	var out []match.Player
	for _, player := range p.roster {
		if Validate(s, p.roster, p.out.ID, player.ID) == nil {
			out = append(out, player)
		}
	}
	return out
}

// ClearSelection drops the current selection, keeping the batch.
func (p *Planner) ClearSelection() {
	p.out = nil
	p.in = nil
}

// AddToBatch stages the current selection and clears it.
func (p *Planner) AddToBatch() (PlannedSub, error) {
	if p.Phase() != PhaseReady {
		return PlannedSub{}, refuse(CodeNoSelection, "", "select both players before adding to the batch")
	}
	sub, err := p.stage(p.out.ID, p.in.ID)
	if err != nil {
		return PlannedSub{}, err
	}
	p.ClearSelection()
	return sub, nil
}

// QuickReturn stages the return of a pair used once: whichever of the two
// players is on court goes back out for the other.
func (p *Planner) QuickReturn(id string) (PlannedSub, error) {
	out, in, err := Returnable(p.Projected(), id)
	if err != nil {
		return PlannedSub{}, err
	}
	return p.stage(out, in)
}

func (p *Planner) stage(outID, inID string) (PlannedSub, error) {
	s := p.Projected()
	if err := Validate(s, p.roster, outID, inID); err != nil {
		return PlannedSub{}, err
	}
	out, _ := p.roster.ByID(outID)
	in, _ := p.roster.ByID(inID)
	sub := PlannedSub{
		SetNumber: s.CurrentSet,
		Out:       out,
		In:        in,
		Position:  s.PositionOf(outID),
	}
	p.batch = append(p.batch, sub)
	return sub, nil
}

// Remove drops the staged substitution at index i. Later substitutions that
// no longer validate without it are dropped too; every dropped entry is
// returned, the one at i first.
func (p *Planner) Remove(i int) ([]PlannedSub, error) {
	if i < 0 || i >= len(p.batch) {
		return nil, fmt.Errorf("remove planned substitution: index %d out of range 0..%d", i, len(p.batch)-1)
	}
	dropped := []PlannedSub{p.batch[i]}
	rest := append(append([]PlannedSub(nil), p.batch[:i]...), p.batch[i+1:]...)

	p.batch = nil
	for _, sub := range rest {
		if err := Validate(p.Projected(), p.roster, sub.Out.ID, sub.In.ID); err != nil {
			dropped = append(dropped, sub)
			continue
		}
		p.batch = append(p.batch, sub)
	}

	// The current selection may have depended on a dropped entry.
	if p.out != nil && !onCourtAs(p.Projected(), *p.out) {
		p.ClearSelection()
	}
	return dropped, nil
}

// Pending returns what a commit would apply: the batch plus the current
// selection if it is complete.
func (p *Planner) Pending() []PlannedSub {
	pending := p.Batch()
	if p.Phase() == PhaseReady {
		s := p.Projected()
		pending = append(pending, PlannedSub{
			SetNumber: s.CurrentSet,
			Out:       *p.out,
			In:        *p.in,
			Position:  s.PositionOf(p.out.ID),
		})
	}
	return pending
}

// Reset clears the batch and the selection.
func (p *Planner) Reset() {
	p.batch = nil
	p.ClearSelection()
}

// Check validates subs in order against s, each one as if the previous ones
// had been applied. It returns the state after all of them.
func Check(s match.State, roster match.Roster, subs []PlannedSub) (match.State, error) {
	sim := s.Clone()
	for i, sub := range subs {
		if err := Validate(sim, roster, sub.Out.ID, sub.In.ID); err != nil {
			return s, fmt.Errorf("substitution %d (%s for %s): %w", i+1, sub.In, sub.Out, err)
		}
		sim.ApplySubstitution(sub.Out.ID, sub.In.ID)
	}
	return sim, nil
}
