package testutil

import (
	"fmt"
	"time"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
)

// MatchID is the match id used by test logs.
const MatchID = "match-test"

// Roster returns a twelve-player roster: starters p1..p6 (setter, two
// outsides, two middles, opposite), liberos l1 and l2, and bench b1..b4.
func Roster() match.Roster {
	return match.Roster{
		{ID: "p1", Number: 1, Name: "Ana Setter", Role: match.RoleSetter},
		{ID: "p2", Number: 2, Name: "Berta Outside", Role: match.RoleOutside},
		{ID: "p3", Number: 3, Name: "Carla Middle", Role: match.RoleMiddle},
		{ID: "p4", Number: 4, Name: "Dana Opposite", Role: match.RoleOpposite},
		{ID: "p5", Number: 5, Name: "Eva Outside", Role: match.RoleOutside},
		{ID: "p6", Number: 6, Name: "Flor Middle", Role: match.RoleMiddle},
		{ID: "l1", Number: 10, Name: "Gala Libero", Role: match.RoleLibero},
		{ID: "l2", Number: 11, Name: "Hana Libero", Role: match.RoleLibero},
		{ID: "b1", Number: 12, Name: "Ines Outside", Role: match.RoleOutside},
		{ID: "b2", Number: 13, Name: "Julia Middle", Role: match.RoleMiddle},
		{ID: "b3", Number: 14, Name: "Kira Setter", Role: match.RoleSetter},
		{ID: "b4", Number: 15, Name: "Lola Opposite", Role: match.RoleOpposite},
	}
}

// Starters returns the starting rotation p1..p6 by position.
func Starters() []string {
	return []string{"p1", "p2", "p3", "p4", "p5", "p6"}
}

// Lineup returns a SET_LINEUP payload placing ids in positions 1..6.
func Lineup(set int, liberoID string, ids ...string) match.SetLineup {
	slots := make([]match.RotationSlot, len(ids))
	for i, id := range ids {
		slots[i] = match.RotationSlot{Position: i + 1, PlayerID: id}
	}
	return match.SetLineup{SetNumber: set, Positions: slots, LiberoID: liberoID}
}

// Builder assembles event logs with sequential ids, seqs and timestamps.
type Builder struct {
	events []match.Event
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends an event with the given type and payload.
func (b *Builder) Add(t match.Type, p match.Payload) *Builder {
	return b.add(t, p, false)
}

// Auto appends an event marked as synthesized.
func (b *Builder) Auto(t match.Type, p match.Payload) *Builder {
	return b.add(t, p, true)
}

func (b *Builder) add(t match.Type, p match.Payload, auto bool) *Builder {
	n := len(b.events) + 1
	b.events = append(b.events, match.Event{
		ID:        fmt.Sprintf("ev-%04d", n),
		MatchID:   MatchID,
		Seq:       int64(n),
		Timestamp: Epoch.Add(time.Duration(n) * time.Second),
		Type:      t,
		Payload:   p,
		Auto:      auto,
	})
	return b
}

// SetStart appends SET_START for set n (0 for "next").
func (b *Builder) SetStart(n int) *Builder {
	return b.Add(match.TypeSetStart, match.SetStart{SetNumber: n})
}

// ServiceChoice appends SET_SERVICE_CHOICE.
func (b *Builder) ServiceChoice(set int, side match.ServingSide) *Builder {
	return b.Add(match.TypeSetServiceChoice, match.ServiceChoice{SetNumber: set, ServingSide: side})
}

// Lineup appends SET_LINEUP.
func (b *Builder) Lineup(set int, liberoID string, ids ...string) *Builder {
	return b.Add(match.TypeSetLineup, Lineup(set, liberoID, ids...))
}

// Us appends n POINT_US events with reason.
func (b *Builder) Us(n int, reason match.PointReason) *Builder {
	for i := 0; i < n; i++ {
		b.Add(match.TypePointUs, match.Point{Reason: reason})
	}
	return b
}

// Them appends n POINT_OPPONENT events with reason.
func (b *Builder) Them(n int, reason match.PointReason) *Builder {
	for i := 0; i < n; i++ {
		b.Add(match.TypePointOpponent, match.Point{Reason: reason})
	}
	return b
}

// Reception appends RECEPTION_EVAL.
func (b *Builder) Reception(value int, playerID string) *Builder {
	return b.Add(match.TypeReceptionEval, match.ReceptionEval{Value: value, PlayerID: playerID})
}

// SetEnd appends SET_END.
func (b *Builder) SetEnd(set int, winner match.TeamSide, home, away int) *Builder {
	return b.Add(match.TypeSetEnd, match.SetEnd{SetNumber: set, Winner: winner, HomeScore: home, AwayScore: away})
}

// Sub appends SUBSTITUTION.
func (b *Builder) Sub(set int, out, in string) *Builder {
	return b.Add(match.TypeSubstitution, match.Substitution{SetNumber: set, PlayerOut: out, PlayerIn: in})
}

// Events returns a copy of the built log.
func (b *Builder) Events() []match.Event {
	return append([]match.Event(nil), b.events...)
}
