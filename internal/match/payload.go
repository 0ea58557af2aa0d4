package match

import (
	"encoding/json"
	"fmt"
)

// Payload is the sealed sum of per-type event payloads. Only the types in
// this file implement it; Matches pairs each one with its event type(s).
type Payload interface {
	Validate() error
	payload()
}

// SetStart opens a set. SetNumber 0 means "the next set".
type SetStart struct {
	SetNumber int `json:"set_number,omitempty"`
}

// SetEnd closes a set.
type SetEnd struct {
	SetNumber int      `json:"set_number"`
	Winner    TeamSide `json:"winner"`
	HomeScore int      `json:"home_score"`
	AwayScore int      `json:"away_score"`
}

// Point awards a rally. The same payload serves POINT_US and POINT_OPPONENT.
type Point struct {
	Reason PointReason `json:"reason,omitempty"`
}

// ReceptionEval rates a reception on a 0..4 scale.
type ReceptionEval struct {
	Value    int    `json:"value"`
	PlayerID string `json:"player_id,omitempty"`
}

// Failed reports whether the reception was an error, which scores an ace for
// the opponent.
func (r ReceptionEval) Failed() bool {
	return r.Value == 0
}

// MaxReceptionValue is the best reception rating.
const MaxReceptionValue = 4

// RotationSlot is one court position and the player standing in it.
type RotationSlot struct {
	Position int    `json:"position"`
	PlayerID string `json:"player_id"`
}

// SetLineup declares the starting rotation for a set.
type SetLineup struct {
	SetNumber int            `json:"set_number"`
	Positions []RotationSlot `json:"positions"`
	LiberoID  string         `json:"libero_id,omitempty"`
}

// Rotation returns player ids ordered by position 1..6.
func (l SetLineup) Rotation() []string {
	ids := make([]string, CourtPositions)
	for _, slot := range l.Positions {
		if slot.Position >= 1 && slot.Position <= CourtPositions {
			ids[slot.Position-1] = slot.PlayerID
		}
	}
	return ids
}

// ServiceChoice records which side serves first in a set.
type ServiceChoice struct {
	SetNumber   int         `json:"set_number"`
	ServingSide ServingSide `json:"serving_side"`
}

// Substitution swaps PlayerOut for PlayerIn during a set.
type Substitution struct {
	SetNumber int    `json:"set_number"`
	PlayerOut string `json:"player_out"`
	PlayerIn  string `json:"player_in"`
}

func (SetStart) payload()      {}
func (SetEnd) payload()        {}
func (Point) payload()         {}
func (ReceptionEval) payload() {}
func (SetLineup) payload()     {}
func (ServiceChoice) payload() {}
func (Substitution) payload()  {}

func (p SetStart) Validate() error {
	if p.SetNumber < 0 || p.SetNumber > MaxSets {
		return fmt.Errorf("set_number %d out of range 0..%d", p.SetNumber, MaxSets)
	}
	return nil
}

func (p SetEnd) Validate() error {
	if err := validateSetNumber(p.SetNumber); err != nil {
		return err
	}
	if !p.Winner.Valid() {
		return fmt.Errorf("invalid winner %q", p.Winner)
	}
	if p.HomeScore < 0 || p.AwayScore < 0 {
		return fmt.Errorf("scores must be non-negative")
	}
	return nil
}

func (p Point) Validate() error {
	if !p.Reason.Valid() {
		return fmt.Errorf("unknown point reason %q", p.Reason)
	}
	return nil
}

func (p ReceptionEval) Validate() error {
	if p.Value < 0 || p.Value > MaxReceptionValue {
		return fmt.Errorf("reception value %d out of range 0..%d", p.Value, MaxReceptionValue)
	}
	return nil
}

func (p SetLineup) Validate() error {
	if err := validateSetNumber(p.SetNumber); err != nil {
		return err
	}
	if len(p.Positions) != CourtPositions {
		return fmt.Errorf("lineup must have %d positions, got %d", CourtPositions, len(p.Positions))
	}
	seenPos := make(map[int]bool, CourtPositions)
	seenPlayer := make(map[string]bool, CourtPositions)
	for _, slot := range p.Positions {
		if slot.Position < 1 || slot.Position > CourtPositions {
			return fmt.Errorf("position %d out of range 1..%d", slot.Position, CourtPositions)
		}
		if seenPos[slot.Position] {
			return fmt.Errorf("position %d declared twice", slot.Position)
		}
		if slot.PlayerID == "" {
			return fmt.Errorf("position %d has no player", slot.Position)
		}
		if seenPlayer[slot.PlayerID] {
			return fmt.Errorf("player %s declared twice", slot.PlayerID)
		}
		seenPos[slot.Position] = true
		seenPlayer[slot.PlayerID] = true
	}
	if p.LiberoID != "" && seenPlayer[p.LiberoID] {
		return fmt.Errorf("libero %s cannot also hold a rotation position", p.LiberoID)
	}
	return nil
}

func (p ServiceChoice) Validate() error {
	if err := validateSetNumber(p.SetNumber); err != nil {
		return err
	}
	if !p.ServingSide.Valid() {
		return fmt.Errorf("invalid serving side %q", p.ServingSide)
	}
	return nil
}

func (p Substitution) Validate() error {
	if err := validateSetNumber(p.SetNumber); err != nil {
		return err
	}
	if p.PlayerOut == "" || p.PlayerIn == "" {
		return fmt.Errorf("player_out and player_in are required")
	}
	if p.PlayerOut == p.PlayerIn {
		return fmt.Errorf("player_out and player_in must differ")
	}
	return nil
}

func validateSetNumber(n int) error {
	if n < 1 || n > MaxSets {
		return fmt.Errorf("set_number %d out of range 1..%d", n, MaxSets)
	}
	return nil
}

// Matches reports whether payload p is the payload type for event type t.
func Matches(t Type, p Payload) bool {
	switch p.(type) {
	case SetStart:
		return t == TypeSetStart
	case SetEnd:
		return t == TypeSetEnd
	case Point:
		return t == TypePointUs || t == TypePointOpponent
	case ReceptionEval:
		return t == TypeReceptionEval
	case SetLineup:
		return t == TypeSetLineup
	case ServiceChoice:
		return t == TypeSetServiceChoice
	case Substitution:
		return t == TypeSubstitution
	}
	return false
}

// CheckPayload verifies p belongs to t and is internally valid.
func CheckPayload(t Type, p Payload) error {
	if p == nil {
		return fmt.Errorf("%s: payload is required", t)
	}
	if !Matches(t, p) {
		return fmt.Errorf("%s: payload %T does not belong to this event type", t, p)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%s: %w", t, err)
	}
	return nil
}

// DecodePayload decodes raw JSON into the payload type for t.
func DecodePayload(t Type, raw json.RawMessage) (Payload, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	switch t {
	case TypeSetStart:
		return decodeInto[SetStart](raw)
	case TypeSetEnd:
		return decodeInto[SetEnd](raw)
	case TypePointUs, TypePointOpponent:
		return decodeInto[Point](raw)
	case TypeReceptionEval:
		return decodeInto[ReceptionEval](raw)
	case TypeSetLineup:
		return decodeInto[SetLineup](raw)
	case TypeSetServiceChoice:
		return decodeInto[ServiceChoice](raw)
	case TypeSubstitution:
		return decodeInto[Substitution](raw)
	}
	return nil, fmt.Errorf("unknown event type %q", t)
}

func decodeInto[P Payload](raw json.RawMessage) (Payload, error) {
	var p P
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode %T: %w", p, err)
	}
	return p, nil
}
