package match

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type identifies the kind of match event.
type Type string

// Set lifecycle events.
const (
	// TypeSetStart opens a set. Lineup and libero must be declared again.
	TypeSetStart Type = "SET_START"
	// TypeSetEnd closes a set with a winner and final score.
	TypeSetEnd Type = "SET_END"
	// TypeSetLineup declares the six starting positions and the libero.
	TypeSetLineup Type = "SET_LINEUP"
	// TypeSetServiceChoice records which side serves first in a set.
	TypeSetServiceChoice Type = "SET_SERVICE_CHOICE"
)

// Rally events.
const (
	// TypePointUs awards a rally to our team.
	TypePointUs Type = "POINT_US"
	// TypePointOpponent awards a rally to the opponent.
	TypePointOpponent Type = "POINT_OPPONENT"
	// TypeReceptionEval rates one of our receptions; 0 is a failed reception.
	TypeReceptionEval Type = "RECEPTION_EVAL"
)

// Bench events.
const (
	// TypeSubstitution swaps a player on court for one on the bench.
	TypeSubstitution Type = "SUBSTITUTION"
)

// Types lists every event type.
var Types = []Type{
	TypeSetStart,
	TypeSetEnd,
	TypePointUs,
	TypePointOpponent,
	TypeReceptionEval,
	TypeSetLineup,
	TypeSetServiceChoice,
	TypeSubstitution,
}

// Valid reports whether t is a known event type.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// ParseType parses an event type name.
func ParseType(v string) (Type, error) {
	t := Type(v)
	if !t.Valid() {
		return "", fmt.Errorf("unknown event type %q", v)
	}
	return t, nil
}

// Event is one immutable entry of the match log.
type Event struct {
	// ID is a unique identifier assigned when the event is created.
	ID string `json:"id"`
	// MatchID is the match this event belongs to.
	MatchID string `json:"match_id"`
	// Seq is a logical clock value. Ordering uses log position, never Seq or
	// Timestamp; Seq only helps correlate log lines and stored rows.
	Seq int64 `json:"seq"`
	// Timestamp is when the event was created.
	Timestamp time.Time `json:"timestamp"`
	// Type identifies the kind of event.
	Type Type `json:"type"`
	// Payload carries type-specific data. Its concrete type always matches Type.
	Payload Payload `json:"payload"`
	// Auto marks events synthesized by the completion evaluator rather than
	// entered by a user. Undo treats an event and the auto events that
	// follow it as one action.
	Auto bool `json:"auto,omitempty"`
	// Batched marks a user event committed in the same action as the event
	// before it (the second and later substitutions of a batch).
	Batched bool `json:"batched,omitempty"`
}

// ContinuesAction reports whether e belongs to the action of the event
// before it in the log.
func (e Event) ContinuesAction() bool {
	return e.Auto || e.Batched
}

type eventJSON struct {
	ID        string          `json:"id"`
	MatchID   string          `json:"match_id"`
	Seq       int64           `json:"seq"`
	Timestamp time.Time       `json:"timestamp"`
	Type      Type            `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Auto      bool            `json:"auto,omitempty"`
	Batched   bool            `json:"batched,omitempty"`
}

// UnmarshalJSON decodes the payload into the concrete type for Type.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw eventJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	payload, err := DecodePayload(raw.Type, raw.Payload)
	if err != nil {
		return fmt.Errorf("event %s: %w", raw.ID, err)
	}
	*e = Event{
		ID:        raw.ID,
		MatchID:   raw.MatchID,
		Seq:       raw.Seq,
		Timestamp: raw.Timestamp,
		Type:      raw.Type,
		Payload:   payload,
		Auto:      raw.Auto,
		Batched:   raw.Batched,
	}
	return nil
}

// IsScoring reports whether the event can award a point.
func (e Event) IsScoring() bool {
	switch e.Type {
	case TypePointUs, TypePointOpponent:
		return true
	case TypeReceptionEval:
		p, ok := e.Payload.(ReceptionEval)
		return ok && p.Failed()
	}
	return false
}

// MarshalEvents encodes an ordered event list as a JSON array.
// A nil list encodes as [] so stored rows are never null.
func MarshalEvents(events []Event) ([]byte, error) {
	if events == nil {
		events = []Event{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("marshal events: %w", err)
	}
	return data, nil
}

// UnmarshalEvents decodes a JSON array of events, preserving order.
// Returns an empty (non-nil) slice for an empty array.
func UnmarshalEvents(data []byte) ([]Event, error) {
	events := []Event{}
	if len(data) == 0 {
		return events, nil
	}
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("unmarshal events: %w", err)
	}
	return events, nil
}
