package store

import (
	"fmt"
	"time"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
)

// timeLayout is how timestamps are stored. Fixed-width so TEXT ordering is
// chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", v, err)
	}
	return t, nil
}

// marshalActions converts an event log to the TEXT stored in actions.
func marshalActions(events []match.Event) (string, error) {
	data, err := match.MarshalEvents(events)
	if err != nil {
		return "", fmt.Errorf("marshal actions: %w", err)
	}
	return string(data), nil
}

// unmarshalActions parses the actions column back into events.
func unmarshalActions(data string) ([]match.Event, error) {
	events, err := match.UnmarshalEvents([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal actions: %w", err)
	}
	return events, nil
}
