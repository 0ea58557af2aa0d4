// Package eventlog provides the append-only match event log with undo/redo.
//
// The log never edits an event. Undo moves the tail action to a redo buffer
// and redo moves it back; appending after an undo discards the redo buffer
// (linear history).
//
// An action is everything one Append call added: a user event plus the auto
// events synthesized right after it, or a committed substitution batch.
// Undo and redo always move whole actions so a single undo reverses a single
// user action.
package eventlog

import (
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
)

// Log is an ordered list of match events with a redo buffer.
// Not safe for concurrent use; a Log is owned by one session.
type Log struct {
	events  []match.Event
	actions []int           // length of each action in events, oldest first
	redo    [][]match.Event // stack of undone actions, last undone on top
}

// New creates a log seeded with events, which are copied. Action boundaries
// are recovered from the events: an event opens a new action unless it is
// auto or joins the previous event's action.
func New(events ...match.Event) *Log {
	l := &Log{}
	l.events = append(make([]match.Event, 0, len(events)), events...)
	for i, e := range l.events {
		if i > 0 && e.ContinuesAction() {
			l.actions[len(l.actions)-1]++
			continue
		}
		l.actions = append(l.actions, 1)
	}
	return l
}

// Append adds events to the tail as one action and clears the redo buffer.
func (l *Log) Append(events ...match.Event) {
	if len(events) == 0 {
		return
	}
	l.events = append(l.events, events...)
	l.actions = append(l.actions, len(events))
	l.redo = nil
}

// Undo moves the tail action to the redo buffer and returns it.
// Returns false if the log is empty.
func (l *Log) Undo() ([]match.Event, bool) {
	n := len(l.actions)
	if n == 0 {
		return nil, false
	}

	start := len(l.events) - l.actions[n-1]
	action := make([]match.Event, len(l.events)-start)
	copy(action, l.events[start:])
	l.events = l.events[:start]
	l.actions = l.actions[:n-1]
	l.redo = append(l.redo, action)
	return action, true
}

// Redo moves the most recently undone action back onto the log.
// Returns false if there is nothing to redo.
func (l *Log) Redo() ([]match.Event, bool) {
	n := len(l.redo)
	if n == 0 {
		return nil, false
	}
	action := l.redo[n-1]
	l.redo[n-1] = nil
	l.redo = l.redo[:n-1]
	l.events = append(l.events, action...)
	l.actions = append(l.actions, len(action))
	return action, true
}

// Reset empties the log and the redo buffer.
func (l *Log) Reset() {
	l.events = nil
	l.actions = nil
	l.redo = nil
}

// Events returns a copy of the log in order.
func (l *Log) Events() []match.Event {
	out := make([]match.Event, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of events in the log.
func (l *Log) Len() int {
	return len(l.events)
}

// CanUndo reports whether Undo would move anything.
func (l *Log) CanUndo() bool {
	return len(l.actions) > 0
}

// Actions returns the number of actions in the log.
func (l *Log) Actions() int {
	return len(l.actions)
}

// CanRedo reports whether Redo would move anything.
func (l *Log) CanRedo() bool {
	return len(l.redo) > 0
}

// RedoDepth returns the number of undone actions waiting in the buffer.
func (l *Log) RedoDepth() int {
	return len(l.redo)
}
