package eventlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
)

func ev(id string, t match.Type) match.Event {
	return match.Event{ID: id, Type: t}
}

func auto(id string, t match.Type) match.Event {
	return match.Event{ID: id, Type: t, Auto: true}
}

func ids(events []match.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestLog_AppendUndoRedo(t *testing.T) {
	l := New()
	l.Append(ev("1", match.TypeSetStart))
	l.Append(ev("2", match.TypePointUs))
	l.Append(ev("3", match.TypePointOpponent))

	undone, ok := l.Undo()
	require.True(t, ok)
	assert.Equal(t, []string{"3"}, ids(undone))
	assert.Equal(t, []string{"1", "2"}, ids(l.Events()))
	assert.True(t, l.CanRedo())

	redone, ok := l.Redo()
	require.True(t, ok)
	assert.Equal(t, []string{"3"}, ids(redone))
	assert.Equal(t, []string{"1", "2", "3"}, ids(l.Events()))
	assert.False(t, l.CanRedo())
}

func TestLog_AppendAfterUndoClearsRedo(t *testing.T) {
	l := New(ev("1", match.TypeSetStart), ev("2", match.TypePointUs))

	_, ok := l.Undo()
	require.True(t, ok)
	require.Equal(t, 1, l.RedoDepth())

	l.Append(ev("3", match.TypePointOpponent))
	assert.False(t, l.CanRedo())

	_, ok = l.Redo()
	assert.False(t, ok)
	assert.Equal(t, []string{"1", "3"}, ids(l.Events()))
}

func TestLog_UndoMovesAutoEventsWithTheirAction(t *testing.T) {
	l := New(ev("1", match.TypeSetStart))
	l.Append(ev("2", match.TypePointUs), auto("3", match.TypeSetEnd), auto("4", match.TypeSetStart))

	undone, ok := l.Undo()
	require.True(t, ok)
	assert.Equal(t, []string{"2", "3", "4"}, ids(undone))
	assert.Equal(t, []string{"1"}, ids(l.Events()))

	_, ok = l.Redo()
	require.True(t, ok)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(l.Events()))
}

func TestLog_MultipleUndoRedoIsStack(t *testing.T) {
	l := New()
	for _, id := range []string{"a", "b", "c"} {
		l.Append(ev(id, match.TypePointUs))
	}

	l.Undo()
	l.Undo()
	assert.Equal(t, []string{"a"}, ids(l.Events()))

	l.Redo()
	assert.Equal(t, []string{"a", "b"}, ids(l.Events()))
	l.Redo()
	assert.Equal(t, []string{"a", "b", "c"}, ids(l.Events()))
}

func TestLog_UndoEmpty(t *testing.T) {
	l := New()
	_, ok := l.Undo()
	assert.False(t, ok)
	assert.False(t, l.CanUndo())
}

func TestLog_LeadingAutoEventsUndoAsOneAction(t *testing.T) {
	l := New(auto("1", match.TypeSetEnd), auto("2", match.TypeSetStart))
	undone, ok := l.Undo()
	require.True(t, ok)
	assert.Equal(t, []string{"1", "2"}, ids(undone))
	assert.Equal(t, 0, l.Len())
}

func TestLog_EventsReturnsCopy(t *testing.T) {
	l := New(ev("1", match.TypeSetStart))
	events := l.Events()
	events[0].ID = "mutated"
	assert.Equal(t, "1", l.Events()[0].ID)
}

func TestLog_Reset(t *testing.T) {
	l := New(ev("1", match.TypeSetStart), ev("2", match.TypePointUs))
	l.Undo()
	l.Reset()
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 0, l.Actions())
	assert.False(t, l.CanUndo())
	assert.False(t, l.CanRedo())
}

func TestLog_AppendedBatchIsOneAction(t *testing.T) {
	l := New(ev("1", match.TypeSetStart))
	l.Append(ev("2", match.TypeSubstitution), ev("3", match.TypeSubstitution))
	require.Equal(t, 2, l.Actions())

	undone, ok := l.Undo()
	require.True(t, ok)
	assert.Equal(t, []string{"2", "3"}, ids(undone))
	assert.Equal(t, []string{"1"}, ids(l.Events()))

	redone, ok := l.Redo()
	require.True(t, ok)
	assert.Equal(t, []string{"2", "3"}, ids(redone))

	undone, ok = l.Undo()
	require.True(t, ok)
	assert.Equal(t, []string{"2", "3"}, ids(undone), "redo keeps the action whole")
}

func TestLog_NewRecoversBatchedActions(t *testing.T) {
	second := ev("3", match.TypeSubstitution)
	second.Batched = true
	l := New(ev("1", match.TypeSetStart), ev("2", match.TypeSubstitution), second, ev("4", match.TypePointUs), auto("5", match.TypeSetEnd))
	assert.Equal(t, 3, l.Actions())

	undone, ok := l.Undo()
	require.True(t, ok)
	assert.Equal(t, []string{"4", "5"}, ids(undone))

	undone, ok = l.Undo()
	require.True(t, ok)
	assert.Equal(t, []string{"2", "3"}, ids(undone))
	assert.Equal(t, []string{"1"}, ids(l.Events()))
}

