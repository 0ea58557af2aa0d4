package outbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/engine"
)

var _ engine.Persister = (*Queue)(nil)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	for i := int64(1); i <= 3; i++ {
		require.True(t, q.Enqueue(Task{MatchID: "m1", Revision: i}))
	}
	assert.Equal(t, 3, q.Len())

	for i := int64(1); i <= 3; i++ {
		task, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, i, task.Revision)
	}
	_, ok := q.TryDequeue()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_SignalsOnEnqueue(t *testing.T) {
	q := NewQueue()
	q.Persist(engine.Snapshot{MatchID: "m1", Revision: 1})
	q.Persist(engine.Snapshot{MatchID: "m1", Revision: 2})

	select {
	case <-q.Wait():
	default:
		t.Fatal("expected a pending signal")
	}
	// Signals coalesce.
	select {
	case <-q.Wait():
		t.Fatal("expected a single coalesced signal")
	default:
	}
	assert.Equal(t, 2, q.Len())
}

func TestQueue_Close(t *testing.T) {
	q := NewQueue()
	require.True(t, q.Enqueue(Task{MatchID: "m1", Revision: 1}))
	q.Close()
	q.Close()

	assert.True(t, q.Closed())
	assert.False(t, q.Enqueue(Task{MatchID: "m1", Revision: 2}))
	q.Persist(engine.Snapshot{MatchID: "m1", Revision: 3})
	assert.Equal(t, 1, q.Len(), "queued tasks survive close")

	_, open := <-q.Wait()
	assert.False(t, open)
}
