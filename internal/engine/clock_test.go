package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/testutil"
)

func TestClock_Next(t *testing.T) {
	c := NewClock()
	assert.Equal(t, int64(0), c.Current())
	assert.Equal(t, int64(1), c.Next())
	assert.Equal(t, int64(2), c.Next())
	assert.Equal(t, int64(2), c.Current())
}

func TestClock_AdvanceNeverRewinds(t *testing.T) {
	c := NewClock()
	c.Advance(42)
	assert.Equal(t, int64(42), c.Current())

	c.Advance(5)
	assert.Equal(t, int64(42), c.Current())
	assert.Equal(t, int64(43), c.Next())
}

func TestClock_SnapshotRevisionFollowsEvents(t *testing.T) {
	p := &recordingPersister{}
	s := newTestSession(t, match.Home, WithPersister(p))
	mustAdd(t, s, match.TypeSetStart, match.SetStart{SetNumber: 1})

	require.NotEmpty(t, p.snapshots)
	last := p.snapshots[len(p.snapshots)-1]
	events := s.Events()
	assert.Greater(t, last.Revision, events[len(events)-1].Seq)
	assert.Equal(t, s.Clock().Current(), last.Revision)
}

func TestClock_LoadedLogAdvancesClock(t *testing.T) {
	s := newTestSession(t, match.Home)
	s.LoadMatch("m1", testutil.NewBuilder().SetStart(1).Us(3, match.ReasonAce).Events(), match.Home, TeamNames{})

	out := mustAdd(t, s, match.TypePointUs, match.Point{})
	assert.Equal(t, int64(5), out.Events[0].Seq)
}

func TestClock_Concurrent(t *testing.T) {
	c := NewClock()
	const workers, calls = 50, 100

	var wg sync.WaitGroup
	seqs := make(chan int64, workers*calls)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range calls {
				seqs <- c.Next()
			}
		}()
	}
	wg.Wait()
	close(seqs)

	seen := make(map[int64]bool)
	for seq := range seqs {
		assert.False(t, seen[seq], "seq %d handed out twice", seq)
		seen[seq] = true
	}
	assert.Equal(t, int64(workers*calls), c.Current())
}
