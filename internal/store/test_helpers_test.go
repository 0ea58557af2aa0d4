package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/testutil"
)

// createTestStore creates a new store in a temp dir with a stepping clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	s.SetNow(testutil.NewDeterministicClock().Now)
	t.Cleanup(func() { s.Close() })
	return s
}

// fixedNow returns a clock that always reads t.
func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
