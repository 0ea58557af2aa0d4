package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/engine"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/store"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/testutil"
)

const testRoster = "../roster/testdata/club.yaml"

// seedMatch creates a database with one match holding events.
func seedMatch(t *testing.T, id string, events []match.Event) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "vstats.db")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	st.SetNow(testutil.NewDeterministicClock().Now)

	ctx := context.Background()
	require.NoError(t, st.CreateMatch(ctx, store.Match{ID: id, OurSide: match.Home, HomeName: "Norte", AwayName: "Sur"}))
	if len(events) > 0 {
		require.NoError(t, st.WriteSnapshot(ctx, engine.Snapshot{
			MatchID:  id,
			Revision: int64(len(events)),
			OurSide:  match.Home,
			Names:    engine.TeamNames{Home: "Norte", Away: "Sur"},
			Events:   events,
		}))
	}
	return dbPath
}

// storedEvents reads a match's log back.
func storedEvents(t *testing.T, dbPath, id string) []match.Event {
	t.Helper()
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	rec, err := st.LoadMatch(context.Background(), id)
	require.NoError(t, err)
	events, err := rec.Events()
	require.NoError(t, err)
	return events
}

func eventTypes(events []match.Event) []match.Type {
	types := make([]match.Type, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}

// execute runs cmd with args and stdin, returning stdout and the error.
func execute(cmd *cobra.Command, stdin string, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// firstSet is a log whose first set home won 25-20.
func firstSet() []match.Event {
	return testutil.NewBuilder().
		SetStart(1).
		ServiceChoice(1, match.Our).
		Us(25, match.ReasonAttack).
		Them(20, match.ReasonUnspecified).
		SetEnd(1, match.Home, 25, 20).
		Events()
}
