package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/engine"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	MatchID  string // optional - specific match only
}

// ReplayMatchResult holds the replay result for a single match.
type ReplayMatchResult struct {
	MatchID       string   `json:"match_id"`
	Events        int      `json:"events"`
	Ignored       []string `json:"ignored,omitempty"`
	Set           int      `json:"set"`
	HomeScore     int      `json:"home_score"`
	AwayScore     int      `json:"away_score"`
	SetsWonHome   int      `json:"sets_won_home"`
	SetsWonAway   int      `json:"sets_won_away"`
	IsFinished    bool     `json:"is_finished"`
	StateHash     string   `json:"state_hash,omitempty"`
	Deterministic bool     `json:"deterministic"`
	Error         string   `json:"error,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Matches          []ReplayMatchResult `json:"matches"`
	TotalMatches     int                 `json:"total_matches"`
	AllDeterministic bool                `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay stored event logs and verify determinism",
		Long: `Replay stored event logs to verify determinism and report the derived score.

Each log is folded twice and the canonical state hashes compared, then
folded event by event checking the incremental state against a full fold
of every prefix. Events the fold skipped (a point before any SET_START, a
duplicate SET_END) are listed.

Exit codes:
  0 - All matches replay deterministically
  1 - Determinism verification failed
  2 - Command error (database not found, etc.)

Examples:
  vstats replay
  vstats replay --match league-r3
  vstats replay --db ./season.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from VSTATS_DB_PATH)")
	cmd.Flags().StringVar(&opts.MatchID, "match", "", "replay specific match only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(dbPath(opts.Database, opts.RootOptions))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var records []store.Record
	if opts.MatchID != "" {
		rec, err := st.LoadMatch(ctx, opts.MatchID)
		if errors.Is(err, sql.ErrNoRows) {
			return NewExitError(ExitCommandError, fmt.Sprintf("match not found: %s", opts.MatchID))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load match", err)
		}
		records = []store.Record{rec}
	} else {
		records, err = st.ListMatches(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list matches", err)
		}
	}

	result := ReplayResult{
		Matches:          make([]ReplayMatchResult, 0, len(records)),
		TotalMatches:     len(records),
		AllDeterministic: true,
	}
	for _, rec := range records {
		mr := replayMatch(rec)
		result.Matches = append(result.Matches, mr)
		if !mr.Deterministic {
			result.AllDeterministic = false
		}
	}

	out := newFormatter(opts.RootOptions, cmd)
	if out.JSON() {
		var fail *CLIError
		if !result.AllDeterministic {
			fail = &CLIError{Code: "E_DETERMINISM", Message: "determinism verification failed"}
		}
		return out.Report(result, fail)
	}
	if len(records) == 0 {
		fmt.Fprintln(out.Writer, "No matches found in database.")
		return nil
	}
	return outputReplayText(out, result)
}

// replayMatch replays one stored log. Decode and replay failures are
// reported as a non-deterministic result rather than aborting the run.
func replayMatch(rec store.Record) ReplayMatchResult {
	mr := ReplayMatchResult{MatchID: rec.ID}

	events, err := rec.Events()
	if err != nil {
		mr.Error = err.Error()
		return mr
	}
	mr.Events = len(events)

	replayed, err := engine.Replay(events, rec.OurSide, nil)
	if err != nil {
		mr.Error = err.Error()
		return mr
	}

	s := replayed.State
	mr.Deterministic = true
	mr.Ignored = replayed.Ignored
	mr.StateHash = replayed.Hash
	mr.Set = s.CurrentSet
	mr.HomeScore = s.HomeScore
	mr.AwayScore = s.AwayScore
	mr.SetsWonHome = s.SetsWonHome
	mr.SetsWonAway = s.SetsWonAway
	mr.IsFinished = s.IsMatchFinished
	return mr
}

// outputReplayText outputs the replay result as text.
func outputReplayText(out *OutputFormatter, result ReplayResult) error {
	w := out.Writer

	fmt.Fprintf(w, "Replay Summary: %d match(es)\n", result.TotalMatches)
	fmt.Fprintln(w)

	for _, m := range result.Matches {
		status := "✓"
		if !m.Deterministic {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Match: %s\n", status, m.MatchID)
		if m.Error != "" {
			fmt.Fprintf(w, "  Error: %s\n", m.Error)
			fmt.Fprintln(w)
			continue
		}

		fmt.Fprintf(w, "  Events: %d, set %d at %d-%d, sets %d-%d\n",
			m.Events, m.Set, m.HomeScore, m.AwayScore, m.SetsWonHome, m.SetsWonAway)
		if m.IsFinished {
			fmt.Fprintln(w, "  Finished")
		}
		if len(m.Ignored) > 0 {
			fmt.Fprintf(w, "  Ignored: %d event(s)\n", len(m.Ignored))
		}
		if out.Verbose {
			fmt.Fprintf(w, "  State hash: %s\n", m.StateHash)
			for _, id := range m.Ignored {
				fmt.Fprintf(w, "    ignored %s\n", id)
			}
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All matches verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
