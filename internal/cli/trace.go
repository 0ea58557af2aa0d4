package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/engine"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Type     string // optional - filter to one event type
}

// TraceEvent is one event of the log with the state right after it.
type TraceEvent struct {
	Index   int            `json:"index"`
	Seq     int64          `json:"seq"`
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Auto    bool           `json:"auto,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
	Applied bool           `json:"applied"`
	After   TracePoint     `json:"after"`
}

// TracePoint is the headline of the state after an event.
type TracePoint struct {
	Set         int      `json:"set"`
	Home        int      `json:"home"`
	Away        int      `json:"away"`
	SetsHome    int      `json:"sets_home"`
	SetsAway    int      `json:"sets_away"`
	ServingSide string   `json:"serving_side"`
	Rotation    []string `json:"rotation,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	MatchID  string       `json:"match_id"`
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents int            `json:"total_events"`
	Auto        int            `json:"auto"`
	Ignored     int            `json:"ignored"`
	ByType      map[string]int `json:"by_type"`
	IsFinished  bool           `json:"is_finished"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <match-id>",
		Short: "Show the event log of a match with the state after each event",
		Long: `Fold a stored event log one event at a time and show the score,
serving side and rotation after each event.

Events the fold ignored are marked. Synthesized SET_END/SET_START events
are marked (auto).

Examples:
  vstats trace league-r3
  vstats trace league-r3 --type SUBSTITUTION
  vstats trace league-r3 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from VSTATS_DB_PATH)")
	cmd.Flags().StringVar(&opts.Type, "type", "", "filter to one event type")

	return cmd
}

func runTrace(opts *TraceOptions, matchID string, cmd *cobra.Command) error {
	if opts.Type != "" {
		if _, err := match.ParseType(opts.Type); err != nil {
			return WrapExitError(ExitCommandError, "invalid --type", err)
		}
	}

	st, err := store.Open(dbPath(opts.Database, opts.RootOptions))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	rec, err := st.LoadMatch(context.Background(), matchID)
	if errors.Is(err, sql.ErrNoRows) {
		return NewExitError(ExitCommandError, fmt.Sprintf("match not found: %s", matchID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load match", err)
	}
	events, err := rec.Events()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to decode event log", err)
	}

	result := buildTrace(rec.ID, rec.OurSide, events, opts.Type)

	out := newFormatter(opts.RootOptions, cmd)
	if out.JSON() {
		return out.Report(result, nil)
	}
	return outputTraceText(out, result)
}

// buildTrace folds events one at a time. When typeFilter is set only events
// of that type appear in the timeline; stats always cover the whole log.
func buildTrace(matchID string, ourSide match.TeamSide, events []match.Event, typeFilter string) TraceResult {
	result := TraceResult{
		MatchID:  matchID,
		Timeline: []TraceEvent{},
		Stats:    TraceStats{TotalEvents: len(events), ByType: map[string]int{}},
	}

	f := engine.NewFolder(matchID, ourSide, nil, nil)
	for i, e := range events {
		applied := f.Apply(e)
		s := f.State()

		result.Stats.ByType[string(e.Type)]++
		if e.Auto {
			result.Stats.Auto++
		}
		if !applied {
			result.Stats.Ignored++
		}
		result.Stats.IsFinished = s.IsMatchFinished

		if typeFilter != "" && string(e.Type) != typeFilter {
			continue
		}
		result.Timeline = append(result.Timeline, TraceEvent{
			Index:   i,
			Seq:     e.Seq,
			ID:      e.ID,
			Type:    string(e.Type),
			Auto:    e.Auto,
			Payload: payloadMap(e.Payload),
			Applied: applied,
			After: TracePoint{
				Set:         s.CurrentSet,
				Home:        s.HomeScore,
				Away:        s.AwayScore,
				SetsHome:    s.SetsWonHome,
				SetsAway:    s.SetsWonAway,
				ServingSide: string(s.ServingSide),
				Rotation:    s.Rotation,
			},
		})
	}
	return result
}

// payloadMap converts a payload to a plain map via its JSON form.
func payloadMap(p match.Payload) map[string]any {
	data, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil || len(m) == 0 {
		return nil
	}
	return m
}

// outputTraceText outputs the trace result as text.
func outputTraceText(out *OutputFormatter, result TraceResult) error {
	w := out.Writer

	fmt.Fprintf(w, "Trace for Match: %s\n", result.MatchID)
	fmt.Fprintf(w, "Status: %s\n", finishedStatus(result.Stats.IsFinished))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	} else {
		for _, event := range result.Timeline {
			formatTimelineEvent(w, event, out.Verbose)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Synthesized:  %d\n", result.Stats.Auto)
	fmt.Fprintf(w, "  Ignored:      %d\n", result.Stats.Ignored)
	types := make([]string, 0, len(result.Stats.ByType))
	for t := range result.Stats.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(w, "  %-20s %d\n", t+":", result.Stats.ByType[t])
	}

	return nil
}

// formatTimelineEvent formats a single timeline event for text output.
func formatTimelineEvent(w io.Writer, event TraceEvent, verbose bool) {
	marks := ""
	if event.Auto {
		marks += " (auto)"
	}
	if !event.Applied {
		marks += " (ignored)"
	}
	fmt.Fprintf(w, "  [%d] %s%s %s  -> set %d %d-%d\n",
		event.Seq, event.Type, marks, formatArgs(event.Payload),
		event.After.Set, event.After.Home, event.After.Away)
	if verbose {
		fmt.Fprintf(w, "       ID: %s\n", truncateID(event.ID))
		fmt.Fprintf(w, "       Serving: %s  Sets: %d-%d\n", event.After.ServingSide, event.After.SetsHome, event.After.SetsAway)
		if len(event.After.Rotation) > 0 {
			fmt.Fprintf(w, "       Rotation: %s\n", strings.Join(event.After.Rotation, " "))
		}
	}
}

// formatArgs formats a map of args for display.
// Uses sorted keys to ensure deterministic output.
func formatArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, formatValue(args[k])))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// formatValue formats a single value for display, handling nested structures deterministically.
func formatValue(v any) string {
	switch val := v.(type) {
	case map[string]any:
		return formatArgs(val)
	case []any:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = formatValue(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case string:
		return val
	default:
		return fmt.Sprintf("%v", v)
	}
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}

// finishedStatus returns a human-readable match status.
func finishedStatus(finished bool) string {
	if finished {
		return "Finished"
	}
	return "In progress"
}
