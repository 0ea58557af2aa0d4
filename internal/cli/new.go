package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/store"
)

// NewOptions holds flags for the new command.
type NewOptions struct {
	*RootOptions
	Database string
	Home     string
	Away     string
	OurSide  string
}

// NewMatchResult is the created match.
type NewMatchResult struct {
	MatchID  string `json:"match_id"`
	OurSide  string `json:"our_side"`
	HomeName string `json:"home_name"`
	AwayName string `json:"away_name"`
}

// NewNewCommand creates the new command.
func NewNewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "new <match-id>",
		Short: "Create a match with an empty event log",
		Long: `Create a match row with an empty event log.

Exit codes:
  0 - Match created
  2 - Command error (match exists, invalid side, database error)

Examples:
  vstats new league-r3 --home "Club Norte" --away "Club Sur"
  vstats new friendly --our-side away --db ./season.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from VSTATS_DB_PATH)")
	cmd.Flags().StringVar(&opts.Home, "home", "Home", "home team name")
	cmd.Flags().StringVar(&opts.Away, "away", "Away", "away team name")
	cmd.Flags().StringVar(&opts.OurSide, "our-side", "home", "side of the tracked team (home|away)")

	return cmd
}

func runNew(opts *NewOptions, matchID string, cmd *cobra.Command) error {
	side, err := match.ParseTeamSide(opts.OurSide)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --our-side", err)
	}

	st, err := store.Open(dbPath(opts.Database, opts.RootOptions))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	m := store.Match{ID: matchID, OurSide: side, HomeName: opts.Home, AwayName: opts.Away}
	if err := st.CreateMatch(context.Background(), m); err != nil {
		if errors.Is(err, store.ErrMatchExists) {
			return NewExitError(ExitCommandError, fmt.Sprintf("match %s already exists", matchID))
		}
		return WrapExitError(ExitCommandError, "failed to create match", err)
	}

	out := newFormatter(opts.RootOptions, cmd)
	if out.JSON() {
		return out.Success(NewMatchResult{
			MatchID:  matchID,
			OurSide:  string(side),
			HomeName: opts.Home,
			AwayName: opts.Away,
		})
	}
	return out.Success(fmt.Sprintf("Created match %s: %s vs %s (tracking %s)", matchID, opts.Home, opts.Away, side))
}
