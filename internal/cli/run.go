package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/engine"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/feed"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/outbox"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/roster"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Roster   string
	FeedAddr string

	// IDGenerator allows overriding the event id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator engine.IDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return NewRunCommandWith(&RunOptions{RootOptions: rootOpts})
}

// NewRunCommandWith creates the run command around prepared options.
func NewRunCommandWith(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <match-id>",
		Short: "Score a match interactively",
		Long: `Open a scoring session for a stored match and read commands from stdin.

Every change is persisted in the background; the database always holds the
latest event log. With --feed, the derived state is broadcast over a
websocket at ws://ADDR/feed after every change.

Type "help" in the session for the command list.

Examples:
  vstats run league-r3 --roster ./club.yaml
  vstats run league-r3 --feed :8080
  vstats run league-r3 --format json < commands.txt`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from VSTATS_DB_PATH)")
	cmd.Flags().StringVar(&opts.Roster, "roster", "", "roster file (default from VSTATS_ROSTER_PATH)")
	cmd.Flags().StringVar(&opts.FeedAddr, "feed", "", "listen address for the websocket feed (default from VSTATS_FEED_ADDR)")

	return cmd
}

func runSession(opts *RunOptions, matchID string, cmd *cobra.Command) error {
	cfg := opts.Config

	st, err := store.Open(dbPath(opts.Database, opts.RootOptions))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	rec, err := st.LoadMatch(ctx, matchID)
	if errors.Is(err, sql.ErrNoRows) {
		return NewExitError(ExitCommandError, fmt.Sprintf("match %s not found (create it with vstats new)", matchID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load match", err)
	}
	events, err := rec.Events()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to decode event log", err)
	}

	players, err := loadRoster(opts.Roster, cfg.RosterPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load roster", err)
	}

	queue := outbox.NewQueue()
	worker := outbox.NewWorker(queue, st, outbox.Options{
		MaxTries:        cfg.Outbox.MaxTries,
		InitialInterval: cfg.Outbox.InitialInterval,
		MaxInterval:     cfg.Outbox.MaxInterval,
	})
	workerDone := make(chan error, 1)
	go func() { workerDone <- worker.Run(ctx) }()

	ids := opts.IDGenerator
	if ids == nil {
		ids = engine.UUIDv7Generator{}
	}
	session := engine.NewSession(
		engine.WithIDGenerator(ids),
		engine.WithPersister(queue),
		engine.WithRoster(players),
	)

	addr := opts.FeedAddr
	if addr == "" {
		addr = cfg.Feed.Addr
	}
	if addr != "" {
		stop := serveFeed(session, addr)
		defer stop()
	}

	session.LoadMatch(rec.ID, events, rec.OurSide, engine.TeamNames{Home: rec.HomeName, Away: rec.AwayName})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	c := &console{session: session, out: cmd.OutOrStdout(), format: opts.Format}
	if opts.Format != "json" {
		fmt.Fprintf(cmd.OutOrStdout(), "Scoring %s: %s vs %s. Type help for commands.\n", rec.ID, rec.HomeName, rec.AwayName)
		c.printScore()
	}
	loopErr := c.loop(ctx, cmd.InOrStdin())

	// Let the worker flush what the session produced before closing.
	queue.Close()
	if err := <-workerDone; err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("outbox worker stopped", "error", err)
	}
	slog.Info("session closed",
		"match_id", rec.ID,
		"events", len(session.Events()),
		"delivered", worker.Delivered(),
		"dropped", worker.Dropped(),
	)

	if loopErr != nil {
		return WrapExitError(ExitFailure, "failed to read commands", loopErr)
	}
	if worker.Dropped() > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d snapshot(s) could not be persisted", worker.Dropped()))
	}
	return nil
}

// loadRoster reads the roster from the flag path or the configured one.
// Without either the session runs with an empty roster, which refuses every
// substitution.
func loadRoster(flag, configured string) (match.Roster, error) {
	path := flag
	if path == "" {
		path = configured
	}
	if path == "" {
		slog.Warn("no roster configured, substitutions will be refused")
		return match.Roster{}, nil
	}
	f, err := roster.LoadFile(path)
	if err != nil {
		return nil, err
	}
	slog.Info("roster loaded", "path", path, "team", f.Team, "players", len(f.Players))
	return f.Roster(), nil
}

// serveFeed starts the websocket feed and subscribes it to the session.
// The returned function shuts both down.
func serveFeed(session *engine.Session, addr string) func() {
	hub := feed.NewHub()
	hub.SetRoles(session.Roster().RoleOf)
	unsubscribe := session.Subscribe(hub.Listener())

	mux := http.NewServeMux()
	mux.Handle("/feed", hub)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		slog.Info("feed listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("feed server failed", "addr", addr, "error", err)
		}
	}()

	return func() {
		unsubscribe()
		hub.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Warn("feed shutdown", "error", err)
		}
	}
}
