package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mattn/go-sqlite3"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/engine"
	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
)

// ErrMatchExists is returned by CreateMatch for a duplicate id.
var ErrMatchExists = errors.New("match already exists")

// CreateMatch inserts a new match with an empty event log at revision 0.
func (s *Store) CreateMatch(ctx context.Context, m Match) error {
	if !m.OurSide.Valid() {
		return fmt.Errorf("create match %s: invalid our_side %q", m.ID, m.OurSide)
	}
	now := formatTime(s.now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO matches (id, our_side, home_name, away_name, actions, revision, created_at, updated_at)
		VALUES (?, ?, ?, ?, '[]', 0, ?, ?)
	`, m.ID, string(m.OurSide), m.HomeName, m.AwayName, now, now)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return fmt.Errorf("create match %s: %w", m.ID, ErrMatchExists)
		}
		return fmt.Errorf("create match %s: %w", m.ID, err)
	}
	return nil
}

// SaveActions replaces the stored event log if revision is newer than the
// stored one. It returns false when the write was stale and ignored.
// Returns an error wrapping sql.ErrNoRows if the match does not exist.
func (s *Store) SaveActions(ctx context.Context, id string, revision int64, actions []byte) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE matches
		SET actions = ?, revision = ?, updated_at = ?
		WHERE id = ? AND revision < ?
	`, string(actions), revision, formatTime(s.now()), id, revision)
	if err != nil {
		return false, fmt.Errorf("save actions %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("save actions %s: %w", id, err)
	}
	if n > 0 {
		return true, nil
	}

	stored, err := s.Revision(ctx, id)
	if err != nil {
		return false, fmt.Errorf("save actions: %w", err)
	}
	slog.Debug("stale actions ignored", "match_id", id, "revision", revision, "stored_revision", stored)
	return false, nil
}

// WriteSnapshot upserts a session snapshot: the match row is created if
// missing and otherwise updated only if the snapshot revision is newer.
// Stale snapshots are ignored without error.
func (s *Store) WriteSnapshot(ctx context.Context, snap engine.Snapshot) error {
	actions, err := marshalActions(snap.Events)
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", snap.MatchID, err)
	}
	ourSide := snap.OurSide
	if ourSide == "" {
		ourSide = match.Home
	}
	now := formatTime(s.now())

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO matches (id, our_side, home_name, away_name, actions, revision, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			our_side = excluded.our_side,
			home_name = excluded.home_name,
			away_name = excluded.away_name,
			actions = excluded.actions,
			revision = excluded.revision,
			updated_at = excluded.updated_at
		WHERE excluded.revision > matches.revision
	`,
		snap.MatchID,
		string(ourSide),
		snap.Names.Home,
		snap.Names.Away,
		actions,
		snap.Revision,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", snap.MatchID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		slog.Debug("stale snapshot ignored", "match_id", snap.MatchID, "revision", snap.Revision)
	}
	return nil
}

// DeleteMatch removes a match. Deleting a missing match is not an error.
func (s *Store) DeleteMatch(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM matches WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete match %s: %w", id, err)
	}
	return nil
}
