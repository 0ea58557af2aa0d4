package store

import (
	"context"
	"fmt"
)

// Revision returns the stored revision of a match.
// Used on load to resume the session clock past everything already written.
//
// Returns an error wrapping sql.ErrNoRows if the match does not exist.
func (s *Store) Revision(ctx context.Context, id string) (int64, error) {
	var rev int64
	err := s.db.QueryRowContext(ctx, `
		SELECT revision FROM matches WHERE id = ?
	`, id).Scan(&rev)
	if err != nil {
		return 0, fmt.Errorf("get revision %s: %w", id, err)
	}
	return rev, nil
}

// MaxRevision returns the highest revision across all matches, or 0 for an
// empty store.
func (s *Store) MaxRevision(ctx context.Context) (int64, error) {
	var rev int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(revision), 0) FROM matches
	`).Scan(&rev)
	if err != nil {
		return 0, fmt.Errorf("get max revision: %w", err)
	}
	return rev, nil
}
