package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
)

// Match is the stored header of a match.
type Match struct {
	ID       string
	OurSide  match.TeamSide
	HomeName string
	AwayName string
}

// Record is a stored match with its raw event log.
type Record struct {
	Match
	Actions   []byte
	Revision  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Events decodes the stored event log.
func (r Record) Events() ([]match.Event, error) {
	return unmarshalActions(string(r.Actions))
}

// LoadMatch returns a stored match. The actions bytes are exactly what was
// last written.
//
// Returns an error wrapping sql.ErrNoRows if the match does not exist.
func (s *Store) LoadMatch(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, our_side, home_name, away_name, actions, revision, created_at, updated_at
		FROM matches
		WHERE id = ?
	`, id)
	rec, err := scanRecord(row)
	if err != nil {
		return Record{}, fmt.Errorf("load match %s: %w", id, err)
	}
	return rec, nil
}

// ListMatches returns all matches, most recently updated first.
// Ties are broken by id for a stable order. Returns an empty (non-nil) slice
// when the store holds no matches.
func (s *Store) ListMatches(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, our_side, home_name, away_name, actions, revision, created_at, updated_at
		FROM matches
		ORDER BY updated_at DESC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return records, nil
}

// MatchExists reports whether a match with the given id is stored.
func (s *Store) MatchExists(ctx context.Context, id string) (bool, error) {
	_, err := s.Revision(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec                  Record
		ourSide, actions     string
		createdAt, updatedAt string
	)
	err := row.Scan(
		&rec.ID,
		&ourSide,
		&rec.HomeName,
		&rec.AwayName,
		&actions,
		&rec.Revision,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return Record{}, fmt.Errorf("scan match: %w", err)
	}

	rec.OurSide = match.TeamSide(ourSide)
	rec.Actions = []byte(actions)
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return Record{}, fmt.Errorf("scan match: %w", err)
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return Record{}, fmt.Errorf("scan match: %w", err)
	}
	return rec, nil
}
