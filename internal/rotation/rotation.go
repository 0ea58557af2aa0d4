// Package rotation implements the court rotation rules.
//
// Rotate is the serve rotation applied on every side-out to our team.
// LiberoView is a display projection: it places the libero in the back row
// without touching the canonical rotation the fold keeps.
package rotation

import (
	"log/slog"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
)

// Rotate advances every player one position: the player in position 2 moves
// to position 1 to serve and the previous server moves to position 6.
//
// Only six-player rotations are rotated. Any other length is an upstream
// lineup defect; it is returned unchanged and a warning is logged rather than
// failing mid-rally.
func Rotate(ids []string) []string {
	if len(ids) != match.CourtPositions {
		slog.Warn("rotation skipped: lineup does not have six players", "len", len(ids))
		return ids
	}
	out := make([]string, match.CourtPositions)
	copy(out, ids[1:])
	out[match.CourtPositions-1] = ids[0]
	return out
}

// backRow lists the 0-based indexes of positions 1, 6 and 5.
var backRow = []int{0, 5, 4}

// IsBackRow reports whether a 1-based position is in the back row.
func IsBackRow(position int) bool {
	return position == 1 || position == 5 || position == 6
}

// View is a display rotation with the libero swapped in.
type View struct {
	// Slots are the six displayed players ordered by position.
	Slots []string `json:"slots"`
	// Replaced is the player the libero stands in for, or "" if the libero is
	// not on court in this rotation.
	Replaced string `json:"replaced,omitempty"`
	// Position is the 1-based position the libero occupies, or 0.
	Position int `json:"position,omitempty"`
}

// CourtView is the LiberoView of the set in play: its rotation, its
// declared libero and whether our team holds the serve.
func CourtView(s match.State, roleOf func(id string) match.Role) View {
	return LiberoView(s.Rotation, s.LiberoID, s.ServingSide == match.Our, roleOf)
}

// LiberoView projects the libero onto the base rotation. The libero replaces
// the first middle blocker found in the back row. While our team serves,
// position 1 is skipped because the libero never serves.
//
// The base slice is never modified.
func LiberoView(base []string, liberoID string, serving bool, roleOf func(id string) match.Role) View {
	slots := make([]string, len(base))
	copy(slots, base)
	view := View{Slots: slots}

	if liberoID == "" || len(base) != match.CourtPositions || roleOf == nil {
		return view
	}

	for _, idx := range backRow {
		if serving && idx == 0 {
			continue
		}
		if roleOf(base[idx]) != match.RoleMiddle {
			continue
		}
		view.Replaced = base[idx]
		view.Position = idx + 1
		view.Slots[idx] = liberoID
		return view
	}
	return view
}
