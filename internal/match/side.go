package match

import "fmt"

// TeamSide identifies a team by its home/away identity.
type TeamSide string

const (
	Home TeamSide = "home"
	Away TeamSide = "away"
)

// Opposite returns the other side.
func (s TeamSide) Opposite() TeamSide {
	if s == Home {
		return Away
	}
	return Home
}

// Valid reports whether s is home or away.
func (s TeamSide) Valid() bool {
	return s == Home || s == Away
}

// ParseTeamSide parses "home" or "away".
func ParseTeamSide(v string) (TeamSide, error) {
	s := TeamSide(v)
	if !s.Valid() {
		return "", fmt.Errorf("invalid team side %q: must be home or away", v)
	}
	return s, nil
}

// ServingSide identifies a team relative to the team being scored.
// "our" is always the team whose rotation is tracked.
type ServingSide string

const (
	Our      ServingSide = "our"
	Opponent ServingSide = "opponent"
)

// Opposite returns the other serving side.
func (s ServingSide) Opposite() ServingSide {
	if s == Our {
		return Opponent
	}
	return Our
}

// Valid reports whether s is our or opponent.
func (s ServingSide) Valid() bool {
	return s == Our || s == Opponent
}

// ParseServingSide parses "our" or "opponent".
func ParseServingSide(v string) (ServingSide, error) {
	s := ServingSide(v)
	if !s.Valid() {
		return "", fmt.Errorf("invalid serving side %q: must be our or opponent", v)
	}
	return s, nil
}

// TeamSideOf maps a relative side to its home/away identity given which
// side we play on.
func TeamSideOf(ourSide TeamSide, team ServingSide) TeamSide {
	if team == Our {
		return ourSide
	}
	return ourSide.Opposite()
}

// ServingSideOf maps a home/away identity back to our/opponent.
func ServingSideOf(ourSide TeamSide, side TeamSide) ServingSide {
	if side == ourSide {
		return Our
	}
	return Opponent
}
