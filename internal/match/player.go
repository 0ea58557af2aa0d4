package match

import "fmt"

// Role is a player's court role.
type Role string

const (
	RoleSetter   Role = "S"
	RoleOutside  Role = "OH"
	RoleMiddle   Role = "MB"
	RoleOpposite Role = "OPP"
	RoleLibero   Role = "L"
)

// Roles lists every role.
var Roles = []Role{RoleSetter, RoleOutside, RoleMiddle, RoleOpposite, RoleLibero}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// IsLibero reports whether the role is the libero role.
func (r Role) IsLibero() bool {
	return r == RoleLibero
}

// Player is a roster entry.
type Player struct {
	ID     string `json:"id" yaml:"id"`
	Number int    `json:"number" yaml:"number"`
	Name   string `json:"name" yaml:"name"`
	Role   Role   `json:"role" yaml:"role"`
}

// String renders the player as "#7 Name".
func (p Player) String() string {
	return fmt.Sprintf("#%d %s", p.Number, p.Name)
}

// Roster is a snapshot of the players available for a match.
type Roster []Player

// ByID returns the player with the given id.
func (r Roster) ByID(id string) (Player, bool) {
	for _, p := range r {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// ByNumber returns the player wearing the given number.
func (r Roster) ByNumber(number int) (Player, bool) {
	for _, p := range r {
		if p.Number == number {
			return p, true
		}
	}
	return Player{}, false
}

// RoleOf returns the role for id, or "" if the player is unknown.
func (r Roster) RoleOf(id string) Role {
	p, ok := r.ByID(id)
	if !ok {
		return ""
	}
	return p.Role
}
