// Package substitution validates substitutions and plans batches of them.
//
// A substitution swaps a player on court for one on the bench, field player
// for field player or libero for libero. Each starter/substitute pairing may
// be used twice per set: once to take the starter out and once to bring the
// starter back. A set allows six substitutions in total.
package substitution

import (
	"errors"
	"fmt"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
)

// Code identifies why a substitution was refused.
type Code string

const (
	CodeNoSetInProgress   Code = "NO_SET_IN_PROGRESS"
	CodeSamePlayer        Code = "SAME_PLAYER"
	CodeUnknownPlayer     Code = "UNKNOWN_PLAYER"
	CodeRoleMismatch      Code = "ROLE_MISMATCH"
	CodeNotOnCourt        Code = "NOT_ON_COURT"
	CodeAlreadyOnCourt    Code = "ALREADY_ON_COURT"
	CodeSetLimitReached   Code = "SET_LIMIT_REACHED"
	CodePairExhausted     Code = "PAIR_EXHAUSTED"
	CodeMustReturnPartner Code = "MUST_RETURN_PARTNER"
	CodeNoSelection       Code = "NO_SELECTION"
	CodeNotReturnable     Code = "NOT_RETURNABLE"
)

// ValidationError is a refused substitution. Message is meant for the
// person operating the scoresheet.
type ValidationError struct {
	Code     Code
	Message  string
	PlayerID string
}

func (e *ValidationError) Error() string {
	if e.PlayerID != "" {
		return fmt.Sprintf("%s: %s (player=%s)", e.Code, e.Message, e.PlayerID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsValidationError reports whether err is a *ValidationError with code.
// An empty code matches any validation error.
func IsValidationError(err error, code Code) bool {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	return code == "" || ve.Code == code
}

func refuse(code Code, playerID, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...), PlayerID: playerID}
}

// Validate checks that out may be replaced by in given the on-court state
// and the set's substitution history in s.
func Validate(s match.State, roster match.Roster, out, in string) error {
	if !s.InPlay() {
		return refuse(CodeNoSetInProgress, "", "no set in progress")
	}
	if out == in {
		return refuse(CodeSamePlayer, out, "a player cannot replace themselves")
	}

	pOut, ok := roster.ByID(out)
	if !ok {
		return refuse(CodeUnknownPlayer, out, "player is not on the roster")
	}
	pIn, ok := roster.ByID(in)
	if !ok {
		return refuse(CodeUnknownPlayer, in, "player is not on the roster")
	}
	if pOut.Role.IsLibero() != pIn.Role.IsLibero() {
		return refuse(CodeRoleMismatch, in, "%s (%s) cannot replace %s (%s)", pIn, pIn.Role, pOut, pOut.Role)
	}

	if !onCourtAs(s, pOut) {
		return refuse(CodeNotOnCourt, out, "%s is not on court", pOut)
	}
	if s.IsOnCourt(in) {
		return refuse(CodeAlreadyOnCourt, in, "%s is already on court", pIn)
	}

	if s.Substitutions.Remaining() == 0 {
		return refuse(CodeSetLimitReached, "", "all %d substitutions of set %d are used", match.MaxSubstitutionsPerSet, s.CurrentSet)
	}

	if pair, ok := s.Substitutions.PairOf(out); ok {
		if err := checkPair(pair, out, in); err != nil {
			return err
		}
	}
	if pair, ok := s.Substitutions.PairOf(in); ok {
		if err := checkPair(pair, in, out); err != nil {
			return err
		}
	}
	return nil
}

// checkPair enforces the pair rules for id, which already belongs to pair.
func checkPair(pair match.SubstitutionPair, id, other string) error {
	if pair.Exhausted() {
		return refuse(CodePairExhausted, id, "player already used both substitutions with %s this set", pair.Partner(id))
	}
	if partner := pair.Partner(id); partner != other {
		return refuse(CodeMustReturnPartner, id, "player can only be exchanged with %s this set", partner)
	}
	return nil
}

// onCourtAs reports whether p is on court in the slot matching their role.
func onCourtAs(s match.State, p match.Player) bool {
	if p.Role.IsLibero() {
		return s.LiberoID == p.ID
	}
	return s.PositionOf(p.ID) > 0
}

// Returnable returns the pair a player can be returned through with a single
// action: a pair used once whose on-court member is swapped back for its
// partner. The returned out/in are the players to exchange.
func Returnable(s match.State, id string) (out, in string, err error) {
	pair, ok := s.Substitutions.PairOf(id)
	if !ok || pair.UsesCount != 1 {
		return "", "", refuse(CodeNotReturnable, id, "player has no open substitution to return")
	}
	switch {
	case s.IsOnCourt(pair.SubstituteID):
		return pair.SubstituteID, pair.StarterID, nil
	case s.IsOnCourt(pair.StarterID):
		return pair.StarterID, pair.SubstituteID, nil
	}
	return "", "", refuse(CodeNotReturnable, id, "neither player of the pair is on court")
}
