package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is an error detected while a session handles a request.
//
// Rule rejections (a point after the match ended) are not errors; they are
// reported as a rejected Outcome. RuntimeError covers requests the session
// cannot even evaluate: no match loaded, a payload that does not belong to
// its event type, values out of range.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// MatchID identifies the affected match.
	MatchID string

	// EventType is the event type of the request, if any.
	EventType string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeNoMatch indicates an operation on a session with no match loaded.
	ErrCodeNoMatch RuntimeErrorCode = "NO_MATCH"

	// ErrCodeInvalidPayload indicates a malformed or mismatched payload.
	ErrCodeInvalidPayload RuntimeErrorCode = "INVALID_PAYLOAD"

	// ErrCodeInvalidSubstitution indicates a substitution the validator refused.
	ErrCodeInvalidSubstitution RuntimeErrorCode = "INVALID_SUBSTITUTION"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.MatchID != "" && e.EventType != "" {
		return fmt.Sprintf("%s: %s (match=%s, type=%s)", e.Code, e.Message, e.MatchID, e.EventType)
	}
	if e.MatchID != "" {
		return fmt.Sprintf("%s: %s (match=%s)", e.Code, e.Message, e.MatchID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsInvalidPayloadError returns true if err is an invalid payload error.
// Uses errors.As to handle wrapped errors.
func IsInvalidPayloadError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeInvalidPayload
	}
	return false
}

// IsNoMatchError returns true if err reports a session without a match.
func IsNoMatchError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeNoMatch
	}
	return false
}

// IsInvalidSubstitutionError returns true if err is a refused substitution.
// The underlying *substitution.ValidationError is reachable with errors.As.
func IsInvalidSubstitutionError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeInvalidSubstitution
	}
	return false
}

func newNoMatchError() *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeNoMatch,
		Message: "no match loaded",
	}
}

func newInvalidPayloadError(matchID, eventType string, err error) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeInvalidPayload,
		Message:   err.Error(),
		MatchID:   matchID,
		EventType: eventType,
		Err:       err,
	}
}

func newInvalidSubstitutionError(matchID string, err error) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeInvalidSubstitution,
		Message:   err.Error(),
		MatchID:   matchID,
		EventType: "SUBSTITUTION",
		Err:       err,
	}
}
