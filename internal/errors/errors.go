// Package errors defines the domain error taxonomy shared by all services.
// Repositories and services fold infrastructure errors into these sentinels
// so callers can branch on outcome without inspecting error internals.
package errors

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound signals an unknown room/user/movie/match identifier,
	// distinct from an empty collection.
	ErrNotFound = errors.New("not found")

	// ErrForbidden signals a caller acting on a room they are not an
	// active member of. Never downgraded to an empty result.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict signals a uniqueness violation (duplicate email,
	// duplicate favorite). Losing the match-insert race is NOT reported
	// through this; that path is a silent non-match.
	ErrConflict = errors.New("conflict")

	// ErrValidation signals malformed or missing input fields.
	ErrValidation = errors.New("invalid input")

	// ErrUnauthorized signals missing or bad credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRoomFull signals a join attempt on a room that already has two members.
	ErrRoomFull = errors.New("room is full")

	// ErrUnconfigured signals a required external dependency (catalog
	// provider) missing its configuration. Fatal to the operation.
	ErrUnconfigured = errors.New("dependency not configured")

	// ErrTimeout signals an upstream call that exceeded its deadline.
	ErrTimeout = errors.New("timed out")
)

// Map folds repo/infra errors into the domain taxonomy. Unrecognized
// errors pass through unchanged so their message survives for logging.
func Map(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	default:
		return err
	}
}

// Validation wraps ErrValidation with a field-specific message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
