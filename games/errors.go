// games/errors.go
package games

import "fmt"

// The engine reports failures as one of four kinds. Services map them to
// HTTP statuses; infrastructure errors (DB, asset store) pass through
// untouched and are never wrapped into these.

// ValidationError is malformed or out-of-range input. Field names the
// offending input so the caller can report it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError covers both a missing game and a template mismatch — the
// two are deliberately indistinguishable so we never leak the existence of
// games of other kinds.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

var ErrGameNotFound = &NotFoundError{Message: "game not found"}

// ForbiddenError — the caller lacks creator/admin rights.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

var ErrNoAccess = &ForbiddenError{Message: "you do not have access to this game"}

// ConflictError — duplicate game name.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

var ErrNameTaken = &ConflictError{Message: "game name already exists"}
