package domain

import "errors"

// Error kinds shared by all layers. Package-level sentinels wrap exactly one
// of them, so transport code can map an error to a response class with errors.Is.
var (
	// ErrValidation malformed input: bad date, empty slot set, non-positive price
	ErrValidation = errors.New("validation error")

	// ErrNotFound referenced schedule, booking, mentor or slot does not exist
	ErrNotFound = errors.New("not found")

	// ErrAuthorization actor does not own the resource
	ErrAuthorization = errors.New("access denied")

	// ErrConflict exclusivity violation or overlapping schedule
	ErrConflict = errors.New("conflict")

	// ErrInvalidState action is not allowed from the current state
	ErrInvalidState = errors.New("invalid state")
)

// Error sentinel of a concrete package that belongs to one of the kinds above
type Error struct {
	kind error
	msg  string
}

// NewError creates a sentinel of the given kind
func NewError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

// Unwrap exposes the kind to errors.Is
func (e *Error) Unwrap() error {
	return e.kind
}
