package coach

import "errors"

// ErrSessionNotFound is returned when an operation names an unknown or
// expired session.
var ErrSessionNotFound = errors.New("session not found")

// InputError reports missing or invalid user input, detected before any
// external call is made. Session state is never mutated on an InputError.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return e.Reason
}

func inputErrorf(reason string) *InputError {
	return &InputError{Reason: reason}
}
