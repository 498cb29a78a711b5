package analytics

import (
	"errors"
	"strings"
)

var (
	// ErrAppAccess means the authenticated account does not own the
	// referenced application.
	ErrAppAccess = errors.New("you do not have access to this app")

	// ErrNoUserData means the queried user has zero events.
	ErrNoUserData = errors.New("no data found for this user")

	errNotObject = errors.New("metadata is not an object")
)

// ValidationError reports one or more malformed fields in a submitted
// payload. It is returned before any store access.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation error: " + strings.Join(e.Errors, "; ")
}

func validationErr(msgs ...string) *ValidationError {
	return &ValidationError{Errors: msgs}
}
