package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized signals an invalid or expired credential (HTTP 401).
	// The session store recovers from it by clearing the session.
	ErrUnauthorized = errors.New("credential is invalid or expired")

	// ErrNotAuthenticated is returned when an operation needs a signed-in
	// user and there is none.
	ErrNotAuthenticated = errors.New("no authenticated user")
)

// NetworkError reports a failed remote call: the request never completed,
// or the server answered with a non-success status. It is transient and
// retryable.
type NetworkError struct {
	// Op names the remote operation, e.g. "login" or "list /events".
	Op string

	// StatusCode is the HTTP status, zero if no response was received.
	StatusCode int

	// Message is the server-provided message, if any.
	Message string

	// Err is the underlying transport error, if any.
	Err error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ValidationError reports malformed input. It is recovered where it is
// raised and never shown to the user as a failure toast.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsNetwork reports whether err is (or wraps) a *NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
