package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidSourceType  = errors.New("invalid source type")
	ErrSourceTypeMismatch = errors.New("source type mismatch")
)

// ValidationError reports a submission field that violates the mode's
// required-field rules. It is returned before any job record exists.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// AdapterError is a failure reported by a synthesis backend. Terminal errors
// (content-policy rejection, malformed prompt) fail the job immediately;
// non-terminal ones are absorbed by continued polling.
type AdapterError struct {
	Code     string
	Message  string
	Terminal bool
}

func (e *AdapterError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsTerminalAdapterError reports whether err carries a terminal adapter
// failure anywhere in its chain.
func IsTerminalAdapterError(err error) bool {
	var ae *AdapterError
	return errors.As(err, &ae) && ae.Terminal
}
