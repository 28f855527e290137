package tools

import (
	"errors"
	"fmt"
)

// UserError is a failure meant for the caller. Its message is returned
// verbatim instead of being replaced by the generic internal-error text.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

// ErrUnauthorized is returned when the inbound request carried no bearer
// token. No upstream call is made in that case.
var ErrUnauthorized = &UserError{
	Message: "Unauthorized: no API key provided in session context. " +
		"This call cannot succeed until a Bearer token is supplied in the Authorization header.",
}

// ArgumentError reports a tool argument that failed validation.
type ArgumentError struct {
	Tool   string
	Field  string
	Reason string
}

func (e *ArgumentError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Reason)
	}
	return fmt.Sprintf("invalid arguments for %s: %q %s", e.Tool, e.Field, e.Reason)
}

// internalErrorMessage is what callers see for any failure that is not
// caller-facing. The detail goes to the server log only.
func internalErrorMessage(tool string) string {
	return fmt.Sprintf("An internal error occurred while executing %s. Please check server logs for details.", tool)
}

// isCallerFacing reports whether err may be shown to the caller unchanged.
func isCallerFacing(err error) bool {
	var userErr *UserError
	var argErr *ArgumentError
	return errors.As(err, &userErr) || errors.As(err, &argErr)
}
