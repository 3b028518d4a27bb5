// Package domainerrors provides coded errors for the credential surface.
//
// Callers branch on the code, never on message text. Codes cover both the
// credential-specific failures (NotAuthorized, AgentNotFound, ...) and the
// ambient service failures (BadRequest, Internal, ...).
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for programmatic handling.
type Code string

const (
	// Credential surface codes. These are the kinds external callers are
	// expected to branch on.

	// CodeNotAuthorized: the acting address has no standing for the agent
	// (not owner, not operator, no live approval).
	CodeNotAuthorized Code = "not_authorized"
	// CodeAgentNotFound: the agent id does not resolve in the bound registry.
	CodeAgentNotFound Code = "agent_not_found"
	// CodeReviewerNotAgent: the reviewer id does not resolve in the bound
	// registry. Same underlying check as CodeAgentNotFound but surfaced
	// distinctly so callers can tell a bad reviewer id from a bad subject id.
	CodeReviewerNotAgent Code = "reviewer_not_agent"
	// CodeInvalidRegistry: a null or unresolvable registry address was
	// supplied where an instance must keep a registry bound.
	CodeInvalidRegistry Code = "invalid_registry"
	// CodeAlreadyInitialized: initialization was attempted on an initialized
	// instance or on the template.
	CodeAlreadyInitialized Code = "already_initialized"

	// Ambient codes.

	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal_error"
)

// Error is a coded domain error. The wrapped cause, if any, is reachable via
// errors.Unwrap for logging; handlers only look at the code.
type Error struct {
	code    Code
	message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Code returns the error's classification.
func (e *Error) Code() Code {
	return e.code
}

// Message returns the human-readable description without the code prefix.
func (e *Error) Message() string {
	return e.message
}

// New creates a coded error.
func New(code Code, message string) error {
	return &Error{code: code, message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(cause error, code Code, message string) error {
	return &Error{code: code, message: message, cause: cause}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.code == code {
			return true
		}
		err = de.cause
		if err == nil {
			return false
		}
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability in handlers.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the outermost code, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}
