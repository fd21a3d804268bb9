// Package apperror is the tagged failure taxonomy shared by every component
// of the tester: a broker connection/channel problem, an internal plumbing
// problem (serialization, IO, locking, subprocess), or a failed assertion.
package apperror

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// Kind tags the three ways this tester can fail.
type Kind int

const (
	// ApiConnectionFailure marks a broker connect or channel-open failure.
	ApiConnectionFailure Kind = iota
	// InternalFailure marks everything else: serialization, IO, locking,
	// subprocess spawn, missing configuration.
	InternalFailure
	// TestAssertFailure marks a non-zero assertion script exit.
	TestAssertFailure
)

func (k Kind) String() string {
	switch k {
	case ApiConnectionFailure:
		return "ApiConnectionFailure"
	case InternalFailure:
		return "InternalFailure"
	case TestAssertFailure:
		return "TestAssertFailure"
	default:
		return "Unknown"
	}
}

// Error is a tagged error carrying a human-readable message and, when one
// caused it, the underlying cause. Unwrap exposes that cause so callers can
// still use errors.Is / errors.As against it.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// New builds an Error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an Error with no underlying cause, formatting the message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error around an underlying cause, embedding the cause's
// text into Message (matching the "failed to X: <cause>" wording used
// throughout this tester) while keeping the cause reachable via Unwrap.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf("%s: %s", message, cause),
		Err:     errors.Wrap(cause, message),
	}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(kind Kind, cause error, format string, args ...any) *Error {
	return Wrap(kind, cause, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether err is (or wraps) an *Error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// KindOf extracts the Kind from err, if err is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var ae *Error
	if stderrors.As(err, &ae) {
		return ae.Kind, true
	}

	return 0, false
}
