// Package apperr defines the error taxonomy shared by the store, the
// executor and the HTTP facade. Every failure that can cross a package
// boundary is wrapped in an *Error carrying a Kind, so the facade can map
// it to a status code without inspecting error strings.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindValidation Kind = iota // client input missing or malformed
	KindNotFound               // unknown fqdn
	KindTimeout                // upstream call exceeded its deadline
	KindTransport              // upstream connection failed or was interrupted
	KindParse                  // upstream body is not valid JSON
	KindStore                  // database failure
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindTimeout:
		return "timeout"
	case KindTransport:
		return "transport"
	case KindParse:
		return "parse"
	case KindStore:
		return "store"
	}
	return "unknown"
}

type Error struct {
	Kind    Kind
	Message string
	// Raw holds the upstream response body for parse failures, kept for
	// diagnostics. Never contains credentials.
	Raw string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the Kind of err when it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
