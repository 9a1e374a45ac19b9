// Package memerr defines the tagged error kinds shared across every
// component, so the top-level command handler can map any failure to
// an exit code without inspecting component-specific types.
package memerr

import "fmt"

// Kind tags an error with the abstract failure category it belongs to.
type Kind string

const (
	InvalidInput       Kind = "invalid_input"
	FullyPrivate       Kind = "fully_private"
	NotFound           Kind = "not_found"
	WrongContainer     Kind = "wrong_container"
	ExtensionLoad      Kind = "extension_load"
	FullTextQueryError Kind = "full_text_query_error"
	EmbeddingTimeout   Kind = "embedding_timeout"
	EmbeddingFailure   Kind = "embedding_failure"
	IntegrityViolation Kind = "integrity_violation"
)

// Error wraps an underlying cause with a Kind so callers can branch on
// category without string-matching messages.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a bare Error with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap tags an existing error with a Kind.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Is reports whether err (or something it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if me, ok := err.(*Error); ok {
			e = me
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}
