// Package apperr defines the error taxonomy surfaced to API callers.
package apperr

import "errors"

// Kind classifies a failure for HTTP status mapping.
type Kind int

const (
	// KindUnknown is any error not raised through this package.
	KindUnknown Kind = iota
	// KindInvalidInput marks malformed, missing, or out-of-range request fields.
	KindInvalidInput
	// KindUnauthorized marks a missing or invalid credential.
	KindUnauthorized
	// KindConflict marks an invariant violation (round already open, duplicate
	// submission, round not open).
	KindConflict
	// KindNotFound marks a reference to an entity that does not exist.
	KindNotFound
)

// Error is a kinded error with a caller-facing message.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// InvalidInput returns an InvalidInput error with the given message.
func InvalidInput(msg string) error { return &Error{Kind: KindInvalidInput, Msg: msg} }

// Unauthorized returns an Unauthorized error with the given message.
func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Msg: msg} }

// Conflict returns a Conflict error with the given message.
func Conflict(msg string) error { return &Error{Kind: KindConflict, Msg: msg} }

// NotFound returns a NotFound error with the given message.
func NotFound(msg string) error { return &Error{Kind: KindNotFound, Msg: msg} }

// KindOf extracts the Kind from err, unwrapping as needed.
// Errors not created by this package report KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool { return KindOf(err) == k }
