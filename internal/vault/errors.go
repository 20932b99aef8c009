package vault

import (
	"github.com/cockroachdb/errors"
)

// Error categories. Test with errors.Is; the wrapped cause stays reachable.
var (
	ErrConnection        = errors.New("connection error")
	ErrInvalidKey        = errors.New("invalid key")
	ErrInvalidAddress    = errors.New("invalid address")
	ErrQueryFailed       = errors.New("query failed")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidAction     = errors.New("invalid action")
	ErrSigning           = errors.New("signing error")
	ErrSubmission        = errors.New("submission error")
	ErrPendingTimeout    = errors.New("confirmation pending")
	ErrUserRejected      = errors.New("user rejected")
	ErrUnsupportedMethod = errors.New("method not supported by this vault deployment")
	ErrNoSigner          = errors.New("session has no signer")
)

// mark wraps cause with op context and tags it with a category.
func mark(cause error, category error, op string) error {
	return errors.Mark(errors.Wrap(cause, op), category)
}

// fail builds a fresh categorized error with no underlying cause.
func fail(category error, format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), category)
}
