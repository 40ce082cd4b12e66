// Package apperr defines the error vocabulary shared by services and
// transports. Services return kinded errors; the socket and HTTP layers map
// kinds to error events and status codes without string matching.
package apperr

import "errors"

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindConflict
	KindAuthorization
	KindNotFound
	KindExpired
	KindStore
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func Validation(msg string) error    { return &Error{Kind: KindValidation, Message: msg} }
func Conflict(msg string) error      { return &Error{Kind: KindConflict, Message: msg} }
func Authorization(msg string) error { return &Error{Kind: KindAuthorization, Message: msg} }
func NotFound(msg string) error      { return &Error{Kind: KindNotFound, Message: msg} }
func Expired(msg string) error       { return &Error{Kind: KindExpired, Message: msg} }
func Store(msg string) error         { return &Error{Kind: KindStore, Message: msg} }

// KindOf reports the kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
