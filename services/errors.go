package services

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindUnauthorized     ErrorKind = "UNAUTHORIZED"
	KindForbidden        ErrorKind = "FORBIDDEN"
	KindNotFound         ErrorKind = "NOT_FOUND"
	KindInvalidState     ErrorKind = "INVALID_STATE"
	KindConflict         ErrorKind = "CONFLICT"
	KindInvalidInput     ErrorKind = "INVALID_INPUT"
	KindAlreadyProcessed ErrorKind = "ALREADY_PROCESSED"
)

// Error is a domain failure the caller can act on. Anything else returned by
// a service is an infrastructure error.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func NewErr(kind ErrorKind, msg string) *Error {
	return &Error{
		Kind: kind,
		Msg:  msg,
	}
}

// KindOf returns the kind of a domain error, or "" for any other error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func errUnauthorized() error {
	return NewErr(KindUnauthorized, "authentication required")
}
