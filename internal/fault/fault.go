// Package fault defines the error kinds surfaced by the practice engine.
//
// Callers branch on kind with errors.Is against the sentinels:
//
//	if errors.Is(err, fault.ErrPersistence) { ... }
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind string

const (
	KindInvalidTransition Kind = "invalid_transition"
	KindValidation        Kind = "validation"
	KindPersistence       Kind = "persistence"
	KindNotAuthenticated  Kind = "not_authenticated"
)

// Error is a classified error. Op names the operation that failed.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of Op or Message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == "" && t.Err == nil
}

var (
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrPersistence       = &Error{Kind: KindPersistence}
	ErrNotAuthenticated  = &Error{Kind: KindNotAuthenticated}
)

// InvalidTransition reports an operation invoked in the wrong phase.
func InvalidTransition(op, from string) error {
	return &Error{Kind: KindInvalidTransition, Op: op, Message: fmt.Sprintf("not allowed in phase %s", from)}
}

// Validation reports bad input.
func Validation(op, format string, args ...any) error {
	return &Error{Kind: KindValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Persistence wraps a storage failure.
func Persistence(op string, err error) error {
	return &Error{Kind: KindPersistence, Op: op, Message: "persistence failure", Err: err}
}

// NotAuthenticated reports a missing student identity.
func NotAuthenticated(op string) error {
	return &Error{Kind: KindNotAuthenticated, Op: op, Message: "no authenticated student"}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
