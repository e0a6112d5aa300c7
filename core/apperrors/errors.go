// Package apperrors defines the error taxonomy shared by the orchestration
// core. Every error carries a machine-readable kind plus a human-readable
// message; no failure path is swallowed.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers and the HTTP layer
type Kind string

const (
	// KindValidation: policy violation or malformed input; rejected
	// synchronously, never retried automatically.
	KindValidation Kind = "validation"
	// KindConflict: active job already exists, version-number race;
	// caller may retry after the conflicting operation resolves.
	KindConflict Kind = "conflict"
	// KindExternal: job infra error or timeout reported by the external
	// execution system; not automatically retried.
	KindExternal Kind = "external"
	// KindSecurity: sanitizer blocker; merge refused unless explicitly
	// overridden.
	KindSecurity Kind = "security"
	// KindNotFound: referenced entity does not exist.
	KindNotFound Kind = "not_found"
)

// Error is the error type used across the core
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an error of the given kind
func E(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an error of the given kind around a cause
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func Validation(format string, args ...interface{}) *Error {
	return E(KindValidation, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return E(KindConflict, format, args...)
}

func External(format string, args ...interface{}) *Error {
	return E(KindExternal, format, args...)
}

func Security(format string, args ...interface{}) *Error {
	return E(KindSecurity, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return E(KindNotFound, format, args...)
}

// KindOf returns the kind of err, or the empty string for foreign errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
