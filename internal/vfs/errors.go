package vfs

import (
	"errors"
	"fmt"
)

// Kind classifies an expected failure of a core operation.
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindAccessDenied  Kind = "access_denied"
	KindValidation    Kind = "validation"
	KindConflict      Kind = "conflict"
	KindNotEmpty      Kind = "not_empty"
	KindInUse         Kind = "in_use"
	KindBackendWrite  Kind = "backend_write"
	KindBackendDelete Kind = "backend_delete"
	KindConfiguration Kind = "configuration"
)

// Sentinel errors, one per kind. Use with errors.Is().
var (
	ErrNotFound      = errors.New("not found")
	ErrAccessDenied  = errors.New("access denied")
	ErrValidation    = errors.New("validation failed")
	ErrConflict      = errors.New("conflict")
	ErrNotEmpty      = errors.New("folder not empty")
	ErrInUse         = errors.New("file in use")
	ErrBackendWrite  = errors.New("backend write failed")
	ErrBackendDelete = errors.New("backend delete failed")
	ErrConfiguration = errors.New("configuration error")
)

var sentinels = map[Kind]error{
	KindNotFound:      ErrNotFound,
	KindAccessDenied:  ErrAccessDenied,
	KindValidation:    ErrValidation,
	KindConflict:      ErrConflict,
	KindNotEmpty:      ErrNotEmpty,
	KindInUse:         ErrInUse,
	KindBackendWrite:  ErrBackendWrite,
	KindBackendDelete: ErrBackendDelete,
	KindConfiguration: ErrConfiguration,
}

// Error is the typed result of an expected failure. Unexpected faults
// (database unreachable, corrupt tree) are plain wrapped errors instead.
type Error struct {
	Kind    Kind
	Message string
	// Usages is set for KindInUse and lists the content blocking the delete.
	Usages []Usage
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is() to match against the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// NewError creates an Error of the given kind.
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates an Error of the given kind that wraps cause.
func WrapError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf reports the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
