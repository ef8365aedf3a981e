package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable code carried across the service boundary.
type ErrorKind string

const (
	KindEntityNotFound   ErrorKind = "ENTITY_NOT_FOUND"
	KindDuplicateComment ErrorKind = "DUPLICATE_COMMENT"
	KindInvalidState     ErrorKind = "INVALID_STATE"
	KindInvalidInput     ErrorKind = "INVALID_INPUT"
	KindAlreadyExists    ErrorKind = "ALREADY_EXISTS"
	KindUpstreamFailure  ErrorKind = "UPSTREAM_FAILURE"
)

// Error is a domain error. Two Errors match under errors.Is when their kinds
// are equal, so the package-level sentinels can be used as targets.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrEntityNotFound   = &Error{Kind: KindEntityNotFound, Message: "entity not found"}
	ErrDuplicateComment = &Error{Kind: KindDuplicateComment, Message: "already commented"}
	ErrInvalidState     = &Error{Kind: KindInvalidState, Message: "invalid state"}
	ErrInvalidInput     = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrAlreadyExists    = &Error{Kind: KindAlreadyExists, Message: "already exists"}
	ErrUpstreamFailure  = &Error{Kind: KindUpstreamFailure, Message: "upstream failure"}
)

// ErrOptimisticLock is returned by the store when a versioned row changed
// between read and write. It never crosses the service boundary.
var ErrOptimisticLock = errors.New("optimistic lock conflict")

func NotFound(entity string, id int64) *Error {
	return &Error{Kind: KindEntityNotFound, Message: fmt.Sprintf("%s %d not found", entity, id)}
}

func InvalidState(msg string) *Error {
	return &Error{Kind: KindInvalidState, Message: msg}
}

func InvalidInput(msg string, err error) *Error {
	return &Error{Kind: KindInvalidInput, Message: msg, Err: err}
}

func AlreadyExists(msg string) *Error {
	return &Error{Kind: KindAlreadyExists, Message: msg}
}

func Upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstreamFailure, Message: msg, Err: err}
}

// KindOf reports the kind of err, or UPSTREAM_FAILURE for errors that carry
// no domain kind.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUpstreamFailure
}
