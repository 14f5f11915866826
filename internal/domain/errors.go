package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is against any *Error of that kind.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Error carries the operation, the kind and the offending identifier so callers
// can render a message without parsing strings.
type Error struct {
	Op      string // e.g. "orders.SetStatus"
	Kind    error  // one of the Err* kinds above
	ID      string // offending identifier, if any
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.ID != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.ID)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func NewValidationError(op, id, message string) *Error {
	return &Error{Op: op, Kind: ErrValidation, ID: id, Message: message}
}

func NewNotFoundError(op, id, message string) *Error {
	return &Error{Op: op, Kind: ErrNotFound, ID: id, Message: message}
}

func NewUnauthorizedError(op, message string) *Error {
	return &Error{Op: op, Kind: ErrUnauthorized, Message: message}
}

func NewForbiddenError(op, id, message string) *Error {
	return &Error{Op: op, Kind: ErrForbidden, ID: id, Message: message}
}

func NewConflictError(op, id, message string) *Error {
	return &Error{Op: op, Kind: ErrConflict, ID: id, Message: message}
}

// NewStoreError wraps a persistence failure as-is; nothing in the core retries it.
func NewStoreError(op, id string, err error) *Error {
	return &Error{Op: op, Kind: ErrStoreUnavailable, ID: id, Err: err}
}

// KindOf returns the kind of err, or nil when err is not a domain error.
func KindOf(err error) error {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return nil
}
