package claims

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by a Repository when no claim has the requested id.
	ErrNotFound = errors.New("claims: claim not found")

	// ErrConflict is returned by Repository.Replace when the stored version no longer matches.
	ErrConflict = errors.New("claims: claim was modified concurrently")

	// ErrInvalidID is returned when an id is not well-formed for the repository.
	ErrInvalidID = errors.New("claims: invalid claim id")
)

// Kind classifies a store failure so transports can pick a status without inspecting messages.
type Kind int

const (
	// KindUnavailable covers any repository failure that is not one of the other kinds.
	KindUnavailable Kind = iota
	KindValidation
	KindNotFound
	KindInvalidID
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindInvalidID:
		return "invalid_id"
	case KindConflict:
		return "conflict"
	default:
		return "unavailable"
	}
}

// Error is the failure type returned by every Store operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind carried by err. Errors that did not come from the
// store are reported as KindUnavailable.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnavailable
}

// wrap classifies a repository error for op.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	kind := KindUnavailable
	switch {
	case errors.Is(err, ErrNotFound):
		kind = KindNotFound
	case errors.Is(err, ErrConflict):
		kind = KindConflict
	case errors.Is(err, ErrInvalidID):
		kind = KindInvalidID
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
