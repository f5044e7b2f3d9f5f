package core

import (
	"errors"
	"fmt"
)

var (
	ErrNoMember         = errors.New("no member selected")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrAmountBelowFee   = errors.New("amount below weekly fee")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyDivision    = errors.New("empty division")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyOrgName     = errors.New("empty organization name")
)

// ValidationError reports missing or invalid user input. No state was changed.
type ValidationError struct {
	Field string
	Err   error
	// Min is the minimum accepted amount when Err is ErrAmountBelowFee.
	Min Money
}

func (e *ValidationError) Error() string {
	if errors.Is(e.Err, ErrAmountBelowFee) {
		return fmt.Sprintf("%s: minimum amount is %d", e.Field, e.Min)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// PersistenceError reports a failed write to the storage slot.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ImportError reports a document that could not be parsed.
type ImportError struct {
	Err error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("invalid import document: %v", e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// NotFoundError reports an id that does not exist (any more).
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPersistence reports whether err is (or wraps) a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// IsImport reports whether err is (or wraps) an ImportError.
func IsImport(err error) bool {
	var ie *ImportError
	return errors.As(err, &ie)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}
