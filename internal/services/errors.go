package services

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/stormkeep/invoices/validation"
)

// Sentinels matched with errors.Is against the typed errors below.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrUniqueness = errors.New("already exists")
	ErrMalformed  = errors.New("malformed line item")
	ErrInUse      = errors.New("still referenced")
)

// NotFoundError reports a missing invoice or recipient.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Entity, e.ID, ErrNotFound)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError carries per-field violation codes for re-displaying a form.
type ValidationError struct {
	Fields validation.Violations
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %v", ErrValidation, map[string]string(e.Fields))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// UniquenessError reports a duplicate recipient name or invoice number.
type UniquenessError struct {
	Entity string
	Field  string
	Value  string
}

func (e *UniquenessError) Error() string {
	return fmt.Sprintf("%s with %s %q %v", e.Entity, e.Field, e.Value, ErrUniqueness)
}

func (e *UniquenessError) Is(target error) bool { return target == ErrUniqueness }

// MalformationError reports a line item whose quantity or unit price is not a number.
type MalformationError struct {
	Index int // zero-based position in the submitted list
	Field string
	Value string
	Err   error
}

func (e *MalformationError) Error() string {
	return fmt.Sprintf("line item %d: %s %q is not a number", e.Index+1, e.Field, e.Value)
}

func (e *MalformationError) Unwrap() error { return e.Err }

func (e *MalformationError) Is(target error) bool { return target == ErrMalformed }

// InUseError reports a delete refused because other records still reference the target.
type InUseError struct {
	Entity     string
	ID         uint
	References int64
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("%s %d %v by %d invoice(s)", e.Entity, e.ID, ErrInUse, e.References)
}

func (e *InUseError) Is(target error) bool { return target == ErrInUse }

// isUniqueViolation recognises duplicate-key failures from either driver.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func notFound(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Entity: entity, ID: id}
	}
	return err
}
