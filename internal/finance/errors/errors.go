package errors

import (
	"errors"
	"fmt"
)

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

func IsValidationError(err error) bool {
	var validationError *ValidationError
	ok := errors.As(err, &validationError)
	return ok
}

// ConflictError marks a business-rule refusal, e.g. deleting a category
// that still has expenses or over-allocating a monthly budget.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string {
	return e.Msg
}

func NewConflictError(msg string) error {
	return &ConflictError{Msg: msg}
}

func IsConflictError(err error) bool {
	var conflictError *ConflictError
	ok := errors.As(err, &conflictError)
	return ok
}

func NewIndexedValidationError(index int, msg string) error {
	return &ValidationError{Msg: fmt.Sprintf("Validation error at expense %d: %s", index, msg)}
}

var ErrInvalidCategory = NewValidationError("Invalid category")
var ErrCategoryInUse = NewConflictError("Category has expenses assigned and cannot be deleted")
var ErrDuplicateCategoryName = NewConflictError("Category with this name already exists")
var ErrBudgetOverAllocated = NewConflictError("Category budgets exceed the monthly budget goal")
var ErrDistributionOverAvailable = NewConflictError("Requested distribution exceeds available savings")
