// Package apperr defines the error taxonomy shared by repositories, services
// and handlers. Every rejected operation leaves state untouched; these types
// carry enough structured detail for the caller to render an actionable
// message and pick the right HTTP status.
package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ValidationError flags malformed or out-of-range input. Caller-fixable,
// never retried automatically.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Detail
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Detail)
}

// Validation builds a ValidationError without a field reference.
func Validation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Detail: fmt.Sprintf(format, args...)}
}

// ValidationField builds a ValidationError scoped to a named field.
func ValidationField(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Detail: fmt.Sprintf(format, args...)}
}

// CapacityError flags a quorum or ceiling violation, surfaced verbatim.
type CapacityError struct {
	Resource string
	Limit    int
	Current  int
	Detail   string
}

func (e *CapacityError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("%s capacity exceeded: limit %d, have %d", e.Resource, e.Limit, e.Current)
}

// Capacity builds a CapacityError for the named resource.
func Capacity(resource string, limit, current int) *CapacityError {
	return &CapacityError{Resource: resource, Limit: limit, Current: current}
}

// InvalidTransitionError flags a state machine violation.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %q to %q", e.From, e.To)
}

// InvalidTransition builds an InvalidTransitionError.
func InvalidTransition(from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

// NotFoundError flags a missing referenced record.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// NotFound builds a NotFoundError for the named resource.
func NotFound(resource string, id uint) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// PreconditionError flags a gate that has not been met, such as disclosing
// a grade before quorum.
type PreconditionError struct {
	Detail string
}

func (e *PreconditionError) Error() string {
	return e.Detail
}

// Precondition builds a PreconditionError.
func Precondition(format string, args ...interface{}) *PreconditionError {
	return &PreconditionError{Detail: fmt.Sprintf(format, args...)}
}

// HTTPStatus maps a domain error to its HTTP status code, or 0 when the
// error is not part of the taxonomy.
func HTTPStatus(err error) int {
	var (
		validation   *ValidationError
		capacity     *CapacityError
		transition   *InvalidTransitionError
		notFound     *NotFoundError
		precondition *PreconditionError
	)

	switch {
	case errors.As(err, &validation):
		return fiber.StatusBadRequest
	case errors.As(err, &notFound):
		return fiber.StatusNotFound
	case errors.As(err, &precondition):
		return fiber.StatusForbidden
	case errors.As(err, &capacity), errors.As(err, &transition):
		return fiber.StatusConflict
	}
	return 0
}
