package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain failure so transports can map it to a status code.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindBadRequest   ErrorKind = "bad_request"
	KindForbidden    ErrorKind = "forbidden"
	KindValidation   ErrorKind = "validation"
	KindInvalidState ErrorKind = "invalid_state"
	KindConflict     ErrorKind = "conflict"
)

// DomainError is a tagged error carrying one of the ErrorKind values.
type DomainError struct {
	Kind    ErrorKind
	Message string
	Fields  map[string]string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return e.Message
}

// NewNotFoundError reports that the named resource does not exist.
func NewNotFoundError(resource, id string) *DomainError {
	return &DomainError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found with id: %s", resource, id),
	}
}

// NewBadRequestError reports a request that violates a business rule.
func NewBadRequestError(message string) *DomainError {
	return &DomainError{Kind: KindBadRequest, Message: message}
}

// NewForbiddenError reports that the caller lacks authority for the operation.
func NewForbiddenError(message string) *DomainError {
	return &DomainError{Kind: KindForbidden, Message: message}
}

// NewValidationError reports structurally invalid input.
func NewValidationError(message string) *DomainError {
	return &DomainError{Kind: KindValidation, Message: message}
}

// NewFieldValidationError reports structurally invalid input with a per-field message map.
func NewFieldValidationError(fields map[string]string) *DomainError {
	return &DomainError{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

// NewInvalidStateError reports a lifecycle transition that is not allowed from the current state.
func NewInvalidStateError(from, to string) *DomainError {
	return &DomainError{
		Kind:    KindInvalidState,
		Message: fmt.Sprintf("cannot transition booking from %s to %s", from, to),
	}
}

// NewInvalidStateErrorf reports a refused transition with a caller-facing explanation.
func NewInvalidStateErrorf(format string, args ...any) *DomainError {
	return &DomainError{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// NewConflictError reports a concurrent modification.
func NewConflictError(message string) *DomainError {
	return &DomainError{Kind: KindConflict, Message: message}
}

// KindOf returns the kind of err, or "" when err is not a DomainError.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err wraps a DomainError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
