package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a DomainError so transports can map it to their own status codes.
type ErrorCode string

const (
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeValidation   ErrorCode = "VALIDATION_ERROR"
	CodeConflict     ErrorCode = "CONFLICT"
	CodeInvalidState ErrorCode = "INVALID_STATE"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
)

// DomainError is the typed failure returned by domain and application code.
type DomainError struct {
	Code    ErrorCode
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithDetail attaches a key/value pair that is surfaced to API clients.
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NewNotFoundError reports that an entity with the given id does not exist.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with id=%s is not found", entity, id),
		Details: map[string]any{"entity": entity, "id": id},
	}
}

// NewValidationError reports malformed input.
func NewValidationError(message string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: message}
}

// NewConflictError reports that the request collides with existing state.
func NewConflictError(message string) *DomainError {
	return &DomainError{Code: CodeConflict, Message: message}
}

// NewInvalidStateError reports a forbidden state machine transition.
func NewInvalidStateError(from, to string) *DomainError {
	return &DomainError{
		Code:    CodeInvalidState,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
		Details: map[string]any{"from": from, "to": to},
	}
}

// NewForbiddenError reports that the caller lacks the required permission.
func NewForbiddenError(message string) *DomainError {
	return &DomainError{Code: CodeForbidden, Message: message}
}

// NewUnauthorizedError reports missing or invalid credentials.
func NewUnauthorizedError(message string) *DomainError {
	return &DomainError{Code: CodeUnauthorized, Message: message}
}

// CodeOf returns the code of the first DomainError in err's chain, or "" if there is none.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func IsNotFound(err error) bool     { return CodeOf(err) == CodeNotFound }
func IsValidation(err error) bool   { return CodeOf(err) == CodeValidation }
func IsConflict(err error) bool     { return CodeOf(err) == CodeConflict }
func IsInvalidState(err error) bool { return CodeOf(err) == CodeInvalidState }
