package services

import "errors"

// ErrNotFound is returned when a referenced course, module, lesson or user
// does not exist. Controllers map it to a 404 response.
var ErrNotFound = errors.New("record not found")

// ValidationError carries per-field messages back to the caller. No mutation
// has happened when one is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}
