package util

import (
	"errors"
	"fmt"
)

var (
	ErrTestNotFound = errors.New("test not found")
	ErrTestExists   = errors.New("test already exists")
)

// ValidationError is bad caller input, rejected before any oracle call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
