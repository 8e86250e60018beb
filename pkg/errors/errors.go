package errors

import (
	"errors"
	"fmt"
)

// Error classes for the engine's two rejection modes. Everything else the
// engine does is total and always succeeds.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewValidationError builds an AppError that matches ErrValidation under
// errors.Is.
func NewValidationError(message string) *AppError {
	return NewAppError("VALIDATION_ERROR", message, ErrValidation)
}

// NewNotFoundError builds an AppError that matches both ErrNotFound and the
// given cause under errors.Is. The cause identifies which collection missed.
func NewNotFoundError(message string, cause error) *AppError {
	return NewAppError("NOT_FOUND", message, errors.Join(ErrNotFound, cause))
}
