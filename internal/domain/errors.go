package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	ErrInternal      ErrorCode = "INTERNAL_ERROR"
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// Exercise specific errors
	ErrExerciseNotFound ErrorCode = "EXERCISE_NOT_FOUND"
	ErrExerciseExists   ErrorCode = "EXERCISE_EXISTS"
	ErrGenerationFailed ErrorCode = "GENERATION_FAILED"
	ErrLLMServiceError  ErrorCode = "LLM_SERVICE_ERROR"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Helper functions for common errors
func NewNotFoundError(message string) *DomainError {
	return NewError(ErrNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(ErrInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(ErrInternal, message, err)
}

func NewConfigurationError(message string) *DomainError {
	return NewError(ErrConfiguration, message, nil)
}

func NewExerciseNotFoundError(slug string) *DomainError {
	return NewError(ErrExerciseNotFound, fmt.Sprintf("exercise not found: %s", slug), nil)
}

func NewExerciseExistsError(path string) *DomainError {
	return NewError(ErrExerciseExists, fmt.Sprintf("exercise file already exists: %s", path), nil)
}

func NewGenerationFailedError(message string, err error) *DomainError {
	return NewError(ErrGenerationFailed, message, err)
}

func NewLLMServiceError(err error) *DomainError {
	return NewError(ErrLLMServiceError, "Failed to process with LLM service", err)
}

// HasCode reports whether err is a DomainError carrying code.
func HasCode(err error, code ErrorCode) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}
