// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest      = errors.New("invalid request")
	ErrTemplateNameShort   = errors.New("template name must be at least 3 characters")
	ErrTemplateNil         = errors.New("template cannot be nil")
	ErrClientIDRequired    = errors.New("client ID is required")
	ErrProjectNameRequired = errors.New("project name is required")
	ErrTaskTitleRequired   = errors.New("task title is required")
	ErrStageNameRequired   = errors.New("stage name is required")
	ErrInvalidProjectType  = errors.New("invalid project type")
	ErrInvalidStatus       = errors.New("invalid project status")
	ErrInvalidPriority     = errors.New("invalid task priority")
	ErrInvalidDate         = errors.New("date must be formatted YYYY-MM-DD")
	ErrInvalidTemplateDoc  = errors.New("template document failed schema validation")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrTemplateNameShort) ||
		errors.Is(err, ErrTemplateNil) ||
		errors.Is(err, ErrClientIDRequired) ||
		errors.Is(err, ErrProjectNameRequired) ||
		errors.Is(err, ErrTaskTitleRequired) ||
		errors.Is(err, ErrStageNameRequired) ||
		errors.Is(err, ErrInvalidProjectType) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidPriority) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidTemplateDoc)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
