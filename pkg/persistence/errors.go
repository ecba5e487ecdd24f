// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrTemplateNotFound indicates a workflow template was not found by the given identifier.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrTemplateStageNotFound indicates a template stage was not found by the given identifier.
	ErrTemplateStageNotFound = errors.New("template stage not found")

	// ErrTemplateTaskNotFound indicates a template task was not found by the given identifier.
	ErrTemplateTaskNotFound = errors.New("template task not found")

	// ErrProjectNotFound indicates a client project was not found by the given identifier.
	ErrProjectNotFound = errors.New("project not found")

	// ErrStageNotFound indicates a project stage was not found by the given identifier.
	ErrStageNotFound = errors.New("stage not found")

	// ErrTaskNotFound indicates a project task was not found by the given identifier.
	ErrTaskNotFound = errors.New("task not found")

	// ErrStageProjectMismatch indicates a task referenced a stage belonging to
	// a different project.
	ErrStageProjectMismatch = errors.New("stage belongs to a different project")
)

// TemplateError wraps template-related errors with additional context.
type TemplateError struct {
	Op         string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	TemplateID string // Template ID if applicable
	Err        error  // Underlying error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("%s operation failed for template %s: %v", e.Op, e.TemplateID, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for template errors.
func (e *TemplateError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewTemplateError creates a new template error with context.
func NewTemplateError(op, templateID string, err error) *TemplateError {
	return &TemplateError{
		Op:         op,
		TemplateID: templateID,
		Err:        err,
	}
}

// ProjectError wraps project-related errors with additional context.
type ProjectError struct {
	Op        string // Operation being performed
	ProjectID string // Project ID if applicable
	Err       error  // Underlying error
}

func (e *ProjectError) Error() string {
	return fmt.Sprintf("%s operation failed for project %s: %v", e.Op, e.ProjectID, e.Err)
}

func (e *ProjectError) Unwrap() error {
	return e.Err
}

func (e *ProjectError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewProjectError creates a new project error with context.
func NewProjectError(op, projectID string, err error) *ProjectError {
	return &ProjectError{
		Op:        op,
		ProjectID: projectID,
		Err:       err,
	}
}

// PartialInstantiationError reports a multi-step template clone that aborted
// after at least one child row was created. The partially-built project is
// left in place; the caller must delete it and retry the whole operation.
type PartialInstantiationError struct {
	ProjectID     string // The project that was partially built
	StagesCreated int    // Stages written before the failure
	TasksCreated  int    // Tasks written before the failure
	Err           error  // Underlying error
}

func (e *PartialInstantiationError) Error() string {
	return fmt.Sprintf(
		"instantiation of project %s aborted after %d stages and %d tasks: %v",
		e.ProjectID, e.StagesCreated, e.TasksCreated, e.Err,
	)
}

func (e *PartialInstantiationError) Unwrap() error {
	return e.Err
}

// IsTemplateNotFound checks if an error indicates a template was not found.
func IsTemplateNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}

// IsTemplateStageNotFound checks if an error indicates a template stage was not found.
func IsTemplateStageNotFound(err error) bool {
	return errors.Is(err, ErrTemplateStageNotFound)
}

// IsTemplateTaskNotFound checks if an error indicates a template task was not found.
func IsTemplateTaskNotFound(err error) bool {
	return errors.Is(err, ErrTemplateTaskNotFound)
}

// IsProjectNotFound checks if an error indicates a project was not found.
func IsProjectNotFound(err error) bool {
	return errors.Is(err, ErrProjectNotFound)
}

// IsStageNotFound checks if an error indicates a project stage was not found.
func IsStageNotFound(err error) bool {
	return errors.Is(err, ErrStageNotFound)
}

// IsTaskNotFound checks if an error indicates a project task was not found.
func IsTaskNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound)
}

// IsStageProjectMismatch checks if an error indicates a cross-project stage reference.
func IsStageProjectMismatch(err error) bool {
	return errors.Is(err, ErrStageProjectMismatch)
}

// IsPartialInstantiation checks if an error reports an aborted template clone.
func IsPartialInstantiation(err error) bool {
	var partial *PartialInstantiationError

	return errors.As(err, &partial)
}
