// Package persistence provides the data storage abstraction layer for
// templates, projects, stages, and tasks.
package persistence

import (
	"context"

	"github.com/hartline/clientops/pkg/models"
)

// Persistence is the row-store port the engine consumes. Adapters assign ids
// on save when the record carries none and maintain created_at/updated_at.
type Persistence interface {
	Templates() TemplateRepository
	Projects() ProjectRepository
	Stages() StageRepository
	Tasks() TaskRepository

	// WithTransaction runs fn against a Persistence bound to a single
	// transaction when the backend supports one. Non-transactional backends
	// run fn against themselves with best-effort sequential writes; callers
	// must not assume atomicity beyond what the backend provides.
	WithTransaction(ctx context.Context, fn func(Persistence) error) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// TemplateRepository stores workflow templates and their stage/task graphs.
// Lookups return (nil, nil) when the row does not exist.
type TemplateRepository interface {
	List(ctx context.Context) ([]*models.WorkflowTemplate, error)
	GetByID(ctx context.Context, id string) (*models.WorkflowTemplate, error)
	Save(ctx context.Context, template *models.WorkflowTemplate) error
	// Delete cascades to the template's stages and tasks.
	Delete(ctx context.Context, id string) error

	StagesByTemplate(ctx context.Context, templateID string) ([]*models.TemplateStage, error)
	StageByID(ctx context.Context, id string) (*models.TemplateStage, error)
	SaveStage(ctx context.Context, stage *models.TemplateStage) error
	// DeleteStage cascades to the stage's tasks.
	DeleteStage(ctx context.Context, id string) error

	TasksByStage(ctx context.Context, stageID string) ([]*models.TemplateTask, error)
	TaskByID(ctx context.Context, id string) (*models.TemplateTask, error)
	SaveTask(ctx context.Context, task *models.TemplateTask) error
	DeleteTask(ctx context.Context, id string) error
}

// ProjectRepository stores client projects.
type ProjectRepository interface {
	// ListByClient returns a client's projects ordered newest-created-first.
	ListByClient(ctx context.Context, clientID string) ([]*models.ClientProject, error)
	GetByID(ctx context.Context, id string) (*models.ClientProject, error)
	Save(ctx context.Context, project *models.ClientProject) error
	// Delete cascades to the project's stages and tasks.
	Delete(ctx context.Context, id string) error
}

// StageRepository stores project stages.
type StageRepository interface {
	// ListByProject returns stages ordered ascending by position.
	ListByProject(ctx context.Context, projectID string) ([]*models.ProjectStage, error)
	GetByID(ctx context.Context, id string) (*models.ProjectStage, error)
	Save(ctx context.Context, stage *models.ProjectStage) error
	// Delete cascades to the stage's tasks.
	Delete(ctx context.Context, id string) error
}

// TaskRepository stores project tasks.
type TaskRepository interface {
	// ListByProject returns all of a project's tasks ordered by position.
	ListByProject(ctx context.Context, projectID string) ([]*models.ProjectTask, error)
	// ListByStage returns a stage's tasks ordered by position.
	ListByStage(ctx context.Context, stageID string) ([]*models.ProjectTask, error)
	GetByID(ctx context.Context, id string) (*models.ProjectTask, error)
	Save(ctx context.Context, task *models.ProjectTask) error
	Delete(ctx context.Context, id string) error
}
