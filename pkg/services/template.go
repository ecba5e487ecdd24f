package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hartline/clientops/pkg/eventbus"
	"github.com/hartline/clientops/pkg/events"
	"github.com/hartline/clientops/pkg/models"
	"github.com/hartline/clientops/pkg/persistence"
)

var (
	// ErrTemplateNotFound is returned when a template is not found.
	ErrTemplateNotFound = persistence.ErrTemplateNotFound
	// ErrTemplateStageNotFound is returned when a template stage is not found.
	ErrTemplateStageNotFound = persistence.ErrTemplateStageNotFound
	// ErrTemplateTaskNotFound is returned when a template task is not found.
	ErrTemplateTaskNotFound = persistence.ErrTemplateTaskNotFound
)

// Template manages workflow templates: the reusable stage/task blueprints
// that projects are instantiated from.
type Template struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

// NewTemplate creates a new template service. The publisher may be nil when
// no event bus is wired.
func NewTemplate(p persistence.Persistence, publisher eventbus.EventPublisher, logger *slog.Logger) *Template {
	return &Template{
		persistence: p,
		publisher:   publisher,
		logger:      logger.With("module", "template_service"),
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Template) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// TemplateDetails carries a template with its full stage/task graph. Stages
// are ordered by position; tasks are grouped and ordered within their stage.
type TemplateDetails struct {
	Template *models.WorkflowTemplate `json:"template"`
	Stages   []*models.TemplateStage  `json:"stages"`
	Tasks    []*models.TemplateTask   `json:"tasks"`
}

// List returns every stored template.
func (s *Template) List(ctx context.Context) ([]*models.WorkflowTemplate, error) {
	templates, err := s.persistence.Templates().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	return templates, nil
}

// FetchByID retrieves a template by its ID.
func (s *Template) FetchByID(ctx context.Context, id string) (*models.WorkflowTemplate, error) {
	template, err := s.persistence.Templates().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if template == nil {
		return nil, ErrTemplateNotFound
	}

	return template, nil
}

// FetchDetails retrieves a template with its stages and tasks. Tasks whose
// stage no longer belongs to the template are dropped from the result.
func (s *Template) FetchDetails(ctx context.Context, id string) (*TemplateDetails, error) {
	template, err := s.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	stages, err := s.persistence.Templates().StagesByTemplate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load template stages: %w", err)
	}

	stageIDs := make(map[string]struct{}, len(stages))
	for _, stage := range stages {
		stageIDs[stage.ID] = struct{}{}
	}

	tasks := make([]*models.TemplateTask, 0)

	for _, stage := range stages {
		stageTasks, err := s.persistence.Templates().TasksByStage(ctx, stage.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load template tasks: %w", err)
		}

		for _, task := range stageTasks {
			if _, ok := stageIDs[task.StageID]; ok {
				tasks = append(tasks, task)
			}
		}
	}

	return &TemplateDetails{
		Template: template,
		Stages:   stages,
		Tasks:    tasks,
	}, nil
}

// Create adds a new template.
func (s *Template) Create(ctx context.Context, template *models.WorkflowTemplate) (*models.WorkflowTemplate, error) {
	if template == nil {
		return nil, ErrTemplateNil
	}

	if len(template.Name) < 3 {
		return nil, ErrTemplateNameShort
	}

	template.ID = ""

	err := s.persistence.Templates().Save(ctx, template)
	if err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	s.emit(ctx, template.ID, events.TemplateCreated{
		BaseEvent:  events.NewBaseEvent(events.TemplateCreatedEvent, ""),
		TemplateID: template.ID,
		Name:       template.Name,
	})

	return template, nil
}

// UpdateTemplateRequest carries a partial template update. Nil fields are
// left untouched.
type UpdateTemplateRequest struct {
	Name        *string `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string `json:"description,omitempty"`
}

// Update modifies an existing template by its ID.
func (s *Template) Update(ctx context.Context, id string, req UpdateTemplateRequest) (*models.WorkflowTemplate, error) {
	existing, err := s.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if len(*req.Name) < 3 {
			return nil, ErrTemplateNameShort
		}

		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	err = s.persistence.Templates().Save(ctx, existing)
	if err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}

	return existing, nil
}

// Delete removes a template and its whole stage/task graph. Projects cloned
// from the template are untouched.
func (s *Template) Delete(ctx context.Context, id string) error {
	existing, err := s.persistence.Templates().GetByID(ctx, id)
	if err != nil {
		return err
	}

	if existing == nil {
		return ErrTemplateNotFound
	}

	err = s.persistence.Templates().Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	s.emit(ctx, id, events.TemplateDeleted{
		BaseEvent:  events.NewBaseEvent(events.TemplateDeletedEvent, ""),
		TemplateID: id,
	})

	return nil
}

// CreateStage adds a stage to a template.
func (s *Template) CreateStage(ctx context.Context, templateID, name string, position int) (*models.TemplateStage, error) {
	if name == "" {
		return nil, ErrStageNameRequired
	}

	template, err := s.persistence.Templates().GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}

	if template == nil {
		return nil, ErrTemplateNotFound
	}

	stage := &models.TemplateStage{
		TemplateID: templateID,
		Name:       name,
		Position:   position,
	}

	err = s.persistence.Templates().SaveStage(ctx, stage)
	if err != nil {
		return nil, fmt.Errorf("failed to create template stage: %w", err)
	}

	return stage, nil
}

// UpdateStageRequest carries a partial template stage update.
type UpdateStageRequest struct {
	Name     *string `json:"name,omitempty"     validate:"omitempty,min=1"`
	Position *int    `json:"position,omitempty" validate:"omitempty,min=0"`
}

// UpdateStage modifies a template stage's name or position.
func (s *Template) UpdateStage(ctx context.Context, stageID string, req UpdateStageRequest) (*models.TemplateStage, error) {
	stage, err := s.persistence.Templates().StageByID(ctx, stageID)
	if err != nil {
		return nil, err
	}

	if stage == nil {
		return nil, ErrTemplateStageNotFound
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, ErrStageNameRequired
		}

		stage.Name = *req.Name
	}

	if req.Position != nil {
		stage.Position = *req.Position
	}

	err = s.persistence.Templates().SaveStage(ctx, stage)
	if err != nil {
		return nil, fmt.Errorf("failed to update template stage: %w", err)
	}

	return stage, nil
}

// DeleteStage removes a template stage and its tasks.
func (s *Template) DeleteStage(ctx context.Context, stageID string) error {
	stage, err := s.persistence.Templates().StageByID(ctx, stageID)
	if err != nil {
		return err
	}

	if stage == nil {
		return ErrTemplateStageNotFound
	}

	err = s.persistence.Templates().DeleteStage(ctx, stageID)
	if err != nil {
		return fmt.Errorf("failed to delete template stage: %w", err)
	}

	return nil
}

// CreateTask adds a task to a template stage.
func (s *Template) CreateTask(ctx context.Context, stageID, title string, position int) (*models.TemplateTask, error) {
	if title == "" {
		return nil, ErrTaskTitleRequired
	}

	stage, err := s.persistence.Templates().StageByID(ctx, stageID)
	if err != nil {
		return nil, err
	}

	if stage == nil {
		return nil, ErrTemplateStageNotFound
	}

	task := &models.TemplateTask{
		StageID:  stageID,
		Title:    title,
		Position: position,
	}

	err = s.persistence.Templates().SaveTask(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create template task: %w", err)
	}

	return task, nil
}

// DeleteTask removes a template task.
func (s *Template) DeleteTask(ctx context.Context, taskID string) error {
	task, err := s.persistence.Templates().TaskByID(ctx, taskID)
	if err != nil {
		return err
	}

	if task == nil {
		return ErrTemplateTaskNotFound
	}

	err = s.persistence.Templates().DeleteTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete template task: %w", err)
	}

	return nil
}

// emit publishes an event best-effort. Publish failures are logged and never
// fail the write that produced them.
func (s *Template) emit(ctx context.Context, key string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
