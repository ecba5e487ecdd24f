package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/hartline/clientops/pkg/eventbus"
	"github.com/hartline/clientops/pkg/events"
	"github.com/hartline/clientops/pkg/models"
	"github.com/hartline/clientops/pkg/persistence"
)

var (
	// ErrProjectNotFound is returned when a project is not found.
	ErrProjectNotFound = persistence.ErrProjectNotFound
	// ErrStageNotFound is returned when a project stage is not found.
	ErrStageNotFound = persistence.ErrStageNotFound
)

// defaultStageNames seeds the board of a project created without a template.
var defaultStageNames = []string{"To Do", "In Progress", "Done"}

// Project manages client projects and instantiates them from templates.
type Project struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

// NewProject creates a new project service. The publisher may be nil when no
// event bus is wired.
func NewProject(p persistence.Persistence, publisher eventbus.EventPublisher, logger *slog.Logger) *Project {
	return &Project{
		persistence: p,
		publisher:   publisher,
		logger:      logger.With("module", "project_service"),
	}
}

// CreateProjectRequest describes a project to instantiate. When TemplateID is
// set the template's stage/task graph is cloned; otherwise the board is
// seeded with the default three-stage skeleton.
type CreateProjectRequest struct {
	ClientID   string             `json:"client_id"             validate:"required"`
	TemplateID *string            `json:"template_id,omitempty"`
	Name       string             `json:"name"                  validate:"required,min=3"`
	Type       models.ProjectType `json:"project_type"          validate:"required,oneof=content landing_page automation website campaign other"`
	StartDate  *string            `json:"start_date,omitempty"  validate:"omitempty,datetime=2006-01-02"`
	TargetDate *string            `json:"target_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (req *CreateProjectRequest) validate() error {
	if req.ClientID == "" {
		return ErrClientIDRequired
	}

	if len(req.Name) < 3 {
		return ErrProjectNameRequired
	}

	if !validProjectType(req.Type) {
		return ErrInvalidProjectType
	}

	if err := validateDate(req.StartDate); err != nil {
		return err
	}

	return validateDate(req.TargetDate)
}

func validProjectType(t models.ProjectType) bool {
	switch t {
	case models.ProjectTypeContent,
		models.ProjectTypeLandingPage,
		models.ProjectTypeAutomation,
		models.ProjectTypeWebsite,
		models.ProjectTypeCampaign,
		models.ProjectTypeOther:
		return true
	}

	return false
}

func validateDate(date *string) error {
	if date == nil {
		return nil
	}

	if _, err := time.Parse("2006-01-02", *date); err != nil {
		return ErrInvalidDate
	}

	return nil
}

// Create instantiates a project. With a template it deep-copies the
// template's stage and task graph into project-owned rows; the clone is fully
// independent of the template afterwards. The whole clone runs inside
// WithTransaction; a backend without transactions leaves partial rows behind
// on failure, reported as a PartialInstantiationError.
func (s *Project) Create(ctx context.Context, req CreateProjectRequest) (*models.ClientProject, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var (
		templateStages []*models.TemplateStage
		templateTasks  map[string][]*models.TemplateTask
	)

	if req.TemplateID != nil {
		template, err := s.persistence.Templates().GetByID(ctx, *req.TemplateID)
		if err != nil {
			return nil, err
		}

		if template == nil {
			return nil, ErrTemplateNotFound
		}

		templateStages, err = s.persistence.Templates().StagesByTemplate(ctx, *req.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("failed to load template stages: %w", err)
		}

		templateTasks = make(map[string][]*models.TemplateTask, len(templateStages))

		for _, stage := range templateStages {
			tasks, err := s.persistence.Templates().TasksByStage(ctx, stage.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to load template tasks: %w", err)
			}

			templateTasks[stage.ID] = tasks
		}
	}

	project := &models.ClientProject{
		ClientID:   req.ClientID,
		TemplateID: req.TemplateID,
		Name:       req.Name,
		Type:       req.Type,
		Status:     models.ProjectStatusActive,
		StartDate:  req.StartDate,
		TargetDate: req.TargetDate,
	}

	var (
		stagesCreated, tasksCreated int
		passthrough                 bool
	)

	err := s.persistence.WithTransaction(ctx, func(txp persistence.Persistence) error {
		// A backend without transactions hands fn the persistence it was
		// called on; writes that already happened survive a failure.
		passthrough = txp == s.persistence

		if err := txp.Projects().Save(ctx, project); err != nil {
			return fmt.Errorf("failed to save project: %w", err)
		}

		if req.TemplateID == nil {
			return s.seedDefaultStages(ctx, txp, project.ID, &stagesCreated)
		}

		return s.cloneTemplateGraph(ctx, txp, project.ID, templateStages, templateTasks, &stagesCreated, &tasksCreated)
	})
	if err != nil {
		if passthrough && project.ID != "" {
			return nil, &persistence.PartialInstantiationError{
				ProjectID:     project.ID,
				StagesCreated: stagesCreated,
				TasksCreated:  tasksCreated,
				Err:           err,
			}
		}

		return nil, err
	}

	s.emit(ctx, project.ID, events.ProjectCreated{
		BaseEvent:  events.NewBaseEvent(events.ProjectCreatedEvent, project.ID),
		ClientID:   project.ClientID,
		TemplateID: project.TemplateID,
		Name:       project.Name,
		StageCount: stagesCreated,
		TaskCount:  tasksCreated,
	})

	return project, nil
}

// seedDefaultStages builds the blank-project board skeleton. The last stage
// is the board's done column.
func (s *Project) seedDefaultStages(ctx context.Context, txp persistence.Persistence, projectID string, stagesCreated *int) error {
	for i, name := range defaultStageNames {
		stage := &models.ProjectStage{
			ProjectID:  projectID,
			Name:       name,
			Position:   i,
			IsTerminal: i == len(defaultStageNames)-1,
		}

		if err := txp.Stages().Save(ctx, stage); err != nil {
			return fmt.Errorf("failed to seed stage %q: %w", name, err)
		}

		*stagesCreated++
	}

	return nil
}

// cloneTemplateGraph copies template stages and tasks into project-owned
// rows, preserving names and positions. Template tasks whose stage is missing
// from the mapping are skipped rather than failing the clone.
func (s *Project) cloneTemplateGraph(
	ctx context.Context,
	txp persistence.Persistence,
	projectID string,
	templateStages []*models.TemplateStage,
	templateTasks map[string][]*models.TemplateTask,
	stagesCreated, tasksCreated *int,
) error {
	stageIDMap := make(map[string]string, len(templateStages))

	for i, templateStage := range templateStages {
		stage := &models.ProjectStage{
			ProjectID:  projectID,
			Name:       templateStage.Name,
			Position:   templateStage.Position,
			IsTerminal: i == len(templateStages)-1,
		}

		if err := txp.Stages().Save(ctx, stage); err != nil {
			return fmt.Errorf("failed to clone stage %q: %w", templateStage.Name, err)
		}

		stageIDMap[templateStage.ID] = stage.ID
		*stagesCreated++
	}

	for _, templateStage := range templateStages {
		for _, templateTask := range templateTasks[templateStage.ID] {
			stageID, ok := stageIDMap[templateTask.StageID]
			if !ok {
				s.logger.WarnContext(ctx, "Skipping task with unmapped stage",
					"template_task_id", templateTask.ID, "template_stage_id", templateTask.StageID)

				continue
			}

			task := &models.ProjectTask{
				ProjectID:       projectID,
				StageID:         stageID,
				Title:           templateTask.Title,
				Position:        templateTask.Position,
				Priority:        models.TaskPriorityMedium,
				VisibleToClient: true,
				Links:           make([]models.TaskLink, 0),
			}

			if err := txp.Tasks().Save(ctx, task); err != nil {
				return fmt.Errorf("failed to clone task %q: %w", templateTask.Title, err)
			}

			*tasksCreated++
		}
	}

	return nil
}

// ListByClient returns a client's projects, newest first.
func (s *Project) ListByClient(ctx context.Context, clientID string) ([]*models.ClientProject, error) {
	if clientID == "" {
		return nil, ErrClientIDRequired
	}

	projects, err := s.persistence.Projects().ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, nil
}

// FetchByID retrieves a project by its ID.
func (s *Project) FetchByID(ctx context.Context, id string) (*models.ClientProject, error) {
	project, err := s.persistence.Projects().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if project == nil {
		return nil, ErrProjectNotFound
	}

	return project, nil
}

// UpdateProjectRequest carries a partial project update. Nil fields are left
// untouched. Client, template, and type are fixed at creation.
type UpdateProjectRequest struct {
	Name       *string               `json:"name,omitempty"        validate:"omitempty,min=3"`
	Status     *models.ProjectStatus `json:"status,omitempty"      validate:"omitempty,oneof=active completed archived"`
	StartDate  *string               `json:"start_date,omitempty"  validate:"omitempty,datetime=2006-01-02"`
	TargetDate *string               `json:"target_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Update modifies an existing project by its ID.
func (s *Project) Update(ctx context.Context, id string, req UpdateProjectRequest) (*models.ClientProject, error) {
	existing, err := s.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if len(*req.Name) < 3 {
			return nil, ErrProjectNameRequired
		}

		existing.Name = *req.Name
	}

	if req.Status != nil {
		switch *req.Status {
		case models.ProjectStatusActive, models.ProjectStatusCompleted, models.ProjectStatusArchived:
		default:
			return nil, ErrInvalidStatus
		}

		existing.Status = *req.Status
	}

	if req.StartDate != nil {
		if err := validateDate(req.StartDate); err != nil {
			return nil, err
		}

		existing.StartDate = req.StartDate
	}

	if req.TargetDate != nil {
		if err := validateDate(req.TargetDate); err != nil {
			return nil, err
		}

		existing.TargetDate = req.TargetDate
	}

	err = s.persistence.Projects().Save(ctx, existing)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	s.emit(ctx, id, events.ProjectUpdated{
		BaseEvent: events.NewBaseEvent(events.ProjectUpdatedEvent, id),
	})

	return existing, nil
}

// Delete removes a project with its stages and tasks.
func (s *Project) Delete(ctx context.Context, id string) error {
	existing, err := s.persistence.Projects().GetByID(ctx, id)
	if err != nil {
		return err
	}

	if existing == nil {
		return ErrProjectNotFound
	}

	err = s.persistence.Projects().Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.emit(ctx, id, events.ProjectDeleted{
		BaseEvent: events.NewBaseEvent(events.ProjectDeletedEvent, id),
	})

	return nil
}

// Stages returns a project's stages ordered by position.
func (s *Project) Stages(ctx context.Context, projectID string) ([]*models.ProjectStage, error) {
	if _, err := s.FetchByID(ctx, projectID); err != nil {
		return nil, err
	}

	stages, err := s.persistence.Stages().ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages: %w", err)
	}

	return stages, nil
}

// CreateStage adds a stage to a project's board.
func (s *Project) CreateStage(ctx context.Context, projectID, name string, position int, isTerminal bool) (*models.ProjectStage, error) {
	if name == "" {
		return nil, ErrStageNameRequired
	}

	if _, err := s.FetchByID(ctx, projectID); err != nil {
		return nil, err
	}

	stage := &models.ProjectStage{
		ProjectID:  projectID,
		Name:       name,
		Position:   position,
		IsTerminal: isTerminal,
	}

	err := s.persistence.Stages().Save(ctx, stage)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage: %w", err)
	}

	return stage, nil
}

// UpdateProjectStageRequest carries a partial project stage update.
type UpdateProjectStageRequest struct {
	Name       *string `json:"name,omitempty"        validate:"omitempty,min=1"`
	Position   *int    `json:"position,omitempty"    validate:"omitempty,min=0"`
	IsTerminal *bool   `json:"is_terminal,omitempty"`
}

// UpdateStage modifies a project stage.
func (s *Project) UpdateStage(ctx context.Context, stageID string, req UpdateProjectStageRequest) (*models.ProjectStage, error) {
	stage, err := s.persistence.Stages().GetByID(ctx, stageID)
	if err != nil {
		return nil, err
	}

	if stage == nil {
		return nil, ErrStageNotFound
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

	if req.IsTerminal != nil {
		stage.IsTerminal = *req.IsTerminal
	}

	err = s.persistence.Stages().Save(ctx, stage)
	if err != nil {
		return nil, fmt.Errorf("failed to update stage: %w", err)
	}

	return stage, nil
}

// DeleteStage removes a project stage and the tasks it holds.
func (s *Project) DeleteStage(ctx context.Context, stageID string) error {
	stage, err := s.persistence.Stages().GetByID(ctx, stageID)
	if err != nil {
		return err
	}

	if stage == nil {
		return ErrStageNotFound
	}

	err = s.persistence.Stages().Delete(ctx, stageID)
	if err != nil {
		return fmt.Errorf("failed to delete stage: %w", err)
	}

	return nil
}

// ReorderStages rewrites stage positions to match the given order. Every
// stage of the project must appear exactly once. On transactional backends
// the batch is atomic; otherwise writes apply sequentially and the first
// failure stops the loop.
func (s *Project) ReorderStages(ctx context.Context, projectID string, orderedStageIDs []string) ([]*models.ProjectStage, error) {
	stages, err := s.Stages(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if len(orderedStageIDs) != len(stages) {
		return nil, NewValidationError("ReorderStages", "INVALID_STAGE_ORDER",
			fmt.Sprintf("expected %d stage ids, got %d", len(stages), len(orderedStageIDs)), ErrInvalidRequest)
	}

	byID := make(map[string]*models.ProjectStage, len(stages))
	for _, stage := range stages {
		byID[stage.ID] = stage
	}

	seen := make(map[string]struct{}, len(orderedStageIDs))

	for _, id := range orderedStageIDs {
		if _, ok := byID[id]; !ok {
			return nil, NewValidationError("ReorderStages", "INVALID_STAGE_ORDER",
				fmt.Sprintf("stage %s does not belong to project %s", id, projectID), ErrInvalidRequest)
		}

		if _, dup := seen[id]; dup {
			return nil, NewValidationError("ReorderStages", "INVALID_STAGE_ORDER",
				fmt.Sprintf("stage %s appears more than once", id), ErrInvalidRequest)
		}

		seen[id] = struct{}{}
	}

	err = s.persistence.WithTransaction(ctx, func(txp persistence.Persistence) error {
		for position, id := range orderedStageIDs {
			stage := byID[id]
			stage.Position = position

			if err := txp.Stages().Save(ctx, stage); err != nil {
				return fmt.Errorf("failed to reposition stage %s: %w", id, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(stages, func(a, b *models.ProjectStage) int {
		return a.Position - b.Position
	})

	s.emit(ctx, projectID, events.StagesReordered{
		BaseEvent: events.NewBaseEvent(events.StagesReorderedEvent, projectID),
		StageIDs:  orderedStageIDs,
	})

	return stages, nil
}

// Tasks returns a project's tasks ordered by position.
func (s *Project) Tasks(ctx context.Context, projectID string) ([]*models.ProjectTask, error) {
	if _, err := s.FetchByID(ctx, projectID); err != nil {
		return nil, err
	}

	tasks, err := s.persistence.Tasks().ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

func (s *Project) emit(ctx context.Context, key string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
