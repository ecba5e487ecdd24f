package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hartline/clientops/pkg/eventbus"
	"github.com/hartline/clientops/pkg/events"
	"github.com/hartline/clientops/pkg/models"
	"github.com/hartline/clientops/pkg/persistence"
)

var (
	// ErrTaskNotFound is returned when a project task is not found.
	ErrTaskNotFound = persistence.ErrTaskNotFound
	// ErrStageProjectMismatch is returned when a task move targets a stage
	// belonging to a different project.
	ErrStageProjectMismatch = persistence.ErrStageProjectMismatch
)

// Board runs the kanban surface of a project: task CRUD, moves between
// stages, and derived metrics.
type Board struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
}

// NewBoard creates a new board service. The publisher may be nil when no
// event bus is wired.
func NewBoard(p persistence.Persistence, publisher eventbus.EventPublisher, logger *slog.Logger) *Board {
	return &Board{
		persistence: p,
		publisher:   publisher,
		logger:      logger.With("module", "board_service"),
	}
}

// StageColumn is one board column with its ordered tasks.
type StageColumn struct {
	Stage *models.ProjectStage  `json:"stage"`
	Tasks []*models.ProjectTask `json:"tasks"`
}

// BoardView is a full board snapshot with derived metrics.
type BoardView struct {
	ProjectID string        `json:"project_id"`
	Columns   []StageColumn `json:"columns"`
	Metrics   BoardMetrics  `json:"metrics"`
}

// View loads a project's board: stages by position, tasks grouped into their
// stage, and metrics computed over the snapshot.
func (s *Board) View(ctx context.Context, projectID string) (*BoardView, error) {
	project, err := s.persistence.Projects().GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if project == nil {
		return nil, ErrProjectNotFound
	}

	stages, err := s.persistence.Stages().ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages: %w", err)
	}

	tasks, err := s.persistence.Tasks().ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasksByStage := make(map[string][]*models.ProjectTask, len(stages))
	for _, task := range tasks {
		tasksByStage[task.StageID] = append(tasksByStage[task.StageID], task)
	}

	columns := make([]StageColumn, 0, len(stages))
	for _, stage := range stages {
		stageTasks := tasksByStage[stage.ID]
		if stageTasks == nil {
			stageTasks = make([]*models.ProjectTask, 0)
		}

		columns = append(columns, StageColumn{Stage: stage, Tasks: stageTasks})
	}

	return &BoardView{
		ProjectID: projectID,
		Columns:   columns,
		Metrics:   s.metrics(tasks, stages),
	}, nil
}

// Metrics computes a project's board metrics without loading the full view.
func (s *Board) Metrics(ctx context.Context, projectID string) (*BoardMetrics, error) {
	project, err := s.persistence.Projects().GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if project == nil {
		return nil, ErrProjectNotFound
	}

	stages, err := s.persistence.Stages().ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages: %w", err)
	}

	tasks, err := s.persistence.Tasks().ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	m := s.metrics(tasks, stages)

	return &m, nil
}

func (s *Board) metrics(tasks []*models.ProjectTask, stages []*models.ProjectStage) BoardMetrics {
	today := time.Now().UTC().Format("2006-01-02")

	return BoardMetrics{
		Progress:     Progress(tasks, stages),
		OverdueCount: OverdueCount(tasks, today),
		BlockedCount: BlockedCount(tasks),
		TaskCount:    len(tasks),
	}
}

// CreateTaskRequest describes a new board task.
type CreateTaskRequest struct {
	StageID         string              `json:"stage_id"    validate:"required"`
	Title           string              `json:"title"       validate:"required,min=1"`
	Description     string              `json:"description,omitempty"`
	Position        int                 `json:"position"    validate:"min=0"`
	DueDate         *string             `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Priority        models.TaskPriority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	VisibleToClient *bool               `json:"visible_to_client,omitempty"`
	Links           []models.TaskLink   `json:"links,omitempty" validate:"dive"`
}

// CreateTask adds a task to a stage of the project's board. Priority defaults
// to medium and client visibility defaults to true.
func (s *Board) CreateTask(ctx context.Context, projectID string, req CreateTaskRequest) (*models.ProjectTask, error) {
	if req.Title == "" {
		return nil, ErrTaskTitleRequired
	}

	if err := validateDate(req.DueDate); err != nil {
		return nil, err
	}

	stage, err := s.persistence.Stages().GetByID(ctx, req.StageID)
	if err != nil {
		return nil, err
	}

	if stage == nil {
		return nil, ErrStageNotFound
	}

	if stage.ProjectID != projectID {
		return nil, ErrStageProjectMismatch
	}

	priority := req.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}

	if !validPriority(priority) {
		return nil, ErrInvalidPriority
	}

	visible := true
	if req.VisibleToClient != nil {
		visible = *req.VisibleToClient
	}

	links := req.Links
	if links == nil {
		links = make([]models.TaskLink, 0)
	}

	task := &models.ProjectTask{
		ProjectID:       projectID,
		StageID:         req.StageID,
		Title:           req.Title,
		Description:     req.Description,
		Position:        req.Position,
		DueDate:         req.DueDate,
		Priority:        priority,
		VisibleToClient: visible,
		Links:           links,
	}

	err = s.persistence.Tasks().Save(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.emit(ctx, projectID, events.TaskCreated{
		BaseEvent: events.NewBaseEvent(events.TaskCreatedEvent, projectID),
		TaskID:    task.ID,
		StageID:   task.StageID,
		Title:     task.Title,
	})

	return task, nil
}

func validPriority(p models.TaskPriority) bool {
	switch p {
	case models.TaskPriorityLow, models.TaskPriorityMedium, models.TaskPriorityHigh:
		return true
	}

	return false
}

// FetchTask retrieves a board task by its ID.
func (s *Board) FetchTask(ctx context.Context, taskID string) (*models.ProjectTask, error) {
	task, err := s.persistence.Tasks().GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if task == nil {
		return nil, ErrTaskNotFound
	}

	return task, nil
}

// MoveTask relocates a task to a stage at a position. The target stage must
// belong to the task's project; siblings keep their positions, so the move
// never rewrites other rows.
func (s *Board) MoveTask(ctx context.Context, taskID, newStageID string, newPosition int) (*models.ProjectTask, error) {
	if newPosition < 0 {
		return nil, NewValidationError("MoveTask", "INVALID_POSITION",
			fmt.Sprintf("position must not be negative, got %d", newPosition), ErrInvalidRequest)
	}

	task, err := s.FetchTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	stage, err := s.persistence.Stages().GetByID(ctx, newStageID)
	if err != nil {
		return nil, err
	}

	if stage == nil {
		return nil, ErrStageNotFound
	}

	if stage.ProjectID != task.ProjectID {
		return nil, ErrStageProjectMismatch
	}

	fromStageID := task.StageID
	task.StageID = newStageID
	task.Position = newPosition

	err = s.persistence.Tasks().Save(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to move task: %w", err)
	}

	s.emit(ctx, task.ProjectID, events.TaskMoved{
		BaseEvent:   events.NewBaseEvent(events.TaskMovedEvent, task.ProjectID),
		TaskID:      task.ID,
		FromStageID: fromStageID,
		ToStageID:   newStageID,
		Position:    newPosition,
	})

	return task, nil
}

// UpdateTaskRequest carries a partial task update. Nil fields are left
// untouched; setting ClearDueDate removes an existing due date.
type UpdateTaskRequest struct {
	Title           *string              `json:"title,omitempty"       validate:"omitempty,min=1"`
	Description     *string              `json:"description,omitempty"`
	DueDate         *string              `json:"due_date,omitempty"    validate:"omitempty,datetime=2006-01-02"`
	ClearDueDate    bool                 `json:"clear_due_date,omitempty"`
	Priority        *models.TaskPriority `json:"priority,omitempty"    validate:"omitempty,oneof=low medium high"`
	IsBlocked       *bool                `json:"is_blocked,omitempty"`
	BlockedReason   *string              `json:"blocked_reason,omitempty"`
	VisibleToClient *bool                `json:"visible_to_client,omitempty"`
	Links           []models.TaskLink    `json:"links,omitempty"       validate:"omitempty,dive"`
}

// UpdateTask modifies a board task in place.
func (s *Board) UpdateTask(ctx context.Context, taskID string, req UpdateTaskRequest) (*models.ProjectTask, error) {
	task, err := s.FetchTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, ErrTaskTitleRequired
		}

		task.Title = *req.Title
	}

	if req.Description != nil {
		task.Description = *req.Description
	}

	if req.ClearDueDate {
		task.DueDate = nil
	} else if req.DueDate != nil {
		if err := validateDate(req.DueDate); err != nil {
			return nil, err
		}

		task.DueDate = req.DueDate
	}

	if req.Priority != nil {
		if !validPriority(*req.Priority) {
			return nil, ErrInvalidPriority
		}

		task.Priority = *req.Priority
	}

	if req.IsBlocked != nil {
		task.IsBlocked = *req.IsBlocked

		if !task.IsBlocked {
			task.BlockedReason = ""
		}
	}

	if req.BlockedReason != nil {
		task.BlockedReason = *req.BlockedReason
	}

	if req.VisibleToClient != nil {
		task.VisibleToClient = *req.VisibleToClient
	}

	if req.Links != nil {
		task.Links = req.Links
	}

	err = s.persistence.Tasks().Save(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.emit(ctx, task.ProjectID, events.TaskUpdated{
		BaseEvent: events.NewBaseEvent(events.TaskUpdatedEvent, task.ProjectID),
		TaskID:    task.ID,
	})

	return task, nil
}

// DeleteTask removes a board task.
func (s *Board) DeleteTask(ctx context.Context, taskID string) error {
	task, err := s.FetchTask(ctx, taskID)
	if err != nil {
		return err
	}

	err = s.persistence.Tasks().Delete(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.emit(ctx, task.ProjectID, events.TaskDeleted{
		BaseEvent: events.NewBaseEvent(events.TaskDeletedEvent, task.ProjectID),
		TaskID:    task.ID,
	})

	return nil
}

func (s *Board) emit(ctx context.Context, key string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
