package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hartline/clientops/pkg/models"
)

// TaskRepository handles project task database operations. Task links are
// stored as a JSONB array.
type TaskRepository struct {
	q      querier
	logger *slog.Logger
}

const taskColumns = `
	id
  , project_id
  , stage_id
  , title
  , description
  , position
  , due_date
  , priority
  , is_blocked
  , blocked_reason
  , visible_to_client
  , links
  , created_at
  , updated_at
`

// ListByProject returns all of a project's tasks ordered ascending by position.
func (r *TaskRepository) ListByProject(ctx context.Context, projectID string) ([]*models.ProjectTask, error) {
	query := `SELECT ` + taskColumns + ` FROM project_tasks WHERE project_id = $1 ORDER BY position`

	return r.queryTasks(ctx, query, projectID)
}

// ListByStage returns a stage's tasks ordered ascending by position.
func (r *TaskRepository) ListByStage(ctx context.Context, stageID string) ([]*models.ProjectTask, error) {
	query := `SELECT ` + taskColumns + ` FROM project_tasks WHERE stage_id = $1 ORDER BY position`

	return r.queryTasks(ctx, query, stageID)
}

func (r *TaskRepository) queryTasks(ctx context.Context, query string, args ...any) ([]*models.ProjectTask, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query project tasks: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	tasks := make([]*models.ProjectTask, 0)

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project task: %w", err)
		}

		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project tasks: %w", err)
	}

	return tasks, nil
}

// GetByID returns a project task by its ID, or nil when no row exists.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.ProjectTask, error) {
	query := `SELECT ` + taskColumns + ` FROM project_tasks WHERE id = $1`

	task, err := scanTask(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan project task: %w", err)
	}

	return task, nil
}

// Save upserts a project task row.
func (r *TaskRepository) Save(ctx context.Context, task *models.ProjectTask) error {
	now := time.Now().UTC()

	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}

	task.UpdatedAt = now

	if task.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate task ID: %w", err)
		}

		task.ID = id.String()
	}

	if task.Links == nil {
		task.Links = make([]models.TaskLink, 0)
	}

	linksJSON, err := json.Marshal(task.Links)
	if err != nil {
		return fmt.Errorf("failed to marshal task links: %w", err)
	}

	query := `
		INSERT INTO project_tasks (id, project_id, stage_id, title, description, position, due_date, priority, is_blocked, blocked_reason, visible_to_client, links, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			stage_id = EXCLUDED.stage_id,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			position = EXCLUDED.position,
			due_date = EXCLUDED.due_date,
			priority = EXCLUDED.priority,
			is_blocked = EXCLUDED.is_blocked,
			blocked_reason = EXCLUDED.blocked_reason,
			visible_to_client = EXCLUDED.visible_to_client,
			links = EXCLUDED.links,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.q.ExecContext(ctx, query,
		task.ID,
		task.ProjectID,
		task.StageID,
		task.Title,
		task.Description,
		task.Position,
		task.DueDate,
		task.Priority,
		task.IsBlocked,
		task.BlockedReason,
		task.VisibleToClient,
		linksJSON,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save project task: %w", err)
	}

	return nil
}

// Delete removes a project task row.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, "DELETE FROM project_tasks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete project task: %w", err)
	}

	return nil
}

func scanTask(scanner interface {
	Scan(dest ...any) error
}) (*models.ProjectTask, error) {
	var (
		task      models.ProjectTask
		linksJSON []byte
	)

	err := scanner.Scan(
		&task.ID,
		&task.ProjectID,
		&task.StageID,
		&task.Title,
		&task.Description,
		&task.Position,
		&task.DueDate,
		&task.Priority,
		&task.IsBlocked,
		&task.BlockedReason,
		&task.VisibleToClient,
		&linksJSON,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if linksJSON != nil {
		err := json.Unmarshal(linksJSON, &task.Links)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal task links: %w", err)
		}
	}

	return &task, nil
}
