package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hartline/clientops/pkg/models"
)

// TemplateRepository handles template-related database operations.
type TemplateRepository struct {
	q      querier
	logger *slog.Logger
}

// List returns all templates ordered newest-created-first.
func (r *TemplateRepository) List(ctx context.Context) ([]*models.WorkflowTemplate, error) {
	query := `
		SELECT
			id
		  , name
		  , description
		  , created_at
		  , updated_at
		FROM workflow_templates
		ORDER BY created_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	templates := make([]*models.WorkflowTemplate, 0)

	for rows.Next() {
		var template models.WorkflowTemplate

		err := rows.Scan(
			&template.ID,
			&template.Name,
			&template.Description,
			&template.CreatedAt,
			&template.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}

		templates = append(templates, &template)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}

	return templates, nil
}

// GetByID returns a template by its ID, or nil when no row exists.
func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*models.WorkflowTemplate, error) {
	query := `
		SELECT
			id
		  , name
		  , description
		  , created_at
		  , updated_at
		FROM workflow_templates
		WHERE id = $1
	`

	var template models.WorkflowTemplate

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&template.ID,
		&template.Name,
		&template.Description,
		&template.CreatedAt,
		&template.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan template: %w", err)
	}

	return &template, nil
}

// Save upserts a template row.
func (r *TemplateRepository) Save(ctx context.Context, template *models.WorkflowTemplate) error {
	now := time.Now().UTC()

	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}

	template.UpdatedAt = now

	if template.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate template ID: %w", err)
		}

		template.ID = id.String()
	}

	query := `
		INSERT INTO workflow_templates (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.q.ExecContext(ctx, query,
		template.ID,
		template.Name,
		template.Description,
		template.CreatedAt,
		template.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}

	return nil
}

// Delete removes a template; stages and tasks go with it via ON DELETE CASCADE.
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, "DELETE FROM workflow_templates WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	return nil
}

// StagesByTemplate returns a template's stages ordered ascending by position.
func (r *TemplateRepository) StagesByTemplate(ctx context.Context, templateID string) ([]*models.TemplateStage, error) {
	query := `
		SELECT
			id
		  , template_id
		  , name
		  , position
		  , created_at
		  , updated_at
		FROM template_stages
		WHERE template_id = $1
		ORDER BY position
	`

	rows, err := r.q.QueryContext(ctx, query, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to query template stages: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	stages := make([]*models.TemplateStage, 0)

	for rows.Next() {
		var stage models.TemplateStage

		err := rows.Scan(
			&stage.ID,
			&stage.TemplateID,
			&stage.Name,
			&stage.Position,
			&stage.CreatedAt,
			&stage.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template stage: %w", err)
		}

		stages = append(stages, &stage)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating template stages: %w", err)
	}

	return stages, nil
}

// StageByID returns a template stage by its ID, or nil when no row exists.
func (r *TemplateRepository) StageByID(ctx context.Context, id string) (*models.TemplateStage, error) {
	query := `
		SELECT
			id
		  , template_id
		  , name
		  , position
		  , created_at
		  , updated_at
		FROM template_stages
		WHERE id = $1
	`

	var stage models.TemplateStage

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&stage.ID,
		&stage.TemplateID,
		&stage.Name,
		&stage.Position,
		&stage.CreatedAt,
		&stage.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan template stage: %w", err)
	}

	return &stage, nil
}

// SaveStage upserts a template stage row.
func (r *TemplateRepository) SaveStage(ctx context.Context, stage *models.TemplateStage) error {
	now := time.Now().UTC()

	if stage.CreatedAt.IsZero() {
		stage.CreatedAt = now
	}

	stage.UpdatedAt = now

	if stage.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate stage ID: %w", err)
		}

		stage.ID = id.String()
	}

	query := `
		INSERT INTO template_stages (id, template_id, name, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			position = EXCLUDED.position,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.q.ExecContext(ctx, query,
		stage.ID,
		stage.TemplateID,
		stage.Name,
		stage.Position,
		stage.CreatedAt,
		stage.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save template stage: %w", err)
	}

	return nil
}

// DeleteStage removes a template stage; its tasks go with it via ON DELETE CASCADE.
func (r *TemplateRepository) DeleteStage(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, "DELETE FROM template_stages WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete template stage: %w", err)
	}

	return nil
}

// TasksByStage returns a stage's tasks ordered ascending by position.
func (r *TemplateRepository) TasksByStage(ctx context.Context, stageID string) ([]*models.TemplateTask, error) {
	query := `
		SELECT
			id
		  , stage_id
		  , title
		  , position
		  , created_at
		  , updated_at
		FROM template_tasks
		WHERE stage_id = $1
		ORDER BY position
	`

	rows, err := r.q.QueryContext(ctx, query, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query template tasks: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	tasks := make([]*models.TemplateTask, 0)

	for rows.Next() {
		var task models.TemplateTask

		err := rows.Scan(
			&task.ID,
			&task.StageID,
			&task.Title,
			&task.Position,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template task: %w", err)
		}

		tasks = append(tasks, &task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating template tasks: %w", err)
	}

	return tasks, nil
}

// TaskByID returns a template task by its ID, or nil when no row exists.
func (r *TemplateRepository) TaskByID(ctx context.Context, id string) (*models.TemplateTask, error) {
	query := `
		SELECT
			id
		  , stage_id
		  , title
		  , position
		  , created_at
		  , updated_at
		FROM template_tasks
		WHERE id = $1
	`

	var task models.TemplateTask

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&task.ID,
		&task.StageID,
		&task.Title,
		&task.Position,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan template task: %w", err)
	}

	return &task, nil
}

// SaveTask upserts a template task row.
func (r *TemplateRepository) SaveTask(ctx context.Context, task *models.TemplateTask) error {
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

	query := `
		INSERT INTO template_tasks (id, stage_id, title, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			position = EXCLUDED.position,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.q.ExecContext(ctx, query,
		task.ID,
		task.StageID,
		task.Title,
		task.Position,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save template task: %w", err)
	}

	return nil
}

// DeleteTask removes a template task row.
func (r *TemplateRepository) DeleteTask(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, "DELETE FROM template_tasks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete template task: %w", err)
	}

	return nil
}
