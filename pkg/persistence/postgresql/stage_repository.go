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

// StageRepository handles project stage database operations.
type StageRepository struct {
	q      querier
	logger *slog.Logger
}

// ListByProject returns a project's stages ordered ascending by position.
func (r *StageRepository) ListByProject(ctx context.Context, projectID string) ([]*models.ProjectStage, error) {
	query := `
		SELECT
			id
		  , project_id
		  , name
		  , position
		  , is_terminal
		  , created_at
		  , updated_at
		FROM project_stages
		WHERE project_id = $1
		ORDER BY position
	`

	rows, err := r.q.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query project stages: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	stages := make([]*models.ProjectStage, 0)

	for rows.Next() {
		var stage models.ProjectStage

		err := rows.Scan(
			&stage.ID,
			&stage.ProjectID,
			&stage.Name,
			&stage.Position,
			&stage.IsTerminal,
			&stage.CreatedAt,
			&stage.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project stage: %w", err)
		}

		stages = append(stages, &stage)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project stages: %w", err)
	}

	return stages, nil
}

// GetByID returns a project stage by its ID, or nil when no row exists.
func (r *StageRepository) GetByID(ctx context.Context, id string) (*models.ProjectStage, error) {
	query := `
		SELECT
			id
		  , project_id
		  , name
		  , position
		  , is_terminal
		  , created_at
		  , updated_at
		FROM project_stages
		WHERE id = $1
	`

	var stage models.ProjectStage

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&stage.ID,
		&stage.ProjectID,
		&stage.Name,
		&stage.Position,
		&stage.IsTerminal,
		&stage.CreatedAt,
		&stage.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan project stage: %w", err)
	}

	return &stage, nil
}

// Save upserts a project stage row.
func (r *StageRepository) Save(ctx context.Context, stage *models.ProjectStage) error {
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
		INSERT INTO project_stages (id, project_id, name, position, is_terminal, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			position = EXCLUDED.position,
			is_terminal = EXCLUDED.is_terminal,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.q.ExecContext(ctx, query,
		stage.ID,
		stage.ProjectID,
		stage.Name,
		stage.Position,
		stage.IsTerminal,
		stage.CreatedAt,
		stage.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save project stage: %w", err)
	}

	return nil
}

// Delete removes a project stage; its tasks go with it via ON DELETE CASCADE.
func (r *StageRepository) Delete(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, "DELETE FROM project_stages WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete project stage: %w", err)
	}

	return nil
}
