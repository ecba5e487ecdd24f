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

// ProjectRepository handles client project database operations.
type ProjectRepository struct {
	q      querier
	logger *slog.Logger
}

// ListByClient returns a client's projects ordered newest-created-first.
func (r *ProjectRepository) ListByClient(ctx context.Context, clientID string) ([]*models.ClientProject, error) {
	query := `
		SELECT
			id
		  , client_id
		  , template_id
		  , name
		  , project_type
		  , status
		  , start_date
		  , target_date
		  , created_at
		  , updated_at
		FROM client_projects
		WHERE client_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	projects := make([]*models.ClientProject, 0)

	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}

		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

// GetByID returns a project by its ID, or nil when no row exists.
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*models.ClientProject, error) {
	query := `
		SELECT
			id
		  , client_id
		  , template_id
		  , name
		  , project_type
		  , status
		  , start_date
		  , target_date
		  , created_at
		  , updated_at
		FROM client_projects
		WHERE id = $1
	`

	project, err := scanProject(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan project: %w", err)
	}

	return project, nil
}

// Save upserts a project row.
func (r *ProjectRepository) Save(ctx context.Context, project *models.ClientProject) error {
	now := time.Now().UTC()

	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}

	project.UpdatedAt = now

	if project.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate project ID: %w", err)
		}

		project.ID = id.String()
	}

	query := `
		INSERT INTO client_projects (id, client_id, template_id, name, project_type, status, start_date, target_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			start_date = EXCLUDED.start_date,
			target_date = EXCLUDED.target_date,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.q.ExecContext(ctx, query,
		project.ID,
		project.ClientID,
		project.TemplateID,
		project.Name,
		project.Type,
		project.Status,
		project.StartDate,
		project.TargetDate,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}

	return nil
}

// Delete removes a project; stages and tasks go with it via ON DELETE CASCADE.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, "DELETE FROM client_projects WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}

func scanProject(scanner interface {
	Scan(dest ...any) error
}) (*models.ClientProject, error) {
	var project models.ClientProject

	err := scanner.Scan(
		&project.ID,
		&project.ClientID,
		&project.TemplateID,
		&project.Name,
		&project.Type,
		&project.Status,
		&project.StartDate,
		&project.TargetDate,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &project, nil
}
