package file

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hartline/clientops/pkg/models"
	"github.com/hartline/clientops/pkg/persistence"
)

// StageRepository handles project stage operations within project aggregates.
type StageRepository struct {
	store *Persistence
}

// ListByProject returns a project's stages ordered ascending by position.
func (r *StageRepository) ListByProject(_ context.Context, projectID string) ([]*models.ProjectStage, error) {
	var doc projectDocument

	found, err := r.store.readDocument(projectsDir, projectID, &doc)
	if err != nil {
		return nil, err
	}

	if !found {
		return make([]*models.ProjectStage, 0), nil
	}

	stages := make([]*models.ProjectStage, len(doc.Stages))
	copy(stages, doc.Stages)

	sort.Slice(stages, func(i, j int) bool {
		return stages[i].Position < stages[j].Position
	})

	return stages, nil
}

// GetByID retrieves a project stage by its ID.
func (r *StageRepository) GetByID(_ context.Context, id string) (*models.ProjectStage, error) {
	doc, err := r.store.projectDocumentByStage(id)
	if err != nil {
		return nil, err
	}

	if doc == nil {
		return nil, nil
	}

	for _, stage := range doc.Stages {
		if stage.ID == id {
			return stage, nil
		}
	}

	return nil, nil
}

// Save upserts a stage into its owning project aggregate.
func (r *StageRepository) Save(_ context.Context, stage *models.ProjectStage) error {
	var doc projectDocument

	found, err := r.store.readDocument(projectsDir, stage.ProjectID, &doc)
	if err != nil {
		return err
	}

	if !found {
		return persistence.NewProjectError("SaveStage", stage.ProjectID, persistence.ErrProjectNotFound)
	}

	now := time.Now().UTC()

	if stage.ID == "" {
		stage.ID = uuid.New().String()
	}

	if stage.CreatedAt.IsZero() {
		stage.CreatedAt = now
	}

	stage.UpdatedAt = now

	replaced := false

	for i, existing := range doc.Stages {
		if existing.ID == stage.ID {
			doc.Stages[i] = stage
			replaced = true

			break
		}
	}

	if !replaced {
		doc.Stages = append(doc.Stages, stage)
	}

	return r.store.writeDocument(projectsDir, stage.ProjectID, &doc)
}

// Delete removes a stage and its tasks from the owning project aggregate.
func (r *StageRepository) Delete(_ context.Context, id string) error {
	doc, err := r.store.projectDocumentByStage(id)
	if err != nil {
		return err
	}

	if doc == nil {
		return persistence.ErrStageNotFound
	}

	stages := make([]*models.ProjectStage, 0, len(doc.Stages))
	for _, stage := range doc.Stages {
		if stage.ID != id {
			stages = append(stages, stage)
		}
	}

	tasks := make([]*models.ProjectTask, 0, len(doc.Tasks))
	for _, task := range doc.Tasks {
		if task.StageID != id {
			tasks = append(tasks, task)
		}
	}

	doc.Stages = stages
	doc.Tasks = tasks

	return r.store.writeDocument(projectsDir, doc.Project.ID, doc)
}
