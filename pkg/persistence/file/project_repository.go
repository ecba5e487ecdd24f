package file

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hartline/clientops/pkg/models"
)

// ProjectRepository handles project aggregate file operations.
type ProjectRepository struct {
	store *Persistence
}

// ListByClient returns a client's projects ordered newest-created-first.
func (r *ProjectRepository) ListByClient(_ context.Context, clientID string) ([]*models.ClientProject, error) {
	docs, err := r.store.projectDocuments()
	if err != nil {
		return nil, err
	}

	projects := make([]*models.ClientProject, 0)

	for _, doc := range docs {
		if doc.Project.ClientID == clientID {
			projects = append(projects, doc.Project)
		}
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})

	return projects, nil
}

// GetByID retrieves a project by its ID.
func (r *ProjectRepository) GetByID(_ context.Context, id string) (*models.ClientProject, error) {
	var doc projectDocument

	found, err := r.store.readDocument(projectsDir, id, &doc)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	return doc.Project, nil
}

// Save upserts a project. Stages and tasks of an existing aggregate are preserved.
func (r *ProjectRepository) Save(_ context.Context, project *models.ClientProject) error {
	now := time.Now().UTC()

	if project.ID == "" {
		project.ID = uuid.New().String()
	}

	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}

	project.UpdatedAt = now

	var doc projectDocument

	found, err := r.store.readDocument(projectsDir, project.ID, &doc)
	if err != nil {
		return err
	}

	if !found {
		doc = projectDocument{
			Stages: make([]*models.ProjectStage, 0),
			Tasks:  make([]*models.ProjectTask, 0),
		}
	}

	doc.Project = project

	return r.store.writeDocument(projectsDir, project.ID, &doc)
}

// Delete removes a project aggregate, cascading to its stages and tasks.
func (r *ProjectRepository) Delete(_ context.Context, id string) error {
	return r.store.deleteDocument(projectsDir, id)
}
