package file

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hartline/clientops/pkg/models"
	"github.com/hartline/clientops/pkg/persistence"
)

// TaskRepository handles project task operations within project aggregates.
type TaskRepository struct {
	store *Persistence
}

// ListByProject returns all of a project's tasks ordered ascending by position.
func (r *TaskRepository) ListByProject(_ context.Context, projectID string) ([]*models.ProjectTask, error) {
	var doc projectDocument

	found, err := r.store.readDocument(projectsDir, projectID, &doc)
	if err != nil {
		return nil, err
	}

	if !found {
		return make([]*models.ProjectTask, 0), nil
	}

	tasks := make([]*models.ProjectTask, len(doc.Tasks))
	copy(tasks, doc.Tasks)

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].Position < tasks[j].Position
	})

	return tasks, nil
}

// ListByStage returns a stage's tasks ordered ascending by position.
func (r *TaskRepository) ListByStage(_ context.Context, stageID string) ([]*models.ProjectTask, error) {
	doc, err := r.store.projectDocumentByStage(stageID)
	if err != nil {
		return nil, err
	}

	if doc == nil {
		return make([]*models.ProjectTask, 0), nil
	}

	tasks := make([]*models.ProjectTask, 0)

	for _, task := range doc.Tasks {
		if task.StageID == stageID {
			tasks = append(tasks, task)
		}
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].Position < tasks[j].Position
	})

	return tasks, nil
}

// GetByID retrieves a project task by its ID.
func (r *TaskRepository) GetByID(_ context.Context, id string) (*models.ProjectTask, error) {
	doc, err := r.store.projectDocumentByTask(id)
	if err != nil {
		return nil, err
	}

	if doc == nil {
		return nil, nil
	}

	for _, task := range doc.Tasks {
		if task.ID == id {
			return task, nil
		}
	}

	return nil, nil
}

// Save upserts a task into its owning project aggregate.
func (r *TaskRepository) Save(_ context.Context, task *models.ProjectTask) error {
	var doc projectDocument

	found, err := r.store.readDocument(projectsDir, task.ProjectID, &doc)
	if err != nil {
		return err
	}

	if !found {
		return persistence.NewProjectError("SaveTask", task.ProjectID, persistence.ErrProjectNotFound)
	}

	now := time.Now().UTC()

	if task.ID == "" {
		task.ID = uuid.New().String()
	}

	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}

	task.UpdatedAt = now

	replaced := false

	for i, existing := range doc.Tasks {
		if existing.ID == task.ID {
			doc.Tasks[i] = task
			replaced = true

			break
		}
	}

	if !replaced {
		doc.Tasks = append(doc.Tasks, task)
	}

	return r.store.writeDocument(projectsDir, task.ProjectID, &doc)
}

// Delete removes a task from its owning project aggregate.
func (r *TaskRepository) Delete(_ context.Context, id string) error {
	doc, err := r.store.projectDocumentByTask(id)
	if err != nil {
		return err
	}

	if doc == nil {
		return persistence.ErrTaskNotFound
	}

	tasks := make([]*models.ProjectTask, 0, len(doc.Tasks))
	for _, task := range doc.Tasks {
		if task.ID != id {
			tasks = append(tasks, task)
		}
	}

	doc.Tasks = tasks

	return r.store.writeDocument(projectsDir, doc.Project.ID, doc)
}
