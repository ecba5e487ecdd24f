package file

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hartline/clientops/pkg/models"
	"github.com/hartline/clientops/pkg/persistence"
)

// TemplateRepository handles template aggregate file operations.
type TemplateRepository struct {
	store *Persistence
}

// List returns all templates ordered newest-created-first.
func (r *TemplateRepository) List(_ context.Context) ([]*models.WorkflowTemplate, error) {
	docs, err := r.store.templateDocuments()
	if err != nil {
		return nil, err
	}

	templates := make([]*models.WorkflowTemplate, 0, len(docs))
	for _, doc := range docs {
		templates = append(templates, doc.Template)
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].CreatedAt.After(templates[j].CreatedAt)
	})

	return templates, nil
}

// GetByID retrieves a template by its ID.
func (r *TemplateRepository) GetByID(_ context.Context, id string) (*models.WorkflowTemplate, error) {
	var doc templateDocument

	found, err := r.store.readDocument(templatesDir, id, &doc)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	return doc.Template, nil
}

// Save upserts a template. Stages and tasks of an existing aggregate are preserved.
func (r *TemplateRepository) Save(_ context.Context, template *models.WorkflowTemplate) error {
	now := time.Now().UTC()

	if template.ID == "" {
		template.ID = uuid.New().String()
	}

	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}

	template.UpdatedAt = now

	var doc templateDocument

	found, err := r.store.readDocument(templatesDir, template.ID, &doc)
	if err != nil {
		return err
	}

	if !found {
		doc = templateDocument{
			Stages: make([]*models.TemplateStage, 0),
			Tasks:  make([]*models.TemplateTask, 0),
		}
	}

	doc.Template = template

	return r.store.writeDocument(templatesDir, template.ID, &doc)
}

// Delete removes a template aggregate, cascading to its stages and tasks.
func (r *TemplateRepository) Delete(_ context.Context, id string) error {
	return r.store.deleteDocument(templatesDir, id)
}

// StagesByTemplate returns a template's stages ordered ascending by position.
func (r *TemplateRepository) StagesByTemplate(_ context.Context, templateID string) ([]*models.TemplateStage, error) {
	var doc templateDocument

	found, err := r.store.readDocument(templatesDir, templateID, &doc)
	if err != nil {
		return nil, err
	}

	if !found {
		return make([]*models.TemplateStage, 0), nil
	}

	stages := make([]*models.TemplateStage, len(doc.Stages))
	copy(stages, doc.Stages)

	sort.Slice(stages, func(i, j int) bool {
		return stages[i].Position < stages[j].Position
	})

	return stages, nil
}

// StageByID retrieves a template stage by its ID.
func (r *TemplateRepository) StageByID(_ context.Context, id string) (*models.TemplateStage, error) {
	doc, err := r.store.templateDocumentByStage(id)
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

// SaveStage upserts a stage into its owning template aggregate.
func (r *TemplateRepository) SaveStage(_ context.Context, stage *models.TemplateStage) error {
	var doc templateDocument

	found, err := r.store.readDocument(templatesDir, stage.TemplateID, &doc)
	if err != nil {
		return err
	}

	if !found {
		return persistence.NewTemplateError("SaveStage", stage.TemplateID, persistence.ErrTemplateNotFound)
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

	return r.store.writeDocument(templatesDir, stage.TemplateID, &doc)
}

// DeleteStage removes a stage and its tasks from the owning template aggregate.
func (r *TemplateRepository) DeleteStage(_ context.Context, id string) error {
	doc, err := r.store.templateDocumentByStage(id)
	if err != nil {
		return err
	}

	if doc == nil {
		return persistence.ErrTemplateStageNotFound
	}

	stages := make([]*models.TemplateStage, 0, len(doc.Stages))
	for _, stage := range doc.Stages {
		if stage.ID != id {
			stages = append(stages, stage)
		}
	}

	tasks := make([]*models.TemplateTask, 0, len(doc.Tasks))
	for _, task := range doc.Tasks {
		if task.StageID != id {
			tasks = append(tasks, task)
		}
	}

	doc.Stages = stages
	doc.Tasks = tasks

	return r.store.writeDocument(templatesDir, doc.Template.ID, doc)
}

// TasksByStage returns a stage's tasks ordered ascending by position.
func (r *TemplateRepository) TasksByStage(_ context.Context, stageID string) ([]*models.TemplateTask, error) {
	doc, err := r.store.templateDocumentByStage(stageID)
	if err != nil {
		return nil, err
	}

	if doc == nil {
		return make([]*models.TemplateTask, 0), nil
	}

	tasks := make([]*models.TemplateTask, 0)

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

// TaskByID retrieves a template task by its ID.
func (r *TemplateRepository) TaskByID(_ context.Context, id string) (*models.TemplateTask, error) {
	doc, err := r.store.templateDocumentByTask(id)
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

// SaveTask upserts a task into the aggregate owning its stage.
func (r *TemplateRepository) SaveTask(_ context.Context, task *models.TemplateTask) error {
	doc, err := r.store.templateDocumentByStage(task.StageID)
	if err != nil {
		return err
	}

	if doc == nil {
		return persistence.ErrTemplateStageNotFound
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

	return r.store.writeDocument(templatesDir, doc.Template.ID, doc)
}

// DeleteTask removes a task from its owning template aggregate.
func (r *TemplateRepository) DeleteTask(_ context.Context, id string) error {
	doc, err := r.store.templateDocumentByTask(id)
	if err != nil {
		return err
	}

	if doc == nil {
		return persistence.ErrTemplateTaskNotFound
	}

	tasks := make([]*models.TemplateTask, 0, len(doc.Tasks))
	for _, task := range doc.Tasks {
		if task.ID != id {
			tasks = append(tasks, task)
		}
	}

	doc.Tasks = tasks

	return r.store.writeDocument(templatesDir, doc.Template.ID, doc)
}
