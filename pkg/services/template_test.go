package services

import (
	"log/slog"
	"testing"

	"github.com/hartline/clientops/pkg/models"
	"github.com/hartline/clientops/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTemplateService(t *testing.T) *Template {
	t.Helper()

	return NewTemplate(file.NewPersistence(t.TempDir()), nil, slog.Default())
}

func TestNewTemplate(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewTemplate(persistence, nil, slog.Default())

	assert.NotNil(t, service)
	assert.Equal(t, persistence, service.persistence)
}

func TestTemplate_Create(t *testing.T) {
	service := newTemplateService(t)

	created, err := service.Create(t.Context(), &models.WorkflowTemplate{
		Name:        "Website Launch",
		Description: "Standard launch checklist",
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())
}

func TestTemplate_Create_NameTooShort(t *testing.T) {
	service := newTemplateService(t)

	_, err := service.Create(t.Context(), &models.WorkflowTemplate{Name: "ab"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTemplateNameShort)
	assert.True(t, IsValidationError(err))
}

func TestTemplate_Create_Nil(t *testing.T) {
	service := newTemplateService(t)

	_, err := service.Create(t.Context(), nil)
	assert.ErrorIs(t, err, ErrTemplateNil)
}

func TestTemplate_FetchByID_NotFound(t *testing.T) {
	service := newTemplateService(t)

	_, err := service.FetchByID(t.Context(), "missing-template")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestTemplate_Update(t *testing.T) {
	service := newTemplateService(t)

	created, err := service.Create(t.Context(), &models.WorkflowTemplate{
		Name:        "Campaign Kickoff",
		Description: "Original description",
	})
	require.NoError(t, err)

	newName := "Campaign Kickoff v2"
	updated, err := service.Update(t.Context(), created.ID, UpdateTemplateRequest{Name: &newName})
	require.NoError(t, err)

	assert.Equal(t, "Campaign Kickoff v2", updated.Name)
	assert.Equal(t, "Original description", updated.Description)

	fetched, err := service.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Campaign Kickoff v2", fetched.Name)
}

func TestTemplate_Update_NotFound(t *testing.T) {
	service := newTemplateService(t)

	name := "Anything"
	_, err := service.Update(t.Context(), "missing-template", UpdateTemplateRequest{Name: &name})
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestTemplate_Delete_Cascades(t *testing.T) {
	service := newTemplateService(t)

	created, err := service.Create(t.Context(), &models.WorkflowTemplate{Name: "Content Sprint"})
	require.NoError(t, err)

	stage, err := service.CreateStage(t.Context(), created.ID, "Draft", 0)
	require.NoError(t, err)

	_, err = service.CreateTask(t.Context(), stage.ID, "Write outline", 0)
	require.NoError(t, err)

	require.NoError(t, service.Delete(t.Context(), created.ID))

	_, err = service.FetchByID(t.Context(), created.ID)
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = service.UpdateStage(t.Context(), stage.ID, UpdateStageRequest{})
	assert.ErrorIs(t, err, ErrTemplateStageNotFound)
}

func TestTemplate_FetchDetails_Ordering(t *testing.T) {
	service := newTemplateService(t)

	created, err := service.Create(t.Context(), &models.WorkflowTemplate{Name: "SEO Audit"})
	require.NoError(t, err)

	// Created out of order on purpose.
	review, err := service.CreateStage(t.Context(), created.ID, "Review", 1)
	require.NoError(t, err)

	research, err := service.CreateStage(t.Context(), created.ID, "Research", 0)
	require.NoError(t, err)

	_, err = service.CreateTask(t.Context(), review.ID, "Summarize findings", 0)
	require.NoError(t, err)

	_, err = service.CreateTask(t.Context(), research.ID, "Crawl site", 0)
	require.NoError(t, err)

	details, err := service.FetchDetails(t.Context(), created.ID)
	require.NoError(t, err)

	require.Len(t, details.Stages, 2)
	assert.Equal(t, "Research", details.Stages[0].Name)
	assert.Equal(t, "Review", details.Stages[1].Name)
	assert.Len(t, details.Tasks, 2)
}

func TestTemplate_CreateStage_MissingTemplate(t *testing.T) {
	service := newTemplateService(t)

	_, err := service.CreateStage(t.Context(), "missing-template", "Draft", 0)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestTemplate_CreateTask_MissingStage(t *testing.T) {
	service := newTemplateService(t)

	_, err := service.CreateTask(t.Context(), "missing-stage", "Write copy", 0)
	assert.ErrorIs(t, err, ErrTemplateStageNotFound)
}

func TestTemplate_UpdateStage(t *testing.T) {
	service := newTemplateService(t)

	created, err := service.Create(t.Context(), &models.WorkflowTemplate{Name: "Automation Setup"})
	require.NoError(t, err)

	stage, err := service.CreateStage(t.Context(), created.ID, "Plan", 0)
	require.NoError(t, err)

	position := 3
	updated, err := service.UpdateStage(t.Context(), stage.ID, UpdateStageRequest{Position: &position})
	require.NoError(t, err)

	assert.Equal(t, 3, updated.Position)
	assert.Equal(t, "Plan", updated.Name)
}

func TestTemplate_DeleteTask(t *testing.T) {
	service := newTemplateService(t)

	created, err := service.Create(t.Context(), &models.WorkflowTemplate{Name: "Landing Page"})
	require.NoError(t, err)

	stage, err := service.CreateStage(t.Context(), created.ID, "Build", 0)
	require.NoError(t, err)

	task, err := service.CreateTask(t.Context(), stage.ID, "Wireframe", 0)
	require.NoError(t, err)

	require.NoError(t, service.DeleteTask(t.Context(), task.ID))

	err = service.DeleteTask(t.Context(), task.ID)
	assert.ErrorIs(t, err, ErrTemplateTaskNotFound)
}

func TestTemplate_ImportExport_RoundTrip(t *testing.T) {
	service := newTemplateService(t)

	doc := []byte(`{
		"name": "Podcast Episode",
		"description": "Per-episode production flow",
		"stages": [
			{"name": "Pre-production", "tasks": [{"title": "Book guest"}, {"title": "Outline questions"}]},
			{"name": "Recording", "tasks": [{"title": "Record session"}]},
			{"name": "Published", "tasks": []}
		]
	}`)

	details, err := service.Import(t.Context(), doc)
	require.NoError(t, err)
	require.Len(t, details.Stages, 3)
	require.Len(t, details.Tasks, 3)

	assert.Equal(t, 0, details.Stages[0].Position)
	assert.Equal(t, 2, details.Stages[2].Position)

	exported, err := service.Export(t.Context(), details.Template.ID)
	require.NoError(t, err)

	assert.Equal(t, "Podcast Episode", exported.Name)
	require.Len(t, exported.Stages, 3)
	assert.Equal(t, "Pre-production", exported.Stages[0].Name)
	require.Len(t, exported.Stages[0].Tasks, 2)
	assert.Equal(t, "Book guest", exported.Stages[0].Tasks[0].Title)
}

func TestTemplate_Import_RejectsInvalidDocument(t *testing.T) {
	service := newTemplateService(t)

	tests := []struct {
		name string
		doc  string
	}{
		{name: "missing name", doc: `{"stages": []}`},
		{name: "short name", doc: `{"name": "ab", "stages": []}`},
		{name: "missing stages", doc: `{"name": "Valid Name"}`},
		{name: "stage without name", doc: `{"name": "Valid Name", "stages": [{"position": 0}]}`},
		{name: "not json", doc: `not json at all`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Import(t.Context(), []byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTemplateDoc)
		})
	}
}
