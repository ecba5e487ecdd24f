package file

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hartline/clientops/pkg/models"
	"github.com/hartline/clientops/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPersistence(t *testing.T) {
	// Test with regular path
	p := NewPersistence("/tmp/test")
	assert.Equal(t, "/tmp/test", p.root)

	// Test with file:// prefix
	p = NewPersistence("file:///tmp/test")
	assert.Equal(t, "/tmp/test", p.root)
}

func TestPersistence_Close(t *testing.T) {
	p := NewPersistence(t.TempDir())
	assert.NoError(t, p.Close(t.Context()))
}

func TestPersistence_HealthCheck(t *testing.T) {
	p := NewPersistence(t.TempDir())
	assert.NoError(t, p.HealthCheck(t.Context()))
}

func TestTemplateRepository_Save(t *testing.T) {
	testDir := t.TempDir()
	p := NewPersistence(testDir)

	template := &models.WorkflowTemplate{
		Name:        "Website Launch",
		Description: "Standard launch checklist",
	}

	err := p.Templates().Save(t.Context(), template)
	require.NoError(t, err)

	assert.NotEmpty(t, template.ID)
	assert.False(t, template.CreatedAt.IsZero())
	assert.False(t, template.UpdatedAt.IsZero())

	filePath := filepath.Join(testDir, "templates", template.ID+".json")
	assert.FileExists(t, filePath)
}

func TestTemplateRepository_Save_UpdatesTimestamp(t *testing.T) {
	p := NewPersistence(t.TempDir())

	template := &models.WorkflowTemplate{
		ID:        "update-template",
		Name:      "Update Test",
		CreatedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	err := p.Templates().Save(t.Context(), template)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), template.CreatedAt)
	assert.True(t, template.UpdatedAt.After(template.CreatedAt))
}

func TestTemplateRepository_GetByID_Missing(t *testing.T) {
	p := NewPersistence(t.TempDir())

	template, err := p.Templates().GetByID(t.Context(), "missing")
	require.NoError(t, err)
	assert.Nil(t, template)
}

func TestTemplateRepository_StageAndTaskGraph(t *testing.T) {
	p := NewPersistence(t.TempDir())

	template := &models.WorkflowTemplate{Name: "Graph Template"}
	require.NoError(t, p.Templates().Save(t.Context(), template))

	second := &models.TemplateStage{TemplateID: template.ID, Name: "Second", Position: 1}
	require.NoError(t, p.Templates().SaveStage(t.Context(), second))

	first := &models.TemplateStage{TemplateID: template.ID, Name: "First", Position: 0}
	require.NoError(t, p.Templates().SaveStage(t.Context(), first))

	task := &models.TemplateTask{StageID: first.ID, Title: "Do things", Position: 0}
	require.NoError(t, p.Templates().SaveTask(t.Context(), task))

	stages, err := p.Templates().StagesByTemplate(t.Context(), template.ID)
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, "First", stages[0].Name)
	assert.Equal(t, "Second", stages[1].Name)

	tasks, err := p.Templates().TasksByStage(t.Context(), first.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Do things", tasks[0].Title)
}

func TestTemplateRepository_SaveStage_MissingTemplate(t *testing.T) {
	p := NewPersistence(t.TempDir())

	stage := &models.TemplateStage{TemplateID: "missing", Name: "Orphan", Position: 0}

	err := p.Templates().SaveStage(t.Context(), stage)
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrTemplateNotFound)
}

func TestTemplateRepository_Delete_RemovesDocument(t *testing.T) {
	testDir := t.TempDir()
	p := NewPersistence(testDir)

	template := &models.WorkflowTemplate{Name: "Doomed Template"}
	require.NoError(t, p.Templates().Save(t.Context(), template))

	stage := &models.TemplateStage{TemplateID: template.ID, Name: "Stage", Position: 0}
	require.NoError(t, p.Templates().SaveStage(t.Context(), stage))

	require.NoError(t, p.Templates().Delete(t.Context(), template.ID))

	assert.NoFileExists(t, filepath.Join(testDir, "templates", template.ID+".json"))

	fetched, err := p.Templates().StageByID(t.Context(), stage.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched)
}

func TestProjectRepository_ListByClient_NewestFirst(t *testing.T) {
	p := NewPersistence(t.TempDir())

	older := &models.ClientProject{
		ClientID:  "client-1",
		Name:      "Older",
		Type:      models.ProjectTypeContent,
		Status:    models.ProjectStatusActive,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.Projects().Save(t.Context(), older))

	newer := &models.ClientProject{
		ClientID:  "client-1",
		Name:      "Newer",
		Type:      models.ProjectTypeContent,
		Status:    models.ProjectStatusActive,
		CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.Projects().Save(t.Context(), newer))

	other := &models.ClientProject{
		ClientID: "client-2",
		Name:     "Other Client",
		Type:     models.ProjectTypeContent,
		Status:   models.ProjectStatusActive,
	}
	require.NoError(t, p.Projects().Save(t.Context(), other))

	projects, err := p.Projects().ListByClient(t.Context(), "client-1")
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Newer", projects[0].Name)
	assert.Equal(t, "Older", projects[1].Name)
}

func TestStageRepository_SaveAndList(t *testing.T) {
	p := NewPersistence(t.TempDir())

	project := &models.ClientProject{
		ClientID: "client-1",
		Name:     "Board Project",
		Type:     models.ProjectTypeOther,
		Status:   models.ProjectStatusActive,
	}
	require.NoError(t, p.Projects().Save(t.Context(), project))

	done := &models.ProjectStage{ProjectID: project.ID, Name: "Done", Position: 1, IsTerminal: true}
	require.NoError(t, p.Stages().Save(t.Context(), done))

	todo := &models.ProjectStage{ProjectID: project.ID, Name: "To Do", Position: 0}
	require.NoError(t, p.Stages().Save(t.Context(), todo))

	stages, err := p.Stages().ListByProject(t.Context(), project.ID)
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, "To Do", stages[0].Name)
	assert.True(t, stages[1].IsTerminal)
}

func TestStageRepository_Save_MissingProject(t *testing.T) {
	p := NewPersistence(t.TempDir())

	stage := &models.ProjectStage{ProjectID: "missing", Name: "Orphan", Position: 0}

	err := p.Stages().Save(t.Context(), stage)
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrProjectNotFound)
}

func TestTaskRepository_RoundTrip(t *testing.T) {
	p := NewPersistence(t.TempDir())

	project := &models.ClientProject{
		ClientID: "client-1",
		Name:     "Task Project",
		Type:     models.ProjectTypeOther,
		Status:   models.ProjectStatusActive,
	}
	require.NoError(t, p.Projects().Save(t.Context(), project))

	stage := &models.ProjectStage{ProjectID: project.ID, Name: "To Do", Position: 0}
	require.NoError(t, p.Stages().Save(t.Context(), stage))

	due := "2026-09-15"
	task := &models.ProjectTask{
		ProjectID:       project.ID,
		StageID:         stage.ID,
		Title:           "Write copy",
		Position:        0,
		DueDate:         &due,
		Priority:        models.TaskPriorityHigh,
		VisibleToClient: true,
		Links: []models.TaskLink{
			{Label: "Brief", URL: "https://example.com/brief"},
		},
	}
	require.NoError(t, p.Tasks().Save(t.Context(), task))

	fetched, err := p.Tasks().GetByID(t.Context(), task.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)

	assert.Equal(t, "Write copy", fetched.Title)
	assert.Equal(t, models.TaskPriorityHigh, fetched.Priority)
	require.NotNil(t, fetched.DueDate)
	assert.Equal(t, "2026-09-15", *fetched.DueDate)
	require.Len(t, fetched.Links, 1)
	assert.Equal(t, "Brief", fetched.Links[0].Label)

	byStage, err := p.Tasks().ListByStage(t.Context(), stage.ID)
	require.NoError(t, err)
	assert.Len(t, byStage, 1)

	require.NoError(t, p.Tasks().Delete(t.Context(), task.ID))

	gone, err := p.Tasks().GetByID(t.Context(), task.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestProjectRepository_Delete_Cascades(t *testing.T) {
	p := NewPersistence(t.TempDir())

	project := &models.ClientProject{
		ClientID: "client-1",
		Name:     "Cascade Project",
		Type:     models.ProjectTypeOther,
		Status:   models.ProjectStatusActive,
	}
	require.NoError(t, p.Projects().Save(t.Context(), project))

	stage := &models.ProjectStage{ProjectID: project.ID, Name: "Stage", Position: 0}
	require.NoError(t, p.Stages().Save(t.Context(), stage))

	task := &models.ProjectTask{
		ProjectID: project.ID,
		StageID:   stage.ID,
		Title:     "Task",
		Priority:  models.TaskPriorityMedium,
	}
	require.NoError(t, p.Tasks().Save(t.Context(), task))

	require.NoError(t, p.Projects().Delete(t.Context(), project.ID))

	fetchedStage, err := p.Stages().GetByID(t.Context(), stage.ID)
	require.NoError(t, err)
	assert.Nil(t, fetchedStage)

	fetchedTask, err := p.Tasks().GetByID(t.Context(), task.ID)
	require.NoError(t, err)
	assert.Nil(t, fetchedTask)
}

func TestWithTransaction_Passthrough(t *testing.T) {
	p := NewPersistence(t.TempDir())

	var seen persistence.Persistence

	err := p.WithTransaction(t.Context(), func(txp persistence.Persistence) error {
		seen = txp

		return nil
	})
	require.NoError(t, err)

	// The file backend has no transactions; fn runs against the adapter itself.
	assert.Equal(t, persistence.Persistence(p), seen)
}
