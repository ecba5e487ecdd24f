package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hartline/clientops/pkg/models"
	"github.com/hartline/clientops/pkg/persistence"
	"github.com/hartline/clientops/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProjectServices(t *testing.T) (*Template, *Project) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())

	return NewTemplate(p, nil, slog.Default()), NewProject(p, nil, slog.Default())
}

// buildTemplate creates a three-stage template with tasks in the first two
// stages.
func buildTemplate(t *testing.T, templates *Template) *TemplateDetails {
	t.Helper()

	created, err := templates.Create(t.Context(), &models.WorkflowTemplate{
		Name: "Website Launch",
	})
	require.NoError(t, err)

	stageNames := []string{"Discovery", "Build", "Launch"}
	for i, name := range stageNames {
		stage, err := templates.CreateStage(t.Context(), created.ID, name, i)
		require.NoError(t, err)

		if i < 2 {
			_, err = templates.CreateTask(t.Context(), stage.ID, name+" task A", 0)
			require.NoError(t, err)

			_, err = templates.CreateTask(t.Context(), stage.ID, name+" task B", 1)
			require.NoError(t, err)
		}
	}

	details, err := templates.FetchDetails(t.Context(), created.ID)
	require.NoError(t, err)

	return details
}

func TestProject_Create_FromTemplate(t *testing.T) {
	templates, projects := newProjectServices(t)
	details := buildTemplate(t, templates)

	project, err := projects.Create(t.Context(), CreateProjectRequest{
		ClientID:   "client-1",
		TemplateID: &details.Template.ID,
		Name:       "Acme Website",
		Type:       models.ProjectTypeWebsite,
	})
	require.NoError(t, err)
	require.NotNil(t, project)

	assert.NotEmpty(t, project.ID)
	assert.Equal(t, models.ProjectStatusActive, project.Status)
	require.NotNil(t, project.TemplateID)
	assert.Equal(t, details.Template.ID, *project.TemplateID)

	stages, err := projects.Stages(t.Context(), project.ID)
	require.NoError(t, err)
	require.Len(t, stages, 3)

	for i, expected := range []string{"Discovery", "Build", "Launch"} {
		assert.Equal(t, expected, stages[i].Name)
		assert.Equal(t, i, stages[i].Position)
		assert.Equal(t, project.ID, stages[i].ProjectID)
	}

	assert.False(t, stages[0].IsTerminal)
	assert.True(t, stages[2].IsTerminal)

	tasks, err := projects.Tasks(t.Context(), project.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 4)

	for _, task := range tasks {
		assert.Equal(t, project.ID, task.ProjectID)
		assert.Equal(t, models.TaskPriorityMedium, task.Priority)
		assert.True(t, task.VisibleToClient)
		assert.False(t, task.IsBlocked)
	}
}

func TestProject_Create_CloneIsIndependent(t *testing.T) {
	templates, projects := newProjectServices(t)
	details := buildTemplate(t, templates)

	project, err := projects.Create(t.Context(), CreateProjectRequest{
		ClientID:   "client-1",
		TemplateID: &details.Template.ID,
		Name:       "Acme Website",
		Type:       models.ProjectTypeWebsite,
	})
	require.NoError(t, err)

	// Mutating and then deleting the template must not touch the project.
	newName := "Renamed Stage"
	_, err = templates.UpdateStage(t.Context(), details.Stages[0].ID, UpdateStageRequest{Name: &newName})
	require.NoError(t, err)

	require.NoError(t, templates.Delete(t.Context(), details.Template.ID))

	stages, err := projects.Stages(t.Context(), project.ID)
	require.NoError(t, err)
	require.Len(t, stages, 3)
	assert.Equal(t, "Discovery", stages[0].Name)

	tasks, err := projects.Tasks(t.Context(), project.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 4)

	// Provenance id survives as a dangling reference.
	fetched, err := projects.FetchByID(t.Context(), project.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.TemplateID)
	assert.Equal(t, details.Template.ID, *fetched.TemplateID)
}

func TestProject_Create_WithoutTemplate_SeedsDefaultStages(t *testing.T) {
	_, projects := newProjectServices(t)

	project, err := projects.Create(t.Context(), CreateProjectRequest{
		ClientID: "client-1",
		Name:     "Blank Board",
		Type:     models.ProjectTypeOther,
	})
	require.NoError(t, err)

	stages, err := projects.Stages(t.Context(), project.ID)
	require.NoError(t, err)
	require.Len(t, stages, 3)

	assert.Equal(t, "To Do", stages[0].Name)
	assert.Equal(t, "In Progress", stages[1].Name)
	assert.Equal(t, "Done", stages[2].Name)
	assert.True(t, stages[2].IsTerminal)

	tasks, err := projects.Tasks(t.Context(), project.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestProject_Create_MissingTemplate(t *testing.T) {
	_, projects := newProjectServices(t)

	missing := "missing-template"
	_, err := projects.Create(t.Context(), CreateProjectRequest{
		ClientID:   "client-1",
		TemplateID: &missing,
		Name:       "Doomed Project",
		Type:       models.ProjectTypeContent,
	})
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestProject_Create_Validation(t *testing.T) {
	_, projects := newProjectServices(t)

	badDate := "03/15/2026"

	tests := []struct {
		name string
		req  CreateProjectRequest
		want error
	}{
		{
			name: "missing client",
			req:  CreateProjectRequest{Name: "Valid Name", Type: models.ProjectTypeContent},
			want: ErrClientIDRequired,
		},
		{
			name: "short name",
			req:  CreateProjectRequest{ClientID: "client-1", Name: "ab", Type: models.ProjectTypeContent},
			want: ErrProjectNameRequired,
		},
		{
			name: "bad type",
			req:  CreateProjectRequest{ClientID: "client-1", Name: "Valid Name", Type: "newsletter"},
			want: ErrInvalidProjectType,
		},
		{
			name: "bad date",
			req: CreateProjectRequest{
				ClientID: "client-1", Name: "Valid Name",
				Type: models.ProjectTypeContent, TargetDate: &badDate,
			},
			want: ErrInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := projects.Create(t.Context(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestProject_ListByClient_NewestFirst(t *testing.T) {
	_, projects := newProjectServices(t)

	first, err := projects.Create(t.Context(), CreateProjectRequest{
		ClientID: "client-1", Name: "First Project", Type: models.ProjectTypeContent,
	})
	require.NoError(t, err)

	second, err := projects.Create(t.Context(), CreateProjectRequest{
		ClientID: "client-1", Name: "Second Project", Type: models.ProjectTypeContent,
	})
	require.NoError(t, err)

	_, err = projects.Create(t.Context(), CreateProjectRequest{
		ClientID: "client-2", Name: "Other Client", Type: models.ProjectTypeContent,
	})
	require.NoError(t, err)

	listed, err := projects.ListByClient(t.Context(), "client-1")
	require.NoError(t, err)
	require.Len(t, listed, 2)

	assert.Equal(t, second.ID, listed[0].ID)
	assert.Equal(t, first.ID, listed[1].ID)
}

func TestProject_Update_Partial(t *testing.T) {
	_, projects := newProjectServices(t)

	project, err := projects.Create(t.Context(), CreateProjectRequest{
		ClientID: "client-1", Name: "Retainer Work", Type: models.ProjectTypeContent,
	})
	require.NoError(t, err)

	status := models.ProjectStatusCompleted
	target := "2026-10-01"

	updated, err := projects.Update(t.Context(), project.ID, UpdateProjectRequest{
		Status:     &status,
		TargetDate: &target,
	})
	require.NoError(t, err)

	assert.Equal(t, "Retainer Work", updated.Name)
	assert.Equal(t, models.ProjectStatusCompleted, updated.Status)
	require.NotNil(t, updated.TargetDate)
	assert.Equal(t, "2026-10-01", *updated.TargetDate)
}

func TestProject_Delete_Cascades(t *testing.T) {
	templates, projects := newProjectServices(t)
	details := buildTemplate(t, templates)

	project, err := projects.Create(t.Context(), CreateProjectRequest{
		ClientID:   "client-1",
		TemplateID: &details.Template.ID,
		Name:       "Short-lived",
		Type:       models.ProjectTypeWebsite,
	})
	require.NoError(t, err)

	require.NoError(t, projects.Delete(t.Context(), project.ID))

	_, err = projects.FetchByID(t.Context(), project.ID)
	assert.ErrorIs(t, err, ErrProjectNotFound)

	_, err = projects.Stages(t.Context(), project.ID)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProject_ReorderStages(t *testing.T) {
	_, projects := newProjectServices(t)

	project, err := projects.Create(t.Context(), CreateProjectRequest{
		ClientID: "client-1", Name: "Reorder Me", Type: models.ProjectTypeOther,
	})
	require.NoError(t, err)

	stages, err := projects.Stages(t.Context(), project.ID)
	require.NoError(t, err)
	require.Len(t, stages, 3)

	reversed := []string{stages[2].ID, stages[1].ID, stages[0].ID}

	reordered, err := projects.ReorderStages(t.Context(), project.ID, reversed)
	require.NoError(t, err)
	require.Len(t, reordered, 3)

	assert.Equal(t, "Done", reordered[0].Name)
	assert.Equal(t, "To Do", reordered[2].Name)

	persisted, err := projects.Stages(t.Context(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Done", persisted[0].Name)
	assert.Equal(t, 0, persisted[0].Position)
}

func TestProject_ReorderStages_RejectsForeignStage(t *testing.T) {
	_, projects := newProjectServices(t)

	project, err := projects.Create(t.Context(), CreateProjectRequest{
		ClientID: "client-1", Name: "Project A", Type: models.ProjectTypeOther,
	})
	require.NoError(t, err)

	stages, err := projects.Stages(t.Context(), project.ID)
	require.NoError(t, err)

	_, err = projects.ReorderStages(t.Context(), project.ID,
		[]string{stages[0].ID, stages[1].ID, "foreign-stage"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

// flakyTasks fails every task save past failAfter.
type flakyTasks struct {
	persistence.TaskRepository

	failAfter int
	saves     int
}

func (f *flakyTasks) Save(ctx context.Context, task *models.ProjectTask) error {
	if f.saves >= f.failAfter {
		return errors.New("disk full")
	}

	f.saves++

	return f.TaskRepository.Save(ctx, task)
}

// flakyPersistence mimics a backend without transactions whose task writes
// start failing mid-clone.
type flakyPersistence struct {
	persistence.Persistence

	tasks *flakyTasks
}

func (f *flakyPersistence) Tasks() persistence.TaskRepository {
	return f.tasks
}

func (f *flakyPersistence) WithTransaction(_ context.Context, fn func(persistence.Persistence) error) error {
	return fn(f)
}

func TestProject_Create_PartialFailureReportsProgress(t *testing.T) {
	base := file.NewPersistence(t.TempDir())
	flaky := &flakyPersistence{
		Persistence: base,
		tasks:       &flakyTasks{TaskRepository: base.Tasks(), failAfter: 1},
	}

	templates := NewTemplate(flaky, nil, slog.Default())
	projects := NewProject(flaky, nil, slog.Default())
	details := buildTemplate(t, templates)

	_, err := projects.Create(t.Context(), CreateProjectRequest{
		ClientID:   "client-1",
		TemplateID: &details.Template.ID,
		Name:       "Doomed Clone",
		Type:       models.ProjectTypeWebsite,
	})
	require.Error(t, err)
	require.True(t, persistence.IsPartialInstantiation(err))

	var partialErr *persistence.PartialInstantiationError

	require.ErrorAs(t, err, &partialErr)
	assert.NotEmpty(t, partialErr.ProjectID)
	assert.Equal(t, 3, partialErr.StagesCreated)
	assert.Equal(t, 1, partialErr.TasksCreated)

	// The partially-built project is left behind for manual cleanup.
	leftover, err := projects.FetchByID(t.Context(), partialErr.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, "Doomed Clone", leftover.Name)
}
