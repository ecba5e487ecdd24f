// Package file provides file-based persistence for templates and projects.
// Each template and each project is stored as a single JSON aggregate
// document; it is meant for tests and local development, not for concurrent
// multi-process use.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hartline/clientops/pkg/models"
	"github.com/hartline/clientops/pkg/persistence"
)

const (
	templatesDir = "templates"
	projectsDir  = "projects"
)

// templateDocument is the on-disk aggregate for a template and its graph.
type templateDocument struct {
	Template *models.WorkflowTemplate `json:"template"`
	Stages   []*models.TemplateStage  `json:"stages"`
	Tasks    []*models.TemplateTask   `json:"tasks"`
}

// projectDocument is the on-disk aggregate for a project and its board.
type projectDocument struct {
	Project *models.ClientProject  `json:"project"`
	Stages  []*models.ProjectStage `json:"stages"`
	Tasks   []*models.ProjectTask  `json:"tasks"`
}

// Persistence implements persistence.Persistence on top of the file system.
type Persistence struct {
	root         string
	templateRepo *TemplateRepository
	projectRepo  *ProjectRepository
	stageRepo    *StageRepository
	taskRepo     *TaskRepository
}

// NewPersistence creates a file-backed persistence rooted at the given
// directory. A "file://" prefix is stripped so database-URL style
// configuration works unchanged.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	p := &Persistence{root: cleanRoot}
	p.templateRepo = &TemplateRepository{store: p}
	p.projectRepo = &ProjectRepository{store: p}
	p.stageRepo = &StageRepository{store: p}
	p.taskRepo = &TaskRepository{store: p}

	return p
}

func (p *Persistence) Templates() persistence.TemplateRepository {
	return p.templateRepo
}

func (p *Persistence) Projects() persistence.ProjectRepository {
	return p.projectRepo
}

func (p *Persistence) Stages() persistence.StageRepository {
	return p.stageRepo
}

func (p *Persistence) Tasks() persistence.TaskRepository {
	return p.taskRepo
}

// WithTransaction runs fn with best-effort sequential writes. The file
// backend has no transaction support, so a failure mid-way leaves prior
// writes in place.
func (p *Persistence) WithTransaction(_ context.Context, fn func(persistence.Persistence) error) error {
	return fn(p)
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) readDocument(dir, id string, out any) (bool, error) {
	filePath := filepath.Clean(path.Join(p.root, dir, id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("failed to read document %s/%s: %w", dir, id, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal document %s/%s: %w", dir, id, err)
	}

	return true, nil
}

func (p *Persistence) writeDocument(dir, id string, doc any) error {
	if err := os.MkdirAll(path.Join(p.root, dir), 0750); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document %s/%s: %w", dir, id, err)
	}

	return os.WriteFile(path.Join(p.root, dir, id+".json"), data, 0600)
}

func (p *Persistence) deleteDocument(dir, id string) error {
	err := os.Remove(path.Join(p.root, dir, id+".json"))
	if err != nil && os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to delete document %s/%s: %w", dir, id, err)
	}

	return nil
}

func (p *Persistence) documentIDs(dir string) ([]string, error) {
	root := os.DirFS(path.Join(p.root, dir))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s documents: %w", dir, err)
	}

	ids := make([]string, 0, len(jsonFiles))
	for _, file := range jsonFiles {
		ids = append(ids, file[:len(file)-5]) // Remove .json extension
	}

	return ids, nil
}

func (p *Persistence) templateDocuments() ([]*templateDocument, error) {
	ids, err := p.documentIDs(templatesDir)
	if err != nil {
		return nil, err
	}

	docs := make([]*templateDocument, 0, len(ids))

	for _, id := range ids {
		var doc templateDocument

		found, err := p.readDocument(templatesDir, id, &doc)
		if err != nil {
			return nil, err
		}

		if found {
			docs = append(docs, &doc)
		}
	}

	return docs, nil
}

func (p *Persistence) projectDocuments() ([]*projectDocument, error) {
	ids, err := p.documentIDs(projectsDir)
	if err != nil {
		return nil, err
	}

	docs := make([]*projectDocument, 0, len(ids))

	for _, id := range ids {
		var doc projectDocument

		found, err := p.readDocument(projectsDir, id, &doc)
		if err != nil {
			return nil, err
		}

		if found {
			docs = append(docs, &doc)
		}
	}

	return docs, nil
}

// projectDocumentByStage locates the project aggregate containing the given stage.
func (p *Persistence) projectDocumentByStage(stageID string) (*projectDocument, error) {
	docs, err := p.projectDocuments()
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		for _, stage := range doc.Stages {
			if stage.ID == stageID {
				return doc, nil
			}
		}
	}

	return nil, nil
}

// projectDocumentByTask locates the project aggregate containing the given task.
func (p *Persistence) projectDocumentByTask(taskID string) (*projectDocument, error) {
	docs, err := p.projectDocuments()
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		for _, task := range doc.Tasks {
			if task.ID == taskID {
				return doc, nil
			}
		}
	}

	return nil, nil
}

// templateDocumentByStage locates the template aggregate containing the given stage.
func (p *Persistence) templateDocumentByStage(stageID string) (*templateDocument, error) {
	docs, err := p.templateDocuments()
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		for _, stage := range doc.Stages {
			if stage.ID == stageID {
				return doc, nil
			}
		}
	}

	return nil, nil
}

// templateDocumentByTask locates the template aggregate containing the given task.
func (p *Persistence) templateDocumentByTask(taskID string) (*templateDocument, error) {
	docs, err := p.templateDocuments()
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		for _, task := range doc.Tasks {
			if task.ID == taskID {
				return doc, nil
			}
		}
	}

	return nil, nil
}
