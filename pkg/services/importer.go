package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hartline/clientops/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// templateDocumentSchema constrains importable template documents. Positions
// are optional; array order wins when they are omitted.
const templateDocumentSchema = `{
	"type": "object",
	"required": ["name", "stages"],
	"properties": {
		"name": {"type": "string", "minLength": 3},
		"description": {"type": "string"},
		"stages": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"position": {"type": "integer", "minimum": 0},
					"tasks": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["title"],
							"properties": {
								"title": {"type": "string", "minLength": 1},
								"position": {"type": "integer", "minimum": 0}
							}
						}
					}
				}
			}
		}
	}
}`

// TemplateDocument is the portable wire form of a template graph.
type TemplateDocument struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	Stages      []TemplateDocumentStage `json:"stages"`
}

type TemplateDocumentStage struct {
	Name     string                 `json:"name"`
	Position *int                   `json:"position,omitempty"`
	Tasks    []TemplateDocumentTask `json:"tasks,omitempty"`
}

type TemplateDocumentTask struct {
	Title    string `json:"title"`
	Position *int   `json:"position,omitempty"`
}

// Import validates a template document against the schema and materializes
// template, stages, and tasks as a new template graph.
func (s *Template) Import(ctx context.Context, raw []byte) (*TemplateDetails, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(templateDocumentSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, NewValidationError("Import", "INVALID_TEMPLATE_DOC", err.Error(), ErrInvalidTemplateDoc)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return nil, NewValidationError("Import", "INVALID_TEMPLATE_DOC", strings.Join(details, "; "), ErrInvalidTemplateDoc)
	}

	var doc TemplateDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, NewValidationError("Import", "INVALID_TEMPLATE_DOC", err.Error(), ErrInvalidTemplateDoc)
	}

	template, err := s.Create(ctx, &models.WorkflowTemplate{
		Name:        doc.Name,
		Description: doc.Description,
	})
	if err != nil {
		return nil, err
	}

	stages := make([]*models.TemplateStage, 0, len(doc.Stages))
	tasks := make([]*models.TemplateTask, 0)

	for i, docStage := range doc.Stages {
		position := i
		if docStage.Position != nil {
			position = *docStage.Position
		}

		stage, err := s.CreateStage(ctx, template.ID, docStage.Name, position)
		if err != nil {
			return nil, fmt.Errorf("failed to import stage %q: %w", docStage.Name, err)
		}

		stages = append(stages, stage)

		for j, docTask := range docStage.Tasks {
			taskPosition := j
			if docTask.Position != nil {
				taskPosition = *docTask.Position
			}

			task, err := s.CreateTask(ctx, stage.ID, docTask.Title, taskPosition)
			if err != nil {
				return nil, fmt.Errorf("failed to import task %q: %w", docTask.Title, err)
			}

			tasks = append(tasks, task)
		}
	}

	return &TemplateDetails{
		Template: template,
		Stages:   stages,
		Tasks:    tasks,
	}, nil
}

// Export renders a template graph as a portable document that Import accepts.
func (s *Template) Export(ctx context.Context, id string) (*TemplateDocument, error) {
	details, err := s.FetchDetails(ctx, id)
	if err != nil {
		return nil, err
	}

	tasksByStage := make(map[string][]TemplateDocumentTask)

	for _, task := range details.Tasks {
		position := task.Position
		tasksByStage[task.StageID] = append(tasksByStage[task.StageID], TemplateDocumentTask{
			Title:    task.Title,
			Position: &position,
		})
	}

	doc := &TemplateDocument{
		Name:        details.Template.Name,
		Description: details.Template.Description,
		Stages:      make([]TemplateDocumentStage, 0, len(details.Stages)),
	}

	for _, stage := range details.Stages {
		position := stage.Position
		doc.Stages = append(doc.Stages, TemplateDocumentStage{
			Name:     stage.Name,
			Position: &position,
			Tasks:    tasksByStage[stage.ID],
		})
	}

	return doc, nil
}
