// Package web provides HTTP request and response types for the operations API.
package web

import "github.com/hartline/clientops/pkg/models"

// CreateTemplateRequest represents the request body for creating a new template.
type CreateTemplateRequest struct {
	Name        string `json:"name"        validate:"required,min=3"`
	Description string `json:"description"`
}

// CreateTemplateStageRequest represents the request body for adding a stage to a template.
type CreateTemplateStageRequest struct {
	Name     string `json:"name"     validate:"required,min=1"`
	Position int    `json:"position" validate:"min=0"`
}

// CreateTemplateTaskRequest represents the request body for adding a task to a template stage.
type CreateTemplateTaskRequest struct {
	Title    string `json:"title"    validate:"required,min=1"`
	Position int    `json:"position" validate:"min=0"`
}

// CreateProjectRequest represents the request body for instantiating a project.
type CreateProjectRequest struct {
	ClientID   string             `json:"client_id"             validate:"required"`
	TemplateID *string            `json:"template_id,omitempty"`
	Name       string             `json:"name"                  validate:"required,min=3"`
	Type       models.ProjectType `json:"project_type"          validate:"required,oneof=content landing_page automation website campaign other"`
	StartDate  *string            `json:"start_date,omitempty"  validate:"omitempty,datetime=2006-01-02"`
	TargetDate *string            `json:"target_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// CreateProjectStageRequest represents the request body for adding a stage to a project board.
type CreateProjectStageRequest struct {
	Name       string `json:"name"     validate:"required,min=1"`
	Position   int    `json:"position" validate:"min=0"`
	IsTerminal bool   `json:"is_terminal"`
}

// ReorderStagesRequest represents the request body for rewriting stage order.
// StageIDs must list every stage of the project exactly once.
type ReorderStagesRequest struct {
	StageIDs []string `json:"stage_ids" validate:"required,min=1,dive,required"`
}

// MoveTaskRequest represents the request body for moving a task between stages.
type MoveTaskRequest struct {
	StageID  string `json:"stage_id" validate:"required"`
	Position int    `json:"position" validate:"min=0"`
}
