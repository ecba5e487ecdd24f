// Package models defines the core domain models for the client operations engine.
package models

import "time"

// WorkflowTemplate is a reusable blueprint of stages and tasks, not tied to
// any client. Cloning a template into a project takes a snapshot; later
// template edits never propagate to existing projects.
type WorkflowTemplate struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"                  validate:"required,min=3"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TemplateStage is a named, ordered bucket of template tasks. Positions are
// 0-based and dense within a template.
type TemplateStage struct {
	ID         string    `json:"id"`
	TemplateID string    `json:"template_id" validate:"required"`
	Name       string    `json:"name"        validate:"required,min=1"`
	Position   int       `json:"position"    validate:"min=0"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TemplateTask is a unit of work inside a template stage. Positions are
// 0-based and unique within the stage.
type TemplateTask struct {
	ID        string    `json:"id"`
	StageID   string    `json:"stage_id" validate:"required"`
	Title     string    `json:"title"    validate:"required,min=1"`
	Position  int       `json:"position" validate:"min=0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
