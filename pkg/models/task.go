package models

import "time"

// TaskPriority orders tasks by urgency.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// TaskLink is an external reference attached to a task. Links are an ordered
// list of tagged label/url pairs, validated at the store boundary.
type TaskLink struct {
	Label string `json:"label" validate:"required,min=1"`
	URL   string `json:"url"   validate:"required,url"`
}

// ProjectTask is a unit of work on a project board. StageID must always
// reference a stage whose ProjectID equals the task's ProjectID; cross-project
// moves are forbidden. DueDate is normalized to YYYY-MM-DD so that overdue
// checks can compare dates lexicographically.
type ProjectTask struct {
	ID              string       `json:"id"`
	ProjectID       string       `json:"project_id" validate:"required"`
	StageID         string       `json:"stage_id"   validate:"required"`
	Title           string       `json:"title"      validate:"required,min=1"`
	Description     string       `json:"description,omitempty"`
	Position        int          `json:"position"   validate:"min=0"`
	DueDate         *string      `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Priority        TaskPriority `json:"priority"   validate:"required,oneof=low medium high"`
	IsBlocked       bool         `json:"is_blocked"`
	BlockedReason   string       `json:"blocked_reason,omitempty"`
	VisibleToClient bool         `json:"visible_to_client"`
	Links           []TaskLink   `json:"links" validate:"dive"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}
