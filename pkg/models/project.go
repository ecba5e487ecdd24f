package models

import "time"

// ProjectType categorizes the deliverable a client project produces.
type ProjectType string

const (
	ProjectTypeContent     ProjectType = "content"
	ProjectTypeLandingPage ProjectType = "landing_page"
	ProjectTypeAutomation  ProjectType = "automation"
	ProjectTypeWebsite     ProjectType = "website"
	ProjectTypeCampaign    ProjectType = "campaign"
	ProjectTypeOther       ProjectType = "other"
)

// ProjectStatus represents the lifecycle state of a client project. All
// transitions are operator-driven; the engine never changes status on its own.
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// ClientProject is a client-specific, independently mutable instance cloned
// from a template (or seeded blank). TemplateID records provenance only:
// deleting the source template must not affect existing projects.
type ClientProject struct {
	ID         string        `json:"id"`
	ClientID   string        `json:"client_id"             validate:"required"`
	TemplateID *string       `json:"template_id,omitempty"`
	Name       string        `json:"name"                  validate:"required,min=3"`
	Type       ProjectType   `json:"project_type"          validate:"required,oneof=content landing_page automation website campaign other"`
	Status     ProjectStatus `json:"status"                validate:"required,oneof=active completed archived"`
	StartDate  *string       `json:"start_date,omitempty"  validate:"omitempty,datetime=2006-01-02"`
	TargetDate *string       `json:"target_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// ProjectStage is a kanban column of a client project. Positions are 0-based
// and unique within the project. IsTerminal marks the "done" column used for
// progress metrics; exactly one stage per project should carry it.
type ProjectStage struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id" validate:"required"`
	Name       string    `json:"name"       validate:"required,min=1"`
	Position   int       `json:"position"   validate:"min=0"`
	IsTerminal bool      `json:"is_terminal"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
