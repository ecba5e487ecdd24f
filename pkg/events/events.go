// Package events defines event types for project and board lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries all client operations events.
const Topic = "clientops.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Template lifecycle events.
	TemplateCreatedEvent EventType = "template.created"
	TemplateDeletedEvent EventType = "template.deleted"

	// Project lifecycle events.
	ProjectCreatedEvent EventType = "project.created"
	ProjectUpdatedEvent EventType = "project.updated"
	ProjectDeletedEvent EventType = "project.deleted"

	// Board events.
	TaskCreatedEvent     EventType = "task.created"
	TaskMovedEvent       EventType = "task.moved"
	TaskUpdatedEvent     EventType = "task.updated"
	TaskDeletedEvent     EventType = "task.deleted"
	StagesReorderedEvent EventType = "stages.reordered"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	ProjectID string         `json:"project_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent creates the shared envelope for an event bound to a project.
func NewBaseEvent(eventType EventType, projectID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		ProjectID: projectID,
	}
}

type TemplateCreated struct {
	BaseEvent

	TemplateID string `json:"template_id"`
	Name       string `json:"name"`
}

func (e TemplateCreated) GetType() EventType {
	return TemplateCreatedEvent
}

type TemplateDeleted struct {
	BaseEvent

	TemplateID string `json:"template_id"`
}

func (e TemplateDeleted) GetType() EventType {
	return TemplateDeletedEvent
}

type ProjectCreated struct {
	BaseEvent

	ClientID   string  `json:"client_id"`
	TemplateID *string `json:"template_id,omitempty"`
	Name       string  `json:"name"`
	StageCount int     `json:"stage_count"`
	TaskCount  int     `json:"task_count"`
}

func (e ProjectCreated) GetType() EventType {
	return ProjectCreatedEvent
}

type ProjectUpdated struct {
	BaseEvent
}

func (e ProjectUpdated) GetType() EventType {
	return ProjectUpdatedEvent
}

type ProjectDeleted struct {
	BaseEvent
}

func (e ProjectDeleted) GetType() EventType {
	return ProjectDeletedEvent
}

type TaskCreated struct {
	BaseEvent

	TaskID  string `json:"task_id"`
	StageID string `json:"stage_id"`
	Title   string `json:"title"`
}

func (e TaskCreated) GetType() EventType {
	return TaskCreatedEvent
}

type TaskMoved struct {
	BaseEvent

	TaskID      string `json:"task_id"`
	FromStageID string `json:"from_stage_id"`
	ToStageID   string `json:"to_stage_id"`
	Position    int    `json:"position"`
}

func (e TaskMoved) GetType() EventType {
	return TaskMovedEvent
}

type TaskUpdated struct {
	BaseEvent

	TaskID string `json:"task_id"`
}

func (e TaskUpdated) GetType() EventType {
	return TaskUpdatedEvent
}

type TaskDeleted struct {
	BaseEvent

	TaskID string `json:"task_id"`
}

func (e TaskDeleted) GetType() EventType {
	return TaskDeletedEvent
}

type StagesReordered struct {
	BaseEvent

	StageIDs []string `json:"stage_ids"`
}

func (e StagesReordered) GetType() EventType {
	return StagesReorderedEvent
}
