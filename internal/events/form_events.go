package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of domain events
type EventType string

const (
	// Form lifecycle events
	EventFormPublished EventType = "form.published"
	EventFormArchived  EventType = "form.archived"
	EventFormDeleted   EventType = "form.deleted"

	// Response events
	EventResponseSubmitted EventType = "response.submitted"
	EventResponseDeleted   EventType = "response.deleted"
)

// Event is the base structure for all published events
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewEvent wraps a payload in the event envelope.
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    "forms-service",
		Version:   "1.0",
		Data:      data,
	}
}

// Form lifecycle event payloads

type FormPublishedEvent struct {
	FormID    uint       `json:"form_id"`
	FormTitle string     `json:"form_title"`
	FormType  string     `json:"form_type"`
	Slug      string     `json:"slug"`
	OwnerID   string     `json:"owner_id"`
	StartAt   *time.Time `json:"start_at,omitempty"`
	EndAt     *time.Time `json:"end_at,omitempty"`
}

type FormArchivedEvent struct {
	FormID        uint   `json:"form_id"`
	FormTitle     string `json:"form_title"`
	OwnerID       string `json:"owner_id"`
	ResponseCount int    `json:"response_count"`
}

type FormDeletedEvent struct {
	FormID  uint   `json:"form_id"`
	OwnerID string `json:"owner_id"`
}

// Response event payloads

type ResponseSubmittedEvent struct {
	ResponseID  uint      `json:"response_id"`
	FormID      uint      `json:"form_id"`
	FormTitle   string    `json:"form_title"`
	FormType    string    `json:"form_type"`
	SubmittedAt time.Time `json:"submitted_at"`
	Score       *float64  `json:"score,omitempty"`
	MaxScore    *float64  `json:"max_score,omitempty"`
	Passed      *bool     `json:"passed,omitempty"`
}

type ResponseDeletedEvent struct {
	ResponseID uint   `json:"response_id"`
	FormID     uint   `json:"form_id"`
	DeletedBy  string `json:"deleted_by"`
}
