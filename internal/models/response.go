package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Answer is one submitted value keyed by the field it answers. Value keeps
// whatever JSON shape the submitter sent; the validation engine decides
// per field kind whether that shape is acceptable.
type Answer struct {
	FieldID string `json:"fieldId"`
	Value   any    `json:"value"`
}

// FieldScore records earned/possible points for one quiz field.
type FieldScore struct {
	FieldID  string  `json:"fieldId"`
	Earned   float64 `json:"earned"`
	Possible float64 `json:"possible"`
}

type Response struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	FormID uint `json:"form_id" gorm:"not null;index;uniqueIndex:ux_responses_form_dedupe,priority:1"`

	// Responder identity snapshot. Shape is dictated by the form's
	// identity requirements; all parts are optional on anonymous forms.
	ResponderName      *string `json:"responder_name,omitempty" gorm:"size:200"`
	ResponderEmail     *string `json:"responder_email,omitempty" gorm:"size:320"`
	ResponderStudentID *string `json:"responder_student_id,omitempty" gorm:"size:100"`
	IP                 string  `json:"ip,omitempty" gorm:"size:64"`
	UserAgent          string  `json:"user_agent,omitempty" gorm:"size:400"`

	// DedupeKey is set only when the owning form enforces one attempt per
	// identity. The composite unique index on (form_id, dedupe_key) is
	// the authoritative duplicate guard; NULL rows are exempt.
	DedupeKey *string `json:"-" gorm:"size:420;uniqueIndex:ux_responses_form_dedupe,priority:2"`

	StartedAt       *time.Time `json:"started_at,omitempty"`
	SubmittedAt     time.Time  `json:"submitted_at" gorm:"not null;index"`
	DurationSeconds int        `json:"duration_seconds"`

	Answers     datatypes.JSONSlice[Answer]     `json:"answers"`
	Score       *float64                        `json:"score,omitempty"`
	MaxScore    *float64                        `json:"max_score,omitempty"`
	PerQuestion datatypes.JSONSlice[FieldScore] `json:"per_question,omitempty"`
	Metadata    datatypes.JSONMap               `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (Response) TableName() string {
	return "responses"
}

// BuildDedupeKey derives the storage-level duplicate key for a submission
// under the given policy. Email participates case-insensitively, studentId
// exactly. Returns nil when the policy does not apply or no configured
// identity part was supplied.
func BuildDedupeKey(policy SubmissionPolicy, email, studentID *string) *string {
	if !policy.OneAttemptPerIdentity {
		return nil
	}

	var parts []string
	if policy.DedupesOn(DedupeByEmail) && email != nil && *email != "" {
		parts = append(parts, fmt.Sprintf("email:%s", strings.ToLower(strings.TrimSpace(*email))))
	}
	if policy.DedupesOn(DedupeByStudentID) && studentID != nil && *studentID != "" {
		parts = append(parts, fmt.Sprintf("sid:%s", *studentID))
	}

	if len(parts) == 0 {
		return nil
	}
	key := strings.Join(parts, "|")
	return &key
}
