package models

import (
	"time"

	"gorm.io/datatypes"
)

type FormType string

const (
	FormTypeGeneral    FormType = "general"
	FormTypeSurvey     FormType = "survey"
	FormTypeAttendance FormType = "attendance"
	FormTypeQuiz       FormType = "quiz"
)

type FormStatus string

const (
	StatusDraft     FormStatus = "draft"
	StatusPublished FormStatus = "published"
	StatusArchived  FormStatus = "archived"
)

type FieldKind string

const (
	FieldShortText    FieldKind = "short_text"
	FieldLongText     FieldKind = "long_text"
	FieldEmail        FieldKind = "email"
	FieldNumber       FieldKind = "number"
	FieldDate         FieldKind = "date"
	FieldTime         FieldKind = "time"
	FieldDropdown     FieldKind = "dropdown"
	FieldCheckbox     FieldKind = "checkbox"
	FieldRadio        FieldKind = "radio"
	FieldSingleSelect FieldKind = "single_select"
	FieldMatrix       FieldKind = "matrix"
	FieldFile         FieldKind = "file"
	FieldRating       FieldKind = "rating"
	FieldScale        FieldKind = "scale"
	FieldSection      FieldKind = "section"
	FieldImage        FieldKind = "image"
	FieldVideo        FieldKind = "video"
)

// AllFieldKinds is the closed set of supported field kinds. Validation and
// scoring dispatch on this set; adding a kind means extending the switch in
// the submission validator as well.
var AllFieldKinds = []FieldKind{
	FieldShortText, FieldLongText, FieldEmail, FieldNumber, FieldDate,
	FieldTime, FieldDropdown, FieldCheckbox, FieldRadio, FieldSingleSelect,
	FieldMatrix, FieldFile, FieldRating, FieldScale, FieldSection,
	FieldImage, FieldVideo,
}

// IsChoice reports whether the kind carries a declared option list.
func (k FieldKind) IsChoice() bool {
	return k == FieldDropdown || k == FieldCheckbox || k == FieldRadio
}

// IsValid reports membership in the closed kind set.
func (k FieldKind) IsValid() bool {
	for _, kind := range AllFieldKinds {
		if k == kind {
			return true
		}
	}
	return false
}

type FieldVisibility string

const (
	VisibilityPublic   FieldVisibility = "public"
	VisibilityInternal FieldVisibility = "internal"
)

type DedupeKey string

const (
	DedupeByEmail     DedupeKey = "email"
	DedupeByStudentID DedupeKey = "studentId"
)

// Field is one question/input unit within a form. Fields are stored as a
// JSON document on the form row, not as their own table.
type Field struct {
	ID         string            `json:"id" validate:"required"`
	Label      string            `json:"label"`
	Kind       FieldKind         `json:"kind" validate:"required,field_kind"`
	Required   bool              `json:"required"`
	Options    []string          `json:"options,omitempty"`
	Multiple   bool              `json:"multiple,omitempty"` // valid only on dropdown
	Visibility FieldVisibility   `json:"visibility,omitempty"`
	Rules      *FieldConstraints `json:"rules,omitempty"`
	Quiz       *QuizMeta         `json:"quiz,omitempty"`
}

// IsPublic treats an unset visibility as public.
func (f Field) IsPublic() bool {
	return f.Visibility != VisibilityInternal
}

// Scorable reports whether the field contributes to quiz scoring.
func (f Field) Scorable() bool {
	return f.Quiz != nil && f.Quiz.Points > 0 && len(f.Quiz.CorrectOptions) > 0
}

type FieldConstraints struct {
	Min           *float64 `json:"min,omitempty"`
	Max           *float64 `json:"max,omitempty"`
	Pattern       string   `json:"pattern,omitempty"`
	Unique        bool     `json:"unique,omitempty"`
	MinSelections *int     `json:"minSelections,omitempty"`
	MaxSelections *int     `json:"maxSelections,omitempty"`
}

type QuizMeta struct {
	CorrectOptions []int   `json:"correctOptions,omitempty"`
	Points         float64 `json:"points,omitempty"`
}

type FormSettings struct {
	IsPublic         bool       `json:"is_public" gorm:"default:true"`
	AllowMultiple    bool       `json:"allow_multiple" gorm:"default:false"`
	AllowAnonymous   bool       `json:"allow_anonymous" gorm:"default:true"`
	RequireName      bool       `json:"require_name" gorm:"default:false"`
	RequireEmail     bool       `json:"require_email" gorm:"default:false"`
	RequireStudentID bool       `json:"require_student_id" gorm:"default:false"`
	TimerSeconds     *int       `json:"timer_seconds,omitempty"`
	StartAt          *time.Time `json:"start_at,omitempty"`
	EndAt            *time.Time `json:"end_at,omitempty"`
	QuizScoring      bool       `json:"quiz_scoring" gorm:"default:false"`
	PassingScore     *float64   `json:"passing_score,omitempty"`
}

type SubmissionPolicy struct {
	DedupeBy              datatypes.JSONSlice[DedupeKey] `json:"dedupe_by"`
	OneAttemptPerIdentity bool                           `json:"one_attempt_per_identity" gorm:"default:false"`
}

// DedupesOn reports whether the given identity key participates in
// duplicate detection.
func (p SubmissionPolicy) DedupesOn(key DedupeKey) bool {
	for _, k := range p.DedupeBy {
		if k == key {
			return true
		}
	}
	return false
}

type Form struct {
	ID          uint     `json:"id" gorm:"primaryKey"`
	OwnerID     string   `json:"owner_id" gorm:"not null;size:100;index"`
	Title       string   `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description *string  `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`
	Type        FormType `json:"type" gorm:"not null;size:20;index" validate:"required,form_type"`

	// Slug is the public identifier. It is assigned once at creation and
	// never changes; the unique index is the authoritative uniqueness
	// guarantee (the allocator's existence check is best-effort only).
	Slug string `json:"slug" gorm:"not null;size:80;uniqueIndex"`

	Fields   datatypes.JSONSlice[Field] `json:"fields"`
	Settings FormSettings               `json:"settings" gorm:"embedded;embeddedPrefix:settings_"`
	Policy   SubmissionPolicy           `json:"submission_policy" gorm:"embedded;embeddedPrefix:policy_"`

	Status FormStatus `json:"status" gorm:"default:draft;size:20;index" validate:"omitempty,form_status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Computed fields (not stored)
	ResponseCount int `json:"response_count" gorm:"-"`
}

func (Form) TableName() string {
	return "forms"
}

// Field returns the field declared with the given id, if any.
func (f *Form) Field(id string) (Field, bool) {
	for _, fld := range f.Fields {
		if fld.ID == id {
			return fld, true
		}
	}
	return Field{}, false
}

// Editable reports whether the form still accepts schema/settings edits.
func (f *Form) Editable() bool {
	return f.Status != StatusArchived
}

// statusTransitions is the owner-initiated lifecycle: draft and published
// flip back and forth, both can be archived, archived is terminal.
var statusTransitions = map[FormStatus][]FormStatus{
	StatusDraft:     {StatusPublished, StatusArchived},
	StatusPublished: {StatusDraft, StatusArchived},
	StatusArchived:  {},
}

// CanTransition reports whether the status change is allowed.
func CanTransition(from, to FormStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
