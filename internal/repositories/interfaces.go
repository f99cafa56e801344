package repositories

import (
	"context"
	"time"

	"github.com/formlab/forms-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type FormFilters struct {
	Status    *models.FormStatus `json:"status"`
	Type      *models.FormType   `json:"type"`
	Search    string             `json:"search"`
	DateFrom  *time.Time         `json:"date_from"`
	DateTo    *time.Time         `json:"date_to"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
	SortBy    string             `json:"sort_by"`    // "created_at", "title", "response_count"
	SortOrder string             `json:"sort_order"` // "asc", "desc"
}

type ResponseFilters struct {
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Email     *string    `json:"email"`
	StudentID *string    `json:"student_id"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortBy    string     `json:"sort_by"`
	SortOrder string     `json:"sort_order"`
}

// ===== SHARED STATISTICS STRUCTS =====

// DailyCount is one bucket of a per-day submission series.
type DailyCount struct {
	Date  time.Time `json:"date"`
	Count int64     `json:"count"`
}

type OwnerStats struct {
	TotalForms     int64 `json:"total_forms"`
	PublishedForms int64 `json:"published_forms"`
	DraftForms     int64 `json:"draft_forms"`
	ArchivedForms  int64 `json:"archived_forms"`
	TotalResponses int64 `json:"total_responses"`
}

// ===== REPOSITORY INTERFACES =====

// FormRepository interface for form definition operations
type FormRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, form *models.Form) error
	GetByID(ctx context.Context, id uint) (*models.Form, error)
	GetBySlug(ctx context.Context, slug string) (*models.Form, error)
	Update(ctx context.Context, form *models.Form) error
	Delete(ctx context.Context, id uint) error // Hard delete

	// Query operations
	List(ctx context.Context, ownerID string, filters FormFilters) ([]*models.Form, int64, error)

	// Status management
	UpdateStatus(ctx context.Context, id uint, status models.FormStatus) error

	// Validation helpers
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	IsOwner(ctx context.Context, id uint, ownerID string) (bool, error)

	// Statistics
	GetOwnerStats(ctx context.Context, ownerID string) (*OwnerStats, error)
}

// ResponseRepository interface for submitted response operations
type ResponseRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, response *models.Response) error
	GetByID(ctx context.Context, id uint) (*models.Response, error)
	Delete(ctx context.Context, id uint) error
	DeleteByForm(ctx context.Context, formID uint) error

	// Query operations
	ListByForm(ctx context.Context, formID uint, filters ResponseFilters) ([]*models.Response, int64, error)
	Sample(ctx context.Context, formID uint, limit int) ([]*models.Response, error)

	// Dedupe and counting
	ExistsByDedupeKey(ctx context.Context, formID uint, dedupeKey string) (bool, error)
	CountByForm(ctx context.Context, formID uint) (int64, error)
	CountsByDay(ctx context.Context, formID uint, since time.Time) ([]DailyCount, error)
}

// Repository aggregates the per-entity repositories behind one handle.
type Repository interface {
	Form() FormRepository
	Response() ResponseRepository

	// WithTx runs fn against a repository bound to a single transaction.
	WithTx(ctx context.Context, fn func(Repository) error) error
}
