package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/formlab/forms-service/internal/models"
	"github.com/formlab/forms-service/internal/repositories"
	"gorm.io/gorm"
)

type ResponsePostgreSQL struct {
	db *gorm.DB
}

func NewResponsePostgreSQL(db *gorm.DB) repositories.ResponseRepository {
	return &ResponsePostgreSQL{db: db}
}

// Create inserts a response. When the form enforces one attempt per
// identity the composite unique index on (form_id, dedupe_key) rejects a
// second insert with a duplicate-key error.
func (r *ResponsePostgreSQL) Create(ctx context.Context, response *models.Response) error {
	if err := r.db.WithContext(ctx).Create(response).Error; err != nil {
		return fmt.Errorf("failed to create response: %w", err)
	}
	return nil
}

func (r *ResponsePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Response, error) {
	var response models.Response
	if err := r.db.WithContext(ctx).First(&response, id).Error; err != nil {
		return nil, err
	}
	return &response, nil
}

func (r *ResponsePostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Response{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete response: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ResponsePostgreSQL) DeleteByForm(ctx context.Context, formID uint) error {
	err := r.db.WithContext(ctx).Where("form_id = ?", formID).Delete(&models.Response{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete form responses: %w", err)
	}
	return nil
}

// ListByForm retrieves a form's responses with filtering and pagination.
func (r *ResponsePostgreSQL) ListByForm(ctx context.Context, formID uint, filters repositories.ResponseFilters) ([]*models.Response, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Response{}).Where("form_id = ?", formID)

	if filters.DateFrom != nil {
		query = query.Where("submitted_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("submitted_at <= ?", *filters.DateTo)
	}
	if filters.Email != nil {
		query = query.Where("LOWER(responder_email) = ?", strings.ToLower(*filters.Email))
	}
	if filters.StudentID != nil {
		query = query.Where("responder_student_id = ?", *filters.StudentID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count responses: %w", err)
	}

	query = query.Order(responseOrderClause(filters.SortBy, filters.SortOrder))
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var responses []*models.Response
	if err := query.Find(&responses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list responses: %w", err)
	}

	return responses, total, nil
}

// Sample returns up to limit of the most recent responses for a form.
func (r *ResponsePostgreSQL) Sample(ctx context.Context, formID uint, limit int) ([]*models.Response, error) {
	var responses []*models.Response
	err := r.db.WithContext(ctx).
		Where("form_id = ?", formID).
		Order("submitted_at DESC").
		Limit(limit).
		Find(&responses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sample responses: %w", err)
	}
	return responses, nil
}

// ExistsByDedupeKey reports whether an identity has already submitted.
// This is a pre-check for fast feedback; the unique index remains the
// authoritative guard.
func (r *ResponsePostgreSQL) ExistsByDedupeKey(ctx context.Context, formID uint, dedupeKey string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Response{}).
		Where("form_id = ? AND dedupe_key = ?", formID, dedupeKey).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate submission: %w", err)
	}
	return count > 0, nil
}

func (r *ResponsePostgreSQL) CountByForm(ctx context.Context, formID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Response{}).
		Where("form_id = ?", formID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}
	return count, nil
}

// CountsByDay aggregates submissions per calendar day since the given
// instant. Days with no submissions produce no row; callers fill gaps.
func (r *ResponsePostgreSQL) CountsByDay(ctx context.Context, formID uint, since time.Time) ([]repositories.DailyCount, error) {
	rows, err := r.db.WithContext(ctx).Model(&models.Response{}).
		Select("DATE_TRUNC('day', submitted_at) AS date, COUNT(*) AS count").
		Where("form_id = ? AND submitted_at >= ?", formID, since).
		Group("date").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily counts: %w", err)
	}
	defer rows.Close()

	var counts []repositories.DailyCount
	for rows.Next() {
		var dc repositories.DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan daily counts: %w", err)
		}
		counts = append(counts, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read daily counts: %w", err)
	}
	return counts, nil
}

var responseSortColumns = map[string]string{
	"submitted_at": "submitted_at",
	"created_at":   "created_at",
	"score":        "score",
}

func responseOrderClause(sortBy, sortOrder string) string {
	column, ok := responseSortColumns[sortBy]
	if !ok {
		column = "submitted_at"
	}
	if strings.EqualFold(sortOrder, "asc") {
		return column + " ASC"
	}
	return column + " DESC"
}
