package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/formlab/forms-service/internal/models"
	"github.com/formlab/forms-service/internal/repositories"
	"gorm.io/gorm"
)

type FormPostgreSQL struct {
	db *gorm.DB
}

func NewFormPostgreSQL(db *gorm.DB) repositories.FormRepository {
	return &FormPostgreSQL{db: db}
}

// Create inserts a new form. A slug collision surfaces as a duplicate-key
// error from the unique index; callers retry with a fresh slug.
func (f *FormPostgreSQL) Create(ctx context.Context, form *models.Form) error {
	if err := f.db.WithContext(ctx).Create(form).Error; err != nil {
		return fmt.Errorf("failed to create form: %w", err)
	}
	return nil
}

// GetByID retrieves a form by ID with its response count filled in.
func (f *FormPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Form, error) {
	var form models.Form
	if err := f.db.WithContext(ctx).First(&form, id).Error; err != nil {
		return nil, err
	}
	if err := f.fillResponseCount(ctx, &form); err != nil {
		return nil, err
	}
	return &form, nil
}

// GetBySlug retrieves a form by its public slug.
func (f *FormPostgreSQL) GetBySlug(ctx context.Context, slug string) (*models.Form, error) {
	var form models.Form
	if err := f.db.WithContext(ctx).Where("slug = ?", slug).First(&form).Error; err != nil {
		return nil, err
	}
	if err := f.fillResponseCount(ctx, &form); err != nil {
		return nil, err
	}
	return &form, nil
}

// Update saves the full form row.
func (f *FormPostgreSQL) Update(ctx context.Context, form *models.Form) error {
	if err := f.db.WithContext(ctx).Save(form).Error; err != nil {
		return fmt.Errorf("failed to update form: %w", err)
	}
	return nil
}

// Delete removes the form and its responses permanently.
func (f *FormPostgreSQL) Delete(ctx context.Context, id uint) error {
	return f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("form_id = ?", id).Delete(&models.Response{}).Error; err != nil {
			return fmt.Errorf("failed to delete form responses: %w", err)
		}
		result := tx.Delete(&models.Form{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete form: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// List retrieves an owner's forms with filtering and pagination.
func (f *FormPostgreSQL) List(ctx context.Context, ownerID string, filters repositories.FormFilters) ([]*models.Form, int64, error) {
	query := f.db.WithContext(ctx).Model(&models.Form{}).Where("owner_id = ?", ownerID)

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.Search != "" {
		pattern := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count forms: %w", err)
	}

	query = query.Order(orderClause(filters.SortBy, filters.SortOrder))
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var forms []*models.Form
	if err := query.Find(&forms).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list forms: %w", err)
	}

	if err := f.fillResponseCounts(ctx, forms); err != nil {
		return nil, 0, err
	}

	return forms, total, nil
}

// UpdateStatus changes only the status column.
func (f *FormPostgreSQL) UpdateStatus(ctx context.Context, id uint, status models.FormStatus) error {
	result := f.db.WithContext(ctx).Model(&models.Form{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update form status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ExistsBySlug reports whether any form already holds slug.
func (f *FormPostgreSQL) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := f.db.WithContext(ctx).Model(&models.Form{}).Where("slug = ?", slug).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check slug existence: %w", err)
	}
	return count > 0, nil
}

// IsOwner reports whether ownerID owns the form.
func (f *FormPostgreSQL) IsOwner(ctx context.Context, id uint, ownerID string) (bool, error) {
	var count int64
	err := f.db.WithContext(ctx).Model(&models.Form{}).
		Where("id = ? AND owner_id = ?", id, ownerID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check form ownership: %w", err)
	}
	return count > 0, nil
}

// GetOwnerStats aggregates form and response counts for an owner.
func (f *FormPostgreSQL) GetOwnerStats(ctx context.Context, ownerID string) (*repositories.OwnerStats, error) {
	stats := &repositories.OwnerStats{}

	rows, err := f.db.WithContext(ctx).Model(&models.Form{}).
		Select("status, COUNT(*) AS count").
		Where("owner_id = ?", ownerID).
		Group("status").Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate form counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status models.FormStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan form counts: %w", err)
		}
		stats.TotalForms += count
		switch status {
		case models.StatusPublished:
			stats.PublishedForms = count
		case models.StatusDraft:
			stats.DraftForms = count
		case models.StatusArchived:
			stats.ArchivedForms = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read form counts: %w", err)
	}

	err = f.db.WithContext(ctx).Model(&models.Response{}).
		Joins("JOIN forms ON forms.id = responses.form_id").
		Where("forms.owner_id = ?", ownerID).
		Count(&stats.TotalResponses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count owner responses: %w", err)
	}

	return stats, nil
}

func (f *FormPostgreSQL) fillResponseCount(ctx context.Context, form *models.Form) error {
	var count int64
	err := f.db.WithContext(ctx).Model(&models.Response{}).
		Where("form_id = ?", form.ID).Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to count responses: %w", err)
	}
	form.ResponseCount = int(count)
	return nil
}

func (f *FormPostgreSQL) fillResponseCounts(ctx context.Context, forms []*models.Form) error {
	if len(forms) == 0 {
		return nil
	}

	ids := make([]uint, len(forms))
	for i, form := range forms {
		ids[i] = form.ID
	}

	rows, err := f.db.WithContext(ctx).Model(&models.Response{}).
		Select("form_id, COUNT(*) AS count").
		Where("form_id IN ?", ids).
		Group("form_id").Rows()
	if err != nil {
		return fmt.Errorf("failed to count responses: %w", err)
	}
	defer rows.Close()

	counts := make(map[uint]int64, len(forms))
	for rows.Next() {
		var formID uint
		var count int64
		if err := rows.Scan(&formID, &count); err != nil {
			return fmt.Errorf("failed to scan response counts: %w", err)
		}
		counts[formID] = count
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read response counts: %w", err)
	}

	for _, form := range forms {
		form.ResponseCount = int(counts[form.ID])
	}
	return nil
}

var formSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"title":      "title",
}

func orderClause(sortBy, sortOrder string) string {
	column, ok := formSortColumns[sortBy]
	if !ok {
		column = "created_at"
	}
	if strings.EqualFold(sortOrder, "asc") {
		return column + " ASC"
	}
	return column + " DESC"
}
