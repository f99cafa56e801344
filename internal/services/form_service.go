package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/formlab/forms-service/internal/cache"
	"github.com/formlab/forms-service/internal/events"
	"github.com/formlab/forms-service/internal/models"
	"github.com/formlab/forms-service/internal/repositories"
	"github.com/formlab/forms-service/internal/utils"
	"github.com/formlab/forms-service/internal/validator"
)

const publicFormCacheTTL = 5 * time.Minute

// FormService owns the form lifecycle: definition, slug allocation,
// status transitions, and the public projection served to responders.
type FormService interface {
	// Owner operations
	Create(ctx context.Context, req *CreateFormRequest, ownerID string) (*models.Form, error)
	GetByID(ctx context.Context, id uint, ownerID string) (*models.Form, error)
	Update(ctx context.Context, id uint, req *UpdateFormRequest, ownerID string) (*models.Form, error)
	UpdateStatus(ctx context.Context, id uint, status models.FormStatus, ownerID string) (*models.Form, error)
	Delete(ctx context.Context, id uint, ownerID string) error
	List(ctx context.Context, ownerID string, filters repositories.FormFilters) ([]*models.Form, int64, error)
	GetOwnerStats(ctx context.Context, ownerID string) (*repositories.OwnerStats, error)

	// Public operations
	GetPublic(ctx context.Context, slug string) (*PublicForm, error)
}

// ===== REQUEST / RESPONSE STRUCTS =====

type CreateFormRequest struct {
	Title       string                  `json:"title" validate:"required,min=1,max=200"`
	Description *string                 `json:"description" validate:"omitempty,max=2000"`
	Type        models.FormType         `json:"type" validate:"required,form_type"`
	Slug        string                  `json:"slug" validate:"omitempty,min=3,max=60"`
	Fields      []models.Field          `json:"fields"`
	Settings    models.FormSettings     `json:"settings"`
	Policy      models.SubmissionPolicy `json:"submission_policy"`
}

type UpdateFormRequest struct {
	Title       *string                  `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string                  `json:"description" validate:"omitempty,max=2000"`
	Fields      []models.Field           `json:"fields"`
	Settings    *models.FormSettings     `json:"settings"`
	Policy      *models.SubmissionPolicy `json:"submission_policy"`
}

// PublicForm is the responder-facing projection of a published form.
// Internal-visibility fields and the quiz answer key never appear in it.
type PublicForm struct {
	Slug        string             `json:"slug"`
	Title       string             `json:"title"`
	Description *string            `json:"description,omitempty"`
	Type        models.FormType    `json:"type"`
	Fields      []models.Field     `json:"fields"`
	Settings    PublicFormSettings `json:"settings"`
}

type PublicFormSettings struct {
	AllowAnonymous   bool       `json:"allow_anonymous"`
	RequireName      bool       `json:"require_name"`
	RequireEmail     bool       `json:"require_email"`
	RequireStudentID bool       `json:"require_student_id"`
	TimerSeconds     *int       `json:"timer_seconds,omitempty"`
	StartAt          *time.Time `json:"start_at,omitempty"`
	EndAt            *time.Time `json:"end_at,omitempty"`
}

type formService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	cache     cache.CacheService
	publisher events.EventPublisher
}

func NewFormService(
	repo repositories.Repository,
	logger *slog.Logger,
	v *validator.Validator,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
) FormService {
	return &formService{
		repo:      repo,
		logger:    logger,
		validator: v,
		cache:     cacheService,
		publisher: publisher,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *formService) Create(ctx context.Context, req *CreateFormRequest, ownerID string) (*models.Form, error) {
	s.logger.Info("Creating form", "owner_id", ownerID, "title", req.Title, "type", req.Type)

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	form := &models.Form{
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Fields:      req.Fields,
		Settings:    req.Settings,
		Policy:      req.Policy,
		Status:      models.StatusDraft,
	}

	if errs := s.validator.Form().ValidateDefinition(form); len(errs) > 0 {
		return nil, errs
	}

	if req.Slug != "" {
		return s.createWithCustomSlug(ctx, form, req.Slug)
	}
	return s.createWithAllocatedSlug(ctx, form)
}

// createWithCustomSlug uses the exact slug the owner asked for. A
// collision is surfaced as a conflict instead of being retried away.
func (s *formService) createWithCustomSlug(ctx context.Context, form *models.Form, slug string) (*models.Form, error) {
	form.Slug = utils.GenerateSlugFromTitle(slug, utils.DefaultSlugMaxLength)
	if form.Slug == "" {
		return nil, ValidationErrors{*NewValidationError("slug", "cannot be reduced to a valid slug", slug)}
	}

	if err := s.repo.Form().Create(ctx, form); err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %s", ErrSlugTaken, form.Slug)
		}
		return nil, fmt.Errorf("failed to create form: %w", err)
	}
	return form, nil
}

// createWithAllocatedSlug derives a slug from the title, or a random one
// for untitleable input, and retries allocation when a concurrent insert
// wins the race on the unique index.
func (s *formService) createWithAllocatedSlug(ctx context.Context, form *models.Form) (*models.Form, error) {
	exists := s.repo.Form().ExistsBySlug

	for attempt := 0; attempt < 3; attempt++ {
		var slug string
		var err error

		if base := utils.GenerateSlugFromTitle(form.Title, utils.DefaultSlugMaxLength); base != "" {
			slug, err = utils.CreateUniqueSlug(ctx, base, exists)
		} else {
			slug, err = utils.CreateUniqueRandomSlug(ctx, exists, utils.DefaultRandomSlugLength)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSlugExhausted, err)
		}

		form.Slug = slug
		err = s.repo.Form().Create(ctx, form)
		if err == nil {
			return form, nil
		}
		if !repositories.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("failed to create form: %w", err)
		}

		s.logger.Warn("Slug collision on insert, reallocating", "slug", slug, "attempt", attempt+1)
	}

	return nil, ErrSlugExhausted
}

func (s *formService) GetByID(ctx context.Context, id uint, ownerID string) (*models.Form, error) {
	form, err := s.repo.Form().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrFormNotFound
		}
		return nil, fmt.Errorf("failed to get form: %w", err)
	}

	if form.OwnerID != ownerID {
		return nil, NewPermissionError(ownerID, id, "form", "read", "not the owner")
	}
	return form, nil
}

func (s *formService) Update(ctx context.Context, id uint, req *UpdateFormRequest, ownerID string) (*models.Form, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	form, err := s.GetByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if !form.Editable() {
		return nil, ErrFormNotEditable
	}

	if req.Title != nil {
		form.Title = *req.Title
	}
	if req.Description != nil {
		form.Description = req.Description
	}
	if req.Fields != nil {
		form.Fields = req.Fields
	}
	if req.Settings != nil {
		form.Settings = *req.Settings
	}
	if req.Policy != nil {
		form.Policy = *req.Policy
	}

	if errs := s.validator.Form().ValidateDefinition(form); len(errs) > 0 {
		return nil, errs
	}

	if err := s.repo.Form().Update(ctx, form); err != nil {
		return nil, fmt.Errorf("failed to update form: %w", err)
	}

	s.invalidatePublicCache(ctx, form.Slug)
	s.logger.Info("Updated form", "form_id", id, "owner_id", ownerID)
	return form, nil
}

// ===== STATUS MANAGEMENT =====

func (s *formService) UpdateStatus(ctx context.Context, id uint, status models.FormStatus, ownerID string) (*models.Form, error) {
	form, err := s.GetByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if form.Status == status {
		return form, nil
	}
	if !models.CanTransition(form.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrFormInvalidStatus, form.Status, status)
	}

	if err := s.repo.Form().UpdateStatus(ctx, id, status); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrFormNotFound
		}
		return nil, fmt.Errorf("failed to update form status: %w", err)
	}

	previous := form.Status
	form.Status = status
	s.invalidatePublicCache(ctx, form.Slug)
	s.logger.Info("Form status changed",
		"form_id", id, "from", previous, "to", status, "owner_id", ownerID)

	s.publishStatusEvent(ctx, form)
	return form, nil
}

func (s *formService) publishStatusEvent(ctx context.Context, form *models.Form) {
	if s.publisher == nil {
		return
	}

	var event *events.Event
	switch form.Status {
	case models.StatusPublished:
		event = events.NewEvent(events.EventFormPublished, &events.FormPublishedEvent{
			FormID:    form.ID,
			FormTitle: form.Title,
			FormType:  string(form.Type),
			Slug:      form.Slug,
			OwnerID:   form.OwnerID,
			StartAt:   form.Settings.StartAt,
			EndAt:     form.Settings.EndAt,
		})
	case models.StatusArchived:
		event = events.NewEvent(events.EventFormArchived, &events.FormArchivedEvent{
			FormID:        form.ID,
			FormTitle:     form.Title,
			OwnerID:       form.OwnerID,
			ResponseCount: form.ResponseCount,
		})
	default:
		return
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		// Event delivery is best-effort; the state change already landed.
		s.logger.Error("Failed to publish form event", "form_id", form.ID, "error", err)
	}
}

// Delete archives a live form; only an already-archived form is removed
// permanently, responses included.
func (s *formService) Delete(ctx context.Context, id uint, ownerID string) error {
	form, err := s.GetByID(ctx, id, ownerID)
	if err != nil {
		return err
	}

	if form.Status != models.StatusArchived {
		_, err := s.UpdateStatus(ctx, id, models.StatusArchived, ownerID)
		return err
	}

	if err := s.repo.Form().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrFormNotFound
		}
		return fmt.Errorf("failed to delete form: %w", err)
	}

	s.invalidatePublicCache(ctx, form.Slug)
	s.logger.Info("Deleted form permanently", "form_id", id, "owner_id", ownerID)

	if s.publisher != nil {
		event := events.NewEvent(events.EventFormDeleted, &events.FormDeletedEvent{
			FormID:  id,
			OwnerID: ownerID,
		})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("Failed to publish form event", "form_id", id, "error", err)
		}
	}
	return nil
}

// ===== QUERY OPERATIONS =====

func (s *formService) List(ctx context.Context, ownerID string, filters repositories.FormFilters) ([]*models.Form, int64, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 20
	}

	forms, total, err := s.repo.Form().List(ctx, ownerID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list forms: %w", err)
	}
	return forms, total, nil
}

func (s *formService) GetOwnerStats(ctx context.Context, ownerID string) (*repositories.OwnerStats, error) {
	stats, err := s.repo.Form().GetOwnerStats(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get owner stats: %w", err)
	}
	return stats, nil
}

// ===== PUBLIC PROJECTION =====

func (s *formService) GetPublic(ctx context.Context, slug string) (*PublicForm, error) {
	if s.cache != nil {
		var cached PublicForm
		if err := s.cache.Get(ctx, publicFormCacheKey(slug), &cached); err == nil {
			return &cached, nil
		}
	}

	form, err := s.repo.Form().GetBySlug(ctx, slug)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrFormNotFound
		}
		return nil, fmt.Errorf("failed to get form by slug: %w", err)
	}

	// Unpublished forms are indistinguishable from missing ones.
	if form.Status != models.StatusPublished {
		return nil, ErrFormNotFound
	}

	public := buildPublicProjection(form)

	if s.cache != nil {
		if err := s.cache.Set(ctx, publicFormCacheKey(slug), public, publicFormCacheTTL); err != nil {
			s.logger.Warn("Failed to cache public form", "slug", slug, "error", err)
		}
	}

	return public, nil
}

// buildPublicProjection strips internal-visibility fields and the quiz
// answer key from the form.
func buildPublicProjection(form *models.Form) *PublicForm {
	fields := make([]models.Field, 0, len(form.Fields))
	for _, field := range form.Fields {
		if !field.IsPublic() {
			continue
		}
		if field.Quiz != nil {
			sanitized := field
			sanitized.Quiz = nil
			field = sanitized
		}
		fields = append(fields, field)
	}

	return &PublicForm{
		Slug:        form.Slug,
		Title:       form.Title,
		Description: form.Description,
		Type:        form.Type,
		Fields:      fields,
		Settings: PublicFormSettings{
			AllowAnonymous:   form.Settings.AllowAnonymous,
			RequireName:      form.Settings.RequireName,
			RequireEmail:     form.Settings.RequireEmail,
			RequireStudentID: form.Settings.RequireStudentID,
			TimerSeconds:     form.Settings.TimerSeconds,
			StartAt:          form.Settings.StartAt,
			EndAt:            form.Settings.EndAt,
		},
	}
}

func publicFormCacheKey(slug string) string {
	return "form:public:" + slug
}

func (s *formService) invalidatePublicCache(ctx context.Context, slug string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, publicFormCacheKey(slug)); err != nil {
		s.logger.Warn("Failed to invalidate public form cache", "slug", slug, "error", err)
	}
}
