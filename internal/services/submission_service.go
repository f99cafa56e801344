package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/formlab/forms-service/internal/events"
	"github.com/formlab/forms-service/internal/models"
	"github.com/formlab/forms-service/internal/repositories"
	"github.com/formlab/forms-service/internal/validator"
	"gorm.io/datatypes"
)

// SubmissionService runs the public submission pipeline and the owner's
// response management operations.
type SubmissionService interface {
	// Public operations
	Submit(ctx context.Context, slug string, payload *models.SubmissionPayload, meta SubmissionMeta) (*SubmissionResult, error)

	// Owner operations
	ListResponses(ctx context.Context, formID uint, ownerID string, filters repositories.ResponseFilters) ([]*models.Response, int64, error)
	GetResponse(ctx context.Context, formID, responseID uint, ownerID string) (*models.Response, error)
	DeleteResponse(ctx context.Context, formID, responseID uint, ownerID string) error
	DeleteAllResponses(ctx context.Context, formID uint, ownerID string) error
}

// SubmissionMeta carries transport-level context captured by the handler.
type SubmissionMeta struct {
	IP        string
	UserAgent string
}

type SubmissionResult struct {
	ResponseID  uint        `json:"response_id"`
	SubmittedAt time.Time   `json:"submitted_at"`
	Quiz        *QuizResult `json:"quiz,omitempty"`
}

type QuizResult struct {
	Score      float64 `json:"score"`
	MaxScore   float64 `json:"max_score"`
	Percentage float64 `json:"percentage"`
	Passed     *bool   `json:"passed,omitempty"`
}

type submissionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	opLog     *ServiceLogger
	validator *validator.Validator
	scoring   ScoringService
	publisher events.EventPublisher
	now       func() time.Time
}

func NewSubmissionService(
	repo repositories.Repository,
	logger *slog.Logger,
	v *validator.Validator,
	scoring ScoringService,
	publisher events.EventPublisher,
) SubmissionService {
	return &submissionService{
		repo:      repo,
		logger:    logger,
		opLog:     NewServiceLogger(logger, "submission"),
		validator: v,
		scoring:   scoring,
		publisher: publisher,
		now:       time.Now,
	}
}

// ===== PUBLIC SUBMISSION PIPELINE =====

// Submit accepts a public submission: availability guard, payload
// validation, duplicate guard, quiz grading, then persistence. The unique
// index on (form_id, dedupe_key) is the authoritative duplicate check; the
// repository pre-check only exists for a friendlier error before insert.
func (s *submissionService) Submit(ctx context.Context, slug string, payload *models.SubmissionPayload, meta SubmissionMeta) (result *SubmissionResult, err error) {
	start := time.Now()
	var formID uint
	defer func() {
		s.opLog.LogOperation(ctx, "submit", "", formID, time.Since(start), err)
	}()

	form, err := s.repo.Form().GetBySlug(ctx, slug)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrFormNotFound
		}
		return nil, fmt.Errorf("failed to load form: %w", err)
	}
	formID = form.ID

	if err := s.checkAvailability(form); err != nil {
		return nil, err
	}

	if errs := s.validator.Submission().ValidateSubmission(form, payload); len(errs) > 0 {
		s.opLog.LogValidationError(ctx, "submit", errs)
		return nil, errs
	}

	response := s.buildResponse(form, payload, meta)

	if response.DedupeKey != nil {
		exists, err := s.repo.Response().ExistsByDedupeKey(ctx, form.ID, *response.DedupeKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check duplicate submission: %w", err)
		}
		if exists {
			return nil, ErrDuplicateSubmission
		}
	}

	var quiz *QuizResult
	if form.Type == models.FormTypeQuiz && form.Settings.QuizScoring {
		score := s.scoring.ScoreSubmission(form, payload.AnswerMap())
		response.Score = &score.Score
		response.MaxScore = &score.MaxScore
		response.PerQuestion = score.PerQuestion
		quiz = &QuizResult{
			Score:      score.Score,
			MaxScore:   score.MaxScore,
			Percentage: score.Percentage,
			Passed:     score.Passed,
		}
	}

	if err := s.repo.Response().Create(ctx, response); err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateSubmission
		}
		return nil, fmt.Errorf("failed to store response: %w", err)
	}

	s.logger.Info("Response submitted",
		"form_id", form.ID, "response_id", response.ID, "slug", slug)

	s.publishSubmitted(ctx, form, response)

	return &SubmissionResult{
		ResponseID:  response.ID,
		SubmittedAt: response.SubmittedAt,
		Quiz:        quiz,
	}, nil
}

// checkAvailability enforces the publication and window guard.
func (s *submissionService) checkAvailability(form *models.Form) error {
	if form.Status != models.StatusPublished {
		return ErrFormNotPublished
	}

	now := s.now()
	if form.Settings.StartAt != nil && now.Before(*form.Settings.StartAt) {
		return ErrSubmissionNotOpen
	}
	if form.Settings.EndAt != nil && now.After(*form.Settings.EndAt) {
		return ErrSubmissionClosed
	}
	return nil
}

func (s *submissionService) buildResponse(form *models.Form, payload *models.SubmissionPayload, meta SubmissionMeta) *models.Response {
	submittedAt := s.now()

	response := &models.Response{
		FormID:      form.ID,
		IP:          meta.IP,
		UserAgent:   meta.UserAgent,
		StartedAt:   payload.StartedAt,
		SubmittedAt: submittedAt,
		Answers:     payload.Answers,
	}

	if payload.StartedAt != nil && payload.StartedAt.Before(submittedAt) {
		response.DurationSeconds = int(submittedAt.Sub(*payload.StartedAt).Seconds())
	}

	// Late countdown-timer submissions are accepted but flagged so the
	// owner can see the overrun.
	if timer := form.Settings.TimerSeconds; timer != nil && payload.StartedAt != nil {
		deadline := payload.StartedAt.Add(time.Duration(*timer) * time.Second)
		if submittedAt.After(deadline) {
			response.Metadata = datatypes.JSONMap{
				"timer_exceeded":  true,
				"overrun_seconds": int(submittedAt.Sub(deadline).Seconds()),
			}
		}
	}

	if r := payload.Responder; r != nil {
		if r.Name != "" {
			response.ResponderName = &r.Name
		}
		if r.Email != "" {
			response.ResponderEmail = &r.Email
		}
		if r.StudentID != "" {
			response.ResponderStudentID = &r.StudentID
		}
	}

	response.DedupeKey = models.BuildDedupeKey(form.Policy, response.ResponderEmail, response.ResponderStudentID)
	return response
}

func (s *submissionService) publishSubmitted(ctx context.Context, form *models.Form, response *models.Response) {
	if s.publisher == nil {
		return
	}

	event := events.NewEvent(events.EventResponseSubmitted, &events.ResponseSubmittedEvent{
		ResponseID:  response.ID,
		FormID:      form.ID,
		FormTitle:   form.Title,
		FormType:    string(form.Type),
		SubmittedAt: response.SubmittedAt,
		Score:       response.Score,
		MaxScore:    response.MaxScore,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish response event",
			"form_id", form.ID, "response_id", response.ID, "error", err)
	}
}

// ===== OWNER RESPONSE MANAGEMENT =====

func (s *submissionService) ListResponses(ctx context.Context, formID uint, ownerID string, filters repositories.ResponseFilters) ([]*models.Response, int64, error) {
	if err := s.checkOwnership(ctx, formID, ownerID, "list responses"); err != nil {
		return nil, 0, err
	}

	if filters.Limit <= 0 || filters.Limit > 200 {
		filters.Limit = 50
	}

	responses, total, err := s.repo.Response().ListByForm(ctx, formID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list responses: %w", err)
	}
	return responses, total, nil
}

func (s *submissionService) GetResponse(ctx context.Context, formID, responseID uint, ownerID string) (*models.Response, error) {
	if err := s.checkOwnership(ctx, formID, ownerID, "read response"); err != nil {
		return nil, err
	}

	response, err := s.repo.Response().GetByID(ctx, responseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResponseNotFound
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}
	if response.FormID != formID {
		return nil, ErrResponseNotFound
	}
	return response, nil
}

func (s *submissionService) DeleteResponse(ctx context.Context, formID, responseID uint, ownerID string) error {
	// Reuse GetResponse for the ownership and form-membership checks.
	if _, err := s.GetResponse(ctx, formID, responseID, ownerID); err != nil {
		return err
	}

	if err := s.repo.Response().Delete(ctx, responseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrResponseNotFound
		}
		return fmt.Errorf("failed to delete response: %w", err)
	}

	s.logger.Info("Deleted response",
		"form_id", formID, "response_id", responseID, "owner_id", ownerID)

	if s.publisher != nil {
		event := events.NewEvent(events.EventResponseDeleted, &events.ResponseDeletedEvent{
			ResponseID: responseID,
			FormID:     formID,
			DeletedBy:  ownerID,
		})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("Failed to publish response event",
				"response_id", responseID, "error", err)
		}
	}
	return nil
}

func (s *submissionService) DeleteAllResponses(ctx context.Context, formID uint, ownerID string) error {
	if err := s.checkOwnership(ctx, formID, ownerID, "delete responses"); err != nil {
		return err
	}

	if err := s.repo.Response().DeleteByForm(ctx, formID); err != nil {
		return fmt.Errorf("failed to delete responses: %w", err)
	}

	s.logger.Info("Deleted all responses", "form_id", formID, "owner_id", ownerID)
	return nil
}

func (s *submissionService) checkOwnership(ctx context.Context, formID uint, ownerID, action string) error {
	isOwner, err := s.repo.Form().IsOwner(ctx, formID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to check form ownership: %w", err)
	}
	if !isOwner {
		// Distinguish missing forms from foreign ones.
		if _, err := s.repo.Form().GetByID(ctx, formID); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrFormNotFound
			}
			return fmt.Errorf("failed to load form: %w", err)
		}
		permErr := NewPermissionError(ownerID, formID, "form", action, "not the owner")
		s.opLog.LogPermissionDenied(ctx, action, permErr)
		return permErr
	}
	return nil
}
