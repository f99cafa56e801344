package services

import (
	"context"
	"regexp"
	"testing"

	"github.com/formlab/forms-service/internal/events"
	"github.com/formlab/forms-service/internal/models"
	"github.com/formlab/forms-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newFormService(repo *MockRepository) (FormService, *events.MockEventPublisher) {
	logger := testLogger()
	publisher := events.NewMockEventPublisher(logger)
	svc := NewFormService(repo, logger, validator.New(), nil, publisher)
	return svc, publisher
}

func createRequest() *CreateFormRequest {
	return &CreateFormRequest{
		Title: "Course Feedback",
		Type:  models.FormTypeSurvey,
		Fields: []models.Field{
			{ID: "q1", Label: "Comments", Kind: models.FieldLongText},
		},
	}
}

func TestCreate_DerivesSlugFromTitle(t *testing.T) {
	repo := newMockRepository()
	repo.forms.On("ExistsBySlug", mock.Anything, "course-feedback").Return(false, nil)
	repo.forms.On("Create", mock.Anything, mock.AnythingOfType("*models.Form")).Return(nil)

	svc, _ := newFormService(repo)

	form, err := svc.Create(context.Background(), createRequest(), "owner-1")

	require.NoError(t, err)
	assert.Equal(t, "course-feedback", form.Slug)
	assert.Equal(t, models.StatusDraft, form.Status)
	assert.Equal(t, "owner-1", form.OwnerID)
	repo.assertExpectations(t)
}

func TestCreate_SlugCollisionGrowsSuffix(t *testing.T) {
	repo := newMockRepository()
	repo.forms.On("ExistsBySlug", mock.Anything, "course-feedback").Return(true, nil).Once()
	repo.forms.On("ExistsBySlug", mock.Anything, mock.MatchedBy(func(slug string) bool {
		return regexp.MustCompile(`^course-feedback-[a-z0-9]{4}$`).MatchString(slug)
	})).Return(false, nil).Once()
	repo.forms.On("Create", mock.Anything, mock.AnythingOfType("*models.Form")).Return(nil)

	svc, _ := newFormService(repo)

	form, err := svc.Create(context.Background(), createRequest(), "owner-1")

	require.NoError(t, err)
	assert.Regexp(t, `^course-feedback-[a-z0-9]{4}$`, form.Slug)
	repo.assertExpectations(t)
}

func TestCreate_CustomSlugConflict(t *testing.T) {
	repo := newMockRepository()
	repo.forms.On("Create", mock.Anything, mock.AnythingOfType("*models.Form")).
		Return(gorm.ErrDuplicatedKey)

	svc, _ := newFormService(repo)

	req := createRequest()
	req.Slug = "taken-slug"
	_, err := svc.Create(context.Background(), req, "owner-1")

	assert.ErrorIs(t, err, ErrSlugTaken)
	assert.True(t, IsConflict(err))
}

func TestCreate_InvalidDefinition(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newFormService(repo)

	req := createRequest()
	req.Fields = []models.Field{
		{ID: "q1", Label: "A", Kind: models.FieldShortText},
		{ID: "q1", Label: "B", Kind: models.FieldShortText},
	}

	_, err := svc.Create(context.Background(), req, "owner-1")

	require.Error(t, err)
	assert.True(t, IsValidation(err))
	repo.forms.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdate_ArchivedFormRejected(t *testing.T) {
	repo := newMockRepository()
	repo.forms.On("GetByID", mock.Anything, uint(5)).Return(&models.Form{
		ID: 5, OwnerID: "owner-1", Title: "Old", Type: models.FormTypeGeneral,
		Status: models.StatusArchived,
	}, nil)

	svc, _ := newFormService(repo)

	title := "New Title"
	_, err := svc.Update(context.Background(), 5, &UpdateFormRequest{Title: &title}, "owner-1")

	assert.ErrorIs(t, err, ErrFormNotEditable)
	repo.forms.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateStatus_PublishEmitsEvent(t *testing.T) {
	repo := newMockRepository()
	repo.forms.On("GetByID", mock.Anything, uint(5)).Return(&models.Form{
		ID: 5, OwnerID: "owner-1", Title: "Poll", Type: models.FormTypeSurvey,
		Slug: "poll", Status: models.StatusDraft,
	}, nil)
	repo.forms.On("UpdateStatus", mock.Anything, uint(5), models.StatusPublished).Return(nil)

	svc, publisher := newFormService(repo)

	form, err := svc.UpdateStatus(context.Background(), 5, models.StatusPublished, "owner-1")

	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, form.Status)
	require.Len(t, publisher.Events, 1)
	assert.Equal(t, events.EventFormPublished, publisher.Events[0].Type)
}

func TestUpdateStatus_ArchivedIsTerminal(t *testing.T) {
	repo := newMockRepository()
	repo.forms.On("GetByID", mock.Anything, uint(5)).Return(&models.Form{
		ID: 5, OwnerID: "owner-1", Status: models.StatusArchived,
	}, nil)

	svc, _ := newFormService(repo)

	_, err := svc.UpdateStatus(context.Background(), 5, models.StatusPublished, "owner-1")

	assert.ErrorIs(t, err, ErrFormInvalidStatus)
	repo.forms.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestDelete_LiveFormIsArchivedInstead(t *testing.T) {
	repo := newMockRepository()
	repo.forms.On("GetByID", mock.Anything, uint(5)).Return(&models.Form{
		ID: 5, OwnerID: "owner-1", Status: models.StatusPublished, Slug: "poll",
	}, nil)
	repo.forms.On("UpdateStatus", mock.Anything, uint(5), models.StatusArchived).Return(nil)

	svc, _ := newFormService(repo)

	err := svc.Delete(context.Background(), 5, "owner-1")

	require.NoError(t, err)
	repo.forms.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	repo.assertExpectations(t)
}

func TestDelete_ArchivedFormIsRemoved(t *testing.T) {
	repo := newMockRepository()
	repo.forms.On("GetByID", mock.Anything, uint(5)).Return(&models.Form{
		ID: 5, OwnerID: "owner-1", Status: models.StatusArchived, Slug: "poll",
	}, nil)
	repo.forms.On("Delete", mock.Anything, uint(5)).Return(nil)

	svc, publisher := newFormService(repo)

	err := svc.Delete(context.Background(), 5, "owner-1")

	require.NoError(t, err)
	require.Len(t, publisher.Events, 1)
	assert.Equal(t, events.EventFormDeleted, publisher.Events[0].Type)
	repo.assertExpectations(t)
}

func TestGetByID_NotOwner(t *testing.T) {
	repo := newMockRepository()
	repo.forms.On("GetByID", mock.Anything, uint(5)).Return(&models.Form{
		ID: 5, OwnerID: "owner-1",
	}, nil)

	svc, _ := newFormService(repo)

	_, err := svc.GetByID(context.Background(), 5, "intruder")

	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
}

func TestGetPublic_StripsInternalsAndAnswerKey(t *testing.T) {
	repo := newMockRepository()
	repo.forms.On("GetBySlug", mock.Anything, "go-basics").Return(&models.Form{
		ID: 7, OwnerID: "owner-1", Title: "Go Basics", Type: models.FormTypeQuiz,
		Slug: "go-basics", Status: models.StatusPublished,
		Fields: []models.Field{
			{
				ID: "q1", Label: "Pick one", Kind: models.FieldRadio,
				Options: []string{"a", "b"},
				Quiz:    &models.QuizMeta{CorrectOptions: []int{1}, Points: 2},
			},
			{
				ID: "note", Label: "Grader note", Kind: models.FieldLongText,
				Visibility: models.VisibilityInternal,
			},
		},
	}, nil)

	svc, _ := newFormService(repo)

	public, err := svc.GetPublic(context.Background(), "go-basics")

	require.NoError(t, err)
	require.Len(t, public.Fields, 1)
	assert.Equal(t, "q1", public.Fields[0].ID)
	assert.Nil(t, public.Fields[0].Quiz)
}

func TestGetPublic_UnpublishedLooksMissing(t *testing.T) {
	repo := newMockRepository()
	repo.forms.On("GetBySlug", mock.Anything, "draft-form").Return(&models.Form{
		ID: 8, Slug: "draft-form", Status: models.StatusDraft,
	}, nil)

	svc, _ := newFormService(repo)

	_, err := svc.GetPublic(context.Background(), "draft-form")

	assert.ErrorIs(t, err, ErrFormNotFound)
}
