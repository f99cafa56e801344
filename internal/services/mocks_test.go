package services

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/formlab/forms-service/internal/models"
	"github.com/formlab/forms-service/internal/repositories"
	"github.com/stretchr/testify/mock"
)

// MockFormRepository is a mock implementation of FormRepository
type MockFormRepository struct {
	mock.Mock
}

func (m *MockFormRepository) Create(ctx context.Context, form *models.Form) error {
	args := m.Called(ctx, form)
	return args.Error(0)
}

func (m *MockFormRepository) GetByID(ctx context.Context, id uint) (*models.Form, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Form), args.Error(1)
}

func (m *MockFormRepository) GetBySlug(ctx context.Context, slug string) (*models.Form, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Form), args.Error(1)
}

func (m *MockFormRepository) Update(ctx context.Context, form *models.Form) error {
	args := m.Called(ctx, form)
	return args.Error(0)
}

func (m *MockFormRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFormRepository) List(ctx context.Context, ownerID string, filters repositories.FormFilters) ([]*models.Form, int64, error) {
	args := m.Called(ctx, ownerID, filters)
	return args.Get(0).([]*models.Form), args.Get(1).(int64), args.Error(2)
}

func (m *MockFormRepository) UpdateStatus(ctx context.Context, id uint, status models.FormStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockFormRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *MockFormRepository) IsOwner(ctx context.Context, id uint, ownerID string) (bool, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFormRepository) GetOwnerStats(ctx context.Context, ownerID string) (*repositories.OwnerStats, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.OwnerStats), args.Error(1)
}

// MockResponseRepository is a mock implementation of ResponseRepository
type MockResponseRepository struct {
	mock.Mock
}

func (m *MockResponseRepository) Create(ctx context.Context, response *models.Response) error {
	args := m.Called(ctx, response)
	return args.Error(0)
}

func (m *MockResponseRepository) GetByID(ctx context.Context, id uint) (*models.Response, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Response), args.Error(1)
}

func (m *MockResponseRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockResponseRepository) DeleteByForm(ctx context.Context, formID uint) error {
	args := m.Called(ctx, formID)
	return args.Error(0)
}

func (m *MockResponseRepository) ListByForm(ctx context.Context, formID uint, filters repositories.ResponseFilters) ([]*models.Response, int64, error) {
	args := m.Called(ctx, formID, filters)
	return args.Get(0).([]*models.Response), args.Get(1).(int64), args.Error(2)
}

func (m *MockResponseRepository) Sample(ctx context.Context, formID uint, limit int) ([]*models.Response, error) {
	args := m.Called(ctx, formID, limit)
	return args.Get(0).([]*models.Response), args.Error(1)
}

func (m *MockResponseRepository) ExistsByDedupeKey(ctx context.Context, formID uint, dedupeKey string) (bool, error) {
	args := m.Called(ctx, formID, dedupeKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockResponseRepository) CountByForm(ctx context.Context, formID uint) (int64, error) {
	args := m.Called(ctx, formID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockResponseRepository) CountsByDay(ctx context.Context, formID uint, since time.Time) ([]repositories.DailyCount, error) {
	args := m.Called(ctx, formID, since)
	return args.Get(0).([]repositories.DailyCount), args.Error(1)
}

// MockRepository aggregates the mocks behind the Repository interface
type MockRepository struct {
	forms     *MockFormRepository
	responses *MockResponseRepository
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		forms:     new(MockFormRepository),
		responses: new(MockResponseRepository),
	}
}

func (m *MockRepository) Form() repositories.FormRepository {
	return m.forms
}

func (m *MockRepository) Response() repositories.ResponseRepository {
	return m.responses
}

func (m *MockRepository) WithTx(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *MockRepository) assertExpectations(t *testing.T) {
	m.forms.AssertExpectations(t)
	m.responses.AssertExpectations(t)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
