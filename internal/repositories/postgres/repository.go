package postgres

import (
	"context"

	"github.com/formlab/forms-service/internal/repositories"
	"gorm.io/gorm"
)

type Repository struct {
	db        *gorm.DB
	forms     repositories.FormRepository
	responses repositories.ResponseRepository
}

// NewRepository builds the aggregate repository on top of a gorm handle.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &Repository{
		db:        db,
		forms:     NewFormPostgreSQL(db),
		responses: NewResponsePostgreSQL(db),
	}
}

func (r *Repository) Form() repositories.FormRepository {
	return r.forms
}

func (r *Repository) Response() repositories.ResponseRepository {
	return r.responses
}

// WithTx runs fn against a repository bound to one database transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
