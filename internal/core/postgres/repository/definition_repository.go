package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jobforge/internal/core/ports"
	"jobforge/internal/domain"
)

type definitionRepository struct {
	db *gorm.DB
}

// NewDefinitionRepository creates a gorm-backed DefinitionRepository.
func NewDefinitionRepository(db *gorm.DB) ports.DefinitionRepository {
	return &definitionRepository{db: db}
}

func (r *definitionRepository) Create(ctx context.Context, def *domain.Definition) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(def).Error
	})
}

func (r *definitionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Definition, error) {
	var def domain.Definition
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&def).Error
	if err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *definitionRepository) List(ctx context.Context) ([]domain.Definition, error) {
	var defs []domain.Definition
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&defs).Error
	return defs, err
}

// UpdateStatus applies a guarded transition. Terminal states (SUBMITTED,
// REJECTED) are never overwritten: if two submitter goroutines race on the
// same definition, only the first outcome sticks and the second update is
// a no-op.
func (r *definitionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.DefinitionStatus) error {
	return r.db.WithContext(ctx).
		Model(&domain.Definition{}).
		Where("id = ? AND status != ? AND status NOT IN ('SUBMITTED', 'REJECTED')", id, status).
		Update("status", status).Error
}

func (r *definitionRepository) MarkSubmitted(ctx context.Context, id uuid.UUID, jobID int64) error {
	return r.db.WithContext(ctx).
		Model(&domain.Definition{}).
		Where("id = ? AND status NOT IN ('SUBMITTED', 'REJECTED')", id).
		Updates(map[string]interface{}{
			"status":     domain.StatusSubmitted,
			"job_id":     jobID,
			"last_error": "",
		}).Error
}

func (r *definitionRepository) MarkRejected(ctx context.Context, id uuid.UUID, errMessage string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Definition{}).
		Where("id = ? AND status NOT IN ('SUBMITTED', 'REJECTED')", id).
		Updates(map[string]interface{}{
			"status":     domain.StatusRejected,
			"last_error": errMessage,
		}).Error
}

func (r *definitionRepository) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&domain.Definition{}).
		Where("id = ?", id).
		Update("attempts", gorm.Expr("attempts + 1")).Error
}
