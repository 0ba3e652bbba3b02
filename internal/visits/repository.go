package visits

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huellitas/huellitas-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Visit, error) {
	var visit models.Visit
	if err := r.db.WithContext(ctx).First(&visit, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &visit, nil
}

func (r *Repository) FindAdoption(ctx context.Context, id uuid.UUID) (*models.AdoptionRequest, error) {
	var req models.AdoptionRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *Repository) Create(ctx context.Context, visit *models.Visit) error {
	return r.db.WithContext(ctx).Create(visit).Error
}

// Save writes every column, including suggestion fields cleared to NULL.
func (r *Repository) Save(ctx context.Context, visit *models.Visit) error {
	return r.db.WithContext(ctx).Save(visit).Error
}

func (r *Repository) ListByFoundation(ctx context.Context, foundationID uuid.UUID) ([]models.Visit, error) {
	return r.list(ctx, "foundation_id = ?", foundationID)
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Visit, error) {
	return r.list(ctx, "user_id = ?", userID)
}

func (r *Repository) list(ctx context.Context, where string, id uuid.UUID) ([]models.Visit, error) {
	var rows []models.Visit
	if err := r.db.WithContext(ctx).
		Where(where, id).
		Order("scheduled_date ASC").Order("scheduled_time ASC").Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
