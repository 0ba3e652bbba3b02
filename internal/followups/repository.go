package followups

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

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.FollowUp, error) {
	var f models.FollowUp
	if err := r.db.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *Repository) FindAdoption(ctx context.Context, id uuid.UUID) (*models.AdoptionRequest, error) {
	var req models.AdoptionRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *Repository) Create(ctx context.Context, f *models.FollowUp) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *Repository) Save(ctx context.Context, f *models.FollowUp) error {
	return r.db.WithContext(ctx).Save(f).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.FollowUp{}, "id = ?", id).Error
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.FollowUp, error) {
	return r.list(r.db.WithContext(ctx).Where("user_id = ?", userID))
}

func (r *Repository) ListByFoundation(ctx context.Context, foundationID uuid.UUID, reviewed *bool) ([]models.FollowUp, error) {
	q := r.db.WithContext(ctx).Where("foundation_id = ?", foundationID)
	if reviewed != nil {
		q = q.Where("reviewed = ?", *reviewed)
	}
	return r.list(q)
}

func (r *Repository) ListByAdoption(ctx context.Context, adoptionID uuid.UUID) ([]models.FollowUp, error) {
	return r.list(r.db.WithContext(ctx).Where("adoption_request_id = ?", adoptionID))
}

func (r *Repository) list(q *gorm.DB) ([]models.FollowUp, error) {
	var rows []models.FollowUp
	if err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
