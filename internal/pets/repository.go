package pets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huellitas/huellitas-backend/pkg/db/models"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	"github.com/huellitas/huellitas-backend/pkg/pagination"
)

// Repository persists pet listings.
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

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	var pet models.Pet
	if err := r.db.WithContext(ctx).First(&pet, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pet, nil
}

func (r *Repository) Create(ctx context.Context, pet *models.Pet) error {
	return r.db.WithContext(ctx).Create(pet).Error
}

func (r *Repository) Save(ctx context.Context, pet *models.Pet) error {
	return r.db.WithContext(ctx).Save(pet).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Pet{}, "id = ?", id).Error
}

// CountAdoptionRequests counts requests referencing the pet, restricted to
// statuses when any are given.
func (r *Repository) CountAdoptionRequests(ctx context.Context, petID uuid.UUID, statuses ...enums.AdoptionStatus) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&models.AdoptionRequest{}).
		Where("pet_id = ?", petID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

// ListFilters narrows the public catalog. Nil fields are ignored.
type ListFilters struct {
	Type         *enums.PetType
	Size         *enums.PetSize
	Sex          *enums.PetSex
	Available    *bool
	FoundationID *uuid.UUID
}

// List returns up to limit+1 pets, newest first.
func (r *Repository) List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Pet, error) {
	q := r.db.WithContext(ctx).Model(&models.Pet{})
	if filters.Type != nil {
		q = q.Where("type = ?", *filters.Type)
	}
	if filters.Size != nil {
		q = q.Where("size = ?", *filters.Size)
	}
	if filters.Sex != nil {
		q = q.Where("sex = ?", *filters.Sex)
	}
	if filters.Available != nil {
		q = q.Where("available = ?", *filters.Available)
	}
	if filters.FoundationID != nil {
		q = q.Where("foundation_id = ?", *filters.FoundationID)
	}

	var rows []models.Pet
	if err := pagination.Apply(q, "", cursor, limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
