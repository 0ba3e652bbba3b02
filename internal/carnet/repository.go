package carnet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huellitas/huellitas-backend/pkg/db/models"
	"github.com/huellitas/huellitas-backend/pkg/enums"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindPet(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	var pet models.Pet
	if err := r.db.WithContext(ctx).First(&pet, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pet, nil
}

// IsApprovedAdopter reports whether userID holds the approved request for petID.
func (r *Repository) IsApprovedAdopter(ctx context.Context, petID, userID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.AdoptionRequest{}).
		Where("pet_id = ? AND user_id = ? AND status = ?", petID, userID, enums.AdoptionStatusApproved).
		Count(&n).Error
	return n > 0, err
}

func (r *Repository) Load(ctx context.Context, petID uuid.UUID) (*Carnet, error) {
	c := &Carnet{PetID: petID}
	db := r.db.WithContext(ctx)
	if err := db.Where("pet_id = ?", petID).Order("applied_on DESC").Order("created_at DESC").Find(&c.Vaccines).Error; err != nil {
		return nil, fmt.Errorf("load vaccines: %w", err)
	}
	if err := db.Where("pet_id = ?", petID).Order("applied_on DESC").Order("created_at DESC").Find(&c.Dewormings).Error; err != nil {
		return nil, fmt.Errorf("load dewormings: %w", err)
	}
	if err := db.Where("pet_id = ?", petID).Order("bathed_on DESC").Order("created_at DESC").Find(&c.Baths).Error; err != nil {
		return nil, fmt.Errorf("load baths: %w", err)
	}
	if err := db.Where("pet_id = ?", petID).Order("performed_on DESC").Order("created_at DESC").Find(&c.Procedures).Error; err != nil {
		return nil, fmt.Errorf("load procedures: %w", err)
	}
	if err := db.Where("pet_id = ?", petID).Order("start_on DESC").Order("created_at DESC").Find(&c.Medications).Error; err != nil {
		return nil, fmt.Errorf("load medications: %w", err)
	}
	return c, nil
}

func (r *Repository) Create(ctx context.Context, entry any) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// DeleteEntry removes one entry of kind belonging to petID and returns the
// number of rows removed.
func (r *Repository) DeleteEntry(ctx context.Context, kind enums.CarnetKind, petID, entryID uuid.UUID) (int64, error) {
	model, err := modelFor(kind)
	if err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).Where("id = ? AND pet_id = ?", entryID, petID).Delete(model)
	return res.RowsAffected, res.Error
}

func modelFor(kind enums.CarnetKind) (any, error) {
	switch kind {
	case enums.CarnetKindVaccine:
		return &models.CarnetVaccine{}, nil
	case enums.CarnetKindDeworming:
		return &models.CarnetDeworming{}, nil
	case enums.CarnetKindBath:
		return &models.CarnetBath{}, nil
	case enums.CarnetKindProcedure:
		return &models.CarnetProcedure{}, nil
	case enums.CarnetKindMedication:
		return &models.CarnetMedication{}, nil
	default:
		return nil, fmt.Errorf("unknown carnet kind %q", kind)
	}
}
