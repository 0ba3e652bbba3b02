package adoptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huellitas/huellitas-backend/pkg/db/models"
	"github.com/huellitas/huellitas-backend/pkg/enums"
)

// Repository persists adoption requests and the pet availability flag they drive.
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

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.AdoptionRequest, error) {
	var req models.AdoptionRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *Repository) FindPet(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	var pet models.Pet
	if err := r.db.WithContext(ctx).First(&pet, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pet, nil
}

// FindPets loads the pets referenced by a page of requests.
func (r *Repository) FindPets(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Pet, error) {
	out := make(map[uuid.UUID]models.Pet, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Pet
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, pet := range rows {
		out[pet.ID] = pet
	}
	return out, nil
}

// HasOpenRequest reports whether userID already has a pending or contacted
// request for petID.
func (r *Repository) HasOpenRequest(ctx context.Context, petID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AdoptionRequest{}).
		Where("pet_id = ? AND user_id = ? AND status IN ?", petID, userID,
			[]enums.AdoptionStatus{enums.AdoptionStatusPending, enums.AdoptionStatusContacted}).
		Count(&count).Error
	return count > 0, err
}

// HasApprovedRequest reports whether a request other than exceptID was
// already approved for petID.
func (r *Repository) HasApprovedRequest(ctx context.Context, petID, exceptID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AdoptionRequest{}).
		Where("pet_id = ? AND id <> ? AND status = ?", petID, exceptID, enums.AdoptionStatusApproved).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) Create(ctx context.Context, req *models.AdoptionRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *Repository) UpdateStatus(ctx context.Context, req *models.AdoptionRequest) error {
	return r.db.WithContext(ctx).
		Model(req).
		Select("status", "notes", "updated_at").
		Updates(map[string]any{
			"status":     req.Status,
			"notes":      req.Notes,
			"updated_at": req.UpdatedAt,
		}).Error
}

// MarkPetUnavailable flips available to false only if it is still true, so two
// concurrent approvals cannot both succeed. It reports whether the row changed.
func (r *Repository) MarkPetUnavailable(ctx context.Context, petID uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Pet{}).
		Where("id = ? AND available = ?", petID, true).
		UpdateColumns(map[string]any{"available": false, "updated_at": now})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *Repository) ListByFoundation(ctx context.Context, foundationID uuid.UUID, status *enums.AdoptionStatus) ([]models.AdoptionRequest, error) {
	q := r.db.WithContext(ctx).Where("foundation_id = ?", foundationID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var rows []models.AdoptionRequest
	if err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.AdoptionRequest, error) {
	var rows []models.AdoptionRequest
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

type statusCount struct {
	Status enums.AdoptionStatus
	Total  int64
}

func (r *Repository) CountByStatus(ctx context.Context, foundationID uuid.UUID) ([]statusCount, error) {
	var rows []statusCount
	err := r.db.WithContext(ctx).
		Model(&models.AdoptionRequest{}).
		Select("status, COUNT(*) AS total").
		Where("foundation_id = ?", foundationID).
		Group("status").
		Scan(&rows).Error
	return rows, err
}
