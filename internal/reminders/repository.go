package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/huellitas/huellitas-backend/pkg/db/models"
	"github.com/huellitas/huellitas-backend/pkg/enums"
)

// dueEntry is a carnet row whose next date falls inside the reminder window.
type dueEntry struct {
	Kind    enums.CarnetKind `gorm:"-"`
	ID      uuid.UUID
	PetID   uuid.UUID
	Label   string
	DueDate string
}

type petGuardian struct {
	ID           uuid.UUID
	Name         string
	FoundationID uuid.UUID
	AdopterID    *uuid.UUID
}

// Recipient is who a reminder for this pet goes to.
func (p petGuardian) Recipient() uuid.UUID {
	if p.AdopterID != nil {
		return *p.AdopterID
	}
	return p.FoundationID
}

type dueSource struct {
	kind   enums.CarnetKind
	model  any
	label  string
	column string
}

var dueSources = []dueSource{
	{enums.CarnetKindVaccine, &models.CarnetVaccine{}, "name", "next_due_on"},
	{enums.CarnetKindDeworming, &models.CarnetDeworming{}, "product", "next_due_on"},
	{enums.CarnetKindBath, &models.CarnetBath{}, "''", "next_due_on"},
	{enums.CarnetKindMedication, &models.CarnetMedication{}, "name", "end_on"},
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Guardians resolves the reminder recipient for each pet. A nil petIDs
// covers every pet.
func (r *Repository) Guardians(ctx context.Context, petIDs []uuid.UUID) (map[uuid.UUID]petGuardian, error) {
	q := r.db.WithContext(ctx).
		Table("pets").
		Select("pets.id AS id, pets.name AS name, pets.foundation_id AS foundation_id, ar.user_id AS adopter_id").
		Joins("LEFT JOIN adoption_requests ar ON ar.pet_id = pets.id AND ar.status = ?", enums.AdoptionStatusApproved)
	if petIDs != nil {
		if len(petIDs) == 0 {
			return map[uuid.UUID]petGuardian{}, nil
		}
		q = q.Where("pets.id IN ?", petIDs)
	}
	var rows []petGuardian
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]petGuardian, len(rows))
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// PetsForUser returns the pets a user could receive reminders for: those
// their foundation lists and those they adopted.
func (r *Repository) PetsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Pet{}).
		Where("foundation_id = ?", userID).
		Or("id IN (?)", r.db.Model(&models.AdoptionRequest{}).
			Select("pet_id").
			Where("user_id = ? AND status = ?", userID, enums.AdoptionStatusApproved)).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// DueEntries lists carnet entries with a due date in [from, to]. A nil petIDs
// covers every pet.
func (r *Repository) DueEntries(ctx context.Context, from, to string, petIDs []uuid.UUID) ([]dueEntry, error) {
	if petIDs != nil && len(petIDs) == 0 {
		return nil, nil
	}
	var out []dueEntry
	for _, src := range dueSources {
		q := r.db.WithContext(ctx).
			Model(src.model).
			Select(fmt.Sprintf("id, pet_id, %s AS label, %s AS due_date", src.label, src.column)).
			Where(fmt.Sprintf("%s IS NOT NULL AND %s >= ? AND %s <= ?", src.column, src.column, src.column), from, to)
		if petIDs != nil {
			q = q.Where("pet_id IN ?", petIDs)
		}
		var rows []dueEntry
		if err := q.Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("scan %s due dates: %w", src.kind, err)
		}
		for i := range rows {
			rows[i].Kind = src.kind
		}
		out = append(out, rows...)
	}
	return out, nil
}

// Insert stores the reminder unless one already exists for the same source and
// due date. It reports whether a row was written.
func (r *Repository) Insert(ctx context.Context, reminder *models.Reminder) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_kind"}, {Name: "source_id"}, {Name: "due_date"}},
			DoNothing: true,
		}).
		Create(reminder)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, from string) ([]models.Reminder, error) {
	var rows []models.Reminder
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND due_date >= ?", userID, from).
		Order("due_date ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Reminder, error) {
	var row models.Reminder
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) MarkRead(ctx context.Context, id uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Reminder{}).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]any{"is_read": true, "read_at": now}).Error
}
