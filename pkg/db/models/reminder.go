package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huellitas/huellitas-backend/pkg/enums"
)

// Reminder is an upcoming carnet due date surfaced to the pet's guardian.
type Reminder struct {
	ID         uuid.UUID        `gorm:"column:id;type:text;primaryKey" json:"id"`
	UserID     uuid.UUID        `gorm:"column:user_id;type:text;not null" json:"user_id"`
	PetID      uuid.UUID        `gorm:"column:pet_id;type:text;not null" json:"pet_id"`
	SourceKind enums.CarnetKind `gorm:"column:source_kind;type:text;not null" json:"source_kind"`
	SourceID   uuid.UUID        `gorm:"column:source_id;type:text;not null" json:"source_id"`
	Title      string           `gorm:"column:title;not null" json:"title"`
	Message    string           `gorm:"column:message;not null" json:"message"`
	DueDate    string           `gorm:"column:due_date;type:text;not null" json:"due_date"`
	IsRead     bool             `gorm:"column:is_read;not null" json:"read"`
	ReadAt     *time.Time       `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Reminder) TableName() string { return "carnet_reminders" }

func (r *Reminder) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
