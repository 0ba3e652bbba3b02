package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huellitas/huellitas-backend/pkg/enums"
)

// CarnetVaccine records an applied vaccine and its booster date.
type CarnetVaccine struct {
	ID           uuid.UUID `gorm:"column:id;type:text;primaryKey" json:"id"`
	PetID        uuid.UUID `gorm:"column:pet_id;type:text;not null" json:"pet_id"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	AppliedOn    string    `gorm:"column:applied_on;type:text;not null" json:"applied_on"`
	NextDueOn    *string   `gorm:"column:next_due_on" json:"next_due_on,omitempty"`
	Veterinarian *string   `gorm:"column:veterinarian" json:"veterinarian,omitempty"`
	BatchNumber  *string   `gorm:"column:batch_number" json:"batch_number,omitempty"`
	Notes        *string   `gorm:"column:notes" json:"notes,omitempty"`
	CreatedBy    uuid.UUID `gorm:"column:created_by;type:text;not null" json:"created_by"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (CarnetVaccine) TableName() string { return "carnet_vaccines" }

func (c *CarnetVaccine) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// CarnetDeworming records an internal or external antiparasitic treatment.
type CarnetDeworming struct {
	ID        uuid.UUID           `gorm:"column:id;type:text;primaryKey" json:"id"`
	PetID     uuid.UUID           `gorm:"column:pet_id;type:text;not null" json:"pet_id"`
	Product   string              `gorm:"column:product;not null" json:"product"`
	Kind      enums.DewormingKind `gorm:"column:kind;type:text;not null" json:"kind"`
	AppliedOn string              `gorm:"column:applied_on;type:text;not null" json:"applied_on"`
	NextDueOn *string             `gorm:"column:next_due_on" json:"next_due_on,omitempty"`
	Notes     *string             `gorm:"column:notes" json:"notes,omitempty"`
	CreatedBy uuid.UUID           `gorm:"column:created_by;type:text;not null" json:"created_by"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (CarnetDeworming) TableName() string { return "carnet_dewormings" }

func (c *CarnetDeworming) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

type CarnetBath struct {
	ID        uuid.UUID `gorm:"column:id;type:text;primaryKey" json:"id"`
	PetID     uuid.UUID `gorm:"column:pet_id;type:text;not null" json:"pet_id"`
	BathedOn  string    `gorm:"column:bathed_on;type:text;not null" json:"bathed_on"`
	NextDueOn *string   `gorm:"column:next_due_on" json:"next_due_on,omitempty"`
	Products  *string   `gorm:"column:products" json:"products,omitempty"`
	Notes     *string   `gorm:"column:notes" json:"notes,omitempty"`
	CreatedBy uuid.UUID `gorm:"column:created_by;type:text;not null" json:"created_by"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (CarnetBath) TableName() string { return "carnet_baths" }

func (c *CarnetBath) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// CarnetProcedure records surgeries, sterilizations and similar one-off events.
type CarnetProcedure struct {
	ID           uuid.UUID `gorm:"column:id;type:text;primaryKey" json:"id"`
	PetID        uuid.UUID `gorm:"column:pet_id;type:text;not null" json:"pet_id"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	PerformedOn  string    `gorm:"column:performed_on;type:text;not null" json:"performed_on"`
	Veterinarian *string   `gorm:"column:veterinarian" json:"veterinarian,omitempty"`
	Notes        *string   `gorm:"column:notes" json:"notes,omitempty"`
	CreatedBy    uuid.UUID `gorm:"column:created_by;type:text;not null" json:"created_by"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (CarnetProcedure) TableName() string { return "carnet_procedures" }

func (c *CarnetProcedure) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// CarnetMedication records a course of treatment; EndOn drives its reminder.
type CarnetMedication struct {
	ID        uuid.UUID `gorm:"column:id;type:text;primaryKey" json:"id"`
	PetID     uuid.UUID `gorm:"column:pet_id;type:text;not null" json:"pet_id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Dosage    string    `gorm:"column:dosage;not null" json:"dosage"`
	Frequency string    `gorm:"column:frequency;not null" json:"frequency"`
	StartOn   string    `gorm:"column:start_on;type:text;not null" json:"start_on"`
	EndOn     *string   `gorm:"column:end_on" json:"end_on,omitempty"`
	Notes     *string   `gorm:"column:notes" json:"notes,omitempty"`
	CreatedBy uuid.UUID `gorm:"column:created_by;type:text;not null" json:"created_by"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (CarnetMedication) TableName() string { return "carnet_medications" }

func (c *CarnetMedication) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
