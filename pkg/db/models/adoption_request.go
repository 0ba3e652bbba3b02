package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huellitas/huellitas-backend/pkg/enums"
)

// AdoptionRequest is an adopter's application for a pet.
type AdoptionRequest struct {
	ID           uuid.UUID            `gorm:"column:id;type:text;primaryKey" json:"id"`
	PetID        uuid.UUID            `gorm:"column:pet_id;type:text;not null" json:"pet_id"`
	UserID       uuid.UUID            `gorm:"column:user_id;type:text;not null" json:"user_id"`
	FoundationID uuid.UUID            `gorm:"column:foundation_id;type:text;not null" json:"foundation_id"`
	FullName     string               `gorm:"column:full_name;not null" json:"full_name"`
	Email        string               `gorm:"column:email;not null" json:"email"`
	Phone        string               `gorm:"column:phone;not null" json:"phone"`
	Address      string               `gorm:"column:address;not null" json:"address"`
	HousingType  enums.HousingType    `gorm:"column:housing_type;type:text;not null" json:"housing_type"`
	HasOtherPets bool                 `gorm:"column:has_other_pets;not null" json:"has_other_pets"`
	Motivation   string               `gorm:"column:motivation;not null" json:"motivation"`
	Status       enums.AdoptionStatus `gorm:"column:status;type:text;not null" json:"status"`
	Notes        *string              `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (a *AdoptionRequest) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
