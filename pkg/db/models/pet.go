package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huellitas/huellitas-backend/pkg/enums"
)

// Pet is a listing owned by a foundation.
type Pet struct {
	ID           uuid.UUID     `gorm:"column:id;type:text;primaryKey" json:"id"`
	FoundationID uuid.UUID     `gorm:"column:foundation_id;type:text;not null" json:"foundation_id"`
	Name         string        `gorm:"column:name;not null" json:"name"`
	Type         enums.PetType `gorm:"column:type;type:text;not null" json:"type"`
	Breed        *string       `gorm:"column:breed" json:"breed,omitempty"`
	Age          *string       `gorm:"column:age" json:"age,omitempty"`
	Size         enums.PetSize `gorm:"column:size;type:text;not null" json:"size"`
	Sex          enums.PetSex  `gorm:"column:sex;type:text;not null" json:"sex"`
	Description  *string       `gorm:"column:description" json:"description,omitempty"`
	Img          *string       `gorm:"column:img" json:"img,omitempty"`
	Available    bool          `gorm:"column:available;not null" json:"available"`
	CreatedAt    time.Time     `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (p *Pet) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
