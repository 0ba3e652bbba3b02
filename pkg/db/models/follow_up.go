package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/huellitas/huellitas-backend/pkg/db/types"
	"github.com/huellitas/huellitas-backend/pkg/enums"
)

// FollowUp is an adopter's post-adoption report, reviewed by the foundation.
type FollowUp struct {
	ID                  uuid.UUID            `gorm:"column:id;type:text;primaryKey" json:"id"`
	AdoptionRequestID   uuid.UUID            `gorm:"column:adoption_request_id;type:text;not null" json:"adoption_request_id"`
	PetID               uuid.UUID            `gorm:"column:pet_id;type:text;not null" json:"pet_id"`
	UserID              uuid.UUID            `gorm:"column:user_id;type:text;not null" json:"user_id"`
	FoundationID        uuid.UUID            `gorm:"column:foundation_id;type:text;not null" json:"foundation_id"`
	HealthStatus        enums.HealthStatus   `gorm:"column:health_status;type:text;not null" json:"health_status"`
	BehaviorStatus      enums.BehaviorStatus `gorm:"column:behavior_status;type:text;not null" json:"behavior_status"`
	EatingHabits        *string              `gorm:"column:eating_habits" json:"eating_habits,omitempty"`
	LivingConditions    *string              `gorm:"column:living_conditions" json:"living_conditions,omitempty"`
	Concerns            *string              `gorm:"column:concerns" json:"concerns,omitempty"`
	AdditionalNotes     *string              `gorm:"column:additional_notes" json:"additional_notes,omitempty"`
	Photos              dbtypes.StringList   `gorm:"column:photos;type:text;not null" json:"photos"`
	OverallSatisfaction int                  `gorm:"column:overall_satisfaction;not null" json:"overall_satisfaction"`
	Reviewed            bool                 `gorm:"column:reviewed;not null" json:"reviewed"`
	FoundationFeedback  *string              `gorm:"column:foundation_feedback" json:"foundation_feedback,omitempty"`
	ReviewedAt          *time.Time           `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt           time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (f *FollowUp) BeforeCreate(*gorm.DB) error {
	ensureID(&f.ID)
	return nil
}
