package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huellitas/huellitas-backend/pkg/enums"
)

// Visit is a post-adoption check-in negotiated between foundation and adopter.
// Suggested* fields are only set while Status is pending_reschedule.
type Visit struct {
	ID                uuid.UUID         `gorm:"column:id;type:text;primaryKey" json:"id"`
	AdoptionRequestID uuid.UUID         `gorm:"column:adoption_request_id;type:text;not null" json:"adoption_request_id"`
	PetID             uuid.UUID         `gorm:"column:pet_id;type:text;not null" json:"pet_id"`
	UserID            uuid.UUID         `gorm:"column:user_id;type:text;not null" json:"user_id"`
	FoundationID      uuid.UUID         `gorm:"column:foundation_id;type:text;not null" json:"foundation_id"`
	ScheduledDate     string            `gorm:"column:scheduled_date;type:text;not null" json:"scheduled_date"`
	ScheduledTime     string            `gorm:"column:scheduled_time;type:text;not null" json:"scheduled_time"`
	VisitType         enums.VisitType   `gorm:"column:visit_type;type:text;not null" json:"visit_type"`
	MeetingLink       *string           `gorm:"column:meeting_link" json:"meeting_link,omitempty"`
	Notes             *string           `gorm:"column:notes" json:"notes,omitempty"`
	Status            enums.VisitStatus `gorm:"column:status;type:text;not null" json:"status"`
	SuggestedDate     *string           `gorm:"column:suggested_date" json:"suggested_date"`
	SuggestedTime     *string           `gorm:"column:suggested_time" json:"suggested_time"`
	RescheduleReason  *string           `gorm:"column:reschedule_reason" json:"reschedule_reason"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (v *Visit) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

// ClearSuggestion drops any pending adopter proposal.
func (v *Visit) ClearSuggestion() {
	v.SuggestedDate = nil
	v.SuggestedTime = nil
	v.RescheduleReason = nil
}
