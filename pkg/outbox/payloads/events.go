package payloads

import (
	"github.com/google/uuid"

	"github.com/huellitas/huellitas-backend/pkg/enums"
)

// AdoptionRequestSubmittedEvent is consumed by the mailer to alert the foundation.
type AdoptionRequestSubmittedEvent struct {
	AdoptionRequestID uuid.UUID `json:"adoption_request_id"`
	PetID             uuid.UUID `json:"pet_id"`
	PetName           string    `json:"pet_name"`
	UserID            uuid.UUID `json:"user_id"`
	FoundationID      uuid.UUID `json:"foundation_id"`
	ApplicantName     string    `json:"applicant_name"`
	ApplicantEmail    string    `json:"applicant_email"`
}

// AdoptionRequestStatusChangedEvent carries every foundation decision.
type AdoptionRequestStatusChangedEvent struct {
	AdoptionRequestID uuid.UUID            `json:"adoption_request_id"`
	PetID             uuid.UUID            `json:"pet_id"`
	PetName           string               `json:"pet_name"`
	UserID            uuid.UUID            `json:"user_id"`
	FoundationID      uuid.UUID            `json:"foundation_id"`
	ApplicantName     string               `json:"applicant_name"`
	ApplicantEmail    string               `json:"applicant_email"`
	From              enums.AdoptionStatus `json:"from"`
	To                enums.AdoptionStatus `json:"to"`
	Notes             *string              `json:"notes,omitempty"`
}

type VisitScheduledEvent struct {
	VisitID           uuid.UUID       `json:"visit_id"`
	AdoptionRequestID uuid.UUID       `json:"adoption_request_id"`
	PetID             uuid.UUID       `json:"pet_id"`
	UserID            uuid.UUID       `json:"user_id"`
	FoundationID      uuid.UUID       `json:"foundation_id"`
	ScheduledDate     string          `json:"scheduled_date"`
	ScheduledTime     string          `json:"scheduled_time"`
	VisitType         enums.VisitType `json:"visit_type"`
	MeetingLink       *string         `json:"meeting_link,omitempty"`
}

// VisitStatusChangedEvent is emitted for every visit transition after scheduling.
type VisitStatusChangedEvent struct {
	VisitID          uuid.UUID         `json:"visit_id"`
	UserID           uuid.UUID         `json:"user_id"`
	FoundationID     uuid.UUID         `json:"foundation_id"`
	From             enums.VisitStatus `json:"from"`
	To               enums.VisitStatus `json:"to"`
	ScheduledDate    string            `json:"scheduled_date"`
	ScheduledTime    string            `json:"scheduled_time"`
	SuggestedDate    *string           `json:"suggested_date,omitempty"`
	SuggestedTime    *string           `json:"suggested_time,omitempty"`
	RescheduleReason *string           `json:"reschedule_reason,omitempty"`
}

type FollowUpSubmittedEvent struct {
	FollowUpID        uuid.UUID `json:"follow_up_id"`
	AdoptionRequestID uuid.UUID `json:"adoption_request_id"`
	PetID             uuid.UUID `json:"pet_id"`
	UserID            uuid.UUID `json:"user_id"`
	FoundationID      uuid.UUID `json:"foundation_id"`
	NeedsAttention    bool      `json:"needs_attention"`
}

type FollowUpReviewedEvent struct {
	FollowUpID   uuid.UUID `json:"follow_up_id"`
	UserID       uuid.UUID `json:"user_id"`
	FoundationID uuid.UUID `json:"foundation_id"`
}

// NotificationCreatedEvent mirrors a bell notification for push/email fan-out.
type NotificationCreatedEvent struct {
	NotificationID uuid.UUID              `json:"notification_id"`
	UserID         uuid.UUID              `json:"user_id"`
	Type           enums.NotificationType `json:"type"`
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
	Link           *string                `json:"link,omitempty"`
}
