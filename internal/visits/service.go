package visits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huellitas/huellitas-backend/internal/notifications"
	"github.com/huellitas/huellitas-backend/pkg/auth"
	"github.com/huellitas/huellitas-backend/pkg/db/models"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	pkgerrors "github.com/huellitas/huellitas-backend/pkg/errors"
	"github.com/huellitas/huellitas-backend/pkg/outbox"
	"github.com/huellitas/huellitas-backend/pkg/outbox/payloads"
	"github.com/huellitas/huellitas-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type notifier interface {
	Notify(ctx context.Context, tx *gorm.DB, notice notifications.Notice) (*models.Notification, error)
}

// Service negotiates post-adoption visits between a foundation and an adopter.
type Service interface {
	Schedule(ctx context.Context, principal auth.Principal, input ScheduleInput) (*models.Visit, error)
	Accept(ctx context.Context, principal auth.Principal, visitID uuid.UUID) (*models.Visit, error)
	SuggestReschedule(ctx context.Context, principal auth.Principal, visitID uuid.UUID, input SuggestInput) (*models.Visit, error)
	ApproveReschedule(ctx context.Context, principal auth.Principal, visitID uuid.UUID, input ApproveInput) (*models.Visit, error)
	Reschedule(ctx context.Context, principal auth.Principal, visitID uuid.UUID, input RescheduleInput) (*models.Visit, error)
	Complete(ctx context.Context, principal auth.Principal, visitID uuid.UUID) (*models.Visit, error)
	Cancel(ctx context.Context, principal auth.Principal, visitID uuid.UUID) (*models.Visit, error)
	ListByFoundation(ctx context.Context, principal auth.Principal, foundationID uuid.UUID) ([]models.Visit, error)
	ListByUser(ctx context.Context, principal auth.Principal, userID uuid.UUID) ([]models.Visit, error)
}

// ScheduleInput creates a visit for an approved adoption. PetID, UserID and
// FoundationID are optional cross-checks against the adoption.
type ScheduleInput struct {
	AdoptionRequestID uuid.UUID
	PetID             *uuid.UUID
	UserID            *uuid.UUID
	FoundationID      *uuid.UUID
	ScheduledDate     string
	ScheduledTime     string
	VisitType         enums.VisitType
	MeetingLink       *string
	Notes             *string
}

type SuggestInput struct {
	SuggestedDate string
	SuggestedTime string
	Reason        *string
}

// ApproveInput optionally echoes the suggestion being approved.
type ApproveInput struct {
	NewDate *string
	NewTime *string
}

type RescheduleInput struct {
	NewDate     string
	NewTime     string
	MeetingLink *string
}

var validate = validator.New()

type service struct {
	repo   *Repository
	tx     txRunner
	outbox outboxPublisher
	notify notifier
	loc    *time.Location
	now    func() time.Time
}

// NewService builds the visit workflow. loc decides what "tomorrow" means.
func NewService(repo *Repository, tx txRunner, outbox outboxPublisher, notify notifier, loc *time.Location) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("visit repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: outbox,
		notify: notify,
		loc:    loc,
		now:    time.Now,
	}, nil
}

func (s *service) Schedule(ctx context.Context, principal auth.Principal, input ScheduleInput) (*models.Visit, error) {
	if err := principal.RequireRole(enums.UserRoleFoundation); err != nil {
		return nil, err
	}
	if input.AdoptionRequestID == uuid.Nil {
		return nil, validationError("adoption_request_id", "is required")
	}
	if err := s.validateSlot("scheduled_date", input.ScheduledDate, "scheduled_time", input.ScheduledTime); err != nil {
		return nil, err
	}
	if !input.VisitType.IsValid() {
		return nil, validationError("visit_type", "must be one of [presencial virtual]")
	}
	link, err := meetingLinkFor(input.VisitType, input.MeetingLink, true)
	if err != nil {
		return nil, err
	}

	var visit *models.Visit
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		adoption, err := repo.FindAdoption(ctx, input.AdoptionRequestID)
		if err != nil {
			return notFoundOr(err, "adoption request not found", "load adoption request")
		}
		if adoption.FoundationID != principal.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "adoption request does not belong to foundation")
		}
		if adoption.Status != enums.AdoptionStatusApproved {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "visits can only be scheduled for approved adoptions").
				WithDetails(map[string]string{"adoption_status": string(adoption.Status)})
		}
		if err := crossCheck(adoption, input); err != nil {
			return err
		}

		visit = &models.Visit{
			AdoptionRequestID: adoption.ID,
			PetID:             adoption.PetID,
			UserID:            adoption.UserID,
			FoundationID:      adoption.FoundationID,
			ScheduledDate:     strings.TrimSpace(input.ScheduledDate),
			ScheduledTime:     strings.TrimSpace(input.ScheduledTime),
			VisitType:         input.VisitType,
			MeetingLink:       link,
			Notes:             trimmedPtr(input.Notes),
			Status:            enums.VisitStatusScheduled,
		}
		if err := repo.Create(ctx, visit); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create visit")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVisitScheduled,
			AggregateType: enums.AggregateVisit,
			AggregateID:   visit.ID,
			Actor:         actorOf(principal),
			Data: payloads.VisitScheduledEvent{
				VisitID:           visit.ID,
				AdoptionRequestID: visit.AdoptionRequestID,
				PetID:             visit.PetID,
				UserID:            visit.UserID,
				FoundationID:      visit.FoundationID,
				ScheduledDate:     visit.ScheduledDate,
				ScheduledTime:     visit.ScheduledTime,
				VisitType:         visit.VisitType,
				MeetingLink:       visit.MeetingLink,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit visit scheduled")
		}

		_, err = s.notify.Notify(ctx, tx, notifications.Notice{
			UserID:  visit.UserID,
			Type:    enums.NotificationVisitScheduled,
			Title:   "Visit scheduled",
			Message: fmt.Sprintf("The foundation scheduled a %s visit on %s at %s.", visit.VisitType, visit.ScheduledDate, visit.ScheduledTime),
			Link:    visitLink(visit.ID),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify adopter")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return visit, nil
}

func (s *service) Accept(ctx context.Context, principal auth.Principal, visitID uuid.UUID) (*models.Visit, error) {
	return s.transition(ctx, principal, visitID, OpAccept, nil, func(v *models.Visit) notifications.Notice {
		return notifications.Notice{
			UserID:  v.FoundationID,
			Type:    enums.NotificationVisitAccepted,
			Title:   "Visit accepted",
			Message: fmt.Sprintf("The adopter confirmed the visit on %s at %s.", v.ScheduledDate, v.ScheduledTime),
		}
	})
}

func (s *service) SuggestReschedule(ctx context.Context, principal auth.Principal, visitID uuid.UUID, input SuggestInput) (*models.Visit, error) {
	if err := s.validateSlot("suggested_date", input.SuggestedDate, "suggested_time", input.SuggestedTime); err != nil {
		return nil, err
	}
	date := strings.TrimSpace(input.SuggestedDate)
	clock := strings.TrimSpace(input.SuggestedTime)
	reason := trimmedPtr(input.Reason)

	return s.transition(ctx, principal, visitID, OpSuggestReschedule, func(v *models.Visit) error {
		v.SuggestedDate = &date
		v.SuggestedTime = &clock
		v.RescheduleReason = reason
		return nil
	}, func(v *models.Visit) notifications.Notice {
		msg := fmt.Sprintf("The adopter proposed moving the visit to %s at %s.", date, clock)
		if reason != nil {
			msg += " Reason: " + *reason
		}
		return notifications.Notice{
			UserID:  v.FoundationID,
			Type:    enums.NotificationVisitRescheduleProposed,
			Title:   "New date proposed",
			Message: msg,
		}
	})
}

func (s *service) ApproveReschedule(ctx context.Context, principal auth.Principal, visitID uuid.UUID, input ApproveInput) (*models.Visit, error) {
	return s.transition(ctx, principal, visitID, OpApproveReschedule, func(v *models.Visit) error {
		if v.SuggestedDate == nil || v.SuggestedTime == nil {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "visit has no pending suggestion")
		}
		if input.NewDate != nil && strings.TrimSpace(*input.NewDate) != *v.SuggestedDate {
			return validationError("new_date", "must match the suggested date")
		}
		if input.NewTime != nil && strings.TrimSpace(*input.NewTime) != *v.SuggestedTime {
			return validationError("new_time", "must match the suggested time")
		}
		// the suggestion may have gone stale while it waited for approval
		if err := s.validateSlot("suggested_date", *v.SuggestedDate, "suggested_time", *v.SuggestedTime); err != nil {
			return err
		}
		v.ScheduledDate = *v.SuggestedDate
		v.ScheduledTime = *v.SuggestedTime
		v.ClearSuggestion()
		return nil
	}, rescheduledNotice)
}

func (s *service) Reschedule(ctx context.Context, principal auth.Principal, visitID uuid.UUID, input RescheduleInput) (*models.Visit, error) {
	if err := s.validateSlot("new_date", input.NewDate, "new_time", input.NewTime); err != nil {
		return nil, err
	}
	return s.transition(ctx, principal, visitID, OpReschedule, func(v *models.Visit) error {
		if input.MeetingLink != nil {
			link, err := meetingLinkFor(v.VisitType, input.MeetingLink, false)
			if err != nil {
				return err
			}
			v.MeetingLink = link
		}
		v.ScheduledDate = strings.TrimSpace(input.NewDate)
		v.ScheduledTime = strings.TrimSpace(input.NewTime)
		v.ClearSuggestion()
		return nil
	}, rescheduledNotice)
}

func (s *service) Complete(ctx context.Context, principal auth.Principal, visitID uuid.UUID) (*models.Visit, error) {
	return s.transition(ctx, principal, visitID, OpComplete, nil, func(v *models.Visit) notifications.Notice {
		return notifications.Notice{
			UserID:  v.UserID,
			Type:    enums.NotificationVisitCompleted,
			Title:   "Visit completed",
			Message: "Thanks for receiving the foundation. Remember to keep sending follow-ups.",
		}
	})
}

func (s *service) Cancel(ctx context.Context, principal auth.Principal, visitID uuid.UUID) (*models.Visit, error) {
	return s.transition(ctx, principal, visitID, OpCancel, func(v *models.Visit) error {
		v.ClearSuggestion()
		return nil
	}, func(v *models.Visit) notifications.Notice {
		return notifications.Notice{
			UserID:  v.UserID,
			Type:    enums.NotificationVisitCancelled,
			Title:   "Visit cancelled",
			Message: fmt.Sprintf("The visit on %s at %s was cancelled.", v.ScheduledDate, v.ScheduledTime),
		}
	})
}

func (s *service) ListByFoundation(ctx context.Context, principal auth.Principal, foundationID uuid.UUID) ([]models.Visit, error) {
	if err := principal.RequireFoundation(foundationID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByFoundation(ctx, foundationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list visits")
	}
	return rows, nil
}

func (s *service) ListByUser(ctx context.Context, principal auth.Principal, userID uuid.UUID) ([]models.Visit, error) {
	if err := principal.RequireSelf(userID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list visits")
	}
	return rows, nil
}

// transition loads the visit, checks actor and source status for op, applies
// mutate, persists, emits visit_status_changed and sends the notice, all in
// one transaction.
func (s *service) transition(
	ctx context.Context,
	principal auth.Principal,
	visitID uuid.UUID,
	op Operation,
	mutate func(v *models.Visit) error,
	notice func(v *models.Visit) notifications.Notice,
) (*models.Visit, error) {
	if err := principal.RequireRole(Actor(op)); err != nil {
		return nil, err
	}

	var visit *models.Visit
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		v, err := repo.FindByID(ctx, visitID)
		if err != nil {
			return notFoundOr(err, "visit not found", "load visit")
		}
		party := v.UserID
		if Actor(op) == enums.UserRoleFoundation {
			party = v.FoundationID
		}
		if party != principal.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "visit does not belong to caller")
		}

		from := v.Status
		to := Target(op)
		if !CanApply(op, from) {
			return pkgerrors.InvalidTransition("visit", string(from), string(to))
		}
		if mutate != nil {
			if err := mutate(v); err != nil {
				return err
			}
		}
		v.Status = to
		if err := repo.Save(ctx, v); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update visit")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVisitStatusChanged,
			AggregateType: enums.AggregateVisit,
			AggregateID:   v.ID,
			Actor:         actorOf(principal),
			Data: payloads.VisitStatusChangedEvent{
				VisitID:          v.ID,
				UserID:           v.UserID,
				FoundationID:     v.FoundationID,
				From:             from,
				To:               to,
				ScheduledDate:    v.ScheduledDate,
				ScheduledTime:    v.ScheduledTime,
				SuggestedDate:    v.SuggestedDate,
				SuggestedTime:    v.SuggestedTime,
				RescheduleReason: v.RescheduleReason,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit visit status change")
		}

		if notice != nil {
			n := notice(v)
			if n.Link == "" {
				n.Link = visitLink(v.ID)
			}
			if _, err := s.notify.Notify(ctx, tx, n); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify visit party")
			}
		}
		visit = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return visit, nil
}

// validateSlot checks a date/time pair; the date must be tomorrow or later in
// the service timezone.
func (s *service) validateSlot(dateField, date, timeField, clock string) error {
	details := map[string]string{}
	if ok, err := types.NotBeforeTomorrow(date, s.now(), s.loc); err != nil {
		details[dateField] = "must be a date in YYYY-MM-DD format"
	} else if !ok {
		details[dateField] = "must be tomorrow or later"
	}
	if _, err := types.ParseClock(clock); err != nil {
		details[timeField] = "must be a time in HH:MM format"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}

// meetingLinkFor enforces that only virtual visits carry a link. When
// required is set, virtual visits must supply one.
func meetingLinkFor(kind enums.VisitType, raw *string, required bool) (*string, error) {
	link := trimmedPtr(raw)
	if kind != enums.VisitTypeVirtual {
		if link != nil {
			return nil, validationError("meeting_link", "is only allowed for virtual visits")
		}
		return nil, nil
	}
	if link == nil {
		if required {
			return nil, validationError("meeting_link", "is required for virtual visits")
		}
		return nil, nil
	}
	if err := validate.Var(*link, "url"); err != nil {
		return nil, validationError("meeting_link", "must be a valid URL")
	}
	return link, nil
}

func crossCheck(adoption *models.AdoptionRequest, input ScheduleInput) error {
	details := map[string]string{}
	if input.PetID != nil && *input.PetID != adoption.PetID {
		details["pet_id"] = "does not match the adoption request"
	}
	if input.UserID != nil && *input.UserID != adoption.UserID {
		details["user_id"] = "does not match the adoption request"
	}
	if input.FoundationID != nil && *input.FoundationID != adoption.FoundationID {
		details["foundation_id"] = "does not match the adoption request"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "visit does not match adoption request").WithDetails(details)
	}
	return nil
}

func rescheduledNotice(v *models.Visit) notifications.Notice {
	return notifications.Notice{
		UserID:  v.UserID,
		Type:    enums.NotificationVisitRescheduled,
		Title:   "Visit rescheduled",
		Message: fmt.Sprintf("Your visit is now on %s at %s.", v.ScheduledDate, v.ScheduledTime),
	}
}

func validationError(field, msg string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
		WithDetails(map[string]string{field: msg})
}

func visitLink(id uuid.UUID) string {
	return "/visits/" + id.String()
}

func actorOf(principal auth.Principal) *outbox.ActorRef {
	return &outbox.ActorRef{UserID: principal.UserID, Role: principal.Role}
}

func notFoundOr(err error, notFoundMsg, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
