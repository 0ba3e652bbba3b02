package followups

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
	dbtypes "github.com/huellitas/huellitas-backend/pkg/db/types"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	pkgerrors "github.com/huellitas/huellitas-backend/pkg/errors"
	"github.com/huellitas/huellitas-backend/pkg/outbox"
	"github.com/huellitas/huellitas-backend/pkg/outbox/payloads"
)

// MaxPhotos caps how many image URLs a report may carry.
const MaxPhotos = 10

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type notifier interface {
	Notify(ctx context.Context, tx *gorm.DB, notice notifications.Notice) (*models.Notification, error)
}

// Service manages post-adoption follow-up reports.
type Service interface {
	Create(ctx context.Context, principal auth.Principal, input CreateInput) (*models.FollowUp, error)
	Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.FollowUp, error)
	ListByUser(ctx context.Context, principal auth.Principal, userID uuid.UUID) ([]models.FollowUp, error)
	ListByFoundation(ctx context.Context, principal auth.Principal, foundationID uuid.UUID, reviewed *bool) ([]models.FollowUp, error)
	ListByAdoption(ctx context.Context, principal auth.Principal, adoptionID uuid.UUID) ([]models.FollowUp, error)
	Review(ctx context.Context, principal auth.Principal, id uuid.UUID, feedback string) (*models.FollowUp, error)
	Delete(ctx context.Context, principal auth.Principal, id uuid.UUID) error
}

type CreateInput struct {
	AdoptionRequestID   uuid.UUID
	HealthStatus        enums.HealthStatus
	BehaviorStatus      enums.BehaviorStatus
	EatingHabits        *string
	LivingConditions    *string
	Concerns            *string
	AdditionalNotes     *string
	Photos              []string
	OverallSatisfaction int
}

var validate = validator.New()

type service struct {
	repo   *Repository
	tx     txRunner
	outbox outboxPublisher
	notify notifier
	now    func() time.Time
}

func NewService(repo *Repository, tx txRunner, outbox outboxPublisher, notify notifier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("follow-up repository required")
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
	return &service{
		repo:   repo,
		tx:     tx,
		outbox: outbox,
		notify: notify,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, principal auth.Principal, input CreateInput) (*models.FollowUp, error) {
	if err := principal.RequireRole(enums.UserRoleAdopter); err != nil {
		return nil, err
	}
	photos, err := validateInput(input)
	if err != nil {
		return nil, err
	}

	var created *models.FollowUp
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		adoption, err := repo.FindAdoption(ctx, input.AdoptionRequestID)
		if err != nil {
			return notFoundOr(err, "adoption request not found", "load adoption request")
		}
		if adoption.UserID != principal.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "adoption request does not belong to caller")
		}
		if adoption.Status != enums.AdoptionStatusApproved {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "follow-ups require an approved adoption")
		}

		f := &models.FollowUp{
			AdoptionRequestID:   adoption.ID,
			PetID:               adoption.PetID,
			UserID:              adoption.UserID,
			FoundationID:        adoption.FoundationID,
			HealthStatus:        input.HealthStatus,
			BehaviorStatus:      input.BehaviorStatus,
			EatingHabits:        trimmedPtr(input.EatingHabits),
			LivingConditions:    trimmedPtr(input.LivingConditions),
			Concerns:            trimmedPtr(input.Concerns),
			AdditionalNotes:     trimmedPtr(input.AdditionalNotes),
			Photos:              photos,
			OverallSatisfaction: input.OverallSatisfaction,
		}
		if err := repo.Create(ctx, f); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create follow-up")
		}

		attention := enums.NeedsAttention(f.HealthStatus, f.BehaviorStatus)
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventFollowUpSubmitted,
			AggregateType: enums.AggregateFollowUp,
			AggregateID:   f.ID,
			Actor:         &outbox.ActorRef{UserID: principal.UserID, Role: principal.Role},
			Data: payloads.FollowUpSubmittedEvent{
				FollowUpID:        f.ID,
				AdoptionRequestID: f.AdoptionRequestID,
				PetID:             f.PetID,
				UserID:            f.UserID,
				FoundationID:      f.FoundationID,
				NeedsAttention:    attention,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit follow-up submitted")
		}

		title := "New follow-up report"
		if attention {
			title = "Follow-up needs attention"
		}
		_, err = s.notify.Notify(ctx, tx, notifications.Notice{
			UserID:  f.FoundationID,
			Type:    enums.NotificationFollowUpSubmitted,
			Title:   title,
			Message: fmt.Sprintf("Health: %s, behavior: %s, satisfaction %d/5.", f.HealthStatus, f.BehaviorStatus, f.OverallSatisfaction),
			Link:    followUpLink(f.ID),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify foundation")
		}
		created = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.FollowUp, error) {
	f, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !principal.Owns(f.UserID) && !principal.Owns(f.FoundationID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	return f, nil
}

func (s *service) ListByUser(ctx context.Context, principal auth.Principal, userID uuid.UUID) ([]models.FollowUp, error) {
	if err := principal.RequireSelf(userID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	return rows, wrapList(err)
}

func (s *service) ListByFoundation(ctx context.Context, principal auth.Principal, foundationID uuid.UUID, reviewed *bool) ([]models.FollowUp, error) {
	if err := principal.RequireFoundation(foundationID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByFoundation(ctx, foundationID, reviewed)
	return rows, wrapList(err)
}

func (s *service) ListByAdoption(ctx context.Context, principal auth.Principal, adoptionID uuid.UUID) ([]models.FollowUp, error) {
	adoption, err := s.repo.FindAdoption(ctx, adoptionID)
	if err != nil {
		return nil, notFoundOr(err, "adoption request not found", "load adoption request")
	}
	if !principal.Owns(adoption.UserID) && !principal.Owns(adoption.FoundationID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	rows, err := s.repo.ListByAdoption(ctx, adoptionID)
	return rows, wrapList(err)
}

func (s *service) Review(ctx context.Context, principal auth.Principal, id uuid.UUID, feedback string) (*models.FollowUp, error) {
	if err := principal.RequireRole(enums.UserRoleFoundation); err != nil {
		return nil, err
	}
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"foundationFeedback": "is required"})
	}

	var reviewed *models.FollowUp
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		f, err := repo.FindByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "follow-up not found", "load follow-up")
		}
		if f.FoundationID != principal.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "follow-up does not belong to foundation")
		}

		now := s.now()
		f.Reviewed = true
		f.FoundationFeedback = &feedback
		f.ReviewedAt = &now
		if err := repo.Save(ctx, f); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "review follow-up")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventFollowUpReviewed,
			AggregateType: enums.AggregateFollowUp,
			AggregateID:   f.ID,
			Actor:         &outbox.ActorRef{UserID: principal.UserID, Role: principal.Role},
			Data:          payloads.FollowUpReviewedEvent{FollowUpID: f.ID, UserID: f.UserID, FoundationID: f.FoundationID},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit follow-up reviewed")
		}

		_, err = s.notify.Notify(ctx, tx, notifications.Notice{
			UserID:  f.UserID,
			Type:    enums.NotificationFollowUpReviewed,
			Title:   "The foundation reviewed your follow-up",
			Message: feedback,
			Link:    followUpLink(f.ID),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify adopter")
		}
		reviewed = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reviewed, nil
}

func (s *service) Delete(ctx context.Context, principal auth.Principal, id uuid.UUID) error {
	if err := principal.RequireRole(enums.UserRoleAdopter); err != nil {
		return err
	}
	f, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if f.UserID != principal.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "follow-up does not belong to caller")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete follow-up")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.FollowUp, error) {
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "follow-up not found", "load follow-up")
	}
	return f, nil
}

func validateInput(input CreateInput) (dbtypes.StringList, error) {
	details := map[string]string{}
	if input.AdoptionRequestID == uuid.Nil {
		details["adoptionRequestId"] = "is required"
	}
	if !input.HealthStatus.IsValid() {
		details["healthStatus"] = "must be one of [excellent good fair poor]"
	}
	if !input.BehaviorStatus.IsValid() {
		details["behaviorStatus"] = "must be one of [excellent good adapting problematic]"
	}
	if input.OverallSatisfaction < 1 || input.OverallSatisfaction > 5 {
		details["overallSatisfaction"] = "must be between 1 and 5"
	}
	if len(input.Photos) > MaxPhotos {
		details["photos"] = fmt.Sprintf("must have at most %d items", MaxPhotos)
	}
	photos := dbtypes.StringList{}
	for _, raw := range input.Photos {
		photo := strings.TrimSpace(raw)
		if photo == "" {
			continue
		}
		if err := validate.Var(photo, "url"); err != nil {
			details["photos"] = "must contain valid URLs"
			break
		}
		photos = append(photos, photo)
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return photos, nil
}

func wrapList(err error) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list follow-ups")
}

func followUpLink(id uuid.UUID) string {
	return "/follow-ups/" + id.String()
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
