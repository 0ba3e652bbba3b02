package adoptions

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

// Service runs the adoption request workflow.
type Service interface {
	Submit(ctx context.Context, principal auth.Principal, input SubmitInput) (*models.AdoptionRequest, error)
	UpdateStatus(ctx context.Context, principal auth.Principal, requestID uuid.UUID, input UpdateStatusInput) (*models.AdoptionRequest, error)
	Stats(ctx context.Context, principal auth.Principal, foundationID uuid.UUID) (*Stats, error)
	Get(ctx context.Context, principal auth.Principal, requestID uuid.UUID) (*RequestView, error)
	ListByFoundation(ctx context.Context, principal auth.Principal, foundationID uuid.UUID, status *enums.AdoptionStatus) ([]RequestView, error)
	ListByUser(ctx context.Context, principal auth.Principal, userID uuid.UUID) ([]RequestView, error)
}

// SubmitInput is an adopter's application. UserID is optional; when present it
// must match the caller.
type SubmitInput struct {
	PetID        uuid.UUID
	UserID       *uuid.UUID
	FullName     string
	Email        string
	Phone        string
	Address      string
	HousingType  enums.HousingType
	HasOtherPets *bool
	Motivation   string
}

type UpdateStatusInput struct {
	Status enums.AdoptionStatus
	Notes  *string
}

// Stats aggregates a foundation's requests by status.
type Stats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Contacted int64 `json:"contacted"`
	Approved  int64 `json:"approved"`
	Rejected  int64 `json:"rejected"`
}

// PetSummary is the slice of the pet shown next to a request.
type PetSummary struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Type      enums.PetType `json:"type"`
	Img       *string       `json:"img,omitempty"`
	Available bool          `json:"available"`
}

// RequestView is a request plus its pet summary.
type RequestView struct {
	models.AdoptionRequest
	Pet *PetSummary `json:"pet,omitempty"`
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
		return nil, fmt.Errorf("adoption repository required")
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

func (s *service) Submit(ctx context.Context, principal auth.Principal, input SubmitInput) (*models.AdoptionRequest, error) {
	if err := principal.RequireRole(enums.UserRoleAdopter); err != nil {
		return nil, err
	}
	if input.UserID != nil && *input.UserID != principal.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot submit a request for another user")
	}
	req, err := buildRequest(principal.UserID, input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		pet, err := repo.FindPet(ctx, input.PetID)
		if err != nil {
			return notFoundOr(err, "pet not found", "load pet")
		}
		if !pet.Available {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "pet is not available")
		}
		open, err := repo.HasOpenRequest(ctx, pet.ID, principal.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check open requests")
		}
		if open {
			return pkgerrors.New(pkgerrors.CodeConflict, "you already have an open request for this pet")
		}

		req.FoundationID = pet.FoundationID
		if err := repo.Create(ctx, req); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create adoption request")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAdoptionRequestSubmitted,
			AggregateType: enums.AggregateAdoptionRequest,
			AggregateID:   req.ID,
			Actor:         actorOf(principal),
			Data: payloads.AdoptionRequestSubmittedEvent{
				AdoptionRequestID: req.ID,
				PetID:             pet.ID,
				PetName:           pet.Name,
				UserID:            req.UserID,
				FoundationID:      req.FoundationID,
				ApplicantName:     req.FullName,
				ApplicantEmail:    req.Email,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit adoption submitted")
		}

		_, err = s.notify.Notify(ctx, tx, notifications.Notice{
			UserID:  pet.FoundationID,
			Type:    enums.NotificationAdoptionSubmitted,
			Title:   "New adoption request",
			Message: fmt.Sprintf("%s wants to adopt %s.", req.FullName, pet.Name),
			Link:    requestLink(req.ID),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify foundation")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *service) UpdateStatus(ctx context.Context, principal auth.Principal, requestID uuid.UUID, input UpdateStatusInput) (*models.AdoptionRequest, error) {
	if err := principal.RequireRole(enums.UserRoleFoundation); err != nil {
		return nil, err
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status").
			WithDetails(map[string]string{"status": string(input.Status)})
	}

	var updated *models.AdoptionRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		req, err := repo.FindByID(ctx, requestID)
		if err != nil {
			return notFoundOr(err, "adoption request not found", "load adoption request")
		}
		pet, err := repo.FindPet(ctx, req.PetID)
		if err != nil {
			return notFoundOr(err, "pet not found", "load pet")
		}
		if pet.FoundationID != principal.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "request does not belong to foundation")
		}

		from := req.Status
		if !CanTransition(from, input.Status) {
			return pkgerrors.InvalidTransition("adoption request", string(from), string(input.Status))
		}

		now := s.now()
		if input.Status == enums.AdoptionStatusApproved {
			adopted, err := repo.HasApprovedRequest(ctx, pet.ID, req.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check approved requests")
			}
			if adopted {
				return pkgerrors.New(pkgerrors.CodeInvalidTransition, "pet already has an approved adoption")
			}
			changed, err := repo.MarkPetUnavailable(ctx, pet.ID, now)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark pet unavailable")
			}
			if !changed {
				return pkgerrors.New(pkgerrors.CodeInvalidTransition, "pet is not available")
			}
		}

		req.Status = input.Status
		if notes := trimmedPtr(input.Notes); notes != nil {
			req.Notes = notes
		}
		req.UpdatedAt = now
		if err := repo.UpdateStatus(ctx, req); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update adoption request")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAdoptionRequestStatusChanged,
			AggregateType: enums.AggregateAdoptionRequest,
			AggregateID:   req.ID,
			Actor:         actorOf(principal),
			Data: payloads.AdoptionRequestStatusChangedEvent{
				AdoptionRequestID: req.ID,
				PetID:             pet.ID,
				PetName:           pet.Name,
				UserID:            req.UserID,
				FoundationID:      req.FoundationID,
				ApplicantName:     req.FullName,
				ApplicantEmail:    req.Email,
				From:              from,
				To:                req.Status,
				Notes:             trimmedPtr(input.Notes),
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit adoption status change")
		}

		if notice, ok := statusNotice(req, pet, trimmedPtr(input.Notes)); ok {
			if _, err := s.notify.Notify(ctx, tx, notice); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "notify applicant")
			}
		}

		updated = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Stats(ctx context.Context, principal auth.Principal, foundationID uuid.UUID) (*Stats, error) {
	if err := principal.RequireFoundation(foundationID); err != nil {
		return nil, err
	}
	rows, err := s.repo.CountByStatus(ctx, foundationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count adoption requests")
	}
	stats := &Stats{}
	for _, row := range rows {
		stats.Total += row.Total
		switch row.Status {
		case enums.AdoptionStatusPending:
			stats.Pending = row.Total
		case enums.AdoptionStatusContacted:
			stats.Contacted = row.Total
		case enums.AdoptionStatusApproved:
			stats.Approved = row.Total
		case enums.AdoptionStatusRejected:
			stats.Rejected = row.Total
		}
	}
	return stats, nil
}

func (s *service) Get(ctx context.Context, principal auth.Principal, requestID uuid.UUID) (*RequestView, error) {
	if principal.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, notFoundOr(err, "adoption request not found", "load adoption request")
	}
	if !principal.Owns(req.UserID) && !principal.Owns(req.FoundationID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "access denied")
	}
	views, err := s.withPets(ctx, []models.AdoptionRequest{*req})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *service) ListByFoundation(ctx context.Context, principal auth.Principal, foundationID uuid.UUID, status *enums.AdoptionStatus) ([]RequestView, error) {
	if err := principal.RequireFoundation(foundationID); err != nil {
		return nil, err
	}
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	rows, err := s.repo.ListByFoundation(ctx, foundationID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list adoption requests")
	}
	return s.withPets(ctx, rows)
}

func (s *service) ListByUser(ctx context.Context, principal auth.Principal, userID uuid.UUID) ([]RequestView, error) {
	if err := principal.RequireSelf(userID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list adoption requests")
	}
	return s.withPets(ctx, rows)
}

func (s *service) withPets(ctx context.Context, rows []models.AdoptionRequest) ([]RequestView, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	seen := map[uuid.UUID]struct{}{}
	for _, row := range rows {
		if _, ok := seen[row.PetID]; !ok {
			seen[row.PetID] = struct{}{}
			ids = append(ids, row.PetID)
		}
	}
	pets, err := s.repo.FindPets(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pets")
	}
	views := make([]RequestView, 0, len(rows))
	for _, row := range rows {
		view := RequestView{AdoptionRequest: row}
		if pet, ok := pets[row.PetID]; ok {
			view.Pet = &PetSummary{ID: pet.ID, Name: pet.Name, Type: pet.Type, Img: pet.Img, Available: pet.Available}
		}
		views = append(views, view)
	}
	return views, nil
}

func buildRequest(userID uuid.UUID, input SubmitInput) (*models.AdoptionRequest, error) {
	details := map[string]string{}
	required := map[string]string{
		"fullName":   input.FullName,
		"email":      input.Email,
		"phone":      input.Phone,
		"address":    input.Address,
		"motivation": input.Motivation,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			details[field] = "is required"
		}
	}
	if _, ok := details["email"]; !ok {
		if err := validate.Var(strings.TrimSpace(input.Email), "email"); err != nil {
			details["email"] = "must be a valid email"
		}
	}
	if input.PetID == uuid.Nil {
		details["petId"] = "is required"
	}
	if !input.HousingType.IsValid() {
		details["housingType"] = "must be one of [house apartment farm other]"
	}
	if input.HasOtherPets == nil {
		details["hasOtherPets"] = "is required"
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}

	return &models.AdoptionRequest{
		PetID:        input.PetID,
		UserID:       userID,
		FullName:     strings.TrimSpace(input.FullName),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:        strings.TrimSpace(input.Phone),
		Address:      strings.TrimSpace(input.Address),
		HousingType:  input.HousingType,
		HasOtherPets: *input.HasOtherPets,
		Motivation:   strings.TrimSpace(input.Motivation),
		Status:       enums.AdoptionStatusPending,
	}, nil
}

// statusNotice builds the applicant notification for a transition. Moving
// back to pending is silent.
func statusNotice(req *models.AdoptionRequest, pet *models.Pet, notes *string) (notifications.Notice, bool) {
	notice := notifications.Notice{UserID: req.UserID, Link: requestLink(req.ID)}
	switch req.Status {
	case enums.AdoptionStatusContacted:
		notice.Type = enums.NotificationAdoptionContacted
		notice.Title = "The foundation contacted you"
		notice.Message = fmt.Sprintf("The foundation is reviewing your request for %s and will be in touch.", pet.Name)
	case enums.AdoptionStatusApproved:
		notice.Type = enums.NotificationAdoptionApproved
		notice.Title = "Adoption request approved"
		notice.Message = fmt.Sprintf("Your request to adopt %s was approved.", pet.Name)
		if notes != nil {
			notice.Message += " " + *notes
		}
	case enums.AdoptionStatusRejected:
		notice.Type = enums.NotificationAdoptionRejected
		notice.Title = "Adoption request rejected"
		notice.Message = fmt.Sprintf("Your request to adopt %s was not approved.", pet.Name)
		if notes != nil {
			notice.Message += " Reason: " + *notes
		}
	default:
		return notifications.Notice{}, false
	}
	return notice, true
}

func requestLink(id uuid.UUID) string {
	return "/adoption-requests/" + id.String()
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
