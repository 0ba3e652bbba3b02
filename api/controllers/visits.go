package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/huellitas/huellitas-backend/api/middleware"
	"github.com/huellitas/huellitas-backend/api/responses"
	"github.com/huellitas/huellitas-backend/api/validators"
	"github.com/huellitas/huellitas-backend/internal/visits"
	"github.com/huellitas/huellitas-backend/pkg/auth"
	"github.com/huellitas/huellitas-backend/pkg/db/models"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	pkgerrors "github.com/huellitas/huellitas-backend/pkg/errors"
	"github.com/huellitas/huellitas-backend/pkg/logger"
)

type visitScheduleRequest struct {
	AdoptionRequestID uuid.UUID  `json:"adoption_request_id"`
	PetID             *uuid.UUID `json:"pet_id,omitempty"`
	UserID            *uuid.UUID `json:"user_id,omitempty"`
	FoundationID      *uuid.UUID `json:"foundation_id,omitempty"`
	ScheduledDate     string     `json:"scheduled_date"`
	ScheduledTime     string     `json:"scheduled_time"`
	VisitType         string     `json:"visit_type"`
	MeetingLink       *string    `json:"meeting_link,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
}

type visitSuggestRequest struct {
	SuggestedDate string  `json:"suggested_date"`
	SuggestedTime string  `json:"suggested_time"`
	Reason        *string `json:"reason,omitempty"`
}

type visitApproveRequest struct {
	NewDate *string `json:"new_date,omitempty"`
	NewTime *string `json:"new_time,omitempty"`
}

type visitRescheduleRequest struct {
	NewDate     string  `json:"new_date"`
	NewTime     string  `json:"new_time"`
	MeetingLink *string `json:"meeting_link,omitempty"`
}

// visitStatusRequest drives the foundation's generic status endpoint. The
// optional date/time echo the suggestion when approving a reschedule.
type visitStatusRequest struct {
	Status  string  `json:"status" validate:"required"`
	NewDate *string `json:"new_date,omitempty"`
	NewTime *string `json:"new_time,omitempty"`
}

type visitAction func(ctx context.Context, p auth.Principal, id uuid.UUID) (*models.Visit, error)

func VisitSchedule(svc visits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "visits service unavailable"))
			return
		}

		var body visitScheduleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		visit, err := svc.Schedule(r.Context(), middleware.PrincipalFromContext(r.Context()), visits.ScheduleInput{
			AdoptionRequestID: body.AdoptionRequestID,
			PetID:             body.PetID,
			UserID:            body.UserID,
			FoundationID:      body.FoundationID,
			ScheduledDate:     strings.TrimSpace(body.ScheduledDate),
			ScheduledTime:     strings.TrimSpace(body.ScheduledTime),
			VisitType:         enums.VisitType(strings.TrimSpace(body.VisitType)),
			MeetingLink:       validators.SanitizeOptional(body.MeetingLink, 500),
			Notes:             validators.SanitizeOptional(body.Notes, 2000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMessage(w, http.StatusCreated, visit, "visit scheduled")
	}
}

func VisitAccept(svc visits.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return visitUnavailable(logg)
	}
	return visitTransition(svc.Accept, logg)
}

func VisitSuggestReschedule(svc visits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "visits service unavailable"))
			return
		}
		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body visitSuggestRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		visit, err := svc.SuggestReschedule(r.Context(), middleware.PrincipalFromContext(r.Context()), id, visits.SuggestInput{
			SuggestedDate: strings.TrimSpace(body.SuggestedDate),
			SuggestedTime: strings.TrimSpace(body.SuggestedTime),
			Reason:        validators.SanitizeOptional(body.Reason, 1000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, visit)
	}
}

func VisitApproveReschedule(svc visits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "visits service unavailable"))
			return
		}
		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body visitApproveRequest
		if err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		visit, err := svc.ApproveReschedule(r.Context(), middleware.PrincipalFromContext(r.Context()), id, visits.ApproveInput{
			NewDate: validators.SanitizeOptional(body.NewDate, 10),
			NewTime: validators.SanitizeOptional(body.NewTime, 5),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, visit)
	}
}

func VisitReschedule(svc visits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "visits service unavailable"))
			return
		}
		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body visitRescheduleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		visit, err := svc.Reschedule(r.Context(), middleware.PrincipalFromContext(r.Context()), id, visits.RescheduleInput{
			NewDate:     strings.TrimSpace(body.NewDate),
			NewTime:     strings.TrimSpace(body.NewTime),
			MeetingLink: validators.SanitizeOptional(body.MeetingLink, 500),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, visit)
	}
}

// VisitUpdateStatus dispatches completed, cancelled and rescheduled to the
// matching foundation transition.
func VisitUpdateStatus(svc visits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "visits service unavailable"))
			return
		}
		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body visitStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		principal := middleware.PrincipalFromContext(r.Context())
		var visit *models.Visit
		switch enums.VisitStatus(strings.TrimSpace(body.Status)) {
		case enums.VisitStatusCompleted:
			visit, err = svc.Complete(r.Context(), principal, id)
		case enums.VisitStatusCancelled:
			visit, err = svc.Cancel(r.Context(), principal, id)
		case enums.VisitStatusRescheduled:
			visit, err = svc.ApproveReschedule(r.Context(), principal, id, visits.ApproveInput{
				NewDate: validators.SanitizeOptional(body.NewDate, 10),
				NewTime: validators.SanitizeOptional(body.NewTime, 5),
			})
		default:
			err = pkgerrors.New(pkgerrors.CodeValidation, "unsupported status").
				WithDetails(map[string]string{"status": "must be one of [completed cancelled rescheduled]"})
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, visit)
	}
}

func VisitListByFoundation(svc visits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "visits service unavailable"))
			return
		}
		foundationID, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.ListByFoundation(r.Context(), middleware.PrincipalFromContext(r.Context()), foundationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func VisitListByUser(svc visits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "visits service unavailable"))
			return
		}
		userID, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.ListByUser(r.Context(), middleware.PrincipalFromContext(r.Context()), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func visitTransition(action visitAction, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		visit, err := action(r.Context(), middleware.PrincipalFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, visit)
	}
}

func visitUnavailable(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "visits service unavailable"))
	}
}
