package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/huellitas/huellitas-backend/api/middleware"
	"github.com/huellitas/huellitas-backend/api/responses"
	"github.com/huellitas/huellitas-backend/api/validators"
	"github.com/huellitas/huellitas-backend/internal/followups"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	pkgerrors "github.com/huellitas/huellitas-backend/pkg/errors"
	"github.com/huellitas/huellitas-backend/pkg/logger"
)

type followUpCreateRequest struct {
	AdoptionRequestID   uuid.UUID `json:"adoptionRequestId"`
	HealthStatus        string    `json:"healthStatus"`
	BehaviorStatus      string    `json:"behaviorStatus"`
	EatingHabits        *string   `json:"eatingHabits,omitempty"`
	LivingConditions    *string   `json:"livingConditions,omitempty"`
	Concerns            *string   `json:"concerns,omitempty"`
	AdditionalNotes     *string   `json:"additionalNotes,omitempty"`
	Photos              []string  `json:"photos,omitempty"`
	OverallSatisfaction int       `json:"overallSatisfaction"`
}

type followUpReviewRequest struct {
	FoundationFeedback string `json:"foundationFeedback"`
}

func FollowUpCreate(svc followups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "follow-ups service unavailable"))
			return
		}

		var body followUpCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		followUp, err := svc.Create(r.Context(), middleware.PrincipalFromContext(r.Context()), followups.CreateInput{
			AdoptionRequestID:   body.AdoptionRequestID,
			HealthStatus:        enums.HealthStatus(strings.TrimSpace(body.HealthStatus)),
			BehaviorStatus:      enums.BehaviorStatus(strings.TrimSpace(body.BehaviorStatus)),
			EatingHabits:        validators.SanitizeOptional(body.EatingHabits, 2000),
			LivingConditions:    validators.SanitizeOptional(body.LivingConditions, 2000),
			Concerns:            validators.SanitizeOptional(body.Concerns, 2000),
			AdditionalNotes:     validators.SanitizeOptional(body.AdditionalNotes, 2000),
			Photos:              body.Photos,
			OverallSatisfaction: body.OverallSatisfaction,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMessage(w, http.StatusCreated, followUp, "follow-up submitted")
	}
}

func FollowUpGet(svc followups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "follow-ups service unavailable"))
			return
		}
		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		followUp, err := svc.Get(r.Context(), middleware.PrincipalFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, followUp)
	}
}

// FollowUpReview records the owning foundation's feedback.
func FollowUpReview(svc followups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "follow-ups service unavailable"))
			return
		}
		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body followUpReviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		followUp, err := svc.Review(r.Context(), middleware.PrincipalFromContext(r.Context()), id, validators.SanitizeString(body.FoundationFeedback, 4000))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, followUp)
	}
}

func FollowUpDelete(svc followups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "follow-ups service unavailable"))
			return
		}
		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), middleware.PrincipalFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMessage(w, http.StatusOK, nil, "follow-up deleted")
	}
}

func FollowUpListByUser(svc followups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "follow-ups service unavailable"))
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

// FollowUpListByFoundation accepts an optional ?reviewed=true|false filter.
func FollowUpListByFoundation(svc followups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "follow-ups service unavailable"))
			return
		}
		foundationID, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reviewed, err := validators.ParseQueryBool(r, "reviewed")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.ListByFoundation(r.Context(), middleware.PrincipalFromContext(r.Context()), foundationID, reviewed)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func FollowUpListByAdoption(svc followups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "follow-ups service unavailable"))
			return
		}
		adoptionID, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.ListByAdoption(r.Context(), middleware.PrincipalFromContext(r.Context()), adoptionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}
