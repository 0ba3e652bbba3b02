package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/huellitas/huellitas-backend/api/middleware"
	"github.com/huellitas/huellitas-backend/api/responses"
	"github.com/huellitas/huellitas-backend/api/validators"
	"github.com/huellitas/huellitas-backend/internal/adoptions"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	pkgerrors "github.com/huellitas/huellitas-backend/pkg/errors"
	"github.com/huellitas/huellitas-backend/pkg/logger"
)

// Field presence and formats are checked by the workflow so the error
// details name the same fields for every client.
type adoptionSubmitRequest struct {
	PetID        uuid.UUID  `json:"petId"`
	UserID       *uuid.UUID `json:"userId,omitempty"`
	FullName     string     `json:"fullName"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Address      string     `json:"address"`
	HousingType  string     `json:"housingType"`
	HasOtherPets *bool      `json:"hasOtherPets"`
	Motivation   string     `json:"motivation"`
}

type adoptionStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Notes  *string `json:"notes,omitempty"`
}

func AdoptionSubmit(svc adoptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "adoptions service unavailable"))
			return
		}

		var body adoptionSubmitRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := svc.Submit(r.Context(), middleware.PrincipalFromContext(r.Context()), adoptions.SubmitInput{
			PetID:        body.PetID,
			UserID:       body.UserID,
			FullName:     validators.SanitizeString(body.FullName, 200),
			Email:        strings.TrimSpace(body.Email),
			Phone:        validators.SanitizeString(body.Phone, 40),
			Address:      validators.SanitizeString(body.Address, 300),
			HousingType:  enums.HousingType(strings.TrimSpace(body.HousingType)),
			HasOtherPets: body.HasOtherPets,
			Motivation:   validators.SanitizeString(body.Motivation, 4000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMessage(w, http.StatusCreated, req, "adoption request submitted")
	}
}

func AdoptionGet(svc adoptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "adoptions service unavailable"))
			return
		}
		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), middleware.PrincipalFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AdoptionUpdateStatus moves a request along the pending/contacted/approved/rejected graph.
func AdoptionUpdateStatus(svc adoptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "adoptions service unavailable"))
			return
		}
		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body adoptionStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		req, err := svc.UpdateStatus(r.Context(), middleware.PrincipalFromContext(r.Context()), id, adoptions.UpdateStatusInput{
			Status: enums.AdoptionStatus(strings.TrimSpace(body.Status)),
			Notes:  validators.SanitizeOptional(body.Notes, 2000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, req)
	}
}

func AdoptionListByFoundation(svc adoptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "adoptions service unavailable"))
			return
		}
		foundationID, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.AdoptionStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseAdoptionStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter").WithDetails(map[string]string{"status": raw}))
				return
			}
			status = &parsed
		}

		items, err := svc.ListByFoundation(r.Context(), middleware.PrincipalFromContext(r.Context()), foundationID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

func AdoptionStats(svc adoptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "adoptions service unavailable"))
			return
		}
		foundationID, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stats, err := svc.Stats(r.Context(), middleware.PrincipalFromContext(r.Context()), foundationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

func AdoptionListByUser(svc adoptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "adoptions service unavailable"))
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
