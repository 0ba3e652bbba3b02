package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/huellitas/huellitas-backend/api/middleware"
	"github.com/huellitas/huellitas-backend/api/responses"
	"github.com/huellitas/huellitas-backend/api/validators"
	"github.com/huellitas/huellitas-backend/internal/carnet"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	pkgerrors "github.com/huellitas/huellitas-backend/pkg/errors"
	"github.com/huellitas/huellitas-backend/pkg/logger"
)

type vaccineRequest struct {
	Name         string  `json:"name"`
	AppliedOn    string  `json:"appliedOn"`
	NextDueOn    *string `json:"nextDueOn,omitempty"`
	Veterinarian *string `json:"veterinarian,omitempty"`
	BatchNumber  *string `json:"batchNumber,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

type dewormingRequest struct {
	Product   string  `json:"product"`
	Kind      string  `json:"kind"`
	AppliedOn string  `json:"appliedOn"`
	NextDueOn *string `json:"nextDueOn,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

type bathRequest struct {
	BathedOn  string  `json:"bathedOn"`
	NextDueOn *string `json:"nextDueOn,omitempty"`
	Products  *string `json:"products,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

type procedureRequest struct {
	Name         string  `json:"name"`
	PerformedOn  string  `json:"performedOn"`
	Veterinarian *string `json:"veterinarian,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

type medicationRequest struct {
	Name      string  `json:"name"`
	Dosage    string  `json:"dosage"`
	Frequency string  `json:"frequency"`
	StartOn   string  `json:"startOn"`
	EndOn     *string `json:"endOn,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// CarnetGet returns every section of a pet's medical record.
func CarnetGet(svc carnet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "carnet service unavailable"))
			return
		}
		petID, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.Get(r.Context(), middleware.PrincipalFromContext(r.Context()), petID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// CarnetAddEntry appends to the section named by the {section} URL segment.
func CarnetAddEntry(svc carnet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "carnet service unavailable"))
			return
		}
		petID, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := parseCarnetKind(r, "section")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		principal := middleware.PrincipalFromContext(ctx)
		var entry any
		switch kind {
		case enums.CarnetKindVaccine:
			var body vaccineRequest
			if err = validators.DecodeJSONBody(r, &body); err == nil {
				entry, err = svc.AddVaccine(ctx, principal, petID, carnet.VaccineInput{
					Name:         validators.SanitizeString(body.Name, 200),
					AppliedOn:    strings.TrimSpace(body.AppliedOn),
					NextDueOn:    validators.SanitizeOptional(body.NextDueOn, 10),
					Veterinarian: validators.SanitizeOptional(body.Veterinarian, 200),
					BatchNumber:  validators.SanitizeOptional(body.BatchNumber, 100),
					Notes:        validators.SanitizeOptional(body.Notes, 2000),
				})
			}
		case enums.CarnetKindDeworming:
			var body dewormingRequest
			if err = validators.DecodeJSONBody(r, &body); err == nil {
				entry, err = svc.AddDeworming(ctx, principal, petID, carnet.DewormingInput{
					Product:   validators.SanitizeString(body.Product, 200),
					Kind:      enums.DewormingKind(strings.TrimSpace(body.Kind)),
					AppliedOn: strings.TrimSpace(body.AppliedOn),
					NextDueOn: validators.SanitizeOptional(body.NextDueOn, 10),
					Notes:     validators.SanitizeOptional(body.Notes, 2000),
				})
			}
		case enums.CarnetKindBath:
			var body bathRequest
			if err = validators.DecodeJSONBody(r, &body); err == nil {
				entry, err = svc.AddBath(ctx, principal, petID, carnet.BathInput{
					BathedOn:  strings.TrimSpace(body.BathedOn),
					NextDueOn: validators.SanitizeOptional(body.NextDueOn, 10),
					Products:  validators.SanitizeOptional(body.Products, 500),
					Notes:     validators.SanitizeOptional(body.Notes, 2000),
				})
			}
		case enums.CarnetKindProcedure:
			var body procedureRequest
			if err = validators.DecodeJSONBody(r, &body); err == nil {
				entry, err = svc.AddProcedure(ctx, principal, petID, carnet.ProcedureInput{
					Name:         validators.SanitizeString(body.Name, 200),
					PerformedOn:  strings.TrimSpace(body.PerformedOn),
					Veterinarian: validators.SanitizeOptional(body.Veterinarian, 200),
					Notes:        validators.SanitizeOptional(body.Notes, 2000),
				})
			}
		case enums.CarnetKindMedication:
			var body medicationRequest
			if err = validators.DecodeJSONBody(r, &body); err == nil {
				entry, err = svc.AddMedication(ctx, principal, petID, carnet.MedicationInput{
					Name:      validators.SanitizeString(body.Name, 200),
					Dosage:    validators.SanitizeString(body.Dosage, 200),
					Frequency: validators.SanitizeString(body.Frequency, 200),
					StartOn:   strings.TrimSpace(body.StartOn),
					EndOn:     validators.SanitizeOptional(body.EndOn, 10),
					Notes:     validators.SanitizeOptional(body.Notes, 2000),
				})
			}
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, entry)
	}
}

func CarnetDeleteEntry(svc carnet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "carnet service unavailable"))
			return
		}
		petID, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := parseCarnetKind(r, "kind")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entryID, err := validators.ParseURLUUID(r, "entryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteEntry(r.Context(), middleware.PrincipalFromContext(r.Context()), petID, kind, entryID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMessage(w, http.StatusOK, nil, "carnet entry deleted")
	}
}

func parseCarnetKind(r *http.Request, param string) (enums.CarnetKind, error) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	kind, err := enums.ParseCarnetKindPath(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown carnet section").
			WithDetails(map[string]string{"kind": "must be one of [vaccines dewormings baths procedures medications]"})
	}
	return kind, nil
}
