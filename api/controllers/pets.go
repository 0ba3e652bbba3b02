package controllers

import (
	"net/http"
	"strings"

	"github.com/huellitas/huellitas-backend/api/middleware"
	"github.com/huellitas/huellitas-backend/api/responses"
	"github.com/huellitas/huellitas-backend/api/validators"
	"github.com/huellitas/huellitas-backend/internal/pets"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	pkgerrors "github.com/huellitas/huellitas-backend/pkg/errors"
	"github.com/huellitas/huellitas-backend/pkg/logger"
	"github.com/huellitas/huellitas-backend/pkg/pagination"
)

type petRequest struct {
	Name        string  `json:"name" validate:"required,notblank,max=120"`
	Type        string  `json:"type" validate:"required"`
	Breed       *string `json:"breed,omitempty"`
	Age         *string `json:"age,omitempty"`
	Size        string  `json:"size" validate:"required"`
	Sex         string  `json:"sex" validate:"required"`
	Description *string `json:"description,omitempty"`
	Img         *string `json:"img,omitempty"`
}

type petUpdateRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=120"`
	Type        *string `json:"type,omitempty"`
	Breed       *string `json:"breed,omitempty"`
	Age         *string `json:"age,omitempty"`
	Size        *string `json:"size,omitempty"`
	Sex         *string `json:"sex,omitempty"`
	Description *string `json:"description,omitempty"`
	Img         *string `json:"img,omitempty"`
}

type availabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

// PetList returns the public catalog, newest first.
func PetList(svc pets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pets service unavailable"))
			return
		}

		filters, err := parsePetFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), pets.ListInput{
			Filters: filters,
			Limit:   limit,
			Cursor:  strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func PetGet(svc pets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pets service unavailable"))
			return
		}
		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		pet, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pet)
	}
}

func PetCreate(svc pets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pets service unavailable"))
			return
		}

		var body petRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pet, err := svc.Create(r.Context(), middleware.PrincipalFromContext(r.Context()), pets.CreateInput{
			Name:        validators.SanitizeString(body.Name, 120),
			Type:        enums.PetType(strings.TrimSpace(body.Type)),
			Breed:       body.Breed,
			Age:         body.Age,
			Size:        enums.PetSize(strings.TrimSpace(body.Size)),
			Sex:         enums.PetSex(strings.TrimSpace(body.Sex)),
			Description: validators.SanitizeOptional(body.Description, 2000),
			Img:         body.Img,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, pet)
	}
}

func PetUpdate(svc pets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pets service unavailable"))
			return
		}
		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body petUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := pets.UpdateInput{
			Name:        body.Name,
			Breed:       body.Breed,
			Age:         body.Age,
			Description: body.Description,
			Img:         body.Img,
		}
		if body.Type != nil {
			v := enums.PetType(strings.TrimSpace(*body.Type))
			input.Type = &v
		}
		if body.Size != nil {
			v := enums.PetSize(strings.TrimSpace(*body.Size))
			input.Size = &v
		}
		if body.Sex != nil {
			v := enums.PetSex(strings.TrimSpace(*body.Sex))
			input.Sex = &v
		}

		pet, err := svc.Update(r.Context(), middleware.PrincipalFromContext(r.Context()), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pet)
	}
}

func PetDelete(svc pets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pets service unavailable"))
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
		responses.WriteSuccessMessage(w, http.StatusOK, nil, "pet deleted")
	}
}

// PetSetAvailability lets the owning foundation list or unlist a pet.
func PetSetAvailability(svc pets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pets service unavailable"))
			return
		}
		id, err := validators.ParseURLUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body availabilityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pet, err := svc.SetAvailability(r.Context(), middleware.PrincipalFromContext(r.Context()), id, *body.Available)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pet)
	}
}

func parsePetFilters(r *http.Request) (pets.ListFilters, error) {
	var filters pets.ListFilters
	q := r.URL.Query()

	if raw := strings.TrimSpace(q.Get("type")); raw != "" {
		v, err := enums.ParsePetType(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid type filter")
		}
		filters.Type = &v
	}
	if raw := strings.TrimSpace(q.Get("size")); raw != "" {
		v, err := enums.ParsePetSize(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid size filter")
		}
		filters.Size = &v
	}
	if raw := strings.TrimSpace(q.Get("sex")); raw != "" {
		v, err := enums.ParsePetSex(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sex filter")
		}
		filters.Sex = &v
	}

	available, err := validators.ParseQueryBool(r, "available")
	if err != nil {
		return filters, err
	}
	filters.Available = available

	foundationID, err := validators.ParseQueryUUID(r, "foundation_id")
	if err != nil {
		return filters, err
	}
	filters.FoundationID = foundationID
	return filters, nil
}
