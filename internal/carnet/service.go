// Package carnet keeps each pet's medical record: vaccines, dewormings,
// baths, procedures and medications.
package carnet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huellitas/huellitas-backend/pkg/auth"
	"github.com/huellitas/huellitas-backend/pkg/db/models"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	pkgerrors "github.com/huellitas/huellitas-backend/pkg/errors"
	"github.com/huellitas/huellitas-backend/pkg/types"
)

// Carnet groups every section of a pet's record, newest entries first.
type Carnet struct {
	PetID       uuid.UUID                 `json:"pet_id"`
	Vaccines    []models.CarnetVaccine    `json:"vaccines"`
	Dewormings  []models.CarnetDeworming  `json:"dewormings"`
	Baths       []models.CarnetBath       `json:"baths"`
	Procedures  []models.CarnetProcedure  `json:"procedures"`
	Medications []models.CarnetMedication `json:"medications"`
}

type Service interface {
	Get(ctx context.Context, principal auth.Principal, petID uuid.UUID) (*Carnet, error)
	AddVaccine(ctx context.Context, principal auth.Principal, petID uuid.UUID, input VaccineInput) (*models.CarnetVaccine, error)
	AddDeworming(ctx context.Context, principal auth.Principal, petID uuid.UUID, input DewormingInput) (*models.CarnetDeworming, error)
	AddBath(ctx context.Context, principal auth.Principal, petID uuid.UUID, input BathInput) (*models.CarnetBath, error)
	AddProcedure(ctx context.Context, principal auth.Principal, petID uuid.UUID, input ProcedureInput) (*models.CarnetProcedure, error)
	AddMedication(ctx context.Context, principal auth.Principal, petID uuid.UUID, input MedicationInput) (*models.CarnetMedication, error)
	DeleteEntry(ctx context.Context, principal auth.Principal, petID uuid.UUID, kind enums.CarnetKind, entryID uuid.UUID) error
}

type VaccineInput struct {
	Name         string
	AppliedOn    string
	NextDueOn    *string
	Veterinarian *string
	BatchNumber  *string
	Notes        *string
}

type DewormingInput struct {
	Product   string
	Kind      enums.DewormingKind
	AppliedOn string
	NextDueOn *string
	Notes     *string
}

type BathInput struct {
	BathedOn  string
	NextDueOn *string
	Products  *string
	Notes     *string
}

type ProcedureInput struct {
	Name         string
	PerformedOn  string
	Veterinarian *string
	Notes        *string
}

type MedicationInput struct {
	Name      string
	Dosage    string
	Frequency string
	StartOn   string
	EndOn     *string
	Notes     *string
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("carnet repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, principal auth.Principal, petID uuid.UUID) (*Carnet, error) {
	if err := s.requireGuardian(ctx, principal, petID); err != nil {
		return nil, err
	}
	c, err := s.repo.Load(ctx, petID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load carnet")
	}
	return c, nil
}

func (s *service) AddVaccine(ctx context.Context, principal auth.Principal, petID uuid.UUID, input VaccineInput) (*models.CarnetVaccine, error) {
	v := &fieldErrors{}
	name := v.required("name", input.Name)
	applied := v.date("appliedOn", input.AppliedOn)
	next := v.dueAfter("nextDueOn", input.NextDueOn, applied)
	return add(ctx, s, principal, petID, v, func() *models.CarnetVaccine {
		return &models.CarnetVaccine{
			PetID:        petID,
			Name:         name,
			AppliedOn:    applied,
			NextDueOn:    next,
			Veterinarian: trimmedPtr(input.Veterinarian),
			BatchNumber:  trimmedPtr(input.BatchNumber),
			Notes:        trimmedPtr(input.Notes),
			CreatedBy:    principal.UserID,
		}
	})
}

func (s *service) AddDeworming(ctx context.Context, principal auth.Principal, petID uuid.UUID, input DewormingInput) (*models.CarnetDeworming, error) {
	v := &fieldErrors{}
	product := v.required("product", input.Product)
	if !input.Kind.IsValid() {
		v.add("kind", "must be one of [internal external]")
	}
	applied := v.date("appliedOn", input.AppliedOn)
	next := v.dueAfter("nextDueOn", input.NextDueOn, applied)
	return add(ctx, s, principal, petID, v, func() *models.CarnetDeworming {
		return &models.CarnetDeworming{
			PetID:     petID,
			Product:   product,
			Kind:      input.Kind,
			AppliedOn: applied,
			NextDueOn: next,
			Notes:     trimmedPtr(input.Notes),
			CreatedBy: principal.UserID,
		}
	})
}

func (s *service) AddBath(ctx context.Context, principal auth.Principal, petID uuid.UUID, input BathInput) (*models.CarnetBath, error) {
	v := &fieldErrors{}
	bathed := v.date("bathedOn", input.BathedOn)
	next := v.dueAfter("nextDueOn", input.NextDueOn, bathed)
	return add(ctx, s, principal, petID, v, func() *models.CarnetBath {
		return &models.CarnetBath{
			PetID:     petID,
			BathedOn:  bathed,
			NextDueOn: next,
			Products:  trimmedPtr(input.Products),
			Notes:     trimmedPtr(input.Notes),
			CreatedBy: principal.UserID,
		}
	})
}

func (s *service) AddProcedure(ctx context.Context, principal auth.Principal, petID uuid.UUID, input ProcedureInput) (*models.CarnetProcedure, error) {
	v := &fieldErrors{}
	name := v.required("name", input.Name)
	performed := v.date("performedOn", input.PerformedOn)
	return add(ctx, s, principal, petID, v, func() *models.CarnetProcedure {
		return &models.CarnetProcedure{
			PetID:        petID,
			Name:         name,
			PerformedOn:  performed,
			Veterinarian: trimmedPtr(input.Veterinarian),
			Notes:        trimmedPtr(input.Notes),
			CreatedBy:    principal.UserID,
		}
	})
}

func (s *service) AddMedication(ctx context.Context, principal auth.Principal, petID uuid.UUID, input MedicationInput) (*models.CarnetMedication, error) {
	v := &fieldErrors{}
	name := v.required("name", input.Name)
	dosage := v.required("dosage", input.Dosage)
	frequency := v.required("frequency", input.Frequency)
	start := v.date("startOn", input.StartOn)
	end := v.dueAfter("endOn", input.EndOn, start)
	return add(ctx, s, principal, petID, v, func() *models.CarnetMedication {
		return &models.CarnetMedication{
			PetID:     petID,
			Name:      name,
			Dosage:    dosage,
			Frequency: frequency,
			StartOn:   start,
			EndOn:     end,
			Notes:     trimmedPtr(input.Notes),
			CreatedBy: principal.UserID,
		}
	})
}

func (s *service) DeleteEntry(ctx context.Context, principal auth.Principal, petID uuid.UUID, kind enums.CarnetKind, entryID uuid.UUID) error {
	if !kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown carnet section")
	}
	if err := s.requireGuardian(ctx, principal, petID); err != nil {
		return err
	}
	n, err := s.repo.DeleteEntry(ctx, kind, petID, entryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete carnet entry")
	}
	if n == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "carnet entry not found")
	}
	return nil
}

// requireGuardian admits the foundation that lists the pet and the adopter
// whose request for it was approved.
func (s *service) requireGuardian(ctx context.Context, principal auth.Principal, petID uuid.UUID) error {
	if principal.IsZero() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	pet, err := s.repo.FindPet(ctx, petID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "pet not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pet")
	}
	if principal.IsFoundation() {
		if pet.FoundationID == principal.UserID {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, "pet belongs to another foundation")
	}
	ok, err := s.repo.IsApprovedAdopter(ctx, petID, principal.UserID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check adoption")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the pet's guardians can access its carnet")
	}
	return nil
}

func add[T any](ctx context.Context, s *service, principal auth.Principal, petID uuid.UUID, v *fieldErrors, build func() *T) (*T, error) {
	if err := v.err(); err != nil {
		return nil, err
	}
	if err := s.requireGuardian(ctx, principal, petID); err != nil {
		return nil, err
	}
	entry := build()
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create carnet entry")
	}
	return entry, nil
}

type fieldErrors map[string]string

func (f *fieldErrors) add(field, msg string) {
	if *f == nil {
		*f = fieldErrors{}
	}
	if _, seen := (*f)[field]; !seen {
		(*f)[field] = msg
	}
}

func (f *fieldErrors) required(field, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		f.add(field, "is required")
	}
	return value
}

func (f *fieldErrors) date(field, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		f.add(field, "is required")
		return ""
	}
	if _, err := types.ParseDate(value); err != nil {
		f.add(field, "must be a YYYY-MM-DD date")
	}
	return value
}

// dueAfter validates an optional date that may not precede from.
func (f *fieldErrors) dueAfter(field string, value *string, from string) *string {
	v := trimmedPtr(value)
	if v == nil {
		return nil
	}
	if _, err := types.ParseDate(*v); err != nil {
		f.add(field, "must be a YYYY-MM-DD date")
		return v
	}
	if from != "" && *v < from {
		f.add(field, "must not be before "+from)
	}
	return v
}

func (f *fieldErrors) err() error {
	if len(*f) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string(*f))
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
