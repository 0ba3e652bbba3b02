package pets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huellitas/huellitas-backend/pkg/auth"
	"github.com/huellitas/huellitas-backend/pkg/db/models"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	pkgerrors "github.com/huellitas/huellitas-backend/pkg/errors"
	"github.com/huellitas/huellitas-backend/pkg/pagination"
)

// Service exposes the pet catalog and foundation listing management.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Pet, error)
	Create(ctx context.Context, principal auth.Principal, input CreateInput) (*models.Pet, error)
	Update(ctx context.Context, principal auth.Principal, id uuid.UUID, input UpdateInput) (*models.Pet, error)
	Delete(ctx context.Context, principal auth.Principal, id uuid.UUID) error
	SetAvailability(ctx context.Context, principal auth.Principal, id uuid.UUID, available bool) (*models.Pet, error)
}

// CreateInput holds a validated listing.
type CreateInput struct {
	Name        string
	Type        enums.PetType
	Breed       *string
	Age         *string
	Size        enums.PetSize
	Sex         enums.PetSex
	Description *string
	Img         *string
}

// UpdateInput carries optional listing changes.
type UpdateInput struct {
	Name        *string
	Type        *enums.PetType
	Breed       *string
	Age         *string
	Size        *enums.PetSize
	Sex         *enums.PetSex
	Description *string
	Img         *string
}

type ListInput struct {
	Filters ListFilters
	Limit   int
	Cursor  string
}

type ListResult struct {
	Items  []models.Pet `json:"items"`
	Cursor string       `json:"cursor"`
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pet repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, input.Filters, cursor, input.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pets")
	}
	items, next := pagination.Trim(rows, input.Limit, func(p models.Pet) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	if items == nil {
		items = []models.Pet{}
	}
	return &ListResult{Items: items, Cursor: next}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	return s.load(ctx, id)
}

func (s *service) Create(ctx context.Context, principal auth.Principal, input CreateInput) (*models.Pet, error) {
	if err := principal.RequireRole(enums.UserRoleFoundation); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Type.IsValid() || !input.Size.IsValid() || !input.Sex.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "type, size and sex must be valid")
	}
	if err := validateImageURL(input.Img); err != nil {
		return nil, err
	}

	pet := &models.Pet{
		FoundationID: principal.UserID,
		Name:         name,
		Type:         input.Type,
		Breed:        trimmed(input.Breed),
		Age:          trimmed(input.Age),
		Size:         input.Size,
		Sex:          input.Sex,
		Description:  trimmed(input.Description),
		Img:          trimmed(input.Img),
		Available:    true,
	}
	if err := s.repo.Create(ctx, pet); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pet")
	}
	return pet, nil
}

func (s *service) Update(ctx context.Context, principal auth.Principal, id uuid.UUID, input UpdateInput) (*models.Pet, error) {
	pet, err := s.loadOwned(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if err := applyUpdate(pet, input); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, pet); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update pet")
	}
	return pet, nil
}

func (s *service) Delete(ctx context.Context, principal auth.Principal, id uuid.UUID) error {
	if _, err := s.loadOwned(ctx, principal, id); err != nil {
		return err
	}
	count, err := s.repo.CountAdoptionRequests(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count adoption requests")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "pet has adoption requests and cannot be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete pet")
	}
	return nil
}

func (s *service) SetAvailability(ctx context.Context, principal auth.Principal, id uuid.UUID, available bool) (*models.Pet, error) {
	pet, err := s.loadOwned(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if pet.Available == available {
		return pet, nil
	}
	if available {
		adopted, err := s.repo.CountAdoptionRequests(ctx, id, enums.AdoptionStatusApproved)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count approved adoption requests")
		}
		if adopted > 0 {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "pet has an approved adoption and cannot be listed again")
		}
	}
	pet.Available = available
	if err := s.repo.Save(ctx, pet); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update pet availability")
	}
	return pet, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	pet, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pet")
	}
	return pet, nil
}

func (s *service) loadOwned(ctx context.Context, principal auth.Principal, id uuid.UUID) (*models.Pet, error) {
	if err := principal.RequireRole(enums.UserRoleFoundation); err != nil {
		return nil, err
	}
	pet, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if pet.FoundationID != principal.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "pet does not belong to foundation")
	}
	return pet, nil
}

func applyUpdate(pet *models.Pet, input UpdateInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		pet.Name = name
	}
	if input.Type != nil {
		if !input.Type.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid pet type")
		}
		pet.Type = *input.Type
	}
	if input.Size != nil {
		if !input.Size.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid pet size")
		}
		pet.Size = *input.Size
	}
	if input.Sex != nil {
		if !input.Sex.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid pet sex")
		}
		pet.Sex = *input.Sex
	}
	if input.Img != nil {
		if err := validateImageURL(input.Img); err != nil {
			return err
		}
		pet.Img = trimmed(input.Img)
	}
	if input.Breed != nil {
		pet.Breed = trimmed(input.Breed)
	}
	if input.Age != nil {
		pet.Age = trimmed(input.Age)
	}
	if input.Description != nil {
		pet.Description = trimmed(input.Description)
	}
	return nil
}

// validateImageURL accepts absolute http(s) URLs only; uploads happen elsewhere.
func validateImageURL(raw *string) error {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	u, err := url.Parse(strings.TrimSpace(*raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return pkgerrors.New(pkgerrors.CodeValidation, "img must be an http(s) URL")
	}
	return nil
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
