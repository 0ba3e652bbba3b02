// Package reminders turns upcoming carnet due dates into per-user reminders.
package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huellitas/huellitas-backend/pkg/auth"
	"github.com/huellitas/huellitas-backend/pkg/db/models"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	pkgerrors "github.com/huellitas/huellitas-backend/pkg/errors"
	"github.com/huellitas/huellitas-backend/pkg/types"
)

const (
	DefaultWindowDays       = 7
	DefaultPollAfterSeconds = 300
)

type Service interface {
	List(ctx context.Context, principal auth.Principal, userID uuid.UUID) (*ListResult, error)
	MarkRead(ctx context.Context, principal auth.Principal, id uuid.UUID) error
	// SyncAll materializes reminders for every pet and returns the new rows.
	SyncAll(ctx context.Context) ([]models.Reminder, error)
}

type ListResult struct {
	Items            []models.Reminder `json:"items"`
	PollAfterSeconds int               `json:"poll_after_seconds"`
}

type Options struct {
	WindowDays       int
	PollAfterSeconds int
	Location         *time.Location
}

type service struct {
	repo *Repository
	opts Options
	now  func() time.Time
}

func NewService(repo *Repository, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reminder repository required")
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultWindowDays
	}
	if opts.PollAfterSeconds <= 0 {
		opts.PollAfterSeconds = DefaultPollAfterSeconds
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &service{repo: repo, opts: opts, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, principal auth.Principal, userID uuid.UUID) (*ListResult, error) {
	if err := principal.RequireSelf(userID); err != nil {
		return nil, err
	}
	petIDs, err := s.repo.PetsForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user pets")
	}
	if petIDs == nil {
		petIDs = []uuid.UUID{}
	}
	if _, err := s.sync(ctx, petIDs); err != nil {
		return nil, err
	}

	items, err := s.repo.ListByUser(ctx, userID, types.Today(s.now(), s.opts.Location))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reminders")
	}
	if items == nil {
		items = []models.Reminder{}
	}
	return &ListResult{Items: items, PollAfterSeconds: s.opts.PollAfterSeconds}, nil
}

func (s *service) MarkRead(ctx context.Context, principal auth.Principal, id uuid.UUID) error {
	if principal.IsZero() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "reminder not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reminder")
	}
	if row.UserID != principal.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "reminder belongs to another user")
	}
	if err := s.repo.MarkRead(ctx, id, s.now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark reminder read")
	}
	return nil
}

func (s *service) SyncAll(ctx context.Context) ([]models.Reminder, error) {
	return s.sync(ctx, nil)
}

// sync is idempotent: the (source_kind, source_id, due_date) key makes repeat
// inserts no-ops.
func (s *service) sync(ctx context.Context, petIDs []uuid.UUID) ([]models.Reminder, error) {
	today := types.Today(s.now(), s.opts.Location)
	until, err := types.AddDays(today, s.opts.WindowDays)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute reminder window")
	}

	entries, err := s.repo.DueEntries(ctx, today, until, petIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load due carnet entries")
	}
	if len(entries) == 0 {
		return nil, nil
	}

	guardians, err := s.repo.Guardians(ctx, uniquePets(entries))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve reminder recipients")
	}

	var created []models.Reminder
	for _, entry := range entries {
		pet, ok := guardians[entry.PetID]
		if !ok {
			continue
		}
		title, message := describe(entry, pet.Name)
		reminder := models.Reminder{
			UserID:     pet.Recipient(),
			PetID:      entry.PetID,
			SourceKind: entry.Kind,
			SourceID:   entry.ID,
			Title:      title,
			Message:    message,
			DueDate:    entry.DueDate,
		}
		inserted, err := s.repo.Insert(ctx, &reminder)
		if err != nil {
			return created, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert reminder")
		}
		if inserted {
			created = append(created, reminder)
		}
	}
	return created, nil
}

func describe(entry dueEntry, petName string) (string, string) {
	switch entry.Kind {
	case enums.CarnetKindVaccine:
		return "Vaccine due: " + entry.Label,
			fmt.Sprintf("%s is due for the %s vaccine on %s.", petName, entry.Label, entry.DueDate)
	case enums.CarnetKindDeworming:
		return "Deworming due",
			fmt.Sprintf("%s is due for deworming (%s) on %s.", petName, entry.Label, entry.DueDate)
	case enums.CarnetKindBath:
		return "Bath due",
			fmt.Sprintf("%s is due for a bath on %s.", petName, entry.DueDate)
	case enums.CarnetKindMedication:
		return "Medication ending: " + entry.Label,
			fmt.Sprintf("%s finishes %s on %s.", petName, entry.Label, entry.DueDate)
	default:
		return "Carnet reminder", fmt.Sprintf("%s has a carnet date on %s.", petName, entry.DueDate)
	}
}

func uniquePets(entries []dueEntry) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(entries))
	out := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.PetID]; ok {
			continue
		}
		seen[e.PetID] = struct{}{}
		out = append(out, e.PetID)
	}
	return out
}
