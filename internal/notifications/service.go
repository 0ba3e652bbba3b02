package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/huellitas/huellitas-backend/pkg/auth"
	"github.com/huellitas/huellitas-backend/pkg/db/models"
	pkgerrors "github.com/huellitas/huellitas-backend/pkg/errors"
	"github.com/huellitas/huellitas-backend/pkg/pagination"
)

// DefaultPollAfterSeconds bounds how stale a client's bell may get.
const DefaultPollAfterSeconds = 30

// Service defines notification list/read operations.
type Service interface {
	List(ctx context.Context, principal auth.Principal, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, principal auth.Principal, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, principal auth.Principal, userID uuid.UUID) (int64, error)
}

type service struct {
	repo      Repository
	pollAfter int
	now       func() time.Time
}

// ListParams configures pagination for notifications.
type ListParams struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items            []models.Notification `json:"items"`
	Cursor           string                `json:"cursor"`
	UnreadCount      int64                 `json:"unread_count"`
	PollAfterSeconds int                   `json:"poll_after_seconds"`
}

// NewService wires notifications dependencies. pollAfterSeconds <= 0 falls
// back to DefaultPollAfterSeconds.
func NewService(repo Repository, pollAfterSeconds int) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if pollAfterSeconds <= 0 {
		pollAfterSeconds = DefaultPollAfterSeconds
	}
	return &service{
		repo:      repo,
		pollAfter: pollAfterSeconds,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) List(ctx context.Context, principal auth.Principal, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if err := principal.RequireSelf(params.UserID); err != nil {
		return nil, err
	}

	query := listNotificationsParams{
		UserID:     params.UserID,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	unread, err := s.repo.CountUnread(ctx, params.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}

	items, cursor := pagination.Trim(rows, params.Limit, func(n models.Notification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})
	if items == nil {
		items = []models.Notification{}
	}

	return &ListResult{
		Items:            items,
		Cursor:           cursor,
		UnreadCount:      unread,
		PollAfterSeconds: s.pollAfter,
	}, nil
}

func (s *service) MarkRead(ctx context.Context, principal auth.Principal, notificationID uuid.UUID) error {
	if principal.IsZero() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, principal.UserID, notificationID, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, principal auth.Principal, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if err := principal.RequireSelf(userID); err != nil {
		return 0, err
	}

	count, err := s.repo.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
