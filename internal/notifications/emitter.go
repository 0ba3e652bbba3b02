package notifications

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huellitas/huellitas-backend/pkg/db/models"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	"github.com/huellitas/huellitas-backend/pkg/outbox"
	"github.com/huellitas/huellitas-backend/pkg/outbox/payloads"
)

// Notice is a notification to deliver to a single user.
type Notice struct {
	UserID  uuid.UUID
	Type    enums.NotificationType
	Title   string
	Message string
	Link    string
}

// Emitter persists notifications inside the caller's transaction so a state
// change and its notification commit or roll back together.
type Emitter struct {
	repo   Repository
	outbox outbox.Emitter
}

func NewEmitter(repo Repository, out outbox.Emitter) (*Emitter, error) {
	if repo == nil {
		return nil, errors.New("notifications repository required")
	}
	if out == nil {
		return nil, errors.New("outbox emitter required")
	}
	return &Emitter{repo: repo, outbox: out}, nil
}

// Notify writes the notification row and a notification_created outbox event.
func (e *Emitter) Notify(ctx context.Context, tx *gorm.DB, notice Notice) (*models.Notification, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	if notice.UserID == uuid.Nil {
		return nil, errors.New("notification recipient required")
	}
	if !notice.Type.IsValid() {
		return nil, errors.New("unknown notification type " + string(notice.Type))
	}

	row := &models.Notification{
		UserID:  notice.UserID,
		Type:    notice.Type,
		Title:   strings.TrimSpace(notice.Title),
		Message: strings.TrimSpace(notice.Message),
	}
	if link := strings.TrimSpace(notice.Link); link != "" {
		row.Link = &link
	}
	if err := e.repo.WithTx(tx).Create(ctx, row); err != nil {
		return nil, err
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventNotificationCreated,
		AggregateType: enums.AggregateNotification,
		AggregateID:   row.ID,
		Data: payloads.NotificationCreatedEvent{
			NotificationID: row.ID,
			UserID:         row.UserID,
			Type:           row.Type,
			Title:          row.Title,
			Message:        row.Message,
			Link:           row.Link,
		},
	}
	if err := e.outbox.Emit(ctx, tx, event); err != nil {
		return nil, err
	}
	return row, nil
}
