package followups

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huellitas/huellitas-backend/internal/notifications"
	"github.com/huellitas/huellitas-backend/pkg/auth"
	"github.com/huellitas/huellitas-backend/pkg/db"
	"github.com/huellitas/huellitas-backend/pkg/db/dbtest"
	"github.com/huellitas/huellitas-backend/pkg/db/models"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	pkgerrors "github.com/huellitas/huellitas-backend/pkg/errors"
	"github.com/huellitas/huellitas-backend/pkg/outbox"
)

type harness struct {
	client     *db.Client
	svc        Service
	foundation auth.Principal
	adopter    auth.Principal
	adoption   models.AdoptionRequest
}

func newHarness(t *testing.T, status enums.AdoptionStatus) *harness {
	t.Helper()
	client := dbtest.Open(t)
	out := outbox.NewService(outbox.NewRepository(client.DB()), nil)
	emitter, err := notifications.NewEmitter(notifications.NewRepository(client.DB()), out)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(client.DB()), client, out, emitter)
	require.NoError(t, err)

	foundation := dbtest.User(t, client.DB(), enums.UserRoleFoundation)
	adopter := dbtest.User(t, client.DB(), enums.UserRoleAdopter)
	pet := dbtest.Pet(t, client.DB(), foundation.ID)
	return &harness{
		client:     client,
		svc:        svc,
		foundation: auth.Principal{UserID: foundation.ID, Role: enums.UserRoleFoundation},
		adopter:    auth.Principal{UserID: adopter.ID, Role: enums.UserRoleAdopter},
		adoption:   dbtest.Adoption(t, client.DB(), pet, adopter.ID, status),
	}
}

func (h *harness) input() CreateInput {
	notes := "  sleeps all day  "
	return CreateInput{
		AdoptionRequestID:   h.adoption.ID,
		HealthStatus:        enums.HealthStatusGood,
		BehaviorStatus:      enums.BehaviorStatusAdapting,
		AdditionalNotes:     &notes,
		Photos:              []string{"https://cdn.example.com/luna.jpg", " "},
		OverallSatisfaction: 4,
	}
}

func TestCreateStoresReportAndNotifiesFoundation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, enums.AdoptionStatusApproved)

	f, err := h.svc.Create(ctx, h.adopter, h.input())
	require.NoError(t, err)
	assert.Equal(t, h.adoption.PetID, f.PetID)
	assert.Equal(t, h.foundation.UserID, f.FoundationID)
	assert.Equal(t, "sleeps all day", *f.AdditionalNotes)
	assert.Equal(t, []string{"https://cdn.example.com/luna.jpg"}, []string(f.Photos))
	assert.False(t, f.Reviewed)

	conn := h.client.DB()
	assert.Equal(t, int64(1), dbtest.Count(t, conn, &models.Notification{},
		"user_id = ? AND type = ?", h.foundation.UserID, enums.NotificationFollowUpSubmitted))
	assert.Equal(t, int64(1), dbtest.Count(t, conn, &models.OutboxEvent{},
		"event_type = ? AND aggregate_id = ?", enums.EventFollowUpSubmitted, f.ID))

	var n models.Notification
	require.NoError(t, conn.First(&n, "user_id = ?", h.foundation.UserID).Error)
	assert.Equal(t, "New follow-up report", n.Title)
}

func TestCreateFlagsReportsNeedingAttention(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, enums.AdoptionStatusApproved)

	input := h.input()
	input.HealthStatus = enums.HealthStatusPoor
	_, err := h.svc.Create(ctx, h.adopter, input)
	require.NoError(t, err)

	var n models.Notification
	require.NoError(t, h.client.DB().First(&n, "user_id = ?", h.foundation.UserID).Error)
	assert.Equal(t, "Follow-up needs attention", n.Title)
}

func TestCreateGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("requires approved adoption", func(t *testing.T) {
		h := newHarness(t, enums.AdoptionStatusContacted)
		_, err := h.svc.Create(ctx, h.adopter, h.input())
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))
	})

	t.Run("only the adopter of the request", func(t *testing.T) {
		h := newHarness(t, enums.AdoptionStatusApproved)
		other := dbtest.User(t, h.client.DB(), enums.UserRoleAdopter)
		_, err := h.svc.Create(ctx, auth.Principal{UserID: other.ID, Role: enums.UserRoleAdopter}, h.input())
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	})

	t.Run("foundations cannot submit", func(t *testing.T) {
		h := newHarness(t, enums.AdoptionStatusApproved)
		_, err := h.svc.Create(ctx, h.foundation, h.input())
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	})

	t.Run("validates fields", func(t *testing.T) {
		h := newHarness(t, enums.AdoptionStatusApproved)
		input := h.input()
		input.OverallSatisfaction = 6
		input.HealthStatus = "sick"
		input.Photos = []string{"not a url"}
		_, err := h.svc.Create(ctx, h.adopter, input)
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		details, ok := pkgerrors.As(err).Details().(map[string]string)
		require.True(t, ok)
		assert.Contains(t, details, "overallSatisfaction")
		assert.Contains(t, details, "healthStatus")
		assert.Contains(t, details, "photos")
		assert.Equal(t, int64(0), dbtest.Count(t, h.client.DB(), &models.FollowUp{}))
	})

	t.Run("unknown adoption", func(t *testing.T) {
		h := newHarness(t, enums.AdoptionStatusApproved)
		input := h.input()
		input.AdoptionRequestID = h.foundation.UserID
		_, err := h.svc.Create(ctx, h.adopter, input)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	})
}

func TestReviewRecordsFeedbackAndNotifiesAdopter(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, enums.AdoptionStatusApproved)
	f, err := h.svc.Create(ctx, h.adopter, h.input())
	require.NoError(t, err)

	_, err = h.svc.Review(ctx, h.foundation, f.ID, "   ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	outsider := dbtest.User(t, h.client.DB(), enums.UserRoleFoundation)
	_, err = h.svc.Review(ctx, auth.Principal{UserID: outsider.ID, Role: enums.UserRoleFoundation}, f.ID, "ok")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	reviewed, err := h.svc.Review(ctx, h.foundation, f.ID, " Looks great ")
	require.NoError(t, err)
	assert.True(t, reviewed.Reviewed)
	assert.Equal(t, "Looks great", *reviewed.FoundationFeedback)
	require.NotNil(t, reviewed.ReviewedAt)

	conn := h.client.DB()
	assert.Equal(t, int64(1), dbtest.Count(t, conn, &models.Notification{},
		"user_id = ? AND type = ?", h.adopter.UserID, enums.NotificationFollowUpReviewed))
	assert.Equal(t, int64(1), dbtest.Count(t, conn, &models.OutboxEvent{},
		"event_type = ? AND aggregate_id = ?", enums.EventFollowUpReviewed, f.ID))
}

func TestListsAndAccess(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, enums.AdoptionStatusApproved)
	first, err := h.svc.Create(ctx, h.adopter, h.input())
	require.NoError(t, err)
	_, err = h.svc.Create(ctx, h.adopter, h.input())
	require.NoError(t, err)
	_, err = h.svc.Review(ctx, h.foundation, first.ID, "thanks")
	require.NoError(t, err)

	mine, err := h.svc.ListByUser(ctx, h.adopter, h.adopter.UserID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	pending := false
	unreviewed, err := h.svc.ListByFoundation(ctx, h.foundation, h.foundation.UserID, &pending)
	require.NoError(t, err)
	assert.Len(t, unreviewed, 1)

	all, err := h.svc.ListByFoundation(ctx, h.foundation, h.foundation.UserID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byAdoption, err := h.svc.ListByAdoption(ctx, h.foundation, h.adoption.ID)
	require.NoError(t, err)
	assert.Len(t, byAdoption, 2)

	_, err = h.svc.ListByUser(ctx, h.foundation, h.adopter.UserID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	stranger := dbtest.User(t, h.client.DB(), enums.UserRoleAdopter)
	strangerP := auth.Principal{UserID: stranger.ID, Role: enums.UserRoleAdopter}
	_, err = h.svc.Get(ctx, strangerP, first.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = h.svc.ListByAdoption(ctx, strangerP, h.adoption.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	got, err := h.svc.Get(ctx, h.foundation, first.ID)
	require.NoError(t, err)
	assert.True(t, got.Reviewed)
}

func TestDeleteIsAdopterOnly(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, enums.AdoptionStatusApproved)
	f, err := h.svc.Create(ctx, h.adopter, h.input())
	require.NoError(t, err)

	err = h.svc.Delete(ctx, h.foundation, f.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	require.NoError(t, h.svc.Delete(ctx, h.adopter, f.ID))
	_, err = h.svc.Get(ctx, h.adopter, f.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
