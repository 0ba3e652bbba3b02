package reminders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/huellitas/huellitas-backend/pkg/auth"
	"github.com/huellitas/huellitas-backend/pkg/db/dbtest"
	"github.com/huellitas/huellitas-backend/pkg/db/models"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	pkgerrors "github.com/huellitas/huellitas-backend/pkg/errors"
)

var fixedNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	svc        *service
	conn       *gorm.DB
	foundation auth.Principal
	adopter    auth.Principal
	adopted    models.Pet
	sheltered  models.Pet
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	client := dbtest.Open(t)
	conn := client.DB()
	s, err := NewService(NewRepository(conn), Options{})
	require.NoError(t, err)
	svc := s.(*service)
	svc.now = func() time.Time { return fixedNow }

	foundation := dbtest.User(t, conn, enums.UserRoleFoundation)
	adopter := dbtest.User(t, conn, enums.UserRoleAdopter)
	adopted := dbtest.Pet(t, conn, foundation.ID)
	sheltered := dbtest.Pet(t, conn, foundation.ID)
	dbtest.Adoption(t, conn, adopted, adopter.ID, enums.AdoptionStatusApproved)

	creator := foundation.ID
	next := func(v string) *string { return &v }
	require.NoError(t, conn.Create(&models.CarnetVaccine{
		PetID: adopted.ID, Name: "Rabies", AppliedOn: "2025-03-04", NextDueOn: next("2026-03-04"), CreatedBy: creator,
	}).Error)
	require.NoError(t, conn.Create(&models.CarnetDeworming{
		PetID: adopted.ID, Product: "Drontal", Kind: enums.DewormingKindInternal,
		AppliedOn: "2026-01-28", NextDueOn: next("2026-02-28"), CreatedBy: creator,
	}).Error)
	require.NoError(t, conn.Create(&models.CarnetMedication{
		PetID: adopted.ID, Name: "Amoxicillin", Dosage: "250mg", Frequency: "12h",
		StartOn: "2026-02-25", EndOn: next("2026-03-11"), CreatedBy: creator,
	}).Error)
	require.NoError(t, conn.Create(&models.CarnetBath{
		PetID: sheltered.ID, BathedOn: "2026-02-06", NextDueOn: next("2026-03-06"), CreatedBy: creator,
	}).Error)
	require.NoError(t, conn.Create(&models.CarnetProcedure{
		PetID: sheltered.ID, Name: "Sterilization", PerformedOn: "2026-03-02", CreatedBy: creator,
	}).Error)

	return &harness{
		svc:        svc,
		conn:       conn,
		foundation: auth.Principal{UserID: foundation.ID, Role: enums.UserRoleFoundation},
		adopter:    auth.Principal{UserID: adopter.ID, Role: enums.UserRoleAdopter},
		adopted:    adopted,
		sheltered:  sheltered,
	}
}

func TestListSyncsDueEntriesForAdopter(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	res, err := h.svc.List(ctx, h.adopter, h.adopter.UserID)
	require.NoError(t, err)
	assert.Equal(t, DefaultPollAfterSeconds, res.PollAfterSeconds)
	require.Len(t, res.Items, 1)
	item := res.Items[0]
	assert.Equal(t, enums.CarnetKindVaccine, item.SourceKind)
	assert.Equal(t, "2026-03-04", item.DueDate)
	assert.Equal(t, "Vaccine due: Rabies", item.Title)
	assert.Contains(t, item.Message, "Luna")
	assert.False(t, item.IsRead)

	again, err := h.svc.List(ctx, h.adopter, h.adopter.UserID)
	require.NoError(t, err)
	assert.Len(t, again.Items, 1)
	assert.Equal(t, int64(1), dbtest.Count(t, h.conn, &models.Reminder{}))
}

func TestFoundationReceivesRemindersForPetsNotYetAdopted(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	res, err := h.svc.List(ctx, h.foundation, h.foundation.UserID)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, h.sheltered.ID, res.Items[0].PetID)
	assert.Equal(t, enums.CarnetKindBath, res.Items[0].SourceKind)
}

func TestSyncAllReturnsOnlyNewReminders(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.svc.List(ctx, h.adopter, h.adopter.UserID)
	require.NoError(t, err)

	created, err := h.svc.SyncAll(ctx)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, h.foundation.UserID, created[0].UserID)

	created, err = h.svc.SyncAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, created)

	h.svc.now = func() time.Time { return fixedNow.AddDate(0, 0, 5) }
	created, err = h.svc.SyncAll(ctx)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, enums.CarnetKindMedication, created[0].SourceKind)
	assert.Equal(t, h.adopter.UserID, created[0].UserID)
}

func TestWindowIsConfigurable(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.svc.opts.WindowDays = 2

	created, err := h.svc.SyncAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestMarkRead(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	res, err := h.svc.List(ctx, h.adopter, h.adopter.UserID)
	require.NoError(t, err)
	id := res.Items[0].ID

	err = h.svc.MarkRead(ctx, h.foundation, id)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	err = h.svc.MarkRead(ctx, h.adopter, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, h.svc.MarkRead(ctx, h.adopter, id))
	res, err = h.svc.List(ctx, h.adopter, h.adopter.UserID)
	require.NoError(t, err)
	assert.True(t, res.Items[0].IsRead)
	require.NotNil(t, res.Items[0].ReadAt)

	_, err = h.svc.List(ctx, h.adopter, h.foundation.UserID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}
