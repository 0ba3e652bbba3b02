package carnet

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huellitas/huellitas-backend/pkg/auth"
	"github.com/huellitas/huellitas-backend/pkg/db/dbtest"
	"github.com/huellitas/huellitas-backend/pkg/enums"
	pkgerrors "github.com/huellitas/huellitas-backend/pkg/errors"
)

type harness struct {
	svc        Service
	foundation auth.Principal
	adopter    auth.Principal
	applicant  auth.Principal
	petID      uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()))
	require.NoError(t, err)

	conn := client.DB()
	foundation := dbtest.User(t, conn, enums.UserRoleFoundation)
	adopter := dbtest.User(t, conn, enums.UserRoleAdopter)
	applicant := dbtest.User(t, conn, enums.UserRoleAdopter)
	pet := dbtest.Pet(t, conn, foundation.ID)
	dbtest.Adoption(t, conn, pet, adopter.ID, enums.AdoptionStatusApproved)
	dbtest.Adoption(t, conn, pet, applicant.ID, enums.AdoptionStatusPending)

	return &harness{
		svc:        svc,
		foundation: auth.Principal{UserID: foundation.ID, Role: enums.UserRoleFoundation},
		adopter:    auth.Principal{UserID: adopter.ID, Role: enums.UserRoleAdopter},
		applicant:  auth.Principal{UserID: applicant.ID, Role: enums.UserRoleAdopter},
		petID:      pet.ID,
	}
}

func strPtr(v string) *string { return &v }

func TestAddEntriesAndGetCarnet(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	vaccine, err := h.svc.AddVaccine(ctx, h.foundation, h.petID, VaccineInput{
		Name:        " Rabies ",
		AppliedOn:   "2026-02-01",
		NextDueOn:   strPtr("2027-02-01"),
		BatchNumber: strPtr("  "),
	})
	require.NoError(t, err)
	assert.Equal(t, "Rabies", vaccine.Name)
	assert.Nil(t, vaccine.BatchNumber)
	assert.Equal(t, h.foundation.UserID, vaccine.CreatedBy)

	_, err = h.svc.AddDeworming(ctx, h.adopter, h.petID, DewormingInput{
		Product:   "Drontal",
		Kind:      enums.DewormingKindInternal,
		AppliedOn: "2026-02-10",
	})
	require.NoError(t, err)

	_, err = h.svc.AddBath(ctx, h.adopter, h.petID, BathInput{BathedOn: "2026-02-12", NextDueOn: strPtr("2026-03-12")})
	require.NoError(t, err)

	_, err = h.svc.AddProcedure(ctx, h.foundation, h.petID, ProcedureInput{Name: "Sterilization", PerformedOn: "2025-12-01"})
	require.NoError(t, err)

	_, err = h.svc.AddMedication(ctx, h.foundation, h.petID, MedicationInput{
		Name:      "Amoxicillin",
		Dosage:    "250mg",
		Frequency: "every 12h",
		StartOn:   "2026-02-20",
		EndOn:     strPtr("2026-02-27"),
	})
	require.NoError(t, err)

	c, err := h.svc.Get(ctx, h.adopter, h.petID)
	require.NoError(t, err)
	assert.Len(t, c.Vaccines, 1)
	assert.Len(t, c.Dewormings, 1)
	assert.Len(t, c.Baths, 1)
	assert.Len(t, c.Procedures, 1)
	assert.Len(t, c.Medications, 1)
	assert.Equal(t, enums.DewormingKindInternal, c.Dewormings[0].Kind)
}

func TestGuardianAccess(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.svc.Get(ctx, h.applicant, h.petID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = h.svc.Get(ctx, auth.Principal{}, h.petID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	other := auth.Principal{UserID: uuid.New(), Role: enums.UserRoleFoundation}
	_, err = h.svc.AddBath(ctx, other, h.petID, BathInput{BathedOn: "2026-02-12"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = h.svc.Get(ctx, h.foundation, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestAddValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.svc.AddVaccine(ctx, h.foundation, h.petID, VaccineInput{
		AppliedOn: "2026-02-30",
		NextDueOn: strPtr("soon"),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details := pkgerrors.As(err).Details().(map[string]string)
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "appliedOn")
	assert.Contains(t, details, "nextDueOn")

	_, err = h.svc.AddMedication(ctx, h.foundation, h.petID, MedicationInput{
		Name:      "Meloxicam",
		Dosage:    "1ml",
		Frequency: "daily",
		StartOn:   "2026-02-20",
		EndOn:     strPtr("2026-02-19"),
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Contains(t, pkgerrors.As(err).Details().(map[string]string), "endOn")

	_, err = h.svc.AddDeworming(ctx, h.foundation, h.petID, DewormingInput{Product: "x", Kind: "oral", AppliedOn: "2026-02-01"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDeleteEntry(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	bath, err := h.svc.AddBath(ctx, h.foundation, h.petID, BathInput{BathedOn: "2026-02-12"})
	require.NoError(t, err)

	err = h.svc.DeleteEntry(ctx, h.foundation, h.petID, enums.CarnetKindVaccine, bath.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = h.svc.DeleteEntry(ctx, h.applicant, h.petID, enums.CarnetKindBath, bath.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	require.NoError(t, h.svc.DeleteEntry(ctx, h.adopter, h.petID, enums.CarnetKindBath, bath.ID))

	c, err := h.svc.Get(ctx, h.foundation, h.petID)
	require.NoError(t, err)
	assert.Empty(t, c.Baths)

	err = h.svc.DeleteEntry(ctx, h.foundation, h.petID, "surgery", bath.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
