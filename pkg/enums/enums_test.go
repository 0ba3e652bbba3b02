package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserRole(t *testing.T) {
	role, err := ParseUserRole("foundation")
	require.NoError(t, err)
	assert.Equal(t, UserRoleFoundation, role)

	_, err = ParseUserRole("admin")
	assert.EqualError(t, err, `invalid user role "admin"`)
}

func TestAdoptionStatusPredicates(t *testing.T) {
	assert.True(t, AdoptionStatusApproved.IsTerminal())
	assert.True(t, AdoptionStatusRejected.IsTerminal())
	assert.False(t, AdoptionStatusContacted.IsTerminal())
	assert.True(t, AdoptionStatusPending.IsOpen())
	assert.False(t, AdoptionStatus("archived").IsValid())
}

func TestVisitStatusTerminal(t *testing.T) {
	for _, s := range validVisitStatuses {
		want := s == VisitStatusCompleted || s == VisitStatusCancelled
		assert.Equal(t, want, s.IsTerminal(), s)
	}
}

func TestParseCarnetKindPath(t *testing.T) {
	kind, err := ParseCarnetKindPath("dewormings")
	require.NoError(t, err)
	assert.Equal(t, CarnetKindDeworming, kind)

	kind, err = ParseCarnetKindPath("bath")
	require.NoError(t, err)
	assert.Equal(t, CarnetKindBath, kind)

	_, err = ParseCarnetKindPath("surgeries")
	assert.Error(t, err)

	assert.False(t, CarnetKindProcedure.HasDueDate())
	assert.True(t, CarnetKindVaccine.HasDueDate())
}

func TestNeedsAttention(t *testing.T) {
	assert.True(t, NeedsAttention(HealthStatusPoor, BehaviorStatusGood))
	assert.True(t, NeedsAttention(HealthStatusGood, BehaviorStatusProblematic))
	assert.False(t, NeedsAttention(HealthStatusGood, BehaviorStatusAdapting))
}

func TestOutboxEventTypes(t *testing.T) {
	got, err := ParseOutboxEventType("visit_status_changed")
	require.NoError(t, err)
	assert.Equal(t, EventVisitStatusChanged, got)
	assert.True(t, AggregateNotification.IsValid())
	assert.True(t, OutboxDLQReasonMaxAttempts.IsValid())
	assert.False(t, OutboxDLQErrorReason("other").IsValid())
}
