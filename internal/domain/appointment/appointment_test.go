package appointment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusScheduled, StatusCompleted, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusNoShow, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusScheduled, false},
		{StatusNoShow, StatusCompleted, false},
	}

	for _, tt := range tests {
		a := &Appointment{Status: tt.from}
		assert.Equal(t, tt.allowed, a.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestCancel(t *testing.T) {
	by := uuid.New()
	a := &Appointment{Status: StatusScheduled}

	require.NoError(t, a.Cancel("patient request", by))

	assert.Equal(t, StatusCancelled, a.Status)
	assert.Equal(t, "patient request", a.CancellationReason)
	require.NotNil(t, a.CancelledAt)
	require.NotNil(t, a.CancelledBy)
	assert.Equal(t, by, *a.CancelledBy)

	// A cancelled appointment stays cancelled.
	assert.ErrorIs(t, a.Cancel("again", by), ErrInvalidStatusTransition)
}

func TestMatchesSearch(t *testing.T) {
	a := &Appointment{
		PatientName: "Suresh Nair",
		DoctorName:  "Dr. Kavita Joshi",
		Type:        "Consultation",
	}

	assert.True(t, a.MatchesSearch(""))
	assert.True(t, a.MatchesSearch("suresh"))
	assert.True(t, a.MatchesSearch("KAVITA"))
	assert.True(t, a.MatchesSearch("consult"))
	assert.False(t, a.MatchesSearch("cardiology"))
}
