package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clinic-queue-server/internal/models"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		status models.AppointmentStatus
		action Action
		want   bool
	}{
		{models.StatusRequested, ActionAccept, true},
		{models.StatusRequested, ActionReject, true},
		{models.StatusRequested, ActionCancelByPatient, true},
		{models.StatusRequested, ActionCancelByAdmin, true},
		{models.StatusRequested, ActionStart, false},
		{models.StatusRequested, ActionComplete, false},

		{models.StatusAccepted, ActionStart, true},
		{models.StatusAccepted, ActionCancelByPatient, true},
		{models.StatusAccepted, ActionCancelByAdmin, true},
		{models.StatusAccepted, ActionAccept, false},
		{models.StatusAccepted, ActionComplete, false},

		{models.StatusInProgress, ActionComplete, true},
		{models.StatusInProgress, ActionCancelByAdmin, true},
		{models.StatusInProgress, ActionCancelByPatient, false},
		{models.StatusInProgress, ActionStart, false},

		// terminal states accept nothing
		{models.StatusCompleted, ActionCancelByAdmin, false},
		{models.StatusCompleted, ActionStart, false},
		{models.StatusRejected, ActionAccept, false},
		{models.StatusCancelled, ActionAccept, false},
		{models.StatusCancelled, ActionCancelByAdmin, false},
	}

	for _, tc := range cases {
		got := CanTransition(tc.status, tc.action)
		assert.Equal(t, tc.want, got, "%s -> %s", tc.status, tc.action)
	}
}

func TestRuleForUnknownAction(t *testing.T) {
	_, ok := ruleFor("TELEPORT")
	assert.False(t, ok)
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, models.StatusCompleted.IsTerminal())
	assert.True(t, models.StatusRejected.IsTerminal())
	assert.True(t, models.StatusCancelled.IsTerminal())
	assert.False(t, models.StatusRequested.IsTerminal())
	assert.False(t, models.StatusAccepted.IsTerminal())
	assert.False(t, models.StatusInProgress.IsTerminal())
}
