package queue

import (
	"clinic-queue-server/internal/events"
	"clinic-queue-server/internal/models"
)

// Action names a state-machine transition an actor can request.
type Action string

const (
	ActionAccept          Action = "ACCEPT"
	ActionReject          Action = "REJECT"
	ActionStart           Action = "START"
	ActionComplete        Action = "COMPLETE"
	ActionCancelByPatient Action = "CANCEL_BY_PATIENT"
	ActionCancelByAdmin   Action = "CANCEL_BY_ADMIN"
)

// rule describes one transition: which prior states permit it, the target
// state, and the domain event a successful transition emits. Actor
// authorization happens before the rule is applied (route middleware plus
// the ownership checks in the service). All appointment status changes flow
// through this table; the conditional UPDATE against rule.from is what
// defends against double submission.
type rule struct {
	from  []models.AppointmentStatus
	to    models.AppointmentStatus
	event events.Type
}

var transitions = map[Action]rule{
	ActionAccept: {
		from:  []models.AppointmentStatus{models.StatusRequested},
		to:    models.StatusAccepted,
		event: events.AppointmentConfirmed,
	},
	ActionReject: {
		from:  []models.AppointmentStatus{models.StatusRequested},
		to:    models.StatusRejected,
		event: events.AppointmentRejected,
	},
	ActionStart: {
		from:  []models.AppointmentStatus{models.StatusAccepted},
		to:    models.StatusInProgress,
		event: events.AppointmentReminder, // "your turn now"
	},
	ActionComplete: {
		from:  []models.AppointmentStatus{models.StatusInProgress},
		to:    models.StatusCompleted,
		event: events.AppointmentCompleted,
	},
	ActionCancelByPatient: {
		from:  []models.AppointmentStatus{models.StatusRequested, models.StatusAccepted},
		to:    models.StatusCancelled,
		event: events.AppointmentCancelledByPatient,
	},
	ActionCancelByAdmin: {
		// admin may force-cancel from any non-terminal state
		from:  []models.AppointmentStatus{models.StatusRequested, models.StatusAccepted, models.StatusInProgress},
		to:    models.StatusCancelled,
		event: events.AppointmentCancelledByAdmin,
	},
}

// ruleFor returns the transition rule for an action.
func ruleFor(action Action) (rule, bool) {
	r, ok := transitions[action]
	return r, ok
}

// CanTransition reports whether an appointment in the given status may take
// the action.
func CanTransition(status models.AppointmentStatus, action Action) bool {
	r, ok := transitions[action]
	if !ok {
		return false
	}
	for _, s := range r.from {
		if s == status {
			return true
		}
	}
	return false
}
