package notifications

import (
	"clinic-queue-server/internal/events"
	"clinic-queue-server/internal/models"
)

// message is one composed notification text.
type message struct {
	Title string
	Body  string
}

// catalog maps event type and audience to the composed text. Reminder
// events are further keyed by their sub-kind.
var catalog = map[events.Type]map[models.Role]message{
	events.DoctorApproved: {
		models.RoleDoctor: {
			Title: "Account Approved",
			Body:  "Your account has been approved. You can now start receiving appointments.",
		},
	},
	events.DoctorRejected: {
		models.RoleDoctor: {
			Title: "Account Rejected",
			Body:  "Your account has been rejected. Please contact support for more details.",
		},
	},
	events.AppointmentRequested: {
		models.RoleDoctor: {
			Title: "New Appointment Request",
			Body:  "You have received a new appointment request.",
		},
	},
	events.AppointmentConfirmed: {
		models.RolePatient: {
			Title: "Appointment Confirmed",
			Body:  "Your appointment has been confirmed by the doctor.",
		},
		models.RoleDoctor: {
			Title: "Appointment Confirmed",
			Body:  "You have confirmed an appointment.",
		},
	},
	events.AppointmentRejected: {
		models.RolePatient: {
			Title: "Appointment Rejected",
			Body:  "Your appointment has been rejected by the doctor.",
		},
		models.RoleDoctor: {
			Title: "Appointment Rejected",
			Body:  "You have rejected an appointment.",
		},
	},
	events.AppointmentCancelledByPatient: {
		models.RolePatient: {
			Title: "Appointment Cancelled",
			Body:  "You have cancelled your appointment.",
		},
		models.RoleDoctor: {
			Title: "Appointment Cancelled",
			Body:  "The patient has cancelled the appointment.",
		},
	},
	events.AppointmentCancelledByAdmin: {
		models.RolePatient: {
			Title: "Appointment Cancelled",
			Body:  "Your appointment has been cancelled by the clinic.",
		},
		models.RoleDoctor: {
			Title: "Appointment Cancelled",
			Body:  "An appointment was cancelled by the clinic.",
		},
	},
	events.AppointmentCompleted: {
		models.RolePatient: {
			Title: "Appointment Completed",
			Body:  "Your appointment has been marked as completed.",
		},
	},
	events.VisitSummaryAdded: {
		models.RolePatient: {
			Title: "Visit Summary Added",
			Body:  "Your doctor has added notes and a prescription for your visit.",
		},
	},
}

var reminderMessages = map[string]message{
	events.ReminderNow: {
		Title: "It's Your Turn",
		Body:  "Your token is being called now. Please proceed to the doctor.",
	},
	events.ReminderNear: {
		Title: "Your Turn Is Near",
		Body:  "Your appointment token will be called shortly. Please be ready.",
	},
	string(models.ReminderDayBefore): {
		Title: "Appointment Reminder",
		Body:  "Reminder: You have an appointment tomorrow.",
	},
	string(models.ReminderSameDay): {
		Title: "Appointment Reminder",
		Body:  "Reminder: You have an appointment today.",
	},
	string(models.ReminderFollowUp): {
		Title: "Follow-Up Suggested",
		Body:  "Your doctor suggested a follow-up visit. Please book an appointment.",
	},
}

// messageFor composes the notification text for one audience of an event.
func messageFor(e events.Event, audience models.Role) (message, bool) {
	if e.Type == events.AppointmentReminder {
		if audience != models.RolePatient {
			return message{}, false
		}
		msg, ok := reminderMessages[e.ReminderKind]
		return msg, ok
	}
	byRole, ok := catalog[e.Type]
	if !ok {
		return message{}, false
	}
	msg, ok := byRole[audience]
	return msg, ok
}
