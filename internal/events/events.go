package events

import "context"

// Type identifies a domain event emitted by the core.
type Type string

const (
	AppointmentRequested          Type = "APPOINTMENT_REQUESTED"
	AppointmentConfirmed          Type = "APPOINTMENT_CONFIRMED"
	AppointmentRejected           Type = "APPOINTMENT_REJECTED"
	AppointmentCancelledByPatient Type = "APPOINTMENT_CANCELLED_BY_PATIENT"
	AppointmentCancelledByAdmin   Type = "APPOINTMENT_CANCELLED_BY_ADMIN"
	AppointmentCompleted          Type = "APPOINTMENT_COMPLETED"
	AppointmentReminder           Type = "APPOINTMENT_REMINDER"
	VisitSummaryAdded             Type = "VISIT_SUMMARY_ADDED"
	DoctorApproved                Type = "DOCTOR_APPROVED"
	DoctorRejected                Type = "DOCTOR_REJECTED"
)

// Sub-kinds of APPOINTMENT_REMINDER emitted by the queue advancer.
const (
	ReminderNow  = "NOW"  // your turn
	ReminderNear = "NEAR" // your turn is near
)

// Party carries the identity needed for message composition.
type Party struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Event is the payload handed to the notification dispatch contract after a
// state-changing transaction commits. The core composes no messages itself.
type Event struct {
	Type          Type   `json:"eventType"`
	AppointmentID string `json:"appointmentId,omitempty"`
	Doctor        Party  `json:"doctor"`
	Patient       Party  `json:"patient"`
	ReminderKind  string `json:"reminderKind,omitempty"` // NOW or NEAR for APPOINTMENT_REMINDER
}

// Notifier is the outbound capability the core depends on. Delivery failures
// are the dispatcher's problem; a committed transition never rolls back
// because a notification could not be sent.
type Notifier interface {
	NotifyEvent(ctx context.Context, event Event)
}
