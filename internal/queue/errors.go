package queue

import "errors"

// Error taxonomy surfaced by the queue core. Handlers map these onto HTTP
// statuses; CONFLICT-class errors are kept distinct so callers can present
// "slot full" and "already processed" separately.
var (
	// ErrNotFound means the referenced doctor, patient or appointment is absent.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized means the actor does not own the resource.
	ErrUnauthorized = errors.New("actor does not own this resource")

	// ErrCapacityExceeded means the (doctor, date, shift) bucket is full.
	ErrCapacityExceeded = errors.New("shift booking closed")

	// ErrDoctorUnavailable means the doctor is not approved or has switched
	// availability off.
	ErrDoctorUnavailable = errors.New("doctor is not accepting bookings")

	// ErrNotAllowed means a transition precondition failed, typically a
	// double submission racing a state change.
	ErrNotAllowed = errors.New("action not allowed in current state")

	// ErrSlotTaken means a video slot is already booked.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrSameDayCancel means a patient tried to cancel a same-day or past
	// appointment.
	ErrSameDayCancel = errors.New("same-day appointments cannot be cancelled")

	// ErrValidation means the request was malformed before any transaction
	// started.
	ErrValidation = errors.New("invalid request")
)
