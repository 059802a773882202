package queue

import (
	"context"

	"clinic-queue-server/internal/models"
)

// Store is the relational contract the queue core runs against. The gorm
// adapter in internal/storage implements it; tests use an in-memory fake.
//
// InTx runs fn against a transactional view of the store; any error aborts
// the whole transaction. DoctorForUpdate must take a row lock on the doctor
// row (SELECT ... FOR UPDATE semantics) held until commit, which is what
// serializes concurrent token allocation for the same bucket.
type Store interface {
	InTx(ctx context.Context, fn func(tx Store) error) error

	DoctorForUpdate(ctx context.Context, doctorID string) (*models.Doctor, error)
	GetDoctor(ctx context.Context, doctorID string) (*models.Doctor, error)
	GetDoctorByUser(ctx context.Context, userID string) (*models.Doctor, error)
	GetUser(ctx context.Context, id string) (*models.User, error)

	// BucketStats reports how many tokens exist in the bucket and the highest
	// token issued so far (0 when the bucket is empty).
	BucketStats(ctx context.Context, doctorID, date string, shift models.Shift) (count int64, maxToken int, err error)

	// CountVideoSlot counts non-cancelled VIDEO appointments holding the
	// given (doctor, date, time) slot.
	CountVideoSlot(ctx context.Context, doctorID, date, at string) (int64, error)

	CreateAppointment(ctx context.Context, appt *models.Appointment) error
	CreateWalkIn(ctx context.Context, walkIn *models.WalkIn) error
	CreateReminders(ctx context.Context, reminders []models.Reminder) error

	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)

	// UpdateStatus performs the conditional transition
	// "SET status = to WHERE id = ? AND status IN from" and reports whether a
	// row was affected. A false return means the precondition failed.
	UpdateStatus(ctx context.Context, id string, from []models.AppointmentStatus, to models.AppointmentStatus) (bool, error)

	// UpdateVisitSummary attaches notes and prescription to a COMPLETED
	// appointment; reports whether a row was affected.
	UpdateVisitSummary(ctx context.Context, id, summary, prescription string) (bool, error)

	// InProgress returns the single IN_PROGRESS appointment in the bucket,
	// or nil when there is none.
	InProgress(ctx context.Context, doctorID, date string, shift models.Shift) (*models.Appointment, error)

	// AcceptedAfter returns up to limit ACCEPTED appointments in the bucket
	// with token number strictly greater than afterToken, ordered by token
	// ascending.
	AcceptedAfter(ctx context.Context, doctorID, date string, shift models.Shift, afterToken, limit int) ([]models.Appointment, error)
}
