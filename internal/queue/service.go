package queue

import (
	"context"
	"fmt"
	"time"

	"clinic-queue-server/internal/config"
	"clinic-queue-server/internal/events"
	"clinic-queue-server/internal/models"
	"clinic-queue-server/pkg/logging"
)

const dateLayout = "2006-01-02"

// Service is the queue engine: token allocation, the appointment state
// machine, the queue advancer and wait-time estimation. All state changes
// run transactionally against the Store; domain events are emitted only
// after the transaction commits.
type Service struct {
	store                 Store
	notifier              events.Notifier
	logger                *logging.Logger
	capacity              int
	nearWindow            int
	defaultConsultMinutes int
	now                   func() time.Time
}

// NewService creates the queue service.
func NewService(store Store, notifier events.Notifier, cfg config.QueueConfig, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	capacity := cfg.ShiftCapacity
	if capacity <= 0 {
		capacity = 50
	}
	nearWindow := cfg.NearWindow
	if nearWindow <= 0 {
		nearWindow = 2
	}
	consult := cfg.DefaultConsultMinutes
	if consult <= 0 {
		consult = 10
	}
	return &Service{
		store:                 store,
		notifier:              notifier,
		logger:                logger,
		capacity:              capacity,
		nearWindow:            nearWindow,
		defaultConsultMinutes: consult,
		now:                   time.Now,
	}
}

// WithClock overrides the time source, used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// BookRequest describes one booking attempt from any channel. Web, QR and
// staff bookings all draw tokens from the same bucket.
type BookRequest struct {
	DoctorID       string
	PatientID      *string
	FamilyMemberID *string
	WalkInName     string
	WalkInPhone    string
	Type           models.AppointmentType
	Date           string // YYYY-MM-DD
	Shift          models.Shift
	Time           string // HH:MM, VIDEO only
	Channel        models.BookingChannel
}

func (r BookRequest) validate() error {
	if r.DoctorID == "" {
		return fmt.Errorf("%w: doctorId is required", ErrValidation)
	}
	if _, err := time.Parse(dateLayout, r.Date); err != nil {
		return fmt.Errorf("%w: bad appointment date %q", ErrValidation, r.Date)
	}
	switch r.Type {
	case models.TypeClinic, models.TypeHospital:
		if r.Shift != models.ShiftMorning && r.Shift != models.ShiftEvening {
			return fmt.Errorf("%w: shift is required for %s bookings", ErrValidation, r.Type)
		}
	case models.TypeVideo:
		if r.Time == "" {
			return fmt.Errorf("%w: appointment time is required for video bookings", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown appointment type %q", ErrValidation, r.Type)
	}
	if r.PatientID == nil && r.Channel != models.ChannelStaff {
		return fmt.Errorf("%w: patientId is required", ErrValidation)
	}
	if r.PatientID == nil && r.WalkInName == "" {
		return fmt.Errorf("%w: walk-in name is required when no patient is attached", ErrValidation)
	}
	return nil
}

// Book reserves the next token in the (doctor, date, shift) bucket and
// creates the appointment in REQUESTED state, atomically. The doctor row is
// locked for the whole transaction so two simultaneous bookings can never
// compute the same next token. Emits APPOINTMENT_REQUESTED on success.
func (s *Service) Book(ctx context.Context, req BookRequest) (*models.Appointment, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	appt := &models.Appointment{
		DoctorID:       req.DoctorID,
		PatientID:      req.PatientID,
		FamilyMemberID: req.FamilyMemberID,
		Type:           req.Type,
		Date:           req.Date,
		Shift:          req.Shift,
		Time:           req.Time,
		Status:         models.StatusRequested,
		CreatedBy:      req.Channel,
	}

	err := s.store.InTx(ctx, func(tx Store) error {
		doctor, err := tx.DoctorForUpdate(ctx, req.DoctorID)
		if err != nil {
			return err
		}
		if doctor.Status != models.DoctorApproved || !doctor.IsAvailable {
			return ErrDoctorUnavailable
		}

		if req.Type == models.TypeVideo {
			taken, err := tx.CountVideoSlot(ctx, req.DoctorID, req.Date, req.Time)
			if err != nil {
				return err
			}
			if taken > 0 {
				return ErrSlotTaken
			}
		} else {
			count, maxToken, err := tx.BucketStats(ctx, req.DoctorID, req.Date, req.Shift)
			if err != nil {
				return err
			}
			if count >= int64(s.capacity) {
				return ErrCapacityExceeded
			}
			appt.TokenNumber = maxToken + 1
		}

		if req.PatientID == nil {
			walkIn := &models.WalkIn{FullName: req.WalkInName, Phone: req.WalkInPhone}
			if err := tx.CreateWalkIn(ctx, walkIn); err != nil {
				return err
			}
			appt.WalkInID = &walkIn.ID
		}

		if err := tx.CreateAppointment(ctx, appt); err != nil {
			return err
		}
		return tx.CreateReminders(ctx, s.bookingReminders(appt))
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.AppointmentRequested, appt, "")
	return appt, nil
}

// bookingReminders builds the DAY_BEFORE and SAME_DAY reminder rows for a
// fresh booking. The poller fires anything already past immediately.
func (s *Service) bookingReminders(appt *models.Appointment) []models.Reminder {
	day, err := time.ParseInLocation(dateLayout, appt.Date, time.Local)
	if err != nil {
		return nil
	}
	return []models.Reminder{
		{
			AppointmentID: appt.ID,
			Type:          models.ReminderDayBefore,
			ScheduledAt:   day.AddDate(0, 0, -1).Add(18 * time.Hour),
		},
		{
			AppointmentID: appt.ID,
			Type:          models.ReminderSameDay,
			ScheduledAt:   day.Add(7 * time.Hour),
		},
	}
}

// transition applies one state-machine rule as a conditional update and
// emits the rule's event on success. The caller has already authorized the
// actor; a failed precondition reports ErrNotAllowed and changes nothing.
func (s *Service) transition(ctx context.Context, appt *models.Appointment, action Action) error {
	r, ok := ruleFor(action)
	if !ok {
		return fmt.Errorf("%w: unknown action %q", ErrValidation, action)
	}
	changed, err := s.store.UpdateStatus(ctx, appt.ID, r.from, r.to)
	if err != nil {
		return err
	}
	if !changed {
		return ErrNotAllowed
	}
	appt.Status = r.to

	kind := ""
	if r.event == events.AppointmentReminder {
		kind = events.ReminderNow
	}
	s.emit(ctx, r.event, appt, kind)
	return nil
}

// Respond lets the owning doctor accept or reject a REQUESTED appointment.
func (s *Service) Respond(ctx context.Context, doctorUserID, appointmentID string, accept bool) (*models.Appointment, error) {
	appt, err := s.ownedByDoctor(ctx, doctorUserID, appointmentID)
	if err != nil {
		return nil, err
	}
	action := ActionReject
	if accept {
		action = ActionAccept
	}
	if err := s.transition(ctx, appt, action); err != nil {
		return nil, err
	}
	return appt, nil
}

// Start moves an ACCEPTED appointment to IN_PROGRESS by explicit doctor
// action. Only one appointment per bucket may be in progress; the doctor
// row lock serializes the in-progress check against concurrent Start and
// CallNext calls, which touch different rows and would otherwise both see
// an idle bucket.
func (s *Service) Start(ctx context.Context, doctorUserID, appointmentID string) (*models.Appointment, error) {
	appt, err := s.ownedByDoctor(ctx, doctorUserID, appointmentID)
	if err != nil {
		return nil, err
	}
	r, _ := ruleFor(ActionStart)
	err = s.store.InTx(ctx, func(tx Store) error {
		if _, err := tx.DoctorForUpdate(ctx, appt.DoctorID); err != nil {
			return err
		}
		current, err := tx.InProgress(ctx, appt.DoctorID, appt.Date, appt.Shift)
		if err != nil {
			return err
		}
		if current != nil {
			return ErrNotAllowed
		}
		changed, err := tx.UpdateStatus(ctx, appt.ID, r.from, r.to)
		if err != nil {
			return err
		}
		if !changed {
			return ErrNotAllowed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	appt.Status = r.to
	s.emit(ctx, r.event, appt, events.ReminderNow)
	return appt, nil
}

// Complete moves an IN_PROGRESS appointment to COMPLETED by doctor action.
func (s *Service) Complete(ctx context.Context, doctorUserID, appointmentID string) (*models.Appointment, error) {
	appt, err := s.ownedByDoctor(ctx, doctorUserID, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, appt, ActionComplete); err != nil {
		return nil, err
	}
	return appt, nil
}

// CancelByPatient is patient self-service cancellation. Same-day and past
// appointments cannot be cancelled by the patient.
func (s *Service) CancelByPatient(ctx context.Context, patientUserID, appointmentID string) (*models.Appointment, error) {
	appt, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, ErrNotFound
	}
	if appt.PatientID == nil || *appt.PatientID != patientUserID {
		return nil, ErrUnauthorized
	}
	if appt.Date <= s.now().Format(dateLayout) {
		return nil, ErrSameDayCancel
	}
	if err := s.transition(ctx, appt, ActionCancelByPatient); err != nil {
		return nil, err
	}
	return appt, nil
}

// ForceCancel is the admin override: cancels from any non-terminal state.
// The token number stays on the row; tokens are never recycled.
func (s *Service) ForceCancel(ctx context.Context, appointmentID string) (*models.Appointment, error) {
	appt, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, ErrNotFound
	}
	if err := s.transition(ctx, appt, ActionCancelByAdmin); err != nil {
		return nil, err
	}
	return appt, nil
}

// AddVisitSummary attaches notes and a prescription to a completed
// appointment, schedules a FOLLOW_UP reminder and emits VISIT_SUMMARY_ADDED.
func (s *Service) AddVisitSummary(ctx context.Context, doctorUserID, appointmentID, summary, prescription string) error {
	appt, err := s.ownedByDoctor(ctx, doctorUserID, appointmentID)
	if err != nil {
		return err
	}
	err = s.store.InTx(ctx, func(tx Store) error {
		changed, err := tx.UpdateVisitSummary(ctx, appt.ID, summary, prescription)
		if err != nil {
			return err
		}
		if !changed {
			return ErrNotAllowed
		}
		followUp := s.now().AddDate(0, 0, 3)
		followUpAt := time.Date(followUp.Year(), followUp.Month(), followUp.Day(), 9, 0, 0, 0, followUp.Location())
		return tx.CreateReminders(ctx, []models.Reminder{{
			AppointmentID: appt.ID,
			Type:          models.ReminderFollowUp,
			ScheduledAt:   followUpAt,
		}})
	})
	if err != nil {
		return err
	}
	s.emit(ctx, events.VisitSummaryAdded, appt, "")
	return nil
}

// ownedByDoctor loads an appointment and verifies the acting doctor owns it.
func (s *Service) ownedByDoctor(ctx context.Context, doctorUserID, appointmentID string) (*models.Appointment, error) {
	appt, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, ErrNotFound
	}
	doctor, err := s.store.GetDoctorByUser(ctx, doctorUserID)
	if err != nil {
		return nil, err
	}
	if doctor == nil || doctor.ID != appt.DoctorID {
		return nil, ErrUnauthorized
	}
	return appt, nil
}

// emit hands a domain event to the notifier with the parties filled in.
// Called only after the state change has committed; lookup or delivery
// problems are logged and never surfaced to the caller.
func (s *Service) emit(ctx context.Context, eventType events.Type, appt *models.Appointment, reminderKind string) {
	if s.notifier == nil || eventType == "" {
		return
	}
	event := events.Event{
		Type:          eventType,
		AppointmentID: appt.ID,
		ReminderKind:  reminderKind,
	}
	if doctor, err := s.store.GetDoctor(ctx, appt.DoctorID); err == nil && doctor != nil {
		event.Doctor.ID = doctor.UserID
		if user, err := s.store.GetUser(ctx, doctor.UserID); err == nil && user != nil {
			event.Doctor.Name = user.FullName()
			event.Doctor.Email = user.Email
		}
	}
	if appt.PatientID != nil {
		event.Patient.ID = *appt.PatientID
		if user, err := s.store.GetUser(ctx, *appt.PatientID); err == nil && user != nil {
			event.Patient.Name = user.FullName()
			event.Patient.Email = user.Email
		}
	}
	s.notifier.NotifyEvent(ctx, event)
}
