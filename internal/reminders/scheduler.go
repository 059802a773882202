package reminders

import (
	"context"
	"time"

	"gorm.io/gorm"

	"clinic-queue-server/internal/events"
	"clinic-queue-server/internal/models"
	"clinic-queue-server/pkg/logging"
)

// Scheduler polls the reminders table on a fixed interval and fires due
// reminders through the notification dispatch contract. Booking reminders
// (DAY_BEFORE, SAME_DAY) fire only while the appointment is still live;
// FOLLOW_UP reminders fire for completed visits.
type Scheduler struct {
	db       *gorm.DB
	notifier events.Notifier
	logger   *logging.Logger
	interval time.Duration
	now      func() time.Time
}

// NewScheduler creates the reminder poller.
func NewScheduler(db *gorm.DB, notifier events.Notifier, interval time.Duration, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		db:       db,
		notifier: notifier,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}
}

// Start runs the polling loop until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("reminder poll failed", "error", err)
			}
		}
	}
}

// RunOnce processes everything currently due. Each reminder is marked sent
// after dispatch so a crashed run re-delivers at most the in-flight batch;
// the dispatcher's log makes re-delivery harmless.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var due []models.Reminder
	err := s.db.WithContext(ctx).
		Preload("Appointment").
		Where("sent = ? AND scheduled_at <= ?", false, s.now()).
		Find(&due).Error
	if err != nil {
		return err
	}

	for _, reminder := range due {
		if !s.shouldFire(reminder) {
			// stale reminder for a dead appointment; retire it silently
			s.markSent(ctx, reminder.ID)
			continue
		}
		s.notifier.NotifyEvent(ctx, s.buildEvent(ctx, reminder))
		s.markSent(ctx, reminder.ID)
	}
	return nil
}

func (s *Scheduler) shouldFire(reminder models.Reminder) bool {
	status := reminder.Appointment.Status
	switch reminder.Type {
	case models.ReminderFollowUp:
		return status == models.StatusCompleted
	default:
		return status == models.StatusRequested || status == models.StatusAccepted
	}
}

func (s *Scheduler) buildEvent(ctx context.Context, reminder models.Reminder) events.Event {
	event := events.Event{
		Type:          events.AppointmentReminder,
		AppointmentID: reminder.AppointmentID,
		ReminderKind:  string(reminder.Type),
	}
	appt := reminder.Appointment
	if appt.PatientID != nil {
		event.Patient.ID = *appt.PatientID
		var user models.User
		if err := s.db.WithContext(ctx).First(&user, "id = ?", *appt.PatientID).Error; err == nil {
			event.Patient.Name = user.FullName()
			event.Patient.Email = user.Email
		}
	}
	var doctor models.Doctor
	if err := s.db.WithContext(ctx).First(&doctor, "id = ?", appt.DoctorID).Error; err == nil {
		event.Doctor.ID = doctor.UserID
	}
	return event
}

func (s *Scheduler) markSent(ctx context.Context, reminderID string) {
	err := s.db.WithContext(ctx).
		Model(&models.Reminder{}).
		Where("id = ?", reminderID).
		Update("sent", true).Error
	if err != nil {
		s.logger.Error("failed to mark reminder sent", "error", err, "reminder_id", reminderID)
	}
}
