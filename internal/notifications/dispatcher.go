package notifications

import (
	"context"

	"gorm.io/gorm"

	"clinic-queue-server/internal/events"
	"clinic-queue-server/internal/models"
	"clinic-queue-server/pkg/logging"
)

// Dispatcher implements events.Notifier. Every event is fanned out to its
// audiences over the app and email channels; a persisted log keyed by
// (event, user, entity, channel) makes each delivery at-most-once. Failures
// are logged, never propagated: the state transition that produced the
// event has already committed.
type Dispatcher struct {
	db     *gorm.DB
	mailer EmailSender
	logger *logging.Logger
}

// NewDispatcher creates a dispatcher. mailer may be nil, in which case only
// app notifications are written.
func NewDispatcher(db *gorm.DB, mailer EmailSender, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{db: db, mailer: mailer, logger: logger}
}

var _ events.Notifier = (*Dispatcher)(nil)

// target is one audience of an event.
type target struct {
	party events.Party
	role  models.Role
	email bool // whether this audience also gets an email
}

// targetsFor routes an event to its audiences, mirroring who the clinic
// actually notifies for each lifecycle step.
func targetsFor(e events.Event) []target {
	switch e.Type {
	case events.AppointmentRequested:
		return []target{{party: e.Doctor, role: models.RoleDoctor}}
	case events.AppointmentConfirmed, events.AppointmentRejected:
		return []target{
			{party: e.Patient, role: models.RolePatient, email: true},
			{party: e.Doctor, role: models.RoleDoctor},
		}
	case events.AppointmentCancelledByPatient, events.AppointmentCancelledByAdmin:
		return []target{
			{party: e.Doctor, role: models.RoleDoctor},
			{party: e.Patient, role: models.RolePatient},
		}
	case events.AppointmentCompleted, events.VisitSummaryAdded:
		return []target{{party: e.Patient, role: models.RolePatient}}
	case events.AppointmentReminder:
		return []target{{party: e.Patient, role: models.RolePatient, email: true}}
	case events.DoctorApproved, events.DoctorRejected:
		return []target{{party: e.Doctor, role: models.RoleDoctor, email: true}}
	}
	return nil
}

// NotifyEvent delivers one domain event across channels.
func (d *Dispatcher) NotifyEvent(ctx context.Context, e events.Event) {
	eventKey := dedupeKey(e)
	for _, t := range targetsFor(e) {
		if t.party.ID == "" {
			// walk-ins and staff bookings have no account to notify
			continue
		}
		msg, ok := messageFor(e, t.role)
		if !ok {
			continue
		}
		entityID := e.AppointmentID
		if entityID == "" {
			entityID = t.party.ID
		}
		d.sendApp(ctx, eventKey, entityID, t, msg)
		if t.email && d.mailer != nil {
			d.sendEmail(ctx, eventKey, entityID, t, msg)
		}
	}
}

// dedupeKey qualifies reminder events by their sub-kind so a DAY_BEFORE
// reminder does not suppress the SAME_DAY one for the same appointment.
func dedupeKey(e events.Event) string {
	if e.Type == events.AppointmentReminder && e.ReminderKind != "" {
		return string(e.Type) + ":" + e.ReminderKind
	}
	return string(e.Type)
}

func (d *Dispatcher) sendApp(ctx context.Context, eventKey, entityID string, t target, msg message) {
	sent, err := d.alreadySent(ctx, eventKey, t.party.ID, entityID, models.ChannelApp)
	if err != nil {
		d.logger.Error("notification dedup check failed", "error", err, "event", eventKey, "user_id", t.party.ID)
		return
	}
	if sent {
		return
	}

	notification := models.Notification{
		ReceiverID:   t.party.ID,
		ReceiverRole: t.role,
		Title:        msg.Title,
		Message:      msg.Body,
	}
	if entityID != t.party.ID {
		appointmentID := entityID
		notification.AppointmentID = &appointmentID
	}
	if err := d.db.WithContext(ctx).Create(&notification).Error; err != nil {
		d.logger.Error("failed to insert app notification", "error", err, "event", eventKey, "user_id", t.party.ID)
		d.record(ctx, eventKey, entityID, t.party.ID, models.ChannelApp, "FAILED", err.Error())
		return
	}
	d.record(ctx, eventKey, entityID, t.party.ID, models.ChannelApp, "SUCCESS", "")
}

func (d *Dispatcher) sendEmail(ctx context.Context, eventKey, entityID string, t target, msg message) {
	if t.party.Email == "" {
		return
	}
	sent, err := d.alreadySent(ctx, eventKey, t.party.ID, entityID, models.ChannelEmail)
	if err != nil {
		d.logger.Error("notification dedup check failed", "error", err, "event", eventKey, "user_id", t.party.ID)
		return
	}
	if sent {
		return
	}

	err = d.mailer.Send(ctx, EmailMessage{
		To:      t.party.Email,
		ToName:  t.party.Name,
		Subject: msg.Title,
		Body:    msg.Body,
	})
	if err != nil {
		d.logger.Error("email delivery failed", "error", err, "event", eventKey, "to", t.party.Email)
		d.record(ctx, eventKey, entityID, t.party.ID, models.ChannelEmail, "FAILED", err.Error())
		return
	}
	d.record(ctx, eventKey, entityID, t.party.ID, models.ChannelEmail, "SUCCESS", "")
}

func (d *Dispatcher) alreadySent(ctx context.Context, eventKey, userID, entityID string, channel models.NotificationChannel) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&models.NotificationLog{}).
		Where("event_type = ? AND user_id = ? AND entity_id = ? AND channel = ? AND status = ?",
			eventKey, userID, entityID, channel, "SUCCESS").
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (d *Dispatcher) record(ctx context.Context, eventKey, entityID, userID string, channel models.NotificationChannel, status, errMsg string) {
	entry := models.NotificationLog{
		EventType:    eventKey,
		UserID:       userID,
		EntityID:     entityID,
		Channel:      channel,
		Status:       status,
		ErrorMessage: errMsg,
	}
	if err := d.db.WithContext(ctx).Create(&entry).Error; err != nil {
		d.logger.Error("failed to record notification log", "error", err, "event", eventKey, "user_id", userID)
	}
}
