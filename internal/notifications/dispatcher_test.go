package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"clinic-queue-server/internal/events"
	"clinic-queue-server/internal/models"
)

type fakeMailer struct {
	sent []EmailMessage
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg EmailMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newMockDispatcher(t *testing.T, mailer EmailSender) (*Dispatcher, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return NewDispatcher(db, mailer, nil), mock
}

func expectDedupCheck(mock sqlmock.Sqlmock, priorDeliveries int) {
	mock.ExpectQuery("SELECT count").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(priorDeliveries))
}

func expectInsert(mock sqlmock.Sqlmock, table string) {
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `" + table + "`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
}

func confirmedEvent() events.Event {
	return events.Event{
		Type:          events.AppointmentConfirmed,
		AppointmentID: "appt-1",
		Doctor:        events.Party{ID: "doc-user", Name: "Dr. Verma", Email: "doc@clinic.test"},
		Patient:       events.Party{ID: "patient-1", Name: "Ravi Kumar", Email: "ravi@patient.test"},
	}
}

func TestTargetsForRouting(t *testing.T) {
	e := confirmedEvent()

	cases := []struct {
		eventType events.Type
		audiences []models.Role
		emails    int
	}{
		{events.AppointmentRequested, []models.Role{models.RoleDoctor}, 0},
		{events.AppointmentConfirmed, []models.Role{models.RolePatient, models.RoleDoctor}, 1},
		{events.AppointmentRejected, []models.Role{models.RolePatient, models.RoleDoctor}, 1},
		{events.AppointmentCancelledByPatient, []models.Role{models.RoleDoctor, models.RolePatient}, 0},
		{events.AppointmentCancelledByAdmin, []models.Role{models.RoleDoctor, models.RolePatient}, 0},
		{events.AppointmentCompleted, []models.Role{models.RolePatient}, 0},
		{events.VisitSummaryAdded, []models.Role{models.RolePatient}, 0},
		{events.AppointmentReminder, []models.Role{models.RolePatient}, 1},
		{events.DoctorApproved, []models.Role{models.RoleDoctor}, 1},
		{events.DoctorRejected, []models.Role{models.RoleDoctor}, 1},
	}

	for _, tc := range cases {
		e.Type = tc.eventType
		targets := targetsFor(e)
		require.Len(t, targets, len(tc.audiences), "%s", tc.eventType)
		emails := 0
		for i, target := range targets {
			assert.Equal(t, tc.audiences[i], target.role, "%s audience %d", tc.eventType, i)
			if target.email {
				emails++
			}
		}
		assert.Equal(t, tc.emails, emails, "%s email fanout", tc.eventType)
	}
}

func TestDedupeKeyQualifiesReminderKind(t *testing.T) {
	dayBefore := events.Event{Type: events.AppointmentReminder, ReminderKind: "DAY_BEFORE"}
	sameDay := events.Event{Type: events.AppointmentReminder, ReminderKind: "SAME_DAY"}

	assert.NotEqual(t, dedupeKey(dayBefore), dedupeKey(sameDay),
		"both reminders for one appointment must deliver")
	assert.Equal(t, "APPOINTMENT_CONFIRMED", dedupeKey(confirmedEvent()))
}

func TestMessageForReminderKinds(t *testing.T) {
	for _, kind := range []string{"NOW", "NEAR", "DAY_BEFORE", "SAME_DAY", "FOLLOW_UP"} {
		e := events.Event{Type: events.AppointmentReminder, ReminderKind: kind}
		msg, ok := messageFor(e, models.RolePatient)
		assert.True(t, ok, "kind %s", kind)
		assert.NotEmpty(t, msg.Title)

		_, ok = messageFor(e, models.RoleDoctor)
		assert.False(t, ok, "reminders never go to the doctor")
	}
}

func TestNotifyEventFansOutAcrossChannels(t *testing.T) {
	mailer := &fakeMailer{}
	d, mock := newMockDispatcher(t, mailer)

	// patient: app + email, doctor: app only, each with a dedup check and a log entry
	expectDedupCheck(mock, 0)
	expectInsert(mock, "notifications")
	expectInsert(mock, "notification_logs")
	expectDedupCheck(mock, 0)
	expectInsert(mock, "notification_logs")
	expectDedupCheck(mock, 0)
	expectInsert(mock, "notifications")
	expectInsert(mock, "notification_logs")

	d.NotifyEvent(context.Background(), confirmedEvent())

	assert.NoError(t, mock.ExpectationsWereMet())
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ravi@patient.test", mailer.sent[0].To)
	assert.Equal(t, "Appointment Confirmed", mailer.sent[0].Subject)
}

func TestNotifyEventSuppressesDuplicates(t *testing.T) {
	mailer := &fakeMailer{}
	d, mock := newMockDispatcher(t, mailer)

	// every channel has already delivered; nothing is written or sent
	expectDedupCheck(mock, 1)
	expectDedupCheck(mock, 1)
	expectDedupCheck(mock, 1)

	d.NotifyEvent(context.Background(), confirmedEvent())

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, mailer.sent)
}

func TestNotifyEventEmailFailureIsRecorded(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("sendgrid down")}
	d, mock := newMockDispatcher(t, mailer)

	expectDedupCheck(mock, 0)
	expectInsert(mock, "notifications")
	expectInsert(mock, "notification_logs")
	expectDedupCheck(mock, 0)
	expectInsert(mock, "notification_logs") // FAILED entry, eligible for retry
	expectDedupCheck(mock, 0)
	expectInsert(mock, "notifications")
	expectInsert(mock, "notification_logs")

	// must not panic or propagate: the transition already committed
	d.NotifyEvent(context.Background(), confirmedEvent())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotifyEventSkipsPartiesWithoutAccounts(t *testing.T) {
	mailer := &fakeMailer{}
	d, mock := newMockDispatcher(t, mailer)

	// a walk-in booking has no patient account; only the doctor is notified
	e := confirmedEvent()
	e.Patient = events.Party{}
	expectDedupCheck(mock, 0)
	expectInsert(mock, "notifications")
	expectInsert(mock, "notification_logs")

	d.NotifyEvent(context.Background(), e)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, mailer.sent)
}

func TestNotifyEventWithoutMailerStillWritesApp(t *testing.T) {
	d, mock := newMockDispatcher(t, nil)

	expectDedupCheck(mock, 0)
	expectInsert(mock, "notifications")
	expectInsert(mock, "notification_logs")
	expectDedupCheck(mock, 0)
	expectInsert(mock, "notifications")
	expectInsert(mock, "notification_logs")

	d.NotifyEvent(context.Background(), confirmedEvent())
	assert.NoError(t, mock.ExpectationsWereMet())
}
