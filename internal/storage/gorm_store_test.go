package storage

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"clinic-queue-server/internal/models"
	"clinic-queue-server/internal/queue"
)

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return NewGormStore(db), mock
}

func TestDoctorForUpdateTakesRowLock(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "status", "is_available"}).
		AddRow("doc-1", "user-1", "APPROVED", true)
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("doc-1", 1).
		WillReturnRows(rows)

	doctor, err := store.DoctorForUpdate(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", doctor.ID)
	assert.Equal(t, models.DoctorApproved, doctor.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorForUpdateMissingDoctor(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT .* `doctors`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.DoctorForUpdate(context.Background(), "ghost")
	assert.ErrorIs(t, err, queue.ErrNotFound)
}

func TestBucketStats(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"count", "max_token"}).AddRow(7, 12)
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) AS count, COALESCE(MAX(token_number), 0) AS max_token")).
		WithArgs("doc-1", "2026-03-12", "MORNING").
		WillReturnRows(rows)

	count, maxToken, err := store.BucketStats(context.Background(), "doc-1", "2026-03-12", models.ShiftMorning)
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.Equal(t, 12, maxToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBucketStatsEmptyBucket(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"count", "max_token"}).AddRow(0, 0)
	mock.ExpectQuery("COUNT").WillReturnRows(rows)

	count, maxToken, err := store.BucketStats(context.Background(), "doc-1", "2026-03-12", models.ShiftEvening)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, maxToken, "empty bucket issues token 1 next")
}

func TestUpdateStatusReportsPreconditionFailure(t *testing.T) {
	store, mock := newMockStore(t)

	from := []models.AppointmentStatus{models.StatusRequested}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `appointments` SET")).
		WithArgs("ACCEPTED", sqlmock.AnyArg(), "appt-1", "REQUESTED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	changed, err := store.UpdateStatus(context.Background(), "appt-1", from, models.StatusAccepted)
	require.NoError(t, err)
	assert.True(t, changed)

	// second attempt matches zero rows: the transition already happened
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `appointments` SET")).
		WithArgs("ACCEPTED", sqlmock.AnyArg(), "appt-1", "REQUESTED").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	changed, err = store.UpdateStatus(context.Background(), "appt-1", from, models.StatusAccepted)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateVisitSummaryOnlyTouchesCompleted(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `appointments` SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	changed, err := store.UpdateVisitSummary(context.Background(), "appt-1", "notes", "rx")
	require.NoError(t, err)
	assert.False(t, changed, "a non-completed appointment matches no rows")
}

func TestInTxRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.InTx(context.Background(), func(tx queue.Store) error {
		return queue.ErrCapacityExceeded
	})
	assert.ErrorIs(t, err, queue.ErrCapacityExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcceptedAfterOrdersByToken(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "token_number", "status"}).
		AddRow("a-5", 5, "ACCEPTED").
		AddRow("a-7", 7, "ACCEPTED")
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY token_number asc")).
		WithArgs("doc-1", "2026-03-12", "MORNING", "ACCEPTED", 3, 2).
		WillReturnRows(rows)

	appts, err := store.AcceptedAfter(context.Background(), "doc-1", "2026-03-12", models.ShiftMorning, 3, 2)
	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.Equal(t, 5, appts[0].TokenNumber)
	assert.Equal(t, 7, appts[1].TokenNumber)
}

func TestInProgressReturnsNilWhenIdle(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT .* `appointments`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	appt, err := store.InProgress(context.Background(), "doc-1", "2026-03-12", models.ShiftMorning)
	require.NoError(t, err)
	assert.Nil(t, appt)
}
