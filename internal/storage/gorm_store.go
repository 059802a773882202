package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clinic-queue-server/internal/models"
	"clinic-queue-server/internal/queue"
)

// GormStore implements queue.Store on gorm/MySQL. The doctor row lock in
// DoctorForUpdate (SELECT ... FOR UPDATE) is what serializes token
// allocation per bucket; everything else relies on conditional updates.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates the storage adapter.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ queue.Store = (*GormStore)(nil)

// InTx runs fn inside a database transaction. The callback receives a store
// bound to the transaction handle so locks are held until commit.
func (s *GormStore) InTx(ctx context.Context, fn func(tx queue.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// DoctorForUpdate loads a doctor row under an exclusive row lock.
func (s *GormStore) DoctorForUpdate(ctx context.Context, doctorID string) (*models.Doctor, error) {
	var doctor models.Doctor
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&doctor, "id = ?", doctorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, queue.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (s *GormStore) GetDoctor(ctx context.Context, doctorID string) (*models.Doctor, error) {
	var doctor models.Doctor
	err := s.db.WithContext(ctx).First(&doctor, "id = ?", doctorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (s *GormStore) GetDoctorByUser(ctx context.Context, userID string) (*models.Doctor, error) {
	var doctor models.Doctor
	err := s.db.WithContext(ctx).First(&doctor, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (s *GormStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// BucketStats reads the row count and highest issued token for a bucket.
// Callers must hold the doctor row lock when using the result to allocate.
func (s *GormStore) BucketStats(ctx context.Context, doctorID, date string, shift models.Shift) (int64, int, error) {
	type stats struct {
		Count    int64
		MaxToken int
	}
	var out stats
	err := s.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Select("COUNT(*) AS count, COALESCE(MAX(token_number), 0) AS max_token").
		Where("doctor_id = ? AND date = ? AND shift = ?", doctorID, date, shift).
		Scan(&out).Error
	if err != nil {
		return 0, 0, err
	}
	return out.Count, out.MaxToken, nil
}

func (s *GormStore) CountVideoSlot(ctx context.Context, doctorID, date, at string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("doctor_id = ? AND date = ? AND time = ? AND type = ? AND status <> ?",
			doctorID, date, at, models.TypeVideo, models.StatusCancelled).
		Count(&count).Error
	return count, err
}

func (s *GormStore) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	return s.db.WithContext(ctx).Create(appt).Error
}

func (s *GormStore) CreateWalkIn(ctx context.Context, walkIn *models.WalkIn) error {
	return s.db.WithContext(ctx).Create(walkIn).Error
}

func (s *GormStore) CreateReminders(ctx context.Context, reminders []models.Reminder) error {
	if len(reminders) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&reminders).Error
}

func (s *GormStore) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	var appt models.Appointment
	err := s.db.WithContext(ctx).First(&appt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// UpdateStatus is the conditional transition: the prior-state check and the
// write happen in one statement, so a stale caller simply affects zero rows.
func (s *GormStore) UpdateStatus(ctx context.Context, id string, from []models.AppointmentStatus, to models.AppointmentStatus) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) UpdateVisitSummary(ctx context.Context, id, summary, prescription string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND status = ?", id, models.StatusCompleted).
		Updates(map[string]interface{}{
			"visit_summary": summary,
			"prescription":  prescription,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) InProgress(ctx context.Context, doctorID, date string, shift models.Shift) (*models.Appointment, error) {
	var appt models.Appointment
	err := s.db.WithContext(ctx).
		Where("doctor_id = ? AND date = ? AND shift = ? AND status = ?",
			doctorID, date, shift, models.StatusInProgress).
		First(&appt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (s *GormStore) AcceptedAfter(ctx context.Context, doctorID, date string, shift models.Shift, afterToken, limit int) ([]models.Appointment, error) {
	var appts []models.Appointment
	err := s.db.WithContext(ctx).
		Where("doctor_id = ? AND date = ? AND shift = ? AND status = ? AND token_number > ?",
			doctorID, date, shift, models.StatusAccepted, afterToken).
		Order("token_number asc").
		Limit(limit).
		Find(&appts).Error
	if err != nil {
		return nil, err
	}
	return appts, nil
}
