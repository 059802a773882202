package queue

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"clinic-queue-server/internal/events"
	"clinic-queue-server/internal/models"
)

// memStore is an in-memory Store for exercising the queue core without a
// database. InTx holds the store mutex for the whole callback, which gives
// the same serialization the doctor row lock provides in MySQL.
type memStore struct {
	mu           sync.Mutex
	doctors      map[string]*models.Doctor
	users        map[string]*models.User
	appointments map[string]*models.Appointment
	walkIns      map[string]*models.WalkIn
	reminders    []models.Reminder
}

func newMemStore() *memStore {
	return &memStore{
		doctors:      map[string]*models.Doctor{},
		users:        map[string]*models.User{},
		appointments: map[string]*models.Appointment{},
		walkIns:      map[string]*models.WalkIn{},
	}
}

func (m *memStore) addUser(user models.User) *models.User {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	m.users[user.ID] = &user
	return &user
}

func (m *memStore) addDoctor(doctor models.Doctor) *models.Doctor {
	if doctor.ID == "" {
		doctor.ID = uuid.NewString()
	}
	m.doctors[doctor.ID] = &doctor
	return &doctor
}

func (m *memStore) getAppointment(id string) *models.Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	if appt, ok := m.appointments[id]; ok {
		cp := *appt
		return &cp
	}
	return nil
}

func (m *memStore) remindersFor(appointmentID string) []models.Reminder {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Reminder
	for _, r := range m.reminders {
		if r.AppointmentID == appointmentID {
			out = append(out, r)
		}
	}
	return out
}

// InTx snapshots the mutable state and restores it when fn fails, so an
// aborted booking leaves nothing behind.
func (m *memStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	apptSnap := make(map[string]*models.Appointment, len(m.appointments))
	for id, appt := range m.appointments {
		cp := *appt
		apptSnap[id] = &cp
	}
	walkInSnap := make(map[string]*models.WalkIn, len(m.walkIns))
	for id, w := range m.walkIns {
		cp := *w
		walkInSnap[id] = &cp
	}
	reminderSnap := append([]models.Reminder(nil), m.reminders...)

	if err := fn(&memTx{m}); err != nil {
		m.appointments = apptSnap
		m.walkIns = walkInSnap
		m.reminders = reminderSnap
		return err
	}
	return nil
}

func (m *memStore) DoctorForUpdate(ctx context.Context, doctorID string) (*models.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doctorForUpdate(doctorID)
}

func (m *memStore) GetDoctor(ctx context.Context, doctorID string) (*models.Doctor, error) {
	return m.DoctorForUpdate(ctx, doctorID)
}

func (m *memStore) GetDoctorByUser(ctx context.Context, userID string) (*models.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getDoctorByUser(userID)
}

func (m *memStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getUser(id)
}

func (m *memStore) BucketStats(ctx context.Context, doctorID, date string, shift models.Shift) (int64, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bucketStats(doctorID, date, shift)
}

func (m *memStore) CountVideoSlot(ctx context.Context, doctorID, date, at string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countVideoSlot(doctorID, date, at)
}

func (m *memStore) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createAppointment(appt)
}

func (m *memStore) CreateWalkIn(ctx context.Context, walkIn *models.WalkIn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createWalkIn(walkIn)
}

func (m *memStore) CreateReminders(ctx context.Context, reminders []models.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createReminders(reminders)
}

func (m *memStore) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appointmentByID(id)
}

func (m *memStore) UpdateStatus(ctx context.Context, id string, from []models.AppointmentStatus, to models.AppointmentStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateStatus(id, from, to)
}

func (m *memStore) UpdateVisitSummary(ctx context.Context, id, summary, prescription string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateVisitSummary(id, summary, prescription)
}

func (m *memStore) InProgress(ctx context.Context, doctorID, date string, shift models.Shift) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inProgress(doctorID, date, shift)
}

func (m *memStore) AcceptedAfter(ctx context.Context, doctorID, date string, shift models.Shift, afterToken, limit int) ([]models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acceptedAfter(doctorID, date, shift, afterToken, limit)
}

// memTx is the in-transaction view. The mutex is already held by InTx.
type memTx struct {
	m *memStore
}

func (t *memTx) InTx(ctx context.Context, fn func(tx Store) error) error { return fn(t) }

func (t *memTx) DoctorForUpdate(ctx context.Context, doctorID string) (*models.Doctor, error) {
	return t.m.doctorForUpdate(doctorID)
}

func (t *memTx) GetDoctor(ctx context.Context, doctorID string) (*models.Doctor, error) {
	return t.m.doctorForUpdate(doctorID)
}

func (t *memTx) GetDoctorByUser(ctx context.Context, userID string) (*models.Doctor, error) {
	return t.m.getDoctorByUser(userID)
}

func (t *memTx) GetUser(ctx context.Context, id string) (*models.User, error) {
	return t.m.getUser(id)
}

func (t *memTx) BucketStats(ctx context.Context, doctorID, date string, shift models.Shift) (int64, int, error) {
	return t.m.bucketStats(doctorID, date, shift)
}

func (t *memTx) CountVideoSlot(ctx context.Context, doctorID, date, at string) (int64, error) {
	return t.m.countVideoSlot(doctorID, date, at)
}

func (t *memTx) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	return t.m.createAppointment(appt)
}

func (t *memTx) CreateWalkIn(ctx context.Context, walkIn *models.WalkIn) error {
	return t.m.createWalkIn(walkIn)
}

func (t *memTx) CreateReminders(ctx context.Context, reminders []models.Reminder) error {
	return t.m.createReminders(reminders)
}

func (t *memTx) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	return t.m.appointmentByID(id)
}

func (t *memTx) UpdateStatus(ctx context.Context, id string, from []models.AppointmentStatus, to models.AppointmentStatus) (bool, error) {
	return t.m.updateStatus(id, from, to)
}

func (t *memTx) UpdateVisitSummary(ctx context.Context, id, summary, prescription string) (bool, error) {
	return t.m.updateVisitSummary(id, summary, prescription)
}

func (t *memTx) InProgress(ctx context.Context, doctorID, date string, shift models.Shift) (*models.Appointment, error) {
	return t.m.inProgress(doctorID, date, shift)
}

func (t *memTx) AcceptedAfter(ctx context.Context, doctorID, date string, shift models.Shift, afterToken, limit int) ([]models.Appointment, error) {
	return t.m.acceptedAfter(doctorID, date, shift, afterToken, limit)
}

// Unlocked internals, shared by both views.

func (m *memStore) doctorForUpdate(doctorID string) (*models.Doctor, error) {
	doctor, ok := m.doctors[doctorID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *doctor
	return &cp, nil
}

func (m *memStore) getDoctorByUser(userID string) (*models.Doctor, error) {
	for _, doctor := range m.doctors {
		if doctor.UserID == userID {
			cp := *doctor
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) getUser(id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) bucketStats(doctorID, date string, shift models.Shift) (int64, int, error) {
	var count int64
	maxToken := 0
	for _, appt := range m.appointments {
		if appt.DoctorID == doctorID && appt.Date == date && appt.Shift == shift && appt.Type != models.TypeVideo {
			count++
			if appt.TokenNumber > maxToken {
				maxToken = appt.TokenNumber
			}
		}
	}
	return count, maxToken, nil
}

func (m *memStore) countVideoSlot(doctorID, date, at string) (int64, error) {
	var count int64
	for _, appt := range m.appointments {
		if appt.DoctorID == doctorID && appt.Date == date && appt.Time == at &&
			appt.Type == models.TypeVideo && appt.Status != models.StatusCancelled && appt.Status != models.StatusRejected {
			count++
		}
	}
	return count, nil
}

func (m *memStore) createAppointment(appt *models.Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	cp := *appt
	m.appointments[appt.ID] = &cp
	return nil
}

func (m *memStore) createWalkIn(walkIn *models.WalkIn) error {
	if walkIn.ID == "" {
		walkIn.ID = uuid.NewString()
	}
	cp := *walkIn
	m.walkIns[walkIn.ID] = &cp
	return nil
}

func (m *memStore) createReminders(reminders []models.Reminder) error {
	m.reminders = append(m.reminders, reminders...)
	return nil
}

func (m *memStore) appointmentByID(id string) (*models.Appointment, error) {
	if appt, ok := m.appointments[id]; ok {
		cp := *appt
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) updateStatus(id string, from []models.AppointmentStatus, to models.AppointmentStatus) (bool, error) {
	appt, ok := m.appointments[id]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if appt.Status == s {
			appt.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) updateVisitSummary(id, summary, prescription string) (bool, error) {
	appt, ok := m.appointments[id]
	if !ok || appt.Status != models.StatusCompleted {
		return false, nil
	}
	appt.VisitSummary = summary
	appt.Prescription = prescription
	return true, nil
}

func (m *memStore) inProgress(doctorID, date string, shift models.Shift) (*models.Appointment, error) {
	for _, appt := range m.appointments {
		if appt.DoctorID == doctorID && appt.Date == date && appt.Shift == shift && appt.Status == models.StatusInProgress {
			cp := *appt
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) acceptedAfter(doctorID, date string, shift models.Shift, afterToken, limit int) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, appt := range m.appointments {
		if appt.DoctorID == doctorID && appt.Date == date && appt.Shift == shift &&
			appt.Status == models.StatusAccepted && appt.TokenNumber > afterToken {
			out = append(out, *appt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TokenNumber < out[j].TokenNumber })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// captureNotifier records every emitted event.
type captureNotifier struct {
	mu     sync.Mutex
	events []events.Event
}

func (n *captureNotifier) NotifyEvent(ctx context.Context, e events.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *captureNotifier) all() []events.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]events.Event(nil), n.events...)
}

func (n *captureNotifier) ofType(t events.Type) []events.Event {
	var out []events.Event
	for _, e := range n.all() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
