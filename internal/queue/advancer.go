package queue

import (
	"context"

	"clinic-queue-server/internal/events"
	"clinic-queue-server/internal/models"
)

// CallResult reports what one call-next invocation did.
type CallResult struct {
	QueueEmpty     bool                 `json:"queueEmpty"`
	CalledToken    int                  `json:"calledToken,omitempty"`
	AppointmentID  string               `json:"appointmentId,omitempty"`
	CompletedToken int                  `json:"completedToken,omitempty"`
	Near           []models.Appointment `json:"-"`
}

// CallNext advances the doctor's queue for today's given shift: completes
// the current IN_PROGRESS appointment if any, promotes the ACCEPTED
// appointment with the smallest token, and flags up to the configured number
// of upcoming patients. Token order is the sole ordering key.
//
// Steps 1-3 are one transaction. The NEAR notifications are best-effort and
// happen after commit; their failure never unwinds the promotion. Calling
// with an empty queue is a valid no-op.
func (s *Service) CallNext(ctx context.Context, doctorUserID string, shift models.Shift) (*CallResult, error) {
	if shift != models.ShiftMorning && shift != models.ShiftEvening {
		return nil, ErrValidation
	}
	doctor, err := s.store.GetDoctorByUser(ctx, doctorUserID)
	if err != nil {
		return nil, err
	}
	if doctor == nil {
		return nil, ErrNotFound
	}

	date := s.now().Format(dateLayout)
	result := &CallResult{}
	var completed, promoted *models.Appointment

	err = s.store.InTx(ctx, func(tx Store) error {
		completed, promoted = nil, nil

		// lock the doctor row so concurrent advances and Start calls cannot
		// both observe an idle bucket and promote
		if _, err := tx.DoctorForUpdate(ctx, doctor.ID); err != nil {
			return err
		}

		current, err := tx.InProgress(ctx, doctor.ID, date, shift)
		if err != nil {
			return err
		}
		if current != nil {
			changed, err := tx.UpdateStatus(ctx, current.ID, []models.AppointmentStatus{models.StatusInProgress}, models.StatusCompleted)
			if err != nil {
				return err
			}
			if changed {
				current.Status = models.StatusCompleted
				completed = current
				result.CompletedToken = current.TokenNumber
			}
		}

		next, err := tx.AcceptedAfter(ctx, doctor.ID, date, shift, 0, 1)
		if err != nil {
			return err
		}
		if len(next) == 0 {
			result.QueueEmpty = true
			return nil
		}

		changed, err := tx.UpdateStatus(ctx, next[0].ID, []models.AppointmentStatus{models.StatusAccepted}, models.StatusInProgress)
		if err != nil {
			return err
		}
		if !changed {
			return ErrNotAllowed
		}
		next[0].Status = models.StatusInProgress
		promoted = &next[0]
		result.CalledToken = next[0].TokenNumber
		result.AppointmentID = next[0].ID

		near, err := tx.AcceptedAfter(ctx, doctor.ID, date, shift, next[0].TokenNumber, s.nearWindow)
		if err != nil {
			return err
		}
		result.Near = near
		return nil
	})
	if err != nil {
		return nil, err
	}

	if completed != nil {
		s.emit(ctx, events.AppointmentCompleted, completed, "")
	}
	if promoted != nil {
		s.emit(ctx, events.AppointmentReminder, promoted, events.ReminderNow)
		for i := range result.Near {
			s.emit(ctx, events.AppointmentReminder, &result.Near[i], events.ReminderNear)
		}
	}
	return result, nil
}
