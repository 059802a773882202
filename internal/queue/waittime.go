package queue

import (
	"context"

	"clinic-queue-server/internal/models"
)

// TokenStatus is the patient-facing view of their place in the queue.
type TokenStatus struct {
	YourToken            int `json:"yourToken"`
	NowServing           int `json:"nowServing"`
	EstimatedWaitMinutes int `json:"estimatedWaitMinutes"`
}

// GetTokenStatus derives "now serving" and an estimated wait for the
// patient's appointment. The estimate is token distance times the doctor's
// average consultation duration; it is not a guarantee.
func (s *Service) GetTokenStatus(ctx context.Context, patientUserID, appointmentID string) (*TokenStatus, error) {
	appt, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt == nil || appt.PatientID == nil || *appt.PatientID != patientUserID {
		return nil, ErrNotFound
	}
	if appt.Type == models.TypeVideo {
		return nil, ErrNotFound
	}

	nowServing := 0
	current, err := s.store.InProgress(ctx, appt.DoctorID, appt.Date, appt.Shift)
	if err != nil {
		return nil, err
	}
	if current != nil {
		nowServing = current.TokenNumber
	} else {
		accepted, err := s.store.AcceptedAfter(ctx, appt.DoctorID, appt.Date, appt.Shift, 0, 1)
		if err != nil {
			return nil, err
		}
		if len(accepted) > 0 {
			nowServing = accepted[0].TokenNumber
		}
	}
	if nowServing == 0 {
		// degenerate case: nothing in progress, nothing accepted
		nowServing = appt.TokenNumber
	}

	minutes := s.defaultConsultMinutes
	if doctor, err := s.store.GetDoctor(ctx, appt.DoctorID); err == nil && doctor != nil && doctor.AvgConsultMinutes > 0 {
		minutes = doctor.AvgConsultMinutes
	}

	ahead := appt.TokenNumber - nowServing
	if ahead < 0 {
		ahead = 0
	}
	return &TokenStatus{
		YourToken:            appt.TokenNumber,
		NowServing:           nowServing,
		EstimatedWaitMinutes: ahead * minutes,
	}, nil
}
