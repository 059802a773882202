package models

import "time"

// ReminderType classifies when a reminder fires relative to its appointment
type ReminderType string

const (
	ReminderDayBefore ReminderType = "DAY_BEFORE"
	ReminderSameDay   ReminderType = "SAME_DAY"
	ReminderFollowUp  ReminderType = "FOLLOW_UP"
)

// Reminder is created alongside booking (DAY_BEFORE, SAME_DAY) or after a
// visit summary (FOLLOW_UP) and consumed by the reminder poller.
type Reminder struct {
	BaseModel
	AppointmentID string       `gorm:"size:36;index;not null" json:"appointmentId"`
	Type          ReminderType `gorm:"size:20;not null" json:"reminderType"`
	ScheduledAt   time.Time    `gorm:"index" json:"scheduledAt"`
	Sent          bool         `gorm:"default:false" json:"sent"`

	// Relations
	Appointment Appointment `gorm:"foreignKey:AppointmentID" json:"-"`
}
