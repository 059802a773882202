package models

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusRequested  AppointmentStatus = "REQUESTED"
	StatusAccepted   AppointmentStatus = "ACCEPTED"
	StatusRejected   AppointmentStatus = "REJECTED"
	StatusInProgress AppointmentStatus = "IN_PROGRESS"
	StatusCompleted  AppointmentStatus = "COMPLETED"
	StatusCancelled  AppointmentStatus = "CANCELLED"
)

// IsTerminal reports whether no further transitions are permitted.
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusCompleted || s == StatusCancelled
}

// AppointmentType represents how the consultation happens
type AppointmentType string

const (
	TypeClinic   AppointmentType = "CLINIC"
	TypeHospital AppointmentType = "HOSPITAL"
	TypeVideo    AppointmentType = "VIDEO"
)

// Shift is the half-day booking window sharing one token bucket
type Shift string

const (
	ShiftMorning Shift = "MORNING"
	ShiftEvening Shift = "EVENING"
)

// BookingChannel records which channel created the appointment
type BookingChannel string

const (
	ChannelPatient BookingChannel = "PATIENT"
	ChannelQR      BookingChannel = "QR"
	ChannelStaff   BookingChannel = "STAFF"
	ChannelAdmin   BookingChannel = "ADMIN"
)

// Appointment represents one patient-doctor encounter.
// TokenNumber is the position in the (doctor, date, shift) queue; it is
// assigned once at booking and never reused, even after cancellation.
// VIDEO appointments carry a specific time instead of a shift and token.
type Appointment struct {
	BaseModel
	DoctorID       string            `gorm:"size:36;index:idx_bucket,priority:1;not null" json:"doctorId"`
	PatientID      *string           `gorm:"size:36;index" json:"patientId"`
	FamilyMemberID *string           `gorm:"size:36" json:"familyMemberId,omitempty"`
	WalkInID       *string           `gorm:"size:36" json:"walkInId,omitempty"`
	Type           AppointmentType   `gorm:"size:20;not null" json:"appointmentType"`
	Date           string            `gorm:"type:date;index:idx_bucket,priority:2" json:"appointmentDate"`
	Shift          Shift             `gorm:"size:10;index:idx_bucket,priority:3" json:"shift,omitempty"`
	Time           string            `gorm:"size:5" json:"appointmentTime,omitempty"` // HH:MM, VIDEO only
	TokenNumber    int               `json:"tokenNumber,omitempty"`
	Status         AppointmentStatus `gorm:"size:20;default:'REQUESTED'" json:"status"`
	CreatedBy      BookingChannel    `gorm:"size:10" json:"createdBy"`
	VisitSummary   string            `gorm:"type:text" json:"visitSummary,omitempty"`
	Prescription   string            `gorm:"type:text" json:"prescription,omitempty"`

	// Relations (serialized only when preloaded)
	Doctor       *Doctor       `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
	Patient      *User         `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	FamilyMember *FamilyMember `gorm:"foreignKey:FamilyMemberID" json:"familyMember,omitempty"`
	WalkIn       *WalkIn       `gorm:"foreignKey:WalkInID" json:"walkIn,omitempty"`
}
