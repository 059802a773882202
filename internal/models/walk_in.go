package models

// WalkIn is a lightweight identity for patients booked at the desk without
// a registered account. Appointments reference it instead of a patient ID
// when created by staff.
type WalkIn struct {
	BaseModel
	FullName string `gorm:"size:100;not null" json:"fullName"`
	Phone    string `gorm:"size:20" json:"phone,omitempty"`
}
