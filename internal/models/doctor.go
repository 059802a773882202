package models

// DoctorStatus represents the onboarding status of a doctor profile
type DoctorStatus string

const (
	DoctorPending  DoctorStatus = "PENDING"
	DoctorApproved DoctorStatus = "APPROVED"
	DoctorRejected DoctorStatus = "REJECTED"
)

// Doctor represents a doctor profile awaiting or holding admin approval.
// The availability flag gates booking and its row serves as the row lock
// serializing token allocation for this doctor's queue.
type Doctor struct {
	BaseModel
	UserID            string       `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	Specialization    string       `gorm:"size:100" json:"specialization"`
	Degree            string       `gorm:"size:100" json:"degree"`
	LicenseNumber     string       `gorm:"size:100;uniqueIndex" json:"licenseNumber"`
	ClinicName        string       `gorm:"size:255" json:"clinicName"`
	City              string       `gorm:"size:100" json:"city"`
	Address           string       `gorm:"size:255" json:"address"`
	ConsultationFee   int          `json:"consultationFee"`
	AvgConsultMinutes int          `gorm:"default:10" json:"avgConsultMinutes"`
	Status            DoctorStatus `gorm:"size:20;default:'PENDING'" json:"status"`
	IsAvailable       bool         `gorm:"default:true" json:"isAvailable"`

	// Relations (serialized only when preloaded)
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
