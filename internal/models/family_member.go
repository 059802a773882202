package models

// FamilyMember is a dependent a patient can book appointments for.
type FamilyMember struct {
	BaseModel
	PatientID  string `gorm:"size:36;index;not null" json:"patientId"`
	FullName   string `gorm:"size:100;not null" json:"fullName"`
	Gender     string `gorm:"size:10" json:"gender,omitempty"`
	DOB        string `gorm:"type:date" json:"dob,omitempty"`
	BloodGroup string `gorm:"size:5" json:"bloodGroup,omitempty"`
	Relation   string `gorm:"size:50;not null" json:"relation"`
}
