package models

import "time"

// DoctorProfile holds the practice details of a doctor, keyed by the doctor's AyurSutra ID.
// Rows are provisioned out of band; the API only reads them.
type DoctorProfile struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	AyursutraID        string    `gorm:"uniqueIndex;size:32;not null" json:"ayursutraId"`
	Specialization     string    `gorm:"size:120" json:"specialization"`
	Experience         int       `json:"experience"`
	Rating             float64   `json:"rating"`
	IsVerified         bool      `gorm:"not null;default:false" json:"isVerified"`
	IsApproved         bool      `gorm:"not null;default:false" json:"isApproved"`
	LicenseNumber      string    `gorm:"size:64" json:"licenseNumber,omitempty"`
	RegistrationNumber string    `gorm:"size:64" json:"registrationNumber,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
