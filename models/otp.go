package models

import "time"

type OTPChannel string

const (
	ChannelEmail OTPChannel = "email"
	ChannelSMS   OTPChannel = "sms"
)

// OTPRecord is one issued code. A record is open until ConsumedAt is set, which happens on
// successful verification, expiry, exhausted attempts, or a newer send for the same identifier.
type OTPRecord struct {
	ID         uint       `gorm:"primaryKey"`
	Identifier string     `gorm:"size:255;not null;index"`
	Code       string     `gorm:"size:12;not null"`
	Channel    OTPChannel `gorm:"size:8;not null"`
	ExpiresAt  time.Time  `gorm:"not null"`
	Attempts   int        `gorm:"not null;default:0"`
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// All lists every table owned by this service, in migration order.
func All() []any {
	return []any{&User{}, &DoctorProfile{}, &Notification{}, &OTPRecord{}}
}
