package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of account kinds. Values outside it are rejected by ParseRole.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RolePatient:
		return RolePatient, nil
	case RoleDoctor:
		return RoleDoctor, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// IDPrefix is the role code embedded in an AyurSutra ID.
func (r Role) IDPrefix() string {
	switch r {
	case RoleDoctor:
		return "D"
	case RolePatient:
		return "P"
	}
	return ""
}

type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	AyursutraID   *string   `gorm:"uniqueIndex;size:32" json:"ayursutraId"`
	Name          string    `gorm:"size:120;not null" json:"name"`
	Email         *string   `gorm:"uniqueIndex;size:255" json:"email"`
	Phone         *string   `gorm:"uniqueIndex;size:32" json:"phone"`
	PasswordHash  *string   `json:"-"`
	Role          Role      `gorm:"size:16;not null;index" json:"role"`
	EmailVerified bool      `gorm:"not null;default:false" json:"emailVerified"`
	PhoneVerified bool      `gorm:"not null;default:false" json:"phoneVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (u *User) AyursutraIDValue() string {
	if u.AyursutraID == nil {
		return ""
	}
	return *u.AyursutraID
}

func (u *User) PhoneValue() string {
	if u.Phone == nil {
		return ""
	}
	return *u.Phone
}

func (u *User) EmailValue() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}
