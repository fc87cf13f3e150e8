package models

import "time"

type NotificationStatus string

const (
	NotificationUnread NotificationStatus = "unread"
	NotificationRead   NotificationStatus = "read"
)

type Notification struct {
	ID                  uint               `gorm:"primaryKey" json:"id"`
	ReceiverAyursutraID string             `gorm:"size:32;not null;index:idx_notifications_receiver_status" json:"receiverAyursutraId"`
	Type                string             `gorm:"size:64" json:"type"`
	Title               string             `gorm:"size:255" json:"title"`
	Message             string             `gorm:"type:text" json:"message"`
	Status              NotificationStatus `gorm:"size:16;not null;default:unread;index:idx_notifications_receiver_status" json:"status"`
	ReadAt              *time.Time         `json:"readAt"`
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}
