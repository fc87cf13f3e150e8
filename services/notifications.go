package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/AmyVerse/ayursutra-web-sub001/models"
	"github.com/AmyVerse/ayursutra-web-sub001/xerrors"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

type NotificationService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db, now: time.Now}
}

// List returns the receiver's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, receiver string, limit, offset int) ([]models.Notification, error) {
	if receiver == "" {
		return nil, xerrors.ErrAyursutraIDRequired
	}
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}
	if offset < 0 {
		offset = 0
	}

	notifications := []models.Notification{}
	err := s.db.WithContext(ctx).
		Where("receiver_ayursutra_id = ?", receiver).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindInternal, "list notifications", err)
	}
	return notifications, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, receiver string) (int64, error) {
	if receiver == "" {
		return 0, xerrors.ErrAyursutraIDRequired
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("receiver_ayursutra_id = ? AND status = ?", receiver, models.NotificationUnread).
		Count(&count).Error
	if err != nil {
		return 0, xerrors.Wrap(xerrors.KindInternal, "count notifications", err)
	}
	return count, nil
}

// MarkRead flips one unread notification of receiver to read.
func (s *NotificationService) MarkRead(ctx context.Context, receiver string, id uint) error {
	if receiver == "" {
		return xerrors.ErrAyursutraIDRequired
	}
	now := s.now()
	res := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND receiver_ayursutra_id = ? AND status = ?", id, receiver, models.NotificationUnread).
		UpdateColumns(map[string]any{
			"status":     models.NotificationRead,
			"read_at":    now,
			"updated_at": now,
		})
	if res.Error != nil {
		return xerrors.Wrap(xerrors.KindInternal, "mark notification read", res.Error)
	}
	if res.RowsAffected == 0 {
		return xerrors.ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of receiver as read in one statement and
// returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, receiver string) (int64, error) {
	if receiver == "" {
		return 0, xerrors.ErrAyursutraIDRequired
	}
	now := s.now()
	res := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("receiver_ayursutra_id = ? AND status = ?", receiver, models.NotificationUnread).
		UpdateColumns(map[string]any{
			"status":     models.NotificationRead,
			"read_at":    now,
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, xerrors.Wrap(xerrors.KindInternal, "mark notifications read", res.Error)
	}
	return res.RowsAffected, nil
}
