package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AmyVerse/ayursutra-web-sub001/authentication"
	"github.com/AmyVerse/ayursutra-web-sub001/models"
	"github.com/AmyVerse/ayursutra-web-sub001/xerrors"
)

// OTPLimiter gates sends per identifier. Release undoes the cooldown of a send that was
// allowed but never delivered.
type OTPLimiter interface {
	Allow(ctx context.Context, identifier string) error
	Release(ctx context.Context, identifier string) error
}

type OTPService struct {
	db          *gorm.DB
	senders     map[models.OTPChannel]authentication.OTPSender
	limiter     OTPLimiter
	ttl         time.Duration
	maxAttempts int
	log         *zap.Logger

	now      func() time.Time
	generate func(int) (string, error)
}

// NewOTPService wires the delivery channels. limiter may be nil.
func NewOTPService(db *gorm.DB, senders map[models.OTPChannel]authentication.OTPSender, limiter OTPLimiter,
	ttl time.Duration, maxAttempts int, log *zap.Logger) *OTPService {
	return &OTPService{
		db:          db,
		senders:     senders,
		limiter:     limiter,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		log:         log,
		now:         time.Now,
		generate:    authentication.GenerateOTP,
	}
}

func normalizeIdentifier(identifier string) (string, models.OTPChannel) {
	identifier = strings.TrimSpace(identifier)
	channel := authentication.ChannelFor(identifier)
	if channel == models.ChannelEmail {
		identifier = strings.ToLower(identifier)
	}
	return identifier, channel
}

// Send issues a fresh code for identifier, superseding any open one, and delivers it.
func (s *OTPService) Send(ctx context.Context, identifier string) (models.OTPChannel, error) {
	identifier, channel := normalizeIdentifier(identifier)
	if identifier == "" {
		return "", xerrors.ErrIdentifierRequired
	}

	sender, ok := s.senders[channel]
	if !ok {
		return "", xerrors.Wrap(xerrors.KindUpstream, xerrors.ErrOTPSendFailed.Message,
			fmt.Errorf("no sender for channel %s", channel))
	}

	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, identifier); err != nil {
			if xerrors.KindOf(err) == xerrors.KindTooManyRequests {
				return "", err
			}
			// Redis trouble should not lock users out of sign-in.
			s.log.Warn("otp limiter unavailable", zap.Error(err))
		}
	}

	code, err := s.generate(authentication.OTPLength)
	if err != nil {
		return "", s.sendFailed(ctx, identifier, err)
	}

	now := s.now()
	record := models.OTPRecord{
		Identifier: identifier,
		Code:       code,
		Channel:    channel,
		ExpiresAt:  now.Add(s.ttl),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.OTPRecord{}).
			Where("identifier = ? AND consumed_at IS NULL", identifier).
			Update("consumed_at", now).Error; err != nil {
			return err
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return "", s.sendFailed(ctx, identifier, err)
	}

	if err := sender.SendOTP(ctx, identifier, code, s.ttl); err != nil {
		return "", s.sendFailed(ctx, identifier, err)
	}

	s.log.Info("otp sent", zap.Uint("otp_id", record.ID), zap.String("channel", string(channel)))
	return channel, nil
}

// sendFailed lifts the cooldown so the user can retry right away.
func (s *OTPService) sendFailed(ctx context.Context, identifier string, cause error) error {
	if s.limiter != nil {
		if err := s.limiter.Release(ctx, identifier); err != nil {
			s.log.Warn("release otp cooldown", zap.Error(err))
		}
	}
	return xerrors.Wrap(xerrors.KindUpstream, xerrors.ErrOTPSendFailed.Message, cause)
}

// Verify checks code against the newest open record. On success the record is consumed and
// the matching user, if any, is returned with its email or phone marked verified.
func (s *OTPService) Verify(ctx context.Context, identifier, code string) (*models.User, error) {
	identifier, channel := normalizeIdentifier(identifier)
	if identifier == "" {
		return nil, xerrors.ErrIdentifierRequired
	}
	db := s.db.WithContext(ctx)

	var record models.OTPRecord
	err := db.Where("identifier = ? AND consumed_at IS NULL", identifier).
		Order("id DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerrors.ErrOTPNotFound
		}
		return nil, xerrors.Wrap(xerrors.KindInternal, "load otp", err)
	}

	now := s.now()
	if !now.Before(record.ExpiresAt) {
		s.consume(db, record.ID, now)
		return nil, xerrors.ErrOTPExpired
	}
	if record.Attempts >= s.maxAttempts {
		s.consume(db, record.ID, now)
		return nil, xerrors.ErrOTPAttemptsExceeded
	}

	// Every comparison costs an attempt, reserved before the code is looked at.
	reserved, err := s.reserveAttempt(db, record.ID)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindInternal, "count otp attempt", err)
	}
	if !reserved {
		if consumed := s.consume(db, record.ID, now); !consumed {
			return nil, xerrors.ErrOTPNotFound
		}
		return nil, xerrors.ErrOTPAttemptsExceeded
	}

	if subtle.ConstantTimeCompare([]byte(record.Code), []byte(strings.TrimSpace(code))) != 1 {
		return nil, xerrors.ErrOTPInvalid
	}

	res := db.Model(&models.OTPRecord{}).
		Where("id = ? AND consumed_at IS NULL", record.ID).
		Update("consumed_at", now)
	if res.Error != nil {
		return nil, xerrors.Wrap(xerrors.KindInternal, "consume otp", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, xerrors.ErrOTPNotFound
	}

	column, verified := "phone", "phone_verified"
	if channel == models.ChannelEmail {
		column, verified = "email", "email_verified"
	}
	var user models.User
	if err := db.Where(column+" = ?", identifier).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, xerrors.Wrap(xerrors.KindInternal, "load user", err)
	}
	if err := db.Model(&user).Update(verified, true).Error; err != nil {
		return nil, xerrors.Wrap(xerrors.KindInternal, "mark verified", err)
	}
	if channel == models.ChannelEmail {
		user.EmailVerified = true
	} else {
		user.PhoneVerified = true
	}
	return &user, nil
}

// reserveAttempt bumps the attempt counter only while the record is open and under the cap.
// It reports whether this caller got one of the remaining attempts.
func (s *OTPService) reserveAttempt(db *gorm.DB, id uint) (bool, error) {
	res := db.Model(&models.OTPRecord{}).
		Where("id = ? AND consumed_at IS NULL AND attempts < ?", id, s.maxAttempts).
		UpdateColumn("attempts", gorm.Expr("attempts + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// consume closes an open record and reports whether this call was the one that closed it.
func (s *OTPService) consume(db *gorm.DB, id uint, at time.Time) bool {
	res := db.Model(&models.OTPRecord{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("consumed_at", at)
	if res.Error != nil {
		s.log.Warn("consume otp", zap.Uint("otp_id", id), zap.Error(res.Error))
		return false
	}
	return res.RowsAffected == 1
}
