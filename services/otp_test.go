package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AmyVerse/ayursutra-web-sub001/authentication"
	"github.com/AmyVerse/ayursutra-web-sub001/models"
	"github.com/AmyVerse/ayursutra-web-sub001/testutil"
	"github.com/AmyVerse/ayursutra-web-sub001/xerrors"
)

type otpFixture struct {
	db    *gorm.DB
	svc   *OTPService
	email *mockSender
	sms   *mockSender
	clock time.Time
}

func newOTPFixture(t *testing.T) *otpFixture {
	f := &otpFixture{
		db:    testutil.OpenDB(t),
		email: &mockSender{},
		sms:   &mockSender{},
		clock: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	f.svc = NewOTPService(f.db, map[models.OTPChannel]authentication.OTPSender{
		models.ChannelEmail: f.email,
		models.ChannelSMS:   f.sms,
	}, nil, 10*time.Minute, 3, zap.NewNop())
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func TestSendPicksChannel(t *testing.T) {
	f := newOTPFixture(t)

	channel, err := f.svc.Send(context.Background(), "  Patient@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, models.ChannelEmail, channel)
	assert.Equal(t, "patient@example.com", f.email.recipient)
	assert.Regexp(t, `^[0-9]{6}$`, f.email.code)

	channel, err = f.svc.Send(context.Background(), "+919876543210")
	require.NoError(t, err)
	assert.Equal(t, models.ChannelSMS, channel)
	assert.Equal(t, 1, f.sms.calls)
}

func TestSendEmptyIdentifier(t *testing.T) {
	f := newOTPFixture(t)
	_, err := f.svc.Send(context.Background(), "   ")
	assert.ErrorIs(t, err, xerrors.ErrIdentifierRequired)
	assert.Equal(t, 0, f.sms.calls)
}

func TestSendDeliveryFailure(t *testing.T) {
	f := newOTPFixture(t)
	f.sms.SendOTPFn = func(context.Context, string, string, time.Duration) error {
		return errors.New("twilio 500")
	}
	_, err := f.svc.Send(context.Background(), "+911")
	assert.ErrorIs(t, err, xerrors.ErrOTPSendFailed)
	assert.Equal(t, xerrors.KindUpstream, xerrors.KindOf(err))
}

func TestSendDeliveryFailureReleasesCooldown(t *testing.T) {
	f := newOTPFixture(t)
	var released []string
	f.svc.limiter = &mockLimiter{
		AllowFn: func(context.Context, string) error { return nil },
		ReleaseFn: func(_ context.Context, identifier string) error {
			released = append(released, identifier)
			return nil
		},
	}
	f.email.SendOTPFn = func(context.Context, string, string, time.Duration) error {
		return errors.New("smtp: 421 service not available")
	}

	_, err := f.svc.Send(context.Background(), "Patient@Example.com")
	assert.ErrorIs(t, err, xerrors.ErrOTPSendFailed)
	assert.Equal(t, []string{"patient@example.com"}, released)

	f.email.SendOTPFn = nil
	_, err = f.svc.Send(context.Background(), "Patient@Example.com")
	require.NoError(t, err)
	assert.Len(t, released, 1, "successful sends keep the cooldown")
}

func TestSendRateLimited(t *testing.T) {
	f := newOTPFixture(t)
	f.svc.limiter = &mockLimiter{AllowFn: func(context.Context, string) error {
		return xerrors.New(xerrors.KindTooManyRequests, "Please wait 45 seconds before requesting another OTP")
	}}
	_, err := f.svc.Send(context.Background(), "+911")
	assert.Equal(t, xerrors.KindTooManyRequests, xerrors.KindOf(err))
	assert.Equal(t, 0, f.sms.calls)
}

func TestSendLimiterOutageFailsOpen(t *testing.T) {
	f := newOTPFixture(t)
	f.svc.limiter = &mockLimiter{AllowFn: func(context.Context, string) error {
		return errors.New("redis: connection refused")
	}}
	_, err := f.svc.Send(context.Background(), "+911")
	require.NoError(t, err)
	assert.Equal(t, 1, f.sms.calls)
}

func TestSendSupersedesOpenCodes(t *testing.T) {
	f := newOTPFixture(t)
	_, err := f.svc.Send(context.Background(), "+911")
	require.NoError(t, err)
	first := f.sms.code
	_, err = f.svc.Send(context.Background(), "+911")
	require.NoError(t, err)

	var open int64
	require.NoError(t, f.db.Model(&models.OTPRecord{}).Where("identifier = ? AND consumed_at IS NULL", "+911").Count(&open).Error)
	assert.Equal(t, int64(1), open)

	if first != f.sms.code {
		_, err = f.svc.Verify(context.Background(), "+911", first)
		assert.ErrorIs(t, err, xerrors.ErrOTPInvalid)
	}
}

func TestVerifySuccessConsumesAndMarksVerified(t *testing.T) {
	f := newOTPFixture(t)
	u := testutil.CreateUser(t, f.db, models.User{Role: models.RolePatient, Phone: testutil.Ptr("+911")})

	_, err := f.svc.Send(context.Background(), "+911")
	require.NoError(t, err)

	got, err := f.svc.Verify(context.Background(), "+911", f.sms.code)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, got.PhoneVerified)

	var stored models.User
	require.NoError(t, f.db.First(&stored, u.ID).Error)
	assert.True(t, stored.PhoneVerified)

	_, err = f.svc.Verify(context.Background(), "+911", f.sms.code)
	assert.ErrorIs(t, err, xerrors.ErrOTPNotFound)
}

func TestVerifyUnknownUserReturnsNil(t *testing.T) {
	f := newOTPFixture(t)
	_, err := f.svc.Send(context.Background(), "new@example.com")
	require.NoError(t, err)

	got, err := f.svc.Verify(context.Background(), "new@example.com", f.email.code)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestVerifyWrongCodeCountsAttempts(t *testing.T) {
	f := newOTPFixture(t)
	f.svc.generate = func(int) (string, error) { return "111111", nil }
	_, err := f.svc.Send(context.Background(), "+911")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = f.svc.Verify(context.Background(), "+911", "222222")
		assert.ErrorIs(t, err, xerrors.ErrOTPInvalid)
	}

	var rec models.OTPRecord
	require.NoError(t, f.db.Where("identifier = ?", "+911").First(&rec).Error)
	assert.Equal(t, 3, rec.Attempts)

	_, err = f.svc.Verify(context.Background(), "+911", "111111")
	assert.ErrorIs(t, err, xerrors.ErrOTPAttemptsExceeded)

	_, err = f.svc.Verify(context.Background(), "+911", "111111")
	assert.ErrorIs(t, err, xerrors.ErrOTPNotFound)
}

func TestVerifyExpired(t *testing.T) {
	f := newOTPFixture(t)
	_, err := f.svc.Send(context.Background(), "+911")
	require.NoError(t, err)

	f.clock = f.clock.Add(11 * time.Minute)
	_, err = f.svc.Verify(context.Background(), "+911", f.sms.code)
	assert.ErrorIs(t, err, xerrors.ErrOTPExpired)

	_, err = f.svc.Verify(context.Background(), "+911", f.sms.code)
	assert.ErrorIs(t, err, xerrors.ErrOTPNotFound)
}

func TestVerifyWithoutSend(t *testing.T) {
	f := newOTPFixture(t)
	_, err := f.svc.Verify(context.Background(), "+911", "123456")
	assert.ErrorIs(t, err, xerrors.ErrOTPNotFound)
}

func TestReserveAttemptStopsAtCap(t *testing.T) {
	f := newOTPFixture(t)
	rec := models.OTPRecord{
		Identifier: "+911",
		Code:       "111111",
		Channel:    models.ChannelSMS,
		ExpiresAt:  f.clock.Add(time.Minute),
		Attempts:   2,
	}
	require.NoError(t, f.db.Create(&rec).Error)

	ok, err := f.svc.reserveAttempt(f.db, rec.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.reserveAttempt(f.db, rec.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.db.First(&rec, rec.ID).Error)
	assert.Equal(t, 3, rec.Attempts)
}

func TestVerifyRejectsGuessOnceCapReached(t *testing.T) {
	f := newOTPFixture(t)
	rec := models.OTPRecord{
		Identifier: "+911",
		Code:       "111111",
		Channel:    models.ChannelSMS,
		ExpiresAt:  f.clock.Add(time.Minute),
		Attempts:   2,
	}
	require.NoError(t, f.db.Create(&rec).Error)

	_, err := f.svc.Verify(context.Background(), "+911", "222222")
	assert.ErrorIs(t, err, xerrors.ErrOTPInvalid)

	_, err = f.svc.Verify(context.Background(), "+911", "111111")
	assert.ErrorIs(t, err, xerrors.ErrOTPAttemptsExceeded)
}

func TestVerifyConcurrentGuessesBounded(t *testing.T) {
	f := newOTPFixture(t)
	f.svc.generate = func(int) (string, error) { return "111111", nil }
	_, err := f.svc.Send(context.Background(), "+911")
	require.NoError(t, err)

	const guesses = 40
	errs := make([]error, guesses)
	var wg sync.WaitGroup
	for i := 0; i < guesses; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Verify(context.Background(), "+911", "222222")
		}(i)
	}
	wg.Wait()

	invalid := 0
	for _, err := range errs {
		if errors.Is(err, xerrors.ErrOTPInvalid) {
			invalid++
			continue
		}
		assert.True(t, errors.Is(err, xerrors.ErrOTPAttemptsExceeded) || errors.Is(err, xerrors.ErrOTPNotFound), "unexpected error %v", err)
	}
	assert.Equal(t, 3, invalid)

	var rec models.OTPRecord
	require.NoError(t, f.db.Where("identifier = ?", "+911").First(&rec).Error)
	assert.Equal(t, 3, rec.Attempts)
	assert.NotNil(t, rec.ConsumedAt)
}
