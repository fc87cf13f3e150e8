package services

import (
	"context"
	"time"

	"github.com/ably/ably-go/ably"
)

type mockSender struct {
	SendOTPFn func(ctx context.Context, recipient, code string, ttl time.Duration) error

	recipient string
	code      string
	calls     int
}

func (m *mockSender) SendOTP(ctx context.Context, recipient, code string, ttl time.Duration) error {
	m.calls++
	m.recipient, m.code = recipient, code
	if m.SendOTPFn != nil {
		return m.SendOTPFn(ctx, recipient, code, ttl)
	}
	return nil
}

type mockLimiter struct {
	AllowFn   func(ctx context.Context, identifier string) error
	ReleaseFn func(ctx context.Context, identifier string) error
}

func (m *mockLimiter) Allow(ctx context.Context, identifier string) error {
	return m.AllowFn(ctx, identifier)
}

func (m *mockLimiter) Release(ctx context.Context, identifier string) error {
	if m.ReleaseFn == nil {
		return nil
	}
	return m.ReleaseFn(ctx, identifier)
}

type mockTokenRequester struct {
	CreateTokenRequestFn func(params *ably.TokenParams, opts ...ably.AuthOption) (*ably.TokenRequest, error)
}

func (m *mockTokenRequester) CreateTokenRequest(params *ably.TokenParams, opts ...ably.AuthOption) (*ably.TokenRequest, error) {
	return m.CreateTokenRequestFn(params, opts...)
}
