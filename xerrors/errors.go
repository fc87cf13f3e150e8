// Package xerrors carries the error taxonomy shared by services, middleware and handlers.
// Every error that reaches a handler is classified by Kind; the Kind decides the HTTP status
// and whether the message is safe to show to a client.
package xerrors

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindInvalidInput
	KindConflict
	KindTooManyRequests
	KindUpstream
	KindMethodNotAllowed
	KindConfiguration
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two *Error values of the same kind and message, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Status(kind Kind) int {
	switch kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	}
	return http.StatusInternalServerError
}

// Public reports whether the error's message may be shown to clients as-is.
// Upstream, configuration and internal failures are collapsed to their generic message.
func Public(kind Kind) bool {
	switch kind {
	case KindUpstream, KindConfiguration, KindInternal:
		return false
	}
	return true
}

// Generic
var (
	ErrUnauthorized     = New(KindUnauthorized, "Unauthorized")
	ErrForbidden        = New(KindForbidden, "Forbidden")
	ErrMethodNotAllowed = New(KindMethodNotAllowed, "Method not allowed")
	ErrInternal         = New(KindInternal, "Internal server error")
	ErrInvalidBody      = New(KindInvalidInput, "Invalid request body")
)

// Accounts
var (
	ErrUserNotFound          = New(KindNotFound, "User not found")
	ErrDoctorProfileNotFound = New(KindNotFound, "Doctor profile not found")
	ErrInvalidCredentials    = New(KindUnauthorized, "Invalid credentials")
	ErrAccountExists         = New(KindConflict, "An account with this email or phone already exists")
	ErrAccountNotFound       = New(KindUnauthorized, "No account found for this identifier")
	ErrIdentifierRequired    = New(KindInvalidInput, "Phone or email is required")
	ErrAyursutraIDRequired   = New(KindInvalidInput, "AyurSutra ID is required")
	ErrAyursutraIDMissing    = New(KindForbidden, "AyurSutra ID not assigned")
)

// OTP
var (
	ErrOTPSendFailed       = New(KindUpstream, "Failed to send OTP")
	ErrOTPInvalid          = New(KindInvalidInput, "Invalid OTP")
	ErrOTPNotFound         = New(KindInvalidInput, "Invalid or expired OTP")
	ErrOTPExpired          = New(KindInvalidInput, "OTP has expired")
	ErrOTPAttemptsExceeded = New(KindTooManyRequests, "Too many failed attempts, request a new OTP")
)

// Notifications / realtime
var (
	ErrNotificationNotFound  = New(KindNotFound, "Notification not found")
	ErrRealtimeNotConfigured = New(KindConfiguration, "Realtime service not configured")
	ErrTokenRequestFailed    = New(KindUpstream, "Failed to create token request")
)
