package xerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("assign: %w", ErrUserNotFound)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestIsMatchesKindAndMessage(t *testing.T) {
	wrapped := Wrap(KindUpstream, ErrOTPSendFailed.Message, errors.New("dial tcp: timeout"))
	assert.ErrorIs(t, wrapped, ErrOTPSendFailed)
	assert.NotErrorIs(t, wrapped, ErrTokenRequestFailed)
}

func TestStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindUnauthorized:     http.StatusUnauthorized,
		KindForbidden:        http.StatusForbidden,
		KindNotFound:         http.StatusNotFound,
		KindInvalidInput:     http.StatusBadRequest,
		KindConflict:         http.StatusConflict,
		KindTooManyRequests:  http.StatusTooManyRequests,
		KindMethodNotAllowed: http.StatusMethodNotAllowed,
		KindUpstream:         http.StatusInternalServerError,
		KindConfiguration:    http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, Status(kind))
	}
}

func TestPublic(t *testing.T) {
	assert.True(t, Public(KindInvalidInput))
	assert.False(t, Public(KindUpstream))
	assert.False(t, Public(KindConfiguration))
}
