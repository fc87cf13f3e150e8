package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AmyVerse/ayursutra-web-sub001/xerrors"
)

func TestForwardPassesThrough(t *testing.T) {
	var received map[string]any
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, ChatPath, r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"reply":"Drink warm water"}`))
	}))
	defer upstream.Close()

	proxy := NewAIProxy(upstream.URL, time.Second, zap.NewNop())
	status, body, err := proxy.Forward(context.Background(), ChatPath, map[string]any{"message": "hi"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, status)
	assert.JSONEq(t, `{"reply":"Drink warm water"}`, string(body))
	assert.Equal(t, "hi", received["message"])
}

func TestForwardUpstreamErrorStatusPassesThrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"bad"}`))
	}))
	defer upstream.Close()

	status, body, err := NewAIProxy(upstream.URL, time.Second, zap.NewNop()).
		Forward(context.Background(), MedicineSearchPath, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.JSONEq(t, `{"detail":"bad"}`, string(body))
}

func TestForwardFailures(t *testing.T) {
	_, _, err := NewAIProxy("", time.Second, zap.NewNop()).Forward(context.Background(), ChatPath, nil)
	assert.Equal(t, xerrors.KindConfiguration, xerrors.KindOf(err))

	html := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>gateway</html>"))
	}))
	defer html.Close()
	_, _, err = NewAIProxy(html.URL, time.Second, zap.NewNop()).Forward(context.Background(), ChatPath, nil)
	assert.Equal(t, xerrors.KindUpstream, xerrors.KindOf(err))

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer slow.Close()
	_, _, err = NewAIProxy(slow.URL, 50*time.Millisecond, zap.NewNop()).Forward(context.Background(), ChatPath, nil)
	assert.Equal(t, xerrors.KindUpstream, xerrors.KindOf(err))
}
