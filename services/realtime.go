package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ably/ably-go/ably"
	"go.uber.org/zap"

	"github.com/AmyVerse/ayursutra-web-sub001/xerrors"
)

const channelTokenTTL int64 = 60 * 60 * 1000 // ms

type TokenRequester interface {
	CreateTokenRequest(params *ably.TokenParams, opts ...ably.AuthOption) (*ably.TokenRequest, error)
}

// RealtimeService mints subscribe-only token requests for a user's channels.
type RealtimeService struct {
	requester TokenRequester
	log       *zap.Logger
}

// NewRealtimeService returns an unconfigured service when apiKey is empty; token requests
// then fail with a configuration error.
func NewRealtimeService(apiKey string, log *zap.Logger) (*RealtimeService, error) {
	s := &RealtimeService{log: log}
	if apiKey == "" {
		return s, nil
	}
	rest, err := ably.NewREST(ably.WithKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("ably client: %w", err)
	}
	s.requester = rest.Auth
	return s, nil
}

func ChannelNames(ayursutraID string) []string {
	return []string{"notifications:" + ayursutraID, "appointments:" + ayursutraID}
}

func channelCapability(ayursutraID string) (string, error) {
	capability := make(map[string][]string, 2)
	for _, name := range ChannelNames(ayursutraID) {
		capability[name] = []string{"subscribe"}
	}
	b, err := json.Marshal(capability)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *RealtimeService) IssueChannelToken(ctx context.Context, ayursutraID string) (*ably.TokenRequest, error) {
	if ayursutraID == "" {
		return nil, xerrors.ErrAyursutraIDRequired
	}
	if s.requester == nil {
		return nil, xerrors.ErrRealtimeNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.KindUpstream, xerrors.ErrTokenRequestFailed.Message, err)
	}

	capability, err := channelCapability(ayursutraID)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindUpstream, xerrors.ErrTokenRequestFailed.Message, err)
	}
	req, err := s.requester.CreateTokenRequest(&ably.TokenParams{
		TTL:        channelTokenTTL,
		Capability: capability,
		ClientID:   ayursutraID,
	})
	if err != nil {
		return nil, xerrors.Wrap(xerrors.KindUpstream, xerrors.ErrTokenRequestFailed.Message, err)
	}
	s.log.Debug("channel token issued", zap.String("ayursutra_id", ayursutraID))
	return req, nil
}
