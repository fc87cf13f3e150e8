package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/AmyVerse/ayursutra-web-sub001/xerrors"
)

const (
	ChatPath           = "/chat"
	MedicineSearchPath = "/medicines/search"

	maxUpstreamBody = 5 << 20
)

const errAIUnavailable = "Failed to reach AI service"

// AIProxy forwards JSON requests to the AI backend and hands its reply back untouched.
type AIProxy struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

func NewAIProxy(baseURL string, timeout time.Duration, log *zap.Logger) *AIProxy {
	return &AIProxy{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Forward posts payload to path and returns the upstream status and JSON body.
func (p *AIProxy) Forward(ctx context.Context, path string, payload any) (int, json.RawMessage, error) {
	if p.baseURL == "" {
		return 0, nil, xerrors.New(xerrors.KindConfiguration, "AI service not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, xerrors.Wrap(xerrors.KindInternal, "encode proxy payload", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, xerrors.Wrap(xerrors.KindConfiguration, "AI service not configured", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, nil, xerrors.Wrap(xerrors.KindUpstream, errAIUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return 0, nil, xerrors.Wrap(xerrors.KindUpstream, errAIUnavailable, err)
	}
	if !json.Valid(raw) {
		return 0, nil, xerrors.Wrap(xerrors.KindUpstream, errAIUnavailable,
			fmt.Errorf("non-JSON reply from %s (status %d)", path, resp.StatusCode))
	}

	p.log.Info("ai proxy",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))
	return resp.StatusCode, json.RawMessage(raw), nil
}
