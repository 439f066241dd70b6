// Package voice synthesizes agent speech through the upstream
// text-to-speech service.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/samlahq/samla/internal/config"
	"github.com/samlahq/samla/internal/observability/metrics"
	"github.com/samlahq/samla/internal/providers"
)

// Voice is a selectable synthetic voice.
type Voice struct {
	ID   string `json:"voice_id"`
	Name string `json:"name"`
}

// Provider is the speech-synthesis capability surface.
type Provider interface {
	ListVoices(ctx context.Context) ([]Voice, error)
	// Synthesize renders text with the given voice and returns encoded
	// audio ready for telephony playback.
	Synthesize(ctx context.Context, voiceID, text string) ([]byte, error)
}

type restProvider struct {
	base    string
	apiKey  string
	client  *http.Client
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewProvider(cfg config.Config, client *http.Client, log *zap.Logger, m *metrics.Metrics) Provider {
	return &restProvider{
		base:    strings.TrimRight(cfg.Providers.VoiceBaseURL, "/"),
		apiKey:  cfg.Providers.VoiceAPIKey,
		client:  client,
		log:     log.Named("providers.voice"),
		metrics: m,
	}
}

func (p *restProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	if p.base == "" || p.apiKey == "" {
		return nil, providers.ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.base+"/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrUnavailable, err)
	}
	req.Header.Set("Xi-Api-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		p.fail(err)
		return nil, fmt.Errorf("%w: speech service unreachable", providers.ErrUnavailable)
	}

	var out struct {
		Voices []Voice `json:"voices"`
	}
	if err := providers.DecodeResponse(resp, &out); err != nil {
		p.fail(err)
		return nil, err
	}
	return out.Voices, nil
}

func (p *restProvider) Synthesize(ctx context.Context, voiceID, text string) ([]byte, error) {
	if p.base == "" || p.apiKey == "" {
		return nil, providers.ErrNotConfigured
	}

	buf, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.base+"/text-to-speech/"+url.PathEscape(voiceID), bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Xi-Api-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		p.fail(err)
		return nil, fmt.Errorf("%w: speech service unreachable", providers.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("%w: upstream status %d", providers.ErrUnavailable, resp.StatusCode)
		p.fail(err)
		return nil, err
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		p.fail(err)
		return nil, fmt.Errorf("%w: truncated audio", providers.ErrUnavailable)
	}
	return audio, nil
}

func (p *restProvider) fail(err error) {
	p.metrics.RecordProviderFailure("voice")
	p.log.Warn("voice call failed", zap.Error(err))
}
