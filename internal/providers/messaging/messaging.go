// Package messaging sends WhatsApp messages through the upstream
// business-messaging platform.
package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/samlahq/samla/internal/config"
	"github.com/samlahq/samla/internal/observability/metrics"
	"github.com/samlahq/samla/internal/providers"
)

// Outbound is an accepted outbound message.
type Outbound struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
}

// Provider is the WhatsApp messaging capability surface.
type Provider interface {
	// SendText delivers a free-form message inside an open conversation
	// window.
	SendText(ctx context.Context, from, to, body string) (*Outbound, error)
	// SendTemplate opens a conversation with a pre-approved template.
	SendTemplate(ctx context.Context, from, to, template string, params []string) (*Outbound, error)
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
		base:    strings.TrimRight(cfg.Providers.MessagingBaseURL, "/"),
		apiKey:  cfg.Providers.MessagingAPIKey,
		client:  client,
		log:     log.Named("providers.messaging"),
		metrics: m,
	}
}

func (p *restProvider) SendText(ctx context.Context, from, to, body string) (*Outbound, error) {
	return p.send(ctx, map[string]any{
		"from": from,
		"to":   to,
		"type": "text",
		"text": map[string]string{"body": body},
	})
}

func (p *restProvider) SendTemplate(ctx context.Context, from, to, template string, params []string) (*Outbound, error) {
	return p.send(ctx, map[string]any{
		"from":     from,
		"to":       to,
		"type":     "template",
		"template": map[string]any{"name": template, "params": params},
	})
}

func (p *restProvider) send(ctx context.Context, payload map[string]any) (*Outbound, error) {
	if p.base == "" || p.apiKey == "" {
		return nil, providers.ErrNotConfigured
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.base+"/messages", bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		p.fail(err)
		return nil, fmt.Errorf("%w: messaging platform unreachable", providers.ErrUnavailable)
	}

	var out Outbound
	if err := providers.DecodeResponse(resp, &out); err != nil {
		p.fail(err)
		return nil, err
	}
	return &out, nil
}

func (p *restProvider) fail(err error) {
	p.metrics.RecordProviderFailure("messaging")
	p.log.Warn("messaging call failed", zap.Error(err))
}
