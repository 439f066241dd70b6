// Package calendarsync pushes booked meetings to the tenant's external
// calendar account.
package calendarsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/samlahq/samla/internal/config"
	"github.com/samlahq/samla/internal/observability/metrics"
	"github.com/samlahq/samla/internal/providers"
)

// Event mirrors a calendar entry on the external account.
type Event struct {
	ExternalID string    `json:"id"`
	Title      string    `json:"summary"`
	StartsAt   time.Time `json:"start"`
	EndsAt     time.Time `json:"end"`
	Attendee   string    `json:"attendee,omitempty"`
}

// Provider is the external-calendar capability surface.
type Provider interface {
	CreateEvent(ctx context.Context, calendarRef string, ev Event) (*Event, error)
	DeleteEvent(ctx context.Context, calendarRef, externalID string) error
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
		base:    strings.TrimRight(cfg.Providers.CalendarBaseURL, "/"),
		apiKey:  cfg.Providers.CalendarAPIKey,
		client:  client,
		log:     log.Named("providers.calendarsync"),
		metrics: m,
	}
}

func (p *restProvider) CreateEvent(ctx context.Context, calendarRef string, ev Event) (*Event, error) {
	if p.base == "" || p.apiKey == "" {
		return nil, providers.ErrNotConfigured
	}

	buf, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.base+"/calendars/"+url.PathEscape(calendarRef)+"/events", bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		p.fail(err)
		return nil, fmt.Errorf("%w: calendar service unreachable", providers.ErrUnavailable)
	}

	var out Event
	if err := providers.DecodeResponse(resp, &out); err != nil {
		p.fail(err)
		return nil, err
	}
	return &out, nil
}

func (p *restProvider) DeleteEvent(ctx context.Context, calendarRef, externalID string) error {
	if p.base == "" || p.apiKey == "" {
		return providers.ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		p.base+"/calendars/"+url.PathEscape(calendarRef)+"/events/"+url.PathEscape(externalID), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", providers.ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		p.fail(err)
		return fmt.Errorf("%w: calendar service unreachable", providers.ErrUnavailable)
	}
	return providers.DecodeResponse(resp, nil)
}

func (p *restProvider) fail(err error) {
	p.metrics.RecordProviderFailure("calendarsync")
	p.log.Warn("calendar sync failed", zap.Error(err))
}
