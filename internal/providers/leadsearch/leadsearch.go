// Package leadsearch queries the upstream B2B contact database.
package leadsearch

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

// Query filters a people search.
type Query struct {
	Titles    []string `json:"person_titles,omitempty"`
	Locations []string `json:"person_locations,omitempty"`
	Keywords  string   `json:"q_keywords,omitempty"`
	Page      int      `json:"page,omitempty"`
}

// Person is a single search hit.
type Person struct {
	ExternalID string `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Title      string `json:"title"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Company    string `json:"organization_name"`
}

// Provider is the lead-search capability surface.
type Provider interface {
	SearchPeople(ctx context.Context, q Query) ([]Person, error)
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
		base:    strings.TrimRight(cfg.Providers.LeadSearchBaseURL, "/"),
		apiKey:  cfg.Providers.LeadSearchAPIKey,
		client:  client,
		log:     log.Named("providers.leadsearch"),
		metrics: m,
	}
}

func (p *restProvider) SearchPeople(ctx context.Context, q Query) ([]Person, error) {
	if p.base == "" || p.apiKey == "" {
		return nil, providers.ErrNotConfigured
	}

	buf, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.base+"/people/search", bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		p.metrics.RecordProviderFailure("leadsearch")
		p.log.Warn("lead search failed", zap.Error(err))
		return nil, fmt.Errorf("%w: contact database unreachable", providers.ErrUnavailable)
	}

	var out struct {
		People []Person `json:"people"`
	}
	if err := providers.DecodeResponse(resp, &out); err != nil {
		p.metrics.RecordProviderFailure("leadsearch")
		p.log.Warn("lead search failed", zap.Error(err))
		return nil, err
	}
	return out.People, nil
}
