// Package telephony provisions phone numbers and places outbound calls
// through the upstream voice carrier.
package telephony

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/samlahq/samla/internal/config"
	"github.com/samlahq/samla/internal/observability/metrics"
	"github.com/samlahq/samla/internal/providers"
)

// PhoneNumber is a provisioned inbound number.
type PhoneNumber struct {
	SID         string `json:"sid"`
	E164        string `json:"phone_number"`
	CountryCode string `json:"iso_country"`
}

// Call is an outbound call accepted by the carrier.
type Call struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// Provider is the telephony capability surface.
type Provider interface {
	ProvisionNumber(ctx context.Context, countryCode string) (*PhoneNumber, error)
	ReleaseNumber(ctx context.Context, sid string) error
	// StartCall dials to and connects the answered call to the control
	// webhook at callbackURL.
	StartCall(ctx context.Context, from, to, callbackURL string) (*Call, error)
}

type restProvider struct {
	base    string
	authSID string
	authKey string
	client  *http.Client
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewProvider(cfg config.Config, client *http.Client, log *zap.Logger, m *metrics.Metrics) Provider {
	return &restProvider{
		base:    strings.TrimRight(cfg.Providers.TelephonyBaseURL, "/"),
		authSID: cfg.Providers.TelephonyAuthSID,
		authKey: cfg.Providers.TelephonyAuthKey,
		client:  client,
		log:     log.Named("providers.telephony"),
		metrics: m,
	}
}

func (p *restProvider) configured() bool {
	return p.base != "" && p.authSID != "" && p.authKey != ""
}

func (p *restProvider) ProvisionNumber(ctx context.Context, countryCode string) (*PhoneNumber, error) {
	form := url.Values{}
	form.Set("IsoCountry", strings.ToUpper(countryCode))

	var number PhoneNumber
	if err := p.post(ctx, "/IncomingPhoneNumbers", form, &number); err != nil {
		return nil, err
	}
	p.log.Info("number provisioned", zap.String("country", countryCode), zap.String("sid", number.SID))
	return &number, nil
}

func (p *restProvider) ReleaseNumber(ctx context.Context, sid string) error {
	if !p.configured() {
		return providers.ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, p.base+"/IncomingPhoneNumbers/"+url.PathEscape(sid), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", providers.ErrUnavailable, err)
	}
	req.SetBasicAuth(p.authSID, p.authKey)

	resp, err := p.client.Do(req)
	if err != nil {
		p.fail("request", err)
		return fmt.Errorf("%w: carrier unreachable", providers.ErrUnavailable)
	}
	return providers.DecodeResponse(resp, nil)
}

func (p *restProvider) StartCall(ctx context.Context, from, to, callbackURL string) (*Call, error) {
	form := url.Values{}
	form.Set("From", from)
	form.Set("To", to)
	form.Set("Url", callbackURL)

	var call Call
	if err := p.post(ctx, "/Calls", form, &call); err != nil {
		return nil, err
	}
	return &call, nil
}

func (p *restProvider) post(ctx context.Context, path string, form url.Values, out any) error {
	if !p.configured() {
		return providers.ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.base+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", providers.ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(p.authSID, p.authKey)

	resp, err := p.client.Do(req)
	if err != nil {
		p.fail(path, err)
		return fmt.Errorf("%w: carrier unreachable", providers.ErrUnavailable)
	}
	if err := providers.DecodeResponse(resp, out); err != nil {
		p.fail(path, err)
		return err
	}
	return nil
}

func (p *restProvider) fail(op string, err error) {
	p.metrics.RecordProviderFailure("telephony")
	p.log.Warn("telephony call failed", zap.String("op", op), zap.Error(err))
}
