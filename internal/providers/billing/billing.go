// Package billing manages customer records on the upstream payment
// platform. Callers hold the opaque customer ref only.
package billing

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
	"go.uber.org/zap"

	"github.com/samlahq/samla/internal/config"
	"github.com/samlahq/samla/internal/observability/metrics"
	"github.com/samlahq/samla/internal/providers"
)

// Provider is the payment-platform capability surface.
type Provider interface {
	// CreateCustomer registers the workspace with the payment platform
	// and returns its opaque customer ref.
	CreateCustomer(ctx context.Context, workspaceID, name, email string) (string, error)
	DeleteCustomer(ctx context.Context, customerRef string) error

	// CreateCheckoutSession opens a hosted payment page for the plan's
	// upstream price and returns its URL.
	CreateCheckoutSession(ctx context.Context, customerRef, priceRef, successURL, cancelURL string) (string, error)
	// CreatePortalSession returns a hosted self-service billing portal
	// URL for the customer.
	CreatePortalSession(ctx context.Context, customerRef, returnURL string) (string, error)
}

type stripeProvider struct {
	api     *client.API
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewProvider(cfg config.Config, log *zap.Logger, m *metrics.Metrics) Provider {
	p := &stripeProvider{
		log:     log.Named("providers.billing"),
		metrics: m,
	}
	if cfg.Providers.BillingSecretKey != "" {
		p.api = &client.API{}
		p.api.Init(cfg.Providers.BillingSecretKey, nil)
	}
	return p
}

func (p *stripeProvider) CreateCustomer(ctx context.Context, workspaceID, name, email string) (string, error) {
	if p.api == nil {
		return "", providers.ErrNotConfigured
	}

	params := &stripe.CustomerParams{
		Name:  stripe.String(name),
		Email: stripe.String(email),
	}
	params.Context = ctx
	params.AddMetadata("workspace_id", workspaceID)

	cus, err := p.api.Customers.New(params)
	if err != nil {
		p.metrics.RecordProviderFailure("billing")
		p.log.Warn("customer create failed", zap.String("workspace_id", workspaceID), zap.Error(err))
		return "", fmt.Errorf("%w: payment platform error", providers.ErrUnavailable)
	}
	return cus.ID, nil
}

func (p *stripeProvider) DeleteCustomer(ctx context.Context, customerRef string) error {
	if p.api == nil {
		return providers.ErrNotConfigured
	}

	params := &stripe.CustomerParams{}
	params.Context = ctx

	if _, err := p.api.Customers.Del(customerRef, params); err != nil {
		p.metrics.RecordProviderFailure("billing")
		p.log.Warn("customer delete failed", zap.Error(err))
		return fmt.Errorf("%w: payment platform error", providers.ErrUnavailable)
	}
	return nil
}

func (p *stripeProvider) CreateCheckoutSession(ctx context.Context, customerRef, priceRef, successURL, cancelURL string) (string, error) {
	if p.api == nil {
		return "", providers.ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{
		Customer:   stripe.String(customerRef),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceRef),
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		p.metrics.RecordProviderFailure("billing")
		p.log.Warn("checkout session create failed", zap.Error(err))
		return "", fmt.Errorf("%w: payment platform error", providers.ErrUnavailable)
	}
	return sess.URL, nil
}

func (p *stripeProvider) CreatePortalSession(ctx context.Context, customerRef, returnURL string) (string, error) {
	if p.api == nil {
		return "", providers.ErrNotConfigured
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerRef),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := p.api.BillingPortalSessions.New(params)
	if err != nil {
		p.metrics.RecordProviderFailure("billing")
		p.log.Warn("portal session create failed", zap.Error(err))
		return "", fmt.Errorf("%w: payment platform error", providers.ErrUnavailable)
	}
	return sess.URL, nil
}
