package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreateSubscriptionRequest struct {
	WorkspaceID        snowflake.ID `json:"workspace_id"`
	PlanCode           string       `json:"plan_code"`
	RegionCode         string       `json:"region_code"`
	BillingCustomerRef string       `json:"-"`
}

type Service interface {
	Create(ctx context.Context, req CreateSubscriptionRequest) (*WorkspaceSubscription, error)
	// GetByWorkspace returns nil without error when the workspace has no
	// subscription.
	GetByWorkspace(ctx context.Context, workspaceID snowflake.ID) (*WorkspaceSubscription, error)
	ListActive(ctx context.Context) ([]WorkspaceSubscription, error)
	CancelAtPeriodEnd(ctx context.Context, workspaceID snowflake.ID) error
	// AdvanceRenewal moves the renewal date forward one month, or cancels
	// when cancel-at-period-end is set. Called by the scheduler.
	AdvanceRenewal(ctx context.Context, subscriptionID snowflake.ID, now time.Time) error
}

var (
	ErrInvalidWorkspace    = errors.New("invalid_workspace")
	ErrInvalidPlan         = errors.New("invalid_plan")
	ErrSubscriptionExists  = errors.New("subscription_exists")
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
)
