// Package domain contains persistence models for workspace subscriptions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// SubscriptionStatus represents lifecycle states for a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "ACTIVE"
	SubscriptionStatusPastDue  SubscriptionStatus = "PAST_DUE"
	SubscriptionStatusCanceled SubscriptionStatus = "CANCELED"
)

// WorkspaceSubscription captures a workspace's billing agreement. At most
// one row exists per workspace.
type WorkspaceSubscription struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID `gorm:"not null;uniqueIndex:ux_subscriptions_workspace" json:"workspace_id"`

	PlanCode   string             `gorm:"type:text;not null" json:"plan_code"`
	RegionCode string             `gorm:"type:text;not null;index" json:"region_code"`
	Status     SubscriptionStatus `gorm:"type:text;not null" json:"status"`

	RenewsAt          time.Time `gorm:"not null" json:"renews_at"`
	CancelAtPeriodEnd bool      `gorm:"not null;default:false" json:"cancel_at_period_end"`

	// BillingCustomerRef is the opaque billing-provider customer handle.
	BillingCustomerRef string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (WorkspaceSubscription) TableName() string { return "workspace_subscriptions" }
