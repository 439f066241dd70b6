// Package domain contains persistence models for the plan catalog.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// LimitMode controls what happens when a workspace exceeds a quota.
type LimitMode string

const (
	// LimitModeSoft bills overage past the included quota.
	LimitModeSoft LimitMode = "SOFT"
	// LimitModeHard blocks usage past the included quota.
	LimitModeHard LimitMode = "HARD"
)

// Plan is a pricing tier, instantiated per region by PlanRegion.
type Plan struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Code      string       `gorm:"type:text;not null;uniqueIndex:ux_plans_code" json:"code"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	IsPublic  bool         `gorm:"not null;default:true" json:"is_public"`
	IsActive  bool         `gorm:"not null;default:true" json:"is_active"`
	SortOrder int          `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Plan) TableName() string { return "plans" }

// Region is a market a plan can be sold in.
type Region struct {
	Code      string    `gorm:"type:text;primaryKey" json:"code"`
	Name      string    `gorm:"type:text;not null" json:"name"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Region) TableName() string { return "regions" }

// RegionCostAssumption feeds internal margin estimates only; it never
// reaches customer-facing surfaces.
type RegionCostAssumption struct {
	RegionCode          string          `gorm:"type:text;primaryKey" json:"region_code"`
	CostPerCallMinute   decimal.Decimal `gorm:"type:numeric(12,6);not null" json:"cost_per_call_minute"`
	CostPerConversation decimal.Decimal `gorm:"type:numeric(12,6);not null" json:"cost_per_conversation"`
	UpdatedAt           time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (RegionCostAssumption) TableName() string { return "region_cost_assumptions" }

// CountryRegionMap assigns a country to its billing region.
type CountryRegionMap struct {
	CountryCode string `gorm:"type:char(2);primaryKey" json:"country_code"`
	RegionCode  string `gorm:"type:text;not null;index" json:"region_code"`
}

// TableName sets the database table name.
func (CountryRegionMap) TableName() string { return "country_region_map" }

// PlanRegion is the region-specific instantiation of a plan: price,
// included quotas and overage unit prices.
type PlanRegion struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	PlanCode   string       `gorm:"type:text;not null;uniqueIndex:ux_plan_regions,priority:1" json:"plan_code"`
	RegionCode string       `gorm:"type:text;not null;uniqueIndex:ux_plan_regions,priority:2" json:"region_code"`

	Currency     string          `gorm:"type:char(3);not null" json:"currency"`
	DisplayPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"display_price"`

	// BillingPriceRef is the opaque upstream price reference used for
	// hosted checkout. Empty means checkout is not available.
	BillingPriceRef string `gorm:"type:text" json:"billing_price_ref,omitempty"`

	IncludedCallMinutes           int `gorm:"not null;default:0" json:"included_call_minutes"`
	IncludedWhatsappConversations int `gorm:"not null;default:0" json:"included_whatsapp_conversations"`
	IncludedSeats                 int `gorm:"not null;default:0" json:"included_seats"`
	IncludedAgents                int `gorm:"not null;default:0" json:"included_agents"`
	IncludedPhoneNumbers          int `gorm:"not null;default:0" json:"included_phone_numbers"`

	OveragePerCallMinute   decimal.Decimal `gorm:"type:numeric(12,6);not null;default:0" json:"overage_per_call_minute"`
	OveragePerConversation decimal.Decimal `gorm:"type:numeric(12,6);not null;default:0" json:"overage_per_conversation"`

	LimitMode LimitMode `gorm:"type:text;not null;default:'SOFT'" json:"limit_mode"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`

	// Version is bumped on every mutation. There is no compare-and-swap
	// guard: concurrent writers are last-write-wins.
	Version int64 `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (PlanRegion) TableName() string { return "plan_regions" }
