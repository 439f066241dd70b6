package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type CreatePlanRequest struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	IsPublic  bool   `json:"is_public"`
	SortOrder int    `json:"sort_order"`
}

type UpsertPlanRegionRequest struct {
	PlanCode   string `json:"plan_code"`
	RegionCode string `json:"region_code"`

	Currency        string          `json:"currency"`
	DisplayPrice    decimal.Decimal `json:"display_price"`
	BillingPriceRef string          `json:"billing_price_ref"`

	IncludedCallMinutes           int `json:"included_call_minutes"`
	IncludedWhatsappConversations int `json:"included_whatsapp_conversations"`
	IncludedSeats                 int `json:"included_seats"`
	IncludedAgents                int `json:"included_agents"`
	IncludedPhoneNumbers          int `json:"included_phone_numbers"`

	OveragePerCallMinute   decimal.Decimal `json:"overage_per_call_minute"`
	OveragePerConversation decimal.Decimal `json:"overage_per_conversation"`

	LimitMode LimitMode `json:"limit_mode"`
}

type Service interface {
	CreatePlan(ctx context.Context, req CreatePlanRequest) (*Plan, error)
	ListPlans(ctx context.Context, includeHidden bool) ([]Plan, error)
	SetPlanActive(ctx context.Context, code string, active bool) error

	// UpsertPlanRegion creates or mutates a plan-region row, bumping its
	// version counter on every write.
	UpsertPlanRegion(ctx context.Context, req UpsertPlanRegionRequest) (*PlanRegion, error)
	// ResolvePlanRegion returns the active plan-region row for the pair.
	ResolvePlanRegion(ctx context.Context, planCode, regionCode string) (*PlanRegion, error)
	ListPlanRegions(ctx context.Context, regionCode string) ([]PlanRegion, error)

	ListRegions(ctx context.Context) ([]Region, error)
	// RegionForCountry maps an ISO country code to its billing region.
	RegionForCountry(ctx context.Context, countryCode string) (string, error)
	CostAssumption(ctx context.Context, regionCode string) (*RegionCostAssumption, error)
	UpsertCostAssumption(ctx context.Context, assumption RegionCostAssumption) error
}

var (
	ErrInvalidPlanCode   = errors.New("invalid_plan_code")
	ErrInvalidPlanName   = errors.New("invalid_plan_name")
	ErrInvalidRegionCode = errors.New("invalid_region_code")
	ErrInvalidCountry    = errors.New("invalid_country")
	ErrInvalidCurrency   = errors.New("invalid_currency")
	ErrInvalidLimitMode  = errors.New("invalid_limit_mode")
	ErrInvalidQuota      = errors.New("invalid_quota")
	ErrPlanExists        = errors.New("plan_exists")
	ErrPlanNotFound      = errors.New("plan_not_found")
	ErrRegionNotFound    = errors.New("region_not_found")
	ErrPlanRegionNotFound = errors.New("plan_region_not_found")
)
