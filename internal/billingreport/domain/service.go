// Package domain defines the staff-facing revenue and margin reports.
package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// RegionUsage aggregates current-period consumption across every active
// subscription in a region.
type RegionUsage struct {
	RegionCode                string          `json:"region_code"`
	WorkspaceCount            int             `json:"workspace_count"`
	CallMinutesUsed           int             `json:"call_minutes_used"`
	WhatsappConversationsUsed int             `json:"whatsapp_conversations_used"`
	TotalRevenue              decimal.Decimal `json:"total_revenue"`
}

// RegionMargin estimates monthly revenue against assumed provider cost.
// A region with no cost assumption on file is computed with an estimated
// cost of zero and HasCostAssumption false; callers must not read the
// margin as confirmed profit.
type RegionMargin struct {
	RegionCode        string          `json:"region_code"`
	WorkspaceCount    int             `json:"workspace_count"`
	RevenueMonthly    decimal.Decimal `json:"revenue_monthly"`
	EstimatedCost     decimal.Decimal `json:"estimated_cost"`
	Margin            decimal.Decimal `json:"margin"`
	MarginPercent     decimal.Decimal `json:"margin_percent"`
	HasCostAssumption bool            `json:"has_cost_assumption"`
}

// Service produces the internal billing reports.
type Service interface {
	AggregateUsageByRegion(ctx context.Context) ([]RegionUsage, error)
	CalculateMarginsByRegion(ctx context.Context) ([]RegionMargin, error)
}
