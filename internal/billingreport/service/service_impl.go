package service

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/samlahq/samla/internal/billingreport/domain"
	"github.com/samlahq/samla/internal/clock"
	plandomain "github.com/samlahq/samla/internal/plan/domain"
	subdomain "github.com/samlahq/samla/internal/subscription/domain"
	usagedomain "github.com/samlahq/samla/internal/usage/domain"
)

var oneHundred = decimal.NewFromInt(100)

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	plans plandomain.Service
	subs  subdomain.Service
	clock clock.Clock
}

func NewService(
	conn *gorm.DB,
	log *zap.Logger,
	plans plandomain.Service,
	subs subdomain.Service,
	clk clock.Clock,
) domain.Service {
	return &service{
		db:    conn,
		log:   log.Named("billingreport.service"),
		plans: plans,
		subs:  subs,
		clock: clk,
	}
}

// regionRollup accumulates per-region figures while walking the active
// subscriptions.
type regionRollup struct {
	workspaces    int
	callMinutes   int
	conversations int
	revenue       decimal.Decimal
}

func (s *service) AggregateUsageByRegion(ctx context.Context) ([]domain.RegionUsage, error) {
	rollups, err := s.rollup(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.RegionUsage, 0, len(rollups))
	for code, r := range rollups {
		out = append(out, domain.RegionUsage{
			RegionCode:                code,
			WorkspaceCount:            r.workspaces,
			CallMinutesUsed:           r.callMinutes,
			WhatsappConversationsUsed: r.conversations,
			TotalRevenue:              r.revenue,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegionCode < out[j].RegionCode })
	return out, nil
}

func (s *service) CalculateMarginsByRegion(ctx context.Context) ([]domain.RegionMargin, error) {
	rollups, err := s.rollup(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.RegionMargin, 0, len(rollups))
	for code, r := range rollups {
		m := domain.RegionMargin{
			RegionCode:     code,
			WorkspaceCount: r.workspaces,
			RevenueMonthly: r.revenue,
			EstimatedCost:  decimal.Zero,
		}

		assumption, err := s.plans.CostAssumption(ctx, code)
		if err != nil {
			return nil, err
		}
		// A missing cost row estimates cost zero; HasCostAssumption tells
		// the reader the margin is unbacked.
		if assumption != nil {
			m.HasCostAssumption = true
			m.EstimatedCost = assumption.CostPerCallMinute.Mul(decimal.NewFromInt(int64(r.callMinutes))).
				Add(assumption.CostPerConversation.Mul(decimal.NewFromInt(int64(r.conversations))))
		}
		m.Margin = r.revenue.Sub(m.EstimatedCost)
		m.MarginPercent = decimal.Zero
		// Zero-revenue regions report 0%, never a division error.
		if r.revenue.IsPositive() {
			m.MarginPercent = m.Margin.Div(r.revenue).Mul(oneHundred).Round(2)
		}

		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegionCode < out[j].RegionCode })
	return out, nil
}

func (s *service) rollup(ctx context.Context) (map[string]*regionRollup, error) {
	subs, err := s.subs.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	rollups := make(map[string]*regionRollup)

	for i := range subs {
		sub := &subs[i]

		pr, err := s.plans.ResolvePlanRegion(ctx, sub.PlanCode, sub.RegionCode)
		if err != nil {
			if errors.Is(err, plandomain.ErrPlanRegionNotFound) {
				// Broken catalog reference. Keep the report running but make
				// the gap loud; the quota path rejects this workspace anyway.
				s.log.Error("skipping subscription with unknown plan region",
					zap.Int64("workspace_id", int64(sub.WorkspaceID)),
					zap.String("plan_code", sub.PlanCode),
					zap.String("region_code", sub.RegionCode),
				)
				continue
			}
			return nil, err
		}

		r := rollups[sub.RegionCode]
		if r == nil {
			r = &regionRollup{revenue: decimal.Zero}
			rollups[sub.RegionCode] = r
		}

		r.workspaces++
		r.revenue = r.revenue.Add(pr.DisplayPrice)

		var row usagedomain.WorkspaceUsageMonthly
		err = s.db.WithContext(ctx).
			Where("workspace_id = ? AND period_start <= ? AND period_end > ?", sub.WorkspaceID, now, now).
			First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		r.callMinutes += row.CallMinutesUsed
		r.conversations += row.WhatsappConversationsUsed
	}

	return rollups, nil
}
