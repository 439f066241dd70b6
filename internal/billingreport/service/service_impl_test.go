package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/samlahq/samla/internal/billingreport/domain"
	"github.com/samlahq/samla/internal/clock"
	plandomain "github.com/samlahq/samla/internal/plan/domain"
	planrepo "github.com/samlahq/samla/internal/plan/repository"
	planservice "github.com/samlahq/samla/internal/plan/service"
	subdomain "github.com/samlahq/samla/internal/subscription/domain"
	subservice "github.com/samlahq/samla/internal/subscription/service"
	usagedomain "github.com/samlahq/samla/internal/usage/domain"
	"github.com/samlahq/samla/pkg/db"
)

type reportFixture struct {
	conn  *gorm.DB
	plans plandomain.Service
	svc   domain.Service
	clock *clock.FakeClock
	node  *snowflake.Node
}

func setupReport(t *testing.T) *reportFixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&plandomain.Plan{},
		&plandomain.Region{},
		&plandomain.CountryRegionMap{},
		&plandomain.RegionCostAssumption{},
		&plandomain.PlanRegion{},
		&subdomain.WorkspaceSubscription{},
		&usagedomain.WorkspaceUsageMonthly{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	plans := planservice.NewService(conn, zap.NewNop(), planrepo.NewRepository(conn), node)
	subs := subservice.NewService(conn, zap.NewNop(), node, plans)
	svc := NewService(conn, zap.NewNop(), plans, subs, clk)

	return &reportFixture{conn: conn, plans: plans, svc: svc, clock: clk, node: node}
}

func (f *reportFixture) seedPlanRegion(t *testing.T, planCode, regionCode string, price int64) {
	t.Helper()
	ctx := context.Background()

	_, err := f.plans.CreatePlan(ctx, plandomain.CreatePlanRequest{Code: planCode, Name: planCode, IsPublic: true})
	require.NoError(t, err)

	_, err = f.plans.UpsertPlanRegion(ctx, plandomain.UpsertPlanRegionRequest{
		PlanCode:                      planCode,
		RegionCode:                    regionCode,
		Currency:                      "usd",
		DisplayPrice:                  decimal.NewFromInt(price),
		IncludedCallMinutes:           500,
		IncludedWhatsappConversations: 1000,
		IncludedSeats:                 3,
		IncludedAgents:                1,
		LimitMode:                     plandomain.LimitModeSoft,
	})
	require.NoError(t, err)
}

func (f *reportFixture) seedSubscription(t *testing.T, workspaceID snowflake.ID, planCode, regionCode string) {
	t.Helper()
	require.NoError(t, f.conn.Create(&subdomain.WorkspaceSubscription{
		ID:          f.node.Generate(),
		WorkspaceID: workspaceID,
		PlanCode:    planCode,
		RegionCode:  regionCode,
		Status:      subdomain.SubscriptionStatusActive,
		RenewsAt:    time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
	}).Error)
}

func (f *reportFixture) seedUsage(t *testing.T, workspaceID snowflake.ID, minutes, conversations int) {
	t.Helper()
	require.NoError(t, f.conn.Create(&usagedomain.WorkspaceUsageMonthly{
		ID:                        f.node.Generate(),
		WorkspaceID:               workspaceID,
		PeriodStart:               time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
		PeriodEnd:                 time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
		CallMinutesUsed:           minutes,
		WhatsappConversationsUsed: conversations,
	}).Error)
}

func TestAggregateUsageByRegion(t *testing.T) {
	f := setupReport(t)
	require.NoError(t, f.conn.Create(&plandomain.Region{Code: "latam", Name: "Latin America", IsActive: true}).Error)
	require.NoError(t, f.conn.Create(&plandomain.Region{Code: "emea", Name: "EMEA", IsActive: true}).Error)

	f.seedPlanRegion(t, "starter", "latam", 100)
	f.seedPlanRegion(t, "growth", "emea", 200)
	f.seedSubscription(t, 1, "starter", "latam")
	f.seedSubscription(t, 2, "starter", "latam")
	f.seedSubscription(t, 3, "growth", "emea")
	f.seedUsage(t, 1, 120, 30)
	f.seedUsage(t, 2, 80, 10)
	f.seedUsage(t, 3, 5, 1)

	out, err := f.svc.AggregateUsageByRegion(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "emea", out[0].RegionCode)
	assert.Equal(t, 1, out[0].WorkspaceCount)
	assert.Equal(t, 5, out[0].CallMinutesUsed)
	assert.True(t, out[0].TotalRevenue.Equal(decimal.NewFromInt(200)), "revenue %s", out[0].TotalRevenue)

	assert.Equal(t, "latam", out[1].RegionCode)
	assert.Equal(t, 2, out[1].WorkspaceCount)
	assert.Equal(t, 200, out[1].CallMinutesUsed)
	assert.Equal(t, 40, out[1].WhatsappConversationsUsed)
	assert.True(t, out[1].TotalRevenue.Equal(decimal.NewFromInt(200)), "revenue %s", out[1].TotalRevenue)
}

func TestAggregateUsageSumsRegionRevenue(t *testing.T) {
	f := setupReport(t)
	require.NoError(t, f.conn.Create(&plandomain.Region{Code: "latam", Name: "Latin America", IsActive: true}).Error)

	f.seedPlanRegion(t, "starter", "latam", 100)
	f.seedPlanRegion(t, "growth", "latam", 200)
	f.seedSubscription(t, 1, "starter", "latam")
	f.seedSubscription(t, 2, "growth", "latam")

	out, err := f.svc.AggregateUsageByRegion(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, 2, out[0].WorkspaceCount)
	assert.True(t, out[0].TotalRevenue.Equal(decimal.NewFromInt(300)), "revenue %s", out[0].TotalRevenue)
}

func TestCalculateMarginsByRegion(t *testing.T) {
	f := setupReport(t)
	require.NoError(t, f.conn.Create(&plandomain.Region{Code: "latam", Name: "Latin America", IsActive: true}).Error)
	ctx := context.Background()

	f.seedPlanRegion(t, "starter", "latam", 100)
	f.seedPlanRegion(t, "growth", "latam", 200)
	f.seedSubscription(t, 1, "starter", "latam")
	f.seedSubscription(t, 2, "growth", "latam")
	f.seedUsage(t, 1, 100, 0)
	f.seedUsage(t, 2, 300, 100)

	require.NoError(t, f.plans.UpsertCostAssumption(ctx, plandomain.RegionCostAssumption{
		RegionCode:          "latam",
		CostPerCallMinute:   decimal.RequireFromString("0.10"),
		CostPerConversation: decimal.RequireFromString("0.05"),
	}))

	out, err := f.svc.CalculateMarginsByRegion(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)

	m := out[0]
	assert.Equal(t, "latam", m.RegionCode)
	assert.Equal(t, 2, m.WorkspaceCount)
	assert.True(t, m.HasCostAssumption)
	assert.True(t, m.RevenueMonthly.Equal(decimal.NewFromInt(300)), "revenue %s", m.RevenueMonthly)
	// 400 minutes * 0.10 + 100 conversations * 0.05
	assert.True(t, m.EstimatedCost.Equal(decimal.RequireFromString("45")), "cost %s", m.EstimatedCost)
	assert.True(t, m.Margin.Equal(decimal.RequireFromString("255")), "margin %s", m.Margin)
	assert.True(t, m.MarginPercent.Equal(decimal.RequireFromString("85")), "margin pct %s", m.MarginPercent)
}

func TestCalculateMarginsZeroRevenue(t *testing.T) {
	f := setupReport(t)
	require.NoError(t, f.conn.Create(&plandomain.Region{Code: "latam", Name: "Latin America", IsActive: true}).Error)
	ctx := context.Background()

	f.seedPlanRegion(t, "free", "latam", 0)
	f.seedSubscription(t, 1, "free", "latam")
	f.seedUsage(t, 1, 50, 0)

	require.NoError(t, f.plans.UpsertCostAssumption(ctx, plandomain.RegionCostAssumption{
		RegionCode:          "latam",
		CostPerCallMinute:   decimal.RequireFromString("0.10"),
		CostPerConversation: decimal.RequireFromString("0.05"),
	}))

	out, err := f.svc.CalculateMarginsByRegion(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.True(t, out[0].RevenueMonthly.IsZero())
	assert.True(t, out[0].MarginPercent.IsZero())
	assert.True(t, out[0].Margin.Equal(decimal.RequireFromString("-5")), "margin %s", out[0].Margin)
}

func TestCalculateMarginsWithoutCostAssumption(t *testing.T) {
	f := setupReport(t)
	require.NoError(t, f.conn.Create(&plandomain.Region{Code: "latam", Name: "Latin America", IsActive: true}).Error)

	f.seedPlanRegion(t, "starter", "latam", 100)
	f.seedSubscription(t, 1, "starter", "latam")

	out, err := f.svc.CalculateMarginsByRegion(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)

	// Missing cost rows estimate cost zero, so the margin equals revenue
	// and the flag tells the reader the number is unbacked.
	assert.False(t, out[0].HasCostAssumption)
	assert.True(t, out[0].RevenueMonthly.Equal(decimal.NewFromInt(100)))
	assert.True(t, out[0].EstimatedCost.IsZero())
	assert.True(t, out[0].Margin.Equal(decimal.NewFromInt(100)), "margin %s", out[0].Margin)
	assert.True(t, out[0].MarginPercent.Equal(decimal.NewFromInt(100)), "margin pct %s", out[0].MarginPercent)
}
