package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/samlahq/samla/internal/clock"
	"github.com/samlahq/samla/internal/observability/metrics"
	plandomain "github.com/samlahq/samla/internal/plan/domain"
	planrepo "github.com/samlahq/samla/internal/plan/repository"
	planservice "github.com/samlahq/samla/internal/plan/service"
	quotadomain "github.com/samlahq/samla/internal/quota/domain"
	quotaservice "github.com/samlahq/samla/internal/quota/service"
	subdomain "github.com/samlahq/samla/internal/subscription/domain"
	subservice "github.com/samlahq/samla/internal/subscription/service"
	"github.com/samlahq/samla/internal/usage/domain"
	"github.com/samlahq/samla/pkg/db"
)

type usageFixture struct {
	conn  *gorm.DB
	plans plandomain.Service
	svc   domain.Service
	clock *clock.FakeClock
	node  *snowflake.Node
}

func setupUsage(t *testing.T) *usageFixture {
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
		&quotadomain.WorkspaceOverride{},
		&domain.WorkspaceUsageMonthly{},
		&domain.UsageEvent{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	plans := planservice.NewService(conn, zap.NewNop(), planrepo.NewRepository(conn), node)
	subs := subservice.NewService(conn, zap.NewNop(), node, plans)
	quotas := quotaservice.NewService(conn, zap.NewNop(), plans, subs, clk, node)
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	svc := NewService(conn, zap.NewNop(), quotas, subs, m, clk, node)

	return &usageFixture{conn: conn, plans: plans, svc: svc, clock: clk, node: node}
}

// seedSubscribed creates the catalog and a subscription whose current
// billing period is 2026-02-20 through 2026-03-20.
func (f *usageFixture) seedSubscribed(t *testing.T, workspaceID snowflake.ID, mode plandomain.LimitMode) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.conn.Create(&plandomain.Region{Code: "latam", Name: "Latin America", IsActive: true}).Error)

	_, err := f.plans.CreatePlan(ctx, plandomain.CreatePlanRequest{Code: "starter", Name: "Starter", IsPublic: true})
	require.NoError(t, err)

	_, err = f.plans.UpsertPlanRegion(ctx, plandomain.UpsertPlanRegionRequest{
		PlanCode:                      "starter",
		RegionCode:                    "latam",
		Currency:                      "usd",
		DisplayPrice:                  decimal.NewFromInt(49),
		IncludedCallMinutes:           100,
		IncludedWhatsappConversations: 50,
		IncludedSeats:                 3,
		IncludedAgents:                1,
		LimitMode:                     mode,
	})
	require.NoError(t, err)

	require.NoError(t, f.conn.Create(&subdomain.WorkspaceSubscription{
		ID:          f.node.Generate(),
		WorkspaceID: workspaceID,
		PlanCode:    "starter",
		RegionCode:  "latam",
		Status:      subdomain.SubscriptionStatusActive,
		RenewsAt:    time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
	}).Error)
}

func TestRecordCreatesPeriodRowAndIncrements(t *testing.T) {
	f := setupUsage(t)
	f.seedSubscribed(t, 42, plandomain.LimitModeSoft)
	ctx := context.Background()

	_, err := f.svc.Record(ctx, 42, domain.UsageKindCallMinute, 7)
	require.NoError(t, err)
	_, err = f.svc.Record(ctx, 42, domain.UsageKindCallMinute, 3)
	require.NoError(t, err)
	_, err = f.svc.Record(ctx, 42, domain.UsageKindConversation, 2)
	require.NoError(t, err)

	row, err := f.svc.CurrentPeriod(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, row)

	assert.Equal(t, 10, row.CallMinutesUsed)
	assert.Equal(t, 2, row.WhatsappConversationsUsed)
	assert.Equal(t, time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC), row.PeriodStart.UTC())
	assert.Equal(t, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), row.PeriodEnd.UTC())

	events, err := f.svc.ListEvents(ctx, 42, 10)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestRecordSoftLimitKeepsCounting(t *testing.T) {
	f := setupUsage(t)
	f.seedSubscribed(t, 42, plandomain.LimitModeSoft)
	ctx := context.Background()

	_, err := f.svc.Record(ctx, 42, domain.UsageKindCallMinute, 150)
	require.NoError(t, err)

	row, err := f.svc.CurrentPeriod(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 150, row.CallMinutesUsed)
}

func TestRecordHardLimitRejects(t *testing.T) {
	f := setupUsage(t)
	f.seedSubscribed(t, 42, plandomain.LimitModeHard)
	ctx := context.Background()

	_, err := f.svc.Record(ctx, 42, domain.UsageKindCallMinute, 100)
	require.NoError(t, err)

	_, err = f.svc.Record(ctx, 42, domain.UsageKindCallMinute, 1)
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)

	// The rejected event leaves neither a counter bump nor a log entry.
	row, err := f.svc.CurrentPeriod(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 100, row.CallMinutesUsed)

	events, err := f.svc.ListEvents(ctx, 42, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestRecordRequiresSubscription(t *testing.T) {
	f := setupUsage(t)
	ctx := context.Background()

	_, err := f.svc.Record(ctx, 42, domain.UsageKindCallMinute, 1)
	assert.ErrorIs(t, err, domain.ErrNoSubscription)
}

func TestRecordValidation(t *testing.T) {
	f := setupUsage(t)
	ctx := context.Background()

	_, err := f.svc.Record(ctx, 0, domain.UsageKindCallMinute, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidWorkspace)

	_, err = f.svc.Record(ctx, 42, domain.UsageKind("sms"), 1)
	assert.ErrorIs(t, err, domain.ErrInvalidKind)

	_, err = f.svc.Record(ctx, 42, domain.UsageKindCallMinute, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestPeriodRolloverOpensFreshRow(t *testing.T) {
	f := setupUsage(t)
	f.seedSubscribed(t, 42, plandomain.LimitModeSoft)
	ctx := context.Background()

	_, err := f.svc.Record(ctx, 42, domain.UsageKindConversation, 5)
	require.NoError(t, err)

	// Cross the 2026-03-20 period boundary.
	f.clock.Advance(15 * 24 * time.Hour)

	_, err = f.svc.Record(ctx, 42, domain.UsageKindConversation, 1)
	require.NoError(t, err)

	row, err := f.svc.CurrentPeriod(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 1, row.WhatsappConversationsUsed)
	assert.Equal(t, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), row.PeriodStart.UTC())

	// The superseded period keeps its counters.
	periods, err := f.svc.ListPeriods(ctx, 42)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, 5, periods[1].WhatsappConversationsUsed)
}

func TestSyncSeatsIsMonotonicWithinPeriod(t *testing.T) {
	f := setupUsage(t)
	f.seedSubscribed(t, 42, plandomain.LimitModeSoft)
	ctx := context.Background()

	require.NoError(t, f.svc.SyncSeats(ctx, 42, 2))
	require.NoError(t, f.svc.SyncSeats(ctx, 42, 5))
	require.NoError(t, f.svc.SyncSeats(ctx, 42, 3))
	require.NoError(t, f.svc.SyncAgents(ctx, 42, 1))

	row, err := f.svc.CurrentPeriod(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 5, row.SeatsUsed)
	assert.Equal(t, 1, row.AgentsUsed)
}
