package scheduler

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
	usagedomain "github.com/samlahq/samla/internal/usage/domain"
	usageservice "github.com/samlahq/samla/internal/usage/service"
	"github.com/samlahq/samla/pkg/db"
)

type schedulerFixture struct {
	conn  *gorm.DB
	subs  subdomain.Service
	usage usagedomain.Service
	sched *Scheduler
	clock *clock.FakeClock
	node  *snowflake.Node
}

func setupScheduler(t *testing.T) *schedulerFixture {
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
		&usagedomain.WorkspaceUsageMonthly{},
		&usagedomain.UsageEvent{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 21, 0, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())

	plans := planservice.NewService(conn, log, planrepo.NewRepository(conn), node)
	subs := subservice.NewService(conn, log, node, plans)
	quotas := quotaservice.NewService(conn, log, plans, subs, clk, node)
	usage := usageservice.NewService(conn, log, quotas, subs, m, clk, node)
	sched := New(log, subs, usage, clk)

	ctx := context.Background()
	require.NoError(t, conn.Create(&plandomain.Region{Code: "latam", Name: "Latin America", IsActive: true}).Error)
	_, err = plans.CreatePlan(ctx, plandomain.CreatePlanRequest{Code: "starter", Name: "Starter", IsPublic: true})
	require.NoError(t, err)
	_, err = plans.UpsertPlanRegion(ctx, plandomain.UpsertPlanRegionRequest{
		PlanCode:                      "starter",
		RegionCode:                    "latam",
		Currency:                      "usd",
		DisplayPrice:                  decimal.NewFromInt(49),
		IncludedCallMinutes:           500,
		IncludedWhatsappConversations: 1000,
		IncludedSeats:                 3,
		IncludedAgents:                1,
		LimitMode:                     plandomain.LimitModeSoft,
	})
	require.NoError(t, err)

	return &schedulerFixture{conn: conn, subs: subs, usage: usage, sched: sched, clock: clk, node: node}
}

func (f *schedulerFixture) seedSubscription(t *testing.T, workspaceID snowflake.ID, renewsAt time.Time, cancelAtPeriodEnd bool) snowflake.ID {
	t.Helper()

	id := f.node.Generate()
	require.NoError(t, f.conn.Create(&subdomain.WorkspaceSubscription{
		ID:                id,
		WorkspaceID:       workspaceID,
		PlanCode:          "starter",
		RegionCode:        "latam",
		Status:            subdomain.SubscriptionStatusActive,
		RenewsAt:          renewsAt,
		CancelAtPeriodEnd: cancelAtPeriodEnd,
	}).Error)
	return id
}

func TestTickAdvancesDueRenewals(t *testing.T) {
	f := setupScheduler(t)
	f.seedSubscription(t, 42, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), false)
	ctx := context.Background()

	require.NoError(t, f.sched.Tick(ctx))

	sub, err := f.subs.GetByWorkspace(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC), sub.RenewsAt.UTC())

	// The fresh period row is open and empty.
	row, err := f.usage.CurrentPeriod(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), row.PeriodStart.UTC())
	assert.Zero(t, row.CallMinutesUsed)
}

func TestTickIsIdempotent(t *testing.T) {
	f := setupScheduler(t)
	f.seedSubscription(t, 42, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), false)
	ctx := context.Background()

	require.NoError(t, f.sched.Tick(ctx))
	require.NoError(t, f.sched.Tick(ctx))

	sub, err := f.subs.GetByWorkspace(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC), sub.RenewsAt.UTC())

	var periods int64
	require.NoError(t, f.conn.Model(&usagedomain.WorkspaceUsageMonthly{}).
		Where("workspace_id = ?", 42).Count(&periods).Error)
	assert.EqualValues(t, 1, periods)
}

func TestTickLeavesFutureRenewalsAlone(t *testing.T) {
	f := setupScheduler(t)
	f.seedSubscription(t, 42, time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC), false)
	ctx := context.Background()

	require.NoError(t, f.sched.Tick(ctx))

	sub, err := f.subs.GetByWorkspace(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC), sub.RenewsAt.UTC())
}

func TestTickCancelsAtPeriodEnd(t *testing.T) {
	f := setupScheduler(t)
	f.seedSubscription(t, 42, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), true)
	ctx := context.Background()

	require.NoError(t, f.sched.Tick(ctx))

	sub, err := f.subs.GetByWorkspace(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, subdomain.SubscriptionStatusCanceled, sub.Status)
}
