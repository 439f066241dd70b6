package routing

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

	agentdomain "github.com/samlahq/samla/internal/agent/domain"
	agentservice "github.com/samlahq/samla/internal/agent/service"
	autodomain "github.com/samlahq/samla/internal/automation/domain"
	autoservice "github.com/samlahq/samla/internal/automation/service"
	"github.com/samlahq/samla/internal/clock"
	"github.com/samlahq/samla/internal/config"
	inboxdomain "github.com/samlahq/samla/internal/inbox/domain"
	inboxservice "github.com/samlahq/samla/internal/inbox/service"
	"github.com/samlahq/samla/internal/observability/metrics"
	plandomain "github.com/samlahq/samla/internal/plan/domain"
	planrepo "github.com/samlahq/samla/internal/plan/repository"
	planservice "github.com/samlahq/samla/internal/plan/service"
	"github.com/samlahq/samla/internal/providers"
	"github.com/samlahq/samla/internal/providers/messaging"
	quotadomain "github.com/samlahq/samla/internal/quota/domain"
	quotaservice "github.com/samlahq/samla/internal/quota/service"
	subdomain "github.com/samlahq/samla/internal/subscription/domain"
	subservice "github.com/samlahq/samla/internal/subscription/service"
	usagedomain "github.com/samlahq/samla/internal/usage/domain"
	usageservice "github.com/samlahq/samla/internal/usage/service"
	"github.com/samlahq/samla/pkg/db"
)

type routingFixture struct {
	conn   *gorm.DB
	plans  plandomain.Service
	agents agentdomain.Service
	inbox  inboxdomain.Service
	usage  usagedomain.Service
	svc    Service
	clock  *clock.FakeClock
	node   *snowflake.Node
}

func setupRouting(t *testing.T) *routingFixture {
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
		&agentdomain.Agent{},
		&inboxdomain.Conversation{},
		&inboxdomain.Message{},
		&inboxdomain.ConversationNote{},
		&autodomain.Trigger{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	cfg := config.Config{MediaStreamURL: "wss://media.example.com/agent"}
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	log := zap.NewNop()

	plans := planservice.NewService(conn, log, planrepo.NewRepository(conn), node)
	subs := subservice.NewService(conn, log, node, plans)
	quotas := quotaservice.NewService(conn, log, plans, subs, clk, node)
	usage := usageservice.NewService(conn, log, quotas, subs, m, clk, node)
	agents := agentservice.NewService(conn, log, quotas, usage, clk, node)
	msg := messaging.NewProvider(cfg, providers.NewHTTPClient(), log, m)
	inbox := inboxservice.NewService(conn, log, usage, agents, msg, clk, node)
	autos := autoservice.NewService(conn, log, providers.NewHTTPClient(), m, clk, node)
	svc := NewService(cfg, log, agents, inbox, quotas, usage, autos)

	return &routingFixture{
		conn: conn, plans: plans, agents: agents, inbox: inbox,
		usage: usage, svc: svc, clock: clk, node: node,
	}
}

func (f *routingFixture) seedWorkspace(t *testing.T, workspaceID snowflake.ID, mode plandomain.LimitMode) {
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
		IncludedCallMinutes:           10,
		IncludedWhatsappConversations: 5,
		IncludedSeats:                 3,
		IncludedAgents:                2,
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

func (f *routingFixture) seedAgent(t *testing.T, workspaceID snowflake.ID, channel agentdomain.Channel, number string) *agentdomain.Agent {
	t.Helper()

	agent, err := f.agents.Create(context.Background(), agentdomain.CreateAgentRequest{
		WorkspaceID: workspaceID,
		Name:        "Front Desk",
		Channel:     channel,
		PhoneNumber: number,
		Greeting:    "Hi, you have reached Acme Dental.",
	})
	require.NoError(t, err)
	return agent
}

func TestRouteInboundCallAnswers(t *testing.T) {
	f := setupRouting(t)
	f.seedWorkspace(t, 42, plandomain.LimitModeSoft)
	agent := f.seedAgent(t, 42, agentdomain.ChannelVoice, "+15550100")

	resp, err := f.svc.RouteInboundCall(context.Background(), "+15550100", "+15550199")
	require.NoError(t, err)

	doc, err := resp.Render()
	require.NoError(t, err)
	assert.Contains(t, doc, "Hi, you have reached Acme Dental.")
	assert.Contains(t, doc, "wss://media.example.com/agent/"+agent.ID.String())
	assert.NotContains(t, doc, "<Hangup>")
}

func TestRouteInboundCallUnknownNumberRejects(t *testing.T) {
	f := setupRouting(t)

	resp, err := f.svc.RouteInboundCall(context.Background(), "+15559999", "+15550199")
	require.NoError(t, err)

	doc, err := resp.Render()
	require.NoError(t, err)
	assert.Contains(t, doc, "<Hangup>")
	assert.NotContains(t, doc, "<Connect>")
}

func TestRouteInboundCallHardLimitRejects(t *testing.T) {
	f := setupRouting(t)
	f.seedWorkspace(t, 42, plandomain.LimitModeHard)
	f.seedAgent(t, 42, agentdomain.ChannelVoice, "+15550100")
	ctx := context.Background()

	_, err := f.usage.Record(ctx, 42, usagedomain.UsageKindCallMinute, 10)
	require.NoError(t, err)

	resp, err := f.svc.RouteInboundCall(ctx, "+15550100", "+15550199")
	require.NoError(t, err)

	doc, err := resp.Render()
	require.NoError(t, err)
	assert.Contains(t, doc, "<Hangup>")
}

func TestRecordCallCompletionRoundsUpMinutes(t *testing.T) {
	f := setupRouting(t)
	f.seedWorkspace(t, 42, plandomain.LimitModeSoft)
	f.seedAgent(t, 42, agentdomain.ChannelVoice, "+15550100")
	ctx := context.Background()

	require.NoError(t, f.svc.RecordCallCompletion(ctx, "+15550100", 61))

	row, err := f.usage.CurrentPeriod(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 2, row.CallMinutesUsed)
}

func TestRouteInboundMessageOpensConversation(t *testing.T) {
	f := setupRouting(t)
	f.seedWorkspace(t, 42, plandomain.LimitModeSoft)
	f.seedAgent(t, 42, agentdomain.ChannelWhatsapp, "+15550200")
	ctx := context.Background()

	msg, err := f.svc.RouteInboundMessage(ctx, "+15550200", "+15550300", "Dana", "hola", "wamid.1")
	require.NoError(t, err)
	assert.Equal(t, inboxdomain.DirectionInbound, msg.Direction)

	// A second message from the same contact lands in the same thread.
	msg2, err := f.svc.RouteInboundMessage(ctx, "+15550200", "+15550300", "Dana", "sigo aqui", "wamid.2")
	require.NoError(t, err)
	assert.Equal(t, msg.ConversationID, msg2.ConversationID)

	// Only the first contact counts as a conversation.
	row, err := f.usage.CurrentPeriod(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 1, row.WhatsappConversationsUsed)
}

func TestRouteInboundMessageUnknownNumber(t *testing.T) {
	f := setupRouting(t)

	_, err := f.svc.RouteInboundMessage(context.Background(), "+15550999", "+15550300", "", "hola", "wamid.9")
	assert.ErrorIs(t, err, ErrNoRoute)
}
