package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samlahq/samla/internal/agent"
	agentdomain "github.com/samlahq/samla/internal/agent/domain"
	"github.com/samlahq/samla/internal/authorization"
	"github.com/samlahq/samla/internal/automation"
	automationdomain "github.com/samlahq/samla/internal/automation/domain"
	"github.com/samlahq/samla/internal/billingreport"
	billingreportdomain "github.com/samlahq/samla/internal/billingreport/domain"
	"github.com/samlahq/samla/internal/calendar"
	calendardomain "github.com/samlahq/samla/internal/calendar/domain"
	"github.com/samlahq/samla/internal/clock"
	"github.com/samlahq/samla/internal/config"
	"github.com/samlahq/samla/internal/identity"
	identitydomain "github.com/samlahq/samla/internal/identity/domain"
	"github.com/samlahq/samla/internal/inbox"
	inboxdomain "github.com/samlahq/samla/internal/inbox/domain"
	"github.com/samlahq/samla/internal/leads"
	leadsdomain "github.com/samlahq/samla/internal/leads/domain"
	"github.com/samlahq/samla/internal/migration"
	"github.com/samlahq/samla/internal/observability"
	obslogger "github.com/samlahq/samla/internal/observability/logger"
	obsmetrics "github.com/samlahq/samla/internal/observability/metrics"
	obstracing "github.com/samlahq/samla/internal/observability/tracing"
	"github.com/samlahq/samla/internal/plan"
	plandomain "github.com/samlahq/samla/internal/plan/domain"
	"github.com/samlahq/samla/internal/providers"
	billingprovider "github.com/samlahq/samla/internal/providers/billing"
	calendarsyncprovider "github.com/samlahq/samla/internal/providers/calendarsync"
	leadsearchprovider "github.com/samlahq/samla/internal/providers/leadsearch"
	messagingprovider "github.com/samlahq/samla/internal/providers/messaging"
	telephonyprovider "github.com/samlahq/samla/internal/providers/telephony"
	voiceprovider "github.com/samlahq/samla/internal/providers/voice"
	"github.com/samlahq/samla/internal/quota"
	quotadomain "github.com/samlahq/samla/internal/quota/domain"
	"github.com/samlahq/samla/internal/ratelimit"
	"github.com/samlahq/samla/internal/routing"
	"github.com/samlahq/samla/internal/scheduler"
	"github.com/samlahq/samla/internal/seed"
	"github.com/samlahq/samla/internal/staffaccess"
	"github.com/samlahq/samla/internal/subscription"
	subscriptiondomain "github.com/samlahq/samla/internal/subscription/domain"
	"github.com/samlahq/samla/internal/usage"
	usagedomain "github.com/samlahq/samla/internal/usage/domain"
	"github.com/samlahq/samla/internal/workspace"
	workspacedomain "github.com/samlahq/samla/internal/workspace/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	observability.Module,
	fx.Provide(registerGin),
	identity.Module,
	staffaccess.Module,
	authorization.Module,
	workspace.Module,
	plan.Module,
	subscription.Module,
	quota.Module,
	usage.Module,
	billingreport.Module,
	providers.Module,
	telephonyprovider.Module,
	messagingprovider.Module,
	voiceprovider.Module,
	leadsearchprovider.Module,
	calendarsyncprovider.Module,
	billingprovider.Module,
	agent.Module,
	inbox.Module,
	routing.Module,
	leads.Module,
	calendar.Module,
	automation.Module,
	ratelimit.Module,
	scheduler.Module,
	migration.Module,
	seed.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(log, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	log    *zap.Logger
	db     *gorm.DB
	genID  *snowflake.Node
	clk    clock.Clock

	verifier   *identity.TokenVerifier
	staffGuard *staffaccess.Guard
	limiter    *ratelimit.Limiter

	identitySvc      identitydomain.Service
	authzSvc         authorization.Service
	workspaceSvc     workspacedomain.Service
	planSvc          plandomain.Service
	subscriptionSvc  subscriptiondomain.Service
	quotaSvc         quotadomain.Service
	usageSvc         usagedomain.Service
	billingReportSvc billingreportdomain.Service
	agentSvc         agentdomain.Service
	inboxSvc         inboxdomain.Service
	routingSvc       routing.Service
	leadsSvc         leadsdomain.Service
	calendarSvc      calendardomain.Service
	automationSvc    automationdomain.Service

	billingProvider billingprovider.Provider
	voiceProvider   voiceprovider.Provider
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	Log   *zap.Logger
	DB    *gorm.DB
	GenID *snowflake.Node
	Clk   clock.Clock

	Verifier   *identity.TokenVerifier
	StaffGuard *staffaccess.Guard
	Limiter    *ratelimit.Limiter

	IdentitySvc      identitydomain.Service
	AuthzSvc         authorization.Service
	WorkspaceSvc     workspacedomain.Service
	PlanSvc          plandomain.Service
	SubscriptionSvc  subscriptiondomain.Service
	QuotaSvc         quotadomain.Service
	UsageSvc         usagedomain.Service
	BillingReportSvc billingreportdomain.Service
	AgentSvc         agentdomain.Service
	InboxSvc         inboxdomain.Service
	RoutingSvc       routing.Service
	LeadsSvc         leadsdomain.Service
	CalendarSvc      calendardomain.Service
	AutomationSvc    automationdomain.Service

	BillingProvider billingprovider.Provider
	VoiceProvider   voiceprovider.Provider
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:           p.Gin,
		cfg:              p.Cfg,
		log:              p.Log.Named("server"),
		db:               p.DB,
		genID:            p.GenID,
		clk:              p.Clk,
		verifier:         p.Verifier,
		staffGuard:       p.StaffGuard,
		limiter:          p.Limiter,
		identitySvc:      p.IdentitySvc,
		authzSvc:         p.AuthzSvc,
		workspaceSvc:     p.WorkspaceSvc,
		planSvc:          p.PlanSvc,
		subscriptionSvc:  p.SubscriptionSvc,
		quotaSvc:         p.QuotaSvc,
		usageSvc:         p.UsageSvc,
		billingReportSvc: p.BillingReportSvc,
		agentSvc:         p.AgentSvc,
		inboxSvc:         p.InboxSvc,
		routingSvc:       p.RoutingSvc,
		leadsSvc:         p.LeadsSvc,
		calendarSvc:      p.CalendarSvc,
		automationSvc:    p.AutomationSvc,
		billingProvider:  p.BillingProvider,
		voiceProvider:    p.VoiceProvider,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()
	svc.registerWebhookRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1", s.AuthRequired())

	v1.GET("/me", s.GetMe)
	v1.GET("/plans", s.ListPlans)
	v1.GET("/voices", s.ListVoices)

	v1.POST("/workspaces", s.CreateWorkspace)
	v1.GET("/workspaces", s.ListMyWorkspaces)

	ws := v1.Group("/workspaces/:workspace_id", s.WorkspaceContext())

	ws.GET("", s.RequirePermission("workspace", "read"), s.GetWorkspace)
	ws.POST("/members", s.RequirePermission("members", "write"), s.AddMember)

	ws.POST("/subscription", s.RequirePermission("billing", "write"), s.CreateSubscription)
	ws.GET("/subscription", s.RequirePermission("billing", "read"), s.GetSubscription)
	ws.DELETE("/subscription", s.RequirePermission("billing", "write"), s.CancelSubscription)
	ws.POST("/billing/checkout", s.RequirePermission("billing", "write"), s.CreateCheckout)
	ws.POST("/billing/portal", s.RequirePermission("billing", "read"), s.CreateBillingPortal)

	ws.GET("/quota", s.RequirePermission("usage", "read"), s.GetQuota)
	ws.GET("/usage", s.RequirePermission("usage", "read"), s.GetCurrentUsage)
	ws.GET("/usage/periods", s.RequirePermission("usage", "read"), s.ListUsagePeriods)
	ws.GET("/usage/events", s.RequirePermission("usage", "read"), s.ListUsageEvents)

	ws.POST("/agents", s.RequirePermission("agents", "write"), s.CreateAgent)
	ws.GET("/agents", s.RequirePermission("agents", "read"), s.ListAgents)
	ws.GET("/agents/:agent_id", s.RequirePermission("agents", "read"), s.GetAgent)
	ws.PATCH("/agents/:agent_id", s.RequirePermission("agents", "write"), s.UpdateAgent)
	ws.DELETE("/agents/:agent_id", s.RequirePermission("agents", "write"), s.DeleteAgent)

	ws.GET("/conversations", s.RequirePermission("inbox", "read"), s.ListConversations)
	ws.GET("/conversations/:conversation_id", s.RequirePermission("inbox", "read"), s.GetConversation)
	ws.GET("/conversations/:conversation_id/messages", s.RequirePermission("inbox", "read"), s.ListMessages)
	ws.POST("/conversations/:conversation_id/messages", s.RequirePermission("inbox", "reply"), s.SendMessage)
	ws.POST("/conversations/:conversation_id/close", s.RequirePermission("inbox", "write"), s.CloseConversation)
	ws.POST("/conversations/:conversation_id/notes", s.RequirePermission("inbox", "reply"), s.AddNote)
	ws.GET("/conversations/:conversation_id/notes", s.RequirePermission("inbox", "read"), s.ListNotes)
	ws.DELETE("/notes/:note_id", s.RequirePermission("inbox", "write"), s.DeleteNote)

	ws.POST("/leads/search", s.RequirePermission("leads", "write"), s.SearchLeads)
	ws.POST("/leads", s.RequirePermission("leads", "write"), s.CreateLead)
	ws.GET("/leads", s.RequirePermission("leads", "read"), s.ListLeads)
	ws.GET("/leads/:lead_id", s.RequirePermission("leads", "read"), s.GetLead)
	ws.PATCH("/leads/:lead_id/status", s.RequirePermission("leads", "write"), s.UpdateLeadStatus)
	ws.DELETE("/leads/:lead_id", s.RequirePermission("leads", "write"), s.DeleteLead)

	ws.POST("/appointments", s.RequirePermission("appointments", "write"), s.BookAppointment)
	ws.GET("/appointments", s.RequirePermission("appointments", "read"), s.ListAppointments)
	ws.GET("/appointments/:appointment_id", s.RequirePermission("appointments", "read"), s.GetAppointment)
	ws.DELETE("/appointments/:appointment_id", s.RequirePermission("appointments", "write"), s.CancelAppointment)

	ws.POST("/triggers", s.RequirePermission("triggers", "write"), s.CreateTrigger)
	ws.GET("/triggers", s.RequirePermission("triggers", "read"), s.ListTriggers)
	ws.PATCH("/triggers/:trigger_id", s.RequirePermission("triggers", "write"), s.SetTriggerActive)
	ws.DELETE("/triggers/:trigger_id", s.RequirePermission("triggers", "write"), s.DeleteTrigger)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin/v1", s.AuthRequired(), s.StaffRequired())

	admin.POST("/plans", s.AdminCreatePlan)
	admin.GET("/plans", s.AdminListPlans)
	admin.PATCH("/plans/:plan_code", s.AdminSetPlanActive)
	admin.PUT("/plans/:plan_code/regions/:region_code", s.AdminUpsertPlanRegion)
	admin.GET("/regions", s.AdminListRegions)
	admin.GET("/regions/:region_code/plans", s.AdminListPlanRegions)
	admin.PUT("/regions/:region_code/costs", s.AdminUpsertCostAssumption)

	admin.GET("/workspaces/:workspace_id/override", s.AdminGetOverride)
	admin.PUT("/workspaces/:workspace_id/override", s.AdminSetOverride)
	admin.DELETE("/workspaces/:workspace_id/override", s.AdminClearOverride)

	admin.GET("/reports/usage", s.AdminUsageReport)
	admin.GET("/reports/margins", s.AdminMarginReport)

	admin.PUT("/users/:user_id/staff", s.AdminSetStaff)
}

func (s *Server) registerWebhookRoutes() {
	hooks := s.engine.Group("/webhooks", s.WebhookSignatureRequired())

	hooks.POST("/telephony/voice", s.WebhookRateLimited("telephony"), s.TelephonyVoiceWebhook)
	hooks.POST("/telephony/status", s.WebhookRateLimited("telephony"), s.TelephonyStatusWebhook)
	hooks.POST("/messaging", s.WebhookRateLimited("messaging"), s.MessagingWebhook)
}
