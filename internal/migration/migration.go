// Package migration applies the schema on boot.
package migration

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	agentdomain "github.com/samlahq/samla/internal/agent/domain"
	autodomain "github.com/samlahq/samla/internal/automation/domain"
	calendardomain "github.com/samlahq/samla/internal/calendar/domain"
	identitydomain "github.com/samlahq/samla/internal/identity/domain"
	inboxdomain "github.com/samlahq/samla/internal/inbox/domain"
	leaddomain "github.com/samlahq/samla/internal/leads/domain"
	plandomain "github.com/samlahq/samla/internal/plan/domain"
	quotadomain "github.com/samlahq/samla/internal/quota/domain"
	subdomain "github.com/samlahq/samla/internal/subscription/domain"
	usagedomain "github.com/samlahq/samla/internal/usage/domain"
	workspacedomain "github.com/samlahq/samla/internal/workspace/domain"
)

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&identitydomain.User{},
		&workspacedomain.Workspace{},
		&workspacedomain.WorkspaceMember{},
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
		&leaddomain.Lead{},
		&calendardomain.Appointment{},
		&autodomain.Trigger{},
	}
}

// Run migrates the schema.
func Run(conn *gorm.DB, log *zap.Logger) error {
	if err := conn.AutoMigrate(Models()...); err != nil {
		return err
	}
	log.Info("schema migrated")
	return nil
}

var Module = fx.Module("migration",
	fx.Invoke(func(lc fx.Lifecycle, conn *gorm.DB, log *zap.Logger) {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				return Run(conn, log.Named("migration"))
			},
		})
	}),
)
