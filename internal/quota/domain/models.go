// Package domain defines quota resolution types and workspace overrides.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"

	plandomain "github.com/samlahq/samla/internal/plan/domain"
	usagedomain "github.com/samlahq/samla/internal/usage/domain"
)

// WorkspaceOverride holds per-workspace quota adjustments set by platform
// staff. Every field is optional; a nil field falls through to the plan
// region value during resolution. An inactive override is kept on file
// with its values and audit trail but is skipped during resolution.
type WorkspaceOverride struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID `gorm:"not null;uniqueIndex" json:"workspace_id"`

	IsActive bool `gorm:"not null;default:true" json:"is_active"`

	IncludedCallMinutes           *int                  `json:"included_call_minutes,omitempty"`
	IncludedWhatsappConversations *int                  `json:"included_whatsapp_conversations,omitempty"`
	IncludedSeats                 *int                  `json:"included_seats,omitempty"`
	IncludedAgents                *int                  `json:"included_agents,omitempty"`
	LimitMode                     *plandomain.LimitMode `gorm:"type:text" json:"limit_mode,omitempty"`

	Notes     string       `json:"notes,omitempty"`
	UpdatedBy snowflake.ID `gorm:"not null" json:"updated_by"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (WorkspaceOverride) TableName() string { return "workspace_overrides" }

// EffectiveQuotas is the merged limit set a workspace is entitled to.
type EffectiveQuotas struct {
	IncludedCallMinutes           int                  `json:"included_call_minutes"`
	IncludedWhatsappConversations int                  `json:"included_whatsapp_conversations"`
	IncludedSeats                 int                  `json:"included_seats"`
	IncludedAgents                int                  `json:"included_agents"`
	LimitMode                     plandomain.LimitMode `json:"limit_mode"`
}

// Resolution is the outcome of resolving quotas for one workspace.
// Usage is the latest recorded period row, nil when none exists yet. It
// is read fresh on every resolution while the quota half may come from
// the cache.
type Resolution struct {
	WorkspaceID     snowflake.ID                       `json:"workspace_id"`
	HasSubscription bool                               `json:"has_subscription"`
	PlanCode        string                             `json:"plan_code,omitempty"`
	RegionCode      string                             `json:"region_code,omitempty"`
	Quotas          EffectiveQuotas                    `json:"quotas"`
	Usage           *usagedomain.WorkspaceUsageMonthly `json:"usage"`
	OverrideApplied bool                               `json:"override_applied"`
	ResolvedAt      time.Time                          `json:"resolved_at"`
}
