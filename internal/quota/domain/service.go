package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidWorkspace = errors.New("invalid_workspace")
	ErrOverrideNotFound = errors.New("override_not_found")

	// ErrInvalidOverride is returned when an override request carries a
	// negative quota or an unknown limit mode.
	ErrInvalidOverride = errors.New("invalid_override")

	// ErrPlanIntegrity is returned when a subscription references a plan
	// region that no longer exists. Callers must surface this as a plan
	// lookup failure and never fall back to default quotas.
	ErrPlanIntegrity = errors.New("plan_integrity")
)

// SetOverrideRequest carries a full replacement of a workspace override.
// Nil fields mean "no override for this quota", not "zero". A nil
// IsActive means active; staff park an override by sending false.
type SetOverrideRequest struct {
	WorkspaceID                   snowflake.ID `json:"workspace_id"`
	IsActive                      *bool        `json:"is_active"`
	IncludedCallMinutes           *int         `json:"included_call_minutes"`
	IncludedWhatsappConversations *int         `json:"included_whatsapp_conversations"`
	IncludedSeats                 *int         `json:"included_seats"`
	IncludedAgents                *int         `json:"included_agents"`
	LimitMode                     *string      `json:"limit_mode"`
	Notes                         string       `json:"notes"`
	UpdatedBy                     snowflake.ID `json:"-"`
}

// Service resolves effective quotas and manages staff overrides.
type Service interface {
	// Resolve computes the effective quotas for a workspace and attaches
	// the latest usage period row. Workspaces without a subscription
	// resolve to HasSubscription=false and zero quotas.
	Resolve(ctx context.Context, workspaceID snowflake.ID) (*Resolution, error)

	GetOverride(ctx context.Context, workspaceID snowflake.ID) (*WorkspaceOverride, error)
	SetOverride(ctx context.Context, req SetOverrideRequest) (*WorkspaceOverride, error)
	ClearOverride(ctx context.Context, workspaceID snowflake.ID) error

	// Invalidate drops the cached resolution for a workspace. Called
	// after subscription writes so quota changes take effect at once.
	Invalidate(workspaceID snowflake.ID)
}
