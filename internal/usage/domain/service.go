package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidWorkspace = errors.New("invalid_workspace")
	ErrInvalidKind      = errors.New("invalid_kind")
	ErrInvalidQuantity  = errors.New("invalid_quantity")
	ErrNoSubscription   = errors.New("no_subscription")

	// ErrQuotaExceeded is returned on hard-limited plans when an increment
	// would push a counter past the effective quota.
	ErrQuotaExceeded = errors.New("quota_exceeded")
)

// Service records metered consumption against the current billing period.
type Service interface {
	// Record appends an immutable usage event and bumps the matching
	// period counter. Hard-limited workspaces get ErrQuotaExceeded when
	// the increment would cross the quota; soft-limited ones keep
	// counting into overage.
	Record(ctx context.Context, workspaceID snowflake.ID, kind UsageKind, quantity int) (*UsageEvent, error)

	// SyncSeats records the seat high-water mark for the current period.
	// The stored value never decreases within a period.
	SyncSeats(ctx context.Context, workspaceID snowflake.ID, seats int) error
	// SyncAgents records the agent high-water mark for the current period.
	SyncAgents(ctx context.Context, workspaceID snowflake.ID, agents int) error

	// CurrentPeriod returns the counter row covering now, or nil when the
	// workspace has recorded nothing this period.
	CurrentPeriod(ctx context.Context, workspaceID snowflake.ID) (*WorkspaceUsageMonthly, error)
	// EnsureCurrentPeriod opens the counter row for the running billing
	// month if it does not exist yet. Called by the scheduler right
	// after a renewal rolls over.
	EnsureCurrentPeriod(ctx context.Context, workspaceID snowflake.ID) (*WorkspaceUsageMonthly, error)
	ListPeriods(ctx context.Context, workspaceID snowflake.ID) ([]WorkspaceUsageMonthly, error)
	ListEvents(ctx context.Context, workspaceID snowflake.ID, limit int) ([]UsageEvent, error)
}
