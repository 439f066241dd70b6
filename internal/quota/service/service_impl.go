package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/samlahq/samla/internal/cache"
	"github.com/samlahq/samla/internal/clock"
	plandomain "github.com/samlahq/samla/internal/plan/domain"
	"github.com/samlahq/samla/internal/quota/domain"
	subdomain "github.com/samlahq/samla/internal/subscription/domain"
	usagedomain "github.com/samlahq/samla/internal/usage/domain"
)

// resolutionTTL bounds how stale a cached resolution may get. Override
// writes invalidate eagerly, plan-region edits are picked up on expiry.
const resolutionTTL = 30 * time.Second

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	plans plandomain.Service
	subs  subdomain.Service
	cache *cache.TTL[snowflake.ID, *domain.Resolution]
	clock clock.Clock
	genID *snowflake.Node
}

func NewService(
	conn *gorm.DB,
	log *zap.Logger,
	plans plandomain.Service,
	subs subdomain.Service,
	clk clock.Clock,
	genID *snowflake.Node,
) domain.Service {
	return &service{
		db:    conn,
		log:   log.Named("quota.service"),
		plans: plans,
		subs:  subs,
		cache: cache.NewTTL[snowflake.ID, *domain.Resolution](resolutionTTL, clk),
		clock: clk,
		genID: genID,
	}
}

func (s *service) Resolve(ctx context.Context, workspaceID snowflake.ID) (*domain.Resolution, error) {
	if workspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}

	res, ok := s.cache.Get(workspaceID)
	if !ok {
		fresh, err := s.resolve(ctx, workspaceID)
		if err != nil {
			return nil, err
		}
		s.cache.Set(workspaceID, fresh)
		res = fresh
	}

	// The quota half may come from the cache; usage counters move with
	// every call and message, so the latest period row is read live.
	usage, err := s.latestUsage(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	out := *res
	out.Usage = usage
	return &out, nil
}

// latestUsage returns the most recent usage period row, nil when the
// workspace has none yet.
func (s *service) latestUsage(ctx context.Context, workspaceID snowflake.ID) (*usagedomain.WorkspaceUsageMonthly, error) {
	var row usagedomain.WorkspaceUsageMonthly
	err := s.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("period_start DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (s *service) Invalidate(workspaceID snowflake.ID) {
	s.cache.Delete(workspaceID)
}

func (s *service) resolve(ctx context.Context, workspaceID snowflake.ID) (*domain.Resolution, error) {
	sub, err := s.subs.GetByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	res := &domain.Resolution{
		WorkspaceID: workspaceID,
		ResolvedAt:  s.clock.Now(),
	}

	if sub == nil || sub.Status == subdomain.SubscriptionStatusCanceled {
		// No live subscription: everything is denied, nothing falls back
		// to a default plan.
		res.Quotas.LimitMode = plandomain.LimitModeHard
		return res, nil
	}

	pr, err := s.plans.ResolvePlanRegion(ctx, sub.PlanCode, sub.RegionCode)
	if err != nil {
		if errors.Is(err, plandomain.ErrPlanRegionNotFound) {
			s.log.Error("subscription references a plan region that does not exist",
				zap.Int64("workspace_id", int64(workspaceID)),
				zap.String("plan_code", sub.PlanCode),
				zap.String("region_code", sub.RegionCode),
			)
			return nil, domain.ErrPlanIntegrity
		}
		return nil, err
	}

	res.HasSubscription = true
	res.PlanCode = sub.PlanCode
	res.RegionCode = sub.RegionCode
	res.Quotas = domain.EffectiveQuotas{
		IncludedCallMinutes:           pr.IncludedCallMinutes,
		IncludedWhatsappConversations: pr.IncludedWhatsappConversations,
		IncludedSeats:                 pr.IncludedSeats,
		IncludedAgents:                pr.IncludedAgents,
		LimitMode:                     pr.LimitMode,
	}

	ov, err := s.findOverride(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ov != nil && ov.IsActive {
		applyOverride(&res.Quotas, ov)
		res.OverrideApplied = true
	}

	return res, nil
}

// applyOverride merges each override field independently; a nil field
// keeps the plan-region value.
func applyOverride(q *domain.EffectiveQuotas, ov *domain.WorkspaceOverride) {
	if ov.IncludedCallMinutes != nil {
		q.IncludedCallMinutes = *ov.IncludedCallMinutes
	}
	if ov.IncludedWhatsappConversations != nil {
		q.IncludedWhatsappConversations = *ov.IncludedWhatsappConversations
	}
	if ov.IncludedSeats != nil {
		q.IncludedSeats = *ov.IncludedSeats
	}
	if ov.IncludedAgents != nil {
		q.IncludedAgents = *ov.IncludedAgents
	}
	if ov.LimitMode != nil {
		q.LimitMode = *ov.LimitMode
	}
}

func (s *service) GetOverride(ctx context.Context, workspaceID snowflake.ID) (*domain.WorkspaceOverride, error) {
	if workspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}

	ov, err := s.findOverride(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ov == nil {
		return nil, domain.ErrOverrideNotFound
	}
	return ov, nil
}

func (s *service) SetOverride(ctx context.Context, req domain.SetOverrideRequest) (*domain.WorkspaceOverride, error) {
	if req.WorkspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}

	for _, v := range []*int{
		req.IncludedCallMinutes,
		req.IncludedWhatsappConversations,
		req.IncludedSeats,
		req.IncludedAgents,
	} {
		if v != nil && *v < 0 {
			return nil, fmt.Errorf("%w: quotas must be >= 0", domain.ErrInvalidOverride)
		}
	}

	var mode *plandomain.LimitMode
	if req.LimitMode != nil {
		m := plandomain.LimitMode(*req.LimitMode)
		if m != plandomain.LimitModeSoft && m != plandomain.LimitModeHard {
			return nil, fmt.Errorf("%w: unknown limit mode %q", domain.ErrInvalidOverride, *req.LimitMode)
		}
		mode = &m
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	now := s.clock.Now()
	ov := &domain.WorkspaceOverride{
		ID:                            s.genID.Generate(),
		WorkspaceID:                   req.WorkspaceID,
		IsActive:                      active,
		IncludedCallMinutes:           req.IncludedCallMinutes,
		IncludedWhatsappConversations: req.IncludedWhatsappConversations,
		IncludedSeats:                 req.IncludedSeats,
		IncludedAgents:                req.IncludedAgents,
		LimitMode:                     mode,
		Notes:                         req.Notes,
		UpdatedBy:                     req.UpdatedBy,
		CreatedAt:                     now,
		UpdatedAt:                     now,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "workspace_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"is_active",
			"included_call_minutes",
			"included_whatsapp_conversations",
			"included_seats",
			"included_agents",
			"limit_mode",
			"notes",
			"updated_by",
			"updated_at",
		}),
	}).Create(ov).Error
	if err != nil {
		return nil, err
	}

	s.cache.Delete(req.WorkspaceID)

	s.log.Info("workspace override set",
		zap.Int64("workspace_id", int64(req.WorkspaceID)),
		zap.Int64("updated_by", int64(req.UpdatedBy)),
	)

	return s.GetOverride(ctx, req.WorkspaceID)
}

func (s *service) ClearOverride(ctx context.Context, workspaceID snowflake.ID) error {
	if workspaceID == 0 {
		return domain.ErrInvalidWorkspace
	}

	tx := s.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Delete(&domain.WorkspaceOverride{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrOverrideNotFound
	}

	s.cache.Delete(workspaceID)
	return nil
}

func (s *service) findOverride(ctx context.Context, workspaceID snowflake.ID) (*domain.WorkspaceOverride, error) {
	var ov domain.WorkspaceOverride
	err := s.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		First(&ov).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ov, nil
}
