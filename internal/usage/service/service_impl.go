package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/samlahq/samla/internal/clock"
	"github.com/samlahq/samla/internal/observability/metrics"
	plandomain "github.com/samlahq/samla/internal/plan/domain"
	quotadomain "github.com/samlahq/samla/internal/quota/domain"
	subdomain "github.com/samlahq/samla/internal/subscription/domain"
	"github.com/samlahq/samla/internal/usage/domain"
)

type service struct {
	db      *gorm.DB
	log     *zap.Logger
	quotas  quotadomain.Service
	subs    subdomain.Service
	metrics *metrics.Metrics
	clock   clock.Clock
	genID   *snowflake.Node
}

func NewService(
	conn *gorm.DB,
	log *zap.Logger,
	quotas quotadomain.Service,
	subs subdomain.Service,
	m *metrics.Metrics,
	clk clock.Clock,
	genID *snowflake.Node,
) domain.Service {
	return &service{
		db:      conn,
		log:     log.Named("usage.service"),
		quotas:  quotas,
		subs:    subs,
		metrics: m,
		clock:   clk,
		genID:   genID,
	}
}

func (s *service) Record(ctx context.Context, workspaceID snowflake.ID, kind domain.UsageKind, quantity int) (*domain.UsageEvent, error) {
	if workspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}
	if kind != domain.UsageKindCallMinute && kind != domain.UsageKindConversation {
		return nil, domain.ErrInvalidKind
	}
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	res, err := s.quotas.Resolve(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if !res.HasSubscription {
		return nil, domain.ErrNoSubscription
	}

	start, end, err := s.periodWindow(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	event := &domain.UsageEvent{
		ID:          s.genID.Generate(),
		WorkspaceID: workspaceID,
		Kind:        kind,
		Quantity:    quantity,
		RecordedAt:  now,
		CreatedAt:   now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.periodRowForUpdate(tx, workspaceID, start, end)
		if err != nil {
			return err
		}

		if res.Quotas.LimitMode == plandomain.LimitModeHard {
			if exceeded(row, res.Quotas, kind, quantity) {
				return domain.ErrQuotaExceeded
			}
		}

		switch kind {
		case domain.UsageKindCallMinute:
			row.CallMinutesUsed += quantity
		case domain.UsageKindConversation:
			row.WhatsappConversationsUsed += quantity
		}
		row.UpdatedAt = now

		if err := tx.Save(row).Error; err != nil {
			return err
		}
		return tx.Create(event).Error
	})
	if err != nil {
		if errors.Is(err, domain.ErrQuotaExceeded) {
			s.metrics.RecordQuotaDenial(string(kind))
			s.log.Warn("usage rejected by hard limit",
				zap.Int64("workspace_id", int64(workspaceID)),
				zap.String("kind", string(kind)),
				zap.Int("quantity", quantity),
			)
		}
		return nil, err
	}

	s.metrics.RecordUsageEvent(string(kind))
	return event, nil
}

func exceeded(row *domain.WorkspaceUsageMonthly, q quotadomain.EffectiveQuotas, kind domain.UsageKind, quantity int) bool {
	switch kind {
	case domain.UsageKindCallMinute:
		return row.CallMinutesUsed+quantity > q.IncludedCallMinutes
	case domain.UsageKindConversation:
		return row.WhatsappConversationsUsed+quantity > q.IncludedWhatsappConversations
	}
	return false
}

func (s *service) SyncSeats(ctx context.Context, workspaceID snowflake.ID, seats int) error {
	return s.syncGauge(ctx, workspaceID, seats, func(row *domain.WorkspaceUsageMonthly, n int) {
		if n > row.SeatsUsed {
			row.SeatsUsed = n
		}
	})
}

func (s *service) SyncAgents(ctx context.Context, workspaceID snowflake.ID, agents int) error {
	return s.syncGauge(ctx, workspaceID, agents, func(row *domain.WorkspaceUsageMonthly, n int) {
		if n > row.AgentsUsed {
			row.AgentsUsed = n
		}
	})
}

func (s *service) syncGauge(ctx context.Context, workspaceID snowflake.ID, n int, apply func(*domain.WorkspaceUsageMonthly, int)) error {
	if workspaceID == 0 {
		return domain.ErrInvalidWorkspace
	}
	if n < 0 {
		return domain.ErrInvalidQuantity
	}

	start, end, err := s.periodWindow(ctx, workspaceID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.periodRowForUpdate(tx, workspaceID, start, end)
		if err != nil {
			return err
		}
		apply(row, n)
		row.UpdatedAt = s.clock.Now()
		return tx.Save(row).Error
	})
}

func (s *service) EnsureCurrentPeriod(ctx context.Context, workspaceID snowflake.ID) (*domain.WorkspaceUsageMonthly, error) {
	if workspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}

	start, end, err := s.periodWindow(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	var row *domain.WorkspaceUsageMonthly
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err = s.periodRowForUpdate(tx, workspaceID, start, end)
		return err
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *service) CurrentPeriod(ctx context.Context, workspaceID snowflake.ID) (*domain.WorkspaceUsageMonthly, error) {
	if workspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}

	now := s.clock.Now()

	var row domain.WorkspaceUsageMonthly
	err := s.db.WithContext(ctx).
		Where("workspace_id = ? AND period_start <= ? AND period_end > ?", workspaceID, now, now).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (s *service) ListPeriods(ctx context.Context, workspaceID snowflake.ID) ([]domain.WorkspaceUsageMonthly, error) {
	if workspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}

	var rows []domain.WorkspaceUsageMonthly
	err := s.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("period_start DESC").
		Find(&rows).Error
	return rows, err
}

func (s *service) ListEvents(ctx context.Context, workspaceID snowflake.ID, limit int) ([]domain.UsageEvent, error) {
	if workspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var events []domain.UsageEvent
	err := s.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("recorded_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// periodWindow returns the billing month containing now, anchored to the
// subscription's renewal date.
func (s *service) periodWindow(ctx context.Context, workspaceID snowflake.ID) (time.Time, time.Time, error) {
	sub, err := s.subs.GetByWorkspace(ctx, workspaceID)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if sub == nil {
		return time.Time{}, time.Time{}, domain.ErrNoSubscription
	}

	now := s.clock.Now()
	start := sub.RenewsAt.AddDate(0, -1, 0)
	end := sub.RenewsAt

	// Walk the window forward when the scheduler has not advanced the
	// renewal yet, and backward for clock skew around the boundary.
	for !now.Before(end) {
		start = end
		end = end.AddDate(0, 1, 0)
	}
	for now.Before(start) {
		end = start
		start = start.AddDate(0, -1, 0)
	}

	return start, end, nil
}

// periodRowForUpdate loads or creates the counter row for the window
// inside tx. The unique (workspace, period_start) index keeps concurrent
// first writes from producing duplicates.
func (s *service) periodRowForUpdate(tx *gorm.DB, workspaceID snowflake.ID, start, end time.Time) (*domain.WorkspaceUsageMonthly, error) {
	var row domain.WorkspaceUsageMonthly
	err := tx.
		Where("workspace_id = ? AND period_start = ?", workspaceID, start).
		First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := s.clock.Now()
	row = domain.WorkspaceUsageMonthly{
		ID:          s.genID.Generate(),
		WorkspaceID: workspaceID,
		PeriodStart: start,
		PeriodEnd:   end,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "workspace_id"}, {Name: "period_start"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}

	err = tx.
		Where("workspace_id = ? AND period_start = ?", workspaceID, start).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}
