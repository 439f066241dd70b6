package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/samlahq/samla/internal/plan/domain"
	"github.com/samlahq/samla/internal/subscription/domain"
	"github.com/samlahq/samla/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	planSvc plandomain.Service
}

func NewService(conn *gorm.DB, log *zap.Logger, genID *snowflake.Node, planSvc plandomain.Service) domain.Service {
	return &service{
		db:      conn,
		log:     log.Named("subscription.service"),
		genID:   genID,
		planSvc: planSvc,
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateSubscriptionRequest) (*domain.WorkspaceSubscription, error) {
	if req.WorkspaceID == 0 {
		return nil, domain.ErrInvalidWorkspace
	}

	// A subscription must reference a sellable plan-region pair.
	if _, err := s.planSvc.ResolvePlanRegion(ctx, req.PlanCode, req.RegionCode); err != nil {
		if errors.Is(err, plandomain.ErrPlanRegionNotFound) {
			return nil, domain.ErrInvalidPlan
		}
		return nil, err
	}

	now := time.Now().UTC()
	sub := domain.WorkspaceSubscription{
		ID:                 s.genID.Generate(),
		WorkspaceID:        req.WorkspaceID,
		PlanCode:           req.PlanCode,
		RegionCode:         req.RegionCode,
		Status:             domain.SubscriptionStatusActive,
		RenewsAt:           now.AddDate(0, 1, 0),
		BillingCustomerRef: req.BillingCustomerRef,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSubscriptionExists
		}
		return nil, err
	}

	s.log.Info("subscription created",
		zap.String("workspace_id", req.WorkspaceID.String()),
		zap.String("plan_code", sub.PlanCode),
		zap.String("region_code", sub.RegionCode),
	)
	return &sub, nil
}

func (s *service) GetByWorkspace(ctx context.Context, workspaceID snowflake.ID) (*domain.WorkspaceSubscription, error) {
	var sub domain.WorkspaceSubscription
	err := s.db.WithContext(ctx).Where("workspace_id = ?", workspaceID).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (s *service) ListActive(ctx context.Context) ([]domain.WorkspaceSubscription, error) {
	var subs []domain.WorkspaceSubscription
	err := s.db.WithContext(ctx).
		Where("status = ?", domain.SubscriptionStatusActive).
		Order("id ASC").
		Find(&subs).Error
	return subs, err
}

func (s *service) CancelAtPeriodEnd(ctx context.Context, workspaceID snowflake.ID) error {
	result := s.db.WithContext(ctx).Model(&domain.WorkspaceSubscription{}).
		Where("workspace_id = ? AND status = ?", workspaceID, domain.SubscriptionStatusActive).
		Updates(map[string]any{
			"cancel_at_period_end": true,
			"updated_at":           time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrSubscriptionNotFound
	}
	return nil
}

func (s *service) AdvanceRenewal(ctx context.Context, subscriptionID snowflake.ID, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub domain.WorkspaceSubscription
		if err := tx.Where("id = ?", subscriptionID).First(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrSubscriptionNotFound
			}
			return err
		}
		if !sub.RenewsAt.After(now) {
			if sub.CancelAtPeriodEnd {
				sub.Status = domain.SubscriptionStatusCanceled
			} else {
				sub.RenewsAt = sub.RenewsAt.AddDate(0, 1, 0)
			}
			sub.UpdatedAt = now
			return tx.Save(&sub).Error
		}
		return nil
	})
}
