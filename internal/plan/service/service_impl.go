package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/samlahq/samla/internal/plan/domain"
	"github.com/samlahq/samla/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
}

func NewService(conn *gorm.DB, log *zap.Logger, repo domain.Repository, genID *snowflake.Node) domain.Service {
	return &service{
		db:    conn,
		log:   log.Named("plan.service"),
		repo:  repo,
		genID: genID,
	}
}

func (s *service) CreatePlan(ctx context.Context, req domain.CreatePlanRequest) (*domain.Plan, error) {
	code := normalizeCode(req.Code)
	if code == "" {
		return nil, domain.ErrInvalidPlanCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidPlanName
	}

	now := time.Now().UTC()
	plan := domain.Plan{
		ID:        s.genID.Generate(),
		Code:      code,
		Name:      name,
		IsPublic:  req.IsPublic,
		IsActive:  true,
		SortOrder: req.SortOrder,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.InsertPlan(ctx, &plan); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrPlanExists
		}
		return nil, err
	}
	return &plan, nil
}

func (s *service) ListPlans(ctx context.Context, includeHidden bool) ([]domain.Plan, error) {
	return s.repo.ListPlans(ctx, includeHidden)
}

func (s *service) SetPlanActive(ctx context.Context, code string, active bool) error {
	affected, err := s.repo.UpdatePlan(ctx, normalizeCode(code), map[string]any{
		"is_active":  active,
		"updated_at": time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrPlanNotFound
	}
	return nil
}

func (s *service) UpsertPlanRegion(ctx context.Context, req domain.UpsertPlanRegionRequest) (*domain.PlanRegion, error) {
	planCode := normalizeCode(req.PlanCode)
	regionCode := normalizeCode(req.RegionCode)
	if planCode == "" {
		return nil, domain.ErrInvalidPlanCode
	}
	if regionCode == "" {
		return nil, domain.ErrInvalidRegionCode
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return nil, domain.ErrInvalidCurrency
	}
	switch req.LimitMode {
	case domain.LimitModeSoft, domain.LimitModeHard:
	default:
		return nil, domain.ErrInvalidLimitMode
	}
	if req.IncludedCallMinutes < 0 || req.IncludedWhatsappConversations < 0 ||
		req.IncludedSeats < 0 || req.IncludedAgents < 0 || req.IncludedPhoneNumbers < 0 {
		return nil, domain.ErrInvalidQuota
	}

	plan, err := s.repo.FindPlanByCode(ctx, planCode)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrPlanNotFound
	}
	region, err := s.repo.FindRegion(ctx, regionCode)
	if err != nil {
		return nil, err
	}
	if region == nil {
		return nil, domain.ErrRegionNotFound
	}

	now := time.Now().UTC()
	var saved *domain.PlanRegion
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindPlanRegion(ctx, planCode, regionCode)
		if err != nil {
			return err
		}

		if existing == nil {
			row := domain.PlanRegion{
				ID:                            s.genID.Generate(),
				PlanCode:                      planCode,
				RegionCode:                    regionCode,
				Currency:                      currency,
				DisplayPrice:                  req.DisplayPrice,
				BillingPriceRef:               strings.TrimSpace(req.BillingPriceRef),
				IncludedCallMinutes:           req.IncludedCallMinutes,
				IncludedWhatsappConversations: req.IncludedWhatsappConversations,
				IncludedSeats:                 req.IncludedSeats,
				IncludedAgents:                req.IncludedAgents,
				IncludedPhoneNumbers:          req.IncludedPhoneNumbers,
				OveragePerCallMinute:          req.OveragePerCallMinute,
				OveragePerConversation:        req.OveragePerConversation,
				LimitMode:                     req.LimitMode,
				IsActive:                      true,
				Version:                       1,
				CreatedAt:                     now,
				UpdatedAt:                     now,
			}
			if err := repo.InsertPlanRegion(ctx, &row); err != nil {
				return err
			}
			saved = &row
			return nil
		}

		existing.Currency = currency
		existing.DisplayPrice = req.DisplayPrice
		existing.BillingPriceRef = strings.TrimSpace(req.BillingPriceRef)
		existing.IncludedCallMinutes = req.IncludedCallMinutes
		existing.IncludedWhatsappConversations = req.IncludedWhatsappConversations
		existing.IncludedSeats = req.IncludedSeats
		existing.IncludedAgents = req.IncludedAgents
		existing.IncludedPhoneNumbers = req.IncludedPhoneNumbers
		existing.OveragePerCallMinute = req.OveragePerCallMinute
		existing.OveragePerConversation = req.OveragePerConversation
		existing.LimitMode = req.LimitMode
		// Read-then-write increment. Concurrent editors of the same row are
		// last-write-wins; accepted, see DESIGN.md.
		existing.Version = existing.Version + 1
		existing.UpdatedAt = now

		if err := repo.SavePlanRegion(ctx, existing); err != nil {
			return err
		}
		saved = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("plan region saved",
		zap.String("plan_code", planCode),
		zap.String("region_code", regionCode),
		zap.Int64("version", saved.Version),
	)
	return saved, nil
}

func (s *service) ResolvePlanRegion(ctx context.Context, planCode, regionCode string) (*domain.PlanRegion, error) {
	row, err := s.repo.FindActivePlanRegion(ctx, normalizeCode(planCode), normalizeCode(regionCode))
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, domain.ErrPlanRegionNotFound
	}
	return row, nil
}

func (s *service) ListPlanRegions(ctx context.Context, regionCode string) ([]domain.PlanRegion, error) {
	return s.repo.ListPlanRegions(ctx, normalizeCode(regionCode))
}

func (s *service) ListRegions(ctx context.Context) ([]domain.Region, error) {
	return s.repo.ListRegions(ctx)
}

func (s *service) RegionForCountry(ctx context.Context, countryCode string) (string, error) {
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	if len(countryCode) != 2 {
		return "", domain.ErrInvalidCountry
	}
	row, err := s.repo.FindCountryRegion(ctx, countryCode)
	if err != nil {
		return "", err
	}
	if row == nil {
		return "", domain.ErrRegionNotFound
	}
	return row.RegionCode, nil
}

func (s *service) CostAssumption(ctx context.Context, regionCode string) (*domain.RegionCostAssumption, error) {
	return s.repo.FindCostAssumption(ctx, normalizeCode(regionCode))
}

func (s *service) UpsertCostAssumption(ctx context.Context, assumption domain.RegionCostAssumption) error {
	assumption.RegionCode = normalizeCode(assumption.RegionCode)
	if assumption.RegionCode == "" {
		return domain.ErrInvalidRegionCode
	}
	assumption.UpdatedAt = time.Now().UTC()
	return s.repo.SaveCostAssumption(ctx, &assumption)
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
