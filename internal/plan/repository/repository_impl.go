package repository

import (
	"context"
	"errors"

	"github.com/samlahq/samla/internal/plan/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) InsertPlan(ctx context.Context, plan *domain.Plan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *repository) FindPlanByCode(ctx context.Context, code string) (*domain.Plan, error) {
	var plan domain.Plan
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repository) ListPlans(ctx context.Context, includeHidden bool) ([]domain.Plan, error) {
	var plans []domain.Plan
	stmt := r.db.WithContext(ctx).Where("is_active = ?", true)
	if !includeHidden {
		stmt = stmt.Where("is_public = ?", true)
	}
	err := stmt.Order("sort_order ASC, code ASC").Find(&plans).Error
	return plans, err
}

func (r *repository) UpdatePlan(ctx context.Context, code string, fields map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Plan{}).Where("code = ?", code).Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *repository) FindPlanRegion(ctx context.Context, planCode, regionCode string) (*domain.PlanRegion, error) {
	return r.findPlanRegion(ctx, planCode, regionCode, false)
}

func (r *repository) FindActivePlanRegion(ctx context.Context, planCode, regionCode string) (*domain.PlanRegion, error) {
	return r.findPlanRegion(ctx, planCode, regionCode, true)
}

func (r *repository) findPlanRegion(ctx context.Context, planCode, regionCode string, activeOnly bool) (*domain.PlanRegion, error) {
	var row domain.PlanRegion
	stmt := r.db.WithContext(ctx).Where("plan_code = ? AND region_code = ?", planCode, regionCode)
	if activeOnly {
		stmt = stmt.Where("is_active = ?", true)
	}
	err := stmt.First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) InsertPlanRegion(ctx context.Context, row *domain.PlanRegion) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) SavePlanRegion(ctx context.Context, row *domain.PlanRegion) error {
	return r.db.WithContext(ctx).Save(row).Error
}

func (r *repository) ListPlanRegions(ctx context.Context, regionCode string) ([]domain.PlanRegion, error) {
	var rows []domain.PlanRegion
	stmt := r.db.WithContext(ctx).Where("is_active = ?", true)
	if regionCode != "" {
		stmt = stmt.Where("region_code = ?", regionCode)
	}
	err := stmt.Order("plan_code ASC, region_code ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) FindRegion(ctx context.Context, code string) (*domain.Region, error) {
	var region domain.Region
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&region).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &region, nil
}

func (r *repository) ListRegions(ctx context.Context) ([]domain.Region, error) {
	var regions []domain.Region
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("code ASC").Find(&regions).Error
	return regions, err
}

func (r *repository) FindCountryRegion(ctx context.Context, countryCode string) (*domain.CountryRegionMap, error) {
	var row domain.CountryRegionMap
	err := r.db.WithContext(ctx).Where("country_code = ?", countryCode).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindCostAssumption(ctx context.Context, regionCode string) (*domain.RegionCostAssumption, error) {
	var row domain.RegionCostAssumption
	err := r.db.WithContext(ctx).Where("region_code = ?", regionCode).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repository) SaveCostAssumption(ctx context.Context, assumption *domain.RegionCostAssumption) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "region_code"}},
		UpdateAll: true,
	}).Create(assumption).Error
}
