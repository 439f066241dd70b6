package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	InsertPlan(ctx context.Context, plan *Plan) error
	FindPlanByCode(ctx context.Context, code string) (*Plan, error)
	ListPlans(ctx context.Context, includeHidden bool) ([]Plan, error)
	UpdatePlan(ctx context.Context, code string, fields map[string]any) (int64, error)

	FindPlanRegion(ctx context.Context, planCode, regionCode string) (*PlanRegion, error)
	FindActivePlanRegion(ctx context.Context, planCode, regionCode string) (*PlanRegion, error)
	InsertPlanRegion(ctx context.Context, row *PlanRegion) error
	SavePlanRegion(ctx context.Context, row *PlanRegion) error
	ListPlanRegions(ctx context.Context, regionCode string) ([]PlanRegion, error)

	FindRegion(ctx context.Context, code string) (*Region, error)
	ListRegions(ctx context.Context) ([]Region, error)
	FindCountryRegion(ctx context.Context, countryCode string) (*CountryRegionMap, error)
	FindCostAssumption(ctx context.Context, regionCode string) (*RegionCostAssumption, error)
	SaveCostAssumption(ctx context.Context, assumption *RegionCostAssumption) error
}
