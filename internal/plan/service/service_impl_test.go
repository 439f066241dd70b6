package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/samlahq/samla/internal/plan/domain"
	"github.com/samlahq/samla/internal/plan/repository"
	"github.com/samlahq/samla/pkg/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupPlanDB(t *testing.T) (*gorm.DB, domain.Service) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&domain.Plan{},
		&domain.Region{},
		&domain.RegionCostAssumption{},
		&domain.CountryRegionMap{},
		&domain.PlanRegion{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(conn, zap.NewNop(), repository.NewRepository(conn), node)
	return conn, svc
}

func seedCatalog(t *testing.T, conn *gorm.DB, svc domain.Service) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, conn.Create(&domain.Region{Code: "latam", Name: "Latin America", IsActive: true}).Error)
	require.NoError(t, conn.Create(&domain.CountryRegionMap{CountryCode: "MX", RegionCode: "latam"}).Error)

	_, err := svc.CreatePlan(ctx, domain.CreatePlanRequest{Code: "starter", Name: "Starter", IsPublic: true})
	require.NoError(t, err)
}

func TestCreatePlanValidation(t *testing.T) {
	_, svc := setupPlanDB(t)
	ctx := context.Background()

	_, err := svc.CreatePlan(ctx, domain.CreatePlanRequest{Code: "", Name: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidPlanCode)

	_, err = svc.CreatePlan(ctx, domain.CreatePlanRequest{Code: "starter", Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidPlanName)

	_, err = svc.CreatePlan(ctx, domain.CreatePlanRequest{Code: "starter", Name: "Starter"})
	require.NoError(t, err)

	_, err = svc.CreatePlan(ctx, domain.CreatePlanRequest{Code: "Starter", Name: "Starter Again"})
	assert.ErrorIs(t, err, domain.ErrPlanExists)
}

func TestUpsertPlanRegionBumpsVersion(t *testing.T) {
	conn, svc := setupPlanDB(t)
	seedCatalog(t, conn, svc)
	ctx := context.Background()

	req := domain.UpsertPlanRegionRequest{
		PlanCode:                      "starter",
		RegionCode:                    "latam",
		Currency:                      "usd",
		DisplayPrice:                  decimal.NewFromInt(49),
		IncludedCallMinutes:           500,
		IncludedWhatsappConversations: 1000,
		IncludedSeats:                 3,
		IncludedAgents:                1,
		LimitMode:                     domain.LimitModeSoft,
	}

	created, err := svc.UpsertPlanRegion(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Version)
	assert.Equal(t, "USD", created.Currency)

	req.IncludedCallMinutes = 750
	updated, err := svc.UpsertPlanRegion(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, 750, updated.IncludedCallMinutes)
	assert.Equal(t, created.ID, updated.ID)

	req.LimitMode = domain.LimitModeHard
	updated, err = svc.UpsertPlanRegion(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated.Version)
	assert.Equal(t, domain.LimitModeHard, updated.LimitMode)
}

func TestUpsertPlanRegionValidation(t *testing.T) {
	conn, svc := setupPlanDB(t)
	seedCatalog(t, conn, svc)
	ctx := context.Background()

	base := domain.UpsertPlanRegionRequest{
		PlanCode:   "starter",
		RegionCode: "latam",
		Currency:   "USD",
		LimitMode:  domain.LimitModeSoft,
	}

	bad := base
	bad.Currency = "dollars"
	_, err := svc.UpsertPlanRegion(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidCurrency)

	bad = base
	bad.LimitMode = "MAYBE"
	_, err = svc.UpsertPlanRegion(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidLimitMode)

	bad = base
	bad.IncludedSeats = -1
	_, err = svc.UpsertPlanRegion(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidQuota)

	bad = base
	bad.PlanCode = "enterprise"
	_, err = svc.UpsertPlanRegion(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrPlanNotFound)

	bad = base
	bad.RegionCode = "apac"
	_, err = svc.UpsertPlanRegion(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrRegionNotFound)
}

func TestResolvePlanRegion(t *testing.T) {
	conn, svc := setupPlanDB(t)
	seedCatalog(t, conn, svc)
	ctx := context.Background()

	_, err := svc.ResolvePlanRegion(ctx, "starter", "latam")
	assert.ErrorIs(t, err, domain.ErrPlanRegionNotFound)

	_, err = svc.UpsertPlanRegion(ctx, domain.UpsertPlanRegionRequest{
		PlanCode:     "starter",
		RegionCode:   "latam",
		Currency:     "USD",
		DisplayPrice: decimal.NewFromInt(49),
		LimitMode:    domain.LimitModeSoft,
	})
	require.NoError(t, err)

	row, err := svc.ResolvePlanRegion(ctx, "STARTER", "LATAM")
	require.NoError(t, err)
	assert.Equal(t, "starter", row.PlanCode)
}

func TestRegionForCountry(t *testing.T) {
	conn, svc := setupPlanDB(t)
	seedCatalog(t, conn, svc)
	ctx := context.Background()

	region, err := svc.RegionForCountry(ctx, "mx")
	require.NoError(t, err)
	assert.Equal(t, "latam", region)

	_, err = svc.RegionForCountry(ctx, "ZZ")
	assert.ErrorIs(t, err, domain.ErrRegionNotFound)

	_, err = svc.RegionForCountry(ctx, "MEX")
	assert.ErrorIs(t, err, domain.ErrInvalidCountry)
}
