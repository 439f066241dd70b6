// Package seed installs the default catalog on an empty database.
package seed

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	plandomain "github.com/samlahq/samla/internal/plan/domain"
)

var regions = []plandomain.Region{
	{Code: "latam", Name: "Latin America", IsActive: true},
	{Code: "na", Name: "North America", IsActive: true},
	{Code: "emea", Name: "Europe, Middle East and Africa", IsActive: true},
}

var countryMap = []plandomain.CountryRegionMap{
	{CountryCode: "MX", RegionCode: "latam"},
	{CountryCode: "CO", RegionCode: "latam"},
	{CountryCode: "AR", RegionCode: "latam"},
	{CountryCode: "CL", RegionCode: "latam"},
	{CountryCode: "BR", RegionCode: "latam"},
	{CountryCode: "US", RegionCode: "na"},
	{CountryCode: "CA", RegionCode: "na"},
	{CountryCode: "GB", RegionCode: "emea"},
	{CountryCode: "ES", RegionCode: "emea"},
	{CountryCode: "DE", RegionCode: "emea"},
	{CountryCode: "FR", RegionCode: "emea"},
}

type planSeed struct {
	code      string
	name      string
	sortOrder int

	usdPrice      string
	callMinutes   int
	conversations int
	seats         int
	agents        int
	phoneNumbers  int
	limitMode     plandomain.LimitMode
}

var plans = []planSeed{
	{code: "starter", name: "Starter", sortOrder: 1, usdPrice: "49",
		callMinutes: 300, conversations: 500, seats: 2, agents: 1, phoneNumbers: 1,
		limitMode: plandomain.LimitModeHard},
	{code: "growth", name: "Growth", sortOrder: 2, usdPrice: "149",
		callMinutes: 1500, conversations: 2500, seats: 5, agents: 3, phoneNumbers: 2,
		limitMode: plandomain.LimitModeSoft},
	{code: "scale", name: "Scale", sortOrder: 3, usdPrice: "399",
		callMinutes: 6000, conversations: 10000, seats: 15, agents: 10, phoneNumbers: 5,
		limitMode: plandomain.LimitModeSoft},
}

// Run inserts the default regions, country map and plan catalog.
// Existing rows are left untouched, so boot-time seeding stays
// idempotent.
func Run(conn *gorm.DB, genID *snowflake.Node, log *zap.Logger) error {
	now := time.Now().UTC()
	for i := range regions {
		regions[i].CreatedAt = now
	}

	if err := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&regions).Error; err != nil {
		return err
	}
	if err := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&countryMap).Error; err != nil {
		return err
	}

	for _, p := range plans {
		plan := plandomain.Plan{
			ID:        genID.Generate(),
			Code:      p.code,
			Name:      p.name,
			IsPublic:  true,
			IsActive:  true,
			SortOrder: p.sortOrder,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&plan).Error; err != nil {
			return err
		}

		price := decimal.RequireFromString(p.usdPrice)
		for i := range regions {
			pr := plandomain.PlanRegion{
				ID:                            genID.Generate(),
				PlanCode:                      p.code,
				RegionCode:                    regions[i].Code,
				Currency:                      "usd",
				DisplayPrice:                  price,
				IncludedCallMinutes:           p.callMinutes,
				IncludedWhatsappConversations: p.conversations,
				IncludedSeats:                 p.seats,
				IncludedAgents:                p.agents,
				IncludedPhoneNumbers:          p.phoneNumbers,
				OveragePerCallMinute:          decimal.RequireFromString("0.08"),
				OveragePerConversation:        decimal.RequireFromString("0.04"),
				LimitMode:                     p.limitMode,
				IsActive:                      true,
				Version:                       1,
				CreatedAt:                     now,
				UpdatedAt:                     now,
			}
			if err := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&pr).Error; err != nil {
				return err
			}
		}
	}

	log.Info("catalog seeded",
		zap.Int("regions", len(regions)),
		zap.Int("countries", len(countryMap)),
		zap.Int("plans", len(plans)),
	)
	return nil
}

var Module = fx.Module("seed",
	fx.Invoke(func(lc fx.Lifecycle, conn *gorm.DB, genID *snowflake.Node, log *zap.Logger) {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				return Run(conn, genID, log.Named("seed"))
			},
		})
	}),
)
