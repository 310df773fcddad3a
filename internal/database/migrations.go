package database

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/gosimple/slug"
	"github.com/zedfund/backend/internal/models"
	"gorm.io/gorm"
)

// RunSeedMigrations runs versioned data migrations. Schema changes go
// through AutoMigrate; these only seed reference data.
func RunSeedMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20260101_seed_investment_plans",
			Migrate: func(tx *gorm.DB) error {
				plans := []models.Plan{
					{Name: "Starter", Percent: 20, DurationDays: 10, MinAmount: 500, MaxAmount: 4999, Active: true},
					{Name: "Silver", Percent: 35, DurationDays: 20, MinAmount: 5000, MaxAmount: 19999, Active: true},
					{Name: "Gold", Percent: 50, DurationDays: 30, MinAmount: 20000, MaxAmount: 49999, Active: true},
					{Name: "Premium", Percent: 75, DurationDays: 45, MinAmount: 50000, MaxAmount: 0, Active: true},
				}
				for i := range plans {
					plans[i].Slug = slug.Make(plans[i].Name)
					if err := tx.Where("slug = ?", plans[i].Slug).FirstOrCreate(&plans[i]).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Where("slug IN ?", []string{"starter", "silver", "gold", "premium"}).
					Delete(&models.Plan{}).Error
			},
		},
		{
			ID: "20260101_seed_ventures",
			Migrate: func(tx *gorm.DB) error {
				ventures := []models.Venture{
					{Name: "Agro Processing", Description: "Maize milling and grain storage in Central Province.", Status: models.VentureStatusOpen},
					{Name: "Transport Fleet", Description: "Inter-city minibus fleet expansion.", Status: models.VentureStatusOpen},
				}
				for i := range ventures {
					ventures[i].Slug = slug.Make(ventures[i].Name)
					if err := tx.Where("slug = ?", ventures[i].Slug).FirstOrCreate(&ventures[i]).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Where("slug IN ?", []string{"agro-processing", "transport-fleet"}).
					Delete(&models.Venture{}).Error
			},
		},
	})

	return m.Migrate()
}
