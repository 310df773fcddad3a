package database

import (
	"fmt"
	"time"

	"github.com/zedfund/backend/internal/config"
	"github.com/zedfund/backend/internal/models"
	"github.com/zedfund/backend/internal/queue"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB initializes the database connection with configuration
func InitDB(dbConfig config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}

	db, err := gorm.Open(postgres.Open(dbConfig.URL), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(dbConfig.MaxIdle)
	sqlDB.SetMaxOpenConns(dbConfig.MaxConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := RunSeedMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run seed migrations: %w", err)
	}

	return db, nil
}

// Migrate runs schema migrations for all models
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Users and authentication
		&models.User{},
		&models.EmailVerificationToken{},

		// Ledger
		&models.Wallet{},
		&models.Transaction{},

		// Investments
		&models.Plan{},
		&models.Investment{},

		// Funding queue
		&models.DepositRequest{},
		&models.WithdrawalRequest{},

		// Referrals
		&models.ReferralBonus{},

		// Notifications
		&models.Notification{},

		// Ventures
		&models.Venture{},
		&models.VentureContribution{},

		// Background jobs
		&queue.Job{},
	)
}
