package pkg

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/SAP-F-2025/placement-service/internal/config"
	"github.com/SAP-F-2025/placement-service/internal/models"
)

// InitDatabase opens the PostgreSQL connection and runs migrations
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if cfg.Environment == "development" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// oneActiveSessionIndex enforces a single in-progress session per user and
// level at the database level. Partial indexes cannot be expressed with gorm
// struct tags, so it is applied as raw DDL after AutoMigrate.
const oneActiveSessionIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_test_sessions_one_active
ON test_sessions (user_id, level)
WHERE status = 'in_progress'`

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.LevelQuestion{},
		&models.TestSession{},
		&models.SessionAnswer{},
		&models.LevelAttempt{},
		&models.UserTestProgress{},
	); err != nil {
		return err
	}
	return db.Exec(oneActiveSessionIndex).Error
}
