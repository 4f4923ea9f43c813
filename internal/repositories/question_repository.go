package repositories

import (
	"context"

	"github.com/SAP-F-2025/placement-service/internal/models"
	"gorm.io/gorm"
)

// QuestionRepository interface for the per-level question pool
type QuestionRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, question *models.LevelQuestion) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.LevelQuestion, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.LevelQuestion) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Bulk operations
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.LevelQuestion) error
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.LevelQuestion, error)

	// Level pool queries
	GetByLevel(ctx context.Context, tx *gorm.DB, level int) ([]*models.LevelQuestion, error)
	GetByType(ctx context.Context, tx *gorm.DB, level int, questionType models.QuestionType) ([]*models.LevelQuestion, error)
	CountByLevel(ctx context.Context, tx *gorm.DB, level int) (int64, error)
}

// ProgressRepository interface for the level progression read model
type ProgressRepository interface {
	// Progress cursor
	GetByUser(ctx context.Context, tx *gorm.DB, userID string) (*models.UserTestProgress, error)
	Upsert(ctx context.Context, tx *gorm.DB, progress *models.UserTestProgress) error

	// Append-only attempt log
	RecordAttempt(ctx context.Context, tx *gorm.DB, attempt *models.LevelAttempt) error
	GetAttempts(ctx context.Context, tx *gorm.DB, userID string, filters HistoryFilters) ([]*models.LevelAttempt, int64, error)
	GetAttemptsByLevel(ctx context.Context, tx *gorm.DB, userID string, level int) ([]*models.LevelAttempt, error)

	// Derived queries
	GetLevelStats(ctx context.Context, tx *gorm.DB, userID string, level int) (*models.LevelStats, error)
	GetLevelStatsAll(ctx context.Context, tx *gorm.DB, userID string) (map[int]*models.LevelStats, error)
	HasPassedLevel(ctx context.Context, tx *gorm.DB, userID string, level int) (bool, error)
}
