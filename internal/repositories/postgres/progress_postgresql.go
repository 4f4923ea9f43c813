package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/placement-service/internal/cache"
	"github.com/SAP-F-2025/placement-service/internal/models"
	"github.com/SAP-F-2025/placement-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewProgressPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ProgressRepository {
	return &ProgressPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (p *ProgressPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return p.db
}

func (p *ProgressPostgreSQL) GetByUser(ctx context.Context, tx *gorm.DB, userID string) (*models.UserTestProgress, error) {
	db := p.getDB(tx)
	var progress models.UserTestProgress
	if err := db.WithContext(ctx).First(&progress, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

func (p *ProgressPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, progress *models.UserTestProgress) error {
	db := p.getDB(tx)
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"current_level", "highest_passed_level",
			"total_attempts", "total_passed", "total_time_spent", "updated_at",
		}),
	}).Create(progress).Error
	if err != nil {
		return fmt.Errorf("failed to upsert progress: %w", err)
	}
	p.invalidate(ctx, progress.UserID)
	return nil
}

func (p *ProgressPostgreSQL) RecordAttempt(ctx context.Context, tx *gorm.DB, attempt *models.LevelAttempt) error {
	db := p.getDB(tx)
	if err := db.WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	p.invalidate(ctx, attempt.UserID)
	return nil
}

func (p *ProgressPostgreSQL) GetAttempts(ctx context.Context, tx *gorm.DB, userID string, filters repositories.HistoryFilters) ([]*models.LevelAttempt, int64, error) {
	db := p.getDB(tx)
	var attempts []*models.LevelAttempt
	var total int64

	query := db.WithContext(ctx).Model(&models.LevelAttempt{}).Where("user_id = ?", userID)
	if filters.Level != nil {
		query = query.Where("level = ?", *filters.Level)
	}
	if filters.Passed != nil {
		query = query.Where("passed = ?", *filters.Passed)
	}
	if filters.DateFrom != nil {
		query = query.Where("completed_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("completed_at <= ?", *filters.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("completed_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

func (p *ProgressPostgreSQL) GetAttemptsByLevel(ctx context.Context, tx *gorm.DB, userID string, level int) ([]*models.LevelAttempt, error) {
	db := p.getDB(tx)
	var attempts []*models.LevelAttempt
	if err := db.WithContext(ctx).
		Where("user_id = ? AND level = ?", userID, level).
		Order("completed_at DESC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (p *ProgressPostgreSQL) GetLevelStats(ctx context.Context, tx *gorm.DB, userID string, level int) (*models.LevelStats, error) {
	db := p.getDB(tx)
	cacheKey := fmt.Sprintf("user:%s:level:%d", userID, level)
	var stats models.LevelStats

	err := p.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		return p.computeLevelStats(ctx, db, userID, level)
	})

	return &stats, err
}

func (p *ProgressPostgreSQL) computeLevelStats(ctx context.Context, db *gorm.DB, userID string, level int) (*models.LevelStats, error) {
	var row struct {
		Attempts    int
		BestScore   float64
		Passed      bool
		AverageTime float64
	}
	err := db.WithContext(ctx).
		Model(&models.LevelAttempt{}).
		Select("COUNT(*) AS attempts, COALESCE(MAX(percentage), 0) AS best_score, COALESCE(BOOL_OR(passed), false) AS passed, COALESCE(AVG(time_spent), 0) AS average_time").
		Where("user_id = ? AND level = ?", userID, level).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute level stats: %w", err)
	}

	stats := &models.LevelStats{
		Attempts:    row.Attempts,
		BestScore:   row.BestScore,
		Passed:      row.Passed,
		AverageTime: int(row.AverageTime),
	}

	if row.Attempts > 0 {
		var last models.LevelAttempt
		if err := db.WithContext(ctx).
			Where("user_id = ? AND level = ?", userID, level).
			Order("completed_at DESC").
			First(&last).Error; err == nil {
			stats.LastAttempt = &last.CompletedAt
		}
	}

	return stats, nil
}

func (p *ProgressPostgreSQL) GetLevelStatsAll(ctx context.Context, tx *gorm.DB, userID string) (map[int]*models.LevelStats, error) {
	db := p.getDB(tx)
	var rows []struct {
		Level       int
		Attempts    int
		BestScore   float64
		Passed      bool
		AverageTime float64
	}
	err := db.WithContext(ctx).
		Model(&models.LevelAttempt{}).
		Select("level, COUNT(*) AS attempts, COALESCE(MAX(percentage), 0) AS best_score, COALESCE(BOOL_OR(passed), false) AS passed, COALESCE(AVG(time_spent), 0) AS average_time").
		Where("user_id = ?", userID).
		Group("level").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute level stats: %w", err)
	}

	result := make(map[int]*models.LevelStats, len(rows))
	for _, row := range rows {
		result[row.Level] = &models.LevelStats{
			Attempts:    row.Attempts,
			BestScore:   row.BestScore,
			Passed:      row.Passed,
			AverageTime: int(row.AverageTime),
		}
	}

	// Latest attempt timestamps in one pass
	var attempts []*models.LevelAttempt
	if err := db.WithContext(ctx).
		Select("level, completed_at").
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		Find(&attempts).Error; err == nil {
		for _, attempt := range attempts {
			if stats, ok := result[attempt.Level]; ok && stats.LastAttempt == nil {
				at := attempt.CompletedAt
				stats.LastAttempt = &at
			}
		}
	}

	return result, nil
}

func (p *ProgressPostgreSQL) HasPassedLevel(ctx context.Context, tx *gorm.DB, userID string, level int) (bool, error) {
	db := p.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.LevelAttempt{}).
		Where("user_id = ? AND level = ? AND passed = ?", userID, level, true).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (p *ProgressPostgreSQL) invalidate(ctx context.Context, userID string) {
	cache.SafeInvalidatePattern(ctx, p.cacheManager.Stats, fmt.Sprintf("user:%s:*", userID))
}
