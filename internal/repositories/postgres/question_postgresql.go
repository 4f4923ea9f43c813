package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/placement-service/internal/cache"
	"github.com/SAP-F-2025/placement-service/internal/models"
	"github.com/SAP-F-2025/placement-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.LevelQuestion) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	q.invalidateLevel(ctx, question.Level)
	return nil
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.LevelQuestion, error) {
	db := q.getDB(tx)
	var question models.LevelQuestion
	if err := db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.LevelQuestion) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Save(question).Error; err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	q.invalidateLevel(ctx, question.Level)
	return nil
}

func (q *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := q.getDB(tx)
	question, err := q.GetByID(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Delete(&models.LevelQuestion{}, id).Error; err != nil {
		return err
	}
	q.invalidateLevel(ctx, question.Level)
	return nil
}

func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.LevelQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	db := q.getDB(tx)
	if err := db.WithContext(ctx).CreateInBatches(questions, 100).Error; err != nil {
		return fmt.Errorf("failed to create questions batch: %w", err)
	}
	seen := make(map[int]bool)
	for _, question := range questions {
		if !seen[question.Level] {
			q.invalidateLevel(ctx, question.Level)
			seen[question.Level] = true
		}
	}
	return nil
}

func (q *QuestionPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.LevelQuestion, error) {
	if len(ids) == 0 {
		return []*models.LevelQuestion{}, nil
	}
	db := q.getDB(tx)
	var questions []*models.LevelQuestion
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

// GetByLevel returns the full question pool for a level in display order.
// Cached: the pool changes rarely and is read on every session start and
// every completion.
func (q *QuestionPostgreSQL) GetByLevel(ctx context.Context, tx *gorm.DB, level int) ([]*models.LevelQuestion, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("level:%d", level)
	var questions []*models.LevelQuestion

	err := q.cacheManager.Question.CacheOrExecute(ctx, cacheKey, &questions, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		var dbQuestions []*models.LevelQuestion
		if err := db.WithContext(ctx).
			Where("level = ?", level).
			Order(`"order" ASC, id ASC`).
			Find(&dbQuestions).Error; err != nil {
			return nil, fmt.Errorf("failed to get questions for level: %w", err)
		}
		return dbQuestions, nil
	})

	return questions, err
}

func (q *QuestionPostgreSQL) GetByType(ctx context.Context, tx *gorm.DB, level int, questionType models.QuestionType) ([]*models.LevelQuestion, error) {
	db := q.getDB(tx)
	var questions []*models.LevelQuestion
	if err := db.WithContext(ctx).
		Where("level = ? AND type = ?", level, questionType).
		Order(`"order" ASC, id ASC`).
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) CountByLevel(ctx context.Context, tx *gorm.DB, level int) (int64, error) {
	db := q.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.LevelQuestion{}).
		Where("level = ?", level).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (q *QuestionPostgreSQL) invalidateLevel(ctx context.Context, level int) {
	cache.InvalidateLevelCache(ctx, q.cacheManager, level)
}
