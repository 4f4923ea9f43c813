package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/placement-service/internal/cache"
	"github.com/SAP-F-2025/placement-service/internal/models"
	"github.com/SAP-F-2025/placement-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewSessionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.SessionRepository {
	return &SessionPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (s *SessionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

// Create inserts the session. The partial unique index on (user_id, level)
// over in-progress rows is the guard against a second active session; a
// SELECT-then-INSERT check cannot rule out phantom inserts under concurrent
// starts, the index can.
func (s *SessionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, session *models.TestSession) error {
	db := s.getDB(tx)
	if err := db.WithContext(ctx).Create(session).Error; err != nil {
		return translateSessionCreateError(err)
	}
	return nil
}

// translateSessionCreateError maps the unique violation raised by the
// one-active-session index to the sentinel callers branch on.
func translateSessionCreateError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repositories.ErrActiveSessionExists
	}
	return fmt.Errorf("failed to create session: %w", err)
}

func (s *SessionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.TestSession, error) {
	db := s.getDB(tx)
	var session models.TestSession
	if err := db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SessionPostgreSQL) GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id string) (*models.TestSession, error) {
	db := s.getDB(tx)
	var session models.TestSession
	if err := db.WithContext(ctx).
		Preload("Answers").
		First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SessionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, session *models.TestSession) error {
	db := s.getDB(tx)
	if err := db.WithContext(ctx).Save(session).Error; err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	// Updates happen on completion and expiry, which also change the
	// user's aggregated stats.
	cache.InvalidateSessionCache(ctx, s.cacheManager, session.ID, session.UserID)
	return nil
}

func (s *SessionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	db := s.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.TestSession{}, "id = ?", id).Error; err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *SessionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.SessionFilters) ([]*models.TestSession, int64, error) {
	db := s.getDB(tx)
	var sessions []*models.TestSession
	var total int64

	// apply filter first
	query := db.WithContext(ctx).Model(&models.TestSession{})
	query = s.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = s.applyPaginationAndSort(query, filters)

	if err := query.Find(&sessions).Error; err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

func (s *SessionPostgreSQL) GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.SessionFilters) ([]*models.TestSession, int64, error) {
	filters.UserID = &userID
	return s.List(ctx, tx, filters)
}

func (s *SessionPostgreSQL) GetActiveSession(ctx context.Context, tx *gorm.DB, userID string, level int) (*models.TestSession, error) {
	db := s.getDB(tx)
	var session models.TestSession
	if err := db.WithContext(ctx).
		Where("user_id = ? AND level = ? AND status = ?", userID, level, models.SessionInProgress).
		Preload("Answers").
		First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SessionPostgreSQL) GetActiveSessions(ctx context.Context, tx *gorm.DB, userID string) ([]*models.TestSession, error) {
	db := s.getDB(tx)
	var sessions []*models.TestSession
	if err := db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.SessionInProgress).
		Order("started_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *SessionPostgreSQL) HasActiveSession(ctx context.Context, tx *gorm.DB, userID string, level int) (bool, error) {
	db := s.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.TestSession{}).
		Where("user_id = ? AND level = ? AND status = ?", userID, level, models.SessionInProgress).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetExpiredSessions returns in-progress sessions whose deadline has passed.
// Used by the background sweep; the read path does its own lazy check.
// Strictly before the cutoff: a session is still live at the exact deadline.
func (s *SessionPostgreSQL) GetExpiredSessions(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) ([]*models.TestSession, error) {
	db := s.getDB(tx)
	var sessions []*models.TestSession
	query := db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", models.SessionInProgress, cutoff).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to get expired sessions: %w", err)
	}
	return sessions, nil
}

func (s *SessionPostgreSQL) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status models.SessionStatus) error {
	db := s.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.TestSession{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *SessionPostgreSQL) invalidate(ctx context.Context, id string) {
	cache.SafeDelete(ctx, s.cacheManager.Session, fmt.Sprintf("id:%s", id))
}

func (s *SessionPostgreSQL) applyFilters(query *gorm.DB, filters repositories.SessionFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Level != nil {
		query = query.Where("level = ?", *filters.Level)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.DateFrom != nil {
		query = query.Where("started_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("started_at <= ?", *filters.DateTo)
	}
	return query
}

func (s *SessionPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.SessionFilters) *gorm.DB {
	sortBy := filters.SortBy
	switch sortBy {
	case "started_at", "completed_at", "level", "score":
	default:
		sortBy = "started_at"
	}
	sortOrder := "DESC"
	if filters.SortOrder == "asc" {
		sortOrder = "ASC"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder))

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}

// ===== ANSWERS =====

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB, _ *redis.Client) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (a *AnswerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

// Upsert overwrites the previous answer for the same question, if any.
func (a *AnswerPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, answer *models.SessionAnswer) error {
	db := a.getDB(tx)
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"answer_text", "updated_at"}),
	}).Create(answer).Error
	if err != nil {
		return fmt.Errorf("failed to upsert answer: %w", err)
	}
	return nil
}

func (a *AnswerPostgreSQL) GetBySession(ctx context.Context, tx *gorm.DB, sessionID string) ([]*models.SessionAnswer, error) {
	db := a.getDB(tx)
	var answers []*models.SessionAnswer
	if err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("question_id ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (a *AnswerPostgreSQL) CountBySession(ctx context.Context, tx *gorm.DB, sessionID string) (int64, error) {
	db := a.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.SessionAnswer{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (a *AnswerPostgreSQL) DeleteBySession(ctx context.Context, tx *gorm.DB, sessionID string) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&models.SessionAnswer{}).Error; err != nil {
		return err
	}
	return nil
}
