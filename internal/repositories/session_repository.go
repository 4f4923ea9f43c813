package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/placement-service/internal/models"
	"gorm.io/gorm"
)

// SessionRepository interface for test session storage operations
type SessionRepository interface {
	// Create persists a new session. It fails with ErrActiveSessionExists
	// when the user already has an in-progress session for the same level.
	Create(ctx context.Context, tx *gorm.DB, session *models.TestSession) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.TestSession, error)
	GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id string) (*models.TestSession, error)
	Update(ctx context.Context, tx *gorm.DB, session *models.TestSession) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters SessionFilters) ([]*models.TestSession, int64, error)
	GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters SessionFilters) ([]*models.TestSession, int64, error)
	GetActiveSession(ctx context.Context, tx *gorm.DB, userID string, level int) (*models.TestSession, error)
	GetActiveSessions(ctx context.Context, tx *gorm.DB, userID string) ([]*models.TestSession, error)
	HasActiveSession(ctx context.Context, tx *gorm.DB, userID string, level int) (bool, error)

	// Expiry sweep support
	GetExpiredSessions(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) ([]*models.TestSession, error)

	// Status management
	UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status models.SessionStatus) error
}

// AnswerRepository interface for per-session answer storage
type AnswerRepository interface {
	// Upsert stores an answer keyed by (session_id, question_id),
	// overwriting any previous answer for the same question.
	Upsert(ctx context.Context, tx *gorm.DB, answer *models.SessionAnswer) error
	GetBySession(ctx context.Context, tx *gorm.DB, sessionID string) ([]*models.SessionAnswer, error)
	CountBySession(ctx context.Context, tx *gorm.DB, sessionID string) (int64, error)
	DeleteBySession(ctx context.Context, tx *gorm.DB, sessionID string) error
}
