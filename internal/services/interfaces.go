package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/placement-service/internal/models"
	"github.com/SAP-F-2025/placement-service/internal/repositories"
	"github.com/SAP-F-2025/placement-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use validator request types
type StartSessionRequest = validator.StartSessionRequest
type SubmitAnswerRequest = validator.SubmitAnswerRequest
type CreateQuestionRequest = validator.CreateQuestionRequest

// SessionMetadata captures client context at session start
type SessionMetadata struct {
	IPAddress  string
	UserAgent  string
	ClientInfo map[string]string
}

// QuestionForSession is a question as shown to the test taker. The correct
// answer never leaves the service.
type QuestionForSession struct {
	ID     uint                `json:"id"`
	Type   models.QuestionType `json:"type"`
	Text   string              `json:"text"`
	Points int                 `json:"points"`
	Order  int                 `json:"order"`
}

type SessionResponse struct {
	ID          string               `json:"id"`
	Level       int                  `json:"level"`
	Status      models.SessionStatus `json:"status"`
	StartedAt   time.Time            `json:"started_at"`
	ExpiresAt   time.Time            `json:"expires_at"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`

	TimeRemaining int `json:"time_remaining"` // seconds, 0 once terminal

	Score    *float64 `json:"score,omitempty"`
	MaxScore int      `json:"max_score"`
	Passed   *bool    `json:"passed,omitempty"`

	Questions []QuestionForSession `json:"questions,omitempty"`
	Answers   map[uint]string      `json:"answers,omitempty"`
}

// CompleteResult is the outcome of finishing a session
type CompleteResult struct {
	SessionID string  `json:"session_id"`
	Level     int     `json:"level"`
	Score     float64 `json:"score"`
	MaxScore  int     `json:"max_score"`
	Passed    bool    `json:"passed"`
	TimeSpent int     `json:"time_spent"` // seconds

	// Set when passing unlocked the next level
	UnlockedLevel *int `json:"unlocked_level,omitempty"`
}

// LevelItem is one row of the ladder display
type LevelItem struct {
	Level           int      `json:"level"`
	DurationMinutes int      `json:"duration_minutes"`
	QuestionCount   int      `json:"question_count"`
	QuestionTypes   string   `json:"question_types"`
	Status          string   `json:"status"` // "locked", "available", "in_progress", "passed"
	IsLocked        bool     `json:"is_locked"`
	ActionLabel     string   `json:"action_label"`
	ButtonVariant   string   `json:"button_variant"` // "primary", "secondary", "disabled"
	BestScore       *float64 `json:"best_score,omitempty"`
	Attempts        int      `json:"attempts"`
}

type LevelListResponse struct {
	Levels             []LevelItem `json:"levels"`
	CurrentLevel       int         `json:"current_level"`
	HighestPassedLevel int         `json:"highest_passed_level"`
}

type HistoryEntry struct {
	SessionID   string    `json:"session_id"`
	Level       int       `json:"level"`
	Score       float64   `json:"score"`
	MaxScore    int       `json:"max_score"`
	Percentage  float64   `json:"percentage"`
	Passed      bool      `json:"passed"`
	TimeSpent   int       `json:"time_spent"`
	CompletedAt time.Time `json:"completed_at"`
}

type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
	Total   int64          `json:"total"`
}

// ===== SERVICE INTERFACES =====

type SessionService interface {
	// Core session operations
	Start(ctx context.Context, req *StartSessionRequest, userID string, meta SessionMetadata) (*SessionResponse, error)
	SubmitAnswer(ctx context.Context, sessionID string, req *SubmitAnswerRequest, userID string) error
	Complete(ctx context.Context, sessionID string, userID string) (*CompleteResult, error)

	// Get operations
	GetByID(ctx context.Context, sessionID string, userID string) (*SessionResponse, error)
	GetActiveSessions(ctx context.Context, userID string) ([]*SessionResponse, error)

	// Time management
	GetTimeRemaining(ctx context.Context, sessionID string, userID string) (int, error) // seconds
	HandleExpiry(ctx context.Context, sessionID string) error

	// Expiry sweep support
	ExpireOverdueSessions(ctx context.Context, limit int) (int, error)
}

type LevelService interface {
	// Ladder display
	GetLevels(ctx context.Context, userID string) (*LevelListResponse, error)
	CanTake(ctx context.Context, userID string, level int) (bool, error)

	// Progress queries
	GetLevelStats(ctx context.Context, userID string, level int) (*models.LevelStats, error)
	GetHistory(ctx context.Context, userID string, filters repositories.HistoryFilters) (*HistoryResponse, error)
	GetProgress(ctx context.Context, userID string) (*models.UserTestProgress, error)
}

type QuestionService interface {
	// Pool management (admin)
	Create(ctx context.Context, req *CreateQuestionRequest, userID string) (*models.LevelQuestion, error)
	CreateBatch(ctx context.Context, reqs []*CreateQuestionRequest, userID string) ([]*models.LevelQuestion, error)
	Delete(ctx context.Context, id uint, userID string) error
	GetByLevel(ctx context.Context, level int, userID string) ([]*models.LevelQuestion, error)
}

type ReportService interface {
	// ExportHistory renders the user's attempt history as an xlsx workbook
	ExportHistory(ctx context.Context, userID string) ([]byte, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	// Core service getters
	Session() SessionService
	Level() LevelService
	Question() QuestionService
	Report() ReportService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
