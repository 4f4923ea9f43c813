package models

import (
	"time"

	"gorm.io/datatypes"
)

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionExpired    SessionStatus = "expired"
)

// TestSession is one timed attempt by a user at one level. Rows are never
// deleted; a session only ever transitions from in_progress to a terminal
// status, forming permanent history.
type TestSession struct {
	ID     string        `json:"id" gorm:"primaryKey;size:36"`
	UserID string        `json:"user_id" gorm:"not null;index;size:255"`
	Level  int           `json:"level" gorm:"not null;index"`
	Status SessionStatus `json:"status" gorm:"default:in_progress;index"`

	// Timing. ExpiresAt is fixed at creation and never extended.
	StartedAt   time.Time  `json:"started_at" gorm:"not null"`
	ExpiresAt   time.Time  `json:"expires_at" gorm:"not null"`
	CompletedAt *time.Time `json:"completed_at"`
	TimeSpent   int        `json:"time_spent"` // seconds, set at completion

	// Scoring. Set exactly once, at the completed transition.
	Score    *float64 `json:"score"`
	MaxScore int      `json:"max_score"`
	Passed   *bool    `json:"passed"`

	// Metadata
	IPAddress  *string        `json:"ip_address" gorm:"size:45"`
	UserAgent  *string        `json:"user_agent" gorm:"type:text"`
	ClientInfo datatypes.JSON `json:"client_info" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Answers []SessionAnswer `json:"answers" gorm:"foreignKey:SessionID"`
}

// SessionAnswer is one (question, answer text) entry for a session.
// Keyed by (session_id, question_id); resubmission overwrites, nothing is
// ever removed.
type SessionAnswer struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	SessionID  string `json:"session_id" gorm:"not null;size:36;uniqueIndex:idx_session_question"`
	QuestionID uint   `json:"question_id" gorm:"not null;uniqueIndex:idx_session_question"`
	AnswerText string `json:"answer_text" gorm:"type:text;not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Session TestSession `json:"-" gorm:"foreignKey:SessionID"`
}

func (TestSession) TableName() string {
	return "test_sessions"
}

func (SessionAnswer) TableName() string {
	return "session_answers"
}
