package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the placement service
const (
	TypeSessionStarted   = "session.started"
	TypeSessionCompleted = "session.completed"
	TypeSessionExpired   = "session.expired"
	TypeLevelPassed      = "level.passed"
)

// Event is the envelope published to the broker
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an event envelope with a fresh ID
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    "placement-service",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// SessionStartedEvent is emitted when a timed session begins
type SessionStartedEvent struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Level     int       `json:"level"`
	StartedAt time.Time `json:"started_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionCompletedEvent is emitted when a session reaches a terminal status
type SessionCompletedEvent struct {
	SessionID string  `json:"session_id"`
	UserID    string  `json:"user_id"`
	Level     int     `json:"level"`
	Score     float64 `json:"score"`
	MaxScore  int     `json:"max_score"`
	Passed    bool    `json:"passed"`
	TimeSpent int     `json:"time_spent"`
}

// SessionExpiredEvent is emitted when a session's time limit lapses
type SessionExpiredEvent struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Level     int       `json:"level"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LevelPassedEvent is emitted the first time a user passes a level
type LevelPassedEvent struct {
	UserID    string  `json:"user_id"`
	Level     int     `json:"level"`
	Score     float64 `json:"score"`
	NextLevel int     `json:"next_level"`
}

// EventPublisher publishes events to the broker
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}
