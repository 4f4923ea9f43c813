package models

import "time"

// LevelAttempt is the append-only history row summarizing one completed
// session. Written when the session reaches a terminal status and never
// mutated afterward.
type LevelAttempt struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	UserID    string `json:"user_id" gorm:"not null;index;size:255"`
	Level     int    `json:"level" gorm:"not null;index"`
	SessionID string `json:"session_id" gorm:"not null;size:36;index"`

	Score      float64 `json:"score"`
	MaxScore   int     `json:"max_score"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
	TimeSpent  int     `json:"time_spent"` // seconds

	CompletedAt time.Time `json:"completed_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserTestProgress is the per-user progression cursor. Incrementally
// updated as attempts complete; keyed by user.
type UserTestProgress struct {
	UserID             string `json:"user_id" gorm:"primaryKey;size:255"`
	CurrentLevel       int    `json:"current_level" gorm:"default:1"`
	HighestPassedLevel int    `json:"highest_passed_level" gorm:"default:0"`
	TotalAttempts      int    `json:"total_attempts" gorm:"default:0"`
	TotalPassed        int    `json:"total_passed" gorm:"default:0"`
	TotalTimeSpent     int    `json:"total_time_spent" gorm:"default:0"` // seconds

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LevelStats is the derived per-user, per-level summary consumed by the
// level list display.
type LevelStats struct {
	Attempts    int        `json:"attempts"`
	BestScore   float64    `json:"best_score"`
	Passed      bool       `json:"passed"`
	AverageTime int        `json:"average_time"` // seconds
	LastAttempt *time.Time `json:"last_attempt,omitempty"`
}

func (LevelAttempt) TableName() string {
	return "level_attempts"
}

func (UserTestProgress) TableName() string {
	return "user_test_progress"
}
