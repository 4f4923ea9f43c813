package models

import (
	"time"
)

type QuestionType string

const (
	TrueFalse      QuestionType = "true_false"
	MultipleChoice QuestionType = "multiple_choice"
	ShortAnswer    QuestionType = "short_answer"
	Essay          QuestionType = "essay"
)

// TestLevel is the static configuration for one rung of the placement
// ladder. Levels are defined in the catalog, never created or destroyed
// at runtime.
type TestLevel struct {
	Level             int     `json:"level"`
	DurationMinutes   int     `json:"duration_minutes"`
	QuestionCount     int     `json:"question_count"`
	QuestionTypeMix   string  `json:"question_type_mix"`
	PassingPercentage float64 `json:"passing_percentage"`
	PrerequisiteLevel *int    `json:"prerequisite_level,omitempty"`
}

// LevelQuestion is a question assigned to a level. Immutable once any
// session references it.
type LevelQuestion struct {
	ID            uint         `json:"id" gorm:"primaryKey"`
	Level         int          `json:"level" gorm:"not null;index"`
	Type          QuestionType `json:"type" gorm:"not null"`
	Text          string       `json:"text" gorm:"type:text;not null"`
	CorrectAnswer string       `json:"-" gorm:"type:text;not null"`
	Points        int          `json:"points" gorm:"default:10" validate:"min=1,max=100"`
	Order         int          `json:"order" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LevelQuestion) TableName() string {
	return "level_questions"
}
