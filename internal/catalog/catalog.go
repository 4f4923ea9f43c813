// Package catalog holds the static configuration of the placement ladder:
// twelve levels, tiered by duration and question-type mix. The catalog is
// compiled in; it is never created, mutated or destroyed at runtime.
package catalog

import (
	"fmt"

	"github.com/SAP-F-2025/placement-service/internal/models"
)

const (
	// MaxLevel is the highest rung of the placement ladder.
	MaxLevel = 12

	// QuestionsPerLevel is fixed across all tiers.
	QuestionsPerLevel = 10

	// DefaultPassingPercentage is the pass threshold applied to every
	// level. Sessions read the threshold from the level config, never
	// from a constant of their own.
	DefaultPassingPercentage = 70.0
)

type tier struct {
	minLevel        int
	maxLevel        int
	durationMinutes int
	typeMix         string
}

var tiers = []tier{
	{1, 3, 5, "True/False + Multiple Choice"},
	{4, 6, 15, "Multiple Choice + Short Answer"},
	{7, 9, 30, "Short Answer + Essay"},
	{10, 12, 60, "Essay"},
}

// Level returns the configuration for a single level.
func Level(level int) (*models.TestLevel, error) {
	if level < 1 || level > MaxLevel {
		return nil, fmt.Errorf("level %d out of range [1, %d]", level, MaxLevel)
	}

	var t tier
	for _, candidate := range tiers {
		if level >= candidate.minLevel && level <= candidate.maxLevel {
			t = candidate
			break
		}
	}

	cfg := &models.TestLevel{
		Level:             level,
		DurationMinutes:   t.durationMinutes,
		QuestionCount:     QuestionsPerLevel,
		QuestionTypeMix:   t.typeMix,
		PassingPercentage: DefaultPassingPercentage,
	}
	if level > 1 {
		prereq := level - 1
		cfg.PrerequisiteLevel = &prereq
	}

	return cfg, nil
}

// Levels returns all twelve levels in ascending order.
func Levels() []*models.TestLevel {
	levels := make([]*models.TestLevel, 0, MaxLevel)
	for l := 1; l <= MaxLevel; l++ {
		cfg, _ := Level(l)
		levels = append(levels, cfg)
	}
	return levels
}

// QuestionTypes returns the question types making up a level's mix.
func QuestionTypes(level int) ([]models.QuestionType, error) {
	cfg, err := Level(level)
	if err != nil {
		return nil, err
	}

	switch cfg.QuestionTypeMix {
	case "True/False + Multiple Choice":
		return []models.QuestionType{models.TrueFalse, models.MultipleChoice}, nil
	case "Multiple Choice + Short Answer":
		return []models.QuestionType{models.MultipleChoice, models.ShortAnswer}, nil
	case "Short Answer + Essay":
		return []models.QuestionType{models.ShortAnswer, models.Essay}, nil
	default:
		return []models.QuestionType{models.Essay}, nil
	}
}
