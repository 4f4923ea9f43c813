package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/placement-service/internal/catalog"
	"github.com/SAP-F-2025/placement-service/internal/models"
	"github.com/SAP-F-2025/placement-service/internal/repositories"
)

type levelService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewLevelService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) LevelService {
	return &levelService{
		repo:   repo,
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// ===== LADDER DISPLAY =====

func (s *levelService) GetLevels(ctx context.Context, userID string) (*LevelListResponse, error) {
	progress, err := s.repo.Progress().GetByUser(ctx, s.db, userID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get progress: %w", err)
		}
		progress = &models.UserTestProgress{UserID: userID, CurrentLevel: 1}
	}

	stats, err := s.repo.Progress().GetLevelStatsAll(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get level stats: %w", err)
	}

	active, err := s.repo.Session().GetActiveSessions(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active sessions: %w", err)
	}
	now := s.now()
	inProgress := make(map[int]bool, len(active))
	for _, session := range active {
		// An overdue session no longer counts as in progress for display;
		// the next write against it will finalize it. Still live at the
		// exact deadline, matching the aggregate's guard.
		if !now.After(session.ExpiresAt) {
			inProgress[session.Level] = true
		}
	}

	items := make([]LevelItem, 0, catalog.MaxLevel)
	for _, levelConfig := range catalog.Levels() {
		item := LevelItem{
			Level:           levelConfig.Level,
			DurationMinutes: levelConfig.DurationMinutes,
			QuestionCount:   levelConfig.QuestionCount,
			QuestionTypes:   levelConfig.QuestionTypeMix,
		}

		if levelStats, ok := stats[levelConfig.Level]; ok {
			item.Attempts = levelStats.Attempts
			if levelStats.Attempts > 0 {
				best := levelStats.BestScore
				item.BestScore = &best
			}
		}

		unlocked := levelConfig.PrerequisiteLevel == nil ||
			progress.HighestPassedLevel >= *levelConfig.PrerequisiteLevel

		switch {
		case !unlocked:
			item.Status = "locked"
			item.IsLocked = true
			item.ActionLabel = fmt.Sprintf("Pass Level %d to unlock", *levelConfig.PrerequisiteLevel)
			item.ButtonVariant = "disabled"
		case inProgress[levelConfig.Level]:
			item.Status = "in_progress"
			item.ActionLabel = "Continue"
			item.ButtonVariant = "primary"
		case stats[levelConfig.Level] != nil && stats[levelConfig.Level].Passed:
			item.Status = "passed"
			item.ActionLabel = "Retake"
			item.ButtonVariant = "secondary"
		default:
			item.Status = "available"
			item.ActionLabel = "Start"
			item.ButtonVariant = "primary"
		}

		items = append(items, item)
	}

	return &LevelListResponse{
		Levels:             items,
		CurrentLevel:       progress.CurrentLevel,
		HighestPassedLevel: progress.HighestPassedLevel,
	}, nil
}

func (s *levelService) CanTake(ctx context.Context, userID string, level int) (bool, error) {
	levelConfig, err := catalog.Level(level)
	if err != nil {
		return false, ErrLevelNotFound
	}

	if levelConfig.PrerequisiteLevel == nil {
		return true, nil
	}

	passed, err := s.repo.Progress().HasPassedLevel(ctx, s.db, userID, *levelConfig.PrerequisiteLevel)
	if err != nil {
		return false, fmt.Errorf("failed to check prerequisite: %w", err)
	}
	return passed, nil
}

// ===== PROGRESS QUERIES =====

func (s *levelService) GetLevelStats(ctx context.Context, userID string, level int) (*models.LevelStats, error) {
	if _, err := catalog.Level(level); err != nil {
		return nil, ErrLevelNotFound
	}

	stats, err := s.repo.Progress().GetLevelStats(ctx, s.db, userID, level)
	if err != nil {
		return nil, fmt.Errorf("failed to get level stats: %w", err)
	}
	return stats, nil
}

func (s *levelService) GetHistory(ctx context.Context, userID string, filters repositories.HistoryFilters) (*HistoryResponse, error) {
	attempts, total, err := s.repo.Progress().GetAttempts(ctx, s.db, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt history: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(attempts))
	for _, attempt := range attempts {
		entries = append(entries, HistoryEntry{
			SessionID:   attempt.SessionID,
			Level:       attempt.Level,
			Score:       attempt.Score,
			MaxScore:    attempt.MaxScore,
			Percentage:  attempt.Percentage,
			Passed:      attempt.Passed,
			TimeSpent:   attempt.TimeSpent,
			CompletedAt: attempt.CompletedAt,
		})
	}

	return &HistoryResponse{Entries: entries, Total: total}, nil
}

func (s *levelService) GetProgress(ctx context.Context, userID string) (*models.UserTestProgress, error) {
	progress, err := s.repo.Progress().GetByUser(ctx, s.db, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			// A user who has never taken a test starts at the bottom rung
			return &models.UserTestProgress{UserID: userID, CurrentLevel: 1}, nil
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return progress, nil
}
