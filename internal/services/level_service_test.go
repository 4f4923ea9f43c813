package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/placement-service/internal/catalog"
	"github.com/SAP-F-2025/placement-service/internal/models"
	"github.com/SAP-F-2025/placement-service/internal/repositories"
)

func newLevelFixture() (*mockRepository, *levelService) {
	repo := newMockRepository()
	service := &levelService{
		repo:   repo,
		logger: testLogger(),
		now:    func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) },
	}
	return repo, service
}

func TestGetLevelsNewUser(t *testing.T) {
	_, service := newLevelFixture()

	resp, err := service.GetLevels(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetLevels() error = %v", err)
	}

	if len(resp.Levels) != catalog.MaxLevel {
		t.Fatalf("levels = %d, want %d", len(resp.Levels), catalog.MaxLevel)
	}
	if resp.CurrentLevel != 1 || resp.HighestPassedLevel != 0 {
		t.Errorf("cursor = %d/%d, want 1/0", resp.CurrentLevel, resp.HighestPassedLevel)
	}

	if resp.Levels[0].Status != "available" || resp.Levels[0].IsLocked {
		t.Errorf("level 1 = %+v, want available", resp.Levels[0])
	}
	if resp.Levels[0].ButtonVariant != "primary" {
		t.Errorf("level 1 button = %q, want primary", resp.Levels[0].ButtonVariant)
	}
	for _, item := range resp.Levels[1:] {
		if item.Status != "locked" || !item.IsLocked || item.ButtonVariant != "disabled" {
			t.Errorf("level %d = %s/%s, want locked/disabled", item.Level, item.Status, item.ButtonVariant)
		}
	}
}

func TestGetLevelsAfterProgress(t *testing.T) {
	repo, service := newLevelFixture()
	ctx := context.Background()

	// User passed levels 1 and 2 and failed one shot at level 3
	for level := 1; level <= 2; level++ {
		_ = repo.progress.RecordAttempt(ctx, nil, &models.LevelAttempt{
			UserID: "user-1", Level: level, SessionID: "s", Percentage: 90, Passed: true,
			CompletedAt: time.Now(),
		})
	}
	_ = repo.progress.RecordAttempt(ctx, nil, &models.LevelAttempt{
		UserID: "user-1", Level: 3, SessionID: "s", Percentage: 50, Passed: false,
		CompletedAt: time.Now(),
	})
	_ = repo.progress.Upsert(ctx, nil, &models.UserTestProgress{
		UserID: "user-1", CurrentLevel: 3, HighestPassedLevel: 2,
		TotalAttempts: 3, TotalPassed: 2,
	})

	resp, err := service.GetLevels(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetLevels() error = %v", err)
	}

	cases := []struct {
		level  int
		status string
	}{
		{1, "passed"},
		{2, "passed"},
		{3, "available"},
		{4, "locked"},
	}
	for _, tc := range cases {
		item := resp.Levels[tc.level-1]
		if item.Status != tc.status {
			t.Errorf("level %d status = %s, want %s", tc.level, item.Status, tc.status)
		}
	}

	if item := resp.Levels[2]; item.BestScore == nil || *item.BestScore != 50 {
		t.Errorf("level 3 best score = %v, want 50", item.BestScore)
	}
	if resp.Levels[3].ActionLabel != "Pass Level 3 to unlock" {
		t.Errorf("level 4 action = %q", resp.Levels[3].ActionLabel)
	}
}

func TestGetLevelsShowsInProgress(t *testing.T) {
	repo, service := newLevelFixture()
	ctx := context.Background()

	now := service.now()
	_ = repo.sessions.Create(ctx, nil, &models.TestSession{
		ID: "active-1", UserID: "user-1", Level: 1, Status: models.SessionInProgress,
		StartedAt: now, ExpiresAt: now.Add(5 * time.Minute),
	})

	resp, err := service.GetLevels(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetLevels() error = %v", err)
	}
	if resp.Levels[0].Status != "in_progress" || resp.Levels[0].ActionLabel != "Continue" {
		t.Errorf("level 1 = %+v, want in_progress/Continue", resp.Levels[0])
	}
}

func TestCanTake(t *testing.T) {
	repo, service := newLevelFixture()
	ctx := context.Background()

	ok, err := service.CanTake(ctx, "user-1", 1)
	if err != nil || !ok {
		t.Errorf("CanTake(1) = %v, %v, want true", ok, err)
	}

	ok, err = service.CanTake(ctx, "user-1", 2)
	if err != nil || ok {
		t.Errorf("CanTake(2) = %v, %v, want false", ok, err)
	}

	_ = repo.progress.RecordAttempt(ctx, nil, &models.LevelAttempt{
		UserID: "user-1", Level: 1, SessionID: "s", Percentage: 80, Passed: true,
		CompletedAt: time.Now(),
	})
	ok, err = service.CanTake(ctx, "user-1", 2)
	if err != nil || !ok {
		t.Errorf("CanTake(2) after pass = %v, %v, want true", ok, err)
	}

	if _, err := service.CanTake(ctx, "user-1", 99); !errors.Is(err, ErrLevelNotFound) {
		t.Errorf("CanTake(99) error = %v, want ErrLevelNotFound", err)
	}
}

func TestGetHistory(t *testing.T) {
	repo, service := newLevelFixture()
	ctx := context.Background()

	for i, passed := range []bool{true, false, true} {
		_ = repo.progress.RecordAttempt(ctx, nil, &models.LevelAttempt{
			UserID: "user-1", Level: i + 1, SessionID: "s", Percentage: 75, Passed: passed,
			CompletedAt: time.Now(),
		})
	}

	resp, err := service.GetHistory(ctx, "user-1", repositories.HistoryFilters{})
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if resp.Total != 3 || len(resp.Entries) != 3 {
		t.Errorf("history = %d entries total %d, want 3/3", len(resp.Entries), resp.Total)
	}

	passed := true
	resp, err = service.GetHistory(ctx, "user-1", repositories.HistoryFilters{Passed: &passed})
	if err != nil {
		t.Fatalf("filtered GetHistory() error = %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("passed history total = %d, want 2", resp.Total)
	}
}

func TestGetProgressNewUser(t *testing.T) {
	_, service := newLevelFixture()

	progress, err := service.GetProgress(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetProgress() error = %v", err)
	}
	if progress.CurrentLevel != 1 || progress.HighestPassedLevel != 0 {
		t.Errorf("progress = %+v, want fresh cursor at level 1", progress)
	}
}
