package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/placement-service/internal/catalog"
	"github.com/SAP-F-2025/placement-service/internal/domain"
	"github.com/SAP-F-2025/placement-service/internal/events"
	"github.com/SAP-F-2025/placement-service/internal/models"
	"github.com/SAP-F-2025/placement-service/internal/repositories"
	"github.com/SAP-F-2025/placement-service/internal/validator"
)

type sessionService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	now       func() time.Time
}

func NewSessionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) SessionService {
	return &sessionService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		now:       time.Now,
	}
}

// ===== CORE SESSION OPERATIONS =====

func (s *sessionService) Start(ctx context.Context, req *StartSessionRequest, userID string, meta SessionMetadata) (*SessionResponse, error) {
	s.logger.Info("Starting test session",
		"level", req.Level,
		"user_id", userID)

	// Validate request
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	levelConfig, err := catalog.Level(req.Level)
	if err != nil {
		return nil, ErrLevelNotFound
	}

	// Sequential unlocking: level n requires level n-1 passed
	if err := s.checkLevelUnlocked(ctx, userID, levelConfig); err != nil {
		return nil, err
	}

	// A stale active session past its deadline blocks the start until it
	// is finalized, so expire it first
	if active, err := s.repo.Session().GetActiveSession(ctx, s.db, userID, req.Level); err == nil {
		if s.now().After(active.ExpiresAt) {
			if err := s.finalizeExpired(ctx, active); err != nil {
				return nil, fmt.Errorf("failed to expire stale session: %w", err)
			}
		} else {
			return nil, ErrSessionAlreadyActive
		}
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check active session: %w", err)
	}

	questions, err := s.repo.Question().GetByLevel(ctx, s.db, req.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to load question pool: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions configured for level %d", req.Level)
	}

	now := s.now()
	aggregate := domain.New(uuid.New().String(), userID, req.Level, levelConfig.DurationMinutes, levelConfig.PassingPercentage, now)

	record := &models.TestSession{
		ID:        aggregate.ID(),
		UserID:    userID,
		Level:     req.Level,
		Status:    models.SessionInProgress,
		StartedAt: aggregate.StartedAt(),
		ExpiresAt: aggregate.ExpiresAt(),
		MaxScore:  maxScore(questions),
	}
	applyMetadata(record, meta)

	if err := s.repo.Session().Create(ctx, s.db, record); err != nil {
		if errors.Is(err, repositories.ErrActiveSessionExists) {
			return nil, ErrSessionAlreadyActive
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.publishEvent(ctx, events.NewEvent(events.TypeSessionStarted, events.SessionStartedEvent{
		SessionID: record.ID,
		UserID:    userID,
		Level:     req.Level,
		StartedAt: record.StartedAt,
		ExpiresAt: record.ExpiresAt,
	}))

	s.logger.Info("Test session started",
		"session_id", record.ID,
		"level", req.Level,
		"user_id", userID,
		"expires_at", record.ExpiresAt)

	response := s.toResponse(record, aggregate, now)
	response.Questions = questionsForSession(questions)
	return response, nil
}

func (s *sessionService) SubmitAnswer(ctx context.Context, sessionID string, req *SubmitAnswerRequest, userID string) error {
	// Validate request
	if err := s.validator.Validate(req); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	record, err := s.getOwnedSession(ctx, sessionID, userID, "answer")
	if err != nil {
		return err
	}

	aggregate := s.reconstitute(record)
	now := s.now()

	if err := aggregate.AnswerQuestion(req.QuestionID, req.AnswerText, now); err != nil {
		if errors.Is(err, domain.ErrSessionExpired) {
			// The guard observed the lapsed deadline; persist the terminal
			// transition before rejecting
			if ferr := s.finalizeExpired(ctx, record); ferr != nil {
				s.logger.Error("Failed to finalize expired session",
					"session_id", sessionID,
					"error", ferr)
			}
			return ErrSessionExpired
		}
		if errors.Is(err, domain.ErrSessionNotActive) {
			return ErrSessionNotActive
		}
		return err
	}

	answer := &models.SessionAnswer{
		SessionID:  sessionID,
		QuestionID: req.QuestionID,
		AnswerText: req.AnswerText,
	}
	if err := s.repo.Answer().Upsert(ctx, s.db, answer); err != nil {
		return fmt.Errorf("failed to store answer: %w", err)
	}

	s.logger.Debug("Answer recorded",
		"session_id", sessionID,
		"question_id", req.QuestionID)

	return nil
}

func (s *sessionService) Complete(ctx context.Context, sessionID string, userID string) (*CompleteResult, error) {
	s.logger.Info("Completing test session",
		"session_id", sessionID,
		"user_id", userID)

	record, err := s.getOwnedSession(ctx, sessionID, userID, "complete")
	if err != nil {
		return nil, err
	}

	aggregate := s.reconstitute(record)
	now := s.now()

	questions, err := s.repo.Question().GetByLevel(ctx, s.db, record.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to load question pool: %w", err)
	}

	if err := aggregate.Complete(domainQuestions(questions), now); err != nil {
		if errors.Is(err, domain.ErrSessionExpired) {
			if ferr := s.finalizeExpired(ctx, record); ferr != nil {
				s.logger.Error("Failed to finalize expired session",
					"session_id", sessionID,
					"error", ferr)
			}
			return nil, ErrSessionExpired
		}
		if errors.Is(err, domain.ErrSessionNotActive) {
			return nil, ErrSessionNotActive
		}
		return nil, err
	}

	result, err := s.persistTerminal(ctx, record, aggregate, now)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.NewEvent(events.TypeSessionCompleted, events.SessionCompletedEvent{
		SessionID: sessionID,
		UserID:    userID,
		Level:     record.Level,
		Score:     result.Score,
		MaxScore:  result.MaxScore,
		Passed:    result.Passed,
		TimeSpent: result.TimeSpent,
	}))

	if result.Passed && result.UnlockedLevel != nil {
		s.publishEvent(ctx, events.NewEvent(events.TypeLevelPassed, events.LevelPassedEvent{
			UserID:    userID,
			Level:     record.Level,
			Score:     result.Score,
			NextLevel: *result.UnlockedLevel,
		}))
	}

	s.logger.Info("Test session completed",
		"session_id", sessionID,
		"level", record.Level,
		"score", result.Score,
		"passed", result.Passed)

	return result, nil
}

// ===== GET OPERATIONS =====

func (s *sessionService) GetByID(ctx context.Context, sessionID string, userID string) (*SessionResponse, error) {
	record, err := s.getOwnedSession(ctx, sessionID, userID, "read")
	if err != nil {
		return nil, err
	}

	now := s.now()

	// Lazy expiry at read time
	if record.Status == models.SessionInProgress && now.After(record.ExpiresAt) {
		if err := s.finalizeExpired(ctx, record); err != nil {
			s.logger.Error("Failed to finalize expired session",
				"session_id", sessionID,
				"error", err)
		}
	}

	return s.toResponse(record, s.reconstitute(record), now), nil
}

func (s *sessionService) GetActiveSessions(ctx context.Context, userID string) ([]*SessionResponse, error) {
	sessions, err := s.repo.Session().GetActiveSessions(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active sessions: %w", err)
	}

	now := s.now()
	responses := make([]*SessionResponse, 0, len(sessions))
	for _, record := range sessions {
		// Read-time expiry: overdue sessions are finalized, not returned
		if now.After(record.ExpiresAt) {
			if err := s.finalizeExpired(ctx, record); err != nil {
				s.logger.Error("Failed to finalize expired session",
					"session_id", record.ID,
					"error", err)
			}
			continue
		}
		responses = append(responses, s.toResponse(record, s.reconstitute(record), now))
	}

	return responses, nil
}

// ===== TIME MANAGEMENT =====

func (s *sessionService) GetTimeRemaining(ctx context.Context, sessionID string, userID string) (int, error) {
	record, err := s.getOwnedSession(ctx, sessionID, userID, "read")
	if err != nil {
		return 0, err
	}

	if record.Status != models.SessionInProgress {
		return 0, nil
	}

	remaining := int(record.ExpiresAt.Sub(s.now()).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (s *sessionService) HandleExpiry(ctx context.Context, sessionID string) error {
	record, err := s.repo.Session().GetByIDWithAnswers(ctx, s.db, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to get session: %w", err)
	}

	if record.Status != models.SessionInProgress {
		return nil
	}
	// Still live at the exact deadline, matching the aggregate's guard
	if !s.now().After(record.ExpiresAt) {
		return ErrSessionNotActive
	}

	return s.finalizeExpired(ctx, record)
}

// ExpireOverdueSessions finalizes sessions whose deadline has lapsed.
// Called by the background sweep; returns the number of sessions expired.
func (s *sessionService) ExpireOverdueSessions(ctx context.Context, limit int) (int, error) {
	overdue, err := s.repo.Session().GetExpiredSessions(ctx, s.db, s.now(), limit)
	if err != nil {
		return 0, fmt.Errorf("failed to load overdue sessions: %w", err)
	}

	expired := 0
	for _, record := range overdue {
		if err := s.HandleExpiry(ctx, record.ID); err != nil {
			s.logger.Error("Failed to expire session",
				"session_id", record.ID,
				"error", err)
			continue
		}
		expired++
	}

	if expired > 0 {
		s.logger.Info("Expired overdue sessions", "count", expired)
	}

	return expired, nil
}

// ===== HELPERS =====

func (s *sessionService) getOwnedSession(ctx context.Context, sessionID, userID, action string) (*models.TestSession, error) {
	record, err := s.repo.Session().GetByIDWithAnswers(ctx, s.db, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if record.UserID != userID {
		return nil, NewPermissionError(userID, "session", action, "not owned by user")
	}

	return record, nil
}

func (s *sessionService) reconstitute(record *models.TestSession) *domain.Session {
	answers := make(map[uint]string, len(record.Answers))
	for _, answer := range record.Answers {
		answers[answer.QuestionID] = answer.AnswerText
	}

	passing := catalog.DefaultPassingPercentage
	if levelConfig, err := catalog.Level(record.Level); err == nil {
		passing = levelConfig.PassingPercentage
	}

	return domain.Reconstitute(domain.Props{
		ID:                record.ID,
		UserID:            record.UserID,
		Level:             record.Level,
		Status:            record.Status,
		Answers:           answers,
		StartedAt:         record.StartedAt,
		ExpiresAt:         record.ExpiresAt,
		CompletedAt:       record.CompletedAt,
		PassingPercentage: passing,
		Score:             record.Score,
		Passed:            record.Passed,
	})
}

// persistTerminal writes the completed aggregate state, records the level
// attempt and advances the progress cursor, all in one transaction.
func (s *sessionService) persistTerminal(ctx context.Context, record *models.TestSession, aggregate *domain.Session, now time.Time) (*CompleteResult, error) {
	snapshot := aggregate.Snapshot()
	timeSpent := aggregate.TimeSpentSeconds(now)

	record.Status = snapshot.Status
	record.CompletedAt = snapshot.CompletedAt
	record.Score = snapshot.Score
	record.Passed = snapshot.Passed
	record.TimeSpent = timeSpent

	score := 0.0
	if snapshot.Score != nil {
		score = *snapshot.Score
	}
	passed := snapshot.Passed != nil && *snapshot.Passed

	var unlocked *int
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Session().Update(ctx, nil, record); err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}

		attempt := &models.LevelAttempt{
			UserID:      record.UserID,
			Level:       record.Level,
			SessionID:   record.ID,
			Score:       score,
			MaxScore:    record.MaxScore,
			Percentage:  score,
			Passed:      passed,
			TimeSpent:   timeSpent,
			CompletedAt: now,
		}
		if err := txRepo.Progress().RecordAttempt(ctx, nil, attempt); err != nil {
			return fmt.Errorf("failed to record attempt: %w", err)
		}

		next, err := s.advanceProgress(ctx, txRepo, record.UserID, record.Level, passed, timeSpent)
		if err != nil {
			return err
		}
		unlocked = next

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &CompleteResult{
		SessionID:     record.ID,
		Level:         record.Level,
		Score:         score,
		MaxScore:      record.MaxScore,
		Passed:        passed,
		TimeSpent:     timeSpent,
		UnlockedLevel: unlocked,
	}, nil
}

// advanceProgress updates the per-user cursor and reports the newly
// unlocked level, if any.
func (s *sessionService) advanceProgress(ctx context.Context, txRepo repositories.Repository, userID string, level int, passed bool, timeSpent int) (*int, error) {
	progress, err := txRepo.Progress().GetByUser(ctx, nil, userID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get progress: %w", err)
		}
		progress = &models.UserTestProgress{UserID: userID, CurrentLevel: 1}
	}

	progress.TotalAttempts++
	progress.TotalTimeSpent += timeSpent

	var unlocked *int
	if passed {
		progress.TotalPassed++
		if level > progress.HighestPassedLevel {
			progress.HighestPassedLevel = level
			if level < catalog.MaxLevel {
				next := level + 1
				progress.CurrentLevel = next
				unlocked = &next
			}
		}
	}

	if err := txRepo.Progress().Upsert(ctx, nil, progress); err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}

	return unlocked, nil
}

// finalizeExpired records the terminal transition for an overdue session.
// Answers stored before the deadline are scored for display, but expiry
// never grants credit: Passed stays unset, no level attempt is recorded and
// the progress cursor does not move. Passing requires an explicit complete
// before the deadline.
func (s *sessionService) finalizeExpired(ctx context.Context, record *models.TestSession) error {
	// callers may hold a record loaded without its answers
	if len(record.Answers) == 0 {
		answers, err := s.repo.Answer().GetBySession(ctx, s.db, record.ID)
		if err != nil {
			return fmt.Errorf("failed to load answers: %w", err)
		}
		for _, answer := range answers {
			record.Answers = append(record.Answers, *answer)
		}
	}

	aggregate := s.reconstitute(record)

	questions, err := s.repo.Question().GetByLevel(ctx, s.db, record.Level)
	if err != nil {
		return fmt.Errorf("failed to load question pool: %w", err)
	}

	score := aggregate.CalculateScore(domainQuestions(questions))
	expiredAt := record.ExpiresAt

	record.Status = models.SessionExpired
	record.Score = &score
	record.Passed = nil
	record.TimeSpent = aggregate.TimeSpentSeconds(expiredAt)
	record.CompletedAt = &expiredAt

	if err := s.repo.Session().Update(ctx, s.db, record); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	s.publishEvent(ctx, events.NewEvent(events.TypeSessionExpired, events.SessionExpiredEvent{
		SessionID: record.ID,
		UserID:    record.UserID,
		Level:     record.Level,
		ExpiresAt: record.ExpiresAt,
	}))

	s.logger.Info("Session expired",
		"session_id", record.ID,
		"level", record.Level,
		"user_id", record.UserID)

	return nil
}

func (s *sessionService) checkLevelUnlocked(ctx context.Context, userID string, levelConfig *models.TestLevel) error {
	if levelConfig.PrerequisiteLevel == nil {
		return nil
	}

	passed, err := s.repo.Progress().HasPassedLevel(ctx, s.db, userID, *levelConfig.PrerequisiteLevel)
	if err != nil {
		return fmt.Errorf("failed to check prerequisite: %w", err)
	}
	if !passed {
		return ErrLevelLocked
	}

	return nil
}

func (s *sessionService) toResponse(record *models.TestSession, aggregate *domain.Session, now time.Time) *SessionResponse {
	remaining := 0
	if record.Status == models.SessionInProgress {
		remaining = int(record.ExpiresAt.Sub(now).Seconds())
		if remaining < 0 {
			remaining = 0
		}
	}

	return &SessionResponse{
		ID:            record.ID,
		Level:         record.Level,
		Status:        record.Status,
		StartedAt:     record.StartedAt,
		ExpiresAt:     record.ExpiresAt,
		CompletedAt:   record.CompletedAt,
		TimeRemaining: remaining,
		Score:         record.Score,
		MaxScore:      record.MaxScore,
		Passed:        record.Passed,
		Answers:       aggregate.Answers(),
	}
}

func (s *sessionService) publishEvent(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event",
			"event_type", event.Type,
			"error", err)
	}
}

func applyMetadata(record *models.TestSession, meta SessionMetadata) {
	if meta.IPAddress != "" {
		record.IPAddress = &meta.IPAddress
	}
	if meta.UserAgent != "" {
		record.UserAgent = &meta.UserAgent
	}
	if len(meta.ClientInfo) > 0 {
		if data, err := json.Marshal(meta.ClientInfo); err == nil {
			record.ClientInfo = data
		}
	}
}

func domainQuestions(questions []*models.LevelQuestion) []domain.Question {
	result := make([]domain.Question, 0, len(questions))
	for _, question := range questions {
		result = append(result, domain.Question{
			ID:            question.ID,
			CorrectAnswer: question.CorrectAnswer,
			Points:        question.Points,
		})
	}
	return result
}

func questionsForSession(questions []*models.LevelQuestion) []QuestionForSession {
	result := make([]QuestionForSession, 0, len(questions))
	for _, question := range questions {
		result = append(result, QuestionForSession{
			ID:     question.ID,
			Type:   question.Type,
			Text:   question.Text,
			Points: question.Points,
			Order:  question.Order,
		})
	}
	return result
}

func maxScore(questions []*models.LevelQuestion) int {
	total := 0
	for _, question := range questions {
		total += question.Points
	}
	return total
}
