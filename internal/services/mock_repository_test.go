package services

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/placement-service/internal/models"
	"github.com/SAP-F-2025/placement-service/internal/repositories"
)

// mockRepository is an in-memory repositories.Repository for service tests.
// The tx parameter is ignored everywhere; WithTransaction runs the callback
// against the same store.
type mockRepository struct {
	sessions  *mockSessionRepo
	answers   *mockAnswerRepo
	questions *mockQuestionRepo
	progress  *mockProgressRepo
	users     *mockUserRepo
}

func newMockRepository() *mockRepository {
	answers := &mockAnswerRepo{store: make(map[string]map[uint]string)}
	return &mockRepository{
		sessions:  &mockSessionRepo{store: make(map[string]*models.TestSession), answers: answers},
		answers:   answers,
		questions: &mockQuestionRepo{},
		progress:  &mockProgressRepo{store: make(map[string]*models.UserTestProgress)},
		users:     &mockUserRepo{roles: make(map[string]models.UserRole)},
	}
}

func (m *mockRepository) Session() repositories.SessionRepository   { return m.sessions }
func (m *mockRepository) Answer() repositories.AnswerRepository     { return m.answers }
func (m *mockRepository) Question() repositories.QuestionRepository { return m.questions }
func (m *mockRepository) Progress() repositories.ProgressRepository { return m.progress }
func (m *mockRepository) User() repositories.UserRepository         { return m.users }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// ===== SESSIONS =====

type mockSessionRepo struct {
	store   map[string]*models.TestSession
	answers *mockAnswerRepo
}

func (r *mockSessionRepo) Create(ctx context.Context, tx *gorm.DB, session *models.TestSession) error {
	for _, existing := range r.store {
		if existing.UserID == session.UserID && existing.Level == session.Level && existing.Status == models.SessionInProgress {
			return repositories.ErrActiveSessionExists
		}
	}
	copied := *session
	r.store[session.ID] = &copied
	return nil
}

func (r *mockSessionRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.TestSession, error) {
	session, ok := r.store[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *session
	return &copied, nil
}

func (r *mockSessionRepo) GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id string) (*models.TestSession, error) {
	session, err := r.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	session.Answers = r.answers.forSession(id)
	return session, nil
}

func (r *mockSessionRepo) Update(ctx context.Context, tx *gorm.DB, session *models.TestSession) error {
	if _, ok := r.store[session.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *session
	copied.Answers = nil
	r.store[session.ID] = &copied
	return nil
}

func (r *mockSessionRepo) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	delete(r.store, id)
	return nil
}

func (r *mockSessionRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.SessionFilters) ([]*models.TestSession, int64, error) {
	var result []*models.TestSession
	for _, session := range r.store {
		copied := *session
		result = append(result, &copied)
	}
	return result, int64(len(result)), nil
}

func (r *mockSessionRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.SessionFilters) ([]*models.TestSession, int64, error) {
	var result []*models.TestSession
	for _, session := range r.store {
		if session.UserID == userID {
			copied := *session
			result = append(result, &copied)
		}
	}
	return result, int64(len(result)), nil
}

func (r *mockSessionRepo) GetActiveSession(ctx context.Context, tx *gorm.DB, userID string, level int) (*models.TestSession, error) {
	for id, session := range r.store {
		if session.UserID == userID && session.Level == level && session.Status == models.SessionInProgress {
			return r.GetByIDWithAnswers(ctx, tx, id)
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockSessionRepo) GetActiveSessions(ctx context.Context, tx *gorm.DB, userID string) ([]*models.TestSession, error) {
	var result []*models.TestSession
	for id, session := range r.store {
		if session.UserID == userID && session.Status == models.SessionInProgress {
			withAnswers, _ := r.GetByIDWithAnswers(ctx, tx, id)
			result = append(result, withAnswers)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *mockSessionRepo) HasActiveSession(ctx context.Context, tx *gorm.DB, userID string, level int) (bool, error) {
	_, err := r.GetActiveSession(ctx, tx, userID, level)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *mockSessionRepo) GetExpiredSessions(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) ([]*models.TestSession, error) {
	var result []*models.TestSession
	for _, session := range r.store {
		if session.Status == models.SessionInProgress && session.ExpiresAt.Before(cutoff) {
			copied := *session
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ExpiresAt.Before(result[j].ExpiresAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *mockSessionRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status models.SessionStatus) error {
	session, ok := r.store[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	session.Status = status
	return nil
}

// ===== ANSWERS =====

type mockAnswerRepo struct {
	store map[string]map[uint]string
}

func (r *mockAnswerRepo) forSession(sessionID string) []models.SessionAnswer {
	byQuestion := r.store[sessionID]
	result := make([]models.SessionAnswer, 0, len(byQuestion))
	for questionID, text := range byQuestion {
		result = append(result, models.SessionAnswer{
			SessionID:  sessionID,
			QuestionID: questionID,
			AnswerText: text,
		})
	}
	return result
}

func (r *mockAnswerRepo) Upsert(ctx context.Context, tx *gorm.DB, answer *models.SessionAnswer) error {
	if r.store[answer.SessionID] == nil {
		r.store[answer.SessionID] = make(map[uint]string)
	}
	r.store[answer.SessionID][answer.QuestionID] = answer.AnswerText
	return nil
}

func (r *mockAnswerRepo) GetBySession(ctx context.Context, tx *gorm.DB, sessionID string) ([]*models.SessionAnswer, error) {
	entries := r.forSession(sessionID)
	result := make([]*models.SessionAnswer, 0, len(entries))
	for i := range entries {
		result = append(result, &entries[i])
	}
	return result, nil
}

func (r *mockAnswerRepo) CountBySession(ctx context.Context, tx *gorm.DB, sessionID string) (int64, error) {
	return int64(len(r.store[sessionID])), nil
}

func (r *mockAnswerRepo) DeleteBySession(ctx context.Context, tx *gorm.DB, sessionID string) error {
	delete(r.store, sessionID)
	return nil
}

// ===== QUESTIONS =====

type mockQuestionRepo struct {
	pool   []*models.LevelQuestion
	nextID uint
}

func (r *mockQuestionRepo) Create(ctx context.Context, tx *gorm.DB, question *models.LevelQuestion) error {
	r.nextID++
	question.ID = r.nextID
	copied := *question
	r.pool = append(r.pool, &copied)
	return nil
}

func (r *mockQuestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.LevelQuestion, error) {
	for _, question := range r.pool {
		if question.ID == id {
			copied := *question
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockQuestionRepo) Update(ctx context.Context, tx *gorm.DB, question *models.LevelQuestion) error {
	for i, existing := range r.pool {
		if existing.ID == question.ID {
			copied := *question
			r.pool[i] = &copied
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *mockQuestionRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	for i, question := range r.pool {
		if question.ID == id {
			r.pool = append(r.pool[:i], r.pool[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *mockQuestionRepo) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.LevelQuestion) error {
	for _, question := range questions {
		if err := r.Create(ctx, tx, question); err != nil {
			return err
		}
	}
	return nil
}

func (r *mockQuestionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.LevelQuestion, error) {
	var result []*models.LevelQuestion
	for _, id := range ids {
		if question, err := r.GetByID(ctx, tx, id); err == nil {
			result = append(result, question)
		}
	}
	return result, nil
}

func (r *mockQuestionRepo) GetByLevel(ctx context.Context, tx *gorm.DB, level int) ([]*models.LevelQuestion, error) {
	var result []*models.LevelQuestion
	for _, question := range r.pool {
		if question.Level == level {
			copied := *question
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Order < result[j].Order })
	return result, nil
}

func (r *mockQuestionRepo) GetByType(ctx context.Context, tx *gorm.DB, level int, questionType models.QuestionType) ([]*models.LevelQuestion, error) {
	var result []*models.LevelQuestion
	for _, question := range r.pool {
		if question.Level == level && question.Type == questionType {
			copied := *question
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *mockQuestionRepo) CountByLevel(ctx context.Context, tx *gorm.DB, level int) (int64, error) {
	questions, _ := r.GetByLevel(ctx, tx, level)
	return int64(len(questions)), nil
}

// ===== PROGRESS =====

type mockProgressRepo struct {
	store    map[string]*models.UserTestProgress
	attempts []*models.LevelAttempt
}

func (r *mockProgressRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID string) (*models.UserTestProgress, error) {
	progress, ok := r.store[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *progress
	return &copied, nil
}

func (r *mockProgressRepo) Upsert(ctx context.Context, tx *gorm.DB, progress *models.UserTestProgress) error {
	copied := *progress
	r.store[progress.UserID] = &copied
	return nil
}

func (r *mockProgressRepo) RecordAttempt(ctx context.Context, tx *gorm.DB, attempt *models.LevelAttempt) error {
	copied := *attempt
	copied.ID = uint(len(r.attempts) + 1)
	r.attempts = append(r.attempts, &copied)
	return nil
}

func (r *mockProgressRepo) GetAttempts(ctx context.Context, tx *gorm.DB, userID string, filters repositories.HistoryFilters) ([]*models.LevelAttempt, int64, error) {
	var result []*models.LevelAttempt
	for _, attempt := range r.attempts {
		if attempt.UserID != userID {
			continue
		}
		if filters.Level != nil && attempt.Level != *filters.Level {
			continue
		}
		if filters.Passed != nil && attempt.Passed != *filters.Passed {
			continue
		}
		copied := *attempt
		result = append(result, &copied)
	}
	return result, int64(len(result)), nil
}

func (r *mockProgressRepo) GetAttemptsByLevel(ctx context.Context, tx *gorm.DB, userID string, level int) ([]*models.LevelAttempt, error) {
	attempts, _, err := r.GetAttempts(ctx, tx, userID, repositories.HistoryFilters{Level: &level})
	return attempts, err
}

func (r *mockProgressRepo) GetLevelStats(ctx context.Context, tx *gorm.DB, userID string, level int) (*models.LevelStats, error) {
	stats := &models.LevelStats{}
	for _, attempt := range r.attempts {
		if attempt.UserID != userID || attempt.Level != level {
			continue
		}
		stats.Attempts++
		if attempt.Percentage > stats.BestScore {
			stats.BestScore = attempt.Percentage
		}
		if attempt.Passed {
			stats.Passed = true
		}
		completedAt := attempt.CompletedAt
		stats.LastAttempt = &completedAt
	}
	return stats, nil
}

func (r *mockProgressRepo) GetLevelStatsAll(ctx context.Context, tx *gorm.DB, userID string) (map[int]*models.LevelStats, error) {
	result := make(map[int]*models.LevelStats)
	for _, attempt := range r.attempts {
		if attempt.UserID != userID {
			continue
		}
		if _, ok := result[attempt.Level]; !ok {
			stats, _ := r.GetLevelStats(ctx, tx, userID, attempt.Level)
			result[attempt.Level] = stats
		}
	}
	return result, nil
}

func (r *mockProgressRepo) HasPassedLevel(ctx context.Context, tx *gorm.DB, userID string, level int) (bool, error) {
	for _, attempt := range r.attempts {
		if attempt.UserID == userID && attempt.Level == level && attempt.Passed {
			return true, nil
		}
	}
	return false, nil
}

// ===== USERS =====

type mockUserRepo struct {
	roles map[string]models.UserRole
}

func (r *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	role, ok := r.roles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.User{ID: id, Role: role}, nil
}

func (r *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (r *mockUserRepo) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	var result []*models.User
	for _, id := range ids {
		if user, err := r.GetByID(ctx, id); err == nil {
			result = append(result, user)
		}
	}
	return result, nil
}

func (r *mockUserRepo) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	return nil, 0, nil
}

func (r *mockUserRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, ok := r.roles[id]
	return ok, nil
}

func (r *mockUserRepo) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	return r.roles[id] == role, nil
}
