// Package domain holds the in-memory session aggregate: the state machine
// that owns a timed attempt's transitions and scoring. It has no
// persistence or transport concerns; the services layer reconstitutes an
// aggregate from storage, drives it, and persists the outcome.
package domain

import (
	"errors"
	"time"

	"github.com/SAP-F-2025/placement-service/internal/models"
)

var (
	// ErrSessionNotActive is returned when an operation requires an
	// in-progress session but the session is already terminal.
	ErrSessionNotActive = errors.New("session is not in progress")

	// ErrSessionExpired is returned when the time limit has been
	// exceeded. The guard that detects it also transitions the session
	// to expired, so the error always arrives together with a permanent
	// state change.
	ErrSessionExpired = errors.New("session time limit exceeded")
)

// Question is the scoring view of a level question: just enough to grade
// an answer map against it.
type Question struct {
	ID            uint
	CorrectAnswer string
	Points        int
}

// Session is the aggregate for one timed attempt. All methods are
// synchronous, pure state transitions over in-memory data; expiry is
// detected lazily on access, never by a timer.
type Session struct {
	id                string
	userID            string
	level             int
	status            models.SessionStatus
	answers           map[uint]string
	startedAt         time.Time
	expiresAt         time.Time
	completedAt       *time.Time
	passingPercentage float64
	score             *float64
	passed            *bool
}

// Props carries the persisted state needed to rebuild an aggregate.
type Props struct {
	ID                string
	UserID            string
	Level             int
	Status            models.SessionStatus
	Answers           map[uint]string
	StartedAt         time.Time
	ExpiresAt         time.Time
	CompletedAt       *time.Time
	PassingPercentage float64
	Score             *float64
	Passed            *bool
}

// New creates a fresh in-progress session. The expiry deadline is fixed
// here and never extended.
func New(id, userID string, level, durationMinutes int, passingPercentage float64, now time.Time) *Session {
	return &Session{
		id:                id,
		userID:            userID,
		level:             level,
		status:            models.SessionInProgress,
		answers:           make(map[uint]string),
		startedAt:         now,
		expiresAt:         now.Add(time.Duration(durationMinutes) * time.Minute),
		passingPercentage: passingPercentage,
	}
}

// Reconstitute rebuilds an aggregate from persisted state without
// re-running creation side effects.
func Reconstitute(p Props) *Session {
	answers := make(map[uint]string, len(p.Answers))
	for id, text := range p.Answers {
		answers[id] = text
	}
	return &Session{
		id:                p.ID,
		userID:            p.UserID,
		level:             p.Level,
		status:            p.Status,
		answers:           answers,
		startedAt:         p.StartedAt,
		expiresAt:         p.ExpiresAt,
		completedAt:       p.CompletedAt,
		passingPercentage: p.PassingPercentage,
		score:             p.Score,
		passed:            p.Passed,
	}
}

// guard is the observe-and-transition check run before every mutation.
// If the session is terminal it rejects. If the deadline has passed it
// first flips the session to expired, then rejects: the expiry is
// recorded, not just reported. No background process marks sessions
// expired; this is the only place the transition happens.
func (s *Session) guard(now time.Time) error {
	if s.status != models.SessionInProgress {
		return ErrSessionNotActive
	}
	if now.After(s.expiresAt) {
		s.status = models.SessionExpired
		return ErrSessionExpired
	}
	return nil
}

// AnswerQuestion records an answer, overwriting any previous answer for
// the same question. The aggregate does not validate that the question
// belongs to the level's assigned set; answers to unknown questions are
// stored and simply never contribute to the score.
func (s *Session) AnswerQuestion(questionID uint, answerText string, now time.Time) error {
	if err := s.guard(now); err != nil {
		return err
	}
	s.answers[questionID] = answerText
	return nil
}

// Complete scores the session against its assigned question set and
// transitions it to completed. Unanswered questions count as incorrect.
// Completing a session twice always fails: the first call leaves the
// session terminal and the guard rejects the second.
func (s *Session) Complete(questions []Question, now time.Time) error {
	if err := s.guard(now); err != nil {
		return err
	}

	score := s.CalculateScore(questions)
	passed := score >= s.passingPercentage

	s.score = &score
	s.passed = &passed
	s.status = models.SessionCompleted
	s.completedAt = &now
	return nil
}

// CalculateScore grades the current answer map against the given question
// set and returns a 0-100 percentage. Correctness is exact string
// equality; there is no partial credit and no per-type branching. Pure:
// callable at any time, mutates nothing.
func (s *Session) CalculateScore(questions []Question) float64 {
	totalPoints := 0
	earnedPoints := 0
	for _, q := range questions {
		totalPoints += q.Points
		if answer, ok := s.answers[q.ID]; ok && answer == q.CorrectAnswer {
			earnedPoints += q.Points
		}
	}
	if totalPoints == 0 {
		return 0
	}
	return float64(earnedPoints) / float64(totalPoints) * 100
}

// ===== ACCESSORS =====

func (s *Session) ID() string                   { return s.id }
func (s *Session) UserID() string               { return s.userID }
func (s *Session) Level() int                   { return s.level }
func (s *Session) Status() models.SessionStatus { return s.status }
func (s *Session) StartedAt() time.Time         { return s.startedAt }
func (s *Session) ExpiresAt() time.Time         { return s.expiresAt }
func (s *Session) CompletedAt() *time.Time      { return s.completedAt }
func (s *Session) Score() *float64              { return s.score }
func (s *Session) Passed() *bool                { return s.passed }

// Answer returns the recorded answer for a question, if any.
func (s *Session) Answer(questionID uint) (string, bool) {
	text, ok := s.answers[questionID]
	return text, ok
}

// Answers returns a copy of the answer map.
func (s *Session) Answers() map[uint]string {
	out := make(map[uint]string, len(s.answers))
	for id, text := range s.answers {
		out[id] = text
	}
	return out
}

// TimeSpentSeconds reports elapsed attempt time, capped at the limit.
func (s *Session) TimeSpentSeconds(now time.Time) int {
	end := now
	if s.completedAt != nil {
		end = *s.completedAt
	}
	if end.After(s.expiresAt) {
		end = s.expiresAt
	}
	spent := int(end.Sub(s.startedAt).Seconds())
	if spent < 0 {
		return 0
	}
	return spent
}

// Snapshot exports the aggregate state for persistence.
func (s *Session) Snapshot() Props {
	return Props{
		ID:                s.id,
		UserID:            s.userID,
		Level:             s.level,
		Status:            s.status,
		Answers:           s.Answers(),
		StartedAt:         s.startedAt,
		ExpiresAt:         s.expiresAt,
		CompletedAt:       s.completedAt,
		PassingPercentage: s.passingPercentage,
		Score:             s.score,
		Passed:            s.passed,
	}
}
