package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/placement-service/internal/models"
)

func tenQuestions() []Question {
	questions := make([]Question, 10)
	for i := range questions {
		questions[i] = Question{ID: uint(i + 1), CorrectAnswer: "A", Points: 10}
	}
	return questions
}

func TestNewSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := New("sess-1", "user-1", 1, 5, 70, now)

	if s.Status() != models.SessionInProgress {
		t.Errorf("status = %s, want %s", s.Status(), models.SessionInProgress)
	}
	if !s.StartedAt().Equal(now) {
		t.Errorf("startedAt = %v, want %v", s.StartedAt(), now)
	}
	if want := now.Add(5 * time.Minute); !s.ExpiresAt().Equal(want) {
		t.Errorf("expiresAt = %v, want %v", s.ExpiresAt(), want)
	}
	if len(s.Answers()) != 0 {
		t.Errorf("new session should have no answers, got %d", len(s.Answers()))
	}
	if s.Score() != nil || s.Passed() != nil {
		t.Error("score and passed must be unset before completion")
	}
}

func TestAnswerQuestionOverwrites(t *testing.T) {
	now := time.Now()
	s := New("sess-1", "user-1", 1, 5, 70, now)

	if err := s.AnswerQuestion(1, "first", now); err != nil {
		t.Fatalf("AnswerQuestion failed: %v", err)
	}
	if err := s.AnswerQuestion(1, "second", now.Add(time.Second)); err != nil {
		t.Fatalf("AnswerQuestion failed: %v", err)
	}

	answer, ok := s.Answer(1)
	if !ok || answer != "second" {
		t.Errorf("answer = %q, want %q (last write wins)", answer, "second")
	}
	if len(s.Answers()) != 1 {
		t.Errorf("answer count = %d, want 1", len(s.Answers()))
	}
}

func TestAnswerQuestionAfterExpiryTransitionsAndRejects(t *testing.T) {
	now := time.Now()
	s := New("sess-1", "user-1", 1, 5, 70, now)

	late := now.Add(5*time.Minute + time.Second)
	err := s.AnswerQuestion(1, "A", late)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
	if s.Status() != models.SessionExpired {
		t.Errorf("status = %s, want %s (expiry must be recorded, not just reported)", s.Status(), models.SessionExpired)
	}

	// The terminal state is final: a later complete fails with the
	// invalid-state error, not the expired one.
	err = s.Complete(tenQuestions(), late.Add(time.Second))
	if !errors.Is(err, ErrSessionNotActive) {
		t.Errorf("Complete after expiry: err = %v, want ErrSessionNotActive", err)
	}
}

func TestCompleteAfterExpiryTransitionsAndRejects(t *testing.T) {
	now := time.Now()
	s := New("sess-1", "user-1", 2, 5, 70, now)

	err := s.Complete(tenQuestions(), now.Add(6*time.Minute))
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
	if s.Status() != models.SessionExpired {
		t.Errorf("status = %s, want %s", s.Status(), models.SessionExpired)
	}
	if s.Score() != nil || s.Passed() != nil {
		t.Error("expired session must not be scored")
	}
}

func TestCompleteScoresAndPasses(t *testing.T) {
	// Scenario: level 1, 10 questions x 10 points, 7 correct -> 70, pass.
	now := time.Now()
	s := New("sess-1", "user-1", 1, 5, 70, now)

	questions := tenQuestions()
	for i, q := range questions {
		answer := "A"
		if i >= 7 {
			answer = "wrong"
		}
		if err := s.AnswerQuestion(q.ID, answer, now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("AnswerQuestion(%d) failed: %v", q.ID, err)
		}
	}

	if err := s.Complete(questions, now.Add(4*time.Minute)); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if s.Status() != models.SessionCompleted {
		t.Errorf("status = %s, want %s", s.Status(), models.SessionCompleted)
	}
	if s.Score() == nil || *s.Score() != 70 {
		t.Errorf("score = %v, want 70", s.Score())
	}
	if s.Passed() == nil || !*s.Passed() {
		t.Error("passed = false, want true at exactly the threshold")
	}
	if s.CompletedAt() == nil {
		t.Error("completedAt must be set at completion")
	}
}

func TestCompleteIsNotIdempotent(t *testing.T) {
	now := time.Now()
	s := New("sess-1", "user-1", 1, 5, 70, now)
	questions := tenQuestions()

	if err := s.Complete(questions, now.Add(time.Minute)); err != nil {
		t.Fatalf("first Complete failed: %v", err)
	}

	firstScore := *s.Score()
	err := s.Complete(questions, now.Add(2*time.Minute))
	if !errors.Is(err, ErrSessionNotActive) {
		t.Fatalf("second Complete: err = %v, want ErrSessionNotActive", err)
	}
	if *s.Score() != firstScore {
		t.Error("score must never change after the completed transition")
	}
}

func TestCompleteWithUnansweredQuestions(t *testing.T) {
	now := time.Now()
	s := New("sess-1", "user-1", 1, 5, 70, now)
	questions := tenQuestions()

	// Answer only half; the rest are scored as incorrect.
	for _, q := range questions[:5] {
		if err := s.AnswerQuestion(q.ID, "A", now); err != nil {
			t.Fatalf("AnswerQuestion failed: %v", err)
		}
	}

	if err := s.Complete(questions, now.Add(time.Minute)); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if *s.Score() != 50 {
		t.Errorf("score = %v, want 50", *s.Score())
	}
	if *s.Passed() {
		t.Error("passed = true, want false below threshold")
	}
}

func TestCalculateScoreBounds(t *testing.T) {
	now := time.Now()
	questions := tenQuestions()

	tests := []struct {
		name    string
		correct int
		want    float64
	}{
		{name: "all correct", correct: 10, want: 100},
		{name: "none correct", correct: 0, want: 0},
		{name: "half correct", correct: 5, want: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("sess-1", "user-1", 1, 5, 70, now)
			for i, q := range questions {
				answer := "wrong"
				if i < tt.correct {
					answer = "A"
				}
				if err := s.AnswerQuestion(q.ID, answer, now); err != nil {
					t.Fatalf("AnswerQuestion failed: %v", err)
				}
			}
			if got := s.CalculateScore(questions); got != tt.want {
				t.Errorf("CalculateScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalculateScoreEmptyQuestionSet(t *testing.T) {
	s := New("sess-1", "user-1", 1, 5, 70, time.Now())
	if got := s.CalculateScore(nil); got != 0 {
		t.Errorf("CalculateScore(nil) = %v, want 0", got)
	}
}

func TestScoreInvariantToSubmissionOrder(t *testing.T) {
	now := time.Now()
	questions := tenQuestions()

	forward := New("sess-1", "user-1", 1, 5, 70, now)
	for _, q := range questions {
		_ = forward.AnswerQuestion(q.ID, "A", now)
	}

	backward := New("sess-2", "user-1", 1, 5, 70, now)
	for i := len(questions) - 1; i >= 0; i-- {
		_ = backward.AnswerQuestion(questions[i].ID, "A", now)
	}

	if forward.CalculateScore(questions) != backward.CalculateScore(questions) {
		t.Error("score must be invariant to answer submission order")
	}
}

func TestUnassignedQuestionStoredButNeverScored(t *testing.T) {
	now := time.Now()
	s := New("sess-1", "user-1", 1, 5, 70, now)
	questions := tenQuestions()

	// Question 999 is not in the assigned set: accepted, stored,
	// ignored by scoring.
	if err := s.AnswerQuestion(999, "A", now); err != nil {
		t.Fatalf("answer to unassigned question rejected: %v", err)
	}
	if _, ok := s.Answer(999); !ok {
		t.Error("answer to unassigned question should be stored")
	}
	if got := s.CalculateScore(questions); got != 0 {
		t.Errorf("CalculateScore = %v, want 0 (stray answers never contribute)", got)
	}
}

func TestReconstituteRoundTrip(t *testing.T) {
	now := time.Now()
	s := New("sess-1", "user-1", 3, 5, 70, now)
	_ = s.AnswerQuestion(1, "A", now)
	_ = s.AnswerQuestion(2, "B", now)

	rebuilt := Reconstitute(s.Snapshot())
	if rebuilt.ID() != s.ID() || rebuilt.UserID() != s.UserID() || rebuilt.Level() != s.Level() {
		t.Error("reconstituted identity fields differ")
	}
	if rebuilt.Status() != models.SessionInProgress {
		t.Errorf("status = %s, want %s", rebuilt.Status(), models.SessionInProgress)
	}
	if answer, ok := rebuilt.Answer(2); !ok || answer != "B" {
		t.Errorf("answer 2 = %q, want %q", answer, "B")
	}

	// Mutating the rebuilt aggregate must not leak back.
	_ = rebuilt.AnswerQuestion(3, "C", now)
	if _, ok := s.Answer(3); ok {
		t.Error("reconstitution must deep-copy the answer map")
	}
}

func TestTimeSpentSecondsCappedAtLimit(t *testing.T) {
	now := time.Now()
	s := New("sess-1", "user-1", 1, 5, 70, now)

	if got := s.TimeSpentSeconds(now.Add(2 * time.Minute)); got != 120 {
		t.Errorf("TimeSpentSeconds = %d, want 120", got)
	}
	if got := s.TimeSpentSeconds(now.Add(time.Hour)); got != 300 {
		t.Errorf("TimeSpentSeconds past deadline = %d, want 300 (capped)", got)
	}
}
