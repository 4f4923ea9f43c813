package validator

import "github.com/SAP-F-2025/placement-service/internal/models"

// StartSessionRequest starts a timed test at one level of the ladder
type StartSessionRequest struct {
	Level int `json:"level" validate:"required,test_level"`
}

// SubmitAnswerRequest records or overwrites the answer for one question
type SubmitAnswerRequest struct {
	QuestionID uint   `json:"question_id" validate:"required"`
	AnswerText string `json:"answer_text" validate:"answer_text"`
}

// CreateQuestionRequest adds a question to a level's pool (admin only)
type CreateQuestionRequest struct {
	Level         int                 `json:"level" validate:"required,test_level"`
	Type          models.QuestionType `json:"type" validate:"required,oneof=true_false multiple_choice short_answer essay"`
	Text          string              `json:"text" validate:"required,max=2000"`
	CorrectAnswer string              `json:"correct_answer" validate:"required,answer_text"`
	Points        int                 `json:"points" validate:"required,min=1,max=100"`
	Order         int                 `json:"order" validate:"omitempty,min=0"`
}
