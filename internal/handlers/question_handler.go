package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/placement-service/internal/services"
	"github.com/SAP-F-2025/placement-service/internal/utils"
	"github.com/SAP-F-2025/placement-service/internal/validator"
)

// QuestionHandler manages the per-level question pools. All routes are
// admin-only; the service enforces the role a second time.
type QuestionHandler struct {
	BaseHandler
	questionService services.QuestionService
	validator       *validator.Validator
}

func NewQuestionHandler(
	questionService services.QuestionService,
	validator *validator.Validator,
	logger utils.Logger,
) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:     NewBaseHandler(logger),
		questionService: questionService,
		validator:       validator,
	}
}

// CreateQuestion adds one question to a level's pool
// @Summary Create question
// @Tags questions
// @Accept json
// @Produce json
// @Param question body services.CreateQuestionRequest true "Question data"
// @Success 201 {object} models.LevelQuestion
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /questions [post]
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	h.LogRequest(c, "Creating question")

	var req services.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// CreateQuestionsBatch adds multiple questions at once
// @Summary Create questions in batch
// @Tags questions
// @Accept json
// @Produce json
// @Param questions body []services.CreateQuestionRequest true "Questions"
// @Success 201 {object} SuccessResponse{data=[]models.LevelQuestion}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /questions/batch [post]
func (h *QuestionHandler) CreateQuestionsBatch(c *gin.Context) {
	h.LogRequest(c, "Creating question batch")

	var reqs []*services.CreateQuestionRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	questions, err := h.questionService.CreateBatch(c.Request.Context(), reqs, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Questions created",
		Data:    questions,
	})
}

// DeleteQuestion removes a question from its pool
// @Summary Delete question
// @Tags questions
// @Produce json
// @Param id path uint true "Question ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /questions/{id} [delete]
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id := h.parseUintParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting question", "question_id", id)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Question deleted",
	})
}

// GetQuestionsByLevel lists a level's pool including correct answers
// @Summary List questions for a level
// @Tags questions
// @Produce json
// @Param level path int true "Level"
// @Success 200 {object} SuccessResponse{data=[]models.LevelQuestion}
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /questions/level/{level} [get]
func (h *QuestionHandler) GetQuestionsByLevel(c *gin.Context) {
	level := h.parseIntParam(c, "level")
	if level == 0 {
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	questions, err := h.questionService.GetByLevel(c.Request.Context(), level, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Questions retrieved",
		Data:    questions,
	})
}
