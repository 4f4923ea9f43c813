package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/placement-service/internal/services"
	"github.com/SAP-F-2025/placement-service/internal/utils"
	"github.com/SAP-F-2025/placement-service/internal/validator"
)

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
	validator      *validator.Validator
}

func NewSessionHandler(
	sessionService services.SessionService,
	validator *validator.Validator,
	logger utils.Logger,
) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
		validator:      validator,
	}
}

// StartSession starts a timed test session
// @Summary Start test session
// @Description Starts a timed session at one level of the placement ladder
// @Tags sessions
// @Accept json
// @Produce json
// @Param session body services.StartSessionRequest true "Start session data"
// @Success 201 {object} services.SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/start [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	h.LogRequest(c, "Starting test session")

	var req services.StartSessionRequest
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

	meta := services.SessionMetadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}

	session, err := h.sessionService.Start(c.Request.Context(), &req, userID, meta)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// SubmitAnswer records or overwrites the answer for one question
// @Summary Submit answer
// @Description Records the answer for one question of an active session
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param answer body services.SubmitAnswerRequest true "Answer data"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /sessions/{id}/answer [post]
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	sessionID := c.Param("id")

	var req services.SubmitAnswerRequest
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

	if err := h.sessionService.SubmitAnswer(c.Request.Context(), sessionID, &req, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Answer recorded",
	})
}

// CompleteSession submits the session for scoring
// @Summary Complete test session
// @Description Scores the session and transitions it to its terminal status
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.CompleteResult
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /sessions/{id}/complete [post]
func (h *SessionHandler) CompleteSession(c *gin.Context) {
	sessionID := c.Param("id")
	h.LogRequest(c, "Completing test session", "session_id", sessionID)

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	result, err := h.sessionService.Complete(c.Request.Context(), sessionID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSession fetches one session with its answers
// @Summary Get session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionID := c.Param("id")

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	session, err := h.sessionService.GetByID(c.Request.Context(), sessionID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// GetActiveSessions lists the caller's in-progress sessions
// @Summary List active sessions
// @Tags sessions
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]services.SessionResponse}
// @Failure 401 {object} ErrorResponse
// @Router /sessions/active [get]
func (h *SessionHandler) GetActiveSessions(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	sessions, err := h.sessionService.GetActiveSessions(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Active sessions retrieved",
		Data:    sessions,
	})
}

// GetTimeRemaining reports the seconds left on a session's clock
// @Summary Get time remaining
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} map[string]int
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/time-remaining [get]
func (h *SessionHandler) GetTimeRemaining(c *gin.Context) {
	sessionID := c.Param("id")

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	remaining, err := h.sessionService.GetTimeRemaining(c.Request.Context(), sessionID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":     sessionID,
		"time_remaining": remaining,
	})
}
