package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/placement-service/internal/config"
	"github.com/SAP-F-2025/placement-service/internal/models"
	"github.com/SAP-F-2025/placement-service/internal/repositories"
	"github.com/SAP-F-2025/placement-service/internal/services"
	"github.com/SAP-F-2025/placement-service/internal/utils"
	"github.com/SAP-F-2025/placement-service/internal/validator"
)

type HandlerManager struct {
	sessionHandler  *SessionHandler
	levelHandler    *LevelHandler
	questionHandler *QuestionHandler
	authMiddleware  *CasdoorAuthMiddleware
	serviceManager  services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		sessionHandler:  NewSessionHandler(serviceManager.Session(), validator, logger),
		levelHandler:    NewLevelHandler(serviceManager.Level(), serviceManager.Report(), logger),
		questionHandler: NewQuestionHandler(serviceManager.Question(), validator, logger),
		authMiddleware:  authMiddleware,
		serviceManager:  serviceManager,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Session routes
		sessions := v1.Group("/sessions")
		{
			sessions.POST("/start", hm.sessionHandler.StartSession)
			sessions.GET("/active", hm.sessionHandler.GetActiveSessions)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.POST("/:id/answer", hm.sessionHandler.SubmitAnswer)
			sessions.POST("/:id/complete", hm.sessionHandler.CompleteSession)
			sessions.GET("/:id/time-remaining", hm.sessionHandler.GetTimeRemaining)
		}

		// Level routes
		levels := v1.Group("/levels")
		{
			levels.GET("", hm.levelHandler.GetLevels)
			levels.GET("/progress", hm.levelHandler.GetProgress)
			levels.GET("/history", hm.levelHandler.GetHistory)
			levels.GET("/history/export", hm.levelHandler.ExportHistory)
			levels.GET("/:level/stats", hm.levelHandler.GetLevelStats)
		}

		// Question pool routes - Admins only
		questions := v1.Group("/questions")
		questions.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			questions.POST("", hm.questionHandler.CreateQuestion)
			questions.POST("/batch", hm.questionHandler.CreateQuestionsBatch)
			questions.DELETE("/:id", hm.questionHandler.DeleteQuestion)
			questions.GET("/level/:level", hm.questionHandler.GetQuestionsByLevel)
		}
	}
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"error":     err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "placement-service",
	})
}
