package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/placement-service/internal/repositories"
	"github.com/SAP-F-2025/placement-service/internal/services"
	"github.com/SAP-F-2025/placement-service/internal/utils"
)

type LevelHandler struct {
	BaseHandler
	levelService  services.LevelService
	reportService services.ReportService
}

func NewLevelHandler(
	levelService services.LevelService,
	reportService services.ReportService,
	logger utils.Logger,
) *LevelHandler {
	return &LevelHandler{
		BaseHandler:   NewBaseHandler(logger),
		levelService:  levelService,
		reportService: reportService,
	}
}

// GetLevels returns the ladder with per-level status for the caller
// @Summary List levels
// @Description Returns all twelve levels with lock state and best scores
// @Tags levels
// @Produce json
// @Success 200 {object} services.LevelListResponse
// @Failure 401 {object} ErrorResponse
// @Router /levels [get]
func (h *LevelHandler) GetLevels(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	levels, err := h.levelService.GetLevels(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, levels)
}

// GetLevelStats returns the caller's aggregate results for one level
// @Summary Get level statistics
// @Tags levels
// @Produce json
// @Param level path int true "Level"
// @Success 200 {object} models.LevelStats
// @Failure 404 {object} ErrorResponse
// @Router /levels/{level}/stats [get]
func (h *LevelHandler) GetLevelStats(c *gin.Context) {
	level := h.parseIntParam(c, "level")
	if level == 0 {
		return
	}

	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	stats, err := h.levelService.GetLevelStats(c.Request.Context(), userID, level)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetProgress returns the caller's progression cursor
// @Summary Get progress
// @Tags levels
// @Produce json
// @Success 200 {object} models.UserTestProgress
// @Failure 401 {object} ErrorResponse
// @Router /levels/progress [get]
func (h *LevelHandler) GetProgress(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	progress, err := h.levelService.GetProgress(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetHistory returns the caller's attempt history
// @Summary Get attempt history
// @Tags levels
// @Produce json
// @Param level query int false "Filter by level"
// @Param passed query bool false "Filter by result"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} services.HistoryResponse
// @Failure 401 {object} ErrorResponse
// @Router /levels/history [get]
func (h *LevelHandler) GetHistory(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	filters := parseHistoryFilters(c)

	history, err := h.levelService.GetHistory(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

// ExportHistory downloads the caller's attempt history as an xlsx workbook
// @Summary Export attempt history
// @Tags levels
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 401 {object} ErrorResponse
// @Router /levels/history/export [get]
func (h *LevelHandler) ExportHistory(c *gin.Context) {
	userID := h.requireUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Exporting attempt history", "user_id", userID)

	workbook, err := h.reportService.ExportHistory(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("placement-history-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", workbook)
}

func parseHistoryFilters(c *gin.Context) repositories.HistoryFilters {
	var filters repositories.HistoryFilters

	if raw := c.Query("level"); raw != "" {
		if level, err := strconv.Atoi(raw); err == nil {
			filters.Level = &level
		}
	}
	if raw := c.Query("passed"); raw != "" {
		if passed, err := strconv.ParseBool(raw); err == nil {
			filters.Passed = &passed
		}
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filters.Limit = limit
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil {
			filters.Offset = offset
		}
	}

	return filters
}
