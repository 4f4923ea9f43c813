package repositories

import (
	"time"

	"github.com/SAP-F-2025/placement-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type SessionFilters struct {
	Status    *models.SessionStatus `json:"status"`
	Level     *int                  `json:"level"`
	UserID    *string               `json:"user_id"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortBy    string                `json:"sort_by"`    // "started_at", "completed_at", "level"
	SortOrder string                `json:"sort_order"` // "asc", "desc"
}

type HistoryFilters struct {
	Level    *int       `json:"level"`
	Passed   *bool      `json:"passed"`
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type SessionStats struct {
	TotalSessions    int                          `json:"total_sessions"`
	StatusBreakdown  map[models.SessionStatus]int `json:"status_breakdown"`
	AverageScore     float64                      `json:"average_score"`
	AverageTimeSpent int                          `json:"average_time_spent"`
	PassRate         float64                      `json:"pass_rate"`
}
