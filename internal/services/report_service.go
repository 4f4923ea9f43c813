package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/placement-service/internal/repositories"
)

type reportService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewReportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) ReportService {
	return &reportService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

const historySheet = "Attempt History"

// ExportHistory renders the user's full attempt history as an xlsx
// workbook, most recent attempt first.
func (s *reportService) ExportHistory(ctx context.Context, userID string) ([]byte, error) {
	attempts, _, err := s.repo.Progress().GetAttempts(ctx, s.db, userID, repositories.HistoryFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt history: %w", err)
	}

	file := excelize.NewFile()
	defer func() {
		if err := file.Close(); err != nil {
			s.logger.Warn("Failed to close workbook", "error", err)
		}
	}()

	index, err := file.NewSheet(historySheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	file.SetActiveSheet(index)
	if err := file.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	headers := []string{"Level", "Score (%)", "Max Score", "Passed", "Time Spent (s)", "Completed At", "Session ID"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(historySheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	headerStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = file.SetCellStyle(historySheet, "A1", endCell, headerStyle)
	}

	for row, attempt := range attempts {
		result := "No"
		if attempt.Passed {
			result = "Yes"
		}
		values := []interface{}{
			attempt.Level,
			attempt.Percentage,
			attempt.MaxScore,
			result,
			attempt.TimeSpent,
			attempt.CompletedAt.Format("2006-01-02 15:04:05"),
			attempt.SessionID,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := file.SetCellValue(historySheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row+1, err)
			}
		}
	}

	buffer, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.logger.Info("History exported",
		"user_id", userID,
		"attempts", len(attempts))

	return buffer.Bytes(), nil
}
