package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/placement-service/internal/catalog"
	"github.com/SAP-F-2025/placement-service/internal/models"
	"github.com/SAP-F-2025/placement-service/internal/repositories"
	"github.com/SAP-F-2025/placement-service/internal/validator"
)

type questionService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuestionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) QuestionService {
	return &questionService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ===== POOL MANAGEMENT (ADMIN) =====

func (s *questionService) Create(ctx context.Context, req *CreateQuestionRequest, userID string) (*models.LevelQuestion, error) {
	if err := s.requireAdmin(ctx, userID, "create"); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	question := toQuestionModel(req)
	if err := s.repo.Question().Create(ctx, s.db, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question created",
		"question_id", question.ID,
		"level", question.Level,
		"created_by", userID)

	return question, nil
}

func (s *questionService) CreateBatch(ctx context.Context, reqs []*CreateQuestionRequest, userID string) ([]*models.LevelQuestion, error) {
	if err := s.requireAdmin(ctx, userID, "create"); err != nil {
		return nil, err
	}

	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: no questions provided", ErrValidationFailed)
	}

	questions := make([]*models.LevelQuestion, 0, len(reqs))
	for i, req := range reqs {
		if err := s.validator.Validate(req); err != nil {
			return nil, fmt.Errorf("question %d: %w: %v", i+1, ErrValidationFailed, err)
		}
		questions = append(questions, toQuestionModel(req))
	}

	if err := s.repo.Question().CreateBatch(ctx, s.db, questions); err != nil {
		return nil, fmt.Errorf("failed to create questions: %w", err)
	}

	s.logger.Info("Question batch created",
		"count", len(questions),
		"created_by", userID)

	return questions, nil
}

func (s *questionService) Delete(ctx context.Context, id uint, userID string) error {
	if err := s.requireAdmin(ctx, userID, "delete"); err != nil {
		return err
	}

	question, err := s.repo.Question().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}

	if err := s.repo.Question().Delete(ctx, s.db, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	s.logger.Info("Question deleted",
		"question_id", id,
		"level", question.Level,
		"deleted_by", userID)

	return nil
}

func (s *questionService) GetByLevel(ctx context.Context, level int, userID string) ([]*models.LevelQuestion, error) {
	if err := s.requireAdmin(ctx, userID, "read"); err != nil {
		return nil, err
	}

	if _, err := catalog.Level(level); err != nil {
		return nil, ErrLevelNotFound
	}

	questions, err := s.repo.Question().GetByLevel(ctx, s.db, level)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	return questions, nil
}

// ===== HELPERS =====

func (s *questionService) requireAdmin(ctx context.Context, userID, action string) error {
	isAdmin, err := s.repo.User().HasRole(ctx, userID, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to check role: %w", err)
	}
	if !isAdmin {
		return NewPermissionError(userID, "question", action, "admin role required")
	}
	return nil
}

func toQuestionModel(req *CreateQuestionRequest) *models.LevelQuestion {
	return &models.LevelQuestion{
		Level:         req.Level,
		Type:          req.Type,
		Text:          req.Text,
		CorrectAnswer: req.CorrectAnswer,
		Points:        req.Points,
		Order:         req.Order,
	}
}
