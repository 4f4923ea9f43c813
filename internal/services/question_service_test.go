package services

import (
	"context"
	"errors"
	"testing"

	"github.com/SAP-F-2025/placement-service/internal/models"
	"github.com/SAP-F-2025/placement-service/internal/validator"
)

func newQuestionFixture() (*mockRepository, QuestionService) {
	repo := newMockRepository()
	repo.users.roles["admin-1"] = models.RoleAdmin
	repo.users.roles["student-1"] = models.RoleStudent
	service := NewQuestionService(repo, nil, testLogger(), validator.New())
	return repo, service
}

func TestQuestionCreateRequiresAdmin(t *testing.T) {
	_, service := newQuestionFixture()

	req := &CreateQuestionRequest{
		Level: 1, Type: models.TrueFalse, Text: "2+2=4?", CorrectAnswer: "true", Points: 10,
	}

	var permErr *PermissionError
	if _, err := service.Create(context.Background(), req, "student-1"); !errors.As(err, &permErr) {
		t.Errorf("Create() as student error = %v, want PermissionError", err)
	}

	created, err := service.Create(context.Background(), req, "admin-1")
	if err != nil {
		t.Fatalf("Create() as admin error = %v", err)
	}
	if created.ID == 0 {
		t.Error("expected assigned id")
	}
}

func TestQuestionCreateValidation(t *testing.T) {
	_, service := newQuestionFixture()

	cases := []struct {
		name string
		req  *CreateQuestionRequest
	}{
		{"level out of range", &CreateQuestionRequest{Level: 13, Type: models.TrueFalse, Text: "t", CorrectAnswer: "true", Points: 10}},
		{"bad type", &CreateQuestionRequest{Level: 1, Type: "matching", Text: "t", CorrectAnswer: "a", Points: 10}},
		{"missing answer", &CreateQuestionRequest{Level: 1, Type: models.TrueFalse, Text: "t", Points: 10}},
		{"zero points", &CreateQuestionRequest{Level: 1, Type: models.TrueFalse, Text: "t", CorrectAnswer: "true", Points: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := service.Create(context.Background(), tc.req, "admin-1"); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestQuestionCreateBatch(t *testing.T) {
	repo, service := newQuestionFixture()

	reqs := []*CreateQuestionRequest{
		{Level: 2, Type: models.TrueFalse, Text: "q1", CorrectAnswer: "true", Points: 10, Order: 1},
		{Level: 2, Type: models.MultipleChoice, Text: "q2", CorrectAnswer: "b", Points: 10, Order: 2},
	}
	created, err := service.CreateBatch(context.Background(), reqs, "admin-1")
	if err != nil {
		t.Fatalf("CreateBatch() error = %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created = %d, want 2", len(created))
	}

	count, _ := repo.questions.CountByLevel(context.Background(), nil, 2)
	if count != 2 {
		t.Errorf("pool count = %d, want 2", count)
	}

	if _, err := service.CreateBatch(context.Background(), nil, "admin-1"); err == nil {
		t.Error("empty batch should fail")
	}
}

func TestQuestionDelete(t *testing.T) {
	_, service := newQuestionFixture()
	ctx := context.Background()

	req := &CreateQuestionRequest{Level: 1, Type: models.TrueFalse, Text: "t", CorrectAnswer: "true", Points: 10}
	created, err := service.Create(ctx, req, "admin-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := service.Delete(ctx, created.ID, "admin-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := service.Delete(ctx, created.ID, "admin-1"); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("second Delete() error = %v, want ErrQuestionNotFound", err)
	}
}
