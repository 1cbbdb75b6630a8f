package exam

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/clinic/exams/internal/platform/apperr"
	"github.com/clinic/exams/internal/platform/validation"
)

type Service struct {
	repo ExamRepository
}

func NewService(repo ExamRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateExam(ctx context.Context, e *Exam) error {
	if err := Validate(e); err != nil {
		return err
	}
	return s.repo.Create(ctx, e)
}

func (s *Service) GetExam(ctx context.Context, id uuid.UUID) (*Exam, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateExam(ctx context.Context, e *Exam) error {
	if err := Validate(e); err != nil {
		return err
	}
	return s.repo.Update(ctx, e)
}

func (s *Service) DeleteExam(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListExams(ctx context.Context) ([]*Exam, error) {
	return s.repo.List(ctx)
}

// Validate checks an exam before it reaches the store.
func Validate(e *Exam) error {
	e.Name = strings.TrimSpace(e.Name)
	if err := validation.Struct(e); err != nil {
		return err
	}
	if e.Details == nil {
		return apperr.Validation("type is required (LAB, IMAGING or CLINICAL)")
	}
	return validation.Struct(e.Details)
}
