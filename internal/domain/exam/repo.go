package exam

import (
	"context"

	"github.com/google/uuid"
)

type ExamRepository interface {
	Create(ctx context.Context, e *Exam) error
	GetByID(ctx context.Context, id uuid.UUID) (*Exam, error)
	Update(ctx context.Context, e *Exam) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Exam, error)
}
