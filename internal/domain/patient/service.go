package patient

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/exams/internal/platform/apperr"
	"github.com/clinic/exams/internal/platform/validation"
)

type Service struct {
	repo PatientRepository
	now  func() time.Time
}

func NewService(repo PatientRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if err := s.validate(p); err != nil {
		return err
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if err := s.validate(p); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

// DeletePatient removes the patient. A patient still referenced by an
// appointment is refused by the store with a constraint error.
func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context) ([]*Patient, error) {
	return s.repo.List(ctx)
}

func (s *Service) validate(p *Patient) error {
	p.Name = strings.TrimSpace(p.Name)
	p.CPF = strings.TrimSpace(p.CPF)
	if err := validation.Struct(p); err != nil {
		return err
	}
	if !p.BirthDate.Valid {
		return apperr.Validation("birth_date is required")
	}
	if p.BirthDate.Time.After(s.now()) {
		return apperr.Validation("birth_date cannot be in the future")
	}
	return nil
}
