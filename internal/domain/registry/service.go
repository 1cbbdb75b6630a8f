package registry

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/clinic/exams/internal/platform/validation"
)

type Service struct {
	companies     CompanyRepository
	units         UnitRepository
	professionals ProfessionalRepository
}

func NewService(companies CompanyRepository, units UnitRepository, professionals ProfessionalRepository) *Service {
	return &Service{companies: companies, units: units, professionals: professionals}
}

// -- Company --

func (s *Service) CreateCompany(ctx context.Context, c *Company) error {
	if err := validateCompany(c); err != nil {
		return err
	}
	return s.companies.Create(ctx, c)
}

func (s *Service) GetCompany(ctx context.Context, id uuid.UUID) (*Company, error) {
	return s.companies.GetByID(ctx, id)
}

func (s *Service) UpdateCompany(ctx context.Context, c *Company) error {
	if err := validateCompany(c); err != nil {
		return err
	}
	return s.companies.Update(ctx, c)
}

func (s *Service) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	return s.companies.Delete(ctx, id)
}

func (s *Service) ListCompanies(ctx context.Context) ([]*Company, error) {
	return s.companies.List(ctx)
}

func validateCompany(c *Company) error {
	c.Name = strings.TrimSpace(c.Name)
	return validation.Struct(c)
}

// -- Unit --

func (s *Service) CreateUnit(ctx context.Context, u *Unit) error {
	if err := validateUnit(u); err != nil {
		return err
	}
	return s.units.Create(ctx, u)
}

func (s *Service) GetUnit(ctx context.Context, id uuid.UUID) (*Unit, error) {
	return s.units.GetByID(ctx, id)
}

func (s *Service) UpdateUnit(ctx context.Context, u *Unit) error {
	if err := validateUnit(u); err != nil {
		return err
	}
	return s.units.Update(ctx, u)
}

func (s *Service) DeleteUnit(ctx context.Context, id uuid.UUID) error {
	return s.units.Delete(ctx, id)
}

func (s *Service) ListUnits(ctx context.Context) ([]*Unit, error) {
	return s.units.List(ctx)
}

func validateUnit(u *Unit) error {
	u.Address = strings.TrimSpace(u.Address)
	return validation.Struct(u)
}

// -- Professional --

func (s *Service) CreateProfessional(ctx context.Context, p *Professional) error {
	if err := validateProfessional(p); err != nil {
		return err
	}
	return s.professionals.Create(ctx, p)
}

func (s *Service) GetProfessional(ctx context.Context, id uuid.UUID) (*Professional, error) {
	return s.professionals.GetByID(ctx, id)
}

func (s *Service) UpdateProfessional(ctx context.Context, p *Professional) error {
	if err := validateProfessional(p); err != nil {
		return err
	}
	return s.professionals.Update(ctx, p)
}

func (s *Service) DeleteProfessional(ctx context.Context, id uuid.UUID) error {
	return s.professionals.Delete(ctx, id)
}

func (s *Service) ListProfessionals(ctx context.Context) ([]*Professional, error) {
	return s.professionals.List(ctx)
}

func validateProfessional(p *Professional) error {
	p.Name = strings.TrimSpace(p.Name)
	return validation.Struct(p)
}
