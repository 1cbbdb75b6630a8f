package scheduling

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/exams/internal/platform/apperr"
	"github.com/clinic/exams/internal/platform/validation"
)

type Service struct {
	appointments AppointmentRepository
	results      ResultRepository
	availability AvailabilityRepository
}

func NewService(appt AppointmentRepository, res ResultRepository, avail AvailabilityRepository) *Service {
	return &Service{appointments: appt, results: res, availability: avail}
}

// -- Appointment --

func validateBooking(a *Appointment) error {
	return validation.Struct(a)
}

// ScheduleAppointment books a new appointment. Every appointment starts
// as SCHEDULED regardless of what the caller passed.
func (s *Service) ScheduleAppointment(ctx context.Context, a *Appointment) error {
	if err := validateBooking(a); err != nil {
		return err
	}
	a.Status = StatusScheduled
	a.DocumentsOK, a.RequirementsOK = nil, nil
	return s.appointments.Create(ctx, a)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

// UpdateAppointment reschedules a booking that is still SCHEDULED.
func (s *Service) UpdateAppointment(ctx context.Context, a *Appointment) error {
	if err := validateBooking(a); err != nil {
		return err
	}
	current, err := s.appointments.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	if current.Status != StatusScheduled {
		return apperr.Validation("appointment is %s and can no longer be changed", current.Status)
	}
	return s.appointments.Update(ctx, a)
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	return s.appointments.Delete(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context) ([]*Appointment, error) {
	return s.appointments.List(ctx)
}

// ListAppointmentsBetween returns appointments dated from..to, both days
// included.
func (s *Service) ListAppointmentsBetween(ctx context.Context, from, to time.Time) ([]*Appointment, error) {
	if to.Before(from) {
		return nil, apperr.Validation("end date %s is before start date %s", to.Format(time.DateOnly), from.Format(time.DateOnly))
	}
	return s.appointments.ListBetween(ctx, from, to)
}

// UpdateStatus applies change to the appointment and returns its new
// state. Completing requires both verification flags to be true.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, change StatusChange) (*Appointment, error) {
	current, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckTransition(current.Status, change); err != nil {
		return nil, err
	}
	if err := s.appointments.UpdateStatus(ctx, id, change); err != nil {
		return nil, err
	}
	return s.appointments.GetByID(ctx, id)
}

// Cancel moves the appointment to CANCELLED. An appointment that is
// already cancelled is returned unchanged.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	current, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == StatusCancelled {
		return current, nil
	}
	return s.UpdateStatus(ctx, id, StatusChange{Status: StatusCancelled})
}

// ListCompletedWithoutResult returns the appointments a result can be
// recorded for.
func (s *Service) ListCompletedWithoutResult(ctx context.Context) ([]*Appointment, error) {
	return s.appointments.ListCompletedWithoutResult(ctx)
}

// -- Result --

// CreateResult records findings for an appointment that is COMPLETED and
// has no result yet.
func (s *Service) CreateResult(ctx context.Context, r *Result) error {
	r.Findings = strings.TrimSpace(r.Findings)
	if err := validation.Struct(r); err != nil {
		return err
	}

	appt, err := s.appointments.GetByID(ctx, r.AppointmentID)
	if err != nil {
		return err
	}
	if appt.Status != StatusCompleted {
		return apperr.Validation("appointment is %s; results need a COMPLETED appointment", appt.Status)
	}
	existing, err := s.results.GetByAppointment(ctx, r.AppointmentID)
	switch {
	case err == nil && existing != nil:
		return apperr.Validation("appointment already has a result")
	case err != nil && !apperr.Is(err, apperr.KindNotFound):
		return err
	}
	return s.results.Create(ctx, r)
}

func (s *Service) GetResult(ctx context.Context, id uuid.UUID) (*Result, error) {
	return s.results.GetByID(ctx, id)
}

func (s *Service) UpdateResult(ctx context.Context, r *Result) error {
	r.Findings = strings.TrimSpace(r.Findings)
	if r.Findings == "" {
		return apperr.Validation("findings is required")
	}
	return s.results.Update(ctx, r)
}

func (s *Service) DeleteResult(ctx context.Context, id uuid.UUID) error {
	return s.results.Delete(ctx, id)
}

func (s *Service) ListResults(ctx context.Context) ([]*Result, error) {
	return s.results.List(ctx)
}

// -- Availability --

func validateAvailability(a *Availability) error {
	if err := validation.Struct(a); err != nil {
		return err
	}
	if !a.Date.Valid {
		return apperr.Validation("date is required")
	}
	return nil
}

func (s *Service) CreateAvailability(ctx context.Context, a *Availability) error {
	if err := validateAvailability(a); err != nil {
		return err
	}
	return s.availability.Create(ctx, a)
}

// CreateAvailabilityBatch stores all records or, on any failure, none.
func (s *Service) CreateAvailabilityBatch(ctx context.Context, items []*Availability) error {
	for i, a := range items {
		if err := validateAvailability(a); err != nil {
			return apperr.Validation("item %d: %s", i, err.Error())
		}
	}
	if len(items) == 0 {
		return nil
	}
	return s.availability.CreateBatch(ctx, items)
}

func (s *Service) DeleteAvailability(ctx context.Context, id uuid.UUID) error {
	return s.availability.Delete(ctx, id)
}

func (s *Service) ListAvailability(ctx context.Context) ([]*Availability, error) {
	return s.availability.List(ctx)
}
