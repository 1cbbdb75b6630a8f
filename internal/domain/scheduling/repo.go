package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Appointment, error)
	// ListBetween returns appointments whose date falls in [from, to].
	ListBetween(ctx context.Context, from, to time.Time) ([]*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, change StatusChange) error
	ListCompletedWithoutResult(ctx context.Context) ([]*Appointment, error)
}

type ResultRepository interface {
	Create(ctx context.Context, r *Result) error
	GetByID(ctx context.Context, id uuid.UUID) (*Result, error)
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Result, error)
	Update(ctx context.Context, r *Result) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Result, error)
}

type AvailabilityRepository interface {
	Create(ctx context.Context, a *Availability) error
	// CreateBatch stores every record or none.
	CreateBatch(ctx context.Context, items []*Availability) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Availability, error)
}
