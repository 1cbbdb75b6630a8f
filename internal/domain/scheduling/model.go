package scheduling

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Appointment is a scheduled exam for one patient at one unit.
type Appointment struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id" validate:"required"`
	ExamID         uuid.UUID  `db:"exam_id" json:"exam_id" validate:"required"`
	UnitID         uuid.UUID  `db:"unit_id" json:"unit_id" validate:"required"`
	ProfessionalID *uuid.UUID `db:"professional_id" json:"professional_id,omitempty"`
	ScheduledAt    time.Time  `db:"scheduled_at" json:"scheduled_at" validate:"required"`
	Status         Status     `db:"status" json:"status"`
	DocumentsOK    *bool      `db:"documents_ok" json:"documents_ok,omitempty"`
	RequirementsOK *bool      `db:"requirements_ok" json:"requirements_ok,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`

	// Display fields filled by list queries.
	PatientName      string  `db:"patient_name" json:"patient_name,omitempty"`
	ExamName         string  `db:"exam_name" json:"exam_name,omitempty"`
	UnitAddress      string  `db:"unit_address" json:"unit_address,omitempty"`
	ProfessionalName *string `db:"professional_name" json:"professional_name,omitempty"`
}

// Result holds the findings recorded for a completed appointment.
type Result struct {
	ID              uuid.UUID `db:"id" json:"id"`
	AppointmentID   uuid.UUID `db:"appointment_id" json:"appointment_id" validate:"required"`
	Findings        string    `db:"findings" json:"findings" validate:"required"`
	Recommendations *string   `db:"recommendations" json:"recommendations,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`

	ScheduledAt *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	PatientName string     `db:"patient_name" json:"patient_name,omitempty"`
	ExamName    string     `db:"exam_name" json:"exam_name,omitempty"`
}

// Availability declares that an exam can be performed at a unit on a date.
type Availability struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	ExamID    uuid.UUID   `db:"exam_id" json:"exam_id" validate:"required"`
	UnitID    uuid.UUID   `db:"unit_id" json:"unit_id" validate:"required"`
	Date      pgtype.Date `db:"date" json:"date"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`

	ExamName    string `db:"exam_name" json:"exam_name,omitempty"`
	UnitAddress string `db:"unit_address" json:"unit_address,omitempty"`
}
