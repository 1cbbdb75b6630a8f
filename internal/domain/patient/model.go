package patient

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Patient is a person exams are scheduled for. CPF is the national ID and
// is unique across patients.
type Patient struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	Name        string      `db:"name" json:"name" validate:"required,max=150"`
	Address     *string     `db:"address" json:"address,omitempty"`
	Phone       *string     `db:"phone" json:"phone,omitempty" validate:"omitempty,max=20"`
	CPF         string      `db:"cpf" json:"cpf" validate:"required,max=14"`
	BirthDate   pgtype.Date `db:"birth_date" json:"birth_date"`
	CompanyID   *uuid.UUID  `db:"company_id" json:"company_id,omitempty"`
	CompanyName *string     `db:"company_name" json:"company_name,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// NewBirthDate parses a YYYY-MM-DD date.
func NewBirthDate(s string) (pgtype.Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return pgtype.Date{}, err
	}
	return pgtype.Date{Time: t, Valid: true}, nil
}
