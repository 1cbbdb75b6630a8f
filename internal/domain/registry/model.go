package registry

import (
	"time"

	"github.com/google/uuid"
)

// Company is an employer patients may be linked to.
type Company struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name" validate:"required,max=150"`
	CNPJ      *string   `db:"cnpj" json:"cnpj,omitempty" validate:"omitempty,max=18"`
	Phone     *string   `db:"phone" json:"phone,omitempty" validate:"omitempty,max=20"`
	Address   *string   `db:"address" json:"address,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Unit is a clinic site where exams take place.
type Unit struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Address   string    `db:"address" json:"address" validate:"required"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Professional struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name" validate:"required,max=150"`
	Specialty *string   `db:"specialty" json:"specialty,omitempty" validate:"omitempty,max=100"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
