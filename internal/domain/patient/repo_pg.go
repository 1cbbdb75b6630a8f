package patient

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinic/exams/internal/platform/db"
)

type patientRepoPG struct{ q db.Querier }

func NewPatientRepoPG(q db.Querier) PatientRepository { return &patientRepoPG{q: q} }

const patientCols = `p.id, p.name, p.address, p.phone, p.cpf, p.birth_date, p.company_id, c.name,
	p.created_at, p.updated_at`

const patientFrom = ` FROM patient p LEFT JOIN company c ON c.id = p.company_id`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Address, &p.Phone, &p.CPF, &p.BirthDate, &p.CompanyID, &p.CompanyName,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, db.Classify("scan patient", err)
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.q.Exec(ctx, `
		INSERT INTO patient (id, name, address, phone, cpf, birth_date, company_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Name, p.Address, p.Phone, p.CPF, p.BirthDate, p.CompanyID)
	return err
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.q.QueryRow(ctx, `SELECT `+patientCols+patientFrom+` WHERE p.id = $1`, id))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE patient SET name = $2, address = $3, phone = $4, cpf = $5, birth_date = $6,
			company_id = $7, updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.Address, p.Phone, p.CPF, p.BirthDate, p.CompanyID)
	return db.ExpectOne(tag, err, "patient")
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	return db.ExpectOne(tag, err, "patient")
}

func (r *patientRepoPG) List(ctx context.Context) ([]*Patient, error) {
	rows, err := r.q.Query(ctx, `SELECT `+patientCols+patientFrom+` ORDER BY p.name, p.id`)
	if err != nil {
		return nil, err
	}
	return db.Collect(rows, scanPatient)
}
