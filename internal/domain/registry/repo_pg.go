package registry

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinic/exams/internal/platform/db"
)

// =========== Company Repository ===========

type companyRepoPG struct{ q db.Querier }

func NewCompanyRepoPG(q db.Querier) CompanyRepository { return &companyRepoPG{q: q} }

const companyCols = `id, name, cnpj, phone, address, created_at, updated_at`

func scanCompany(row pgx.Row) (*Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.Name, &c.CNPJ, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, db.Classify("scan company", err)
	}
	return &c, nil
}

func (r *companyRepoPG) Create(ctx context.Context, c *Company) error {
	c.ID = uuid.New()
	_, err := r.q.Exec(ctx, `
		INSERT INTO company (id, name, cnpj, phone, address)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Name, c.CNPJ, c.Phone, c.Address)
	return err
}

func (r *companyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Company, error) {
	return scanCompany(r.q.QueryRow(ctx, `SELECT `+companyCols+` FROM company WHERE id = $1`, id))
}

func (r *companyRepoPG) Update(ctx context.Context, c *Company) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE company SET name = $2, cnpj = $3, phone = $4, address = $5, updated_at = NOW()
		WHERE id = $1`,
		c.ID, c.Name, c.CNPJ, c.Phone, c.Address)
	return db.ExpectOne(tag, err, "company")
}

func (r *companyRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM company WHERE id = $1`, id)
	return db.ExpectOne(tag, err, "company")
}

func (r *companyRepoPG) List(ctx context.Context) ([]*Company, error) {
	rows, err := r.q.Query(ctx, `SELECT `+companyCols+` FROM company ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return db.Collect(rows, scanCompany)
}

// =========== Unit Repository ===========

type unitRepoPG struct{ q db.Querier }

func NewUnitRepoPG(q db.Querier) UnitRepository { return &unitRepoPG{q: q} }

const unitCols = `id, address, created_at, updated_at`

func scanUnit(row pgx.Row) (*Unit, error) {
	var u Unit
	if err := row.Scan(&u.ID, &u.Address, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, db.Classify("scan unit", err)
	}
	return &u, nil
}

func (r *unitRepoPG) Create(ctx context.Context, u *Unit) error {
	u.ID = uuid.New()
	_, err := r.q.Exec(ctx, `INSERT INTO unit (id, address) VALUES ($1, $2)`, u.ID, u.Address)
	return err
}

func (r *unitRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Unit, error) {
	return scanUnit(r.q.QueryRow(ctx, `SELECT `+unitCols+` FROM unit WHERE id = $1`, id))
}

func (r *unitRepoPG) Update(ctx context.Context, u *Unit) error {
	tag, err := r.q.Exec(ctx, `UPDATE unit SET address = $2, updated_at = NOW() WHERE id = $1`, u.ID, u.Address)
	return db.ExpectOne(tag, err, "unit")
}

func (r *unitRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM unit WHERE id = $1`, id)
	return db.ExpectOne(tag, err, "unit")
}

func (r *unitRepoPG) List(ctx context.Context) ([]*Unit, error) {
	rows, err := r.q.Query(ctx, `SELECT `+unitCols+` FROM unit ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return db.Collect(rows, scanUnit)
}

// =========== Professional Repository ===========

type professionalRepoPG struct{ q db.Querier }

func NewProfessionalRepoPG(q db.Querier) ProfessionalRepository { return &professionalRepoPG{q: q} }

const professionalCols = `id, name, specialty, created_at, updated_at`

func scanProfessional(row pgx.Row) (*Professional, error) {
	var p Professional
	if err := row.Scan(&p.ID, &p.Name, &p.Specialty, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, db.Classify("scan professional", err)
	}
	return &p, nil
}

func (r *professionalRepoPG) Create(ctx context.Context, p *Professional) error {
	p.ID = uuid.New()
	_, err := r.q.Exec(ctx, `INSERT INTO professional (id, name, specialty) VALUES ($1, $2, $3)`,
		p.ID, p.Name, p.Specialty)
	return err
}

func (r *professionalRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Professional, error) {
	return scanProfessional(r.q.QueryRow(ctx, `SELECT `+professionalCols+` FROM professional WHERE id = $1`, id))
}

func (r *professionalRepoPG) Update(ctx context.Context, p *Professional) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE professional SET name = $2, specialty = $3, updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.Specialty)
	return db.ExpectOne(tag, err, "professional")
}

func (r *professionalRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM professional WHERE id = $1`, id)
	return db.ExpectOne(tag, err, "professional")
}

func (r *professionalRepoPG) List(ctx context.Context) ([]*Professional, error) {
	rows, err := r.q.Query(ctx, `SELECT `+professionalCols+` FROM professional ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return db.Collect(rows, scanProfessional)
}
