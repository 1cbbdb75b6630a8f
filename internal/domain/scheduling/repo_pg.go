package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinic/exams/internal/platform/db"
)

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ q db.Querier }

func NewAppointmentRepoPG(q db.Querier) AppointmentRepository { return &appointmentRepoPG{q: q} }

const appointmentCols = `a.id, a.patient_id, a.exam_id, a.unit_id, a.professional_id, a.scheduled_at, a.status,
	a.documents_ok, a.requirements_ok, a.created_at, a.updated_at,
	p.name, e.name, u.address, pr.name`

const appointmentFrom = ` FROM appointment a
	JOIN patient p ON p.id = a.patient_id
	JOIN exam e ON e.id = a.exam_id
	JOIN unit u ON u.id = a.unit_id
	LEFT JOIN professional pr ON pr.id = a.professional_id`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.ExamID, &a.UnitID, &a.ProfessionalID, &a.ScheduledAt, &a.Status,
		&a.DocumentsOK, &a.RequirementsOK, &a.CreatedAt, &a.UpdatedAt,
		&a.PatientName, &a.ExamName, &a.UnitAddress, &a.ProfessionalName)
	if err != nil {
		return nil, db.Classify("scan appointment", err)
	}
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.Status = StatusScheduled
	_, err := r.q.Exec(ctx, `
		INSERT INTO appointment (id, patient_id, exam_id, unit_id, professional_id, scheduled_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.PatientID, a.ExamID, a.UnitID, a.ProfessionalID, a.ScheduledAt, string(a.Status))
	return err
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.q.QueryRow(ctx, `SELECT `+appointmentCols+appointmentFrom+` WHERE a.id = $1`, id))
}

// Update rewrites what was booked. Status and verification flags only
// change through UpdateStatus.
func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE appointment SET patient_id = $2, exam_id = $3, unit_id = $4, professional_id = $5,
			scheduled_at = $6, updated_at = NOW()
		WHERE id = $1`,
		a.ID, a.PatientID, a.ExamID, a.UnitID, a.ProfessionalID, a.ScheduledAt)
	return db.ExpectOne(tag, err, "appointment")
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM appointment WHERE id = $1`, id)
	return db.ExpectOne(tag, err, "appointment")
}

func (r *appointmentRepoPG) List(ctx context.Context) ([]*Appointment, error) {
	rows, err := r.q.Query(ctx, `SELECT `+appointmentCols+appointmentFrom+` ORDER BY a.scheduled_at, a.id`)
	if err != nil {
		return nil, err
	}
	return db.Collect(rows, scanAppointment)
}

func (r *appointmentRepoPG) ListBetween(ctx context.Context, from, to time.Time) ([]*Appointment, error) {
	rows, err := r.q.Query(ctx, `SELECT `+appointmentCols+appointmentFrom+`
		WHERE a.scheduled_at::date BETWEEN $1::date AND $2::date
		ORDER BY a.scheduled_at, a.id`, from, to)
	if err != nil {
		return nil, err
	}
	return db.Collect(rows, scanAppointment)
}

// statusUpdate builds the UPDATE for change, writing only the flags that
// were supplied.
func statusUpdate(id uuid.UUID, change StatusChange) (string, []interface{}) {
	sets := []string{"status = $2"}
	args := []interface{}{id, string(change.Status)}
	if change.DocumentsOK != nil {
		args = append(args, *change.DocumentsOK)
		sets = append(sets, fmt.Sprintf("documents_ok = $%d", len(args)))
	}
	if change.RequirementsOK != nil {
		args = append(args, *change.RequirementsOK)
		sets = append(sets, fmt.Sprintf("requirements_ok = $%d", len(args)))
	}
	sets = append(sets, "updated_at = NOW()")
	return "UPDATE appointment SET " + strings.Join(sets, ", ") + " WHERE id = $1", args
}

func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, change StatusChange) error {
	sql, args := statusUpdate(id, change)
	tag, err := r.q.Exec(ctx, sql, args...)
	return db.ExpectOne(tag, err, "appointment")
}

func (r *appointmentRepoPG) ListCompletedWithoutResult(ctx context.Context) ([]*Appointment, error) {
	rows, err := r.q.Query(ctx, `SELECT `+appointmentCols+appointmentFrom+`
		WHERE a.status = 'COMPLETED'
		  AND NOT EXISTS (SELECT 1 FROM result r WHERE r.appointment_id = a.id)
		ORDER BY a.scheduled_at, a.id`)
	if err != nil {
		return nil, err
	}
	return db.Collect(rows, scanAppointment)
}

// =========== Result Repository ===========

type resultRepoPG struct{ q db.Querier }

func NewResultRepoPG(q db.Querier) ResultRepository { return &resultRepoPG{q: q} }

const resultCols = `r.id, r.appointment_id, r.findings, r.recommendations, r.created_at,
	a.scheduled_at, p.name, e.name`

const resultFrom = ` FROM result r
	JOIN appointment a ON a.id = r.appointment_id
	JOIN patient p ON p.id = a.patient_id
	JOIN exam e ON e.id = a.exam_id`

func scanResult(row pgx.Row) (*Result, error) {
	var res Result
	err := row.Scan(&res.ID, &res.AppointmentID, &res.Findings, &res.Recommendations, &res.CreatedAt,
		&res.ScheduledAt, &res.PatientName, &res.ExamName)
	if err != nil {
		return nil, db.Classify("scan result", err)
	}
	return &res, nil
}

func (r *resultRepoPG) Create(ctx context.Context, res *Result) error {
	res.ID = uuid.New()
	_, err := r.q.Exec(ctx, `
		INSERT INTO result (id, appointment_id, findings, recommendations)
		VALUES ($1, $2, $3, $4)`,
		res.ID, res.AppointmentID, res.Findings, res.Recommendations)
	return err
}

func (r *resultRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Result, error) {
	return scanResult(r.q.QueryRow(ctx, `SELECT `+resultCols+resultFrom+` WHERE r.id = $1`, id))
}

func (r *resultRepoPG) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Result, error) {
	return scanResult(r.q.QueryRow(ctx, `SELECT `+resultCols+resultFrom+` WHERE r.appointment_id = $1`, appointmentID))
}

func (r *resultRepoPG) Update(ctx context.Context, res *Result) error {
	tag, err := r.q.Exec(ctx, `UPDATE result SET findings = $2, recommendations = $3 WHERE id = $1`,
		res.ID, res.Findings, res.Recommendations)
	return db.ExpectOne(tag, err, "result")
}

func (r *resultRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM result WHERE id = $1`, id)
	return db.ExpectOne(tag, err, "result")
}

func (r *resultRepoPG) List(ctx context.Context) ([]*Result, error) {
	rows, err := r.q.Query(ctx, `SELECT `+resultCols+resultFrom+` ORDER BY a.scheduled_at DESC, r.id`)
	if err != nil {
		return nil, err
	}
	return db.Collect(rows, scanResult)
}

// =========== Availability Repository ===========

type availabilityRepoPG struct{ q db.BatchQuerier }

func NewAvailabilityRepoPG(q db.BatchQuerier) AvailabilityRepository {
	return &availabilityRepoPG{q: q}
}

const availabilityCols = `v.id, v.exam_id, v.unit_id, v.date, v.created_at, e.name, u.address`

const availabilityInsert = `INSERT INTO availability (id, exam_id, unit_id, date) VALUES ($1, $2, $3, $4)`

func scanAvailability(row pgx.Row) (*Availability, error) {
	var a Availability
	err := row.Scan(&a.ID, &a.ExamID, &a.UnitID, &a.Date, &a.CreatedAt, &a.ExamName, &a.UnitAddress)
	if err != nil {
		return nil, db.Classify("scan availability", err)
	}
	return &a, nil
}

func (r *availabilityRepoPG) Create(ctx context.Context, a *Availability) error {
	a.ID = uuid.New()
	_, err := r.q.Exec(ctx, availabilityInsert, a.ID, a.ExamID, a.UnitID, a.Date)
	return err
}

func (r *availabilityRepoPG) CreateBatch(ctx context.Context, items []*Availability) error {
	rows := make([][]interface{}, 0, len(items))
	ids := make([]uuid.UUID, len(items))
	for i, a := range items {
		ids[i] = uuid.New()
		rows = append(rows, []interface{}{ids[i], a.ExamID, a.UnitID, a.Date})
	}
	if err := r.q.ExecMany(ctx, availabilityInsert, rows); err != nil {
		return err
	}
	for i, a := range items {
		a.ID = ids[i]
	}
	return nil
}

func (r *availabilityRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM availability WHERE id = $1`, id)
	return db.ExpectOne(tag, err, "availability")
}

func (r *availabilityRepoPG) List(ctx context.Context) ([]*Availability, error) {
	rows, err := r.q.Query(ctx, `SELECT `+availabilityCols+`
		FROM availability v
		JOIN exam e ON e.id = v.exam_id
		JOIN unit u ON u.id = v.unit_id
		ORDER BY v.date, e.name`)
	if err != nil {
		return nil, err
	}
	return db.Collect(rows, scanAvailability)
}
