package exam

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinic/exams/internal/platform/db"
)

type examRepoPG struct{ q db.Querier }

func NewExamRepoPG(q db.Querier) ExamRepository { return &examRepoPG{q: q} }

const examCols = `id, name, description, requirements, estimated_minutes, type,
	collection_minutes, dietary_restrictions, technology, special_prep, avg_consult_minutes, specialty,
	cleaning_interval_minutes, created_at, updated_at`

// detailColumns are the type-specific columns in the order detailValues
// fills them.
var detailColumns = []string{
	"collection_minutes", "dietary_restrictions",
	"technology", "special_prep",
	"avg_consult_minutes", "specialty",
}

func scanExam(row pgx.Row) (*Exam, error) {
	var (
		e        Exam
		t        Type
		lab      LabDetails
		imaging  ImagingDetails
		clinical ClinicalDetails
		cleaning int
	)
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Requirements, &e.EstimatedMinutes, &t,
		&lab.CollectionMinutes, &lab.DietaryRestrictions,
		&imaging.Technology, &imaging.SpecialPrep,
		&clinical.AvgConsultMinutes, &clinical.Specialty,
		&cleaning, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, db.Classify("scan exam", err)
	}
	e.CleaningIntervalMinutes = &cleaning

	switch t {
	case TypeLab:
		e.Details = lab
	case TypeImaging:
		e.Details = imaging
	case TypeClinical:
		e.Details = clinical
	default:
		return nil, fmt.Errorf("scan exam: unknown type %q", t)
	}
	return &e, nil
}

// insertColumns returns the columns and values of an INSERT for e. Only
// details that are set and a set cleaning interval are included, so
// anything omitted takes the column default.
func insertColumns(e *Exam) ([]string, []interface{}) {
	cols := []string{"id", "name", "description", "requirements", "estimated_minutes", "type"}
	args := []interface{}{e.ID, e.Name, e.Description, e.Requirements, e.EstimatedMinutes, string(e.Type())}

	switch d := e.Details.(type) {
	case LabDetails:
		cols, args = appendSet(cols, args, "collection_minutes", d.CollectionMinutes)
		cols, args = appendSet(cols, args, "dietary_restrictions", d.DietaryRestrictions)
	case ImagingDetails:
		cols, args = appendSet(cols, args, "technology", d.Technology)
		cols, args = appendSet(cols, args, "special_prep", d.SpecialPrep)
	case ClinicalDetails:
		cols, args = appendSet(cols, args, "avg_consult_minutes", d.AvgConsultMinutes)
		cols, args = appendSet(cols, args, "specialty", d.Specialty)
	}
	cols, args = appendSet(cols, args, "cleaning_interval_minutes", e.CleaningIntervalMinutes)
	return cols, args
}

func appendSet[T any](cols []string, args []interface{}, col string, v *T) ([]string, []interface{}) {
	if v == nil {
		return cols, args
	}
	return append(cols, col), append(args, *v)
}

// detailValues returns one value per detailColumns entry. Columns owned by
// other variants come back nil so an update clears them.
func detailValues(d Details) []interface{} {
	vals := make([]interface{}, len(detailColumns))
	switch v := d.(type) {
	case LabDetails:
		vals[0], vals[1] = v.CollectionMinutes, v.DietaryRestrictions
	case ImagingDetails:
		vals[2], vals[3] = v.Technology, v.SpecialPrep
	case ClinicalDetails:
		vals[4], vals[5] = v.AvgConsultMinutes, v.Specialty
	}
	return vals
}

func placeholders(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(ps, ", ")
}

func (r *examRepoPG) Create(ctx context.Context, e *Exam) error {
	e.ID = uuid.New()
	cols, args := insertColumns(e)
	sql := fmt.Sprintf("INSERT INTO exam (%s) VALUES (%s)", strings.Join(cols, ", "), placeholders(1, len(cols)))
	_, err := r.q.Exec(ctx, sql, args...)
	return err
}

func (r *examRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Exam, error) {
	return scanExam(r.q.QueryRow(ctx, `SELECT `+examCols+` FROM exam WHERE id = $1`, id))
}

func (r *examRepoPG) Update(ctx context.Context, e *Exam) error {
	sets := []string{
		"name = $2", "description = $3", "requirements = $4", "estimated_minutes = $5", "type = $6",
		"cleaning_interval_minutes = COALESCE($7, cleaning_interval_minutes)",
	}
	args := []interface{}{e.ID, e.Name, e.Description, e.Requirements, e.EstimatedMinutes, string(e.Type()), e.CleaningIntervalMinutes}
	details := detailValues(e.Details)
	for i, col := range detailColumns {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)+1))
		args = append(args, details[i])
	}
	sets = append(sets, "updated_at = NOW()")

	tag, err := r.q.Exec(ctx, "UPDATE exam SET "+strings.Join(sets, ", ")+" WHERE id = $1", args...)
	return db.ExpectOne(tag, err, "exam")
}

func (r *examRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM exam WHERE id = $1`, id)
	return db.ExpectOne(tag, err, "exam")
}

func (r *examRepoPG) List(ctx context.Context) ([]*Exam, error) {
	rows, err := r.q.Query(ctx, `SELECT `+examCols+` FROM exam ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	return db.Collect(rows, scanExam)
}
