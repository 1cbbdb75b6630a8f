package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/exams/internal/platform/apperr"
	"github.com/clinic/exams/internal/platform/db"
)

// MeasureDefinition names a read-only report and the query behind it.
type MeasureDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SQL         string `json:"-"`
}

const (
	MeasureUpcoming       = "upcoming"
	MeasureByProfessional = "by-professional"
	MeasureByCompany      = "by-company"
)

// PredefinedMeasures is the list of available reports. Priority labels in
// the upcoming report come from the upcoming_exams view.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          MeasureUpcoming,
		Name:        "Upcoming Exams",
		Description: "Scheduled exams from now on, nearest first, labelled URGENT, SOON or FUTURE",
		SQL: `SELECT appointment_id, priority, patient, exam, unit, scheduled_at
			FROM upcoming_exams ORDER BY scheduled_at`,
	},
	{
		ID:          MeasureByProfessional,
		Name:        "Appointments by Professional",
		Description: "Appointment count per professional and exam, busiest first",
		SQL: `SELECT pr.name AS professional, e.name AS exam, COUNT(a.id) AS total
			FROM appointment a
			JOIN professional pr ON pr.id = a.professional_id
			JOIN exam e ON e.id = a.exam_id
			GROUP BY pr.name, e.name
			ORDER BY total DESC, pr.name, e.name`,
	},
	{
		ID:          MeasureByCompany,
		Name:        "Patients by Company",
		Description: "Patients linked to an employer, grouped by company",
		SQL: `SELECT c.name AS company, p.name AS patient, p.cpf, p.birth_date
			FROM patient p
			JOIN company c ON c.id = p.company_id
			ORDER BY c.name, p.name`,
	},
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}

type UpcomingExam struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Priority      string    `json:"priority"`
	Patient       string    `json:"patient"`
	Exam          string    `json:"exam"`
	Unit          string    `json:"unit"`
	ScheduledAt   time.Time `json:"scheduled_at"`
}

type ProfessionalLoad struct {
	Professional string `json:"professional"`
	Exam         string `json:"exam"`
	Total        int64  `json:"total"`
}

type CompanyPatient struct {
	Company   string    `json:"company"`
	Patient   string    `json:"patient"`
	CPF       string    `json:"cpf"`
	BirthDate time.Time `json:"birth_date"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	MeasureID   string      `json:"measure_id"`
	MeasureName string      `json:"measure_name"`
	GeneratedAt time.Time   `json:"generated_at"`
	Results     interface{} `json:"results"`
}

// Fetcher runs a query and returns its rows keyed by column name.
type Fetcher interface {
	Fetch(ctx context.Context, sql string, args ...interface{}) ([]db.Row, error)
}

type Service struct {
	db  Fetcher
	now func() time.Time
}

func NewService(f Fetcher) *Service {
	return &Service{db: f, now: time.Now}
}

func (s *Service) Upcoming(ctx context.Context) ([]UpcomingExam, error) {
	rows, err := s.db.Fetch(ctx, FindMeasure(MeasureUpcoming).SQL)
	if err != nil {
		return nil, err
	}
	out := make([]UpcomingExam, 0, len(rows))
	for _, r := range rows {
		var u UpcomingExam
		if err := scanRow(r,
			col("appointment_id", &u.AppointmentID), col("priority", &u.Priority),
			col("patient", &u.Patient), col("exam", &u.Exam), col("unit", &u.Unit),
			col("scheduled_at", &u.ScheduledAt)); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *Service) ByProfessional(ctx context.Context) ([]ProfessionalLoad, error) {
	rows, err := s.db.Fetch(ctx, FindMeasure(MeasureByProfessional).SQL)
	if err != nil {
		return nil, err
	}
	out := make([]ProfessionalLoad, 0, len(rows))
	for _, r := range rows {
		var p ProfessionalLoad
		if err := scanRow(r, col("professional", &p.Professional), col("exam", &p.Exam), col("total", &p.Total)); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Service) ByCompany(ctx context.Context) ([]CompanyPatient, error) {
	rows, err := s.db.Fetch(ctx, FindMeasure(MeasureByCompany).SQL)
	if err != nil {
		return nil, err
	}
	out := make([]CompanyPatient, 0, len(rows))
	for _, r := range rows {
		var c CompanyPatient
		if err := scanRow(r,
			col("company", &c.Company), col("patient", &c.Patient),
			col("cpf", &c.CPF), col("birth_date", &c.BirthDate)); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Evaluate runs the measure with the given ID.
func (s *Service) Evaluate(ctx context.Context, id string) (*MeasureReport, error) {
	m := FindMeasure(id)
	if m == nil {
		return nil, apperr.NotFound("measure %q not found", id)
	}

	var (
		results interface{}
		err     error
	)
	switch id {
	case MeasureUpcoming:
		results, err = s.Upcoming(ctx)
	case MeasureByProfessional:
		results, err = s.ByProfessional(ctx)
	case MeasureByCompany:
		results, err = s.ByCompany(ctx)
	}
	if err != nil {
		return nil, err
	}
	return &MeasureReport{
		MeasureID:   m.ID,
		MeasureName: m.Name,
		GeneratedAt: s.now(),
		Results:     results,
	}, nil
}

type column struct {
	name string
	dest interface{}
}

func col(name string, dest interface{}) column { return column{name: name, dest: dest} }

// scanRow copies the named values of r into typed destinations.
func scanRow(r db.Row, cols ...column) error {
	for _, c := range cols {
		v, ok := r[c.name]
		if !ok {
			return apperr.New(apperr.KindInternal, "report", fmt.Sprintf("missing column %s", c.name))
		}
		if err := assign(c.dest, v); err != nil {
			return apperr.New(apperr.KindInternal, "report", fmt.Sprintf("column %s: %v", c.name, err))
		}
	}
	return nil
}

func assign(dest, v interface{}) error {
	switch d := dest.(type) {
	case *string:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("want text, got %T", v)
		}
		*d = s
	case *int64:
		switch n := v.(type) {
		case int64:
			*d = n
		case int32:
			*d = int64(n)
		default:
			return fmt.Errorf("want integer, got %T", v)
		}
	case *time.Time:
		t, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("want timestamp, got %T", v)
		}
		*d = t
	case *uuid.UUID:
		switch id := v.(type) {
		case [16]byte:
			*d = uuid.UUID(id)
		case uuid.UUID:
			*d = id
		case string:
			parsed, err := uuid.Parse(id)
			if err != nil {
				return err
			}
			*d = parsed
		default:
			return fmt.Errorf("want uuid, got %T", v)
		}
	default:
		return fmt.Errorf("unsupported destination %T", dest)
	}
	return nil
}
