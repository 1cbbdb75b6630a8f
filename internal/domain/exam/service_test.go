package exam

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"

	"github.com/clinic/exams/internal/platform/apperr"
)

type mockExamRepo struct {
	exams map[uuid.UUID]*Exam
}

func newMockExamRepo() *mockExamRepo {
	return &mockExamRepo{exams: make(map[uuid.UUID]*Exam)}
}

func (m *mockExamRepo) Create(_ context.Context, e *Exam) error {
	e.ID = uuid.New()
	if e.CleaningIntervalMinutes == nil {
		e.CleaningIntervalMinutes = intp(DefaultCleaningInterval)
	}
	m.exams[e.ID] = e
	return nil
}

func (m *mockExamRepo) GetByID(_ context.Context, id uuid.UUID) (*Exam, error) {
	e, ok := m.exams[id]
	if !ok {
		return nil, apperr.NotFound("exam not found")
	}
	return e, nil
}

func (m *mockExamRepo) Update(_ context.Context, e *Exam) error {
	if _, ok := m.exams[e.ID]; !ok {
		return apperr.NotFound("exam not found")
	}
	m.exams[e.ID] = e
	return nil
}

func (m *mockExamRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.exams, id)
	return nil
}

func (m *mockExamRepo) List(_ context.Context) ([]*Exam, error) {
	result := []*Exam{}
	for _, e := range m.exams {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func TestCreateExam_Duration(t *testing.T) {
	tests := []struct {
		minutes int
		ok      bool
	}{
		{-10, false},
		{0, false},
		{30, true},
	}
	for _, tt := range tests {
		repo := newMockExamRepo()
		svc := NewService(repo)
		err := svc.CreateExam(context.Background(), &Exam{Name: "Hemograma", EstimatedMinutes: tt.minutes, Details: LabDetails{}})
		if tt.ok && err != nil {
			t.Errorf("duration %d: unexpected error %v", tt.minutes, err)
		}
		if !tt.ok {
			if !apperr.Is(err, apperr.KindValidation) {
				t.Errorf("duration %d: expected validation error, got %v", tt.minutes, err)
			}
			if len(repo.exams) != 0 {
				t.Errorf("duration %d: rejected exam reached the store", tt.minutes)
			}
		}
	}
}

func TestCreateExam_DefaultCleaningInterval(t *testing.T) {
	svc := NewService(newMockExamRepo())
	ctx := context.Background()
	e := &Exam{Name: "Hemograma", EstimatedMinutes: 30, Details: LabDetails{}}
	if err := svc.CreateExam(ctx, e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := svc.GetExam(ctx, e.ID)
	if got.CleaningIntervalMinutes == nil || *got.CleaningIntervalMinutes != 15 {
		t.Errorf("expected default cleaning interval 15, got %v", got.CleaningIntervalMinutes)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		e    *Exam
	}{
		{"missing name", &Exam{EstimatedMinutes: 30, Details: LabDetails{}}},
		{"missing type", &Exam{Name: "X", EstimatedMinutes: 30}},
		{"negative cleaning", &Exam{Name: "X", EstimatedMinutes: 30, CleaningIntervalMinutes: intp(-1), Details: LabDetails{}}},
		{"negative collection", &Exam{Name: "X", EstimatedMinutes: 30, Details: LabDetails{CollectionMinutes: intp(-5)}}},
		{"negative consult", &Exam{Name: "X", EstimatedMinutes: 30, Details: ClinicalDetails{AvgConsultMinutes: intp(-5)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.e); !apperr.Is(err, apperr.KindValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}

	if err := Validate(&Exam{Name: "X", EstimatedMinutes: 30, CleaningIntervalMinutes: intp(0), Details: ImagingDetails{}}); err != nil {
		t.Errorf("expected zero cleaning interval to be accepted, got %v", err)
	}
}

func TestUpdateExam_TypeChange(t *testing.T) {
	svc := NewService(newMockExamRepo())
	ctx := context.Background()
	e := &Exam{Name: "Consulta", EstimatedMinutes: 30, Details: LabDetails{DietaryRestrictions: strp("jejum")}}
	svc.CreateExam(ctx, e)

	changed := &Exam{ID: e.ID, Name: "Consulta", EstimatedMinutes: 30, Details: ClinicalDetails{Specialty: strp("Clínica geral")}}
	if err := svc.UpdateExam(ctx, changed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := svc.GetExam(ctx, e.ID)
	if got.Type() != TypeClinical {
		t.Errorf("expected CLINICAL, got %s", got.Type())
	}
}

func TestListExams(t *testing.T) {
	svc := NewService(newMockExamRepo())
	ctx := context.Background()
	svc.CreateExam(ctx, &Exam{Name: "Ultrassom", EstimatedMinutes: 20, Details: ImagingDetails{}})
	svc.CreateExam(ctx, &Exam{Name: "Hemograma", EstimatedMinutes: 30, Details: LabDetails{}})

	list, err := svc.ListExams(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Hemograma" {
		t.Errorf("unexpected list: %v", list)
	}
}
