package scheduling

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/clinic/exams/internal/platform/apperr"
)

// -- Mock Repositories --

type mockAppointmentRepo struct {
	appointments map[uuid.UUID]*Appointment
	results      *mockResultRepo
}

func newMockAppointmentRepo(results *mockResultRepo) *mockAppointmentRepo {
	return &mockAppointmentRepo{appointments: make(map[uuid.UUID]*Appointment), results: results}
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.Status = StatusScheduled
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	stored := *a
	m.appointments[a.ID] = &stored
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, apperr.NotFound("appointment not found")
	}
	cp := *a
	return &cp, nil
}

func (m *mockAppointmentRepo) Update(_ context.Context, a *Appointment) error {
	cur, ok := m.appointments[a.ID]
	if !ok {
		return apperr.NotFound("appointment not found")
	}
	cur.PatientID, cur.ExamID, cur.UnitID = a.PatientID, a.ExamID, a.UnitID
	cur.ProfessionalID, cur.ScheduledAt = a.ProfessionalID, a.ScheduledAt
	return nil
}

func (m *mockAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.appointments[id]; !ok {
		return apperr.NotFound("appointment not found")
	}
	delete(m.appointments, id)
	return nil
}

func (m *mockAppointmentRepo) sorted(keep func(*Appointment) bool) []*Appointment {
	result := []*Appointment{}
	for _, a := range m.appointments {
		if keep(a) {
			cp := *a
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledAt.Before(result[j].ScheduledAt) })
	return result
}

func (m *mockAppointmentRepo) List(_ context.Context) ([]*Appointment, error) {
	return m.sorted(func(*Appointment) bool { return true }), nil
}

func (m *mockAppointmentRepo) ListBetween(_ context.Context, from, to time.Time) ([]*Appointment, error) {
	end := to.AddDate(0, 0, 1)
	return m.sorted(func(a *Appointment) bool {
		return !a.ScheduledAt.Before(from) && a.ScheduledAt.Before(end)
	}), nil
}

func (m *mockAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, change StatusChange) error {
	a, ok := m.appointments[id]
	if !ok {
		return apperr.NotFound("appointment not found")
	}
	a.Status = change.Status
	if change.DocumentsOK != nil {
		a.DocumentsOK = change.DocumentsOK
	}
	if change.RequirementsOK != nil {
		a.RequirementsOK = change.RequirementsOK
	}
	return nil
}

func (m *mockAppointmentRepo) ListCompletedWithoutResult(_ context.Context) ([]*Appointment, error) {
	return m.sorted(func(a *Appointment) bool {
		if a.Status != StatusCompleted {
			return false
		}
		_, err := m.results.GetByAppointment(context.Background(), a.ID)
		return err != nil
	}), nil
}

type mockResultRepo struct {
	results map[uuid.UUID]*Result
}

func newMockResultRepo() *mockResultRepo {
	return &mockResultRepo{results: make(map[uuid.UUID]*Result)}
}

func (m *mockResultRepo) Create(_ context.Context, r *Result) error {
	for _, existing := range m.results {
		if existing.AppointmentID == r.AppointmentID {
			return apperr.New(apperr.KindConstraint, "insert result", "duplicate appointment_id")
		}
	}
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	m.results[r.ID] = r
	return nil
}

func (m *mockResultRepo) GetByID(_ context.Context, id uuid.UUID) (*Result, error) {
	r, ok := m.results[id]
	if !ok {
		return nil, apperr.NotFound("result not found")
	}
	return r, nil
}

func (m *mockResultRepo) GetByAppointment(_ context.Context, appointmentID uuid.UUID) (*Result, error) {
	for _, r := range m.results {
		if r.AppointmentID == appointmentID {
			return r, nil
		}
	}
	return nil, apperr.NotFound("result not found")
}

func (m *mockResultRepo) Update(_ context.Context, r *Result) error {
	if _, ok := m.results[r.ID]; !ok {
		return apperr.NotFound("result not found")
	}
	m.results[r.ID] = r
	return nil
}

func (m *mockResultRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.results, id)
	return nil
}

func (m *mockResultRepo) List(_ context.Context) ([]*Result, error) {
	result := []*Result{}
	for _, r := range m.results {
		result = append(result, r)
	}
	return result, nil
}

type mockAvailabilityRepo struct {
	items   map[uuid.UUID]*Availability
	failAll bool
}

func newMockAvailabilityRepo() *mockAvailabilityRepo {
	return &mockAvailabilityRepo{items: make(map[uuid.UUID]*Availability)}
}

func (m *mockAvailabilityRepo) Create(_ context.Context, a *Availability) error {
	a.ID = uuid.New()
	m.items[a.ID] = a
	return nil
}

func (m *mockAvailabilityRepo) CreateBatch(_ context.Context, items []*Availability) error {
	if m.failAll {
		return apperr.Wrap(apperr.KindConstraint, "exec many", fmt.Errorf("foreign key violation"))
	}
	for _, a := range items {
		a.ID = uuid.New()
		m.items[a.ID] = a
	}
	return nil
}

func (m *mockAvailabilityRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.items, id)
	return nil
}

func (m *mockAvailabilityRepo) List(_ context.Context) ([]*Availability, error) {
	result := []*Availability{}
	for _, a := range m.items {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Time.Before(result[j].Date.Time) })
	return result, nil
}

type testEnv struct {
	svc          *Service
	appointments *mockAppointmentRepo
	results      *mockResultRepo
	availability *mockAvailabilityRepo
}

func newTestEnv() *testEnv {
	results := newMockResultRepo()
	appts := newMockAppointmentRepo(results)
	avail := newMockAvailabilityRepo()
	return &testEnv{
		svc:          NewService(appts, results, avail),
		appointments: appts,
		results:      results,
		availability: avail,
	}
}

func (e *testEnv) schedule(t *testing.T, at time.Time) *Appointment {
	t.Helper()
	a := &Appointment{PatientID: uuid.New(), ExamID: uuid.New(), UnitID: uuid.New(), ScheduledAt: at}
	if err := e.svc.ScheduleAppointment(context.Background(), a); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	return a
}

func (e *testEnv) complete(t *testing.T, id uuid.UUID) {
	t.Helper()
	change := StatusChange{Status: StatusCompleted, DocumentsOK: boolp(true), RequirementsOK: boolp(true)}
	if _, err := e.svc.UpdateStatus(context.Background(), id, change); err != nil {
		t.Fatalf("complete: %v", err)
	}
}

var jan10 = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

// -- Appointment Tests --

func TestScheduleAppointment_StartsScheduled(t *testing.T) {
	env := newTestEnv()
	a := &Appointment{
		PatientID: uuid.New(), ExamID: uuid.New(), UnitID: uuid.New(), ScheduledAt: jan10,
		Status: StatusCompleted, DocumentsOK: boolp(true),
	}
	if err := env.svc.ScheduleAppointment(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := env.svc.GetAppointment(context.Background(), a.ID)
	if got.Status != StatusScheduled {
		t.Errorf("expected SCHEDULED, got %s", got.Status)
	}
	if got.DocumentsOK != nil {
		t.Error("expected verification flags to start unset")
	}
}

func TestScheduleAppointment_Validation(t *testing.T) {
	env := newTestEnv()
	tests := []struct {
		name string
		a    *Appointment
	}{
		{"missing patient", &Appointment{ExamID: uuid.New(), UnitID: uuid.New(), ScheduledAt: jan10}},
		{"missing exam", &Appointment{PatientID: uuid.New(), UnitID: uuid.New(), ScheduledAt: jan10}},
		{"missing unit", &Appointment{PatientID: uuid.New(), ExamID: uuid.New(), ScheduledAt: jan10}},
		{"missing time", &Appointment{PatientID: uuid.New(), ExamID: uuid.New(), UnitID: uuid.New()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := env.svc.ScheduleAppointment(context.Background(), tt.a); !apperr.Is(err, apperr.KindValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpdateStatus_CompleteRequiresFlags(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a := env.schedule(t, jan10)

	_, err := env.svc.UpdateStatus(ctx, a.ID, StatusChange{Status: StatusCompleted})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got, _ := env.svc.GetAppointment(ctx, a.ID)
	if got.Status != StatusScheduled {
		t.Errorf("expected status to stay SCHEDULED, got %s", got.Status)
	}

	env.complete(t, a.ID)
	got, _ = env.svc.GetAppointment(ctx, a.ID)
	if got.Status != StatusCompleted || !isTrue(got.DocumentsOK) || !isTrue(got.RequirementsOK) {
		t.Errorf("expected COMPLETED with both flags, got %+v", got)
	}
}

func TestUpdateStatus_RedundantCancelAccepted(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a := env.schedule(t, jan10)

	for i := 0; i < 2; i++ {
		got, err := env.svc.UpdateStatus(ctx, a.ID, StatusChange{Status: StatusCancelled})
		if err != nil {
			t.Fatalf("write %d: unexpected error: %v", i, err)
		}
		if got.Status != StatusCancelled {
			t.Errorf("expected CANCELLED, got %s", got.Status)
		}
	}
}

func TestUpdateStatus_NotFound(t *testing.T) {
	env := newTestEnv()
	_, err := env.svc.UpdateStatus(context.Background(), uuid.New(), StatusChange{Status: StatusCancelled})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a := env.schedule(t, jan10)

	got, err := env.svc.Cancel(ctx, a.ID)
	if err != nil || got.Status != StatusCancelled {
		t.Fatalf("expected CANCELLED, got %v, %v", got, err)
	}
	before := got.UpdatedAt

	again, err := env.svc.Cancel(ctx, a.ID)
	if err != nil {
		t.Fatalf("unexpected error on repeated cancel: %v", err)
	}
	if again.Status != StatusCancelled || !again.UpdatedAt.Equal(before) {
		t.Errorf("expected repeated cancel to be a no-op, got %+v", again)
	}
}

func TestCancel_Completed(t *testing.T) {
	env := newTestEnv()
	a := env.schedule(t, jan10)
	env.complete(t, a.ID)

	if _, err := env.svc.Cancel(context.Background(), a.ID); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdateAppointment_OnlyWhileScheduled(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a := env.schedule(t, jan10)

	moved := *a
	moved.ScheduledAt = jan10.Add(48 * time.Hour)
	if err := env.svc.UpdateAppointment(ctx, &moved); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := env.svc.GetAppointment(ctx, a.ID)
	if !got.ScheduledAt.Equal(moved.ScheduledAt) {
		t.Errorf("expected rescheduled time, got %v", got.ScheduledAt)
	}

	env.svc.Cancel(ctx, a.ID)
	if err := env.svc.UpdateAppointment(ctx, &moved); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error for a cancelled appointment, got %v", err)
	}
}

func TestListAppointmentsBetween(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.schedule(t, jan10)
	env.schedule(t, jan10.Add(23*time.Hour))
	env.schedule(t, jan10.AddDate(0, 0, 5))

	day := func(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }
	list, err := env.svc.ListAppointmentsBetween(ctx, day(10), day(11))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 appointments, got %d", len(list))
	}

	if _, err := env.svc.ListAppointmentsBetween(ctx, day(11), day(10)); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error for an inverted range, got %v", err)
	}
}

// -- Result Tests --

func TestCreateResult_RequiresCompleted(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a := env.schedule(t, jan10)

	err := env.svc.CreateResult(ctx, &Result{AppointmentID: a.ID, Findings: "normal"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if len(env.results.results) != 0 {
		t.Error("expected no result to be stored")
	}
}

func TestCreateResult_OncePerAppointment(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a := env.schedule(t, jan10)
	env.complete(t, a.ID)

	pending, _ := env.svc.ListCompletedWithoutResult(ctx)
	if len(pending) != 1 || pending[0].ID != a.ID {
		t.Fatalf("expected the appointment to be eligible, got %v", pending)
	}

	if err := env.svc.CreateResult(ctx, &Result{AppointmentID: a.ID, Findings: "normal"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pending, _ = env.svc.ListCompletedWithoutResult(ctx)
	if len(pending) != 0 {
		t.Errorf("expected no eligible appointments, got %d", len(pending))
	}

	err := env.svc.CreateResult(ctx, &Result{AppointmentID: a.ID, Findings: "again"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error for a second result, got %v", err)
	}
}

// Maria Silva is booked for a Hemograma, attends with her documents in
// order, and gets a result recorded exactly once.
func TestScenario_MariaSilvaHemograma(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	appt := &Appointment{
		PatientID:   uuid.New(),
		ExamID:      uuid.New(),
		UnitID:      uuid.New(),
		ScheduledAt: jan10,
		Status:      StatusCompleted,
		PatientName: "Maria Silva",
		ExamName:    "Hemograma",
	}
	if err := env.svc.ScheduleAppointment(ctx, appt); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if appt.Status != StatusScheduled {
		t.Fatalf("expected SCHEDULED, got %s", appt.Status)
	}

	if _, err := env.svc.UpdateStatus(ctx, appt.ID, StatusChange{Status: StatusCompleted}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected completion without flags to fail, got %v", err)
	}
	if pending, _ := env.svc.ListCompletedWithoutResult(ctx); len(pending) != 0 {
		t.Fatalf("expected nothing eligible yet, got %d", len(pending))
	}

	done, err := env.svc.UpdateStatus(ctx, appt.ID, StatusChange{
		Status:         StatusCompleted,
		DocumentsOK:    boolp(true),
		RequirementsOK: boolp(true),
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != StatusCompleted || !*done.DocumentsOK || !*done.RequirementsOK {
		t.Errorf("unexpected appointment after completion: %+v", done)
	}

	pending, _ := env.svc.ListCompletedWithoutResult(ctx)
	if len(pending) != 1 || pending[0].PatientName != "Maria Silva" {
		t.Fatalf("expected Maria Silva to be eligible, got %v", pending)
	}

	res := &Result{AppointmentID: appt.ID, Findings: "  Hemoglobina 13.5 g/dL  ", Recommendations: strp("Repetir em 12 meses")}
	if err := env.svc.CreateResult(ctx, res); err != nil {
		t.Fatalf("create result: %v", err)
	}
	if res.Findings != "Hemoglobina 13.5 g/dL" {
		t.Errorf("expected trimmed findings, got %q", res.Findings)
	}
	if pending, _ := env.svc.ListCompletedWithoutResult(ctx); len(pending) != 0 {
		t.Errorf("expected no eligible appointments, got %d", len(pending))
	}
	if err := env.svc.CreateResult(ctx, &Result{AppointmentID: appt.ID, Findings: "again"}); err == nil {
		t.Error("expected a second result to be rejected")
	}
	if _, err := env.svc.Cancel(ctx, appt.ID); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected a completed appointment to stay completed, got %v", err)
	}
}

func strp(s string) *string { return &s }

func TestCreateResult_Validation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	if err := env.svc.CreateResult(ctx, &Result{Findings: "normal"}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error without appointment, got %v", err)
	}
	if err := env.svc.CreateResult(ctx, &Result{AppointmentID: uuid.New(), Findings: "  "}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error without findings, got %v", err)
	}
	if err := env.svc.CreateResult(ctx, &Result{AppointmentID: uuid.New(), Findings: "normal"}); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found for an unknown appointment, got %v", err)
	}
}

func TestUpdateResult(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a := env.schedule(t, jan10)
	env.complete(t, a.ID)
	r := &Result{AppointmentID: a.ID, Findings: "normal"}
	env.svc.CreateResult(ctx, r)

	rec := "repetir em 6 meses"
	if err := env.svc.UpdateResult(ctx, &Result{ID: r.ID, AppointmentID: a.ID, Findings: "alterado", Recommendations: &rec}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := env.svc.UpdateResult(ctx, &Result{ID: r.ID, Findings: ""}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

// -- Availability Tests --

func date(y int, m time.Month, d int) pgtype.Date {
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

func TestCreateAvailabilityBatch(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	exam, unit := uuid.New(), uuid.New()
	items := []*Availability{
		{ExamID: exam, UnitID: unit, Date: date(2025, 1, 12)},
		{ExamID: exam, UnitID: unit, Date: date(2025, 1, 11)},
	}
	if err := env.svc.CreateAvailabilityBatch(ctx, items); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, a := range items {
		if a.ID == uuid.Nil {
			t.Error("expected ids to be assigned")
		}
	}
	list, _ := env.svc.ListAvailability(ctx)
	if len(list) != 2 || !list[0].Date.Time.Before(list[1].Date.Time) {
		t.Errorf("expected 2 records ordered by date, got %v", list)
	}
}

func TestCreateAvailabilityBatch_InvalidItemStoresNothing(t *testing.T) {
	env := newTestEnv()
	items := []*Availability{
		{ExamID: uuid.New(), UnitID: uuid.New(), Date: date(2025, 1, 12)},
		{ExamID: uuid.New(), UnitID: uuid.New()},
	}
	if err := env.svc.CreateAvailabilityBatch(context.Background(), items); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(env.availability.items) != 0 {
		t.Errorf("expected nothing stored, got %d", len(env.availability.items))
	}
}

func TestCreateAvailabilityBatch_StoreFailure(t *testing.T) {
	env := newTestEnv()
	env.availability.failAll = true
	items := []*Availability{{ExamID: uuid.New(), UnitID: uuid.New(), Date: date(2025, 1, 12)}}
	if err := env.svc.CreateAvailabilityBatch(context.Background(), items); !apperr.Is(err, apperr.KindConstraint) {
		t.Errorf("expected constraint error, got %v", err)
	}
}

func TestCreateAvailabilityBatch_Empty(t *testing.T) {
	env := newTestEnv()
	if err := env.svc.CreateAvailabilityBatch(context.Background(), nil); err != nil {
		t.Errorf("expected nil for an empty batch, got %v", err)
	}
}
