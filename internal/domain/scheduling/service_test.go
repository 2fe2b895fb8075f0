package scheduling

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/auth"
)

// -- Mock Repositories --

type mockSlotRepo struct {
	slots map[uuid.UUID]*AvailableSlot
}

func newMockSlotRepo() *mockSlotRepo {
	return &mockSlotRepo{slots: make(map[uuid.UUID]*AvailableSlot)}
}

func (m *mockSlotRepo) Create(_ context.Context, sl *AvailableSlot) error {
	sl.ID = uuid.New()
	sl.CreatedAt = time.Now()
	sl.UpdatedAt = time.Now()
	m.slots[sl.ID] = sl
	return nil
}

func (m *mockSlotRepo) GetByID(_ context.Context, id uuid.UUID) (*AvailableSlot, error) {
	sl, ok := m.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	return sl, nil
}

func (m *mockSlotRepo) Update(_ context.Context, sl *AvailableSlot) error {
	if _, ok := m.slots[sl.ID]; !ok {
		return ErrSlotNotFound
	}
	m.slots[sl.ID] = sl
	return nil
}

func (m *mockSlotRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.slots[id]; !ok {
		return ErrSlotNotFound
	}
	delete(m.slots, id)
	return nil
}

func (m *mockSlotRepo) List(_ context.Context) ([]*AvailableSlot, error) {
	var result []*AvailableSlot
	for _, sl := range m.slots {
		result = append(result, sl)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DayOfWeek != result[j].DayOfWeek {
			return result[i].DayOfWeek < result[j].DayOfWeek
		}
		return result[i].Time < result[j].Time
	})
	return result, nil
}

func (m *mockSlotRepo) ListActiveByDay(_ context.Context, dayOfWeek int) ([]*AvailableSlot, error) {
	var result []*AvailableSlot
	for _, sl := range m.slots {
		if sl.DayOfWeek == dayOfWeek && sl.IsActive {
			result = append(result, sl)
		}
	}
	return result, nil
}

type mockApptRepo struct {
	appts map[uuid.UUID]*Appointment
}

func newMockApptRepo() *mockApptRepo {
	return &mockApptRepo{appts: make(map[uuid.UUID]*Appointment)}
}

// conflicts mirrors the partial unique index: at most one non-cancelled
// appointment per (date, time).
func (m *mockApptRepo) conflicts(a *Appointment) bool {
	for _, existing := range m.appts {
		if existing.ID == a.ID {
			continue
		}
		if existing.Status != StatusCancelled && existing.Date.Equal(a.Date) && existing.Time == a.Time {
			return true
		}
	}
	return false
}

func (m *mockApptRepo) Create(_ context.Context, a *Appointment) error {
	if a.Status != StatusCancelled && m.conflicts(a) {
		return ErrSlotTaken
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()
	m.appts[a.ID] = a
	return nil
}

func (m *mockApptRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockApptRepo) Update(_ context.Context, a *Appointment) error {
	if _, ok := m.appts[a.ID]; !ok {
		return ErrNotFound
	}
	if a.Status != StatusCancelled && m.conflicts(a) {
		return ErrSlotTaken
	}
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockApptRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.appts[id]; !ok {
		return ErrNotFound
	}
	delete(m.appts, id)
	return nil
}

func (m *mockApptRepo) Search(_ context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	var result []*Appointment
	for _, a := range m.appts {
		if p, ok := params["patient"]; ok && a.PatientID.String() != p {
			continue
		}
		if p, ok := params["status"]; ok && string(a.Status) != p {
			continue
		}
		result = append(result, a)
	}
	return result, len(result), nil
}

func (m *mockApptRepo) TakenTimes(_ context.Context, date time.Time) ([]string, error) {
	var times []string
	for _, a := range m.appts {
		if a.Status != StatusCancelled && a.Date.Equal(date) {
			times = append(times, a.Time)
		}
	}
	return times, nil
}

type mockDirectory struct {
	patients map[uuid.UUID]*Patient
}

func (m *mockDirectory) GetPatient(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return p, nil
}

type notifyCall struct {
	Kind string
	To   string
	Date string
	Time string
}

type mockNotifier struct {
	calls []notifyCall
}

func (m *mockNotifier) SendAppointmentConfirmation(_ context.Context, to, _, date, timeOfDay string) {
	m.calls = append(m.calls, notifyCall{Kind: "confirmation", To: to, Date: date, Time: timeOfDay})
}

func (m *mockNotifier) SendAppointmentCancellation(_ context.Context, to, _, date, timeOfDay string) {
	m.calls = append(m.calls, notifyCall{Kind: "cancellation", To: to, Date: date, Time: timeOfDay})
}

// -- Fixture --

// The fixed clock is Monday 2026-03-02 10:00 UTC.
var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	svc      *Service
	slots    *mockSlotRepo
	appts    *mockApptRepo
	notifier *mockNotifier
	patient  auth.Actor
	admin    auth.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	slots := newMockSlotRepo()
	appts := newMockApptRepo()
	notifier := &mockNotifier{}

	patientID := uuid.New()
	directory := &mockDirectory{patients: map[uuid.UUID]*Patient{
		patientID: {ID: patientID, Name: "Ana", Email: "ana@example.com"},
	}}

	svc := NewService(appts, slots, directory, notifier, auth.NewPolicy(), time.UTC, 3)
	svc.now = func() time.Time { return testNow }

	admin := auth.Actor{ID: uuid.New(), Role: auth.RoleAdmin}
	ctx := context.Background()
	for _, tpl := range []struct {
		day  int
		time string
	}{
		{1, "09:00"}, {1, "15:00"}, {1, "16:00"}, {2, "09:00"},
	} {
		sl := &AvailableSlot{DayOfWeek: tpl.day, Time: tpl.time, IsActive: true}
		if err := svc.CreateSlot(ctx, admin, sl); err != nil {
			t.Fatalf("seed slot %d %s: %v", tpl.day, tpl.time, err)
		}
	}

	return &fixture{
		svc:      svc,
		slots:    slots,
		appts:    appts,
		notifier: notifier,
		patient:  auth.Actor{ID: patientID, Role: auth.RoleUser},
		admin:    admin,
	}
}

// -- Booking --

func TestBookAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Book(ctx, f.patient, BookInput{Date: date(2026, 3, 9), Time: "15:00"})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if a.Status != StatusPending {
		t.Errorf("status = %s, want %s", a.Status, StatusPending)
	}
	if a.PatientID != f.patient.ID {
		t.Errorf("patient_id = %s, want %s", a.PatientID, f.patient.ID)
	}
	if len(f.notifier.calls) != 1 || f.notifier.calls[0].Kind != "confirmation" {
		t.Errorf("notifier calls = %+v, want one confirmation", f.notifier.calls)
	}
	if f.notifier.calls[0].To != "ana@example.com" {
		t.Errorf("confirmation sent to %s", f.notifier.calls[0].To)
	}
}

func TestBookConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Book(ctx, f.patient, BookInput{Date: date(2026, 3, 9), Time: "15:00"}); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	other := auth.Actor{ID: uuid.New(), Role: auth.RoleUser}
	_, err := f.svc.Book(ctx, other, BookInput{Date: date(2026, 3, 9), Time: "15:00"})
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("second booking err = %v, want ErrSlotTaken", err)
	}
}

func TestBookValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   BookInput
		want error
	}{
		{"malformed time", BookInput{Date: date(2026, 3, 9), Time: "quarter past nine"}, ErrInvalidTime},
		{"time not offered", BookInput{Date: date(2026, 3, 9), Time: "23:00"}, ErrTimeNotOffered},
		{"wrong weekday", BookInput{Date: date(2026, 3, 11), Time: "15:00"}, ErrTimeNotOffered},
		{"past date", BookInput{Date: date(2026, 3, 1), Time: "15:00"}, ErrDateOutOfWindow},
		{"same day", BookInput{Date: date(2026, 3, 2), Time: "15:00"}, ErrDateOutOfWindow},
		{"beyond horizon", BookInput{Date: date(2026, 6, 8), Time: "15:00"}, ErrDateOutOfWindow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.Book(ctx, f.patient, tc.in); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestBookWindowEdges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Tomorrow (Tuesday offers 09:00) is the earliest bookable date.
	if _, err := f.svc.Book(ctx, f.patient, BookInput{Date: date(2026, 3, 3), Time: "09:00"}); err != nil {
		t.Fatalf("booking tomorrow: %v", err)
	}
	// 2026-06-01 is just inside the three-month horizon and a Monday.
	if _, err := f.svc.Book(ctx, f.patient, BookInput{Date: date(2026, 6, 1), Time: "15:00"}); err != nil {
		t.Fatalf("booking at horizon edge: %v", err)
	}
}

func TestBookStaffNotHeldToTemplates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// No template offers 20:00; staff may still book it for a patient.
	a, err := f.svc.Book(ctx, f.admin, BookInput{PatientID: f.patient.ID, Date: date(2026, 3, 9), Time: "20:00"})
	if err != nil {
		t.Fatalf("staff off-template booking: %v", err)
	}
	if a.PatientID != f.patient.ID {
		t.Errorf("patient_id = %s, want %s", a.PatientID, f.patient.ID)
	}

	// The conflict rule still applies to off-template bookings.
	if _, err := f.svc.Book(ctx, f.admin, BookInput{PatientID: f.patient.ID, Date: date(2026, 3, 9), Time: "20:00"}); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("second off-template booking err = %v, want ErrSlotTaken", err)
	}
}

func TestCancelFreesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Book(ctx, f.patient, BookInput{Date: date(2026, 3, 9), Time: "15:00"})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	if _, err := f.svc.UpdateStatus(ctx, f.patient, a.ID, StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	last := f.notifier.calls[len(f.notifier.calls)-1]
	if last.Kind != "cancellation" {
		t.Errorf("last notification = %s, want cancellation", last.Kind)
	}

	other := auth.Actor{ID: uuid.New(), Role: auth.RoleUser}
	if _, err := f.svc.Book(ctx, other, BookInput{Date: date(2026, 3, 9), Time: "15:00"}); err != nil {
		t.Fatalf("rebooking freed slot: %v", err)
	}
}

// -- Projection --

func TestAvailableTimesProjection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Monday next week offers 09:00, 15:00 and 16:00. Take 15:00.
	if _, err := f.svc.Book(ctx, f.patient, BookInput{Date: date(2026, 3, 9), Time: "15:00"}); err != nil {
		t.Fatalf("Book: %v", err)
	}

	times, err := f.svc.AvailableTimes(ctx, date(2026, 3, 9))
	if err != nil {
		t.Fatalf("AvailableTimes: %v", err)
	}
	want := []string{"09:00", "16:00"}
	if len(times) != len(want) {
		t.Fatalf("times = %v, want %v", times, want)
	}
	for i := range want {
		if times[i] != want[i] {
			t.Fatalf("times = %v, want %v", times, want)
		}
	}
}

func TestAvailableTimesExcludesInactive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var target *AvailableSlot
	for _, sl := range f.slots.slots {
		if sl.DayOfWeek == 1 && sl.Time == "16:00" {
			target = sl
		}
	}
	target.IsActive = false

	times, err := f.svc.AvailableTimes(ctx, date(2026, 3, 9))
	if err != nil {
		t.Fatalf("AvailableTimes: %v", err)
	}
	for _, tm := range times {
		if tm == "16:00" {
			t.Errorf("inactive slot 16:00 still projected: %v", times)
		}
	}
}

func TestAvailableTimesOutOfWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Today itself is never bookable; the window starts tomorrow.
	if _, err := f.svc.AvailableTimes(ctx, date(2026, 3, 2)); !errors.Is(err, ErrDateOutOfWindow) {
		t.Fatalf("today err = %v, want ErrDateOutOfWindow", err)
	}
	if _, err := f.svc.AvailableTimes(ctx, date(2027, 1, 4)); !errors.Is(err, ErrDateOutOfWindow) {
		t.Fatalf("far future err = %v, want ErrDateOutOfWindow", err)
	}
	if _, err := f.svc.AvailableTimes(ctx, date(2026, 3, 3)); err != nil {
		t.Fatalf("tomorrow err = %v", err)
	}
}

func TestOpenTimesCollapsesDuplicates(t *testing.T) {
	templates := []*AvailableSlot{
		{DayOfWeek: 1, Time: "10:00", IsActive: true},
		{DayOfWeek: 1, Time: "10:00", IsActive: true},
		{DayOfWeek: 1, Time: "09:00", IsActive: true},
	}
	got := openTimes(templates, nil)
	want := []string{"09:00", "10:00"}
	if len(got) != len(want) {
		t.Fatalf("openTimes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("openTimes = %v, want %v", got, want)
		}
	}
}

// -- Status transitions --

func TestUpdateStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Book(ctx, f.patient, BookInput{Date: date(2026, 3, 9), Time: "15:00"})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	if _, err := f.svc.UpdateStatus(ctx, f.admin, a.ID, StatusConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, f.admin, a.ID, StatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}

	_, err = f.svc.UpdateStatus(ctx, f.admin, a.ID, StatusCancelled)
	var transition *InvalidTransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("err = %v, want InvalidTransitionError", err)
	}
	if transition.From != StatusCompleted || transition.To != StatusCancelled {
		t.Errorf("transition = %s -> %s", transition.From, transition.To)
	}
}

func TestUpdateStatusIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Book(ctx, f.patient, BookInput{Date: date(2026, 3, 9), Time: "15:00"})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, f.patient, a.ID, StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	before := len(f.notifier.calls)
	got, err := f.svc.UpdateStatus(ctx, f.patient, a.ID, StatusCancelled)
	if err != nil {
		t.Fatalf("repeat cancel: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("status = %s", got.Status)
	}
	if len(f.notifier.calls) != before {
		t.Errorf("repeat cancel sent another notification")
	}
}

func TestUpdateStatusAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Book(ctx, f.patient, BookInput{Date: date(2026, 3, 9), Time: "15:00"})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	// Patients cannot confirm, even their own appointment.
	if _, err := f.svc.UpdateStatus(ctx, f.patient, a.ID, StatusConfirmed); !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("patient confirm err = %v, want ErrForbidden", err)
	}

	// A different patient cannot touch it at all.
	stranger := auth.Actor{ID: uuid.New(), Role: auth.RoleUser}
	if _, err := f.svc.UpdateStatus(ctx, stranger, a.ID, StatusCancelled); !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("stranger cancel err = %v, want ErrForbidden", err)
	}

	if _, err := f.svc.UpdateStatus(ctx, f.patient, a.ID, Status("BOOKED")); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("unknown status err = %v, want ErrInvalidStatus", err)
	}
}

// -- Reschedule --

func TestReschedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Book(ctx, f.patient, BookInput{Date: date(2026, 3, 9), Time: "15:00"})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	got, err := f.svc.Reschedule(ctx, f.patient, a.ID, date(2026, 3, 10), "09:00")
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if got.Time != "09:00" || !got.Date.Equal(date(2026, 3, 10)) {
		t.Errorf("rescheduled to %s %s", got.Date.Format(DateLayout), got.Time)
	}
}

func TestRescheduleConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := auth.Actor{ID: uuid.New(), Role: auth.RoleUser}
	if _, err := f.svc.Book(ctx, other, BookInput{Date: date(2026, 3, 10), Time: "09:00"}); err != nil {
		t.Fatalf("Book other: %v", err)
	}
	a, err := f.svc.Book(ctx, f.patient, BookInput{Date: date(2026, 3, 9), Time: "15:00"})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	if _, err := f.svc.Reschedule(ctx, f.patient, a.ID, date(2026, 3, 10), "09:00"); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("err = %v, want ErrSlotTaken", err)
	}
}

func TestRescheduleTerminalAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Book(ctx, f.patient, BookInput{Date: date(2026, 3, 9), Time: "15:00"})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, f.admin, a.ID, StatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}

	_, err = f.svc.Reschedule(ctx, f.patient, a.ID, date(2026, 3, 10), "09:00")
	var transition *InvalidTransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("err = %v, want InvalidTransitionError", err)
	}
}

// -- Delete --

func TestDeleteStaffOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Book(ctx, f.patient, BookInput{Date: date(2026, 3, 9), Time: "15:00"})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	if err := f.svc.Delete(ctx, f.patient, a.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("patient delete err = %v, want ErrForbidden", err)
	}
	if err := f.svc.Delete(ctx, f.admin, a.ID); err != nil {
		t.Errorf("admin delete: %v", err)
	}
}

// -- ForceComplete --

func TestForceComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Book(ctx, f.patient, BookInput{Date: date(2026, 3, 9), Time: "15:00"})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	if err := f.svc.ForceComplete(ctx, a.ID); err != nil {
		t.Fatalf("ForceComplete: %v", err)
	}
	got, _ := f.appts.GetByID(ctx, a.ID)
	if got.Status != StatusCompleted {
		t.Errorf("status = %s, want %s", got.Status, StatusCompleted)
	}

	// Repeat is a no-op.
	if err := f.svc.ForceComplete(ctx, a.ID); err != nil {
		t.Fatalf("repeat ForceComplete: %v", err)
	}
}

func TestForceCompleteCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Book(ctx, f.patient, BookInput{Date: date(2026, 3, 9), Time: "15:00"})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, f.patient, a.ID, StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	err = f.svc.ForceComplete(ctx, a.ID)
	var transition *InvalidTransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("err = %v, want InvalidTransitionError", err)
	}
}

// -- Slot templates --

func TestSlotValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.svc.CreateSlot(ctx, f.admin, &AvailableSlot{DayOfWeek: 7, Time: "09:00", IsActive: true}); !errors.Is(err, ErrInvalidDay) {
		t.Errorf("day 7 err = %v, want ErrInvalidDay", err)
	}
	if err := f.svc.CreateSlot(ctx, f.admin, &AvailableSlot{DayOfWeek: 1, Time: "morning", IsActive: true}); !errors.Is(err, ErrInvalidTime) {
		t.Errorf("bad time err = %v, want ErrInvalidTime", err)
	}
	if err := f.svc.CreateSlot(ctx, f.patient, &AvailableSlot{DayOfWeek: 3, Time: "09:00", IsActive: true}); !errors.Is(err, auth.ErrForbidden) {
		t.Errorf("patient create err = %v, want ErrForbidden", err)
	}
}

func TestDuplicateTemplatesAccepted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A second (1, "09:00") row is fine; the projection collapses it.
	if err := f.svc.CreateSlot(ctx, f.admin, &AvailableSlot{DayOfWeek: 1, Time: "09:00", IsActive: true}); err != nil {
		t.Fatalf("duplicate template: %v", err)
	}

	times, err := f.svc.AvailableTimes(ctx, date(2026, 3, 9))
	if err != nil {
		t.Fatalf("AvailableTimes: %v", err)
	}
	count := 0
	for _, tm := range times {
		if tm == "09:00" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("09:00 projected %d times, want 1", count)
	}
}

// -- Listing --

func TestListScopesPatients(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := auth.Actor{ID: uuid.New(), Role: auth.RoleUser}
	if _, err := f.svc.Book(ctx, f.patient, BookInput{Date: date(2026, 3, 9), Time: "15:00"}); err != nil {
		t.Fatalf("Book: %v", err)
	}
	if _, err := f.svc.Book(ctx, other, BookInput{Date: date(2026, 3, 9), Time: "16:00"}); err != nil {
		t.Fatalf("Book other: %v", err)
	}

	items, total, err := f.svc.List(ctx, f.patient, nil, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].PatientID != f.patient.ID {
		t.Errorf("patient list = %d items, total %d", len(items), total)
	}

	_, total, err = f.svc.List(ctx, f.admin, nil, 20, 0)
	if err != nil {
		t.Fatalf("admin List: %v", err)
	}
	if total != 2 {
		t.Errorf("admin total = %d, want 2", total)
	}
}
