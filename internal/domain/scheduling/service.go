package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/auth"
)

// Notifier sends patient-facing appointment email. Implementations must not
// block bookings on delivery problems.
type Notifier interface {
	SendAppointmentConfirmation(ctx context.Context, to, patientName, date, timeOfDay string)
	SendAppointmentCancellation(ctx context.Context, to, patientName, date, timeOfDay string)
}

// Patient is the minimal view of a patient account the scheduler needs.
type Patient struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// PatientDirectory resolves patient contact details for notifications.
type PatientDirectory interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
}

type Service struct {
	appts         AppointmentRepository
	slots         SlotRepository
	patients      PatientDirectory
	notifier      Notifier
	policy        auth.Policy
	loc           *time.Location
	horizonMonths int
	now           func() time.Time
}

func NewService(appts AppointmentRepository, slots SlotRepository, patients PatientDirectory,
	notifier Notifier, policy auth.Policy, loc *time.Location, horizonMonths int) *Service {
	return &Service{
		appts:         appts,
		slots:         slots,
		patients:      patients,
		notifier:      notifier,
		policy:        policy,
		loc:           loc,
		horizonMonths: horizonMonths,
		now:           time.Now,
	}
}

// today returns the current civil date at the clinic, normalized to UTC
// midnight the same way handler-parsed dates are.
func (s *Service) today() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// withinWindow checks that a date falls strictly after today and no later
// than the booking horizon. Same-day bookings are never accepted.
func (s *Service) withinWindow(date time.Time) bool {
	today := s.today()
	return date.After(today) && !date.After(today.AddDate(0, s.horizonMonths, 0))
}

// -- Availability templates --

func (s *Service) CreateSlot(ctx context.Context, actor auth.Actor, sl *AvailableSlot) error {
	if !s.policy.CanManageSlots(actor) {
		return auth.ErrForbidden
	}
	if sl.DayOfWeek < 0 || sl.DayOfWeek > 6 {
		return ErrInvalidDay
	}
	t, err := ParseTimeOfDay(sl.Time)
	if err != nil {
		return err
	}
	sl.Time = t
	return s.slots.Create(ctx, sl)
}

func (s *Service) UpdateSlot(ctx context.Context, actor auth.Actor, sl *AvailableSlot) error {
	if !s.policy.CanManageSlots(actor) {
		return auth.ErrForbidden
	}
	if sl.DayOfWeek < 0 || sl.DayOfWeek > 6 {
		return ErrInvalidDay
	}
	t, err := ParseTimeOfDay(sl.Time)
	if err != nil {
		return err
	}
	sl.Time = t
	return s.slots.Update(ctx, sl)
}

func (s *Service) DeleteSlot(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if !s.policy.CanManageSlots(actor) {
		return auth.ErrForbidden
	}
	return s.slots.Delete(ctx, id)
}

func (s *Service) ListSlots(ctx context.Context) ([]*AvailableSlot, error) {
	return s.slots.List(ctx)
}

// AvailableTimes projects the bookable times of day for one date. Dates
// outside the booking window, today included, are rejected.
func (s *Service) AvailableTimes(ctx context.Context, date time.Time) ([]string, error) {
	if !s.withinWindow(date) {
		return nil, ErrDateOutOfWindow
	}

	templates, err := s.slots.ListActiveByDay(ctx, int(date.Weekday()))
	if err != nil {
		return nil, err
	}
	taken, err := s.appts.TakenTimes(ctx, date)
	if err != nil {
		return nil, err
	}

	return openTimes(templates, taken), nil
}

// -- Appointments --

// BookInput is the payload for booking an appointment. PatientID is only
// honored for staff; patients always book for themselves.
type BookInput struct {
	PatientID uuid.UUID
	Date      time.Time
	Time      string
	Reason    *string
}

// Book creates a PENDING appointment on a free slot. The repository's
// uniqueness guarantee decides races; when two bookings collide the loser
// gets ErrSlotTaken.
func (s *Service) Book(ctx context.Context, actor auth.Actor, in BookInput) (*Appointment, error) {
	patientID := actor.ID
	if actor.IsStaff() && in.PatientID != uuid.Nil {
		patientID = in.PatientID
	}
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}

	timeOfDay, err := ParseTimeOfDay(in.Time)
	if err != nil {
		return nil, err
	}
	if !s.withinWindow(in.Date) {
		return nil, ErrDateOutOfWindow
	}
	if !actor.IsStaff() {
		if err := s.timeOffered(ctx, in.Date, timeOfDay); err != nil {
			return nil, err
		}
	}

	a := &Appointment{
		PatientID: patientID,
		Date:      in.Date,
		Time:      timeOfDay,
		Reason:    in.Reason,
		Status:    StatusPending,
	}
	if err := s.appts.Create(ctx, a); err != nil {
		return nil, err
	}

	s.notify(ctx, a, s.notifier.SendAppointmentConfirmation)
	return a, nil
}

// timeOffered checks that the requested time matches an active weekly
// template for the date's weekday. Only patient bookings are held to the
// template; staff may book any time and the conflict index still arbitrates.
func (s *Service) timeOffered(ctx context.Context, date time.Time, timeOfDay string) error {
	templates, err := s.slots.ListActiveByDay(ctx, int(date.Weekday()))
	if err != nil {
		return err
	}
	for _, tpl := range templates {
		if tpl.Time == timeOfDay {
			return nil
		}
	}
	return ErrTimeNotOffered
}

func (s *Service) notify(ctx context.Context, a *Appointment,
	send func(ctx context.Context, to, name, date, timeOfDay string)) {
	p, err := s.patients.GetPatient(ctx, a.PatientID)
	if err != nil || p.Email == "" {
		return
	}
	send(ctx, p.Email, p.Name, a.Date.Format("02/01/2006"), a.Time)
}

func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanViewAppointment(actor, a.PatientID) {
		return nil, auth.ErrForbidden
	}
	return a, nil
}

// List searches appointments. Patients are always scoped to their own.
func (s *Service) List(ctx context.Context, actor auth.Actor, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	if params == nil {
		params = map[string]string{}
	}
	if !actor.IsStaff() {
		params["patient"] = actor.ID.String()
	}
	if p, ok := params["status"]; ok && !validStatuses[Status(p)] {
		return nil, 0, ErrInvalidStatus
	}
	return s.appts.Search(ctx, params, limit, offset)
}

// UpdateStatus moves an appointment through the status graph. Setting the
// current status again is an idempotent no-op and sends no notification.
// Patients may only cancel their own appointments; every other move is
// staff-only.
func (s *Service) UpdateStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, to Status) (*Appointment, error) {
	if !validStatuses[to] {
		return nil, ErrInvalidStatus
	}

	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanModifyAppointment(actor, a.PatientID) {
		return nil, auth.ErrForbidden
	}
	if !actor.IsStaff() && to != StatusCancelled {
		return nil, auth.ErrForbidden
	}

	if a.Status == to {
		return a, nil
	}
	if !CanTransition(a.Status, to) {
		return nil, &InvalidTransitionError{From: a.Status, To: to}
	}

	a.Status = to
	if err := s.appts.Update(ctx, a); err != nil {
		return nil, err
	}

	if to == StatusCancelled {
		s.notify(ctx, a, s.notifier.SendAppointmentCancellation)
	}
	return a, nil
}

// Reschedule moves a live appointment to a new date and time under the same
// validation as booking.
func (s *Service) Reschedule(ctx context.Context, actor auth.Actor, id uuid.UUID, date time.Time, timeOfDay string) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanModifyAppointment(actor, a.PatientID) {
		return nil, auth.ErrForbidden
	}
	if a.Status != StatusPending && a.Status != StatusConfirmed {
		return nil, &InvalidTransitionError{From: a.Status, To: a.Status}
	}

	t, err := ParseTimeOfDay(timeOfDay)
	if err != nil {
		return nil, err
	}
	if !s.withinWindow(date) {
		return nil, ErrDateOutOfWindow
	}
	if !actor.IsStaff() {
		if err := s.timeOffered(ctx, date, t); err != nil {
			return nil, err
		}
	}

	a.Date = date
	a.Time = t
	if err := s.appts.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes an appointment outright. Staff-only; patients cancel
// instead.
func (s *Service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if !s.policy.CanDeleteAppointment(actor) {
		return auth.ErrForbidden
	}
	return s.appts.Delete(ctx, id)
}

// ForceComplete marks an appointment COMPLETED regardless of its current
// live status. Used when a clinical record is filed for the visit; callers
// run it inside the same transaction as the record insert.
func (s *Service) ForceComplete(ctx context.Context, id uuid.UUID) error {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if a.Status == StatusCancelled {
		return &InvalidTransitionError{From: a.Status, To: StatusCompleted}
	}
	if a.Status == StatusCompleted {
		return nil
	}
	a.Status = StatusCompleted
	return s.appts.Update(ctx, a)
}
