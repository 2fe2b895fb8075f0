package auth

import (
	"errors"

	"github.com/google/uuid"
)

// ErrForbidden is returned by services when the policy denies an operation.
var ErrForbidden = errors.New("forbidden")

// Policy decides what an actor may do with clinic data. Patients act only on
// resources they own; staff act on everything. Destructive operations and
// clinical documentation are staff-only regardless of ownership.
type Policy struct{}

func NewPolicy() Policy {
	return Policy{}
}

// CanViewAppointment reports whether the actor may read an appointment
// owned by patientID.
func (Policy) CanViewAppointment(a Actor, patientID uuid.UUID) bool {
	return a.IsStaff() || a.ID == patientID
}

// CanModifyAppointment covers reschedules and status changes such as
// cancellation.
func (Policy) CanModifyAppointment(a Actor, patientID uuid.UUID) bool {
	return a.IsStaff() || a.ID == patientID
}

// CanDeleteAppointment reports whether the actor may remove an appointment
// outright. Patients cancel; only staff delete.
func (Policy) CanDeleteAppointment(a Actor) bool {
	return a.IsStaff()
}

// CanManageSlots covers creating, updating and deleting availability slots.
func (Policy) CanManageSlots(a Actor) bool {
	return a.IsStaff()
}

// CanCreateRecord reports whether the actor may write clinical records.
func (Policy) CanCreateRecord(a Actor) bool {
	return a.IsStaff()
}

// CanViewRecord reports whether the actor may read a clinical record for an
// appointment owned by patientID.
func (Policy) CanViewRecord(a Actor, patientID uuid.UUID) bool {
	return a.IsStaff() || a.ID == patientID
}

// CanManageUsers covers listing, updating and deleting user accounts.
func (Policy) CanManageUsers(a Actor) bool {
	return a.IsStaff()
}
