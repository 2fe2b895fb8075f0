package records

import "errors"

var (
	ErrNotFound             = errors.New("clinical record not found")
	ErrRecordExists         = errors.New("appointment already has a clinical record")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrAppointmentCancelled = errors.New("cannot file a record for a cancelled appointment")
)
