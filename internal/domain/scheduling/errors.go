package scheduling

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("appointment not found")
	ErrSlotNotFound    = errors.New("slot not found")
	ErrSlotTaken       = errors.New("time slot already booked")
	ErrInvalidTime     = errors.New("time must be in HH:MM format")
	ErrInvalidDay      = errors.New("day of week must be between 0 and 6")
	ErrInvalidStatus   = errors.New("invalid appointment status")
	ErrTimeNotOffered  = errors.New("time is not offered on that day")
	ErrDateOutOfWindow = errors.New("date is outside the booking window")
)

// InvalidTransitionError reports a status change the transition graph does
// not allow.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}
