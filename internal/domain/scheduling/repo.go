package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SlotRepository interface {
	Create(ctx context.Context, sl *AvailableSlot) error
	GetByID(ctx context.Context, id uuid.UUID) (*AvailableSlot, error)
	Update(ctx context.Context, sl *AvailableSlot) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*AvailableSlot, error)
	ListActiveByDay(ctx context.Context, dayOfWeek int) ([]*AvailableSlot, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error)
	// TakenTimes returns the times of day on the given date that are held by
	// a non-cancelled appointment.
	TakenTimes(ctx context.Context, date time.Time) ([]string, error)
}
