package records

import (
	"context"

	"github.com/google/uuid"
)

type RecordRepository interface {
	Create(ctx context.Context, rec *ClinicalRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*ClinicalRecord, error)
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*ClinicalRecord, error)
	Update(ctx context.Context, rec *ClinicalRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*ClinicalRecord, int, error)
}

// statusCancelled mirrors the scheduling domain's terminal cancelled status
// as it crosses the gateway.
const statusCancelled = "CANCELLED"

// AppointmentRef is the minimal view of an appointment the records domain
// needs.
type AppointmentRef struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	Status    string
}

// AppointmentGateway bridges to the scheduling domain. MarkCompleted must
// honor the transaction carried by the context.
type AppointmentGateway interface {
	Get(ctx context.Context, id uuid.UUID) (*AppointmentRef, error)
	MarkCompleted(ctx context.Context, id uuid.UUID) error
}

// TxRunner runs a unit of work inside one database transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
