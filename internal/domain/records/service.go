package records

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/auth"
)

type Service struct {
	records      RecordRepository
	appointments AppointmentGateway
	tx           TxRunner
	policy       auth.Policy
}

func NewService(records RecordRepository, appointments AppointmentGateway, tx TxRunner, policy auth.Policy) *Service {
	return &Service{records: records, appointments: appointments, tx: tx, policy: policy}
}

// CreateInput is the payload for filing a clinical record.
type CreateInput struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	Diagnosis     string    `json:"diagnosis"`
	Treatment     *string   `json:"treatment,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	Images        []string  `json:"images,omitempty"`
}

// Create files the clinical record for a visit and marks the appointment
// COMPLETED. Both writes happen in one transaction, so a record never exists
// for an appointment that is not completed. Cancelled appointments never get
// records.
func (s *Service) Create(ctx context.Context, actor auth.Actor, in CreateInput) (*ClinicalRecord, error) {
	if !s.policy.CanCreateRecord(actor) {
		return nil, auth.ErrForbidden
	}
	if in.AppointmentID == uuid.Nil {
		return nil, fmt.Errorf("appointment_id is required")
	}
	if strings.TrimSpace(in.Diagnosis) == "" {
		return nil, fmt.Errorf("diagnosis is required")
	}

	appt, err := s.appointments.Get(ctx, in.AppointmentID)
	if err != nil {
		return nil, err
	}
	if appt.Status == statusCancelled {
		return nil, ErrAppointmentCancelled
	}

	rec := &ClinicalRecord{
		AppointmentID: in.AppointmentID,
		PatientID:     appt.PatientID,
		Diagnosis:     strings.TrimSpace(in.Diagnosis),
		Treatment:     in.Treatment,
		Notes:         in.Notes,
		Images:        in.Images,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.records.Create(txCtx, rec); err != nil {
			return err
		}
		return s.appointments.MarkCompleted(txCtx, in.AppointmentID)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Get returns a single record. Patients may only read their own.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*ClinicalRecord, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanViewRecord(actor, rec.PatientID) {
		return nil, auth.ErrForbidden
	}
	return rec, nil
}

// GetByAppointment returns the record filed for an appointment, if any.
func (s *Service) GetByAppointment(ctx context.Context, actor auth.Actor, appointmentID uuid.UUID) (*ClinicalRecord, error) {
	rec, err := s.records.GetByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanViewRecord(actor, rec.PatientID) {
		return nil, auth.ErrForbidden
	}
	return rec, nil
}

// ListByPatient returns a patient's records. Patients are scoped to
// themselves.
func (s *Service) ListByPatient(ctx context.Context, actor auth.Actor, patientID uuid.UUID, limit, offset int) ([]*ClinicalRecord, int, error) {
	if !actor.IsStaff() {
		patientID = actor.ID
	}
	return s.records.ListByPatient(ctx, patientID, limit, offset)
}

// UpdateInput carries the mutable record fields. Nil fields are left
// untouched.
type UpdateInput struct {
	Diagnosis *string  `json:"diagnosis,omitempty"`
	Treatment *string  `json:"treatment,omitempty"`
	Notes     *string  `json:"notes,omitempty"`
	Images    []string `json:"images,omitempty"`
}

// Update edits a filed record. Staff-only.
func (s *Service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, in UpdateInput) (*ClinicalRecord, error) {
	if !s.policy.CanCreateRecord(actor) {
		return nil, auth.ErrForbidden
	}

	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Diagnosis != nil {
		if strings.TrimSpace(*in.Diagnosis) == "" {
			return nil, fmt.Errorf("diagnosis is required")
		}
		rec.Diagnosis = strings.TrimSpace(*in.Diagnosis)
	}
	if in.Treatment != nil {
		rec.Treatment = in.Treatment
	}
	if in.Notes != nil {
		rec.Notes = in.Notes
	}
	if in.Images != nil {
		rec.Images = in.Images
	}

	if err := s.records.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes a filed record. Staff-only. The appointment keeps its
// COMPLETED status.
func (s *Service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if !s.policy.CanCreateRecord(actor) {
		return auth.ErrForbidden
	}
	return s.records.Delete(ctx, id)
}
