package records

import (
	"time"

	"github.com/google/uuid"
)

// ClinicalRecord maps to the clinical_records table. Each appointment has at
// most one record; filing it marks the visit as completed.
type ClinicalRecord struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	Diagnosis     string    `db:"diagnosis" json:"diagnosis"`
	Treatment     *string   `db:"treatment" json:"treatment,omitempty"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`
	Images        []string  `db:"images" json:"images"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
