package model

import (
	"time"

	"github.com/google/uuid"
)

// Prescription is immutable once written. A patient accumulates one per
// completed visit; duplicates from retried archivals are tolerated because
// the history entry, not the prescription, gates visit completion.
type Prescription struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type RecordPrescriptionRequest struct {
	Text string `json:"text" binding:"required"`
}
