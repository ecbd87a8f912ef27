package model

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is a closed visit. Symptoms and charges are snapshots taken
// at archival time; the patient's live fields move on independently.
type HistoryEntry struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PatientID    uuid.UUID `db:"patient_id" json:"patient_id"`
	VisitDate    time.Time `db:"visit_date" json:"visit_date"`
	Symptoms     string    `db:"symptoms" json:"symptoms"`
	Prescription string    `db:"prescription" json:"prescription"`
	Charges      int       `db:"charges" json:"charges"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
