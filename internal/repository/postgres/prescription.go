package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medidesk/clinic-api/internal/model"
	"github.com/medidesk/clinic-api/internal/repository"
)

type prescriptionRepository struct {
	db *sqlx.DB
}

func NewPrescriptionRepository(db *sqlx.DB) repository.PrescriptionRepository {
	return &prescriptionRepository{db: db}
}

func (r *prescriptionRepository) Create(ctx context.Context, prescription *model.Prescription) error {
	query := `
		INSERT INTO prescriptions (id, patient_id, doctor_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	prescription.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		prescription.ID,
		prescription.PatientID,
		prescription.DoctorID,
		prescription.Text,
		prescription.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create prescription: %w", err)
	}
	return nil
}

func (r *prescriptionRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error) {
	query := `SELECT * FROM prescriptions WHERE patient_id = $1 ORDER BY created_at DESC`
	var prescriptions []*model.Prescription
	err := r.db.SelectContext(ctx, &prescriptions, query, patientID)
	return prescriptions, err
}
