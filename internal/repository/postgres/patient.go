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

type patientRepository struct {
	db *sqlx.DB
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{db: db}
}

// The token is assigned by the database at insert time from a dedicated
// sequence. Two receptionists registering at once get distinct, strictly
// increasing tokens; a removed patient's token is never reissued.
func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (id, token, name, age, gender, contact, symptoms, charges, status, created_at, updated_at)
		VALUES ($1, 'T' || lpad(nextval('patient_token_seq')::text, 3, '0'), $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING token
	`
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		patient.ID,
		patient.Name,
		patient.Age,
		patient.Gender,
		patient.Contact,
		patient.Symptoms,
		patient.Charges,
		patient.Status,
		patient.CreatedAt,
		patient.UpdatedAt,
	).Scan(&patient.Token)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT * FROM patients WHERE id = $1`
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) List(ctx context.Context) ([]*model.Patient, error) {
	query := `SELECT * FROM patients ORDER BY created_at ASC`
	var patients []*model.Patient
	err := r.db.SelectContext(ctx, &patients, query)
	return patients, err
}

func (r *patientRepository) UpdateCharges(ctx context.Context, id uuid.UUID, charges int) error {
	query := `UPDATE patients SET charges = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, charges, time.Now(), id); err != nil {
		return fmt.Errorf("failed to update charges: %w", err)
	}
	return nil
}

// TransitionStatus is a guarded write: a stale caller whose patient has
// already moved on affects zero rows and gets false back, not a silent
// overwrite.
func (r *patientRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.VisitStatus) (bool, error) {
	query := `UPDATE patients SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, to, time.Now(), id, from)
	if err != nil {
		return false, fmt.Errorf("failed to transition status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

func (r *patientRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE patients SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, model.StatusCompleted, time.Now(), id); err != nil {
		return fmt.Errorf("failed to mark patient completed: %w", err)
	}
	return nil
}

func (r *patientRepository) Stats(ctx context.Context) (*model.DashboardStats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'waiting') AS waiting,
			COUNT(*) FILTER (WHERE status = 'in_consultation') AS in_consultation,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed,
			COALESCE(SUM(charges), 0) AS revenue
		FROM patients
	`
	var stats model.DashboardStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to load dashboard stats: %w", err)
	}
	return &stats, nil
}
