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

type historyRepository struct {
	db *sqlx.DB
}

func NewHistoryRepository(db *sqlx.DB) repository.HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Create(ctx context.Context, entry *model.HistoryEntry) error {
	query := `
		INSERT INTO history_entries (id, patient_id, visit_date, symptoms, prescription, charges, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	entry.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.PatientID,
		entry.VisitDate,
		entry.Symptoms,
		entry.Prescription,
		entry.Charges,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create history entry: %w", err)
	}
	return nil
}

func (r *historyRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.HistoryEntry, error) {
	query := `SELECT * FROM history_entries WHERE patient_id = $1 ORDER BY created_at DESC`
	var entries []*model.HistoryEntry
	err := r.db.SelectContext(ctx, &entries, query, patientID)
	return entries, err
}
