package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medidesk/clinic-api/internal/model"
)

type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	Get(ctx context.Context, id uuid.UUID) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	// UpsertRole assigns the account's role, replacing any prior assignment.
	// Idempotent.
	UpsertRole(ctx context.Context, accountID uuid.UUID, role model.Role) error
	SetVerified(ctx context.Context, accountID uuid.UUID) error
}

type TokenRepository interface {
	StoreVerificationToken(ctx context.Context, accountID uuid.UUID, token string, expiresAt time.Time) error
	ValidateVerificationToken(ctx context.Context, token string) (uuid.UUID, error)
	InvalidateVerificationToken(ctx context.Context, token string) error
	// RevokeSession denylists an access token until it would have expired.
	// Revoking an already-revoked token is not an error.
	RevokeSession(ctx context.Context, token string, expiresAt time.Time) error
	IsSessionRevoked(ctx context.Context, token string) (bool, error)
}

type PatientRepository interface {
	// Create persists the patient and fills ID, Token and timestamps. The
	// token comes from a store-side sequence so concurrent registrations
	// can never collide.
	Create(ctx context.Context, patient *model.Patient) error
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	List(ctx context.Context) ([]*model.Patient, error)
	UpdateCharges(ctx context.Context, id uuid.UUID, charges int) error
	// TransitionStatus moves the patient from one status to another. It
	// reports false, without error, when the patient was not in the
	// expected source status.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to model.VisitStatus) (bool, error)
	// MarkCompleted flips the patient to Completed. Idempotent: repeating
	// the write is a no-op.
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*model.DashboardStats, error)
}

type PrescriptionRepository interface {
	Create(ctx context.Context, prescription *model.Prescription) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error)
}

type HistoryRepository interface {
	Create(ctx context.Context, entry *model.HistoryEntry) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.HistoryEntry, error)
}
