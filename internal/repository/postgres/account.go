package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medidesk/clinic-api/internal/model"
	"github.com/medidesk/clinic-api/internal/repository"
)

type accountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

// Role lives in its own table so that a failed role assignment after
// sign-up leaves a valid account behind. Reads left-join it; an account
// without a row there comes back with an empty role.
const accountColumns = `
	a.id, a.email, a.password_hash, a.full_name, a.verification,
	a.created_at, a.updated_at, COALESCE(r.role, '') AS role
`

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	query := `
		INSERT INTO accounts (id, email, password_hash, full_name, verification, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	account.CreatedAt = time.Now()
	account.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.FullName,
		account.Verification,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts a
		LEFT JOIN account_roles r ON r.account_id = a.id
		WHERE a.id = $1
	`
	var account model.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts a
		LEFT JOIN account_roles r ON r.account_id = a.id
		WHERE a.email = $1
	`
	var account model.Account
	if err := r.db.GetContext(ctx, &account, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return &account, nil
}

func (r *accountRepository) UpsertRole(ctx context.Context, accountID uuid.UUID, role model.Role) error {
	query := `
		INSERT INTO account_roles (account_id, role, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id) DO UPDATE SET role = EXCLUDED.role
	`
	if _, err := r.db.ExecContext(ctx, query, accountID, role, time.Now()); err != nil {
		return fmt.Errorf("failed to upsert role: %w", err)
	}
	return nil
}

func (r *accountRepository) SetVerified(ctx context.Context, accountID uuid.UUID) error {
	query := `UPDATE accounts SET verification = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, model.VerificationVerified, time.Now(), accountID); err != nil {
		return fmt.Errorf("failed to mark account verified: %w", err)
	}
	return nil
}
