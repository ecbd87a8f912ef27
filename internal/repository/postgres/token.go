package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medidesk/clinic-api/internal/repository"
)

type tokenRepository struct {
	db *sqlx.DB
}

func NewTokenRepository(db *sqlx.DB) repository.TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) StoreVerificationToken(ctx context.Context, accountID uuid.UUID, token string, expiresAt time.Time) error {
	query := `
		INSERT INTO verification_tokens (token, account_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, token, accountID, expiresAt, time.Now()); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}
	return nil
}

func (r *tokenRepository) ValidateVerificationToken(ctx context.Context, token string) (uuid.UUID, error) {
	query := `SELECT account_id FROM verification_tokens WHERE token = $1 AND expires_at > $2`
	var accountID uuid.UUID
	if err := r.db.GetContext(ctx, &accountID, query, token, time.Now()); err != nil {
		return uuid.Nil, fmt.Errorf("invalid or expired verification token: %w", err)
	}
	return accountID, nil
}

func (r *tokenRepository) InvalidateVerificationToken(ctx context.Context, token string) error {
	query := `DELETE FROM verification_tokens WHERE token = $1`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("failed to invalidate verification token: %w", err)
	}
	return nil
}

// RevokeSession is an upsert so that signing out twice stays a no-op.
func (r *tokenRepository) RevokeSession(ctx context.Context, token string, expiresAt time.Time) error {
	query := `
		INSERT INTO revoked_sessions (token, expires_at, revoked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, token, expiresAt, time.Now()); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (r *tokenRepository) IsSessionRevoked(ctx context.Context, token string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM revoked_sessions WHERE token = $1)`
	var revoked bool
	if err := r.db.GetContext(ctx, &revoked, query, token); err != nil {
		return false, fmt.Errorf("failed to check revoked session: %w", err)
	}
	return revoked, nil
}
