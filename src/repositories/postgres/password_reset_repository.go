package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brightboard/brightboard-server/src/models"
	"github.com/brightboard/brightboard-server/src/repositories"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PasswordResetRepository is the pgx-backed implementation of
// repositories.PasswordResetRepository
type PasswordResetRepository struct {
	pool *pgxpool.Pool
}

// NewPasswordResetRepository creates a new password reset repository
func NewPasswordResetRepository(pool *pgxpool.Pool) *PasswordResetRepository {
	return &PasswordResetRepository{pool: pool}
}

// Create stores a freshly issued reset code.
func (r *PasswordResetRepository) Create(ctx context.Context, reset *models.PasswordReset) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO password_resets (id, email, code, verified, used, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, reset.ID, reset.Email, reset.Code, reset.Verified, reset.Used, reset.ExpiresAt, reset.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert password reset: %w", err)
	}
	return nil
}

// FindCurrent returns the most recent unused code for the email.
func (r *PasswordResetRepository) FindCurrent(ctx context.Context, email string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, code, verified, used, expires_at, created_at
		FROM password_resets
		WHERE email = $1 AND used = FALSE
		ORDER BY created_at DESC
		LIMIT 1
	`, email).Scan(
		&reset.ID, &reset.Email, &reset.Code, &reset.Verified, &reset.Used,
		&reset.ExpiresAt, &reset.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query password reset: %w", err)
	}
	return &reset, nil
}

// InvalidateAll marks every outstanding code for the email as used.
func (r *PasswordResetRepository) InvalidateAll(ctx context.Context, email string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE password_resets SET used = TRUE WHERE email = $1 AND used = FALSE
	`, email)
	if err != nil {
		return fmt.Errorf("failed to invalidate password resets: %w", err)
	}
	return nil
}

// MarkVerified records that the holder proved possession of the code.
func (r *PasswordResetRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE password_resets SET verified = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark password reset verified: %w", err)
	}
	return nil
}

// MarkUsed burns the code after a successful reset.
func (r *PasswordResetRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE password_resets SET used = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark password reset used: %w", err)
	}
	return nil
}

// DeleteExpired removes codes whose validity window is past the cutoff.
func (r *PasswordResetRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM password_resets WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired password resets: %w", err)
	}
	return result.RowsAffected(), nil
}

// Ensure PasswordResetRepository implements the interface
var _ repositories.PasswordResetRepository = (*PasswordResetRepository)(nil)
