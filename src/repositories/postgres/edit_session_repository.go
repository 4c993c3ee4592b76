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

const sessionColumns = `id, user_id, admin_id, admin_name, last_activity, expires_at, status, created_at`

// EditSessionRepository is the pgx-backed implementation of
// repositories.EditSessionRepository
type EditSessionRepository struct {
	pool *pgxpool.Pool
}

// NewEditSessionRepository creates a new edit session repository
func NewEditSessionRepository(pool *pgxpool.Pool) *EditSessionRepository {
	return &EditSessionRepository{pool: pool}
}

func scanSession(row pgx.Row) (*models.EditSession, error) {
	var s models.EditSession
	err := row.Scan(&s.ID, &s.UserID, &s.AdminID, &s.AdminName, &s.LastActivity, &s.ExpiresAt, &s.Status, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindActive returns the active lease for userID, or (nil, nil).
func (r *EditSessionRepository) FindActive(ctx context.Context, userID uuid.UUID) (*models.EditSession, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM edit_sessions
		WHERE user_id = $1 AND status = $2
	`, userID, models.SessionActive)
	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find edit session: %w", err)
	}
	return session, nil
}

// FindActiveByHolder returns the active lease matching both target and holder,
// or (nil, nil).
func (r *EditSessionRepository) FindActiveByHolder(ctx context.Context, userID, adminID uuid.UUID) (*models.EditSession, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM edit_sessions
		WHERE user_id = $1 AND admin_id = $2 AND status = $3
	`, userID, adminID, models.SessionActive)
	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find edit session: %w", err)
	}
	return session, nil
}

// Create inserts a lease. The partial unique index on (user_id) for active
// leases turns a losing race into repositories.ErrDuplicate.
func (r *EditSessionRepository) Create(ctx context.Context, session *models.EditSession) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO edit_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, session.ID, session.UserID, session.AdminID, session.AdminName,
		session.LastActivity, session.ExpiresAt, session.Status, session.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repositories.ErrDuplicate
		}
		return fmt.Errorf("failed to create edit session: %w", err)
	}
	return nil
}

// Update persists refreshed lease timestamps.
func (r *EditSessionRepository) Update(ctx context.Context, session *models.EditSession) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE edit_sessions
		SET last_activity = $2, expires_at = $3, status = $4
		WHERE id = $1
	`, session.ID, session.LastActivity, session.ExpiresAt, session.Status)
	if err != nil {
		return fmt.Errorf("failed to update edit session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("edit session not found: %s", session.ID)
	}
	return nil
}

// Delete removes a lease by id, reporting whether one existed.
func (r *EditSessionRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM edit_sessions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete edit session: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// DeleteByHolder removes any lease matching both target and holder.
func (r *EditSessionRepository) DeleteByHolder(ctx context.Context, userID, adminID uuid.UUID) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM edit_sessions WHERE user_id = $1 AND admin_id = $2
	`, userID, adminID)
	if err != nil {
		return false, fmt.Errorf("failed to delete edit session: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// DeleteExpired sweeps leases for userID that are past their absolute TTL.
// Inactivity expiry is judged at read time so the caller can report it
// distinctly from a missing lease.
func (r *EditSessionRepository) DeleteExpired(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM edit_sessions WHERE user_id = $1 AND expires_at <= $2
	`, userID, now)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep edit sessions: %w", err)
	}
	return result.RowsAffected(), nil
}

// Ensure EditSessionRepository implements the interface
var _ repositories.EditSessionRepository = (*EditSessionRepository)(nil)
