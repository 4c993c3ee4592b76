package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/brightboard/brightboard-server/src/models"
	"github.com/brightboard/brightboard-server/src/repositories"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `
	id, first_name, last_name, email, password_hash, role, is_active,
	last_login, last_active, login_count,
	failed_login_attempts, account_locked_until,
	locked_by_admin, locked_by_admin_at, locked_by_admin_id, locked_by_admin_name,
	lock_reason, lock_expires_at, lock_history,
	devices, notification_settings,
	created_at, updated_at`

// UserRepository is the pgx-backed implementation of repositories.UserRepository
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var lockHistory, devices, settings []byte

	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive,
		&u.LastLogin, &u.LastActive, &u.LoginCount,
		&u.FailedLoginAttempts, &u.AccountLockedUntil,
		&u.LockedByAdmin, &u.LockedByAdminAt, &u.LockedByAdminID, &u.LockedByAdminName,
		&u.LockReason, &u.LockExpiresAt, &lockHistory,
		&devices, &settings,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(lockHistory, &u.LockHistory); err != nil {
		return nil, fmt.Errorf("failed to decode lock history: %w", err)
	}
	if err := json.Unmarshal(devices, &u.Devices); err != nil {
		return nil, fmt.Errorf("failed to decode devices: %w", err)
	}
	if err := json.Unmarshal(settings, &u.NotificationSettings); err != nil {
		return nil, fmt.Errorf("failed to decode notification settings: %w", err)
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func encodeUserJSON(u *models.User) (lockHistory, devices, settings []byte, err error) {
	history := u.LockHistory
	if history == nil {
		history = []models.LockEvent{}
	}
	devs := u.Devices
	if devs == nil {
		devs = []models.Device{}
	}
	if lockHistory, err = json.Marshal(history); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode lock history: %w", err)
	}
	if devices, err = json.Marshal(devs); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode devices: %w", err)
	}
	if settings, err = json.Marshal(u.NotificationSettings); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode notification settings: %w", err)
	}
	return lockHistory, devices, settings, nil
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	lockHistory, devices, settings, err := encodeUserJSON(user)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10,
			$11, $12,
			$13, $14, $15, $16,
			$17, $18, $19,
			$20, $21,
			$22, $23)
	`,
		user.ID, user.FirstName, user.LastName, user.Email, user.PasswordHash, user.Role, user.IsActive,
		user.LastLogin, user.LastActive, user.LoginCount,
		user.FailedLoginAttempts, user.AccountLockedUntil,
		user.LockedByAdmin, user.LockedByAdminAt, user.LockedByAdminID, user.LockedByAdminName,
		user.LockReason, user.LockExpiresAt, lockHistory,
		devices, settings,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repositories.ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID loads a user by id, returning (nil, nil) when absent.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByEmail loads a user by email, returning (nil, nil) when absent.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// Update persists all mutable fields verbatim, including UpdatedAt.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	lockHistory, devices, settings, err := encodeUserJSON(user)
	if err != nil {
		return err
	}

	result, err := r.pool.Exec(ctx, `
		UPDATE users SET
			first_name = $2, last_name = $3, email = $4, password_hash = $5,
			role = $6, is_active = $7,
			last_login = $8, last_active = $9, login_count = $10,
			failed_login_attempts = $11, account_locked_until = $12,
			locked_by_admin = $13, locked_by_admin_at = $14, locked_by_admin_id = $15,
			locked_by_admin_name = $16, lock_reason = $17, lock_expires_at = $18,
			lock_history = $19, devices = $20, notification_settings = $21,
			updated_at = $22
		WHERE id = $1
	`,
		user.ID, user.FirstName, user.LastName, user.Email, user.PasswordHash,
		user.Role, user.IsActive,
		user.LastLogin, user.LastActive, user.LoginCount,
		user.FailedLoginAttempts, user.AccountLockedUntil,
		user.LockedByAdmin, user.LockedByAdminAt, user.LockedByAdminID,
		user.LockedByAdminName, user.LockReason, user.LockExpiresAt,
		lockHistory, devices, settings,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repositories.ErrDuplicate
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %s", user.ID)
	}
	return nil
}

// Delete removes a user row, reporting whether one existed.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// List returns all users ordered by most recently updated.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

// Search matches name or email case-insensitively.
func (r *UserRepository) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE first_name ILIKE '%' || $1 || '%'
		   OR last_name ILIKE '%' || $1 || '%'
		   OR email ILIKE '%' || $1 || '%'
		ORDER BY updated_at DESC
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]models.User, error) {
	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// Ensure UserRepository implements the interface
var _ repositories.UserRepository = (*UserRepository)(nil)
