package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/brightboard/brightboard-server/src/models"
	"github.com/google/uuid"
)

// ErrDuplicate indicates an insert collided with a uniqueness constraint
// (duplicate email, or a second active lease for the same target).
var ErrDuplicate = errors.New("duplicate record")

// UserRepository defines the interface for user data access.
// Lookups return (nil, nil) when no row matches.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Update persists all mutable fields verbatim, including UpdatedAt;
	// callers stamp UpdatedAt themselves so expiry math stays testable.
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context) ([]models.User, error)
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
}

// EditSessionRepository defines the interface for edit lease data access.
// Lookups return (nil, nil) when no row matches.
type EditSessionRepository interface {
	FindActive(ctx context.Context, userID uuid.UUID) (*models.EditSession, error)
	FindActiveByHolder(ctx context.Context, userID, adminID uuid.UUID) (*models.EditSession, error)
	Create(ctx context.Context, session *models.EditSession) error
	Update(ctx context.Context, session *models.EditSession) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteByHolder(ctx context.Context, userID, adminID uuid.UUID) (bool, error)
	// DeleteExpired removes leases for userID that are past their absolute
	// TTL as of now. Inactivity expiry is detected at read time.
	DeleteExpired(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
}

// AuditRepository defines the interface for audit log data access
type AuditRepository interface {
	Insert(ctx context.Context, entry *models.AuditLog) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.AuditLog, int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PasswordResetRepository defines the interface for reset code data access
type PasswordResetRepository interface {
	Create(ctx context.Context, reset *models.PasswordReset) error
	// FindCurrent returns the most recent unused code for the email, or
	// (nil, nil) when none exists.
	FindCurrent(ctx context.Context, email string) (*models.PasswordReset, error)
	InvalidateAll(ctx context.Context, email string) error
	MarkVerified(ctx context.Context, id uuid.UUID) error
	MarkUsed(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
