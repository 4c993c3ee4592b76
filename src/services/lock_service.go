package services

import (
	"context"
	"fmt"
	"time"

	"github.com/brightboard/brightboard-server/src/models"
	"github.com/brightboard/brightboard-server/src/repositories"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// LockStatus describes every lock currently affecting an account.
type LockStatus struct {
	Locked             bool               `json:"locked"`
	Kind               string             `json:"kind"`
	Reason             string             `json:"reason,omitempty"`
	LockedByAdminName  string             `json:"locked_by_admin_name,omitempty"`
	LockExpiresAt      *time.Time         `json:"lock_expires_at,omitempty"`
	AccountLockedUntil *time.Time         `json:"account_locked_until,omitempty"`
	FailedAttempts     int                `json:"failed_attempts"`
	History            []models.LockEvent `json:"history,omitempty"`
}

// LockService applies and clears administrative account locks.
type LockService struct {
	users     repositories.UserRepository
	audit     *AuditService
	analytics *AnalyticsService
	email     *EmailService
	now       func() time.Time
}

// NewLockService creates a new lock service
func NewLockService(users repositories.UserRepository, audit *AuditService, analytics *AnalyticsService, email *EmailService) *LockService {
	return &LockService{
		users:     users,
		audit:     audit,
		analytics: analytics,
		email:     email,
		now:       time.Now,
	}
}

// WithClock overrides the service clock for tests.
func (s *LockService) WithClock(now func() time.Time) *LockService {
	s.now = now
	return s
}

// Lock applies an administrative lock to the target account. A nil
// duration makes the lock permanent. Admins cannot lock themselves or
// other admins.
func (s *LockService) Lock(ctx context.Context, targetID, adminID uuid.UUID, adminName, reason string, duration *time.Duration) (*models.User, error) {
	if targetID == adminID {
		return nil, ErrSelfLock
	}

	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Role == models.RoleAdmin {
		return nil, ErrAdminTarget
	}

	now := s.now()
	user.ApplyAdminLock(adminID, adminName, reason, duration, now)
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save lock: %w", err)
	}

	permanent := duration == nil
	s.audit.Record(ctx, AuditEntry{
		UserID:      &user.ID,
		UserEmail:   user.Email,
		Action:      "account_locked",
		Description: reason,
		Metadata: map[string]interface{}{
			"admin_id":   adminID.String(),
			"admin_name": adminName,
			"permanent":  permanent,
		},
		Status: models.AuditStatusWarning,
	})
	if s.analytics != nil {
		s.analytics.TrackAccountAdminLocked(ctx, HashEmail(user.Email), permanent)
	}
	if s.email != nil {
		until := ""
		if user.LockExpiresAt != nil {
			until = user.LockExpiresAt.Format(time.RFC1123)
		}
		if err := s.email.SendAccountLockedEmail(ctx, user.Email, user.FirstName, reason, until); err != nil {
			log.Error().Err(err).Str("email", user.Email).Msg("Failed to send lock notification")
		}
	}

	log.Warn().
		Str("user_id", user.ID.String()).
		Str("admin_id", adminID.String()).
		Bool("permanent", permanent).
		Msg("Account locked by administrator")

	return user, nil
}

// Unlock clears every lock on the account: the administrative lock, the
// failure counter, and the auto-lock window. The account is reactivated.
// An account with no effective lock is rejected; unlock must never be a
// backdoor for reactivating a deliberately deactivated account.
func (s *LockService) Unlock(ctx context.Context, targetID, adminID uuid.UUID, adminName, reason string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	now := s.now()
	if user.EffectiveLock(now) == models.LockNone {
		return nil, ErrNotLocked
	}
	user.ClearLocks(adminID, adminName, reason, now)
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save unlock: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:      &user.ID,
		UserEmail:   user.Email,
		Action:      "account_unlocked",
		Description: reason,
		Metadata: map[string]interface{}{
			"admin_id":   adminID.String(),
			"admin_name": adminName,
		},
		Status: models.AuditStatusSuccess,
	})

	log.Info().
		Str("user_id", user.ID.String()).
		Str("admin_id", adminID.String()).
		Msg("Account unlocked by administrator")

	return user, nil
}

// Status reports the locks currently affecting the account.
func (s *LockService) Status(ctx context.Context, targetID uuid.UUID) (*LockStatus, error) {
	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	now := s.now()
	status := &LockStatus{
		FailedAttempts: user.FailedLoginAttempts,
		History:        user.LockHistory,
	}

	switch user.EffectiveLock(now) {
	case models.LockAdmin:
		status.Locked = true
		status.Kind = "admin"
		status.Reason = user.LockReason
		status.LockedByAdminName = user.LockedByAdminName
		status.LockExpiresAt = user.LockExpiresAt
	case models.LockAuto:
		status.Locked = true
		status.Kind = "auto"
		status.AccountLockedUntil = user.AccountLockedUntil
	default:
		status.Kind = "none"
	}

	return status, nil
}
