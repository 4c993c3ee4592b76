package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/brightboard/brightboard-server/src/models"
	"github.com/brightboard/brightboard-server/src/repositories"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// PasswordService runs the email reset code flow: request a code, verify
// it, then set the new password. Request never reveals whether the email
// exists.
type PasswordService struct {
	users     repositories.UserRepository
	resets    repositories.PasswordResetRepository
	email     *EmailService
	audit     *AuditService
	analytics *AnalyticsService
	now       func() time.Time
}

// NewPasswordService creates a new password service
func NewPasswordService(users repositories.UserRepository, resets repositories.PasswordResetRepository, email *EmailService, audit *AuditService, analytics *AnalyticsService) *PasswordService {
	return &PasswordService{
		users:     users,
		resets:    resets,
		email:     email,
		audit:     audit,
		analytics: analytics,
		now:       time.Now,
	}
}

// WithClock overrides the service clock for tests.
func (s *PasswordService) WithClock(now func() time.Time) *PasswordService {
	s.now = now
	return s
}

// generateResetCode returns a random 6-digit code, zero-padded.
func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// RequestReset issues a reset code for the email. It returns nil even
// when no account exists so the endpoint cannot be used to probe emails.
func (s *PasswordService) RequestReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ErrMissingFields
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		log.Debug().Str("email", email).Msg("Reset requested for unknown email")
		return nil
	}

	if err := s.resets.InvalidateAll(ctx, email); err != nil {
		return fmt.Errorf("failed to invalidate previous codes: %w", err)
	}

	code, err := generateResetCode()
	if err != nil {
		return err
	}

	now := s.now()
	reset := &models.PasswordReset{
		ID:        uuid.New(),
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(models.ResetCodeTTL),
		CreatedAt: now,
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}

	if s.email == nil {
		log.Warn().Str("email", email).Msg("Email delivery not configured, reset code stored but not sent")
	} else {
		expiryMinutes := int(models.ResetCodeTTL / time.Minute)
		if err := s.email.SendResetCodeEmail(ctx, email, user.FirstName, code, expiryMinutes); err != nil {
			return fmt.Errorf("failed to send reset code: %w", err)
		}
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:    &user.ID,
		UserEmail: email,
		Action:    "password_reset_requested",
		Status:    models.AuditStatusSuccess,
	})
	if s.analytics != nil {
		s.analytics.TrackPasswordResetRequested(ctx, HashEmail(email))
	}

	return nil
}

// VerifyCode checks a reset code without burning it.
func (s *PasswordService) VerifyCode(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || code == "" {
		return ErrMissingFields
	}

	reset, err := s.resets.FindCurrent(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to load reset code: %w", err)
	}
	if reset == nil || reset.Code != code {
		return ErrResetCodeInvalid
	}
	if reset.IsExpired(s.now()) {
		return ErrResetCodeExpired
	}

	if err := s.resets.MarkVerified(ctx, reset.ID); err != nil {
		return fmt.Errorf("failed to mark code verified: %w", err)
	}
	return nil
}

// ResetPassword sets a new password after a verified code. The code is
// burned and the account's failure counter is cleared.
func (s *PasswordService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || code == "" || newPassword == "" {
		return ErrMissingFields
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	reset, err := s.resets.FindCurrent(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to load reset code: %w", err)
	}
	if reset == nil || reset.Code != code {
		return ErrResetCodeInvalid
	}
	if reset.IsExpired(s.now()) {
		return ErrResetCodeExpired
	}
	if !reset.Verified {
		return ErrResetNotVerified
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user.PasswordHash = string(hash)
	user.SetLockout(models.LockoutState{})
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to save password: %w", err)
	}

	if err := s.resets.MarkUsed(ctx, reset.ID); err != nil {
		return fmt.Errorf("failed to burn reset code: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:    &user.ID,
		UserEmail: email,
		Action:    "password_reset_completed",
		Status:    models.AuditStatusSuccess,
	})

	return nil
}
