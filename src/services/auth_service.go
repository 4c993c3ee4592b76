package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brightboard/brightboard-server/src/middleware"
	"github.com/brightboard/brightboard-server/src/models"
	"github.com/brightboard/brightboard-server/src/repositories"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// FailedLoginError reports a rejected password with the number of attempts
// left before the account locks. It unwraps to ErrInvalidCredentials.
type FailedLoginError struct {
	AttemptsRemaining int
	JustLocked        bool
}

func (e *FailedLoginError) Error() string {
	if e.JustLocked {
		return "invalid credentials, account is now locked"
	}
	return fmt.Sprintf("invalid credentials, %d attempts remaining", e.AttemptsRemaining)
}

func (e *FailedLoginError) Unwrap() error {
	return ErrInvalidCredentials
}

// LoginInput carries one login attempt.
type LoginInput struct {
	Email        string
	Password     string
	CaptchaToken string
	DeviceID     string
	IPAddress    string
	UserAgent    string
}

// LoginResult is a successful authentication.
type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// SignupInput carries a registration request.
type SignupInput struct {
	FirstName    string
	LastName     string
	Email        string
	Password     string
	CaptchaToken string
	IPAddress    string
	UserAgent    string
}

// AuthService authenticates users. Login runs a fixed chain of gates;
// each gate rejects on its own and later gates never run, so a locked
// account cannot leak whether the password was right.
type AuthService struct {
	users     repositories.UserRepository
	captcha   *CaptchaService
	audit     *AuditService
	analytics *AnalyticsService
	email     *EmailService
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(users repositories.UserRepository, captcha *CaptchaService, audit *AuditService, analytics *AnalyticsService, email *EmailService) *AuthService {
	return &AuthService{
		users:     users,
		captcha:   captcha,
		audit:     audit,
		analytics: analytics,
		email:     email,
		now:       time.Now,
	}
}

// WithClock overrides the service clock for tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

func (s *AuthService) recordLoginFailure(ctx context.Context, in LoginInput, userID *uuid.UUID, reason string) {
	s.audit.Record(ctx, AuditEntry{
		UserID:      userID,
		UserEmail:   in.Email,
		Action:      "login_failed",
		Description: reason,
		IPAddress:   in.IPAddress,
		UserAgent:   in.UserAgent,
		Status:      models.AuditStatusFailure,
	})
	if s.analytics != nil {
		s.analytics.TrackLoginFailed(ctx, HashEmail(in.Email), reason)
	}
}

// Login authenticates a user and returns a signed token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if in.Email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}

	ok, err := s.captcha.Verify(ctx, in.CaptchaToken, in.IPAddress)
	if err != nil {
		return nil, fmt.Errorf("captcha check failed: %w", err)
	}
	if !ok {
		s.recordLoginFailure(ctx, in, nil, "captcha rejected")
		return nil, ErrCaptchaFailed
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		s.recordLoginFailure(ctx, in, nil, "unknown email")
		return nil, ErrInvalidCredentials
	}

	now := s.now()

	if user.IsLockedByAdmin(now) {
		s.recordLoginFailure(ctx, in, &user.ID, "account locked by administrator")
		return nil, &AdminLockedError{
			Reason:   user.LockReason,
			LockedBy: user.LockedByAdminName,
		}
	}

	lockout := user.Lockout()
	if lockout.IsLocked(now) {
		s.recordLoginFailure(ctx, in, &user.ID, "account locked after failed attempts")
		return nil, &AccountLockedError{Minutes: lockout.RemainingMinutes(now)}
	}

	if !user.IsActive {
		s.recordLoginFailure(ctx, in, &user.ID, "account deactivated")
		return nil, ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		lockout = lockout.RecordFailure(now)
		user.SetLockout(lockout)
		user.UpdatedAt = now
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to record login failure: %w", err)
		}

		justLocked := lockout.IsLocked(now)
		reason := "wrong password"
		if justLocked {
			reason = "wrong password, account locked"
			if s.analytics != nil {
				s.analytics.TrackAccountAutoLocked(ctx, HashEmail(in.Email))
			}
		}
		s.recordLoginFailure(ctx, in, &user.ID, reason)

		return nil, &FailedLoginError{
			AttemptsRemaining: lockout.AttemptsRemaining(),
			JustLocked:        justLocked,
		}
	}

	user.SetLockout(lockout.RecordSuccess())
	user.LastLogin = &now
	user.LastActive = &now
	user.LoginCount++
	if in.DeviceID != "" {
		user.TouchDevice(in.DeviceID, in.UserAgent, in.IPAddress, now)
	}
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	token, err := middleware.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:    &user.ID,
		UserEmail: user.Email,
		Action:    "login_succeeded",
		IPAddress: in.IPAddress,
		UserAgent: in.UserAgent,
		Status:    models.AuditStatusSuccess,
	})
	if s.analytics != nil {
		s.analytics.TrackLoginSucceeded(ctx, HashEmail(user.Email))
	}

	log.Info().Str("user_id", user.ID.String()).Msg("User logged in")

	return &LoginResult{Token: token, User: user}, nil
}

// validatePassword enforces the password policy: at least 8 characters
// with one letter and one digit.
func validatePassword(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			hasLetter = true
		}
	}
	if !hasLetter || !hasDigit {
		return ErrWeakPassword
	}
	return nil
}

// Signup registers a new account with the default user role.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*LoginResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if in.Email == "" || in.Password == "" || in.FirstName == "" {
		return nil, ErrMissingFields
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	ok, err := s.captcha.Verify(ctx, in.CaptchaToken, in.IPAddress)
	if err != nil {
		return nil, fmt.Errorf("captcha check failed: %w", err)
	}
	if !ok {
		return nil, ErrCaptchaFailed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.New(),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		IsActive:     true,
		NotificationSettings: models.NotificationSettings{
			EmailNotifications: true,
			ProjectUpdates:     true,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := middleware.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:    &user.ID,
		UserEmail: user.Email,
		Action:    "signup",
		IPAddress: in.IPAddress,
		UserAgent: in.UserAgent,
		Status:    models.AuditStatusSuccess,
	})
	if s.analytics != nil {
		s.analytics.TrackSignupCompleted(ctx, HashEmail(user.Email))
	}
	if s.email != nil {
		if err := s.email.SendWelcomeEmail(ctx, user.Email, user.FirstName); err != nil {
			log.Error().Err(err).Str("email", user.Email).Msg("Failed to send welcome email")
		}
	}

	return &LoginResult{Token: token, User: user}, nil
}
