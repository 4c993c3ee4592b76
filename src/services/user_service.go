package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brightboard/brightboard-server/src/models"
	"github.com/brightboard/brightboard-server/src/repositories"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// UserUpdateInput carries an admin edit of a user profile. Nil fields are
// left unchanged. ExpectedUpdatedAt is the RFC3339 timestamp the caller
// last read; the write is rejected when it no longer matches.
type UserUpdateInput struct {
	FirstName            *string
	LastName             *string
	Email                *string
	Role                 *models.Role
	IsActive             *bool
	NotificationSettings *models.NotificationSettings
	ExpectedUpdatedAt    string
}

// UserService manages user accounts. Admin edits go through the edit
// session arbiter so two admins cannot clobber each other.
type UserService struct {
	users    repositories.UserRepository
	sessions *EditSessionService
	audit    *AuditService
	now      func() time.Time
}

// NewUserService creates a new user service
func NewUserService(users repositories.UserRepository, sessions *EditSessionService, audit *AuditService) *UserService {
	return &UserService{
		users:    users,
		sessions: sessions,
		audit:    audit,
		now:      time.Now,
	}
}

// WithClock overrides the service clock for tests.
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

// UserCreateInput carries an admin-created account.
type UserCreateInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      models.Role
}

// Create registers a user on behalf of an admin. No captcha, no welcome
// email; the admin hands over the credentials out of band.
func (s *UserService) Create(ctx context.Context, adminID uuid.UUID, in UserCreateInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || in.Password == "" || in.FirstName == "" {
		return nil, ErrMissingFields
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.RoleUser
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
		Role:         in.Role,
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

	s.audit.Record(ctx, AuditEntry{
		UserID:    &user.ID,
		UserEmail: user.Email,
		Action:    "user_created",
		Metadata: map[string]interface{}{
			"admin_id": adminID.String(),
		},
		Status: models.AuditStatusSuccess,
	})

	return user, nil
}

// Get returns one user by ID.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// Search returns users matching the query by name or email.
func (s *UserService) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.users.Search(ctx, query, limit)
}

// sameTimestamp compares a stored timestamp against the RFC3339 string a
// client sent back. Both sides are normalized to UTC seconds so format
// drift between clients does not cause false conflicts.
func sameTimestamp(stored time.Time, sent string) bool {
	parsed, err := time.Parse(time.RFC3339, sent)
	if err != nil {
		return false
	}
	return stored.UTC().Truncate(time.Second).Equal(parsed.UTC().Truncate(time.Second))
}

// Update applies an admin edit to a user. The write is rejected when
// another admin holds the edit session, or when the record changed since
// the caller read it. On success the caller's edit session is released.
func (s *UserService) Update(ctx context.Context, targetID, adminID uuid.UUID, in UserUpdateInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	holder, err := s.sessions.HolderOf(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if holder != nil && holder.AdminID != adminID {
		return nil, &LeaseHeldError{
			HolderID:   holder.AdminID.String(),
			HolderName: holder.AdminName,
			ExpiresAt:  holder.ExpiresAt,
			TimeLeft:   holder.TimeLeftMinutes(s.now()),
		}
	}

	if in.ExpectedUpdatedAt != "" && !sameTimestamp(user.UpdatedAt, in.ExpectedUpdatedAt) {
		return nil, ErrStaleWrite
	}

	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.Role != nil {
		user.Role = *in.Role
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if in.NotificationSettings != nil {
		settings := *in.NotificationSettings
		now := s.now()
		settings.UpdatedAt = &now
		user.NotificationSettings = settings
	}

	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	if _, err := s.sessions.Release(ctx, targetID, adminID); err != nil {
		log.Error().Err(err).
			Str("user_id", targetID.String()).
			Msg("Failed to release edit session after save")
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:    &user.ID,
		UserEmail: user.Email,
		Action:    "user_updated",
		Metadata: map[string]interface{}{
			"admin_id": adminID.String(),
		},
		Status: models.AuditStatusSuccess,
	})

	return user, nil
}

// Delete removes a user account. Admin accounts cannot be deleted.
func (s *UserService) Delete(ctx context.Context, targetID, adminID uuid.UUID) error {
	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.Role == models.RoleAdmin {
		return ErrForbidden
	}

	holder, err := s.sessions.HolderOf(ctx, targetID)
	if err != nil {
		return err
	}
	if holder != nil && holder.AdminID != adminID {
		return &LeaseHeldError{
			HolderID:   holder.AdminID.String(),
			HolderName: holder.AdminName,
			ExpiresAt:  holder.ExpiresAt,
			TimeLeft:   holder.TimeLeftMinutes(s.now()),
		}
	}

	removed, err := s.users.Delete(ctx, targetID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !removed {
		return ErrUserNotFound
	}

	s.audit.Record(ctx, AuditEntry{
		UserEmail: user.Email,
		Action:    "user_deleted",
		Metadata: map[string]interface{}{
			"admin_id": adminID.String(),
		},
		Status: models.AuditStatusWarning,
	})

	return nil
}

// ChangePassword verifies the current password and sets a new one.
func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if current == "" || next == "" {
		return ErrMissingFields
	}
	if err := validatePassword(next); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hash)
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to save password: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		UserID:    &user.ID,
		UserEmail: user.Email,
		Action:    "password_changed",
		Status:    models.AuditStatusSuccess,
	})

	return nil
}
