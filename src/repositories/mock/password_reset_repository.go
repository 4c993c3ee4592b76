package mock

import (
	"context"
	"time"

	"github.com/brightboard/brightboard-server/src/models"
	"github.com/brightboard/brightboard-server/src/repositories"
	"github.com/google/uuid"
)

// PasswordResetRepository is a mock implementation of repositories.PasswordResetRepository
type PasswordResetRepository struct {
	// Function stubs that can be overridden in tests
	CreateFunc        func(ctx context.Context, reset *models.PasswordReset) error
	FindCurrentFunc   func(ctx context.Context, email string) (*models.PasswordReset, error)
	InvalidateAllFunc func(ctx context.Context, email string) error
	MarkVerifiedFunc  func(ctx context.Context, id uuid.UUID) error
	MarkUsedFunc      func(ctx context.Context, id uuid.UUID) error
	DeleteExpiredFunc func(ctx context.Context, cutoff time.Time) (int64, error)

	// Call tracking
	Calls map[string][]interface{}
}

// NewPasswordResetRepository creates a new mock password reset repository
func NewPasswordResetRepository() *PasswordResetRepository {
	return &PasswordResetRepository{
		Calls: make(map[string][]interface{}),
	}
}

func (m *PasswordResetRepository) Create(ctx context.Context, reset *models.PasswordReset) error {
	m.Calls["Create"] = append(m.Calls["Create"], reset)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, reset)
	}
	return nil
}

func (m *PasswordResetRepository) FindCurrent(ctx context.Context, email string) (*models.PasswordReset, error) {
	m.Calls["FindCurrent"] = append(m.Calls["FindCurrent"], email)
	if m.FindCurrentFunc != nil {
		return m.FindCurrentFunc(ctx, email)
	}
	return nil, nil
}

func (m *PasswordResetRepository) InvalidateAll(ctx context.Context, email string) error {
	m.Calls["InvalidateAll"] = append(m.Calls["InvalidateAll"], email)
	if m.InvalidateAllFunc != nil {
		return m.InvalidateAllFunc(ctx, email)
	}
	return nil
}

func (m *PasswordResetRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	m.Calls["MarkVerified"] = append(m.Calls["MarkVerified"], id)
	if m.MarkVerifiedFunc != nil {
		return m.MarkVerifiedFunc(ctx, id)
	}
	return nil
}

func (m *PasswordResetRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	m.Calls["MarkUsed"] = append(m.Calls["MarkUsed"], id)
	if m.MarkUsedFunc != nil {
		return m.MarkUsedFunc(ctx, id)
	}
	return nil
}

func (m *PasswordResetRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	m.Calls["DeleteExpired"] = append(m.Calls["DeleteExpired"], cutoff)
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx, cutoff)
	}
	return 0, nil
}

// Ensure PasswordResetRepository implements the interface
var _ repositories.PasswordResetRepository = (*PasswordResetRepository)(nil)
