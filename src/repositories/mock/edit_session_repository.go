package mock

import (
	"context"
	"time"

	"github.com/brightboard/brightboard-server/src/models"
	"github.com/brightboard/brightboard-server/src/repositories"
	"github.com/google/uuid"
)

// EditSessionRepository is a mock implementation of repositories.EditSessionRepository
type EditSessionRepository struct {
	// Function stubs that can be overridden in tests
	FindActiveFunc         func(ctx context.Context, userID uuid.UUID) (*models.EditSession, error)
	FindActiveByHolderFunc func(ctx context.Context, userID, adminID uuid.UUID) (*models.EditSession, error)
	CreateFunc             func(ctx context.Context, session *models.EditSession) error
	UpdateFunc             func(ctx context.Context, session *models.EditSession) error
	DeleteFunc             func(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteByHolderFunc     func(ctx context.Context, userID, adminID uuid.UUID) (bool, error)
	DeleteExpiredFunc      func(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)

	// Call tracking
	Calls map[string][]interface{}
}

// NewEditSessionRepository creates a new mock edit session repository
func NewEditSessionRepository() *EditSessionRepository {
	return &EditSessionRepository{
		Calls: make(map[string][]interface{}),
	}
}

func (m *EditSessionRepository) FindActive(ctx context.Context, userID uuid.UUID) (*models.EditSession, error) {
	m.Calls["FindActive"] = append(m.Calls["FindActive"], userID)
	if m.FindActiveFunc != nil {
		return m.FindActiveFunc(ctx, userID)
	}
	return nil, nil
}

func (m *EditSessionRepository) FindActiveByHolder(ctx context.Context, userID, adminID uuid.UUID) (*models.EditSession, error) {
	m.Calls["FindActiveByHolder"] = append(m.Calls["FindActiveByHolder"], adminID)
	if m.FindActiveByHolderFunc != nil {
		return m.FindActiveByHolderFunc(ctx, userID, adminID)
	}
	return nil, nil
}

func (m *EditSessionRepository) Create(ctx context.Context, session *models.EditSession) error {
	m.Calls["Create"] = append(m.Calls["Create"], session)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, session)
	}
	return nil
}

func (m *EditSessionRepository) Update(ctx context.Context, session *models.EditSession) error {
	m.Calls["Update"] = append(m.Calls["Update"], session)
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, session)
	}
	return nil
}

func (m *EditSessionRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	m.Calls["Delete"] = append(m.Calls["Delete"], id)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return false, nil
}

func (m *EditSessionRepository) DeleteByHolder(ctx context.Context, userID, adminID uuid.UUID) (bool, error) {
	m.Calls["DeleteByHolder"] = append(m.Calls["DeleteByHolder"], adminID)
	if m.DeleteByHolderFunc != nil {
		return m.DeleteByHolderFunc(ctx, userID, adminID)
	}
	return false, nil
}

func (m *EditSessionRepository) DeleteExpired(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	m.Calls["DeleteExpired"] = append(m.Calls["DeleteExpired"], userID)
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx, userID, now)
	}
	return 0, nil
}

// Ensure EditSessionRepository implements the interface
var _ repositories.EditSessionRepository = (*EditSessionRepository)(nil)
