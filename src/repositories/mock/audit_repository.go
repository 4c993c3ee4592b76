package mock

import (
	"context"
	"time"

	"github.com/brightboard/brightboard-server/src/models"
	"github.com/brightboard/brightboard-server/src/repositories"
	"github.com/google/uuid"
)

// AuditRepository is a mock implementation of repositories.AuditRepository
type AuditRepository struct {
	// Function stubs that can be overridden in tests
	InsertFunc          func(ctx context.Context, entry *models.AuditLog) error
	ListByUserFunc      func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.AuditLog, int, error)
	DeleteOlderThanFunc func(ctx context.Context, cutoff time.Time) (int64, error)

	// Call tracking
	Calls map[string][]interface{}
}

// NewAuditRepository creates a new mock audit repository
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{
		Calls: make(map[string][]interface{}),
	}
}

func (m *AuditRepository) Insert(ctx context.Context, entry *models.AuditLog) error {
	m.Calls["Insert"] = append(m.Calls["Insert"], entry)
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, entry)
	}
	return nil
}

func (m *AuditRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.AuditLog, int, error) {
	m.Calls["ListByUser"] = append(m.Calls["ListByUser"], userID)
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset)
	}
	return nil, 0, nil
}

func (m *AuditRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.Calls["DeleteOlderThan"] = append(m.Calls["DeleteOlderThan"], cutoff)
	if m.DeleteOlderThanFunc != nil {
		return m.DeleteOlderThanFunc(ctx, cutoff)
	}
	return 0, nil
}

// Ensure AuditRepository implements the interface
var _ repositories.AuditRepository = (*AuditRepository)(nil)
