package services

import (
	"context"
	"time"

	"github.com/brightboard/brightboard-server/src/models"
	"github.com/brightboard/brightboard-server/src/repositories"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AuditEntry is the caller-facing shape of one audit record.
type AuditEntry struct {
	UserID      *uuid.UUID
	UserEmail   string
	Action      string
	Description string
	Metadata    map[string]interface{}
	IPAddress   string
	UserAgent   string
	Status      string
}

// AuditService writes append-only audit records. Recording is best-effort:
// a failed insert is logged and swallowed so it never fails the operation
// being audited.
type AuditService struct {
	audits repositories.AuditRepository
	now    func() time.Time
}

// NewAuditService creates a new audit service
func NewAuditService(audits repositories.AuditRepository) *AuditService {
	return &AuditService{
		audits: audits,
		now:    time.Now,
	}
}

// WithClock overrides the service clock for tests.
func (s *AuditService) WithClock(now func() time.Time) *AuditService {
	s.now = now
	return s
}

// Record appends one audit entry.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	record := &models.AuditLog{
		ID:          uuid.New(),
		UserID:      entry.UserID,
		UserEmail:   entry.UserEmail,
		Action:      entry.Action,
		Description: entry.Description,
		Metadata:    entry.Metadata,
		IPAddress:   entry.IPAddress,
		UserAgent:   entry.UserAgent,
		Status:      entry.Status,
		CreatedAt:   s.now(),
	}
	if record.Status == "" {
		record.Status = models.AuditStatusSuccess
	}

	if err := s.audits.Insert(ctx, record); err != nil {
		log.Error().Err(err).
			Str("action", entry.Action).
			Str("email", entry.UserEmail).
			Msg("Failed to write audit log")
	}
}

// ListForUser returns one page of a user's audit trail, newest first.
func (s *AuditService) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.AuditLog, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.audits.ListByUser(ctx, userID, limit, offset)
}
