package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	// EditSessionTTL is the absolute lifetime of an edit lease
	EditSessionTTL = 15 * time.Minute
	// EditSessionIdle is the inactivity window after which a lease is dead
	// even if its absolute TTL has not elapsed
	EditSessionIdle = 5 * time.Minute
)

// EditSession is an advisory edit lease binding one target user to one
// editing admin.
type EditSession struct {
	ID           uuid.UUID     `json:"id"`
	UserID       uuid.UUID     `json:"user_id"`
	AdminID      uuid.UUID     `json:"admin_id"`
	AdminName    string        `json:"admin_name"`
	LastActivity time.Time     `json:"last_activity"`
	ExpiresAt    time.Time     `json:"expires_at"`
	Status       SessionStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
}

// NewEditSession creates an active lease for userID held by the given admin.
func NewEditSession(userID, adminID uuid.UUID, adminName string, now time.Time) *EditSession {
	return &EditSession{
		ID:           uuid.New(),
		UserID:       userID,
		AdminID:      adminID,
		AdminName:    adminName,
		LastActivity: now,
		ExpiresAt:    now.Add(EditSessionTTL),
		Status:       SessionActive,
		CreatedAt:    now,
	}
}

// IsLive reports whether the lease is current. Both the absolute TTL and the
// inactivity window must hold; a lease can be unexpired by TTL yet dead by
// inactivity.
func (s *EditSession) IsLive(now time.Time) bool {
	if s.Status != SessionActive {
		return false
	}
	return now.Before(s.ExpiresAt) && now.Sub(s.LastActivity) < EditSessionIdle
}

// TimeLeftMinutes returns the remaining lease time in whole minutes.
func (s *EditSession) TimeLeftMinutes(now time.Time) int {
	return int(math.Round(s.ExpiresAt.Sub(now).Minutes()))
}

// Refresh extends the lease from now, resetting both liveness clocks.
func (s *EditSession) Refresh(now time.Time) {
	s.LastActivity = now
	s.ExpiresAt = now.Add(EditSessionTTL)
}
