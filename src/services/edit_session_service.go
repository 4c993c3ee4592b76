package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brightboard/brightboard-server/src/models"
	"github.com/brightboard/brightboard-server/src/repositories"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Editor describes the current holder of an edit session.
type Editor struct {
	AdminID         uuid.UUID `json:"admin_id"`
	AdminName       string    `json:"admin_name"`
	StartedAt       time.Time `json:"started_at"`
	LastActivity    time.Time `json:"last_activity"`
	ExpiresAt       time.Time `json:"expires_at"`
	TimeLeftMinutes int       `json:"time_left_minutes"`
}

// AcquireResult is the outcome of an acquire attempt. HasPriority is true
// when the caller now holds (or already held) the session.
type AcquireResult struct {
	HasPriority bool       `json:"has_priority"`
	SessionID   *uuid.UUID `json:"session_id,omitempty"`
	Editor      *Editor    `json:"editor,omitempty"`
}

// SessionStatusResult reports whether a target user is currently being
// edited and by whom.
type SessionStatusResult struct {
	Locked bool    `json:"locked"`
	Editor *Editor `json:"editor,omitempty"`
}

// EditSessionService arbitrates cooperative edit sessions over users.
// Expired sessions are swept opportunistically on every operation; there
// is no background reaper.
type EditSessionService struct {
	sessions repositories.EditSessionRepository
	users    repositories.UserRepository
	now      func() time.Time
}

// NewEditSessionService creates a new edit session service
func NewEditSessionService(sessions repositories.EditSessionRepository, users repositories.UserRepository) *EditSessionService {
	return &EditSessionService{
		sessions: sessions,
		users:    users,
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Tests use this to control expiry.
func (s *EditSessionService) WithClock(now func() time.Time) *EditSessionService {
	s.now = now
	return s
}

func editorFor(session *models.EditSession, now time.Time) *Editor {
	return &Editor{
		AdminID:         session.AdminID,
		AdminName:       session.AdminName,
		StartedAt:       session.CreatedAt,
		LastActivity:    session.LastActivity,
		ExpiresAt:       session.ExpiresAt,
		TimeLeftMinutes: session.TimeLeftMinutes(now),
	}
}

// sweep drops any sessions for userID that are past their TTL or idle
// window, then returns the surviving active session, if any.
func (s *EditSessionService) sweep(ctx context.Context, userID uuid.UUID, now time.Time) (*models.EditSession, error) {
	removed, err := s.sessions.DeleteExpired(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to sweep edit sessions: %w", err)
	}
	if removed > 0 {
		log.Debug().
			Str("user_id", userID.String()).
			Int64("removed", removed).
			Msg("Swept expired edit sessions")
	}

	session, err := s.sessions.FindActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up edit session: %w", err)
	}
	if session != nil && !session.IsLive(now) {
		// Raced past the sweep; treat as gone.
		if _, err := s.sessions.Delete(ctx, session.ID); err != nil {
			return nil, fmt.Errorf("failed to remove stale edit session: %w", err)
		}
		return nil, nil
	}
	return session, nil
}

// Acquire attempts to take the edit session for userID on behalf of the
// admin. Reacquiring a session the caller already holds is an idempotent
// read; the existing lease is reported without a new one being minted.
func (s *EditSessionService) Acquire(ctx context.Context, userID, adminID uuid.UUID, adminName string) (*AcquireResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	now := s.now()
	current, err := s.sweep(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	if current != nil {
		if current.AdminID == adminID {
			// Already the holder; report the lease as is. Heartbeat,
			// not acquire, is what extends it.
			return &AcquireResult{
				HasPriority: true,
				SessionID:   &current.ID,
				Editor:      editorFor(current, now),
			}, nil
		}
		return &AcquireResult{
			HasPriority: false,
			Editor:      editorFor(current, now),
		}, nil
	}

	session := models.NewEditSession(userID, adminID, adminName, now)
	if err := s.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			// Lost the race; report whoever got there first.
			winner, ferr := s.sessions.FindActive(ctx, userID)
			if ferr != nil {
				return nil, fmt.Errorf("failed to look up edit session: %w", ferr)
			}
			if winner != nil && winner.AdminID != adminID {
				return &AcquireResult{
					HasPriority: false,
					Editor:      editorFor(winner, now),
				}, nil
			}
			if winner != nil {
				return &AcquireResult{
					HasPriority: true,
					SessionID:   &winner.ID,
					Editor:      editorFor(winner, now),
				}, nil
			}
		}
		return nil, fmt.Errorf("failed to create edit session: %w", err)
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("admin_id", adminID.String()).
		Msg("Edit session acquired")

	return &AcquireResult{
		HasPriority: true,
		SessionID:   &session.ID,
		Editor:      editorFor(session, now),
	}, nil
}

// Heartbeat extends the caller's session. The TTL sweep runs first, so a
// session past its absolute TTL reads as ErrSessionNotFound; a session
// that survived the sweep but lapsed by inactivity is removed and reported
// as ErrSessionExpired.
func (s *EditSessionService) Heartbeat(ctx context.Context, userID, adminID uuid.UUID) (*Editor, error) {
	now := s.now()
	if _, err := s.sessions.DeleteExpired(ctx, userID, now); err != nil {
		return nil, fmt.Errorf("failed to sweep edit sessions: %w", err)
	}

	session, err := s.sessions.FindActiveByHolder(ctx, userID, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up edit session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if !session.IsLive(now) {
		if _, err := s.sessions.Delete(ctx, session.ID); err != nil {
			return nil, fmt.Errorf("failed to remove expired edit session: %w", err)
		}
		return nil, ErrSessionExpired
	}

	session.Refresh(now)
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to refresh edit session: %w", err)
	}
	return editorFor(session, now), nil
}

// Status reports whether userID is currently being edited. The sweep runs
// here too, so a lapsed session reads as unlocked.
func (s *EditSessionService) Status(ctx context.Context, userID uuid.UUID) (*SessionStatusResult, error) {
	now := s.now()
	session, err := s.sweep(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return &SessionStatusResult{Locked: false}, nil
	}
	return &SessionStatusResult{
		Locked: true,
		Editor: editorFor(session, now),
	}, nil
}

// Release drops the caller's session for userID. Releasing a session that
// does not exist is not an error.
func (s *EditSessionService) Release(ctx context.Context, userID, adminID uuid.UUID) (bool, error) {
	removed, err := s.sessions.DeleteByHolder(ctx, userID, adminID)
	if err != nil {
		return false, fmt.Errorf("failed to release edit session: %w", err)
	}
	if removed {
		log.Info().
			Str("user_id", userID.String()).
			Str("admin_id", adminID.String()).
			Msg("Edit session released")
	}
	return removed, nil
}

// Verify reports whether adminID currently holds a live session on userID.
// Write paths call this before persisting changes.
func (s *EditSessionService) Verify(ctx context.Context, userID, adminID uuid.UUID) (*models.EditSession, error) {
	session, err := s.sessions.FindActiveByHolder(ctx, userID, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up edit session: %w", err)
	}
	if session == nil {
		return nil, nil
	}
	if !session.IsLive(s.now()) {
		if _, err := s.sessions.Delete(ctx, session.ID); err != nil {
			return nil, fmt.Errorf("failed to remove expired edit session: %w", err)
		}
		return nil, nil
	}
	return session, nil
}

// HolderOf returns the live session on userID regardless of holder, or nil.
func (s *EditSessionService) HolderOf(ctx context.Context, userID uuid.UUID) (*models.EditSession, error) {
	return s.sweep(ctx, userID, s.now())
}
