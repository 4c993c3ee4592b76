package services

import (
	"context"
	"testing"
	"time"

	"github.com/brightboard/brightboard-server/src/models"
	"github.com/brightboard/brightboard-server/src/repositories"
	"github.com/brightboard/brightboard-server/src/repositories/mock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func testUser(id uuid.UUID) *models.User {
	return &models.User{
		ID:        id,
		FirstName: "Robin",
		LastName:  "Ellis",
		Email:     "robin@example.com",
		Role:      models.RoleUser,
		IsActive:  true,
		UpdatedAt: testNow,
	}
}

func newSessionService(sessions *mock.EditSessionRepository, users *mock.UserRepository, at time.Time) *EditSessionService {
	return NewEditSessionService(sessions, users).WithClock(fixedClock(at))
}

func TestEditSessionAcquire_FreeTarget(t *testing.T) {
	userID := uuid.New()
	adminID := uuid.New()

	users := mock.NewUserRepository()
	users.GetByIDFunc = func(ctx context.Context, id uuid.UUID) (*models.User, error) {
		return testUser(userID), nil
	}
	sessions := mock.NewEditSessionRepository()

	var created *models.EditSession
	sessions.CreateFunc = func(ctx context.Context, s *models.EditSession) error {
		created = s
		return nil
	}

	svc := newSessionService(sessions, users, testNow)
	result, err := svc.Acquire(context.Background(), userID, adminID, "Dana Reyes")
	require.NoError(t, err)

	assert.True(t, result.HasPriority)
	require.NotNil(t, created)
	assert.Equal(t, adminID, created.AdminID)
	assert.Equal(t, 15, result.Editor.TimeLeftMinutes)
	// Expired rows are swept before the lookup
	assert.Len(t, sessions.Calls["DeleteExpired"], 1)
}

func TestEditSessionAcquire_HeldByOther(t *testing.T) {
	userID := uuid.New()
	holderID := uuid.New()
	callerID := uuid.New()

	users := mock.NewUserRepository()
	users.GetByIDFunc = func(ctx context.Context, id uuid.UUID) (*models.User, error) {
		return testUser(userID), nil
	}

	holder := models.NewEditSession(userID, holderID, "Sam Okafor", testNow.Add(-2*time.Minute))
	sessions := mock.NewEditSessionRepository()
	sessions.FindActiveFunc = func(ctx context.Context, id uuid.UUID) (*models.EditSession, error) {
		return holder, nil
	}

	svc := newSessionService(sessions, users, testNow)
	result, err := svc.Acquire(context.Background(), userID, callerID, "Dana Reyes")
	require.NoError(t, err)

	assert.False(t, result.HasPriority)
	require.NotNil(t, result.Editor)
	assert.Equal(t, holderID, result.Editor.AdminID)
	assert.Equal(t, "Sam Okafor", result.Editor.AdminName)
	assert.Equal(t, 13, result.Editor.TimeLeftMinutes)
	// Loser must not touch the holder's lease
	assert.Empty(t, sessions.Calls["Create"])
	assert.Empty(t, sessions.Calls["Update"])
}

func TestEditSessionAcquire_ReacquireIsIdempotentRead(t *testing.T) {
	userID := uuid.New()
	adminID := uuid.New()

	users := mock.NewUserRepository()
	users.GetByIDFunc = func(ctx context.Context, id uuid.UUID) (*models.User, error) {
		return testUser(userID), nil
	}

	own := models.NewEditSession(userID, adminID, "Dana Reyes", testNow.Add(-4*time.Minute))
	sessions := mock.NewEditSessionRepository()
	sessions.FindActiveFunc = func(ctx context.Context, id uuid.UUID) (*models.EditSession, error) {
		return own, nil
	}

	svc := newSessionService(sessions, users, testNow)
	result, err := svc.Acquire(context.Background(), userID, adminID, "Dana Reyes")
	require.NoError(t, err)

	// The existing lease is reported unmutated; only Heartbeat extends it
	assert.True(t, result.HasPriority)
	assert.Equal(t, own.ID, *result.SessionID)
	assert.Empty(t, sessions.Calls["Create"])
	assert.Empty(t, sessions.Calls["Update"])
	assert.True(t, own.LastActivity.Equal(testNow.Add(-4*time.Minute)))
	assert.Equal(t, 11, result.Editor.TimeLeftMinutes)
}

func TestEditSessionAcquire_IdleHolderIsSweptAndReplaced(t *testing.T) {
	userID := uuid.New()
	oldHolder := uuid.New()
	callerID := uuid.New()

	users := mock.NewUserRepository()
	users.GetByIDFunc = func(ctx context.Context, id uuid.UUID) (*models.User, error) {
		return testUser(userID), nil
	}

	// Holder has not heartbeat for six minutes; the DB sweep missed it
	stale := models.NewEditSession(userID, oldHolder, "Sam Okafor", testNow.Add(-6*time.Minute))
	sessions := mock.NewEditSessionRepository()
	swept := false
	sessions.FindActiveFunc = func(ctx context.Context, id uuid.UUID) (*models.EditSession, error) {
		if swept {
			return nil, nil
		}
		return stale, nil
	}
	sessions.DeleteFunc = func(ctx context.Context, id uuid.UUID) (bool, error) {
		swept = true
		return true, nil
	}

	svc := newSessionService(sessions, users, testNow)
	result, err := svc.Acquire(context.Background(), userID, callerID, "Dana Reyes")
	require.NoError(t, err)

	assert.True(t, result.HasPriority)
	assert.Len(t, sessions.Calls["Create"], 1)
}

func TestEditSessionAcquire_LostCreateRace(t *testing.T) {
	userID := uuid.New()
	winnerID := uuid.New()
	loserID := uuid.New()

	users := mock.NewUserRepository()
	users.GetByIDFunc = func(ctx context.Context, id uuid.UUID) (*models.User, error) {
		return testUser(userID), nil
	}

	winner := models.NewEditSession(userID, winnerID, "Sam Okafor", testNow)
	sessions := mock.NewEditSessionRepository()
	raced := false
	sessions.FindActiveFunc = func(ctx context.Context, id uuid.UUID) (*models.EditSession, error) {
		if raced {
			return winner, nil
		}
		return nil, nil
	}
	sessions.CreateFunc = func(ctx context.Context, s *models.EditSession) error {
		raced = true
		return repositories.ErrDuplicate
	}

	svc := newSessionService(sessions, users, testNow)
	result, err := svc.Acquire(context.Background(), userID, loserID, "Dana Reyes")
	require.NoError(t, err)

	assert.False(t, result.HasPriority)
	require.NotNil(t, result.Editor)
	assert.Equal(t, winnerID, result.Editor.AdminID)
}

func TestEditSessionAcquire_UnknownUser(t *testing.T) {
	users := mock.NewUserRepository()
	sessions := mock.NewEditSessionRepository()

	svc := newSessionService(sessions, users, testNow)
	_, err := svc.Acquire(context.Background(), uuid.New(), uuid.New(), "Dana Reyes")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestEditSessionHeartbeat_ExtendsLease(t *testing.T) {
	userID := uuid.New()
	adminID := uuid.New()

	own := models.NewEditSession(userID, adminID, "Dana Reyes", testNow.Add(-3*time.Minute))
	sessions := mock.NewEditSessionRepository()
	sessions.FindActiveByHolderFunc = func(ctx context.Context, uid, aid uuid.UUID) (*models.EditSession, error) {
		return own, nil
	}

	svc := newSessionService(sessions, mock.NewUserRepository(), testNow)
	editor, err := svc.Heartbeat(context.Background(), userID, adminID)
	require.NoError(t, err)

	assert.Equal(t, 15, editor.TimeLeftMinutes)
	assert.True(t, own.ExpiresAt.Equal(testNow.Add(models.EditSessionTTL)))
	assert.Len(t, sessions.Calls["Update"], 1)
}

func TestEditSessionHeartbeat_NeverHeld(t *testing.T) {
	sessions := mock.NewEditSessionRepository()

	svc := newSessionService(sessions, mock.NewUserRepository(), testNow)
	_, err := svc.Heartbeat(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestEditSessionHeartbeat_IdleLeaseIsDeleted(t *testing.T) {
	userID := uuid.New()
	adminID := uuid.New()

	// Absolute TTL still has 9 minutes, but the inactivity window lapsed
	dead := models.NewEditSession(userID, adminID, "Dana Reyes", testNow.Add(-6*time.Minute))
	sessions := mock.NewEditSessionRepository()
	sessions.FindActiveByHolderFunc = func(ctx context.Context, uid, aid uuid.UUID) (*models.EditSession, error) {
		return dead, nil
	}
	sessions.DeleteFunc = func(ctx context.Context, id uuid.UUID) (bool, error) {
		return true, nil
	}

	svc := newSessionService(sessions, mock.NewUserRepository(), testNow)
	_, err := svc.Heartbeat(context.Background(), userID, adminID)
	assert.ErrorIs(t, err, ErrSessionExpired)
	// The dead row must be removed, not merely rejected
	require.Len(t, sessions.Calls["Delete"], 1)
	assert.Equal(t, dead.ID, sessions.Calls["Delete"][0])
}

func TestEditSessionHeartbeat_TTLExpiredLeaseReadsNotFound(t *testing.T) {
	userID := uuid.New()
	adminID := uuid.New()

	dead := models.NewEditSession(userID, adminID, "Dana Reyes", testNow.Add(-20*time.Minute))
	sessions := mock.NewEditSessionRepository()
	swept := false
	sessions.DeleteExpiredFunc = func(ctx context.Context, uid uuid.UUID, now time.Time) (int64, error) {
		swept = true
		return 1, nil
	}
	sessions.FindActiveByHolderFunc = func(ctx context.Context, uid, aid uuid.UUID) (*models.EditSession, error) {
		if swept {
			return nil, nil
		}
		return dead, nil
	}

	svc := newSessionService(sessions, mock.NewUserRepository(), testNow)
	_, err := svc.Heartbeat(context.Background(), userID, adminID)

	// The sweep runs before the lookup, so a lease past its absolute TTL
	// is indistinguishable from one that never existed
	assert.ErrorIs(t, err, ErrSessionNotFound)
	require.Len(t, sessions.Calls["DeleteExpired"], 1)
}

func TestEditSessionStatus_ReportsHolder(t *testing.T) {
	userID := uuid.New()
	holderID := uuid.New()

	holder := models.NewEditSession(userID, holderID, "Sam Okafor", testNow.Add(-time.Minute))
	sessions := mock.NewEditSessionRepository()
	sessions.FindActiveFunc = func(ctx context.Context, id uuid.UUID) (*models.EditSession, error) {
		return holder, nil
	}

	svc := newSessionService(sessions, mock.NewUserRepository(), testNow)
	status, err := svc.Status(context.Background(), userID)
	require.NoError(t, err)

	assert.True(t, status.Locked)
	assert.Equal(t, "Sam Okafor", status.Editor.AdminName)
	assert.Equal(t, 14, status.Editor.TimeLeftMinutes)
}

func TestEditSessionStatus_LapsedLeaseReadsUnlocked(t *testing.T) {
	userID := uuid.New()

	stale := models.NewEditSession(userID, uuid.New(), "Sam Okafor", testNow.Add(-6*time.Minute))
	sessions := mock.NewEditSessionRepository()
	gone := false
	sessions.FindActiveFunc = func(ctx context.Context, id uuid.UUID) (*models.EditSession, error) {
		if gone {
			return nil, nil
		}
		return stale, nil
	}
	sessions.DeleteFunc = func(ctx context.Context, id uuid.UUID) (bool, error) {
		gone = true
		return true, nil
	}

	svc := newSessionService(sessions, mock.NewUserRepository(), testNow)
	status, err := svc.Status(context.Background(), userID)
	require.NoError(t, err)

	assert.False(t, status.Locked)
	assert.Nil(t, status.Editor)
}

func TestEditSessionRelease_Idempotent(t *testing.T) {
	sessions := mock.NewEditSessionRepository()

	svc := newSessionService(sessions, mock.NewUserRepository(), testNow)
	released, err := svc.Release(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.False(t, released)
}
