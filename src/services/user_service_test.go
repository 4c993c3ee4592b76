package services

import (
	"context"
	"testing"
	"time"

	"github.com/brightboard/brightboard-server/src/models"
	"github.com/brightboard/brightboard-server/src/repositories/mock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(users *mock.UserRepository, sessions *mock.EditSessionRepository, at time.Time) *UserService {
	audit := NewAuditService(mock.NewAuditRepository()).WithClock(fixedClock(at))
	sessionSvc := NewEditSessionService(sessions, users).WithClock(fixedClock(at))
	return NewUserService(users, sessionSvc, audit).WithClock(fixedClock(at))
}

func strptr(s string) *string { return &s }

func TestUserUpdate_HeldByOtherAdminRejected(t *testing.T) {
	target := testUser(uuid.New())
	holderID := uuid.New()
	callerID := uuid.New()
	users := userRepoWith(target)

	holder := models.NewEditSession(target.ID, holderID, "Sam Okafor", testNow.Add(-time.Minute))
	sessions := mock.NewEditSessionRepository()
	sessions.FindActiveFunc = func(ctx context.Context, id uuid.UUID) (*models.EditSession, error) {
		return holder, nil
	}

	svc := newUserService(users, sessions, testNow)
	_, err := svc.Update(context.Background(), target.ID, callerID, UserUpdateInput{
		FirstName:         strptr("Robyn"),
		ExpectedUpdatedAt: testNow.Format(time.RFC3339),
	})

	var held *LeaseHeldError
	require.ErrorAs(t, err, &held)
	assert.Equal(t, "Sam Okafor", held.HolderName)
	assert.Equal(t, 14, held.TimeLeft)
	assert.Empty(t, users.Calls["Update"])
}

func TestUserUpdate_StaleTimestampRejected(t *testing.T) {
	target := testUser(uuid.New())
	users := userRepoWith(target)
	sessions := mock.NewEditSessionRepository()

	svc := newUserService(users, sessions, testNow)
	_, err := svc.Update(context.Background(), target.ID, uuid.New(), UserUpdateInput{
		FirstName:         strptr("Robyn"),
		ExpectedUpdatedAt: testNow.Add(-time.Hour).Format(time.RFC3339),
	})

	assert.ErrorIs(t, err, ErrStaleWrite)
	assert.Empty(t, users.Calls["Update"])
}

func TestUserUpdate_TimestampFormatDriftTolerated(t *testing.T) {
	target := testUser(uuid.New())
	// Stored with sub-second precision in a non-UTC zone
	zone := time.FixedZone("CET", 3600)
	target.UpdatedAt = time.Date(2026, 3, 14, 11, 0, 0, 123456789, zone)
	users := userRepoWith(target)
	sessions := mock.NewEditSessionRepository()

	svc := newUserService(users, sessions, testNow)
	// Client echoes the same instant in UTC without fractional seconds
	updated, err := svc.Update(context.Background(), target.ID, uuid.New(), UserUpdateInput{
		FirstName:         strptr("Robyn"),
		ExpectedUpdatedAt: "2026-03-14T10:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "Robyn", updated.FirstName)
}

func TestUserUpdate_SavesAndReleasesLease(t *testing.T) {
	target := testUser(uuid.New())
	adminID := uuid.New()
	users := userRepoWith(target)

	own := models.NewEditSession(target.ID, adminID, "Dana Reyes", testNow.Add(-time.Minute))
	sessions := mock.NewEditSessionRepository()
	sessions.FindActiveFunc = func(ctx context.Context, id uuid.UUID) (*models.EditSession, error) {
		return own, nil
	}
	sessions.DeleteByHolderFunc = func(ctx context.Context, uid, aid uuid.UUID) (bool, error) {
		return true, nil
	}

	svc := newUserService(users, sessions, testNow)
	updated, err := svc.Update(context.Background(), target.ID, adminID, UserUpdateInput{
		FirstName:         strptr("Robyn"),
		Email:             strptr("Robyn@Example.com"),
		ExpectedUpdatedAt: testNow.Format(time.RFC3339),
	})
	require.NoError(t, err)

	assert.Equal(t, "Robyn", updated.FirstName)
	assert.Equal(t, "robyn@example.com", updated.Email)
	assert.Len(t, users.Calls["Update"], 1)
	// The lease is released once the save lands
	assert.Len(t, sessions.Calls["DeleteByHolder"], 1)
}

func TestUserUpdate_ExpiredHolderDoesNotBlock(t *testing.T) {
	target := testUser(uuid.New())
	callerID := uuid.New()
	users := userRepoWith(target)

	stale := models.NewEditSession(target.ID, uuid.New(), "Sam Okafor", testNow.Add(-6*time.Minute))
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

	svc := newUserService(users, sessions, testNow)
	_, err := svc.Update(context.Background(), target.ID, callerID, UserUpdateInput{
		FirstName:         strptr("Robyn"),
		ExpectedUpdatedAt: testNow.Format(time.RFC3339),
	})
	require.NoError(t, err)
	assert.Len(t, users.Calls["Update"], 1)
}

// Two admins contend over one profile: the first to acquire wins, the
// loser's write bounces until the winner saves and the lease frees up.
func TestUserUpdate_TwoAdminContention(t *testing.T) {
	target := testUser(uuid.New())
	adminA := uuid.New()
	adminB := uuid.New()
	users := userRepoWith(target)

	var current *models.EditSession
	sessions := mock.NewEditSessionRepository()
	sessions.FindActiveFunc = func(ctx context.Context, id uuid.UUID) (*models.EditSession, error) {
		return current, nil
	}
	sessions.CreateFunc = func(ctx context.Context, s *models.EditSession) error {
		current = s
		return nil
	}
	sessions.DeleteByHolderFunc = func(ctx context.Context, uid, aid uuid.UUID) (bool, error) {
		if current != nil && current.AdminID == aid {
			current = nil
			return true, nil
		}
		return false, nil
	}

	sessionSvc := NewEditSessionService(sessions, users).WithClock(fixedClock(testNow))
	audit := NewAuditService(mock.NewAuditRepository()).WithClock(fixedClock(testNow))
	userSvc := NewUserService(users, sessionSvc, audit).WithClock(fixedClock(testNow))
	ctx := context.Background()

	resA, err := sessionSvc.Acquire(ctx, target.ID, adminA, "Dana Reyes")
	require.NoError(t, err)
	require.True(t, resA.HasPriority)

	resB, err := sessionSvc.Acquire(ctx, target.ID, adminB, "Sam Okafor")
	require.NoError(t, err)
	require.False(t, resB.HasPriority)
	assert.Equal(t, "Dana Reyes", resB.Editor.AdminName)

	_, err = userSvc.Update(ctx, target.ID, adminB, UserUpdateInput{
		FirstName:         strptr("Robyn"),
		ExpectedUpdatedAt: testNow.Format(time.RFC3339),
	})
	var held *LeaseHeldError
	require.ErrorAs(t, err, &held)
	assert.Equal(t, adminA.String(), held.HolderID)

	updated, err := userSvc.Update(ctx, target.ID, adminA, UserUpdateInput{
		FirstName:         strptr("Robyn"),
		ExpectedUpdatedAt: testNow.Format(time.RFC3339),
	})
	require.NoError(t, err)
	assert.Equal(t, "Robyn", updated.FirstName)
	assert.Nil(t, current)

	resB, err = sessionSvc.Acquire(ctx, target.ID, adminB, "Sam Okafor")
	require.NoError(t, err)
	assert.True(t, resB.HasPriority)
}

func TestUserDelete_AdminAccountProtected(t *testing.T) {
	target := testUser(uuid.New())
	target.Role = models.RoleAdmin
	users := userRepoWith(target)
	sessions := mock.NewEditSessionRepository()

	svc := newUserService(users, sessions, testNow)
	err := svc.Delete(context.Background(), target.ID, uuid.New())
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, users.Calls["Delete"])
}

func TestUserCreate_AdminSeedsAccount(t *testing.T) {
	users := mock.NewUserRepository()
	var created *models.User
	users.CreateFunc = func(ctx context.Context, u *models.User) error {
		created = u
		return nil
	}
	sessions := mock.NewEditSessionRepository()

	svc := newUserService(users, sessions, testNow)
	_, err := svc.Create(context.Background(), uuid.New(), UserCreateInput{
		FirstName: "Robin",
		Email:     "robin@example.com",
		Password:  "hunter2abc",
		Role:      models.RoleModerator,
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, models.RoleModerator, created.Role)
}

func TestChangePassword_WrongCurrentRejected(t *testing.T) {
	target := testUser(uuid.New())
	target.PasswordHash = hashPassword(t, "hunter2abc")
	users := userRepoWith(target)
	sessions := mock.NewEditSessionRepository()

	svc := newUserService(users, sessions, testNow)
	err := svc.ChangePassword(context.Background(), target.ID, "not-the-password1", "newpassword1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, users.Calls["Update"])
}

func TestSearch_EmptyQueryShortCircuits(t *testing.T) {
	users := mock.NewUserRepository()
	sessions := mock.NewEditSessionRepository()

	svc := newUserService(users, sessions, testNow)
	results, err := svc.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.Empty(t, users.Calls["Search"])
}
