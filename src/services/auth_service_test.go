package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brightboard/brightboard-server/src/middleware"
	"github.com/brightboard/brightboard-server/src/models"
	"github.com/brightboard/brightboard-server/src/repositories/mock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	if err := middleware.SetJWTSecret("0123456789abcdef0123456789abcdef"); err != nil {
		panic(err)
	}
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func activeUser(t *testing.T, password string) *models.User {
	return &models.User{
		ID:           uuid.New(),
		FirstName:    "Robin",
		LastName:     "Ellis",
		Email:        "robin@example.com",
		PasswordHash: hashPassword(t, password),
		Role:         models.RoleUser,
		IsActive:     true,
		UpdatedAt:    testNow,
	}
}

func newAuthService(users *mock.UserRepository, at time.Time) *AuthService {
	audit := NewAuditService(mock.NewAuditRepository()).WithClock(fixedClock(at))
	svc := NewAuthService(users, NewCaptchaService(""), audit, nil, nil)
	return svc.WithClock(fixedClock(at))
}

func loginInput(password string) LoginInput {
	return LoginInput{
		Email:     "robin@example.com",
		Password:  password,
		IPAddress: "10.0.0.1",
		UserAgent: "test-agent",
	}
}

func TestLogin_MissingFields(t *testing.T) {
	svc := newAuthService(mock.NewUserRepository(), testNow)

	_, err := svc.Login(context.Background(), LoginInput{Email: "robin@example.com"})
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.Login(context.Background(), LoginInput{Password: "hunter2abc"})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestLogin_CaptchaRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error-codes": ["invalid-input-response"]}`))
	}))
	defer server.Close()

	users := mock.NewUserRepository()
	audit := NewAuditService(mock.NewAuditRepository())
	captcha := NewCaptchaService("secret")
	captcha.baseURL = server.URL

	svc := NewAuthService(users, captcha, audit, nil, nil).WithClock(fixedClock(testNow))
	_, err := svc.Login(context.Background(), loginInput("hunter2abc"))
	assert.ErrorIs(t, err, ErrCaptchaFailed)
	// The captcha gate fires before the account is even looked up
	assert.Empty(t, users.Calls["GetByEmail"])
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := newAuthService(mock.NewUserRepository(), testNow)

	_, err := svc.Login(context.Background(), loginInput("hunter2abc"))
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_AdminLockedBeatsWrongPassword(t *testing.T) {
	user := activeUser(t, "hunter2abc")
	user.ApplyAdminLock(uuid.New(), "Dana Reyes", "policy violation", nil, testNow)

	users := mock.NewUserRepository()
	users.GetByEmailFunc = func(ctx context.Context, email string) (*models.User, error) {
		return user, nil
	}

	svc := newAuthService(users, testNow)
	_, err := svc.Login(context.Background(), loginInput("wrong-password1"))

	var locked *AdminLockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, "policy violation", locked.Reason)
	// The gate fires before the password is checked, so nothing is written
	assert.Empty(t, users.Calls["Update"])
}

func TestLogin_ExpiredAdminLockFallsThrough(t *testing.T) {
	user := activeUser(t, "hunter2abc")
	d := 30 * time.Minute
	user.ApplyAdminLock(uuid.New(), "Dana Reyes", "cooldown", &d, testNow.Add(-time.Hour))
	user.IsActive = true // reactivated but flag never cleared

	users := mock.NewUserRepository()
	users.GetByEmailFunc = func(ctx context.Context, email string) (*models.User, error) {
		return user, nil
	}

	svc := newAuthService(users, testNow)
	result, err := svc.Login(context.Background(), loginInput("hunter2abc"))
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestLogin_AutoLockedReportsCeilMinutes(t *testing.T) {
	user := activeUser(t, "hunter2abc")
	until := testNow.Add(4*time.Minute + 10*time.Second)
	user.AccountLockedUntil = &until
	user.FailedLoginAttempts = models.MaxFailedAttempts

	users := mock.NewUserRepository()
	users.GetByEmailFunc = func(ctx context.Context, email string) (*models.User, error) {
		return user, nil
	}

	svc := newAuthService(users, testNow)
	_, err := svc.Login(context.Background(), loginInput("hunter2abc"))

	var locked *AccountLockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, 5, locked.Minutes)
	// Attempts during the window must not grow the counter
	assert.Empty(t, users.Calls["Update"])
	assert.Equal(t, models.MaxFailedAttempts, user.FailedLoginAttempts)
}

func TestLogin_InactiveAccount(t *testing.T) {
	user := activeUser(t, "hunter2abc")
	user.IsActive = false

	users := mock.NewUserRepository()
	users.GetByEmailFunc = func(ctx context.Context, email string) (*models.User, error) {
		return user, nil
	}

	svc := newAuthService(users, testNow)
	_, err := svc.Login(context.Background(), loginInput("hunter2abc"))
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestLogin_WrongPasswordCountsDown(t *testing.T) {
	user := activeUser(t, "hunter2abc")

	users := mock.NewUserRepository()
	users.GetByEmailFunc = func(ctx context.Context, email string) (*models.User, error) {
		return user, nil
	}

	svc := newAuthService(users, testNow)
	_, err := svc.Login(context.Background(), loginInput("wrong-password1"))

	var failed *FailedLoginError
	require.ErrorAs(t, err, &failed)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 4, failed.AttemptsRemaining)
	assert.False(t, failed.JustLocked)
	assert.Equal(t, 1, user.FailedLoginAttempts)
	assert.Len(t, users.Calls["Update"], 1)
}

func TestLogin_FifthFailureLocks(t *testing.T) {
	user := activeUser(t, "hunter2abc")
	user.FailedLoginAttempts = models.MaxFailedAttempts - 1

	users := mock.NewUserRepository()
	users.GetByEmailFunc = func(ctx context.Context, email string) (*models.User, error) {
		return user, nil
	}

	svc := newAuthService(users, testNow)
	_, err := svc.Login(context.Background(), loginInput("wrong-password1"))

	var failed *FailedLoginError
	require.ErrorAs(t, err, &failed)
	assert.True(t, failed.JustLocked)
	require.NotNil(t, user.AccountLockedUntil)
	assert.True(t, user.AccountLockedUntil.Equal(testNow.Add(models.AutoLockDuration)))

	// The very next attempt hits the auto-lock gate, correct password or not
	_, err = svc.Login(context.Background(), loginInput("hunter2abc"))
	var locked *AccountLockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, 15, locked.Minutes)
}

func TestLogin_SuccessResetsCounterAndStampsUser(t *testing.T) {
	user := activeUser(t, "hunter2abc")
	user.FailedLoginAttempts = 3

	users := mock.NewUserRepository()
	users.GetByEmailFunc = func(ctx context.Context, email string) (*models.User, error) {
		return user, nil
	}

	svc := newAuthService(users, testNow)
	in := loginInput("hunter2abc")
	in.DeviceID = "dev-1"

	result, err := svc.Login(context.Background(), in)
	require.NoError(t, err)

	assert.NotEmpty(t, result.Token)
	assert.Equal(t, 0, user.FailedLoginAttempts)
	assert.Nil(t, user.AccountLockedUntil)
	require.NotNil(t, user.LastLogin)
	assert.True(t, user.LastLogin.Equal(testNow))
	assert.Equal(t, 1, user.LoginCount)
	require.Len(t, user.Devices, 1)
	assert.Equal(t, "dev-1", user.Devices[0].DeviceID)

	claims, err := middleware.ValidateToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, string(models.RoleUser), claims.Role)
}

func TestLogin_LockWindowExpiryAllowsRetry(t *testing.T) {
	user := activeUser(t, "hunter2abc")
	until := testNow.Add(-time.Second)
	user.AccountLockedUntil = &until
	user.FailedLoginAttempts = models.MaxFailedAttempts

	users := mock.NewUserRepository()
	users.GetByEmailFunc = func(ctx context.Context, email string) (*models.User, error) {
		return user, nil
	}

	svc := newAuthService(users, testNow)
	result, err := svc.Login(context.Background(), loginInput("hunter2abc"))
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, 0, user.FailedLoginAttempts)
}

func TestSignup_CreatesUserWithDefaults(t *testing.T) {
	users := mock.NewUserRepository()
	var created *models.User
	users.CreateFunc = func(ctx context.Context, u *models.User) error {
		created = u
		return nil
	}

	svc := newAuthService(users, testNow)
	result, err := svc.Signup(context.Background(), SignupInput{
		FirstName: "Robin",
		LastName:  "Ellis",
		Email:     "Robin@Example.com",
		Password:  "hunter2abc",
	})
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.Equal(t, "robin@example.com", created.Email)
	assert.Equal(t, models.RoleUser, created.Role)
	assert.True(t, created.IsActive)
	assert.True(t, created.NotificationSettings.EmailNotifications)
	assert.NotEmpty(t, result.Token)
	// Stored hash must verify, not echo the password
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("hunter2abc")))
}

func TestSignup_WeakPassword(t *testing.T) {
	svc := newAuthService(mock.NewUserRepository(), testNow)

	cases := []string{"short1", "allletters", "12345678"}
	for _, password := range cases {
		_, err := svc.Signup(context.Background(), SignupInput{
			FirstName: "Robin",
			Email:     "robin@example.com",
			Password:  password,
		})
		assert.ErrorIs(t, err, ErrWeakPassword, "password %q", password)
	}
}
