package services

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for explicit error handling
// These errors allow callers to distinguish between different failure modes
// using errors.Is() instead of string matching

var (
	// ErrUserNotFound indicates the user does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials indicates authentication failed
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMissingFields indicates a required request field was empty
	ErrMissingFields = errors.New("missing required fields")

	// ErrCaptchaFailed indicates the captcha token did not verify
	ErrCaptchaFailed = errors.New("captcha verification failed")

	// ErrAccountInactive indicates the account is deactivated
	ErrAccountInactive = errors.New("account is deactivated")

	// ErrEmailTaken indicates signup collided with an existing account
	ErrEmailTaken = errors.New("email already registered")

	// ErrSessionNotFound indicates no edit session exists for the caller
	ErrSessionNotFound = errors.New("edit session not found")

	// ErrSessionExpired indicates the caller's edit session lapsed
	ErrSessionExpired = errors.New("edit session expired")

	// ErrStaleWrite indicates the record changed since the caller read it
	ErrStaleWrite = errors.New("record was modified by someone else")

	// ErrForbidden indicates the caller may not perform the operation
	ErrForbidden = errors.New("operation not permitted")

	// ErrSelfLock indicates an admin tried to lock their own account
	ErrSelfLock = errors.New("cannot lock your own account")

	// ErrAdminTarget indicates a lock was aimed at another admin
	ErrAdminTarget = errors.New("cannot lock an admin account")

	// ErrNotLocked indicates an unlock was aimed at an account with no
	// effective lock
	ErrNotLocked = errors.New("account is not locked")

	// ErrResetCodeInvalid indicates the reset code is wrong or missing
	ErrResetCodeInvalid = errors.New("invalid reset code")

	// ErrResetCodeExpired indicates the reset code lapsed
	ErrResetCodeExpired = errors.New("reset code expired")

	// ErrResetNotVerified indicates the code was never verified
	ErrResetNotVerified = errors.New("reset code not verified")

	// ErrWeakPassword indicates the new password fails the policy
	ErrWeakPassword = errors.New("password does not meet requirements")
)

// AccountLockedError reports that login is blocked by the failure counter.
// Minutes is the remaining wait, rounded up.
type AccountLockedError struct {
	Minutes int
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, try again in %d minutes", e.Minutes)
}

// AdminLockedError reports that login is blocked by an administrative lock.
type AdminLockedError struct {
	Reason   string
	LockedBy string
}

func (e *AdminLockedError) Error() string {
	return "account locked by administrator"
}

// LeaseHeldError reports that another admin holds the edit session for the
// target user.
type LeaseHeldError struct {
	HolderID   string
	HolderName string
	ExpiresAt  time.Time
	TimeLeft   int
}

func (e *LeaseHeldError) Error() string {
	return fmt.Sprintf("user is being edited by %s", e.HolderName)
}
