package models

import (
	"math"
	"time"
)

const (
	// MaxFailedAttempts is the number of consecutive failures that triggers an auto-lock
	MaxFailedAttempts = 5
	// AutoLockDuration is how long an auto-locked account stays locked
	AutoLockDuration = 15 * time.Minute
)

// LockoutState is the auto-lock portion of an account's security state.
// It is a pure value: transitions return a new state and the caller decides
// when to persist it.
type LockoutState struct {
	FailedAttempts int        `json:"failed_attempts"`
	LockedUntil    *time.Time `json:"locked_until,omitempty"`
}

// IsLocked reports whether the auto-lock window is still open.
func (s LockoutState) IsLocked(now time.Time) bool {
	return s.LockedUntil != nil && now.Before(*s.LockedUntil)
}

// RemainingMinutes returns the whole minutes left on the auto-lock, rounded up.
func (s LockoutState) RemainingMinutes(now time.Time) int {
	if !s.IsLocked(now) {
		return 0
	}
	return int(math.Ceil(s.LockedUntil.Sub(now).Minutes()))
}

// AttemptsRemaining returns how many failures are left before the account locks.
func (s LockoutState) AttemptsRemaining() int {
	remaining := MaxFailedAttempts - s.FailedAttempts
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RecordFailure increments the counter and opens the lock window when the
// threshold is reached.
func (s LockoutState) RecordFailure(now time.Time) LockoutState {
	next := LockoutState{
		FailedAttempts: s.FailedAttempts + 1,
		LockedUntil:    s.LockedUntil,
	}
	if next.FailedAttempts >= MaxFailedAttempts {
		until := now.Add(AutoLockDuration)
		next.LockedUntil = &until
	}
	return next
}

// RecordSuccess resets the counter and clears any lock window.
func (s LockoutState) RecordSuccess() LockoutState {
	return LockoutState{}
}
