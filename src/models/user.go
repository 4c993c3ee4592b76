package models

import (
	"time"

	"github.com/google/uuid"
)

// Device records a client device seen at login
type Device struct {
	DeviceID  string    `json:"device_id"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	LastUsed  time.Time `json:"last_used"`
	IsBlocked bool      `json:"is_blocked"`
}

// NotificationSettings holds per-user notification preferences
type NotificationSettings struct {
	EmailNotifications bool       `json:"email_notifications"`
	ProjectUpdates     bool       `json:"project_updates"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

// MaxLockHistory bounds how many lock events a user record keeps. Older
// entries are dropped; the audit log holds the full trail.
const MaxLockHistory = 50

// LockEvent is one entry in a user's lock history
type LockEvent struct {
	Action    LockAction `json:"action"`
	AdminID   uuid.UUID  `json:"admin_id"`
	AdminName string     `json:"admin_name"`
	Reason    string     `json:"reason"`
	Timestamp time.Time  `json:"timestamp"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// User represents a board member or administrator account
type User struct {
	ID           uuid.UUID `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`

	LastLogin  *time.Time `json:"last_login,omitempty"`
	LastActive *time.Time `json:"last_active,omitempty"`
	LoginCount int        `json:"login_count"`

	// auto-lock (failed login attempts)
	FailedLoginAttempts int        `json:"failed_login_attempts"`
	AccountLockedUntil  *time.Time `json:"account_locked_until,omitempty"`

	// admin-imposed lock
	LockedByAdmin     bool        `json:"locked_by_admin"`
	LockedByAdminAt   *time.Time  `json:"locked_by_admin_at,omitempty"`
	LockedByAdminID   *uuid.UUID  `json:"locked_by_admin_id,omitempty"`
	LockedByAdminName string      `json:"locked_by_admin_name,omitempty"`
	LockReason        string      `json:"lock_reason,omitempty"`
	LockExpiresAt     *time.Time  `json:"lock_expires_at,omitempty"`
	LockHistory       []LockEvent `json:"lock_history,omitempty"`

	Devices              []Device             `json:"devices,omitempty"`
	NotificationSettings NotificationSettings `json:"notification_settings"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// LockKind identifies which lock mechanism, if any, currently makes the
// account unusable.
type LockKind int

const (
	// LockNone means the account is not locked
	LockNone LockKind = iota
	// LockAdmin means an administrator lock is in effect
	LockAdmin
	// LockAuto means the failed-attempt auto-lock window is open
	LockAuto
)

// EffectiveLock evaluates both lock mechanisms through their expiry-aware
// predicates. Admin locks take precedence over auto-locks. Callers must use
// this (or the per-kind predicates below) rather than reading raw flags: an
// expired admin lock leaves LockedByAdmin set but is no longer effective.
func (u *User) EffectiveLock(now time.Time) LockKind {
	if u.IsLockedByAdmin(now) {
		return LockAdmin
	}
	if u.IsAutoLocked(now) {
		return LockAuto
	}
	return LockNone
}

// IsLockedByAdmin reports whether an admin lock is currently in effect.
// A lock with a past LockExpiresAt has lapsed even though the flag is still
// set; the flag is not proactively cleared.
func (u *User) IsLockedByAdmin(now time.Time) bool {
	if !u.LockedByAdmin {
		return false
	}
	if u.LockExpiresAt != nil && u.LockExpiresAt.Before(now) {
		return false
	}
	return true
}

// IsAutoLocked reports whether the failed-attempt lock window is open.
func (u *User) IsAutoLocked(now time.Time) bool {
	return u.Lockout().IsLocked(now)
}

// Lockout returns the auto-lock state as a value object.
func (u *User) Lockout() LockoutState {
	return LockoutState{
		FailedAttempts: u.FailedLoginAttempts,
		LockedUntil:    u.AccountLockedUntil,
	}
}

// SetLockout writes an auto-lock state back onto the user.
func (u *User) SetLockout(s LockoutState) {
	u.FailedLoginAttempts = s.FailedAttempts
	u.AccountLockedUntil = s.LockedUntil
}

// ApplyAdminLock imposes an administrator lock. A nil duration means the lock
// is permanent until manually removed.
func (u *User) ApplyAdminLock(adminID uuid.UUID, adminName, reason string, duration *time.Duration, now time.Time) {
	u.LockedByAdmin = true
	u.LockedByAdminAt = &now
	u.LockedByAdminID = &adminID
	u.LockedByAdminName = adminName
	u.LockReason = reason
	u.LockExpiresAt = nil
	if duration != nil {
		until := now.Add(*duration)
		u.LockExpiresAt = &until
	}
	u.IsActive = false

	u.appendLockEvent(LockEvent{
		Action:    LockActionLocked,
		AdminID:   adminID,
		AdminName: adminName,
		Reason:    reason,
		Timestamp: now,
		ExpiresAt: u.LockExpiresAt,
	})
}

// ClearLocks removes the admin lock and resets the auto-lock state. Unlock is
// a full reset of both mechanisms.
func (u *User) ClearLocks(adminID uuid.UUID, adminName, reason string, now time.Time) {
	u.LockedByAdmin = false
	u.LockedByAdminAt = nil
	u.LockedByAdminID = nil
	u.LockedByAdminName = ""
	u.LockReason = ""
	u.LockExpiresAt = nil
	u.IsActive = true
	u.FailedLoginAttempts = 0
	u.AccountLockedUntil = nil

	u.appendLockEvent(LockEvent{
		Action:    LockActionUnlocked,
		AdminID:   adminID,
		AdminName: adminName,
		Reason:    reason,
		Timestamp: now,
	})
}

func (u *User) appendLockEvent(event LockEvent) {
	u.LockHistory = append(u.LockHistory, event)
	if len(u.LockHistory) > MaxLockHistory {
		u.LockHistory = u.LockHistory[len(u.LockHistory)-MaxLockHistory:]
	}
}

// TouchDevice updates the matching device entry or appends a new one.
func (u *User) TouchDevice(deviceID, userAgent, ipAddress string, now time.Time) {
	for i := range u.Devices {
		if u.Devices[i].DeviceID == deviceID {
			u.Devices[i].LastUsed = now
			u.Devices[i].UserAgent = userAgent
			u.Devices[i].IPAddress = ipAddress
			return
		}
	}
	u.Devices = append(u.Devices, Device{
		DeviceID:  deviceID,
		UserAgent: userAgent,
		IPAddress: ipAddress,
		LastUsed:  now,
	})
}
