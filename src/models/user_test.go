package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestUser_EffectiveLock_AdminTakesPrecedence(t *testing.T) {
	adminID := uuid.New()
	u := &User{IsActive: true}

	locked := testNow.Add(AutoLockDuration)
	u.AccountLockedUntil = &locked
	u.FailedLoginAttempts = MaxFailedAttempts
	if u.EffectiveLock(testNow) != LockAuto {
		t.Fatal("expected auto lock")
	}

	u.ApplyAdminLock(adminID, "Dana Reyes", "policy violation", nil, testNow)
	if u.EffectiveLock(testNow) != LockAdmin {
		t.Error("admin lock should take precedence over auto lock")
	}
}

func TestUser_AdminLockExpiry(t *testing.T) {
	u := &User{IsActive: true}
	d := 30 * time.Minute
	u.ApplyAdminLock(uuid.New(), "Dana Reyes", "spam", &d, testNow)

	if !u.IsLockedByAdmin(testNow.Add(29 * time.Minute)) {
		t.Error("timed admin lock should hold within its window")
	}
	if u.IsLockedByAdmin(testNow.Add(31 * time.Minute)) {
		t.Error("timed admin lock should lapse after its window")
	}
	// Flag stays set after expiry; only the predicate changes
	if !u.LockedByAdmin {
		t.Error("raw flag should not be cleared by time passing")
	}
}

func TestUser_PermanentAdminLock(t *testing.T) {
	u := &User{IsActive: true}
	u.ApplyAdminLock(uuid.New(), "Dana Reyes", "fraud", nil, testNow)

	if u.LockExpiresAt != nil {
		t.Error("permanent lock should carry no expiry")
	}
	if !u.IsLockedByAdmin(testNow.Add(365 * 24 * time.Hour)) {
		t.Error("permanent lock should never lapse")
	}
	if u.IsActive {
		t.Error("admin lock should deactivate the account")
	}
}

func TestUser_ClearLocksResetsBothMechanisms(t *testing.T) {
	u := &User{IsActive: true}
	u.ApplyAdminLock(uuid.New(), "Dana Reyes", "spam", nil, testNow)
	locked := testNow.Add(AutoLockDuration)
	u.AccountLockedUntil = &locked
	u.FailedLoginAttempts = MaxFailedAttempts

	u.ClearLocks(uuid.New(), "Sam Okafor", "resolved with user", testNow)

	if u.EffectiveLock(testNow) != LockNone {
		t.Error("expected no effective lock after unlock")
	}
	if u.FailedLoginAttempts != 0 || u.AccountLockedUntil != nil {
		t.Error("unlock should reset the failure counter")
	}
	if !u.IsActive {
		t.Error("unlock should reactivate the account")
	}
}

func TestUser_LockHistoryIsAppendOnly(t *testing.T) {
	u := &User{IsActive: true}
	adminID := uuid.New()

	u.ApplyAdminLock(adminID, "Dana Reyes", "spam", nil, testNow)
	u.ClearLocks(adminID, "Dana Reyes", "appeal accepted", testNow.Add(time.Hour))
	u.ApplyAdminLock(adminID, "Dana Reyes", "repeat offense", nil, testNow.Add(2*time.Hour))

	if len(u.LockHistory) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(u.LockHistory))
	}
	if u.LockHistory[0].Action != LockActionLocked ||
		u.LockHistory[1].Action != LockActionUnlocked ||
		u.LockHistory[2].Action != LockActionLocked {
		t.Error("history entries out of order")
	}
}

func TestUser_LockHistoryBounded(t *testing.T) {
	u := &User{IsActive: true}
	adminID := uuid.New()

	for i := 0; i < MaxLockHistory+10; i++ {
		u.ApplyAdminLock(adminID, "Dana Reyes", "spam", nil, testNow.Add(time.Duration(i)*time.Minute))
	}

	if len(u.LockHistory) != MaxLockHistory {
		t.Fatalf("expected history capped at %d, got %d", MaxLockHistory, len(u.LockHistory))
	}
	// The newest entries survive
	last := u.LockHistory[len(u.LockHistory)-1]
	if !last.Timestamp.Equal(testNow.Add(time.Duration(MaxLockHistory+9) * time.Minute)) {
		t.Error("cap should drop the oldest entries, not the newest")
	}
}

func TestUser_TouchDevice(t *testing.T) {
	u := &User{}

	u.TouchDevice("dev-1", "Firefox", "10.0.0.1", testNow)
	u.TouchDevice("dev-2", "Safari", "10.0.0.2", testNow)
	u.TouchDevice("dev-1", "Firefox 128", "10.0.0.3", testNow.Add(time.Hour))

	if len(u.Devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(u.Devices))
	}
	if u.Devices[0].UserAgent != "Firefox 128" || u.Devices[0].IPAddress != "10.0.0.3" {
		t.Error("existing device should be updated in place")
	}
	if !u.Devices[0].LastUsed.Equal(testNow.Add(time.Hour)) {
		t.Error("existing device should carry the new timestamp")
	}
}
