package models

import (
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func TestLockoutState_LocksAtThreshold(t *testing.T) {
	s := LockoutState{}
	for i := 0; i < MaxFailedAttempts-1; i++ {
		s = s.RecordFailure(testNow)
		if s.IsLocked(testNow) {
			t.Fatalf("locked after %d failures", i+1)
		}
	}

	s = s.RecordFailure(testNow)
	if !s.IsLocked(testNow) {
		t.Fatal("expected lock after fifth failure")
	}
	if s.LockedUntil == nil || !s.LockedUntil.Equal(testNow.Add(AutoLockDuration)) {
		t.Errorf("unexpected lock window: %v", s.LockedUntil)
	}
}

func TestLockoutState_WindowExpires(t *testing.T) {
	s := LockoutState{}
	for i := 0; i < MaxFailedAttempts; i++ {
		s = s.RecordFailure(testNow)
	}

	if !s.IsLocked(testNow.Add(14 * time.Minute)) {
		t.Error("expected lock to hold within the window")
	}
	if s.IsLocked(testNow.Add(AutoLockDuration)) {
		t.Error("expected lock to lapse at the boundary")
	}
	// Counter survives the window; only a success clears it
	if s.FailedAttempts != MaxFailedAttempts {
		t.Errorf("expected counter %d, got %d", MaxFailedAttempts, s.FailedAttempts)
	}
}

func TestLockoutState_RemainingMinutesRoundsUp(t *testing.T) {
	s := LockoutState{}
	for i := 0; i < MaxFailedAttempts; i++ {
		s = s.RecordFailure(testNow)
	}

	if got := s.RemainingMinutes(testNow); got != 15 {
		t.Errorf("expected 15 minutes, got %d", got)
	}
	if got := s.RemainingMinutes(testNow.Add(30 * time.Second)); got != 15 {
		t.Errorf("expected 30s in to round up to 15, got %d", got)
	}
	if got := s.RemainingMinutes(testNow.Add(14*time.Minute + 1*time.Second)); got != 1 {
		t.Errorf("expected final partial minute to report 1, got %d", got)
	}
	if got := s.RemainingMinutes(testNow.Add(16 * time.Minute)); got != 0 {
		t.Errorf("expected 0 after expiry, got %d", got)
	}
}

func TestLockoutState_AttemptsRemaining(t *testing.T) {
	s := LockoutState{}
	if got := s.AttemptsRemaining(); got != MaxFailedAttempts {
		t.Errorf("expected %d, got %d", MaxFailedAttempts, got)
	}

	s = s.RecordFailure(testNow).RecordFailure(testNow)
	if got := s.AttemptsRemaining(); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
}

func TestLockoutState_SuccessResetsEverything(t *testing.T) {
	s := LockoutState{}
	for i := 0; i < MaxFailedAttempts; i++ {
		s = s.RecordFailure(testNow)
	}

	s = s.RecordSuccess()
	if s.FailedAttempts != 0 || s.LockedUntil != nil {
		t.Errorf("expected clean state, got %+v", s)
	}
}
