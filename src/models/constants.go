package models

// Role represents a user's authorization level
type Role string

const (
	// RoleUser is the default role for board members
	RoleUser Role = "user"
	// RoleModerator can manage boards but not accounts
	RoleModerator Role = "moderator"
	// RoleAdmin can manage accounts, locks and edit sessions
	RoleAdmin Role = "admin"
)

// SessionStatus represents the lifecycle state of an edit session
type SessionStatus string

const (
	// SessionActive indicates the lease is current
	SessionActive SessionStatus = "active"
	// SessionExpired indicates the lease ran out before being released
	SessionExpired SessionStatus = "expired"
	// SessionCompleted indicates the holder released the lease
	SessionCompleted SessionStatus = "completed"
)

// LockAction identifies a lock-history entry
type LockAction string

const (
	// LockActionLocked records an admin imposing a lock
	LockActionLocked LockAction = "locked"
	// LockActionUnlocked records an admin removing a lock
	LockActionUnlocked LockAction = "unlocked"
)

// Audit entry statuses
const (
	AuditStatusSuccess = "success"
	AuditStatusFailure = "failure"
	AuditStatusWarning = "warning"
	AuditStatusError   = "error"
)
