package models

import (
	"time"

	"github.com/google/uuid"
)

// ResetCodeTTL is how long a password reset code stays valid
const ResetCodeTTL = 15 * time.Minute

// PasswordReset is a single-use numeric reset code issued by email
type PasswordReset struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Code      string    `json:"-"`
	Verified  bool      `json:"verified"`
	Used      bool      `json:"used"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired reports whether the code can no longer be used.
func (p *PasswordReset) IsExpired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}
