package models

import "time"

// ChallengePurpose identifies the action a challenge code authorizes.
type ChallengePurpose int

// ChallengePurpose constants define challenge purposes.
const (
	// ChallengePurposeRegistration verifies a new account's email.
	ChallengePurposeRegistration ChallengePurpose = 1
	// ChallengePurposeRedemption authorizes a point redemption.
	ChallengePurposeRedemption ChallengePurpose = 2
	// ChallengePurposePasswordReset authorizes a password change.
	ChallengePurposePasswordReset ChallengePurpose = 3
)

// RedemptionPayload is the state captured at redemption-initiate time so the
// verify step can complete without re-querying mutable state.
type RedemptionPayload struct {
	CafeID uint64 // Redeeming cafe ID.
	UserID uint64 // Customer user ID.
	Points int64  // Points to debit on verification.
}

// Challenge is a short-lived, single-use numeric code bound to a subject and
// purpose. At most one live challenge exists per (subject, purpose) key; a new
// issuance overwrites the prior one, invalidating its code.
type Challenge struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Subject string           `gorm:"type:text;not null;uniqueIndex:idx_challenge_subject_purpose"` // Subject email.
	Purpose ChallengePurpose `gorm:"not null;uniqueIndex:idx_challenge_subject_purpose"`           // Authorized action.

	Code string `gorm:"type:text;not null"` // 6-digit numeric code.

	// Redemption payload columns, unset for other purposes.
	CafeID *uint64 `gorm:""` // Redeeming cafe ID.
	UserID *uint64 `gorm:""` // Customer user ID.
	Points *int64  `gorm:""` // Points to debit.

	ExpiresAt time.Time `gorm:"not null;index"`          // Hard TTL; expired rows are treated as absent.
	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

// Redemption returns the typed redemption payload when the challenge carries
// one.
func (c *Challenge) Redemption() (RedemptionPayload, bool) {
	if c == nil || c.Purpose != ChallengePurposeRedemption {
		return RedemptionPayload{}, false
	}
	if c.CafeID == nil || c.UserID == nil || c.Points == nil {
		return RedemptionPayload{}, false
	}
	return RedemptionPayload{CafeID: *c.CafeID, UserID: *c.UserID, Points: *c.Points}, true
}

// Expired reports whether the challenge TTL has passed at the given time.
func (c *Challenge) Expired(now time.Time) bool {
	return c == nil || !now.Before(c.ExpiresAt)
}
