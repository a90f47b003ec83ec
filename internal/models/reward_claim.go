package models

import "time"

// ClaimStatus represents the lifecycle state of a reward claim.
type ClaimStatus int

// ClaimStatus constants define claim lifecycle states.
const (
	// ClaimStatusPending marks a claim awaiting admin review.
	ClaimStatusPending ClaimStatus = 1
	// ClaimStatusApproved marks a claim credited to the ledger.
	ClaimStatusApproved ClaimStatus = 2
	// ClaimStatusRejected marks a claim closed with no ledger effect.
	ClaimStatusRejected ClaimStatus = 3
)

// RewardClaim is a user-submitted assertion of an off-platform spend,
// adjudicated by an admin. A claim leaves pending at most once.
type RewardClaim struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`    // Claiming user ID.
	User   User   `gorm:"foreignKey:UserID"` // Claiming user record.

	CafeID uint64 `gorm:"not null;index"`    // Cafe the spend happened at.
	Cafe   Cafe   `gorm:"foreignKey:CafeID"` // Cafe record.

	Amount       float64 `gorm:"type:decimal(10,2);not null"` // Claimed spend amount.
	InvoiceProof string  `gorm:"type:text"`                   // Opaque URL or reference to the uploaded proof.

	Status ClaimStatus `gorm:"not null;default:1"` // Current claim status.

	CreatedAt   time.Time  `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt   time.Time  `gorm:"not null;autoUpdateTime"` // Last update timestamp.
	ProcessedAt *time.Time // Approval or rejection time, if processed.
}
