package models

import "time"

// TransactionType represents the direction of a reward transaction.
type TransactionType int

// TransactionType constants define transaction directions.
const (
	// TransactionTypeEarn credits points to a balance.
	TransactionTypeEarn TransactionType = 1
	// TransactionTypeRedeem debits points from a balance.
	TransactionTypeRedeem TransactionType = 2
)

// RewardTransaction is the canonical, immutable transaction log. For every
// (user, cafe) pair the sum of signed Points must equal the PointsBalance row.
type RewardTransaction struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index:idx_tx_user_cafe"` // Owning user ID.
	CafeID uint64 `gorm:"not null;index:idx_tx_user_cafe"` // Cafe the transaction applies to.

	Type   TransactionType `gorm:"not null"`  // Earn or redeem.
	Points int64           `gorm:"not null"`  // Signed delta: positive for earn, negative for redeem.

	Description string `gorm:"type:text"` // Human-readable activity line.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
