package models

import "time"

// PointsBalance records the redeemable point balance for one user at one cafe.
// There is at most one row per (user, cafe) pair; it is created lazily on the
// first credit and mutated only through the ledger store.
type PointsBalance struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;uniqueIndex:idx_points_user_cafe"` // Owning user ID.

	CafeID uint64 `gorm:"not null;uniqueIndex:idx_points_user_cafe"` // Cafe the points are redeemable at.
	Cafe   Cafe   `gorm:"foreignKey:CafeID"`                         // Cafe record.

	TotalPoints int64 `gorm:"not null;default:0"` // Current balance, never negative.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
