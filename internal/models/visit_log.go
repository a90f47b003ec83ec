package models

import "time"

// VisitLog is the append-only audit record for one credited visit.
// Rows are immutable once written.
type VisitLog struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	UserID uint64 `gorm:"not null;index"`    // Visiting user ID.
	User   User   `gorm:"foreignKey:UserID"` // Visiting user record.

	CafeID uint64 `gorm:"not null;index"`    // Visited cafe ID.
	Cafe   Cafe   `gorm:"foreignKey:CafeID"` // Visited cafe record.

	AmountSpent  float64 `gorm:"type:decimal(10,2);not null"` // Spend amount in currency units, cafe-provided.
	PointsEarned int64   `gorm:"not null"`                    // Points credited for this visit.
	XPEarned     int64   `gorm:"not null"`                    // XP credited for this visit.
	FromAdmin    bool    `gorm:"not null;default:false"`      // Whether an admin-approved claim produced this visit.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
