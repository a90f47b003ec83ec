package models

import "time"

// CafeStatus represents the lifecycle state of a cafe account.
type CafeStatus int

// CafeStatus constants define cafe lifecycle states.
const (
	// CafeStatusPending marks a cafe awaiting admin approval.
	CafeStatusPending CafeStatus = 1
	// CafeStatusActive marks an approved, operating cafe.
	CafeStatusActive CafeStatus = 2
	// CafeStatusRejected marks a cafe rejected by an admin.
	CafeStatusRejected CafeStatus = 3
)

// Cafe represents a cafe account stored in the database.
type Cafe struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name     string `gorm:"type:text;not null"`             // Cafe display name.
	Email    string `gorm:"type:text;not null;uniqueIndex"` // Owner email, used for sign-in.
	Password string `gorm:"type:text;not null"`             // Hashed password.
	Address  string `gorm:"type:text"`                      // Street address.

	Status CafeStatus `gorm:"not null;default:1"` // Current approval status.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
