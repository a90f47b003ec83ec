package models

import (
	"time"

	"gorm.io/datatypes"
)

// Admin represents a platform administrator account.
type Admin struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Username string `gorm:"type:text;not null;uniqueIndex"` // Unique login name.
	Password string `gorm:"type:text;not null"`             // Hashed password.
	Name     string `gorm:"type:text"`                      // Display name.

	Active       bool `gorm:"not null;default:true"`  // Whether the admin can sign in.
	IsSuperAdmin bool `gorm:"not null;default:false"` // Whether the admin bypasses permission checks.

	TOTPSecret  string         `gorm:"type:text"`       // TOTP secret for MFA, empty when disabled.
	Permissions datatypes.JSON `gorm:"default:'[]'"`    // Granted permission names as a JSON array.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
