package models

import "time"

// User represents an end-user account stored in the database.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Phone    string `gorm:"type:text;not null;uniqueIndex"` // Unique phone number, primary external key.
	Email    string `gorm:"type:text;not null;uniqueIndex"` // Email address, challenge subject.
	Name     string `gorm:"type:text"`                      // Display name.
	Password string `gorm:"type:text;not null"`             // Hashed password.

	XP int64 `gorm:"not null;default:0"` // Lifetime experience score, never spent.

	ReferralCode string `gorm:"type:text;not null;uniqueIndex"` // Code this user shares with others.
	ReferredBy   string `gorm:"type:text"`                      // Referral code used at signup, immutable.

	HasMultiplier bool `gorm:"not null;default:false"` // Scales admin-approved credits by 1.5x.
	Verified      bool `gorm:"not null;default:false"` // Whether the registration challenge was passed.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
