// Package challenge holds short-lived, single-use verification codes keyed by
// (subject, purpose). Issuing overwrites any prior live challenge for the key;
// consuming deletes the row atomically with the code match, so two racing
// verify attempts resolve to exactly one success.
package challenge

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/brewloyal/brewloyal/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Challenge TTLs per purpose.
const (
	// RegistrationTTL bounds the lifetime of registration codes.
	RegistrationTTL = 10 * time.Minute
	// RedemptionTTL bounds the lifetime of redemption codes.
	RedemptionTTL = 10 * time.Minute
	// PasswordResetTTL bounds the lifetime of password-reset codes.
	PasswordResetTTL = 5 * time.Minute
)

// ErrInvalidOrExpired indicates a missing, expired, mismatched, or already
// consumed challenge. The causes are deliberately indistinguishable so callers
// cannot probe which codes ever existed.
var ErrInvalidOrExpired = errors.New("challenge: invalid or expired code")

// Store persists challenges through one gorm connection.
type Store struct {
	conn *gorm.DB
}

// NewStore constructs a Store on the given connection or transaction.
func NewStore(conn *gorm.DB) *Store {
	return &Store{conn: conn}
}

// Issue generates a 6-digit code for the (subject, purpose) key and upserts
// it, invalidating any prior code for that key. Only the newest issuance is
// valid. The payload is stored for redemption challenges and ignored otherwise.
func (s *Store) Issue(ctx context.Context, subject string, purpose models.ChallengePurpose, payload *models.RedemptionPayload, ttl time.Duration) (string, error) {
	code, errCode := generateCode()
	if errCode != nil {
		return "", errCode
	}

	now := time.Now().UTC()
	row := models.Challenge{
		Subject:   subject,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if payload != nil {
		row.CafeID = &payload.CafeID
		row.UserID = &payload.UserID
		row.Points = &payload.Points
	}

	errUpsert := s.conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "subject"}, {Name: "purpose"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"code", "cafe_id", "user_id", "points", "expires_at", "created_at",
		}),
	}).Create(&row).Error
	if errUpsert != nil {
		return "", fmt.Errorf("challenge: issue: %w", errUpsert)
	}
	return code, nil
}

// Consume validates and deletes the challenge for the (subject, purpose) key.
// On success the stored challenge row is returned so callers can read its
// payload. The deletion re-checks the code, so of two concurrent consumers at
// most one observes a deleted row and succeeds.
func (s *Store) Consume(ctx context.Context, subject string, purpose models.ChallengePurpose, code string) (*models.Challenge, error) {
	var row models.Challenge
	errFind := s.conn.WithContext(ctx).
		Where("subject = ? AND purpose = ?", subject, purpose).
		First(&row).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidOrExpired
		}
		return nil, fmt.Errorf("challenge: lookup: %w", errFind)
	}

	now := time.Now().UTC()
	if row.Expired(now) || row.Code != code {
		return nil, ErrInvalidOrExpired
	}

	// Single-use guarantee: the delete re-matches id and code, so a racing
	// consume or a reissue between lookup and delete makes this affect zero
	// rows and the call fails.
	res := s.conn.WithContext(ctx).
		Where("id = ? AND code = ?", row.ID, code).
		Delete(&models.Challenge{})
	if res.Error != nil {
		return nil, fmt.Errorf("challenge: consume: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidOrExpired
	}
	return &row, nil
}

// Retract removes the live challenge for a key, if any. Used when the code
// could not be delivered to the subject.
func (s *Store) Retract(ctx context.Context, subject string, purpose models.ChallengePurpose) error {
	errDelete := s.conn.WithContext(ctx).
		Where("subject = ? AND purpose = ?", subject, purpose).
		Delete(&models.Challenge{}).Error
	if errDelete != nil {
		return fmt.Errorf("challenge: retract: %w", errDelete)
	}
	return nil
}

// PurgeExpired deletes challenges past their TTL. Expiry is already enforced
// lazily by Consume; this only reclaims storage.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.conn.WithContext(ctx).
		Where("expires_at <= ?", time.Now().UTC()).
		Delete(&models.Challenge{})
	if res.Error != nil {
		return 0, fmt.Errorf("challenge: purge expired: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// generateCode returns a uniformly random 6-digit numeric code.
func generateCode() (string, error) {
	n, errRand := rand.Int(rand.Reader, big.NewInt(1000000))
	if errRand != nil {
		return "", fmt.Errorf("challenge: generate code: %w", errRand)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
