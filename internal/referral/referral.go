// Package referral grants one-time XP bonuses when a new user passes email
// verification. The grant rides inside the verification transaction, so a
// verified user always carries at least the base registration XP.
package referral

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brewloyal/brewloyal/internal/ledger"
	"github.com/brewloyal/brewloyal/internal/models"
	"github.com/brewloyal/brewloyal/internal/settings"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Allocator applies registration and referral XP bonuses.
type Allocator struct{}

// NewAllocator constructs an Allocator.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// ApplyWithConn grants verification-time XP on an existing connection or
// transaction: the base registration bonus always, plus referee and referrer
// bonuses when the user's ReferredBy names a valid existing referral code.
// Self-referral is ignored.
func (a *Allocator) ApplyWithConn(ctx context.Context, conn *gorm.DB, user *models.User) error {
	if user == nil {
		return fmt.Errorf("referral: nil user")
	}

	led := ledger.NewStore(conn)

	refereeXP := int64(settings.RegistrationXPBonus)
	referredBy := strings.TrimSpace(user.ReferredBy)
	if referredBy != "" {
		var referrer models.User
		errFind := conn.WithContext(ctx).
			Where("referral_code = ? AND id <> ?", referredBy, user.ID).
			First(&referrer).Error
		switch {
		case errFind == nil:
			refereeXP += settings.RefereeXPBonus
			if errCredit := led.CreditXP(ctx, referrer.ID, settings.ReferrerXPBonus); errCredit != nil {
				return errCredit
			}
		case errors.Is(errFind, gorm.ErrRecordNotFound):
			// Unknown code: the base bonus still applies, nothing else.
		default:
			return fmt.Errorf("referral: resolve referrer: %w", errFind)
		}
	}

	return led.CreditXP(ctx, user.ID, refereeXP)
}

// NewCode generates a fresh referral code for a new account.
func NewCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
