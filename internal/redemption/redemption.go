// Package redemption runs the two-phase, OTP-gated point redemption protocol:
// a cafe initiates against a customer's balance, the customer receives a code
// by email, and the cafe verifies the code to debit the ledger. The balance is
// checked optimistically at initiate and authoritatively at verify, which
// tolerates the time a human code exchange takes without allowing
// over-redemption from a stale approval.
package redemption

import (
	"context"
	"errors"
	"fmt"

	"github.com/brewloyal/brewloyal/internal/challenge"
	"github.com/brewloyal/brewloyal/internal/ledger"
	"github.com/brewloyal/brewloyal/internal/mailer"
	"github.com/brewloyal/brewloyal/internal/models"
	"github.com/brewloyal/brewloyal/internal/settings"
	"gorm.io/gorm"
)

// Errors returned by the redemption protocol.
var (
	// ErrInvalidAmount indicates a non-positive redemption request.
	ErrInvalidAmount = errors.New("redemption: points must be positive")
	// ErrCustomerNotFound indicates no user matches the given phone number.
	ErrCustomerNotFound = errors.New("redemption: customer not found")
	// ErrCafeNotFound indicates an unknown cafe ID.
	ErrCafeNotFound = errors.New("redemption: cafe not found")
	// ErrNotificationFailed indicates the code could not be delivered; the
	// challenge has been retracted and the cafe must re-initiate.
	ErrNotificationFailed = errors.New("redemption: could not deliver code to customer")
)

// Service coordinates the challenge store, the ledger, and mail delivery.
type Service struct {
	db         *gorm.DB
	challenges *challenge.Store
	mail       mailer.Sender
}

// NewService constructs a redemption Service.
func NewService(db *gorm.DB, challenges *challenge.Store, mail mailer.Sender) *Service {
	return &Service{db: db, challenges: challenges, mail: mail}
}

// Initiate starts a redemption: it checks the customer's balance, issues a
// redemption challenge keyed by the customer's email, and mails the code.
// It returns the customer's email for the caller to correlate the verify
// phase. No ledger state is mutated; an unverified challenge simply expires.
func (s *Service) Initiate(ctx context.Context, cafeID uint64, customerPhone string, points int64) (string, error) {
	if points <= 0 {
		return "", ErrInvalidAmount
	}

	var customer models.User
	if errFind := s.db.WithContext(ctx).Where("phone = ?", customerPhone).First(&customer).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return "", ErrCustomerNotFound
		}
		return "", fmt.Errorf("redemption: resolve customer: %w", errFind)
	}

	var cafe models.Cafe
	if errFind := s.db.WithContext(ctx).First(&cafe, cafeID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return "", ErrCafeNotFound
		}
		return "", fmt.Errorf("redemption: resolve cafe: %w", errFind)
	}

	balance, errBalance := ledger.NewStore(s.db).Balance(ctx, customer.ID, cafeID)
	if errBalance != nil {
		return "", errBalance
	}
	if points > balance {
		return "", &ledger.InsufficientBalanceError{Requested: points, Available: balance}
	}

	payload := models.RedemptionPayload{CafeID: cafeID, UserID: customer.ID, Points: points}
	code, errIssue := s.challenges.Issue(ctx, customer.Email, models.ChallengePurposeRedemption, &payload, challenge.RedemptionTTL)
	if errIssue != nil {
		return "", errIssue
	}

	minutes := int(challenge.RedemptionTTL.Minutes())
	subject, text, html := mailer.RedemptionMessage(settings.SiteName(ctx, s.db), cafe.Name, points, code, minutes)
	if errSend := s.mail.Send(ctx, customer.Email, subject, text, html); errSend != nil {
		// The customer never saw the code; do not leave a live challenge.
		if errRetract := s.challenges.Retract(ctx, customer.Email, models.ChallengePurposeRedemption); errRetract != nil {
			return "", errRetract
		}
		return "", fmt.Errorf("%w: %w", ErrNotificationFailed, errSend)
	}

	return customer.Email, nil
}

// Verify consumes the customer's code and debits the ledger. The challenge is
// consumed first and is not reissued on failure: if the balance moved since
// initiate and the debit fails, the cafe must re-initiate.
func (s *Service) Verify(ctx context.Context, customerEmail, code string) error {
	consumed, errConsume := s.challenges.Consume(ctx, customerEmail, models.ChallengePurposeRedemption, code)
	if errConsume != nil {
		return errConsume
	}
	payload, ok := consumed.Redemption()
	if !ok {
		return challenge.ErrInvalidOrExpired
	}

	var cafe models.Cafe
	if errFind := s.db.WithContext(ctx).First(&cafe, payload.CafeID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return ErrCafeNotFound
		}
		return fmt.Errorf("redemption: resolve cafe: %w", errFind)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, errDebit := ledger.NewStore(tx).Debit(ctx, payload.UserID, payload.CafeID, payload.Points); errDebit != nil {
			return errDebit
		}
		txRow := models.RewardTransaction{
			UserID:      payload.UserID,
			CafeID:      payload.CafeID,
			Type:        models.TransactionTypeRedeem,
			Points:      -payload.Points,
			Description: fmt.Sprintf("Redeemed %d points at %s", payload.Points, cafe.Name),
		}
		if errCreate := tx.Create(&txRow).Error; errCreate != nil {
			return fmt.Errorf("redemption: create transaction: %w", errCreate)
		}
		return nil
	})
}
