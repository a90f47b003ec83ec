// Package claims is the admin-mediated credit path into the ledger: a user
// submits a spend claim with proof, and an admin approves it (crediting the
// ledger through the visit recorder) or rejects it. A claim leaves pending at
// most once.
package claims

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brewloyal/brewloyal/internal/models"
	"github.com/brewloyal/brewloyal/internal/visit"
	"gorm.io/gorm"
)

// Errors returned by the claim workflow.
var (
	// ErrNotFound indicates an unknown claim ID.
	ErrNotFound = errors.New("claims: claim not found")
	// ErrAlreadyProcessed indicates a claim already approved or rejected.
	ErrAlreadyProcessed = errors.New("claims: claim already processed")
	// ErrInvalidAmount indicates a non-positive claimed spend.
	ErrInvalidAmount = errors.New("claims: amount must be positive")
)

// Service adjudicates reward claims.
type Service struct {
	db *gorm.DB
}

// NewService constructs a claims Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Submit creates a pending claim for a user's off-platform spend.
func (s *Service) Submit(ctx context.Context, userID, cafeID uint64, amount float64, invoiceProof string) (*models.RewardClaim, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	var cafe models.Cafe
	if errFind := s.db.WithContext(ctx).First(&cafe, cafeID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, visit.ErrCafeNotFound
		}
		return nil, fmt.Errorf("claims: resolve cafe: %w", errFind)
	}

	claim := models.RewardClaim{
		UserID:       userID,
		CafeID:       cafeID,
		Amount:       amount,
		InvoiceProof: invoiceProof,
		Status:       models.ClaimStatusPending,
	}
	if errCreate := s.db.WithContext(ctx).Create(&claim).Error; errCreate != nil {
		return nil, fmt.Errorf("claims: create claim: %w", errCreate)
	}
	return &claim, nil
}

// Approve moves a pending claim to approved and credits the ledger through
// the visit recorder with the admin flag set. The status transition and the
// credit commit in one transaction, so an approved claim always has its
// matching ledger effect.
func (s *Service) Approve(ctx context.Context, claimID uint64) (visit.Result, error) {
	var result visit.Result
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim, errTake := takePending(ctx, tx, claimID, models.ClaimStatusApproved)
		if errTake != nil {
			return errTake
		}
		var errRecord error
		result, errRecord = visit.RecordVisitWithConn(ctx, tx, claim.UserID, claim.CafeID, claim.Amount, true)
		return errRecord
	})
	if errTx != nil {
		return visit.Result{}, errTx
	}
	return result, nil
}

// Reject moves a pending claim to rejected. Terminal, no ledger effect.
func (s *Service) Reject(ctx context.Context, claimID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, errTake := takePending(ctx, tx, claimID, models.ClaimStatusRejected)
		return errTake
	})
}

// takePending transitions a claim out of pending exactly once. The status
// check and the update are one conditional statement; a claim that already
// left pending affects zero rows.
func takePending(ctx context.Context, tx *gorm.DB, claimID uint64, to models.ClaimStatus) (*models.RewardClaim, error) {
	now := time.Now().UTC()
	res := tx.WithContext(ctx).Model(&models.RewardClaim{}).
		Where("id = ? AND status = ?", claimID, models.ClaimStatusPending).
		Updates(map[string]any{
			"status":       to,
			"processed_at": now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("claims: update status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var existing models.RewardClaim
		if errFind := tx.WithContext(ctx).First(&existing, claimID).Error; errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("claims: load claim: %w", errFind)
		}
		return nil, ErrAlreadyProcessed
	}

	var claim models.RewardClaim
	if errFind := tx.WithContext(ctx).First(&claim, claimID).Error; errFind != nil {
		return nil, fmt.Errorf("claims: reload claim: %w", errFind)
	}
	return &claim, nil
}
