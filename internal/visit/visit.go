// Package visit converts a monetary spend into point and XP credits. Both the
// cafe-logged visit path and the admin-approved claim path run through
// RecordVisit, so the two entry points can never drift apart on arithmetic.
package visit

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/brewloyal/brewloyal/internal/ledger"
	"github.com/brewloyal/brewloyal/internal/models"
	"github.com/brewloyal/brewloyal/internal/settings"
	"gorm.io/gorm"
)

// Errors returned by the visit recorder.
var (
	// ErrUserNotFound indicates an unknown user ID.
	ErrUserNotFound = errors.New("visit: user not found")
	// ErrCafeNotFound indicates an unknown cafe ID.
	ErrCafeNotFound = errors.New("visit: cafe not found")
	// ErrInvalidAmount indicates a negative spend amount.
	ErrInvalidAmount = errors.New("visit: invalid spend amount")
)

// Result reports the effect of one recorded visit.
type Result struct {
	PointsEarned int64 `json:"points_earned"`
	XPEarned     int64 `json:"xp_earned"`
	NewBalance   int64 `json:"new_balance"`
	NewXP        int64 `json:"new_xp"`
}

// Service records visits against the ledger.
type Service struct {
	db *gorm.DB
}

// NewService constructs a visit Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// RecordVisit credits a user for a spend at a cafe in one transaction.
func (s *Service) RecordVisit(ctx context.Context, userID, cafeID uint64, amountSpent float64, fromAdmin bool) (Result, error) {
	var result Result
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var errRecord error
		result, errRecord = RecordVisitWithConn(ctx, tx, userID, cafeID, amountSpent, fromAdmin)
		return errRecord
	})
	if errTx != nil {
		return Result{}, errTx
	}
	return result, nil
}

// RecordVisitWithConn records a visit on an existing connection or
// transaction. The ledger credit, the XP credit, the visit log row, and the
// earn transaction commit together or not at all.
func RecordVisitWithConn(ctx context.Context, conn *gorm.DB, userID, cafeID uint64, amountSpent float64, fromAdmin bool) (Result, error) {
	if amountSpent < 0 {
		return Result{}, ErrInvalidAmount
	}

	var user models.User
	if errFind := conn.WithContext(ctx).First(&user, userID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return Result{}, ErrUserNotFound
		}
		return Result{}, fmt.Errorf("visit: load user: %w", errFind)
	}
	var cafe models.Cafe
	if errFind := conn.WithContext(ctx).First(&cafe, cafeID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return Result{}, ErrCafeNotFound
		}
		return Result{}, fmt.Errorf("visit: load cafe: %w", errFind)
	}

	pointsEarned := ComputePoints(amountSpent, fromAdmin && user.HasMultiplier)
	xpEarned := pointsEarned * settings.XPPerPoint

	led := ledger.NewStore(conn)
	newBalance, errCredit := led.Credit(ctx, userID, cafeID, pointsEarned)
	if errCredit != nil {
		return Result{}, errCredit
	}
	if errXP := led.CreditXP(ctx, userID, xpEarned); errXP != nil {
		return Result{}, errXP
	}

	logRow := models.VisitLog{
		UserID:       userID,
		CafeID:       cafeID,
		AmountSpent:  amountSpent,
		PointsEarned: pointsEarned,
		XPEarned:     xpEarned,
		FromAdmin:    fromAdmin,
	}
	if errCreate := conn.WithContext(ctx).Create(&logRow).Error; errCreate != nil {
		return Result{}, fmt.Errorf("visit: create visit log: %w", errCreate)
	}

	txRow := models.RewardTransaction{
		UserID:      userID,
		CafeID:      cafeID,
		Type:        models.TransactionTypeEarn,
		Points:      pointsEarned,
		Description: fmt.Sprintf("Earned %d points at %s", pointsEarned, cafe.Name),
	}
	if errCreate := conn.WithContext(ctx).Create(&txRow).Error; errCreate != nil {
		return Result{}, fmt.Errorf("visit: create transaction: %w", errCreate)
	}

	return Result{
		PointsEarned: pointsEarned,
		XPEarned:     xpEarned,
		NewBalance:   newBalance,
		NewXP:        user.XP + xpEarned,
	}, nil
}

// ComputePoints converts a spend amount into points: floor(amount / divisor),
// scaled by the admin multiplier (and floored again) when it applies.
func ComputePoints(amountSpent float64, multiplied bool) int64 {
	points := int64(math.Floor(amountSpent / settings.PointsPerCurrencyUnit))
	if multiplied {
		points = int64(math.Floor(float64(points) * settings.AdminCreditMultiplier))
	}
	return points
}
