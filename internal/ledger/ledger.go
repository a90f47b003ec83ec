// Package ledger is the authoritative store of per-user, per-cafe point
// balances and per-user XP. All balance mutation in the system goes through
// this package; every operation is a single atomic statement against the
// backing store so concurrent credits and debits on the same (user, cafe) key
// serialize without in-process locks.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brewloyal/brewloyal/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrUserNotFound indicates an XP credit against an unknown user.
var ErrUserNotFound = errors.New("ledger: user not found")

// InsufficientBalanceError reports a debit that exceeds the available balance.
// Both amounts are part of the caller-facing contract so a cafe operator can
// correct course without a second lookup.
type InsufficientBalanceError struct {
	Requested int64
	Available int64
}

// Error formats the requested and available amounts.
func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %d points, available %d", e.Requested, e.Available)
}

// Store reads and mutates point balances and XP through one gorm connection.
// Bind it to a transaction with NewStore(tx) to compose with other writes.
type Store struct {
	conn *gorm.DB
}

// NewStore constructs a Store on the given connection or transaction.
func NewStore(conn *gorm.DB) *Store {
	return &Store{conn: conn}
}

// Balance returns the current balance for a (user, cafe) pair, 0 when no
// balance row exists yet.
func (s *Store) Balance(ctx context.Context, userID, cafeID uint64) (int64, error) {
	var row models.PointsBalance
	errFind := s.conn.WithContext(ctx).
		Where("user_id = ? AND cafe_id = ?", userID, cafeID).
		First(&row).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("ledger: read balance: %w", errFind)
	}
	return row.TotalPoints, nil
}

// Credit adds points to a (user, cafe) balance, creating the row on first
// credit. The increment rides on the database's conflict resolution, so
// concurrent credits against the same key never lose updates.
func (s *Store) Credit(ctx context.Context, userID, cafeID uint64, points int64) (int64, error) {
	if points < 0 {
		return 0, fmt.Errorf("ledger: negative credit amount %d", points)
	}

	now := time.Now().UTC()
	row := models.PointsBalance{
		UserID:      userID,
		CafeID:      cafeID,
		TotalPoints: points,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	errUpsert := s.conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "cafe_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"total_points": gorm.Expr("points_balances.total_points + excluded.total_points"),
			"updated_at":   now,
		}),
	}).Create(&row).Error
	if errUpsert != nil {
		return 0, fmt.Errorf("ledger: credit: %w", errUpsert)
	}

	return s.Balance(ctx, userID, cafeID)
}

// Debit subtracts points from a (user, cafe) balance. The balance check and
// the decrement are one conditional UPDATE, so the balance can never go
// negative, including under concurrent debits on the same key.
func (s *Store) Debit(ctx context.Context, userID, cafeID uint64, points int64) (int64, error) {
	if points < 0 {
		return 0, fmt.Errorf("ledger: negative debit amount %d", points)
	}

	res := s.conn.WithContext(ctx).Model(&models.PointsBalance{}).
		Where("user_id = ? AND cafe_id = ? AND total_points >= ?", userID, cafeID, points).
		Updates(map[string]any{
			"total_points": gorm.Expr("total_points - ?", points),
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("ledger: debit: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		available, errRead := s.Balance(ctx, userID, cafeID)
		if errRead != nil {
			return 0, errRead
		}
		return 0, &InsufficientBalanceError{Requested: points, Available: available}
	}

	return s.Balance(ctx, userID, cafeID)
}

// CreditXP increments a user's XP. XP is global, monotonic, and independent of
// any cafe balance.
func (s *Store) CreditXP(ctx context.Context, userID uint64, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("ledger: negative xp amount %d", amount)
	}
	res := s.conn.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"xp":         gorm.Expr("xp + ?", amount),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("ledger: credit xp: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Reconcile returns the sum of signed transaction points for a (user, cafe)
// pair. A healthy ledger satisfies Reconcile == Balance for every pair.
func (s *Store) Reconcile(ctx context.Context, userID, cafeID uint64) (int64, error) {
	var total int64
	errSum := s.conn.WithContext(ctx).Model(&models.RewardTransaction{}).
		Where("user_id = ? AND cafe_id = ?", userID, cafeID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error
	if errSum != nil {
		return 0, fmt.Errorf("ledger: reconcile: %w", errSum)
	}
	return total, nil
}
