package visit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/brewloyal/brewloyal/internal/db"
	"github.com/brewloyal/brewloyal/internal/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "visit-test.db")
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, phone string, multiplier bool) *models.User {
	t.Helper()
	user := models.User{
		Phone:         phone,
		Email:         phone + "@example.test",
		Name:          "Test User",
		Password:      "hashed",
		ReferralCode:  "REF" + phone,
		HasMultiplier: multiplier,
		Verified:      true,
	}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	return &user
}

func seedCafe(t *testing.T, conn *gorm.DB, name string) *models.Cafe {
	t.Helper()
	cafe := models.Cafe{
		Name:     name,
		Email:    name + "@example.test",
		Password: "hashed",
		Status:   models.CafeStatusActive,
	}
	if errCreate := conn.Create(&cafe).Error; errCreate != nil {
		t.Fatalf("create cafe: %v", errCreate)
	}
	return &cafe
}

func TestComputePoints(t *testing.T) {
	cases := []struct {
		amount     float64
		multiplied bool
		want       int64
	}{
		{amount: 0, multiplied: false, want: 0},
		{amount: 9.99, multiplied: false, want: 0},
		{amount: 10, multiplied: false, want: 1},
		{amount: 255, multiplied: false, want: 25},
		{amount: 255, multiplied: true, want: 37},
		{amount: 100, multiplied: true, want: 15},
	}
	for _, tc := range cases {
		got := ComputePoints(tc.amount, tc.multiplied)
		if got != tc.want {
			t.Fatalf("ComputePoints(%v, %v) = %d, want %d", tc.amount, tc.multiplied, got, tc.want)
		}
	}
}

func TestRecordVisit_CreditsPointsAndXP(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn, "5551001", false)
	cafe := seedCafe(t, conn, "north")
	svc := NewService(conn)

	result, err := svc.RecordVisit(context.Background(), user.ID, cafe.ID, 255, false)
	if err != nil {
		t.Fatalf("record visit: %v", err)
	}
	if result.PointsEarned != 25 {
		t.Fatalf("expected 25 points, got %d", result.PointsEarned)
	}
	if result.XPEarned != 50 {
		t.Fatalf("expected 50 xp, got %d", result.XPEarned)
	}
	if result.NewBalance != 25 {
		t.Fatalf("expected balance 25, got %d", result.NewBalance)
	}

	var reloaded models.User
	if errFind := conn.First(&reloaded, user.ID).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if reloaded.XP != 50 {
		t.Fatalf("expected stored xp 50, got %d", reloaded.XP)
	}

	var visitCount, txCount int64
	if errCount := conn.Model(&models.VisitLog{}).Count(&visitCount).Error; errCount != nil {
		t.Fatalf("count visits: %v", errCount)
	}
	if errCount := conn.Model(&models.RewardTransaction{}).Where("type = ?", models.TransactionTypeEarn).Count(&txCount).Error; errCount != nil {
		t.Fatalf("count transactions: %v", errCount)
	}
	if visitCount != 1 || txCount != 1 {
		t.Fatalf("expected 1 visit log and 1 earn transaction, got %d and %d", visitCount, txCount)
	}
}

func TestRecordVisit_MultiplierOnlyOnAdminPath(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn, "5551002", true)
	cafe := seedCafe(t, conn, "north")
	svc := NewService(conn)
	ctx := context.Background()

	// Cafe-logged visit: multiplier must not apply.
	result, err := svc.RecordVisit(ctx, user.ID, cafe.ID, 100, false)
	if err != nil {
		t.Fatalf("cafe visit: %v", err)
	}
	if result.PointsEarned != 10 {
		t.Fatalf("expected 10 points on cafe path, got %d", result.PointsEarned)
	}

	// Admin-approved credit: multiplier applies.
	result, err = svc.RecordVisit(ctx, user.ID, cafe.ID, 100, true)
	if err != nil {
		t.Fatalf("admin visit: %v", err)
	}
	if result.PointsEarned != 15 {
		t.Fatalf("expected 15 points on admin path, got %d", result.PointsEarned)
	}
}

func TestRecordVisit_AdminPathWithoutMultiplierFlag(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn, "5551003", false)
	cafe := seedCafe(t, conn, "north")
	svc := NewService(conn)

	result, err := svc.RecordVisit(context.Background(), user.ID, cafe.ID, 100, true)
	if err != nil {
		t.Fatalf("record visit: %v", err)
	}
	if result.PointsEarned != 10 {
		t.Fatalf("expected 10 points for unflagged user, got %d", result.PointsEarned)
	}
}

func TestRecordVisit_NegativeAmount(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn, "5551004", false)
	cafe := seedCafe(t, conn, "north")
	svc := NewService(conn)

	_, err := svc.RecordVisit(context.Background(), user.ID, cafe.ID, -1, false)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestRecordVisit_UnknownUserAndCafe(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn, "5551005", false)
	cafe := seedCafe(t, conn, "north")
	svc := NewService(conn)
	ctx := context.Background()

	if _, err := svc.RecordVisit(ctx, 9999, cafe.ID, 10, false); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.RecordVisit(ctx, user.ID, 9999, 10, false); !errors.Is(err, ErrCafeNotFound) {
		t.Fatalf("expected ErrCafeNotFound, got %v", err)
	}
}

func TestRecordVisit_ZeroPointSpendStillLogs(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn, "5551006", false)
	cafe := seedCafe(t, conn, "north")
	svc := NewService(conn)

	result, err := svc.RecordVisit(context.Background(), user.ID, cafe.ID, 9.5, false)
	if err != nil {
		t.Fatalf("record visit: %v", err)
	}
	if result.PointsEarned != 0 || result.XPEarned != 0 {
		t.Fatalf("expected zero earnings, got %d points %d xp", result.PointsEarned, result.XPEarned)
	}
	var visitCount int64
	if errCount := conn.Model(&models.VisitLog{}).Count(&visitCount).Error; errCount != nil {
		t.Fatalf("count visits: %v", errCount)
	}
	if visitCount != 1 {
		t.Fatalf("expected the visit to be logged, got %d rows", visitCount)
	}
}
