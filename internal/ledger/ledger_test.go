package ledger

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
	dsn := "file:" + filepath.Join(t.TempDir(), "ledger-test.db")
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, phone string) *models.User {
	t.Helper()
	user := models.User{
		Phone:        phone,
		Email:        phone + "@example.test",
		Name:         "Test User",
		Password:     "hashed",
		ReferralCode: "REF" + phone,
		Verified:     true,
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

func TestCredit_CreatesAndIncrements(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn, "5550001")
	cafe := seedCafe(t, conn, "north")
	store := NewStore(conn)
	ctx := context.Background()

	balance, err := store.Credit(ctx, user.ID, cafe.ID, 30)
	if err != nil {
		t.Fatalf("first credit: %v", err)
	}
	if balance != 30 {
		t.Fatalf("expected balance 30, got %d", balance)
	}

	balance, err = store.Credit(ctx, user.ID, cafe.ID, 12)
	if err != nil {
		t.Fatalf("second credit: %v", err)
	}
	if balance != 42 {
		t.Fatalf("expected balance 42, got %d", balance)
	}

	var count int64
	if errCount := conn.Model(&models.PointsBalance{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count balances: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("expected a single balance row, got %d", count)
	}
}

func TestCredit_SeparatePerCafe(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn, "5550002")
	north := seedCafe(t, conn, "north")
	south := seedCafe(t, conn, "south")
	store := NewStore(conn)
	ctx := context.Background()

	if _, err := store.Credit(ctx, user.ID, north.ID, 10); err != nil {
		t.Fatalf("credit north: %v", err)
	}
	if _, err := store.Credit(ctx, user.ID, south.ID, 25); err != nil {
		t.Fatalf("credit south: %v", err)
	}

	balance, err := store.Balance(ctx, user.ID, north.ID)
	if err != nil {
		t.Fatalf("balance north: %v", err)
	}
	if balance != 10 {
		t.Fatalf("expected north balance 10, got %d", balance)
	}
	balance, err = store.Balance(ctx, user.ID, south.ID)
	if err != nil {
		t.Fatalf("balance south: %v", err)
	}
	if balance != 25 {
		t.Fatalf("expected south balance 25, got %d", balance)
	}
}

func TestDebit_Succeeds(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn, "5550003")
	cafe := seedCafe(t, conn, "north")
	store := NewStore(conn)
	ctx := context.Background()

	if _, err := store.Credit(ctx, user.ID, cafe.ID, 100); err != nil {
		t.Fatalf("credit: %v", err)
	}
	balance, err := store.Debit(ctx, user.ID, cafe.ID, 40)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if balance != 60 {
		t.Fatalf("expected balance 60, got %d", balance)
	}
}

func TestDebit_InsufficientLeavesBalanceUntouched(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn, "5550004")
	cafe := seedCafe(t, conn, "north")
	store := NewStore(conn)
	ctx := context.Background()

	if _, err := store.Credit(ctx, user.ID, cafe.ID, 50); err != nil {
		t.Fatalf("credit: %v", err)
	}

	_, err := store.Debit(ctx, user.ID, cafe.ID, 51)
	var insufficient *InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientBalanceError, got %v", err)
	}
	if insufficient.Requested != 51 || insufficient.Available != 50 {
		t.Fatalf("unexpected error amounts: requested %d available %d", insufficient.Requested, insufficient.Available)
	}

	balance, errBalance := store.Balance(ctx, user.ID, cafe.ID)
	if errBalance != nil {
		t.Fatalf("balance: %v", errBalance)
	}
	if balance != 50 {
		t.Fatalf("expected balance unchanged at 50, got %d", balance)
	}
}

func TestDebit_MissingBalanceRow(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn, "5550005")
	cafe := seedCafe(t, conn, "north")
	store := NewStore(conn)

	_, err := store.Debit(context.Background(), user.ID, cafe.ID, 1)
	var insufficient *InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientBalanceError, got %v", err)
	}
	if insufficient.Available != 0 {
		t.Fatalf("expected available 0, got %d", insufficient.Available)
	}
}

func TestCreditXP_UnknownUser(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)

	err := store.CreditXP(context.Background(), 9999, 10)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCreditXP_Accumulates(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn, "5550006")
	store := NewStore(conn)
	ctx := context.Background()

	if err := store.CreditXP(ctx, user.ID, 100); err != nil {
		t.Fatalf("first xp credit: %v", err)
	}
	if err := store.CreditXP(ctx, user.ID, 150); err != nil {
		t.Fatalf("second xp credit: %v", err)
	}

	var reloaded models.User
	if errFind := conn.First(&reloaded, user.ID).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	if reloaded.XP != 250 {
		t.Fatalf("expected xp 250, got %d", reloaded.XP)
	}
}

func TestReconcile_MatchesBalance(t *testing.T) {
	conn := openTestDB(t)
	user := seedUser(t, conn, "5550007")
	cafe := seedCafe(t, conn, "north")
	store := NewStore(conn)
	ctx := context.Background()

	if _, err := store.Credit(ctx, user.ID, cafe.ID, 80); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := store.Debit(ctx, user.ID, cafe.ID, 30); err != nil {
		t.Fatalf("debit: %v", err)
	}
	rows := []models.RewardTransaction{
		{UserID: user.ID, CafeID: cafe.ID, Type: models.TransactionTypeEarn, Points: 80},
		{UserID: user.ID, CafeID: cafe.ID, Type: models.TransactionTypeRedeem, Points: -30},
	}
	if errCreate := conn.Create(&rows).Error; errCreate != nil {
		t.Fatalf("create transactions: %v", errCreate)
	}

	total, err := store.Reconcile(ctx, user.ID, cafe.ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	balance, errBalance := store.Balance(ctx, user.ID, cafe.ID)
	if errBalance != nil {
		t.Fatalf("balance: %v", errBalance)
	}
	if total != balance || total != 50 {
		t.Fatalf("expected reconciled 50 == balance, got total %d balance %d", total, balance)
	}
}
