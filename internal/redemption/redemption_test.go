package redemption

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/brewloyal/brewloyal/internal/challenge"
	"github.com/brewloyal/brewloyal/internal/db"
	"github.com/brewloyal/brewloyal/internal/ledger"
	"github.com/brewloyal/brewloyal/internal/models"
	"gorm.io/gorm"
)

type fakeSender struct {
	to      string
	subject string
	text    string
	sent    int
	fail    error
}

func (f *fakeSender) Send(_ context.Context, to, subject, text, _ string) error {
	if f.fail != nil {
		return f.fail
	}
	f.to = to
	f.subject = subject
	f.text = text
	f.sent++
	return nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "redemption-test.db")
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func seedCustomer(t *testing.T, conn *gorm.DB, phone string, cafeID uint64, balance int64) *models.User {
	t.Helper()
	user := models.User{
		Phone:        phone,
		Email:        phone + "@example.test",
		Name:         "Customer",
		Password:     "hashed",
		ReferralCode: "REF" + phone,
		Verified:     true,
	}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	if balance > 0 {
		if _, errCredit := ledger.NewStore(conn).Credit(context.Background(), user.ID, cafeID, balance); errCredit != nil {
			t.Fatalf("seed balance: %v", errCredit)
		}
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

// liveCode reads the stored code for a pending redemption challenge.
func liveCode(t *testing.T, conn *gorm.DB, email string) string {
	t.Helper()
	var row models.Challenge
	errFind := conn.
		Where("subject = ? AND purpose = ?", email, models.ChallengePurposeRedemption).
		First(&row).Error
	if errFind != nil {
		t.Fatalf("load challenge: %v", errFind)
	}
	return row.Code
}

func TestInitiateAndVerify(t *testing.T) {
	conn := openTestDB(t)
	cafe := seedCafe(t, conn, "north")
	customer := seedCustomer(t, conn, "5552001", cafe.ID, 500)
	mail := &fakeSender{}
	svc := NewService(conn, challenge.NewStore(conn), mail)
	ctx := context.Background()

	email, err := svc.Initiate(ctx, cafe.ID, customer.Phone, 200)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if email != customer.Email {
		t.Fatalf("expected email %q, got %q", customer.Email, email)
	}
	if mail.sent != 1 || mail.to != customer.Email {
		t.Fatalf("expected one mail to the customer, got %d to %q", mail.sent, mail.to)
	}

	code := liveCode(t, conn, customer.Email)
	if errVerify := svc.Verify(ctx, customer.Email, code); errVerify != nil {
		t.Fatalf("verify: %v", errVerify)
	}

	balance, errBalance := ledger.NewStore(conn).Balance(ctx, customer.ID, cafe.ID)
	if errBalance != nil {
		t.Fatalf("balance: %v", errBalance)
	}
	if balance != 300 {
		t.Fatalf("expected balance 300 after redemption, got %d", balance)
	}

	var tx models.RewardTransaction
	errFind := conn.Where("user_id = ? AND type = ?", customer.ID, models.TransactionTypeRedeem).First(&tx).Error
	if errFind != nil {
		t.Fatalf("load redeem transaction: %v", errFind)
	}
	if tx.Points != -200 {
		t.Fatalf("expected transaction points -200, got %d", tx.Points)
	}
}

func TestInitiate_InsufficientBalance(t *testing.T) {
	conn := openTestDB(t)
	cafe := seedCafe(t, conn, "north")
	customer := seedCustomer(t, conn, "5552002", cafe.ID, 100)
	svc := NewService(conn, challenge.NewStore(conn), &fakeSender{})

	_, err := svc.Initiate(context.Background(), cafe.ID, customer.Phone, 101)
	var insufficient *ledger.InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientBalanceError, got %v", err)
	}
	if insufficient.Available != 100 {
		t.Fatalf("expected available 100, got %d", insufficient.Available)
	}
}

func TestInitiate_InvalidInputs(t *testing.T) {
	conn := openTestDB(t)
	cafe := seedCafe(t, conn, "north")
	customer := seedCustomer(t, conn, "5552003", cafe.ID, 100)
	svc := NewService(conn, challenge.NewStore(conn), &fakeSender{})
	ctx := context.Background()

	if _, err := svc.Initiate(ctx, cafe.ID, customer.Phone, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := svc.Initiate(ctx, cafe.ID, "5559999", 10); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestInitiate_MailFailureRetractsChallenge(t *testing.T) {
	conn := openTestDB(t)
	cafe := seedCafe(t, conn, "north")
	customer := seedCustomer(t, conn, "5552004", cafe.ID, 500)
	mail := &fakeSender{fail: errors.New("smtp down")}
	svc := NewService(conn, challenge.NewStore(conn), mail)

	_, err := svc.Initiate(context.Background(), cafe.ID, customer.Phone, 100)
	if !errors.Is(err, ErrNotificationFailed) {
		t.Fatalf("expected ErrNotificationFailed, got %v", err)
	}

	var count int64
	if errCount := conn.Model(&models.Challenge{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count challenges: %v", errCount)
	}
	if count != 0 {
		t.Fatalf("expected no live challenge after failed delivery, got %d", count)
	}
}

func TestVerify_WrongCode(t *testing.T) {
	conn := openTestDB(t)
	cafe := seedCafe(t, conn, "north")
	customer := seedCustomer(t, conn, "5552005", cafe.ID, 500)
	svc := NewService(conn, challenge.NewStore(conn), &fakeSender{})
	ctx := context.Background()

	if _, err := svc.Initiate(ctx, cafe.ID, customer.Phone, 100); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	code := liveCode(t, conn, customer.Email)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if errVerify := svc.Verify(ctx, customer.Email, wrong); !errors.Is(errVerify, challenge.ErrInvalidOrExpired) {
		t.Fatalf("expected ErrInvalidOrExpired, got %v", errVerify)
	}

	balance, errBalance := ledger.NewStore(conn).Balance(ctx, customer.ID, cafe.ID)
	if errBalance != nil {
		t.Fatalf("balance: %v", errBalance)
	}
	if balance != 500 {
		t.Fatalf("expected balance untouched at 500, got %d", balance)
	}
}

func TestVerify_BalanceMovedSinceInitiate(t *testing.T) {
	conn := openTestDB(t)
	cafe := seedCafe(t, conn, "north")
	customer := seedCustomer(t, conn, "5552006", cafe.ID, 500)
	svc := NewService(conn, challenge.NewStore(conn), &fakeSender{})
	ctx := context.Background()

	if _, err := svc.Initiate(ctx, cafe.ID, customer.Phone, 400); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	code := liveCode(t, conn, customer.Email)

	// A concurrent redemption drains the balance below the approved amount.
	if _, errDebit := ledger.NewStore(conn).Debit(ctx, customer.ID, cafe.ID, 300); errDebit != nil {
		t.Fatalf("drain balance: %v", errDebit)
	}

	errVerify := svc.Verify(ctx, customer.Email, code)
	var insufficient *ledger.InsufficientBalanceError
	if !errors.As(errVerify, &insufficient) {
		t.Fatalf("expected InsufficientBalanceError, got %v", errVerify)
	}

	balance, errBalance := ledger.NewStore(conn).Balance(ctx, customer.ID, cafe.ID)
	if errBalance != nil {
		t.Fatalf("balance: %v", errBalance)
	}
	if balance != 200 {
		t.Fatalf("expected balance unchanged at 200, got %d", balance)
	}

	var txCount int64
	if errCount := conn.Model(&models.RewardTransaction{}).Where("type = ?", models.TransactionTypeRedeem).Count(&txCount).Error; errCount != nil {
		t.Fatalf("count transactions: %v", errCount)
	}
	if txCount != 0 {
		t.Fatalf("expected no redeem transaction, got %d", txCount)
	}

	// The challenge was consumed; the code cannot be retried.
	if errRetry := svc.Verify(ctx, customer.Email, code); !errors.Is(errRetry, challenge.ErrInvalidOrExpired) {
		t.Fatalf("expected consumed code to be invalid, got %v", errRetry)
	}
}
