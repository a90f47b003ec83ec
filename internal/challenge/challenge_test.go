package challenge

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/brewloyal/brewloyal/internal/db"
	"github.com/brewloyal/brewloyal/internal/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "challenge-test.db")
	conn, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func TestIssueAndConsume(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	ctx := context.Background()

	code, err := store.Issue(ctx, "alice@example.test", models.ChallengePurposeRegistration, nil, RegistrationTTL)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected a 6-digit code, got %q", code)
	}

	consumed, errConsume := store.Consume(ctx, "alice@example.test", models.ChallengePurposeRegistration, code)
	if errConsume != nil {
		t.Fatalf("consume: %v", errConsume)
	}
	if consumed.Subject != "alice@example.test" {
		t.Fatalf("unexpected subject %q", consumed.Subject)
	}
}

func TestConsume_SingleUse(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	ctx := context.Background()

	code, err := store.Issue(ctx, "bob@example.test", models.ChallengePurposeRegistration, nil, RegistrationTTL)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, errConsume := store.Consume(ctx, "bob@example.test", models.ChallengePurposeRegistration, code); errConsume != nil {
		t.Fatalf("first consume: %v", errConsume)
	}
	if _, errConsume := store.Consume(ctx, "bob@example.test", models.ChallengePurposeRegistration, code); !errors.Is(errConsume, ErrInvalidOrExpired) {
		t.Fatalf("expected ErrInvalidOrExpired on second consume, got %v", errConsume)
	}
}

func TestConsume_WrongCode(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	ctx := context.Background()

	code, err := store.Issue(ctx, "carol@example.test", models.ChallengePurposeRegistration, nil, RegistrationTTL)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if _, errConsume := store.Consume(ctx, "carol@example.test", models.ChallengePurposeRegistration, wrong); !errors.Is(errConsume, ErrInvalidOrExpired) {
		t.Fatalf("expected ErrInvalidOrExpired, got %v", errConsume)
	}

	// The challenge stays live after a failed attempt.
	if _, errConsume := store.Consume(ctx, "carol@example.test", models.ChallengePurposeRegistration, code); errConsume != nil {
		t.Fatalf("consume with right code after failed attempt: %v", errConsume)
	}
}

func TestIssue_ReissueInvalidatesPriorCode(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	ctx := context.Background()

	first, err := store.Issue(ctx, "dave@example.test", models.ChallengePurposeRegistration, nil, RegistrationTTL)
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	second, err := store.Issue(ctx, "dave@example.test", models.ChallengePurposeRegistration, nil, RegistrationTTL)
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}

	var count int64
	if errCount := conn.Model(&models.Challenge{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count challenges: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("expected a single live challenge, got %d", count)
	}

	if first != second {
		if _, errConsume := store.Consume(ctx, "dave@example.test", models.ChallengePurposeRegistration, first); !errors.Is(errConsume, ErrInvalidOrExpired) {
			t.Fatalf("expected prior code to be invalid, got %v", errConsume)
		}
	}
	if _, errConsume := store.Consume(ctx, "dave@example.test", models.ChallengePurposeRegistration, second); errConsume != nil {
		t.Fatalf("consume newest code: %v", errConsume)
	}
}

func TestConsume_Expired(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	ctx := context.Background()

	code, err := store.Issue(ctx, "erin@example.test", models.ChallengePurposeRegistration, nil, -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, errConsume := store.Consume(ctx, "erin@example.test", models.ChallengePurposeRegistration, code); !errors.Is(errConsume, ErrInvalidOrExpired) {
		t.Fatalf("expected ErrInvalidOrExpired for expired code, got %v", errConsume)
	}
}

func TestPurposesAreIndependent(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	ctx := context.Background()

	regCode, err := store.Issue(ctx, "frank@example.test", models.ChallengePurposeRegistration, nil, RegistrationTTL)
	if err != nil {
		t.Fatalf("issue registration: %v", err)
	}
	if _, err = store.Issue(ctx, "frank@example.test", models.ChallengePurposePasswordReset, nil, PasswordResetTTL); err != nil {
		t.Fatalf("issue password reset: %v", err)
	}

	// Issuing for one purpose must not disturb the other.
	if _, errConsume := store.Consume(ctx, "frank@example.test", models.ChallengePurposeRegistration, regCode); errConsume != nil {
		t.Fatalf("consume registration after reset issue: %v", errConsume)
	}
}

func TestIssue_CarriesRedemptionPayload(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	ctx := context.Background()

	payload := models.RedemptionPayload{CafeID: 7, UserID: 3, Points: 120}
	code, err := store.Issue(ctx, "grace@example.test", models.ChallengePurposeRedemption, &payload, RedemptionTTL)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	consumed, errConsume := store.Consume(ctx, "grace@example.test", models.ChallengePurposeRedemption, code)
	if errConsume != nil {
		t.Fatalf("consume: %v", errConsume)
	}
	got, ok := consumed.Redemption()
	if !ok {
		t.Fatalf("expected a redemption payload")
	}
	if got != payload {
		t.Fatalf("expected payload %+v, got %+v", payload, got)
	}
}

func TestRetract_RemovesLiveChallenge(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	ctx := context.Background()

	code, err := store.Issue(ctx, "heidi@example.test", models.ChallengePurposeRedemption, &models.RedemptionPayload{CafeID: 1, UserID: 1, Points: 10}, RedemptionTTL)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if errRetract := store.Retract(ctx, "heidi@example.test", models.ChallengePurposeRedemption); errRetract != nil {
		t.Fatalf("retract: %v", errRetract)
	}
	if _, errConsume := store.Consume(ctx, "heidi@example.test", models.ChallengePurposeRedemption, code); !errors.Is(errConsume, ErrInvalidOrExpired) {
		t.Fatalf("expected ErrInvalidOrExpired after retract, got %v", errConsume)
	}
}

func TestPurgeExpired(t *testing.T) {
	conn := openTestDB(t)
	store := NewStore(conn)
	ctx := context.Background()

	if _, err := store.Issue(ctx, "old@example.test", models.ChallengePurposeRegistration, nil, -time.Minute); err != nil {
		t.Fatalf("issue expired: %v", err)
	}
	if _, err := store.Issue(ctx, "live@example.test", models.ChallengePurposeRegistration, nil, RegistrationTTL); err != nil {
		t.Fatalf("issue live: %v", err)
	}

	purged, err := store.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged row, got %d", purged)
	}
	var count int64
	if errCount := conn.Model(&models.Challenge{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count challenges: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("expected 1 remaining challenge, got %d", count)
	}
}
