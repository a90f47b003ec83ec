package settings

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/brewloyal/brewloyal/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "settings-test.db")
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := conn.AutoMigrate(&models.Setting{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func TestSiteName_DefaultWhenUnset(t *testing.T) {
	conn := openTestDB(t)
	if name := SiteName(context.Background(), conn); name != DefaultSiteName {
		t.Fatalf("expected default site name, got %q", name)
	}
}

func TestUpsertSiteName_RoundTrip(t *testing.T) {
	conn := openTestDB(t)
	ctx := context.Background()

	if err := UpsertSiteName(conn, "Corner Brew"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if name := SiteName(ctx, conn); name != "Corner Brew" {
		t.Fatalf("expected Corner Brew, got %q", name)
	}

	// A second upsert updates the existing row in place.
	if err := UpsertSiteName(conn, "Roastery"); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if name := SiteName(ctx, conn); name != "Roastery" {
		t.Fatalf("expected Roastery, got %q", name)
	}
	var count int64
	if errCount := conn.Model(&models.Setting{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count settings: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("expected 1 setting row, got %d", count)
	}
}

func TestSiteName_FallsBackOnBadValue(t *testing.T) {
	conn := openTestDB(t)

	row := models.Setting{Key: SiteNameKey, Value: datatypes.JSON(`{"not":"a string"}`)}
	if errCreate := conn.Create(&row).Error; errCreate != nil {
		t.Fatalf("create setting: %v", errCreate)
	}
	if name := SiteName(context.Background(), conn); name != DefaultSiteName {
		t.Fatalf("expected fallback to default, got %q", name)
	}
}
