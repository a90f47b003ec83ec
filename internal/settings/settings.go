package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brewloyal/brewloyal/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SiteName returns the configured site name, falling back to the default when
// unset or unreadable.
func SiteName(ctx context.Context, conn *gorm.DB) string {
	if conn == nil {
		return DefaultSiteName
	}
	var row models.Setting
	errFind := conn.WithContext(ctx).Where("key = ?", SiteNameKey).First(&row).Error
	if errFind != nil {
		return DefaultSiteName
	}
	var name string
	if errUnmarshal := json.Unmarshal(row.Value, &name); errUnmarshal != nil {
		return DefaultSiteName
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultSiteName
	}
	return name
}

// UpsertSiteName stores the site name setting.
func UpsertSiteName(conn *gorm.DB, siteName string) error {
	if conn == nil {
		return errors.New("settings: nil connection")
	}
	normalized := strings.TrimSpace(siteName)
	if normalized == "" {
		normalized = DefaultSiteName
	}
	payload, errMarshal := json.Marshal(normalized)
	if errMarshal != nil {
		return fmt.Errorf("settings: marshal site name: %w", errMarshal)
	}

	now := time.Now().UTC()
	res := conn.Model(&models.Setting{}).Where("key = ?", SiteNameKey).
		Updates(map[string]any{
			"value":      datatypes.JSON(payload),
			"updated_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("settings: update site name: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	setting := models.Setting{
		Key:       SiteNameKey,
		Value:     payload,
		UpdatedAt: now,
	}
	if errCreate := conn.Create(&setting).Error; errCreate != nil {
		return fmt.Errorf("settings: create site name: %w", errCreate)
	}
	return nil
}
