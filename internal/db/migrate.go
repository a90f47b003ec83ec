package db

import (
	"fmt"

	"github.com/brewloyal/brewloyal/internal/models"
	"gorm.io/gorm"
)

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	switch DialectName(conn) {
	case DialectSQLite:
		return migrateCommon(conn)
	case DialectPostgres, "":
		if errMigrate := migrateCommon(conn); errMigrate != nil {
			return errMigrate
		}
		return migratePostgres(conn)
	default:
		return fmt.Errorf("db: unsupported dialect: %s", DialectName(conn))
	}
}

// migrateCommon applies the schema shared by both dialects.
func migrateCommon(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(
		&models.Admin{},
		&models.User{},
		&models.Cafe{},
		&models.PointsBalance{},
		&models.VisitLog{},
		&models.RewardTransaction{},
		&models.Challenge{},
		&models.RewardClaim{},
		&models.Setting{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	return nil
}

// migratePostgres applies PostgreSQL-specific constraints and indexes.
func migratePostgres(conn *gorm.DB) error {
	if errBalanceCheck := conn.Exec(`
		DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM pg_constraint WHERE conname = 'chk_points_balances_non_negative'
			) THEN
				ALTER TABLE points_balances
				ADD CONSTRAINT chk_points_balances_non_negative CHECK (total_points >= 0);
			END IF;
		END $$;
	`).Error; errBalanceCheck != nil {
		return fmt.Errorf("db: add balance check constraint: %w", errBalanceCheck)
	}
	if errXPCheck := conn.Exec(`
		DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM pg_constraint WHERE conname = 'chk_users_xp_non_negative'
			) THEN
				ALTER TABLE users
				ADD CONSTRAINT chk_users_xp_non_negative CHECK (xp >= 0);
			END IF;
		END $$;
	`).Error; errXPCheck != nil {
		return fmt.Errorf("db: add xp check constraint: %w", errXPCheck)
	}
	if errClaimIdx := conn.Exec(`
		CREATE INDEX IF NOT EXISTS idx_reward_claims_status ON reward_claims (status, created_at)
	`).Error; errClaimIdx != nil {
		return fmt.Errorf("db: add claim status index: %w", errClaimIdx)
	}
	return nil
}
