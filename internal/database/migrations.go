package database

import (
	"github.com/campuslink/buspass-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	err := db.AutoMigrate(
		&models.User{},
		&models.Admin{},
		&models.Route{},
		&models.Bus{},
		&models.Pass{},
		&models.Payment{},
	)
	if err != nil {
		return err
	}

	// Enum-valued columns get database-level checks so a bad write can never
	// leave an unreadable row behind.
	if db.Migrator().HasTable(&models.User{}) {
		db.Exec(`ALTER TABLE users DROP CONSTRAINT IF EXISTS users_role_check`)
		if err := db.Exec(`ALTER TABLE users ADD CONSTRAINT users_role_check CHECK (role IN ('student', 'admin'))`).Error; err != nil {
			return err
		}
	}

	if db.Migrator().HasTable(&models.Admin{}) {
		db.Exec(`ALTER TABLE admins DROP CONSTRAINT IF EXISTS admins_admin_type_check`)
		if err := db.Exec(`ALTER TABLE admins ADD CONSTRAINT admins_admin_type_check CHECK (admin_type IN ('checking', 'driver', 'administrator'))`).Error; err != nil {
			return err
		}
	}

	if db.Migrator().HasTable(&models.Pass{}) {
		constraints := map[string]string{
			"passes_pass_type_check":       `CHECK (pass_type IN ('daily', 'weekly'))`,
			"passes_payment_status_check":  `CHECK (payment_status IN ('pending', 'paid', 'failed'))`,
			"passes_approval_status_check": `CHECK (approval_status IN ('pending', 'approved', 'rejected'))`,
			"passes_amount_check":          `CHECK (amount >= 0)`,
		}
		for name, check := range constraints {
			db.Exec(`ALTER TABLE passes DROP CONSTRAINT IF EXISTS ` + name)
			if err := db.Exec(`ALTER TABLE passes ADD CONSTRAINT ` + name + ` ` + check).Error; err != nil {
				return err
			}
		}
	}

	if db.Migrator().HasTable(&models.Payment{}) {
		db.Exec(`ALTER TABLE payments DROP CONSTRAINT IF EXISTS payments_status_check`)
		if err := db.Exec(`ALTER TABLE payments ADD CONSTRAINT payments_status_check CHECK (status IN ('success', 'failed'))`).Error; err != nil {
			return err
		}
	}

	if db.Migrator().HasTable(&models.Route{}) {
		db.Exec(`ALTER TABLE routes DROP CONSTRAINT IF EXISTS routes_prices_check`)
		if err := db.Exec(`ALTER TABLE routes ADD CONSTRAINT routes_prices_check CHECK (daily_price >= 0 AND weekly_price >= 0)`).Error; err != nil {
			return err
		}
	}

	return nil
}
