package database

import (
	"log"

	"traderefer/config"
	"traderefer/internal/domain"
	"traderefer/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
		TranslateError: true,                                 // surface duplicate-key races as gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Business{},
		&models.Referrer{},
		&models.ReferralLink{},
		&models.Lead{},
		&models.LeadPin{},
		&models.ReferrerEarning{},
		&models.Dispute{},
		&models.PaymentTransaction{},
		&models.WalletTransaction{},
		&models.PayoutRequest{},
		&models.Notification{},
	)
}

// SeedAdmin creates the default admin user if no admin exists.
func SeedAdmin(db *gorm.DB) {
	var count int64
	db.Model(&models.User{}).Where("role = ?", domain.RoleAdmin).Count(&count)
	if count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-change-me"), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[seed] bcrypt: %v", err)
		return
	}
	admin := models.User{
		Email:        "admin@traderefer.local",
		FullName:     "Platform Admin",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("[seed] admin user: %v", err)
	}
}
