package database

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fortress-invest/fortress-api/internal/tier"
	"github.com/fortress-invest/fortress-api/internal/types"
)

// Default operator account, present on every fresh store.
const (
	AdminAccountID = "UID-ADMIN"
	AdminEmail     = "admin@fortress.com"
	AdminPassword  = "admin"
)

// NewDatabase opens the sqlite store at path, migrates the schema and
// seeds the admin account, tier table and system settings on first run.
func NewDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&types.Account{},
		&types.Transaction{},
		&types.Contract{},
		&types.Notification{},
		&types.Referral{},
		&types.VipTier{},
		&types.Settings{},
		&types.KycDocument{},
		&types.LoginRecord{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	if err := seed(db); err != nil {
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}

	return db, nil
}

func seed(db *gorm.DB) error {
	var admin types.Account
	err := db.Where("account_id = ?", AdminAccountID).First(&admin).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hash, err := bcrypt.GenerateFromPassword([]byte(AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		admin = types.Account{
			AccountID:    AdminAccountID,
			Email:        AdminEmail,
			Name:         "Admin",
			PasswordHash: string(hash),
			IsAdmin:      true,
			KycStatus:    types.KycVerified,
			VipLevel:     5,
			ReferralCode: "ADMINREF",
		}
		if err := db.Create(&admin).Error; err != nil {
			return err
		}
	} else if !admin.IsAdmin {
		// The operator account must keep its privilege even when the
		// stored row says otherwise.
		if err := db.Model(&admin).Update("is_admin", true).Error; err != nil {
			return err
		}
	}

	var tierCount int64
	if err := db.Model(&types.VipTier{}).Count(&tierCount).Error; err != nil {
		return err
	}
	if tierCount == 0 {
		for _, t := range tier.DefaultTiers() {
			t := t
			if err := db.Create(&t).Error; err != nil {
				return err
			}
		}
	}

	var settingsCount int64
	if err := db.Model(&types.Settings{}).Count(&settingsCount).Error; err != nil {
		return err
	}
	if settingsCount == 0 {
		settings := types.Settings{
			DepositAddressTRC20: "TABCDefg1234567890HIJKLMNopqrstuvwXYZ",
			DepositAddressERC20: "0x1234567890abcdef1234567890abcdef12345678",
			DepositAddressBTC:   "bc1qza9876543210fedcba9876543210fedcba123",
		}
		if err := db.Create(&settings).Error; err != nil {
			return err
		}
	}

	return nil
}
