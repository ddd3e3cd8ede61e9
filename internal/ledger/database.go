package ledger

import (
	"errors"

	"gorm.io/gorm"

	"github.com/fortress-invest/fortress-api/internal/types"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// DB exposes the underlying gorm handle for services that share the
// store (funding, contracts, referral).
func (d *Database) DB() *gorm.DB {
	return d.db
}

func (d *Database) GetAccount(accountID string) (*types.Account, error) {
	var account types.Account
	if err := d.db.Where("account_id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (d *Database) GetAccountByEmail(email string) (*types.Account, error) {
	var account types.Account
	if err := d.db.Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (d *Database) GetAccountByReferralCode(code string) (*types.Account, error) {
	var account types.Account
	if err := d.db.Where("referral_code = ?", code).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (d *Database) ListAccounts() ([]types.Account, error) {
	var accounts []types.Account
	if err := d.db.Order("created_at ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (d *Database) UpdateAccount(account *types.Account) error {
	return d.db.Save(account).Error
}

func (d *Database) CreateTransaction(tx *types.Transaction) error {
	return d.db.Create(tx).Error
}

func (d *Database) GetTransaction(transactionID string) (*types.Transaction, error) {
	var tx types.Transaction
	if err := d.db.Where("transaction_id = ?", transactionID).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}

func (d *Database) UpdateTransaction(tx *types.Transaction) error {
	return d.db.Save(tx).Error
}

func (d *Database) ListTransactions(accountID string) ([]types.Transaction, error) {
	var txs []types.Transaction
	if err := d.db.Where("account_id = ?", accountID).
		Order("created_at DESC").Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// CompletedDepositTotal sums the amounts of the account's completed
// deposit transactions. This is the source of truth for total_deposits.
func (d *Database) CompletedDepositTotal(accountID string) (float64, error) {
	var total float64
	err := d.db.Model(&types.Transaction{}).
		Where("account_id = ? AND kind = ? AND status = ?",
			accountID, types.KindDeposit, types.StatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (d *Database) CountCompletedDeposits(accountID string) (int64, error) {
	var count int64
	err := d.db.Model(&types.Transaction{}).
		Where("account_id = ? AND kind = ? AND status = ?",
			accountID, types.KindDeposit, types.StatusCompleted).
		Count(&count).Error
	return count, err
}

func (d *Database) CreateNotification(note *types.Notification) error {
	return d.db.Create(note).Error
}

func (d *Database) ListNotifications(accountID string) ([]types.Notification, error) {
	var notes []types.Notification
	if err := d.db.Where("account_id = ?", accountID).
		Order("created_at DESC").Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (d *Database) MarkNotificationRead(accountID, notificationID string) error {
	result := d.db.Model(&types.Notification{}).
		Where("account_id = ? AND notification_id = ?", accountID, notificationID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (d *Database) MarkAllNotificationsRead(accountID string) error {
	return d.db.Model(&types.Notification{}).
		Where("account_id = ?", accountID).
		Update("read", true).Error
}

func (d *Database) ListContractsByStatus(accountID string, statuses ...string) ([]types.Contract, error) {
	var contracts []types.Contract
	if err := d.db.Where("account_id = ? AND status IN ?", accountID, statuses).
		Order("created_at DESC").Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

func (d *Database) ListTiers() ([]types.VipTier, error) {
	var tiers []types.VipTier
	if err := d.db.Order("level ASC").Find(&tiers).Error; err != nil {
		return nil, err
	}
	return tiers, nil
}
