package contracts

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/fortress-invest/fortress-api/internal/types"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateContract(contract *types.Contract) error {
	return d.db.Create(contract).Error
}

func (d *Database) GetContract(contractID string) (*types.Contract, error) {
	var contract types.Contract
	if err := d.db.Where("contract_id = ?", contractID).First(&contract).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrContractNotFound
		}
		return nil, err
	}
	return &contract, nil
}

func (d *Database) UpdateContract(contract *types.Contract) error {
	return d.db.Save(contract).Error
}

// CountActive returns the number of live contracts holding one of the
// account's concurrent-trade slots.
func (d *Database) CountActive(accountID string) (int64, error) {
	var count int64
	err := d.db.Model(&types.Contract{}).
		Where("account_id = ? AND status = ?", accountID, types.ContractActive).
		Count(&count).Error
	return count, err
}

// ListDue returns active contracts whose close time has passed.
func (d *Database) ListDue(now time.Time) ([]types.Contract, error) {
	var contracts []types.Contract
	if err := d.db.Where("status = ? AND closes_at <= ?", types.ContractActive, now).
		Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

// ListOpen returns every unsettled contract across accounts, newest
// first, for the back-office settlement queue.
func (d *Database) ListOpen() ([]types.Contract, error) {
	var contracts []types.Contract
	if err := d.db.Where("status IN ?", []string{types.ContractActive, types.ContractExpired}).
		Order("created_at DESC").Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

// ListTradeTransactions returns every settled trade transaction, newest
// first, for the back-office trade view.
func (d *Database) ListTradeTransactions() ([]types.Transaction, error) {
	var txs []types.Transaction
	if err := d.db.Where("kind = ?", types.KindTrade).
		Order("created_at DESC").Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}
