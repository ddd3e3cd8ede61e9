package funding

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

// GetPendingTransaction fetches a transaction by id, requiring the given
// kind and Pending status. A settled transaction maps to
// ErrTransactionSettled so duplicate resolutions surface cleanly.
func (d *Database) GetPendingTransaction(transactionID, kind string) (*types.Transaction, error) {
	var tx types.Transaction
	if err := d.db.Where("transaction_id = ? AND kind = ?", transactionID, kind).
		First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrTransactionNotFound
		}
		return nil, err
	}
	if tx.Status != types.StatusPending {
		return nil, types.ErrTransactionSettled
	}
	return &tx, nil
}

func (d *Database) UpdateTransaction(tx *types.Transaction) error {
	return d.db.Save(tx).Error
}

// ListPendingWithOwner returns pending transactions of the given kind
// joined with the owning account's name and email.
func (d *Database) ListPendingWithOwner(kind string) ([]types.PendingFunding, error) {
	var txs []types.Transaction
	if err := d.db.Where("kind = ? AND status = ?", kind, types.StatusPending).
		Order("created_at DESC").Find(&txs).Error; err != nil {
		return nil, err
	}
	return d.withOwners(txs)
}

// ListAllFundingWithOwner returns every deposit and withdrawal, newest
// first, joined with the owning account.
func (d *Database) ListAllFundingWithOwner() ([]types.PendingFunding, error) {
	var txs []types.Transaction
	if err := d.db.Where("kind IN ?", []string{types.KindDeposit, types.KindWithdrawal}).
		Order("created_at DESC").Find(&txs).Error; err != nil {
		return nil, err
	}
	return d.withOwners(txs)
}

func (d *Database) withOwners(txs []types.Transaction) ([]types.PendingFunding, error) {
	owners := make(map[string]types.Account)
	result := make([]types.PendingFunding, 0, len(txs))
	for _, tx := range txs {
		owner, ok := owners[tx.AccountID]
		if !ok {
			if err := d.db.Where("account_id = ?", tx.AccountID).
				First(&owner).Error; err != nil {
				return nil, err
			}
			owners[tx.AccountID] = owner
		}
		result = append(result, types.PendingFunding{
			AccountID:   owner.AccountID,
			AccountName: owner.Name,
			Email:       owner.Email,
			Transaction: tx,
		})
	}
	return result, nil
}
