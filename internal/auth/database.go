package auth

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/fortress-invest/fortress-api/internal/types"
)

// firstAccountNumber seeds the monotonic id sequence; the first
// self-registered account becomes UID-10001.
const firstAccountNumber = 10000

type Database struct {
	db       *gorm.DB
	signupMu sync.Mutex
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// LockSignup serializes id allocation across concurrent signups.
func (d *Database) LockSignup() func() {
	d.signupMu.Lock()
	return d.signupMu.Unlock
}

// NextAccountID returns the next monotonic UID-<n> identifier. Callers
// must hold the signup lock.
func (d *Database) NextAccountID() (string, error) {
	var ids []string
	if err := d.db.Model(&types.Account{}).Pluck("account_id", &ids).Error; err != nil {
		return "", err
	}

	maxID := firstAccountNumber
	for _, id := range ids {
		numeric := strings.TrimPrefix(id, "UID-")
		n, err := strconv.Atoi(numeric)
		if err == nil && n > maxID {
			maxID = n
		}
	}
	return fmt.Sprintf("UID-%d", maxID+1), nil
}

func (d *Database) CreateAccount(account *types.Account) error {
	return d.db.Create(account).Error
}

func (d *Database) CreateLoginRecord(record *types.LoginRecord) error {
	return d.db.Create(record).Error
}

func (d *Database) UpdatePasswordHash(accountID, hash string) error {
	return d.db.Model(&types.Account{}).
		Where("account_id = ?", accountID).
		Update("password_hash", hash).Error
}

func (d *Database) UpdateFundPasswordHash(accountID, hash string) error {
	return d.db.Model(&types.Account{}).
		Where("account_id = ?", accountID).
		Update("fund_password_hash", hash).Error
}

func (d *Database) UpdateTwoFactor(accountID string, enabled bool, secret string) error {
	return d.db.Model(&types.Account{}).
		Where("account_id = ?", accountID).
		Updates(map[string]interface{}{
			"two_factor_enabled": enabled,
			"two_factor_secret":  secret,
		}).Error
}
