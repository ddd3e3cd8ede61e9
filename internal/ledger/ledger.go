// Package ledger owns the durable account records: balance, transaction
// history and notifications. All balance mutations flow through here so
// the VIP level is refreshed after every credit or debit and no partial
// state is left behind on a rejected operation.
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/fortress-invest/fortress-api/internal/tier"
	"github.com/fortress-invest/fortress-api/internal/types"
)

type Service struct {
	db     *Database
	policy *tier.Policy
	locks  *accountLocks
}

func NewService(gormDB *gorm.DB, policy *tier.Policy) *Service {
	return &Service{
		db:     NewDatabase(gormDB),
		policy: policy,
		locks:  newAccountLocks(),
	}
}

// GetDB exposes the ledger database to collaborating services.
func (s *Service) GetDB() *Database {
	return s.db
}

func (s *Service) Account(accountID string) (*types.Account, error) {
	return s.db.GetAccount(accountID)
}

func (s *Service) AccountByEmail(email string) (*types.Account, error) {
	return s.db.GetAccountByEmail(email)
}

func (s *Service) AccountByReferralCode(code string) (*types.Account, error) {
	return s.db.GetAccountByReferralCode(code)
}

func (s *Service) Tiers() ([]types.VipTier, error) {
	return s.db.ListTiers()
}

// Credit adds amount to the account balance and refreshes the VIP level.
// Callers are expected to hold the account lock.
func (s *Service) Credit(accountID string, amount float64) error {
	if amount <= 0 {
		return types.ErrInvalidAmount
	}

	account, err := s.db.GetAccount(accountID)
	if err != nil {
		return err
	}

	account.Balance += amount
	if err := s.refreshVipLevel(account); err != nil {
		return err
	}

	log.Debug().
		Str("account_id", accountID).
		Float64("amount", amount).
		Float64("balance", account.Balance).
		Msg("account credited")

	return s.db.UpdateAccount(account)
}

// Debit removes amount from the account balance. It fails with
// ErrInsufficientFunds before any mutation when the balance does not
// cover the amount; there are no partial debits.
func (s *Service) Debit(accountID string, amount float64) error {
	if amount <= 0 {
		return types.ErrInvalidAmount
	}

	account, err := s.db.GetAccount(accountID)
	if err != nil {
		return err
	}

	if account.Balance < amount {
		return types.ErrInsufficientFunds
	}

	account.Balance -= amount
	if err := s.refreshVipLevel(account); err != nil {
		return err
	}

	log.Debug().
		Str("account_id", accountID).
		Float64("amount", amount).
		Float64("balance", account.Balance).
		Msg("account debited")

	return s.db.UpdateAccount(account)
}

// SetBalance overrides the balance directly (admin path) and returns the
// applied difference for the compensating adjustment transaction.
func (s *Service) SetBalance(accountID string, newBalance float64) (float64, error) {
	account, err := s.db.GetAccount(accountID)
	if err != nil {
		return 0, err
	}

	diff := newBalance - account.Balance
	account.Balance = newBalance
	if err := s.refreshVipLevel(account); err != nil {
		return 0, err
	}

	return diff, s.db.UpdateAccount(account)
}

// AppendTransaction records a transaction against the account, filling
// in the id and timestamps when unset.
func (s *Service) AppendTransaction(accountID string, tx *types.Transaction) error {
	if _, err := s.db.GetAccount(accountID); err != nil {
		return err
	}

	tx.AccountID = accountID
	if tx.TransactionID == "" {
		tx.TransactionID = "TX_" + uuid.New().String()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	return s.db.CreateTransaction(tx)
}

// AppendNotification records a notification for the account.
func (s *Service) AppendNotification(accountID, noteType, title, message string) error {
	note := &types.Notification{
		NotificationID: "NTF_" + uuid.New().String(),
		AccountID:      accountID,
		Type:           noteType,
		Title:          title,
		Message:        message,
		CreatedAt:      time.Now(),
	}
	return s.db.CreateNotification(note)
}

// NotifyOperator appends a system notification to the admin account, the
// back-office inbox for deposit/withdrawal/KYC review.
func (s *Service) NotifyOperator(title, message string) {
	admins, err := s.db.ListAccounts()
	if err != nil {
		log.Error().Err(err).Msg("failed to list accounts for operator notification")
		return
	}
	for _, a := range admins {
		if !a.IsAdmin {
			continue
		}
		if err := s.AppendNotification(a.AccountID, "system", title, message); err != nil {
			log.Error().Err(err).Str("account_id", a.AccountID).Msg("failed to notify operator")
		}
	}
}

// RefreshVipLevel recomputes the completed-deposit total and VIP level
// for the account and persists the result.
func (s *Service) RefreshVipLevel(accountID string) error {
	account, err := s.db.GetAccount(accountID)
	if err != nil {
		return err
	}
	if err := s.refreshVipLevel(account); err != nil {
		return err
	}
	return s.db.UpdateAccount(account)
}

func (s *Service) refreshVipLevel(account *types.Account) error {
	total, err := s.db.CompletedDepositTotal(account.AccountID)
	if err != nil {
		return err
	}
	tiers, err := s.db.ListTiers()
	if err != nil {
		return err
	}

	account.TotalDeposits = total
	account.VipLevel = s.policy.ComputeVipLevel(account.Balance, total, tiers)
	return nil
}

// Snapshot assembles the derived account view: balance, newest-first
// history and notifications, and both contract books.
func (s *Service) Snapshot(accountID string) (*types.AccountSnapshot, error) {
	account, err := s.db.GetAccount(accountID)
	if err != nil {
		return nil, err
	}

	txs, err := s.db.ListTransactions(accountID)
	if err != nil {
		return nil, err
	}
	notes, err := s.db.ListNotifications(accountID)
	if err != nil {
		return nil, err
	}
	active, err := s.db.ListContractsByStatus(accountID, types.ContractActive, types.ContractExpired)
	if err != nil {
		return nil, err
	}
	history, err := s.db.ListContractsByStatus(accountID, types.ContractWon, types.ContractLost)
	if err != nil {
		return nil, err
	}

	return &types.AccountSnapshot{
		Account:         *account,
		Transactions:    txs,
		Notifications:   notes,
		ActiveContracts: active,
		ContractHistory: history,
	}, nil
}

func (s *Service) MarkNotificationRead(accountID, notificationID string) error {
	return s.db.MarkNotificationRead(accountID, notificationID)
}

func (s *Service) MarkAllNotificationsRead(accountID string) error {
	return s.db.MarkAllNotificationsRead(accountID)
}
