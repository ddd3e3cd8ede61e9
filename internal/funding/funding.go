// Package funding implements the deposit and withdrawal workflow: a
// request enters Pending and is later resolved to Completed or Failed
// by the back office, applying the balance change at resolution time.
package funding

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/fortress-invest/fortress-api/internal/ledger"
	"github.com/fortress-invest/fortress-api/internal/referral"
	"github.com/fortress-invest/fortress-api/internal/types"
)

// CredentialVerifier checks an account's login password. Kept as an
// interface so the ledger workflow never touches stored credentials.
type CredentialVerifier interface {
	VerifyPassword(accountID, attempt string) error
}

type Service struct {
	db        *Database
	ledger    *ledger.Service
	referrals *referral.Service
	verifier  CredentialVerifier
}

func NewService(gormDB *gorm.DB, ledgerSvc *ledger.Service, referrals *referral.Service, verifier CredentialVerifier) *Service {
	return &Service{
		db:        NewDatabase(gormDB),
		ledger:    ledgerSvc,
		referrals: referrals,
		verifier:  verifier,
	}
}

// RequestDeposit creates a pending deposit transaction and notifies the
// operator. No balance changes until resolution.
func (s *Service) RequestDeposit(accountID string, amount float64, network, asset, proof string) (*types.Transaction, error) {
	if amount <= 0 {
		return nil, types.ErrInvalidAmount
	}
	account, err := s.ledger.Account(accountID)
	if err != nil {
		return nil, err
	}

	tx := &types.Transaction{
		Kind:    types.KindDeposit,
		Status:  types.StatusPending,
		Asset:   asset,
		Amount:  amount,
		Network: network,
		Proof:   proof,
	}
	if err := s.ledger.AppendTransaction(accountID, tx); err != nil {
		return nil, err
	}

	s.ledger.NotifyOperator("New Deposit Request",
		fmt.Sprintf("%s has submitted a new deposit of %.2f %s.", account.Name, amount, asset))

	log.Info().
		Str("account_id", accountID).
		Str("transaction_id", tx.TransactionID).
		Float64("amount", amount).
		Msg("deposit requested")

	return tx, nil
}

// RequestWithdrawal creates a pending withdrawal transaction. The caller
// must be KYC verified, present the correct password, and hold a balance
// covering the amount at request time. Funds are not escrowed; the
// resolution re-checks the balance.
func (s *Service) RequestWithdrawal(accountID string, amount float64, address, asset, password string) (*types.Transaction, error) {
	account, err := s.ledger.Account(accountID)
	if err != nil {
		return nil, err
	}
	if err := s.verifier.VerifyPassword(accountID, password); err != nil {
		return nil, err
	}
	if account.KycStatus != types.KycVerified {
		return nil, types.ErrKycRequired
	}
	if amount <= 0 {
		return nil, types.ErrInvalidAmount
	}

	unlock := s.ledger.Lock(accountID)
	defer unlock()

	// Re-read under the lock; the earlier read only served the
	// credential and KYC checks.
	account, err = s.ledger.Account(accountID)
	if err != nil {
		return nil, err
	}
	if account.Balance < amount {
		return nil, types.ErrInsufficientFunds
	}

	tx := &types.Transaction{
		Kind:    types.KindWithdrawal,
		Status:  types.StatusPending,
		Asset:   asset,
		Amount:  amount,
		Address: address,
	}
	if err := s.ledger.AppendTransaction(accountID, tx); err != nil {
		return nil, err
	}

	s.ledger.NotifyOperator("New Withdrawal Request",
		fmt.Sprintf("%s has requested a withdrawal of %.2f %s.", account.Name, amount, asset))

	log.Info().
		Str("account_id", accountID).
		Str("transaction_id", tx.TransactionID).
		Float64("amount", amount).
		Msg("withdrawal requested")

	return tx, nil
}

// ResolveDeposit moves a pending deposit to Completed or Failed. On
// completion the account is credited, the VIP level refreshed, and the
// referral engine is invoked when this is the account's first completed
// deposit.
func (s *Service) ResolveDeposit(transactionID, status string) error {
	if status != types.StatusCompleted && status != types.StatusFailed {
		return fmt.Errorf("invalid resolution status: %s", status)
	}

	tx, err := s.db.GetPendingTransaction(transactionID, types.KindDeposit)
	if err != nil {
		return err
	}

	unlock := s.ledger.Lock(tx.AccountID)
	defer unlock()

	// The queue could have been drained twice; re-read under the lock.
	tx, err = s.db.GetPendingTransaction(transactionID, types.KindDeposit)
	if err != nil {
		return err
	}

	firstDeposit := false
	if status == types.StatusCompleted {
		completed, err := s.ledger.GetDB().CountCompletedDeposits(tx.AccountID)
		if err != nil {
			return err
		}
		firstDeposit = completed == 0
	}

	tx.Status = status
	if err := s.db.UpdateTransaction(tx); err != nil {
		return err
	}

	if status == types.StatusCompleted {
		// The transaction is already Completed, so the credit's VIP
		// refresh sees the new deposit total.
		if err := s.ledger.Credit(tx.AccountID, tx.Amount); err != nil {
			return err
		}
	}

	verdict := "declined"
	if status == types.StatusCompleted {
		verdict = "approved"
	}
	if err := s.ledger.AppendNotification(tx.AccountID, "transaction",
		fmt.Sprintf("Deposit %s", status),
		fmt.Sprintf("Your deposit of %.2f %s has been %s.", tx.Amount, tx.Asset, verdict)); err != nil {
		return err
	}

	log.Info().
		Str("transaction_id", transactionID).
		Str("account_id", tx.AccountID).
		Str("status", status).
		Msg("deposit resolved")

	if firstDeposit {
		return s.referrals.GrantFirstDepositReward(tx.AccountID)
	}
	return nil
}

// ResolveWithdrawal moves a pending withdrawal to Completed or Failed.
// A completed withdrawal debits the account; when the balance no longer
// covers the amount the transaction is forced to Failed and the error is
// surfaced to the resolver.
func (s *Service) ResolveWithdrawal(transactionID, status string) error {
	if status != types.StatusCompleted && status != types.StatusFailed {
		return fmt.Errorf("invalid resolution status: %s", status)
	}

	tx, err := s.db.GetPendingTransaction(transactionID, types.KindWithdrawal)
	if err != nil {
		return err
	}

	unlock := s.ledger.Lock(tx.AccountID)
	defer unlock()

	tx, err = s.db.GetPendingTransaction(transactionID, types.KindWithdrawal)
	if err != nil {
		return err
	}

	if status == types.StatusCompleted {
		if err := s.ledger.Debit(tx.AccountID, tx.Amount); err != nil {
			if err == types.ErrInsufficientFunds {
				tx.Status = types.StatusFailed
				if saveErr := s.db.UpdateTransaction(tx); saveErr != nil {
					return saveErr
				}
				_ = s.ledger.AppendNotification(tx.AccountID, "transaction",
					"Withdrawal Failed",
					fmt.Sprintf("Your withdrawal of %.2f %s failed due to insufficient funds.", tx.Amount, tx.Asset))
				return types.ErrInsufficientFunds
			}
			return err
		}
	}

	tx.Status = status
	if err := s.db.UpdateTransaction(tx); err != nil {
		return err
	}

	verdict := "declined"
	if status == types.StatusCompleted {
		verdict = "approved"
	}
	if err := s.ledger.AppendNotification(tx.AccountID, "transaction",
		fmt.Sprintf("Withdrawal %s", status),
		fmt.Sprintf("Your withdrawal of %.2f %s has been %s.", tx.Amount, tx.Asset, verdict)); err != nil {
		return err
	}

	log.Info().
		Str("transaction_id", transactionID).
		Str("account_id", tx.AccountID).
		Str("status", status).
		Msg("withdrawal resolved")

	return nil
}

// PendingDeposits lists every pending deposit with its owner.
func (s *Service) PendingDeposits() ([]types.PendingFunding, error) {
	return s.db.ListPendingWithOwner(types.KindDeposit)
}

// PendingWithdrawals lists every pending withdrawal with its owner.
func (s *Service) PendingWithdrawals() ([]types.PendingFunding, error) {
	return s.db.ListPendingWithOwner(types.KindWithdrawal)
}

// AllOrders lists every deposit and withdrawal across accounts, newest
// first, for the back-office order view.
func (s *Service) AllOrders() ([]types.PendingFunding, error) {
	return s.db.ListAllFundingWithOwner()
}
