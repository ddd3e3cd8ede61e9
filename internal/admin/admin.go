// Package admin is the privileged operations layer. Every mutating
// operation re-verifies the caller's password against the stored
// credential; holding a valid session is not enough on its own. The
// operations themselves are thin wrappers over the same ledger, funding
// and contract primitives the self-serve paths use.
package admin

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fortress-invest/fortress-api/internal/funding"
	"github.com/fortress-invest/fortress-api/internal/ledger"
	"github.com/fortress-invest/fortress-api/internal/types"
)

// AccountCreator registers new accounts on an admin's behalf.
type AccountCreator interface {
	AdminCreateAccount(name, email, password string) error
}

type Service struct {
	ledger   *ledger.Service
	verifier funding.CredentialVerifier
}

func NewService(ledgerSvc *ledger.Service, verifier funding.CredentialVerifier) *Service {
	return &Service{
		ledger:   ledgerSvc,
		verifier: verifier,
	}
}

// Authorize checks that the caller is an admin and re-verifies the
// password. Called on every privileged mutation; nothing is cached.
func (s *Service) Authorize(adminID, password string) error {
	account, err := s.ledger.Account(adminID)
	if err != nil {
		return err
	}
	if !account.IsAdmin {
		return types.ErrUnauthorized
	}
	return s.verifier.VerifyPassword(adminID, password)
}

// OverrideBalance sets the target balance directly and records a
// compensating Admin Adjustment transaction for the difference.
func (s *Service) OverrideBalance(targetID string, newBalance float64) error {
	unlock := s.ledger.Lock(targetID)
	defer unlock()

	diff, err := s.ledger.SetBalance(targetID, newBalance)
	if err != nil {
		return err
	}

	if err := s.ledger.AppendTransaction(targetID, &types.Transaction{
		Kind:   types.KindAdminAdjustment,
		Status: types.StatusCompleted,
		Asset:  "USDT",
		Amount: diff,
	}); err != nil {
		return err
	}

	log.Info().
		Str("account_id", targetID).
		Float64("new_balance", newBalance).
		Float64("adjustment", diff).
		Msg("balance overridden")

	return nil
}

// ManualTransaction applies an already-completed deposit or withdrawal,
// skipping the review queue. A manual withdrawal still cannot overdraw
// the account.
func (s *Service) ManualTransaction(email, kind, asset string, amount float64) error {
	if amount <= 0 {
		return types.ErrInvalidAmount
	}
	if kind != types.KindDeposit && kind != types.KindWithdrawal {
		return fmt.Errorf("invalid manual transaction kind: %s", kind)
	}

	target, err := s.ledger.AccountByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}

	unlock := s.ledger.Lock(target.AccountID)
	defer unlock()

	tx := &types.Transaction{
		Kind:   kind,
		Status: types.StatusCompleted,
		Asset:  asset,
		Amount: amount,
	}

	if kind == types.KindDeposit {
		// The completed deposit row must exist before the credit so the
		// VIP refresh sees the new deposit total.
		if err := s.ledger.AppendTransaction(target.AccountID, tx); err != nil {
			return err
		}
		if err := s.ledger.Credit(target.AccountID, amount); err != nil {
			return err
		}
	} else {
		// Validate-then-mutate: the debit rejects before any record is
		// written when the balance does not cover it.
		if err := s.ledger.Debit(target.AccountID, amount); err != nil {
			return err
		}
		if err := s.ledger.AppendTransaction(target.AccountID, tx); err != nil {
			return err
		}
	}

	if err := s.ledger.AppendNotification(target.AccountID, "transaction",
		fmt.Sprintf("Manual %s", kind),
		fmt.Sprintf("An admin has processed a manual %s of %.2f %s for your account.",
			strings.ToLower(kind), amount, asset)); err != nil {
		return err
	}

	log.Info().
		Str("account_id", target.AccountID).
		Str("kind", kind).
		Float64("amount", amount).
		Msg("manual transaction applied")

	return nil
}

// Accounts lists every account for the back office.
func (s *Service) Accounts() ([]types.Account, error) {
	return s.ledger.GetDB().ListAccounts()
}
