// Package contracts implements the timed contract trading engine:
// placement against tier limits, the expiry processor, and the
// exactly-once settlement that pays out and records the trade.
package contracts

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/fortress-invest/fortress-api/internal/ledger"
	"github.com/fortress-invest/fortress-api/internal/tier"
	"github.com/fortress-invest/fortress-api/internal/types"
)

type Service struct {
	db     *Database
	ledger *ledger.Service
	policy *tier.Policy
	prices PriceSource
}

func NewService(gormDB *gorm.DB, ledgerSvc *ledger.Service, policy *tier.Policy, prices PriceSource) *Service {
	return &Service{
		db:     NewDatabase(gormDB),
		ledger: ledgerSvc,
		policy: policy,
		prices: prices,
	}
}

// GetDB exposes the contract database to the expiry processor.
func (s *Service) GetDB() *Database {
	return s.db
}

// Place opens a contract: the stake plus commission is debited up front
// and the contract enters the active book until closes_at. The tier's
// concurrent-trade limit is enforced before any funds move.
func (s *Service) Place(accountID string, stake float64, direction string, option Option, entryPrice float64) (*types.Contract, error) {
	if stake <= 0 {
		return nil, types.ErrInvalidAmount
	}
	if direction != "buy" && direction != "sell" {
		return nil, fmt.Errorf("invalid direction: %s", direction)
	}

	unlock := s.ledger.Lock(accountID)
	defer unlock()

	account, err := s.ledger.Account(accountID)
	if err != nil {
		return nil, err
	}

	tiers, err := s.ledger.Tiers()
	if err != nil {
		return nil, err
	}
	limit := s.policy.TradeLimitFor(account.VipLevel, tiers)
	if limit != types.TradeLimitUnlimited {
		active, err := s.db.CountActive(accountID)
		if err != nil {
			return nil, err
		}
		if active >= int64(limit) {
			return nil, types.ErrTradeLimitReached
		}
	}

	commission := stake * option.CommissionRate
	totalCost := stake + commission
	if err := s.ledger.Debit(accountID, totalCost); err != nil {
		return nil, err
	}

	if entryPrice <= 0 {
		entryPrice = s.prices.Current()
	}

	now := time.Now()
	contract := &types.Contract{
		ContractID:      "CT_" + uuid.New().String(),
		AccountID:       accountID,
		Pair:            s.prices.Pair(),
		Direction:       direction,
		Stake:           stake,
		DurationSeconds: option.DurationSeconds,
		ProfitRate:      option.ProfitRate,
		CommissionRate:  option.CommissionRate,
		EntryPrice:      entryPrice,
		Status:          types.ContractActive,
		ClosesAt:        now.Add(time.Duration(option.DurationSeconds) * time.Second),
		CreatedAt:       now,
	}
	if err := s.db.CreateContract(contract); err != nil {
		return nil, err
	}

	log.Info().
		Str("contract_id", contract.ContractID).
		Str("account_id", accountID).
		Str("direction", direction).
		Float64("stake", stake).
		Float64("total_cost", totalCost).
		Msg("contract placed")

	return contract, nil
}

// Expire moves a contract past its close time into the expired state,
// awaiting settlement by the back office. Called by the self-serve flow
// and by the processor. Already-settled contracts are a no-op so a stale
// timer cannot re-trigger settlement.
func (s *Service) Expire(contractID string) error {
	contract, err := s.db.GetContract(contractID)
	if err != nil {
		return err
	}

	unlock := s.ledger.Lock(contract.AccountID)
	defer unlock()

	contract, err = s.db.GetContract(contractID)
	if err != nil {
		return err
	}
	if contract.Status != types.ContractActive {
		return nil
	}

	contract.Status = types.ContractExpired
	if err := s.db.UpdateContract(contract); err != nil {
		return err
	}

	if err := s.ledger.AppendNotification(contract.AccountID, "transaction",
		"Contract Expired",
		fmt.Sprintf("Your %ds contract on %s has expired and is awaiting settlement by an administrator.",
			contract.DurationSeconds, contract.Pair)); err != nil {
		return err
	}

	log.Info().
		Str("contract_id", contractID).
		Str("account_id", contract.AccountID).
		Msg("contract expired, awaiting settlement")

	return nil
}

// SettleByPrice resolves a contract by comparing the exit price against
// the entry price: a buy wins when the price rose, a sell when it fell.
func (s *Service) SettleByPrice(contractID string, exitPrice float64) error {
	contract, err := s.db.GetContract(contractID)
	if err != nil {
		return err
	}

	win := (contract.Direction == "buy" && exitPrice > contract.EntryPrice) ||
		(contract.Direction == "sell" && exitPrice < contract.EntryPrice)

	return s.settle(contractID, win, exitPrice, "Contract Settled")
}

// ResolveAdmin forcibly settles a contract as a win or loss, overriding
// any price comparison. Resolving an already-settled contract is a
// no-op so duplicate settlement attempts are tolerated.
func (s *Service) ResolveAdmin(contractID, resolution string) error {
	if resolution != "win" && resolution != "loss" {
		return fmt.Errorf("invalid resolution: %s", resolution)
	}

	contract, err := s.db.GetContract(contractID)
	if err != nil {
		return err
	}

	win := resolution == "win"
	direction := 1.0
	if !win {
		direction = -1.0
	}
	closePrice := contract.EntryPrice + direction*100*rand.Float64()

	return s.settle(contractID, win, closePrice, "Contract Settled by Admin")
}

// settle applies the terminal transition exactly once: status, close
// price, payout credit, trade transaction and notification.
func (s *Service) settle(contractID string, win bool, closePrice float64, noteTitle string) error {
	contract, err := s.db.GetContract(contractID)
	if err != nil {
		return err
	}

	unlock := s.ledger.Lock(contract.AccountID)
	defer unlock()

	contract, err = s.db.GetContract(contractID)
	if err != nil {
		return err
	}
	if contract.Terminal() {
		return nil
	}

	pnl := -contract.Stake
	payout := 0.0
	status := types.ContractLost
	if win {
		pnl = contract.Stake * contract.ProfitRate
		payout = contract.Stake + pnl
		status = types.ContractWon
	}

	contract.Status = status
	contract.ClosePrice = closePrice
	if err := s.db.UpdateContract(contract); err != nil {
		return err
	}

	if payout > 0 {
		if err := s.ledger.Credit(contract.AccountID, payout); err != nil {
			return err
		}
	}

	now := time.Now()
	tradeTx := &types.Transaction{
		TransactionID:        "TX_" + contract.ContractID,
		Kind:                 types.KindTrade,
		Status:               types.StatusCompleted,
		Asset:                quoteAsset(contract.Pair),
		Amount:               pnl,
		Pair:                 contract.Pair,
		Direction:            direction(contract.Direction),
		Stake:                contract.Stake,
		Commission:           contract.Stake * contract.CommissionRate,
		Profit:               pnl,
		EntryPrice:           contract.EntryPrice,
		ExitPrice:            closePrice,
		SettlementDuration:   contract.DurationSeconds,
		ProfitPercentage:     contract.ProfitRate * 100,
		CommissionPercentage: contract.CommissionRate * 100,
		EndTime:              &now,
		CreatedAt:            contract.CreatedAt,
	}
	if err := s.ledger.AppendTransaction(contract.AccountID, tradeTx); err != nil {
		return err
	}

	outcome := "Loss"
	if win {
		outcome = "Win"
	}
	if err := s.ledger.AppendNotification(contract.AccountID, "transaction",
		noteTitle,
		fmt.Sprintf("Your contract on %s was settled as a %s. P/L: $%.2f.",
			contract.Pair, outcome, pnl)); err != nil {
		return err
	}

	log.Info().
		Str("contract_id", contractID).
		Str("account_id", contract.AccountID).
		Str("status", status).
		Float64("pnl", pnl).
		Float64("payout", payout).
		Msg("contract settled")

	return nil
}

// Open returns every unsettled contract for the settlement queue.
func (s *Service) Open() ([]types.Contract, error) {
	return s.db.ListOpen()
}

// AllTrades returns every settled trade transaction.
func (s *Service) AllTrades() ([]types.Transaction, error) {
	return s.db.ListTradeTransactions()
}

func quoteAsset(pair string) string {
	for i := len(pair) - 1; i >= 0; i-- {
		if pair[i] == '-' {
			return pair[i+1:]
		}
	}
	return "USDT"
}

func direction(d string) string {
	if d == "buy" {
		return "Buy"
	}
	return "Sell"
}
