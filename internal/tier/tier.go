// Package tier implements the VIP tier policy: a pure mapping from an
// account's balance and completed-deposit total onto a VIP level and its
// concurrent-trade allowance.
package tier

import (
	"sort"

	"github.com/fortress-invest/fortress-api/internal/types"
)

// DefaultMinimumBalance is the balance floor below which an account is
// always VIP 0, regardless of deposits.
const DefaultMinimumBalance = 120.0

// Policy evaluates VIP levels against a tier table.
type Policy struct {
	minimumBalance float64
}

func NewPolicy(minimumBalance float64) *Policy {
	if minimumBalance <= 0 {
		minimumBalance = DefaultMinimumBalance
	}
	return &Policy{minimumBalance: minimumBalance}
}

// ComputeVipLevel returns the VIP level for the given balance and
// completed-deposit total. Below the minimum balance the level is 0.
// Otherwise the highest tier (level > 0) whose deposit threshold is
// covered wins; with no match the level defaults to 1, even when the
// table carries no explicit level-1 row.
func (p *Policy) ComputeVipLevel(balance, totalDeposits float64, tiers []types.VipTier) int {
	if balance < p.minimumBalance {
		return 0
	}

	sorted := make([]types.VipTier, 0, len(tiers))
	for _, t := range tiers {
		if t.Level > 0 {
			sorted = append(sorted, t)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].DepositThreshold > sorted[j].DepositThreshold
	})

	for _, t := range sorted {
		if totalDeposits >= t.DepositThreshold {
			return t.Level
		}
	}
	return 1
}

// TradeLimitFor returns the concurrent-trade allowance for a level, or
// types.TradeLimitUnlimited. An unknown level falls back to a single
// concurrent trade.
func (p *Policy) TradeLimitFor(level int, tiers []types.VipTier) int {
	for _, t := range tiers {
		if t.Level == level {
			return t.TradeLimit
		}
	}
	return 1
}

// DefaultTiers is the tier table seeded on first start.
func DefaultTiers() []types.VipTier {
	return []types.VipTier{
		{Level: 0, DepositThreshold: -1, TradeLimit: 0},
		{Level: 1, DepositThreshold: 0, TradeLimit: 1},
		{Level: 2, DepositThreshold: 500, TradeLimit: 2},
		{Level: 3, DepositThreshold: 2000, TradeLimit: 3},
		{Level: 4, DepositThreshold: 5000, TradeLimit: 4},
		{Level: 5, DepositThreshold: 10000, TradeLimit: types.TradeLimitUnlimited},
	}
}
