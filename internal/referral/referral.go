// Package referral tracks referred-account relationships and grants the
// one-time reward keyed to a referred account's first completed deposit.
package referral

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/fortress-invest/fortress-api/internal/ledger"
	"github.com/fortress-invest/fortress-api/internal/types"
)

type Service struct {
	db     *gorm.DB
	ledger *ledger.Service
	reward float64
}

func NewService(gormDB *gorm.DB, ledgerSvc *ledger.Service, reward float64) *Service {
	return &Service{
		db:     gormDB,
		ledger: ledgerSvc,
		reward: reward,
	}
}

// Register links a newly created account to the holder of referrerCode.
// An unknown code is a no-op, not an error.
func (s *Service) Register(referredID, referredName, referrerCode string) {
	code := strings.ToUpper(strings.TrimSpace(referrerCode))
	referrer, err := s.ledger.AccountByReferralCode(code)
	if err != nil {
		if !errors.Is(err, types.ErrAccountNotFound) {
			log.Error().Err(err).Str("code", code).Msg("referral lookup failed")
		}
		return
	}

	entry := &types.Referral{
		ReferrerID:   referrer.AccountID,
		ReferredID:   referredID,
		ReferredName: referredName,
		Status:       types.ReferralRegistered,
		CreatedAt:    time.Now(),
	}
	if err := s.db.Create(entry).Error; err != nil {
		log.Error().Err(err).
			Str("referrer_id", referrer.AccountID).
			Str("referred_id", referredID).
			Msg("failed to record referral")
		return
	}

	log.Info().
		Str("referrer_id", referrer.AccountID).
		Str("referred_id", referredID).
		Msg("referral registered")
}

// GrantFirstDepositReward pays the referrer of referredID once, on that
// account's first completed deposit. Both legs, the status flip and the
// referrer credit, commit in one transaction. A missing referral entry
// or an already-granted reward is a no-op.
func (s *Service) GrantFirstDepositReward(referredID string) error {
	var entry types.Referral
	err := s.db.Where("referred_id = ? AND status = ?", referredID, types.ReferralRegistered).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	unlock := s.ledger.Lock(entry.ReferrerID)
	defer unlock()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Re-check under the transaction so a duplicate resolution
		// cannot grant twice.
		result := tx.Model(&types.Referral{}).
			Where("referred_id = ? AND status = ?", referredID, types.ReferralRegistered).
			Updates(map[string]interface{}{
				"status": types.ReferralDeposited,
				"reward": s.reward,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		return tx.Model(&types.Account{}).
			Where("account_id = ?", entry.ReferrerID).
			Updates(map[string]interface{}{
				"balance":          gorm.Expr("balance + ?", s.reward),
				"referral_rewards": gorm.Expr("referral_rewards + ?", s.reward),
			}).Error
	})
	if err != nil {
		return err
	}

	if err := s.ledger.RefreshVipLevel(entry.ReferrerID); err != nil {
		return err
	}
	if err := s.ledger.AppendNotification(entry.ReferrerID, "system",
		"Referral Reward!",
		fmt.Sprintf("Your referral %s made their first deposit! You've earned a $%.0f reward.",
			entry.ReferredName, s.reward)); err != nil {
		return err
	}

	log.Info().
		Str("referrer_id", entry.ReferrerID).
		Str("referred_id", referredID).
		Float64("reward", s.reward).
		Msg("referral reward granted")

	return nil
}

// Referrals lists the referral entries owned by an account, newest first.
func (s *Service) Referrals(referrerID string) ([]types.Referral, error) {
	var entries []types.Referral
	if err := s.db.Where("referrer_id = ?", referrerID).
		Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
