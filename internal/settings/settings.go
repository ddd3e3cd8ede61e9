// Package settings manages the singleton system configuration: deposit
// wallet addresses and the VIP tier table. Reads are public to signed-in
// clients; mutation goes through the admin interface only.
package settings

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fortress-invest/fortress-api/internal/types"
	"github.com/fortress-invest/fortress-api/pkg/response"
)

type Service struct {
	db *gorm.DB
}

func NewService(gormDB *gorm.DB) *Service {
	return &Service{db: gormDB}
}

// Get returns the current system settings with the tier table.
func (s *Service) Get() (*types.SystemSettings, error) {
	var row types.Settings
	if err := s.db.First(&row).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var tiers []types.VipTier
	if err := s.db.Order("level ASC").Find(&tiers).Error; err != nil {
		return nil, err
	}

	return &types.SystemSettings{
		DepositAddressTRC20: row.DepositAddressTRC20,
		DepositAddressERC20: row.DepositAddressERC20,
		DepositAddressBTC:   row.DepositAddressBTC,
		VipTiers:            tiers,
	}, nil
}

// Update replaces the settings row and, when tiers are supplied, the
// whole tier table, in one transaction.
func (s *Service) Update(updated types.SystemSettings) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var row types.Settings
		if err := tx.First(&row).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		row.DepositAddressTRC20 = updated.DepositAddressTRC20
		row.DepositAddressERC20 = updated.DepositAddressERC20
		row.DepositAddressBTC = updated.DepositAddressBTC
		if err := tx.Save(&row).Error; err != nil {
			return err
		}

		if len(updated.VipTiers) == 0 {
			return nil
		}
		if err := tx.Unscoped().Where("1 = 1").Delete(&types.VipTier{}).Error; err != nil {
			return err
		}
		for _, t := range updated.VipTiers {
			t.ID = 0
			if err := tx.Create(&t).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GinHandlers contains the public settings endpoint.
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// GetSettingsHandler returns deposit addresses and the tier table.
func (h *GinHandlers) GetSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		current, err := h.service.Get()
		response.Handle(c, current, err)
	}
}
