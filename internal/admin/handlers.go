package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/fortress-invest/fortress-api/internal/contracts"
	"github.com/fortress-invest/fortress-api/internal/funding"
	"github.com/fortress-invest/fortress-api/internal/kyc"
	"github.com/fortress-invest/fortress-api/internal/settings"
	"github.com/fortress-invest/fortress-api/internal/types"
	"github.com/fortress-invest/fortress-api/pkg/response"
)

// GinHandlers contains the back-office HTTP handlers. Listings require
// the admin claim only; mutations additionally carry the admin password
// for re-verification.
type GinHandlers struct {
	service   *Service
	funding   *funding.Service
	contracts *contracts.Service
	kyc       *kyc.Service
	settings  *settings.Service
	accounts  AccountCreator
}

func NewGinHandlers(
	service *Service,
	fundingSvc *funding.Service,
	contractsSvc *contracts.Service,
	kycSvc *kyc.Service,
	settingsSvc *settings.Service,
	accounts AccountCreator,
) *GinHandlers {
	return &GinHandlers{
		service:   service,
		funding:   fundingSvc,
		contracts: contractsSvc,
		kyc:       kycSvc,
		settings:  settingsSvc,
		accounts:  accounts,
	}
}

// authorize re-verifies the calling admin's password. Returns false and
// writes the error response when the check fails.
func (h *GinHandlers) authorize(c *gin.Context, password string) bool {
	if err := h.service.Authorize(c.GetString("accountID"), password); err != nil {
		response.Handle(c, nil, err)
		return false
	}
	return true
}

type verifyPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// VerifyPasswordHandler lets the back office pre-check the admin
// password before a sensitive screen.
func (h *GinHandlers) VerifyPasswordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req verifyPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if !h.authorize(c, req.Password) {
			return
		}
		response.Success(c, gin.H{"verified": true})
	}
}

// ListAccountsHandler returns every account.
func (h *GinHandlers) ListAccountsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accounts, err := h.service.Accounts()
		response.Handle(c, accounts, err)
	}
}

type createAccountRequest struct {
	Password        string `json:"password" binding:"required"`
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	AccountPassword string `json:"account_password"`
}

// CreateAccountHandler registers an account on the admin's behalf.
func (h *GinHandlers) CreateAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createAccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if !h.authorize(c, req.Password) {
			return
		}

		if err := h.accounts.AdminCreateAccount(req.Name, req.Email, req.AccountPassword); err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, gin.H{"message": "account created"})
	}
}

type overrideBalanceRequest struct {
	Password   string  `json:"password" binding:"required"`
	NewBalance float64 `json:"new_balance"`
}

// OverrideBalanceHandler sets a target account's balance directly.
func (h *GinHandlers) OverrideBalanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req overrideBalanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if !h.authorize(c, req.Password) {
			return
		}

		if err := h.service.OverrideBalance(c.Param("account_id"), req.NewBalance); err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, gin.H{"message": "balance updated"})
	}
}

type manualTransactionRequest struct {
	Password string  `json:"password" binding:"required"`
	Email    string  `json:"email" binding:"required,email"`
	Kind     string  `json:"kind" binding:"required,oneof=Deposit Withdrawal"`
	Asset    string  `json:"asset" binding:"required"`
	Amount   float64 `json:"amount" binding:"required"`
}

// ManualTransactionHandler applies a pre-approved deposit or withdrawal.
func (h *GinHandlers) ManualTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req manualTransactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if !h.authorize(c, req.Password) {
			return
		}

		if err := h.service.ManualTransaction(req.Email, req.Kind, req.Asset, req.Amount); err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, gin.H{"message": "transaction applied"})
	}
}

// PendingDepositsHandler lists deposits awaiting review.
func (h *GinHandlers) PendingDepositsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		pending, err := h.funding.PendingDeposits()
		response.Handle(c, pending, err)
	}
}

// PendingWithdrawalsHandler lists withdrawals awaiting review.
func (h *GinHandlers) PendingWithdrawalsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		pending, err := h.funding.PendingWithdrawals()
		response.Handle(c, pending, err)
	}
}

type resolveFundingRequest struct {
	Password string `json:"password" binding:"required"`
	Status   string `json:"status" binding:"required,oneof=Completed Failed"`
}

// ResolveDepositHandler approves or declines a pending deposit.
func (h *GinHandlers) ResolveDepositHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req resolveFundingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if !h.authorize(c, req.Password) {
			return
		}

		if err := h.funding.ResolveDeposit(c.Param("transaction_id"), req.Status); err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, gin.H{"message": "deposit resolved"})
	}
}

// ResolveWithdrawalHandler approves or declines a pending withdrawal.
func (h *GinHandlers) ResolveWithdrawalHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req resolveFundingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if !h.authorize(c, req.Password) {
			return
		}

		if err := h.funding.ResolveWithdrawal(c.Param("transaction_id"), req.Status); err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, gin.H{"message": "withdrawal resolved"})
	}
}

// OpenContractsHandler lists unsettled contracts for the settlement queue.
func (h *GinHandlers) OpenContractsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		open, err := h.contracts.Open()
		response.Handle(c, open, err)
	}
}

type resolveContractRequest struct {
	Password   string `json:"password" binding:"required"`
	Resolution string `json:"resolution" binding:"required,oneof=win loss"`
}

// ResolveContractHandler forcibly settles a contract as a win or loss.
func (h *GinHandlers) ResolveContractHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req resolveContractRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if !h.authorize(c, req.Password) {
			return
		}

		if err := h.contracts.ResolveAdmin(c.Param("contract_id"), req.Resolution); err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, gin.H{"message": "contract resolved"})
	}
}

// PendingKycHandler lists KYC submissions awaiting review.
func (h *GinHandlers) PendingKycHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		pending, err := h.kyc.PendingRequests()
		response.Handle(c, pending, err)
	}
}

type reviewKycRequest struct {
	Password string `json:"password" binding:"required"`
	Status   string `json:"status" binding:"required,oneof=verified rejected"`
}

// ReviewKycHandler resolves a pending KYC submission.
func (h *GinHandlers) ReviewKycHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reviewKycRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if !h.authorize(c, req.Password) {
			return
		}

		if err := h.kyc.Review(c.Param("account_id"), req.Status); err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, gin.H{"message": "kyc reviewed"})
	}
}

type updateSettingsRequest struct {
	Password string               `json:"password" binding:"required"`
	Settings types.SystemSettings `json:"settings" binding:"required"`
}

// UpdateSettingsHandler replaces the system settings and tier table.
func (h *GinHandlers) UpdateSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateSettingsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if !h.authorize(c, req.Password) {
			return
		}

		if err := h.settings.Update(req.Settings); err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, gin.H{"message": "settings updated"})
	}
}

// AllTradesHandler lists every settled trade transaction.
func (h *GinHandlers) AllTradesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		trades, err := h.contracts.AllTrades()
		response.Handle(c, trades, err)
	}
}

// AllOrdersHandler lists every deposit and withdrawal across accounts.
func (h *GinHandlers) AllOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := h.funding.AllOrders()
		response.Handle(c, orders, err)
	}
}
