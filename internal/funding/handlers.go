package funding

import (
	"github.com/gin-gonic/gin"

	"github.com/fortress-invest/fortress-api/pkg/response"
)

// GinHandlers contains the self-serve funding endpoints.
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

type depositRequest struct {
	Amount  float64 `json:"amount" binding:"required"`
	Network string  `json:"network" binding:"required"`
	Asset   string  `json:"asset" binding:"required"`
	Proof   string  `json:"proof"`
}

// RequestDepositHandler creates a pending deposit for review.
func (h *GinHandlers) RequestDepositHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req depositRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		tx, err := h.service.RequestDeposit(c.GetString("accountID"), req.Amount, req.Network, req.Asset, req.Proof)
		response.Handle(c, tx, err)
	}
}

type withdrawalRequest struct {
	Amount   float64 `json:"amount" binding:"required"`
	Address  string  `json:"address" binding:"required"`
	Asset    string  `json:"asset" binding:"required"`
	Password string  `json:"password" binding:"required"`
}

// RequestWithdrawalHandler creates a pending withdrawal for review.
// Requires a KYC-verified account and the login password.
func (h *GinHandlers) RequestWithdrawalHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req withdrawalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		tx, err := h.service.RequestWithdrawal(c.GetString("accountID"), req.Amount, req.Address, req.Asset, req.Password)
		response.Handle(c, tx, err)
	}
}
