package contracts

import (
	"github.com/gin-gonic/gin"

	"github.com/fortress-invest/fortress-api/pkg/response"
)

// GinHandlers contains the self-serve contract endpoints.
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

type placeRequest struct {
	Stake      float64 `json:"stake" binding:"required"`
	Direction  string  `json:"direction" binding:"required,oneof=buy sell"`
	Option     Option  `json:"option" binding:"required"`
	EntryPrice float64 `json:"entry_price"`
}

// PlaceContractHandler opens a contract for the authenticated account.
func (h *GinHandlers) PlaceContractHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req placeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		contract, err := h.service.Place(c.GetString("accountID"), req.Stake, req.Direction, req.Option, req.EntryPrice)
		response.Handle(c, contract, err)
	}
}

// ExpireContractHandler handles the self-serve completion a client sends
// when its countdown finishes. The contract must belong to the caller.
func (h *GinHandlers) ExpireContractHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		contractID := c.Param("contract_id")
		if contractID == "" {
			response.BadRequest(c, "contract ID is required")
			return
		}

		contract, err := h.service.GetDB().GetContract(contractID)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		if contract.AccountID != c.GetString("accountID") {
			response.Forbidden(c, "contract belongs to another account")
			return
		}

		if err := h.service.Expire(contractID); err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, gin.H{"message": "contract awaiting settlement"})
	}
}
