package referral

import (
	"github.com/gin-gonic/gin"

	"github.com/fortress-invest/fortress-api/pkg/response"
)

// GinHandlers contains HTTP handlers for referral endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// ReferralsHandler lists the authenticated account's referred accounts,
// newest first.
func (h *GinHandlers) ReferralsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := h.service.Referrals(c.GetString("accountID"))
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, gin.H{"referrals": entries})
	}
}
