package ledger

import (
	"github.com/gin-gonic/gin"

	"github.com/fortress-invest/fortress-api/pkg/response"
)

// GinHandlers contains HTTP handlers for the account view endpoints.
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// GetAccountHandler returns the authenticated account's snapshot.
func (h *GinHandlers) GetAccountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.GetString("accountID")
		if accountID == "" {
			response.Unauthorized(c, "missing account identity")
			return
		}

		snapshot, err := h.service.Snapshot(accountID)
		response.Handle(c, snapshot, err)
	}
}

// MarkNotificationReadHandler marks one notification as read.
func (h *GinHandlers) MarkNotificationReadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.GetString("accountID")
		notificationID := c.Param("notification_id")
		if notificationID == "" {
			response.BadRequest(c, "notification ID is required")
			return
		}

		if err := h.service.MarkNotificationRead(accountID, notificationID); err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, gin.H{"message": "notification marked as read"})
	}
}

// MarkAllNotificationsReadHandler marks every notification as read.
func (h *GinHandlers) MarkAllNotificationsReadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.GetString("accountID")

		if err := h.service.MarkAllNotificationsRead(accountID); err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, gin.H{"message": "all notifications marked as read"})
	}
}
