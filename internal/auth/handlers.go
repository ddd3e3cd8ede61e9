package auth

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/fortress-invest/fortress-api/pkg/response"
)

// GinHandlers contains HTTP handlers for authentication endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

type signupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	SignupDetails
}

// SignupHandler handles POST requests to register a new account.
func (h *GinHandlers) SignupHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		account, token, err := h.service.Signup(req.Name, req.Email, req.Password, req.SignupDetails)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		response.Success(c, gin.H{"account": account, "token": token})
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginHandler handles POST requests to authenticate an account.
func (h *GinHandlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		account, token, err := h.service.Login(req.Email, req.Password, c.ClientIP(), c.Request.UserAgent())
		if errors.Is(err, ErrInvalidCredentials) {
			response.Unauthorized(c, err.Error())
			return
		}
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		response.Success(c, gin.H{"account": account, "token": token})
	}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangePasswordHandler rotates the authenticated account's password.
func (h *GinHandlers) ChangePasswordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req changePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		err := h.service.ChangePassword(c.GetString("accountID"), req.CurrentPassword, req.NewPassword)
		if errors.Is(err, ErrWeakPassword) {
			response.BadRequest(c, err.Error())
			return
		}
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, gin.H{"message": "password updated"})
	}
}

type setFundPasswordRequest struct {
	LoginPassword string `json:"login_password" binding:"required"`
	FundPassword  string `json:"fund_password" binding:"required"`
}

// SetFundPasswordHandler sets the authenticated account's fund password.
func (h *GinHandlers) SetFundPasswordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req setFundPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		err := h.service.SetFundPassword(c.GetString("accountID"), req.LoginPassword, req.FundPassword)
		if errors.Is(err, ErrWeakFundPassword) {
			response.BadRequest(c, err.Error())
			return
		}
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, gin.H{"message": "fund password set"})
	}
}

type toggle2FARequest struct {
	LoginPassword string `json:"login_password" binding:"required"`
	Code          string `json:"code"`
}

// Toggle2FAHandler flips the authenticated account's two-factor
// setting. The code field is only consulted when enabling.
func (h *GinHandlers) Toggle2FAHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req toggle2FARequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		account, err := h.service.Toggle2FA(c.GetString("accountID"), req.LoginPassword, req.Code)
		if errors.Is(err, ErrInvalidAuthCode) {
			response.BadRequest(c, err.Error())
			return
		}
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, gin.H{"account": account})
	}
}
