package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fortress-invest/fortress-api/internal/types"
)

// Response represents a standardized API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents an error response
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeDuplicateResource  = "DUPLICATE_RESOURCE"
	ErrCodeInsufficientFunds  = "INSUFFICIENT_FUNDS"
	ErrCodeTradeLimitReached  = "TRADE_LIMIT_REACHED"
	ErrCodeKycRequired        = "KYC_REQUIRED"
	ErrCodeAuthFailed         = "AUTH_FAILED"
	ErrCodeInvalidAmount      = "INVALID_AMOUNT"
	ErrCodeTransactionSettled = "TRANSACTION_NOT_PENDING"
)

// Handle processes the error and returns the appropriate response.
// Domain errors from the ledger engine map onto stable error codes.
func Handle(c *gin.Context, data interface{}, err error) {
	if err == nil {
		Success(c, data)
		return
	}

	switch {
	case errors.Is(err, types.ErrInsufficientFunds):
		unprocessable(c, ErrCodeInsufficientFunds, err.Error())
	case errors.Is(err, types.ErrTradeLimitReached):
		unprocessable(c, ErrCodeTradeLimitReached, err.Error())
	case errors.Is(err, types.ErrKycRequired):
		unprocessable(c, ErrCodeKycRequired, err.Error())
	case errors.Is(err, types.ErrInvalidAmount):
		BadRequest(c, err.Error())
	case errors.Is(err, types.ErrAuthFailed):
		failWith(c, http.StatusUnauthorized, ErrCodeAuthFailed, err.Error())
	case errors.Is(err, types.ErrUnauthorized):
		Forbidden(c, err.Error())
	case errors.Is(err, types.ErrTransactionSettled):
		unprocessable(c, ErrCodeTransactionSettled, err.Error())
	case errors.Is(err, types.ErrAccountNotFound),
		errors.Is(err, types.ErrContractNotFound),
		errors.Is(err, types.ErrTransactionNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, types.ErrDuplicateEmail),
		errors.Is(err, gorm.ErrDuplicatedKey):
		Conflict(c, err.Error())
	default:
		InternalError(c, "An unexpected error occurred")
	}
}

// Success sends a successful response
func Success(c *gin.Context, data interface{}) {
	status := http.StatusOK
	if c.Request.Method == "POST" {
		status = http.StatusCreated
	}

	c.JSON(status, Response{
		Success: true,
		Data:    data,
	})
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	failWith(c, http.StatusNotFound, ErrCodeNotFound, message)
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	failWith(c, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	failWith(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	failWith(c, http.StatusForbidden, ErrCodeForbidden, message)
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	failWith(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// Conflict sends a 409 response
func Conflict(c *gin.Context, message string) {
	failWith(c, http.StatusConflict, ErrCodeDuplicateResource, message)
}

func unprocessable(c *gin.Context, code, message string) {
	failWith(c, http.StatusUnprocessableEntity, code, message)
}

func failWith(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	})
}
