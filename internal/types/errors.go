package types

import "errors"

// Domain errors. Validation failures are returned before any mutation;
// pkg/response maps them onto HTTP status codes.
var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrTradeLimitReached   = errors.New("concurrent trade limit reached")
	ErrKycRequired         = errors.New("kyc verification required")
	ErrAuthFailed          = errors.New("incorrect password")
	ErrUnauthorized        = errors.New("admin access required")
	ErrContractNotFound    = errors.New("contract not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidAmount       = errors.New("amount must be a positive number")
	ErrDuplicateEmail      = errors.New("an account with this email already exists")
	ErrTransactionSettled  = errors.New("transaction is not pending")
)
