package types

import (
	"time"

	"gorm.io/gorm"
)

// Transaction kinds
const (
	KindDeposit         = "Deposit"
	KindWithdrawal      = "Withdrawal"
	KindTrade           = "Trade"
	KindAdminAdjustment = "Admin Adjustment"
	KindSignupBonus     = "Signup Bonus"
)

// Transaction statuses
const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
	StatusFailed    = "Failed"
)

// Contract statuses
const (
	ContractActive  = "active"
	ContractExpired = "expired" // past closes_at, awaiting settlement
	ContractWon     = "won"
	ContractLost    = "lost"
)

// KYC statuses
const (
	KycUnverified = "unverified"
	KycPending    = "pending"
	KycVerified   = "verified"
	KycRejected   = "rejected"
)

// TradeLimitUnlimited marks a tier with no concurrent-trade cap.
const TradeLimitUnlimited = -1

type Account struct {
	gorm.Model       `json:"-"`
	AccountID        string    `gorm:"uniqueIndex" json:"account_id"`
	Email            string    `gorm:"uniqueIndex" json:"email"`
	Name             string    `json:"name"`
	PasswordHash     string    `json:"-"`
	FundPasswordHash string    `json:"-"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	TwoFactorSecret  string    `json:"-"`
	IsAdmin          bool      `json:"is_admin"`
	KycStatus        string    `json:"kyc_status"` // unverified, pending, verified, rejected
	VipLevel         int       `json:"vip_level"`
	Balance          float64   `json:"balance"`
	TotalDeposits    float64   `json:"total_deposits"` // derived from completed deposits
	ReferralRewards  float64   `json:"referral_rewards"`
	ReferralCode     string    `gorm:"uniqueIndex" json:"referral_code"`
	FullName         string    `json:"full_name"`
	DateOfBirth      string    `json:"date_of_birth"`
	Country          string    `json:"country"`
	Address          string    `json:"address"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Transaction struct {
	gorm.Model    `json:"-"`
	TransactionID string    `gorm:"uniqueIndex" json:"transaction_id"`
	AccountID     string    `gorm:"index" json:"account_id"`
	Kind          string    `json:"kind"`   // Deposit, Withdrawal, Trade, Admin Adjustment, Signup Bonus
	Status        string    `json:"status"` // Pending, Completed, Failed
	Asset         string    `json:"asset"`
	Amount        float64   `json:"amount"` // for Trade: signed profit/loss
	Network       string    `json:"network,omitempty"`
	Address       string    `json:"address,omitempty"`
	Proof         string    `json:"proof,omitempty"` // opaque attached blob
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Trade settlement fields, set only for Kind == Trade
	Pair                 string     `json:"pair,omitempty"`
	Direction            string     `json:"direction,omitempty"`
	Stake                float64    `json:"stake,omitempty"`
	Commission           float64    `json:"commission,omitempty"`
	Profit               float64    `json:"profit,omitempty"`
	EntryPrice           float64    `json:"entry_price,omitempty"`
	ExitPrice            float64    `json:"exit_price,omitempty"`
	SettlementDuration   int        `json:"settlement_duration,omitempty"`
	ProfitPercentage     float64    `json:"profit_percentage,omitempty"`
	CommissionPercentage float64    `json:"commission_percentage,omitempty"`
	EndTime              *time.Time `json:"end_time,omitempty"`
}

type Contract struct {
	gorm.Model      `json:"-"`
	ContractID      string    `gorm:"uniqueIndex" json:"contract_id"`
	AccountID       string    `gorm:"index" json:"account_id"`
	Pair            string    `json:"pair"`
	Direction       string    `json:"direction"` // buy or sell
	Stake           float64   `json:"stake"`
	DurationSeconds int       `json:"duration_seconds"`
	ProfitRate      float64   `json:"profit_rate"`
	CommissionRate  float64   `json:"commission_rate"`
	EntryPrice      float64   `json:"entry_price"`
	ClosePrice      float64   `json:"close_price,omitempty"` // set on settlement
	Status          string    `json:"status"`                // active, expired, won, lost
	ClosesAt        time.Time `json:"closes_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Terminal reports whether the contract has been settled.
func (c *Contract) Terminal() bool {
	return c.Status == ContractWon || c.Status == ContractLost
}

type Notification struct {
	gorm.Model     `json:"-"`
	NotificationID string    `gorm:"uniqueIndex" json:"notification_id"`
	AccountID      string    `gorm:"index" json:"account_id"`
	Type           string    `json:"type"` // system or transaction
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

// Referral links a referred account to its referrer. One row per
// referred account; the reward is granted at most once.
type Referral struct {
	gorm.Model   `json:"-"`
	ReferrerID   string    `gorm:"index" json:"referrer_id"`
	ReferredID   string    `gorm:"uniqueIndex" json:"referred_id"`
	ReferredName string    `json:"referred_name"`
	Status       string    `json:"status"` // registered or deposited
	Reward       float64   `json:"reward"`
	CreatedAt    time.Time `json:"created_at"`
}

// Referral statuses
const (
	ReferralRegistered = "registered"
	ReferralDeposited  = "deposited"
)

type VipTier struct {
	gorm.Model       `json:"-"`
	Level            int     `gorm:"uniqueIndex" json:"level"`
	DepositThreshold float64 `json:"deposit_threshold"`
	TradeLimit       int     `json:"trade_limit"` // TradeLimitUnlimited for no cap
}

// Settings is the singleton system configuration row.
type Settings struct {
	gorm.Model          `json:"-"`
	DepositAddressTRC20 string `json:"deposit_address_trc20"`
	DepositAddressERC20 string `json:"deposit_address_erc20"`
	DepositAddressBTC   string `json:"deposit_address_btc"`
}

// KycDocument holds the opaque identity document blobs for one account.
type KycDocument struct {
	gorm.Model `json:"-"`
	AccountID  string `gorm:"uniqueIndex" json:"account_id"`
	IDFront    string `json:"id_front"`
	IDBack     string `json:"id_back"`
}

type LoginRecord struct {
	gorm.Model `json:"-"`
	AccountID  string    `gorm:"index" json:"account_id"`
	IPAddress  string    `json:"ip_address"`
	Device     string    `json:"device"`
	CreatedAt  time.Time `json:"created_at"`
}
