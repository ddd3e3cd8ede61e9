package types

// AccountSnapshot is the derived view state returned to the caller after
// account-mutating operations: balance, history, notifications, and the
// contract books, newest first.
type AccountSnapshot struct {
	Account         Account        `json:"account"`
	Transactions    []Transaction  `json:"transactions"`
	Notifications   []Notification `json:"notifications"`
	ActiveContracts []Contract     `json:"active_contracts"`
	ContractHistory []Contract     `json:"contract_history"`
}

// PendingFunding pairs a pending deposit or withdrawal with its owner
// for the back-office review queues.
type PendingFunding struct {
	AccountID   string      `json:"account_id"`
	AccountName string      `json:"account_name"`
	Email       string      `json:"email"`
	Transaction Transaction `json:"transaction"`
}

// KycRequest pairs a pending KYC submission with its documents.
type KycRequest struct {
	Account   Account     `json:"account"`
	Documents KycDocument `json:"documents"`
}

// SystemSettings is the admin-editable global configuration: deposit
// wallet addresses plus the VIP tier table.
type SystemSettings struct {
	DepositAddressTRC20 string    `json:"deposit_address_trc20"`
	DepositAddressERC20 string    `json:"deposit_address_erc20"`
	DepositAddressBTC   string    `json:"deposit_address_btc"`
	VipTiers            []VipTier `json:"vip_tiers"`
}
