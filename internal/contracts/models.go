package contracts

// Option is the tradable contract shape offered to the client: how long
// the position runs and at what payout and commission rates.
type Option struct {
	DurationSeconds int     `json:"duration_seconds" binding:"required"`
	ProfitRate      float64 `json:"profit_rate" binding:"required"`
	CommissionRate  float64 `json:"commission_rate"`
}

// PriceSource supplies the current quote for the traded pair.
type PriceSource interface {
	Pair() string
	Current() float64
}
