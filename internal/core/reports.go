package core

// Report DTO shapes consumed by the API layer. Amounts are exact whole
// currency units summed before any display formatting.

// OverviewReport sums mandatory fees active in a window.
type OverviewReport struct {
	TotalRequired  Money   `json:"total_required"`
	TotalCollected Money   `json:"total_collected"`
	TotalDebt      Money   `json:"total_debt"`
	CompletionRate float64 `json:"completion_rate"`
}

// FeeTypeReport breaks collection down for one mandatory fee.
// TotalHouseholds counts only households with a nonzero obligation.
type FeeTypeReport struct {
	FeeID           int64   `json:"fee_id"`
	Name            string  `json:"name"`
	PaidHouseholds  int     `json:"paid_households"`
	TotalHouseholds int     `json:"total_households"`
	TotalCollected  Money   `json:"total_collected"`
	CompletionRate  float64 `json:"completion_rate"`
}

// MonthlyAmounts is one bucket of the yearly trend, keyed by payment month.
type MonthlyAmounts struct {
	Month        int   `json:"month"`
	FixedFee     Money `json:"fixed_fee"`
	VoluntaryFee Money `json:"voluntary_fee"`
}

// HouseholdStatusReport counts households per standing within a window.
type HouseholdStatusReport struct {
	Completed  int `json:"completed"`
	Incomplete int `json:"incomplete"`
	NotPaid    int `json:"not_paid"`
}

// AmountComparison compares a collected total against the preceding period.
// Change is nil when the previous baseline is zero.
type AmountComparison struct {
	Current  Money    `json:"current"`
	Previous Money    `json:"previous"`
	Change   *float64 `json:"change"`
}

// RateComparison compares completion rates across periods.
type RateComparison struct {
	Current  float64  `json:"current"`
	Previous float64  `json:"previous"`
	Change   *float64 `json:"change"`
}

// ComparisonReport pairs the current period with the one before it.
type ComparisonReport struct {
	TotalCollected AmountComparison `json:"total_collected"`
	CompletionRate RateComparison   `json:"completion_rate"`
}
