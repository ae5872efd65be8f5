package models

// MonthlyBar is one month of the income vs. expense chart.
type MonthlyBar struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Savings float64 `json:"savings"`
}

// CategorySpending is one slice of the spending-by-category chart.
type CategorySpending struct {
	Category   string  `json:"category"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// SavingsRate is one month of the savings rate trend.
type SavingsRate struct {
	Month       string  `json:"month"`
	SavingsRate float64 `json:"savingsRate"`
	Savings     float64 `json:"savings"`
	Income      float64 `json:"income"`
	Expense     float64 `json:"expense"`
}
