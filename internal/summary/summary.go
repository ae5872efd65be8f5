// Package summary derives the figures shown next to the transaction and
// investment lists. Everything here is a pure function of its input.
package summary

import (
	"fmt"
	"math"

	"finance-client/internal/models"
)

// TransactionSummary holds the ledger totals. Expense is a positive magnitude.
type TransactionSummary struct {
	Balance float64
	Income  float64
	Expense float64
}

// PortfolioSummary holds the portfolio totals.
type PortfolioSummary struct {
	Value      float64
	CostBasis  float64
	ProfitLoss float64
	Count      int
}

// cents rounds v to whole cents, half away from zero.
func cents(v float64) int64 {
	return int64(math.Round(v * 100))
}

func fromCents(c int64) float64 {
	return float64(c) / 100
}

// Transactions computes balance, income and expense. Each total is the raw
// sum rounded once to cents, so Balance can differ from Income minus Expense
// by at most a cent.
func Transactions(items []models.Transaction) TransactionSummary {
	var balance, income, expense float64
	for _, t := range items {
		balance += t.Amount
		if t.Amount > 0 {
			income += t.Amount
		} else {
			expense -= t.Amount
		}
	}
	return TransactionSummary{
		Balance: fromCents(cents(balance)),
		Income:  fromCents(cents(income)),
		Expense: fromCents(cents(expense)),
	}
}

// AvailableFunds is the money left to invest: the ledger balance.
func AvailableFunds(items []models.Transaction) float64 {
	return Transactions(items).Balance
}

// ProfitLoss is current value minus cost basis. Without both it falls back
// to the backend's own figure, then to 0.
func ProfitLoss(inv models.Investment) float64 {
	switch {
	case inv.CurrentValue != nil && inv.TotalCostBasis != nil:
		return fromCents(cents(*inv.CurrentValue) - cents(*inv.TotalCostBasis))
	case inv.ProfitLoss != nil:
		return fromCents(cents(*inv.ProfitLoss))
	default:
		return 0
	}
}

// DisplayValue falls back from the live value to the cost basis.
func DisplayValue(inv models.Investment) float64 {
	switch {
	case inv.CurrentValue != nil:
		return *inv.CurrentValue
	case inv.TotalCostBasis != nil:
		return *inv.TotalCostBasis
	default:
		return 0
	}
}

// DisplayPrice returns the live price, else the purchase price. ok is false
// when neither is known.
func DisplayPrice(inv models.Investment) (price float64, ok bool) {
	switch {
	case inv.CurrentPricePerShare != nil:
		return *inv.CurrentPricePerShare, true
	case inv.PurchasePricePerShare != nil:
		return *inv.PurchasePricePerShare, true
	default:
		return 0, false
	}
}

// Portfolio totals the display value, cost basis and profit/loss of items.
func Portfolio(items []models.Investment) PortfolioSummary {
	var value, cost, pl int64
	for _, inv := range items {
		value += cents(DisplayValue(inv))
		if inv.TotalCostBasis != nil {
			cost += cents(*inv.TotalCostBasis)
		}
		pl += cents(ProfitLoss(inv))
	}
	return PortfolioSummary{
		Value:      fromCents(value),
		CostBasis:  fromCents(cost),
		ProfitLoss: fromCents(pl),
		Count:      len(items),
	}
}

// FormatMoney renders the magnitude of v with two decimals, e.g. "£150.00".
func FormatMoney(symbol string, v float64) string {
	return fmt.Sprintf("%s%.2f", symbol, math.Abs(fromCents(cents(v))))
}

// FormatSigned prefixes FormatMoney with "+" or "-", e.g. "-£20.00".
func FormatSigned(symbol string, v float64) string {
	if cents(v) < 0 {
		return "-" + FormatMoney(symbol, v)
	}
	return "+" + FormatMoney(symbol, v)
}
