package models

import (
	"errors"
	"math"
	"slices"
	"strings"
)

// InvestmentTypes lists the asset classes the backend accepts.
var InvestmentTypes = []string{"Stock", "Crypto", "Mutual Fund", "Real Estate", "Other"}

var (
	ErrEmptySymbol    = errors.New("symbol is required")
	ErrInvalidShares  = errors.New("shares must be greater than zero")
	ErrUnknownInvType = errors.New("unknown investment type")
)

// Investment represents a holding. Price fields are filled in by the backend
// from a live quote and are nil when no quote was available.
type Investment struct {
	ID                    int64    `json:"id"`
	Symbol                string   `json:"symbol"`
	Shares                float64  `json:"shares"`
	Type                  string   `json:"type"`
	TotalCostBasis        *float64 `json:"totalCostBasis,omitempty"`
	PurchasePricePerShare *float64 `json:"purchasePricePerShare,omitempty"`
	CurrentPricePerShare  *float64 `json:"currentPricePerShare,omitempty"`
	CurrentValue          *float64 `json:"currentValue,omitempty"`
	ProfitLoss            *float64 `json:"profitLoss,omitempty"`
	RiskLevel             string   `json:"riskLevel,omitempty"`
	PurchaseDate          string   `json:"purchaseDate,omitempty"`
}

// InvestmentInput is the request body for creating an investment.
type InvestmentInput struct {
	Symbol string  `json:"symbol"`
	Shares float64 `json:"shares"`
	Type   string  `json:"type"`
}

// Validate checks the required fields before anything is sent.
func (in InvestmentInput) Validate() error {
	if strings.TrimSpace(in.Symbol) == "" {
		return ErrEmptySymbol
	}
	if in.Shares <= 0 || math.IsNaN(in.Shares) || math.IsInf(in.Shares, 0) {
		return ErrInvalidShares
	}
	if !slices.Contains(InvestmentTypes, in.Type) {
		return ErrUnknownInvType
	}
	return nil
}

// Payload returns the trimmed wire form of the input.
func (in InvestmentInput) Payload() InvestmentInput {
	in.Symbol = strings.TrimSpace(in.Symbol)
	return in
}
