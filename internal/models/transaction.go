package models

import (
	"errors"
	"math"
	"slices"
	"strings"
)

// Kind is the display tag of a transaction, derived from the sign of its amount.
type Kind string

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

// Categories is the fixed set of transaction categories. The first entry is
// the form default.
var Categories = []string{"Food", "Transportation", "Salary", "Bills", "Healthcare", "Other"}

var (
	ErrEmptyText       = errors.New("transaction text is required")
	ErrInvalidAmount   = errors.New("amount must be a positive number")
	ErrInvalidKind     = errors.New("kind must be expense or income")
	ErrUnknownCategory = errors.New("unknown category")
)

// Transaction represents a ledger entry as returned by the backend.
type Transaction struct {
	ID       int64   `json:"id"`
	Text     string  `json:"text"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	Date     string  `json:"date,omitempty"`
}

// Kind reports whether the transaction is an expense or an income.
func (t Transaction) Kind() Kind {
	if t.Amount < 0 {
		return KindExpense
	}
	return KindIncome
}

// TransactionInput is what the user submits. Amount is a magnitude; the sign
// comes from Kind.
type TransactionInput struct {
	Text     string
	Amount   float64
	Kind     Kind
	Category string
}

// TransactionPayload is the request body for creating a transaction.
type TransactionPayload struct {
	Text     string  `json:"text"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
}

// Validate checks the required fields before anything is sent.
func (in TransactionInput) Validate() error {
	if strings.TrimSpace(in.Text) == "" {
		return ErrEmptyText
	}
	if in.Amount <= 0 || math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
		return ErrInvalidAmount
	}
	if in.Kind != KindExpense && in.Kind != KindIncome {
		return ErrInvalidKind
	}
	if !slices.Contains(Categories, in.Category) {
		return ErrUnknownCategory
	}
	return nil
}

// Payload converts the input to its wire form with a signed amount.
func (in TransactionInput) Payload() TransactionPayload {
	amount := math.Abs(in.Amount)
	if in.Kind == KindExpense {
		amount = -amount
	}
	return TransactionPayload{
		Text:     strings.TrimSpace(in.Text),
		Amount:   amount,
		Category: in.Category,
	}
}
