package summary

import (
	"math/rand"
	"testing"

	"finance-client/internal/models"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestTransactions(t *testing.T) {
	tests := []struct {
		name    string
		amounts []float64
		want    TransactionSummary
	}{
		{"empty", nil, TransactionSummary{}},
		{"mixed", []float64{-50, 120}, TransactionSummary{Balance: 70, Income: 120, Expense: 50}},
		{"only expenses", []float64{-10.25, -0.75}, TransactionSummary{Balance: -11, Income: 0, Expense: 11}},
		{"float drift", []float64{0.1, 0.2, -0.3}, TransactionSummary{Balance: 0, Income: 0.3, Expense: 0.3}},
		{"zero counts as nothing", []float64{0, 5}, TransactionSummary{Balance: 5, Income: 5}},
		{"sub-cent amounts round the sum", []float64{0.004, 0.004, 0.004}, TransactionSummary{Balance: 0.01, Income: 0.01}},
		{"sub-cent expenses", []float64{-0.004, -0.004, -0.004}, TransactionSummary{Balance: -0.01, Expense: 0.01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]models.Transaction, 0, len(tt.amounts))
			for _, a := range tt.amounts {
				items = append(items, models.Transaction{Amount: a})
			}
			assert.Equal(t, tt.want, Transactions(items))
		})
	}
}

func TestBalanceIsIncomeMinusExpense(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		items := make([]models.Transaction, rng.Intn(30))
		for j := range items {
			items[j].Amount = float64(rng.Intn(2000000)-1000000) / 100
		}
		s := Transactions(items)
		assert.InDelta(t, s.Income-s.Expense, s.Balance, 0.01)
		assert.GreaterOrEqual(t, s.Expense, 0.0)
	}
}

func TestAvailableFunds(t *testing.T) {
	items := []models.Transaction{{Amount: 1000}, {Amount: -250.5}}
	assert.Equal(t, 749.5, AvailableFunds(items))
	assert.Zero(t, AvailableFunds(nil))
}

func TestProfitLoss(t *testing.T) {
	assert.Equal(t, 150.0, ProfitLoss(models.Investment{TotalCostBasis: ptr(1000), CurrentValue: ptr(1150)}))
	assert.Equal(t, -20.0, ProfitLoss(models.Investment{TotalCostBasis: ptr(100), CurrentValue: ptr(80)}))
	assert.Zero(t, ProfitLoss(models.Investment{TotalCostBasis: ptr(100)}))
	assert.Zero(t, ProfitLoss(models.Investment{CurrentValue: ptr(100)}))

	// The backend's figure is used when the value is not known locally
	assert.Equal(t, 42.0, ProfitLoss(models.Investment{TotalCostBasis: ptr(1000), ProfitLoss: ptr(42)}))
	assert.Equal(t, -7.5, ProfitLoss(models.Investment{ProfitLoss: ptr(-7.5)}))
	assert.Equal(t, 150.0, ProfitLoss(models.Investment{TotalCostBasis: ptr(1000), CurrentValue: ptr(1150), ProfitLoss: ptr(99)}),
		"value and cost win over a stale server figure")
	assert.Equal(t, "+£42.00", FormatSigned("£", ProfitLoss(models.Investment{TotalCostBasis: ptr(1000), ProfitLoss: ptr(42)})))
}

func TestDisplayValue(t *testing.T) {
	assert.Equal(t, 1150.0, DisplayValue(models.Investment{TotalCostBasis: ptr(1000), CurrentValue: ptr(1150)}))
	assert.Equal(t, 1000.0, DisplayValue(models.Investment{TotalCostBasis: ptr(1000)}))
	assert.Zero(t, DisplayValue(models.Investment{}))
}

func TestDisplayPrice(t *testing.T) {
	price, ok := DisplayPrice(models.Investment{PurchasePricePerShare: ptr(10), CurrentPricePerShare: ptr(12)})
	assert.True(t, ok)
	assert.Equal(t, 12.0, price)

	price, ok = DisplayPrice(models.Investment{PurchasePricePerShare: ptr(10)})
	assert.True(t, ok)
	assert.Equal(t, 10.0, price)

	_, ok = DisplayPrice(models.Investment{})
	assert.False(t, ok)
}

func TestPortfolio(t *testing.T) {
	items := []models.Investment{
		{Symbol: "AAPL", TotalCostBasis: ptr(1000), CurrentValue: ptr(1150)},
		{Symbol: "BTC", TotalCostBasis: ptr(500)},
		{Symbol: "NEW"},
	}
	assert.Equal(t, PortfolioSummary{Value: 1650, CostBasis: 1500, ProfitLoss: 150, Count: 3}, Portfolio(items))
	assert.Equal(t, PortfolioSummary{}, Portfolio(nil))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "£150.00", FormatMoney("£", 150))
	assert.Equal(t, "£20.00", FormatMoney("£", -20))
	assert.Equal(t, "$0.10", FormatMoney("$", 0.1))
	assert.Equal(t, "+£150.00", FormatSigned("£", 150))
	assert.Equal(t, "-£20.00", FormatSigned("£", -20))
	assert.Equal(t, "+£0.00", FormatSigned("£", 0))
	assert.Equal(t, "+£0.00", FormatSigned("£", -0.001))

	pl := ProfitLoss(models.Investment{TotalCostBasis: ptr(1000), CurrentValue: ptr(1150)})
	assert.Equal(t, "+£150.00", FormatSigned("£", pl))
}
