package handlers

import (
	"net/http"

	"finance-client/internal/models"
	"finance-client/internal/summary"
)

// ChartMonthItem is one month of the income vs. expense bars.
type ChartMonthItem struct {
	models.MonthlyBar
	IncomeText  string
	ExpenseText string
	NetText     string
	IncomePct   float64
	ExpensePct  float64
	Positive    bool
}

// ChartCategoryItem represents a category with its share of spending.
type ChartCategoryItem struct {
	models.CategorySpending
	AmountText    string
	CategoryStyle CategoryStyle
}

// ChartSavingsItem is one month of the savings rate trend.
type ChartSavingsItem struct {
	Month       string
	Rate        float64
	SavingsText string
}

// ChartsViewModel is the data passed to the charts template.
type ChartsViewModel struct {
	Page
	Loading    bool
	Error      string
	Months     []ChartMonthItem
	Categories []ChartCategoryItem
	Savings    []ChartSavingsItem
}

// Charts loads every chart series and renders the panel.
func (h *Handlers) Charts(w http.ResponseWriter, r *http.Request) {
	if err := h.hooks.Charts.Load(r.Context()); err != nil {
		h.log.WithError(err).Debug("Charts load failed")
	}
	state := h.hooks.Charts.State()

	months := make([]ChartMonthItem, 0, len(state.Data.Monthly))
	for _, m := range state.Data.Monthly {
		item := ChartMonthItem{
			MonthlyBar:  m,
			IncomeText:  summary.FormatMoney(h.currency, m.Income),
			ExpenseText: summary.FormatMoney(h.currency, m.Expense),
			NetText:     summary.FormatSigned(h.currency, m.Savings),
			Positive:    m.Savings >= 0,
		}
		// Bar widths are shares of the month's total flow
		if flow := m.Income + m.Expense; flow > 0 {
			item.IncomePct = m.Income / flow * 100
			item.ExpensePct = m.Expense / flow * 100
		}
		months = append(months, item)
	}

	categories := make([]ChartCategoryItem, 0, len(state.Data.Categories))
	for _, c := range state.Data.Categories {
		categories = append(categories, ChartCategoryItem{
			CategorySpending: c,
			AmountText:       summary.FormatMoney(h.currency, c.Amount),
			CategoryStyle:    getCategoryStyle(c.Category),
		})
	}

	savings := make([]ChartSavingsItem, 0, len(state.Data.Savings))
	for _, s := range state.Data.Savings {
		savings = append(savings, ChartSavingsItem{
			Month:       s.Month,
			Rate:        s.SavingsRate,
			SavingsText: summary.FormatSigned(h.currency, s.Savings),
		})
	}

	h.render(w, r, http.StatusOK, "charts.html", ChartsViewModel{
		Page:       h.page(r, "Charts"),
		Loading:    state.Loading,
		Error:      state.Err,
		Months:     months,
		Categories: categories,
		Savings:    savings,
	})
}
