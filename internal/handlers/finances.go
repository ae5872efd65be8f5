package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"finance-client/internal/models"
	"finance-client/internal/resource"
	"finance-client/internal/summary"
)

// CategoryStyle defines the visual style for a category.
type CategoryStyle struct {
	Icon  string
	Color string
}

var categoryStyles = map[string]CategoryStyle{
	"food":           {"🍽️", "#60a5fa"},
	"transportation": {"🚌", "#a78bfa"},
	"salary":         {"💰", "#90ee90"},
	"bills":          {"💡", "#fbbf24"},
	"healthcare":     {"🩺", "#f472b6"},
	"other":          {"📦", "#94a3b8"},
}

func getCategoryStyle(category string) CategoryStyle {
	if style, ok := categoryStyles[strings.ToLower(category)]; ok {
		return style
	}
	return categoryStyles["other"]
}

// TransactionItem represents a transaction in the log.
type TransactionItem struct {
	models.Transaction
	Display       string
	IsIncome      bool
	CategoryStyle CategoryStyle
}

// TransactionForm echoes the submitted form back after a rejection.
type TransactionForm struct {
	Text     string
	Amount   string
	Kind     models.Kind
	Category string
}

// FinancesViewModel is the data passed to the finances template.
type FinancesViewModel struct {
	Page
	Loading    bool
	Error      string
	Alert      string
	Balance    string
	Income     string
	Expense    string
	Items      []TransactionItem
	Categories []string
	Form       TransactionForm
}

func defaultTransactionForm() TransactionForm {
	return TransactionForm{Kind: models.KindExpense, Category: models.Categories[0]}
}

// Finances fetches the ledger and renders it with its totals.
func (h *Handlers) Finances(w http.ResponseWriter, r *http.Request) {
	if err := h.hooks.Transactions.FetchAll(r.Context()); err != nil {
		h.log.WithError(err).Debug("Transactions fetch failed")
	}
	h.renderFinances(w, r, http.StatusOK, defaultTransactionForm(), "")
}

// AddTransaction handles the new transaction form.
func (h *Handlers) AddTransaction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	form := TransactionForm{
		Text:     r.FormValue("text"),
		Amount:   r.FormValue("amount"),
		Kind:     models.Kind(r.FormValue("type")),
		Category: r.FormValue("category"),
	}
	amount, _ := strconv.ParseFloat(strings.TrimSpace(form.Amount), 64)

	_, err := h.hooks.Transactions.Add(r.Context(), models.TransactionInput{
		Text:     form.Text,
		Amount:   amount,
		Kind:     form.Kind,
		Category: form.Category,
	})

	var verr *resource.ValidationError
	switch {
	case errors.As(err, &verr):
		h.renderFinances(w, r, http.StatusUnprocessableEntity, form, transactionAlert(verr))
	case err != nil:
		// The hook carries the message; the panel shows it.
		h.renderFinances(w, r, http.StatusOK, form, "")
	default:
		h.renderFinances(w, r, http.StatusOK, defaultTransactionForm(), "")
	}
}

// formatBalance shows a minus sign for a negative balance and no sign otherwise.
func formatBalance(symbol string, v float64) string {
	if v < 0 {
		return summary.FormatSigned(symbol, v)
	}
	return summary.FormatMoney(symbol, v)
}

func transactionAlert(err error) string {
	if errors.Is(err, models.ErrEmptyText) || errors.Is(err, models.ErrInvalidAmount) {
		return "Please enter both text and a positive amount."
	}
	return "Please check the transaction: " + err.Error() + "."
}

func (h *Handlers) renderFinances(w http.ResponseWriter, r *http.Request, status int, form TransactionForm, alert string) {
	state := h.hooks.Transactions.State()
	totals := summary.Transactions(state.Items)

	items := make([]TransactionItem, 0, len(state.Items))
	for _, t := range state.Items {
		items = append(items, TransactionItem{
			Transaction:   t,
			Display:       summary.FormatSigned(h.currency, t.Amount),
			IsIncome:      t.Kind() == models.KindIncome,
			CategoryStyle: getCategoryStyle(t.Category),
		})
	}

	h.render(w, r, status, "finances.html", FinancesViewModel{
		Page:       h.page(r, "Finances"),
		Loading:    state.Loading,
		Error:      state.Err,
		Alert:      alert,
		Balance:    formatBalance(h.currency, totals.Balance),
		Income:     summary.FormatMoney(h.currency, totals.Income),
		Expense:    summary.FormatMoney(h.currency, totals.Expense),
		Items:      items,
		Categories: models.Categories,
		Form:       form,
	})
}
