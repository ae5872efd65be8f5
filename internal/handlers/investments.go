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

// InvestmentItem represents a holding in the portfolio list.
type InvestmentItem struct {
	models.Investment
	ProfitLoss string
	IsGain     bool
	Value      string
	Cost       string
	Price      string
}

// InvestmentForm echoes the submitted form back after a rejection.
type InvestmentForm struct {
	Symbol string
	Shares string
	Type   string
}

// InvestmentsViewModel is the data passed to the investments template.
type InvestmentsViewModel struct {
	Page
	Loading         bool
	Error           string
	Alert           string
	Notice          string
	AvailableFunds  string
	TotalValue      string
	TotalProfitLoss string
	Count           int
	Items           []InvestmentItem
	Types           []string
	Form            InvestmentForm
}

func defaultInvestmentForm() InvestmentForm {
	return InvestmentForm{Type: models.InvestmentTypes[0]}
}

// Investments fetches the portfolio and the ledger it is funded from.
func (h *Handlers) Investments(w http.ResponseWriter, r *http.Request) {
	if err := h.hooks.Investments.FetchAll(r.Context()); err != nil {
		h.log.WithError(err).Debug("Investments fetch failed")
	}
	if err := h.hooks.Transactions.FetchAll(r.Context()); err != nil {
		h.log.WithError(err).Debug("Transactions fetch failed")
	}
	h.renderInvestments(w, r, http.StatusOK, defaultInvestmentForm(), "", "")
}

// AddInvestment handles the new investment form. The backend prices it.
func (h *Handlers) AddInvestment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	form := InvestmentForm{
		Symbol: r.FormValue("symbol"),
		Shares: r.FormValue("shares"),
		Type:   r.FormValue("type"),
	}
	shares, _ := strconv.ParseFloat(strings.TrimSpace(form.Shares), 64)

	_, err := h.hooks.Investments.Add(r.Context(), models.InvestmentInput{
		Symbol: form.Symbol,
		Shares: shares,
		Type:   form.Type,
	})

	var verr *resource.ValidationError
	switch {
	case errors.As(err, &verr):
		h.renderInvestments(w, r, http.StatusUnprocessableEntity, form, investmentAlert(verr), "")
	case err != nil:
		h.renderInvestments(w, r, http.StatusOK, form, "", "")
	default:
		h.renderInvestments(w, r, http.StatusOK, defaultInvestmentForm(), "", "Investment added successfully at live market price!")
	}
}

// RefreshInvestments re-quotes every holding.
func (h *Handlers) RefreshInvestments(w http.ResponseWriter, r *http.Request) {
	notice := ""
	if err := h.hooks.Investments.RefreshAll(r.Context()); err == nil {
		notice = "Prices refreshed."
	}
	h.renderInvestments(w, r, http.StatusOK, defaultInvestmentForm(), "", notice)
}

// RefreshHolding re-quotes a single holding.
func (h *Handlers) RefreshHolding(w http.ResponseWriter, r *http.Request) {
	id, ok := investmentID(w, r)
	if !ok {
		return
	}
	notice := ""
	if err := h.hooks.Investments.Refresh(r.Context(), id); err != nil {
		h.log.WithError(err).WithField("investment_id", id).Debug("Holding refresh failed")
	} else {
		notice = "Price refreshed."
	}
	h.renderInvestments(w, r, http.StatusOK, defaultInvestmentForm(), "", notice)
}

// AssessRisk asks the backend for a holding's risk level.
func (h *Handlers) AssessRisk(w http.ResponseWriter, r *http.Request) {
	id, ok := investmentID(w, r)
	if !ok {
		return
	}
	alert, notice := "", ""
	if level, err := h.hooks.Investments.Risk(r.Context(), id); err != nil {
		h.log.WithError(err).WithField("investment_id", id).Debug("Risk assessment failed")
		alert = "Could not assess risk for this investment."
	} else {
		notice = "Risk level: " + level + "."
	}
	h.renderInvestments(w, r, http.StatusOK, defaultInvestmentForm(), alert, notice)
}

func investmentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid investment id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func investmentAlert(err error) string {
	if errors.Is(err, models.ErrEmptySymbol) || errors.Is(err, models.ErrInvalidShares) {
		return "Please enter a stock symbol and number of shares."
	}
	return "Please check the investment: " + err.Error() + "."
}

func (h *Handlers) renderInvestments(w http.ResponseWriter, r *http.Request, status int, form InvestmentForm, alert, notice string) {
	state := h.hooks.Investments.State()
	totals := summary.Portfolio(state.Items)

	items := make([]InvestmentItem, 0, len(state.Items))
	for _, inv := range state.Items {
		pl := summary.ProfitLoss(inv)
		item := InvestmentItem{
			Investment: inv,
			ProfitLoss: summary.FormatSigned(h.currency, pl),
			IsGain:     pl >= 0,
			Value:      summary.FormatMoney(h.currency, summary.DisplayValue(inv)),
			Cost:       summary.FormatMoney(h.currency, 0),
			Price:      "N/A",
		}
		if inv.TotalCostBasis != nil {
			item.Cost = summary.FormatMoney(h.currency, *inv.TotalCostBasis)
		}
		if price, ok := summary.DisplayPrice(inv); ok {
			item.Price = summary.FormatMoney(h.currency, price)
		}
		items = append(items, item)
	}

	h.render(w, r, status, "investments.html", InvestmentsViewModel{
		Page:            h.page(r, "Investments"),
		Loading:         state.Loading,
		Error:           state.Err,
		Alert:           alert,
		Notice:          notice,
		AvailableFunds:  formatBalance(h.currency, h.hooks.Investments.AvailableFunds()),
		TotalValue:      summary.FormatMoney(h.currency, totals.Value),
		TotalProfitLoss: summary.FormatSigned(h.currency, totals.ProfitLoss),
		Count:           totals.Count,
		Items:           items,
		Types:           models.InvestmentTypes,
		Form:            form,
	})
}
