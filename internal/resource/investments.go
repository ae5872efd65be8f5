package resource

import (
	"context"
	"errors"
	"fmt"

	"finance-client/internal/api"
	"finance-client/internal/models"
	"finance-client/internal/summary"

	"github.com/sirupsen/logrus"
)

// InvestmentAPI is the gateway surface the investments hook uses.
type InvestmentAPI interface {
	ListInvestments(ctx context.Context) ([]models.Investment, error)
	CreateInvestment(ctx context.Context, in models.InvestmentInput) (models.Investment, error)
	RefreshInvestments(ctx context.Context) ([]models.Investment, error)
	RefreshInvestment(ctx context.Context, id int64) (models.Investment, error)
	InvestmentRisk(ctx context.Context, id int64) (string, error)
	PortfolioSummary(ctx context.Context) (map[string]float64, error)
	RefreshAllocation(ctx context.Context) (map[string]float64, error)
}

const refreshFailed = "Failed to refresh investment. It may no longer exist."

var investmentMessages = Messages{
	Unauthenticated: unauthenticated,
	AccessDenied:    "Access denied. Please login again.",
	FetchFailed:     "Failed to load investment portfolio. Check backend server and CORS.",
	AddFailed: func(err error) string {
		if msg := api.ServerMessage(err); msg != "" {
			return "Failed to log investment: " + msg
		}
		return "Failed to log investment: " + err.Error()
	},
}

// Investments is the portfolio hook. It reads the ledger to know how much
// money is available but never changes it.
type Investments struct {
	*Hook[models.Investment, models.InvestmentInput]
	gw    InvestmentAPI
	funds Reader[models.Transaction]
}

// NewInvestments creates the investments hook. funds may be nil, in which
// case AvailableFunds is always 0.
func NewInvestments(gw InvestmentAPI, session Session, funds Reader[models.Transaction], logger *logrus.Logger) *Investments {
	create := func(ctx context.Context, in models.InvestmentInput) (models.Investment, error) {
		return gw.CreateInvestment(ctx, in.Payload())
	}
	validate := func(in models.InvestmentInput) error { return in.Validate() }

	return &Investments{
		Hook:  newHook("investments", session, investmentMessages, gw.ListInvestments, create, validate, logger),
		gw:    gw,
		funds: funds,
	}
}

// RefreshAll has the backend re-quote every holding and replaces the items
// with the result, following the same rules as FetchAll.
func (h *Investments) RefreshAll(ctx context.Context) error {
	return h.fetch(ctx, h.gw.RefreshInvestments)
}

// Summary returns the backend's portfolio totals. It does not touch the state.
func (h *Investments) Summary(ctx context.Context) (map[string]float64, error) {
	totals, err := h.gw.PortfolioSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("investments summary: %w", err)
	}
	return totals, nil
}

// Refresh re-quotes one holding and swaps it into the items. The other
// holdings are untouched. On failure Err is set and the items are kept.
func (h *Investments) Refresh(ctx context.Context, id int64) error {
	var (
		inv models.Investment
		err error
	)
	if h.session.Token() == "" {
		err = api.ErrUnauthenticated
	} else {
		inv, err = h.gw.RefreshInvestment(ctx, id)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.state.Err = refreshFailed
		if errors.Is(err, api.ErrUnauthenticated) || errors.Is(err, api.ErrAccessDenied) {
			h.state.Err = h.msgs.fetchError(err)
		}
		h.log.WithError(err).WithField("investment_id", id).Warn("Refresh failed")
		return err
	}
	h.state.Err = ""
	for i := range h.state.Items {
		if h.state.Items[i].ID == inv.ID {
			h.state.Items[i] = inv
		}
	}
	return nil
}

// Risk returns the backend's risk level for one holding and records it on
// the matching item. It leaves Err alone.
func (h *Investments) Risk(ctx context.Context, id int64) (string, error) {
	if h.session.Token() == "" {
		return "", api.ErrUnauthenticated
	}
	level, err := h.gw.InvestmentRisk(ctx, id)
	if err != nil {
		return "", fmt.Errorf("investments risk: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.state.Items {
		if h.state.Items[i].ID == id {
			h.state.Items[i].RiskLevel = level
		}
	}
	return level, nil
}

// Allocation forces a re-quote and returns current value per symbol.
func (h *Investments) Allocation(ctx context.Context) (map[string]float64, error) {
	allocation, err := h.gw.RefreshAllocation(ctx)
	if err != nil {
		return nil, fmt.Errorf("investments allocation: %w", err)
	}
	return allocation, nil
}

// AvailableFunds is the current ledger balance.
func (h *Investments) AvailableFunds() float64 {
	if h.funds == nil {
		return 0
	}
	return summary.AvailableFunds(h.funds.State().Items)
}
