package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"finance-client/internal/models"
)

// LoginResult is what a successful login yields.
type LoginResult struct {
	Token string
	// Username is the normalized name the backend authenticated.
	Username string
	Message  string
}

// NormalizeUsername lowercases and trims, the form the backend stores.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Login exchanges credentials for a token. It does not touch the session.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = NormalizeUsername(username)
	req := map[string]string{"username": username, "password": password}

	var resp struct {
		Token   string `json:"token"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", false, req, &resp); err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}
	if resp.Token == "" {
		return LoginResult{}, errors.New("login: response carried no token")
	}
	return LoginResult{Token: resp.Token, Username: username, Message: resp.Message}, nil
}

// Register creates an account and returns the backend's confirmation text.
func (c *Client) Register(ctx context.Context, username, email, password string) (string, error) {
	req := map[string]string{"username": username, "email": email, "password": password}
	body, err := c.send(ctx, http.MethodPost, "/auth/register", "", req)
	if err != nil {
		return "", fmt.Errorf("register: %w", err)
	}
	if msg := serverMessage(body); msg != "" {
		return msg, nil
	}
	return "User registered successfully", nil
}

// ListTransactions returns all transactions in server order.
func (c *Client) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	items := []models.Transaction{}
	if err := c.do(ctx, http.MethodGet, "/api/transactions", true, nil, &items); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return nonNil(items), nil
}

// CreateTransaction stores a transaction and returns it as the server saved it.
func (c *Client) CreateTransaction(ctx context.Context, p models.TransactionPayload) (models.Transaction, error) {
	var created models.Transaction
	if err := c.do(ctx, http.MethodPost, "/api/transactions", true, p, &created); err != nil {
		return models.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return created, nil
}

// ListInvestments returns the portfolio with live prices filled in.
func (c *Client) ListInvestments(ctx context.Context) ([]models.Investment, error) {
	items := []models.Investment{}
	if err := c.do(ctx, http.MethodGet, "/api/investments", true, nil, &items); err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	return nonNil(items), nil
}

// CreateInvestment logs a purchase; the backend prices it.
func (c *Client) CreateInvestment(ctx context.Context, in models.InvestmentInput) (models.Investment, error) {
	var created models.Investment
	if err := c.do(ctx, http.MethodPost, "/api/investments", true, in, &created); err != nil {
		return models.Investment{}, fmt.Errorf("create investment: %w", err)
	}
	return created, nil
}

// RefreshInvestments asks the backend to re-quote every holding.
func (c *Client) RefreshInvestments(ctx context.Context) ([]models.Investment, error) {
	items := []models.Investment{}
	if err := c.do(ctx, http.MethodPut, "/api/investments/refresh-all", true, nil, &items); err != nil {
		return nil, fmt.Errorf("refresh investments: %w", err)
	}
	return nonNil(items), nil
}

// PortfolioSummary returns the backend's allocation totals keyed by name.
func (c *Client) PortfolioSummary(ctx context.Context) (map[string]float64, error) {
	summary := map[string]float64{}
	if err := c.do(ctx, http.MethodGet, "/api/investments/summary", true, nil, &summary); err != nil {
		return nil, fmt.Errorf("portfolio summary: %w", err)
	}
	return summary, nil
}

// RefreshInvestment re-quotes one holding.
func (c *Client) RefreshInvestment(ctx context.Context, id int64) (models.Investment, error) {
	var inv models.Investment
	path := fmt.Sprintf("/api/investments/%d/refresh", id)
	if err := c.do(ctx, http.MethodPut, path, true, nil, &inv); err != nil {
		return models.Investment{}, fmt.Errorf("refresh investment %d: %w", id, err)
	}
	return inv, nil
}

// InvestmentRisk returns the backend's risk classification for one holding.
func (c *Client) InvestmentRisk(ctx context.Context, id int64) (string, error) {
	var resp struct {
		RiskLevel string `json:"riskLevel"`
	}
	path := fmt.Sprintf("/api/investments/%d/risk", id)
	if err := c.do(ctx, http.MethodGet, path, true, nil, &resp); err != nil {
		return "", fmt.Errorf("investment %d risk: %w", id, err)
	}
	return resp.RiskLevel, nil
}

// RefreshAllocation forces a re-quote and returns current value per symbol.
func (c *Client) RefreshAllocation(ctx context.Context) (map[string]float64, error) {
	allocation := map[string]float64{}
	if err := c.do(ctx, http.MethodGet, "/api/investments/allocation-summary/refresh", true, nil, &allocation); err != nil {
		return nil, fmt.Errorf("refresh allocation: %w", err)
	}
	return allocation, nil
}

// MonthlyBar returns income vs. expense per month.
func (c *Client) MonthlyBar(ctx context.Context) ([]models.MonthlyBar, error) {
	rows := []models.MonthlyBar{}
	if err := c.do(ctx, http.MethodGet, "/api/charts/monthly-bar", true, nil, &rows); err != nil {
		return nil, fmt.Errorf("monthly bar chart: %w", err)
	}
	return nonNil(rows), nil
}

// CategorySpending returns spending per category with percentages.
func (c *Client) CategorySpending(ctx context.Context) ([]models.CategorySpending, error) {
	rows := []models.CategorySpending{}
	if err := c.do(ctx, http.MethodGet, "/api/charts/category-spending", true, nil, &rows); err != nil {
		return nil, fmt.Errorf("category spending chart: %w", err)
	}
	return nonNil(rows), nil
}

// SavingsRate returns the monthly savings rate trend.
func (c *Client) SavingsRate(ctx context.Context) ([]models.SavingsRate, error) {
	rows := []models.SavingsRate{}
	if err := c.do(ctx, http.MethodGet, "/api/charts/savings-rate", true, nil, &rows); err != nil {
		return nil, fmt.Errorf("savings rate chart: %w", err)
	}
	return nonNil(rows), nil
}

// Points returns the gamification points earned from the ledger.
func (c *Client) Points(ctx context.Context) (int, error) {
	var resp struct {
		Points int `json:"points"`
	}
	if err := c.do(ctx, http.MethodGet, "/gamification/points", true, nil, &resp); err != nil {
		return 0, fmt.Errorf("points: %w", err)
	}
	return resp.Points, nil
}

// Achievements returns every achievement, locked or not.
func (c *Client) Achievements(ctx context.Context) ([]models.Achievement, error) {
	items := []models.Achievement{}
	if err := c.do(ctx, http.MethodGet, "/gamification/achievements", true, nil, &items); err != nil {
		return nil, fmt.Errorf("achievements: %w", err)
	}
	return nonNil(items), nil
}

// Progress returns the current level and the points left to the next one.
func (c *Client) Progress(ctx context.Context) (models.Progress, error) {
	var p models.Progress
	if err := c.do(ctx, http.MethodGet, "/gamification/progress", true, nil, &p); err != nil {
		return models.Progress{}, fmt.Errorf("progress: %w", err)
	}
	return p, nil
}

// nonNil turns a JSON null into an empty list.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
