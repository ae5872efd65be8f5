// Package apitest runs an in-process fake of the finance backend for tests
// and local development. Users are bcrypt-hashed and tokens are HS256 JWTs,
// so the client sees the same auth behavior as the real service.
package apitest

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"finance-client/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Routes, as "METHOD path", for Hits, Fail and Hold.
const (
	RouteLogin              = "POST /auth/login"
	RouteRegister           = "POST /auth/register"
	RouteListTransactions   = "GET /api/transactions"
	RouteCreateTransaction  = "POST /api/transactions"
	RouteListInvestments    = "GET /api/investments"
	RouteCreateInvestment   = "POST /api/investments"
	RouteRefreshInvestments = "PUT /api/investments/refresh-all"
	RoutePortfolioSummary   = "GET /api/investments/summary"
	RouteMonthlyBar         = "GET /api/charts/monthly-bar"
	RouteCategorySpending   = "GET /api/charts/category-spending"
	RouteSavingsRate        = "GET /api/charts/savings-rate"
	RouteRefreshInvestment  = "PUT /api/investments/{id}/refresh"
	RouteInvestmentRisk     = "GET /api/investments/{id}/risk"
	RouteRefreshAllocation  = "GET /api/investments/allocation-summary/refresh"
	RoutePoints             = "GET /gamification/points"
	RouteAchievements       = "GET /gamification/achievements"
	RouteProgress           = "GET /gamification/progress"
)

type user struct {
	email        string
	passwordHash string
}

type failure struct {
	status int
	body   string
}

// Server is a fake finance backend.
type Server struct {
	*httptest.Server

	secret   []byte
	tokenTTL time.Duration

	mu           sync.Mutex
	users        map[string]user
	transactions []models.Transaction
	investments  []models.Investment
	quotes       map[string]float64
	risks        map[string]string
	nextID       int64
	hits         map[string]int
	failures     map[string]failure
	holds        map[string][]chan struct{}
	wrapData     bool
	now          func() time.Time
}

// New starts a fake backend. Close it when done.
func New() *Server {
	s := &Server{
		secret:   []byte("apitest-secret"),
		tokenTTL: time.Hour,
		users:    make(map[string]user),
		quotes:   make(map[string]float64),
		risks:    make(map[string]string),
		hits:     make(map[string]int),
		failures: make(map[string]failure),
		holds:    make(map[string][]chan struct{}),
		now:      time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(RouteLogin, s.track(RouteLogin, s.login))
	mux.HandleFunc(RouteRegister, s.track(RouteRegister, s.register))
	mux.HandleFunc(RouteListTransactions, s.track(RouteListTransactions, s.protected(s.listTransactions)))
	mux.HandleFunc(RouteCreateTransaction, s.track(RouteCreateTransaction, s.protected(s.createTransaction)))
	mux.HandleFunc(RouteListInvestments, s.track(RouteListInvestments, s.protected(s.listInvestments)))
	mux.HandleFunc(RouteCreateInvestment, s.track(RouteCreateInvestment, s.protected(s.createInvestment)))
	mux.HandleFunc(RouteRefreshInvestments, s.track(RouteRefreshInvestments, s.protected(s.refreshInvestments)))
	mux.HandleFunc(RoutePortfolioSummary, s.track(RoutePortfolioSummary, s.protected(s.portfolioSummary)))
	mux.HandleFunc(RouteMonthlyBar, s.track(RouteMonthlyBar, s.protected(s.monthlyBar)))
	mux.HandleFunc(RouteCategorySpending, s.track(RouteCategorySpending, s.protected(s.categorySpending)))
	mux.HandleFunc(RouteSavingsRate, s.track(RouteSavingsRate, s.protected(s.savingsRate)))
	mux.HandleFunc(RouteRefreshInvestment, s.track(RouteRefreshInvestment, s.protected(s.refreshInvestment)))
	mux.HandleFunc(RouteInvestmentRisk, s.track(RouteInvestmentRisk, s.protected(s.investmentRisk)))
	mux.HandleFunc(RouteRefreshAllocation, s.track(RouteRefreshAllocation, s.protected(s.refreshAllocation)))
	mux.HandleFunc(RoutePoints, s.track(RoutePoints, s.protected(s.points)))
	mux.HandleFunc(RouteAchievements, s.track(RouteAchievements, s.protected(s.achievements)))
	mux.HandleFunc(RouteProgress, s.track(RouteProgress, s.protected(s.progress)))

	s.Server = httptest.NewServer(mux)
	return s
}

// AddUser registers an account directly.
func (s *Server) AddUser(username, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(username)] = user{email: email, passwordHash: string(hash)}
	return nil
}

// IssueToken signs a token for username valid for ttl. A negative ttl yields
// an already expired token.
func (s *Server) IssueToken(username string, ttl time.Duration) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(s.now()),
		ExpiresAt: jwt.NewNumericDate(s.now().Add(ttl)),
	}).SignedString(s.secret)
	if err != nil {
		panic(fmt.Sprintf("apitest: sign token: %v", err))
	}
	return token
}

// SeedTransactions replaces the stored transactions.
func (s *Server) SeedTransactions(items ...models.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = nil
	for _, t := range items {
		if t.ID == 0 {
			s.nextID++
			t.ID = s.nextID
		}
		s.transactions = append(s.transactions, t)
	}
}

// SeedInvestments replaces the stored investments.
func (s *Server) SeedInvestments(items ...models.Investment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.investments = nil
	for _, inv := range items {
		if inv.ID == 0 {
			s.nextID++
			inv.ID = s.nextID
		}
		s.investments = append(s.investments, inv)
	}
}

// SetQuote sets the live price used for new and refreshed investments.
func (s *Server) SetQuote(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[strings.ToUpper(symbol)] = price
}

// SetRisk sets the risk level the backend computes for symbol. Symbols
// without one are classified Medium.
func (s *Server) SetRisk(symbol, level string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.risks[strings.ToUpper(symbol)] = level
}

// WrapData makes transaction responses use the {"data": ...} envelope.
func (s *Server) WrapData(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wrapData = on
}

// Fail makes route answer status with body until ClearFailures.
func (s *Server) Fail(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, body: body}
}

// ClearFailures removes every injected failure.
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]failure)
}

// Hold makes the next request to route block until release is called.
func (s *Server) Hold(route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.holds[route] = append(s.holds[route], ch)
	s.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Hits returns how many requests route has received.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// Transactions returns a copy of the stored transactions.
func (s *Server) Transactions() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Transaction(nil), s.transactions...)
}

func (s *Server) track(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[route]++
		var hold chan struct{}
		if queue := s.holds[route]; len(queue) > 0 {
			hold, s.holds[route] = queue[0], queue[1:]
		}
		fail, failing := s.failures[route]
		s.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			writeText(w, fail.status, fail.body)
			return
		}
		next(w, r)
	}
}

// protected mirrors the backend's JWT filter: anything but a valid bearer
// token gets 403.
func (s *Server) protected(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeJSON(w, http.StatusForbidden, map[string]string{"message": "Access denied"})
			return
		}
		_, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
		if err != nil {
			writeJSON(w, http.StatusForbidden, map[string]string{"message": "Token expired or invalid"})
			return
		}
		next(w, r)
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	s.mu.Lock()
	u, ok := s.users[strings.ToLower(req.Username)]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid username or password"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"token":   s.IssueToken(req.Username, s.tokenTTL),
		"message": "Login successful",
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeText(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	s.mu.Lock()
	_, exists := s.users[strings.ToLower(req.Username)]
	for _, u := range s.users {
		if req.Email != "" && u.email == req.Email {
			exists = true
		}
	}
	s.mu.Unlock()
	if exists {
		writeText(w, http.StatusBadRequest, "Username already exists")
		return
	}

	if err := s.AddUser(req.Username, req.Email, req.Password); err != nil {
		writeText(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	writeText(w, http.StatusCreated, "User registered successfully")
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := append([]models.Transaction{}, s.transactions...)
	wrap := s.wrapData
	s.mu.Unlock()
	writeData(w, http.StatusOK, items, wrap)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var p models.TransactionPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || strings.TrimSpace(p.Text) == "" || p.Amount == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "text and a non-zero amount are required"})
		return
	}

	s.mu.Lock()
	s.nextID++
	t := models.Transaction{
		ID:       s.nextID,
		Text:     p.Text,
		Amount:   p.Amount,
		Category: p.Category,
		Date:     s.now().Format("2006-01-02"),
	}
	s.transactions = append(s.transactions, t)
	wrap := s.wrapData
	s.mu.Unlock()

	writeData(w, http.StatusCreated, t, wrap)
}

func (s *Server) listInvestments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := append([]models.Investment{}, s.investments...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) createInvestment(w http.ResponseWriter, r *http.Request) {
	var in models.InvestmentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Shares <= 0 || in.Symbol == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "symbol and positive shares are required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	price, ok := s.quotes[strings.ToUpper(in.Symbol)]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "No market data for " + in.Symbol})
		return
	}

	s.nextID++
	inv := models.Investment{
		ID:                    s.nextID,
		Symbol:                strings.ToUpper(in.Symbol),
		Shares:                in.Shares,
		Type:                  in.Type,
		PurchasePricePerShare: ptr(price),
		TotalCostBasis:        ptr(round2(in.Shares * price)),
		PurchaseDate:          s.now().Format(time.RFC3339),
	}
	quote(&inv, price)
	s.investments = append(s.investments, inv)
	writeJSON(w, http.StatusCreated, inv)
}

func (s *Server) refreshInvestments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	for i := range s.investments {
		if price, ok := s.quotes[strings.ToUpper(s.investments[i].Symbol)]; ok {
			quote(&s.investments[i], price)
		}
	}
	items := append([]models.Investment{}, s.investments...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) portfolioSummary(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value, cost float64
	for _, inv := range s.investments {
		if inv.CurrentValue != nil {
			value += *inv.CurrentValue
		}
		if inv.TotalCostBasis != nil {
			cost += *inv.TotalCostBasis
		}
	}
	writeJSON(w, http.StatusOK, map[string]float64{
		"totalValue":      round2(value),
		"totalCostBasis":  round2(cost),
		"totalProfitLoss": round2(value - cost),
	})
}

type monthTotals struct {
	income, expense float64
}

func (s *Server) byMonth() ([]string, map[string]*monthTotals) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := make(map[string]*monthTotals)
	for _, t := range s.transactions {
		month := t.Date
		if len(month) >= 7 {
			month = month[:7]
		}
		mt, ok := totals[month]
		if !ok {
			mt = &monthTotals{}
			totals[month] = mt
		}
		if t.Amount > 0 {
			mt.income += t.Amount
		} else {
			mt.expense += math.Abs(t.Amount)
		}
	}

	months := make([]string, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}
	sort.Strings(months)
	return months, totals
}

func (s *Server) monthlyBar(w http.ResponseWriter, r *http.Request) {
	months, totals := s.byMonth()
	rows := make([]models.MonthlyBar, 0, len(months))
	for _, m := range months {
		mt := totals[m]
		rows = append(rows, models.MonthlyBar{
			Month: m, Income: round2(mt.income), Expense: round2(mt.expense), Savings: round2(mt.income - mt.expense),
		})
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) savingsRate(w http.ResponseWriter, r *http.Request) {
	months, totals := s.byMonth()
	rows := make([]models.SavingsRate, 0, len(months))
	for _, m := range months {
		mt := totals[m]
		if mt.income <= 0 {
			continue
		}
		savings := mt.income - mt.expense
		rows = append(rows, models.SavingsRate{
			Month:       m,
			SavingsRate: round2(savings / mt.income * 100),
			Savings:     round2(savings),
			Income:      round2(mt.income),
			Expense:     round2(mt.expense),
		})
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) categorySpending(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	totals := make(map[string]float64)
	var all float64
	for _, t := range s.transactions {
		if t.Amount >= 0 {
			continue
		}
		category := t.Category
		if category == "" {
			category = "Other"
		}
		totals[category] += math.Abs(t.Amount)
		all += math.Abs(t.Amount)
	}
	s.mu.Unlock()

	rows := make([]models.CategorySpending, 0, len(totals))
	for category, amount := range totals {
		pct := 0.0
		if all > 0 {
			pct = round2(amount / all * 100)
		}
		rows = append(rows, models.CategorySpending{Category: category, Amount: round2(amount), Percentage: pct})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Amount == rows[j].Amount {
			return rows[i].Category < rows[j].Category
		}
		return rows[i].Amount > rows[j].Amount
	})
	writeJSON(w, http.StatusOK, rows)
}

// findInvestment returns the index of the investment with the path's id.
// The caller holds s.mu.
func (s *Server) findInvestment(r *http.Request) (int, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	for i := range s.investments {
		if s.investments[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

func (s *Server) refreshInvestment(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.findInvestment(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Investment not found"})
		return
	}
	if price, ok := s.quotes[strings.ToUpper(s.investments[i].Symbol)]; ok {
		quote(&s.investments[i], price)
	}
	writeJSON(w, http.StatusOK, s.investments[i])
}

// investmentRisk classifies on first request and keeps the result.
func (s *Server) investmentRisk(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.findInvestment(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Investment not found"})
		return
	}
	inv := &s.investments[i]
	if inv.RiskLevel == "" {
		inv.RiskLevel = models.RiskMedium
		if level, ok := s.risks[strings.ToUpper(inv.Symbol)]; ok {
			inv.RiskLevel = level
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"riskLevel": inv.RiskLevel})
}

func (s *Server) refreshAllocation(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	allocation := make(map[string]float64)
	for i := range s.investments {
		inv := &s.investments[i]
		if price, ok := s.quotes[strings.ToUpper(inv.Symbol)]; ok {
			quote(inv, price)
		}
		if inv.CurrentValue != nil && *inv.CurrentValue > 0 {
			allocation[inv.Symbol] = round2(allocation[inv.Symbol] + *inv.CurrentValue)
		}
	}
	writeJSON(w, http.StatusOK, allocation)
}

// earnedPoints gives 10 points per income and 5 per expense.
func (s *Server) earnedPoints() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	points := 0
	for _, t := range s.transactions {
		switch {
		case t.Amount > 0:
			points += 10
		case t.Amount < 0:
			points += 5
		}
	}
	return points
}

func (s *Server) points(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"points": s.earnedPoints()})
}

func (s *Server) achievements(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var balance float64
	expenses := 0
	days := make(map[string]struct{})
	for _, t := range s.transactions {
		balance += t.Amount
		if t.Amount < 0 {
			expenses++
		}
		if t.Date != "" {
			days[t.Date] = struct{}{}
		}
	}

	today := s.now().Format("2006-01-02")
	badge := func(name, description string, unlocked bool) models.Achievement {
		a := models.Achievement{Name: name, Description: description, Unlocked: unlocked}
		if unlocked {
			a.DateUnlocked = today
		}
		return a
	}
	writeJSON(w, http.StatusOK, []models.Achievement{
		badge("first transaction", "you logged your first transaction", len(s.transactions) >= 1),
		badge("saver", "maintain a positive balance of 100 or more", balance >= 100),
		badge("Budget Master", "Log 10 or more expenses.", expenses >= 10),
		badge("Getting Consistent", "Log transactions on 3 different days.", len(days) >= 3),
	})
}

// progress uses levels of 100 points.
func (s *Server) progress(w http.ResponseWriter, r *http.Request) {
	points := s.earnedPoints()
	into := points % 100
	writeJSON(w, http.StatusOK, models.Progress{
		Level:             points / 100,
		CurrentPoints:     into,
		PointsToNextLevel: 100 - into,
		ProgressPercent:   into,
	})
}

// quote applies a live price to inv the way the backend does.
func quote(inv *models.Investment, price float64) {
	inv.CurrentPricePerShare = ptr(price)
	value := round2(inv.Shares * price)
	inv.CurrentValue = ptr(value)
	if inv.TotalCostBasis != nil {
		inv.ProfitLoss = ptr(round2(value - *inv.TotalCostBasis))
	}
}

func ptr(v float64) *float64 { return &v }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, v any, wrap bool) {
	if wrap {
		writeJSON(w, status, map[string]any{"data": v})
		return
	}
	writeJSON(w, status, v)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
