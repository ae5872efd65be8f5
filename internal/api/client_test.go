package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finance-client/internal/apitest"
	"finance-client/internal/logging"
	"finance-client/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

// ClientTestSuite runs the gateway against the fake backend
type ClientTestSuite struct {
	suite.Suite
	backend *apitest.Server
	client  *Client
	ctx     context.Context
}

func (suite *ClientTestSuite) SetupTest() {
	suite.backend = apitest.New()
	suite.ctx = context.Background()
	token := suite.backend.IssueToken("alice", time.Hour)
	suite.client = NewClient(suite.backend.URL, 5*time.Second, staticToken(token), logging.Discard())
}

func (suite *ClientTestSuite) TearDownTest() {
	suite.backend.Close()
}

func (suite *ClientTestSuite) TestNoTokenSendsNothing() {
	anonymous := NewClient(suite.backend.URL, time.Second, staticToken(""), logging.Discard())

	_, err := anonymous.ListTransactions(suite.ctx)
	assert.ErrorIs(suite.T(), err, ErrUnauthenticated)
	_, err = anonymous.CreateInvestment(suite.ctx, models.InvestmentInput{Symbol: "AAPL", Shares: 1, Type: "Stock"})
	assert.ErrorIs(suite.T(), err, ErrUnauthenticated)

	assert.Zero(suite.T(), suite.backend.Hits(apitest.RouteListTransactions))
	assert.Zero(suite.T(), suite.backend.Hits(apitest.RouteCreateInvestment))
}

func (suite *ClientTestSuite) TestNilTokenSource() {
	c := NewClient(suite.backend.URL, time.Second, nil, nil)
	_, err := c.ListInvestments(suite.ctx)
	assert.ErrorIs(suite.T(), err, ErrUnauthenticated)
}

func (suite *ClientTestSuite) TestListTransactionsPlainAndWrapped() {
	suite.backend.SeedTransactions(
		models.Transaction{Text: "Lunch", Amount: -12.5, Category: "Food"},
		models.Transaction{Text: "Pay", Amount: 2000, Category: "Salary"},
	)

	items, err := suite.client.ListTransactions(suite.ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), items, 2)
	assert.Equal(suite.T(), "Lunch", items[0].Text, "server order is preserved")

	suite.backend.WrapData(true)
	wrapped, err := suite.client.ListTransactions(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), items, wrapped)
}

func (suite *ClientTestSuite) TestListEmptyIsNotNil() {
	items, err := suite.client.ListInvestments(suite.ctx)
	require.NoError(suite.T(), err)
	assert.NotNil(suite.T(), items)
	assert.Empty(suite.T(), items)
}

func (suite *ClientTestSuite) TestCreateTransactionWrapped() {
	suite.backend.WrapData(true)
	created, err := suite.client.CreateTransaction(suite.ctx, models.TransactionPayload{Text: "Bus", Amount: -2.4, Category: "Transportation"})
	require.NoError(suite.T(), err)
	assert.NotZero(suite.T(), created.ID)
	assert.Equal(suite.T(), -2.4, created.Amount)
	assert.Equal(suite.T(), models.KindExpense, created.Kind())
}

func (suite *ClientTestSuite) TestCreateInvestmentIsPricedByBackend() {
	suite.backend.SetQuote("AAPL", 200)
	created, err := suite.client.CreateInvestment(suite.ctx, models.InvestmentInput{Symbol: "aapl", Shares: 2, Type: "Stock"})
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), created.CurrentValue)
	assert.Equal(suite.T(), 400.0, *created.CurrentValue)

	suite.backend.SetQuote("AAPL", 210)
	refreshed, err := suite.client.RefreshInvestments(suite.ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), refreshed, 1)
	assert.Equal(suite.T(), 420.0, *refreshed[0].CurrentValue)
	assert.Equal(suite.T(), 20.0, *refreshed[0].ProfitLoss)

	summary, err := suite.client.PortfolioSummary(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 420.0, summary["totalValue"])
}

func (suite *ClientTestSuite) TestServerMessageSurfaced() {
	_, err := suite.client.CreateInvestment(suite.ctx, models.InvestmentInput{Symbol: "NOPE", Shares: 1, Type: "Stock"})
	require.Error(suite.T(), err)

	var se *StatusError
	require.ErrorAs(suite.T(), err, &se)
	assert.Equal(suite.T(), http.StatusBadRequest, se.Code)
	assert.Equal(suite.T(), "No market data for NOPE", ServerMessage(err))
}

func (suite *ClientTestSuite) TestForbiddenIsAccessDenied() {
	expired := NewClient(suite.backend.URL, time.Second, staticToken(suite.backend.IssueToken("alice", -time.Minute)), logging.Discard())
	_, err := expired.ListTransactions(suite.ctx)
	assert.ErrorIs(suite.T(), err, ErrAccessDenied)
	assert.NotErrorIs(suite.T(), err, ErrUnreachable)
}

func (suite *ClientTestSuite) TestOtherStatusWithoutMessage() {
	suite.backend.Fail(apitest.RouteMonthlyBar, http.StatusBadGateway, "")
	_, err := suite.client.MonthlyBar(suite.ctx)

	var se *StatusError
	require.ErrorAs(suite.T(), err, &se)
	assert.Equal(suite.T(), http.StatusBadGateway, se.Code)
	assert.Empty(suite.T(), se.Message)
	assert.Contains(suite.T(), err.Error(), "Bad Gateway")
	assert.NotErrorIs(suite.T(), err, ErrAccessDenied)
}

func (suite *ClientTestSuite) TestUnreachable() {
	suite.backend.Close()
	_, err := suite.client.ListTransactions(suite.ctx)
	assert.ErrorIs(suite.T(), err, ErrUnreachable)
}

func (suite *ClientTestSuite) TestLoginNormalizesUsername() {
	require.NoError(suite.T(), suite.backend.AddUser("alice", "alice@example.com", "pw"))

	res, err := suite.client.Login(suite.ctx, "  Alice ", "pw")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "alice", res.Username)
	assert.NotEmpty(suite.T(), res.Token)
	assert.Equal(suite.T(), "Login successful", res.Message)

	_, err = suite.client.Login(suite.ctx, "alice", "bad")
	require.Error(suite.T(), err)
	assert.Equal(suite.T(), "Invalid username or password", ServerMessage(err))
}

func (suite *ClientTestSuite) TestRegister() {
	msg, err := suite.client.Register(suite.ctx, "bob", "bob@example.com", "pw")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "User registered successfully", msg)

	_, err = suite.client.Register(suite.ctx, "bob", "other@example.com", "pw")
	require.Error(suite.T(), err)
	assert.Equal(suite.T(), "Username already exists", ServerMessage(err))
}

func (suite *ClientTestSuite) TestCharts() {
	suite.backend.SeedTransactions(
		models.Transaction{Text: "Pay", Amount: 1000, Category: "Salary", Date: "2026-03-01"},
		models.Transaction{Text: "Rent", Amount: -400, Category: "Bills", Date: "2026-03-02"},
	)

	bars, err := suite.client.MonthlyBar(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []models.MonthlyBar{{Month: "2026-03", Income: 1000, Expense: 400, Savings: 600}}, bars)

	rates, err := suite.client.SavingsRate(suite.ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), rates, 1)
	assert.Equal(suite.T(), 60.0, rates[0].SavingsRate)

	cats, err := suite.client.CategorySpending(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []models.CategorySpending{{Category: "Bills", Amount: 400, Percentage: 100}}, cats)
}

func (suite *ClientTestSuite) TestPerHoldingEndpoints() {
	suite.backend.SeedInvestments(models.Investment{ID: 3, Symbol: "AAPL", Shares: 2, Type: "Stock"})
	suite.backend.SetQuote("AAPL", 50)

	inv, err := suite.client.RefreshInvestment(suite.ctx, 3)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), inv.CurrentValue)
	assert.Equal(suite.T(), 100.0, *inv.CurrentValue)

	level, err := suite.client.InvestmentRisk(suite.ctx, 3)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.RiskMedium, level)

	_, err = suite.client.RefreshInvestment(suite.ctx, 9)
	var se *StatusError
	require.ErrorAs(suite.T(), err, &se)
	assert.Equal(suite.T(), http.StatusNotFound, se.Code)
	assert.Equal(suite.T(), "Investment not found", se.Message)

	allocation, err := suite.client.RefreshAllocation(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), map[string]float64{"AAPL": 100}, allocation)
}

func (suite *ClientTestSuite) TestGamification() {
	suite.backend.SeedTransactions(
		models.Transaction{Text: "Pay", Amount: 1000, Category: "Salary", Date: "2026-03-01"},
		models.Transaction{Text: "Rent", Amount: -400, Category: "Bills", Date: "2026-03-02"},
	)

	points, err := suite.client.Points(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 15, points)

	badges, err := suite.client.Achievements(suite.ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), badges, 4)
	assert.Equal(suite.T(), "first transaction", badges[0].Name)
	assert.True(suite.T(), badges[0].Unlocked)

	progress, err := suite.client.Progress(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 85, progress.PointsToNextLevel)

	anonymous := NewClient(suite.backend.URL, time.Second, staticToken(""), logging.Discard())
	_, err = anonymous.Points(suite.ctx)
	assert.ErrorIs(suite.T(), err, ErrUnauthenticated)
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second, staticToken("tok"), logging.Discard())
	_, err := c.ListTransactions(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", got.Get("Authorization"))
	assert.NotEmpty(t, got.Get("X-Request-ID"))
	assert.Equal(t, srv.URL, c.BaseURL())
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, staticToken("tok"), logging.Discard())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.ListTransactions(ctx)
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestServerMessageParsing(t *testing.T) {
	assert.Equal(t, "nope", serverMessage([]byte(`{"message":"nope"}`)))
	assert.Equal(t, "bad", serverMessage([]byte(`{"error":"bad"}`)))
	assert.Equal(t, "Username already exists", serverMessage([]byte("Username already exists\n")))
	assert.Empty(t, serverMessage([]byte("<html>oops</html>")))
	assert.Empty(t, serverMessage(nil))
	assert.Len(t, serverMessage([]byte(strings.Repeat("x", 500))), maxMessageLen)
}
