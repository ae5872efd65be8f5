package e2e

import (
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// E2ETestSuite drives the web client in headless Chromium.
type E2ETestSuite struct {
	suite.Suite
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	expect  playwright.PlaywrightAssertions
}

func (suite *E2ETestSuite) SetupSuite() {
	pw, err := playwright.Run()
	require.NoError(suite.T(), err, "could not launch playwright")
	suite.pw = pw

	browser, err := pw.Chromium.Launch()
	require.NoError(suite.T(), err, "could not launch chromium")
	suite.browser = browser

	suite.expect = playwright.NewPlaywrightAssertions()
}

func (suite *E2ETestSuite) TearDownSuite() {
	if suite.browser != nil {
		suite.browser.Close()
	}
	if suite.pw != nil {
		suite.pw.Stop()
	}
}

// SetupTest opens a fresh page on the login form.
func (suite *E2ETestSuite) SetupTest() {
	page, err := suite.browser.NewPage()
	require.NoError(suite.T(), err, "could not create page")
	suite.page = page

	_, err = suite.page.Goto(appURL + "/login")
	require.NoError(suite.T(), err, "could not navigate to app")
}

// TearDownTest logs out so every test starts from an empty session
func (suite *E2ETestSuite) TearDownTest() {
	if suite.page != nil {
		logout := suite.page.Locator(".logout-btn")
		if n, err := logout.Count(); err == nil && n > 0 {
			_ = logout.Click()
		}
		suite.page.Close()
	}
}

func (suite *E2ETestSuite) login() {
	err := suite.expect.Locator(suite.page.Locator(".login-form")).ToBeVisible()
	require.NoError(suite.T(), err, "login form not visible")

	err = suite.page.Locator("input[name=username]").Fill("TestUser")
	require.NoError(suite.T(), err, "failed to fill username")

	err = suite.page.Locator("input[name=password]").Fill(testPassword)
	require.NoError(suite.T(), err, "failed to fill password")

	err = suite.page.Locator(".login-btn").Click()
	require.NoError(suite.T(), err, "failed to click login")

	// Wait for redirect to the dashboard
	err = suite.expect.Locator(suite.page.Locator(".dashboard-screen")).ToBeVisible()
	require.NoError(suite.T(), err, "did not redirect to dashboard after login")
}

func (suite *E2ETestSuite) TestWrongPasswordShowsServerMessage() {
	err := suite.page.Locator("input[name=username]").Fill(testUser)
	require.NoError(suite.T(), err)
	err = suite.page.Locator("input[name=password]").Fill("nope")
	require.NoError(suite.T(), err)
	err = suite.page.Locator(".login-btn").Click()
	require.NoError(suite.T(), err)

	err = suite.expect.Locator(suite.page.Locator(".error-msg")).ToContainText("Invalid username or password")
	require.NoError(suite.T(), err, "login error not shown")
}

func (suite *E2ETestSuite) TestProtectedRouteRedirects() {
	_, err := suite.page.Goto(appURL + "/dashboard/finances")
	require.NoError(suite.T(), err)

	err = suite.expect.Locator(suite.page.Locator(".login-form")).ToBeVisible()
	require.NoError(suite.T(), err, "protected route did not redirect to login")
}

func (suite *E2ETestSuite) TestCompleteUserFlow() {
	// Login
	suite.login()

	// Open the ledger
	err := suite.page.Locator(".planet-finances").Click()
	require.NoError(suite.T(), err, "failed to open finances")

	err = suite.expect.Locator(suite.page.Locator(".finances-screen")).ToBeVisible()
	require.NoError(suite.T(), err, "finances page not visible")

	// Log an expense
	err = suite.page.Locator("input[name=type][value=expense]").Check()
	require.NoError(suite.T(), err, "failed to pick expense")

	err = suite.page.Locator("input[name=text]").Fill("Lunch Test")
	require.NoError(suite.T(), err, "failed to fill description")

	err = suite.page.Locator("input[name=amount]").Fill("12.50")
	require.NoError(suite.T(), err, "failed to fill amount")

	_, err = suite.page.Locator("select[name=category]").SelectOption(playwright.SelectOptionValues{
		Values: &[]string{"Food"},
	})
	require.NoError(suite.T(), err, "failed to select category")

	err = suite.page.Locator(".add-transaction-btn").Click()
	require.NoError(suite.T(), err, "failed to submit transaction")

	// Verify in the log
	err = suite.expect.Locator(suite.page.Locator(".transaction-item")).ToHaveCount(1)
	require.NoError(suite.T(), err, "transaction item count mismatch")

	item := suite.page.Locator(".transaction-item").First()
	err = suite.expect.Locator(item.Locator(".transaction-text")).ToContainText("Lunch Test")
	require.NoError(suite.T(), err, "description mismatch")

	err = suite.expect.Locator(item.Locator(".transaction-amount")).ToHaveText("-£12.50")
	require.NoError(suite.T(), err, "amount mismatch")

	err = suite.expect.Locator(suite.page.Locator(".expense-total")).ToHaveText("£12.50")
	require.NoError(suite.T(), err, "expense total mismatch")

	// Logging out protects the pages again
	err = suite.page.Locator(".logout-btn").Click()
	require.NoError(suite.T(), err, "failed to log out")

	_, err = suite.page.Goto(appURL + "/dashboard")
	require.NoError(suite.T(), err)
	err = suite.expect.Locator(suite.page.Locator(".login-form")).ToBeVisible()
	require.NoError(suite.T(), err, "dashboard reachable after logout")
}

func TestE2ESuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
