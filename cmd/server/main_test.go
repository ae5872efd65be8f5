package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"finance-client/internal/apitest"
	"finance-client/internal/auth"
	"finance-client/internal/config"
	"finance-client/internal/logging"
	"finance-client/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupRouter(t *testing.T) {
	// Ensure template directory exists, otherwise the pages cannot render
	if _, err := os.Stat("../../web/templates"); os.IsNotExist(err) {
		t.Skip("Template directory not found, skipping router test")
	}

	backend := apitest.New()
	defer backend.Close()

	// Setup dependencies
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err, "failed to create database")
	defer db.Close()

	cfg := &config.Config{
		APIBaseURL:     backend.URL,
		RequestTimeout: 5 * time.Second,
		TemplateDir:    "../../web/templates",
		CurrencySymbol: "£",
	}
	h, hooks := newApp(context.Background(), cfg, db, logging.Discard())
	defer hooks.Transactions.Deactivate()
	defer hooks.Investments.Deactivate()

	// Create router - this triggers the panic if routing conflict exists
	mux := setupRouter(h, "../../web/static")

	// Verify routes
	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		allowAlt   []int // Alternative acceptable status codes
	}{
		{
			name:       "Start page renders",
			method:     "GET",
			path:       "/",
			wantStatus: http.StatusOK,
		},
		{
			name:       "Login page renders",
			method:     "GET",
			path:       "/login",
			wantStatus: http.StatusOK,
		},
		{
			name:       "Signup page renders",
			method:     "GET",
			path:       "/signup",
			wantStatus: http.StatusOK,
		},
		{
			name:       "Static file access",
			method:     "GET",
			path:       "/static/style.css",
			wantStatus: http.StatusOK,
			allowAlt:   []int{http.StatusNotFound}, // File might not exist in test env
		},
		{
			name:       "Dashboard requires auth",
			method:     "GET",
			path:       "/dashboard",
			wantStatus: http.StatusFound, // Should redirect to login
		},
		{
			name:       "Finances requires auth",
			method:     "GET",
			path:       "/dashboard/finances",
			wantStatus: http.StatusFound,
		},
		{
			name:       "Adding a transaction requires auth",
			method:     "POST",
			path:       "/dashboard/finances/transactions",
			wantStatus: http.StatusFound,
		},
		{
			name:       "Refreshing a holding requires auth",
			method:     "POST",
			path:       "/dashboard/investments/3/refresh",
			wantStatus: http.StatusFound,
		},
		{
			name:       "Risk assessment requires auth",
			method:     "POST",
			path:       "/dashboard/investments/3/risk",
			wantStatus: http.StatusFound,
		},
		{
			name:       "Charts requires auth",
			method:     "GET",
			path:       "/dashboard/charts",
			wantStatus: http.StatusFound,
		},
		{
			name:       "Unknown path",
			method:     "GET",
			path:       "/nope",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			// Check if status matches expected or any alternative
			if len(tt.allowAlt) > 0 {
				acceptableStatuses := append([]int{tt.wantStatus}, tt.allowAlt...)
				assert.Contains(t, acceptableStatuses, w.Code,
					"%s %s returned unexpected status", tt.method, tt.path)
			} else {
				assert.Equal(t, tt.wantStatus, w.Code,
					"%s %s returned unexpected status", tt.method, tt.path)
			}
		})
	}
}

func TestNewAppRestoresSession(t *testing.T) {
	backend := apitest.New()
	defer backend.Close()

	db, err := storage.NewDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	// A session persisted by an earlier run
	require.NoError(t, db.SetMany(context.Background(), map[string]string{
		auth.KeyToken:    backend.IssueToken("alice", time.Hour),
		auth.KeyUsername: "alice",
	}))

	cfg := &config.Config{
		APIBaseURL:     backend.URL,
		RequestTimeout: 5 * time.Second,
		TemplateDir:    "../../web/templates",
		CurrencySymbol: "£",
	}
	h, hooks := newApp(context.Background(), cfg, db, logging.Discard())
	defer hooks.Transactions.Deactivate()
	defer hooks.Investments.Deactivate()

	assert.Equal(t, 1, backend.Hits(apitest.RouteListTransactions), "activation fetches once")
	assert.Equal(t, 1, backend.Hits(apitest.RouteListInvestments))

	w := httptest.NewRecorder()
	setupRouter(h, "../../web/static").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", http.NoBody))
	assert.Equal(t, http.StatusOK, w.Code)
}
