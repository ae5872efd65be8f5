package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finance-client/internal/api"
	"finance-client/internal/auth"
	"finance-client/internal/config"
	"finance-client/internal/handlers"
	"finance-client/internal/logging"
	"finance-client/internal/resource"
	"finance-client/internal/storage"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	log := logging.For(logger, logging.ComponentApp)

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		log.WithError(err).WithField("db_path", cfg.DBPath).Fatal("Failed to open client storage")
	}
	defer db.Close()

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h, hooks := newApp(ctx, cfg, db, logger)
	defer hooks.Transactions.Deactivate()
	defer hooks.Investments.Deactivate()

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        setupRouter(h, cfg.StaticDir),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   2*cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		log.WithField("signal", sig.String()).Info("Shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Server shutdown error")
		}
		cancel()
	}()

	log.WithFields(logrus.Fields{
		"port":    cfg.Port,
		"backend": cfg.APIBaseURL,
	}).Info("Starting finance client")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).WithField("port", cfg.Port).Error("Server error")
		return
	}

	<-stopped
	log.Info("Server stopped gracefully")
}

// newApp wires the data layer: storage, session, gateway and hooks. The
// session is resolved before the hooks activate, so the first page load
// already knows whether the user is logged in.
func newApp(ctx context.Context, cfg *config.Config, db *storage.DB, logger *logrus.Logger) (*handlers.Handlers, handlers.Hooks) {
	session := auth.NewStore(db, logger)
	if err := session.Init(ctx); err != nil {
		logging.For(logger, logging.ComponentApp).WithError(err).Warn("Starting logged out")
	}

	gateway := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, session, logger)
	transactions := resource.NewTransactions(gateway, session, logger)
	hooks := handlers.Hooks{
		Transactions: transactions,
		Investments:  resource.NewInvestments(gateway, session, transactions, logger),
		Charts:       resource.NewCharts(gateway, logger),
		Gamification: resource.NewGamification(gateway, logger),
	}
	hooks.Transactions.Activate(ctx)
	hooks.Investments.Activate(ctx)

	return handlers.NewHandlers(session, gateway, hooks, cfg.TemplateDir, cfg.CurrencySymbol, logger), hooks
}

func setupRouter(h *handlers.Handlers, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	mux.HandleFunc("GET /{$}", h.StartPage)
	mux.HandleFunc("GET /login", h.LoginForm)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("GET /signup", h.SignupForm)
	mux.HandleFunc("POST /signup", h.Signup)
	mux.HandleFunc("POST /logout", h.Logout)

	protected := func(fn http.HandlerFunc) http.Handler { return h.RequireSession(fn) }
	mux.Handle("GET /dashboard", protected(h.Dashboard))
	mux.Handle("GET /dashboard/finances", protected(h.Finances))
	mux.Handle("POST /dashboard/finances/transactions", protected(h.AddTransaction))
	mux.Handle("GET /dashboard/investments", protected(h.Investments))
	mux.Handle("POST /dashboard/investments", protected(h.AddInvestment))
	mux.Handle("POST /dashboard/investments/refresh", protected(h.RefreshInvestments))
	mux.Handle("POST /dashboard/investments/{id}/refresh", protected(h.RefreshHolding))
	mux.Handle("POST /dashboard/investments/{id}/risk", protected(h.AssessRisk))
	mux.Handle("GET /dashboard/charts", protected(h.Charts))

	return mux
}
