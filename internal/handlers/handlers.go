package handlers

import (
	"context"
	"html/template"
	"net/http"
	"path/filepath"

	"finance-client/internal/api"
	"finance-client/internal/auth"
	"finance-client/internal/logging"
	"finance-client/internal/models"
	"finance-client/internal/resource"

	"github.com/sirupsen/logrus"
)

// Context key type to avoid collisions.
type contextKey string

// SessionContextKey is the context key for the authenticated session.
const SessionContextKey contextKey = "session"

// Hooks are the data-layer collections the pages render.
type Hooks struct {
	Transactions *resource.Transactions
	Investments  *resource.Investments
	Charts       *resource.Charts
	Gamification *resource.Gamification
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	session     *auth.Store
	gateway     *api.Client
	hooks       Hooks
	templateDir string
	currency    string
	log         *logrus.Entry
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(session *auth.Store, gateway *api.Client, hooks Hooks, templateDir, currency string, logger *logrus.Logger) *Handlers {
	return &Handlers{
		session:     session,
		gateway:     gateway,
		hooks:       hooks,
		templateDir: templateDir,
		currency:    currency,
		log:         logging.For(logger, logging.ComponentHTTP),
	}
}

// GetSessionFromContext retrieves the authenticated session from request context.
func GetSessionFromContext(r *http.Request) (auth.Session, bool) {
	s, ok := r.Context().Value(SessionContextKey).(auth.Session)
	return s, ok
}

// RequireSession wraps handlers that need a logged-in user. While the
// session store is still loading nothing is decided yet.
func (h *Handlers) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.session.Resolved() {
			http.Error(w, "VERIFYING CREDENTIALS...", http.StatusServiceUnavailable)
			return
		}

		s := h.session.Session()
		if !s.IsAuthenticated() {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		ctx := context.WithValue(r.Context(), SessionContextKey, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Page is the part of every view model the base layout reads.
type Page struct {
	Title string
	// User is the logged-in username, empty on public pages.
	User string
	// RefreshTo, when set, sends the browser there after two seconds.
	RefreshTo string
}

func (h *Handlers) page(r *http.Request, title string) Page {
	p := Page{Title: title}
	if s, ok := GetSessionFromContext(r); ok {
		p.User = s.Username
	}
	return p
}

// StartViewModel is the data for the landing page.
type StartViewModel struct {
	Page
	Authenticated bool
}

// StartPage renders the landing page.
func (h *Handlers) StartPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "start.html", StartViewModel{
		Page:          h.page(r, "Finance Tracker"),
		Authenticated: h.session.Session().IsAuthenticated(),
	})
}

// DashboardViewModel is the data for the dashboard.
type DashboardViewModel struct {
	Page
	Loading      bool
	Error        string
	Level        int
	Points       int
	ToNextLevel  int
	ProgressPct  int
	Unlocked     int
	Achievements []models.Achievement
}

// Dashboard renders the mission control page with the user's progress.
// A gamification failure only affects the progress panel.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	if err := h.hooks.Gamification.Load(r.Context()); err != nil {
		h.log.WithError(err).Debug("Gamification load failed")
	}
	state := h.hooks.Gamification.State()

	h.render(w, r, http.StatusOK, "dashboard.html", DashboardViewModel{
		Page:         h.page(r, "Mission Control"),
		Loading:      state.Loading,
		Error:        state.Err,
		Level:        state.Data.Progress.Level,
		Points:       state.Data.Points,
		ToNextLevel:  state.Data.Progress.PointsToNextLevel,
		ProgressPct:  min(max(state.Data.Progress.ProgressPercent, 0), 100),
		Unlocked:     state.Data.Unlocked(),
		Achievements: state.Data.Achievements,
	})
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, viewName string, data any) {
	tmpl, err := template.ParseFiles(filepath.Join(h.templateDir, "base.html"), filepath.Join(h.templateDir, viewName))
	if err != nil {
		h.log.WithError(err).WithField("view", viewName).Error("Template error")
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	target := "base.html"
	if r.Header.Get("HX-Request") == "true" {
		target = "content"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, target, data); err != nil {
		h.log.WithError(err).WithField("view", viewName).Error("Template execution error")
	}
}
