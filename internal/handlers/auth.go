package handlers

import (
	"net/http"
	"strings"

	"finance-client/internal/api"
)

const (
	loginFailed     = "Login failed. Check credentials."
	signupFailed    = "Registration failed. Try different credentials."
	signupSucceeded = "Account created successfully! Redirecting to login..."
)

// LoginViewModel holds data for the login page.
type LoginViewModel struct {
	Page
	Username string
	Error    string
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	// If already logged in, go straight to the dashboard
	if h.session.Session().IsAuthenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, "login.html", LoginViewModel{Page: h.page(r, "Login")})
}

// Login handles the login form submission.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	vm := LoginViewModel{Page: h.page(r, "Login")}
	if err := r.ParseForm(); err != nil {
		vm.Error = "Invalid form submission"
		h.render(w, r, http.StatusBadRequest, "login.html", vm)
		return
	}

	vm.Username = strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if vm.Username == "" || password == "" {
		vm.Error = "Username and password are required"
		h.render(w, r, http.StatusBadRequest, "login.html", vm)
		return
	}

	res, err := h.gateway.Login(r.Context(), vm.Username, password)
	if err != nil {
		h.log.WithError(err).Info("Login rejected")
		vm.Error = api.ServerMessage(err)
		if vm.Error == "" {
			vm.Error = loginFailed
		}
		h.render(w, r, http.StatusUnauthorized, "login.html", vm)
		return
	}

	if err := h.session.Login(r.Context(), res.Token, res.Username); err != nil {
		h.log.WithError(err).Error("Failed to store session")
		vm.Error = "An error occurred. Please try again."
		h.render(w, r, http.StatusInternalServerError, "login.html", vm)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// Logout ends the session.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Logout(r.Context()); err != nil {
		h.log.WithError(err).Error("Failed to delete session")
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

// SignupViewModel holds data for the signup page.
type SignupViewModel struct {
	Page
	Username string
	Email    string
	Error    string
	Success  string
}

// SignupForm renders the signup page.
func (h *Handlers) SignupForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "signup.html", SignupViewModel{Page: h.page(r, "Sign Up")})
}

// Signup handles the signup form submission.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	vm := SignupViewModel{Page: h.page(r, "Sign Up")}
	if err := r.ParseForm(); err != nil {
		vm.Error = "Invalid form submission"
		h.render(w, r, http.StatusBadRequest, "signup.html", vm)
		return
	}

	vm.Username = strings.TrimSpace(r.FormValue("username"))
	vm.Email = strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if _, err := h.gateway.Register(r.Context(), vm.Username, vm.Email, password); err != nil {
		h.log.WithError(err).Info("Registration rejected")
		vm.Error = api.ServerMessage(err)
		if vm.Error == "" {
			vm.Error = signupFailed
		}
		h.render(w, r, http.StatusBadRequest, "signup.html", vm)
		return
	}

	vm.Success = signupSucceeded
	vm.RefreshTo = "/login"
	h.render(w, r, http.StatusOK, "signup.html", vm)
}
