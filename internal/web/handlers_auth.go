package web

import (
	"net/http"

	"github.com/harrylevesque/desuite/internal/auth"
	"github.com/harrylevesque/desuite/internal/forms"
)

const loginFailed = "Invalid email or password"

type authForm struct {
	Username string
	Email    string
	Errors   forms.Errors
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "landing", "Welcome", "", nil)
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if auth.FromRequest(r).IsAuthenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	s.render(w, r, http.StatusOK, "login", "Sign in", "", authForm{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	f := forms.ParseLogin(r.PostForm)
	data := authForm{Email: f.Email, Errors: f.Validate()}
	if !data.Errors.OK() {
		s.render(w, r, http.StatusUnprocessableEntity, "login", "Sign in", "", data)
		return
	}
	ctx, cancel := s.remote(r)
	defer cancel()
	if _, err := auth.FromRequest(r).Login(ctx, f.Email, f.Password); err != nil {
		s.failure(r, err, loginFailed)
		s.render(w, r, http.StatusUnauthorized, "login", "Sign in", loginFailed, data)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	if auth.FromRequest(r).IsAuthenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	s.render(w, r, http.StatusOK, "register", "Create account", "", authForm{})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	f := forms.ParseRegister(r.PostForm)
	data := authForm{Username: f.Username, Email: f.Email, Errors: f.Validate()}
	if !data.Errors.OK() {
		s.render(w, r, http.StatusUnprocessableEntity, "register", "Create account", "", data)
		return
	}
	ctx, cancel := s.remote(r)
	defer cancel()
	if _, err := auth.FromRequest(r).Register(ctx, f.Username, f.Email, f.Password); err != nil {
		s.failure(r, err, "")
		s.render(w, r, http.StatusOK, "register", "Create account", err.Error(), data)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := auth.FromRequest(r).Logout(); err != nil {
		s.logger.Errorf("logout: %v", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
