// Package web serves the desuite pages. Handlers read the signed-in user
// from the request's session context and talk to the platform only through
// backend.Service.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/singleflight"

	"github.com/harrylevesque/desuite/internal/auth"
	"github.com/harrylevesque/desuite/internal/backend"
	"github.com/harrylevesque/desuite/internal/utils"
)

const defaultTimeout = 15 * time.Second

type Options struct {
	Service  backend.Service
	Sessions sessions.Store
	Logger   *utils.Logger
	// Timeout bounds the remote calls of one request. Zero means 15s.
	Timeout  time.Duration
}

type Server struct {
	svc     backend.Service
	auth    *auth.Auth
	logger  *utils.Logger
	timeout time.Duration
	pages   *pages
	joins   singleflight.Group
}

func New(opts Options) (*Server, error) {
	if opts.Service == nil || opts.Sessions == nil {
		return nil, fmt.Errorf("web: service and session store are required")
	}
	p, err := loadPages()
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Server{
		svc:     opts.Service,
		auth:    auth.New(opts.Service, opts.Sessions, opts.Logger),
		logger:  opts.Logger,
		timeout: timeout,
		pages:   p,
	}, nil
}

// Router wires every route. Protected pages redirect to /login when the
// session is signed out.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)
	r.HandleFunc("/time", handleTime).Methods(http.MethodGet)

	app := r.NewRoute().Subrouter()
	app.Use(s.auth.Attach, s.auth.VerifyCSRF)

	app.HandleFunc("/", s.handleLanding).Methods(http.MethodGet)
	app.HandleFunc("/login", s.handleLoginForm).Methods(http.MethodGet)
	app.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	app.HandleFunc("/register", s.handleRegisterForm).Methods(http.MethodGet)
	app.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	app.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)

	p := app.NewRoute().Subrouter()
	p.Use(s.auth.Middleware)

	p.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	p.HandleFunc("/spaces", s.handleSpaces).Methods(http.MethodGet)
	p.HandleFunc("/spaces/create", s.handleCreateSpaceForm).Methods(http.MethodGet)
	p.HandleFunc("/spaces/create", s.handleCreateSpace).Methods(http.MethodPost)
	p.HandleFunc("/spaces/{spaceId}", s.handleSpace).Methods(http.MethodGet)
	p.HandleFunc("/spaces/{spaceId}/join", s.handleJoin).Methods(http.MethodPost)
	p.HandleFunc("/spaces/{spaceId}/tasks/create", s.handleCreateTaskForm).Methods(http.MethodGet)
	p.HandleFunc("/spaces/{spaceId}/tasks/create", s.handleCreateTask).Methods(http.MethodPost)
	p.HandleFunc("/spaces/{spaceId}/tasks/{taskId}", s.handleTask).Methods(http.MethodGet)
	p.HandleFunc("/spaces/{spaceId}/tasks/{taskId}/submit", s.handleSubmit).Methods(http.MethodPost)
	p.HandleFunc("/spaces/{spaceId}/tasks/{taskId}/review/{submissionId}", s.handleReview).Methods(http.MethodPost)
	p.HandleFunc("/tasks", s.handleTasks).Methods(http.MethodGet)
	p.HandleFunc("/profile", s.handleProfile).Methods(http.MethodGet)
	p.HandleFunc("/leaderboard", s.handleLeaderboard).Methods(http.MethodGet)

	r.NotFoundHandler = s.auth.Attach(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusNotFound, "Page not found")
	}))
	return r
}

// remote bounds a request's backend calls.
func (s *Server) remote(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.timeout)
}

// failure logs transport errors and returns the text to show.
func (s *Server) failure(r *http.Request, err error, fallback string) string {
	if backend.IsTransport(err) {
		s.logger.Warnf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	return backend.Message(err, fallback)
}

// lookupError maps a failed load of the page's main record to the status
// the page answers with.
func (s *Server) lookupError(r *http.Request, err error, notFound, fallback string) error {
	if backend.IsRejected(err) {
		return utils.NotFound(backend.Message(err, notFound))
	}
	return utils.New(http.StatusBadGateway, s.failure(r, err, fallback))
}

func (s *Server) renderStatusError(w http.ResponseWriter, r *http.Request, err error) {
	var se *utils.StatusError
	if errors.As(err, &se) {
		s.renderError(w, r, se.Code, se.Message)
		return
	}
	s.logger.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	s.renderError(w, r, http.StatusInternalServerError, "Something went wrong")
}

func handleTime(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"time": "` + time.Now().Format(time.RFC3339) + `"}`))
}
