package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/harrylevesque/desuite/internal/backend"
	"github.com/harrylevesque/desuite/internal/crypto"
	"github.com/harrylevesque/desuite/internal/session"
	"github.com/harrylevesque/desuite/internal/utils"
	"github.com/harrylevesque/desuite/internal/views"
)

const (
	// SessionName is the cookie name.
	SessionName = "desuite-session"
	// CSRFField is the hidden form field carrying the form token.
	CSRFField = "csrf"

	userKey = "user"
	csrfKey = "csrf"
)

// ErrInvalidCSRF is returned when a form token is missing or wrong.
var ErrInvalidCSRF = errors.New("invalid form token")

// NewCookieStore builds the cookie store. Signing and encryption keys are
// derived from the one session key so a single secret has to be managed.
func NewCookieStore(key []byte, secure bool) (*sessions.CookieStore, error) {
	hashKey, err := crypto.DeriveKey(key, "cookie-hash", 64)
	if err != nil {
		return nil, fmt.Errorf("derive cookie hash key: %w", err)
	}
	blockKey, err := crypto.DeriveKey(key, "cookie-block", 32)
	if err != nil {
		return nil, fmt.Errorf("derive cookie block key: %w", err)
	}
	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store, nil
}

// RequestStore is a session.Store over the cookie session of one request.
// Saves write Set-Cookie headers, so they must happen before the response
// body is written.
type RequestStore struct {
	store sessions.Store
	w     http.ResponseWriter
	r     *http.Request
}

func NewRequestStore(store sessions.Store, w http.ResponseWriter, r *http.Request) *RequestStore {
	return &RequestStore{store: store, w: w, r: r}
}

func (s *RequestStore) Load() (*views.User, error) {
	sess, err := s.store.Get(s.r, SessionName)
	if err != nil {
		return nil, fmt.Errorf("read session cookie: %w", err)
	}
	raw, ok := sess.Values[userKey].(string)
	if !ok || raw == "" {
		return nil, session.ErrNoSession
	}
	var u views.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decode session user: %w", err)
	}
	if u.ID == "" {
		return nil, errors.New("decode session user: missing id")
	}
	return &u, nil
}

func (s *RequestStore) Save(u *views.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	// A cookie that failed to decode still yields a fresh session.
	sess, _ := s.store.Get(s.r, SessionName)
	sess.Values[userKey] = string(data)
	return sess.Save(s.r, s.w)
}

// Clear drops the user and keeps the form token.
func (s *RequestStore) Clear() error {
	sess, _ := s.store.Get(s.r, SessionName)
	delete(sess.Values, userKey)
	return sess.Save(s.r, s.w)
}

// Auth binds session contexts to HTTP requests.
type Auth struct {
	svc    backend.Service
	store  sessions.Store
	logger *utils.Logger
}

func New(svc backend.Service, store sessions.Store, logger *utils.Logger) *Auth {
	return &Auth{svc: svc, store: store, logger: logger}
}

type ctxKey struct{}

// Context builds the session context for one request.
func (a *Auth) Context(w http.ResponseWriter, r *http.Request) *session.Context {
	return session.New(a.svc, NewRequestStore(a.store, w, r))
}

// Attach puts the request's session context on the request, and the
// signed-in user as the backend caller.
func (a *Auth) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc := a.Context(w, r)
		ctx := context.WithValue(r.Context(), ctxKey{}, sc)
		if u := sc.User(); u != nil {
			ctx = backend.WithCaller(ctx, u.ID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Middleware redirects to /login unless the request is signed in. It
// attaches the session context itself when Attach has not run.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	require := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !FromRequest(r).IsAuthenticated() {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromRequest(r) == nil {
			a.Attach(require).ServeHTTP(w, r)
			return
		}
		require.ServeHTTP(w, r)
	})
}

// FromRequest returns the context Attach stored, or nil.
func FromRequest(r *http.Request) *session.Context {
	sc, _ := r.Context().Value(ctxKey{}).(*session.Context)
	return sc
}

// ===== CSRF =====

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// CSRFToken returns the form token for the request's session, creating and
// saving one if needed.
func (a *Auth) CSRFToken(w http.ResponseWriter, r *http.Request) string {
	sess, _ := a.store.Get(r, SessionName)
	if tok, ok := sess.Values[csrfKey].(string); ok && tok != "" {
		return tok
	}
	tok, err := generateCSRFToken()
	if err != nil {
		a.logger.Errorf("generate form token: %v", err)
		return ""
	}
	sess.Values[csrfKey] = tok
	if err := sess.Save(r, w); err != nil {
		a.logger.Errorf("save form token: %v", err)
	}
	return tok
}

func (a *Auth) ValidateCSRF(r *http.Request) error {
	sess, err := a.store.Get(r, SessionName)
	if err != nil {
		return ErrInvalidCSRF
	}
	want, ok := sess.Values[csrfKey].(string)
	got := r.PostFormValue(CSRFField)
	if !ok || want == "" || !hmac.Equal([]byte(got), []byte(want)) {
		return ErrInvalidCSRF
	}
	return nil
}

// VerifyCSRF rejects unsafe requests whose form token does not match.
func (a *Auth) VerifyCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
		default:
			if err := a.ValidateCSRF(r); err != nil {
				a.logger.Warnf("%s %s: %v", r.Method, r.URL.Path, err)
				http.Error(w, "Invalid or expired form, please reload the page", http.StatusForbidden)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
