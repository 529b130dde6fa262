// Package session holds the signed-in user for one browser session or one
// terminal client process. It trusts whatever the store hands back; there
// is no token validation and no expiry.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/harrylevesque/desuite/internal/backend"
	"github.com/harrylevesque/desuite/internal/views"
)

const (
	FallbackLogin    = "Login failed"
	FallbackRegister = "Registration failed"
)

// AuthError is returned by Login and Register. Message is what the user
// should see.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.Err }

type Context struct {
	mu    sync.RWMutex
	svc   backend.Service
	store Store
	user  *views.User
}

// New builds a context over store and restores any user already saved
// there. A stored copy that cannot be read is cleared.
func New(svc backend.Service, store Store) *Context {
	c := &Context{svc: svc, store: store}
	u, err := store.Load()
	switch {
	case err == nil && u != nil:
		c.user = u
	case errors.Is(err, ErrNoSession):
	default:
		_ = store.Clear()
	}
	return c
}

func (c *Context) Login(ctx context.Context, email, password string) (*views.User, error) {
	u, err := c.svc.Login(ctx, email, password)
	if err != nil {
		return nil, &AuthError{Message: backend.Message(err, FallbackLogin), Err: err}
	}
	return c.signIn(views.FromUser(u))
}

func (c *Context) Register(ctx context.Context, username, email, password string) (*views.User, error) {
	u, err := c.svc.Register(ctx, username, email, password)
	if err != nil {
		return nil, &AuthError{Message: backend.Message(err, FallbackRegister), Err: err}
	}
	return c.signIn(views.FromUser(u))
}

func (c *Context) signIn(u *views.User) (*views.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Save(u); err != nil {
		return nil, err
	}
	c.user = u
	return copyUser(u), nil
}

// Logout forgets the user in memory and in the store. Safe to call twice.
func (c *Context) Logout() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = nil
	return c.store.Clear()
}

// User returns a copy of the signed-in user, or nil.
func (c *Context) User() *views.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyUser(c.user)
}

func (c *Context) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user != nil
}

// Refresh replaces the cached user, e.g. after a join changed its spaces.
func (c *Context) Refresh(u *views.User) error {
	if u == nil {
		return c.Logout()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := copyUser(u)
	if err := c.store.Save(cp); err != nil {
		return err
	}
	c.user = cp
	return nil
}

func copyUser(u *views.User) *views.User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.Spaces = append([]string{}, u.Spaces...)
	return &cp
}
